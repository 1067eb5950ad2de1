package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/afflytics/afflytics/internal/model"
	"github.com/afflytics/afflytics/internal/repository"
)

// ErrPostNotFound indicates the targeted post is absent from the local
// collection. It wraps repository.ErrNotFound so callers can treat both
// tiers' misses uniformly.
var ErrPostNotFound = fmt.Errorf("post not found in local cache: %w", repository.ErrNotFound)

// PostStore is the local fallback store for blog posts. The whole
// collection lives under a single JSON-encoded array key; each write is
// a read-modify-write of that key. This is a best-effort cache, not a
// system of record, so a lost update under concurrent writers is
// tolerated.
type PostStore struct {
	cache *Cache
}

// NewPostStore creates a PostStore on top of the shared cache.
func NewPostStore(cache *Cache) *PostStore {
	return &PostStore{cache: cache}
}

func (s *PostStore) key() string {
	return Key("posts")
}

// Create inserts a post into the local collection, replacing any entry
// with the same id.
func (s *PostStore) Create(ctx context.Context, post *model.Post) error {
	return s.upsert(ctx, post)
}

// Update replaces the post with the same id. Unlike the remote store it
// does not require the entry to exist: during an outage the local tier
// may never have seen the create.
func (s *PostStore) Update(ctx context.Context, post *model.Post) error {
	return s.upsert(ctx, post)
}

func (s *PostStore) upsert(ctx context.Context, post *model.Post) error {
	posts, err := s.load(ctx)
	if err != nil {
		return err
	}

	replaced := false
	for i := range posts {
		if posts[i].ID == post.ID {
			posts[i] = *post
			replaced = true
			break
		}
	}
	if !replaced {
		posts = append(posts, *post)
	}
	return s.store(ctx, posts)
}

// Delete removes a post by id. Removing an absent post is a no-op, for
// the same outage reason as Update.
func (s *PostStore) Delete(ctx context.Context, id string) error {
	posts, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := posts[:0]
	for _, p := range posts {
		if p.ID != id {
			kept = append(kept, p)
		}
	}
	return s.store(ctx, kept)
}

// Get fetches a post by id from the local collection.
func (s *PostStore) Get(ctx context.Context, id string) (*model.Post, error) {
	posts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		if posts[i].ID == id {
			return &posts[i], nil
		}
	}
	return nil, ErrPostNotFound
}

// List returns all locally cached posts, newest first, mirroring the
// remote store's ordering.
func (s *PostStore) List(ctx context.Context) ([]model.Post, error) {
	posts, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(posts, func(i, j int) bool {
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	return posts, nil
}

func (s *PostStore) load(ctx context.Context) ([]model.Post, error) {
	payload, err := s.cache.client.Get(ctx, s.key()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []model.Post{}, nil
		}
		return nil, fmt.Errorf("load post collection: %w", err)
	}

	var posts []model.Post
	if err := json.Unmarshal(payload, &posts); err != nil {
		return nil, fmt.Errorf("decode post collection: %w", err)
	}
	return posts, nil
}

func (s *PostStore) store(ctx context.Context, posts []model.Post) error {
	payload, err := json.Marshal(posts)
	if err != nil {
		return fmt.Errorf("encode post collection: %w", err)
	}
	if err := s.cache.client.Set(ctx, s.key(), payload, 0).Err(); err != nil {
		return fmt.Errorf("store post collection: %w", err)
	}
	return nil
}
