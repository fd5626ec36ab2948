package cache

import (
	"context"
	"testing"

	"github.com/adipk/ragdocs/internal/domain/docmodel"
	"github.com/alicebob/miniredis/v2"
)

func newTestCache(t *testing.T) *RedisCache {
	t.Helper()
	mr := miniredis.RunT(t)
	c, err := NewRedisCache(context.Background(), mr.Addr())
	if err != nil {
		t.Fatalf("connecting to miniredis: %v", err)
	}
	return c
}

func TestRedisCache_RoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	result := docmodel.QueryResult{
		Answer: "forty-two",
		Context: []docmodel.SearchResult{
			{ChunkId: "chunk-1", DocumentId: "doc-1", Content: "the answer", Similarity: 0.91},
		},
	}
	key := Key("what is the answer?", []string{"doc-1"}, 5)

	if err := c.Put(ctx, key, result); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, found := c.Get(ctx, key)
	if !found {
		t.Fatal("Expected cache hit")
	}
	if got.Answer != result.Answer {
		t.Errorf("Answer = %q, want %q", got.Answer, result.Answer)
	}
	if len(got.Context) != 1 || got.Context[0].ChunkId != "chunk-1" {
		t.Errorf("Context lost in round trip: %+v", got.Context)
	}
}

func TestRedisCache_Miss(t *testing.T) {
	c := newTestCache(t)
	if _, found := c.Get(context.Background(), "answer:never-written"); found {
		t.Error("Expected cache miss")
	}
}

func TestKey_ScopeSensitivity(t *testing.T) {
	base := Key("question", []string{"a", "b"}, 5)

	tests := []struct {
		name      string
		question  string
		ids       []string
		topK      int
		wantEqual bool
	}{
		{"same inputs", "question", []string{"a", "b"}, 5, true},
		{"id order is irrelevant", "question", []string{"b", "a"}, 5, true},
		{"different question", "other question", []string{"a", "b"}, 5, false},
		{"different filter", "question", []string{"a"}, 5, false},
		{"no filter", "question", nil, 5, false},
		{"different topK", "question", []string{"a", "b"}, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Key(tt.question, tt.ids, tt.topK)
			if (got == base) != tt.wantEqual {
				t.Errorf("Key equality = %v, want %v", got == base, tt.wantEqual)
			}
		})
	}
}

func TestNoopCache(t *testing.T) {
	var c NoopCache
	ctx := context.Background()

	if err := c.Put(ctx, "k", docmodel.QueryResult{Answer: "x"}); err != nil {
		t.Fatalf("NoopCache.Put: %v", err)
	}
	if _, found := c.Get(ctx, "k"); found {
		t.Error("NoopCache must always miss")
	}
}
