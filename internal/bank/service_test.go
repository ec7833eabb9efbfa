package bank

import (
	"context"
	"errors"
	"testing"
	"testing/fstest"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prepdesk/exam-service/internal/parser"
)

const demoDoc = `1. Pick one. - A. Foo - B. Bar <details>Correct answer: B</details>
2. Choose two. - A. X - B. Y - C. Z <details>Correct answer(s): A, C</details>`

type countingCache struct {
	inner Cache
	gets  int
	sets  int
}

func (c *countingCache) Get(ctx context.Context, examID string) ([]parser.Question, error) {
	c.gets++
	return c.inner.Get(ctx, examID)
}

func (c *countingCache) Set(ctx context.Context, examID string, qs []parser.Question) error {
	c.sets++
	return c.inner.Set(ctx, examID, qs)
}

type failingCache struct{}

func (failingCache) Get(context.Context, string) ([]parser.Question, error) {
	return nil, errors.New("cache down")
}

func (failingCache) Set(context.Context, string, []parser.Question) error {
	return errors.New("cache down")
}

func testService(fsys fstest.MapFS, cache Cache, defaultExam string) *Service {
	loader := NewLoader(fsys, zerolog.Nop())
	return NewService(loader, cache, defaultExam, parser.DefaultOptions(), zerolog.Nop())
}

func TestCatalog(t *testing.T) {
	fsys := fstest.MapFS{
		"zz-advanced.txt": {Data: []byte(demoDoc)},
		"aws-saa.txt":     {Data: []byte(demoDoc)},
		"notes.md":        {Data: []byte(demoDoc)},
		"ignored.json":    {Data: []byte("{}")},
		"practice-exam-1": {Data: []byte("no extension")},
	}
	svc := testService(fsys, NewMemoryCache(time.Minute), "")
	assert.Equal(t, []string{"aws-saa", "notes", "zz-advanced"}, svc.Catalog())
}

func TestFetchParsesAndCaches(t *testing.T) {
	fsys := fstest.MapFS{"aws-saa.txt": {Data: []byte(demoDoc)}}
	cache := &countingCache{inner: NewMemoryCache(time.Minute)}
	svc := testService(fsys, cache, "")

	served, qs := svc.Fetch(context.Background(), "aws-saa")
	assert.Equal(t, "aws-saa", served)
	require.Len(t, qs, 2)
	assert.Equal(t, []string{"B"}, qs[0].Correct)

	_, again := svc.Fetch(context.Background(), "aws-saa")
	assert.Equal(t, qs, again)
	assert.Equal(t, 1, cache.sets, "second fetch must come from cache")
}

func TestFetchFallsBackToDefaultExam(t *testing.T) {
	fsys := fstest.MapFS{"default.txt": {Data: []byte(demoDoc)}}
	svc := testService(fsys, NewMemoryCache(time.Minute), "default")

	served, qs := svc.Fetch(context.Background(), "missing")
	assert.Equal(t, "default", served)
	assert.Len(t, qs, 2)
}

func TestFetchReturnsEmptyWhenNothingLoads(t *testing.T) {
	svc := testService(fstest.MapFS{}, NewMemoryCache(time.Minute), "also-missing")

	served, qs := svc.Fetch(context.Background(), "missing")
	assert.Equal(t, "missing", served)
	assert.Empty(t, qs)
}

func TestFetchSurvivesCacheFailure(t *testing.T) {
	fsys := fstest.MapFS{"aws-saa.txt": {Data: []byte(demoDoc)}}
	svc := testService(fsys, failingCache{}, "")

	_, qs := svc.Fetch(context.Background(), "aws-saa")
	assert.Len(t, qs, 2)
}

func TestFetchSkipsMalformedBlocks(t *testing.T) {
	doc := "1. Broken block without options.\n" + "2. Fine. - A. Yes - B. No <details>Correct answer: A</details>\n"
	fsys := fstest.MapFS{"mixed.txt": {Data: []byte(doc)}}
	svc := testService(fsys, NewMemoryCache(time.Minute), "")

	_, qs := svc.Fetch(context.Background(), "mixed")
	require.Len(t, qs, 1)
	assert.Equal(t, "Fine.", qs[0].Text)
}

func TestFetchEmptyBankTreatedAsUnavailable(t *testing.T) {
	fsys := fstest.MapFS{
		"empty.txt":   {Data: []byte("prose only, no questions")},
		"default.txt": {Data: []byte(demoDoc)},
	}
	svc := testService(fsys, NewMemoryCache(time.Minute), "default")

	served, qs := svc.Fetch(context.Background(), "empty")
	assert.Equal(t, "default", served)
	assert.Len(t, qs, 2)
}

func TestMemoryCacheExpiry(t *testing.T) {
	cache := NewMemoryCache(10 * time.Millisecond)
	qs := parser.Parse(demoDoc)
	require.NoError(t, cache.Set(context.Background(), "x", qs))

	got, err := cache.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, qs, got)

	time.Sleep(15 * time.Millisecond)
	got, err = cache.Get(context.Background(), "x")
	require.NoError(t, err)
	assert.Nil(t, got)
}
