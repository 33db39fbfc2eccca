package ocr

import (
	"fmt"
	"testing"
)

func textResult(s string) Result {
	return Result{AnalyzeResult: AnalyzeResult{ReadResults: []ReadResult{
		{Page: 1, Lines: []Line{{Text: s}}},
	}}}
}

func TestKeyDependsOnImageAndPage(t *testing.T) {
	img := []byte("same bytes")

	if Key(img, 0) == Key(img, 1) {
		t.Fatal("keys for different pages should differ")
	}
	if Key(img, 0) != Key([]byte("same bytes"), 0) {
		t.Fatal("keys for identical input should match")
	}
	if Key(img, 0) == Key([]byte("other bytes"), 0) {
		t.Fatal("keys for different images should differ")
	}
}

func TestCachePutGet(t *testing.T) {
	c := NewCache(4)

	key := Key([]byte("page"), 0)
	if _, ok := c.Get(key); ok {
		t.Fatal("empty cache should miss")
	}

	c.Put(key, textResult("hello"))
	res, ok := c.Get(key)
	if !ok {
		t.Fatal("expected cache hit")
	}
	if got := res.PlainText(); got != "hello" {
		t.Fatalf("cached text = %q, want %q", got, "hello")
	}
}

func TestCacheEvictsOldestWhenFull(t *testing.T) {
	c := NewCache(2)

	first := Key([]byte("a"), 0)
	c.Put(first, textResult("a"))
	c.Put(Key([]byte("b"), 0), textResult("b"))
	c.Put(Key([]byte("c"), 0), textResult("c"))

	if c.Len() != 2 {
		t.Fatalf("cache length = %d, want 2", c.Len())
	}
	if _, ok := c.Get(first); ok {
		t.Fatal("oldest entry should have been evicted")
	}
	if _, ok := c.Get(Key([]byte("c"), 0)); !ok {
		t.Fatal("newest entry should be present")
	}
}

func TestCacheRefreshDoesNotEvict(t *testing.T) {
	c := NewCache(2)

	k := Key([]byte("a"), 0)
	c.Put(k, textResult("old"))
	c.Put(Key([]byte("b"), 0), textResult("b"))

	// Re-putting an existing key must not push anything out.
	c.Put(k, textResult("new"))

	if c.Len() != 2 {
		t.Fatalf("cache length = %d, want 2", c.Len())
	}
	res, ok := c.Get(k)
	if !ok || res.PlainText() != "new" {
		t.Fatalf("refreshed entry = %v (hit=%v), want new", res.PlainText(), ok)
	}
}

func TestCacheDefaultSize(t *testing.T) {
	c := NewCache(0)
	for i := 0; i < DefaultCacheSize+10; i++ {
		c.Put(Key(fmt.Appendf(nil, "img-%d", i), i), textResult("x"))
	}
	if c.Len() != DefaultCacheSize {
		t.Fatalf("cache length = %d, want %d", c.Len(), DefaultCacheSize)
	}
}
