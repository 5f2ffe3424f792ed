package web

import (
	"context"
	"strings"
	"testing"

	"github.com/aleister1102/releasewatch/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownRenderer_Render(t *testing.T) {
	r := NewMarkdownRenderer()

	html, err := r.Render("# Title\n\n- [x] done\n\n<img src=x onerror=alert(1)>\n\n[link](javascript:alert(1))")
	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "<h1")
	assert.NotContains(t, out, "onerror")
	assert.NotContains(t, out, "javascript:")
}

func TestMarkdownRenderer_Excerpt(t *testing.T) {
	r := NewMarkdownRenderer()

	assert.Equal(t, "Fixes a crash", r.Excerpt("**Fixes** a   crash", 0))
	assert.Equal(t, "", r.Excerpt("", 10))

	long := strings.Repeat("ä", 20)
	got := r.Excerpt(long, 5)
	assert.Equal(t, strings.Repeat("ä", 5)+"…", got)
}

func TestPageCache_DisabledIsNoop(t *testing.T) {
	cache := NewPageCache(context.Background(), config.RedisConfig{}, zerolog.Nop())
	assert.False(t, cache.Enabled())

	cache.Set(context.Background(), "k", "v")
	_, ok := cache.Get(context.Background(), "k")
	assert.False(t, ok)
	assert.NoError(t, cache.Close())

	var nilCache *PageCache
	_, ok = nilCache.Get(context.Background(), "k")
	assert.False(t, ok)
}

func TestPageCache_UnreachableRedisIsBypassed(t *testing.T) {
	cache := NewPageCache(context.Background(), config.RedisConfig{Addr: "127.0.0.1:1", TTLSeconds: 60}, zerolog.Nop())
	assert.False(t, cache.Enabled())
}

func TestHumanBytes(t *testing.T) {
	assert.Equal(t, "512 B", humanBytes(512))
	assert.Equal(t, "2.0 KiB", humanBytes(2048))
	assert.Equal(t, "1.5 MiB", humanBytes(1536*1024))
}
