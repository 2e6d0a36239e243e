package covers

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testPNG renders a small gradient so the BlurHash has real content.
func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 32, 48))
	for y := 0; y < 48; y++ {
		for x := 0; x < 32; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 8), G: uint8(y * 5), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestEnsureDownloadsAndHashes(t *testing.T) {
	var hits atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "image/png")
		w.Write(testPNG(t))
	}))
	t.Cleanup(srv.Close)

	cache, err := NewCache(t.TempDir(), nil)
	require.NoError(t, err)

	hash, err := cache.Ensure(context.Background(), 42, srv.URL+"/cover.png")
	require.NoError(t, err)
	assert.NotEmpty(t, hash)
	assert.Equal(t, int64(1), hits.Load())

	// Second ensure comes from cache.
	again, err := cache.Ensure(context.Background(), 42, srv.URL+"/cover.png")
	require.NoError(t, err)
	assert.Equal(t, hash, again)
	assert.Equal(t, int64(1), hits.Load())

	path, ok := cache.CoverPath(42)
	assert.True(t, ok)
	assert.FileExists(t, path)
}

func TestBlurHashSurvivesRestart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write(testPNG(t))
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cache, err := NewCache(dir, nil)
	require.NoError(t, err)

	hash, err := cache.Ensure(context.Background(), 7, srv.URL)
	require.NoError(t, err)

	// A fresh cache over the same directory reads the sidecar file.
	reopened, err := NewCache(dir, nil)
	require.NoError(t, err)

	got, ok := reopened.BlurHash(7)
	assert.True(t, ok)
	assert.Equal(t, hash, got)
}

func TestEnsureWithoutURL(t *testing.T) {
	cache, err := NewCache(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = cache.Ensure(context.Background(), 1, "")
	assert.Error(t, err)
}

func TestEnsureRejectsNonImage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("not an image"))
	}))
	t.Cleanup(srv.Close)

	cache, err := NewCache(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = cache.Ensure(context.Background(), 1, srv.URL)
	assert.Error(t, err)

	_, ok := cache.CoverPath(1)
	assert.False(t, ok)
}

func TestEnsureDownloadFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	cache, err := NewCache(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = cache.Ensure(context.Background(), 1, srv.URL)
	assert.Error(t, err)
}
