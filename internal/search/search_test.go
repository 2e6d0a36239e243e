package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audiotruyenapp/audiotruyen-player/internal/domain"
)

func newTestIndex(t *testing.T) *StoryIndex {
	t.Helper()
	idx, err := New(Options{DataPath: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func seedStories(t *testing.T, idx *StoryIndex) {
	t.Helper()
	err := idx.IndexStories([]domain.Story{
		{ID: 1, Slug: "linh-vu-thien-ha", Title: "Linh Vũ Thiên Hạ", Author: "Vũ Phong"},
		{ID: 2, Slug: "kiem-lai", Title: "Kiếm Lai", Author: "Phong Hỏa Hí Chư Hầu"},
		{ID: 3, Slug: "dai-dao-trieu-thien", Title: "Đại Đạo Triều Thiên", Author: "Miêu Nị"},
	})
	require.NoError(t, err)
}

func TestFold(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Truyện", "truyen"},
		{"Đại Đạo", "dai dao"},
		{"Kiếm Lai", "kiem lai"},
		{"Linh Vũ Thiên Hạ", "linh vu thien ha"},
		{"plain ascii", "plain ascii"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Fold(tt.in), "Fold(%q)", tt.in)
	}
}

func TestSearchExactTitle(t *testing.T) {
	idx := newTestIndex(t)
	seedStories(t, idx)

	res, err := idx.Search(context.Background(), "Kiếm Lai", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, int64(2), res.Hits[0].StoryID)
	assert.Equal(t, "kiem-lai", res.Hits[0].Slug)
}

func TestSearchFoldedQueryMatchesAccentedTitle(t *testing.T) {
	idx := newTestIndex(t)
	seedStories(t, idx)

	res, err := idx.Search(context.Background(), "kiem lai", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits, "ASCII query must match the accented title")
	assert.Equal(t, int64(2), res.Hits[0].StoryID)

	res, err = idx.Search(context.Background(), "dai dao", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, int64(3), res.Hits[0].StoryID)
}

func TestSearchByAuthor(t *testing.T) {
	idx := newTestIndex(t)
	seedStories(t, idx)

	res, err := idx.Search(context.Background(), "mieu ni", 10)
	require.NoError(t, err)
	require.NotEmpty(t, res.Hits)
	assert.Equal(t, int64(3), res.Hits[0].StoryID)
}

func TestSearchEmptyQueryMatchesAll(t *testing.T) {
	idx := newTestIndex(t)
	seedStories(t, idx)

	res, err := idx.Search(context.Background(), "", 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), res.Total)
}

func TestReindexReplacesDocument(t *testing.T) {
	idx := newTestIndex(t)
	seedStories(t, idx)

	require.NoError(t, idx.IndexStory(&domain.Story{
		ID: 2, Slug: "kiem-lai", Title: "Kiếm Lai (bản mới)", Author: "Phong Hỏa Hí Chư Hầu",
	}))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(3), count, "reindex must replace, not duplicate")
}

func TestDeleteStory(t *testing.T) {
	idx := newTestIndex(t)
	seedStories(t, idx)

	require.NoError(t, idx.DeleteStory(1))

	count, err := idx.Count()
	require.NoError(t, err)
	assert.Equal(t, uint64(2), count)

	res, err := idx.Search(context.Background(), "linh vu", 10)
	require.NoError(t, err)
	for _, hit := range res.Hits {
		assert.NotEqual(t, int64(1), hit.StoryID)
	}
}
