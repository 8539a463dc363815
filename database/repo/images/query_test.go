package images

import (
	"testing"

	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func fileIDs(items []models.ImageContent) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.FileID)
	}
	return ids
}

// seedScored 三张图片：plus2 得 +2，zero 无投票，minus1 得 -1
func seedScored(t *testing.T, db *gorm.DB) {
	t.Helper()
	owner := testdb.SeedUser(t, db, "owner")
	content := testdb.SeedContent(t, db, owner.ID, "dir-owner")

	plus2 := testdb.SeedImage(t, db, content.ID, "plus2", "Plus Two")
	zero := testdb.SeedImage(t, db, content.ID, "zero", "Zero")
	minus1 := testdb.SeedImage(t, db, content.ID, "minus1", "Minus One")
	_ = zero

	v1 := testdb.SeedUser(t, db, "v1")
	v2 := testdb.SeedUser(t, db, "v2")
	testdb.SeedVote(t, db, v1.ID, plus2.ID, models.VoteUp)
	testdb.SeedVote(t, db, v2.ID, plus2.ID, models.VoteUp)
	testdb.SeedVote(t, db, v1.ID, minus1.ID, models.VoteDown)
}

func TestList_ScoreOrdering(t *testing.T) {
	db := testdb.Open(t)
	seedScored(t, db)
	repo := NewRepository(db)

	items, total, err := repo.List(QuerySpec{SortBy: SortByScore, Order: OrderDesc, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Equal(t, []string{"plus2", "zero", "minus1"}, fileIDs(items))

	items, _, err = repo.List(QuerySpec{SortBy: SortByScore, Order: OrderAsc, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"minus1", "zero", "plus2"}, fileIDs(items))
}

func TestList_ScoreTieUnvotedPlacement(t *testing.T) {
	db := testdb.Open(t)
	owner := testdb.SeedUser(t, db, "owner")
	content := testdb.SeedContent(t, db, owner.ID, "dir")

	balanced := testdb.SeedImage(t, db, content.ID, "balanced", "Balanced")
	testdb.SeedImage(t, db, content.ID, "unvoted", "Unvoted")

	a := testdb.SeedUser(t, db, "a")
	b := testdb.SeedUser(t, db, "b")
	testdb.SeedVote(t, db, a.ID, balanced.ID, models.VoteUp)
	testdb.SeedVote(t, db, b.ID, balanced.ID, models.VoteDown)

	repo := NewRepository(db)

	items, _, err := repo.List(QuerySpec{SortBy: SortByScore, Order: OrderAsc, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"unvoted", "balanced"}, fileIDs(items))

	items, _, err = repo.List(QuerySpec{SortBy: SortByScore, Order: OrderDesc, Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Equal(t, []string{"balanced", "unvoted"}, fileIDs(items))
}

func TestList_UploadTimeAndPagination(t *testing.T) {
	db := testdb.Open(t)
	owner := testdb.SeedUser(t, db, "owner")
	content := testdb.SeedContent(t, db, owner.ID, "dir")
	for _, id := range []string{"a", "b", "c", "d", "e"} {
		testdb.SeedImage(t, db, content.ID, id, "Title "+id)
	}
	repo := NewRepository(db)

	items, total, err := repo.List(QuerySpec{SortBy: SortByUploadTime, Order: OrderDesc, Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Equal(t, []string{"e", "d"}, fileIDs(items))

	items, _, err = repo.List(QuerySpec{SortBy: SortByUploadTime, Order: OrderDesc, Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, fileIDs(items))

	items, total, err = repo.List(QuerySpec{SortBy: SortByUploadTime, Order: OrderDesc, Page: 4, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), total)
	assert.Empty(t, items)

	items, _, err = repo.List(QuerySpec{SortBy: SortByUploadTime, Order: OrderAsc, Page: 1, PageSize: 10})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c", "d", "e"}, fileIDs(items))
}

func TestList_Filters(t *testing.T) {
	db := testdb.Open(t)
	alice := testdb.SeedUser(t, db, "alice")
	bob := testdb.SeedUser(t, db, "bob")
	ac := testdb.SeedContent(t, db, alice.ID, "dir-a")
	bc := testdb.SeedContent(t, db, bob.ID, "dir-b")

	repo := NewRepository(db)

	sunset := testdb.SeedImage(t, db, ac.ID, "sunset", "Golden Sunset")
	cat := testdb.SeedImage(t, db, bc.ID, "cat", "My cat")
	testdb.SeedImage(t, db, bc.ID, "pct", "100% real_photo")

	require.NoError(t, repo.ReplaceTagsWithTx(db, sunset, []string{"Nature", "sky"}))
	require.NoError(t, repo.ReplaceTagsWithTx(db, cat, []string{"pets", "nature"}))

	items, _, err := repo.List(QuerySpec{Page: 1, PageSize: 20, Search: "SUNSET"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset"}, fileIDs(items))

	// 标签子串
	items, _, err = repo.List(QuerySpec{Page: 1, PageSize: 20, Search: "natu", Order: OrderAsc})
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset", "cat"}, fileIDs(items))

	// 通配符按字面匹配
	items, _, err = repo.List(QuerySpec{Page: 1, PageSize: 20, Search: "%"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pct"}, fileIDs(items))

	items, _, err = repo.List(QuerySpec{Page: 1, PageSize: 20, Tag: "Pets"})
	require.NoError(t, err)
	assert.Equal(t, []string{"cat"}, fileIDs(items))

	items, total, err := repo.List(QuerySpec{Page: 1, PageSize: 20, UserContentID: bc.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	assert.ElementsMatch(t, []string{"cat", "pct"}, fileIDs(items))

	items, total, err = repo.List(QuerySpec{Page: 1, PageSize: 20, Tag: "none"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, items)
}

func TestParseSort(t *testing.T) {
	field, ok := ParseSortField("")
	assert.True(t, ok)
	assert.Equal(t, SortByUploadTime, field)

	field, ok = ParseSortField("Score")
	assert.True(t, ok)
	assert.Equal(t, SortByScore, field)

	_, ok = ParseSortField("name")
	assert.False(t, ok)

	order, ok := ParseSortOrder("")
	assert.True(t, ok)
	assert.Equal(t, OrderDesc, order)

	order, ok = ParseSortOrder("ASC")
	assert.True(t, ok)
	assert.Equal(t, OrderAsc, order)

	_, ok = ParseSortOrder("sideways")
	assert.False(t, ok)

	assert.Equal(t, 40, QuerySpec{Page: 3, PageSize: 20}.Offset())
	assert.Equal(t, 0, QuerySpec{Page: 0, PageSize: 20}.Offset())
}
