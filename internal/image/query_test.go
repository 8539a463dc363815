package image

import (
	"context"
	"testing"

	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/repo/images"
	"github.com/anoixa/image-gallery/database/testdb"
	"github.com/anoixa/image-gallery/internal/errs"
	"github.com/anoixa/image-gallery/internal/vote"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuerySpec_Normalize(t *testing.T) {
	tests := []struct {
		name    string
		in      QuerySpec
		want    QuerySpec
		wantErr bool
	}{
		{
			name: "defaults",
			in:   QuerySpec{Page: 1},
			want: QuerySpec{SortBy: images.SortByUploadTime, Order: images.OrderDesc, Page: 1, PageSize: 20},
		},
		{
			name: "clamp page size",
			in:   QuerySpec{SortBy: "score", Order: "ASC", Page: 3, PageSize: 1000, Owner: " bob "},
			want: QuerySpec{SortBy: images.SortByScore, Order: images.OrderAsc, Page: 3, PageSize: 100, Owner: "bob"},
		},
		{name: "page zero", in: QuerySpec{Page: 0}, wantErr: true},
		{name: "unknown sort", in: QuerySpec{Page: 1, SortBy: "title"}, wantErr: true},
		{name: "unknown order", in: QuerySpec{Page: 1, Order: "sideways"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := tt.in
			err := spec.Normalize(20, 100)
			if tt.wantErr {
				assert.ErrorIs(t, err, errs.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec)
		})
	}
}

func fileIDs(items []GalleryItem) []string {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ImageID)
	}
	return ids
}

// seedScored 三张图片，分数分别为 +2、0（无投票）、-1
func seedScored(t *testing.T, f *fixture) (owner *models.User, plus, zero, minus *models.ImageContent) {
	t.Helper()
	owner = testdb.SeedUser(t, f.db, "owner")
	uc := testdb.SeedContent(t, f.db, owner.ID, "ownerdir")
	plus = testdb.SeedImage(t, f.db, uc.ID, "00000000000000p2", "Plus")
	zero = testdb.SeedImage(t, f.db, uc.ID, "00000000000000z0", "Zero")
	minus = testdb.SeedImage(t, f.db, uc.ID, "00000000000000m1", "Minus")

	v1 := testdb.SeedUser(t, f.db, "v1")
	v2 := testdb.SeedUser(t, f.db, "v2")
	testdb.SeedVote(t, f.db, v1.ID, plus.ID, 1)
	testdb.SeedVote(t, f.db, v2.ID, plus.ID, 1)
	testdb.SeedVote(t, f.db, v1.ID, minus.ID, -1)
	return owner, plus, zero, minus
}

func TestList_ScoreOrdering(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, plus, zero, minus := seedScored(t, f)

	desc, err := f.svc.List(ctx, QuerySpec{SortBy: images.SortByScore, Order: images.OrderDesc, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{plus.FileID, zero.FileID, minus.FileID}, fileIDs(desc.Items))
	assert.Equal(t, vote.Metrics{Total: 2, Upvotes: 2}, desc.Items[0].Metrics)
	assert.Equal(t, vote.Metrics{}, desc.Items[1].Metrics)
	assert.Equal(t, vote.Metrics{Total: -1, Downvotes: 1}, desc.Items[2].Metrics)
	assert.Equal(t, "owner", desc.Items[0].Owner)

	asc, err := f.svc.List(ctx, QuerySpec{SortBy: images.SortByScore, Order: images.OrderAsc, Page: 1})
	require.NoError(t, err)
	assert.Equal(t, []string{minus.FileID, zero.FileID, plus.FileID}, fileIDs(asc.Items))
}

func TestList_Pagination(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testdb.SeedUser(t, f.db, "alice")
	uc := testdb.SeedContent(t, f.db, user.ID, "alicedir")
	for _, id := range []string{"0000000000000001", "0000000000000002", "0000000000000003", "0000000000000004", "0000000000000005"} {
		testdb.SeedImage(t, f.db, uc.ID, id, "img "+id)
	}

	page1, err := f.svc.List(ctx, QuerySpec{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(5), page1.Total)
	assert.Equal(t, 3, page1.TotalPages)
	assert.Equal(t, []string{"0000000000000005", "0000000000000004"}, fileIDs(page1.Items))
	assert.Equal(t, testBaseURL+"/thumbnails/0000000000000005", page1.Items[0].ThumbnailURL)

	page3, err := f.svc.List(ctx, QuerySpec{Page: 3, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"0000000000000001"}, fileIDs(page3.Items))

	_, err = f.svc.List(ctx, QuerySpec{Page: 4, PageSize: 2})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	_, err = f.svc.List(ctx, QuerySpec{Page: 0})
	assert.ErrorIs(t, err, errs.ErrInvalidInput)
}

func TestList_EmptyGallery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.svc.List(ctx, QuerySpec{Page: 1})
	require.NoError(t, err)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Items)
	assert.Zero(t, res.TotalPages)

	_, err = f.svc.List(ctx, QuerySpec{Page: 2})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestList_OwnerFilter(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner, plus, zero, minus := seedScored(t, f)

	other := testdb.SeedUser(t, f.db, "other")
	otherContent := testdb.SeedContent(t, f.db, other.ID, "otherdir")
	testdb.SeedImage(t, f.db, otherContent.ID, "00000000000000ot", "Other")
	testdb.SeedUser(t, f.db, "lurker")

	res, err := f.svc.List(ctx, QuerySpec{Page: 1, Owner: owner.Username, SortBy: images.SortByScore})
	require.NoError(t, err)
	assert.Equal(t, []string{plus.FileID, zero.FileID, minus.FileID}, fileIDs(res.Items))

	_, err = f.svc.List(ctx, QuerySpec{Page: 1, Owner: "nobody"})
	assert.ErrorIs(t, err, errs.ErrNotFound)

	res, err = f.svc.List(ctx, QuerySpec{Page: 1, Owner: "lurker"})
	require.NoError(t, err)
	assert.Empty(t, res.Items)

	_, err = f.svc.List(ctx, QuerySpec{Page: 2, Owner: "lurker"})
	assert.ErrorIs(t, err, errs.ErrNotFound)
}

func TestList_SearchAndTag(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := testdb.SeedUser(t, f.db, "alice")

	sunset := f.upload(t, user.ID, "a.png", "Golden Sunset", encodeImage(t, "png", 20, 20))
	cat := f.upload(t, user.ID, "b.png", "Kitten", encodeImage(t, "png", 20, 20))
	_, err := f.svc.UpdateImage(ctx, user.ID, cat.FileID, UpdateRequest{Tags: &[]string{"sunny", "pets"}})
	require.NoError(t, err)

	res, err := f.svc.List(ctx, QuerySpec{Page: 1, Search: "SUN"})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{sunset.FileID, cat.FileID}, fileIDs(res.Items))

	res, err = f.svc.List(ctx, QuerySpec{Page: 1, Tag: "pets"})
	require.NoError(t, err)
	assert.Equal(t, []string{cat.FileID}, fileIDs(res.Items))
	assert.ElementsMatch(t, []string{"pets", "sunny"}, res.Items[0].Tags)
}
