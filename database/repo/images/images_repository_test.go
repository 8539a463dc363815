package images

import (
	"errors"
	"testing"

	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/testdb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestCreateAndGetByFileID(t *testing.T) {
	db := testdb.Open(t)
	user := testdb.SeedUser(t, db, "alice")
	content := testdb.SeedContent(t, db, user.ID, "dir-a")
	repo := NewRepository(db)

	image := &models.ImageContent{
		FileID:        "0123456789abcdef",
		UserContentID: content.ID,
		Title:         "Hello",
		Ext:           ".jpg",
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.CreateWithTx(tx, image, []string{"Sky", "sky", " sea "})
	})
	require.NoError(t, err)
	assert.NotZero(t, image.ID)

	got, err := repo.GetByFileID("0123456789abcdef")
	require.NoError(t, err)
	assert.Equal(t, "Hello", got.Title)
	assert.Equal(t, "dir-a", got.UserContent.Directory)
	assert.Equal(t, "alice", got.UserContent.User.Username)
	assert.Equal(t, []string{"sea", "sky"}, got.TagNames())

	exists, err := repo.ExistsByFileID("0123456789abcdef")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetByFileID("missing")
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestReplaceTags(t *testing.T) {
	db := testdb.Open(t)
	user := testdb.SeedUser(t, db, "alice")
	content := testdb.SeedContent(t, db, user.ID, "dir-a")
	repo := NewRepository(db)

	img := testdb.SeedImage(t, db, content.ID, "f1", "One")
	other := testdb.SeedImage(t, db, content.ID, "f2", "Two")

	require.NoError(t, repo.ReplaceTagsWithTx(db, img, []string{"a", "b"}))
	require.NoError(t, repo.ReplaceTagsWithTx(db, other, []string{"b", "c"}))
	require.NoError(t, repo.ReplaceTagsWithTx(db, img, []string{"c"}))

	got, err := repo.GetByFileID("f1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c"}, got.TagNames())

	var tagCount int64
	require.NoError(t, db.Model(&models.Tag{}).Count(&tagCount).Error)
	assert.Equal(t, int64(3), tagCount)

	require.NoError(t, repo.ReplaceTagsWithTx(db, img, nil))
	got, err = repo.GetByFileID("f1")
	require.NoError(t, err)
	assert.Empty(t, got.Tags)
}

func TestDeleteWithTx(t *testing.T) {
	db := testdb.Open(t)
	user := testdb.SeedUser(t, db, "alice")
	content := testdb.SeedContent(t, db, user.ID, "dir-a")
	repo := NewRepository(db)

	img := testdb.SeedImage(t, db, content.ID, "f1", "One")
	require.NoError(t, repo.ReplaceTagsWithTx(db, img, []string{"x"}))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return repo.DeleteWithTx(tx, img.ID)
	}))

	var links int64
	require.NoError(t, db.Model(&models.ImageTag{}).Where("image_content_id = ?", img.ID).Count(&links).Error)
	assert.Zero(t, links)

	err := db.Transaction(func(tx *gorm.DB) error {
		return repo.DeleteWithTx(tx, img.ID)
	})
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestNeighbours(t *testing.T) {
	db := testdb.Open(t)
	user := testdb.SeedUser(t, db, "alice")
	content := testdb.SeedContent(t, db, user.ID, "dir-a")
	repo := NewRepository(db)

	first := testdb.SeedImage(t, db, content.ID, "f1", "One")
	second := testdb.SeedImage(t, db, content.ID, "f2", "Two")
	third := testdb.SeedImage(t, db, content.ID, "f3", "Three")

	prev, next, err := repo.Neighbours(second)
	require.NoError(t, err)
	require.NotNil(t, prev)
	require.NotNil(t, next)
	assert.Equal(t, "f1", prev.FileID)
	assert.Equal(t, "f3", next.FileID)

	prev, _, err = repo.Neighbours(first)
	require.NoError(t, err)
	assert.Nil(t, prev)

	_, next, err = repo.Neighbours(third)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestDeleteByIDs(t *testing.T) {
	db := testdb.Open(t)
	user := testdb.SeedUser(t, db, "alice")
	content := testdb.SeedContent(t, db, user.ID, "dir-a")
	repo := NewRepository(db)

	a := testdb.SeedImage(t, db, content.ID, "f1", "One")
	b := testdb.SeedImage(t, db, content.ID, "f2", "Two")
	testdb.SeedImage(t, db, content.ID, "f3", "Three")
	testdb.SeedVote(t, db, user.ID, a.ID, models.VoteUp)

	n, err := repo.DeleteByIDs([]uint{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	var remaining []models.ImageContent
	require.NoError(t, repo.FindInBatches(10, func(batch []models.ImageContent) error {
		remaining = append(remaining, batch...)
		return nil
	}))
	require.Len(t, remaining, 1)
	assert.Equal(t, "f3", remaining[0].FileID)
	assert.Equal(t, "dir-a", remaining[0].UserContent.Directory)

	var votes int64
	require.NoError(t, db.Model(&models.VoteCounter{}).Count(&votes).Error)
	assert.Zero(t, votes)
}

func TestNormalizeTags(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, NormalizeTags([]string{" A ", "b", "a", ""}))
	assert.Empty(t, NormalizeTags(nil))
}
