package maintenance

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/anoixa/image-gallery/cache"
	"github.com/anoixa/image-gallery/cache/memory"
	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/repo/contents"
	"github.com/anoixa/image-gallery/database/repo/images"
	"github.com/anoixa/image-gallery/database/testdb"
	"github.com/anoixa/image-gallery/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	root    string
	cleaner *Cleaner
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testdb.Open(t)
	root := t.TempDir()
	local, err := storage.NewLocalStorage(root)
	require.NoError(t, err)
	mem, err := memory.NewMemory(memory.DefaultConfig(0))
	require.NoError(t, err)
	t.Cleanup(func() { _ = mem.Close() })

	c := NewCleaner(images.NewRepository(db), contents.NewRepository(db), local, cache.NewHelper(mem))
	c.batchSize = 2
	return &fixture{db: db, root: root, cleaner: c}
}

func (f *fixture) write(t *testing.T, rel string) {
	t.Helper()
	full := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte("x"), 0o644))
}

func (f *fixture) exists(rel string) bool {
	_, err := os.Stat(filepath.Join(f.root, filepath.FromSlash(rel)))
	return err == nil
}

// seed 三条记录：完整、缺原图、旧记录无扩展名；外加两个孤儿文件
func (f *fixture) seed(t *testing.T) {
	t.Helper()
	user := testdb.SeedUser(t, f.db, "alice")
	uc := testdb.SeedContent(t, f.db, user.ID, "dir1")

	testdb.SeedImage(t, f.db, uc.ID, "000000000000000a", "Intact")
	f.write(t, "dir1/000000000000000a.png")
	f.write(t, "dir1/thumbnails/000000000000000a.png")

	testdb.SeedImage(t, f.db, uc.ID, "000000000000000b", "Lost")
	f.write(t, "dir1/thumbnails/000000000000000b.png")

	legacy := testdb.SeedImage(t, f.db, uc.ID, "000000000000000c", "Legacy")
	require.NoError(t, f.db.Model(legacy).Update("ext", "").Error)
	f.write(t, "dir1/000000000000000c.jpg")

	f.write(t, "dir1/00000000000000ff.png")
	f.write(t, "dir1/thumbnails/00000000000000ee.png")
}

func TestCleaner_DryRun(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	report, err := f.cleaner.Run(context.Background(), Options{DryRun: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"000000000000000b"}, report.OrphanRecords)
	assert.ElementsMatch(t, []string{
		"dir1/00000000000000ff.png",
		"dir1/thumbnails/000000000000000b.png",
		"dir1/thumbnails/00000000000000ee.png",
	}, report.OrphanFiles)
	assert.Zero(t, report.DeletedRecords)
	assert.Zero(t, report.DeletedFiles)

	var count int64
	require.NoError(t, f.db.Model(&models.ImageContent{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
	assert.True(t, f.exists("dir1/00000000000000ff.png"))
}

func TestCleaner_Run(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	report, err := f.cleaner.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Equal(t, int64(1), report.DeletedRecords)
	assert.Equal(t, 3, report.DeletedFiles)

	var ids []string
	require.NoError(t, f.db.Model(&models.ImageContent{}).Order("file_id").Pluck("file_id", &ids).Error)
	assert.Equal(t, []string{"000000000000000a", "000000000000000c"}, ids)

	assert.True(t, f.exists("dir1/000000000000000a.png"))
	assert.True(t, f.exists("dir1/thumbnails/000000000000000a.png"))
	assert.True(t, f.exists("dir1/000000000000000c.jpg"))
	assert.False(t, f.exists("dir1/00000000000000ff.png"))
	assert.False(t, f.exists("dir1/thumbnails/000000000000000b.png"))
	assert.False(t, f.exists("dir1/thumbnails/00000000000000ee.png"))

	// 再次运行没有可清理的内容
	report, err = f.cleaner.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Empty(t, report.OrphanRecords)
	assert.Empty(t, report.OrphanFiles)
}

func TestCleaner_Scopes(t *testing.T) {
	f := newFixture(t)
	f.seed(t)

	report, err := f.cleaner.Run(context.Background(), Options{FilesOnly: true})
	require.NoError(t, err)
	assert.Empty(t, report.OrphanRecords)
	assert.Equal(t, 2, report.DeletedFiles)
	// 缺原图的记录仍在，它的缩略图保留
	assert.True(t, f.exists("dir1/thumbnails/000000000000000b.png"))
	for _, p := range report.OrphanFiles {
		assert.False(t, strings.Contains(p, "000000000000000b"), p)
	}

	report, err = f.cleaner.Run(context.Background(), Options{RecordsOnly: true})
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.DeletedRecords)
	assert.Empty(t, report.OrphanFiles)
	assert.True(t, f.exists("dir1/thumbnails/000000000000000b.png"))
}

func TestCleaner_MissingDirectory(t *testing.T) {
	f := newFixture(t)
	user := testdb.SeedUser(t, f.db, "bob")
	uc := testdb.SeedContent(t, f.db, user.ID, "gone")
	testdb.SeedImage(t, f.db, uc.ID, "0000000000000001", "Gone")

	report, err := f.cleaner.Run(context.Background(), Options{})
	require.NoError(t, err)
	assert.Empty(t, report.Errors)
	assert.Equal(t, []string{"0000000000000001"}, report.OrphanRecords)
	assert.Equal(t, int64(1), report.DeletedRecords)
}
