package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/anoixa/image-gallery/database/models"
	"github.com/anoixa/image-gallery/database/repo/images"
	"github.com/anoixa/image-gallery/internal/errs"
	"github.com/anoixa/image-gallery/storage"
	"github.com/anoixa/image-gallery/utils/logger"
	"github.com/anoixa/image-gallery/utils/pool"
	"github.com/anoixa/image-gallery/utils/validator"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

const fileIDAttempts = 3

// Ingest 校验并保存上传的图片与缩略图
//
// 记录在事务中创建，两个文件都写入成功后才提交；任何一步失败都回滚记录并删除本次写入的文件。
func (s *Service) Ingest(ctx context.Context, req IngestRequest) (*models.ImageContent, error) {
	title := req.Title
	description := req.Description
	tags := images.NormalizeTags(req.Tags)
	if err := validateFields(&title, &description, tags); err != nil {
		return nil, err
	}

	settings := s.gallerySettings(ctx)
	v := validator.NewImageValidator(settings.AllowedExtensions)

	ext, err := v.CheckExtension(req.Filename)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrInvalidFileType, err)
	}

	data, err := s.readUpload(req.Reader)
	if err != nil {
		return nil, err
	}

	if _, err := v.CheckContent(data, ext); err != nil {
		return nil, fmt.Errorf("%w: %v", errs.ErrFileContentMismatch, err)
	}

	// 解码像素前先按图片头限制尺寸
	if _, err := CheckDimensions(data, settings.MaxDimension); err != nil {
		if errors.Is(err, errs.ErrInvalidInput) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", errs.ErrFileContentMismatch, err)
	}

	if err := s.users.WithContext(ctx).EnsureUser(req.UserID, req.Username); err != nil {
		return nil, fmt.Errorf("%w: failed to register user: %v", errs.ErrPersistenceConflict, err)
	}

	userContent, err := s.allocator.ResolveOrCreate(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	fileID, err := s.newFileID(ctx)
	if err != nil {
		return nil, err
	}

	ids := s.paths.Generate(userContent.Directory, fileID, ext)
	record := &models.ImageContent{
		FileID:        fileID,
		UserContentID: userContent.ID,
		Title:         title,
		Description:   description,
		Ext:           ext,
	}

	var (
		mu      sync.Mutex
		written []string
	)
	markWritten := func(p string) {
		mu.Lock()
		written = append(written, p)
		mu.Unlock()
	}

	var writeErr error
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.images.CreateWithTx(tx, record, tags); err != nil {
			return err
		}

		var thumb []byte
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			if err := s.storage.SaveWithContext(gctx, ids.OriginalPath, bytes.NewReader(data)); err != nil {
				return fmt.Errorf("failed to save original: %w", err)
			}
			markWritten(ids.OriginalPath)
			return nil
		})
		g.Go(func() error {
			var err error
			thumb, err = MakeThumbnail(data, ext, settings.ThumbnailSize)
			return err
		})
		if err := g.Wait(); err != nil {
			writeErr = err
			return err
		}

		if err := s.storage.SaveWithContext(ctx, ids.ThumbnailPath, bytes.NewReader(thumb)); err != nil {
			writeErr = fmt.Errorf("failed to save thumbnail: %w", err)
			return writeErr
		}
		markWritten(ids.ThumbnailPath)
		return nil
	})
	if err != nil {
		s.removeFiles(written)
		if writeErr != nil {
			logger.Error("Image write failed, upload rolled back",
				zap.String("file_id", fileID), zap.Error(writeErr))
			return nil, fmt.Errorf("%w: %v", errs.ErrStorageWriteFailed, writeErr)
		}
		return nil, fmt.Errorf("%w: failed to persist image: %v", errs.ErrPersistenceConflict, err)
	}

	logger.Info("Image uploaded",
		zap.Uint("user_id", req.UserID),
		zap.String("file_id", fileID),
		zap.String("directory", userContent.Directory))

	record.UserContent = *userContent
	return record, nil
}

// readUpload 读取上传内容，超过上限返回 ErrFileTooLarge
func (s *Service) readUpload(r io.Reader) ([]byte, error) {
	if r == nil {
		return nil, fmt.Errorf("%w: missing file", errs.ErrInvalidInput)
	}

	limit := s.maxUploadBytes
	if limit <= 0 {
		limit = 1 << 20
	}

	bufPtr := pool.GetBuffer()
	defer pool.PutBuffer(bufPtr)

	var buf bytes.Buffer
	if _, err := io.CopyBuffer(&buf, io.LimitReader(r, limit+1), *bufPtr); err != nil {
		return nil, fmt.Errorf("%w: failed to read upload: %v", errs.ErrInvalidInput, err)
	}
	if int64(buf.Len()) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", errs.ErrFileTooLarge, limit)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: empty file", errs.ErrInvalidInput)
	}
	return buf.Bytes(), nil
}

// newFileID 生成未被占用的 file_id
func (s *Service) newFileID(ctx context.Context) (string, error) {
	repo := s.images.WithContext(ctx)
	for i := 0; i < fileIDAttempts; i++ {
		fileID, err := s.paths.NewFileID()
		if err != nil {
			return "", fmt.Errorf("%w: failed to generate file id: %v", errs.ErrStorageWriteFailed, err)
		}
		exists, err := repo.ExistsByFileID(fileID)
		if err != nil {
			return "", fmt.Errorf("%w: %v", errs.ErrPersistenceConflict, err)
		}
		if !exists {
			return fileID, nil
		}
	}
	return "", fmt.Errorf("%w: could not allocate a unique file id", errs.ErrPersistenceConflict)
}

// removeFiles 尽力删除文件，失败只记录日志
func (s *Service) removeFiles(paths []string) {
	for _, p := range paths {
		err := s.storage.DeleteWithContext(context.Background(), p)
		if err != nil && !storage.IsNotFound(err) {
			logger.Warn("Failed to remove file", zap.String("path", p), zap.Error(err))
		}
	}
}

// validateFields 校验标题、描述与标签
func validateFields(title, description *string, tags []string) error {
	if title != nil {
		if strings.TrimSpace(*title) == "" {
			return fmt.Errorf("%w: title must not be blank", errs.ErrInvalidInput)
		}
		if err := validator.ValidateTextLength("title", *title, 1, models.TitleMaxLength); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
		}
	}
	if description != nil {
		if err := validator.ValidateTextLength("description", *description, 0, models.DescriptionMaxLength); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
		}
	}
	if len(tags) > models.MaxTagsPerImage {
		return fmt.Errorf("%w: at most %d tags", errs.ErrInvalidInput, models.MaxTagsPerImage)
	}
	for _, tag := range tags {
		if err := validator.ValidateTextLength("tag", tag, 1, models.TagMaxLength); err != nil {
			return fmt.Errorf("%w: %v", errs.ErrInvalidInput, err)
		}
	}
	return nil
}
