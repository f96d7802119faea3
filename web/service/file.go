package service

import (
	"context"
	"fmt"
	"io"
	"mime/multipart"

	"github.com/mhsanaei/blogpanel/database"
	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/database/repository"
	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/util/random"
	"github.com/mhsanaei/blogpanel/web/storage"
)

// FileService keeps file rows and their blobs in step.
type FileService struct {
	storage storage.ObjectStorage
}

func NewFileService(s storage.ObjectStorage) *FileService {
	return &FileService{storage: s}
}

// Upload stores the blob, then the row. A failed flush removes the blob
// again so no orphan is left behind.
func (s *FileService) Upload(ctx context.Context, uow *database.UnitOfWork, file *model.File, upload *multipart.FileHeader) error {
	src, err := upload.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer src.Close()

	if file.ContentType == "" {
		file.ContentType = "application/octet-stream"
	}
	file.StorageKey = random.StorageKey()
	if err := s.storage.Put(ctx, file.StorageKey, src, upload.Size, file.ContentType); err != nil {
		return fmt.Errorf("store %s: %w", file.Name, err)
	}

	repository.NewFileRepository(uow).Add(file)
	if err := uow.Flush(ctx); err != nil {
		if delErr := s.storage.Delete(ctx, file.StorageKey); delErr != nil {
			logger.Warningf("Failed to remove orphan blob %s: %v", file.StorageKey, delErr)
		}
		return err
	}
	return nil
}

// Open streams the blob of file.
func (s *FileService) Open(ctx context.Context, file *model.File) (io.ReadCloser, error) {
	return s.storage.Get(ctx, file.StorageKey)
}

// Remove deletes the row, then the blob. A blob that cannot be removed is
// only logged since the row is already gone.
func (s *FileService) Remove(ctx context.Context, uow *database.UnitOfWork, file *model.File) error {
	repository.NewFileRepository(uow).Remove(file)
	if err := uow.Flush(ctx); err != nil {
		return err
	}
	if file.StorageKey != "" {
		if err := s.storage.Delete(ctx, file.StorageKey); err != nil {
			logger.Warningf("Failed to remove blob %s of file %d: %v", file.StorageKey, file.Id, err)
		}
	}
	return nil
}
