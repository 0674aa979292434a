package services

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// UploadedFile is one candidate document sitting in temporary storage for the
// duration of a single pipeline run. It is never persisted: the orchestrator
// deletes it exactly once when the file's outcome is recorded.
type UploadedFile struct {
	Path             string
	StoredName       string
	OriginalFileName string
	Size             int64
	ContentType      string
}

type StorageService interface {
	SaveFile(file *multipart.FileHeader) (UploadedFile, error)
	DeleteFile(storedName string) error
	EnsureUploadDir() error
}

type storageService struct {
	uploadPath string
}

func NewStorageService(uploadPath string) StorageService {
	return &storageService{
		uploadPath: uploadPath,
	}
}

// EnsureUploadDir implements StorageService.
func (s *storageService) EnsureUploadDir() error {
	if err := os.MkdirAll(s.uploadPath, 0755); err != nil {
		return fmt.Errorf("failed to create upload directory: %w", err)
	}
	return nil
}

// SaveFile implements StorageService. The stored name carries a run-unique
// uuid so no two runs can ever reference the same path. Unsupported extensions
// are still stored: classifying them is the validator's job, and the file is
// deleted either way.
func (s *storageService) SaveFile(file *multipart.FileHeader) (UploadedFile, error) {
	ext := strings.ToLower(filepath.Ext(file.Filename))
	storedName := fmt.Sprintf("resume_%s%s", uuid.New().String(), ext)
	filePath := filepath.Join(s.uploadPath, storedName)

	src, err := file.Open()
	if err != nil {
		return UploadedFile{}, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filePath)
	if err != nil {
		return UploadedFile{}, fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return UploadedFile{}, fmt.Errorf("failed to save file: %w", err)
	}

	return UploadedFile{
		Path:             filePath,
		StoredName:       storedName,
		OriginalFileName: file.Filename,
		Size:             file.Size,
		ContentType:      ContentTypeForExtension(ext),
	}, nil
}

// DeleteFile implements StorageService.
func (s *storageService) DeleteFile(storedName string) error {
	filePath := filepath.Join(s.uploadPath, storedName)
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
