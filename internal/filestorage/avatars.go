// File: internal/filestorage/avatars.go
package filestorage

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"

	"blood_donation_dashboard/internal/common"
	"blood_donation_dashboard/internal/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PublicPrefix is the route the avatar directory is served under.
const PublicPrefix = "/avatars"

var extensionsByType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// AvatarStore keeps uploaded profile photos on local disk.
type AvatarStore struct {
	root     string
	maxBytes int64
	logger   *zap.Logger
}

// NewAvatarStore creates the avatar directory if needed.
func NewAvatarStore(cfg *config.Config, logger *zap.Logger) (*AvatarStore, error) {
	if cfg.AvatarDir == "" {
		return nil, fmt.Errorf("avatar directory cannot be empty")
	}
	if err := os.MkdirAll(cfg.AvatarDir, 0o755); err != nil {
		logger.Error("Failed to create avatar directory", zap.String("path", cfg.AvatarDir), zap.Error(err))
		return nil, fmt.Errorf("failed to create avatar directory %s: %w", cfg.AvatarDir, err)
	}
	return &AvatarStore{root: cfg.AvatarDir, maxBytes: cfg.AvatarMaxBytes, logger: logger.Named("AvatarStore")}, nil
}

// Root is the directory the store writes to.
func (s *AvatarStore) Root() string { return s.root }

// Save writes an uploaded image under a fresh name and returns its public path,
// e.g. "/avatars/<uuid>.png".
func (s *AvatarStore) Save(fileHeader *multipart.FileHeader) (string, error) {
	if fileHeader == nil {
		return "", common.ErrBadRequest.WithDetails("An image file is required.")
	}
	if s.maxBytes > 0 && fileHeader.Size > s.maxBytes {
		return "", common.ErrBadRequest.WithDetails(fmt.Sprintf("Image must be at most %d bytes.", s.maxBytes))
	}
	ext, err := extensionFor(fileHeader)
	if err != nil {
		return "", err
	}

	src, err := fileHeader.Open()
	if err != nil {
		s.logger.Error("Failed to open uploaded file", zap.Error(err))
		return "", fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	name := uuid.NewString() + ext
	dest := filepath.Join(s.root, name)
	dst, err := os.Create(dest)
	if err != nil {
		s.logger.Error("Failed to create avatar file", zap.String("path", dest), zap.Error(err))
		return "", fmt.Errorf("failed to create file %s: %w", dest, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		s.logger.Error("Failed to write avatar", zap.String("path", dest), zap.Error(err))
		_ = os.Remove(dest)
		return "", fmt.Errorf("failed to save file: %w", err)
	}

	s.logger.Info("Avatar saved", zap.String("path", dest))
	return path.Join(PublicPrefix, name), nil
}

// Delete removes an avatar previously returned by Save. Paths the store did not
// issue are ignored.
func (s *AvatarStore) Delete(publicPath string) error {
	name, ok := s.owned(publicPath)
	if !ok {
		return nil
	}
	full := filepath.Join(s.root, name)
	if err := os.Remove(full); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		s.logger.Error("Failed to delete avatar", zap.String("path", full), zap.Error(err))
		return fmt.Errorf("failed to delete file %s: %w", full, err)
	}
	s.logger.Info("Avatar deleted", zap.String("path", full))
	return nil
}

// owned maps a public path back to a file name inside root.
func (s *AvatarStore) owned(publicPath string) (string, bool) {
	rest, ok := strings.CutPrefix(publicPath, PublicPrefix+"/")
	if !ok || rest == "" || strings.ContainsAny(rest, `/\`) || strings.Contains(rest, "..") {
		return "", false
	}
	return rest, true
}

func extensionFor(fileHeader *multipart.FileHeader) (string, error) {
	contentType := strings.ToLower(fileHeader.Header.Get("Content-Type"))
	for prefix, ext := range extensionsByType {
		if strings.HasPrefix(contentType, prefix) {
			return ext, nil
		}
	}
	switch ext := strings.ToLower(filepath.Ext(fileHeader.Filename)); ext {
	case ".jpg", ".jpeg":
		return ".jpg", nil
	case ".png", ".gif", ".webp":
		return ext, nil
	}
	return "", common.ErrBadRequest.WithDetails(fmt.Sprintf("Unsupported image type %q.", contentType))
}
