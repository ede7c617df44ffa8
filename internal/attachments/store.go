package attachments

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"messenger-service/internal/models"
	"messenger-service/internal/services"
)

// Store persists uploaded attachment blobs and hands back descriptors that
// messages reference by URL.
type Store interface {
	Save(ctx context.Context, originalName string, size int64, r io.Reader) (*models.Attachment, error)
	Open(ctx context.Context, storedName string) (io.ReadSeekCloser, string, error)
}

// DiskStore keeps attachments as flat files under a single directory.
// Stored names are random, the original name survives only in metadata.
type DiskStore struct {
	dir     string
	maxSize int64
	log     *slog.Logger
}

func NewDiskStore(dir string, maxSize int64, log *slog.Logger) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &DiskStore{dir: dir, maxSize: maxSize, log: log}, nil
}

func (s *DiskStore) Save(ctx context.Context, originalName string, size int64, r io.Reader) (*models.Attachment, error) {
	if size > s.maxSize {
		return nil, fmt.Errorf("%w: attachment exceeds %d bytes", services.ErrInvalidInput, s.maxSize)
	}

	storedName := uuid.NewString() + sanitizedExt(originalName)
	path := filepath.Join(s.dir, storedName)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create attachment file: %w", err)
	}

	// +1 so an over-limit stream is detected rather than silently truncated.
	written, err := io.Copy(f, io.LimitReader(r, s.maxSize+1))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write attachment: %w", err)
	}
	if written > s.maxSize {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: attachment exceeds %d bytes", services.ErrInvalidInput, s.maxSize)
	}

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("detect attachment type: %w", err)
	}

	s.log.Debug("attachment stored", "name", storedName, "bytes", written, "mime", mime.String())
	return &models.Attachment{
		URI:          "/uploads/" + storedName,
		Size:         written,
		Mime:         mime.String(),
		OriginalName: originalName,
	}, nil
}

func (s *DiskStore) Open(ctx context.Context, storedName string) (io.ReadSeekCloser, string, error) {
	// Stored names are generated server-side; reject anything path-like.
	if storedName == "" || storedName != filepath.Base(storedName) || strings.HasPrefix(storedName, ".") {
		return nil, "", fmt.Errorf("%w: bad attachment name", services.ErrInvalidInput)
	}

	path := filepath.Join(s.dir, storedName)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", fmt.Errorf("%w: attachment %s", services.ErrNotFound, storedName)
		}
		return nil, "", fmt.Errorf("open attachment: %w", err)
	}

	mime, err := mimetype.DetectFile(path)
	if err != nil {
		_ = f.Close()
		return nil, "", fmt.Errorf("detect attachment type: %w", err)
	}
	return f, mime.String(), nil
}

func sanitizedExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if len(ext) > 10 || strings.ContainsAny(ext, "/\\") {
		return ""
	}
	return ext
}
