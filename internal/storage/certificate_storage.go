package storage

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/matchers"
)

// CertificateStorage отвечает за файловое хранилище сертификатов навыков.
// Принимаются PDF и изображения; тип определяется по сигнатуре файла,
// а не по расширению.
type CertificateStorage struct {
	rootPath       string
	maxUploadBytes int64
}

// SavedCertificate описывает сохранённый файл сертификата.
type SavedCertificate struct {
	RelativePath string
	Size         int64
	SHA256       string
	MIME         string
}

// NewCertificateStorage создаёт файловое хранилище.
func NewCertificateStorage(rootPath string, maxUploadMB int64) (*CertificateStorage, error) {
	if err := os.MkdirAll(rootPath, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог %s: %w", rootPath, err)
	}

	return &CertificateStorage{
		rootPath:       rootPath,
		maxUploadBytes: maxUploadMB * 1024 * 1024,
	}, nil
}

var allowedCertTypes = map[string]struct{}{
	matchers.TypePdf.MIME.Value:  {},
	matchers.TypePng.MIME.Value:  {},
	matchers.TypeJpeg.MIME.Value: {},
	matchers.TypeWebp.MIME.Value: {},
}

// Save сохраняет файл сертификата, попутно считая его SHA-256.
func (s *CertificateStorage) Save(ctx context.Context, userID uuid.UUID, originalName string, r io.Reader) (*SavedCertificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Сигнатуру читаем из первых байт, затем возвращаем их в поток.
	head := make([]byte, 261)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("storage: не удалось прочитать файл: %w", err)
	}
	head = head[:n]

	kind, err := filetype.Match(head)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось определить тип файла: %w", err)
	}
	if _, ok := allowedCertTypes[kind.MIME.Value]; !ok {
		return nil, fmt.Errorf("storage: недопустимый тип файла, ожидается PDF или изображение")
	}

	safeName := sanitizeFilename(originalName)
	fileName := fmt.Sprintf("%s_%d%s", userID.String(), time.Now().UnixNano(), filepath.Ext(safeName))

	userDir := filepath.Join(s.rootPath, userID.String())
	if err := os.MkdirAll(userDir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: не удалось создать каталог пользователя: %w", err)
	}

	targetPath := filepath.Join(userDir, fileName)
	tempPath := targetPath + ".tmp"

	f, err := os.Create(tempPath)
	if err != nil {
		return nil, fmt.Errorf("storage: не удалось создать файл: %w", err)
	}
	defer f.Close()

	hasher := sha256.New()
	full := io.MultiReader(bytes.NewReader(head), r)
	limitedReader := io.LimitedReader{R: full, N: s.maxUploadBytes + 1}

	written, err := io.Copy(io.MultiWriter(f, hasher), &limitedReader)
	if err != nil {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: ошибка записи файла: %w", err)
	}

	if written > s.maxUploadBytes {
		_ = os.Remove(tempPath)
		return nil, fmt.Errorf("storage: размер файла превышает лимит %d байт", s.maxUploadBytes)
	}

	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("storage: ошибка закрытия файла: %w", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		return nil, fmt.Errorf("storage: не удалось переименовать файл: %w", err)
	}

	return &SavedCertificate{
		RelativePath: filepath.Join(userID.String(), fileName),
		Size:         written,
		SHA256:       hex.EncodeToString(hasher.Sum(nil)),
		MIME:         kind.MIME.Value,
	}, nil
}

// Delete удаляет файл из хранилища.
func (s *CertificateStorage) Delete(ctx context.Context, relativePath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	target := filepath.Join(s.rootPath, relativePath)
	if err := os.Remove(target); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("storage: не удалось удалить файл: %w", err)
	}
	return nil
}

// sanitizeFilename удаляет потенциально опасные символы.
func sanitizeFilename(name string) string {
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "_")
	name = strings.ReplaceAll(name, "\\", "_")
	if name == "" {
		name = "certificate"
	}
	return name
}
