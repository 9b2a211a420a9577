// Package storage copies ticket attachments to the configured upload location.
package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/change-control/internal/domain"
)

const maxSlugLength = 50

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// FileStore persists uploaded files.
type FileStore interface {
	// Save copies file into folder and returns the stored path relative to the store root.
	Save(ctx context.Context, folder string, file domain.UploadedFile) (string, error)
}

// LocalStore writes files below a root directory on local disk.
type LocalStore struct {
	root   string
	logger *zap.Logger
}

// NewLocalStore builds a store rooted at root.
func NewLocalStore(root string, logger *zap.Logger) *LocalStore {
	return &LocalStore{root: root, logger: logger}
}

// Save overwrites any existing file with the same name, so retries are idempotent.
func (s *LocalStore) Save(ctx context.Context, folder string, file domain.UploadedFile) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := filepath.Base(file.Name())
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "", fmt.Errorf("invalid file name %q", file.Name())
	}
	relative := filepath.Join(folder, name)
	target := filepath.Join(s.root, relative)

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create folder %s: %w", folder, err)
	}

	src, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("open upload %s: %w", name, err)
	}
	defer src.Close()

	dst, err := os.Create(target)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", relative, err)
	}
	written, err := io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return "", fmt.Errorf("copy %s: %w", relative, err)
	}

	s.logger.Debug("stored ticket file", zap.String("path", relative), zap.Int64("bytes", written))
	return filepath.ToSlash(relative), nil
}

// TicketFolder derives the attachment folder for a ticket. Existing tickets
// are keyed by identity. New tickets have no identity yet, so their folder
// carries the submission id to keep concurrent submissions apart.
func TicketFolder(ticketID int, title string, start time.Time, submissionID string) string {
	slug := Slugify(title)
	if ticketID > 0 {
		return strconv.Itoa(ticketID) + "_" + slug
	}
	return "new_" + slug + "_" + start.Format("20060102150405") + "_" + submissionID
}

// DistinctNames renames uploads that share a file name within one submission
// by appending _2, _3, ... before the extension. Order is preserved.
func DistinctNames(files []domain.UploadedFile) []domain.UploadedFile {
	taken := make(map[string]struct{}, len(files))
	result := make([]domain.UploadedFile, 0, len(files))
	for _, file := range files {
		if file == nil {
			continue
		}
		name := filepath.Base(file.Name())
		candidate := name
		ext := filepath.Ext(name)
		for n := 2; ; n++ {
			if _, ok := taken[candidate]; !ok {
				break
			}
			candidate = fmt.Sprintf("%s_%d%s", strings.TrimSuffix(name, ext), n, ext)
		}
		taken[candidate] = struct{}{}
		if candidate != file.Name() {
			file = renamedFile{UploadedFile: file, name: candidate}
		}
		result = append(result, file)
	}
	return result
}

type renamedFile struct {
	domain.UploadedFile
	name string
}

func (f renamedFile) Name() string { return f.name }

// Slugify lowercases s and keeps only ASCII letters and digits separated by dashes.
func Slugify(s string) string {
	slug := strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(s), "-"), "-")
	if len(slug) > maxSlugLength {
		slug = strings.TrimRight(slug[:maxSlugLength], "-")
	}
	if slug == "" {
		return "ticket"
	}
	return slug
}

// DownloadPath joins the public download location with a ticket folder.
func DownloadPath(location, folder string) string {
	if location == "" {
		return folder
	}
	return strings.TrimRight(location, "/") + "/" + folder
}
