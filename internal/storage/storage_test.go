package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/change-control/internal/domain"
)

type memoryFile struct {
	name    string
	content []byte
	openErr error
}

func (f memoryFile) Name() string { return f.name }

func (f memoryFile) Open() (io.ReadCloser, error) {
	if f.openErr != nil {
		return nil, f.openErr
	}
	return io.NopCloser(bytes.NewReader(f.content)), nil
}

func TestLocalStore_Save(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, zap.NewNop())

	path, err := store.Save(context.Background(), "12_rotate-certs", memoryFile{name: "plan.txt", content: []byte{1, 2, 3, 4}})
	require.NoError(t, err)
	assert.Equal(t, "12_rotate-certs/plan.txt", path)

	data, err := os.ReadFile(filepath.Join(root, "12_rotate-certs", "plan.txt"))
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, data)

	// a second save overwrites the same path
	_, err = store.Save(context.Background(), "12_rotate-certs", memoryFile{name: "plan.txt", content: []byte("v2")})
	require.NoError(t, err)
	data, err = os.ReadFile(filepath.Join(root, "12_rotate-certs", "plan.txt"))
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))
}

func TestLocalStore_Save_StripsDirectories(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, zap.NewNop())

	path, err := store.Save(context.Background(), "1_x", memoryFile{name: "../../etc/passwd", content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, "1_x/passwd", path)
}

func TestLocalStore_Save_OpenError(t *testing.T) {
	store := NewLocalStore(t.TempDir(), zap.NewNop())

	_, err := store.Save(context.Background(), "1_x", memoryFile{name: "a.txt", openErr: errors.New("stream closed")})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stream closed")
}

func TestLocalStore_Save_CancelledContext(t *testing.T) {
	store := NewLocalStore(t.TempDir(), zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Save(ctx, "1_x", memoryFile{name: "a.txt"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTicketFolder(t *testing.T) {
	start := time.Date(2026, 10, 16, 21, 30, 5, 0, time.UTC)

	assert.Equal(t, "42_rotate-tls-certificates", TicketFolder(42, "Rotate TLS certificates!", start, "ignored"))
	assert.Equal(t, "new_rotate-tls-certificates_20261016213005_a1",
		TicketFolder(0, "Rotate TLS certificates!", start, "a1"))
}

func TestTicketFolder_NewTicketsDoNotShareFolders(t *testing.T) {
	start := time.Date(2024, 3, 1, 22, 0, 0, 0, time.UTC)

	cases := []struct {
		name          string
		first, second string
	}{
		{"same slug", "Patch DB", "patch db!"},
		{"no ascii characters", "数据库补丁", "服务器重启"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a := TicketFolder(0, tc.first, start, uuid.NewString())
			b := TicketFolder(0, tc.second, start, uuid.NewString())
			assert.NotEqual(t, a, b)
		})
	}
}

func TestDistinctNames(t *testing.T) {
	files := DistinctNames([]domain.UploadedFile{
		memoryFile{name: "plan.sql"},
		memoryFile{name: "plan.sql"},
		nil,
		memoryFile{name: "notes"},
		memoryFile{name: "plan.sql"},
		memoryFile{name: "notes"},
	})

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, f.Name())
	}
	assert.Equal(t, []string{"plan.sql", "plan_2.sql", "notes", "plan_3.sql", "notes_2"}, names)
}

func TestDistinctNames_SameNameUploadsKeepBothFiles(t *testing.T) {
	root := t.TempDir()
	store := NewLocalStore(root, zap.NewNop())
	files := DistinctNames([]domain.UploadedFile{
		memoryFile{name: "plan.sql", content: []byte("first")},
		memoryFile{name: "plan.sql", content: []byte("second")},
	})

	var paths []string
	for _, f := range files {
		p, err := store.Save(context.Background(), "3_x", f)
		require.NoError(t, err)
		paths = append(paths, p)
	}

	assert.Equal(t, []string{"3_x/plan.sql", "3_x/plan_2.sql"}, paths)
	first, err := os.ReadFile(filepath.Join(root, "3_x", "plan.sql"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(first))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "ticket", Slugify("  ***  "))
	assert.Equal(t, "db-patch-v2", Slugify("DB patch v2"))
	long := Slugify("a very long change title that keeps going well past the fifty character limit")
	assert.LessOrEqual(t, len(long), maxSlugLength)
}

func TestDownloadPath(t *testing.T) {
	assert.Equal(t, "https://files.example.com/7_x", DownloadPath("https://files.example.com/", "7_x"))
	assert.Equal(t, "7_x", DownloadPath("", "7_x"))
}
