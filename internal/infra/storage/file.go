package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var validKey = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// File stores each key as <dir>/<key>.json. Writes go to a temporary file
// in the same directory and are renamed into place, so a crash never
// leaves a half-written snapshot behind.
type File struct {
	dir    string
	logger *zap.Logger
	mu     sync.Mutex
}

// NewFile creates dir if needed and returns a store rooted there.
func NewFile(dir string, logger *zap.Logger) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir %s: %w", dir, err)
	}
	return &File{dir: dir, logger: logger}, nil
}

func (f *File) Name() string { return "file" }

func (f *File) path(key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("invalid storage key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

func (f *File) Load(ctx context.Context, key string) ([]byte, error) {
	_, span := tracer.Start(ctx, "File.Load")
	defer span.End()
	span.SetAttributes(attribute.String("storage.key", key))

	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", p, err)
	}
	return b, nil
}

func (f *File) Save(ctx context.Context, key string, value []byte) error {
	_, span := tracer.Start(ctx, "File.Save")
	defer span.End()
	span.SetAttributes(attribute.String("storage.key", key), attribute.Int("storage.bytes", len(value)))

	p, err := f.path(key)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	tmp := filepath.Join(f.dir, fmt.Sprintf(".%s.%s.tmp", key, uuid.NewString()))
	if err := os.WriteFile(tmp, value, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, p); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename %s: %w", p, err)
	}

	f.logger.Debug("file store: saved", zap.String("key", key), zap.Int("bytes", len(value)))
	return nil
}

// Ping checks the data directory is still there.
func (f *File) Ping(context.Context) error {
	st, err := os.Stat(f.dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("%s is not a directory", f.dir)
	}
	return nil
}
