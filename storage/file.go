package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/octabyte/pharmacy-session/utils"
)

// File keeps all keys in one JSON document so a CLI session survives between
// invocations. Writes replace the document atomically.
type File struct {
	mu   sync.Mutex
	path string
}

func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Get(_ context.Context, key string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	v, ok := values[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (f *File) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[key] = value
	return f.save(values)
}

func (f *File) Remove(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := values[key]; !ok {
		return nil
	}
	delete(values, key)
	return f.save(values)
}

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", f.path, err)
	}

	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := utils.FromJSONString(string(data), &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return values, nil
}

func (f *File) save(values map[string]string) error {
	doc, err := utils.ToJSONString(values)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(doc); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), f.path)
}
