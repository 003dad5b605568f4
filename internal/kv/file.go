package kv

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	toml "github.com/pelletier/go-toml/v2"
	"github.com/rotisserie/eris"
)

const defaultFilePath = "~/.local/share/flowgate/state.toml"

// FileStore keeps all keys in one TOML document.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// OpenFile loads the document at path, falling back to an empty store when the
// file does not exist. An empty path uses ~/.local/share/flowgate/state.toml.
func OpenFile(path string) (*FileStore, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}

	fs := &FileStore{path: resolved, data: map[string]string{}}

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fs, nil
		}
		return nil, eris.Wrap(err, "open state file")
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return nil, eris.Wrap(err, "read state file")
	}

	var raw struct {
		Values map[string]string `toml:"values"`
	}
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return nil, eris.Wrap(err, "parse state file")
	}
	for k, v := range raw.Values {
		fs.data[k] = v
	}
	return fs, nil
}

// Path returns the resolved location of the document.
func (f *FileStore) Path() string {
	return f.path
}

func (f *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.data[key]
	f.data[key] = value
	if err := f.flushLocked(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *FileStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	prev, had := f.data[key]
	if !had {
		return nil
	}
	delete(f.data, key)
	if err := f.flushLocked(); err != nil {
		f.data[key] = prev
		return err
	}
	return nil
}

func (f *FileStore) Close() error { return nil }

// flushLocked rewrites the document through a temp file and rename.
func (f *FileStore) flushLocked() error {
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return eris.Wrap(err, "create state dir")
	}

	bytes, err := toml.Marshal(struct {
		Values map[string]string `toml:"values"`
	}{Values: f.data})
	if err != nil {
		return eris.Wrap(err, "marshal state")
	}

	tmp, err := os.CreateTemp(dir, ".state-*.toml")
	if err != nil {
		return eris.Wrap(err, "create temp state")
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(bytes); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "write state")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "close temp state")
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "replace state")
	}
	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultFilePath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", eris.New("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", eris.Wrap(err, "resolve home dir")
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
