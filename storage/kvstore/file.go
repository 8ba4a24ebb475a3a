// Package kvstore provides the string-keyed stores backing all durability
// in the app: a file-backed one for real runs and an in-memory one for
// tests. Like browser local storage, values are opaque strings; the typed
// adapter above this layer is what knows about JSON collections.
package kvstore

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/pkg/errors"

	"github.com/annourmah/etudia/core"
)

// FileStore keeps every key in a single JSON file, rewritten atomically
// (write to a temp file, then rename) on each Set/Delete.
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

var _ core.KVStore = (*FileStore)(nil)

func NewFileStore(path string) (*FileStore, error) {
	fs := &FileStore{
		path: path,
		data: make(map[string]string),
	}

	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return fs, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", path)
	}
	if len(raw) > 0 {
		if err = json.Unmarshal(raw, &fs.data); err != nil {
			return nil, errors.Wrapf(err, "parsing %s", path)
		}
	}
	return fs, nil
}

func (fs *FileStore) Get(key string) ([]byte, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	val, ok := fs.data[key]
	if !ok {
		return nil, core.ErrKeyNotFound
	}
	return []byte(val), nil
}

func (fs *FileStore) Set(key string, value []byte) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	fs.data[key] = string(value)
	return fs.flush()
}

func (fs *FileStore) Delete(key string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	if _, ok := fs.data[key]; !ok {
		return core.ErrKeyNotFound
	}
	delete(fs.data, key)
	return fs.flush()
}

// flush rewrites the whole file; callers must hold the lock.
func (fs *FileStore) flush() error {
	raw, err := json.MarshalIndent(fs.data, "", "  ")
	if err != nil {
		return errors.Wrap(err, "encoding store")
	}

	if err = os.MkdirAll(filepath.Dir(fs.path), 0o755); err != nil {
		return errors.Wrap(err, "creating data dir")
	}
	tmp := fs.path + ".tmp"
	if err = os.WriteFile(tmp, raw, 0o644); err != nil {
		return errors.Wrapf(err, "writing %s", tmp)
	}
	if err = os.Rename(tmp, fs.path); err != nil {
		return errors.Wrapf(err, "replacing %s", fs.path)
	}
	return nil
}
