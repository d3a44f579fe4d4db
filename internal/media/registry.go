package media

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Handle is a locally playable reference to a decoded audio clip on disk.
// It stays valid until released.
type Handle struct {
	ID     string
	Path   string
	Format Format
	Size   int
}

// Registry materializes audio payloads into files under a cache directory
// and tracks them so they can be released when the owning messages go away.
type Registry struct {
	mu      sync.Mutex
	dir     string
	handles map[string]*Handle
	logger  *zap.Logger
}

// NewRegistry creates a registry rooted at dir. The directory is created on
// first use.
func NewRegistry(dir string, logger *zap.Logger) *Registry {
	return &Registry{
		dir:     dir,
		handles: make(map[string]*Handle),
		logger:  logger,
	}
}

// Derive decodes a base64 payload (with or without data-URI prefix), sniffs
// its container format and writes it out as a playable file.
func (r *Registry) Derive(payload string) (*Handle, error) {
	data, err := DecodeBase64(payload)
	if err != nil {
		return nil, err
	}
	return r.Store(data)
}

// Store writes already-decoded audio bytes and returns a handle for them.
func (r *Registry) Store(data []byte) (*Handle, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	if err := os.MkdirAll(r.dir, 0700); err != nil {
		return nil, fmt.Errorf("create media dir: %w", err)
	}

	format := Sniff(data)
	id := uuid.New().String()
	path := filepath.Join(r.dir, id+format.Ext())
	if err := os.WriteFile(path, data, 0600); err != nil {
		return nil, fmt.Errorf("write clip: %w", err)
	}

	h := &Handle{ID: id, Path: path, Format: format, Size: len(data)}
	r.mu.Lock()
	r.handles[id] = h
	r.mu.Unlock()
	return h, nil
}

// Release removes the files behind the given handles. Unknown or nil handles
// are ignored, so releasing twice is harmless.
func (r *Registry) Release(handles ...*Handle) {
	for _, h := range handles {
		if h == nil {
			continue
		}
		r.mu.Lock()
		_, ok := r.handles[h.ID]
		delete(r.handles, h.ID)
		r.mu.Unlock()
		if !ok {
			continue
		}
		if err := os.Remove(h.Path); err != nil && !os.IsNotExist(err) {
			r.logger.Warn("failed to release clip", zap.Error(err), zap.String("path", h.Path))
		}
	}
}

// ReleaseAll drops every live handle.
func (r *Registry) ReleaseAll() {
	r.mu.Lock()
	all := make([]*Handle, 0, len(r.handles))
	for _, h := range r.handles {
		all = append(all, h)
	}
	r.mu.Unlock()
	r.Release(all...)
}

// Live returns the number of handles not yet released.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Purge removes clips left behind in the cache directory by a previous run.
// Callers must hold the profile lock.
func (r *Registry) Purge() error {
	entries, err := os.ReadDir(r.dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		id := name[:len(name)-len(filepath.Ext(name))]
		if _, live := r.handles[id]; live {
			continue
		}
		_ = os.Remove(filepath.Join(r.dir, name))
	}
	return nil
}
