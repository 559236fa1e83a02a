package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
)

// Env resolves settings from the process environment, falling back to the
// values of a .env file.  The file snapshot can be swapped at runtime by
// Reload or Watch, so lookups made per request observe edits to the file.
type Env struct {
	path   string
	values atomic.Pointer[map[string]string]
}

// LoadEnv reads the .env file at path.  A missing file is not an error;
// the Env then only reflects the process environment.
func LoadEnv(path string) (*Env, error) {
	e := &Env{path: path}
	empty := map[string]string{}
	e.values.Store(&empty)
	if err := e.Reload(); err != nil {
		return nil, err
	}
	return e, nil
}

// Path returns the .env file location, or "" when none was configured.
func (e *Env) Path() string { return e.path }

// Reload re-reads the .env file and swaps the snapshot.
func (e *Env) Reload() error {
	if e.path == "" {
		return nil
	}
	values, err := godotenv.Read(e.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			values = map[string]string{}
		} else {
			return fmt.Errorf("read %s: %w", e.path, err)
		}
	}
	e.values.Store(&values)
	return nil
}

// Get returns the value for key.  The real environment wins over the file,
// matching godotenv.Load semantics.
func (e *Env) Get(key string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	if e == nil {
		return ""
	}
	return (*e.values.Load())[key]
}

// GetDefault is Get with a fallback for empty values.
func (e *Env) GetDefault(key, defaultValue string) string {
	if v := e.Get(key); v != "" {
		return v
	}
	return defaultValue
}

// Watch reloads the .env file whenever it is written, created or renamed
// into place.  It watches the parent directory because editors usually
// replace files instead of writing them in place.  Watch blocks until ctx
// is done.
func (e *Env) Watch(ctx context.Context, logger *slog.Logger) error {
	if e.path == "" {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	abs, err := filepath.Abs(e.path)
	if err != nil {
		return err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
				continue
			}
			if err := e.Reload(); err != nil {
				logger.Warn("env reload failed", "path", e.path, "error", err)
				continue
			}
			logger.Info("env reloaded", "path", e.path, "op", event.Op.String())
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("env watcher error", "error", err)
		}
	}
}
