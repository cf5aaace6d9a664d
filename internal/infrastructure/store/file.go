package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

const saltFile = ".salt"

// File is a Backend keeping one file per key in a directory. With a
// passphrase, values are sealed at rest.
type File struct {
	dir    string
	sealer *Sealer
}

// FileOptions configures a File backend.
type FileOptions struct {
	// Passphrase enables encryption at rest when non-empty.
	Passphrase string
}

// OpenFile prepares dir (created with 0700 when missing). With a passphrase
// the salt is read from dir, or generated on first use.
func OpenFile(dir string, opts FileOptions) (*File, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create storage dir: %w", err)
	}
	f := &File{dir: dir}
	if opts.Passphrase == "" {
		return f, nil
	}
	salt, err := f.loadSalt()
	if err != nil {
		return nil, err
	}
	f.sealer = NewSealer([]byte(opts.Passphrase), salt)
	return f, nil
}

// DefaultDir returns the per-profile directory under the user config dir.
func DefaultDir(profile string) (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("locate config dir: %w", err)
	}
	if profile == "" {
		profile = "default"
	}
	return filepath.Join(base, "shopctl", profile), nil
}

func (f *File) Get(_ context.Context, key string) ([]byte, error) {
	raw, err := os.ReadFile(f.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	if f.sealer == nil {
		return raw, nil
	}
	return f.sealer.Open(key, raw)
}

// Set writes through a temporary file and a rename so readers never see a
// partial value.
func (f *File) Set(_ context.Context, key string, value []byte) error {
	if f.sealer != nil {
		sealed, err := f.sealer.Seal(key, value)
		if err != nil {
			return err
		}
		value = sealed
	}
	return writeAtomic(f.path(key), value)
}

func (f *File) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		if err := os.Remove(f.path(k)); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", k, err)
		}
	}
	return nil
}

func (f *File) path(key string) string {
	return filepath.Join(f.dir, key)
}

func (f *File) loadSalt() ([]byte, error) {
	p := filepath.Join(f.dir, saltFile)
	salt, err := os.ReadFile(p)
	if err == nil && len(salt) == saltLen {
		return salt, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read salt: %w", err)
	}
	if salt, err = NewSalt(); err != nil {
		return nil, err
	}
	if err := writeAtomic(p, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("chmod %s: %w", filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", filepath.Base(path), err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename %s: %w", filepath.Base(path), err)
	}
	return nil
}
