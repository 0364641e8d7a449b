package client

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

type tokenStore interface {
	Load() (string, error)
	Save(token string) error
	Clear() error
}

type memoryTokenStore struct{}

func (memoryTokenStore) Load() (string, error) { return "", nil }
func (memoryTokenStore) Save(string) error     { return nil }
func (memoryTokenStore) Clear() error          { return nil }

// fileTokenStore keeps the token in a file readable only by the user.
type fileTokenStore struct {
	path string
}

func (s fileTokenStore) Load() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func (s fileTokenStore) Save(token string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.path, []byte(token+"\n"), 0o600)
}

func (s fileTokenStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}
