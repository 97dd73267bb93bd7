package storage

import (
	"errors"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

type FSStore struct{ base string }

func NewFSStore(base string) (*FSStore, error) {
	if base == "" {
		base = "./data"
	}
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, err
	}
	return &FSStore{base: base}, nil
}

// resolve maps key under base; keys cannot climb out of it.
func (s *FSStore) resolve(key string) (string, string, error) {
	clean := strings.TrimPrefix(filepath.Clean("/"+filepath.FromSlash(key)), string(filepath.Separator))
	if clean == "" || clean == "." {
		return "", "", errors.New("empty key")
	}
	return filepath.Join(s.base, clean), filepath.ToSlash(clean), nil
}

func (s *FSStore) Put(key string, r io.Reader) (string, error) {
	dst, canon, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(dst)
	if err != nil {
		return "", err
	}
	defer f.Close()
	if _, err := io.Copy(f, r); err != nil {
		return "", err
	}
	return canon, f.Sync()
}

func (s *FSStore) Get(key string) (io.ReadCloser, error) {
	p, _, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *FSStore) SignedURL(key string) (string, error) {
	p, _, err := s.resolve(key)
	if err != nil {
		return "", err
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
