package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// LocalStore persists objects on disk and hands out URLs served by this process.
type LocalStore struct {
	baseDir   string
	objectURL string
	signer    *SignedURLSigner
	maxBytes  int64
}

// NewLocalStore ensures the base directory exists. objectURL is the public
// prefix under which tokens are served, e.g. http://host/api/s3/objects.
func NewLocalStore(baseDir, objectURL string, signer *SignedURLSigner, maxBytes int64) (*LocalStore, error) {
	if baseDir == "" {
		baseDir = "./uploads"
	}
	if signer == nil {
		return nil, fmt.Errorf("local store requires a signer")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create uploads directory: %w", err)
	}
	return &LocalStore{
		baseDir:   baseDir,
		objectURL: strings.TrimRight(objectURL, "/"),
		signer:    signer,
		maxBytes:  maxBytes,
	}, nil
}

// PresignUpload returns a PUT URL bound to the given content type.
func (s *LocalStore) PresignUpload(_ context.Context, key, contentType string) (PresignedURL, error) {
	return s.presign(http.MethodPut, key, contentType)
}

// PresignDownload returns a GET URL for an object.
func (s *LocalStore) PresignDownload(_ context.Context, key string) (PresignedURL, error) {
	return s.presign(http.MethodGet, key, "")
}

func (s *LocalStore) presign(method, key, contentType string) (PresignedURL, error) {
	key, err := CleanKey(key)
	if err != nil {
		return PresignedURL{}, err
	}
	token, expiresAt, err := s.signer.Generate(method, key, contentType)
	if err != nil {
		return PresignedURL{}, err
	}
	return PresignedURL{URL: s.objectURL + "/" + token, Method: method, ExpiresAt: expiresAt}, nil
}

// Authorize resolves a token into the grant it carries, checking the HTTP method.
func (s *LocalStore) Authorize(token, method string) (SignedGrant, error) {
	grant, err := s.signer.Parse(token)
	if err != nil {
		return SignedGrant{}, err
	}
	if grant.Method != method {
		return SignedGrant{}, ErrInvalidToken
	}
	return grant, nil
}

// Write stores the reader under key, replacing any existing object.
func (s *LocalStore) Write(key string, r io.Reader) (int64, error) {
	path, err := s.resolve(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return 0, fmt.Errorf("prepare upload directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".upload-*")
	if err != nil {
		return 0, fmt.Errorf("create upload file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	n, err := io.Copy(tmp, src)
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return 0, fmt.Errorf("write upload stream: %w", err)
	}
	if s.maxBytes > 0 && n > s.maxBytes {
		return 0, fmt.Errorf("upload exceeds %d bytes", s.maxBytes)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("commit upload: %w", err)
	}
	return n, nil
}

// Open returns a read-only handle for the stored object.
func (s *LocalStore) Open(key string) (*os.File, error) {
	path, err := s.resolve(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("open object: %w", err)
	}
	return file, nil
}

// Delete removes a stored object.
func (s *LocalStore) Delete(_ context.Context, key string) error {
	path, err := s.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrObjectNotFound
		}
		return fmt.Errorf("delete object: %w", err)
	}
	return nil
}

// Close is a no-op for the local driver.
func (s *LocalStore) Close() error { return nil }

func (s *LocalStore) resolve(key string) (string, error) {
	key, err := CleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, filepath.FromSlash(key)), nil
}
