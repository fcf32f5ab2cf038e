package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"sync"
	"time"
)

// ErrObjectNotFound is returned by Get for unknown keys.
var ErrObjectNotFound = errors.New("object not found")

// StubObjectStorage keeps objects in memory. It backs local development
// and tests; download links point at BaseURL and are not signed.
type StubObjectStorage struct {
	BaseURL string

	mu      sync.RWMutex
	objects map[string]stubObject
}

type stubObject struct {
	data        []byte
	contentType string
}

func NewStubObjectStorage(baseURL string) *StubObjectStorage {
	if baseURL == "" {
		baseURL = "http://localhost:8080/files"
	}
	return &StubObjectStorage{BaseURL: baseURL, objects: make(map[string]stubObject)}
}

func (s *StubObjectStorage) Put(_ context.Context, key string, body io.Reader, size int64, contentType string) error {
	if key == "" {
		return errKeyRequired
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return fmt.Errorf("failed to read upload: %w", err)
	}
	if size >= 0 && int64(len(data)) != size {
		return fmt.Errorf("upload size mismatch: got %d bytes, expected %d", len(data), size)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = stubObject{data: data, contentType: contentType}
	return nil
}

func (s *StubObjectStorage) PresignGet(_ context.Context, key, fileName string, expiresIn time.Duration) (string, time.Time, error) {
	if key == "" {
		return "", time.Time{}, errKeyRequired
	}
	if expiresIn <= 0 {
		expiresIn = DefaultPresignExpiry
	}
	expiresAt := time.Now().Add(expiresIn)
	q := url.Values{}
	q.Set("expires", expiresAt.UTC().Format(time.RFC3339))
	if fileName != "" {
		q.Set("filename", fileName)
	}
	return s.BaseURL + "/" + key + "?" + q.Encode(), expiresAt, nil
}

func (s *StubObjectStorage) Get(_ context.Context, key string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrObjectNotFound
	}
	return io.NopCloser(bytes.NewReader(obj.data)), nil
}

func (s *StubObjectStorage) Delete(_ context.Context, key string) error {
	if key == "" {
		return errKeyRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	return nil
}

// Has reports whether key was stored.
func (s *StubObjectStorage) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.objects[key]
	return ok
}
