package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// TokenStore persists the credential token under a single key. An empty
// token means no credential is stored.
type TokenStore interface {
	Token() (string, error)
	Save(token string) error
	Clear() error
}

// FileTokenStore keeps the token in a single file, the client-side
// equivalent of browser local storage.
type FileTokenStore struct {
	path string
}

// NewFileTokenStore builds a store rooted at path, creating parent
// directories as needed.
func NewFileTokenStore(path string) (*FileTokenStore, error) {
	if path == "" {
		return nil, fmt.Errorf("token file path required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create token directory: %w", err)
	}
	return &FileTokenStore{path: path}, nil
}

// Token reads the stored token. A missing file is not an error.
func (s *FileTokenStore) Token() (string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read token file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

// Save writes the token, replacing any previous value.
func (s *FileTokenStore) Save(token string) error {
	if err := os.WriteFile(s.path, []byte(token), 0o600); err != nil {
		return fmt.Errorf("write token file: %w", err)
	}
	return nil
}

// Clear removes the stored token. Clearing an absent token is a no-op.
func (s *FileTokenStore) Clear() error {
	err := os.Remove(s.path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// MemoryTokenStore is an in-process TokenStore used by tests.
type MemoryTokenStore struct {
	mu    sync.Mutex
	token string
}

// NewMemoryTokenStore builds a store pre-seeded with token.
func NewMemoryTokenStore(token string) *MemoryTokenStore {
	return &MemoryTokenStore{token: token}
}

func (s *MemoryTokenStore) Token() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token, nil
}

func (s *MemoryTokenStore) Save(token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	return nil
}

func (s *MemoryTokenStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	return nil
}
