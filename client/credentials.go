package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// Credentials is the token pair issued at login.
type Credentials struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
}

// Empty reports whether no access token is present.
func (c Credentials) Empty() bool {
	return c.AccessToken == ""
}

// CredentialStore persists the token pair between requests. The client only
// saves on login and refresh, and only clears on logout or a terminal failure.
type CredentialStore interface {
	Load() (Credentials, error)
	Save(Credentials) error
	Clear() error
}

// FileStore keeps credentials in a JSON file readable by the owner only.
type FileStore struct {
	fs   afero.Fs
	path string
	mu   sync.Mutex
}

func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load() (Credentials, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var creds Credentials
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return creds, nil
		}
		return creds, fmt.Errorf("unable to read credentials: %w", err)
	}
	if len(data) == 0 {
		return creds, nil
	}
	if err := json.Unmarshal(data, &creds); err != nil {
		return creds, fmt.Errorf("unable to parse credentials in %s: %w", s.path, err)
	}
	return creds, nil
}

func (s *FileStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("unable to marshal credentials: %w", err)
	}
	if err := s.fs.MkdirAll(filepath.Dir(s.path), 0700); err != nil {
		return fmt.Errorf("unable to create credentials directory: %w", err)
	}
	if err := afero.WriteFile(s.fs, s.path, data, 0600); err != nil {
		return fmt.Errorf("unable to write credentials: %w", err)
	}
	return nil
}

func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.fs.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("unable to remove credentials: %w", err)
	}
	return nil
}

// MemoryStore holds credentials for the lifetime of the process.
type MemoryStore struct {
	mu    sync.RWMutex
	creds Credentials
}

func NewMemoryStore(creds Credentials) *MemoryStore {
	return &MemoryStore{creds: creds}
}

func (s *MemoryStore) Load() (Credentials, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.creds, nil
}

func (s *MemoryStore) Save(creds Credentials) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = creds
	return nil
}

func (s *MemoryStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creds = Credentials{}
	return nil
}
