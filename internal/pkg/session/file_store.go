// internal/pkg/session/file_store.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"carbon-portal/internal/domain/identity"
	xerrors "carbon-portal/internal/pkg/errors"

	"go.uber.org/zap"
)

// FileStore keeps the session in a single JSON document. Every write goes
// through a temp file and a rename, and Clear removes the one file, so a
// reader never observes a half-written or half-cleared session.
type FileStore struct {
	path   string
	mu     sync.Mutex
	logger *zap.Logger
}

// DefaultFilePath returns ~/.config/carbon-portal/session.json.
func DefaultFilePath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, ".config", "carbon-portal", "session.json"), nil
}

func NewFileStore(path string, logger *zap.Logger) *FileStore {
	return &FileStore{path: path, logger: logger}
}

// Path returns the location of the session document.
func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) SaveToken(_ context.Context, accessToken, refreshToken string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read()
	if err != nil {
		return err
	}
	rec.AccessToken = accessToken
	rec.RefreshToken = refreshToken
	return s.write(rec)
}

func (s *FileStore) SaveIdentity(_ context.Context, id *identity.Identity) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read()
	if err != nil {
		return err
	}
	rec.User = raw
	return s.write(rec)
}

func (s *FileStore) LoadIdentity(_ context.Context) (*identity.Identity, error) {
	s.mu.Lock()
	rec, err := s.read()
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}

	id, err := decodeIdentity(rec.User)
	if err != nil {
		s.logger.Warn("cached identity is unreadable, treating as absent",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return nil, nil
	}
	return id, nil
}

func (s *FileStore) HasToken(ctx context.Context) (bool, error) {
	tok, err := s.AccessToken(ctx)
	return tok != "", err
}

func (s *FileStore) AccessToken(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read()
	if err != nil {
		return "", err
	}
	return rec.AccessToken, nil
}

func (s *FileStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return xerrors.Storage("remove session file", err)
	}
	return nil
}

// read returns an empty record when the file does not exist. A document that
// is not valid JSON is also treated as empty; the next write replaces it.
func (s *FileStore) read() (record, error) {
	var rec record
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return rec, nil
		}
		return rec, xerrors.Storage("read session file", err)
	}
	if err := json.Unmarshal(b, &rec); err != nil {
		s.logger.Warn("session file is corrupt, ignoring it",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return record{}, nil
	}
	return rec, nil
}

func (s *FileStore) write(rec record) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return xerrors.Storage("create session directory", err)
	}

	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".session-*.json")
	if err != nil {
		return xerrors.Storage("create temp session file", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return xerrors.Storage("write session file", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return xerrors.Storage("chmod session file", err)
	}
	if err := tmp.Close(); err != nil {
		return xerrors.Storage("close session file", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return xerrors.Storage("replace session file", err)
	}
	return nil
}
