package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gaponukz/cobraBot/internal/domain"
)

// FileStore keeps the whole directory in memory and mirrors every mutation to
// a JSON snapshot file. The file always holds a complete, valid array of user
// records, never a partial append.
type FileStore struct {
	mu    sync.RWMutex
	path  string
	users []*domain.User
	byID  map[int64]int // id -> index into users

	log *slog.Logger
}

// OpenFileStore loads the snapshot at path, seeding an empty directory when
// the file does not exist yet.
func OpenFileStore(path string, log *slog.Logger) (*FileStore, error) {
	if log == nil {
		log = slog.Default()
	}

	s := &FileStore{
		path: path,
		byID: make(map[int64]int),
		log:  log,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read directory file %q: %w", path, err)
		}
		return s, nil
	}

	var users []*domain.User
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, fmt.Errorf("decode directory file %q: %w", path, err)
	}

	for _, user := range users {
		if user == nil {
			continue
		}
		if _, exists := s.byID[user.ID]; exists {
			return nil, fmt.Errorf("directory file %q: duplicate user id %d", path, user.ID)
		}
		if user.Language == "" {
			user.Language = domain.FallbackLanguage
		}
		s.byID[user.ID] = len(s.users)
		s.users = append(s.users, user)
	}

	log.Info("user directory loaded", slog.String("path", path), slog.Int("users", len(s.users)))

	return s, nil
}

// FindByID returns the record with the given recipient id.
func (s *FileStore) FindByID(_ context.Context, id int64) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	return s.users[idx].Clone(), nil
}

// FindByAddress scans non-nil addresses for a match.
func (s *FileStore) FindByAddress(_ context.Context, address string) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Address != nil && *user.Address == address {
			return user.Clone(), nil
		}
	}

	return nil, ErrNotFound
}

// FindByRefID scans non-nil referral ids for a match. The argument is
// normalized before comparison.
func (s *FileStore) FindByRefID(_ context.Context, refID string) (*domain.User, error) {
	needle := NormalizeRefID(refID)
	if needle == "" {
		return nil, ErrNotFound
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.RefID != nil && NormalizeRefID(*user.RefID) == needle {
			return user.Clone(), nil
		}
	}

	return nil, ErrNotFound
}

// Insert appends the record and rewrites the snapshot.
func (s *FileStore) Insert(_ context.Context, user *domain.User) error {
	if user == nil {
		return fmt.Errorf("directory: insert nil user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUniqueLocked(user, -1); err != nil {
		return err
	}

	stored := user.Clone()
	s.byID[stored.ID] = len(s.users)
	s.users = append(s.users, stored)

	if err := s.persistLocked(); err != nil {
		// roll back the in-memory append so memory and file stay in sync
		s.users = s.users[:len(s.users)-1]
		delete(s.byID, stored.ID)
		return err
	}

	return nil
}

// Update applies the patch to the record in place and rewrites the snapshot.
// Returns ErrNotFound when no record matches id.
func (s *FileStore) Update(_ context.Context, id int64, patch Patch) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}

	current := s.users[idx]
	updated := current.Clone()
	applyPatch(updated, patch)

	if err := s.checkUniqueLocked(updated, idx); err != nil {
		return nil, err
	}

	s.users[idx] = updated
	if err := s.persistLocked(); err != nil {
		s.users[idx] = current
		return nil, err
	}

	return updated.Clone(), nil
}

// All returns every record in insertion order.
func (s *FileStore) All(_ context.Context) ([]*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]*domain.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user.Clone())
	}

	return users, nil
}

// Count returns the number of registered users.
func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users), nil
}

// HealthCheck verifies the snapshot location is writable.
func (s *FileStore) HealthCheck(_ context.Context) error {
	dir := filepath.Dir(s.path)

	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("directory storage dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("directory storage dir %q is not a directory", dir)
	}

	return nil
}

// Close is a no-op for the file-backed store; every mutation is already
// durable by the time it returns.
func (s *FileStore) Close() error {
	return nil
}

func applyPatch(user *domain.User, patch Patch) {
	if patch.Language != nil {
		user.Language = *patch.Language
	}
	if patch.RefID != nil {
		refID := NormalizeRefID(*patch.RefID)
		user.RefID = &refID
	}
	if patch.Address != nil {
		address := *patch.Address
		user.Address = &address
	}
}

func (s *FileStore) checkUniqueLocked(candidate *domain.User, selfIdx int) error {
	for i, user := range s.users {
		if i == selfIdx {
			continue
		}
		if user.ID == candidate.ID {
			return ErrDuplicateID
		}
		if candidate.RefID != nil && user.RefID != nil &&
			NormalizeRefID(*user.RefID) == NormalizeRefID(*candidate.RefID) {
			return ErrDuplicateRefID
		}
		if candidate.Address != nil && user.Address != nil && *user.Address == *candidate.Address {
			return ErrDuplicateAddress
		}
	}

	return nil
}

// persistLocked rewrites the whole snapshot through a temp file rename so a
// crash mid-write never leaves a truncated directory behind.
func (s *FileStore) persistLocked() error {
	payload, err := json.MarshalIndent(s.users, "", "    ")
	if err != nil {
		return fmt.Errorf("encode directory snapshot: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, payload, 0o644); err != nil {
		return fmt.Errorf("write directory snapshot: %w", err)
	}

	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace directory snapshot: %w", err)
	}

	return nil
}

var _ Store = (*FileStore)(nil)
