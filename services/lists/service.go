package lists

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"cinebot/models"
)

var (
	ErrStorageDirRequired = errors.New("storage directory not provided")
	ErrUserIDRequired     = errors.New("user id is required")
	ErrTitleRequired      = errors.New("title is required")
	ErrUnknownListKind    = errors.New("unknown list kind")
	// ErrNotInList means a removal target was absent from the user's list.
	// Handled as a user-visible warning, not a failure.
	ErrNotInList = errors.New("title not in list")
)

// Service owns the per-user title lists and their durable JSON mirrors. Each
// list kind is backed by one file, rewritten wholesale after every mutation.
type Service struct {
	kinds map[models.ListKind]*listFile
}

type listFile struct {
	mu      sync.RWMutex
	path    string
	entries map[string][]string
}

// NewService creates a list service storing one file per list kind inside the
// provided directory, loading any existing state.
func NewService(storageDir string) (*Service, error) {
	if strings.TrimSpace(storageDir) == "" {
		return nil, ErrStorageDirRequired
	}

	if err := os.MkdirAll(storageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lists dir: %w", err)
	}

	svc := &Service{kinds: make(map[models.ListKind]*listFile, 2)}
	for _, kind := range []models.ListKind{models.ListKindWatchlist, models.ListKindWatched} {
		lf := &listFile{
			path:    filepath.Join(storageDir, string(kind)+".json"),
			entries: make(map[string][]string),
		}
		if err := lf.load(); err != nil {
			return nil, err
		}
		svc.kinds[kind] = lf
	}

	return svc, nil
}

// Add appends a title to the user's list (no dedup) and persists. On a
// persistence failure the in-memory state keeps the new entry and remains
// authoritative; the wrapped error is returned for the caller to surface.
func (s *Service) Add(userID string, kind models.ListKind, title string) error {
	lf, err := s.kind(kind)
	if err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}
	if strings.TrimSpace(title) == "" {
		return ErrTitleRequired
	}

	lf.mu.Lock()
	defer lf.mu.Unlock()

	lf.entries[userID] = append(lf.entries[userID], title)
	return lf.saveLocked()
}

// Remove deletes the first exact-match occurrence of title from the user's
// list and persists. Returns ErrNotInList when the title is absent.
func (s *Service) Remove(userID string, kind models.ListKind, title string) error {
	lf, err := s.kind(kind)
	if err != nil {
		return err
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return ErrUserIDRequired
	}

	lf.mu.Lock()
	defer lf.mu.Unlock()

	titles := lf.entries[userID]
	for i, stored := range titles {
		if stored == title {
			lf.entries[userID] = append(titles[:i:i], titles[i+1:]...)
			return lf.saveLocked()
		}
	}
	return ErrNotInList
}

// Titles returns a copy of the user's stored sequence, empty when the user
// has no entries.
func (s *Service) Titles(userID string, kind models.ListKind) []string {
	lf, err := s.kind(kind)
	if err != nil {
		return nil
	}

	lf.mu.RLock()
	defer lf.mu.RUnlock()

	titles := lf.entries[strings.TrimSpace(userID)]
	out := make([]string, len(titles))
	copy(out, titles)
	return out
}

func (s *Service) kind(kind models.ListKind) (*listFile, error) {
	lf, ok := s.kinds[kind]
	if !ok {
		return nil, ErrUnknownListKind
	}
	return lf, nil
}

func (lf *listFile) load() error {
	file, err := os.Open(lf.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("open list file: %w", err)
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read list file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	entries := make(map[string][]string)
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("decode %s: %w", filepath.Base(lf.path), err)
	}
	for userID, titles := range entries {
		userID = strings.TrimSpace(userID)
		if userID == "" {
			continue
		}
		lf.entries[userID] = titles
	}
	return nil
}

func (lf *listFile) saveLocked() error {
	tmp := lf.path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("create list temp file: %w", err)
	}

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(lf.entries); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("encode list: %w", err)
	}

	if err := file.Sync(); err != nil {
		file.Close()
		_ = os.Remove(tmp)
		return fmt.Errorf("sync list: %w", err)
	}

	if err := file.Close(); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("close list temp file: %w", err)
	}

	if err := os.Rename(tmp, lf.path); err != nil {
		return fmt.Errorf("replace list file: %w", err)
	}

	return nil
}
