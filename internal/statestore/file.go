package statestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"EtfSentinel/internal/model"
)

// FileStore keeps one JSON document per ticker under a directory. Writes go
// through a temp file and a rename, so a crash mid-write never leaves a torn
// document behind.
type FileStore struct {
	Dir string
}

// NewFileStore creates the state directory if needed.
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FileStore{Dir: dir}, nil
}

func (f *FileStore) path(ticker string) string {
	return filepath.Join(f.Dir, ticker+".json")
}

func (f *FileStore) Read(_ context.Context, ticker string) (*model.InvestmentState, error) {
	data, err := os.ReadFile(f.path(ticker))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("read state: %w", err)
	}
	var state model.InvestmentState
	if err := json.Unmarshal(data, &state); err != nil {
		// A document that exists but doesn't parse is corruption, not absence.
		return nil, fmt.Errorf("%w: decode state for %s: %v", model.ErrInvalidInput, ticker, err)
	}
	return &state, nil
}

func (f *FileStore) Write(_ context.Context, ticker string, state *model.InvestmentState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	tmp := f.path(ticker) + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, f.path(ticker)); err != nil {
		return fmt.Errorf("replace state: %w", err)
	}
	return nil
}
