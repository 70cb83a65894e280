package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mealtrail/mealtrail/internal/model"
)

// File names written by WriteDir.
const (
	SessionsFile     = "sessions.csv"
	TransactionsFile = "transactions.csv"
)

// WriteDir writes sessions.csv and transactions.csv into dir, creating it
// if needed.
func WriteDir(dir string, sessions []model.Session, txns []model.Transaction) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := writeFile(filepath.Join(dir, SessionsFile), func(w io.Writer) error {
		return WriteSessions(w, sessions)
	}); err != nil {
		return err
	}
	return writeFile(filepath.Join(dir, TransactionsFile), func(w io.Writer) error {
		return WriteTransactions(w, txns)
	})
}

// ReadSessionsFile reads a sessions CSV file. A missing file yields no
// sessions.
func ReadSessionsFile(path string) ([]model.Session, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	return ReadSessions(f)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}
