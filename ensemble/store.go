package ensemble

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/cwbudde/algo-oslo/spectra"
)

// Store caches generated replica matrices on disk so an interrupted or
// repeated run reuses them instead of redrawing. Keys combine a stage kind
// ("raw", "fg") with the replica index.
type Store struct {
	db *leveldb.DB
}

// OpenStore opens (or creates) a replica store at path.
func OpenStore(path string) (*Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("ensemble: open store: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func storeKey(kind string, index int) []byte {
	return []byte(fmt.Sprintf("%s/%08d", kind, index))
}

// Put stores the matrix for (kind, index).
func (s *Store) Put(kind string, index int, m *spectra.Matrix) error {
	var buf bytes.Buffer
	if err := spectra.WriteMatrix(&buf, m); err != nil {
		return err
	}

	if err := s.db.Put(storeKey(kind, index), buf.Bytes(), nil); err != nil {
		return fmt.Errorf("ensemble: store put: %w", err)
	}

	return nil
}

// Get loads the matrix for (kind, index). The second return value reports
// whether the entry exists.
func (s *Store) Get(kind string, index int) (*spectra.Matrix, bool, error) {
	raw, err := s.db.Get(storeKey(kind, index), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, false, nil
	}

	if err != nil {
		return nil, false, fmt.Errorf("ensemble: store get: %w", err)
	}

	m, err := spectra.ReadMatrix(bytes.NewReader(raw))
	if err != nil {
		return nil, false, err
	}

	return m, true, nil
}
