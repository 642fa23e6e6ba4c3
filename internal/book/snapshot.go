package book

import (
	"encoding/json"
	"os"
	"path/filepath"

	"main/internal/model"
)

// ReadPositionSnapshot loads a position snapshot written by a broker adapter.
// The book carries no persistence of its own; this is how it is rebuilt
// after a restart until the live stream catches up.
func ReadPositionSnapshot(path string) ([]model.Position, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var positions []model.Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// WritePositionSnapshot writes the open positions to disk as JSON.
func WritePositionSnapshot(path string, positions []model.Position) error {
	data, err := json.MarshalIndent(positions, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// Restore replays a snapshot into the book. Zero-quantity entries are
// dropped by AddPosition, same as live updates.
func (b *PositionBook) Restore(positions []model.Position) {
	for _, position := range positions {
		b.AddPosition(position)
	}
}
