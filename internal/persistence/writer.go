// Package persistence stores position snapshots and dissonance events in
// PostgreSQL. It is a collaborator fed from the in-memory core; the core
// itself never touches storage.
package persistence

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/yanun0323/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"main/internal/model"
	"main/pkg/conn"
)

// PositionRow mirrors the positions table.
type PositionRow struct {
	ContractID int64           `gorm:"primaryKey"`
	Account    string          `gorm:"size:64"`
	Underlying string          `gorm:"size:32;index"`
	Quantity   decimal.Decimal `gorm:"type:numeric"`
	AvgCost    decimal.Decimal `gorm:"type:numeric"`
	UpdatedAt  time.Time
}

func (PositionRow) TableName() string { return "positions" }

// DissonanceRow mirrors the dissonance_events table.
type DissonanceRow struct {
	ID              string          `gorm:"primaryKey;size:36"`
	Symbol          string          `gorm:"size:32;index"`
	PrimarySource   string          `gorm:"size:16"`
	PrimaryBid      decimal.Decimal `gorm:"type:numeric"`
	PrimaryAsk      decimal.Decimal `gorm:"type:numeric"`
	SecondarySource string          `gorm:"size:16"`
	SecondaryBid    decimal.Decimal `gorm:"type:numeric"`
	SecondaryAsk    decimal.Decimal `gorm:"type:numeric"`
	DetectedAt      int64
	CreatedAt       time.Time
}

func (DissonanceRow) TableName() string { return "dissonance_events" }

// Writer owns the two tables.
type Writer struct {
	db *gorm.DB
}

// NewWriter migrates the tables and returns a writer.
func NewWriter(client *conn.Client) (*Writer, error) {
	db := client.DB()
	if err := db.AutoMigrate(&PositionRow{}, &DissonanceRow{}); err != nil {
		return nil, errors.Wrap(err, "migrate tables")
	}
	return &Writer{db: db}, nil
}

// RecordDissonance appends one dissonance event.
func (w *Writer) RecordDissonance(event model.Dissonance) error {
	row := DissonanceRow{
		ID:              event.ID,
		Symbol:          event.Symbol,
		PrimarySource:   event.Primary.Source.String(),
		PrimaryBid:      event.Primary.Bid,
		PrimaryAsk:      event.Primary.Ask,
		SecondarySource: event.Secondary.Source.String(),
		SecondaryBid:    event.Secondary.Bid,
		SecondaryAsk:    event.Secondary.Ask,
		DetectedAt:      event.DetectedAt,
	}
	if err := w.db.Create(&row).Error; err != nil {
		return errors.Wrapf(err, "insert dissonance: %s", event.ID)
	}
	return nil
}

// SyncPositions replaces the positions table with the current open book.
// Flattened contracts disappear, matching the in-memory zero-removal rule.
func (w *Writer) SyncPositions(positions []model.Position) error {
	rows := make([]PositionRow, 0, len(positions))
	ids := make([]int64, 0, len(positions))
	for _, position := range positions {
		rows = append(rows, PositionRow{
			ContractID: position.ContractID,
			Account:    position.Account,
			Underlying: position.Underlying,
			Quantity:   position.Quantity,
			AvgCost:    position.AvgCost,
		})
		ids = append(ids, position.ContractID)
	}

	err := w.db.Transaction(func(tx *gorm.DB) error {
		stale := tx.Where("1 = 1")
		if len(ids) > 0 {
			stale = tx.Where("contract_id NOT IN ?", ids)
		}
		if err := stale.Delete(&PositionRow{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(&rows).Error
	})
	if err != nil {
		return errors.Wrap(err, "sync positions")
	}
	return nil
}
