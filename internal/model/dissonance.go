package model

import (
	"time"

	"github.com/google/uuid"
)

// Dissonance records a disagreement between the two feed sources for one
// symbol. It is ephemeral; it exists only to be published.
type Dissonance struct {
	ID         string
	Symbol     string
	Primary    Quote
	Secondary  Quote
	DetectedAt int64
}

// NewDissonance builds a dissonance event from two disagreeing quotes.
func NewDissonance(symbol string, primary, secondary Quote) Dissonance {
	return Dissonance{
		ID:         uuid.NewString(),
		Symbol:     symbol,
		Primary:    primary,
		Secondary:  secondary,
		DetectedAt: time.Now().UTC().UnixNano(),
	}
}
