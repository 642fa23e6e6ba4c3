package model

import (
	"github.com/shopspring/decimal"

	"main/internal/model/enum"
)

// Position is a broker-reported holding in one contract. Quantity is signed;
// a zero quantity means the position is flat and should not be stored.
type Position struct {
	Account    string
	ContractID int64
	Underlying string
	Quantity   decimal.Decimal
	AvgCost    decimal.Decimal
}

// Order is the broker's view of one in-flight order.
type Order struct {
	ID         int64
	ContractID int64
	Underlying string
	Status     enum.OrderStatus
	LeavesQty  decimal.Decimal
}
