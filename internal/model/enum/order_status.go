package enum

// OrderStatus tracks the broker-side lifecycle of an open order.
type OrderStatus uint8

const (
	OrderStatusUnknown OrderStatus = iota
	OrderStatusActive
	OrderStatusPartFilled
	OrderStatusFilled
	OrderStatusCanceled
	OrderStatusRejected
	OrderStatusExpired
)

// Done reports whether the status is terminal for the open-order set.
func (s OrderStatus) Done() bool {
	switch s {
	case OrderStatusFilled, OrderStatusCanceled, OrderStatusRejected, OrderStatusExpired:
		return true
	default:
		return false
	}
}
