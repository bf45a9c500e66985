package metrics

import "github.com/google/uuid"

// Delta is the net per-product change folded out of one consumer batch.
// Values are signed; unlikes subtract from like counts.
type Delta struct {
	ProductID          uuid.UUID
	LikeDelta          int64
	ViewDelta          int64
	OrderDelta         int64
	OrderQuantityDelta int64
}

// IsZero reports whether the delta would be a no-op write.
func (d Delta) IsZero() bool {
	return d.LikeDelta == 0 && d.ViewDelta == 0 && d.OrderDelta == 0 && d.OrderQuantityDelta == 0
}
