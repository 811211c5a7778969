package portfolio

// Side of an order.
type Side int8

const (
	Buy  Side = +1
	Sell Side = -1
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "buy"
	case Sell:
		return "sell"
	}
	return "unknown"
}

// Order is a single instruction produced by one strategy invocation. Exactly
// one of Quantity or TargetWeight is set: Quantity trades a fixed number of
// shares; TargetWeight (a fraction of total portfolio value, 0..1) resizes
// the position to that weight at execution prices. Orders are transient;
// they are consumed by Apply and survive only as OrderOutcomes on the
// snapshot.
type Order struct {
	Ticker       string
	Side         Side
	Quantity     float64
	TargetWeight float64
}

// weighted reports whether the order is expressed as a target weight.
func (o Order) weighted() bool { return o.Quantity == 0 && o.TargetWeight > 0 }

// FillStatus classifies what happened to an order during Apply.
type FillStatus string

const (
	Filled   FillStatus = "filled"
	Partial  FillStatus = "partial"
	Rejected FillStatus = "rejected"
	Skipped  FillStatus = "skipped"
)

// RejectReason explains a rejected or skipped order.
type RejectReason string

const (
	ReasonNone             RejectReason = ""
	ReasonInsufficientCash RejectReason = "InsufficientCash"
	ReasonNoMarketOnDate   RejectReason = "NoMarketOnDate"
	ReasonNoPosition       RejectReason = "NoPosition"
	ReasonBelowMinimum     RejectReason = "BelowMinimum"
)

// OrderOutcome records how one order executed. Quantity, Price and
// Commission describe the actual fill; RealizedPL is set on sells.
type OrderOutcome struct {
	Order      Order
	Status     FillStatus
	Reason     RejectReason
	Quantity   float64
	Price      float64
	Commission float64
	RealizedPL float64
}
