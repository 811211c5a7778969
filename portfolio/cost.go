package portfolio

// CommissionModel computes the fee charged on one trade.
type CommissionModel interface {
	Commission(notional float64) float64
}

// SlippageModel adjusts the reference price to a simulated execution price.
// Buys execute above the reference, sells below. volume is the day's traded
// volume for the ticker (0 when unknown).
type SlippageModel interface {
	Execution(ref float64, side Side, quantity float64, volume int64) float64
}

// StandardCommission charges a fixed fee plus a proportional rate per trade.
type StandardCommission struct {
	Fixed float64 // flat fee per trade
	Rate  float64 // fraction of notional, e.g. 0.001 for 10 bps
}

// Commission implements CommissionModel.
func (c StandardCommission) Commission(notional float64) float64 {
	if notional <= 0 {
		return 0
	}
	return c.Fixed + notional*c.Rate
}

// NoCommission charges nothing.
type NoCommission struct{}

func (NoCommission) Commission(float64) float64 { return 0 }

// FixedBpsSlippage moves the execution price a fixed number of basis points
// against the trade.
type FixedBpsSlippage struct {
	Bps float64
}

// Execution implements SlippageModel.
func (s FixedBpsSlippage) Execution(ref float64, side Side, _ float64, _ int64) float64 {
	return ref * (1 + float64(side)*s.Bps/10000)
}

// VolumeSlippage scales price impact with the trade's share of the day's
// volume: base Bps plus Bps per unit of participation. With no volume data it
// degrades to the fixed-bps behaviour.
type VolumeSlippage struct {
	Bps float64
}

// Execution implements SlippageModel.
func (s VolumeSlippage) Execution(ref float64, side Side, quantity float64, volume int64) float64 {
	impact := s.Bps / 10000
	if volume > 0 && quantity > 0 {
		impact *= 1 + quantity/float64(volume)
	}
	return ref * (1 + float64(side)*impact)
}

// NoSlippage executes at the reference price.
type NoSlippage struct{}

func (NoSlippage) Execution(ref float64, _ Side, _ float64, _ int64) float64 { return ref }
