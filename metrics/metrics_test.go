package metrics

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func days(n int) []time.Time {
	out := make([]time.Time, n)
	for i := range out {
		out[i] = time.Date(2020, time.January, 1+i, 0, 0, 0, 0, time.UTC)
	}
	return out
}

func TestAnalyzeBasicCurve(t *testing.T) {
	t.Parallel()

	// Returns are +10% then -5%: mean 0.025, sample stdev ~0.106066.
	values := []float64{100, 110, 104.5}
	s := Analyze(days(3), values, nil, Options{})

	assert.InDelta(t, 0.045, s.TotalReturn, 1e-9)
	require.True(t, s.Volatility.Defined)
	assert.InDelta(t, 0.106066*15.8745, s.Volatility.Value, 1e-3)
	require.True(t, s.Sharpe.Defined)
	assert.InDelta(t, 3.7417, s.Sharpe.Value, 1e-3)
	assert.False(t, s.Alpha.Defined)
	assert.False(t, s.Beta.Defined)
}

func TestAnalyzeOneYearDouble(t *testing.T) {
	t.Parallel()

	dates := []time.Time{
		time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2021, time.January, 1, 0, 0, 0, 0, time.UTC),
	}
	s := Analyze(dates, []float64{100, 200}, nil, Options{})

	assert.InDelta(t, 1.0, s.TotalReturn, 1e-9)
	require.True(t, s.CAGR.Defined)
	// 366 calendar days is fractionally over a year, so CAGR lands just
	// under the 100% total return.
	assert.InDelta(t, 0.9972, s.CAGR.Value, 1e-3)
}

func TestAnalyzeFlatLedgerIsUndefinedNotZero(t *testing.T) {
	t.Parallel()

	s := Analyze(days(5), []float64{100, 100, 100, 100, 100}, nil, Options{})

	assert.Zero(t, s.TotalReturn)
	assert.False(t, s.Volatility.Defined)
	assert.False(t, s.Sharpe.Defined)
	assert.False(t, s.Sortino.Defined)
	assert.False(t, s.Calmar.Defined)
	assert.Zero(t, s.MaxDrawdown)
}

func TestAnalyzeMonotoneRiseHasNoSortino(t *testing.T) {
	t.Parallel()

	s := Analyze(days(4), []float64{100, 101, 103, 108}, nil, Options{})

	require.True(t, s.Sharpe.Defined)
	assert.False(t, s.Sortino.Defined)
	assert.Zero(t, s.MaxDrawdown)
}

func TestMaxDrawdown(t *testing.T) {
	t.Parallel()

	s := Analyze(days(5), []float64{100, 120, 90, 95, 130}, nil, Options{})

	assert.InDelta(t, -0.25, s.MaxDrawdown, 1e-9)
	assert.Equal(t, 2, s.MaxDrawdownDays)
	require.True(t, s.Calmar.Defined)
}

func TestDrawdownsSeries(t *testing.T) {
	t.Parallel()

	dd := Drawdowns([]float64{100, 120, 90, 95, 130})
	require.Len(t, dd, 5)
	assert.Zero(t, dd[0])
	assert.Zero(t, dd[1])
	assert.InDelta(t, -0.25, dd[2], 1e-9)
	assert.InDelta(t, 95.0/120-1, dd[3], 1e-9)
	assert.Zero(t, dd[4])
}

func TestAnalyzeAgainstIdenticalBenchmark(t *testing.T) {
	t.Parallel()

	values := []float64{100, 110, 104.5, 112}
	s := Analyze(days(4), values, values, Options{})

	require.True(t, s.Beta.Defined)
	assert.InDelta(t, 1.0, s.Beta.Value, 1e-9)
	require.True(t, s.Alpha.Defined)
	assert.InDelta(t, 0.0, s.Alpha.Value, 1e-9)
	// Tracking a benchmark exactly leaves no active return to measure.
	assert.False(t, s.InformationRatio.Defined)
	require.True(t, s.BenchmarkReturn.Defined)
	assert.InDelta(t, 0.12, s.BenchmarkReturn.Value, 1e-9)
}

func TestAnalyzeDegenerateInput(t *testing.T) {
	t.Parallel()

	assert.Zero(t, Analyze(nil, nil, nil, Options{}))
	assert.Zero(t, Analyze(days(1), []float64{100}, nil, Options{}))
	assert.Zero(t, Analyze(days(2), []float64{0, 100}, nil, Options{}))
}

func TestRatioJSONNull(t *testing.T) {
	t.Parallel()

	b, err := json.Marshal(struct {
		Set   Ratio `json:"set"`
		Unset Ratio `json:"unset"`
	}{Set: defined(1.5), Unset: Ratio{}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"set":1.5,"unset":null}`, string(b))

	var r Ratio
	require.NoError(t, json.Unmarshal([]byte("null"), &r))
	assert.False(t, r.Defined)
	require.NoError(t, json.Unmarshal([]byte("2.25"), &r))
	assert.True(t, r.Defined)
	assert.InDelta(t, 2.25, r.Value, 1e-12)
}
