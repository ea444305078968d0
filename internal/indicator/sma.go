package indicator

import "chartengine/internal/model"

// SMA is the simple moving average of the last period closes.
// The window is summed oldest first on every update rather than kept as a
// running total, so a value never drifts from the plain window mean that
// CalcSMA reports.
type SMA struct {
	period  int
	window  []float64 // ring of closes; oldest at head once full
	head    int
	count   int
	current float64
}

// NewSMA creates a new SMA indicator with the given period.
func NewSMA(period int) *SMA {
	return &SMA{
		period: period,
		window: make([]float64, period),
	}
}

func (s *SMA) Name() string { return "SMA" }

func (s *SMA) Update(bar model.Bar) {
	if s.count < s.period {
		s.window[s.count] = bar.Close
	} else {
		s.window[s.head] = bar.Close
		s.head = (s.head + 1) % s.period
	}
	s.count++

	if s.Ready() {
		s.current = s.sumFrom(0) / float64(s.period)
	}
}

func (s *SMA) Value() float64 { return s.current }
func (s *SMA) Ready() bool    { return s.count >= s.period }

// Peek computes what Value() would be with an additional bar without mutating state.
// Before the window fills it returns the partial average including price.
func (s *SMA) Peek(price float64) float64 {
	if !s.Ready() {
		return (s.sumFrom(0) + price) / float64(s.count+1)
	}
	return (s.sumFrom(1) + price) / float64(s.period)
}

// sumFrom sums the buffered closes oldest first, skipping the oldest skip.
func (s *SMA) sumFrom(skip int) float64 {
	n := s.count
	if n > s.period {
		n = s.period
	}
	sum := 0.0
	for i := skip; i < n; i++ {
		sum += s.window[(s.head+i)%s.period]
	}
	return sum
}
