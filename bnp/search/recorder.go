package search

import (
	"time"

	"github.com/example/tp3s/bnp/domain"
	"github.com/example/tp3s/bnp/pricing"
)

// Recorder receives search telemetry.
type Recorder interface {
	// NodeProcessed is called once per node with its final outcome.
	NodeProcessed(outcome domain.NodeOutcome, depth int, elapsed time.Duration)

	// MasterSolved is called after every master solve. mode is "lp" or "ip".
	MasterSolved(mode string, elapsed time.Duration)

	// Priced is called after every pricing round. source is empty when no
	// improving column was found.
	Priced(source pricing.Source, elapsed time.Duration)

	// FrontierSize reports the number of pending nodes.
	FrontierSize(n int)

	// IncumbentImproved is called with every new incumbent value.
	IncumbentImproved(value float64)
}

type nopRecorder struct{}

func (nopRecorder) NodeProcessed(domain.NodeOutcome, int, time.Duration) {}
func (nopRecorder) MasterSolved(string, time.Duration)                   {}
func (nopRecorder) Priced(pricing.Source, time.Duration)                 {}
func (nopRecorder) FrontierSize(int)                                     {}
func (nopRecorder) IncumbentImproved(float64)                            {}

// MultiRecorder fans telemetry out to every non-nil recorder.
func MultiRecorder(rs ...Recorder) Recorder {
	var out multiRecorder
	for _, r := range rs {
		if r != nil {
			out = append(out, r)
		}
	}
	if len(out) == 1 {
		return out[0]
	}
	return out
}

type multiRecorder []Recorder

func (m multiRecorder) NodeProcessed(outcome domain.NodeOutcome, depth int, elapsed time.Duration) {
	for _, r := range m {
		r.NodeProcessed(outcome, depth, elapsed)
	}
}

func (m multiRecorder) MasterSolved(mode string, elapsed time.Duration) {
	for _, r := range m {
		r.MasterSolved(mode, elapsed)
	}
}

func (m multiRecorder) Priced(source pricing.Source, elapsed time.Duration) {
	for _, r := range m {
		r.Priced(source, elapsed)
	}
}

func (m multiRecorder) FrontierSize(n int) {
	for _, r := range m {
		r.FrontierSize(n)
	}
}

func (m multiRecorder) IncumbentImproved(value float64) {
	for _, r := range m {
		r.IncumbentImproved(value)
	}
}
