package prex

import (
	"fmt"

	"github.com/schollz/progressbar/v3"

	"github.com/cexlab/prex/internal/lang"
)

// ConsoleReporter renders inference progress as a spinner with a live
// description of the current search state.
type ConsoleReporter struct {
	bar *progressbar.ProgressBar

	round      int
	good, bad  int
	features   int
	considered int
	clauses    int
}

// NewConsoleReporter returns a reporter writing to standard output.
func NewConsoleReporter() *ConsoleReporter {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetDescription("inferring"),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(40),
	)
	return &ConsoleReporter{bar: bar}
}

func (r *ConsoleReporter) describe() {
	r.bar.Describe(fmt.Sprintf("round %d: %s, %s, %d features (%d tried), %d clauses",
		r.round, plural(r.good, "good case"), plural(r.bad, "bad case"),
		r.features, r.considered, r.clauses))
	r.bar.Add(1)
}

func (r *ConsoleReporter) OnTestCases(good, bad int) {
	r.good, r.bad = good, bad
	r.describe()
}

func (r *ConsoleReporter) OnRoundBegin(round int) {
	r.round = round
	r.features = 0
	r.considered = 0
	r.clauses = 0
	r.describe()
}

func (r *ConsoleReporter) OnFeatureConsidered() {
	r.considered++
	if r.considered%64 == 0 {
		r.describe()
	}
}

func (r *ConsoleReporter) OnFeatureAccepted(count int, pred lang.Pred) {
	r.features = count
	r.describe()
}

func (r *ConsoleReporter) OnClauseSizeIncrease(k int) {
	r.describe()
}

func (r *ConsoleReporter) OnClauseAdded(total int) {
	r.clauses = total
	r.describe()
}

func (r *ConsoleReporter) OnPreconditionCheck() {
	r.bar.Add(1)
}

// Finish clears the spinner once inference is done.
func (r *ConsoleReporter) Finish() {
	r.bar.Finish()
	fmt.Println()
}
