package infer

import "github.com/cexlab/prex/internal/lang"

// Reporter receives progress notifications during inference. Implementations
// must be cheap; they are called from the inner synthesis loops.
type Reporter interface {
	// OnTestCases reports the current corpus size after new cases are added.
	OnTestCases(good, bad int)
	// OnRoundBegin marks the start of an inference round.
	OnRoundBegin(round int)
	// OnFeatureConsidered is called once per enumerated candidate predicate.
	OnFeatureConsidered()
	// OnFeatureAccepted is called when a candidate joins the feature list.
	OnFeatureAccepted(count int, pred lang.Pred)
	// OnClauseSizeIncrease is called when the learner grows clauses to k literals.
	OnClauseSizeIncrease(k int)
	// OnClauseAdded is called when the learner selects a clause for the cover.
	OnClauseAdded(total int)
	// OnPreconditionCheck is called before each validation query.
	OnPreconditionCheck()
}

// NopReporter discards all notifications.
type NopReporter struct{}

func (NopReporter) OnTestCases(good, bad int)                 {}
func (NopReporter) OnRoundBegin(round int)                    {}
func (NopReporter) OnFeatureConsidered()                      {}
func (NopReporter) OnFeatureAccepted(count int, p lang.Pred)  {}
func (NopReporter) OnClauseSizeIncrease(k int)                {}
func (NopReporter) OnClauseAdded(total int)                   {}
func (NopReporter) OnPreconditionCheck()                      {}
