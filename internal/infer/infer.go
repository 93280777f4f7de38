// Package infer synthesizes preconditions for program-transformation rules.
// It grows a corpus of labeled test cases, learns a separating CNF formula
// over enumerated predicate features, and refines the result against solver
// counterexamples until the precondition is sound for every type assignment.
package infer

import (
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/cexlab/prex/internal/enum"
	"github.com/cexlab/prex/internal/lang"
	"github.com/cexlab/prex/internal/smt"
	"github.com/cexlab/prex/internal/translate"
	"github.com/cexlab/prex/internal/typing"
)

// Options configure a precondition inference.
type Options struct {
	// Features are initial predicates to seed the feature list.
	Features []lang.Pred
	// Assumptions are predicates taken as given in every query.
	Assumptions []lang.Pred
	// UseFeatures seeds the feature list from the rule's own precondition.
	UseFeatures bool
	// Strengthen requires the inferred precondition to imply the rule's
	// existing precondition.
	Strengthen bool
	// Incompletes yields intermediate preconditions that cover only part of
	// the good cases while inference continues.
	Incompletes bool

	RandomCases int
	SolverGood  int
	SolverBad   int

	Strategy Strategy
	Profile  *translate.Profile
	Rand     *rand.Rand
	Reporter Reporter
	Logger   *zap.Logger
	// Backend answers the satisfiability and model queries; it defaults to
	// the Z3 backend.
	Backend smt.Solver
}

func (o *Options) fill() {
	if o.RandomCases < 0 {
		o.RandomCases = 0
	}
	if o.SolverBad <= 0 {
		o.SolverBad = 10
	}
	if o.SolverGood < 0 {
		o.SolverGood = 0
	}
	if o.Strategy == nil {
		o.Strategy = Strategies["largest"]
	}
	if o.Profile == nil {
		o.Profile = translate.Default
	}
	if o.Rand == nil {
		o.Rand = rand.New(rand.NewSource(1))
	}
	if o.Reporter == nil {
		o.Reporter = NopReporter{}
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	if o.Backend == nil {
		o.Backend = smt.NewBackend()
	}
}

// Result is one inferred precondition. Unless Final is set, the precondition
// covers only part of the known good cases and inference can proceed.
type Result struct {
	Pre      lang.Pred
	Coverage int
	Final    bool
}

// Inference is a pull iterator over validated preconditions for one rule.
// Every Result it produces has already passed the solver refinement check.
type Inference struct {
	rule *lang.Rule
	opts Options

	model   *typing.Model
	symbols []*lang.Symbol
	seeds   []lang.Pred
	encfg   enum.Config

	goods, bads []*TestCase

	round int
	run   *pieRun
	done  bool
	err   error
}

// Infer builds the type model and initial test corpus for the rule. If the
// rule is valid on every generated case, the returned Inference yields
// nothing: no precondition is needed.
func Infer(rule *lang.Rule, opts Options) (*Inference, error) {
	opts.fill()
	inf := &Inference{rule: rule, opts: opts}

	inf.model = typing.NewModel()
	for _, t := range []lang.Term{rule.Src, rule.Tgt} {
		if err := inf.model.Extend(t); err != nil {
			return nil, err
		}
	}
	if rule.Pre != nil {
		if err := inf.model.Extend(rule.Pre); err != nil {
			return nil, err
		}
	}

	vectors := exponentialSample(inf.model.Vectors())
	if len(vectors) == 0 {
		return nil, fmt.Errorf("infer: rule %s has no consistent type assignment", rule.Name)
	}

	for _, a := range opts.Assumptions {
		if err := inf.model.Extend(a); err != nil {
			return nil, fmt.Errorf("infer: assumption %s: %w", a, err)
		}
	}

	for _, t := range lang.Subterms(rule.Src) {
		if s, ok := t.(*lang.Symbol); ok {
			inf.symbols = append(inf.symbols, s)
		}
	}

	inf.seeds = inf.seedFeatures()
	for _, p := range inf.seeds {
		if err := inf.model.Extend(p); err != nil {
			return nil, fmt.Errorf("infer: feature %s: %w", p, err)
		}
	}

	groups := inf.model.SymbolVars(inf.symbols)
	for _, r := range typing.SortedVars(groups) {
		inf.encfg.Groups = append(inf.encfg.Groups, groups[r])
		inf.encfg.IntGroup = append(inf.encfg.IntGroup, true)
	}

	if err := inf.makeTestCases(vectors); err != nil {
		return nil, err
	}
	opts.Logger.Info("initial test cases",
		zap.String("rule", rule.Name),
		zap.Int("good", len(inf.goods)),
		zap.Int("bad", len(inf.bads)))

	inf.done = len(inf.bads) == 0
	return inf, nil
}

func (inf *Inference) seedFeatures() []lang.Pred {
	if inf.opts.UseFeatures {
		var seeds []lang.Pred
		if inf.rule.Pre != nil {
			for _, t := range lang.Subterms(inf.rule.Pre) {
				switch p := t.(type) {
				case *lang.Comparison:
					seeds = append(seeds, p)
				case *lang.FunPred:
					seeds = append(seeds, p)
				}
			}
		}
		return seeds
	}
	return inf.opts.Features
}

// Err returns the error that terminated iteration early, if any.
func (inf *Inference) Err() error { return inf.err }

// Next returns the next validated precondition. It reports false when
// inference has finished or failed; Err distinguishes the two.
func (inf *Inference) Next() (Result, bool) {
	if inf.err != nil || inf.done {
		return Result{}, false
	}
	for {
		if inf.run == nil {
			inf.round++
			inf.opts.Reporter.OnRoundBegin(inf.round)
			run, err := inf.newRun()
			if err != nil {
				inf.err = err
				return Result{}, false
			}
			inf.run = run
		}

		pre, cov, ok, err := inf.run.next()
		if err != nil {
			inf.err = err
			return Result{}, false
		}
		if !ok {
			inf.done = true
			return Result{}, false
		}

		inf.opts.Logger.Debug("candidate precondition", zap.Stringer("pre", pre))

		cexs, err := inf.checkRefinement(pre)
		if err != nil {
			inf.err = err
			return Result{}, false
		}
		if len(cexs) > 0 {
			inf.bads = append(inf.bads, cexs...)
			inf.opts.Reporter.OnTestCases(len(inf.goods), len(inf.bads))
			inf.run = nil // start a new round against the larger bad set
			continue
		}

		return Result{Pre: pre, Coverage: cov, Final: inf.run.done}, true
	}
}

// pieRun is one round of the example-driven learner, restarted from scratch
// whenever validation produces new counterexamples.
type pieRun struct {
	inf      *Inference
	features []*Feature
	vectors  []*FeatureVector
	coverage int
	done     bool
}

func (inf *Inference) newRun() (*pieRun, error) {
	p := &pieRun{
		inf:     inf,
		vectors: []*FeatureVector{{Good: inf.goods, Bad: inf.bads}},
	}
	for _, pred := range inf.seeds {
		f, err := newFeature(pred, inf.model)
		if err != nil {
			return nil, err
		}
		nv, ok := extendVectors(p.vectors, f, inf.opts.Profile)
		if !ok {
			inf.opts.Logger.Info("skipping unsafe seed feature", zap.Stringer("pred", pred))
			continue
		}
		p.vectors = nv
		p.features = append(p.features, f)
		inf.opts.Reporter.OnFeatureAccepted(len(p.features), f.Pred)
	}
	return p, nil
}

func (p *pieRun) next() (lang.Pred, int, bool, error) {
	if p.done {
		return nil, 0, false, nil
	}
	o := &p.inf.opts
	for {
		if o.Incompletes {
			avail := 0
			for _, v := range p.vectors {
				if len(v.Bad) == 0 {
					avail += len(v.Good)
				}
			}
			if avail > p.coverage {
				p.coverage = avail
				pre, cov, err := makePrecondition(p.features, p.vectors, true, o.Reporter)
				return pre, cov, err == nil, err
			}
		}

		conflict, ok := o.Strategy(p.vectors)
		if !ok {
			// every vector is pure, learn the final precondition
			p.done = true
			pre, cov, err := makePrecondition(p.features, p.vectors, false, o.Reporter)
			return pre, cov, err == nil, err
		}

		samples := []ConflictSet{conflict}
		if len(conflict.Good)+len(conflict.Bad) > conflictSetCutoff {
			samples = make([]ConflictSet, conflictSamples)
			for i := range samples {
				samples[i] = sampleConflictSet(o.Rand, conflict)
			}
		}

		syn := &synthesizer{
			samples: samples,
			en:      enum.New(p.inf.encfg),
			model:   p.inf.model,
			prof:    o.Profile,
			rep:     o.Reporter,
		}
		for {
			f, ok, err := syn.next()
			if err != nil {
				return nil, 0, false, err
			}
			if !ok {
				return nil, 0, false, fmt.Errorf(
					"infer: no candidate predicate divides the conflict set for rule %s", p.inf.rule.Name)
			}
			nv, extended := extendVectors(p.vectors, f, o.Profile)
			if !extended {
				continue
			}
			p.features = append(p.features, f)
			p.vectors = nv
			o.Reporter.OnFeatureAccepted(len(p.features), f.Pred)
			o.Logger.Info("accepted feature",
				zap.Int("index", len(p.features)), zap.Stringer("pred", f.Pred))
			break
		}
	}
}

// interpretRule translates a rule so its soundness reads as
// and(safe) and (and(premises) implies consequent).
func interpretRule(tr *translate.Translator, rule *lang.Rule, strengthen bool) (safe, premises []smt.Expr, consequent smt.Expr, err error) {
	if strengthen {
		if rule.Pre == nil {
			return nil, nil, nil, fmt.Errorf("infer: rule %s has no precondition to strengthen", rule.Name)
		}
		pre := tr.Translate(rule.Pre)
		safe = append(safe, pre.Safe...)
		safe = append(safe, pre.Defined...)
		safe = append(safe, pre.Nonpoison...)
		safe = append(safe, pre.Value)
	}

	src := tr.Translate(rule.Src)
	if len(src.QVars) > 0 {
		return nil, nil, nil, fmt.Errorf("infer: quantified variables in source of rule %s", rule.Name)
	}
	if len(src.Safe) > 0 {
		return nil, nil, nil, fmt.Errorf("infer: safety conditions in source of rule %s", rule.Name)
	}
	premises = append(premises, src.Defined...)
	premises = append(premises, src.Nonpoison...)

	tgt := tr.Translate(rule.Tgt)
	safe = append(safe, tgt.Safe...)

	td := append(append([]smt.Expr{}, tgt.Defined...), tgt.Nonpoison...)
	td = append(td, &smt.Eq{X: src.Value, Y: tgt.Value})

	return safe, premises, smt.MkAnd(td), nil
}

func (inf *Inference) symbolVars(vec *typing.Vector) []*smt.Var {
	out := make([]*smt.Var, len(inf.symbols))
	for i, s := range inf.symbols {
		out[i] = &smt.Var{Name: s.Name, S: smt.SortOf(vec.TypeOf(s))}
	}
	return out
}

func (inf *Inference) symbolWidths(vec *typing.Vector) []int {
	out := make([]int, len(inf.symbols))
	for i, s := range inf.symbols {
		out[i] = vec.TypeOf(s).(lang.IntType).Bits
	}
	return out
}

func (inf *Inference) assignmentValues(m smt.Assignment) []uint64 {
	out := make([]uint64, len(inf.symbols))
	for i, s := range inf.symbols {
		out[i] = m[s.Name]
	}
	return out
}

// checkRefinement validates a candidate against every type assignment,
// returning counterexample cases for the first assignment where assumptions
// and the candidate do not make the rule sound.
func (inf *Inference) checkRefinement(pre lang.Pred) ([]*TestCase, error) {
	o := &inf.opts
	it := inf.model.Vectors()
	for {
		vec, ok := it.Next()
		if !ok {
			return nil, nil
		}
		o.Reporter.OnPreconditionCheck()

		tr := translate.New(vec, o.Profile)
		tgtSafe, premises, consequent, err := interpretRule(tr, inf.rule, false)
		if err != nil {
			return nil, err
		}

		var meta []smt.Expr
		for _, a := range append(append([]lang.Pred{}, o.Assumptions...), pre) {
			r := tr.Translate(a)
			meta = append(meta, r.Safe...)
			meta = append(meta, r.Defined...)
			meta = append(meta, r.Nonpoison...)
			meta = append(meta, r.Value)
		}

		sound := smt.MkAnd(append(append([]smt.Expr{}, tgtSafe...), smt.MkImplies(premises, consequent)))
		e := &smt.Implies{X: smt.MkAnd(meta), Y: sound}

		symVars := inf.symbolVars(vec)
		var cexs []*TestCase
		models := o.Backend.Models(&smt.Not{X: e}, symVars)
		for len(cexs) < o.SolverBad {
			m, ok := models.Next()
			if !ok {
				break
			}
			cexs = append(cexs, newTestCase(vec, inf.symbols, inf.assignmentValues(m)))
		}
		if err := models.Err(); err != nil {
			o.Logger.Warn("solver result not authoritative", zap.Error(err))
		}
		if len(cexs) > 0 {
			return cexs, nil
		}
	}
}

// makeTestCases seeds the corpus for the sampled type assignments: solver
// counterexamples become bad cases, solver-verified models become good
// cases, and corner plus random values are classified by satisfiability.
func (inf *Inference) makeTestCases(vectors []*typing.Vector) error {
	o := &inf.opts
	for _, vec := range vectors {
		tr := translate.New(vec, o.Profile)
		symVars := inf.symbolVars(vec)

		safe, premises, consequent, err := interpretRule(tr, inf.rule, o.Strengthen)
		if err != nil {
			return err
		}

		var asms []smt.Expr
		for _, a := range o.Assumptions {
			asms = append(asms, tr.Translate(a).Value)
		}

		e := smt.MkAnd(append(append([]smt.Expr{}, safe...), smt.MkImplies(premises, consequent)))
		skip := make(map[string]bool)

		negQuery := smt.MkAnd(append(append([]smt.Expr{}, asms...), &smt.Not{X: e}))
		models := o.Backend.Models(negQuery, symVars)
		for n := 0; n < o.SolverBad; n++ {
			m, ok := models.Next()
			if !ok {
				break
			}
			vals := inf.assignmentValues(m)
			inf.bads = append(inf.bads, newTestCase(vec, inf.symbols, vals))
			skip[caseKey(vals)] = true
		}
		if err := models.Err(); err != nil {
			o.Logger.Warn("solver result not authoritative", zap.Error(err))
		}
		o.Reporter.OnTestCases(len(inf.goods), len(inf.bads))

		if o.SolverGood > 0 {
			posQuery := smt.MkAnd(append(append([]smt.Expr{}, asms...), premises...))
			models := o.Backend.Models(posQuery, symVars)
			found := 0
			// each model only counts if the rule provably holds for all
			// input values under that binding
			for draws := 0; draws < 8*o.SolverGood && found < o.SolverGood; draws++ {
				m, ok := models.Next()
				if !ok {
					break
				}
				vals := inf.assignmentValues(m)
				tc := newTestCase(vec, inf.symbols, vals)
				sat, err := o.Backend.Satisfiable(smt.Substitute(&smt.Not{X: e}, tc.Values))
				if err != nil {
					o.Logger.Warn("solver result not authoritative", zap.Error(err))
					continue
				}
				if !sat {
					inf.goods = append(inf.goods, tc)
					skip[caseKey(vals)] = true
					found++
				}
			}
			if err := models.Err(); err != nil {
				o.Logger.Warn("solver result not authoritative", zap.Error(err))
			}
			o.Reporter.OnTestCases(len(inf.goods), len(inf.bads))
		}

		var filter smt.Expr
		if len(asms)+len(premises) > 0 {
			filter = smt.MkAnd(append(append([]smt.Expr{}, asms...), premises...))
		}

		widths := inf.symbolWidths(vec)
		rows := cornerCases(widths)
		for i := 0; i < o.RandomCases; i++ {
			row := make([]uint64, len(widths))
			for j, w := range widths {
				row[j] = o.Rand.Uint64() & (^uint64(0) >> uint(64-w))
			}
			rows = append(rows, row)
		}

		for _, vals := range rows {
			key := caseKey(vals)
			if skip[key] {
				continue
			}
			skip[key] = true

			tc := newTestCase(vec, inf.symbols, vals)

			if filter != nil {
				sat, err := o.Backend.Satisfiable(smt.Substitute(filter, tc.Values))
				if err != nil {
					o.Logger.Warn("solver result not authoritative", zap.Error(err))
					continue
				}
				if !sat {
					continue
				}
			}

			sat, err := o.Backend.Satisfiable(smt.Substitute(&smt.Not{X: e}, tc.Values))
			if err != nil {
				o.Logger.Warn("solver result not authoritative", zap.Error(err))
				continue
			}
			if sat {
				inf.bads = append(inf.bads, tc)
			} else {
				inf.goods = append(inf.goods, tc)
			}
			o.Reporter.OnTestCases(len(inf.goods), len(inf.bads))
		}
	}
	return nil
}
