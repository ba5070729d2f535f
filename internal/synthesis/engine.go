package synthesis

// #region imports
import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/danielpatrickdp/correction-synth/internal/document"
	"github.com/danielpatrickdp/correction-synth/internal/finding"
	"github.com/danielpatrickdp/correction-synth/internal/integrity"
	"github.com/danielpatrickdp/correction-synth/internal/logging"
	"github.com/danielpatrickdp/correction-synth/internal/oracle"
	"github.com/danielpatrickdp/correction-synth/internal/strategy"
	"github.com/danielpatrickdp/correction-synth/internal/taxonomy"
)

// #endregion

// #region engine-struct

// recordNamespace seeds the name-based CorrectionRecord ids.
var recordNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("correction-synth/record"))

// Engine runs the iterative correction loop. It holds only read-only
// collaborators, so one Engine may serve any number of concurrent calls.
type Engine struct {
	registry  *taxonomy.Registry
	validator Validator
	relevance RelevanceFilter
	integrity *integrity.Validator
	logger    *logging.Logger

	multiLevel  strategy.Set
	singleLevel strategy.Set
}

// Option configures an Engine.
type Option func(*Engine)

// WithValidator sets the Compliance Validator used between iterations.
// Without one, later passes only retry findings deferred by overlap.
func WithValidator(v Validator) Option {
	return func(e *Engine) { e.validator = v }
}

// WithRelevanceFilter replaces the registry's own relevance table.
func WithRelevanceFilter(f RelevanceFilter) Option {
	return func(e *Engine) { e.relevance = f }
}

// WithIntegrityConfig overrides the integrity thresholds.
func WithIntegrityConfig(c integrity.Config) Option {
	return func(e *Engine) { e.integrity = integrity.NewValidator(c) }
}

// WithLogger sets the logger; nil keeps the discard logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l.WithTag("SYNTH")
		}
	}
}

// NewEngine creates an engine over reg.
func NewEngine(reg *taxonomy.Registry, opts ...Option) *Engine {
	e := &Engine{
		registry:    reg,
		relevance:   reg,
		integrity:   integrity.NewValidator(integrity.DefaultConfig()),
		logger:      logging.Discard(),
		multiLevel:  strategy.Default(reg),
		singleLevel: strategy.SingleLevel(reg),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// #endregion

// #region state

// runState is the SynthesisState of one call. It is never shared.
type runState struct {
	text        string
	iteration   int
	corrections []CorrectionRecord
	decisions   []integrity.Decision
	history     *integrity.History
	report      Report
	warned      map[string]bool
	inputHash   string
}

func (s *runState) warn(msg string) {
	if s.warned[msg] {
		return
	}
	s.warned[msg] = true
	s.report.Warnings = append(s.report.Warnings, msg)
}

func (s *runState) fail(msg string) {
	s.report.Errors = append(s.report.Errors, msg)
}

// #endregion

// #region synthesize

// Synthesize corrects req.Text against its findings. It never fails: errors
// along the way are reflected in Status and Report, and Text is always the
// last fully completed state of the document.
func (e *Engine) Synthesize(ctx context.Context, req Request) Result {
	all := req.AllFindings()
	st := &runState{
		text:    req.Text,
		history: integrity.NewHistory(),
		warned:  make(map[string]bool),
		report:  Report{Warnings: []string{}, Errors: []string{}},
	}

	inputHash, err := oracle.InputHash(req.Text, all)
	if err != nil {
		st.fail(fmt.Sprintf("input hash: %v", err))
	}
	st.inputHash = inputHash

	set := e.singleLevel
	if req.Options.MultiLevel {
		set = e.multiLevel
	}
	budget := req.Options.Budget()
	modules := finding.Modules(all)

	// init
	pending := e.prepare(st, finding.Normalize(all), req)
	e.logger.Info("start: findings=%d actionable=%d budget=%d multi_level=%v",
		len(all), len(pending), budget, req.Options.MultiLevel)

	status := e.loop(ctx, st, pending, set, budget, modules, req)

	res := Result{
		Text:        st.text,
		Corrections: st.corrections,
		Status:      status,
		Iterations:  st.iteration,
		Decisions:   st.decisions,
	}
	if res.Corrections == nil {
		res.Corrections = []CorrectionRecord{}
	}
	if res.Decisions == nil {
		res.Decisions = []integrity.Decision{}
	}
	outputHash, err := oracle.OutputHash(res.Text, len(res.Corrections), res.StrategyTypes())
	if err != nil {
		st.fail(fmt.Sprintf("output hash: %v", err))
	}
	res.Hashes = oracle.Hashes{InputHash: inputHash, OutputHash: outputHash}
	st.report.Valid = len(st.report.Errors) == 0
	res.Report = st.report

	e.logger.Info("done: status=%s iterations=%d corrections=%d warnings=%d",
		status, res.Iterations, len(res.Corrections), len(res.Report.Warnings))
	return res
}

// loop is the state machine: applying -> revalidating -> applying ... until
// a terminal status is reached.
func (e *Engine) loop(
	ctx context.Context,
	st *runState,
	pending []finding.Finding,
	set strategy.Set,
	budget int,
	modules []string,
	req Request,
) Status {
	for {
		if err := ctx.Err(); err != nil {
			st.fail(fmt.Sprintf("synthesis cancelled after %d iteration(s): %v", st.iteration, err))
			return StatusCancelled
		}
		if st.iteration >= budget {
			st.warn(fmt.Sprintf("iteration budget of %d exhausted", budget))
			return StatusBudgetExhausted
		}

		// applying
		st.iteration++
		passStart := st.text
		pass := e.applyPass(st, pending, set, req.Metadata.Context)

		if err := e.integrity.CheckDraft(pass.text); err != nil {
			st.fail(fmt.Sprintf("iteration %d: %v; reverted to pre-pass text", st.iteration, err))
			st.text = passStart
			e.logger.Error("iteration %d: draft check failed: %v", st.iteration, err)
			return StatusIntegrityFailed
		}
		st.text = pass.text
		st.corrections = append(st.corrections, pass.records...)

		e.logger.Info("iteration %d: applied=%d deferred=%d rejected=%d",
			st.iteration, len(pass.records), len(pass.deferred), pass.rejected)

		if len(pass.records) == 0 {
			return StatusConverged
		}
		if st.iteration >= budget {
			st.warn(fmt.Sprintf("iteration budget of %d exhausted", budget))
			return StatusBudgetExhausted
		}

		// revalidating
		if e.validator == nil {
			pending = pass.deferred
			continue
		}
		fresh, err := e.validator.Check(ctx, st.text, modules)
		if err != nil {
			if ctx.Err() != nil {
				st.fail(fmt.Sprintf("synthesis cancelled during revalidation: %v", ctx.Err()))
				return StatusCancelled
			}
			st.fail(fmt.Sprintf("revalidation after iteration %d failed: %v", st.iteration, err))
			e.logger.Error("validator failed: %v", err)
			return StatusValidatorFailed
		}
		pending = e.prepare(st, finding.Normalize(fresh), req)
		e.logger.Debug("revalidated: %d actionable finding(s)", len(pending))
	}
}

// prepare applies the context relevance filter in context-aware mode.
func (e *Engine) prepare(st *runState, findings []finding.Finding, req Request) []finding.Finding {
	if !req.Options.ContextAware || e.relevance == nil {
		return findings
	}
	out := make([]finding.Finding, 0, len(findings))
	for _, f := range findings {
		domain := e.registry.Resolve(f.GateID).Domain
		if f.Severity.AlwaysRetained() || e.relevance.Relevant(req.Metadata.DocumentType, domain) {
			out = append(out, f)
			continue
		}
		st.warn(fmt.Sprintf("finding %s filtered: %s not relevant for document type %q",
			f.Key(), domain, req.Metadata.DocumentType))
	}
	return out
}

// #endregion

// #region apply-pass

type passResult struct {
	text     string
	records  []CorrectionRecord
	deferred []finding.Finding
	rejected int
}

// applyPass runs every finding once against the evolving text. Ranges
// mutated earlier in the pass are tracked so no later edit touches them.
func (e *Engine) applyPass(st *runState, findings []finding.Finding, set strategy.Set, ctxMap map[string]string) passResult {
	pass := passResult{text: st.text}
	passStart := st.text
	var touched []document.Span

	for _, f := range findings {
		res := e.registry.Resolve(f.GateID)
		if res.Unmapped {
			st.warn(fmt.Sprintf("unmapped gate_id %q (module %s): resolved to fallback domain %s",
				f.GateID, f.ModuleID, res.Domain))
		}

		sel := set.Select(f, res, pass.text, ctxMap)
		for _, u := range sel.Unresolved {
			st.warn(fmt.Sprintf("unresolved %s correction for %s: %v", u.Strategy, f.Key(), u.Err))
			e.logger.Warn("unresolved %s for %s: %v", u.Strategy, f.Key(), u.Err)
		}
		if sel.Strategy == nil {
			e.logger.Debug("no strategy for %s", f.Key())
			continue
		}
		r := sel.Result

		if overlapsAny(r.Edits, touched) {
			e.logger.Debug("defer %s: overlaps a range mutated this pass", f.Key())
			pass.deferred = append(pass.deferred, f)
			continue
		}

		applied, err := document.Apply(pass.text, r.Edits)
		if err != nil {
			st.warn(fmt.Sprintf("%s for %s produced invalid edits: %v", sel.Strategy.Type(), f.Key(), err))
			continue
		}

		cand := integrity.Candidate{
			GateID:       f.GateID,
			StrategyType: string(sel.Strategy.Type()),
			AppliedText:  r.AppliedText,
			Reason:       r.Reason,
			Location:     location(r.Location, applied.Spans),
			Before:       pass.text,
			After:        applied.Text,
			PassText:     passStart,
		}
		d := e.integrity.Evaluate(cand, st.history)
		d.Iteration = st.iteration
		st.decisions = append(st.decisions, d)
		if d.Vetoed {
			pass.rejected++
			e.logger.Warn("reject %s via %s: %s", f.Key(), sel.Strategy.Type(), d.Reason)
			continue
		}

		for i := range touched {
			touched[i] = document.Shift(touched[i], r.Edits)
		}
		touched = append(touched, applied.Spans...)
		pass.text = applied.Text
		st.history.Add(cand)

		rec := CorrectionRecord{
			ModuleID:      f.ModuleID,
			GateID:        f.GateID,
			StrategyType:  sel.Strategy.Type(),
			Iteration:     st.iteration,
			Location:      cand.Location,
			Spans:         applied.Spans,
			AppliedText:   r.AppliedText,
			Reason:        r.Reason,
			LegalCitation: res.LegalCitation,
		}
		rec.ID = recordID(st.inputHash, len(st.corrections)+len(pass.records), rec)
		pass.records = append(pass.records, rec)
		e.logger.Debug("apply %s via %s at %s", f.Key(), rec.StrategyType, rec.Location)
	}
	return pass
}

// #endregion

// #region helpers

func overlapsAny(edits []document.Edit, touched []document.Span) bool {
	for _, e := range edits {
		for _, t := range touched {
			if e.Span().Overlaps(t) {
				return true
			}
		}
	}
	return false
}

func location(label string, spans []document.Span) string {
	parts := make([]string, len(spans))
	for i, s := range spans {
		parts[i] = s.String()
	}
	return label + "@" + strings.Join(parts, ",")
}

func recordID(inputHash string, seq int, rec CorrectionRecord) string {
	name := fmt.Sprintf("%s/%d/%d/%s/%s/%s", inputHash, seq, rec.Iteration, rec.ModuleID, rec.GateID, rec.StrategyType)
	return uuid.NewSHA1(recordNamespace, []byte(name)).String()
}

// #endregion
