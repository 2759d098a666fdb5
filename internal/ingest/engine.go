// Package ingest is the gatekeeper every raw tick passes through: it parses,
// runs the rule pipeline, classifies, and keeps per-symbol context,
// dead-letter and statistics state for one engine instance.
package ingest

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sawpanic/tickgate/internal/config"
	"github.com/sawpanic/tickgate/internal/deadletter"
	"github.com/sawpanic/tickgate/internal/market"
	"github.com/sawpanic/tickgate/internal/quality"
	"github.com/sawpanic/tickgate/internal/rules"
	"github.com/sawpanic/tickgate/internal/tick"
)

// Result is the full outcome of one Validate call
type Result struct {
	Tick       *tick.Tick       `json:"tick,omitempty"`
	Quality    tick.Quality     `json:"quality"`
	Violations []tick.Violation `json:"violations"`
	Advisories []tick.Advisory  `json:"advisories,omitempty"`
}

// Primary returns the violation reported as the single cause
func (r Result) Primary() (tick.Violation, bool) {
	return quality.Primary(r.Violations)
}

// Observer receives every result after bookkeeping, e.g. a metrics recorder.
// It is called with the engine lock held, in bookkeeping order, and must not
// call back into the engine.
type Observer interface {
	ObserveResult(r Result, deadLetters int, elapsed time.Duration)
}

// Engine is safe for concurrent use. Each symbol's read-evaluate-update
// runs under that symbol's lock; counters and the dead-letter queue move
// together under one engine lock.
type Engine struct {
	pipeline    *rules.Pipeline
	contexts    *market.Registry
	deadLetters *deadletter.Queue
	clock       func() time.Time
	logger      zerolog.Logger
	observer    Observer

	mu    sync.Mutex
	stats counters
}

// Option configures an Engine
type Option func(*Engine)

// WithClock replaces the wall clock used by time-based rules
func WithClock(clock func() time.Time) Option {
	return func(e *Engine) {
		e.clock = clock
	}
}

// WithLogger sets the component logger
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithObserver attaches a result observer
func WithObserver(o Observer) Option {
	return func(e *Engine) {
		e.observer = o
	}
}

// WithPipeline replaces the default rule pipeline
func WithPipeline(p *rules.Pipeline) Option {
	return func(e *Engine) {
		e.pipeline = p
	}
}

// New creates an engine with the default rule set
func New(opts ...Option) *Engine {
	e := &Engine{
		pipeline:    rules.DefaultPipeline(tick.DefaultParseOptions(), rules.DefaultThresholds()),
		contexts:    market.NewRegistry(),
		deadLetters: deadletter.NewQueue(),
		clock:       time.Now,
		logger:      log.With().Str("component", "ingest").Logger(),
		stats:       newCounters(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// NewFromConfig creates an engine whose rules follow cfg
func NewFromConfig(cfg config.RulesConfig, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	th, err := cfg.Thresholds()
	if err != nil {
		return nil, fmt.Errorf("failed to build rule thresholds: %w", err)
	}
	pipeline := rules.DefaultPipeline(cfg.ParseOptions(), th)
	return New(append([]Option{WithPipeline(pipeline)}, opts...)...), nil
}

// Validate processes one raw record. The tick is nil when the record was
// rejected.
func (e *Engine) Validate(raw tick.Raw) (*tick.Tick, tick.Quality, []tick.Violation) {
	r := e.ValidateResult(raw)
	return r.Tick, r.Quality, r.Violations
}

// ValidateResult is Validate with advisories included
func (e *Engine) ValidateResult(raw tick.Raw) Result {
	start := time.Now()
	now := e.clock()

	t, schemaErr := e.pipeline.Schema(raw)
	if schemaErr != nil {
		result := Result{
			Quality:    tick.QualityRejected,
			Violations: []tick.Violation{*schemaErr},
		}
		e.finish(raw, result, now, start)
		return result
	}

	mc, created := e.contexts.GetOrCreate(t.Symbol)
	if created {
		e.logger.Debug().Str("symbol", mc.Symbol()).Msg("market context created")
	}

	var outcome rules.Outcome
	var q tick.Quality
	mc.Evaluate(*t, func(state market.State) bool {
		outcome = e.pipeline.Run(*t, state, now)
		q = quality.Classify(outcome.Violations)
		return q.Accepted()
	})

	violations := outcome.Violations
	if violations == nil {
		violations = []tick.Violation{}
	}
	result := Result{
		Quality:    q,
		Violations: violations,
		Advisories: outcome.Advisories,
	}
	if q.Accepted() {
		result.Tick = t
	}

	e.finish(raw, result, now, start)
	return result
}

// finish dead-letters rejections, bumps counters and notifies the observer
func (e *Engine) finish(raw tick.Raw, r Result, now, start time.Time) {
	e.mu.Lock()
	if r.Quality == tick.QualityRejected {
		e.deadLetters.Append(raw, r.Violations, now)
	}
	e.stats.add(r)
	if e.observer != nil {
		e.observer.ObserveResult(r, e.deadLetters.Len(), time.Since(start))
	}
	e.mu.Unlock()

	e.logResult(raw, r)
}

func (e *Engine) logResult(raw tick.Raw, r Result) {
	symbol, _ := raw[tick.FieldSymbol].(string)
	if r.Tick != nil {
		symbol = r.Tick.Symbol
	}
	withSymbol := func(ev *zerolog.Event) {
		if symbol != "" {
			ev.Str("symbol", symbol)
		}
	}

	for _, a := range r.Advisories {
		e.logger.Warn().Func(withSymbol).Str("signal", a.Signal).Msg(a.Message)
	}

	switch r.Quality {
	case tick.QualityRejected:
		primary, _ := r.Primary()
		counts := quality.Summarize(r.Violations)
		e.logger.Debug().Func(withSymbol).Str("rule", primary.Rule).
			Int("hard", counts.Hard).Int("soft", counts.Soft).Msg("record dead-lettered")
	case tick.QualitySuspect:
		for _, v := range r.Violations {
			if v.Rule == rules.RulePriceMovement {
				e.logger.Info().Func(withSymbol).Str("price", r.Tick.Price.String()).Msg(v.Message)
			}
		}
	}
}

// Statistics returns a consistent snapshot of all counters
func (e *Engine) Statistics() Statistics {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats.snapshot(e.deadLetters.Len())
}

// GetOrCreateContext exposes a symbol context for inspection. Creating a
// context does not touch statistics.
func (e *Engine) GetOrCreateContext(symbol string) *market.Context {
	mc, _ := e.contexts.GetOrCreate(symbol)
	return mc
}

// Context returns the state of one tracked symbol
func (e *Engine) Context(symbol string) (market.State, bool) {
	mc, ok := e.contexts.Get(symbol)
	if !ok {
		return market.State{}, false
	}
	return mc.Snapshot(), true
}

// Contexts returns the state of every tracked symbol
func (e *Engine) Contexts() []market.State {
	return e.contexts.Snapshots()
}

// DeadLetters returns a copy of the dead-letter queue
func (e *Engine) DeadLetters() []deadletter.Entry {
	return e.deadLetters.Entries()
}

// DeadLettersSince returns dead-letter entries from offset on
func (e *Engine) DeadLettersSince(offset int) []deadletter.Entry {
	return e.deadLetters.Since(offset)
}

// Rules returns the rule names in evaluation order
func (e *Engine) Rules() []string {
	return e.pipeline.Rules()
}
