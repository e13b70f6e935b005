package status

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sort"

	"github.com/viant/conformance/schema"
	"github.com/viant/conformance/store"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxIterations bounds fixed-point passes over dependent rules
const DefaultMaxIterations = 100

// Option configures an Engine
type Option func(*Engine)

// WithMaxIterations sets the fixed-point pass bound
func WithMaxIterations(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithWorkers sets the number of goroutines evaluating rules within one pass
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.workers = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithPartitioner sets the classifier of enclosing instances
func WithPartitioner(partitioner Partitioner) Option {
	return func(e *Engine) {
		e.partitioner = partitioner
	}
}

// Engine evaluates a rule table over a snapshot
type Engine struct {
	table         *Table
	maxIterations int
	workers       int
	logger        *slog.Logger
	partitioner   Partitioner
}

// New creates an engine
func New(table *Table, opts ...Option) *Engine {
	if table == nil {
		table = NewTable()
	}
	e := &Engine{
		table:         table,
		maxIterations: DefaultMaxIterations,
		workers:       runtime.GOMAXPROCS(0),
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

type subject struct {
	id           schema.AnnotationID
	rule         Rule
	neighborhood *Neighborhood
}

// Compute derives the status of every annotation whose type has a rule
func (e *Engine) Compute(ctx context.Context, snapshot *store.Snapshot) (*Result, error) {
	if snapshot == nil {
		return nil, fmt.Errorf("compute: snapshot was nil")
	}
	resolver := &resolver{snapshot: snapshot, partitioner: e.partitioner, regions: map[schema.AnnotationID][]Region{}}
	var local, dependent []*subject
	for _, id := range snapshot.Annotations() {
		row, _ := snapshot.Annotation(id)
		rule, ok := e.table.Lookup(row.TypeID)
		if !ok {
			continue
		}
		item := &subject{id: id, rule: rule, neighborhood: resolver.neighborhood(id)}
		if rule.Dependent {
			dependent = append(dependent, item)
			continue
		}
		local = append(local, item)
	}

	result := &Result{Outcomes: make(map[schema.AnnotationID]*Outcome, len(local)+len(dependent))}
	none := func(schema.AnnotationID) (Status, bool) { return Undetermined, false }
	outcomes, err := e.pass(ctx, local, none)
	if err != nil {
		return nil, err
	}
	for i, item := range local {
		result.Outcomes[item.id] = outcomes[i]
	}
	for _, item := range dependent {
		result.Outcomes[item.id] = &Outcome{Status: Undetermined, Rule: item.rule.Name}
	}
	result.Converged = true

	var changed []schema.AnnotationID
	for len(dependent) > 0 && result.Iterations < e.maxIterations {
		previous := make(map[schema.AnnotationID]Status, len(result.Outcomes))
		for id, outcome := range result.Outcomes {
			previous[id] = outcome.Status
		}
		lookup := func(id schema.AnnotationID) (Status, bool) {
			value, ok := previous[id]
			return value, ok
		}
		outcomes, err = e.pass(ctx, dependent, lookup)
		if err != nil {
			return nil, err
		}
		result.Iterations++
		changed = nil
		for i, item := range dependent {
			if outcomes[i].Status != previous[item.id] {
				changed = append(changed, item.id)
			}
			result.Outcomes[item.id] = outcomes[i]
		}
		if len(changed) == 0 {
			break
		}
	}
	if len(changed) > 0 {
		result.Converged = false
		for _, id := range changed {
			outcome := result.Outcomes[id]
			outcome.Status = Undetermined
			outcome.Err = fmt.Errorf("annotation %d after %d passes: %w", id, result.Iterations, schema.ErrCycleNotResolved)
		}
		e.logger.Warn("status did not converge", "passes", result.Iterations, "unresolved", len(changed))
	}
	e.logger.Debug("status computed",
		"annotations", len(result.Outcomes),
		"local", len(local),
		"dependent", len(dependent),
		"passes", result.Iterations,
		"converged", result.Converged)
	return result, nil
}

// pass evaluates subjects independently against a fixed lookup
func (e *Engine) pass(ctx context.Context, subjects []*subject, lookup Lookup) ([]*Outcome, error) {
	outcomes := make([]*Outcome, len(subjects))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, item := range subjects {
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			outcomes[i] = evaluate(item, lookup)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("status pass: %w", err)
	}
	return outcomes, nil
}

func evaluate(item *subject, lookup Lookup) (outcome *Outcome) {
	outcome = &Outcome{Rule: item.rule.Name}
	defer func() {
		if r := recover(); r != nil {
			outcome.Status = Undetermined
			outcome.Evidence = Evidence{}
			outcome.Err = fmt.Errorf("rule %q on annotation %d panicked: %v", item.rule.Name, item.id, r)
		}
	}()
	outcome.Status, outcome.Evidence = item.rule.Eval(item.neighborhood, lookup)
	return outcome
}

// Outcome represents the computed status of one annotation
type Outcome struct {
	Status   Status   `yaml:"status"`
	Rule     string   `yaml:"rule"`
	Evidence Evidence `yaml:"evidence,omitempty"`
	Err      error    `yaml:"-"`
}

// Result holds the outcomes of one computation over one snapshot
type Result struct {
	Outcomes   map[schema.AnnotationID]*Outcome
	Iterations int
	Converged  bool
}

// Status returns the status of an annotation; annotations without a rule are undetermined
func (r *Result) Status(id schema.AnnotationID) Status {
	if outcome, ok := r.Outcomes[id]; ok {
		return outcome.Status
	}
	return Undetermined
}

// IDs returns annotation ids with an outcome in order
func (r *Result) IDs() []schema.AnnotationID {
	result := make([]schema.AnnotationID, 0, len(r.Outcomes))
	for id := range r.Outcomes {
		result = append(result, id)
	}
	sort.Slice(result, func(i, j int) bool { return result[i] < result[j] })
	return result
}

// Unresolved returns annotations whose fixed point did not converge
func (r *Result) Unresolved() []schema.AnnotationID {
	var result []schema.AnnotationID
	for _, id := range r.IDs() {
		if err := r.Outcomes[id].Err; errors.Is(err, schema.ErrCycleNotResolved) {
			result = append(result, id)
		}
	}
	return result
}

// Errors returns every outcome error in annotation order
func (r *Result) Errors() []error {
	var result []error
	for _, id := range r.IDs() {
		if err := r.Outcomes[id].Err; err != nil {
			result = append(result, err)
		}
	}
	return result
}

// Summary counts outcomes per status
func (r *Result) Summary() map[Status]int {
	result := map[Status]int{}
	for _, outcome := range r.Outcomes {
		result[outcome.Status]++
	}
	return result
}
