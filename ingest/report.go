package ingest

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/viant/conformance/schema"
)

// Stages reported on failure
const (
	StageScan  = "scan"
	StageWrite = "write"
	StageLink  = "link"
)

// Failure represents an isolated ingestion error
type Failure struct {
	Location string `yaml:"location"`
	Stage    string `yaml:"stage"`
	Err      error  `yaml:"-"`
	Message  string `yaml:"error"`
}

func (f Failure) Error() string {
	return fmt.Sprintf("%v %v: %v", f.Stage, f.Location, f.Err)
}

// Unwrap returns the underlying error
func (f Failure) Unwrap() error {
	return f.Err
}

// Report accumulates ingestion outcomes
type Report struct {
	mu       sync.Mutex
	Ingested []string  `yaml:"ingested"`
	Failures []Failure `yaml:"failures,omitempty"`
}

func (r *Report) ingested(location string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Ingested = append(r.Ingested, location)
}

func (r *Report) fail(location, stage string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Failures = append(r.Failures, Failure{Location: location, Stage: stage, Err: err, Message: err.Error()})
}

func (r *Report) sort() {
	r.mu.Lock()
	defer r.mu.Unlock()
	sort.Strings(r.Ingested)
	sort.SliceStable(r.Failures, func(i, j int) bool { return r.Failures[i].Location < r.Failures[j].Location })
}

// Failed returns true if any source or linker failed
func (r *Report) Failed() bool {
	return len(r.Failures) > 0
}

// Fatal returns failures caused by integrity violations
func (r *Report) Fatal() []Failure {
	var result []Failure
	for _, failure := range r.Failures {
		if schema.IsFatal(failure.Err) {
			result = append(result, failure)
		}
	}
	return result
}

// Err joins every failure, nil when there is none
func (r *Report) Err() error {
	errs := make([]error, len(r.Failures))
	for i, failure := range r.Failures {
		errs[i] = failure
	}
	return errors.Join(errs...)
}
