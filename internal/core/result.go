package core

import (
	"errors"
	"fmt"
)

// ProblemKind classifies a non-fatal failure recorded in a Result.
type ProblemKind string

const (
	ProblemMissingSource    ProblemKind = "missing-source"
	ProblemMissingReference ProblemKind = "missing-reference"
	ProblemUnsupportedLink  ProblemKind = "unsupported-link"
	ProblemCleanup          ProblemKind = "cleanup"
	ProblemCollision        ProblemKind = "collision"
	ProblemIO               ProblemKind = "io"
)

// Problem is one partial failure. Operations keep going after recording it.
type Problem struct {
	Kind ProblemKind
	Path string
	Err  error
}

func (p Problem) Error() string {
	return fmt.Sprintf("%s: %s: %v", p.Kind, p.Path, p.Err)
}

func (p Problem) Unwrap() error { return p.Err }

// RewrittenLink records a link rewrite performed during an operation.
type RewrittenLink struct {
	File    string
	OldLink string
	NewLink string
}

// Relocation records one file copied from From to To.
type Relocation struct {
	From string
	To   string
}

// Result reports the outcome of an orchestrator operation.
type Result struct {
	Copied    []Relocation
	Removed   []string
	Rewritten []RewrittenLink
	Problems  []Problem
}

// Err joins all recorded problems, or returns nil if there were none.
func (r *Result) Err() error {
	if r == nil || len(r.Problems) == 0 {
		return nil
	}
	errs := make([]error, len(r.Problems))
	for i, p := range r.Problems {
		errs[i] = p
	}
	return errors.Join(errs...)
}

// HasProblem reports whether a problem of the given kind was recorded.
func (r *Result) HasProblem(kind ProblemKind) bool {
	for _, p := range r.Problems {
		if p.Kind == kind {
			return true
		}
	}
	return false
}

func (r *Result) merge(other *Result) {
	r.Copied = append(r.Copied, other.Copied...)
	r.Removed = append(r.Removed, other.Removed...)
	r.Rewritten = append(r.Rewritten, other.Rewritten...)
	r.Problems = append(r.Problems, other.Problems...)
}

// report records a problem; printing it is left to the caller.
func (r *Result) report(opts *Options, kind ProblemKind, path string, err error) {
	r.Problems = append(r.Problems, Problem{Kind: kind, Path: path, Err: err})
	opts.logDebug("problem recorded", "kind", string(kind), "path", path, "err", err)
}
