package errors

import "github.com/puppetlabs-toy-chest/puppetcpp-sub003/token"

// Handler is called by the lexer for non-fatal diagnostics that carry a
// position and a highlight length.
type Handler func(pos token.Pos, highlightLen int, msg string)

// Reporter accumulates warnings and errors across a compilation and
// decides whether the overall compilation must abort at the next safe
// boundary.
type Reporter struct {
	warnings int
	errors   int
	list     List
}

// Warningf records a warning-level diagnostic.
func (r *Reporter) Warningf(p token.Pos, format string, args ...interface{}) {
	r.warnings++
	r.list.Add(Newf(EvaluationError, p, format, args...))
}

// Errorf records an error-level diagnostic of the given kind.
func (r *Reporter) Errorf(kind Kind, p token.Pos, format string, args ...interface{}) {
	r.errors++
	r.list.Add(Newf(kind, p, format, args...))
}

// Add records a pre-built Error; every Error added here counts toward
// the error total, never the warning total.
func (r *Reporter) Add(err Error) {
	r.errors++
	r.list.Add(err)
}

// WarningCount returns the number of warnings recorded so far.
func (r *Reporter) WarningCount() int { return r.warnings }

// ErrorCount returns the number of errors recorded so far.
func (r *Reporter) ErrorCount() int { return r.errors }

// ShouldAbort reports whether a nonzero error count requires aborting
// compilation at the next safe boundary.
func (r *Reporter) ShouldAbort() bool { return r.errors > 0 }

// Errors returns the accumulated error list.
func (r *Reporter) Errors() List { return r.list }

// Err returns an error representing every diagnostic recorded, warnings
// included, or nil if nothing was recorded.
func (r *Reporter) Err() error { return r.list.Err() }
