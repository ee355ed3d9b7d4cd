// Copyright 2018 The CUE Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors defines the shared error taxonomy for the Puppet catalog
// compiler core: lex, parse, type-conversion, evaluation, and cycle errors,
// all implementing the common Error interface so they can be sorted,
// deduplicated, and printed uniformly.
package errors

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/token"
)

// Kind classifies an Error into one of a small flat set of categories.
type Kind int

const (
	LexError Kind = iota
	ParseError
	TypeConversionError
	EvaluationError
	CycleError
)

func (k Kind) String() string {
	switch k {
	case LexError:
		return "lex error"
	case ParseError:
		return "parse error"
	case TypeConversionError:
		return "type conversion error"
	case EvaluationError:
		return "evaluation error"
	case CycleError:
		return "cycle error"
	default:
		return "error"
	}
}

// Message holds a deferred printf-style format and its arguments, so
// localization or structured rendering can happen after construction.
type Message struct {
	format string
	args   []interface{}
}

// NewMessagef creates a deferred error message.
func NewMessagef(format string, args ...interface{}) Message {
	return Message{format: format, args: args}
}

// Msg returns the format string and arguments.
func (m *Message) Msg() (string, []interface{}) { return m.format, m.args }

func (m *Message) Error() string { return fmt.Sprintf(m.format, m.args...) }

// Error is the common interface implemented by every error this package
// constructs.
type Error interface {
	error
	Kind() Kind
	Position() token.Pos
	InputPositions() []token.Pos
	Msg() (format string, args []interface{})
	// Frames returns the call-frame stack active when the error was
	// constructed, innermost first.
	Frames() []string
}

var _ Error = &baseError{}

type baseError struct {
	kind   Kind
	pos    token.Pos
	frames []string
	Message
}

func (e *baseError) Kind() Kind                    { return e.kind }
func (e *baseError) Position() token.Pos           { return e.pos }
func (e *baseError) InputPositions() []token.Pos   { return nil }
func (e *baseError) Frames() []string              { return e.frames }

// Newf creates an Error of the given kind at position p.
func Newf(kind Kind, p token.Pos, format string, args ...interface{}) Error {
	return &baseError{kind: kind, pos: p, Message: NewMessagef(format, args...)}
}

// NewfFrames creates an Error of the given kind at position p, attaching
// the given call-frame names (innermost first).
func NewfFrames(kind Kind, p token.Pos, frames []string, format string, args ...interface{}) Error {
	return &baseError{kind: kind, pos: p, frames: append([]string(nil), frames...), Message: NewMessagef(format, args...)}
}

// Wrap attaches a subordinate error to parent; the resulting error reports
// parent's message followed by child's.
func Wrap(parent Error, child error) Error {
	if child == nil {
		return parent
	}
	return &wrapped{parent, child}
}

type wrapped struct {
	main Error
	wrap error
}

func (e *wrapped) Error() string {
	msg := e.main.Error()
	if e.wrap == nil {
		return msg
	}
	if msg == "" {
		return e.wrap.Error()
	}
	return fmt.Sprintf("%s: %s", msg, e.wrap)
}

func (e *wrapped) Kind() Kind                  { return e.main.Kind() }
func (e *wrapped) Position() token.Pos         { return e.main.Position() }
func (e *wrapped) Frames() []string            { return e.main.Frames() }
func (e *wrapped) Msg() (string, []interface{}) { return e.main.Msg() }
func (e *wrapped) Unwrap() error               { return e.wrap }

func (e *wrapped) InputPositions() []token.Pos {
	out := append([]token.Pos(nil), e.main.InputPositions()...)
	if we, ok := e.wrap.(Error); ok {
		if p := we.Position(); p.IsValid() {
			out = append(out, p)
		}
		out = append(out, we.InputPositions()...)
	}
	return out
}

// Is reports whether err's chain contains target.
func Is(err, target error) bool { return errors.Is(err, target) }

// As finds the first error in err's chain assignable to target.
func As(err error, target interface{}) bool { return errors.As(err, target) }

// List is an aggregate of Errors, printed and sorted as a unit.
type List []Error

// Add appends err to the list.
func (l *List) Add(err Error) { *l = append(*l, err) }

// AddNewf appends a new Error constructed from the given kind/position/message.
func (l *List) AddNewf(kind Kind, p token.Pos, format string, args ...interface{}) {
	l.Add(Newf(kind, p, format, args...))
}

// Err returns an error equivalent to l, or nil if l is empty.
func (l List) Err() error {
	if len(l) == 0 {
		return nil
	}
	return l
}

func (l List) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	default:
		return fmt.Sprintf("%s (and %d more errors)", l[0].Error(), len(l)-1)
	}
}

func (l List) Kind() Kind { return l.first().Kind() }
func (l List) Position() token.Pos { return l.first().Position() }
func (l List) Frames() []string    { return l.first().Frames() }
func (l List) Msg() (string, []interface{}) { return l.first().Msg() }
func (l List) InputPositions() []token.Pos  { return l.first().InputPositions() }

func (l List) first() Error {
	if len(l) == 0 {
		return &baseError{}
	}
	return l[0]
}

// Sort orders the list by position, then message.
func (l List) Sort() {
	sort.SliceStable(l, func(i, j int) bool {
		if c := comparePos(l[i].Position(), l[j].Position()); c != 0 {
			return c < 0
		}
		return l[i].Error() < l[j].Error()
	})
}

func comparePos(a, b token.Pos) int {
	switch {
	case a == b:
		return 0
	case !a.IsValid():
		return -1
	case !b.IsValid():
		return +1
	default:
		return a.Compare(b)
	}
}

// RemoveMultiples sorts the list and drops duplicate errors that share a
// position.
func (l *List) RemoveMultiples() {
	l.Sort()
	out := (*l)[:0]
	var lastPos token.Pos
	first := true
	for _, e := range *l {
		if !first && e.Position() == lastPos && e.Position().IsValid() {
			continue
		}
		out = append(out, e)
		lastPos = e.Position()
		first = false
	}
	*l = out
}

// Print writes every error in l, one per line, with position information.
func Print(w io.Writer, err error) {
	for _, e := range Errors(err) {
		printOne(w, e)
	}
}

// Errors flattens err into its constituent Errors, promoting plain errors.
func Errors(err error) []Error {
	if err == nil {
		return nil
	}
	if l, ok := err.(List); ok {
		return l
	}
	if e, ok := err.(Error); ok {
		return []Error{e}
	}
	return []Error{&baseError{Message: NewMessagef("%s", err.Error())}}
}

func printOne(w io.Writer, e Error) {
	pos := e.Position()
	if pos.IsValid() {
		fmt.Fprintf(w, "%s: %s: %s\n", pos, e.Kind(), e.Error())
	} else {
		fmt.Fprintf(w, "%s: %s\n", e.Kind(), e.Error())
	}
	for _, f := range e.Frames() {
		fmt.Fprintf(w, "    while evaluating %s\n", f)
	}
}

// Details renders err via Print into a string.
func Details(err error) string {
	var b strings.Builder
	Print(&b, err)
	return b.String()
}
