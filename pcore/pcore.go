// Package pcore is the embedder-facing facade for the Puppet catalog
// compiler core, analogous to cue-lang-cue's cuecontext package: one
// obvious entry point (Compile) wiring the lexer, parser, and evaluator
// together with the external collaborators a catalog compile needs
// (FactProvider, Logger, Finder).
package pcore

import (
	"github.com/google/uuid"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/ast"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/catalog"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/eval"
	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/parser"
)

// Option configures a compilation, following cuecontext.Option's
// functional-option shape.
type Option struct {
	apply func(*settings)
}

type settings struct {
	facts    eval.FactProvider
	logger   eval.Logger
	finder   eval.Finder
	hostname string
}

// WithFacts supplies the fact provider consulted by the top scope.
func WithFacts(f eval.FactProvider) Option {
	return Option{func(s *settings) { s.facts = f }}
}

// WithLogger supplies the sink for notice/warning/alert/... messages.
func WithLogger(l eval.Logger) Option {
	return Option{func(s *settings) { s.logger = l }}
}

// WithFinder supplies the on-disk resolver used to autoload classes,
// defined types, and functions not present in the initial source set.
func WithFinder(f eval.Finder) Option {
	return Option{func(s *settings) { s.finder = f }}
}

// WithNode sets the hostname used to select a node definition.
func WithNode(hostname string) Option {
	return Option{func(s *settings) { s.hostname = hostname }}
}

// Source is one manifest to compile: Filename is used for diagnostics
// only. Compile does not read files — embedders supply Text directly,
// even when it is empty, or a Finder resolves further manifests on demand.
type Source struct {
	Filename string
	Text     []byte
}

// SessionID is a per-compilation correlation id, generated fresh by
// Compile and returned in Result; it is not attached to diagnostics, and
// log formatting itself is left to the embedder.
type SessionID = uuid.UUID

// Result is the outcome of a Compile call: the populated catalog (valid
// even on error — callers that want the partial result on failure keep
// Result.Catalog explicitly rather than discarding it) plus the session
// id generated for this run.
type Result struct {
	Catalog   *catalog.Catalog
	SessionID SessionID
}

// Compile registers every source after the first for its class/defined-
// type/node declarations, then parses and runs the first source as the
// entry-point manifest (conventionally site.pp: its top-level statements
// run against the top scope before any node body does), and finalizes
// the resulting catalog by checking it for dependency cycles.
func Compile(sources []Source, opts ...Option) (Result, error) {
	s := &settings{}
	for _, o := range opts {
		o.apply(s)
	}

	sid := uuid.New()
	e := eval.NewEvaluator(s.facts, s.logger, s.finder)

	if len(sources) == 0 {
		cat, err := e.Run(&ast.Program{}, s.hostname)
		return Result{Catalog: cat, SessionID: sid}, err
	}

	for _, src := range sources[1:] {
		if err := e.Compile(parser.ParseFile, src.Filename, src.Text); err != nil {
			return Result{Catalog: e.Catalog, SessionID: sid}, err
		}
	}

	entry := sources[0]
	prog, parseErr := parser.ParseFile(entry.Filename, entry.Text)
	if prog == nil {
		return Result{Catalog: e.Catalog, SessionID: sid}, parseErr
	}

	cat, err := e.Run(prog, s.hostname)
	if err == nil {
		err = parseErr
	}
	return Result{Catalog: cat, SessionID: sid}, err
}
