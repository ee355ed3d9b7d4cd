// Package catalog implements the resource catalog: a set of typed,
// titled resources carrying attributes and tags, connected by a
// directed multigraph of containment and ordering edges, finalized by a
// tri-color DFS cycle check over the non-containment subgraph. The
// graph-of-nodes design here is hand-rolled rather than built on
// ritamzico-pgraph (that example's generic graph library was judged too
// minimal — 103 lines, no cycle detection — to serve as a dependency;
// see DESIGN.md).
package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
)

// EdgeKind identifies the relationship a directed edge represents.
type EdgeKind int

const (
	// Contains is the implicit edge from a class/defined-type/node body
	// to each resource it declares.
	Contains EdgeKind = iota
	// Before is an explicit `a -> b` ordering edge.
	Before
	// Notify is an explicit `a ~> b` ordering-plus-refresh edge.
	Notify
	// Require is the reverse spelling of Before (`require => Resource[...]`
	// or `b <- a`).
	Require
	// Subscribe is the reverse spelling of Notify (`subscribe => ...` or
	// `b <~ a`).
	Subscribe
)

func (k EdgeKind) String() string {
	switch k {
	case Contains:
		return "contains"
	case Before:
		return "before"
	case Notify:
		return "notify"
	case Require:
		return "require"
	case Subscribe:
		return "subscribe"
	default:
		return "edge"
	}
}

// Key uniquely identifies a resource by its normalized type name and
// title, e.g. {"File", "/etc/motd"}.
type Key struct {
	Type  string
	Title string
}

func (k Key) String() string { return fmt.Sprintf("%s[%s]", k.Type, k.Title) }

// TitleCase normalizes a resource type name to its canonical form: each
// "::"-separated segment capitalized, e.g. "apache::vhost" -> "Apache::Vhost".
func TitleCase(name string) string {
	segs := strings.Split(name, "::")
	for i, s := range segs {
		if s == "" {
			continue
		}
		segs[i] = strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
	}
	return strings.Join(segs, "::")
}

// Attribute is one resolved resource attribute.
type Attribute struct {
	Name  string
	Value values.Value
}

// Resource is a fully-evaluated catalog entry.
type Resource struct {
	Key       Key
	Exported  bool
	Virtual   bool
	Tags      []string
	Attrs     []Attribute
	Container Key // zero Key for resources declared at the top level
}

// Attr returns the value of the named attribute and whether it is set.
func (r *Resource) Attr(name string) (values.Value, bool) {
	for _, a := range r.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// SetAttr sets or replaces the named attribute.
func (r *Resource) SetAttr(name string, v values.Value) {
	for i, a := range r.Attrs {
		if a.Name == name {
			r.Attrs[i].Value = v
			return
		}
	}
	r.Attrs = append(r.Attrs, Attribute{Name: name, Value: v})
}

// edge is one directed arc of the catalog graph.
type edge struct {
	From, To Key
	Kind     EdgeKind
}

// Catalog is the resource set plus relationship graph produced by
// compiling a manifest.
type Catalog struct {
	resources map[Key]*Resource
	order     []Key // insertion order, for deterministic iteration
	edges     []edge
}

// New returns an empty Catalog.
func New() *Catalog {
	return &Catalog{resources: map[Key]*Resource{}}
}

// AddResource registers r and reports true, or reports false (leaving
// the catalog unchanged) if a resource with the same Key already exists.
// Turning a false result into a diagnostic is the caller's
// responsibility, since only it has position information to attach.
func (c *Catalog) AddResource(r *Resource) bool {
	if _, exists := c.resources[r.Key]; exists {
		return false
	}
	c.resources[r.Key] = r
	c.order = append(c.order, r.Key)
	return true
}

// Resource looks up a resource by key.
func (c *Catalog) Resource(k Key) (*Resource, bool) {
	r, ok := c.resources[k]
	return r, ok
}

// Resources returns every resource in insertion order.
func (c *Catalog) Resources() []*Resource {
	out := make([]*Resource, len(c.order))
	for i, k := range c.order {
		out[i] = c.resources[k]
	}
	return out
}

// AddEdge records a directed relationship edge between two existing
// resource keys.
func (c *Catalog) AddEdge(from, to Key, kind EdgeKind) {
	c.edges = append(c.edges, edge{From: from, To: to, Kind: kind})
}

// Edges returns every recorded edge.
func (c *Catalog) Edges() []struct {
	From, To Key
	Kind     EdgeKind
} {
	out := make([]struct {
		From, To Key
		Kind     EdgeKind
	}, len(c.edges))
	for i, e := range c.edges {
		out[i] = struct {
			From, To Key
			Kind     EdgeKind
		}{e.From, e.To, e.Kind}
	}
	return out
}

// color is a tri-color DFS marker used by DetectCycle.
type color int

const (
	white color = iota
	gray
	black
)

// DetectCycle runs a tri-color depth-first search over the non-Contains
// subgraph (Before/Notify/Require/Subscribe edges, normalized to a
// forward direction) and returns the first cycle found as a slice of
// keys forming the cycle (first == last), or nil if the graph is
// acyclic. Containment edges are excluded because a class legitimately
// "contains" resources that also order against siblings without that
// being a dependency cycle.
func (c *Catalog) DetectCycle() []Key {
	adj := map[Key][]Key{}
	for _, e := range c.edges {
		switch e.Kind {
		case Before, Notify:
			adj[e.From] = append(adj[e.From], e.To)
		case Require, Subscribe:
			adj[e.To] = append(adj[e.To], e.From)
		}
	}
	for k := range adj {
		sort.Slice(adj[k], func(i, j int) bool { return adj[k][i].String() < adj[k][j].String() })
	}

	colors := map[Key]color{}
	var path []Key
	var cycle []Key

	var visit func(k Key) bool
	visit = func(k Key) bool {
		colors[k] = gray
		path = append(path, k)
		for _, n := range adj[k] {
			switch colors[n] {
			case gray:
				// Found the back edge; extract the cycle from path.
				idx := len(path) - 1
				for path[idx] != n {
					idx--
				}
				cycle = append([]Key(nil), path[idx:]...)
				cycle = append(cycle, n)
				return true
			case white:
				if visit(n) {
					return true
				}
			}
		}
		path = path[:len(path)-1]
		colors[k] = black
		return false
	}

	keys := make([]Key, 0, len(c.resources))
	for k := range c.resources {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })

	for _, k := range keys {
		if colors[k] == white {
			if visit(k) {
				return cycle
			}
		}
	}
	return nil
}

// Finalize performs the structural part of catalog finalization: it
// checks for relationship cycles and returns the detected cycle (nil if
// none). It realizes nothing; collector realization is driven by the
// caller before Finalize is called.
func (c *Catalog) Finalize() []Key {
	return c.DetectCycle()
}
