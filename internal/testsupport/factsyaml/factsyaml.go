// Package factsyaml is a test-support FactProvider (eval.FactProvider)
// built from a YAML fixture: Fact returns one fact by name and Facts
// returns a copy of every loaded fact, without making YAML ingestion a
// shipped pipeline stage. Grounded on awsqed-config-formatter's and
// cue-lang-cue's use of gopkg.in/yaml.v3 for decoding into generic maps,
// adapted here to decode into the core's values.Value tagged variant
// instead of a formatter-specific tree.
package factsyaml

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/puppetlabs-toy-chest/puppetcpp-sub003/internal/core/values"
)

// Provider is an eval.FactProvider backed by an in-memory fact set
// decoded from YAML.
type Provider struct {
	facts map[string]values.Value
}

// Load decodes src (a YAML mapping of fact name to fact value) into a
// Provider. Nested maps/sequences/scalars are converted to the
// corresponding values.Value variant (Hash/Array/String/Integer/
// Float/Bool/Undef).
func Load(src []byte) (*Provider, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(src, &raw); err != nil {
		return nil, fmt.Errorf("factsyaml: %w", err)
	}
	facts := make(map[string]values.Value, len(raw))
	for k, v := range raw {
		facts[k] = fromYAML(v)
	}
	return &Provider{facts: facts}, nil
}

// fromYAML converts a value produced by yaml.v3's default decoding
// (map[string]interface{}, []interface{}, string, int, float64, bool,
// nil) into the core's runtime Value representation.
func fromYAML(v interface{}) values.Value {
	switch x := v.(type) {
	case nil:
		return values.Undef{}
	case bool:
		return values.Bool(x)
	case int:
		return values.Integer(int64(x))
	case int64:
		return values.Integer(x)
	case float64:
		return values.Float(x)
	case string:
		return values.String(x)
	case map[string]interface{}:
		pairs := make([]values.HashPair, 0, len(x))
		for k, val := range x {
			pairs = append(pairs, values.HashPair{Key: values.String(k), Value: fromYAML(val)})
		}
		return values.NewHash(pairs...)
	case []interface{}:
		elems := make([]values.Value, len(x))
		for i, el := range x {
			elems[i] = fromYAML(el)
		}
		return values.NewArray(elems...)
	default:
		return values.String(fmt.Sprintf("%v", x))
	}
}

// Fact implements eval.FactProvider.
func (p *Provider) Fact(name string) (values.Value, bool) {
	v, ok := p.facts[name]
	return v, ok
}

// Facts implements eval.FactProvider, returning every loaded fact.
func (p *Provider) Facts() map[string]values.Value {
	out := make(map[string]values.Value, len(p.facts))
	for k, v := range p.facts {
		out[k] = v
	}
	return out
}
