// Package funcs holds pure helper logic for core library functions that
// need no access to an Evaluator, Scope, Catalog, or Registry — only
// their argument values. Functions that do need that deep access (e.g.
// include/realize/tag) live directly in package eval instead; funcs is
// what eval's builtins call into for the Evaluator-independent part of
// their work.
package funcs

import (
	"errors"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var errNotNumeric = errors.New("not a numeric version component")

// VersionCmp compares two version strings, grounded on holomush-holomush's
// use of Masterminds/semver for update-channel comparisons. Puppet's
// versioncmp accepts loosely-formed version strings (not just strict
// semver), so a parse failure on either side falls back to a
// component-wise numeric/lexicographic comparison rather than erroring.
func VersionCmp(a, b string) int {
	va, errA := semver.NewVersion(a)
	vb, errB := semver.NewVersion(b)
	if errA == nil && errB == nil {
		return va.Compare(vb)
	}
	return compareLoose(a, b)
}

func compareLoose(a, b string) int {
	as := splitVersionParts(a)
	bs := splitVersionParts(b)
	for i := 0; i < len(as) || i < len(bs); i++ {
		var pa, pb string
		if i < len(as) {
			pa = as[i]
		}
		if i < len(bs) {
			pb = bs[i]
		}
		if pa == pb {
			continue
		}
		na, errA := toInt(pa)
		nb, errB := toInt(pb)
		if errA == nil && errB == nil {
			switch {
			case na < nb:
				return -1
			case na > nb:
				return 1
			}
			continue
		}
		if pa < pb {
			return -1
		}
		return 1
	}
	return 0
}

func splitVersionParts(v string) []string {
	v = strings.TrimPrefix(v, "v")
	return strings.FieldsFunc(v, func(r rune) bool {
		return r == '.' || r == '-' || r == '+'
	})
}

func toInt(s string) (int, error) {
	if s == "" {
		return 0, errNotNumeric
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, errNotNumeric
		}
		n = n*10 + int(r-'0')
	}
	return n, nil
}

// Split divides s on the given Puppet-style separator, which is either a
// plain substring or a /regex/-delimited pattern.
func Split(s, sep string) []string {
	if len(sep) >= 2 && strings.HasPrefix(sep, "/") && strings.HasSuffix(sep, "/") {
		pattern := sep[1 : len(sep)-1]
		return regexSplit(s, pattern)
	}
	if sep == "" {
		out := make([]string, 0, len(s))
		for _, r := range s {
			out = append(out, string(r))
		}
		return out
	}
	return strings.Split(s, sep)
}

func regexSplit(s, pattern string) []string {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return []string{s}
	}
	return re.Split(s, -1)
}
