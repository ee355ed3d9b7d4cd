package eval

import "regexp"

// regexMatches reports whether hostname matches the given Puppet node
// regex pattern (written without surrounding slashes).
func regexMatches(pattern, hostname string) bool {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(hostname)
}
