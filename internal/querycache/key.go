package querycache

import "strings"

// Key identifies one cached read, e.g. {"/patient/_search", "page=2&q=Doe"}.
// Keys match element-wise, so {"/patient/_search"} is a prefix of the key
// above but not of {"/patient/_search_by_ssn", ...}.
type Key []string

// HasPrefix reports whether prefix matches the leading elements of k. An
// empty prefix matches every key.
func (k Key) HasPrefix(prefix Key) bool {
	if len(prefix) > len(k) {
		return false
	}
	for i := range prefix {
		if k[i] != prefix[i] {
			return false
		}
	}
	return true
}

func (k Key) String() string {
	return strings.Join(k, " ")
}

func (k Key) id() string {
	return strings.Join(k, "\x1f")
}
