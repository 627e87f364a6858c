package service

import (
	"sort"
	"strings"
)

// Names is a list of tag names as given by a caller.
//
// A nil Names means "not specified" and an empty non-nil Names means "none";
// Untag treats the first as every tag and the second as a no-op.
type Names []string

// ParseNames splits a comma-separated string into names. The result is never
// nil, so ParseNames("") is an empty list rather than "not specified".
func ParseNames(s string) Names {
	return Names(strings.Split(s, ",")).clean()
}

// NamesOf returns the members of a set as Names, sorted for a stable order.
func NamesOf(set map[string]struct{}) Names {
	out := make(Names, 0, len(set))
	for n := range set {
		out = append(out, n)
	}
	sort.Strings(out)
	return out.clean()
}

// clean trims every name and drops the ones left empty. Nil stays nil.
func (n Names) clean() Names {
	if n == nil {
		return nil
	}
	out := make(Names, 0, len(n))
	for _, name := range n {
		if t := strings.TrimSpace(name); t != "" {
			out = append(out, t)
		}
	}
	return out
}
