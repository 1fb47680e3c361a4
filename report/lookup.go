package report

import "slices"

// Lookup returns the entries whose participant tuple contains value exactly,
// for example a code or a full name. No match yields an empty report.
func Lookup(rep *Report, value string) *Report {
	out := New()
	if rep == nil {
		return out
	}
	for _, e := range rep.entries {
		if slices.Contains(e.Values(), value) {
			out.Put(e)
		}
	}
	return out
}
