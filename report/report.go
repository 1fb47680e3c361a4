package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// Entry is one participant's line in a report.
type Entry struct {
	Time    string
	Elapsed time.Duration
	Code    Code
	Name    string
	Team    string
	Extra   []string
}

// Values is the participant tuple: code, name, team, then any extra roster fields.
func (e Entry) Values() []string {
	v := make([]string, 0, 3+len(e.Extra))
	v = append(v, string(e.Code), e.Name, e.Team)
	return append(v, e.Extra...)
}

// Report is an ordered mapping from formatted duration to participant.
// Putting an existing key replaces the value at its original position.
type Report struct {
	entries []Entry
	index   map[string]int
}

func New() *Report {
	return &Report{index: make(map[string]int)}
}

// Put adds e under e.Time and reports whether an entry was replaced.
func (r *Report) Put(e Entry) bool {
	if r.index == nil {
		r.index = make(map[string]int)
	}
	if i, ok := r.index[e.Time]; ok {
		r.entries[i] = e
		return true
	}
	r.index[e.Time] = len(r.entries)
	r.entries = append(r.entries, e)
	return false
}

func (r *Report) Get(key string) (Entry, bool) {
	i, ok := r.index[key]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

func (r *Report) Len() int { return len(r.entries) }

// Entries returns a copy of the entries in report order.
func (r *Report) Entries() []Entry {
	return slices.Clone(r.entries)
}

func (r *Report) Keys() []string {
	keys := make([]string, len(r.entries))
	for i, e := range r.entries {
		keys[i] = e.Time
	}
	return keys
}

// Reverse flips the report order in place.
func (r *Report) Reverse() {
	slices.Reverse(r.entries)
	for i, e := range r.entries {
		r.index[e.Time] = i
	}
}

// MarshalJSON writes the report as a single object whose keys keep report
// order: {"00:41.761000": ["SVF", "Sebastian", "FERRARI"]}.
func (r *Report) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range r.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(e.Time)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(e.Values())
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *Report) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("report: expected object, got %v", tok)
	}
	out := New()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, _ := tok.(string)
		var values []string
		if err := dec.Decode(&values); err != nil {
			return fmt.Errorf("report: entry %q: %w", key, err)
		}
		out.Put(EntryFromValues(key, values))
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*r = *out
	return nil
}

// EntryFromValues rebuilds an entry from its key and participant tuple.
func EntryFromValues(key string, values []string) Entry {
	e := Entry{Time: key}
	e.Elapsed, _ = ParseElapsed(key)
	get := func(i int) string {
		if i < len(values) {
			return values[i]
		}
		return ""
	}
	e.Code = Code(get(0))
	e.Name = get(1)
	e.Team = get(2)
	if len(values) > 3 {
		e.Extra = values[3:]
	}
	return e
}
