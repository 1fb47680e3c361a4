package report

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"race-report/metrics"

	"github.com/rs/zerolog/log"
)

var (
	ErrMissingEnd    = errors.New("no end time for code")
	ErrMissingRoster = errors.New("no roster entry for code")
	ErrInvalidOrder  = errors.New("invalid order")
)

type Order string

const (
	Asc  Order = "asc"
	Desc Order = "desc"
)

// ParseOrder accepts "asc" or "desc"; an empty string means Asc.
func ParseOrder(s string) (Order, error) {
	switch o := Order(strings.ToLower(strings.TrimSpace(s))); o {
	case "":
		return Asc, nil
	case Asc, Desc:
		return o, nil
	}
	return "", fmt.Errorf("%w %q: supported orders are asc, desc", ErrInvalidOrder, s)
}

// Builder joins the start log, end log and roster found at the given paths.
// Files are read again on every Build.
type Builder struct {
	StartLog string
	EndLog   string
	Roster   string
}

func NewBuilder(startLog, endLog, roster string) *Builder {
	return &Builder{StartLog: startLog, EndLog: endLog, Roster: roster}
}

// Build returns entries ordered by elapsed time, shortest first for Asc and
// longest first for Desc.
func (b *Builder) Build(order Order) (*Report, error) {
	start := time.Now()
	rep, err := b.build(order)
	metrics.BuildDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.BuildsTotal.WithLabelValues("failure").Inc()
		return nil, err
	}
	metrics.BuildsTotal.WithLabelValues("success").Inc()
	log.Debug().Str("order", string(order)).Int("entries", rep.Len()).Dur("took", time.Since(start)).Msg("report: built")
	return rep, nil
}

func (b *Builder) build(order Order) (*Report, error) {
	if order != Asc && order != Desc {
		return nil, fmt.Errorf("%w %q", ErrInvalidOrder, order)
	}
	starts, err := b.readTimestamps(b.StartLog)
	if err != nil {
		return nil, err
	}
	ends, err := b.readTimestamps(b.EndLog)
	if err != nil {
		return nil, err
	}
	lines, err := ReadLines(b.Roster)
	if err != nil {
		return nil, err
	}
	return Join(starts, ends, ParseRoster(lines), order)
}

func (b *Builder) readTimestamps(path string) (map[Code]time.Time, error) {
	lines, err := ReadLines(path)
	if err != nil {
		return nil, err
	}
	ts, err := ParseTimestamps(lines)
	if err != nil {
		return nil, fmt.Errorf("parse %q: %w", path, err)
	}
	return ts, nil
}

// Join pairs start and end times per code and attaches roster data. A start
// later than its end is swapped rather than rejected. Entries whose formatted
// durations coincide collapse into one; the later entry in elapsed order wins
// and the report stays sorted by elapsed time.
func Join(starts, ends map[Code]time.Time, roster Roster, order Order) (*Report, error) {
	entries := make([]Entry, 0, len(starts))
	for code, st := range starts {
		end, ok := ends[code]
		if !ok {
			return nil, fmt.Errorf("%w %s", ErrMissingEnd, code)
		}
		r, ok := roster[code]
		if !ok {
			return nil, fmt.Errorf("%w %s", ErrMissingRoster, code)
		}
		if st.After(end) {
			st, end = end, st
		}
		elapsed := end.Sub(st)
		entries = append(entries, Entry{
			Time:    FormatElapsed(elapsed),
			Elapsed: elapsed,
			Code:    code,
			Name:    r.Name(),
			Team:    r.Team(),
			Extra:   r.Extra(),
		})
	}
	slices.SortFunc(entries, func(a, b Entry) int {
		if a.Elapsed != b.Elapsed {
			if a.Elapsed < b.Elapsed {
				return -1
			}
			return 1
		}
		return strings.Compare(string(a.Code), string(b.Code))
	})

	// FormatElapsed drops hours, so distinct durations can share a key. The
	// winner keeps its own sorted position.
	winners := make(map[string]Code, len(entries))
	for _, e := range entries {
		if prev, ok := winners[e.Time]; ok {
			metrics.DurationCollisions.Inc()
			log.Warn().Str("time", e.Time).Str("replaced", string(prev)).Str("by", string(e.Code)).Msg("report: duration key collision")
		}
		winners[e.Time] = e.Code
	}
	rep := New()
	for _, e := range entries {
		if winners[e.Time] == e.Code {
			rep.Put(e)
		}
	}
	if order == Desc {
		rep.Reverse()
	}
	return rep, nil
}

// FormatElapsed renders d as MM:SS.ffffff. Whole hours are dropped, so the
// minutes field wraps at 60.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = -d
	}
	m := (d / time.Minute) % 60
	s := (d / time.Second) % 60
	us := (d % time.Second) / time.Microsecond
	return fmt.Sprintf("%02d:%02d.%06d", m, s, us)
}

// ParseElapsed is the inverse of FormatElapsed for durations under an hour.
func ParseElapsed(s string) (time.Duration, error) {
	var m, sec, us int
	if _, err := fmt.Sscanf(s, "%d:%d.%d", &m, &sec, &us); err != nil {
		return 0, fmt.Errorf("parse elapsed %q: %w", s, err)
	}
	return time.Duration(m)*time.Minute + time.Duration(sec)*time.Second + time.Duration(us)*time.Microsecond, nil
}
