package report

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TimestampLayout matches lines such as SVF2018-05-24_12:02:58.917 once the
// code prefix is cut off.
const TimestampLayout = "2006-01-02_15:04:05.999999"

const codeLen = 3

// time.Parse treats the fraction as optional and accepts a comma separator;
// log lines must carry a dot and at least one fractional digit.
var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}_\d{2}:\d{2}:\d{2}\.\d{1,9}$`)

// Code identifies a participant across both logs and the roster.
type Code string

// ParseError reports a log line that does not match the expected layout.
type ParseError struct {
	Line int
	Text string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d %q: %v", e.Line, e.Text, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// ParseTimestamps maps each code to its timestamp. Parsing stops at the
// first empty line; a repeated code keeps its last timestamp.
func ParseTimestamps(lines []string) (map[Code]time.Time, error) {
	out := make(map[Code]time.Time, len(lines))
	for i, line := range lines {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			break
		}
		runes := []rune(line)
		if len(runes) < codeLen {
			return nil, &ParseError{Line: i + 1, Text: line, Err: fmt.Errorf("shorter than %d-character code", codeLen)}
		}
		code := Code(strings.TrimSpace(string(runes[:codeLen])))
		raw := strings.TrimSpace(string(runes[codeLen:]))
		if !timestampPattern.MatchString(raw) {
			return nil, &ParseError{Line: i + 1, Text: line, Err: fmt.Errorf("timestamp %q does not match %s", raw, TimestampLayout)}
		}
		ts, err := time.Parse(TimestampLayout, raw)
		if err != nil {
			return nil, &ParseError{Line: i + 1, Text: line, Err: err}
		}
		out[code] = ts
	}
	return out, nil
}

// RosterEntry holds the fields following the code on a roster line.
type RosterEntry struct {
	Fields []string
}

// Name is empty when the roster line had no fields after the code.
func (r RosterEntry) Name() string { return r.field(0) }

func (r RosterEntry) Team() string { return r.field(1) }

// Extra returns any fields beyond name and team.
func (r RosterEntry) Extra() []string {
	if len(r.Fields) <= 2 {
		return nil
	}
	return r.Fields[2:]
}

func (r RosterEntry) field(i int) string {
	if i < len(r.Fields) {
		return r.Fields[i]
	}
	return ""
}

type Roster map[Code]RosterEntry

// ParseRoster reads CODE_Name_Team lines up to the first empty line. A line
// without an underscore produces an entry with no fields.
func ParseRoster(lines []string) Roster {
	out := make(Roster, len(lines))
	for _, line := range lines {
		if strings.TrimRight(line, "\r") == "" {
			break
		}
		parts := strings.Split(strings.TrimSpace(line), "_")
		out[Code(parts[0])] = RosterEntry{Fields: parts[1:]}
	}
	return out
}
