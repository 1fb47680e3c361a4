package report

import (
	"encoding/json"
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"

	"race-report/metrics"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	startLog = "SVF2018-05-24_12:02:58.917\nNHR2018-05-24_12:02:49.914\nFAM2018-05-24_12:13:04.512\n"
	endLog   = "SVF2018-05-24_12:04:03.332\nNHR2018-05-24_12:04:02.979\nFAM2018-05-24_12:14:17.169\n"
	roster   = "SVF_Sebastian Vettel_FERRARI\nNHR_Nico Hulkenberg_RENAULT\nFAM_Fernando Alonso_MCLAREN RENAULT\n"
)

func newTestBuilder(t *testing.T, start, end, abbr string) *Builder {
	t.Helper()
	dir := t.TempDir()
	return NewBuilder(
		writeFile(t, dir, "start.log", start),
		writeFile(t, dir, "end.log", end),
		writeFile(t, dir, "abbreviations.txt", abbr),
	)
}

func TestBuild_SingleRacer(t *testing.T) {
	b := newTestBuilder(t, "SVF2018-05-24_12:02:58.917", "SVF2018-05-24_12:03:40.678", "SVF_Sebastian_FERRARI")
	rep, err := b.Build(Asc)
	require.NoError(t, err)

	require.Equal(t, 1, rep.Len())
	e, ok := rep.Get("00:41.761000")
	require.True(t, ok, "keys=%#v", rep.Keys())
	assert.Equal(t, []string{"SVF", "Sebastian", "FERRARI"}, e.Values())
	assert.Equal(t, 41761*time.Millisecond, e.Elapsed)
}

func TestBuild_Order(t *testing.T) {
	b := newTestBuilder(t, startLog, endLog, roster)

	asc, err := b.Build(Asc)
	require.NoError(t, err)
	desc, err := b.Build(Desc)
	require.NoError(t, err)

	assert.Equal(t, []string{"01:04.415000", "01:12.657000", "01:13.065000"}, asc.Keys())
	assert.ElementsMatch(t, asc.Entries(), desc.Entries())

	reversed := asc.Keys()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	assert.Equal(t, reversed, desc.Keys())
}

func TestBuild_OrderEvenCount(t *testing.T) {
	b := newTestBuilder(t,
		"SVF2018-05-24_12:02:58.917\nNHR2018-05-24_12:02:49.914\n",
		"SVF2018-05-24_12:04:03.332\nNHR2018-05-24_12:04:02.979\n",
		roster)
	desc, err := b.Build(Desc)
	require.NoError(t, err)
	assert.Equal(t, []string{"01:13.065000", "01:04.415000"}, desc.Keys())
}

func TestBuild_SwapIsSymmetric(t *testing.T) {
	ordered := newTestBuilder(t, "SVF2018-05-24_12:02:58.917", "SVF2018-05-24_12:03:40.678", "SVF_Sebastian_FERRARI")
	swapped := newTestBuilder(t, "SVF2018-05-24_12:03:40.678", "SVF2018-05-24_12:02:58.917", "SVF_Sebastian_FERRARI")

	a, err := ordered.Build(Asc)
	require.NoError(t, err)
	b, err := swapped.Build(Asc)
	require.NoError(t, err)
	assert.Equal(t, a.Entries(), b.Entries())
}

func TestBuild_Errors(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		abbr    string
		order   Order
		wantErr error
	}{
		{"missing end", startLog, "SVF2018-05-24_12:04:03.332\n", roster, Asc, ErrMissingEnd},
		{"missing roster", startLog, endLog, "SVF_Sebastian Vettel_FERRARI\n", Asc, ErrMissingRoster},
		{"invalid order", startLog, endLog, roster, Order("sideways"), ErrInvalidOrder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newTestBuilder(t, tt.start, tt.end, tt.abbr)
			_, err := b.Build(tt.order)
			assert.True(t, errors.Is(err, tt.wantErr), "err=%#v", err)
		})
	}
}

func TestBuild_MalformedTimestamp(t *testing.T) {
	b := newTestBuilder(t, "SVF2018/05/24 12:02:58", endLog, roster)
	_, err := b.Build(Asc)
	var pe *ParseError
	assert.True(t, errors.As(err, &pe), "err=%#v", err)
}

func TestBuild_MissingFile(t *testing.T) {
	b := newTestBuilder(t, startLog, endLog, roster)
	b.Roster = filepath.Join(t.TempDir(), "missing.txt")
	before := testutil.ToFloat64(metrics.BuildsTotal.WithLabelValues("failure"))

	_, err := b.Build(Asc)
	assert.True(t, errors.Is(err, fs.ErrNotExist), "err=%#v", err)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.BuildsTotal.WithLabelValues("failure")))
}

func TestBuild_RereadsFiles(t *testing.T) {
	dir := t.TempDir()
	b := NewBuilder(
		writeFile(t, dir, "start.log", "SVF2018-05-24_12:02:58.917"),
		writeFile(t, dir, "end.log", "SVF2018-05-24_12:03:40.678"),
		writeFile(t, dir, "abbreviations.txt", "SVF_Sebastian_FERRARI"),
	)
	first, err := b.Build(Asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"00:41.761000"}, first.Keys())

	writeFile(t, dir, "end.log", "SVF2018-05-24_12:03:50.678")
	second, err := b.Build(Asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"00:51.761000"}, second.Keys())
}

func TestJoin_CollisionKeepsLast(t *testing.T) {
	base := time.Date(2018, 5, 24, 12, 0, 0, 0, time.UTC)
	starts := map[Code]time.Time{"AAA": base, "BBB": base, "CCC": base}
	ends := map[Code]time.Time{
		"AAA": base.Add(61 * time.Second),
		"BBB": base.Add(61 * time.Second),
		"CCC": base.Add(70 * time.Second),
	}
	r := Roster{
		"AAA": {Fields: []string{"Alpha", "A"}},
		"BBB": {Fields: []string{"Bravo", "B"}},
		"CCC": {Fields: []string{"Charlie", "C"}},
	}
	before := testutil.ToFloat64(metrics.DurationCollisions)

	rep, err := Join(starts, ends, r, Asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"01:01.000000", "01:10.000000"}, rep.Keys())
	e, _ := rep.Get("01:01.000000")
	assert.Equal(t, Code("BBB"), e.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DurationCollisions))
}

func TestJoin_HourWrapCollisionStaysSorted(t *testing.T) {
	base := time.Date(2018, 5, 24, 12, 0, 0, 0, time.UTC)
	starts := map[Code]time.Time{"AAA": base, "BBB": base, "CCC": base}
	ends := map[Code]time.Time{
		"AAA": base.Add(41 * time.Second),
		"BBB": base.Add(50 * time.Second),
		"CCC": base.Add(time.Hour + 41*time.Second),
	}
	r := Roster{
		"AAA": {Fields: []string{"Alpha", "A"}},
		"BBB": {Fields: []string{"Bravo", "B"}},
		"CCC": {Fields: []string{"Charlie", "C"}},
	}
	before := testutil.ToFloat64(metrics.DurationCollisions)

	asc, err := Join(starts, ends, r, Asc)
	require.NoError(t, err)
	assert.Equal(t, []string{"00:50.000000", "00:41.000000"}, asc.Keys())
	e, _ := asc.Get("00:41.000000")
	assert.Equal(t, Code("CCC"), e.Code)
	assert.Equal(t, time.Hour+41*time.Second, e.Elapsed)
	assert.Equal(t, before+1, testutil.ToFloat64(metrics.DurationCollisions))

	desc, err := Join(starts, ends, r, Desc)
	require.NoError(t, err)
	assert.Equal(t, []string{"00:41.000000", "00:50.000000"}, desc.Keys())
}

func TestJoin_RosterWithoutFields(t *testing.T) {
	base := time.Date(2018, 5, 24, 12, 0, 0, 0, time.UTC)
	rep, err := Join(
		map[Code]time.Time{"XYZ": base},
		map[Code]time.Time{"XYZ": base.Add(time.Second)},
		Roster{"XYZ": {Fields: []string{}}},
		Asc,
	)
	require.NoError(t, err)
	e, ok := rep.Get("00:01.000000")
	require.True(t, ok)
	assert.Equal(t, []string{"XYZ", "", ""}, e.Values())
}

func TestParseOrder(t *testing.T) {
	tests := []struct {
		in      string
		want    Order
		wantErr bool
	}{
		{"", Asc, false},
		{"asc", Asc, false},
		{"DESC", Desc, false},
		{"random", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOrder(tt.in)
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidOrder), "err=%#v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatElapsed(t *testing.T) {
	tests := []struct {
		name string
		in   time.Duration
		want string
	}{
		{"sub minute", 41761 * time.Millisecond, "00:41.761000"},
		{"microseconds", time.Minute + 4*time.Second + 415001*time.Microsecond, "01:04.415001"},
		{"nanoseconds truncated", 1500 * time.Nanosecond, "00:00.000001"},
		{"hours dropped", time.Hour + 2*time.Minute + 3*time.Second, "02:03.000000"},
		{"negative uses magnitude", -5 * time.Second, "00:05.000000"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatElapsed(tt.in))
		})
	}
}

func TestParseElapsed(t *testing.T) {
	d, err := ParseElapsed("01:04.415000")
	require.NoError(t, err)
	assert.Equal(t, time.Minute+4415*time.Millisecond, d)

	_, err = ParseElapsed("not a time")
	assert.Error(t, err)
}

func TestReport_JSONRoundTrip(t *testing.T) {
	b := newTestBuilder(t, startLog, endLog, roster)
	rep, err := b.Build(Desc)
	require.NoError(t, err)

	raw, err := json.Marshal(rep)
	require.NoError(t, err)
	assert.Equal(t,
		`{"01:13.065000":["NHR","Nico Hulkenberg","RENAULT"],"01:12.657000":["FAM","Fernando Alonso","MCLAREN RENAULT"],"01:04.415000":["SVF","Sebastian Vettel","FERRARI"]}`,
		string(raw))

	var back Report
	require.NoError(t, json.Unmarshal(raw, &back))
	assert.Equal(t, rep.Entries(), back.Entries())

	var generic map[string][]string
	require.NoError(t, json.Unmarshal(raw, &generic))
	assert.Equal(t, []string{"SVF", "Sebastian Vettel", "FERRARI"}, generic["01:04.415000"])
}

func TestReport_UnmarshalRejectsArray(t *testing.T) {
	var r Report
	assert.Error(t, json.Unmarshal([]byte(`["x"]`), &r))
}
