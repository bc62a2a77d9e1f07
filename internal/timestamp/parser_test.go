package timestamp

import (
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCtime(t *testing.T) {
	t.Parallel()
	p := NewParserInLocation(time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"two digit day", "Thu Oct 17 10:30:45 2024", time.Date(2024, time.October, 17, 10, 30, 45, 0, time.UTC)},
		{"space padded day", "Mon Oct  7 01:02:03 2024", time.Date(2024, time.October, 7, 1, 2, 3, 0, time.UTC)},
		{"zero padded day", "Mon Oct 07 01:02:03 2024", time.Date(2024, time.October, 7, 1, 2, 3, 0, time.UTC)},
		{"surrounding space", "  Thu Oct 17 10:30:45 2024\n", time.Date(2024, time.October, 17, 10, 30, 45, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := p.Parse(tt.input)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(ts), "got %v, want %v", ts, tt.want)
		})
	}
}

func TestParseUsesLocation(t *testing.T) {
	t.Parallel()
	loc := time.FixedZone("UTC+2", 2*60*60)

	ts, err := NewParserInLocation(loc).Parse("Thu Oct 17 10:00:00 2024")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, time.October, 17, 8, 0, 0, 0, time.UTC).Unix(), ts.Unix())
}

func TestParseFallbackLayouts(t *testing.T) {
	t.Parallel()
	p := NewParserInLocation(time.UTC)

	ts, err := p.Parse("2024-01-15T10:30:45Z")
	require.NoError(t, err)
	assert.Equal(t, 2024, ts.Year())

	ts, err = p.Parse("2024-01-15 10:30:45")
	require.NoError(t, err)
	assert.Equal(t, time.January, ts.Month())
}

func TestParseRejects(t *testing.T) {
	t.Parallel()
	p := NewParser()

	for _, input := range []string{"", "   ", "yesterday", "Thu Oct 32 10:00:00 2024", "1705312245"} {
		_, err := p.Parse(input)
		assert.Truef(t, errors.Is(err, ErrUnrecognized), "input %q: %v", input, err)
	}
}
