// Package timestamp parses the date field emitted by cephfs-top.
package timestamp

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// ErrUnrecognized is returned for dates that match none of the known layouts.
var ErrUnrecognized = errors.New("unrecognized snapshot date")

// cephfs-top writes dates with time.ctime(): "Thu Oct  7 10:00:00 2024".
// "_2" also accepts a zero-padded or unpadded day.
var layouts = []string{
	"Mon Jan _2 15:04:05 2006",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
}

// Parser parses snapshot dates in a fixed location. Dates without a zone are
// interpreted in that location.
type Parser struct {
	loc *time.Location
}

// NewParser returns a parser using the local time zone.
func NewParser() *Parser {
	return &Parser{loc: time.Local}
}

// NewParserInLocation returns a parser using loc for zone-less dates.
func NewParserInLocation(loc *time.Location) *Parser {
	if loc == nil {
		loc = time.Local
	}
	return &Parser{loc: loc}
}

// Parse converts a snapshot date into a point in time.
func (p *Parser) Parse(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.Wrap(ErrUnrecognized, "empty date")
	}
	for _, layout := range layouts {
		if ts, err := time.ParseInLocation(layout, value, p.loc); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, errors.Wrapf(ErrUnrecognized, "%q", value)
}
