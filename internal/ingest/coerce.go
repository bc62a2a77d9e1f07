package ingest

import (
	"strconv"

	"github.com/tinytelemetry/cephfs-top-exporter/internal/model"
)

// Coerce converts a raw sample into a measurement. Numbers pass through,
// text passes only when it consists solely of ASCII decimal digits, and
// everything else is rejected. It never fails the caller; ok reports whether
// a measurement was produced.
func Coerce(v model.Value) (float64, bool) {
	switch v.Kind {
	case model.KindNumber:
		return v.Num, true
	case model.KindText:
		if !isDecimalDigits(v.Text) {
			return 0, false
		}
		f, err := strconv.ParseFloat(v.Text, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	case model.KindOther:
		return 0, false
	default:
		return 0, false
	}
}

func isDecimalDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
