package snapsource

import (
	"bytes"
	"io"
	"strconv"

	"github.com/cockroachdb/errors"
	json "github.com/goccy/go-json"

	"github.com/tinytelemetry/cephfs-top-exporter/internal/model"
	"github.com/tinytelemetry/cephfs-top-exporter/internal/timestamp"
)

const (
	keyDate        = "date"
	keyClientCount = "client_count"
	keyFilesystems = "filesystems"
)

type object map[string]json.RawMessage

// Decode parses one cephfs-top JSON dump. The client_count and filesystems
// sections are required; a missing or unrecognized date only leaves
// Snapshot.Timestamp zero. Filesystem and client entries that are not
// objects are dropped and counted in Snapshot.Skipped. Leaf values are
// converted one by one, so a value that does not parse (a number out of
// float64 range, say) becomes model.KindOther without affecting its siblings.
func Decode(data []byte, dates *timestamp.Parser) (*model.Snapshot, error) {
	var top object
	if err := decodeDocument(data, &top); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decode snapshot json"), ErrMalformed)
	}
	if top == nil {
		return nil, errors.Wrap(ErrMalformed, "snapshot is null")
	}

	clientCount, ok := section(top, keyClientCount)
	if !ok {
		return nil, errors.Wrapf(ErrMalformed, "missing %q section", keyClientCount)
	}
	filesystems, ok := section(top, keyFilesystems)
	if !ok {
		return nil, errors.Wrapf(ErrMalformed, "missing %q section", keyFilesystems)
	}

	snap := &model.Snapshot{
		ClientCount: make(map[string]model.Value, len(clientCount)),
		Filesystems: make(map[string]map[string]model.PerfRecord, len(filesystems)),
	}

	if raw, ok := top[keyDate]; ok {
		var date string
		if err := json.Unmarshal(raw, &date); err == nil {
			snap.Date = date
			if dates != nil {
				if ts, err := dates.Parse(date); err == nil {
					snap.Timestamp = ts
				}
			}
		}
	}

	for name, raw := range clientCount {
		snap.ClientCount[name] = toValue(raw)
	}

	for fsName, fsRaw := range filesystems {
		clients, ok := asObject(fsRaw)
		if !ok {
			snap.Skipped++
			continue
		}
		records := make(map[string]model.PerfRecord, len(clients))
		for clientID, recRaw := range clients {
			fields, ok := asObject(recRaw)
			if !ok {
				snap.Skipped++
				continue
			}
			rec := make(model.PerfRecord, len(fields))
			for field, raw := range fields {
				rec[field] = toValue(raw)
			}
			records[clientID] = rec
		}
		snap.Filesystems[fsName] = records
	}
	return snap, nil
}

// decodeDocument decodes exactly one JSON value; anything after it other
// than whitespace is an error.
func decodeDocument(data []byte, v interface{}) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(v); err != nil {
		return err
	}
	var trailing json.RawMessage
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after top-level value")
	}
	return nil
}

func section(top object, key string) (object, bool) {
	raw, ok := top[key]
	if !ok {
		return nil, false
	}
	return asObject(raw)
}

// asObject reports whether raw is a JSON object and returns its members.
func asObject(raw json.RawMessage) (object, bool) {
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func toValue(raw json.RawMessage) model.Value {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return model.OtherValue()
	}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return model.OtherValue()
		}
		return model.TextValue(s)
	case c == '-' || (c >= '0' && c <= '9'):
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil {
			return model.OtherValue()
		}
		return model.NumberValue(f)
	default:
		return model.OtherValue()
	}
}
