package store

import (
	"bytes"
	"fmt"

	"github.com/robotomize/fxcache/internal/datekey"
	"github.com/robotomize/fxcache/snapshot"
	"github.com/vmihailenco/msgpack/v5"
)

// recordVersion prefixes every stored snapshot. Bump it when the layout of record changes
const recordVersion byte = 1

type record struct {
	Date  string             `msgpack:"date"`
	Rates map[string]float64 `msgpack:"rates"`
}

func encodeRecord(s snapshot.Snapshot) ([]byte, error) {
	payload, err := msgpack.Marshal(record{Date: s.Date.String(), Rates: s.Rates})
	if err != nil {
		return nil, fmt.Errorf("msgpack marshal %s: %w", s.Date, err)
	}

	b := make([]byte, 0, len(payload)+1)
	b = append(b, recordVersion)
	b = append(b, payload...)

	return b, nil
}

// decodeRecord decodes the value stored under key. The date inside the record must match the key
func decodeRecord(key, b []byte) (snapshot.Snapshot, error) {
	if len(b) == 0 {
		return snapshot.Snapshot{}, fmt.Errorf("%w: empty record under %x", ErrCorrupt, key)
	}

	if b[0] != recordVersion {
		return snapshot.Snapshot{}, fmt.Errorf("%w: unsupported record version %d under %x", ErrCorrupt, b[0], key)
	}

	var rec record
	if err := msgpack.Unmarshal(b[1:], &rec); err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("%w: msgpack unmarshal %x: %v", ErrCorrupt, key, err)
	}

	d, err := snapshot.ParseDate(rec.Date)
	if err != nil {
		return snapshot.Snapshot{}, fmt.Errorf("%w: record date under %x: %v", ErrCorrupt, key, err)
	}

	if !bytes.Equal(datekey.Encode(d), key) {
		return snapshot.Snapshot{}, fmt.Errorf("%w: record for %s stored under %x", ErrCorrupt, d, key)
	}

	if rec.Rates == nil {
		rec.Rates = make(map[string]float64)
	}

	return snapshot.Snapshot{Date: d, Rates: rec.Rates}, nil
}
