// Package datekey encodes calendar dates into fixed-width keys whose byte order equals calendar order.
//
// A key is the unix timestamp of midnight UTC as a big-endian 64-bit integer with the sign bit
// flipped, so dates before 1970 still sort before later ones under bytes.Compare.
package datekey

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/robotomize/fxcache/snapshot"
)

// Size of an encoded date key
const Size = 8

const signBit = uint64(1) << 63

var ErrMalformedKey = errors.New("malformed date key")

// Current is the sentinel key of the current pointer. Its length differs from Size so it never
// collides with a date key
var Current = []byte("current")

// Encode returns the order-preserving key of d
func Encode(d snapshot.Date) []byte {
	key := make([]byte, Size)
	binary.BigEndian.PutUint64(key, uint64(d.Unix())^signBit)

	return key
}

// Decode is the inverse of Encode
func Decode(key []byte) (snapshot.Date, error) {
	if len(key) != Size {
		return snapshot.Date{}, fmt.Errorf("%w: length %d", ErrMalformedKey, len(key))
	}

	sec := int64(binary.BigEndian.Uint64(key) ^ signBit)
	d, err := snapshot.DateFromUnix(sec)
	if err != nil {
		return snapshot.Date{}, fmt.Errorf("%w: %x: %v", ErrMalformedKey, key, err)
	}

	return d, nil
}

// IsDateKey reports whether key has the shape of a date key
func IsDateKey(key []byte) bool {
	return len(key) == Size
}
