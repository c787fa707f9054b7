package ecb

import (
	"errors"

	"github.com/robotomize/fxcache/snapshot"
)

var (
	errDecodeToken       = errors.New("decoding of the markup failed")
	errAttributeNotValid = errors.New("attr is not valid")
	errMissingIterFunc   = errors.New("missing iter function")

	// ErrEmptyFeed the feed was decoded but holds no day
	ErrEmptyFeed = errors.New("feed contains no reference rates")
)

// decodeFunc for parsing data and processing it in streaming mode, one call of the iter function per day
type decodeFunc func([]byte, func(day snapshot.Snapshot) error) error
