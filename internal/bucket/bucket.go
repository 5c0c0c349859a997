// Package bucket assigns keys to stable numeric buckets with a salted xxHash32.
//
// Assignments must stay identical to previously published dataset splits, so
// the key is rendered exactly as the original float formatting did (see
// FormatKey) before hashing.
package bucket

import (
	"errors"
	"math"

	"github.com/OneOfOne/xxhash"
)

const (
	// DefaultSalt is the salt used for the published dataset splits
	DefaultSalt = "hnbooks"
	// NumBuckets is the size of the bucket range [0, NumBuckets)
	NumBuckets = 100
)

// ErrInvalidKey is returned for NaN or infinite keys
var ErrInvalidKey = errors.New("invalid bucket key")

// Bucket hashes FormatKey(key)+salt with xxHash32 (seed 0) and reduces it modulo NumBuckets.
func Bucket(key float64, salt string) (int, error) {
	if math.IsNaN(key) || math.IsInf(key, 0) {
		return 0, ErrInvalidKey
	}
	h := xxhash.ChecksumString32(FormatKey(key) + salt)
	return int(h % NumBuckets), nil
}

// Bucketer binds a salt for repeated bucketing
type Bucketer struct {
	Salt string
}

// New returns a Bucketer with the given salt, or DefaultSalt when salt is empty
func New(salt string) Bucketer {
	if salt == "" {
		salt = DefaultSalt
	}
	return Bucketer{Salt: salt}
}

// Of returns the bucket of key
func (b Bucketer) Of(key float64) (int, error) {
	return Bucket(key, b.Salt)
}

// OfID returns the bucket of an integer identifier. The id is keyed as a
// float64, matching how the published splits were computed; ids beyond 2^53
// lose precision the same way they did there.
func (b Bucketer) OfID(id int64) (int, error) {
	return b.Of(float64(id))
}
