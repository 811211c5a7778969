// Package id mints run identifiers. Run IDs are ULIDs: time-sortable, so a
// journal listing ordered by ID is also ordered by creation time.
package id

import (
	"crypto/rand"
	"encoding/binary"
	mathrand "math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

var entropy = struct {
	sync.Mutex
	*ulid.MonotonicEntropy
}{}

func init() {
	var seed int64
	_ = binary.Read(rand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	// Monotonic entropy keeps IDs minted within one millisecond ordered.
	entropy.MonotonicEntropy = ulid.Monotonic(mathrand.New(mathrand.NewSource(seed)), 0)
}

// New returns a fresh ULID string.
func New() string {
	entropy.Lock()
	defer entropy.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now().UTC()), entropy.MonotonicEntropy).String()
}

// Valid reports whether s parses as a ULID.
func Valid(s string) bool {
	_, err := ulid.ParseStrict(s)
	return err == nil
}
