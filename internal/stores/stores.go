// ABOUTME: Shared pieces of the offline-first entity stores.
// ABOUTME: Temp-ID source for offline creates and common error handling.
package stores

import (
	"errors"
	"sync/atomic"
	"time"
)

// ErrOfflineNoCache is returned when a load finds no cached data and the
// remote is unreachable. An explicit condition, not an empty success.
var ErrOfflineNoCache = errors.New("offline and no cached data")

// TempIDs issues temporary negative local identifiers for records created
// offline. Server-issued identifiers are positive, so negatives can never
// collide. Identifiers are strictly decreasing so same-millisecond creates
// stay unique.
//
// Known gap: a temp ID is never remapped to the server-assigned ID after
// the queued CREATE succeeds; dependent records referencing it dangle until
// the next online full refresh replaces the cache. A real reconciliation
// step would map old to new across dependents.
type TempIDs struct {
	last atomic.Int64
}

// Next returns a fresh negative identifier.
func (t *TempIDs) Next() int64 {
	for {
		candidate := -time.Now().UnixMilli()
		last := t.last.Load()
		if last != 0 && candidate >= last {
			candidate = last - 1
		}
		if t.last.CompareAndSwap(last, candidate) {
			return candidate
		}
	}
}

// errMessage extracts a displayable message for store state.
func errMessage(err error) *string {
	msg := err.Error()
	return &msg
}
