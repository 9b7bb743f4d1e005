// Package budget tracks how much corpus text one crawl has stored.
package budget

import "unicode/utf8"

// MiB is the unit used for crawl budgets.
const MiB = 1024 * 1024

// Bytes tracks the cumulative amount of text accepted during one crawl.
// The running total only grows; there is no way to give bytes back.
type Bytes struct {
	limit int64
	used  int64
}

// NewBytes returns a budget that allows maxMegabytes * MiB characters.
// A non-positive value yields a budget that is exceeded by the first
// non-empty addition.
func NewBytes(maxMegabytes int) *Bytes {
	if maxMegabytes < 0 {
		maxMegabytes = 0
	}
	return &Bytes{limit: int64(maxMegabytes) * MiB}
}

// Add accounts for n more units. Negative values are ignored.
func (b *Bytes) Add(n int) {
	if n <= 0 {
		return
	}
	b.used += int64(n)
}

// AddText accounts for the character length of s (runes, not encoded bytes).
func (b *Bytes) AddText(s string) int {
	n := utf8.RuneCountInString(s)
	b.Add(n)
	return n
}

// Used returns the running total.
func (b *Bytes) Used() int64 { return b.used }

// Limit returns the configured ceiling.
func (b *Bytes) Limit() int64 { return b.limit }

// Exceeded reports whether the total has gone past the limit. Reaching the
// limit exactly is still within budget.
func (b *Bytes) Exceeded() bool {
	return b.used > b.limit
}

// Remaining returns how much may still be added before Exceeded flips.
// The result is never negative.
func (b *Bytes) Remaining() int64 {
	if b.used >= b.limit {
		return 0
	}
	return b.limit - b.used
}
