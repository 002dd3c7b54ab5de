// Package bloom flags result paths that were probably seen before in a run
// and fingerprints written tables.
package bloom

import (
	"math"
	"sync"

	"github.com/spaolacci/murmur3"
)

// DefaultFalsePositiveRate is used when the caller passes an out of range rate.
const DefaultFalsePositiveRate = 0.001

// Filter is a murmur3 double-hashing bloom filter over strings. It never
// reports a seen string as unseen.
type Filter struct {
	mu     sync.Mutex
	bits   []uint64
	nbits  uint64
	hashes uint64
	count  int
}

// NewFilter sizes a Filter for expected items at the target false positive rate.
func NewFilter(expected int, fpr float64) *Filter {
	nbits, hashes := Size(expected, fpr)
	words := (nbits + 63) / 64
	return &Filter{
		bits:   make([]uint64, words),
		nbits:  uint64(words * 64),
		hashes: uint64(hashes),
	}
}

// Size returns the bit count m = -n ln(p) / ln(2)^2 and hash count
// k = (m/n) ln(2) for n expected items at rate p.
func Size(expected int, fpr float64) (nbits, hashes int) {
	if expected < 1 {
		expected = 1
	}
	if fpr <= 0 || fpr >= 1 {
		fpr = DefaultFalsePositiveRate
	}

	n := float64(expected)
	m := -n * math.Log(fpr) / (math.Ln2 * math.Ln2)
	nbits = int(math.Ceil(m))
	hashes = int(math.Ceil(m / n * math.Ln2))

	if nbits < 64 {
		nbits = 64
	}
	if hashes < 1 {
		hashes = 1
	}
	return nbits, hashes
}

// Add records s.
func (f *Filter) Add(s string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.add(s)
}

// Contains reports whether s might have been added.
func (f *Filter) Contains(s string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contains(s)
}

// Seen records s and reports whether it might have been recorded before.
func (f *Filter) Seen(s string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.contains(s) {
		return true
	}
	f.add(s)
	return false
}

// Count returns the number of distinct-looking strings added.
func (f *Filter) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.count
}

// NumBits returns the filter width in bits.
func (f *Filter) NumBits() int {
	return int(f.nbits)
}

// NumHashes returns the number of bit positions per string.
func (f *Filter) NumHashes() int {
	return int(f.hashes)
}

func (f *Filter) add(s string) {
	h1, h2 := murmur3.Sum128([]byte(s))
	for i := uint64(0); i < f.hashes; i++ {
		pos := (h1 + i*h2) % f.nbits
		f.bits[pos/64] |= 1 << (pos % 64)
	}
	f.count++
}

func (f *Filter) contains(s string) bool {
	h1, h2 := murmur3.Sum128([]byte(s))
	for i := uint64(0); i < f.hashes; i++ {
		pos := (h1 + i*h2) % f.nbits
		if f.bits[pos/64]&(1<<(pos%64)) == 0 {
			return false
		}
	}
	return true
}
