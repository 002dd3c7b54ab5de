package table

import (
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/wormsim/sweeping/pkg/types"
)

// DefaultIndexCacheSize bounds the number of memoized query results.
const DefaultIndexCacheSize = 1024

// Index answers repeated queries over a fixed record set, memoizing results
// by the query's canonical key. The record set must not change while the
// Index is in use.
type Index struct {
	records []types.Record
	cache   *lru.Cache[string, []types.Record]

	hits   int
	misses int
}

// NewIndex creates an Index over records with room for size cached results.
func NewIndex(records []types.Record, size int) (*Index, error) {
	if size <= 0 {
		size = DefaultIndexCacheSize
	}
	cache, err := lru.New[string, []types.Record](size)
	if err != nil {
		return nil, err
	}
	return &Index{records: records, cache: cache}, nil
}

// Query returns the records matching q. Callers must not modify the result.
func (ix *Index) Query(q types.Query) []types.Record {
	key := q.Key()
	if matches, ok := ix.cache.Get(key); ok {
		ix.hits++
		return matches
	}
	ix.misses++
	matches := Query(ix.records, q)
	ix.cache.Add(key, matches)
	return matches
}

// Records returns the indexed record set.
func (ix *Index) Records() []types.Record {
	return ix.records
}

// Stats returns the cache hit and miss counts.
func (ix *Index) Stats() (hits, misses int) {
	return ix.hits, ix.misses
}
