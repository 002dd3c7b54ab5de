package table

import (
	"fmt"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/wormsim/sweeping/pkg/types"
)

// sweepRecords builds a table shaped like a full parameter sweep: every FR
// from 0 to 100 crossed with ashes ASH values, single and multi-worm.
func sweepRecords(ashes int) []types.Record {
	records := make([]types.Record, 0, 101*ashes*2)
	for fr := 0; fr <= 100; fr++ {
		for a := 0; a < ashes; a++ {
			for multi := 0; multi <= 1; multi++ {
				ash := strconv.FormatFloat(float64(a)/10, 'f', -1, 64)
				records = append(records, types.Record{
					FR: strconv.Itoa(fr), ASH: ash, AWA: "-1.7", N: "100", NOut: "13",
					Exit: "0.13", Multi: strconv.Itoa(multi), Date: "12Aug",
					Path: fmt.Sprintf("12Aug_m_%d/exit_time_raw_output_%d&-1.7&%s.csv", fr, multi, ash),
				})
			}
		}
	}
	return records
}

func BenchmarkStore_WriteRead(b *testing.B) {
	store := NewStore(DefaultColumnWidth)
	path := filepath.Join(b.TempDir(), "database.txt")
	records := sweepRecords(20)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := store.Write(path, records); err != nil {
			b.Fatal(err)
		}
		if _, err := store.Read(path); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkQuery(b *testing.B) {
	records := sweepRecords(20)
	q := types.Query{types.FieldFR: 50, types.FieldASH: 0.3, types.FieldMulti: 1}

	b.Run("Scan", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			Query(records, q)
		}
	})

	b.Run("Index", func(b *testing.B) {
		ix, err := NewIndex(records, DefaultIndexCacheSize)
		if err != nil {
			b.Fatal(err)
		}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			ix.Query(q)
		}
	})
}

func BenchmarkSort(b *testing.B) {
	records := sweepRecords(20)
	for i, j := 0, len(records)-1; i < j; i, j = i+1, j-1 {
		records[i], records[j] = records[j], records[i]
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Sort(records); err != nil {
			b.Fatal(err)
		}
	}
}
