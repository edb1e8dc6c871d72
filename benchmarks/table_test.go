package benchmarks

import (
	"testing"

	"github.com/randalmurphal/threadkit/pkg/threadkit"
)

type benchTarget struct{}

func (benchTarget) Name() string { return "bench" }

// BenchmarkTable_Allocate_8 fills one default block.
func BenchmarkTable_Allocate_8(b *testing.B) {
	benchmarkAllocate(b, 8)
}

// BenchmarkTable_Allocate_1024 fills a table that grows 127 times.
func BenchmarkTable_Allocate_1024(b *testing.B) {
	benchmarkAllocate(b, 1024)
}

func benchmarkAllocate(b *testing.B, n int) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		table := threadkit.NewTable(threadkit.DefaultBlockSize, 0)
		for j := 0; j < n; j++ {
			if _, _, err := table.Allocate(benchTarget{}); err != nil {
				b.Fatal(err)
			}
		}
	}
}
