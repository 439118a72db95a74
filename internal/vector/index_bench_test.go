package vector

import (
	"context"
	"testing"
)

func benchmarkQuery(b *testing.B, builder Builder) {
	const n, dim = 1000, 384
	vecs := make([][]float32, n)
	for i := range vecs {
		vecs[i] = make([]float32, dim)
		vecs[i][0] = float32(i+1) / n
		vecs[i][i%dim] += 1
	}
	ctx := context.Background()
	idx, err := builder.Build(ctx, testChunks(n), vecs)
	if err != nil {
		b.Fatal(err)
	}
	defer idx.Close()
	query := make([]float32, dim)
	query[0] = 1.0
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = idx.Query(ctx, query, 4)
	}
}

func BenchmarkMemoryIndexQuery(b *testing.B) {
	benchmarkQuery(b, NewMemoryBuilder())
}

func BenchmarkChromemIndexQuery(b *testing.B) {
	benchmarkQuery(b, NewChromemBuilder())
}
