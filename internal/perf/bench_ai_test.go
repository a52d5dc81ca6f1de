package perf

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/tonica-music/catalog/internal/ai"
	"github.com/tonica-music/catalog/internal/importer"
)

// lineItemsResponse renders a fenced extraction answer with n items.
func lineItemsResponse(n int) string {
	var b strings.Builder
	b.WriteString("```json\n[")
	for i := 1; i <= n; i++ {
		if i > 1 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, `{"item":%d,"name":"Corda Nylon %d","sku":"CN-%04d","quantity":"%d","unit":"UN","unitPrice":"19.90","totalPrice":"%d.70","ncm":"92099200","description":"Jogo de cordas","brand":"Giannini"}`,
			i, i, i, 3, 59)
	}
	b.WriteString("]\n```")
	return b.String()
}

func TestLargeInvoiceDecodeLatency(t *testing.T) {
	raw := lineItemsResponse(500)
	samples := make([]time.Duration, 0, 20)
	for i := 0; i < 20; i++ {
		var items []importer.ExtractedLineItem
		start := time.Now()
		if err := ai.Decode(raw, &items); err != nil {
			t.Fatalf("decode: %v", err)
		}
		samples = append(samples, time.Since(start))
		if len(items) != 500 || items[499].Quantity != 3 {
			t.Fatalf("unexpected decode result: %d items", len(items))
		}
	}
	if p95 := percentile95(samples); p95 > 250*time.Millisecond {
		t.Fatalf("decode latency regression: p95=%s", p95)
	}
}

func BenchmarkDecodeLineItems(b *testing.B) {
	raw := lineItemsResponse(40)
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		var items []importer.ExtractedLineItem
		if err := ai.Decode(raw, &items); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkSlidingWindowAdmit(b *testing.B) {
	w := ai.NewSlidingWindow(b.N+1, time.Hour)
	ctx := context.Background()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := w.Wait(ctx); err != nil {
			b.Fatal(err)
		}
	}
}

func percentile95(samples []time.Duration) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	sorted := append([]time.Duration(nil), samples...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
	index := int(float64(len(sorted)-1) * 0.95)
	if index < 0 {
		index = 0
	}
	if index >= len(sorted) {
		index = len(sorted) - 1
	}
	return sorted[index]
}
