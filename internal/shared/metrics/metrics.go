package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	inboxItemsProcessedTotal atomic.Uint64
	inboxItemsDuplicateTotal atomic.Uint64
	inboxItemsFailedTotal    atomic.Uint64
	ingestCyclesTotal        atomic.Uint64
	ingestCycleErrorsTotal   atomic.Uint64
	recordsIndexedTotal      atomic.Uint64
	indexSyncErrorsTotal     atomic.Uint64

	itemDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000})
)

// IncInboxItemProcessed increments the processed-item counter.
func IncInboxItemProcessed() {
	inboxItemsProcessedTotal.Add(1)
}

// IncInboxItemDuplicate increments the duplicate-item counter.
func IncInboxItemDuplicate() {
	inboxItemsDuplicateTotal.Add(1)
}

// IncInboxItemFailed increments the failed-item counter.
func IncInboxItemFailed() {
	inboxItemsFailedTotal.Add(1)
}

// IncIngestCycle increments the poll-cycle counter.
func IncIngestCycle() {
	ingestCyclesTotal.Add(1)
}

// IncIngestCycleError increments the cycle-error counter.
func IncIngestCycleError() {
	ingestCycleErrorsTotal.Add(1)
}

// IncRecordsIndexed adds to the indexed-record counter.
func IncRecordsIndexed(n int) {
	if n > 0 {
		recordsIndexedTotal.Add(uint64(n))
	}
}

// IncIndexSyncError increments the sync-error counter.
func IncIndexSyncError() {
	indexSyncErrorsTotal.Add(1)
}

// ObserveItemDurationMs records one inbox item's processing duration in milliseconds.
func ObserveItemDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	itemDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "inbox_items_processed_total", "Total inbox items moved to processed", inboxItemsProcessedTotal.Load())
	writeCounter(&buf, "inbox_items_duplicate_total", "Total inbox items short-circuited as duplicates", inboxItemsDuplicateTotal.Load())
	writeCounter(&buf, "inbox_items_failed_total", "Total inbox items moved to failed", inboxItemsFailedTotal.Load())
	writeCounter(&buf, "ingest_cycles_total", "Total ingestion poll cycles", ingestCyclesTotal.Load())
	writeCounter(&buf, "ingest_cycle_errors_total", "Total ingestion poll cycles that errored", ingestCycleErrorsTotal.Load())
	writeCounter(&buf, "records_indexed_total", "Total records marked indexed", recordsIndexedTotal.Load())
	writeCounter(&buf, "index_sync_errors_total", "Total index synchronizer cycle errors", indexSyncErrorsTotal.Load())
	writeHistogram(&buf, "inbox_item_duration_ms", "Inbox item processing duration in milliseconds", itemDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
