package metrics

import (
	"sync"
	"time"
)

// Metrics aggregates crawl counters across runs for the monitoring endpoint.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	SourcesFetched    int64
	SourcesFailed     int64
	ItemsFetched      int64
	ItemsDropped      int64
	DuplicatesMerged  int64
	ImagesFromFeed    int64
	ImagesFromPage    int64
	ImagesFromPool    int64
	SnapshotFallbacks int64

	// Timings
	LastCrawlDuration time.Duration

	// Status
	LastCrawlTime time.Time
	LastError     string
	LastErrorTime time.Time
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) AddSourcesFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFetched += int64(n)
}

func (m *Metrics) AddSourcesFailed(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SourcesFailed += int64(n)
}

func (m *Metrics) AddItemsFetched(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsFetched += int64(n)
}

func (m *Metrics) AddItemsDropped(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsDropped += int64(n)
}

func (m *Metrics) AddDuplicatesMerged(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesMerged += int64(n)
}

// RecordImageLevel counts which resolution level produced an article image.
func (m *Metrics) RecordImageLevel(level string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	switch level {
	case "feed":
		m.ImagesFromFeed++
	case "page":
		m.ImagesFromPage++
	case "pool":
		m.ImagesFromPool++
	}
}

func (m *Metrics) IncrementSnapshotFallbacks() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SnapshotFallbacks++
}

func (m *Metrics) RecordCrawl(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastCrawlDuration = duration
	m.LastCrawlTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"sources_fetched":        m.SourcesFetched,
		"sources_failed":         m.SourcesFailed,
		"items_fetched":          m.ItemsFetched,
		"items_dropped":          m.ItemsDropped,
		"duplicates_merged":      m.DuplicatesMerged,
		"images_from_feed":       m.ImagesFromFeed,
		"images_from_page":       m.ImagesFromPage,
		"images_from_pool":       m.ImagesFromPool,
		"snapshot_fallbacks":     m.SnapshotFallbacks,
		"last_crawl_duration_ms": m.LastCrawlDuration.Milliseconds(),
		"last_crawl_time":        m.LastCrawlTime.Format(time.RFC3339),
		"last_error":             m.LastError,
		"last_error_time":        m.LastErrorTime.Format(time.RFC3339),
		"is_healthy":             m.IsHealthy,
	}
}
