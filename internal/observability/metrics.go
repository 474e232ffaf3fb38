package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters for client activity. All methods
// are nil-safe so wiring metrics stays optional.
type Metrics struct {
	mu             sync.Mutex
	requestCount   map[string]int64
	requestLatency map[string]time.Duration
	requestErrors  map[string]int64
	messageCount   map[string]int64
	reconnectCount int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:   make(map[string]int64),
		requestLatency: make(map[string]time.Duration),
		requestErrors:  make(map[string]int64),
		messageCount:   make(map[string]int64),
	}
}

// RecordRequest increments the request counter and accumulates the total
// latency spent on the path/method/status key.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
	m.requestLatency[key] += duration
}

// RecordRequestError increments error counters for failed API requests.
func (m *Metrics) RecordRequestError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestErrors[key]++
}

// RecordMessage increments counters for inbound realtime messages.
func (m *Metrics) RecordMessage(messageType string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messageCount[messageType]++
}

// RecordReconnect increments the reconnect-attempt counter.
func (m *Metrics) RecordReconnect() {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reconnectCount++
}

// Snapshot returns a copy of the current counters for reporting.
func (m *Metrics) Snapshot() (requests, errors, messages map[string]int64, latency map[string]time.Duration, reconnects int64) {
	if m == nil {
		return nil, nil, nil, nil, 0
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return copyCounters(m.requestCount), copyCounters(m.requestErrors), copyCounters(m.messageCount),
		copyLatencies(m.requestLatency), m.reconnectCount
}

func copyCounters(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

func copyLatencies(src map[string]time.Duration) map[string]time.Duration {
	dst := make(map[string]time.Duration, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
