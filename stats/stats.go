// Package stats keeps in-process counters for the query pipeline. The
// listener loop writes, the dashboard reads; everything else stays out.
package stats

import (
	"sync"
	"time"
)

// Outcomes recorded per handled query.
const (
	OutcomeBlocked   = "blocked"
	OutcomeForwarded = "forwarded"
	OutcomeDropped   = "dropped"
)

const recentSize = 128

// Query is one entry of the recent-query ring.
type Query struct {
	Timestamp    string `json:"timestamp"`
	ClientIP     string `json:"client_ip"`
	Domain       string `json:"domain"`
	Type         string `json:"type"`
	ResponseType string `json:"response_type"`
}

// Stats is safe for one writer and any number of readers.
type Stats struct {
	mu        sync.Mutex
	started   time.Time
	total     uint64
	blocked   uint64
	forwarded uint64
	dropped   uint64
	qtypes    map[string]uint64
	domains   map[string]uint64
	clients   map[string]uint64
	recent    [recentSize]Query
	next      int
	filled    bool
}

func New() *Stats {
	return &Stats{
		started: time.Now(),
		qtypes:  make(map[string]uint64),
		domains: make(map[string]uint64),
		clients: make(map[string]uint64),
	}
}

// Record counts one handled query and appends it to the ring.
func (s *Stats) Record(client, domain, qtype, outcome string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.total++
	switch outcome {
	case OutcomeBlocked:
		s.blocked++
	case OutcomeForwarded:
		s.forwarded++
	}
	s.qtypes[qtype]++
	if domain != "" {
		s.domains[domain]++
	}
	s.clients[client]++

	s.recent[s.next] = Query{
		Timestamp:    time.Now().Format("2006-01-02 15:04:05"),
		ClientIP:     client,
		Domain:       domain,
		Type:         qtype,
		ResponseType: outcome,
	}
	s.next++
	if s.next == recentSize {
		s.next = 0
		s.filled = true
	}
}

// RecordDropped counts a datagram rejected before any question was
// readable (parse failures, runt packets).
func (s *Stats) RecordDropped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dropped++
}

// Summary is the snapshot the dashboard serves as /api/stats.
type Summary struct {
	TotalQueries     uint64  `json:"total_queries"`
	BlockedQueries   uint64  `json:"blocked_queries"`
	ForwardedQueries uint64  `json:"forwarded_queries"`
	DroppedDatagrams uint64  `json:"dropped_datagrams"`
	UniqueClients    int     `json:"unique_clients"`
	UniqueDomains    int     `json:"unique_domains"`
	QPS              float64 `json:"qps"`
	UptimeSeconds    int64   `json:"uptime_seconds"`
}

func (s *Stats) Summary() Summary {
	s.mu.Lock()
	defer s.mu.Unlock()

	uptime := time.Since(s.started)
	var qps float64
	if secs := uptime.Seconds(); secs > 0 {
		qps = float64(s.total) / secs
	}
	return Summary{
		TotalQueries:     s.total,
		BlockedQueries:   s.blocked,
		ForwardedQueries: s.forwarded,
		DroppedDatagrams: s.dropped,
		UniqueClients:    len(s.clients),
		UniqueDomains:    len(s.domains),
		QPS:              qps,
		UptimeSeconds:    int64(uptime.Seconds()),
	}
}

// Count is one name/count pair, ordered by count descending.
type Count struct {
	Name  string `json:"name"`
	Count uint64 `json:"count"`
}

func topN(m map[string]uint64, n int) []Count {
	out := make([]Count, 0, len(m))
	for k, v := range m {
		out = append(out, Count{Name: k, Count: v})
	}
	// Small maps; selection by repeated max keeps it dependency-free.
	for i := 0; i < len(out); i++ {
		best := i
		for j := i + 1; j < len(out); j++ {
			if out[j].Count > out[best].Count {
				best = j
			}
		}
		out[i], out[best] = out[best], out[i]
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

func (s *Stats) QueryTypes() []Count {
	s.mu.Lock()
	defer s.mu.Unlock()
	return topN(s.qtypes, 10)
}

func (s *Stats) TopDomains(n int) []Count {
	s.mu.Lock()
	defer s.mu.Unlock()
	return topN(s.domains, n)
}

func (s *Stats) TopClients(n int) []Count {
	s.mu.Lock()
	defer s.mu.Unlock()
	return topN(s.clients, n)
}

// Recent returns the ring newest-first.
func (s *Stats) Recent(n int) []Query {
	s.mu.Lock()
	defer s.mu.Unlock()

	size := s.next
	if s.filled {
		size = recentSize
	}
	if n > size {
		n = size
	}
	out := make([]Query, 0, n)
	for i := 1; i <= n; i++ {
		idx := (s.next - i + recentSize) % recentSize
		out = append(out, s.recent[idx])
	}
	return out
}
