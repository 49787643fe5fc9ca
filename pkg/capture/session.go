package capture

import (
	"sort"
	"sync"
	"time"

	"github.com/mcptap/mcptap/internal/id"
)

// Session represents one proxy run: an ordered, append-only list of
// finalized calls plus the set of servers they touched. Appends are
// synchronized; calls are immutable once appended, so readers always see
// a consistent snapshot.
type Session struct {
	ID        string
	Mode      Mode
	StartTime time.Time

	mu          sync.RWMutex
	endTime     *time.Time
	calls       []*Call
	servers     map[string]struct{}
	cacheHits   int
	cacheMisses int
}

// NewSession creates a new session for the given mode.
func NewSession(mode Mode) *Session {
	return &Session{
		ID:        id.UUID(),
		Mode:      mode,
		StartTime: time.Now(),
		calls:     make([]*Call, 0),
		servers:   make(map[string]struct{}),
	}
}

// appendCall adds a finalized call. Only the engine calls this.
func (s *Session) appendCall(c *Call) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls = append(s.calls, c)
	if c.Server != "" {
		s.servers[c.Server] = struct{}{}
	}
}

// Calls returns a copy of the finalized call list in append order.
func (s *Session) Calls() []*Call {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*Call, len(s.calls))
	copy(out, s.calls)
	return out
}

// CallCount returns the number of finalized calls.
func (s *Session) CallCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.calls)
}

// RecordCacheHit counts a replay lookup that found a recorded call.
func (s *Session) RecordCacheHit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheHits++
}

// RecordCacheMiss counts a replay lookup that found nothing.
func (s *Session) RecordCacheMiss() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cacheMisses++
}

// End marks the session as ended.
func (s *Session) End() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.endTime == nil {
		now := time.Now()
		s.endTime = &now
	}
}

// Export returns a serializable snapshot of the session.
func (s *Session) Export() *SessionExport {
	s.mu.RLock()
	defer s.mu.RUnlock()

	calls := make([]*Call, len(s.calls))
	copy(calls, s.calls)

	servers := make([]string, 0, len(s.servers))
	for name := range s.servers {
		servers = append(servers, name)
	}
	sort.Strings(servers)

	stats := computeStats(calls)
	stats.CacheHits = s.cacheHits
	stats.CacheMisses = s.cacheMisses

	return &SessionExport{
		ID:        s.ID,
		Mode:      s.Mode,
		StartTime: s.StartTime,
		EndTime:   s.endTime,
		Servers:   servers,
		Calls:     calls,
		Stats:     stats,
	}
}

// computeStats derives summary counters from a call list.
func computeStats(calls []*Call) SessionStats {
	stats := SessionStats{
		TotalCalls:     len(calls),
		CallsPerServer: make(map[string]int),
	}
	for _, c := range calls {
		if c.WasSSE {
			stats.SSECalls++
		} else {
			stats.PlainCalls++
		}
		if c.Error != nil {
			stats.ErrorCalls++
		}
		if c.Server != "" {
			stats.CallsPerServer[c.Server]++
		}
	}
	if len(stats.CallsPerServer) == 0 {
		stats.CallsPerServer = nil
	}
	return stats
}
