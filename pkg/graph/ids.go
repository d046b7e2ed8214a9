package graph

import (
	"strconv"
	"sync"
	"time"
)

// IDSource hands out node IDs built from a role prefix and a millisecond
// timestamp. Timestamps are strictly increasing per source, so two calls in
// the same millisecond still yield distinct IDs.
type IDSource struct {
	mu   sync.Mutex
	now  func() time.Time
	last int64
}

// NewIDSource creates an IDSource reading time from now.
// If now is nil, time.Now is used.
func NewIDSource(now func() time.Time) *IDSource {
	if now == nil {
		now = time.Now
	}
	return &IDSource{now: now}
}

func (s *IDSource) next() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ms := s.now().UnixMilli()
	if ms <= s.last {
		ms = s.last + 1
	}
	s.last = ms
	return ms
}

// SystemID returns a fresh "system-<ms>" ID.
func (s *IDSource) SystemID() string {
	return "system-" + strconv.FormatInt(s.next(), 10)
}

// PromptID returns a fresh "prompt-<ms>" ID.
func (s *IDSource) PromptID() string {
	return "prompt-" + strconv.FormatInt(s.next(), 10)
}

// CompletionID returns the ID of the i-th completion of promptID.
func CompletionID(promptID string, i int) string {
	return "completion-" + promptID + "-" + strconv.Itoa(i)
}

// EdgeID returns the conventional ID of the edge source→target.
func EdgeID(source, target string) string {
	return "edge-" + source + "-" + target
}
