package graph

import (
	"testing"
	"time"
)

func TestIDSourceMonotonic(t *testing.T) {
	frozen := time.UnixMilli(1700000000000)
	s := NewIDSource(func() time.Time { return frozen })

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		for _, id := range []string{s.PromptID(), s.SystemID()} {
			if seen[id] {
				t.Fatalf("duplicate id %s", id)
			}
			seen[id] = true
		}
	}

	if got := NewIDSource(func() time.Time { return frozen }).PromptID(); got != "prompt-1700000000000" {
		t.Errorf("PromptID() = %q", got)
	}
}

func TestIDSourceClockGoesBackwards(t *testing.T) {
	times := []int64{2000, 1000, 1000}
	i := 0
	s := NewIDSource(func() time.Time {
		ts := time.UnixMilli(times[i])
		i++
		return ts
	})
	got := []string{s.SystemID(), s.SystemID(), s.SystemID()}
	want := []string{"system-2000", "system-2001", "system-2002"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("id[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestDerivedIDs(t *testing.T) {
	if got := CompletionID("prompt-5", 2); got != "completion-prompt-5-2" {
		t.Errorf("CompletionID = %q", got)
	}
	if got := EdgeID("system-node", "prompt-5"); got != "edge-system-node-prompt-5" {
		t.Errorf("EdgeID = %q", got)
	}
}
