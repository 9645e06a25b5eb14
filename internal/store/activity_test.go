package store

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"agentbook/internal/clock"
	"agentbook/internal/model"
)

func TestActivityLogBounded(t *testing.T) {
	dir := t.TempDir()
	l := NewActivityLog(dir, clock.Fixed(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)))

	for i := 0; i < 105; i++ {
		if _, err := l.Append(model.ActivityAutoReminder, map[string]string{"seq": fmt.Sprint(i)}); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	if got := l.Len(); got != 100 {
		t.Fatalf("Len() = %d, want 100", got)
	}

	// The five oldest (seq 0..4) are evicted; everything retained is
	// seq 5..104.
	all := l.List(100)
	if len(all) != 100 {
		t.Fatalf("List(100) = %d entries, want 100", len(all))
	}
	seen := make(map[string]bool)
	for _, e := range all {
		seen[e.Data["seq"]] = true
	}
	for i := 0; i < 5; i++ {
		if seen[fmt.Sprint(i)] {
			t.Errorf("entry seq=%d should have been evicted", i)
		}
	}
	if !seen["5"] || !seen["104"] {
		t.Error("entries seq=5 and seq=104 should be retained")
	}
}

func TestActivityLogListOrderAndLimit(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	// All entries share one timestamp: ordering must fall back to
	// insertion order, newest inserted first.
	l := NewActivityLog(dir, clock.Fixed(base))
	for i := 0; i < 30; i++ {
		if _, err := l.Append(model.ActivitySMSSent, map[string]string{"seq": fmt.Sprint(i)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	def := l.List(0)
	if len(def) != DefaultActivityLimit {
		t.Fatalf("default List = %d entries, want %d", len(def), DefaultActivityLimit)
	}
	if def[0].Data["seq"] != "29" || def[len(def)-1].Data["seq"] != "10" {
		t.Errorf("default List order wrong: first=%s last=%s", def[0].Data["seq"], def[len(def)-1].Data["seq"])
	}

	if got := l.List(5); len(got) != 5 || got[0].Data["seq"] != "29" {
		t.Errorf("List(5) wrong: len=%d first=%s", len(got), got[0].Data["seq"])
	}
}

func TestActivityLogListTimestampDescending(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	clk := &steppingClock{now: base, step: time.Minute}
	l := NewActivityLog(dir, clk)
	for i := 0; i < 3; i++ {
		if _, err := l.Append(model.ActivitySMSSent, map[string]string{"seq": fmt.Sprint(i)}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	got := l.List(0)
	if len(got) != 3 {
		t.Fatalf("List = %d entries, want 3", len(got))
	}
	for i, want := range []string{"2", "1", "0"} {
		if got[i].Data["seq"] != want {
			t.Errorf("List[%d].seq = %s, want %s", i, got[i].Data["seq"], want)
		}
	}
}

func TestActivityLogPersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()
	clk := clock.Fixed(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))

	l := NewActivityLog(dir, clk)
	if _, err := l.Append(model.ActivityMeetingCreated, map[string]string{"meetingId": "m1"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	reloaded := NewActivityLog(dir, clk)
	if got := reloaded.Len(); got != 1 {
		t.Fatalf("reloaded Len = %d, want 1", got)
	}
	if got := reloaded.List(0)[0].Data["meetingId"]; got != "m1" {
		t.Errorf("reloaded entry meetingId = %s, want m1", got)
	}
}

func TestActivityLogCorruptFileStartsEmpty(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, activityFile), []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	l := NewActivityLog(dir, clock.System{})
	if got := l.Len(); got != 0 {
		t.Errorf("Len = %d, want 0 for corrupt file", got)
	}
}

func TestActivityLogWriteFailureSurfacesAndRollsBack(t *testing.T) {
	dir := t.TempDir()
	clk := clock.Fixed(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	l := NewActivityLog(dir, clk)
	if _, err := l.Append(model.ActivitySMSSent, nil); err != nil {
		t.Fatalf("append: %v", err)
	}

	// Replace the target file with a directory so the rename fails.
	path := filepath.Join(dir, activityFile)
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.Mkdir(path, 0o700); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	if _, err := l.Append(model.ActivitySMSSent, nil); err == nil {
		t.Fatal("expected write failure to surface")
	}
	if got := l.Len(); got != 1 {
		t.Errorf("Len = %d after failed append, want 1 (rolled back)", got)
	}
	if err := l.Clear(); err == nil {
		t.Error("expected Clear to surface write failure")
	}
}

func TestActivityLogClear(t *testing.T) {
	dir := t.TempDir()
	clk := clock.Fixed(time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC))
	l := NewActivityLog(dir, clk)
	for i := 0; i < 3; i++ {
		if _, err := l.Append(model.ActivitySMSSent, nil); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	if err := l.Clear(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if got := l.Len(); got != 0 {
		t.Errorf("Len = %d after clear, want 0", got)
	}

	reloaded := NewActivityLog(dir, clk)
	if got := reloaded.Len(); got != 0 {
		t.Errorf("reloaded Len = %d after clear, want 0", got)
	}
}

// steppingClock advances by step on every Now call.
type steppingClock struct {
	now  time.Time
	step time.Duration
}

func (c *steppingClock) Now() time.Time {
	t := c.now
	c.now = c.now.Add(c.step)
	return t
}
