package stats

import (
	"fmt"
	"testing"
	"time"

	"github.com/coralcms/hookkit/internal/hook"
)

func record(name string, d time.Duration, success bool) Record {
	rec := Record{
		HookName:   name,
		Kind:       hook.KindAction,
		Owner:      "core",
		ExecutedAt: time.Now(),
		Duration:   d,
		Success:    success,
	}
	if !success {
		rec.Error = "failed"
	}
	return rec
}

func TestTracker_Registrations(t *testing.T) {
	tr := NewTracker(hook.KindAction)

	tr.RecordRegistration("a")
	tr.RecordRegistration("a")
	tr.RecordRegistration("b")

	if got := tr.Registrations(); got != 3 {
		t.Errorf("expected 3 registrations, got %d", got)
	}

	snap := tr.Snapshot()
	if snap.ByOwner["a"] != 2 {
		t.Errorf("expected owner a count 2, got %d", snap.ByOwner["a"])
	}
	if snap.ByOwner["b"] != 1 {
		t.Errorf("expected owner b count 1, got %d", snap.ByOwner["b"])
	}
}

func TestTracker_RemovalNeverNegative(t *testing.T) {
	tr := NewTracker(hook.KindAction)

	tr.RecordRegistration("a")
	tr.RecordRemoval("a")
	tr.RecordRemoval("a")
	tr.RecordRemoval("ghost")

	if got := tr.Registrations(); got != 0 {
		t.Errorf("expected registrations to stay at 0, got %d", got)
	}
	snap := tr.Snapshot()
	if _, ok := snap.ByOwner["a"]; ok {
		t.Error("expected owner a to be dropped at zero")
	}
}

func TestTracker_Executions(t *testing.T) {
	tr := NewTracker(hook.KindAction)

	tr.RecordExecution(record("init", 10*time.Millisecond, true))
	tr.RecordExecution(record("init", 30*time.Millisecond, true))
	tr.RecordExecution(record("save", 20*time.Millisecond, false))

	if got := tr.Executions(); got != 3 {
		t.Errorf("expected 3 executions, got %d", got)
	}
	if got := tr.Errors(); got != 1 {
		t.Errorf("expected 1 error, got %d", got)
	}

	snap := tr.Snapshot()
	if snap.AvgDuration != 20*time.Millisecond {
		t.Errorf("expected avg 20ms, got %v", snap.AvgDuration)
	}
	if snap.ByHook["init"] != 2 {
		t.Errorf("expected init execution count 2, got %d", snap.ByHook["init"])
	}

	m, ok := tr.HookMetrics("init")
	if !ok {
		t.Fatal("expected metrics for init")
	}
	if m.MinDuration != 10*time.Millisecond || m.MaxDuration != 30*time.Millisecond {
		t.Errorf("expected min 10ms max 30ms, got %v/%v", m.MinDuration, m.MaxDuration)
	}
	if m.AvgDuration() != 20*time.Millisecond {
		t.Errorf("expected per-hook avg 20ms, got %v", m.AvgDuration())
	}
	if !m.LastSuccess {
		t.Error("expected last init execution to be a success")
	}
}

func TestTracker_SlowestRanking(t *testing.T) {
	tr := NewTracker(hook.KindAction)

	// 12 hooks with distinct average durations; only the slowest 10 rank.
	for i := 1; i <= 12; i++ {
		tr.RecordExecution(record(fmt.Sprintf("hook-%02d", i), time.Duration(i)*time.Millisecond, true))
	}

	snap := tr.Snapshot()
	if len(snap.Slowest) != 10 {
		t.Fatalf("expected 10 ranked hooks, got %d", len(snap.Slowest))
	}
	if snap.Slowest[0].Name != "hook-12" {
		t.Errorf("expected hook-12 slowest, got %s", snap.Slowest[0].Name)
	}
	if snap.Slowest[9].Name != "hook-03" {
		t.Errorf("expected hook-03 at rank 10, got %s", snap.Slowest[9].Name)
	}
	for i := 1; i < len(snap.Slowest); i++ {
		if snap.Slowest[i-1].AvgDuration() < snap.Slowest[i].AvgDuration() {
			t.Fatalf("ranking not descending at %d", i)
		}
	}
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker(hook.KindFilter)

	tr.RecordRegistration("a")
	tr.RecordExecution(record("x", time.Millisecond, true))
	tr.Reset()

	if tr.Registrations() != 0 || tr.Executions() != 0 || tr.Errors() != 0 {
		t.Error("expected all counters cleared")
	}
	if len(tr.Recent(0)) != 0 {
		t.Error("expected history cleared")
	}
}

func TestTracker_Kind(t *testing.T) {
	if got := NewTracker(hook.KindFilter).Kind(); got != hook.KindFilter {
		t.Errorf("expected filter kind, got %v", got)
	}
}

func TestHistory_Compaction(t *testing.T) {
	h := NewHistory(100, 50)

	for i := 0; i < 100; i++ {
		h.Append(Record{HookName: fmt.Sprintf("r%d", i)})
	}
	if h.Len() != 100 {
		t.Fatalf("expected 100 records at the limit, got %d", h.Len())
	}

	// Next append compacts to the newest 50, then adds one.
	h.Append(Record{HookName: "overflow"})
	if h.Len() != 51 {
		t.Fatalf("expected 51 records after compaction, got %d", h.Len())
	}

	recent := h.Recent(0)
	if recent[0].HookName != "r50" {
		t.Errorf("expected oldest retained record r50, got %s", recent[0].HookName)
	}
	if recent[len(recent)-1].HookName != "overflow" {
		t.Errorf("expected newest record overflow, got %s", recent[len(recent)-1].HookName)
	}
}

func TestHistory_Recent(t *testing.T) {
	h := NewHistory(10, 5)
	for i := 0; i < 4; i++ {
		h.Append(Record{HookName: fmt.Sprintf("r%d", i)})
	}

	got := h.Recent(2)
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if got[0].HookName != "r2" || got[1].HookName != "r3" {
		t.Errorf("expected newest-last window [r2 r3], got [%s %s]", got[0].HookName, got[1].HookName)
	}

	if len(h.Recent(100)) != 4 {
		t.Error("expected oversized window clamped to length")
	}
}

func TestHistory_InvalidBoundsFallBack(t *testing.T) {
	h := NewHistory(0, 0)
	if h.limit != DefaultHistoryLimit || h.compact != DefaultHistoryCompact {
		t.Errorf("expected default bounds, got %d/%d", h.limit, h.compact)
	}

	h = NewHistory(10, 20)
	if h.limit != DefaultHistoryLimit {
		t.Error("expected compact >= limit to fall back to defaults")
	}
}
