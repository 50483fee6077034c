package trace

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelScopes(t *testing.T) {
	tests := []struct {
		level Level
		scope Scope
		want  bool
	}{
		{LevelOff, ScopeDriver, false},
		{LevelPhase, ScopeStage, true},
		{LevelPhase, ScopeFunction, false},
		{LevelDetail, ScopeFunction, true},
		{LevelDetail, ScopeDetail, false},
		{LevelDebug, ScopeDetail, true},
	}
	for _, tt := range tests {
		if got := tt.level.ShouldEmit(tt.scope); got != tt.want {
			t.Errorf("%s.ShouldEmit(%s) = %v, want %v", tt.level, tt.scope, got, tt.want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Fatalf("ParseLevel accepted an unknown level")
	}
}

func TestStreamNDJSON(t *testing.T) {
	var buf bytes.Buffer
	tr, err := New(Config{Level: LevelDetail, Mode: ModeStream, Format: FormatNDJSON, Output: &buf, Session: "s1"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	ctx := WithTracer(context.Background(), tr)
	ctx, stage := Start(ctx, ScopeStage, "lower")
	_, fn := Start(ctx, ScopeFunction, "lower:main")
	fn.WithExtra("instrs", "3").End("")
	stage.End("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d events:\n%s", len(lines), buf.String())
	}
	var ev jsonEvent
	if err := json.Unmarshal([]byte(lines[2]), &ev); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if ev.Kind != "end" || ev.Name != "lower:main" || ev.Session != "s1" || ev.Extra["instrs"] != "3" {
		t.Fatalf("event = %+v", ev)
	}
	if ev.ParentID != stage.ID() {
		t.Fatalf("parent = %d, want %d", ev.ParentID, stage.ID())
	}
}

func TestRingKeepsLatest(t *testing.T) {
	r := NewRingTracer(2, LevelDebug, "")
	for _, name := range []string{"a", "b", "c"} {
		Point(r, ScopeStage, name, "", 0)
	}
	snap := r.Snapshot()
	if len(snap) != 2 || snap[0].Name != "b" || snap[1].Name != "c" {
		t.Fatalf("snapshot = %+v", snap)
	}
	var buf bytes.Buffer
	if err := r.Dump(&buf, FormatText); err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if !strings.Contains(buf.String(), "• c") {
		t.Fatalf("dump:\n%s", buf.String())
	}
}

func TestNopWhenOff(t *testing.T) {
	tr, err := New(Config{Level: LevelOff})
	if err != nil || tr.Enabled() {
		t.Fatalf("tracer = %v, %v", tr, err)
	}
	if sp := Begin(tr, ScopeDriver, "x", 0); sp.ID() != 0 || sp.End("") != 0 {
		t.Fatalf("span on nop tracer is live")
	}
}
