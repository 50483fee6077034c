package observ

import (
	"strings"
	"sync"
	"testing"
)

func TestTimerReport(t *testing.T) {
	tm := NewTimer()
	done := tm.Track("parse")
	done("1 file")
	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tm.Track("refcount")("")
		}()
	}
	wg.Wait()

	report := tm.Report()
	if len(report.Phases) != 5 || report.Phases[0].Name != "parse" || report.Phases[0].Note != "1 file" {
		t.Fatalf("report = %+v", report)
	}
	if s := tm.Summary(); !strings.Contains(s, "// 1 file") || !strings.Contains(s, "total") {
		t.Fatalf("summary:\n%s", s)
	}
}

func TestNilTimerTrack(t *testing.T) {
	var tm *Timer
	tm.Track("x")("ignored")
}
