package buildpipeline

import (
	"fmt"
	"time"
)

// Stage is one step of the compilation pipeline, in execution order.
type Stage string

const (
	StageParse     Stage = "parse"
	StageQualify   Stage = "qualify"
	StageTypecheck Stage = "typecheck"
	StageTypepass  Stage = "typepass"
	StageSizer     Stage = "sizer"
	StageLower     Stage = "lower"
	StageRefcount  Stage = "refcount"
)

// Stages lists every stage in pipeline order.
var Stages = []Stage{
	StageParse,
	StageQualify,
	StageTypecheck,
	StageTypepass,
	StageSizer,
	StageLower,
	StageRefcount,
}

// Index returns the position of s in Stages, or -1.
func (s Stage) Index() int {
	for i, st := range Stages {
		if st == s {
			return i
		}
	}
	return -1
}

// ParseStage accepts a stage name; "" means the whole pipeline.
func ParseStage(s string) (Stage, error) {
	if s == "" {
		return StageRefcount, nil
	}
	// историческое имя из ранних флагов
	if s == "type_check" {
		return StageTypecheck, nil
	}
	st := Stage(s)
	if st.Index() < 0 {
		return "", fmt.Errorf("unknown stage %q (expected one of %v)", s, Stages)
	}
	return st, nil
}

// Status captures progress state within a stage.
type Status string

const (
	StatusQueued  Status = "queued"
	StatusWorking Status = "working"
	StatusDone    Status = "done"
	StatusError   Status = "error"
	// StatusCached: the unit was answered from the disk cache.
	StatusCached Status = "cached"
)

// Event reports progress for a file, or for the whole build when File is empty.
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}
