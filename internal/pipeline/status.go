package pipeline

// Status is the tagged outcome of a stage: the orchestrator halts on
// StatusFailed and continues on StatusDegraded.
type Status int

const (
	StatusSuccess Status = iota
	StatusDegraded
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusDegraded:
		return "degraded"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// StageResult is the outcome of one stage run. Errors never escape a stage
// boundary; they are converted into a result here.
type StageResult struct {
	Stage  string
	Status Status
	Reason string // why the stage degraded or failed
	Err    error  // underlying error for failed stages
}

func success(stage string) StageResult {
	return StageResult{Stage: stage, Status: StatusSuccess}
}

func degraded(stage, reason string) StageResult {
	return StageResult{Stage: stage, Status: StatusDegraded, Reason: reason}
}

func failed(stage string, err error) StageResult {
	return StageResult{Stage: stage, Status: StatusFailed, Reason: err.Error(), Err: err}
}
