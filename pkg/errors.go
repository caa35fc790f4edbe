package pkg

import "fmt"

// Stage identifies the pipeline stage that produced an error.
type Stage string

const (
	StageSpeech     Stage = "speech"
	StageClassify   Stage = "classify"
	StageRewrite    Stage = "rewrite"
	StageExtract    Stage = "extract"
	StageExecute    Stage = "execute"
	StageSummarize  Stage = "summarize"
	StageValidation Stage = "validation"
)

// ErrorKind partitions failures so the transport layer can map them to
// distinct status codes without inspecting message text.
type ErrorKind int

const (
	// KindClientError covers invalid input, including unrecognized intents.
	KindClientError ErrorKind = iota
	// KindInternal covers model failures and malformed model output in
	// stages that have no graceful fallback.
	KindInternal
	// KindBadGateway covers failures of the downstream execution service.
	KindBadGateway
)

// PipelineError carries the failing stage and kind alongside the cause.
type PipelineError struct {
	Stage Stage
	Kind  ErrorKind
	Err   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// NewPipelineError wraps err with its originating stage and kind.
func NewPipelineError(stage Stage, kind ErrorKind, err error) *PipelineError {
	return &PipelineError{Stage: stage, Kind: kind, Err: err}
}
