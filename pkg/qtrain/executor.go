package qtrain

import (
	"context"
	"time"

	"github.com/quatton/qwex-trainer/pkg/qlog"
)

// ExecutionStatus is the outcome of executing a descriptor.
type ExecutionStatus string

const (
	ExecutionCompleted ExecutionStatus = "completed"
	ExecutionFailed    ExecutionStatus = "failed"
)

// ExecutionResult reports one execution of a registered descriptor.
type ExecutionResult struct {
	DescriptorID string          `json:"descriptor_id"`
	ConfigRef    string          `json:"config_ref"`
	Arguments    ArgumentSet     `json:"arguments"`
	Status       ExecutionStatus `json:"status"`
	StartedAt    time.Time       `json:"started_at"`
	FinishedAt   time.Time       `json:"finished_at"`
	ExitCode     *int            `json:"exit_code,omitempty"`
	RunDir       string          `json:"run_dir,omitempty"`
}

// Executor runs a descriptor.
type Executor interface {
	Execute(ctx context.Context, d RunDescriptor) (ExecutionResult, error)
}

// LogExecutor simulates a training run: it reports the arguments it was
// given and completes immediately without doing any computation.
type LogExecutor struct {
	log *qlog.Logger
	now func() time.Time
}

func NewLogExecutor(log *qlog.Logger) *LogExecutor {
	if log == nil {
		log = qlog.NewDefault()
	}
	return &LogExecutor{log: log, now: time.Now}
}

func (e *LogExecutor) Execute(ctx context.Context, d RunDescriptor) (ExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return ExecutionResult{}, err
	}

	started := e.now()
	e.log.Info("executing run", "id", d.ID, "config_ref", d.ConfigRef, "arguments", d.Arguments)
	e.log.Info("model is running", "id", d.ID)

	return ExecutionResult{
		DescriptorID: d.ID,
		ConfigRef:    d.ConfigRef,
		Arguments:    d.Arguments,
		Status:       ExecutionCompleted,
		StartedAt:    started,
		FinishedAt:   e.now(),
	}, nil
}

var _ Executor = (*LogExecutor)(nil)
