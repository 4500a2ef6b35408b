// Package qrunner executes configured runs by launching an external trainer
// command with the resolved arguments.
package qrunner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/quatton/qwex-trainer/pkg/qlog"
	"github.com/quatton/qwex-trainer/pkg/qtrain"
)

// Record is written to run.json in the run directory after every execution.
type Record struct {
	ExecutionID  string                 `json:"execution_id"`
	DescriptorID string                 `json:"descriptor_id"`
	ConfigRef    string                 `json:"config_ref"`
	Arguments    qtrain.ArgumentSet     `json:"arguments"`
	Command      string                 `json:"command"`
	Args         []string               `json:"args"`
	Status       qtrain.ExecutionStatus `json:"status"`
	ExitCode     *int                   `json:"exit_code,omitempty"`
	Error        string                 `json:"error,omitempty"`
	StartedAt    time.Time              `json:"started_at"`
	FinishedAt   time.Time              `json:"finished_at"`
	LogsPath     string                 `json:"logs_path"`
	StderrPath   string                 `json:"stderr_path"`
}

// CommandExecutor runs a descriptor by invoking Command synchronously.
// Each argument is passed as --<field>=<value> after the fixed Args and is
// also exported as TRAINER_<FIELD>.
type CommandExecutor struct {
	command    string
	args       []string
	baseDir    string
	workingDir string
	log        *qlog.Logger
	now        func() time.Time
}

// CommandExecutorOption configures a CommandExecutor
type CommandExecutorOption func(*CommandExecutor)

// WithArgs sets fixed arguments placed before the run arguments.
func WithArgs(args ...string) CommandExecutorOption {
	return func(e *CommandExecutor) {
		e.args = args
	}
}

// WithBaseDir sets the directory under which .qwex/runs is created.
func WithBaseDir(baseDir string) CommandExecutorOption {
	return func(e *CommandExecutor) {
		e.baseDir = baseDir
	}
}

// WithWorkingDir sets the command's working directory.
func WithWorkingDir(dir string) CommandExecutorOption {
	return func(e *CommandExecutor) {
		e.workingDir = dir
	}
}

func WithLogger(log *qlog.Logger) CommandExecutorOption {
	return func(e *CommandExecutor) {
		e.log = log
	}
}

func NewCommandExecutor(command string, opts ...CommandExecutorOption) *CommandExecutor {
	cwd, _ := os.Getwd()
	e := &CommandExecutor{
		command: command,
		baseDir: cwd,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = qlog.NewDefault()
	}
	return e
}

func (e *CommandExecutor) runsDir() string {
	return filepath.Join(e.baseDir, ".qwex", "runs")
}

// Execute blocks until the command exits. A non-zero exit is reported as an
// ExecutionFailed result, not an error; errors are reserved for failures to
// prepare or start the command and for cancellation.
func (e *CommandExecutor) Execute(ctx context.Context, d qtrain.RunDescriptor) (qtrain.ExecutionResult, error) {
	if err := ctx.Err(); err != nil {
		return qtrain.ExecutionResult{}, err
	}

	execID, err := uuid.NewV7()
	if err != nil {
		return qtrain.ExecutionResult{}, fmt.Errorf("failed to generate execution ID: %w", err)
	}

	runDir := filepath.Join(e.runsDir(), execID.String())
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return qtrain.ExecutionResult{}, fmt.Errorf("failed to create run directory: %w", err)
	}

	rec := &Record{
		ExecutionID:  execID.String(),
		DescriptorID: d.ID,
		ConfigRef:    d.ConfigRef,
		Arguments:    d.Arguments,
		Command:      e.command,
		Args:         append(append([]string{}, e.args...), Flags(d.Arguments)...),
		LogsPath:     filepath.Join(runDir, "stdout.log"),
		StderrPath:   filepath.Join(runDir, "stderr.log"),
	}

	stdout, err := os.Create(rec.LogsPath)
	if err != nil {
		return qtrain.ExecutionResult{}, fmt.Errorf("failed to create log file: %w", err)
	}
	defer stdout.Close()

	stderr, err := os.Create(rec.StderrPath)
	if err != nil {
		return qtrain.ExecutionResult{}, fmt.Errorf("failed to create stderr file: %w", err)
	}
	defer stderr.Close()

	cmd := exec.CommandContext(ctx, e.command, rec.Args...)
	cmd.Dir = e.workingDir
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.Env = append(os.Environ(), Env(d.Arguments)...)
	cmd.Env = append(cmd.Env,
		"QWEX_RUN_ID="+d.ID,
		"QWEX_RUN_DIR="+runDir,
		"QWEX_CONFIG_REF="+d.ConfigRef,
	)

	rec.StartedAt = e.now()
	e.log.Info("executing run", "id", d.ID, "command", e.command, "run_dir", runDir, "arguments", d.Arguments)
	e.log.Info("model is running", "id", d.ID)

	runErr := cmd.Run()
	rec.FinishedAt = e.now()

	var exitErr *exec.ExitError
	switch {
	case runErr == nil:
		code := 0
		rec.ExitCode = &code
		rec.Status = qtrain.ExecutionCompleted
	case ctx.Err() != nil:
		rec.Status = qtrain.ExecutionFailed
		rec.Error = ctx.Err().Error()
	case errors.As(runErr, &exitErr):
		code := exitErr.ExitCode()
		rec.ExitCode = &code
		rec.Status = qtrain.ExecutionFailed
	default:
		rec.Status = qtrain.ExecutionFailed
		rec.Error = runErr.Error()
	}

	if err := saveRecord(runDir, rec); err != nil {
		e.log.Warn("failed to write run record", "run_dir", runDir, "error", err)
	}

	if runErr != nil && ctx.Err() != nil {
		return qtrain.ExecutionResult{}, ctx.Err()
	}
	if rec.ExitCode == nil {
		return qtrain.ExecutionResult{}, fmt.Errorf("failed to start %s: %w", e.command, runErr)
	}

	e.log.Info("run finished", "id", d.ID, "status", rec.Status, "exit_code", *rec.ExitCode)

	return qtrain.ExecutionResult{
		DescriptorID: d.ID,
		ConfigRef:    d.ConfigRef,
		Arguments:    d.Arguments,
		Status:       rec.Status,
		StartedAt:    rec.StartedAt,
		FinishedAt:   rec.FinishedAt,
		ExitCode:     rec.ExitCode,
		RunDir:       runDir,
	}, nil
}

// Flags renders args as command-line flags in canonical field order.
func Flags(args qtrain.ArgumentSet) []string {
	out := make([]string, 0, len(qtrain.Fields()))
	for _, f := range qtrain.Fields() {
		out = append(out, fmt.Sprintf("--%s=%s", f, fieldValue(args, f)))
	}
	return out
}

// Env renders args as TRAINER_<FIELD>=value pairs.
func Env(args qtrain.ArgumentSet) []string {
	out := make([]string, 0, len(qtrain.Fields()))
	for _, f := range qtrain.Fields() {
		out = append(out, fmt.Sprintf("TRAINER_%s=%s", strings.ToUpper(f.String()), fieldValue(args, f)))
	}
	return out
}

func fieldValue(args qtrain.ArgumentSet, f qtrain.Field) string {
	switch f {
	case qtrain.FieldTotalRound:
		return strconv.Itoa(args.TotalRound)
	case qtrain.FieldStartRound:
		return strconv.Itoa(args.StartRound)
	case qtrain.FieldDataSize:
		return strconv.Itoa(args.DataSize)
	case qtrain.FieldMode:
		return args.Mode
	}
	return ""
}

// ReadRecord loads the run.json written into runDir.
func ReadRecord(runDir string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(runDir, "run.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read run record: %w", err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to parse run record: %w", err)
	}
	return &rec, nil
}

func saveRecord(runDir string, rec *Record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run record: %w", err)
	}
	return os.WriteFile(filepath.Join(runDir, "run.json"), data, 0o644)
}

var _ qtrain.Executor = (*CommandExecutor)(nil)
