// Package qtrain resolves training run descriptors from a config reference
// plus caller overrides and executes the most recently configured one.
//
// A Trainer moves between two states. It starts Unconfigured; any successful
// Configure moves it to Configured and replaces the registered descriptor.
// Execute runs whatever descriptor is registered and fails with
// qerr.CodeUnconfigured when there is none. Execute never clears the slot.
package qtrain

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/quatton/qwex-trainer/pkg/qerr"
	"github.com/quatton/qwex-trainer/pkg/qlog"
)

// Trainer owns the configure/execute protocol over a Registry.
type Trainer struct {
	loader     ConfigLoader
	registry   *Registry
	executor   Executor
	log        *qlog.Logger
	strict     bool
	defaultRef string
	now        func() time.Time
}

// Option configures a Trainer
type Option func(*Trainer)

// WithStrictOverrides makes a malformed override fail the configure call
// instead of falling back to the default.
func WithStrictOverrides(strict bool) Option {
	return func(t *Trainer) {
		t.strict = strict
	}
}

// WithLogger sets the diagnostic logger.
func WithLogger(log *qlog.Logger) Option {
	return func(t *Trainer) {
		t.log = log
	}
}

// WithExecutor replaces the default LogExecutor.
func WithExecutor(e Executor) Option {
	return func(t *Trainer) {
		t.executor = e
	}
}

// WithRegistry shares an existing registry instead of creating one.
func WithRegistry(r *Registry) Option {
	return func(t *Trainer) {
		t.registry = r
	}
}

// WithDefaultConfigRef sets the reference used when a request carries none.
func WithDefaultConfigRef(ref string) Option {
	return func(t *Trainer) {
		if ref = strings.TrimSpace(ref); ref != "" {
			t.defaultRef = ref
		}
	}
}

func NewTrainer(loader ConfigLoader, opts ...Option) *Trainer {
	t := &Trainer{
		loader:     loader,
		defaultRef: DefaultConfigRef,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.loader == nil {
		t.loader = NewStaticLoader()
	}
	if t.registry == nil {
		t.registry = NewRegistry()
	}
	if t.log == nil {
		t.log = qlog.NewDefault()
	}
	if t.executor == nil {
		t.executor = NewLogExecutor(t.log)
	}
	return t
}

// Configure resolves a descriptor for ref and registers it, replacing any
// descriptor configured earlier. An empty ref selects the default reference.
func (t *Trainer) Configure(ctx context.Context, ref string, overrides Overrides) (RunDescriptor, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		ref = t.defaultRef
	}

	defaults, err := t.loader.Load(ctx, ref)
	if err != nil {
		return RunDescriptor{}, err
	}

	args, rejected := mergeArguments(defaults, overrides)
	if len(rejected) > 0 {
		if t.strict {
			errs := make([]error, len(rejected))
			for i, r := range rejected {
				errs[i] = r
			}
			return RunDescriptor{}, qerr.New(qerr.CodeInvalidArgument, errors.Join(errs...))
		}
		for _, r := range rejected {
			t.log.Warn("ignoring override, using default", "field", r.Field, "value", r.Value, "reason", r.Err)
		}
	}

	if err := args.Validate(); err != nil {
		return RunDescriptor{}, qerr.New(qerr.CodeInvalidArgument, err)
	}

	d, err := newDescriptor(ref, args, t.now())
	if err != nil {
		return RunDescriptor{}, err
	}

	if prev := t.registry.Store(d); prev != nil {
		t.log.Debug("replaced configured run", "previous_id", prev.ID)
	}
	t.log.Info("run configured", "id", d.ID, "config_ref", d.ConfigRef, "arguments", d.Arguments)

	return d, nil
}

// Execute runs the registered descriptor.
func (t *Trainer) Execute(ctx context.Context) (ExecutionResult, error) {
	d, ok := t.registry.Current()
	if !ok {
		t.log.Error("execute requested before any run was configured")
		return ExecutionResult{}, errUnconfigured()
	}
	return t.executor.Execute(ctx, d)
}

// Current returns the registered descriptor, or an Unconfigured error.
func (t *Trainer) Current() (RunDescriptor, error) {
	d, ok := t.registry.Current()
	if !ok {
		return RunDescriptor{}, errUnconfigured()
	}
	return d, nil
}

func (t *Trainer) State() State {
	return t.registry.State()
}

func (t *Trainer) DefaultConfigRef() string {
	return t.defaultRef
}

func errUnconfigured() error {
	return qerr.Newf(qerr.CodeUnconfigured, "no run has been configured; submit a configure request first")
}
