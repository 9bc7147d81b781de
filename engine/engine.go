package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"go.uber.org/zap"
)

// Default resource budgets.
const (
	DefaultTimeout        = 30 * time.Second
	DefaultMaxOutputBytes = 256 * 1024
)

// Engine executes user scripts. An Engine is stateless between runs and
// safe for concurrent use; all per-run state lives on the stack of Run.
type Engine struct {
	logger         *zap.Logger
	defaultTimeout time.Duration
	maxOutputBytes int
	maxSteps       uint64
}

// Option configures an Engine.
type Option func(*Engine)

// WithDefaultTimeout sets the budget used when Run is given a
// non-positive timeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.defaultTimeout = d
		}
	}
}

// WithMaxOutputBytes caps the captured stdout size.
func WithMaxOutputBytes(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxOutputBytes = n
		}
	}
}

// WithMaxSteps sets a deterministic interpreter step budget in addition to
// the wall clock. Zero means unlimited.
func WithMaxSteps(n uint64) Option {
	return func(e *Engine) {
		e.maxSteps = n
	}
}

// New creates an Engine.
func New(logger *zap.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Engine{
		logger:         logger,
		defaultTimeout: DefaultTimeout,
		maxOutputBytes: DefaultMaxOutputBytes,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// fileOptions enables the dialect features scripts rely on: while loops
// and control flow at top level, global reassignment (so a later
// assignment overrides an earlier one, matching sequential execution), set
// literals and recursion.
var fileOptions = &syntax.FileOptions{
	Set:             true,
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
	Recursion:       true,
}

// Run executes script against a private copy of env under the given
// wall-clock budget (the engine default if timeout is not positive). It
// always returns a well-formed Result and never panics; the caller's env
// and script are never modified.
func (e *Engine) Run(ctx context.Context, script string, env *Environment, timeout time.Duration) (res Result) {
	start := time.Now()
	res = Result{RunID: uuid.NewString(), Status: StatusFailure}

	defer func() {
		res.Duration = time.Since(start)
		if r := recover(); r != nil {
			res.Status = StatusFailure
			res.Err = &RunError{Kind: KindUnknown, Message: fmt.Sprintf("internal execution failure: %v", r)}
			e.logger.Error("run panicked", zap.String("run_id", res.RunID), zap.Any("panic", r))
		}
	}()

	if timeout <= 0 {
		timeout = e.defaultTimeout
	}
	if strings.TrimSpace(script) == "" {
		res.Err = &RunError{Kind: KindSyntaxError, Message: "empty script"}
		return res
	}
	if env == nil || !env.Has(env.DatasetName()) {
		res.Err = &RunError{Kind: KindUnknown, Message: "environment is missing the dataset binding"}
		return res
	}

	file, err := fileOptions.Parse("script", script, 0)
	if err != nil {
		res.Err = &RunError{Kind: KindSyntaxError, Message: err.Error()}
		return res
	}

	predeclared := env.snapshot()
	prog, err := starlark.FileProgram(file, predeclared.Has)
	if err != nil {
		// Resolution failures (undefined names, misuse of keywords) are
		// static errors, reported like parse errors.
		res.Err = &RunError{Kind: KindSyntaxError, Message: err.Error()}
		return res
	}

	out := &outputBuffer{limit: e.maxOutputBytes}
	thread := &starlark.Thread{
		Name: "run-" + res.RunID,
		Print: func(_ *starlark.Thread, msg string) {
			out.WriteLine(msg)
		},
	}
	if e.maxSteps > 0 {
		thread.SetMaxExecutionSteps(e.maxSteps)
	}

	// Timeout-as-cancellation: the watchdog force-cancels the interpreter,
	// it does not set a flag the script could ignore.
	var timedOut, ctxDone atomic.Bool
	watchdog := time.AfterFunc(timeout, func() {
		timedOut.Store(true)
		thread.Cancel(reasonWallClock)
	})
	defer watchdog.Stop()
	stopCtxWatch := context.AfterFunc(ctx, func() {
		ctxDone.Store(true)
		thread.Cancel(reasonCtxDone)
	})
	defer stopCtxWatch()

	e.logger.Debug("executing script",
		zap.String("run_id", res.RunID),
		zap.Int("script_bytes", len(script)),
		zap.Duration("timeout", timeout))

	globals, runErr := prog.Init(thread, predeclared)
	watchdog.Stop()

	// Partial output captured before an abort is preserved.
	res.Stdout = out.String()

	if runErr != nil {
		abort := abortState{
			timedOut:      timedOut.Load(),
			ctxDone:       ctxDone.Load(),
			stepsExceeded: e.maxSteps > 0 && thread.ExecutionSteps() >= e.maxSteps,
		}
		res.Err = e.classifyError(ctx, runErr, abort, timeout)
		e.logger.Info("run failed",
			zap.String("run_id", res.RunID),
			zap.String("kind", string(res.Err.Kind)),
			zap.String("message", res.Err.Message))
		return res
	}

	res.Status = StatusSuccess
	res.Tables, res.Figures, res.Variables = classifyGlobals(globals, bindingOrder(file))

	e.logger.Info("run succeeded",
		zap.String("run_id", res.RunID),
		zap.Int("stdout_bytes", len(res.Stdout)),
		zap.Int("tables", len(res.Tables)),
		zap.Int("figures", len(res.Figures)),
		zap.Int("variables", len(res.Variables)))
	return res
}

// Cancellation reasons passed to the interpreter by the run's watchers.
const (
	reasonWallClock = "wall-clock budget exceeded"
	reasonCtxDone   = "run context done"
)

// abortState records which of the run's own abort mechanisms fired. Abort
// causes are decided from this state, never from error text alone: a script
// can put any words it likes in its own failure messages.
type abortState struct {
	timedOut      bool
	ctxDone       bool
	stepsExceeded bool
}

// classifyError maps an interpreter failure onto the error taxonomy.
func (e *Engine) classifyError(ctx context.Context, err error, abort abortState, timeout time.Duration) *RunError {
	var perm *PermissionError
	if errors.As(err, &perm) {
		return &RunError{
			Kind:      KindPermissionDenied,
			Message:   perm.Error(),
			Traceback: backtrace(err),
		}
	}

	// A watcher flag alone is not enough: the script may have failed on its
	// own just as the watcher fired, so the error must also carry the
	// watcher's cancellation reason.
	msg := err.Error()
	switch {
	case abort.timedOut && strings.Contains(msg, reasonWallClock):
		return &RunError{
			Kind:    KindTimeout,
			Message: fmt.Sprintf("execution exceeded the %s budget", timeout),
		}
	case abort.ctxDone && strings.Contains(msg, reasonCtxDone):
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return &RunError{Kind: KindTimeout, Message: "execution exceeded the caller's deadline"}
		}
		return &RunError{Kind: KindUnknown, Message: "execution abandoned: " + ctx.Err().Error()}
	case abort.stepsExceeded:
		// The step budget aborts the thread the same way the wall clock
		// does; both are execution budgets.
		return &RunError{Kind: KindTimeout, Message: msg}
	}

	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return &RunError{
			Kind:      KindRuntimeError,
			Message:   evalErr.Msg,
			Traceback: evalErr.Backtrace(),
		}
	}

	return &RunError{Kind: KindUnknown, Message: err.Error()}
}

// backtrace extracts the script-local stack from an evaluation error, if
// there is one. Host frames never appear: the interpreter's stack only
// contains the script's own calls.
func backtrace(err error) string {
	var evalErr *starlark.EvalError
	if errors.As(err, &evalErr) {
		return evalErr.Backtrace()
	}
	return ""
}

// outputBuffer collects printed lines up to a size cap. It is locked so a
// forced abort can never observe a partially flushed write.
type outputBuffer struct {
	mu        sync.Mutex
	buf       strings.Builder
	limit     int
	truncated bool
}

func (o *outputBuffer) WriteLine(msg string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.truncated {
		return
	}
	if o.buf.Len()+len(msg)+1 > o.limit {
		remain := o.limit - o.buf.Len()
		if remain > 0 {
			o.buf.WriteString(msg[:min(remain, len(msg))])
		}
		o.buf.WriteString("\n... [output truncated]\n")
		o.truncated = true
		return
	}
	o.buf.WriteString(msg)
	o.buf.WriteByte('\n')
}

func (o *outputBuffer) String() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.buf.String()
}
