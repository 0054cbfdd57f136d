// Package sandbox runs untrusted JavaScript in an isolated goja runtime.
// The runtime gets a console capture and nothing else: no filesystem, no
// network, no process environment, no host state.
package sandbox

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dop251/goja"
)

var (
	// ErrTimeout is returned when a script exceeds the wall-clock budget.
	ErrTimeout = errors.New("execution timed out")
)

// Result carries everything the console wrote plus the terminal error, if
// any. A script that throws still keeps the output it produced before
// throwing captured in Output.
type Result struct {
	Output string
	Err    error
}

type Runner struct {
	timeout time.Duration
}

func NewRunner(timeout time.Duration) *Runner {
	return &Runner{timeout: timeout}
}

// Run executes code in a fresh VM. It never panics and never exceeds the
// configured budget by more than scheduling jitter; on timeout or a runtime
// fault the error is reported in the Result, not raised.
func (r *Runner) Run(code string) Result {
	vm := goja.New()

	var out strings.Builder
	console := vm.NewObject()
	console.Set("log", captureFunc(&out, ""))
	console.Set("error", captureFunc(&out, "ERROR: "))
	console.Set("warn", captureFunc(&out, "WARNING: "))
	vm.Set("console", console)

	timer := time.AfterFunc(r.timeout, func() {
		vm.Interrupt(ErrTimeout)
	})
	defer timer.Stop()

	_, err := func() (v goja.Value, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = fmt.Errorf("runtime panic: %v", p)
			}
		}()
		return vm.RunString(code)
	}()

	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return Result{Output: out.String(), Err: fmt.Errorf("%w after %s", ErrTimeout, r.timeout)}
		}
		var exception *goja.Exception
		if errors.As(err, &exception) {
			return Result{Output: out.String(), Err: errors.New(exceptionMessage(exception))}
		}
		return Result{Output: out.String(), Err: err}
	}

	return Result{Output: out.String()}
}

// captureFunc builds a console method that space-joins its arguments,
// pretty-printing object values, and appends a newline.
func captureFunc(out *strings.Builder, prefix string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, 0, len(call.Arguments))
		for _, arg := range call.Arguments {
			parts = append(parts, formatValue(arg))
		}
		out.WriteString(prefix + strings.Join(parts, " ") + "\n")
		return goja.Undefined()
	}
}

func formatValue(v goja.Value) string {
	if obj, ok := v.(*goja.Object); ok {
		if data, err := json.MarshalIndent(obj.Export(), "", "  "); err == nil {
			return string(data)
		}
	}
	return v.String()
}

// exceptionMessage strips goja's trailing stack frames so users see the
// message the script threw, not interpreter internals.
func exceptionMessage(ex *goja.Exception) string {
	msg := ex.Error()
	if idx := strings.Index(msg, "\n"); idx != -1 {
		msg = msg[:idx]
	}
	return msg
}
