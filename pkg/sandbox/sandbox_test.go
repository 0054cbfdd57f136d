package sandbox

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestRunCapturesConsole(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		wantOutput string
	}{
		{
			name:       "simple expression",
			code:       "console.log(1+1)",
			wantOutput: "2\n",
		},
		{
			name:       "string literal",
			code:       `console.log("hello")`,
			wantOutput: "hello\n",
		},
		{
			name:       "multiple arguments joined by space",
			code:       `console.log("a", "b", 3)`,
			wantOutput: "a b 3\n",
		},
		{
			name:       "error prefix",
			code:       `console.error("boom")`,
			wantOutput: "ERROR: boom\n",
		},
		{
			name:       "warn prefix",
			code:       `console.warn("careful")`,
			wantOutput: "WARNING: careful\n",
		},
		{
			name:       "multiple lines",
			code:       "console.log(1); console.log(2);",
			wantOutput: "1\n2\n",
		},
		{
			name:       "no output",
			code:       "var x = 40 + 2;",
			wantOutput: "",
		},
	}

	runner := NewRunner(2 * time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := runner.Run(tt.code)
			if result.Err != nil {
				t.Fatalf("Run(%q) error = %v, want nil", tt.code, result.Err)
			}
			if result.Output != tt.wantOutput {
				t.Errorf("Output = %q, want %q", result.Output, tt.wantOutput)
			}
		})
	}
}

func TestRunSerializesObjects(t *testing.T) {
	runner := NewRunner(2 * time.Second)

	result := runner.Run(`console.log({a: 1})`)
	if result.Err != nil {
		t.Fatalf("unexpected error: %v", result.Err)
	}
	if !strings.Contains(result.Output, `"a": 1`) {
		t.Errorf("Output = %q, want pretty-printed object", result.Output)
	}
}

func TestRunReportsThrownErrors(t *testing.T) {
	runner := NewRunner(2 * time.Second)

	result := runner.Run(`throw new Error("deliberate")`)
	if result.Err == nil {
		t.Fatal("expected an error result")
	}
	if !strings.Contains(result.Err.Error(), "deliberate") {
		t.Errorf("Err = %q, want the thrown message", result.Err.Error())
	}
}

func TestRunKeepsOutputBeforeThrow(t *testing.T) {
	runner := NewRunner(2 * time.Second)

	result := runner.Run(`console.log("before"); throw new Error("after")`)
	if result.Err == nil {
		t.Fatal("expected an error result")
	}
	if result.Output != "before\n" {
		t.Errorf("Output = %q, want %q", result.Output, "before\n")
	}
}

func TestRunSyntaxError(t *testing.T) {
	runner := NewRunner(2 * time.Second)

	result := runner.Run(`this is not javascript`)
	if result.Err == nil {
		t.Fatal("expected an error result for invalid syntax")
	}
}

func TestRunTimeoutOnInfiniteLoop(t *testing.T) {
	runner := NewRunner(200 * time.Millisecond)

	start := time.Now()
	result := runner.Run(`while(true){}`)
	elapsed := time.Since(start)

	if !errors.Is(result.Err, ErrTimeout) {
		t.Fatalf("Err = %v, want ErrTimeout", result.Err)
	}
	if elapsed > 5*time.Second {
		t.Fatalf("Run took %s, expected it to return shortly after the budget", elapsed)
	}
}

func TestRunDeniesHostAccess(t *testing.T) {
	runner := NewRunner(2 * time.Second)

	// None of the Node host globals exist inside the sandbox.
	for _, code := range []string{
		`require("fs")`,
		`process.env`,
		`fetch("http://localhost")`,
	} {
		result := runner.Run(code)
		if result.Err == nil {
			t.Errorf("Run(%q) succeeded, want a reference error", code)
		}
	}
}
