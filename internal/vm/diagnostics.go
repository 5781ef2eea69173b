package vm

import (
	"fmt"
	"strings"
)

// FrameTrace records one active call frame's position at the moment a
// runtime error was raised.
type FrameTrace struct {
	FunctionName string
	Line         int
}

// RuntimeError is returned when the VM aborts mid-execution. Frames is
// ordered newest-first, matching the stderr stack-trace format.
type RuntimeError struct {
	Message string
	Frames  []FrameTrace
}

func (e *RuntimeError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	for _, f := range e.Frames {
		fmt.Fprintf(&b, "\n[line %d] in %s", f.Line, f.FunctionName)
	}
	return b.String()
}

// CompileErrors aggregates every message the compiler reported during one
// compilation pass (panic-mode synchronization lets more than one surface).
type CompileErrors struct {
	Messages []string
}

func (e *CompileErrors) Error() string {
	return strings.Join(e.Messages, "\n")
}
