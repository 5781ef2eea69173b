// Package clock registers the "clock" native: seconds since process start.
package clock

import (
	"time"

	"github.com/xirelogy/go-ember/internal/bytecode"
	"github.com/xirelogy/go-ember/internal/runtime"
)

var start = time.Now()

func init() {
	runtime.Register(runtime.Spec{Name: "clock", Handler: run})
}

func run(argc int, args []bytecode.Value) (bytecode.Value, error) {
	return bytecode.Number(time.Since(start).Seconds()), nil
}
