// Package input registers the "input" native: reads one line from standard
// input, returning it as a Number if it looks like one, String otherwise.
package input

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/xirelogy/go-ember/internal/bytecode"
	"github.com/xirelogy/go-ember/internal/runtime"
)

var reader = bufio.NewReader(os.Stdin)

func init() {
	runtime.Register(runtime.Spec{Name: "input", Handler: run})
}

func run(argc int, args []bytecode.Value) (bytecode.Value, error) {
	line, _ := reader.ReadString('\n')
	line = strings.TrimRight(line, "\r\n")

	if len(line) > 0 && line[0] >= '0' && line[0] <= '9' {
		if n, err := strconv.ParseFloat(line, 64); err == nil {
			return bytecode.Number(n), nil
		}
	}
	return bytecode.String(line), nil
}
