package vivado

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"os/exec"
)

// ErrSpawn marks a toolchain that could not be started at all, as
// opposed to one that ran and failed.
var ErrSpawn = errors.New("cannot start vivado")

// Runner invokes the vendor toolchain in non-interactive batch mode.
type Runner struct {
	Path string
}

// Run executes the toolchain against the script at scriptPath and
// returns its combined stdout/stderr, one string per line, in emission
// order with line terminators stripped. Blocks until the tool exits;
// there is no timeout, a hung tool hangs the caller.
//
// A nonzero exit is not an error here: the log still gets classified.
func (r *Runner) Run(scriptPath string) ([]string, error) {
	cmd := exec.Command(r.Path, "-nojournal", "-nolog", "-mode", "batch", "-source", scriptPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return nil, fmt.Errorf("%w: %v", ErrSpawn, err)
		}
	}

	var lines []string
	scanner := bufio.NewScanner(bytes.NewReader(out))
	scanner.Split(bufio.ScanLines)
	// Vivado dumps whole netlist paths onto one line at times; the
	// default 64K token limit would silently truncate the log.
	scanner.Buffer(make([]byte, 64*1024), 8*1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading output of %s: %v", r.Path, err)
	}
	return lines, nil
}
