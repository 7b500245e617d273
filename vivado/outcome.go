package vivado

import "strings"

type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota + 1
	OutcomeUnavailable
	OutcomeError
)

// Outcome is the classification of one toolchain run. Line carries the
// offending log line for OutcomeError.
type Outcome struct {
	Kind OutcomeKind
	Line string
}

const errorMarker = "ERROR:"

// A batch run that actually started always prints at least a banner
// and a completion marker. Less output than that means the executable
// path was wrong or the tool died before doing anything.
const minBatchLines = 3

// Classify scans one run's captured output. The first line whose first
// space-delimited word is ERROR: wins; later errors in the same run
// are not reported.
func Classify(lines []string) Outcome {
	if len(lines) < minBatchLines {
		return Outcome{Kind: OutcomeUnavailable}
	}

	for _, line := range lines {
		firstWord := line
		if idx := strings.Index(line, " "); idx >= 0 {
			firstWord = line[:idx]
		}
		if firstWord == errorMarker {
			return Outcome{Kind: OutcomeError, Line: line}
		}
	}
	return Outcome{Kind: OutcomeSuccess}
}
