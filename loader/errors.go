package loader

// Kind identifies which stage of a run gave up.
type Kind int

const (
	KindUsage Kind = iota + 1
	KindPrivilege
	KindConfig
	KindScriptWrite
	KindSpawn
	KindToolUnavailable
	KindToolError
	KindHotReset
)

// RunError is the one error shape a run produces. Every fatal
// condition propagates as a RunError to the exit boundary in cmd,
// which prints the message and exits nonzero.
type RunError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *RunError) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *RunError) Unwrap() error { return e.Err }
