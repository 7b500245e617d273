package types

type RunState int

const (
	Idle RunState = iota + 1
	Programming
	Resetting
	Done
	Failed
)

type RunStates struct {
	State     RunState `json:"state"`
	Bitstream string   `json:"bitstream"`
	Outcome   string   `json:"outcome"`
	Detail    string   `json:"detail,omitempty"`
	Runs      int      `json:"runs"`
	LastRun   int64    `json:"lastrun"`
}

type LoaderRunStatus struct {
	Run        *RunStates `json:"run"`
	LoaderUp   bool       `json:"loaderUp"`
	LoaderDown bool       `json:"loaderDown"`
	Time       int64      `json:"time"`
}
type LoaderStatus struct {
	Status *LoaderRunStatus `json:"status"`
}
