package ui

// StatusMsg replaces the status line under the spinner
type StatusMsg string

// DoneMsg carries the outcome of the task run behind a Progress model
type DoneMsg struct {
	Result interface{}
	Err    error
}

