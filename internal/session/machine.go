package session

import (
	"context"

	"github.com/noah-isme/gema-ide-api/internal/execution"
)

// Machine applies run transitions by driving the execution runner.
type Machine struct {
	runner *execution.Runner
}

// NewMachine wires the transitions to a runner.
func NewMachine(runner *execution.Runner) *Machine {
	return &Machine{runner: runner}
}

// Run evaluates the state's code against the cases selected by mode. An empty
// selection leaves the state untouched and reports ran=false.
func (m *Machine) Run(ctx context.Context, state State, mode Mode, cases []execution.TestCase, listeners ...execution.ConsoleListener) (State, bool, error) {
	selected := CasesFor(mode, cases)
	if len(selected) == 0 {
		return state, false, nil
	}

	running, err := BeginRun(state)
	if err != nil {
		return state, false, err
	}

	console := execution.NewConsole(running.Console, listeners...)
	results := m.runner.RunSuite(ctx, console, running.Code, selected)
	return CompleteRun(running, mode, console.Lines(), results), true, nil
}

// Execute runs the state's code once against a custom input. Results are left as they were.
func (m *Machine) Execute(ctx context.Context, state State, input string, listeners ...execution.ConsoleListener) (State, execution.Result, error) {
	running, err := BeginRun(state)
	if err != nil {
		return state, execution.Result{}, err
	}

	console := execution.NewConsole(running.Console, listeners...)
	result := m.runner.RunSingle(ctx, console, running.Code, input)

	running.Running = false
	running.Console = console.Lines()
	return running, result, nil
}
