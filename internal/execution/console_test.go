package execution

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyLine(t *testing.T) {
	cases := map[string]LineKind{
		"✓ PASSED - Test 1":                   LineSuccess,
		"✓ Compiled successfully (0ms)":       LineSuccess,
		"Summary: PASSED":                     LineSuccess,
		"✗ FAILED - Hidden Test":              LineFailure,
		"❌ Compilation Error: use a switch":    LineFailure,
		"one FAILED check":                    LineFailure,
		"> Running 2 test case(s)...":         LineInfo,
		"Output: 42":                          LinePlain,
		"":                                    LinePlain,
		"Results: 1/2 passed":                 LinePlain,
	}

	for line, want := range cases {
		require.Equal(t, want, ClassifyLine(line), line)
	}
}

func TestConsoleAppendClearAndListeners(t *testing.T) {
	var events []ConsoleEvent
	console := NewConsole([]string{"seed"}, func(event ConsoleEvent) {
		events = append(events, event)
	})

	console.Append("> Running code...")
	console.Append("> Running code...")
	require.Equal(t, []string{"seed", "> Running code...", "> Running code..."}, console.Lines())
	require.Equal(t, 3, console.Len())

	snapshot := console.Lines()
	snapshot[0] = "mutated"
	require.Equal(t, "seed", console.Lines()[0])

	console.Clear()
	require.Empty(t, console.Lines())

	require.Len(t, events, 3)
	require.Equal(t, ConsoleEvent{Type: ConsoleAppend, Line: "> Running code...", Kind: LineInfo}, events[0])
	require.Equal(t, ConsoleClear, events[2].Type)
}

func TestRenderConsole(t *testing.T) {
	rendered := RenderConsole([]string{"> go", "✗ FAILED - Test 1"})
	require.Equal(t, []ConsoleLine{
		{Text: "> go", Kind: LineInfo},
		{Text: "✗ FAILED - Test 1", Kind: LineFailure},
	}, rendered)
}
