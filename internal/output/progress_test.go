package output

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/require"

	"phylovi.dev/treevi/internal/optimize"
)

func init() {
	// Pin the color profile so rendered output is stable regardless of the
	// terminal the tests run under.
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestNewStepProgressUIFallsBackWithoutTTY(t *testing.T) {
	// Test processes have no terminal attached.
	require.False(t, IsTTY())
	ui := NewStepProgressUI(NewSplog())
	require.IsType(t, &SimpleStepProgress{}, ui)
}

func TestTTYStepModelView(t *testing.T) {
	m := newTTYStepModel(5)

	view := m.View()
	require.Contains(t, view, "Gradient descent")
	require.NotContains(t, view, "ELBO")

	next, _ := m.Update(stepUpdateMsg{record: optimize.StepRecord{Step: 2, Elbo: -123.4567, StepSize: 0.1}})
	m = next.(*ttyStepModel)
	view = m.View()
	require.Contains(t, view, "step 2/5")
	require.Contains(t, view, "ELBO -123.4567")
	require.Contains(t, view, "step size 0.1")

	next, _ = m.Update(stepCompleteMsg{})
	m = next.(*ttyStepModel)
	require.True(t, m.done)
	view = m.View()
	require.Contains(t, view, "finished after 2 steps")
}

func TestTTYStepModelCompleteBeforeAnyStep(t *testing.T) {
	m := newTTYStepModel(5)
	next, _ := m.Update(stepCompleteMsg{})
	m = next.(*ttyStepModel)
	require.Empty(t, m.View())
}

func TestSimpleStepProgressDoesNotPanic(t *testing.T) {
	splog := NewSplog()
	defer splog.Close()

	p := NewSimpleStepProgress(splog)
	p.Start(3)
	p.UpdateStep(optimize.StepRecord{Step: 1, Elbo: -10, StepSize: 0.1})
	p.UpdateStep(optimize.StepRecord{Step: 2, Elbo: -9, StepSize: 0.1})
	p.Complete()
}
