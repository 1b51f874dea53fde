package optimize

import (
	"math/rand"

	"gonum.org/v1/gonum/stat"

	"phylovi.dev/treevi/internal/model"
)

const (
	// bumpWindow is how many recent ELBO estimates feed the trend check.
	bumpWindow = 10
	// bumpFactor shrinks the step size when the trend regresses.
	bumpFactor = 0.5
	// bumpMinStepSize is the floor below which the step size stops shrinking.
	bumpMinStepSize = 1e-4
)

// bump is the same ascent rule as simple, plus step-size control: when the
// mean ELBO of the recent window drops below that of the window before it,
// the base step size is bumped down.
type bump struct {
	rmsUpdater
	history []float64
}

func newBump(m model.ScalarModel, rng *rand.Rand) *bump {
	return &bump{rmsUpdater: newRMSUpdater(m, rng, defaultStepSize)}
}

func (o *bump) GradientStep(logPost model.LogPosteriorFunc, gradLogPost model.GradLogPosteriorFunc) bool {
	elbo, ok := o.tryStep(logPost, gradLogPost)
	if !ok {
		return false
	}
	o.history = append(o.history, elbo)
	if len(o.history) >= 2*bumpWindow {
		recent := o.history[len(o.history)-bumpWindow:]
		previous := o.history[len(o.history)-2*bumpWindow : len(o.history)-bumpWindow]
		if stat.Mean(recent, nil) < stat.Mean(previous, nil) && o.stepSize > bumpMinStepSize {
			o.stepSize *= bumpFactor
			o.history = o.history[:0]
		}
	}
	return true
}
