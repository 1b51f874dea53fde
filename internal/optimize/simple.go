package optimize

import (
	"math/rand"

	"phylovi.dev/treevi/internal/model"
)

// simple is plain RMS-normalized stochastic gradient ascent with a fixed
// base step size.
type simple struct {
	rmsUpdater
}

func newSimple(m model.ScalarModel, rng *rand.Rand) *simple {
	return &simple{rmsUpdater: newRMSUpdater(m, rng, defaultStepSize)}
}

func (o *simple) GradientStep(logPost model.LogPosteriorFunc, gradLogPost model.GradLogPosteriorFunc) bool {
	_, ok := o.tryStep(logPost, gradLogPost)
	return ok
}
