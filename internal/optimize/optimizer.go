// Package optimize implements the gradient-step rules that update a
// variational model's parameters. Optimizers own the step bookkeeping and
// the opt-trace; the ELBO estimate itself comes from the model.
package optimize

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"

	"phylovi.dev/treevi/internal/errors"
	"phylovi.dev/treevi/internal/model"
)

// StepRecord is one row of the optimization trace.
type StepRecord struct {
	Step     int
	Elbo     float64
	StepSize float64
}

// Optimizer takes gradient steps against a posterior handed to it as
// callables. GradientStep returns false when the ELBO estimate for the step
// came out non-finite; callers treat that as fatal.
type Optimizer interface {
	GradientStep(logPost model.LogPosteriorFunc, gradLogPost model.GradLogPosteriorFunc) bool
	Trace() []StepRecord
}

// Names lists the optimizer registry in CLI order.
func Names() []string {
	return []string{"simple", "bump"}
}

// OfName constructs an optimizer by registry name around a model. The set of
// names is closed; anything else is a configuration error.
func OfName(name string, m model.ScalarModel, rng *rand.Rand) (Optimizer, error) {
	switch name {
	case "simple":
		return newSimple(m, rng), nil
	case "bump":
		return newBump(m, rng), nil
	}
	return nil, errors.NewUnknownOptimizerError(name, Names())
}

// rmsUpdater is the shared ascent rule: RMS-normalized stochastic gradient
// with a configurable base step size.
type rmsUpdater struct {
	model    model.ScalarModel
	rng      *rand.Rand
	stepSize float64
	sqAvg    []float64
	step     int
	trace    []StepRecord
}

const (
	defaultStepSize = 0.1
	rmsDecay        = 0.9
	rmsEpsilon      = 1e-8
)

func newRMSUpdater(m model.ScalarModel, rng *rand.Rand, stepSize float64) rmsUpdater {
	return rmsUpdater{
		model:    m,
		rng:      rng,
		stepSize: stepSize,
		sqAvg:    make([]float64, len(m.Params())),
	}
}

// tryStep estimates the ELBO gradient and applies one ascent step. It
// reports the ELBO estimate and whether it was finite; on a non-finite
// estimate the parameters are left untouched.
func (u *rmsUpdater) tryStep(logPost model.LogPosteriorFunc, gradLogPost model.GradLogPosteriorFunc) (float64, bool) {
	elbo, grad := u.model.EstimateGradient(u.rng, logPost, gradLogPost)
	u.step++
	u.trace = append(u.trace, StepRecord{Step: u.step, Elbo: elbo, StepSize: u.stepSize})
	if math.IsNaN(elbo) || math.IsInf(elbo, 0) {
		return elbo, false
	}
	params := append([]float64(nil), u.model.Params()...)
	for i, g := range grad {
		u.sqAvg[i] = rmsDecay*u.sqAvg[i] + (1-rmsDecay)*g*g
		params[i] += u.stepSize * g / (math.Sqrt(u.sqAvg[i]) + rmsEpsilon)
	}
	if !floats.HasNaN(params) {
		u.model.SetParams(params)
	}
	return elbo, true
}

func (u *rmsUpdater) Trace() []StepRecord { return u.trace }
