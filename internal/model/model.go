// Package model implements the variational families that approximate the
// posterior over split lengths. Each family is an independent per-split
// scalar distribution; models expose an ELBO estimate and its gradient with
// respect to their own variational parameters, leaving the update rule to
// the optimizer.
package model

import (
	"math/rand"

	"gonum.org/v1/gonum/mat"

	"phylovi.dev/treevi/internal/errors"
)

// LogPosteriorFunc evaluates the unnormalized log posterior for each
// particle row of a batch (particles along axis 0, splits along axis 1).
type LogPosteriorFunc func(particles *mat.Dense) []float64

// GradLogPosteriorFunc evaluates the split-space gradient of the
// unnormalized log posterior for each particle row.
type GradLogPosteriorFunc func(particles *mat.Dense) *mat.Dense

// ScalarModel is a variational family over split lengths.
type ScalarModel interface {
	Name() string
	VariableCount() int
	ParticleCount() int

	// Params exposes the flat variational parameter vector. Optimizers
	// mutate it in place through SetParams.
	Params() []float64
	SetParams(params []float64)

	// EstimateGradient samples a particle batch from the current q,
	// evaluates the posterior callables on it, and returns a Monte Carlo
	// ELBO estimate together with the ELBO gradient with respect to Params.
	EstimateGradient(rng *rand.Rand, logPost LogPosteriorFunc, gradLogPost GradLogPosteriorFunc) (elbo float64, grad []float64)

	// Means and StdDevs summarize the fitted marginals per split.
	Means() []float64
	StdDevs() []float64
}

// distSource adapts the engine's seeded math/rand stream to the
// exp/rand.Source interface that gonum's distuv distributions draw from, so
// one RNG drives both topology sampling and particle sampling.
type distSource struct {
	rng *rand.Rand
}

func (s distSource) Uint64() uint64 { return s.rng.Uint64() }

func (s distSource) Seed(seed uint64) { s.rng.Seed(int64(seed)) }

// Names lists the model registry in CLI order.
func Names() []string {
	return []string{"lognormal", "tf_lognormal", "tf_truncated_lognormal", "tf_gamma"}
}

// OfName constructs a model by registry name. The set of names is closed;
// anything else is a configuration error.
func OfName(name string, variableCount, particleCount int) (ScalarModel, error) {
	switch name {
	case "lognormal":
		return newLogNormal(variableCount, particleCount), nil
	case "tf_lognormal":
		return newScoreLogNormal(variableCount, particleCount), nil
	case "tf_truncated_lognormal":
		return newTruncatedLogNormal(variableCount, particleCount), nil
	case "tf_gamma":
		return newGamma(variableCount, particleCount), nil
	}
	return nil, errors.NewUnknownModelError(name, Names())
}
