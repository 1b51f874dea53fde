package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

const (
	// Split lengths under an Exp(10) prior have mean 0.1, so q starts
	// centered near log(0.1) with a moderate spread.
	initMu       = -2.0
	initLogSigma = -1.0

	logSqrt2Pi = 0.9189385332046727 // log(sqrt(2*pi))
)

// logNormal is an independent log-normal family fitted with the
// reparametrization trick: particles are a deterministic transform
// z = exp(mu + sigma*eps) of standard normal draws, so the ELBO gradient
// flows through the posterior gradient callable.
type logNormal struct {
	variableCount int
	particleCount int
	// params holds mu for every variable followed by log(sigma).
	params []float64
}

func newLogNormal(variableCount, particleCount int) *logNormal {
	m := &logNormal{
		variableCount: variableCount,
		particleCount: particleCount,
		params:        make([]float64, 2*variableCount),
	}
	for i := 0; i < variableCount; i++ {
		m.params[i] = initMu
		m.params[variableCount+i] = initLogSigma
	}
	return m
}

func (m *logNormal) Name() string        { return "lognormal" }
func (m *logNormal) VariableCount() int  { return m.variableCount }
func (m *logNormal) ParticleCount() int  { return m.particleCount }
func (m *logNormal) Params() []float64   { return m.params }
func (m *logNormal) SetParams(p []float64) { copy(m.params, p) }

func (m *logNormal) mu(i int) float64    { return m.params[i] }
func (m *logNormal) sigma(i int) float64 { return math.Exp(m.params[m.variableCount+i]) }

func (m *logNormal) EstimateGradient(rng *rand.Rand, logPost LogPosteriorFunc, gradLogPost GradLogPosteriorFunc) (float64, []float64) {
	p, n := m.particleCount, m.variableCount
	eps := mat.NewDense(p, n, nil)
	particles := mat.NewDense(p, n, nil)
	logQ := make([]float64, p)
	for r := 0; r < p; r++ {
		for i := 0; i < n; i++ {
			e := rng.NormFloat64()
			sigma := m.sigma(i)
			z := math.Exp(m.mu(i) + sigma*e)
			eps.Set(r, i, e)
			particles.Set(r, i, z)
			logQ[r] += -(m.mu(i) + sigma*e) - math.Log(sigma) - logSqrt2Pi - e*e/2
		}
	}

	logP := logPost(particles)
	gradP := gradLogPost(particles)

	elboTerms := make([]float64, p)
	for r := 0; r < p; r++ {
		elboTerms[r] = logP[r] - logQ[r]
	}
	elbo := stat.Mean(elboTerms, nil)

	grad := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		sigma := m.sigma(i)
		var gMu, gLogSigma float64
		for r := 0; r < p; r++ {
			g := gradP.At(r, i)
			z := particles.At(r, i)
			e := eps.At(r, i)
			// d/dmu: dz/dmu = z and -dlogq/dmu = 1.
			gMu += g*z + 1
			// d/dlog(sigma): dz = z*sigma*eps and -dlogq = sigma*eps + 1.
			gLogSigma += g*z*sigma*e + sigma*e + 1
		}
		grad[i] = gMu / float64(p)
		grad[n+i] = gLogSigma / float64(p)
	}
	return elbo, grad
}

func (m *logNormal) Means() []float64 {
	means := make([]float64, m.variableCount)
	for i := range means {
		sigma := m.sigma(i)
		means[i] = math.Exp(m.mu(i) + sigma*sigma/2)
	}
	return means
}

func (m *logNormal) StdDevs() []float64 {
	devs := make([]float64, m.variableCount)
	for i := range devs {
		sigma := m.sigma(i)
		mean := math.Exp(m.mu(i) + sigma*sigma/2)
		devs[i] = mean * math.Sqrt(math.Exp(sigma*sigma)-1)
	}
	return devs
}
