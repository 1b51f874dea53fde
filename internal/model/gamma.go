package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// gamma is an independent Gamma(shape, rate) family per split, fitted with
// the score-function estimator. Initialized at Gamma(1, 10), which is the
// Exp(10) prior itself.
type gamma struct {
	variableCount int
	particleCount int
	params        []float64 // log(shape) then log(rate)
}

func newGamma(variableCount, particleCount int) *gamma {
	m := &gamma{
		variableCount: variableCount,
		particleCount: particleCount,
		params:        make([]float64, 2*variableCount),
	}
	for i := 0; i < variableCount; i++ {
		m.params[i] = 0                        // shape 1
		m.params[variableCount+i] = math.Log(10) // rate 10
	}
	return m
}

func (m *gamma) Name() string          { return "tf_gamma" }
func (m *gamma) VariableCount() int    { return m.variableCount }
func (m *gamma) ParticleCount() int    { return m.particleCount }
func (m *gamma) Params() []float64     { return m.params }
func (m *gamma) SetParams(p []float64) { copy(m.params, p) }

func (m *gamma) shape(i int) float64 { return math.Exp(m.params[i]) }
func (m *gamma) rate(i int) float64  { return math.Exp(m.params[m.variableCount+i]) }

func (m *gamma) EstimateGradient(rng *rand.Rand, logPost LogPosteriorFunc, _ GradLogPosteriorFunc) (float64, []float64) {
	p, n := m.particleCount, m.variableCount
	particles := mat.NewDense(p, n, nil)
	logQ := make([]float64, p)
	for i := 0; i < n; i++ {
		d := distuv.Gamma{Alpha: m.shape(i), Beta: m.rate(i), Src: distSource{rng}}
		for r := 0; r < p; r++ {
			z := d.Rand()
			particles.Set(r, i, z)
			logQ[r] += d.LogProb(z)
		}
	}

	logP := logPost(particles)
	f := make([]float64, p)
	for r := 0; r < p; r++ {
		f[r] = logP[r] - logQ[r]
	}
	elbo := stat.Mean(f, nil)

	grad := make([]float64, 2*n)
	for i := 0; i < n; i++ {
		alpha := m.shape(i)
		beta := m.rate(i)
		digammaAlpha := mathext.Digamma(alpha)
		var gLogShape, gLogRate float64
		for r := 0; r < p; r++ {
			w := f[r] - elbo
			z := particles.At(r, i)
			scoreShape := math.Log(beta) - digammaAlpha + math.Log(z)
			scoreRate := alpha/beta - z
			gLogShape += w * scoreShape * alpha
			gLogRate += w * scoreRate * beta
		}
		grad[i] = gLogShape / float64(p)
		grad[n+i] = gLogRate / float64(p)
	}
	return elbo, grad
}

func (m *gamma) Means() []float64 {
	means := make([]float64, m.variableCount)
	for i := range means {
		means[i] = m.shape(i) / m.rate(i)
	}
	return means
}

func (m *gamma) StdDevs() []float64 {
	devs := make([]float64, m.variableCount)
	for i := range devs {
		devs[i] = math.Sqrt(m.shape(i)) / m.rate(i)
	}
	return devs
}
