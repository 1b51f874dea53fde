package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// truncatedUpper bounds split lengths from above. Branch lengths in the
// regimes this tool targets sit well below it, so the truncation mostly
// guards the optimizer against excursions into flat likelihood regions.
const truncatedUpper = 2.0

// truncatedLogNormal is a log-normal family truncated above at
// truncatedUpper, fitted with the score-function estimator. The truncation
// adds a -log(Z) term to the density whose parameter gradient enters the
// score.
type truncatedLogNormal struct {
	variableCount int
	particleCount int
	params        []float64 // mu then log(sigma)
}

func newTruncatedLogNormal(variableCount, particleCount int) *truncatedLogNormal {
	m := &truncatedLogNormal{
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

func (m *truncatedLogNormal) Name() string          { return "tf_truncated_lognormal" }
func (m *truncatedLogNormal) VariableCount() int    { return m.variableCount }
func (m *truncatedLogNormal) ParticleCount() int    { return m.particleCount }
func (m *truncatedLogNormal) Params() []float64     { return m.params }
func (m *truncatedLogNormal) SetParams(p []float64) { copy(m.params, p) }

// normalizer returns Z = P(z <= truncatedUpper) for variable i along with
// the standardized bound a = (log(U) - mu) / sigma.
func (m *truncatedLogNormal) normalizer(i int) (z, a float64) {
	mu := m.params[i]
	sigma := math.Exp(m.params[m.variableCount+i])
	a = (math.Log(truncatedUpper) - mu) / sigma
	return distuv.UnitNormal.CDF(a), a
}

func (m *truncatedLogNormal) EstimateGradient(rng *rand.Rand, logPost LogPosteriorFunc, _ GradLogPosteriorFunc) (float64, []float64) {
	p, n := m.particleCount, m.variableCount
	particles := mat.NewDense(p, n, nil)
	logQ := make([]float64, p)
	for i := 0; i < n; i++ {
		d := distuv.LogNormal{
			Mu:    m.params[i],
			Sigma: math.Exp(m.params[n+i]),
			Src:   distSource{rng},
		}
		z, _ := m.normalizer(i)
		logZ := math.Log(z)
		for r := 0; r < p; r++ {
			// Rejection sampling against the upper bound; acceptance is
			// high whenever q has meaningful mass below the bound.
			x := d.Rand()
			for x > truncatedUpper {
				x = d.Rand()
			}
			particles.Set(r, i, x)
			logQ[r] += d.LogProb(x) - logZ
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
		mu := m.params[i]
		sigma := math.Exp(m.params[n+i])
		z, a := m.normalizer(i)
		hazard := distuv.UnitNormal.Prob(a) / z
		var gMu, gLogSigma float64
		for r := 0; r < p; r++ {
			w := f[r] - elbo
			logX := math.Log(particles.At(r, i))
			// Scores of the truncated density: base log-normal score minus
			// d(log Z)/d(theta).
			scoreMu := (logX-mu)/(sigma*sigma) + hazard/sigma
			scoreLogSigma := (logX-mu)*(logX-mu)/(sigma*sigma) - 1 + a*hazard
			gMu += w * scoreMu
			gLogSigma += w * scoreLogSigma
		}
		grad[i] = gMu / float64(p)
		grad[n+i] = gLogSigma / float64(p)
	}
	return elbo, grad
}

func (m *truncatedLogNormal) Means() []float64 {
	means := make([]float64, m.variableCount)
	for i := range means {
		mu := m.params[i]
		sigma := math.Exp(m.params[m.variableCount+i])
		z, a := m.normalizer(i)
		// Mean of an upper-truncated log-normal.
		means[i] = math.Exp(mu+sigma*sigma/2) * distuv.UnitNormal.CDF(a-sigma) / z
	}
	return means
}

func (m *truncatedLogNormal) StdDevs() []float64 {
	devs := make([]float64, m.variableCount)
	means := m.Means()
	for i := range devs {
		mu := m.params[i]
		sigma := math.Exp(m.params[m.variableCount+i])
		z, a := m.normalizer(i)
		second := math.Exp(2*mu+2*sigma*sigma) * distuv.UnitNormal.CDF(a-2*sigma) / z
		variance := second - means[i]*means[i]
		if variance < 0 {
			variance = 0
		}
		devs[i] = math.Sqrt(variance)
	}
	return devs
}
