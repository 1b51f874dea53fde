package model

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// scoreLogNormal is the same log-normal family as logNormal, but fitted with
// the score-function (REINFORCE) estimator instead of reparametrization.
// This mirrors the framework-backed variant of the family, which never sees
// the posterior gradient callable: only per-particle objective values enter
// the estimator, with the batch mean as a variance-reducing baseline.
type scoreLogNormal struct {
	variableCount int
	particleCount int
	params        []float64 // mu then log(sigma)
}

func newScoreLogNormal(variableCount, particleCount int) *scoreLogNormal {
	m := &scoreLogNormal{
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

func (m *scoreLogNormal) Name() string          { return "tf_lognormal" }
func (m *scoreLogNormal) VariableCount() int    { return m.variableCount }
func (m *scoreLogNormal) ParticleCount() int    { return m.particleCount }
func (m *scoreLogNormal) Params() []float64     { return m.params }
func (m *scoreLogNormal) SetParams(p []float64) { copy(m.params, p) }

func (m *scoreLogNormal) dist(i int, rng *rand.Rand) distuv.LogNormal {
	return distuv.LogNormal{
		Mu:    m.params[i],
		Sigma: math.Exp(m.params[m.variableCount+i]),
		Src:   distSource{rng},
	}
}

func (m *scoreLogNormal) EstimateGradient(rng *rand.Rand, logPost LogPosteriorFunc, _ GradLogPosteriorFunc) (float64, []float64) {
	p, n := m.particleCount, m.variableCount
	particles := mat.NewDense(p, n, nil)
	logQ := make([]float64, p)
	for i := 0; i < n; i++ {
		d := m.dist(i, rng)
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
		mu := m.params[i]
		sigma := math.Exp(m.params[n+i])
		var gMu, gLogSigma float64
		for r := 0; r < p; r++ {
			w := f[r] - elbo // baseline-subtracted objective
			logZ := math.Log(particles.At(r, i))
			scoreMu := (logZ - mu) / (sigma * sigma)
			scoreLogSigma := (logZ-mu)*(logZ-mu)/(sigma*sigma) - 1
			gMu += w * scoreMu
			gLogSigma += w * scoreLogSigma
		}
		grad[i] = gMu / float64(p)
		grad[n+i] = gLogSigma / float64(p)
	}
	return elbo, grad
}

func (m *scoreLogNormal) Means() []float64 {
	means := make([]float64, m.variableCount)
	for i := range means {
		sigma := math.Exp(m.params[m.variableCount+i])
		means[i] = math.Exp(m.params[i] + sigma*sigma/2)
	}
	return means
}

func (m *scoreLogNormal) StdDevs() []float64 {
	devs := make([]float64, m.variableCount)
	for i := range devs {
		sigma := math.Exp(m.params[m.variableCount+i])
		mean := math.Exp(m.params[i] + sigma*sigma/2)
		devs[i] = mean * math.Sqrt(math.Exp(sigma*sigma)-1)
	}
	return devs
}
