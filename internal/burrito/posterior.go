package burrito

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// expPriorRate is the rate of the fixed exponential prior on split lengths.
const expPriorRate = 10.0

// logLikeOrGradWith calculates the log likelihood, or its split-space
// gradient, at the given split lengths. It writes the translated lengths
// into the live branch-length view first, so every call mutates shared
// engine tree state: per-particle evaluations must stay strictly
// sequential.
func (b *Burrito) logLikeOrGradWith(splitLengths []float64, wantGrad bool) (float64, []float64) {
	copy(b.branchLengths, b.TranslateSplitsToBranches(splitLengths))
	if wantGrad {
		grads, err := b.inst.BranchGradients()
		if err != nil {
			// Evaluation before topology sampling is a programming error,
			// not a recoverable condition.
			panic(fmt.Sprintf("branch gradient query failed: %v", err))
		}
		raw := grads[0].Gradient
		// Drop the two trailing sentinel entries the engine appends for the
		// root edge pair.
		return 0, b.TranslateBranchesToSplits(raw[:len(raw)-2])
	}
	likes, err := b.inst.LogLikelihoods()
	if err != nil {
		panic(fmt.Sprintf("log likelihood query failed: %v", err))
	}
	return likes[0], nil
}

// PhyloLogLike calculates the phylogenetic log likelihood for each of the
// split length assignments laid out along the rows of the particle batch.
func (b *Burrito) PhyloLogLike(particles *mat.Dense) []float64 {
	rows, _ := particles.Dims()
	out := make([]float64, rows)
	for r := 0; r < rows; r++ {
		out[r], _ = b.logLikeOrGradWith(particles.RawRowView(r), false)
	}
	return out
}

// GradPhyloLogLike calculates the split-space likelihood gradient for each
// particle row, preserving row order.
func (b *Burrito) GradPhyloLogLike(particles *mat.Dense) *mat.Dense {
	rows, cols := particles.Dims()
	out := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		_, grad := b.logLikeOrGradWith(particles.RawRowView(r), true)
		out.SetRow(r, grad)
	}
	return out
}

// LogExpPrior is the log density of the fixed exponential prior, one scalar
// per particle row.
func LogExpPrior(particles *mat.Dense, rate float64) []float64 {
	rows, cols := particles.Dims()
	out := make([]float64, rows)
	logRate := math.Log(rate)
	for r := 0; r < rows; r++ {
		sum := 0.0
		for c := 0; c < cols; c++ {
			sum += rate * particles.At(r, c)
		}
		out[r] = logRate - sum
	}
	return out
}

// GradLogExpPrior is the gradient of the exponential log prior, which is the
// constant -rate in every coordinate regardless of the particle values.
func GradLogExpPrior(rate float64) float64 {
	return -rate
}

// PhyloLogUPost is the unnormalized phylogenetic posterior with an Exp(10)
// prior, one scalar per particle row.
func (b *Burrito) PhyloLogUPost(particles *mat.Dense) []float64 {
	out := b.PhyloLogLike(particles)
	prior := LogExpPrior(particles, expPriorRate)
	for r := range out {
		out[r] += prior[r]
	}
	return out
}

// GradPhyloLogUPost is the split-space gradient of the unnormalized
// posterior, one row per particle.
func (b *Burrito) GradPhyloLogUPost(particles *mat.Dense) *mat.Dense {
	out := b.GradPhyloLogLike(particles)
	rows, cols := out.Dims()
	gradPrior := GradLogExpPrior(expPriorRate)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(r, c, out.At(r, c)+gradPrior)
		}
	}
	return out
}
