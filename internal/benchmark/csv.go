package benchmark

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"

	"phylovi.dev/treevi/internal/optimize"
)

// WriteOptTrace writes the optimization trace as a CSV artifact.
func WriteOptTrace(path string, trace []optimize.StepRecord) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing opt trace: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write([]string{"step", "elbo", "step_size"}); err != nil {
		return err
	}
	for _, rec := range trace {
		row := []string{
			strconv.Itoa(rec.Step),
			strconv.FormatFloat(rec.Elbo, 'g', -1, 64),
			strconv.FormatFloat(rec.StepSize, 'g', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// WriteFittingResults writes the per-split fitting results as a CSV artifact.
func WriteFittingResults(path string, fits []SplitFit) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("writing fitting results: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	header := []string{"split", "fitted_mean", "fitted_stddev", "mcmc_mean", "mcmc_sample_count"}
	if err := w.Write(header); err != nil {
		return err
	}
	for _, fit := range fits {
		row := []string{
			strconv.Itoa(fit.SplitIndex),
			strconv.FormatFloat(fit.FittedMean, 'g', -1, 64),
			strconv.FormatFloat(fit.FittedStdDev, 'g', -1, 64),
			strconv.FormatFloat(fit.MCMCMean, 'g', -1, 64),
			strconv.Itoa(fit.MCMCSampleCount),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}
