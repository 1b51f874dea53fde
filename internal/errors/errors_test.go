package errors

import (
	stderrors "errors"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestUnknownNameErrorMatchesItsKind(t *testing.T) {
	modelErr := NewUnknownModelError("gaussian", []string{"lognormal"})
	require.ErrorIs(t, modelErr, ErrUnknownModel)
	require.NotErrorIs(t, modelErr, ErrUnknownOptimizer)
	require.Contains(t, modelErr.Error(), `unknown model "gaussian"`)
	require.Contains(t, modelErr.Error(), "lognormal")

	optErr := NewUnknownOptimizerError("adam", []string{"simple", "bump"})
	require.ErrorIs(t, optErr, ErrUnknownOptimizer)
	require.NotErrorIs(t, optErr, ErrUnknownModel)
}

func TestDivergenceError(t *testing.T) {
	err := NewDivergenceError(17)
	require.ErrorIs(t, err, ErrDivergence)
	require.Equal(t, "ELBO is not finite at step 17, stopping", err.Error())

	var divergence *DivergenceError
	require.ErrorAs(t, error(err), &divergence)
	require.Equal(t, 17, divergence.Step)
}

func TestFormatErrorUnwraps(t *testing.T) {
	err := NewFormatError("ds1_out.t", 12, "missing translate entry", fs.ErrInvalid)
	require.ErrorIs(t, err, fs.ErrInvalid)
	require.Contains(t, err.Error(), "ds1_out.t")
	require.Contains(t, err.Error(), "line 12")
	require.Contains(t, err.Error(), "missing translate entry")

	bare := NewFormatError("ds1.fasta", 0, "", nil)
	require.Equal(t, "malformed file ds1.fasta", bare.Error())
	require.Nil(t, stderrors.Unwrap(error(bare)))
}
