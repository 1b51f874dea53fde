package phylo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"phylovi.dev/treevi/internal/errors"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadNexusTrees(t *testing.T) {
	path := writeTemp(t, "two_out.t", `#NEXUS
begin trees;
	translate
		1 alpha,
		2 beta,
		3 gamma;
	tree STATE_0 [&lnP=-1.5] = [&U] (1[&rate=0.9]:0.1,2:0.2,3:0.3);
	tree STATE_10 = [&U] (1:0.15,2:0.25,3:0.35);
end;
`)
	taxonNames, trees, err := readNexusTrees(path)
	require.NoError(t, err)
	require.Equal(t, []string{"alpha", "beta", "gamma"}, taxonNames)
	require.Len(t, trees, 2)
	require.Equal(t, 3, trees[0].BranchCount())
	require.InDelta(t, 0.15, trees[1].BranchLengths()[0], 1e-12)
}

func TestReadNexusTreesAcceptsTaxonNamesInNewick(t *testing.T) {
	path := writeTemp(t, "named_out.t", `#NEXUS
begin trees;
	translate 1 alpha, 2 beta, 3 gamma;
	tree STATE_0 = [&U] (alpha:0.1,beta:0.2,gamma:0.3);
end;
`)
	_, trees, err := readNexusTrees(path)
	require.NoError(t, err)
	require.Len(t, trees, 1)
}

func TestReadNexusTreesErrors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, _, err := readNexusTrees(filepath.Join(t.TempDir(), "absent_out.t"))
		require.Error(t, err)
	})

	t.Run("no trees", func(t *testing.T) {
		path := writeTemp(t, "empty_out.t", "#NEXUS\nbegin trees;\nend;\n")
		_, _, err := readNexusTrees(path)
		var format *errors.FormatError
		require.ErrorAs(t, err, &format)
		require.Contains(t, format.Msg, "no trees")
	})

	t.Run("tree before translate", func(t *testing.T) {
		path := writeTemp(t, "order_out.t", `#NEXUS
begin trees;
	tree STATE_0 = [&U] (1:0.1,2:0.2,3:0.3);
end;
`)
		_, _, err := readNexusTrees(path)
		var format *errors.FormatError
		require.ErrorAs(t, err, &format)
	})

	t.Run("bad translate entry", func(t *testing.T) {
		path := writeTemp(t, "bad_out.t", `#NEXUS
begin trees;
	translate 1 alpha beta;
	tree STATE_0 = [&U] (1:0.1,2:0.2,3:0.3);
end;
`)
		_, _, err := readNexusTrees(path)
		var format *errors.FormatError
		require.ErrorAs(t, err, &format)
		require.Equal(t, 3, format.Line)
	})
}

func TestStripBracketComments(t *testing.T) {
	require.Equal(t, "(a:0.1,b:0.2);",
		stripBracketComments(" [&U] (a[&rate=1.0]:0.1,b:0.2); "))
	require.Equal(t, "x", stripBracketComments("[outer [nested] comment]x"))
}

func TestReadFasta(t *testing.T) {
	path := writeTemp(t, "ds.fasta", `>alpha extra description
ACGT
ACGT
>beta
ACGTACNT
`)
	aln, err := readFasta(path)
	require.NoError(t, err)
	require.Equal(t, 2, aln.TaxonCount())
	require.Equal(t, 8, aln.SiteCount())
	// Description after the name is dropped; wrapped lines concatenate.
	require.Equal(t, []int8{0, 1, 2, 3, 0, 1, 2, 3}, aln.States("alpha"))
	// N encodes as missing.
	require.Equal(t, int8(-1), aln.States("beta")[6])
	require.Nil(t, aln.States("missing"))
}

func TestReadFastaErrors(t *testing.T) {
	t.Run("length mismatch", func(t *testing.T) {
		path := writeTemp(t, "ragged.fasta", ">a\nACGT\n>b\nAC\n")
		_, err := readFasta(path)
		var format *errors.FormatError
		require.ErrorAs(t, err, &format)
		require.Contains(t, format.Msg, "length differs")
	})

	t.Run("no sequences", func(t *testing.T) {
		path := writeTemp(t, "empty.fasta", "\n")
		_, err := readFasta(path)
		var format *errors.FormatError
		require.ErrorAs(t, err, &format)
	})
}
