// Package testhelpers materializes small phylogenetic datasets for tests: a
// five-taxon fixed-topology MCMC trace and the matching alignment, laid out
// the way the benchmark command expects them.
package testhelpers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

const nexusTrace = `#NEXUS
begin trees;
	translate
		1 t1,
		2 t2,
		3 t3,
		4 t4,
		5 t5;
	tree STATE_0 [&lnP=-123.4] = [&U] ((1:0.10,2:0.12):0.05,3:0.20,(4:0.08,5:0.11):0.07);
	tree STATE_10 = [&U] ((1:0.11,2:0.10):0.06,3:0.18,(4:0.09,5:0.10):0.08);
	tree STATE_20 = [&U] ((1:0.09,2:0.13):0.04,3:0.22,(4:0.07,5:0.12):0.06);
end;
`

const fastaAlignment = `>t1
ACGTACGTACGTACGTACGT
>t2
ACGTACGAACGTACGTACTT
>t3
ACGAACGTACCTACGTACGA
>t4
CCGTACGTACGTTCGTACGT
>t5
ACGTACGCACGTACGAACGT
`

// Scene is one materialized dataset directory.
type Scene struct {
	// Dir is the data directory, named Name, containing Name_out.t and
	// Name.fasta.
	Dir  string
	Name string
}

// NewScene writes the five-taxon dataset into a fresh temp directory.
func NewScene(t *testing.T) *Scene {
	t.Helper()
	name := "ds0"
	dir := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(dir, 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+"_out.t"), []byte(nexusTrace), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+".fasta"), []byte(fastaAlignment), 0o644))
	return &Scene{Dir: dir, Name: name}
}

// NexusPath returns the path of the MCMC tree trace.
func (s *Scene) NexusPath() string {
	return filepath.Join(s.Dir, s.Name+"_out.t")
}

// FastaPath returns the path of the alignment.
func (s *Scene) FastaPath() string {
	return filepath.Join(s.Dir, s.Name+".fasta")
}
