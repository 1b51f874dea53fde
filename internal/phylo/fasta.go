package phylo

import (
	"bufio"
	"os"
	"strings"

	"phylovi.dev/treevi/internal/errors"
)

// Alignment holds a multiple sequence alignment with nucleotide states
// encoded per taxon: 0..3 for A, C, G, T and -1 for gaps or ambiguity codes.
type Alignment struct {
	names   []string
	states  map[string][]int8
	siteLen int
}

// TaxonCount returns the number of sequences in the alignment.
func (a *Alignment) TaxonCount() int { return len(a.names) }

// SiteCount returns the number of alignment columns.
func (a *Alignment) SiteCount() int { return a.siteLen }

// States returns the encoded state vector for a taxon, or nil if absent.
func (a *Alignment) States(name string) []int8 { return a.states[name] }

// readFasta reads a FASTA alignment. All sequences must share one length.
func readFasta(path string) (*Alignment, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	aln := &Alignment{states: make(map[string][]int8)}
	var name string
	var seq strings.Builder

	flush := func(lineNo int) error {
		if name == "" {
			return nil
		}
		states := encodeNucleotides(seq.String())
		if aln.siteLen == 0 {
			aln.siteLen = len(states)
		} else if len(states) != aln.siteLen {
			return errors.NewFormatError(path, lineNo,
				"sequence "+name+" length differs from previous sequences", nil)
		}
		aln.names = append(aln.names, name)
		aln.states[name] = states
		seq.Reset()
		return nil
	}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, ">") {
			if err := flush(lineNo); err != nil {
				return nil, err
			}
			name = strings.Fields(line[1:])[0]
			continue
		}
		seq.WriteString(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if err := flush(lineNo); err != nil {
		return nil, err
	}
	if len(aln.names) == 0 {
		return nil, errors.NewFormatError(path, 0, "no sequences found", nil)
	}
	return aln, nil
}

// encodeNucleotides maps a nucleotide string to state indices. Anything that
// is not an unambiguous A/C/G/T is treated as missing data.
func encodeNucleotides(seq string) []int8 {
	states := make([]int8, len(seq))
	for i := 0; i < len(seq); i++ {
		switch seq[i] {
		case 'A', 'a':
			states[i] = 0
		case 'C', 'c':
			states[i] = 1
		case 'G', 'g':
			states[i] = 2
		case 'T', 't', 'U', 'u':
			states[i] = 3
		default:
			states[i] = -1
		}
	}
	return states
}
