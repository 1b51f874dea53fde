package phylo

import (
	"bufio"
	"os"
	"strings"

	"phylovi.dev/treevi/internal/errors"
)

// readNexusTrees reads the trees block of a NEXUS file such as an MrBayes
// `X_out.t` trace: a `translate` table mapping integer labels to taxon names
// followed by one `tree NAME = [&U] (...);` line per sample. Bracketed
// comments are stripped before Newick parsing.
func readNexusTrees(path string) (taxonNames []string, trees []*Tree, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	taxonIndex := make(map[string]int)
	inTranslate := false

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 16*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "translate"):
			inTranslate = true
			line = strings.TrimSpace(line[len("translate"):])
			if line == "" {
				continue
			}
			fallthrough
		case inTranslate:
			done := strings.HasSuffix(line, ";")
			line = strings.TrimSuffix(line, ";")
			for _, entry := range strings.Split(line, ",") {
				fields := strings.Fields(strings.TrimSpace(entry))
				if len(fields) == 0 {
					continue
				}
				if len(fields) != 2 {
					return nil, nil, errors.NewFormatError(path, lineNo, "bad translate entry "+entry, nil)
				}
				key, name := fields[0], fields[1]
				idx := len(taxonNames)
				taxonNames = append(taxonNames, name)
				// Trees may refer to taxa by translate key or by name.
				taxonIndex[key] = idx
				taxonIndex[name] = idx
			}
			if done {
				inTranslate = false
			}
		case strings.HasPrefix(lower, "tree "):
			// Strip comments before locating '=': MrBayes traces carry
			// metadata like [&lnP=-123.4] between the tree name and the
			// assignment.
			clean := stripBracketComments(line)
			eq := strings.Index(clean, "=")
			if eq < 0 {
				return nil, nil, errors.NewFormatError(path, lineNo, "tree line without '='", nil)
			}
			newick := strings.TrimSpace(clean[eq+1:])
			if len(taxonIndex) == 0 {
				return nil, nil, errors.NewFormatError(path, lineNo, "tree line before translate table", nil)
			}
			parsed, perr := parseNewick(newick)
			if perr != nil {
				return nil, nil, errors.NewFormatError(path, lineNo, perr.Error(), nil)
			}
			tree, terr := treeFromNewick(parsed, taxonIndex, len(taxonNames))
			if terr != nil {
				return nil, nil, errors.NewFormatError(path, lineNo, terr.Error(), nil)
			}
			trees = append(trees, tree)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(trees) == 0 {
		return nil, nil, errors.NewFormatError(path, 0, "no trees found", nil)
	}
	return taxonNames, trees, nil
}

// stripBracketComments removes [...] comment blocks, e.g. the [&U] rooting
// marker and per-clade metadata emitted by MCMC samplers.
func stripBracketComments(s string) string {
	var b strings.Builder
	depth := 0
	for _, r := range s {
		switch {
		case r == '[':
			depth++
		case r == ']':
			if depth > 0 {
				depth--
			}
		case depth == 0:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
