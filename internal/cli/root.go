// Package cli wires the treevi commands.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root cobra command
func NewRootCmd(version, commit, date string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "treevi",
		Short: "Variational inference for phylogenetic branch lengths",
		Long: `Treevi fits a variational posterior over the branch lengths of a fixed
phylogenetic tree topology by stochastic gradient ascent on the ELBO,
using an MCMC run as the reference.`,
		Version: version + " (" + commit + ", " + date + ")",
	}

	// Add subcommands
	rootCmd.AddCommand(newBenchmarkCmd())

	return rootCmd
}
