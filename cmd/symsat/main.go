// Command symsat solves or enumerates DIMACS CNF problems encoding graph
// models, optionally restricted to canonical graphs through an external
// minimality checker.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/crillab/symsat/solver"
)

var (
	verbose   bool
	enumerate bool
	maxModels int
	timeout   time.Duration
	vertices  int
)

func main() {
	cmd := &cobra.Command{
		Use:   "symsat [flags] file.cnf",
		Short: "CDCL SAT solver for graph models",
		Args:  cobra.ExactArgs(1),
		RunE:  run,

		SilenceUsage: true,
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log search statistics")
	cmd.Flags().BoolVar(&enumerate, "enumerate", false, "enumerate models instead of solving once")
	cmd.Flags().IntVar(&maxModels, "max-models", 0, "stop enumeration after that many models (0: no limit)")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "time budget for the search (0: no limit)")
	cmd.Flags().IntVarP(&vertices, "vertices", "n", 0, "number of vertices of the graph model; restricts enumeration blocking to edge variables")
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	if verbose {
		logrus.SetLevel(logrus.DebugLevel)
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	s, err := solver.ParseCNF(f, solver.DefaultOptions())
	if err != nil {
		return fmt.Errorf("could not parse problem: %w", err)
	}
	s.Verbose = verbose
	if vertices > 0 {
		s.SetEdgeVars(vertices * (vertices - 1) / 2)
	}
	if timeout > 0 {
		s.TimeBudget = timeout.Seconds()
	}
	logrus.WithFields(logrus.Fields{
		"file":    args[0],
		"vars":    s.NVars(),
		"clauses": s.NClauses(),
	}).Debug("solving")

	if enumerate {
		res := s.Enumerate(timeout, maxModels, func(model []bool) {
			fmt.Printf("v ")
			for i, val := range model {
				if val {
					fmt.Printf("%d ", i+1)
				} else {
					fmt.Printf("%d ", -i-1)
				}
			}
			fmt.Printf("0\n")
		})
		fmt.Printf("c %d model(s), %v\n", res.NbModels, termination(res.Status))
		return nil
	}

	s.Solve()
	s.OutputModel(os.Stdout)
	return nil
}

func termination(st solver.EnumerationStatus) string {
	switch st {
	case solver.EnumTime:
		return "time budget exhausted"
	case solver.EnumLimit:
		return "model limit reached"
	default:
		return "search space exhausted"
	}
}
