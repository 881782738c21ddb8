package main

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"

	"github.com/bebop/rnapart/partition"
	"github.com/bebop/rnapart/secondary_structure"
	"github.com/lunny/log"
	"github.com/urfave/cli/v2"
)

/******************************************************************************

This file holds the logic each command in main.go's App dispatches to.
Argument flags and subcommand wiring live in main.go; this file reads the
sequence (from an argument or stdin), builds a partition.FoldRequest from
the global flags, and prints the requested output.

******************************************************************************/

func readSequence(c *cli.Context) (string, error) {
	if c.Args().Len() > 0 {
		return c.Args().First(), nil
	}
	scanner := bufio.NewScanner(os.Stdin)
	if !scanner.Scan() {
		return "", fmt.Errorf("no sequence given as an argument or on stdin")
	}
	return scanner.Text(), nil
}

func buildRequest(c *cli.Context, sequence string) partition.FoldRequest {
	model := partition.DefaultModelDetails()
	model.TemperatureInCelsius = c.Float64("temperature")
	model.Dangles = c.Int("dangles")
	model.Circular = c.Bool("circular")
	model.NoGU = c.Bool("no-gu")
	model.NoGUClosure = c.Bool("no-gu-closure")
	model.NoLonelyPairs = c.Bool("no-lonely-pairs")
	model.SpecialHairpins = c.Bool("special-hairpins")
	model.MaxBPSpan = c.Int("max-bp-span")
	model.PFScale = c.Float64("pf-scale")
	model.BetaScale = c.Float64("beta-scale")

	return partition.FoldRequest{
		Sequence:       sequence,
		Model:          model,
		HardConstraint: c.String("constraint"),
		Sink:           cliDiagnosticSink{},
	}
}

// cliDiagnosticSink routes the core's near-overflow warnings (spec.md §7)
// through this lineage's leveled logger instead of the core ever touching
// stderr itself.
type cliDiagnosticSink struct{}

func (cliDiagnosticSink) Warnf(format string, args ...interface{}) {
	log.Warn(fmt.Sprintf(format, args...))
}

func foldCommand(c *cli.Context) error {
	sequence, err := readSequence(c)
	if err != nil {
		return err
	}

	result, err := partition.Fold(buildRequest(c, sequence))
	if err != nil {
		return err
	}

	fmt.Printf("Z = %g\n", result.Z)
	fmt.Printf("F = %g kcal/mol\n", result.F)
	fmt.Printf("mean bp distance = %g\n", partition.MeanBasePairDistance(result.Context))

	for _, pp := range partition.PList(result.Context, c.Float64("cutoff")) {
		if pp.GQuad {
			fmt.Printf("%d %d %g gquad\n", pp.I, pp.J, pp.P)
		} else {
			fmt.Printf("%d %d %g\n", pp.I, pp.J, pp.P)
		}
	}

	numSamples := c.Int("samples")
	if numSamples > 0 {
		oracle := partition.NewEnergyOracle(result.Context.Params, result.Context.Model)
		sampler := partition.NewSampler(oracle, rand.NewSource(c.Int64("seed")))
		for i := 0; i < numSamples; i++ {
			sample, err := sampler.SampleLinear(result.Context)
			if err != nil {
				return err
			}
			annotated, _, err := secondary_structure.FromDotBracket(sample)
			if err != nil {
				// A sampled structure is always balanced dot-bracket notation;
				// fall back to the raw sample if annotation ever disagrees.
				fmt.Println(sample)
				continue
			}
			fmt.Printf("%s\t%s\n", sample, annotated)
		}
	}

	return nil
}

func centroidCommand(c *cli.Context) error {
	sequence, err := readSequence(c)
	if err != nil {
		return err
	}

	result, err := partition.Fold(buildRequest(c, sequence))
	if err != nil {
		return err
	}

	fmt.Println(partition.CentroidStructure(result.Context))
	return nil
}
