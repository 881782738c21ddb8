package main

import (
	"os"

	"github.com/lunny/log"
	"github.com/urfave/cli/v2"
)

// main is separated from the actual *cli.App to help with testing.
func main() {
	run(os.Args)
}

func run(args []string) {
	app := application()
	if err := app.Run(args); err != nil {
		log.Fatal(err)
	}
}

// application defines the rnapart command line app: a single sequence in,
// the partition function's summary scalars and derived structures out.
func application() *cli.App {
	app := &cli.App{
		Name:  "rnapart",
		Usage: "Compute the RNA partition function, base-pair probabilities, and Boltzmann samples for a sequence.",

		Flags: []cli.Flag{
			&cli.Float64Flag{
				Name:  "temperature",
				Value: 37,
				Usage: "Folding temperature in degrees Celsius.",
			},
			&cli.IntFlag{
				Name:  "dangles",
				Value: 2,
				Usage: "Dangling-end model: 0, 1, 2, or 3.",
			},
			&cli.BoolFlag{
				Name:  "circular",
				Usage: "Treat the sequence as circular.",
			},
			&cli.BoolFlag{
				Name:  "no-gu",
				Usage: "Disallow G-U pairs entirely.",
			},
			&cli.BoolFlag{
				Name:  "no-gu-closure",
				Usage: "Disallow G-U pairs from closing a loop.",
			},
			&cli.BoolFlag{
				Name:  "no-lonely-pairs",
				Usage: "Disallow isolated (unstacked) base pairs.",
			},
			&cli.BoolFlag{
				Name:  "special-hairpins",
				Usage: "Apply tabulated tetra/tri/hexaloop bonus energies.",
			},
			&cli.IntFlag{
				Name:  "max-bp-span",
				Usage: "Largest allowed base-pair span; 0 means unbounded.",
			},
			&cli.Float64Flag{
				Name:  "pf-scale",
				Value: -1,
				Usage: "Boltzmann rescaling factor; -1 requests automatic scaling from the estimated free energy.",
			},
			&cli.Float64Flag{
				Name:  "beta-scale",
				Value: 1,
				Usage: "Scales 1/kT relative to the folding temperature.",
			},
			&cli.StringFlag{
				Name:  "constraint",
				Usage: "Hard-constraint string (same length as the sequence): '.' unconstrained, 'x' forced unpaired, '|' forced paired, '(' ')' forced pair.",
			},
			&cli.Float64Flag{
				Name:  "cutoff",
				Value: 1e-3,
				Usage: "Minimum pair probability to include in the plist output.",
			},
			&cli.IntFlag{
				Name:  "samples",
				Value: 0,
				Usage: "Number of Boltzmann-weighted structures to sample (0 = none).",
			},
			&cli.Int64Flag{
				Name:  "seed",
				Value: 1,
				Usage: "Random seed for sampling.",
			},
		},

		Commands: []*cli.Command{
			{
				Name:   "fold",
				Usage:  "Compute Z, F, base-pair probabilities, and (optionally) Boltzmann samples for a sequence.",
				Action: foldCommand,
			},
			{
				Name:   "centroid",
				Usage:  "Compute the centroid dot-bracket-like structure for a sequence.",
				Action: centroidCommand,
			},
		},
	}

	return app
}
