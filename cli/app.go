// Package cli contains the rgbdassoc command line interface.
package cli

import (
	"io"

	"github.com/urfave/cli/v2"

	"go.viam.com/rgbdassoc/associate"
	"go.viam.com/rgbdassoc/layout"
	"go.viam.com/rgbdassoc/utils"
)

const (
	flagDebug            = "debug"
	flagConfig           = "config"
	flagOffset           = "offset"
	flagMaxDifference    = "max-difference"
	flagRejectDuplicates = "reject-duplicates"
	flagAssociation      = "association"
	flagSeq              = "seq"
	flagFirstTopic       = "first-topic"
	flagSecondTopic      = "second-topic"
)

func associationFlags() []cli.Flag {
	return []cli.Flag{
		&cli.Float64Flag{
			Name:    flagOffset,
			Usage:   "time offset added to the timestamps of the second stream",
			Value:   associate.DefaultOffset,
			EnvVars: []string{utils.OffsetEnvVar},
		},
		&cli.Float64Flag{
			Name:    flagMaxDifference,
			Usage:   "maximally allowed time difference for matching entries",
			Value:   associate.DefaultMaxDifference,
			EnvVars: []string{utils.MaxDifferenceEnvVar},
		},
		&cli.BoolFlag{
			Name:  flagRejectDuplicates,
			Usage: "fail when a stream repeats a timestamp instead of keeping the last record",
		},
	}
}

// newApp returns a new app definition.
func newApp() *cli.App {
	return &cli.App{
		Name:            "rgbdassoc",
		Usage:           "associate timestamped RGB-D streams",
		HideHelpCommand: true,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    flagDebug,
				Aliases: []string{"vvv"},
				Usage:   "enable debug logging",
			},
		},
		Commands: []*cli.Command{
			{
				Name:      "associate",
				Usage:     "associate depth with color and ground truth and write the manifests into the dataset folder",
				ArgsUsage: "<dataset>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:    flagConfig,
						Aliases: []string{"c"},
						Usage:   "load configuration from `FILE`",
					},
				}, associationFlags()...),
				Action: AssociateAction,
			},
			{
				Name:      "pair",
				Usage:     "associate two stream files and print the matches",
				ArgsUsage: "<first> <second>",
				Flags:     associationFlags(),
				Action:    PairAction,
			},
			{
				Name:      "bag",
				Usage:     "associate two topics of a ROS bag and print the matches",
				ArgsUsage: "<file.bag>",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:     flagFirstTopic,
						Usage:    "topic of the first stream",
						Required: true,
					},
					&cli.StringFlag{
						Name:     flagSecondTopic,
						Usage:    "topic of the second stream",
						Required: true,
					},
				}, associationFlags()...),
				Action: BagAction,
			},
			{
				Name:      "raw",
				Usage:     "pair the color and depth images of an unstamped capture folder by index",
				ArgsUsage: "<dataset>",
				Action:    RawAction,
			},
			{
				Name:      "reorg-tum",
				Usage:     "move the images listed in an association file into numbered folders",
				ArgsUsage: "<dataset>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagAssociation,
						Usage: "association file inside the dataset folder",
						Value: layout.DefaultTUMAssociation,
					},
				},
				Action: ReorgTUMAction,
			},
			{
				Name:      "reorg-3dmatch",
				Usage:     "convert a 3DMatch sequence into numbered color, depth and pose folders",
				ArgsUsage: "<dataset>",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  flagSeq,
						Usage: "sequence folder inside the dataset folder",
						Value: layout.DefaultThreeDMatchSeq,
					},
				},
				Action: Reorg3DMatchAction,
			},
		},
	}
}

// NewApp returns a new app with the CLI API, Writer set to out, and ErrWriter
// set to errOut.
func NewApp(out, errOut io.Writer) *cli.App {
	app := newApp()
	app.Writer = out
	app.ErrWriter = errOut
	return app
}
