package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/edaniels/gobag/rosbag"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	"go.viam.com/rgbdassoc/associate"
	"go.viam.com/rgbdassoc/dataset"
	"go.viam.com/rgbdassoc/layout"
	"go.viam.com/rgbdassoc/logging"
	"go.viam.com/rgbdassoc/manifest"
	"go.viam.com/rgbdassoc/ros"
	"go.viam.com/rgbdassoc/stamp"
	"go.viam.com/rgbdassoc/utils"
)

// newLogger returns a logger writing to the app's error writer. The log level comes from
// RGBDASSOC_LOG_LEVEL and --debug wins over it.
func newLogger(c *cli.Context) (logging.Logger, error) {
	logger := logging.NewWriterLogger(c.App.Name, c.App.ErrWriter)
	if lvl, ok := os.LookupEnv(utils.LogLevelEnvVar); ok {
		level, err := logging.LevelFromString(lvl)
		if err != nil {
			return nil, errors.Wrapf(err, "invalid %s", utils.LogLevelEnvVar)
		}
		logger.SetLevel(level)
	}
	if c.Bool(flagDebug) {
		logger.SetLevel(logging.DEBUG)
	}
	return logger, nil
}

func checkArgs(c *cli.Context, n int) error {
	if c.Args().Len() != n {
		return errors.Errorf("%s expects %d argument(s) but got %d; usage: %s %s",
			c.Command.Name, n, c.Args().Len(), c.Command.Name, c.Command.ArgsUsage)
	}
	return nil
}

func optionsFromFlags(c *cli.Context) associate.Options {
	return associate.Options{
		Offset:        c.Float64(flagOffset),
		MaxDifference: c.Float64(flagMaxDifference),
	}
}

func loadOptionsFromFlags(c *cli.Context) []stamp.LoadOption {
	if c.Bool(flagRejectDuplicates) {
		return []stamp.LoadOption{stamp.WithDuplicatePolicy(stamp.DuplicateReject)}
	}
	return nil
}

// AssociateAction runs the full depth/color/ground truth association over a dataset folder.
func AssociateAction(c *cli.Context) error {
	if err := checkArgs(c, 1); err != nil {
		return err
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}

	cfg := dataset.DefaultConfig()
	if path := c.String(flagConfig); path != "" {
		fromFile, err := dataset.ReadConfig(path)
		if err != nil {
			return err
		}
		cfg = *fromFile
	}
	if c.IsSet(flagOffset) {
		cfg.Offset = c.Float64(flagOffset)
	}
	if c.IsSet(flagMaxDifference) {
		cfg.MaxDifference = c.Float64(flagMaxDifference)
	}
	if c.IsSet(flagRejectDuplicates) {
		cfg.RejectDuplicates = c.Bool(flagRejectDuplicates)
	}

	result, err := dataset.Run(c.Context, c.Args().First(), &cfg, logger)
	if err != nil {
		return err
	}
	printSummary(c, result)
	infof(c.App.Writer, "wrote %s and %s", result.AssociationPath, result.TrajectoryPath)
	if result.Joined == 0 {
		warningf(c.App.Writer, "no frames were associated; check --max-difference and --offset")
	}
	return nil
}

func printSummary(c *cli.Context, result *dataset.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(c.App.Writer)
	t.AppendHeader(table.Row{"Pair", "First", "Second", "Matches", "Unmatched", "Mean gap", "Std dev", "Max gap"})
	for _, row := range []struct {
		name    string
		summary associate.Summary
	}{
		{"depth/color", result.DepthColor},
		{"depth/groundtruth", result.DepthGroundTruth},
	} {
		s := row.summary
		t.AppendRow(table.Row{
			row.name, s.FirstLen, s.SecondLen, s.Matches, s.Unmatched(),
			formatGap(s.MeanGap), formatGap(s.StdDevGap), formatGap(s.MaxGap),
		})
	}
	t.AppendFooter(table.Row{"joined", "", "", result.Joined})
	t.Render()
}

func formatGap(gap float64) string {
	return fmt.Sprintf("%.6f", gap)
}

// PairAction associates two stream files and prints the matches in association format.
func PairAction(c *cli.Context) error {
	if err := checkArgs(c, 2); err != nil {
		return err
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	opts := optionsFromFlags(c)
	if err := opts.Validate(); err != nil {
		return err
	}
	first, err := stamp.LoadFile(c.Args().Get(0), loadOptionsFromFlags(c)...)
	if err != nil {
		return err
	}
	second, err := stamp.LoadFile(c.Args().Get(1), loadOptionsFromFlags(c)...)
	if err != nil {
		return err
	}
	return printAssociation(c.App.Writer, logger, first, second, opts)
}

// BagAction associates two topics of a ROS bag and prints the matches in association format.
func BagAction(c *cli.Context) error {
	if err := checkArgs(c, 1); err != nil {
		return err
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	opts := optionsFromFlags(c)
	if err := opts.Validate(); err != nil {
		return err
	}
	rb, err := ros.ReadBag(c.Args().First())
	if err != nil {
		return err
	}
	first, second, err := topicIndexes(rb, c.String(flagFirstTopic), c.String(flagSecondTopic), c.Bool(flagRejectDuplicates))
	if err != nil {
		return err
	}
	return printAssociation(c.App.Writer, logger, first, second, opts)
}

func topicIndexes(rb *rosbag.RosBag, firstTopic, secondTopic string, rejectDuplicates bool) (*stamp.Index, *stamp.Index, error) {
	first, err := ros.IndexFromTopic(rb, firstTopic, nil)
	if err != nil {
		return nil, nil, err
	}
	second, err := ros.IndexFromTopic(rb, secondTopic, nil)
	if err != nil {
		return nil, nil, err
	}
	if rejectDuplicates {
		for _, idx := range []*stamp.Index{first, second} {
			if idx.Overwritten() > 0 {
				return nil, nil, errors.Errorf("topic %s repeats %d header stamps", idx.Name(), idx.Overwritten())
			}
		}
	}
	return first, second, nil
}

func printAssociation(w io.Writer, logger logging.Logger, first, second *stamp.Index, opts associate.Options) error {
	for _, idx := range []*stamp.Index{first, second} {
		if n := idx.Overwritten(); n > 0 {
			logger.Warnw("duplicate timestamps overwritten", "stream", idx.Name(), "dropped", n)
		}
	}
	assoc := associate.Associate(first, second, opts)
	summary := associate.Summarize(first, second, assoc, opts)
	logger.Debugw("associated streams",
		"first", first.Name(),
		"second", second.Name(),
		"matches", summary.Matches,
		"mean_gap", summary.MeanGap,
	)
	if summary.Matches == 0 {
		logger.Warnw("association is empty", "first", first.Name(), "second", second.Name())
	}
	pairs, err := manifest.Pairs(first, second, assoc)
	if err != nil {
		return err
	}
	return manifest.WriteAssociation(w, pairs)
}

// RawAction writes index-paired manifests for a capture folder without timestamps.
func RawAction(c *cli.Context) error {
	if err := checkArgs(c, 1); err != nil {
		return err
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	result, err := layout.RawDataset(c.Args().First(), logger)
	if err != nil {
		return err
	}
	infof(c.App.Writer, "paired %d frames from %s", result.Frames, result.ColorDir)
	return nil
}

// ReorgTUMAction moves associated TUM images into numbered folders.
func ReorgTUMAction(c *cli.Context) error {
	if err := checkArgs(c, 1); err != nil {
		return err
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	n, err := layout.ReorgTUM(c.Args().First(), c.String(flagAssociation), logger)
	if err != nil {
		return err
	}
	infof(c.App.Writer, "moved %d frames", n)
	return nil
}

// Reorg3DMatchAction converts a 3DMatch sequence into numbered folders.
func Reorg3DMatchAction(c *cli.Context) error {
	if err := checkArgs(c, 1); err != nil {
		return err
	}
	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	result, err := layout.Reorg3DMatch(c.Args().First(), c.String(flagSeq), logger)
	if err != nil {
		return err
	}
	infof(c.App.Writer, "moved %d of %d color, %d depth and %d pose frames",
		result.Moved, result.Colors, result.Depths, result.Poses)
	if result.Moved < max(result.Colors, result.Depths, result.Poses) {
		warningf(c.App.Writer, "some frames were left in %s", c.String(flagSeq))
	}
	return nil
}
