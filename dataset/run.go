package dataset

import (
	"context"
	"io"
	"path/filepath"

	"github.com/pkg/errors"

	"go.viam.com/rgbdassoc/associate"
	"go.viam.com/rgbdassoc/logging"
	"go.viam.com/rgbdassoc/manifest"
	"go.viam.com/rgbdassoc/stamp"
	"go.viam.com/rgbdassoc/utils"
)

// Result reports what Run produced.
type Result struct {
	DepthColor       associate.Summary
	DepthGroundTruth associate.Summary
	Joined           int
	AssociationPath  string
	TrajectoryPath   string
}

// Run associates the depth stream of the dataset in dir with its color and ground truth streams,
// keeps the depth frames matched in both, and writes the depth/color association and the matching
// ground truth trajectory. Zero matches is not an error; it is logged as a warning and produces
// manifests with no records.
func Run(ctx context.Context, dir string, cfg *Config, logger logging.Logger) (*Result, error) {
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	var loadOpts []stamp.LoadOption
	if cfg.RejectDuplicates {
		loadOpts = append(loadOpts, stamp.WithDuplicatePolicy(stamp.DuplicateReject))
	}

	streams := make([]*stamp.Index, 0, 3)
	for _, name := range []string{cfg.Depth, cfg.Color, cfg.GroundTruth} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		idx, err := stamp.LoadFile(filepath.Join(dir, name), loadOpts...)
		if err != nil {
			return nil, err
		}
		if n := idx.Overwritten(); n > 0 {
			logger.Warnw("duplicate timestamps overwritten", "stream", idx.Name(), "dropped", n)
		}
		logger.Debugw("loaded stream", "stream", idx.Name(), "records", idx.Len())
		streams = append(streams, idx)
	}
	depth, color, groundTruth := streams[0], streams[1], streams[2]

	opts := cfg.Options()
	depthColor := associate.Associate(depth, color, opts)
	depthGroundTruth := associate.Associate(depth, groundTruth, opts)
	result := &Result{
		DepthColor:       associate.Summarize(depth, color, depthColor, opts),
		DepthGroundTruth: associate.Summarize(depth, groundTruth, depthGroundTruth, opts),
		AssociationPath:  filepath.Join(dir, cfg.AssociationOut),
		TrajectoryPath:   filepath.Join(dir, cfg.TrajectoryOut),
	}
	logSummary(logger, "depth/color", result.DepthColor)
	logSummary(logger, "depth/groundtruth", result.DepthGroundTruth)

	joined, err := manifest.Join(depth, color, groundTruth, depthColor, depthGroundTruth)
	if err != nil {
		return nil, errors.Wrap(err, "cannot join associations")
	}
	result.Joined = len(joined)
	if result.Joined == 0 {
		logger.Warnw("no depth frame has both a color and a ground truth match", "dataset", dir)
	} else {
		logger.Infow("joined depth frames", "dataset", dir, "frames", result.Joined)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	colorPairs, trajectory := manifest.Split(joined)
	if err := utils.WriteFileAtomic(result.AssociationPath, func(w io.Writer) error {
		return manifest.WriteAssociation(w, colorPairs)
	}); err != nil {
		return nil, err
	}
	if err := utils.WriteFileAtomic(result.TrajectoryPath, func(w io.Writer) error {
		return manifest.WriteTrajectory(w, trajectory)
	}); err != nil {
		return nil, err
	}
	return result, nil
}

func logSummary(logger logging.Logger, pair string, s associate.Summary) {
	if s.Matches == 0 {
		logger.Warnw("association is empty", "pair", pair, "first", s.FirstLen, "second", s.SecondLen)
		return
	}
	logger.Infow("associated streams",
		"pair", pair,
		"matches", s.Matches,
		"unmatched", s.Unmatched(),
		"mean_gap", s.MeanGap,
		"max_gap", s.MaxGap,
	)
}
