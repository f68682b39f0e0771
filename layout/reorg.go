package layout

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"go.viam.com/utils"

	"go.viam.com/rgbdassoc/calibration"
	"go.viam.com/rgbdassoc/logging"
	"go.viam.com/rgbdassoc/manifest"
	rgbdutils "go.viam.com/rgbdassoc/utils"
)

// Folders created by ReorgTUM.
const (
	TUMColorDir = "color_mf"
	TUMDepthDir = "depth_mf"
	TUMMaskDir  = "mask_mf"
)

// DefaultTUMAssociation is the association file ReorgTUM reads by default. Its lines are
// "<ts> <color file> <ts> <depth file>".
const DefaultTUMAssociation = "associate.txt"

// ReorgTUM moves the color and depth images listed in an association file into color_mf/ and
// depth_mf/ as zero padded, sequentially numbered PNGs and creates an empty mask_mf/. It returns
// the number of frames moved.
func ReorgTUM(dir, assocName string, logger logging.Logger) (int, error) {
	assocPath := filepath.Join(dir, assocName)
	//nolint:gosec
	f, err := os.Open(assocPath)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot open association file %q", assocPath)
	}
	pairs, err := manifest.ReadAssociation(f)
	utils.UncheckedError(f.Close())
	if err != nil {
		return 0, errors.Wrapf(err, "cannot read association file %q", assocPath)
	}

	for _, sub := range []string{TUMDepthDir, TUMColorDir, TUMMaskDir} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o750); err != nil {
			return 0, err
		}
	}

	for i, p := range pairs {
		frame := fmt.Sprintf("%04d.png", i)
		if err := moveInto(dir, p.Anchor.Payload[0], filepath.Join(TUMColorDir, frame)); err != nil {
			return i, err
		}
		if err := moveInto(dir, p.Partner.Payload[0], filepath.Join(TUMDepthDir, frame)); err != nil {
			return i, err
		}
	}
	logger.Infow("reorganized TUM sequence", "dir", dir, "frames", len(pairs))
	return len(pairs), nil
}

// Files read and written by Reorg3DMatch.
const (
	ThreeDMatchIntrinsics = "camera-intrinsics.txt"
	ThreeDMatchCal        = "cal.txt"
	DefaultThreeDMatchSeq = "seq-01"
)

// ThreeDMatchResult counts the frames found and moved by Reorg3DMatch.
type ThreeDMatchResult struct {
	Intrinsics *calibration.PinholeCameraIntrinsics
	Colors     int
	Depths     int
	Poses      int
	Moved      int
}

// Reorg3DMatch converts a 3DMatch/7-Scenes style sequence. camera-intrinsics.txt becomes cal.txt
// and the "<frame>.color.png", "<frame>.depth.png" and "<frame>.pose.txt" files of seq are moved
// into color/, depth/ and pose/ with zero padded sequential names. Frames are moved while all three
// kinds are available; extras of any kind are left in place.
func Reorg3DMatch(dir, seq string, logger logging.Logger) (*ThreeDMatchResult, error) {
	intrinsicsPath := filepath.Join(dir, ThreeDMatchIntrinsics)
	//nolint:gosec
	f, err := os.Open(intrinsicsPath)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open %q", intrinsicsPath)
	}
	intrinsics, err := calibration.ReadIntrinsicsMatrix(f)
	utils.UncheckedError(f.Close())
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read %q", intrinsicsPath)
	}
	if err := rgbdutils.WriteFileAtomic(filepath.Join(dir, ThreeDMatchCal), func(w io.Writer) error {
		return calibration.WriteCal(w, intrinsics)
	}); err != nil {
		return nil, err
	}

	seqDir := filepath.Join(dir, seq)
	entries, err := os.ReadDir(seqDir)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot list %q", seqDir)
	}
	names := lo.FilterMap(entries, func(entry os.DirEntry, _ int) (string, bool) {
		return entry.Name(), isFile(filepath.Join(seqDir, entry.Name()))
	})
	slices.Sort(names)

	colors := lo.Filter(names, func(name string, _ int) bool { return frameKind(name) == "color" })
	depths := lo.Filter(names, func(name string, _ int) bool { return frameKind(name) == "depth" })
	poses := lo.Filter(names, func(name string, _ int) bool { return frameKind(name) == "pose" })
	logger.Infow("found 3DMatch frames", "seq", seq, "color", len(colors), "depth", len(depths), "pose", len(poses))

	for _, sub := range []string{"color", "depth", "pose"} {
		if err := os.MkdirAll(filepath.Join(seqDir, sub), 0o750); err != nil {
			return nil, err
		}
	}

	result := &ThreeDMatchResult{
		Intrinsics: intrinsics,
		Colors:     len(colors),
		Depths:     len(depths),
		Poses:      len(poses),
	}
	n := min(len(colors), len(depths), len(poses))
	for i := 0; i < n; i++ {
		moves := [][2]string{
			{colors[i], filepath.Join("color", fmt.Sprintf("%04d.png", i))},
			{depths[i], filepath.Join("depth", fmt.Sprintf("%04d.png", i))},
			{poses[i], filepath.Join("pose", fmt.Sprintf("%04d.txt", i))},
		}
		for _, mv := range moves {
			if err := moveInto(seqDir, mv[0], mv[1]); err != nil {
				return result, err
			}
		}
		result.Moved++
	}
	return result, nil
}

// frameKind returns the second to last dot separated part of name, e.g. "color" for
// "frame-000000.color.png".
func frameKind(name string) string {
	parts := strings.Split(name, ".")
	if len(parts) < 2 {
		return ""
	}
	return parts[len(parts)-2]
}

func moveInto(dir, from, to string) error {
	src, err := rgbdutils.SafeJoinDir(dir, from)
	if err != nil {
		return err
	}
	dst, err := rgbdutils.SafeJoinDir(dir, to)
	if err != nil {
		return err
	}
	if err := os.Rename(src, dst); err != nil {
		return errors.Wrapf(err, "cannot move %q to %q", from, to)
	}
	return nil
}
