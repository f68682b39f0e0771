package layout

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/pkg/errors"

	"go.viam.com/rgbdassoc/calibration"
	"go.viam.com/rgbdassoc/logging"
	"go.viam.com/rgbdassoc/utils"
)

// Output files written by RawDataset.
const (
	AssociatedFile  = "associated.txt"
	ColorListFile   = "rgb.txt"
	DepthListFile   = "depth.txt"
	CalibrationFile = "calibration.txt"
)

// ColorDirs are the folder names searched, in order, for color images.
var ColorDirs = []string{"image/", "rgb/", "color/"}

// DepthDir is the folder holding depth images.
const DepthDir = "depth/"

// CountMismatchError is returned when a raw dataset does not have one depth image per color image.
type CountMismatchError struct {
	Color int
	Depth int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("found %d color images but %d depth images", e.Color, e.Depth)
}

// RawResult describes what RawDataset wrote.
type RawResult struct {
	ColorDir string
	Frames   int
}

// RawDataset associates a dataset whose color and depth frames carry no timestamps by pairing the
// i-th color image with the i-th depth image. It writes associated.txt, rgb.txt, depth.txt and a
// calibration.txt with the TUM default intrinsics. Nothing is written if the counts differ.
func RawDataset(dir string, logger logging.Logger) (*RawResult, error) {
	colorDir, err := findColorDir(dir)
	if err != nil {
		return nil, err
	}
	jpgs, err := ListFiles(filepath.Join(dir, colorDir), colorDir, ".jpg")
	if err != nil {
		return nil, err
	}
	pngs, err := ListFiles(filepath.Join(dir, colorDir), colorDir, ".png")
	if err != nil {
		return nil, err
	}
	colorFiles := append(jpgs, pngs...)
	depthFiles, err := ListFiles(filepath.Join(dir, DepthDir), DepthDir, ".png")
	if err != nil {
		return nil, err
	}
	if len(colorFiles) != len(depthFiles) {
		return nil, &CountMismatchError{Color: len(colorFiles), Depth: len(depthFiles)}
	}
	logger.Infow("pairing raw frames by index", "color_dir", colorDir, "frames", len(colorFiles))

	writes := []struct {
		name  string
		write func(io.Writer) error
	}{
		{AssociatedFile, func(w io.Writer) error {
			for i := range colorFiles {
				if _, err := fmt.Fprintf(w, "%d %s %d %s\n", i, colorFiles[i], i, depthFiles[i]); err != nil {
					return err
				}
			}
			return nil
		}},
		{ColorListFile, writeLines(colorFiles)},
		{DepthListFile, writeLines(depthFiles)},
		{CalibrationFile, func(w io.Writer) error {
			return calibration.WriteCal(w, calibration.TUMDefault())
		}},
	}
	for _, out := range writes {
		if err := utils.WriteFileAtomic(filepath.Join(dir, out.name), out.write); err != nil {
			return nil, err
		}
	}
	return &RawResult{ColorDir: colorDir, Frames: len(colorFiles)}, nil
}

func findColorDir(dir string) (string, error) {
	for _, name := range ColorDirs {
		if isDir(filepath.Join(dir, name)) {
			return name, nil
		}
	}
	return "", errors.Errorf("no color folder (one of %v) in %q", ColorDirs, dir)
}

func writeLines(lines []string) func(io.Writer) error {
	return func(w io.Writer) error {
		for _, line := range lines {
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	}
}
