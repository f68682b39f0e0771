// Package dataset runs the association pipeline over a TUM-style RGB-D dataset folder: it
// associates depth with color and with ground truth, joins both through the depth stream, and
// writes the association and trajectory manifests.
package dataset

import (
	"bytes"
	"encoding/json"
	"path/filepath"

	"github.com/a8m/envsubst"
	"github.com/pkg/errors"
	"github.com/yosuke-furukawa/json5/encoding/json5"
	"go.viam.com/utils"

	"go.viam.com/rgbdassoc/associate"
)

// Default file names inside a dataset folder.
const (
	DefaultDepth          = "depth.txt"
	DefaultColor          = "rgb.txt"
	DefaultGroundTruth    = "groundtruth.txt"
	DefaultAssociationOut = "assoc_depth_rgb.txt"
	DefaultTrajectoryOut  = "groundtruth_assoc_depth_rgb.txt"
)

// Config describes which stream files to read and which manifests to write. File names are
// relative to the dataset folder.
type Config struct {
	Depth            string  `json:"depth"`
	Color            string  `json:"color"`
	GroundTruth      string  `json:"groundtruth"`
	Offset           float64 `json:"offset"`
	MaxDifference    float64 `json:"max_difference"`
	AssociationOut   string  `json:"association_out"`
	TrajectoryOut    string  `json:"trajectory_out"`
	RejectDuplicates bool    `json:"reject_duplicates,omitempty"`
}

// DefaultConfig returns the layout of a TUM RGB-D benchmark sequence.
func DefaultConfig() Config {
	return Config{
		Depth:          DefaultDepth,
		Color:          DefaultColor,
		GroundTruth:    DefaultGroundTruth,
		Offset:         associate.DefaultOffset,
		MaxDifference:  associate.DefaultMaxDifference,
		AssociationOut: DefaultAssociationOut,
		TrajectoryOut:  DefaultTrajectoryOut,
	}
}

// Options returns the association options.
func (cfg *Config) Options() associate.Options {
	return associate.Options{Offset: cfg.Offset, MaxDifference: cfg.MaxDifference}
}

// Validate ensures all parts of the config are valid.
func (cfg *Config) Validate(path string) error {
	for _, field := range []struct {
		name  string
		value string
	}{
		{"depth", cfg.Depth},
		{"color", cfg.Color},
		{"groundtruth", cfg.GroundTruth},
		{"association_out", cfg.AssociationOut},
		{"trajectory_out", cfg.TrajectoryOut},
	} {
		if field.value == "" {
			return utils.NewConfigValidationFieldRequiredError(path, field.name)
		}
	}
	if err := cfg.Options().Validate(); err != nil {
		return utils.NewConfigValidationError(path, err)
	}
	inputs := map[string]bool{
		filepath.Clean(cfg.Depth):       true,
		filepath.Clean(cfg.Color):       true,
		filepath.Clean(cfg.GroundTruth): true,
	}
	for _, out := range []string{cfg.AssociationOut, cfg.TrajectoryOut} {
		if inputs[filepath.Clean(out)] {
			return utils.NewConfigValidationError(path, errors.Errorf("output %q would overwrite an input stream", out))
		}
	}
	if filepath.Clean(cfg.AssociationOut) == filepath.Clean(cfg.TrajectoryOut) {
		return utils.NewConfigValidationError(path, errors.New("association_out and trajectory_out must differ"))
	}
	return nil
}

// ReadConfig reads a JSON5 config, so comments and trailing commas are allowed. Environment
// variables in the file are expanded and fields that are absent keep their DefaultConfig values.
func ReadConfig(path string) (*Config, error) {
	buf, err := envsubst.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot read config %q", path)
	}
	var fields map[string]interface{}
	if err := json5.Unmarshal(buf, &fields); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", path)
	}
	// json5 has no strict mode; the normalized document goes through encoding/json for that.
	normalized, err := json.Marshal(fields)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	dec := json.NewDecoder(bytes.NewReader(normalized))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "cannot parse config %q", path)
	}
	if err := cfg.Validate("config"); err != nil {
		return nil, err
	}
	return &cfg, nil
}
