package stamp

import (
	"bufio"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// DuplicatePolicy decides what happens when a stream repeats a timestamp.
type DuplicatePolicy int

const (
	// DuplicateOverwrite keeps the last record for a repeated stamp.
	DuplicateOverwrite DuplicatePolicy = iota
	// DuplicateReject fails the load with a *DuplicateStampError.
	DuplicateReject
)

const maxLineLength = 1 << 20

var separators = strings.NewReplacer(",", " ", "\t", " ")

type loadOptions struct {
	duplicates DuplicatePolicy
}

// LoadOption configures Load and LoadFile.
type LoadOption func(*loadOptions)

// WithDuplicatePolicy sets how repeated timestamps are handled.
func WithDuplicatePolicy(policy DuplicatePolicy) LoadOption {
	return func(opts *loadOptions) {
		opts.duplicates = policy
	}
}

// LoadFile opens path and loads it with Load, using the path as the source name.
func LoadFile(path string, opts ...LoadOption) (idx *Index, err error) {
	//nolint:gosec
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot open stream file %q", path)
	}
	defer func() {
		err = multierr.Combine(err, f.Close())
	}()
	return Load(f, path, opts...)
}

// Load reads a stream from r. Blank lines and lines starting with '#' are skipped, as are lines
// with a timestamp but no payload. A first token that does not parse as a finite number aborts
// the load with a *MalformedRecordError.
func Load(r io.Reader, name string, opts ...LoadOption) (*Index, error) {
	var options loadOptions
	for _, opt := range opts {
		opt(&options)
	}

	payloads := map[float64][]string{}
	seenOnLine := map[float64]int{}
	overwritten := 0

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := separators.Replace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		tokens := strings.Fields(line)
		if len(tokens) < 2 {
			continue
		}

		stamp, err := parseStamp(tokens[0])
		if err != nil {
			return nil, &MalformedRecordError{Source: name, Line: lineNum, Text: scanner.Text(), Err: err}
		}

		if firstLine, ok := seenOnLine[stamp]; ok {
			if options.duplicates == DuplicateReject {
				return nil, &DuplicateStampError{Source: name, Stamp: stamp, FirstLine: firstLine, Line: lineNum}
			}
			overwritten++
		}
		seenOnLine[stamp] = lineNum
		payloads[stamp] = tokens[1:]
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "error reading %s", name)
	}

	return newIndex(name, payloads, overwritten), nil
}

func parseStamp(token string) (float64, error) {
	stamp, err := strconv.ParseFloat(token, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(stamp) || math.IsInf(stamp, 0) {
		return 0, errors.Errorf("timestamp %q is not finite", token)
	}
	return stamp, nil
}
