package manifest

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// TrajectoryHeader is written at the top of every trajectory manifest.
var TrajectoryHeader = []string{
	"# ground truth trajectory for associated depth and rgb",
	"# dummy",
	"# timestamp tx ty tz qx qy qz qw",
}

// WriteAssociation writes one "<anchor stamp> <anchor file> <partner stamp> <partner file>" line
// per pair. Stamps are printed with six decimals and only the first payload token of each side is
// kept.
func WriteAssociation(w io.Writer, pairs []Pair) error {
	bw := bufio.NewWriter(w)
	for _, p := range pairs {
		if len(p.Anchor.Payload) == 0 || len(p.Partner.Payload) == 0 {
			return errors.Errorf("pair at %f has an empty payload", p.Anchor.Stamp)
		}
		if _, err := fmt.Fprintf(bw, "%.6f %s %.6f %s\n",
			p.Anchor.Stamp, p.Anchor.Payload[0], p.Partner.Stamp, p.Partner.Payload[0]); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteTrajectory writes the trajectory header followed by one "<partner stamp> <partner payload>"
// line per pair, keeping every payload token.
func WriteTrajectory(w io.Writer, pairs []Pair) error {
	bw := bufio.NewWriter(w)
	for _, line := range TrajectoryHeader {
		if _, err := fmt.Fprintln(bw, line); err != nil {
			return err
		}
	}
	for _, p := range pairs {
		if _, err := fmt.Fprintf(bw, "%.6f %s\n", p.Partner.Stamp, strings.Join(p.Partner.Payload, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadAssociation parses a file written by WriteAssociation. Blank lines and '#' comments are
// skipped.
func ReadAssociation(r io.Reader) ([]Pair, error) {
	var pairs []Pair
	scanner := bufio.NewScanner(r)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, errors.Errorf("line %d: expected 4 fields but got %d", lineNum, len(fields))
		}
		anchorStamp, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: bad anchor stamp", lineNum)
		}
		partnerStamp, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d: bad partner stamp", lineNum)
		}
		pairs = append(pairs, Pair{
			Anchor:  Entry{Stamp: anchorStamp, Payload: []string{fields[1]}},
			Partner: Entry{Stamp: partnerStamp, Payload: []string{fields[3]}},
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return pairs, nil
}
