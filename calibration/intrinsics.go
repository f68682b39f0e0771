// Package calibration reads and writes the camera intrinsics text files that ship with RGB-D
// datasets.
package calibration

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"go.viam.com/utils"
	"gonum.org/v1/gonum/mat"
)

// ErrNoIntrinsics is when a camera does not have intrinsics parameters or other parameters.
var ErrNoIntrinsics = errors.New("camera intrinsic parameters are not available")

// NewNoIntrinsicsError is used when the intriniscs are not defined.
func NewNoIntrinsicsError(msg string) error {
	return errors.Wrap(ErrNoIntrinsics, msg)
}

// PinholeCameraIntrinsics holds the parameters necessary to do a perspective projection of a 3D scene to the 2D plane.
// Width and Height are zero when the source file does not carry the image size.
type PinholeCameraIntrinsics struct {
	Width  int     `json:"width_px"`
	Height int     `json:"height_px"`
	Fx     float64 `json:"fx"`
	Fy     float64 `json:"fy"`
	Ppx    float64 `json:"ppx"`
	Ppy    float64 `json:"ppy"`
}

// TUMDefault returns the default intrinsics of the TUM RGB-D benchmark's Kinect.
func TUMDefault() *PinholeCameraIntrinsics {
	return &PinholeCameraIntrinsics{Width: 640, Height: 480, Fx: 525.0, Fy: 525.0, Ppx: 319.5, Ppy: 239.5}
}

// CheckValid checks if the fields for PinholeCameraIntrinsics have valid inputs.
func (params *PinholeCameraIntrinsics) CheckValid() error {
	if params == nil {
		return NewNoIntrinsicsError("Intrinsics do not exist")
	}
	if params.Width < 0 || params.Height < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid size (%#v, %#v)", params.Width, params.Height))
	}
	if params.Fx <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fx = %#v", params.Fx))
	}
	if params.Fy <= 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid focal length Fy = %#v", params.Fy))
	}
	if params.Ppx < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal X point Ppx = %#v", params.Ppx))
	}
	if params.Ppy < 0 {
		return NewNoIntrinsicsError(fmt.Sprintf("Invalid principal Y point Ppy = %#v", params.Ppy))
	}
	return nil
}

// NewPinholeCameraIntrinsicsFromJSONFile takes in a file path to a JSON and turns it into PinholeCameraIntrinsics.
func NewPinholeCameraIntrinsicsFromJSONFile(jsonPath string) (*PinholeCameraIntrinsics, error) {
	//nolint:gosec
	jsonFile, err := os.Open(jsonPath)
	if err != nil {
		return nil, errors.Wrap(err, "error opening JSON file")
	}
	defer utils.UncheckedErrorFunc(jsonFile.Close)

	intrinsics := &PinholeCameraIntrinsics{}
	if err := json.NewDecoder(jsonFile).Decode(intrinsics); err != nil {
		return nil, errors.Wrap(err, "error parsing JSON string")
	}
	return intrinsics, intrinsics.CheckValid()
}

// ReadIntrinsicsMatrix parses a row-major 3x3 camera matrix, one row per line, as found in
// 3DMatch's camera-intrinsics.txt. The matrix is normalized so that its bottom right entry is 1.
func ReadIntrinsicsMatrix(r io.Reader) (*PinholeCameraIntrinsics, error) {
	var values []float64
	scanner := bufio.NewScanner(r)
	for scanner.Scan() && len(values) < 9 {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 3 {
			return nil, errors.Errorf("expected 3 values per camera matrix row but got %d", len(fields))
		}
		row, err := parseFloats(fields)
		if err != nil {
			return nil, err
		}
		values = append(values, row...)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(values) != 9 {
		return nil, NewNoIntrinsicsError(fmt.Sprintf("camera matrix has %d values, expected 9", len(values)))
	}

	k := mat.NewDense(3, 3, values)
	if k.At(2, 0) != 0 || k.At(2, 1) != 0 || k.At(2, 2) == 0 {
		return nil, NewNoIntrinsicsError(fmt.Sprintf("camera matrix bottom row must be [0 0 s], got %v", mat.Row(nil, 2, k)))
	}
	if mat.Det(k) == 0 {
		return nil, NewNoIntrinsicsError("camera matrix is singular")
	}
	// A camera matrix is only defined up to scale.
	k.Scale(1/k.At(2, 2), k)
	intrinsics := &PinholeCameraIntrinsics{
		Fx:  k.At(0, 0),
		Fy:  k.At(1, 1),
		Ppx: k.At(0, 2),
		Ppy: k.At(1, 2),
	}
	return intrinsics, intrinsics.CheckValid()
}

// ReadCal parses a one line "fx fy cx cy" calibration file.
func ReadCal(r io.Reader) (*PinholeCameraIntrinsics, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	fields := strings.Fields(string(data))
	if len(fields) != 4 {
		return nil, NewNoIntrinsicsError(fmt.Sprintf("calibration has %d values, expected 4", len(fields)))
	}
	values, err := parseFloats(fields)
	if err != nil {
		return nil, err
	}
	intrinsics := &PinholeCameraIntrinsics{Fx: values[0], Fy: values[1], Ppx: values[2], Ppy: values[3]}
	return intrinsics, intrinsics.CheckValid()
}

// WriteCal writes the intrinsics as a one line "fx fy cx cy" calibration file. Whole numbers keep
// a trailing ".0" so that existing readers of these files keep treating them as floats.
func WriteCal(w io.Writer, params *PinholeCameraIntrinsics) error {
	if err := params.CheckValid(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%s %s %s %s\n",
		formatCalValue(params.Fx), formatCalValue(params.Fy), formatCalValue(params.Ppx), formatCalValue(params.Ppy))
	return err
}

func formatCalValue(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

func parseFloats(fields []string) ([]float64, error) {
	values := make([]float64, 0, len(fields))
	for _, field := range fields {
		v, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad calibration value %q", field)
		}
		values = append(values, v)
	}
	return values, nil
}
