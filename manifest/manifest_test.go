package manifest

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"go.viam.com/test"

	"go.viam.com/rgbdassoc/associate"
	"go.viam.com/rgbdassoc/stamp"
)

func mustLoad(t *testing.T, name, data string) *stamp.Index {
	t.Helper()
	idx, err := stamp.Load(strings.NewReader(data), name)
	test.That(t, err, test.ShouldBeNil)
	return idx
}

type streams struct {
	depth, rgb, gt *stamp.Index
}

func freiburgStreams(t *testing.T) streams {
	t.Helper()
	return streams{
		depth: mustLoad(t, "depth.txt", "1.0 depth/1.png\n2.0 depth/2.png\n3.0 depth/3.png\n"),
		rgb:   mustLoad(t, "rgb.txt", "1.01 rgb/1.png\n2.01 rgb/2.png\n"),
		gt:    mustLoad(t, "groundtruth.txt", "1.005 1 2 3 0 0 0 1\n3.005 4 5 6 0 0 1 0\n"),
	}
}

func TestJoin(t *testing.T) {
	s := freiburgStreams(t)
	opts := associate.DefaultOptions()
	depthRGB := associate.Associate(s.depth, s.rgb, opts)
	depthGT := associate.Associate(s.depth, s.gt, opts)
	test.That(t, depthRGB.Len(), test.ShouldEqual, 2)
	test.That(t, depthGT.Len(), test.ShouldEqual, 2)

	joined, err := Join(s.depth, s.rgb, s.gt, depthRGB, depthGT)
	test.That(t, err, test.ShouldBeNil)

	expected := []Joined{{
		Anchor: Entry{Stamp: 1.0, Payload: []string{"depth/1.png"}},
		First:  Entry{Stamp: 1.01, Payload: []string{"rgb/1.png"}},
		Second: Entry{Stamp: 1.005, Payload: []string{"1", "2", "3", "0", "0", "0", "1"}},
	}}
	if diff := cmp.Diff(expected, joined); diff != "" {
		t.Errorf("joined mismatch (-want +got):\n%s", diff)
	}

	first, second := Split(joined)
	test.That(t, first, test.ShouldResemble, []Pair{{Anchor: expected[0].Anchor, Partner: expected[0].First}})
	test.That(t, second, test.ShouldResemble, []Pair{{Anchor: expected[0].Anchor, Partner: expected[0].Second}})
}

func TestJoinSortedByAnchor(t *testing.T) {
	anchor := mustLoad(t, "anchor", "3 c\n1 a\n2 b\n")
	partner := mustLoad(t, "partner", "2 y\n3 z\n1 x\n")
	assoc := associate.Associate(anchor, partner, associate.DefaultOptions())

	joined, err := Join(anchor, partner, partner, assoc, assoc)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, joined, test.ShouldHaveLength, 3)
	for i, j := range joined {
		test.That(t, j.Anchor.Stamp, test.ShouldEqual, float64(i+1))
		test.That(t, j.First.Stamp, test.ShouldEqual, j.Second.Stamp)
	}
}

func TestJoinEmptyStream(t *testing.T) {
	s := freiburgStreams(t)
	empty := stamp.NewIndex("rgb.txt")
	opts := associate.DefaultOptions()

	depthRGB := associate.Associate(s.depth, empty, opts)
	test.That(t, depthRGB.Len(), test.ShouldEqual, 0)
	joined, err := Join(s.depth, empty, s.gt, depthRGB, associate.Associate(s.depth, s.gt, opts))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, joined, test.ShouldBeEmpty)

	first, second := Split(joined)
	test.That(t, first, test.ShouldBeEmpty)
	test.That(t, second, test.ShouldBeEmpty)
}

func TestJoinMismatchedIndex(t *testing.T) {
	s := freiburgStreams(t)
	opts := associate.DefaultOptions()
	depthRGB := associate.Associate(s.depth, s.rgb, opts)

	// The association refers to rgb stamps, which the ground truth stream does not have.
	_, err := Join(s.depth, s.gt, s.gt, depthRGB, depthRGB)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "groundtruth.txt")

	_, err = Pairs(s.depth, s.gt, depthRGB)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWriteAssociation(t *testing.T) {
	s := freiburgStreams(t)
	pairs, err := Pairs(s.depth, s.rgb, associate.Associate(s.depth, s.rgb, associate.DefaultOptions()))
	test.That(t, err, test.ShouldBeNil)

	var buf bytes.Buffer
	test.That(t, WriteAssociation(&buf, pairs), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldEqual,
		"1.000000 depth/1.png 1.010000 rgb/1.png\n"+
			"2.000000 depth/2.png 2.010000 rgb/2.png\n")

	err = WriteAssociation(&buf, []Pair{{Anchor: Entry{Stamp: 1}, Partner: Entry{Stamp: 1}}})
	test.That(t, err, test.ShouldNotBeNil)
}

func TestWriteAssociationKeepsFirstToken(t *testing.T) {
	pairs := []Pair{{
		Anchor:  Entry{Stamp: 1305031102.1753039, Payload: []string{"depth/a.png", "extra"}},
		Partner: Entry{Stamp: 1305031102.16, Payload: []string{"rgb/b.png", "more"}},
	}}
	var buf bytes.Buffer
	test.That(t, WriteAssociation(&buf, pairs), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldEqual, "1305031102.175304 depth/a.png 1305031102.160000 rgb/b.png\n")
}

func TestWriteTrajectory(t *testing.T) {
	s := freiburgStreams(t)
	opts := associate.DefaultOptions()
	joined, err := Join(s.depth, s.rgb, s.gt,
		associate.Associate(s.depth, s.rgb, opts), associate.Associate(s.depth, s.gt, opts))
	test.That(t, err, test.ShouldBeNil)
	_, trajectory := Split(joined)

	var buf bytes.Buffer
	test.That(t, WriteTrajectory(&buf, trajectory), test.ShouldBeNil)
	test.That(t, buf.String(), test.ShouldEqual, strings.Join([]string{
		"# ground truth trajectory for associated depth and rgb",
		"# dummy",
		"# timestamp tx ty tz qx qy qz qw",
		"1.005000 1 2 3 0 0 0 1",
		"",
	}, "\n"))

	buf.Reset()
	test.That(t, WriteTrajectory(&buf, nil), test.ShouldBeNil)
	test.That(t, strings.Count(buf.String(), "\n"), test.ShouldEqual, 3)
}

func TestReadAssociation(t *testing.T) {
	const data = "# header\n0 rgb/0000.png 0 depth/0000.png\n\n1.5 rgb/0001.png 1.25 depth/0001.png\n"
	pairs, err := ReadAssociation(strings.NewReader(data))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, pairs, test.ShouldResemble, []Pair{
		{Anchor: Entry{Stamp: 0, Payload: []string{"rgb/0000.png"}}, Partner: Entry{Stamp: 0, Payload: []string{"depth/0000.png"}}},
		{Anchor: Entry{Stamp: 1.5, Payload: []string{"rgb/0001.png"}}, Partner: Entry{Stamp: 1.25, Payload: []string{"depth/0001.png"}}},
	})

	_, err = ReadAssociation(strings.NewReader("1 a 2\n"))
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "line 1")

	_, err = ReadAssociation(strings.NewReader("x a 2 b\n"))
	test.That(t, err, test.ShouldNotBeNil)
}
