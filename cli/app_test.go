package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/edaniels/gobag/rosbag"
	"go.viam.com/test"

	"go.viam.com/rgbdassoc/associate"
	"go.viam.com/rgbdassoc/dataset"
	"go.viam.com/rgbdassoc/logging"
	"go.viam.com/rgbdassoc/ros"
	"go.viam.com/rgbdassoc/utils"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"rgbdassoc"}, args...))
	return out.String(), errOut.String(), err
}

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, data := range files {
		path := filepath.Join(dir, name)
		test.That(t, os.MkdirAll(filepath.Dir(path), 0o750), test.ShouldBeNil)
		test.That(t, os.WriteFile(path, []byte(data), 0o600), test.ShouldBeNil)
	}
}

func TestPair(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.txt": "# first\n1.000 a1.png\n2.000 a2.png\n3.000 a3.png\n",
		"b.txt": "1.010 b1.png\n2.030 b2.png\n2.990 b3.png\n",
	})
	first, second := filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")

	out, _, err := run(t, "pair", first, second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "1.000000 a1.png 1.010000 b1.png\n3.000000 a3.png 2.990000 b3.png\n")

	out, _, err = run(t, "pair", "--max-difference", "0.05", first, second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.Count(out, "\n"), test.ShouldEqual, 3)

	out, _, err = run(t, "pair", "--offset", "1", "--max-difference", "0.05", first, second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "2.000000 a2.png 1.010000 b1.png\n3.000000 a3.png 2.030000 b2.png\n")

	_, _, err = run(t, "pair", first)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "expects 2 argument(s)")

	_, _, err = run(t, "pair", first, filepath.Join(dir, "missing.txt"))
	test.That(t, err, test.ShouldNotBeNil)
}

func TestPairEnvironment(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.txt": "1.0 a.png\n",
		"b.txt": "1.3 b.png\n",
	})
	first, second := filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")

	out, errOut, err := run(t, "pair", first, second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldBeEmpty)
	test.That(t, errOut, test.ShouldContainSubstring, "association is empty")

	t.Setenv(utils.MaxDifferenceEnvVar, "0.5")
	out, _, err = run(t, "pair", first, second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "1.000000 a.png 1.300000 b.png\n")

	t.Setenv(utils.LogLevelEnvVar, "loud")
	_, _, err = run(t, "pair", first, second)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, utils.LogLevelEnvVar)
}

func TestPairRejectDuplicates(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"a.txt": "1.0 a.png\n1.0 b.png\n",
		"b.txt": "1.0 c.png\n",
	})
	first, second := filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")

	out, errOut, err := run(t, "pair", first, second)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "1.000000 b.png 1.000000 c.png\n")
	test.That(t, errOut, test.ShouldContainSubstring, "duplicate timestamps overwritten")

	_, _, err = run(t, "pair", "--reject-duplicates", first, second)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "duplicate")
}

func TestAssociate(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		dataset.DefaultDepth:       "1.00 depth/1.png\n2.00 depth/2.png\n3.00 depth/3.png\n",
		dataset.DefaultColor:       "1.01 rgb/1.png\n2.01 rgb/2.png\n",
		dataset.DefaultGroundTruth: "1.005 1 2 3 0 0 0 1\n3.005 4 5 6 0 0 0 1\n",
	})

	out, errOut, err := run(t, "--debug", "associate", dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "depth/color")
	test.That(t, out, test.ShouldContainSubstring, "JOINED")
	test.That(t, out, test.ShouldContainSubstring, dataset.DefaultAssociationOut)
	test.That(t, errOut, test.ShouldContainSubstring, "loaded stream")

	data, err := os.ReadFile(filepath.Join(dir, dataset.DefaultAssociationOut))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "1.000000 depth/1.png 1.010000 rgb/1.png\n")
	data, err = os.ReadFile(filepath.Join(dir, dataset.DefaultTrajectoryOut))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldContainSubstring, "\n1.005000 1 2 3 0 0 0 1\n")

	out, _, err = run(t, "associate", "--max-difference", "0.001", dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "Warning: no frames were associated")
}

func TestAssociateConfig(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"d.txt":  "1.00 depth/1.png\n",
		"c.txt":  "1.03 rgb/1.png\n",
		"gt.txt": "1.03 0 0 0 0 0 0 1\n",
		"cfg.json": `{"depth": "d.txt", "color": "c.txt", "groundtruth": "gt.txt",
			"max_difference": 0.05, "association_out": "out.txt", "trajectory_out": "traj.txt"}`,
	})
	cfgPath := filepath.Join(dir, "cfg.json")

	_, _, err := run(t, "associate", "--config", cfgPath, dir)
	test.That(t, err, test.ShouldBeNil)
	data, err := os.ReadFile(filepath.Join(dir, "out.txt"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, "1.000000 depth/1.png 1.030000 rgb/1.png\n")

	// flags override the file
	_, _, err = run(t, "associate", "--config", cfgPath, "--max-difference", "0.01", dir)
	test.That(t, err, test.ShouldBeNil)
	data, err = os.ReadFile(filepath.Join(dir, "out.txt"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldBeEmpty)

	_, _, err = run(t, "associate", "--config", filepath.Join(dir, "missing.json"), dir)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestRaw(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{"rgb/0.png": "", "rgb/1.png": "", "depth/0.png": "", "depth/1.png": ""})

	out, _, err := run(t, "raw", dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "Info: paired 2 frames from rgb/\n")

	_, _, err = run(t, "raw")
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReorgTUM(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"rgb/a.png":   "",
		"depth/a.png": "",
		"assoc.txt":   "1.0 rgb/a.png 1.0 depth/a.png\n",
	})

	out, _, err := run(t, "reorg-tum", "--association", "assoc.txt", dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldEqual, "Info: moved 1 frames\n")
	_, err = os.Stat(filepath.Join(dir, "color_mf", "0000.png"))
	test.That(t, err, test.ShouldBeNil)
}

func TestReorg3DMatch(t *testing.T) {
	dir := t.TempDir()
	writeFiles(t, dir, map[string]string{
		"camera-intrinsics.txt":    "585 0 320\n0 585 240\n0 0 1\n",
		"seq-02/frame-0.color.png": "",
		"seq-02/frame-0.depth.png": "",
		"seq-02/frame-0.pose.txt":  "",
		"seq-02/frame-1.color.png": "",
	})

	out, _, err := run(t, "reorg-3dmatch", "--seq", "seq-02", dir)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "Info: moved 1 of 2 color, 1 depth and 1 pose frames")
	test.That(t, out, test.ShouldContainSubstring, "Warning: some frames were left in seq-02")
}

func TestBag(t *testing.T) {
	_, _, err := run(t, "bag", "--first-topic", "/a", "--second-topic", "/b", filepath.Join(t.TempDir(), "missing.bag"))
	test.That(t, err, test.ShouldNotBeNil)

	_, _, err = run(t, "bag", "--first-topic", "/a", "x.bag")
	test.That(t, err, test.ShouldNotBeNil)
}

func stampedMessage(secs, nsecs, seq int) string {
	return fmt.Sprintf(`{"meta": {"secs":%d,"nsecs":%d}, "data":{"header":{"seq":%d,"stamp":{"secs":%d,"nsecs":%d}}}}`+"\n",
		secs, nsecs, seq, secs, nsecs)
}

func TestBagTopics(t *testing.T) {
	rb := rosbag.NewRosBag()
	rb.TopicsAsJSON[ros.TopicKey("/camera/depth/image")] = bytes.NewBufferString(
		stampedMessage(1305031102, 160407000, 1) + stampedMessage(1305031102, 194330000, 2))
	rb.TopicsAsJSON[ros.TopicKey("/camera/rgb/image_color")] = bytes.NewBufferString(
		stampedMessage(1305031102, 175304000, 3) + stampedMessage(1305031102, 211214000, 4))

	first, second, err := topicIndexes(rb, "/camera/depth/image", "/camera/rgb/image_color", true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, first.Len(), test.ShouldEqual, 2)
	test.That(t, second.Len(), test.ShouldEqual, 2)

	var out bytes.Buffer
	err = printAssociation(&out, logging.NewTestLogger(t), first, second, associate.DefaultOptions())
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out.String(), test.ShouldEqual,
		"1305031102.160407 /camera/depth/image:1 1305031102.175304 /camera/rgb/image_color:3\n"+
			"1305031102.194330 /camera/depth/image:2 1305031102.211214 /camera/rgb/image_color:4\n")

	_, _, err = topicIndexes(rb, "/camera/depth/image", "/imu", false)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "/imu")
}

func TestBagTopicsRejectDuplicates(t *testing.T) {
	rb := rosbag.NewRosBag()
	rb.TopicsAsJSON["a"] = bytes.NewBufferString(stampedMessage(1, 0, 1) + stampedMessage(1, 0, 2))
	rb.TopicsAsJSON["b"] = bytes.NewBufferString(stampedMessage(1, 0, 1))

	_, _, err := topicIndexes(rb, "/a", "/b", true)
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "repeats 1 header stamps")
}
