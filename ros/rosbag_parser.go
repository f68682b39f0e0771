// Package ros reads timestamp streams out of ROS bags.
package ros

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/edaniels/gobag/rosbag"
	"github.com/pkg/errors"
	"go.viam.com/utils"

	"go.viam.com/rgbdassoc/stamp"
)

// ReadBag reads the contents of a rosbag into a gobag data structure.
func ReadBag(filename string) (*rosbag.RosBag, error) {
	//nolint:gosec
	f, err := os.Open(filename)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to open input file")
	}
	defer utils.UncheckedErrorFunc(f.Close)

	rb := rosbag.NewRosBag()
	if err := rb.Read(f); err != nil {
		return nil, errors.Wrapf(err, "unable to create ros bag")
	}
	return rb, nil
}

// PayloadFunc builds the payload tokens of a record from a message and its position in the
// topic.
type PayloadFunc func(msg *Message, index int) ([]string, error)

// DefaultPayload identifies a message with a single "<topic>:<seq>" token, where seq is the header
// sequence number. Messages without a header use their position in the topic.
func DefaultPayload(msg *Message, index int) ([]string, error) {
	header, err := msg.Header()
	if err != nil {
		return nil, err
	}
	seq := index
	if header != nil {
		seq = header.Seq
	}
	return []string{msg.Topic + ":" + strconv.Itoa(seq)}, nil
}

// IndexFromTopic builds a stamp index from every message of topic in rb. A nil payload uses
// DefaultPayload.
func IndexFromTopic(rb *rosbag.RosBag, topic string, payload PayloadFunc) (*stamp.Index, error) {
	if err := rb.ParseTopicsToJSON(
		"",
		func(int64) bool { return true },
		func(t string) bool { return t == topic },
		false,
	); err != nil {
		return nil, errors.Wrapf(err, "error while parsing bag to JSON")
	}

	msgs := rb.TopicsAsJSON[TopicKey(topic)]
	if msgs == nil {
		return nil, errors.Errorf("no messages for topic %s", topic)
	}
	all, err := MessagesFromJSON(topic, msgs)
	if err != nil {
		return nil, err
	}
	return IndexFromMessages(topic, all, payload)
}

// TopicKey returns the key the bag parser files a topic's messages under in TopicsAsJSON: the
// topic without its leading slash, with the remaining slashes replaced by underscores, lowercased.
func TopicKey(topic string) string {
	return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(topic, "/"), "/", "_"))
}

// MessagesFromJSON decodes one JSON message per line.
func MessagesFromJSON(topic string, r io.Reader) ([]*Message, error) {
	var all []*Message
	br := bufio.NewReader(r)
	for {
		data, err := br.ReadBytes('\n')
		if len(bytes.TrimSpace(data)) > 0 {
			msg := &Message{Topic: topic}
			if jsonErr := json.Unmarshal(data, msg); jsonErr != nil {
				return nil, errors.Wrapf(jsonErr, "cannot decode message %d of %s", len(all), topic)
			}
			all = append(all, msg)
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, err
		}
	}
	return all, nil
}

// IndexFromMessages builds a stamp index named name from msgs. Messages sharing a stamp keep the
// last one, as with text streams.
func IndexFromMessages(name string, msgs []*Message, payload PayloadFunc) (*stamp.Index, error) {
	if payload == nil {
		payload = DefaultPayload
	}
	records := make([]stamp.Record, 0, len(msgs))
	for i, msg := range msgs {
		ts, err := msg.Stamp()
		if err != nil {
			return nil, err
		}
		tokens, err := payload(msg, i)
		if err != nil {
			return nil, err
		}
		if len(tokens) == 0 {
			return nil, errors.Errorf("message %d of %s has an empty payload", i, msg.Topic)
		}
		records = append(records, stamp.Record{Stamp: ts, Payload: tokens})
	}
	return stamp.NewIndex(name, records...), nil
}
