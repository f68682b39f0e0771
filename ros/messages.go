package ros

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Time is a ROS time: whole seconds plus nanoseconds.
type Time struct {
	Secs  int64
	Nsecs int64
}

// Seconds returns t as fractional seconds.
func (t Time) Seconds() float64 {
	return float64(t.Secs) + float64(t.Nsecs)/1e9
}

// IsZero reports whether both fields are zero.
func (t Time) IsZero() bool {
	return t.Secs == 0 && t.Nsecs == 0
}

// Header is the std_msgs/Header carried by stamped messages.
type Header struct {
	Seq     int
	Stamp   Time
	FrameID string `json:"frame_id"`
}

// Message is one message of a topic as emitted by the bag JSON parser. Meta holds the time the
// message was recorded into the bag.
type Message struct {
	Topic string          `json:"-"`
	Meta  Time            `json:"meta"`
	Data  json.RawMessage `json:"data"`
}

// Header decodes the message header. It returns nil if the message has none.
func (m *Message) Header() (*Header, error) {
	if len(m.Data) == 0 {
		return nil, nil
	}
	var data struct {
		Header *Header
	}
	if err := json.Unmarshal(m.Data, &data); err != nil {
		return nil, errors.Wrapf(err, "cannot decode %s message", m.Topic)
	}
	return data.Header, nil
}

// Stamp returns the header stamp of the message, or the record time if the message has no
// header or an unset header stamp.
func (m *Message) Stamp() (float64, error) {
	header, err := m.Header()
	if err != nil {
		return 0, err
	}
	if header == nil || header.Stamp.IsZero() {
		return m.Meta.Seconds(), nil
	}
	return header.Stamp.Seconds(), nil
}
