package bus

import (
	"context"
	"time"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Kind tells subscribers which messaging idiom produced a message.
type Kind string

const (
	KindPublish Kind = "publish"
	KindRequest Kind = "request"
	KindFulfill Kind = "fulfill"
	KindCommand Kind = "command"
	KindNotify  Kind = "notify"
)

// reply returns the kind that answers k, if any.
func (k Kind) reply() (Kind, bool) {
	switch k {
	case KindRequest:
		return KindFulfill, true
	case KindCommand:
		return KindNotify, true
	default:
		return "", false
	}
}

// Handler receives a message. The return value is fed to the next
// subscriber in pipeline mode and ignored otherwise.
type Handler func(ctx context.Context, msg Message) any

// Message is the read-only view a subscriber receives.
type Message struct {
	ID    string `json:"id"`
	Topic string `json:"topic"`
	Kind  Kind   `json:"kind"`

	// Pattern of the binding that matched.
	Pattern string `json:"pattern"`

	// Payload is the stage input in pipeline mode and the published payload otherwise.
	Payload any `json:"payload"`

	// Raw is the payload as originally published.
	Raw any `json:"raw"`

	Captures       []string  `json:"captures,omitempty"`
	ReplyTo        string    `json:"reply_to,omitempty"`
	CorrelationKey string    `json:"correlation_key,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Capture returns the i-th wildcard capture, or "" when out of range.
func (m Message) Capture(i int) string {
	if i < 0 || i >= len(m.Captures) {
		return ""
	}
	return m.Captures[i]
}

// Lookup reads a value from the payload with a gjson path.
// Byte and string payloads are parsed as JSON; anything else is encoded first.
func (m Message) Lookup(path string) gjson.Result {
	data, err := m.payloadJSON()
	if err != nil || data == nil {
		return gjson.Result{}
	}
	return gjson.GetBytes(data, path)
}

// Patch returns the payload as JSON with value set at path. A pipeline stage
// can return the result to hand a modified document to the next stage.
func (m Message) Patch(path string, value any) ([]byte, error) {
	data, err := m.payloadJSON()
	if err != nil {
		return nil, err
	}
	if data == nil {
		data = []byte("{}")
	}
	return sjson.SetBytes(data, path, value)
}

func (m Message) payloadJSON() ([]byte, error) {
	switch p := m.Payload.(type) {
	case nil:
		return nil, nil
	case []byte:
		return p, nil
	case json.RawMessage:
		return p, nil
	case string:
		return []byte(p), nil
	default:
		return json.Marshal(p)
	}
}

// IsReplyExpected reports whether the publisher waits for Fulfill or Notify.
func (m Message) IsReplyExpected() bool {
	_, ok := m.Kind.reply()
	return ok && m.ReplyTo != "" && m.CorrelationKey != ""
}
