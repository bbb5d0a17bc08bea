package realtime

import "encoding/json"

// Notification is one staff notification pushed by the backend.
type Notification struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Type       string `json:"type"`
	EntityType string `json:"entity_type"`
	EntityID   int64  `json:"entity_id"`
}

// envelope is the wire shape of every JSON frame.
type envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// frameKind classifies an inbound frame.
type frameKind int

const (
	frameKeepalive frameKind = iota // non-JSON traffic, e.g. the server's pong
	frameNotification
	frameCountUpdate
	frameUnknown
)

// frame is one parsed inbound frame.
type frame struct {
	kind         frameKind
	msgType      string
	notification Notification
	count        int
}

// parseFrame classifies raw frame data. Frames that do not decode as a JSON
// envelope are keep-alive traffic; envelopes with an unrecognized type or a
// malformed payload are unknown. Parsing never fails.
func parseFrame(data []byte) frame {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return frame{kind: frameKeepalive}
	}

	switch env.Type {
	case "notification":
		var n Notification
		if err := json.Unmarshal(env.Data, &n); err != nil {
			return frame{kind: frameUnknown, msgType: env.Type}
		}
		return frame{kind: frameNotification, msgType: env.Type, notification: n}
	case "count_update":
		var d struct {
			Count int `json:"count"`
		}
		if err := json.Unmarshal(env.Data, &d); err != nil {
			return frame{kind: frameUnknown, msgType: env.Type}
		}
		return frame{kind: frameCountUpdate, msgType: env.Type, count: d.Count}
	default:
		return frame{kind: frameUnknown, msgType: env.Type}
	}
}
