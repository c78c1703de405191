package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// Change tells dashboards that one of a user's streams has new data.
type Change struct {
	User   string    `json:"user"`
	Stream string    `json:"stream"`
	At     time.Time `json:"at"`
}

// NewChange stamps a change notice with the current time.
func NewChange(user, stream string) Change {
	return Change{User: user, Stream: stream, At: time.Now().UTC()}
}

// ToJSON encodes the notice.
func (c Change) ToJSON() ([]byte, error) {
	return json.Marshal(c)
}

// ChangeFromJSON decodes a notice and checks required fields.
func ChangeFromJSON(data []byte) (Change, error) {
	var c Change
	if err := json.Unmarshal(data, &c); err != nil {
		return c, fmt.Errorf("decode change: %w", err)
	}
	if c.User == "" || c.Stream == "" {
		return c, fmt.Errorf("decode change: missing user or stream")
	}
	return c, nil
}

// RoutingKey is the direct-exchange key notices for user are published on.
func RoutingKey(prefix, user string) string {
	return prefix + "." + user
}
