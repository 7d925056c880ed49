package entity

import "time"

// Message is one transcript entry of a conversation
type Message struct {
	Role Role        `json:"role"`
	Text string      `json:"text"`
	Data interface{} `json:"data,omitempty"`
	At   time.Time   `json:"at"`
}
