package domain

import "encoding/json"

// IncomingMessage is a normalized inbound event.
type IncomingMessage struct {
	// UserID is the stable channel identifier (the WhatsApp id).
	UserID      string `json:"user_id"`
	Body        string `json:"body"`
	DisplayName string `json:"display_name,omitempty"`
	FileName    string `json:"file_name,omitempty"`
	FileURL     string `json:"file_url,omitempty"`

	// Raw is the provider payload the message was normalized from.
	Raw json.RawMessage `json:"raw,omitempty"`
}
