package domain

import (
	"net/http"
	"net/url"
)

// Envelope types as understood by the messaging API.
const (
	EnvelopeText        = "text"
	EnvelopeInteractive = "interactive"
	EnvelopeDocument    = "document"
	EnvelopeImage       = "image"
	EnvelopeAudio       = "audio"
	EnvelopeVideo       = "video"
)

// Envelope is a rendered outbound message. The structured body of every shape is a
// JSON-encoded string stored under the field named by Type.
type Envelope struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`

	Text        string `json:"text,omitempty"`
	Interactive string `json:"interactive,omitempty"`
	Document    string `json:"document,omitempty"`
	Image       string `json:"image,omitempty"`
	Audio       string `json:"audio,omitempty"`
	Video       string `json:"video,omitempty"`
}

// Body returns the encoded blob for the envelope type.
func (e Envelope) Body() string {
	switch e.Type {
	case EnvelopeInteractive:
		return e.Interactive
	case EnvelopeDocument:
		return e.Document
	case EnvelopeImage:
		return e.Image
	case EnvelopeAudio:
		return e.Audio
	case EnvelopeVideo:
		return e.Video
	default:
		return e.Text
	}
}

// Form returns the envelope as form fields, the encoding the messaging API accepts.
func (e Envelope) Form() url.Values {
	v := url.Values{}
	v.Set("messaging_product", e.MessagingProduct)
	v.Set("recipient_type", e.RecipientType)
	v.Set("to", e.To)
	v.Set("type", e.Type)
	v.Set(e.Type, e.Body())
	return v
}

// Receipt is the transport's answer to a send.
type Receipt struct {
	StatusCode int    `json:"status_code"`
	MessageID  string `json:"message_id,omitempty"`
}

// OK reports whether the message was accepted.
func (r Receipt) OK() bool {
	return r.StatusCode == http.StatusOK
}
