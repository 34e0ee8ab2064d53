package whatsapp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/ngena/pkg/domain"
)

// Message types carried by the webhook.
const (
	TypeText        = "text"
	TypeButton      = "button"
	TypeInteractive = "interactive"
	TypeDocument    = "document"
)

// Payload is the webhook notification envelope.
type Payload struct {
	Object string `json:"object"`
	Entry  []struct {
		ID      string `json:"id"`
		Changes []struct {
			Field string `json:"field"`
			Value Value  `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

// Value is the content of one change notification.
type Value struct {
	MessagingProduct string    `json:"messaging_product"`
	Contacts         []Contact `json:"contacts"`
	Messages         []Message `json:"messages"`
}

// Contact is the sender profile.
type Contact struct {
	WaID    string `json:"wa_id"`
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
}

// Message is one inbound message.
type Message struct {
	ID   string `json:"id"`
	From string `json:"from"`
	Type string `json:"type"`

	Text *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
	Button *struct {
		Payload string `json:"payload"`
		Text    string `json:"text"`
	} `json:"button,omitempty"`
	Interactive *struct {
		Type        string `json:"type"`
		ButtonReply *reply `json:"button_reply,omitempty"`
		ListReply   *reply `json:"list_reply,omitempty"`
	} `json:"interactive,omitempty"`
	Document *struct {
		ID       string `json:"id"`
		Filename string `json:"filename"`
		MimeType string `json:"mime_type"`
	} `json:"document,omitempty"`
}

type reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

// MediaResolver turns a media id into downloadable metadata.
type MediaResolver interface {
	Media(ctx context.Context, id string) (Media, error)
}

// Parser normalizes webhook payloads.
type Parser struct {
	media    MediaResolver
	maxInput int
}

// ParserOption configures a Parser.
type ParserOption func(*Parser)

// WithMaxInputSize overrides the accepted body size in bytes.
func WithMaxInputSize(n int) ParserOption {
	return func(p *Parser) {
		if n > 0 {
			p.maxInput = n
		}
	}
}

// NewParser creates a Parser. media resolves document uploads and may be nil, in which
// case documents carry their media id as the body.
func NewParser(media MediaResolver, opts ...ParserOption) *Parser {
	p := &Parser{media: media, maxInput: DefaultMaxInputSize}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Parse extracts the first message of the payload. A payload with no message (status
// updates and the like) yields nil.
func (p *Parser) Parse(ctx context.Context, raw []byte) (*domain.IncomingMessage, error) {
	var payload Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("whatsapp: decode webhook: %w", err)
	}
	if len(payload.Entry) == 0 || len(payload.Entry[0].Changes) == 0 {
		return nil, nil
	}
	value := payload.Entry[0].Changes[0].Value
	if len(value.Messages) == 0 {
		return nil, nil
	}

	msg := value.Messages[0]
	in := &domain.IncomingMessage{UserID: msg.From, Raw: raw}
	if len(value.Contacts) > 0 {
		in.UserID = value.Contacts[0].WaID
		in.DisplayName = value.Contacts[0].Profile.Name
	}

	switch msg.Type {
	case TypeText:
		if msg.Text != nil {
			in.Body = msg.Text.Body
		}
	case TypeButton:
		if msg.Button != nil {
			in.Body = msg.Button.Payload
		}
	case TypeInteractive:
		if it := msg.Interactive; it != nil {
			if it.Type == "button_reply" && it.ButtonReply != nil {
				in.Body = it.ButtonReply.ID
			} else if it.ListReply != nil {
				in.Body = it.ListReply.ID
			}
		}
	case TypeDocument:
		if msg.Document == nil {
			break
		}
		in.Body = msg.Document.ID
		in.FileName = msg.Document.Filename
		if p.media != nil {
			m, err := p.media.Media(ctx, msg.Document.ID)
			if err != nil {
				return nil, err
			}
			in.Body = m.URL
			in.FileURL = m.URL
			if m.Name != "" {
				in.FileName = m.Name
			}
		}
	}

	body, err := sanitize(in.Body, p.maxInput)
	if err != nil {
		return nil, err
	}
	in.Body = strings.TrimSpace(body)
	return in, nil
}
