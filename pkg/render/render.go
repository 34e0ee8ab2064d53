// Package render turns validator replies into messaging API envelopes.
package render

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/aretw0/ngena/pkg/domain"
)

// Button and list labels.
const (
	SectionTitle = "Select Option"

	BackID    = "back"
	BackTitle = "🔙 Back"
	MenuID    = "menu"
	MenuTitle = "🏠 Menu"

	DownloadID    = "download"
	DownloadTitle = "📥 Download"
	UploadID      = "upload"
	UploadTitle   = "📤 Upload"

	PayTitle    = "💳 Pay"
	PayNowTitle = "PayNow"

	TutorialPrevID     = "tutorial_prev"
	TutorialNextID     = "tutorial_next"
	TutorialNextTitle  = "🔜 Next"
	TutorialFinishID   = "tutorial_finish"
	TutorialFinishText = "🏁 Finish"

	SendMessageID    = "send_message"
	SendMessageTitle = "📤 Send"
	CourseMenuID     = "course_menu"
)

const (
	// MaxRows is the list row limit of the messaging API.
	MaxRows = 10
	// MaxDescription is the longest row description kept before truncation.
	MaxDescription = 60
	ellipsis       = "..."
)

// DefaultPayURL is the payment link prefix; the record id is appended.
const DefaultPayURL = "https://bow-space.com/paynow/"

// Options configures a Renderer.
type Options struct {
	// PayURL is the prefix of the external payment link used by "pay" replies.
	PayURL string
}

// Renderer builds envelopes. It holds no per-call state.
type Renderer struct {
	opts Options
}

// New creates a Renderer.
func New(opts Options) *Renderer {
	if opts.PayURL == "" {
		opts.PayURL = DefaultPayURL
	}
	return &Renderer{opts: opts}
}

// Render produces exactly one envelope for reply, addressed to the user. Unknown or
// missing discriminators render as text.
func (r *Renderer) Render(to string, rep *domain.Reply) domain.Envelope {
	if rep == nil {
		rep = &domain.Reply{}
	}

	switch rep.ResponseType {
	case domain.ResponseInteractive:
		return interactive(to, r.list(rep))
	case domain.ResponsePaginatedInteractive:
		return interactive(to, r.paginated(rep))
	case domain.ResponseButton:
		return interactive(to, buttons(rep.Text, r.navButtons(rep)...))
	case domain.ResponseDownload:
		return interactive(to, buttons(rep.Text,
			replyButton(DownloadID, DownloadTitle),
			replyButton(UploadID, UploadTitle),
		))
	case domain.ResponsePayDownload:
		return interactive(to, buttons(rep.Text, r.payDownload(rep)...))
	case domain.ResponsePay:
		return interactive(to, buttons(rep.Text, button{
			Type:                "web_url",
			URL:                 r.opts.PayURL + rep.ID,
			Title:               PayNowTitle,
			WebviewHeightRatio:  "full",
			MessengerExtensions: true,
		}))
	case domain.ResponseDownloadOutsourced:
		bs := []button{replyButton(BackID, BackTitle)}
		if rep.DownloadSolution != "" {
			bs = append(bs, replyButton("download_solution_"+rep.DownloadSolution, DownloadTitle))
		}
		return interactive(to, buttons(rep.Text, bs...))
	case domain.ResponseTutorial:
		return interactive(to, buttons(rep.Text, r.tutorialButtons(rep)...))
	case domain.ResponseConversation:
		return interactive(to, buttons(rep.Text,
			replyButton(SendMessageID, SendMessageTitle),
			replyButton(CourseMenuID, MenuTitle),
		))
	case domain.ResponseDocument:
		return media(to, domain.EnvelopeDocument, rep.Document, rep.Text)
	case domain.ResponseImage:
		return media(to, domain.EnvelopeImage, rep.Image, rep.Text)
	case domain.ResponseAudio:
		return media(to, domain.EnvelopeAudio, rep.Audio, rep.Text)
	case domain.ResponseVideo:
		return media(to, domain.EnvelopeVideo, rep.Video, rep.Text)
	default:
		env := base(to, domain.EnvelopeText)
		env.Text = encode(textBody{PreviewURL: true, Body: rep.Text})
		return env
	}
}

// Text is shorthand for rendering a plain text reply.
func (r *Renderer) Text(to, text string) domain.Envelope {
	return r.Render(to, domain.TextReply(text))
}

func (r *Renderer) list(rep *domain.Reply) listBody {
	items := rep.MenuItems
	if len(items) > MaxRows {
		items = items[:MaxRows]
	}
	rows := make([]listRow, len(items))
	for i, item := range items {
		rows[i] = listRow{ID: item.ID, Title: item.Name}
		if rep.IncludeDescription {
			rows[i].Description = Truncate(item.Description, MaxDescription)
		}
	}
	return listOf(rep, rows)
}

func (r *Renderer) paginated(rep *domain.Reply) listBody {
	rows := rep.Rows
	if rows == nil {
		rows = []domain.Row{}
	}
	return listOf(rep, rows)
}

func (r *Renderer) navButtons(rep *domain.Reply) []button {
	menu := MenuID
	if rep.Menu != "" {
		menu = rep.Menu
	}
	bs := []button{replyButton(BackID, BackTitle), replyButton(menu, MenuTitle)}
	if rep.ExcludeBack {
		bs = bs[1:]
	}
	return bs
}

func (r *Renderer) payDownload(rep *domain.Reply) []button {
	bs := []button{
		replyButton("payment_"+rep.ID, PayTitle),
		replyButton("download_"+rep.ID, DownloadTitle),
	}
	if rep.ExcludeDownload {
		bs = bs[:1]
	}
	return bs
}

func (r *Renderer) tutorialButtons(rep *domain.Reply) []button {
	back := replyButton(TutorialPrevID, BackTitle)
	next := replyButton(TutorialNextID, TutorialNextTitle)
	if rep.ExcludeNext {
		next = replyButton(TutorialFinishID, TutorialFinishText)
	}
	if rep.ExcludeBack {
		return []button{next}
	}
	return []button{back, next}
}

// Truncate shortens s to n runes followed by an ellipsis when it is longer.
func Truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + ellipsis
}

func listOf(rep *domain.Reply, rows any) listBody {
	return listBody{
		Type: "list",
		Body: bodyText{Text: rep.Text},
		Action: listAction{
			Button:   rep.MenuName,
			Sections: []listSection{{Title: SectionTitle, Rows: rows}},
		},
	}
}

func buttons(text string, bs ...button) buttonBody {
	return buttonBody{
		Type:   "button",
		Body:   bodyText{Text: text},
		Action: buttonAction{Buttons: bs},
	}
}

func base(to, kind string) domain.Envelope {
	return domain.Envelope{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             kind,
	}
}

func interactive(to string, body any) domain.Envelope {
	env := base(to, domain.EnvelopeInteractive)
	env.Interactive = encode(body)
	return env
}

func media(to, kind, link, caption string) domain.Envelope {
	env := base(to, kind)
	blob := encode(mediaBody{Link: link, Caption: caption})
	switch kind {
	case domain.EnvelopeDocument:
		env.Document = blob
	case domain.EnvelopeImage:
		env.Image = blob
	case domain.EnvelopeAudio:
		env.Audio = blob
	case domain.EnvelopeVideo:
		env.Video = blob
	}
	return env
}

// encode marshals wire bodies without HTML escaping so links stay readable.
// The wire types contain only strings, bools and slices, so encoding cannot fail.
func encode(v any) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
	return strings.TrimRight(buf.String(), "\n")
}
