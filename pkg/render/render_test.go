package render

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/ngena/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const to = "263771000000"

type decodedButton struct {
	Type  string `json:"type"`
	URL   string `json:"url"`
	Title string `json:"title"`
	Reply struct {
		ID    string `json:"id"`
		Title string `json:"title"`
	} `json:"reply"`
}

type decodedInteractive struct {
	Type string `json:"type"`
	Body struct {
		Text string `json:"text"`
	} `json:"body"`
	Action struct {
		Button   string `json:"button"`
		Buttons  []decodedButton
		Sections []struct {
			Title string `json:"title"`
			Rows  []struct {
				ID          string `json:"id"`
				Title       string `json:"title"`
				Description string `json:"description"`
			} `json:"rows"`
		} `json:"sections"`
	} `json:"action"`
}

func decode(t *testing.T, env domain.Envelope) decodedInteractive {
	t.Helper()
	require.Equal(t, domain.EnvelopeInteractive, env.Type)
	var out decodedInteractive
	require.NoError(t, json.Unmarshal([]byte(env.Interactive), &out))
	return out
}

func buttonIDs(d decodedInteractive) []string {
	ids := make([]string, len(d.Action.Buttons))
	for i, b := range d.Action.Buttons {
		ids[i] = b.Reply.ID
	}
	return ids
}

func TestRender_TextFallback(t *testing.T) {
	r := New(Options{})

	for _, rt := range []domain.ResponseType{"", domain.ResponseText, "carousel"} {
		env := r.Render(to, &domain.Reply{ResponseType: rt, Text: "hello <b>"})
		assert.Equal(t, "whatsapp", env.MessagingProduct)
		assert.Equal(t, "individual", env.RecipientType)
		assert.Equal(t, to, env.To)
		assert.Equal(t, domain.EnvelopeText, env.Type)
		assert.JSONEq(t, `{"preview_url":true,"body":"hello <b>"}`, env.Text)
	}

	env := r.Render(to, nil)
	assert.Equal(t, domain.EnvelopeText, env.Type)
}

func TestRender_InteractiveTruncatesDescription(t *testing.T) {
	r := New(Options{})
	long := strings.Repeat("d", 80)

	env := r.Render(to, &domain.Reply{
		ResponseType:       domain.ResponseInteractive,
		Text:               "Pick",
		MenuName:           "Select Action",
		IncludeDescription: true,
		MenuItems: []domain.MenuItem{
			{ID: "enroll", Name: "📂 Enroll", Description: long},
			{ID: "help", Name: "🆘 Help", Description: "User guide"},
		},
	})

	d := decode(t, env)
	assert.Equal(t, "list", d.Type)
	assert.Equal(t, "Select Action", d.Action.Button)
	require.Len(t, d.Action.Sections, 1)
	assert.Equal(t, SectionTitle, d.Action.Sections[0].Title)
	rows := d.Action.Sections[0].Rows
	require.Len(t, rows, 2)
	assert.Equal(t, strings.Repeat("d", 60)+"...", rows[0].Description)
	assert.Equal(t, "User guide", rows[1].Description)
}

func TestRender_InteractiveOmitsDescriptionWithoutFlag(t *testing.T) {
	r := New(Options{})
	env := r.Render(to, &domain.Reply{
		ResponseType: domain.ResponseInteractive,
		MenuItems:    []domain.MenuItem{{ID: "a", Name: "A", Description: "desc"}},
	})
	assert.Empty(t, decode(t, env).Action.Sections[0].Rows[0].Description)
}

func TestRender_InteractiveCapsRows(t *testing.T) {
	r := New(Options{})
	items := make([]domain.MenuItem, 14)
	for i := range items {
		items[i] = domain.MenuItem{ID: string(rune('a' + i)), Name: "x"}
	}
	env := r.Render(to, &domain.Reply{ResponseType: domain.ResponseInteractive, MenuItems: items})
	assert.Len(t, decode(t, env).Action.Sections[0].Rows, MaxRows)
}

func TestRender_PaginatedPassesRowsThrough(t *testing.T) {
	r := New(Options{})
	rows := []domain.Row{
		{ID: "outsourced_1", Title: "Essay", Description: "due soon..."},
		{ID: "next_page", Title: "Next Page"},
	}
	env := r.Render(to, &domain.Reply{ResponseType: domain.ResponsePaginatedInteractive, MenuName: "📝 Pending", Rows: rows})

	d := decode(t, env)
	got := d.Action.Sections[0].Rows
	require.Len(t, got, 2)
	assert.Equal(t, "outsourced_1", got[0].ID)
	assert.Equal(t, "due soon...", got[0].Description)
	assert.Equal(t, "next_page", got[1].ID)
}

func TestRender_Button(t *testing.T) {
	r := New(Options{})

	d := decode(t, r.Render(to, &domain.Reply{ResponseType: domain.ResponseButton, Text: "t"}))
	assert.Equal(t, "button", d.Type)
	assert.Equal(t, []string{BackID, MenuID}, buttonIDs(d))
	assert.Equal(t, BackTitle, d.Action.Buttons[0].Reply.Title)
	assert.Equal(t, MenuTitle, d.Action.Buttons[1].Reply.Title)

	d = decode(t, r.Render(to, &domain.Reply{ResponseType: domain.ResponseButton, ExcludeBack: true, Menu: "course_menu"}))
	assert.Equal(t, []string{"course_menu"}, buttonIDs(d))
}

func TestRender_Download(t *testing.T) {
	d := decode(t, New(Options{}).Render(to, &domain.Reply{ResponseType: domain.ResponseDownload}))
	assert.Equal(t, []string{DownloadID, UploadID}, buttonIDs(d))
}

func TestRender_PayDownload(t *testing.T) {
	r := New(Options{})

	d := decode(t, r.Render(to, &domain.Reply{ResponseType: domain.ResponsePayDownload, ID: "17"}))
	assert.Equal(t, []string{"payment_17", "download_17"}, buttonIDs(d))

	d = decode(t, r.Render(to, &domain.Reply{ResponseType: domain.ResponsePayDownload, ID: "17", ExcludeDownload: true}))
	assert.Equal(t, []string{"payment_17"}, buttonIDs(d))
}

func TestRender_Pay(t *testing.T) {
	d := decode(t, New(Options{}).Render(to, &domain.Reply{ResponseType: domain.ResponsePay, ID: "9"}))
	require.Len(t, d.Action.Buttons, 1)
	assert.Equal(t, "web_url", d.Action.Buttons[0].Type)
	assert.Equal(t, "https://bow-space.com/paynow/9", d.Action.Buttons[0].URL)
	assert.Equal(t, PayNowTitle, d.Action.Buttons[0].Title)

	d = decode(t, New(Options{PayURL: "https://pay.example/"}).Render(to, &domain.Reply{ResponseType: domain.ResponsePay, ID: "9"}))
	assert.Equal(t, "https://pay.example/9", d.Action.Buttons[0].URL)
}

func TestRender_DownloadOutsourced(t *testing.T) {
	r := New(Options{})

	d := decode(t, r.Render(to, &domain.Reply{ResponseType: domain.ResponseDownloadOutsourced}))
	assert.Equal(t, []string{BackID}, buttonIDs(d))

	d = decode(t, r.Render(to, &domain.Reply{ResponseType: domain.ResponseDownloadOutsourced, DownloadSolution: "5"}))
	assert.Equal(t, []string{BackID, "download_solution_5"}, buttonIDs(d))
}

func TestRender_TutorialFlags(t *testing.T) {
	r := New(Options{})
	cases := []struct {
		back, next bool
		want       []string
	}{
		{false, false, []string{TutorialPrevID, TutorialNextID}},
		{false, true, []string{TutorialPrevID, TutorialFinishID}},
		{true, false, []string{TutorialNextID}},
		{true, true, []string{TutorialFinishID}},
	}
	for _, tc := range cases {
		d := decode(t, r.Render(to, &domain.Reply{ResponseType: domain.ResponseTutorial, ExcludeBack: tc.back, ExcludeNext: tc.next}))
		assert.Equal(t, tc.want, buttonIDs(d), "exclude_back=%v exclude_next=%v", tc.back, tc.next)
	}

	d := decode(t, r.Render(to, &domain.Reply{ResponseType: domain.ResponseTutorial, ExcludeNext: true}))
	assert.Equal(t, TutorialFinishText, d.Action.Buttons[1].Reply.Title)
}

func TestRender_Conversation(t *testing.T) {
	d := decode(t, New(Options{}).Render(to, &domain.Reply{ResponseType: domain.ResponseConversation}))
	assert.Equal(t, []string{SendMessageID, CourseMenuID}, buttonIDs(d))
}

func TestRender_Media(t *testing.T) {
	r := New(Options{})
	cases := []struct {
		reply *domain.Reply
		kind  string
	}{
		{&domain.Reply{ResponseType: domain.ResponseDocument, Document: "https://x/a.pdf?x=1&y=2", Text: "cap"}, domain.EnvelopeDocument},
		{&domain.Reply{ResponseType: domain.ResponseImage, Image: "https://x/a.pdf?x=1&y=2", Text: "cap"}, domain.EnvelopeImage},
		{&domain.Reply{ResponseType: domain.ResponseAudio, Audio: "https://x/a.pdf?x=1&y=2", Text: "cap"}, domain.EnvelopeAudio},
		{&domain.Reply{ResponseType: domain.ResponseVideo, Video: "https://x/a.pdf?x=1&y=2", Text: "cap"}, domain.EnvelopeVideo},
	}
	for _, tc := range cases {
		env := r.Render(to, tc.reply)
		assert.Equal(t, tc.kind, env.Type)
		assert.Equal(t, `{"link":"https://x/a.pdf?x=1&y=2","caption":"cap"}`, env.Body())
	}
}

func TestRender_FormCarriesBodyUnderType(t *testing.T) {
	env := New(Options{}).Render(to, &domain.Reply{ResponseType: domain.ResponseButton, Text: "t"})
	form := env.Form()
	assert.Equal(t, "interactive", form.Get("type"))
	assert.Equal(t, env.Interactive, form.Get("interactive"))
	assert.Equal(t, to, form.Get("to"))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", Truncate("short", 60))
	assert.Equal(t, "ééé...", Truncate("éééé", 3))
	assert.Equal(t, strings.Repeat("x", 60), Truncate(strings.Repeat("x", 60), 60))
}
