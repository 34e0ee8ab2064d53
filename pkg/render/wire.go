package render

// Wire schema of the structured bodies embedded in envelopes.

type textBody struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

type bodyText struct {
	Text string `json:"text"`
}

type listRow struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

type listSection struct {
	Title string `json:"title"`
	Rows  any    `json:"rows"`
}

type listAction struct {
	Button   string        `json:"button"`
	Sections []listSection `json:"sections"`
}

type listBody struct {
	Type   string     `json:"type"`
	Body   bodyText   `json:"body"`
	Action listAction `json:"action"`
}

type reply struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type button struct {
	Type  string `json:"type"`
	Reply *reply `json:"reply,omitempty"`

	// web_url buttons
	URL                 string `json:"url,omitempty"`
	Title               string `json:"title,omitempty"`
	WebviewHeightRatio  string `json:"webview_height_ratio,omitempty"`
	MessengerExtensions bool   `json:"messenger_extensions,omitempty"`
}

type buttonAction struct {
	Buttons []button `json:"buttons"`
}

type buttonBody struct {
	Type   string       `json:"type"`
	Body   bodyText     `json:"body"`
	Action buttonAction `json:"action"`
}

type mediaBody struct {
	Link    string `json:"link"`
	Caption string `json:"caption,omitempty"`
}

func replyButton(id, title string) button {
	return button{Type: "reply", Reply: &reply{ID: id, Title: title}}
}
