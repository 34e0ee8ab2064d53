package domain

// ResponseType is the discriminator that selects an outbound shape.
type ResponseType string

const (
	ResponseText                 ResponseType = "text"
	ResponseInteractive          ResponseType = "interactive"
	ResponsePaginatedInteractive ResponseType = "paginated_interactive"
	ResponseButton               ResponseType = "button"
	ResponseDownload             ResponseType = "download"
	ResponsePayDownload          ResponseType = "pay_download"
	ResponsePay                  ResponseType = "pay"
	ResponseDownloadOutsourced   ResponseType = "download_outsourced"
	ResponseDocument             ResponseType = "document"
	ResponseImage                ResponseType = "image"
	ResponseAudio                ResponseType = "audio"
	ResponseVideo                ResponseType = "video"
	ResponseTutorial             ResponseType = "tutorial"
	ResponseConversation         ResponseType = "conversation"
)

// MenuItem is an entry of an interactive list before rendering.
type MenuItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// Row is a pre-built list row, passed through verbatim by paginated lists.
type Row struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// Reply is the response-shape payload a validator returns. Which fields matter
// depends on ResponseType.
type Reply struct {
	ResponseType ResponseType `json:"response_type,omitempty"`
	Text         string       `json:"text,omitempty"`
	Username     string       `json:"username,omitempty"`

	// interactive, paginated_interactive
	MenuName           string     `json:"menu_name,omitempty"`
	MenuItems          []MenuItem `json:"menu_items,omitempty"`
	Rows               []Row      `json:"rows,omitempty"`
	IncludeDescription bool       `json:"include_description,omitempty"`

	// button, tutorial
	ExcludeBack bool   `json:"exclude_back,omitempty"`
	ExcludeNext bool   `json:"exclude_next,omitempty"`
	Menu        string `json:"menu,omitempty"`

	// pay, pay_download
	ID              string `json:"id,omitempty"`
	ExcludeDownload bool   `json:"exclude_download,omitempty"`

	// download_outsourced
	DownloadSolution string `json:"download_solution,omitempty"`

	// document, image, audio, video
	Document string `json:"document,omitempty"`
	Image    string `json:"image,omitempty"`
	Audio    string `json:"audio,omitempty"`
	Video    string `json:"video,omitempty"`

	// quiz choices recorded on navigation-control entries
	Choices []string `json:"choices,omitempty"`
}

// TextReply is a plain text reply.
func TextReply(text string) *Reply {
	return &Reply{ResponseType: ResponseText, Text: text}
}
