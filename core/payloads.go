package core

import "time"

// ChatMessage is a single message inside a stored conversation unit.
type ChatMessage struct {
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	// TS is the platform-native timestamp string, kept verbatim for
	// thread identity.
	TS string `json:"ts"`
}

// ChatThread is the raw content payload of one conversational unit: a thread
// or time-windowed group of messages from a single channel.
type ChatThread struct {
	ThreadID     string        `json:"thread_id"`
	ChannelID    string        `json:"channel_id"`
	ChannelName  string        `json:"channel_name"`
	MessageCount int           `json:"message_count"`
	Participants []string      `json:"participants"`
	Messages     []ChatMessage `json:"messages"`
}

// WikiPage is the raw content payload of one wiki page, carrying both the
// original markup and its plain-text rendering.
type WikiPage struct {
	PageID        string    `json:"page_id"`
	Title         string    `json:"title"`
	SpaceKey      string    `json:"space_key"`
	HTMLContent   string    `json:"html_content"`
	TextContent   string    `json:"text_content"`
	Version       int       `json:"version_number"`
	LastUpdated   time.Time `json:"last_updated"`
	Author        string    `json:"author"`
	HierarchyPath string    `json:"hierarchy_path"`
	URL           string    `json:"url"`
}

// UploadFormat classifies an uploaded file's content type.
type UploadFormat string

const (
	FormatPDF      UploadFormat = "pdf"
	FormatMarkdown UploadFormat = "markdown"
	FormatText     UploadFormat = "text"
)

// UploadPage is one extracted page of a page-oriented document.
type UploadPage struct {
	Number int    `json:"page"`
	Text   string `json:"text"`
}

// UploadDocument is the raw content payload of one uploaded file with its
// extracted text. Plain-text formats use Content; page-oriented formats use
// Pages.
type UploadDocument struct {
	Filename   string       `json:"filename"`
	Format     UploadFormat `json:"format"`
	Content    string       `json:"content,omitempty"`
	Pages      []UploadPage `json:"pages,omitempty"`
	TotalPages int          `json:"total_pages,omitempty"`
	Title      string       `json:"title,omitempty"`
	Author     string       `json:"author,omitempty"`
}
