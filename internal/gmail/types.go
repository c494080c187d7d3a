package gmail

import "time"

// Message holds the metadata of a scanned Gmail message
type Message struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject"`
	From    string    `json:"from"`
	Date    time.Time `json:"date,omitempty"`
	Snippet string    `json:"snippet,omitempty"`
}

// AttachmentInfo represents an attachment's metadata
type AttachmentInfo struct {
	MessageID    string `json:"messageId"`
	AttachmentID string `json:"attachmentId"`
	Filename     string `json:"filename"`
	MimeType     string `json:"mimeType"`
	Size         int64  `json:"size"`
}
