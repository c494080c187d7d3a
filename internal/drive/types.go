package drive

import "time"

// FileInfo represents metadata about a file or folder in Google Drive
type FileInfo struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	MimeType     string    `json:"mimeType"`
	Size         int64     `json:"size,omitempty"`
	ModifiedTime time.Time `json:"modifiedTime,omitempty"`
	WebViewLink  string    `json:"webViewLink,omitempty"`
	Parents      []string  `json:"parents,omitempty"`
	Trashed      bool      `json:"trashed,omitempty"`
}

// Change represents a single entry from the Drive changes feed
type Change struct {
	FileID  string    `json:"fileId"`
	File    *FileInfo `json:"file,omitempty"`
	Removed bool      `json:"removed,omitempty"`
}

// ChangeList is the result of a changes poll: the changed files plus the
// page token to persist for the next poll
type ChangeList struct {
	Changes       []Change `json:"changes"`
	NewStartToken string   `json:"newStartToken"`
}

// WatchChannel describes a registered push notification channel
type WatchChannel struct {
	ChannelID  string    `json:"channelId"`
	ResourceID string    `json:"resourceId"`
	Expiration time.Time `json:"expiration,omitempty"`
}

// Notification carries the fields of a Drive push notification that the
// webhook handler needs
type Notification struct {
	ChannelID     string `json:"channelId"`
	ChannelToken  string `json:"channelToken,omitempty"`
	ResourceID    string `json:"resourceId"`
	ResourceState string `json:"resourceState"`
	MessageNumber string `json:"messageNumber,omitempty"`
}

// IsSync reports whether this is the initial sync message Google sends when
// a channel is created. Sync messages carry no change information.
func (n Notification) IsSync() bool {
	return n.ResourceState == "sync"
}
