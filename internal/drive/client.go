package drive

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/option"

	"github.com/teemow/meetingmate/internal/google"
)

const (
	// FolderMimeType is the MIME type for Google Drive folders
	FolderMimeType = "application/vnd.google-apps.folder"

	// GoogleDocMimeType is the MIME type for native Google Docs
	GoogleDocMimeType = "application/vnd.google-apps.document"

	// DocxMimeType is the MIME type for Word documents
	DocxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	// PlainTextMimeType is the MIME type transcripts are exported as
	PlainTextMimeType = "text/plain"

	// MeetFolderName is the folder Google Meet saves recordings and
	// transcripts to
	MeetFolderName = "Meet Recordings"
)

// TranscriptMimeType reports whether files of the given MIME type can be
// turned into transcript text.
func TranscriptMimeType(mime string) bool {
	switch mime {
	case PlainTextMimeType, GoogleDocMimeType, DocxMimeType:
		return true
	}
	return false
}

// Client wraps the Google Drive API service
type Client struct {
	service *drive.Service
	account string // The account this client is associated with
}

// Account returns the account name this client is associated with
func (c *Client) Account() string {
	return c.account
}

// HasTokenForAccount checks if a valid OAuth token exists for the specified account
func HasTokenForAccount(account string) bool {
	return google.HasTokenForAccount(account)
}

// NewClientForAccount creates a new Google Drive client with OAuth2
// authentication for a specific account. Returns an error if no valid token
// exists - use HasTokenForAccount() to check first
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	client, err := google.GetHTTPClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s: %w", account, err)
	}

	driveService, err := drive.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Drive service: %w", err)
	}

	return &Client{
		service: driveService,
		account: account,
	}, nil
}

// NewClient creates a new Google Drive client for the default account
func NewClient(ctx context.Context) (*Client, error) {
	return NewClientForAccount(ctx, "default")
}

// GetFile retrieves metadata for a specific file
func (c *Client) GetFile(ctx context.Context, fileID string) (*FileInfo, error) {
	if fileID == "" {
		return nil, fmt.Errorf("fileID is required")
	}

	file, err := c.service.Files.Get(fileID).
		Context(ctx).
		Fields("id, name, mimeType, size, modifiedTime, webViewLink, parents, trashed").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get file %s: %w", fileID, google.ClassifyError(err))
	}

	return convertToFileInfo(file), nil
}

// FindMeetFolder locates the "Meet Recordings" folder. Returns an empty id
// if the account has none.
func (c *Client) FindMeetFolder(ctx context.Context) (string, error) {
	query := fmt.Sprintf("name = '%s' and mimeType = '%s' and trashed = false",
		MeetFolderName, FolderMimeType)

	result, err := c.service.Files.List().
		Context(ctx).
		Q(query).
		Spaces("drive").
		Fields("files(id)").
		PageSize(1).
		Do()
	if err != nil {
		return "", fmt.Errorf("failed to find Meet folder: %w", google.ClassifyError(err))
	}
	if len(result.Files) == 0 {
		return "", nil
	}
	return result.Files[0].Id, nil
}

// ListFolder lists transcript-capable files in a folder, newest first.
func (c *Client) ListFolder(ctx context.Context, folderID string) ([]*FileInfo, error) {
	if folderID == "" {
		return nil, fmt.Errorf("folderID is required")
	}

	query := fmt.Sprintf("'%s' in parents and trashed = false", folderID)

	var files []*FileInfo
	pageToken := ""
	for {
		call := c.service.Files.List().
			Context(ctx).
			Q(query).
			OrderBy("modifiedTime desc").
			Fields("nextPageToken, files(id, name, mimeType, size, modifiedTime, webViewLink, parents, trashed)")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		result, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list folder %s: %w", folderID, google.ClassifyError(err))
		}

		for _, f := range result.Files {
			if TranscriptMimeType(f.MimeType) {
				files = append(files, convertToFileInfo(f))
			}
		}

		pageToken = result.NextPageToken
		if pageToken == "" {
			break
		}
	}

	return files, nil
}

// GetStartPageToken returns the current changes-feed position. Persist it
// before registering a watch channel so no change is missed.
func (c *Client) GetStartPageToken(ctx context.Context) (string, error) {
	resp, err := c.service.Changes.GetStartPageToken().Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to get start page token: %w", google.ClassifyError(err))
	}
	return resp.StartPageToken, nil
}

// ListChanges returns all changes since pageToken, filtered to
// transcript-capable files, plus the token to persist for the next poll.
func (c *Client) ListChanges(ctx context.Context, pageToken string) (*ChangeList, error) {
	if pageToken == "" {
		return nil, fmt.Errorf("pageToken is required")
	}

	result := &ChangeList{NewStartToken: pageToken}
	token := pageToken
	for {
		resp, err := c.service.Changes.List(token).
			Context(ctx).
			Spaces("drive").
			Fields("nextPageToken, newStartPageToken, changes(fileId, removed, file(id, name, mimeType, size, modifiedTime, trashed))").
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list changes: %w", google.ClassifyError(err))
		}

		for _, ch := range resp.Changes {
			if ch.Removed || ch.File == nil || ch.File.Trashed {
				continue
			}
			if !TranscriptMimeType(ch.File.MimeType) {
				continue
			}
			result.Changes = append(result.Changes, Change{
				FileID: ch.FileId,
				File:   convertToFileInfo(ch.File),
			})
		}

		if resp.NewStartPageToken != "" {
			result.NewStartToken = resp.NewStartPageToken
		}
		if resp.NextPageToken == "" {
			break
		}
		token = resp.NextPageToken
	}

	return result, nil
}

// FetchTranscript downloads a transcript file as plain text. Native Google
// Docs are exported; plain text and .docx files are downloaded directly.
// The caller is expected to have filtered by TranscriptMimeType.
func (c *Client) FetchTranscript(ctx context.Context, fileID string) (name, content string, err error) {
	meta, err := c.GetFile(ctx, fileID)
	if err != nil {
		return "", "", err
	}

	var resp *http.Response
	switch meta.MimeType {
	case GoogleDocMimeType:
		resp, err = c.service.Files.Export(fileID, PlainTextMimeType).Context(ctx).Download()
	case PlainTextMimeType, DocxMimeType:
		resp, err = c.service.Files.Get(fileID).Context(ctx).Download()
	default:
		return "", "", fmt.Errorf("unsupported mime type %s for file %s", meta.MimeType, fileID)
	}
	if err != nil {
		return "", "", fmt.Errorf("failed to download file %s: %w", fileID, google.ClassifyError(err))
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", "", fmt.Errorf("failed to read file %s: %w", fileID, err)
	}

	text := string(data)
	if meta.MimeType == DocxMimeType {
		text, err = extractDocxText(data)
		if err != nil {
			return "", "", fmt.Errorf("failed to extract text from %s: %w", fileID, err)
		}
	}

	return meta.Name, text, nil
}

// Watch registers a push notification channel for the changes feed. The
// account name is echoed back as the channel token so the webhook handler
// can route notifications without extra state.
func (c *Client) Watch(ctx context.Context, address, pageToken string) (*WatchChannel, error) {
	if address == "" {
		return nil, fmt.Errorf("webhook address is required")
	}
	if pageToken == "" {
		return nil, fmt.Errorf("pageToken is required")
	}

	channel := &drive.Channel{
		Id:      uuid.New().String(),
		Type:    "web_hook",
		Address: address,
		Token:   c.account,
	}

	resp, err := c.service.Changes.Watch(pageToken, channel).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to register watch channel: %w", google.ClassifyError(err))
	}

	result := &WatchChannel{
		ChannelID:  resp.Id,
		ResourceID: resp.ResourceId,
	}
	if resp.Expiration > 0 {
		result.Expiration = time.UnixMilli(resp.Expiration).UTC()
	}
	return result, nil
}

// StopWatch tears down a push notification channel.
func (c *Client) StopWatch(ctx context.Context, channelID, resourceID string) error {
	if channelID == "" || resourceID == "" {
		return fmt.Errorf("channelID and resourceID are required")
	}

	channel := &drive.Channel{
		Id:         channelID,
		ResourceId: resourceID,
	}
	if err := c.service.Channels.Stop(channel).Context(ctx).Do(); err != nil {
		return fmt.Errorf("failed to stop watch channel: %w", google.ClassifyError(err))
	}
	return nil
}

// ParseNotification extracts a push notification from webhook request
// headers. Returns an error if the request is not a Drive notification.
func ParseNotification(header http.Header) (*Notification, error) {
	n := &Notification{
		ChannelID:     header.Get("X-Goog-Channel-ID"),
		ChannelToken:  header.Get("X-Goog-Channel-Token"),
		ResourceID:    header.Get("X-Goog-Resource-ID"),
		ResourceState: header.Get("X-Goog-Resource-State"),
		MessageNumber: header.Get("X-Goog-Message-Number"),
	}
	if n.ChannelID == "" || n.ResourceState == "" {
		return nil, fmt.Errorf("missing X-Goog notification headers")
	}
	return n, nil
}

// convertToFileInfo converts a Drive API File to our FileInfo type
func convertToFileInfo(f *drive.File) *FileInfo {
	fileInfo := &FileInfo{
		ID:          f.Id,
		Name:        f.Name,
		MimeType:    f.MimeType,
		Size:        f.Size,
		WebViewLink: f.WebViewLink,
		Parents:     f.Parents,
		Trashed:     f.Trashed,
	}

	if f.ModifiedTime != "" {
		if t, err := time.Parse(time.RFC3339, f.ModifiedTime); err == nil {
			fileInfo.ModifiedTime = t
		}
	}

	return fileInfo
}
