package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	gmail "google.golang.org/api/gmail/v1"

	"github.com/teemow/meetingmate/internal/google"
)

const (
	// MaxAttachmentSize defines the maximum attachment size in bytes (25MB)
	MaxAttachmentSize = 25 * 1024 * 1024
)

var attachmentMimeTypes = map[string]bool{
	"text/plain":      true,
	"application/pdf": true,
	"application/vnd.google-apps.document":                                    true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

var attachmentNameKeywords = []string{"notes", "summary", "transcript", "meeting", "minutes"}

// ListMeetingAttachments extracts the attachments of a message that plausibly
// carry meeting content, by document MIME type or filename.
func (c *Client) ListMeetingAttachments(ctx context.Context, messageID string) ([]*AttachmentInfo, error) {
	msg, err := c.GetMessage(ctx, messageID)
	if err != nil {
		return nil, err
	}

	var attachments []*AttachmentInfo
	walkParts(msg.Payload, func(part *gmail.MessagePart) {
		if part.Filename == "" || part.Body == nil || part.Body.AttachmentId == "" {
			return
		}
		if !isMeetingAttachment(part.Filename, part.MimeType) {
			return
		}
		attachments = append(attachments, &AttachmentInfo{
			MessageID:    messageID,
			AttachmentID: part.Body.AttachmentId,
			Filename:     part.Filename,
			MimeType:     part.MimeType,
			Size:         part.Body.Size,
		})
	})

	return attachments, nil
}

// GetAttachment retrieves the content of an attachment
func (c *Client) GetAttachment(ctx context.Context, messageID, attachmentID string) ([]byte, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}
	if attachmentID == "" {
		return nil, fmt.Errorf("attachmentID is required")
	}

	attachment, err := c.svc.Messages.Attachments.Get("me", messageID, attachmentID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get attachment %s: %w", attachmentID, google.ClassifyError(err))
	}

	if attachment.Size > MaxAttachmentSize {
		return nil, fmt.Errorf("attachment size %d exceeds maximum size %d", attachment.Size, MaxAttachmentSize)
	}

	// Gmail API uses RFC 4648 base64url encoding
	data, err := base64.URLEncoding.DecodeString(attachment.Data)
	if err != nil {
		data, err = base64.RawURLEncoding.DecodeString(attachment.Data)
		if err != nil {
			return nil, fmt.Errorf("failed to decode attachment data: %w", err)
		}
	}

	return data, nil
}

func isMeetingAttachment(filename, mimeType string) bool {
	if attachmentMimeTypes[mimeType] {
		return true
	}
	nameLower := strings.ToLower(filename)
	for _, kw := range attachmentNameKeywords {
		if strings.Contains(nameLower, kw) {
			return true
		}
	}
	return false
}
