package gmail

import (
	"context"
	"fmt"
	"time"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"github.com/teemow/meetingmate/internal/google"
)

const (
	// maxScanResults caps how many messages a single scan considers
	maxScanResults = 100
)

// Client wraps the Gmail Users service
type Client struct {
	svc     *gmail.UsersService
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

// NewClientForAccount creates a new Gmail client with OAuth2 authentication
// for a specific account. Returns an error if no valid token exists - use
// HasTokenForAccount() to check first
func NewClientForAccount(ctx context.Context, account string) (*Client, error) {
	client, err := google.GetHTTPClientForAccount(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("no valid Google OAuth token found for account %s: %w", account, err)
	}

	svc, err := gmail.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}

	return &Client{
		svc:     gmail.NewUsersService(svc),
		account: account,
	}, nil
}

// NewClient creates a new Gmail client for the default account
func NewClient(ctx context.Context) (*Client, error) {
	return NewClientForAccount(ctx, "default")
}

// ListRecent searches the mailbox for messages from the last daysBack days
// that look like shared meeting notes. Only metadata is fetched; use
// FetchMessageText to pull the body of a match.
func (c *Client) ListRecent(ctx context.Context, daysBack int) ([]Message, error) {
	if daysBack <= 0 {
		daysBack = 7
	}
	since := time.Now().AddDate(0, 0, -daysBack)

	result, err := c.svc.Messages.List("me").
		Context(ctx).
		Q(buildMeetingQuery(since)).
		MaxResults(maxScanResults).
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to search messages: %w", google.ClassifyError(err))
	}

	var messages []Message
	for _, m := range result.Messages {
		msg, err := c.svc.Messages.Get("me", m.Id).
			Context(ctx).
			Format("metadata").
			MetadataHeaders("Subject", "From", "Date").
			Do()
		if err != nil {
			return nil, fmt.Errorf("failed to get message %s: %w", m.Id, google.ClassifyError(err))
		}

		meta := toMessage(msg)
		if IsMeetingNotes(meta.Subject, meta.From) {
			messages = append(messages, meta)
		}
	}

	return messages, nil
}

// GetMessage retrieves a full Gmail message
func (c *Client) GetMessage(ctx context.Context, messageID string) (*gmail.Message, error) {
	if messageID == "" {
		return nil, fmt.Errorf("messageID is required")
	}

	msg, err := c.svc.Messages.Get("me", messageID).
		Context(ctx).
		Format("full").
		Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", messageID, google.ClassifyError(err))
	}
	return msg, nil
}

// FetchMessageText returns the message metadata and its body as plain text.
// Multipart messages prefer the text/plain part; text/html is a fallback
// with tags stripped.
func (c *Client) FetchMessageText(ctx context.Context, messageID string) (*Message, string, error) {
	msg, err := c.GetMessage(ctx, messageID)
	if err != nil {
		return nil, "", err
	}

	meta := toMessage(msg)
	body := extractBody(msg.Payload)
	return &meta, body, nil
}

func toMessage(msg *gmail.Message) Message {
	m := Message{
		ID:      msg.Id,
		Snippet: msg.Snippet,
	}
	if msg.Payload == nil {
		return m
	}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "Subject":
			m.Subject = h.Value
		case "From":
			m.From = h.Value
		case "Date":
			if t, err := parseMessageDate(h.Value); err == nil {
				m.Date = t
			}
		}
	}
	return m
}
