package gmail

import (
	"encoding/base64"
	"fmt"
	"net/mail"
	"strings"
	"time"

	gmail "google.golang.org/api/gmail/v1"
)

// buildMeetingQuery assembles the Gmail search query for shared meeting
// notes: Google Meet "Notes:" mails plus the common subject variants.
func buildMeetingQuery(since time.Time) string {
	return fmt.Sprintf(
		"after:%s (subject:Notes: OR subject:(meeting summary) OR subject:(meeting notes) "+
			"OR subject:(transcript) OR subject:(action items) OR subject:(meeting minutes))",
		since.Format("2006/01/02"))
}

// walkParts visits every part of a message payload depth-first
func walkParts(part *gmail.MessagePart, fn func(*gmail.MessagePart)) {
	if part == nil {
		return
	}
	fn(part)
	for _, p := range part.Parts {
		walkParts(p, fn)
	}
}

// extractBody pulls the readable text out of a message payload. text/plain
// parts are concatenated; if none exist the first text/html part is used
// with tags stripped.
func extractBody(payload *gmail.MessagePart) string {
	if payload == nil {
		return ""
	}

	var plain, html strings.Builder
	walkParts(payload, func(part *gmail.MessagePart) {
		if part.Body == nil || part.Body.Data == "" {
			return
		}
		data, err := decodeBody(part.Body.Data)
		if err != nil {
			return
		}
		switch {
		case part.MimeType == "text/plain":
			plain.WriteString(data)
		case part.MimeType == "text/html" && html.Len() == 0:
			html.WriteString(data)
		case part.MimeType == "" && len(payload.Parts) == 0:
			// single-part message without an explicit type
			plain.WriteString(data)
		}
	})

	if plain.Len() > 0 {
		return strings.TrimSpace(plain.String())
	}
	return strings.TrimSpace(stripHTMLTags(html.String()))
}

// decodeBody decodes Gmail's base64url body encoding, with and without
// padding
func decodeBody(data string) (string, error) {
	if decoded, err := base64.URLEncoding.DecodeString(data); err == nil {
		return string(decoded), nil
	}
	decoded, err := base64.RawURLEncoding.DecodeString(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode message body: %w", err)
	}
	return string(decoded), nil
}

func stripHTMLTags(s string) string {
	var sb strings.Builder
	inTag := false
	for _, r := range s {
		switch {
		case r == '<':
			inTag = true
		case r == '>':
			inTag = false
			sb.WriteByte(' ')
		case !inTag:
			sb.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

func parseMessageDate(value string) (time.Time, error) {
	// trailing comments like "(UTC)" trip up some parsers
	if i := strings.Index(value, " ("); i > 0 {
		value = value[:i]
	}
	return mail.ParseDate(value)
}
