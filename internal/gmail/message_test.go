package gmail

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	gmail "google.golang.org/api/gmail/v1"
)

func encodeBody(s string) string {
	return base64.URLEncoding.EncodeToString([]byte(s))
}

func TestExtractBody_SinglePart(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "text/plain",
		Body:     &gmail.MessagePartBody{Data: encodeBody("Action items:\n- Send the report")},
	}

	body := extractBody(payload)
	if !strings.Contains(body, "Send the report") {
		t.Errorf("Expected body text, got %q", body)
	}
}

func TestExtractBody_MultipartPrefersPlainText(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: encodeBody("<p>html version</p>")},
			},
			{
				MimeType: "text/plain",
				Body:     &gmail.MessagePartBody{Data: encodeBody("plain version")},
			},
		},
	}

	if body := extractBody(payload); body != "plain version" {
		t.Errorf("Expected plain version, got %q", body)
	}
}

func TestExtractBody_HTMLFallback(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/alternative",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "text/html",
				Body:     &gmail.MessagePartBody{Data: encodeBody("<p>Discussed the <b>budget</b>.</p>")},
			},
		},
	}

	body := extractBody(payload)
	if body != "Discussed the budget ." {
		t.Errorf("Expected stripped HTML, got %q", body)
	}
}

func TestExtractBody_NestedParts(t *testing.T) {
	payload := &gmail.MessagePart{
		MimeType: "multipart/mixed",
		Parts: []*gmail.MessagePart{
			{
				MimeType: "multipart/alternative",
				Parts: []*gmail.MessagePart{
					{
						MimeType: "text/plain",
						Body:     &gmail.MessagePartBody{Data: encodeBody("nested text")},
					},
				},
			},
		},
	}

	if body := extractBody(payload); body != "nested text" {
		t.Errorf("Expected nested text, got %q", body)
	}
}

func TestExtractBody_Empty(t *testing.T) {
	if body := extractBody(nil); body != "" {
		t.Errorf("Expected empty body for nil payload, got %q", body)
	}
	if body := extractBody(&gmail.MessagePart{MimeType: "text/plain"}); body != "" {
		t.Errorf("Expected empty body for missing data, got %q", body)
	}
}

func TestDecodeBody_NoPadding(t *testing.T) {
	raw := base64.RawURLEncoding.EncodeToString([]byte("unpadded"))
	decoded, err := decodeBody(raw)
	if err != nil {
		t.Fatalf("decodeBody failed: %v", err)
	}
	if decoded != "unpadded" {
		t.Errorf("Expected unpadded, got %q", decoded)
	}
}

func TestBuildMeetingQuery(t *testing.T) {
	since := time.Date(2026, 8, 21, 0, 0, 0, 0, time.UTC)
	query := buildMeetingQuery(since)

	if !strings.HasPrefix(query, "after:2026/08/21") {
		t.Errorf("Expected date prefix, got %q", query)
	}
	if !strings.Contains(query, "subject:Notes:") {
		t.Errorf("Expected Notes: clause, got %q", query)
	}
}

func TestParseMessageDate(t *testing.T) {
	tests := []string{
		"Thu, 27 Aug 2026 10:00:00 +0200",
		"Thu, 27 Aug 2026 10:00:00 +0200 (CEST)",
	}
	for _, input := range tests {
		parsed, err := parseMessageDate(input)
		if err != nil {
			t.Errorf("parseMessageDate(%q) failed: %v", input, err)
			continue
		}
		if parsed.Day() != 27 {
			t.Errorf("parseMessageDate(%q) day = %d, want 27", input, parsed.Day())
		}
	}
}

func TestToMessage(t *testing.T) {
	msg := &gmail.Message{
		Id:      "msg-1",
		Snippet: "Action items from today",
		Payload: &gmail.MessagePart{
			Headers: []*gmail.MessagePartHeader{
				{Name: "Subject", Value: "Notes: Weekly sync"},
				{Name: "From", Value: "meet-noreply@google.com"},
				{Name: "Date", Value: "Thu, 27 Aug 2026 10:00:00 +0000"},
			},
		},
	}

	m := toMessage(msg)
	if m.ID != "msg-1" {
		t.Errorf("Expected ID msg-1, got %s", m.ID)
	}
	if m.Subject != "Notes: Weekly sync" {
		t.Errorf("Expected subject, got %s", m.Subject)
	}
	if m.Date.IsZero() {
		t.Error("Expected parsed date")
	}
}
