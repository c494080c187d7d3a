package gmail

import (
	"regexp"
	"strings"
)

var (
	subjectKeywords = []string{
		"meeting summary", "meeting notes", "meeting transcript",
		"meeting minutes", "action items", "transcript", "recording",
	}

	meetingSenders = []string{
		"meet-noreply@google.com", "zoom", "teams", "webex",
	}

	titlePrefixes = []string{
		"notes:", "meeting summary:", "meeting notes:",
		"meeting transcript:", "recording:", "summary:", "fwd:", "re:",
	}

	titleNoise = regexp.MustCompile(`(?i)\[(zoom|teams|meet|recording)\]|-\s*recording\b|\btranscript\s*-`)
)

// IsMeetingNotes reports whether a message looks like shared meeting notes.
// Google Meet's "Notes:" mails match unconditionally; everything else needs
// a meeting keyword in the subject or a known meeting-platform sender.
func IsMeetingNotes(subject, from string) bool {
	if strings.HasPrefix(subject, "Notes:") {
		return true
	}

	subjectLower := strings.ToLower(subject)
	for _, kw := range subjectKeywords {
		if strings.Contains(subjectLower, kw) {
			return true
		}
	}

	fromLower := strings.ToLower(from)
	for _, sender := range meetingSenders {
		if strings.Contains(fromLower, sender) {
			return true
		}
	}
	return false
}

// MeetingTitle derives a clean meeting title from an email subject by
// stripping forwarding prefixes and platform noise.
func MeetingTitle(subject string) string {
	title := strings.TrimSpace(subject)

	for changed := true; changed; {
		changed = false
		for _, prefix := range titlePrefixes {
			if len(title) >= len(prefix) && strings.EqualFold(title[:len(prefix)], prefix) {
				title = strings.TrimSpace(title[len(prefix):])
				changed = true
			}
		}
	}

	title = strings.TrimSpace(titleNoise.ReplaceAllString(title, ""))
	if title == "" {
		return "Meeting Summary"
	}
	return title
}
