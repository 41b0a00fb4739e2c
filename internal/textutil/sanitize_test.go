package textutil_test

import (
	"testing"

	"scribe/internal/textutil"
)

func TestSanitizeFileName(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"recording.mp4", "recording.mp4"},
		{"exports/q1:meeting.mp4", "exports-q1-meeting.mp4"},
		{`a\b*c?.mp4`, "a-b-c.mp4"},
		{"  padded.mp4  ", "padded.mp4"},
		{"<>|\"?", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := textutil.SanitizeFileName(tc.in); got != tc.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
