package transcription

import (
	"fmt"
	"strings"
	"time"

	"kiroku/internal/models"
)

// FormatText returns the transcript as speaker-labelled plain text.
func FormatText(segments []models.TranscriptSegment) string {
	var b strings.Builder
	for _, seg := range segments {
		fmt.Fprintf(&b, "%s: %s\n", seg.SpeakerLabel, seg.Text)
	}
	return b.String()
}

// FormatSRT returns the transcript as SRT subtitle format.
func FormatSRT(segments []models.TranscriptSegment) string {
	var srt string
	for i, seg := range segments {
		srt += formatSRTSegment(i+1, seg)
		if i < len(segments)-1 {
			srt += "\n"
		}
	}
	return srt
}

// formatSRTSegment formats a single SRT subtitle entry
func formatSRTSegment(index int, seg models.TranscriptSegment) string {
	return fmt.Sprintf("%d\n%s --> %s\n%s: %s\n",
		index,
		formatSRTTime(seg.StartMS),
		formatSRTTime(seg.EndMS),
		seg.SpeakerLabel,
		seg.Text,
	)
}

// formatSRTTime converts milliseconds to SRT time format (HH:MM:SS,mmm)
func formatSRTTime(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	msec := int(d.Milliseconds()) % 1000
	return fmt.Sprintf("%02d:%02d:%02d,%03d", h, m, s, msec)
}
