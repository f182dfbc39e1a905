// Package transcription implements the ingestion pipeline: the pure
// word-to-segment merge, the recording/job state machines, the
// per-recording submission lease, and the service that drives a job from
// submission to its terminal state over both the synchronous and the
// webhook path.
package transcription

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"kiroku/internal/scribe"
)

// DefaultSpeakerID は話者が特定できない単語に割り当てる番兵の話者ID
const DefaultSpeakerID = "speaker_0"

// Word is one timestamped word of the provider transcript.
type Word struct {
	SpeakerID string
	StartMS   int64
	EndMS     int64
	Text      string
}

// Segment is one speaker run produced by the merge. The service maps it
// onto a persisted models.TranscriptSegment.
type Segment struct {
	SpeakerID    string
	SpeakerLabel string
	StartMS      int64
	EndMS        int64
	Text         string
}

// WordsFromTranscript converts the provider's token stream into merge
// input. Spacing and audio-event tokens carry no speaker attribution and
// are dropped; times are converted from seconds to milliseconds.
func WordsFromTranscript(t *scribe.Transcript) []Word {
	words := make([]Word, 0, len(t.Words))
	for _, w := range t.Words {
		if w.Type != "" && w.Type != scribe.WordTypeWord {
			continue
		}
		text := strings.TrimSpace(w.Text)
		if text == "" {
			continue
		}
		speaker := ""
		if w.SpeakerID != nil {
			speaker = *w.SpeakerID
		}
		words = append(words, Word{
			SpeakerID: speaker,
			StartMS:   secondsToMS(w.Start),
			EndMS:     secondsToMS(w.End),
			Text:      text,
		})
	}
	return words
}

// BuildSegments merges an ordered word sequence into contiguous
// per-speaker segments.
//
// With diarization disabled, or with no word-level data but a plain-text
// transcript, it emits a single segment spanning the whole duration under
// the default speaker. With word-level data and diarization enabled it
// walks the sequence once, closing the current run whenever the speaker
// changes. A word without a speaker id belongs to the default speaker. An
// empty word list in the diarized branch yields no segments.
func BuildSegments(words []Word, diarize bool, plainText string, durationMS int64) []Segment {
	if !diarize || len(words) == 0 {
		text := strings.TrimSpace(plainText)
		if text == "" && len(words) > 0 {
			text = joinWords(words)
		}
		if text == "" {
			return nil
		}
		return []Segment{{
			SpeakerID:    DefaultSpeakerID,
			SpeakerLabel: SpeakerLabel(DefaultSpeakerID),
			StartMS:      0,
			EndMS:        durationMS,
			Text:         text,
		}}
	}

	var segments []Segment
	var run []Word
	flush := func() {
		if len(run) == 0 {
			return
		}
		speaker := run[0].SpeakerID
		segments = append(segments, Segment{
			SpeakerID:    speaker,
			SpeakerLabel: SpeakerLabel(speaker),
			StartMS:      run[0].StartMS,
			EndMS:        run[len(run)-1].EndMS,
			Text:         joinWords(run),
		})
		run = run[:0]
	}

	for _, w := range words {
		if w.SpeakerID == "" {
			w.SpeakerID = DefaultSpeakerID
		}
		if len(run) > 0 && run[0].SpeakerID != w.SpeakerID {
			flush()
		}
		run = append(run, w)
	}
	flush()

	return segments
}

// SpeakerLabel derives a stable human-readable label from a provider
// speaker id: "speaker_0" becomes "Speaker 1". Unrecognized ids are used
// as-is.
func SpeakerLabel(speakerID string) string {
	if rest, ok := strings.CutPrefix(speakerID, "speaker_"); ok {
		if n, err := strconv.Atoi(rest); err == nil && n >= 0 {
			return fmt.Sprintf("Speaker %d", n+1)
		}
	}
	return speakerID
}

func joinWords(words []Word) string {
	parts := make([]string, len(words))
	for i, w := range words {
		parts[i] = w.Text
	}
	return strings.Join(parts, " ")
}

func secondsToMS(s float64) int64 {
	return int64(math.Round(s * 1000))
}
