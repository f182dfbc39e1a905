package transcription

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kiroku/internal/scribe"
)

func spk(id string) *string {
	return &id
}

func TestBuildSegments_SpeakerChange(t *testing.T) {
	words := []Word{
		{SpeakerID: "A", StartMS: 0, EndMS: 500, Text: "hi"},
		{SpeakerID: "A", StartMS: 500, EndMS: 900, Text: "there"},
		{SpeakerID: "B", StartMS: 1000, EndMS: 1400, Text: "hello"},
	}

	segments := BuildSegments(words, true, "", 0)

	require.Len(t, segments, 2)
	assert.Equal(t, "A", segments[0].SpeakerID)
	assert.Equal(t, int64(0), segments[0].StartMS)
	assert.Equal(t, int64(900), segments[0].EndMS)
	assert.Equal(t, "hi there", segments[0].Text)
	assert.Equal(t, "B", segments[1].SpeakerID)
	assert.Equal(t, int64(1000), segments[1].StartMS)
	assert.Equal(t, int64(1400), segments[1].EndMS)
	assert.Equal(t, "hello", segments[1].Text)
}

func TestBuildSegments_PlainTextFallback(t *testing.T) {
	segments := BuildSegments(nil, false, "hello world", 2000)

	require.Len(t, segments, 1)
	assert.Equal(t, DefaultSpeakerID, segments[0].SpeakerID)
	assert.Equal(t, int64(0), segments[0].StartMS)
	assert.Equal(t, int64(2000), segments[0].EndMS)
	assert.Equal(t, "hello world", segments[0].Text)
}

func TestBuildSegments_NoWordsWithDiarization(t *testing.T) {
	// 文字起こし本文もない場合はフォールバックセグメントを作らない
	segments := BuildSegments(nil, true, "", 0)
	assert.Empty(t, segments)
}

func TestBuildSegments_SingleWord(t *testing.T) {
	words := []Word{{SpeakerID: "A", StartMS: 100, EndMS: 100, Text: "yes"}}

	segments := BuildSegments(words, true, "", 0)

	require.Len(t, segments, 1)
	assert.Equal(t, int64(100), segments[0].StartMS)
	assert.Equal(t, int64(100), segments[0].EndMS)
	assert.Equal(t, "yes", segments[0].Text)
}

func TestBuildSegments_MissingSpeakerUsesDefault(t *testing.T) {
	words := []Word{
		{StartMS: 0, EndMS: 200, Text: "one"},
		{StartMS: 200, EndMS: 400, Text: "two"},
		{SpeakerID: "speaker_1", StartMS: 400, EndMS: 600, Text: "three"},
	}

	segments := BuildSegments(words, true, "", 0)

	require.Len(t, segments, 2)
	assert.Equal(t, DefaultSpeakerID, segments[0].SpeakerID)
	assert.Equal(t, "one two", segments[0].Text)
	assert.Equal(t, "speaker_1", segments[1].SpeakerID)
}

func TestBuildSegments_DiarizationDisabledJoinsWords(t *testing.T) {
	words := []Word{
		{SpeakerID: "A", StartMS: 0, EndMS: 500, Text: "hi"},
		{SpeakerID: "B", StartMS: 500, EndMS: 900, Text: "there"},
	}

	// 単語データがあっても話者分離が無効なら1セグメントに畳む
	segments := BuildSegments(words, false, "", 900)

	require.Len(t, segments, 1)
	assert.Equal(t, DefaultSpeakerID, segments[0].SpeakerID)
	assert.Equal(t, "hi there", segments[0].Text)
}

// 分割性: 全セグメントのテキストを空白で分割すると元の単語列が順序どおり
// 復元できる。隣り合う単語の話者が違えば必ず別セグメントに落ちる
func TestBuildSegments_PartitionAndSpeakerRunProperties(t *testing.T) {
	speakers := []string{"speaker_0", "speaker_1", "speaker_0", "speaker_0",
		"speaker_2", "speaker_2", "speaker_1", "", "", "speaker_0"}
	texts := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}

	words := make([]Word, len(speakers))
	for i := range speakers {
		words[i] = Word{
			SpeakerID: speakers[i],
			StartMS:   int64(i * 100),
			EndMS:     int64(i*100 + 90),
			Text:      texts[i],
		}
	}

	segments := BuildSegments(words, true, "", 0)

	var rebuilt []string
	for i, seg := range segments {
		rebuilt = append(rebuilt, strings.Fields(seg.Text)...)
		if i > 0 {
			assert.NotEqual(t, segments[i-1].SpeakerID, seg.SpeakerID,
				"consecutive segments must have different speakers")
			assert.GreaterOrEqual(t, seg.StartMS, segments[i-1].EndMS,
				"segments must not overlap")
		}
	}
	assert.Equal(t, texts, rebuilt, "word order must survive the merge")
}

func TestWordsFromTranscript_FiltersNonWords(t *testing.T) {
	transcript := &scribe.Transcript{
		Text: "hi there",
		Words: []scribe.Word{
			{Text: "hi", Type: scribe.WordTypeWord, Start: 0, End: 0.5, SpeakerID: spk("speaker_0")},
			{Text: " ", Type: scribe.WordTypeSpacing, Start: 0.5, End: 0.5},
			{Text: "(laughter)", Type: scribe.WordTypeAudioEvent, Start: 0.5, End: 1.0},
			{Text: "there", Type: scribe.WordTypeWord, Start: 1.0, End: 1.4, SpeakerID: spk("speaker_0")},
		},
	}

	words := WordsFromTranscript(transcript)

	require.Len(t, words, 2)
	assert.Equal(t, Word{SpeakerID: "speaker_0", StartMS: 0, EndMS: 500, Text: "hi"}, words[0])
	assert.Equal(t, Word{SpeakerID: "speaker_0", StartMS: 1000, EndMS: 1400, Text: "there"}, words[1])
}

func TestSpeakerLabel(t *testing.T) {
	tests := []struct {
		id   string
		want string
	}{
		{"speaker_0", "Speaker 1"},
		{"speaker_1", "Speaker 2"},
		{"speaker_11", "Speaker 12"},
		{"speaker_x", "speaker_x"},
		{"alice", "alice"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SpeakerLabel(tt.id), "id %q", tt.id)
	}
}
