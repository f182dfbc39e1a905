package models

// Settings はプロセス全体のデフォルト設定
// 管理ツール側が書き込み、このコアは読み取り専用で利用する
type Settings struct {
	SttModelID     string  `json:"stt_model_id"`
	SummaryModelID string  `json:"summary_model_id"`
	Diarize        bool    `json:"diarize"`
	TagAudioEvents bool    `json:"tag_audio_events"`
	Temperature    float64 `json:"temperature"`
	MaxTokens      int64   `json:"max_tokens"`
}
