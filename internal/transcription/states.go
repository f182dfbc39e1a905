package transcription

import "kiroku/internal/models"

// Transition tables for the two entities the pipeline mutates. A retry
// never revives a terminal job; it creates a fresh job record, which is why
// the job table has no edges out of completed/failed.
var (
	recordingTransitions = map[string][]string{
		models.RecordingStatusUploaded:     {models.RecordingStatusTranscribing},
		models.RecordingStatusTranscribing: {models.RecordingStatusReady, models.RecordingStatusFailed},
		// ready/failed re-enter transcribing through an explicit user retry
		models.RecordingStatusReady:  {models.RecordingStatusTranscribing},
		models.RecordingStatusFailed: {models.RecordingStatusTranscribing},
	}

	jobTransitions = map[string][]string{
		models.JobStatusQueued:  {models.JobStatusRunning, models.JobStatusFailed},
		models.JobStatusRunning: {models.JobStatusCompleted, models.JobStatusFailed},
	}
)

// CanRecordingTransition はレコーディングの状態遷移が許可されているかを返す
func CanRecordingTransition(from, to string) bool {
	return contains(recordingTransitions[from], to)
}

// CanJobTransition はジョブの状態遷移が許可されているかを返す
func CanJobTransition(from, to string) bool {
	return contains(jobTransitions[from], to)
}

func contains(states []string, s string) bool {
	for _, v := range states {
		if v == s {
			return true
		}
	}
	return false
}
