package judge

import (
	"strings"

	"contest_arena/internal/domain/model"
)

// Judge0 status ids.
const (
	StatusInQueue           = 1
	StatusProcessing        = 2
	StatusAccepted          = 3
	StatusWrongAnswer       = 4
	StatusTimeLimitExceeded = 5
	StatusCompilationError  = 6
	StatusInternalError     = 13
	StatusExecFormatError   = 14
)

// MapStatus converts a Judge0 status id and description to a submission status.
func MapStatus(id int, description string) model.SubmissionStatus {
	switch {
	case id == StatusInQueue:
		return model.StatusQueued
	case id == StatusProcessing:
		return model.StatusRunning
	case id == StatusAccepted:
		return model.StatusAccepted
	case id == StatusWrongAnswer:
		return model.StatusWrongAnswer
	case id == StatusTimeLimitExceeded:
		return model.StatusTimeLimitExceeded
	case id == StatusCompilationError:
		return model.StatusCompileError
	case id >= 7 && id <= 12:
		if strings.Contains(strings.ToLower(description), "memory") {
			return model.StatusMemoryLimitExceeded
		}
		return model.StatusRuntimeError
	default:
		return model.StatusInternalError
	}
}
