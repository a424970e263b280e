package models

// Severity tags a transient user-facing notification.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// NoticeDismissAfterMs is how long clients keep a notice on screen.
const NoticeDismissAfterMs = 5000

// Notice is the toast payload attached to API responses.
type Notice struct {
	Severity       Severity `json:"severity"`
	Message        string   `json:"message"`
	DismissAfterMs int      `json:"dismiss_after_ms"`
}

func NewNotice(severity Severity, message string) *Notice {
	return &Notice{Severity: severity, Message: message, DismissAfterMs: NoticeDismissAfterMs}
}

// NoticeFor picks the notice severity for an error code.
func NoticeFor(code, message string) *Notice {
	switch code {
	case CodeValidation, CodeNotFound, CodeGenerationInProgress:
		return NewNotice(SeverityWarning, message)
	case CodeUnauthorized:
		return NewNotice(SeverityInfo, message)
	default:
		return NewNotice(SeverityError, message)
	}
}
