package log

// Canonical field name constants for structured logging.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldRequestID = "request_id"

	FieldURL       = "url"
	FieldProvider  = "provider"
	FieldMediaType = "media_type"
	FieldMediaID   = "media_id"
	FieldStrategy  = "strategy"
	FieldCount     = "count"
	FieldStatus    = "status"
	FieldDuration  = "duration_ms"
)
