package log

// Canonical field name constants for structured logging.
const (
	// Process fields
	FieldEvent     = "event"
	FieldComponent = "component"

	// Database fields
	FieldPath      = "path"
	FieldQuery     = "query"
	FieldVersion   = "dbversion"
	FieldConfigKey = "key"

	// Peer fields
	FieldAddr = "addr"
)
