package service

// Standard field names for structured logging. Use these exact names so
// log aggregation stays consistent across the bridge.
const (
	// Core identifiers
	LogFieldMessageID = "message_id"
	LogFieldChatID    = "chat_id"
	LogFieldUserID    = "user_id"

	// Message and frame fields
	LogFieldMessageType = "message_type"
	LogFieldFrameType   = "frame_type"
	LogFieldPlatform    = "platform"
	LogFieldDirection   = "direction" // "incoming" or "outgoing"
	LogFieldOutcome     = "outcome"

	// Service and operation fields
	LogFieldService   = "service"
	LogFieldComponent = "component"
	LogFieldMethod    = "method"

	// Network and external services
	LogFieldURL        = "url"
	LogFieldEndpoint   = "endpoint"
	LogFieldStatusCode = "status_code"
	LogFieldRemoteIP   = "remote_ip"
	LogFieldUserAgent  = "user_agent"

	// Performance
	LogFieldDuration = "duration_ms"
	LogFieldSize     = "size_bytes"

	// Tracing
	LogFieldRequestID = "request_id"
	LogFieldTraceID   = "trace_id"

	// Error fields
	LogFieldErrorCode = "error_code"
)
