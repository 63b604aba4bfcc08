package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrUnavailable     ErrorCode = "service_unavailable"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig   ErrorCode = "invalid_configuration"
	ErrBindFlags       ErrorCode = "bind_flags_failed"
	ErrReadConfig      ErrorCode = "read_config_failed"
	ErrInvalidInterval ErrorCode = "invalid_interval"
	ErrInvalidSource   ErrorCode = "invalid_ingest_source"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Initialization errors
	ErrInitFailed     ErrorCode = "initialization_failed"
	ErrShutdownFailed ErrorCode = "shutdown_failed"

	// Application errors
	ErrInitApp     ErrorCode = "init_app_failed"
	ErrMainLoop    ErrorCode = "main_loop_failed"
	ErrStatusServe ErrorCode = "status_server_failed"

	// Operation errors
	ErrTimeout ErrorCode = "operation_timeout"

	// Emission errors
	ErrPublish       ErrorCode = "publish_failed"
	ErrEncodePayload ErrorCode = "encode_payload_failed"

	// Ingestion errors
	ErrDecodeEvent    ErrorCode = "ingest_decode_failed"
	ErrInvalidEvent   ErrorCode = "ingest_invalid_event"
	ErrClockSkew      ErrorCode = "ingest_clock_skew"
	ErrUnknownEvent   ErrorCode = "ingest_unknown_event_type"
	ErrSourceFailed   ErrorCode = "ingest_source_failed"
	ErrSubscribe      ErrorCode = "ingest_subscribe_failed"
	ErrSchemaCompile  ErrorCode = "ingest_schema_compile_failed"
	ErrSchemaValidate ErrorCode = "ingest_schema_validation_failed"
)

var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrInvalidArgument: "Invalid argument provided",
	ErrUnavailable:     "Service unavailable",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrInvalidConfig:   "Invalid configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrReadConfig:      "Failed to read config file",
	ErrInvalidInterval: "Invalid interval value",
	ErrInvalidSource:   "Invalid ingest source",
	ErrInvalidLogLevel: "Invalid log level",
	ErrInitFailed:      "Initialization failed",
	ErrShutdownFailed:  "Shutdown failed",
	ErrInitApp:         "Failed to initialize application",
	ErrMainLoop:        "Error in main loop",
	ErrStatusServe:     "Status server failed",
	ErrTimeout:         "Operation timed out",
	ErrPublish:         "Failed to publish payload",
	ErrEncodePayload:   "Failed to encode payload",
	ErrDecodeEvent:     "Failed to decode raw event",
	ErrInvalidEvent:    "Invalid raw event",
	ErrClockSkew:       "Event timestamp too far from current time",
	ErrUnknownEvent:    "Unknown raw event type",
	ErrSourceFailed:    "Event source failed",
	ErrSubscribe:       "Failed to subscribe to event channel",
	ErrSchemaCompile:   "Failed to compile raw event schema",
	ErrSchemaValidate:  "Raw event does not match schema",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
