package log

const (
	FieldService = "service"
	FieldSource  = "source"

	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// FieldUserID doubles as the gin key the auth middleware sets.
	FieldUserID = "user_id"

	FieldOperation   = "operation"
	FieldSenderID    = "sender_id"
	FieldRecipientID = "recipient_id"
	FieldTargetID    = "target_id"

	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
