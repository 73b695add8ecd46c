package log

const (
	// Request
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"

	// Actor, matches the keys set by pkg/middleware
	FieldUserID     = "user_id"
	FieldExternalID = "external_id"

	// Resources
	FieldPostID      = "post_id"
	FieldCommentID   = "comment_id"
	FieldFollowingID = "following_id"
	FieldObjectKey   = "object_key"

	FieldService = "service"

	// Log type (for audit log)
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
