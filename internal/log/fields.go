package log

// Common field names for structured logging
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldEntryKind   = "entry_kind"
	FieldLocalID     = "local_id"
	FieldRemoteID    = "remote_id"
	FieldAmount      = "amount"
	FieldCategory    = "category"
	FieldQueueDepth  = "queue_depth"
	FieldSyncedCount = "synced_count"
	FieldErrorCount  = "error_count"
	FieldIntent      = "intent"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStore     = "store"
	ComponentLedger    = "ledger"
	ComponentSync      = "sync"
	ComponentMetrics   = "metrics"
	ComponentAssistant = "assistant"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentAuth      = "auth"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpEnqueue  = "enqueue"
	OpSync     = "sync"
	OpValidate = "validate"
	OpGenerate = "generate"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
