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
	FieldUserAgent   = "user_agent"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldUserID      = "user_id"
	FieldTxID        = "transaction_id"
	FieldTxType      = "transaction_type"
	FieldAmountCents = "amount_cents"
	FieldSavedCents  = "saved_cents"
	FieldLockedCents = "locked_cents"
	FieldPercent     = "savings_percent"
	FieldReason      = "unlock_reason"
	FieldGranularity = "granularity"
	FieldSheetsRef   = "sheets_ref"
)

// Components defines standard component names
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
	ComponentCache   = "cache"
)

// Operations defines standard operation names
const (
	OpAllowance = "allowance"
	OpUnlock    = "unlock"
	OpPercent   = "update_percent"
	OpSeries    = "series"
	OpRecord    = "record"
	OpExport    = "export"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)
