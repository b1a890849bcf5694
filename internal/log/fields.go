package log

// Common field names for structured logging.
const (
	FieldComponent     = "component"
	FieldOperation     = "operation"
	FieldError         = "error"
	FieldRequestID     = "request_id"
	FieldOwnerID       = "owner_id"
	FieldTransactionID = "transaction_id"
	FieldCategoryID    = "category_id"
	FieldGoalID        = "goal_id"
	FieldAmount        = "amount"
	FieldKind          = "kind"
	FieldYear          = "year"
	FieldMonth         = "month"
	FieldAttempt       = "attempt"
	FieldDuration      = "duration_ms"
	FieldStatusCode    = "status_code"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentBudget  = "budget"
	ComponentStorage = "storage"
	ComponentEvents  = "events"
	ComponentExport  = "export"
	ComponentWorker  = "worker"
)

// Operations defines standard operation names.
const (
	OpCreate    = "create"
	OpGet       = "get"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpList      = "list"
	OpCommit    = "commit"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpExport    = "export"
	OpRecompute = "recompute"
)
