package log

// Common field names for structured logging
const (
	FieldComponent = "component"
	FieldOperation = "operation"
	FieldStream    = "stream"
	FieldUser      = "user"
	FieldSeq       = "seq"
	FieldError     = "error"
	FieldBackend   = "backend"
	FieldDuration  = "duration_ms"
	FieldTxID      = "tx_id"
)

// Components
const (
	ComponentCollator = "collator"
	ComponentFeed     = "feed"
	ComponentStore    = "store"
	ComponentAMQP     = "amqp"
	ComponentLedger   = "ledger"
	ComponentDaemon   = "daemon"
	ComponentImport   = "import"
)

// Operations
const (
	OpRefresh   = "refresh"
	OpRecompute = "recompute"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpCreate    = "create"
	OpDelete    = "delete"
	OpUpdate    = "update"
	OpMigrate   = "migrate"
	OpWatch     = "watch"
)
