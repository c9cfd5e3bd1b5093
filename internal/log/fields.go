package log

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldStorageKey = "storage_key"
	FieldRow        = "row"
	FieldRowField   = "field"
	FieldEntries    = "entries"
	FieldTotal      = "total"
	FieldAmount     = "amount"
	FieldMessageID  = "message_id"
	FieldBackend    = "backend"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentCache     = "cache"
	ComponentAMQP      = "amqp"
	ComponentKafka     = "kafka"
	ComponentWorker    = "worker"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentTemplate  = "template"
	ComponentCLI       = "cli"
)

// Operations defines standard operation names
const (
	OpLoad      = "load"
	OpAdd       = "add"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpSave      = "save"
	OpSummarize = "summarize"
	OpPublish   = "publish"
	OpArchive   = "archive"
	OpRender    = "render"
	OpExport    = "export"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithRow adds the row handle and, when set, the edited field
func (f LogFields) WithRow(ref uint64, field string) LogFields {
	f[FieldRow] = ref
	if field != "" {
		f[FieldRowField] = field
	}
	return f
}

// WithLedger adds storage key, entry count and formatted total
func (f LogFields) WithLedger(key string, entries int, total string) LogFields {
	f[FieldStorageKey] = key
	f[FieldEntries] = entries
	f[FieldTotal] = total
	return f
}

// WithHTTPResponse adds HTTP response fields
func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = statusCode < 400
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		if k == FieldComponent {
			continue
		}
		slice = append(slice, k, v)
	}
	return slice
}
