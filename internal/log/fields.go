package log

// Field names shared by every log line.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldQuery      = "query"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldReferer    = "referer"
	FieldSuccess    = "success"
	FieldError      = "error"
	FieldOperation  = "operation"

	FieldSource   = "source"
	FieldRows     = "rows"
	FieldColumns  = "columns"
	FieldCategory = "category"
	FieldRegion   = "region"
	FieldChartID  = "chart_id"
	FieldPoints   = "points"
	FieldFormat   = "format"
	FieldFileName = "file_name"
	FieldBytes    = "bytes"
	FieldEventID  = "event_id"
)

// Component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentDashboard = "dashboard"
	ComponentDataset   = "dataset"
	ComponentStorage   = "storage"
	ComponentSheets    = "sheets"
	ComponentRender    = "render"
	ComponentExport    = "export"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentTemplate  = "template"
)

// Operation names.
const (
	OpLoad      = "load"
	OpImport    = "import"
	OpAggregate = "aggregate"
	OpUpdate    = "update"
	OpExport    = "export"
	OpRender    = "render"
	OpPublish   = "publish"
	OpConsume   = "consume"
	OpValidate  = "validate"
	OpStartup   = "startup"
	OpShutdown  = "shutdown"
)

// Error categories.
const (
	ErrorTypeValidation    = "validation_error"
	ErrorTypeConfiguration = "configuration_error"
	ErrorTypeDatabase      = "database_error"
	ErrorTypeNetwork       = "network_error"
	ErrorTypeNotFound      = "not_found_error"
	ErrorTypeInternal      = "internal_error"
)

// LogFields builds structured attributes.
type LogFields map[string]any

// NewFields creates an empty field set.
func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

func (f LogFields) WithClientIP(ip string) LogFields {
	f[FieldClientIP] = ip
	return f
}

// WithError adds the error message; nil errors are ignored.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithSelection adds the dropdown values of a chart update.
func (f LogFields) WithSelection(category, region string) LogFields {
	f[FieldCategory] = category
	f[FieldRegion] = region
	return f
}

// WithExport adds the attributes of a delivered download.
func (f LogFields) WithExport(format, fileName string, rows, bytes int) LogFields {
	f[FieldFormat] = format
	f[FieldFileName] = fileName
	f[FieldRows] = rows
	f[FieldBytes] = bytes
	return f
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	f[FieldMethod] = method
	f[FieldPath] = path
	f[FieldQuery] = query
	if userAgent != "" {
		f[FieldUserAgent] = userAgent
	}
	if referer != "" {
		f[FieldReferer] = referer
	}
	return f
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice flattens the fields into slog key/value pairs.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
