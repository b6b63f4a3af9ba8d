package log

// Common field names for structured logging
const (
	FieldComponent    = "component"
	FieldRequestID    = "request_id"
	FieldClientIP     = "client_ip"
	FieldMethod       = "method"
	FieldPath         = "path"
	FieldStatusCode   = "status_code"
	FieldDuration     = "duration_ms"
	FieldError        = "error"
	FieldOperation    = "operation"
	FieldCollection   = "collection"
	FieldDocumentID   = "document_id"
	FieldSerialNumber = "serial_number"
	FieldVehicle      = "vehicle_number"
	FieldEntityType   = "entity_type"
	FieldEntityName   = "entity_name"
	FieldAmount       = "amount"
	FieldOwner        = "owner"
	FieldEventType    = "event_type"
)

// Components defines standard component names
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentTrips     = "trips"
	ComponentLedger    = "ledger"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentExtract   = "extract"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentBackend   = "backend"
	ComponentAdmin     = "admin"
)

// Operations defines standard operation names
const (
	OpCreate    = "create"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpReconcile = "reconcile"
	OpPublish   = "publish"
	OpExport    = "export"
	OpExtract   = "extract"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithComponent adds the component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithDocument adds collection and document id fields
func (f LogFields) WithDocument(collection, id string) LogFields {
	f[FieldCollection] = collection
	f[FieldDocumentID] = id
	return f
}

// WithTrip adds trip identity fields
func (f LogFields) WithTrip(id string, serial int, vehicle string) LogFields {
	f[FieldDocumentID] = id
	f[FieldSerialNumber] = serial
	f[FieldVehicle] = vehicle
	return f
}

// WithPayment adds payment counterparty fields
func (f LogFields) WithPayment(entityType, entityName, amount string) LogFields {
	f[FieldEntityType] = entityType
	f[FieldEntityName] = entityName
	f[FieldAmount] = amount
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
