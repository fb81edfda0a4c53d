package logging

// Common structured log field names shared across the service.
const (
	FieldService   = "service"
	FieldComponent = "component"
	FieldType      = "type"
	FieldPort      = "port"
	FieldSignal    = "signal"
	FieldToiletID  = "toiletId"
	FieldPath      = "path"
)
