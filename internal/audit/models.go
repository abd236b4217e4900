package audit

import "time"

// DataType classifies what a record captured. The numeric values are part of
// the stored schema; do not reorder.
type DataType int

const (
	DataTypeInternalRequest DataType = iota + 1
	DataTypeInternalResponse
	DataTypeExternalRequest
	DataTypeExternalResponse
	DataTypeExternalError
	DataTypeCode
)

var dataTypeNames = map[DataType]string{
	DataTypeInternalRequest:  "internal_request",
	DataTypeInternalResponse: "internal_response",
	DataTypeExternalRequest:  "external_request",
	DataTypeExternalResponse: "external_response",
	DataTypeExternalError:    "external_error",
	DataTypeCode:             "code",
}

func (d DataType) String() string {
	if name, ok := dataTypeNames[d]; ok {
		return name
	}
	return "unknown"
}

// Record is one observed integration event. Records are immutable once
// created; the only delete path is the bulk retention purge.
type Record struct {
	IntegrationID  string   `json:"integrationId"`
	ConversationID string   `json:"conversationId,omitempty"`
	SubjectID      string   `json:"subjectId,omitempty"`
	CorrelationID  string   `json:"correlationId"`
	DataType       DataType `json:"dataType"`
	// Identifier is free text, typically the originating method name.
	Identifier string `json:"identifier,omitempty"`
	// Data must be sanitized before the record is queued or published.
	Data any `json:"data"`
	// CreatedAt is epoch milliseconds.
	CreatedAt int64 `json:"createdAt"`
}

// Envelope is the message-bus payload shape for the dispatch path.
type Envelope struct {
	Data     any    `json:"data"`
	DataType string `json:"dataType"`
	Source   string `json:"source"`
	Type     string `json:"type"`
}

// Timestamp converts an epoch-millisecond value to time.Time.
func Timestamp(ms int64) time.Time {
	return time.UnixMilli(ms)
}
