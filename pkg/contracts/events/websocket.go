// Package events defines the messages exchanged over the live dashboard session.
//
// The client sends a filter message whenever a control changes; the server
// answers each one with exactly one analysis, empty or error message carrying
// the same request id.
package events

import (
	"time"

	"dtindex/pkg/contracts/domain"
)

// ProtocolVersion is reported in the connect message
const ProtocolVersion = "1.0"

// MessageType defines the type of a live session message
type MessageType string

const (
	// Server to client
	MessageTypeConnect  MessageType = "connect"
	MessageTypeAnalysis MessageType = "analysis"
	MessageTypeEmpty    MessageType = "empty"
	MessageTypeError    MessageType = "error"

	// Client to server
	MessageTypeFilter    MessageType = "filter"
	MessageTypeHeartbeat MessageType = "heartbeat"
)

// View names one block of the analysis a client wants recomputed
type View string

const (
	ViewOverview    View = "overview"
	ViewRecords     View = "records"
	ViewDescribe    View = "describe"
	ViewTrend       View = "trend"
	ViewCorrelation View = "correlation"
	ViewForecast    View = "forecast"
)

// DefaultViews is used when a filter message names none
var DefaultViews = []View{ViewOverview, ViewDescribe, ViewTrend}

// BaseMessage represents the base structure for all session messages
type BaseMessage struct {
	Type      MessageType `json:"type"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	TraceID   string      `json:"trace_id,omitempty"`
}

// FilterMessage is sent by the client when the selection changes.
// A nil Highlight selects every year; Horizon 0 means the default.
type FilterMessage struct {
	Type      MessageType       `json:"type"`
	RequestID string            `json:"request_id"`
	Filter    domain.FilterSpec `json:"filter"`
	Views     []View            `json:"views,omitempty"`
	Dims      []string          `json:"dims,omitempty"`
	Dim       string            `json:"dim,omitempty"`
	Horizon   int               `json:"horizon,omitempty"`
	Highlight []int             `json:"highlight,omitempty"`
}

// ConnectMessage greets a new session
type ConnectMessage struct {
	BaseMessage
	Data ConnectData `json:"data"`
}

// ConnectData describes the session and the dataset it analyses
type ConnectData struct {
	SessionID       string   `json:"session_id"`
	ProtocolVersion string   `json:"protocol_version"`
	Dimensions      []string `json:"dimensions,omitempty"`
	Checksum        string   `json:"checksum,omitempty"`
}

// AnalysisMessage carries the recomputed views. Views that could not be
// computed for this filter are listed in Notices instead.
type AnalysisMessage struct {
	BaseMessage
	Data AnalysisData `json:"data"`
}

// AnalysisData holds one field per view; unrequested views are omitted
type AnalysisData struct {
	Overview    *domain.Overview          `json:"overview,omitempty"`
	Records     []domain.Record           `json:"records,omitempty"`
	Describe    []domain.DescriptiveStats `json:"describe,omitempty"`
	Trend       []domain.TrendResult      `json:"trend,omitempty"`
	Correlation *domain.CorrelationMatrix `json:"correlation,omitempty"`
	Forecast    *domain.ForecastResult    `json:"forecast,omitempty"`
	Notices     map[View]string           `json:"notices,omitempty"`
}

// EmptyMessage reports that the filter matched no records
type EmptyMessage struct {
	BaseMessage
	Notice string `json:"notice"`
}

// ErrorMessage reports a rejected filter or a failed load
type ErrorMessage struct {
	BaseMessage
	Data ErrorData `json:"data"`
}

// ErrorData describes a session error; Fatal errors close the session
type ErrorData struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
	Fatal   bool        `json:"fatal"`
}

// Error codes
const (
	ErrCodeInvalidMessage = "INVALID_MESSAGE"
	ErrCodeUnsupported    = "UNSUPPORTED_TYPE"
	ErrCodeInvalidFilter  = "INVALID_FILTER"
	ErrCodeNotFound       = "ENTITY_NOT_FOUND"
	ErrCodeDataLoad       = "DATASET_UNAVAILABLE"
	ErrCodeServerError    = "SERVER_ERROR"
)

// NewBase stamps a message header
func NewBase(typ MessageType, requestID, traceID string) BaseMessage {
	return BaseMessage{
		Type:      typ,
		RequestID: requestID,
		Timestamp: time.Now().UTC(),
		TraceID:   traceID,
	}
}
