package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

type ERPStatus string

const (
	ERPReady    ERPStatus = "READY"
	ERPNotReady ERPStatus = "NOT_READY"
)

func (s ERPStatus) Ready() bool { return s == ERPReady }

type ResultField string

const (
	FieldSummary         ResultField = "summary"
	FieldDomain          ResultField = "domain"
	FieldOrigin          ResultField = "origin"
	FieldDocumentType    ResultField = "document_type"
	FieldERPStatus       ResultField = "erp_status"
	FieldTransformedData ResultField = "transformed_data"

	// FieldConfidence is reported when transformed_data.confidence is present but not a number.
	FieldConfidence ResultField = "transformed_data.confidence"
)

const (
	DefaultSummary = "No summary available"
	DefaultUnknown = "Unknown"
)

// TransformedData is the structured payload offered for download and ERP hand-off.
// Raw holds the object exactly as the model emitted it.
type TransformedData struct {
	KeyPoints  []string       `json:"key_points"`
	Entities   map[string]any `json:"entities"`
	Confidence float64        `json:"confidence"`

	Raw json.RawMessage `json:"-"`
}

func EmptyTransformedData() TransformedData {
	return TransformedData{
		KeyPoints: []string{},
		Entities:  map[string]any{},
		Raw:       json.RawMessage(`{}`),
	}
}

func (t TransformedData) MarshalJSON() ([]byte, error) {
	if len(t.Raw) > 0 {
		return t.Raw, nil
	}
	type typed TransformedData
	return json.Marshal(typed(t))
}

type InterpretedResult struct {
	Summary         string          `json:"summary"`
	Domain          string          `json:"domain"`
	Origin          string          `json:"origin"`
	DocumentType    string          `json:"document_type"`
	ERPStatus       ERPStatus       `json:"erp_status"`
	TransformedData TransformedData `json:"transformed_data"`

	Defaulted []ResultField `json:"defaulted_fields,omitempty"`
}

func (r InterpretedResult) WasDefaulted(field ResultField) bool {
	for _, f := range r.Defaulted {
		if f == field {
			return true
		}
	}
	return false
}

// ProcessResult is what a single pipeline run hands to the presentation layer.
type ProcessResult struct {
	RunID         string            `json:"run_id"`
	Filename      string            `json:"filename"`
	MediaType     string            `json:"media_type"`
	ExtractedText string            `json:"extracted_text"`
	Result        InterpretedResult `json:"result"`
	ERPReady      bool              `json:"erp_ready"`
	ProcessedAt   time.Time         `json:"processed_at"`
}

func NewRunID() string {
	return uuid.NewString()
}
