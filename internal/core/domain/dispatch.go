package domain

import (
	"encoding/json"
	"time"
)

type ERPDecision string

const (
	DecisionSendToERP    ERPDecision = "send_to_erp"
	DecisionManualReview ERPDecision = "manual_review"
)

func (d ERPDecision) Valid() bool {
	return d == DecisionSendToERP || d == DecisionManualReview
}

// ERPDispatch records the user's accept/reject action on a processed document.
type ERPDispatch struct {
	ID              string          `json:"id"`
	RunID           string          `json:"run_id"`
	Filename        string          `json:"filename"`
	Decision        ERPDecision     `json:"decision"`
	ERPStatus       ERPStatus       `json:"erp_status"`
	DocumentType    string          `json:"document_type,omitempty"`
	TransformedData json.RawMessage `json:"transformed_data"`
	CreatedAt       time.Time       `json:"created_at"`
}

type DispatchRequest struct {
	RunID           string          `json:"run_id"`
	Filename        string          `json:"filename"`
	Decision        ERPDecision     `json:"decision"`
	ERPStatus       ERPStatus       `json:"erp_status"`
	DocumentType    string          `json:"document_type"`
	TransformedData json.RawMessage `json:"transformed_data"`
}
