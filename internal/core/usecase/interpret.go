package usecase

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/kirillkom/erp-document-processor/internal/core/domain"
)

// Interpreter parses model replies strictly; no JSON repair is attempted.
type Interpreter struct{}

func NewInterpreter() *Interpreter {
	return &Interpreter{}
}

func (Interpreter) Interpret(raw string) (domain.InterpretedResult, error) {
	return InterpretResponse(raw)
}

// InterpretResponse maps a raw reply onto the six result fields. Each field falls back to
// its default independently and is listed in Defaulted.
func InterpretResponse(raw string) (domain.InterpretedResult, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(raw), &fields); err != nil {
		return domain.InterpretedResult{}, &domain.MalformedResponseError{Raw: raw, Cause: err}
	}
	if fields == nil {
		return domain.InterpretedResult{}, &domain.MalformedResponseError{
			Raw:   raw,
			Cause: errors.New("reply is not a JSON object"),
		}
	}

	result := domain.InterpretedResult{}
	result.Summary = stringField(fields, domain.FieldSummary, domain.DefaultSummary, &result.Defaulted)
	result.Domain = stringField(fields, domain.FieldDomain, domain.DefaultUnknown, &result.Defaulted)
	result.Origin = stringField(fields, domain.FieldOrigin, domain.DefaultUnknown, &result.Defaulted)
	result.DocumentType = stringField(fields, domain.FieldDocumentType, domain.DefaultUnknown, &result.Defaulted)
	result.ERPStatus = domain.ERPStatus(stringField(fields, domain.FieldERPStatus, string(domain.ERPNotReady), &result.Defaulted))

	data, ok := transformedData(fields[string(domain.FieldTransformedData)], &result.Defaulted)
	if !ok {
		result.Defaulted = append(result.Defaulted, domain.FieldTransformedData)
	}
	result.TransformedData = data

	return result, nil
}

func stringField(fields map[string]json.RawMessage, field domain.ResultField, fallback string, defaulted *[]domain.ResultField) string {
	raw, ok := fields[string(field)]
	if !ok || isNull(raw) {
		*defaulted = append(*defaulted, field)
		return fallback
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		*defaulted = append(*defaulted, field)
		return fallback
	}
	return value
}

func transformedData(raw json.RawMessage, defaulted *[]domain.ResultField) (domain.TransformedData, bool) {
	var members map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &members) != nil || members == nil {
		return domain.EmptyTransformedData(), false
	}

	data := domain.EmptyTransformedData()
	data.Raw = append(json.RawMessage(nil), bytes.TrimSpace(raw)...)

	if kp, ok := members["key_points"]; ok {
		data.KeyPoints = keyPoints(kp)
	}
	if ents, ok := members["entities"]; ok {
		var parsed map[string]any
		if err := json.Unmarshal(ents, &parsed); err == nil && parsed != nil {
			data.Entities = parsed
		}
	}
	if conf, ok := members["confidence"]; ok {
		value, parsed := confidence(conf)
		data.Confidence = value
		if !parsed && defaulted != nil {
			*defaulted = append(*defaulted, domain.FieldConfidence)
		}
	}
	return data, true
}

func keyPoints(raw json.RawMessage) []string {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return []string{}
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			out = append(out, s)
			continue
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, item); err == nil {
			out = append(out, compact.String())
		}
	}
	return out
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// confidence accepts a number or a numeric string such as "0.9" or "90%". Anything else
// yields 0 and false.
func confidence(raw json.RawMessage) (float64, bool) {
	if isNull(raw) {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimSpace(s)
	percent := strings.HasSuffix(s, "%")
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	if percent {
		v /= 100
	}
	return v, true
}

// ParseTransformedData reads a transformed_data object supplied by a client.
func ParseTransformedData(raw []byte) (domain.TransformedData, error) {
	data, ok := transformedData(raw, nil)
	if !ok {
		return domain.TransformedData{}, domain.WrapError(domain.ErrInvalidInput, "parse transformed data",
			errors.New("transformed_data must be a JSON object"))
	}
	return data, nil
}

// PrettyTransformedData renders the download artifact with two-space indentation. The
// model's object is re-indented as emitted, so characters such as <, > and & stay literal.
func PrettyTransformedData(data domain.TransformedData) ([]byte, error) {
	raw := []byte(data.Raw)
	if len(raw) == 0 {
		var buf bytes.Buffer
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(data); err != nil {
			return nil, fmt.Errorf("marshal transformed data: %w", err)
		}
		raw = buf.Bytes()
	}
	var out bytes.Buffer
	if err := json.Indent(&out, bytes.TrimSpace(raw), "", "  "); err != nil {
		return nil, fmt.Errorf("indent transformed data: %w", err)
	}
	return out.Bytes(), nil
}
