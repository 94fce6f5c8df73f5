// Package extraction defines the structured-extraction domain model and the
// contract an LLM-backed extractor implements.
package extraction

import (
	"context"
	"errors"
	"fmt"
)

// ErrExtraction indicates the model call itself failed. A model reply that
// merely fails to parse as JSON is not an error; it degrades to raw text.
var ErrExtraction = errors.New("extraction failed")

// DocumentType classifies a document for prompt selection.
type DocumentType string

const (
	TypeInvoice  DocumentType = "INVOICE"
	TypeReceipt  DocumentType = "RECEIPT"
	TypeContract DocumentType = "CONTRACT"
	TypeForm     DocumentType = "FORM"
	TypeID       DocumentType = "ID"
	TypeOther    DocumentType = "OTHER"
)

// NormalizeType maps unknown or empty types to TypeOther.
func NormalizeType(t DocumentType) DocumentType {
	switch t {
	case TypeInvoice, TypeReceipt, TypeContract, TypeForm, TypeID, TypeOther:
		return t
	default:
		return TypeOther
	}
}

// Entity is a single named value recognized in the document.
type Entity struct {
	Name       string  `json:"name"`
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
}

// Result is the persisted outcome of a successful extraction.
type Result struct {
	Fields        map[string]any    `json:"fields,omitempty"`
	Entities      []Entity          `json:"entities,omitempty"`
	Summary       string            `json:"summary,omitempty"`
	RawText       string            `json:"rawText,omitempty"`
	KeyValuePairs map[string]string `json:"keyValuePairs"`
}

// Payload is the model's reply in one of two shapes: structured JSON that
// parsed cleanly, or the raw reply text when parsing failed.
type Payload interface {
	isPayload()
}

// Structured is a successfully parsed JSON object.
type Structured map[string]any

// RawOnly carries an unparseable model reply verbatim.
type RawOnly string

func (Structured) isPayload() {}
func (RawOnly) isPayload()    {}

// BuildResult assembles a Result from a payload, a summary, and the leading
// slice of the source text. Structured payloads keep their fields and gain
// flattened key-value pairs; raw-only payloads produce neither.
func BuildResult(p Payload, summary, rawText string) Result {
	result := Result{
		Summary:       summary,
		RawText:       rawText,
		KeyValuePairs: map[string]string{},
	}
	if fields, ok := p.(Structured); ok {
		result.Fields = fields
		result.KeyValuePairs = Flatten(fields)
	}
	return result
}

// Extractor runs structured extraction over already-extracted document text.
type Extractor interface {
	Extract(ctx context.Context, text string, docType DocumentType) (Result, error)
}

// Placeholder stands in when no LLM provider is configured; every extraction
// attempt fails, leaving documents in FAILED rather than silently succeeding.
type Placeholder struct{}

func (Placeholder) Extract(ctx context.Context, text string, docType DocumentType) (Result, error) {
	_ = ctx
	_ = text
	_ = docType
	return Result{}, fmt.Errorf("%w: no extraction provider configured", ErrExtraction)
}
