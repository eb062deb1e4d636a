package domain

import "strings"

// Field names a column of the certidão table. The well-known fields map to
// Record struct members; any other name is looked up in Record.Extra.
type Field string

const (
	FieldName           Field = "name"
	FieldTaxID          Field = "tax_id"
	FieldClassification Field = "classification"
	FieldOutcome        Field = "outcome"
	FieldIssuedAt       Field = "issued_at"
	FieldValidity       Field = "validity"
	FieldURL            Field = "url"
)

// KnownFields lists the fields backed by Record members, in table order.
var KnownFields = []Field{
	FieldName,
	FieldTaxID,
	FieldClassification,
	FieldOutcome,
	FieldIssuedAt,
	FieldValidity,
	FieldURL,
}

// DefaultHeaders maps the spreadsheet headers produced by the collection
// robot to table fields.
var DefaultHeaders = map[string]Field{
	"Consultado (Nome)":     FieldName,
	"Consultado (CPF/CNPJ)": FieldTaxID,
	"Classificação":         FieldClassification,
	"Resultado":             FieldOutcome,
	"Emitido em":            FieldIssuedAt,
	"Validade":              FieldValidity,
	"Url":                   FieldURL,
}

// Record is one row of the certidão table. Absent cells are empty strings.
type Record struct {
	Name           string            `json:"name"`
	TaxID          string            `json:"tax_id"`
	Classification string            `json:"classification" validate:"required"`
	Outcome        Outcome           `json:"outcome"`
	// RawOutcome keeps cell text that ParseOutcome does not recognise.
	RawOutcome     string            `json:"raw_outcome,omitempty"`
	IssuedAt       string            `json:"issued_at"`
	Validity       string            `json:"validity"`
	URL            string            `json:"url" validate:"required"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// Get returns the raw text value of a field.
func (r Record) Get(f Field) string {
	switch f {
	case FieldName:
		return r.Name
	case FieldTaxID:
		return r.TaxID
	case FieldClassification:
		return r.Classification
	case FieldOutcome:
		if r.Outcome == OutcomeUnknown {
			return r.RawOutcome
		}
		return r.Outcome.Label(LocalePtBR)
	case FieldIssuedAt:
		return r.IssuedAt
	case FieldValidity:
		return r.Validity
	case FieldURL:
		return r.URL
	}
	return r.Extra[string(f)]
}

// Set assigns the raw text value of a field.
func (r *Record) Set(f Field, value string) {
	switch f {
	case FieldName:
		r.Name = value
	case FieldTaxID:
		r.TaxID = value
	case FieldClassification:
		r.Classification = value
	case FieldOutcome:
		r.Outcome = ParseOutcome(value)
		r.RawOutcome = ""
		if r.Outcome == OutcomeUnknown {
			r.RawOutcome = strings.TrimSpace(value)
		}
	case FieldIssuedAt:
		r.IssuedAt = value
	case FieldValidity:
		r.Validity = value
	case FieldURL:
		r.URL = value
	default:
		if r.Extra == nil {
			r.Extra = make(map[string]string)
		}
		r.Extra[string(f)] = value
	}
}

// DocumentType is the short document type used as a report column: the
// first four characters of the classification.
func (r Record) DocumentType() string {
	return ShortType(r.Classification)
}

// ShortType truncates a classification to its four-character code.
func ShortType(classification string) string {
	c := strings.TrimSpace(classification)
	runes := []rune(c)
	if len(runes) > 4 {
		runes = runes[:4]
	}
	return strings.TrimSpace(string(runes))
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	if r.Extra != nil {
		out.Extra = make(map[string]string, len(r.Extra))
		for k, v := range r.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// CloneRecords deep-copies a table.
func CloneRecords(records []Record) []Record {
	if records == nil {
		return nil
	}
	out := make([]Record, len(records))
	for i, r := range records {
		out[i] = r.Clone()
	}
	return out
}

// PositiveFiling is a legal process attached to a positive certidão.
type PositiveFiling struct {
	Name          string `json:"name" validate:"required"`
	ProcessNumber string `json:"process_number" validate:"required"`
}

// Supplier carries the scoring parameters of an entity.
type Supplier struct {
	TaxID string `json:"tax_id" validate:"required"`
	// Tier is the ABC curve letter, 'A' to 'Z'.
	Tier  string `json:"tier" validate:"required,len=1,alpha"`
	Local bool   `json:"local"`
}
