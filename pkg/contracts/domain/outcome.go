package domain

import (
	"encoding/json"
	"strings"
)

// Outcome is the result printed on a certidão.
type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomeNegative
	OutcomePositiveNegative
	OutcomePositive
)

// Locale selects the display vocabulary of outcomes.
type Locale string

const (
	LocalePtBR Locale = "pt-BR"
	LocaleEn   Locale = "en"
)

var outcomeLabels = map[Locale]map[Outcome]string{
	LocalePtBR: {
		OutcomeNegative:         "Negativa",
		OutcomePositive:         "Positiva",
		OutcomePositiveNegative: "Pos./Neg.",
	},
	LocaleEn: {
		OutcomeNegative:         "Negative",
		OutcomePositive:         "Positive",
		OutcomePositiveNegative: "Positive/Negative",
	},
}

// ParseOutcome accepts the Portuguese, English and short ("P", "N", "PN")
// spellings. Anything else is OutcomeUnknown.
func ParseOutcome(s string) Outcome {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "negativa", "negative", "n":
		return OutcomeNegative
	case "positiva", "positive", "p":
		return OutcomePositive
	case "pos./neg.", "positiva com efeito de negativa", "positive/negative", "pn":
		return OutcomePositiveNegative
	}
	return OutcomeUnknown
}

// Label returns the outcome text for a locale, empty for OutcomeUnknown.
func (o Outcome) Label(l Locale) string {
	labels, ok := outcomeLabels[l]
	if !ok {
		labels = outcomeLabels[LocalePtBR]
	}
	return labels[o]
}

// Code is the short column suffix used by the certidão map.
func (o Outcome) Code() string {
	switch o {
	case OutcomeNegative:
		return "N"
	case OutcomePositive:
		return "P"
	case OutcomePositiveNegative:
		return "PN"
	}
	return ""
}

// String implements fmt.Stringer.
func (o Outcome) String() string {
	return o.Label(LocaleEn)
}

// Worse reports whether o is more severe than other.
func (o Outcome) Worse(other Outcome) bool {
	return o > other
}

// MarshalJSON encodes the outcome with its pt-BR label, which is what the
// source spreadsheets carry.
func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.Label(LocalePtBR))
}

// UnmarshalJSON accepts any spelling understood by ParseOutcome.
func (o *Outcome) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*o = ParseOutcome(s)
	return nil
}
