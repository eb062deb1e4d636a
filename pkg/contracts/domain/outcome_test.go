package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		input string
		want  Outcome
	}{
		{"Negativa", OutcomeNegative},
		{" positiva ", OutcomePositive},
		{"Pos./Neg.", OutcomePositiveNegative},
		{"Positive/Negative", OutcomePositiveNegative},
		{"PN", OutcomePositiveNegative},
		{"N", OutcomeNegative},
		{"", OutcomeUnknown},
		{"Positivo", OutcomeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseOutcome(tt.input))
		})
	}
}

func TestOutcomeLabels(t *testing.T) {
	assert.Equal(t, "Positiva", OutcomePositive.Label(LocalePtBR))
	assert.Equal(t, "Positive/Negative", OutcomePositiveNegative.Label(LocaleEn))
	assert.Equal(t, "Negativa", OutcomeNegative.Label(Locale("fr")))
	assert.Equal(t, "", OutcomeUnknown.Label(LocalePtBR))
	assert.Equal(t, "PN", OutcomePositiveNegative.Code())
	assert.True(t, OutcomePositive.Worse(OutcomePositiveNegative))
	assert.True(t, OutcomePositiveNegative.Worse(OutcomeNegative))
}

func TestOutcomeJSON(t *testing.T) {
	data, err := json.Marshal(Record{Outcome: OutcomePositive, URL: "u"})
	require.NoError(t, err)
	assert.Contains(t, string(data), `"outcome":"Positiva"`)

	var r Record
	require.NoError(t, json.Unmarshal([]byte(`{"outcome":"Negative","url":"x"}`), &r))
	assert.Equal(t, OutcomeNegative, r.Outcome)
}

func TestRecordFieldAccess(t *testing.T) {
	r := Record{Name: "ACME", Classification: "CNDT - Trabalhista"}
	r.Set(FieldTaxID, "11")
	r.Set(Field("Tribunal"), "TRT2")

	assert.Equal(t, "11", r.Get(FieldTaxID))
	assert.Equal(t, "TRT2", r.Get(Field("Tribunal")))
	assert.Equal(t, "", r.Get(Field("missing")))
	assert.Equal(t, "CNDT", r.DocumentType())

	r.Set(FieldOutcome, " Em análise ")
	assert.Equal(t, OutcomeUnknown, r.Outcome)
	assert.Equal(t, "Em análise", r.Get(FieldOutcome))
	r.Set(FieldOutcome, "Negativa")
	assert.Equal(t, "Negativa", r.Get(FieldOutcome))
	assert.Empty(t, r.RawOutcome)

	clone := r.Clone()
	clone.Extra["Tribunal"] = "TRT15"
	assert.Equal(t, "TRT2", r.Extra["Tribunal"])
}
