package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"certaudit/pkg/contracts/domain"
)

func records() []domain.Record {
	return []domain.Record{
		{TaxID: "11", Classification: "CNDT - Trabalhista", Outcome: domain.OutcomeNegative},
		{TaxID: "11", Classification: "CNDT - Trabalhista", Outcome: domain.OutcomePositive},
		{TaxID: "11", Classification: "FGTS", Outcome: domain.OutcomePositiveNegative},
		{TaxID: "22", Classification: "FGTS", Outcome: domain.OutcomeNegative},
		{TaxID: "22", Classification: "TJSP Civel", Outcome: domain.OutcomePositive},
		{TaxID: "", Classification: "TJSP Civel", Outcome: domain.OutcomePositive},
	}
}

func TestBuildSheet(t *testing.T) {
	s := BuildSheet(records())

	assert.Equal(t, []string{"11", "22"}, s.Entities)
	assert.Equal(t, []string{"CNDT", "FGTS", "TJSP"}, s.Types)
	assert.Equal(t, domain.OutcomePositive, s.Outcome("11", "CNDT"))
	assert.Equal(t, domain.OutcomePositiveNegative, s.Outcome("11", "FGTS"))
	assert.Equal(t, domain.OutcomeUnknown, s.Outcome("11", "TJSP"))
	assert.Equal(t, [][]int{
		{MaskPositive, MaskPositiveNegative, MaskBlank},
		{MaskBlank, MaskNegative, MaskPositive},
	}, s.Mask())
}

func TestBuildMap(t *testing.T) {
	m := BuildMap(records(), nil, true)

	labels := make([]string, len(m.Columns))
	for i, c := range m.Columns {
		labels[i] = c.Label
	}
	assert.Equal(t, []string{"CNDTN ", "CNDTP ", "FGTSN ", "FGTSPN", "TJSPP ", "Tot N", "Tot P", "Tot PN"}, labels)
	assert.Equal(t, []string{"11", "22"}, m.Entities)
	assert.Equal(t, [][]int{
		{1, 1, 0, 1, 0, 1, 1, 1},
		{0, 0, 1, 0, 1, 1, 1, 0},
	}, m.Counts)
	assert.Equal(t, [][]int{
		{MaskNegative, MaskPositive, MaskBlank, MaskPositiveNegative, MaskBlank, 40, 50, 60},
		{MaskBlank, MaskBlank, MaskNegative, MaskBlank, MaskPositive, 40, 50, 60},
	}, m.Mask())
}

func TestBuildMap_FilterWithoutTotals(t *testing.T) {
	outcomes, err := ParseOutcomeFilter("p")
	require.NoError(t, err)

	m := BuildMap(records(), outcomes, false)
	require.Len(t, m.Columns, 2)
	assert.Equal(t, "CNDTP ", m.Columns[0].Label)
	assert.Equal(t, [][]int{{1, 0}, {0, 1}}, m.Counts)
}

func TestParseOutcomeFilter(t *testing.T) {
	all, err := ParseOutcomeFilter("ALL")
	require.NoError(t, err)
	assert.Equal(t, DefaultOutcomes, all)

	some, err := ParseOutcomeFilter("PN, n,PN")
	require.NoError(t, err)
	assert.Equal(t, []domain.Outcome{domain.OutcomePositiveNegative, domain.OutcomeNegative}, some)

	_, err = ParseOutcomeFilter("X")
	var ve ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "outcomes", ve.Field)
}

func TestTierIndex(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"A", 1, false},
		{"c", 3, false},
		{"Z", 26, false},
		{"", 0, true},
		{"AB", 0, true},
		{"1", 0, true},
		{"É", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := TierIndex(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWeightTable(t *testing.T) {
	w := NewWeightTable()
	w.Set("CNDT", []float64{1, 2, 3, 4, 5, 6})
	w.Set("TJSP ", []float64{0.1, 0.2})

	assert.Equal(t, []string{"CNDT", "TJSP"}, w.Types())
	assert.Equal(t, 5, Column(2, true))
	assert.Equal(t, map[string]float64{"CNDT": 5}, w.Exceptions(Column(2, true)))
	assert.Equal(t, map[string]float64{"CNDT": 2, "TJSP": 0.2}, w.Exceptions(Column(2, false)))
	assert.Empty(t, w.Exceptions(0))
}

func TestScoreSuppliers(t *testing.T) {
	sheet := BuildSheet([]domain.Record{
		{TaxID: "11", Classification: "CNDT", Outcome: domain.OutcomePositive},
		{TaxID: "11", Classification: "TJSP", Outcome: domain.OutcomePositive},
		{TaxID: "11", Classification: "FGTS", Outcome: domain.OutcomePositiveNegative},
		{TaxID: "22", Classification: "CNDT", Outcome: domain.OutcomePositive},
		{TaxID: "33", Classification: "FGTS", Outcome: domain.OutcomeNegative},
		{TaxID: "44", Classification: "TJSP", Outcome: domain.OutcomePositive},
	})
	weights := NewWeightTable()
	weights.Set("TJSP", []float64{3, 2, 1, 0.5, 0.25, 0})
	suppliers := []domain.Supplier{
		{TaxID: "11", Tier: "A", Local: false},
		{TaxID: "22", Tier: "B", Local: true},
		{TaxID: "33", Tier: "C"},
	}

	card, err := ScoreSuppliers(sheet, suppliers, weights)
	require.NoError(t, err)

	got := map[string]SupplierScore{}
	for _, s := range card.Scores {
		got[s.TaxID] = s
	}
	assert.Equal(t, 4.5, got["11"].Score)
	assert.Equal(t, 1.0, got["22"].Score)
	assert.Equal(t, 0.0, got["33"].Score)
	assert.Equal(t, 1.0, got["44"].Score)
	assert.True(t, got["44"].Unclassified)
	assert.False(t, got["11"].Unclassified)

	assert.Equal(t, 4.5, card.Max)
	assert.Equal(t, "11", card.Scores[0].TaxID)
	assert.Equal(t, RiskHigh, got["11"].Band)
	assert.Equal(t, RiskLow, got["22"].Band)
	assert.Equal(t, RiskLow, got["33"].Band)
}

func TestScoreSuppliers_InvalidTier(t *testing.T) {
	sheet := BuildSheet([]domain.Record{{TaxID: "11", Classification: "CNDT", Outcome: domain.OutcomePositive}})
	_, err := ScoreSuppliers(sheet, []domain.Supplier{{TaxID: "11", Tier: "?"}}, NewWeightTable())
	assert.Error(t, err)
}

func TestBand(t *testing.T) {
	assert.Equal(t, RiskHigh, Band(8, 10))
	assert.Equal(t, RiskMedium, Band(7, 10))
	assert.Equal(t, RiskMedium, Band(3.5, 10))
	assert.Equal(t, RiskLow, Band(3, 10))
	assert.Equal(t, RiskLow, Band(0, 0))
}
