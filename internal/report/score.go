package report

import (
	"sort"

	"certaudit/pkg/contracts/domain"
)

// RiskBand classifies a supplier score relative to the highest score.
type RiskBand string

const (
	RiskLow    RiskBand = "low"
	RiskMedium RiskBand = "medium"
	RiskHigh   RiskBand = "high"
)

const (
	highRiskRatio = 0.7
	lowRiskRatio  = 0.3

	positiveWeight         = 1.0
	positiveNegativeWeight = 0.5
)

// SupplierScore is the score of one entity.
type SupplierScore struct {
	TaxID string   `json:"tax_id"`
	Score float64  `json:"score"`
	Band  RiskBand `json:"band"`
	Tier  string   `json:"tier,omitempty"`
	Local bool     `json:"local"`
	// Unclassified entities have no supplier entry and score with the
	// default weights.
	Unclassified bool `json:"unclassified,omitempty"`
}

// Scorecard is the result of ScoreSuppliers, highest score first.
type Scorecard struct {
	Scores []SupplierScore `json:"scores"`
	Max    float64         `json:"max"`
}

// ScoreSuppliers sums, per entity of the sheet, 1.0 per positive certidão
// (or the exception weight of its document type) and 0.5 per
// positive/negative one, then assigns each entity a risk band.
func ScoreSuppliers(sheet *Sheet, suppliers []domain.Supplier, weights *WeightTable) (*Scorecard, error) {
	bySupplier := make(map[string]domain.Supplier, len(suppliers))
	for _, s := range suppliers {
		bySupplier[s.TaxID] = s
	}

	card := &Scorecard{}
	for _, e := range sheet.Entities {
		sc := SupplierScore{TaxID: e}
		var exceptions map[string]float64

		if sup, ok := bySupplier[e]; ok {
			tier, err := TierIndex(sup.Tier)
			if err != nil {
				return nil, err
			}
			sc.Tier = sup.Tier
			sc.Local = sup.Local
			exceptions = weights.Exceptions(Column(tier, sup.Local))
		} else {
			sc.Unclassified = true
		}

		sc.Score = EntityScore(sheet, e, exceptions)
		if sc.Score > card.Max {
			card.Max = sc.Score
		}
		card.Scores = append(card.Scores, sc)
	}

	for i := range card.Scores {
		card.Scores[i].Band = Band(card.Scores[i].Score, card.Max)
	}
	sort.SliceStable(card.Scores, func(i, j int) bool {
		return card.Scores[i].Score > card.Scores[j].Score
	})
	return card, nil
}

// EntityScore scores one row of the sheet.
func EntityScore(sheet *Sheet, entity string, exceptions map[string]float64) float64 {
	total := 0.0
	for _, t := range sheet.Types {
		switch sheet.Outcome(entity, t) {
		case domain.OutcomePositive:
			if w, ok := exceptions[t]; ok {
				total += w
			} else {
				total += positiveWeight
			}
		case domain.OutcomePositiveNegative:
			total += positiveNegativeWeight
		}
	}
	return total
}

// Band places score against the highest score of the run.
func Band(score, max float64) RiskBand {
	switch {
	case score > max*highRiskRatio:
		return RiskHigh
	case score <= max*lowRiskRatio:
		return RiskLow
	}
	return RiskMedium
}
