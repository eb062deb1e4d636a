package report

import "certaudit/pkg/contracts/domain"

// Mask codes color the cells of the map and sheet reports.
//
//	Code   Cell              Color
//	0      no result         white
//	10     Positive          red
//	20     Pos./Neg.         yellow
//	30     Negative          green
//	40+    total columns     shades of grey
const (
	MaskBlank            = 0
	MaskPositive         = 10
	MaskPositiveNegative = 20
	MaskNegative         = 30
	MaskTotal            = 40
)

// MaskFor returns the color code of an outcome.
func MaskFor(o domain.Outcome) int {
	switch o {
	case domain.OutcomePositive:
		return MaskPositive
	case domain.OutcomePositiveNegative:
		return MaskPositiveNegative
	case domain.OutcomeNegative:
		return MaskNegative
	}
	return MaskBlank
}
