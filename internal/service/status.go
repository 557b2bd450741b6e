package service

import "github.com/bitfantasy/parts-portal/internal/model/entity"

// weightDeviationTolerance fraction by which the children's summed weight may
// differ from the parent's declared total before review is required
const weightDeviationTolerance = 0.01

// ChildComplete reports whether a child carries every required compliance
// field: identifier, name and country non-empty, weight and value positive.
func ChildComplete(child *entity.ChildPart) bool {
	return child.Identifier != "" &&
		child.Name != "" &&
		child.CountryOfOrigin != "" &&
		child.WeightKg > 0 &&
		child.ValueUSD > 0
}

// KgToLbs converts a kilogram weight to pounds.
func KgToLbs(kg float64) float64 {
	return kg * entity.LbsPerKg
}

// CalculatePartStatus derives a parent's status from its current children.
// Weight deviation outranks completeness: a parent whose children all carry
// full compliance data still needs review when their summed weight strays
// more than 1% from the declared total.
func CalculatePartStatus(parent *entity.ParentPart, children []entity.ChildPart) string {
	if len(children) == 0 {
		return entity.PartStatusIncomplete
	}

	if parent.TotalWeightKg > 0 {
		var sum float64
		for i := range children {
			sum += children[i].WeightKg
		}
		deviation := (sum - parent.TotalWeightKg) / parent.TotalWeightKg
		if deviation < 0 {
			deviation = -deviation
		}
		if deviation > weightDeviationTolerance {
			return entity.PartStatusNeedsReview
		}
	}

	for i := range children {
		if !children[i].IsComplete {
			return entity.PartStatusIncomplete
		}
	}
	return entity.PartStatusCompleted
}
