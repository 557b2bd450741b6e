package service

import (
	"math"
	"testing"

	"github.com/bitfantasy/parts-portal/internal/model/entity"
)

func completeChild(weightKg, valueUSD float64) entity.ChildPart {
	c := entity.ChildPart{
		Identifier:      "COMP-001",
		Name:            "Bracket",
		CountryOfOrigin: "USA",
		WeightKg:        weightKg,
		ValueUSD:        valueUSD,
	}
	c.IsComplete = ChildComplete(&c)
	return c
}

func TestCalculatePartStatusNoChildren(t *testing.T) {
	parent := &entity.ParentPart{TotalWeightKg: 10}
	if got := CalculatePartStatus(parent, nil); got != entity.PartStatusIncomplete {
		t.Fatalf("expected incomplete, got %s", got)
	}
}

func TestCalculatePartStatusAllComplete(t *testing.T) {
	parent := &entity.ParentPart{TotalWeightKg: 10}
	children := []entity.ChildPart{completeChild(6, 50), completeChild(4, 30)}
	if got := CalculatePartStatus(parent, children); got != entity.PartStatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
}

func TestCalculatePartStatusIncompleteChild(t *testing.T) {
	parent := &entity.ParentPart{TotalWeightKg: 10}
	incomplete := completeChild(5, 50)
	incomplete.CountryOfOrigin = ""
	incomplete.IsComplete = ChildComplete(&incomplete)
	children := []entity.ChildPart{completeChild(5, 50), incomplete}
	if got := CalculatePartStatus(parent, children); got != entity.PartStatusIncomplete {
		t.Fatalf("expected incomplete, got %s", got)
	}
}

// Weight deviation takes priority: one fully documented 50kg child against a
// declared 100kg total must flag review, not completion.
func TestCalculatePartStatusDeviationPriority(t *testing.T) {
	parent := &entity.ParentPart{TotalWeightKg: 100}
	children := []entity.ChildPart{completeChild(50, 120)}
	if got := CalculatePartStatus(parent, children); got != entity.PartStatusNeedsReview {
		t.Fatalf("expected needs_review, got %s", got)
	}
}

func TestCalculatePartStatusDeviationBoundary(t *testing.T) {
	// exactly 1% off stays inside the tolerance
	parent := &entity.ParentPart{TotalWeightKg: 100}
	children := []entity.ChildPart{completeChild(99, 10)}
	if got := CalculatePartStatus(parent, children); got != entity.PartStatusCompleted {
		t.Fatalf("expected completed at 1%% deviation, got %s", got)
	}

	children = []entity.ChildPart{completeChild(98.9, 10)}
	if got := CalculatePartStatus(parent, children); got != entity.PartStatusNeedsReview {
		t.Fatalf("expected needs_review past 1%% deviation, got %s", got)
	}
}

func TestCalculatePartStatusZeroDeclaredWeight(t *testing.T) {
	// no declared total means no deviation check
	parent := &entity.ParentPart{TotalWeightKg: 0}
	children := []entity.ChildPart{completeChild(50, 120)}
	if got := CalculatePartStatus(parent, children); got != entity.PartStatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}
}

// A 10kg parent with a matching complete child is completed; appending a
// zero-weight child pulls it back to incomplete.
func TestCalculatePartStatusZeroWeightChildRegression(t *testing.T) {
	parent := &entity.ParentPart{TotalWeightKg: 10}
	children := []entity.ChildPart{completeChild(10, 50)}
	if got := CalculatePartStatus(parent, children); got != entity.PartStatusCompleted {
		t.Fatalf("expected completed, got %s", got)
	}

	zero := completeChild(0, 50)
	zero.IsComplete = ChildComplete(&zero)
	children = append(children, zero)
	if got := CalculatePartStatus(parent, children); got != entity.PartStatusIncomplete {
		t.Fatalf("expected incomplete after zero-weight child, got %s", got)
	}
}

func TestChildCompleteBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*entity.ChildPart)
		want   bool
	}{
		{"all fields set", func(c *entity.ChildPart) {}, true},
		{"empty identifier", func(c *entity.ChildPart) { c.Identifier = "" }, false},
		{"empty name", func(c *entity.ChildPart) { c.Name = "" }, false},
		{"empty country", func(c *entity.ChildPart) { c.CountryOfOrigin = "" }, false},
		{"zero weight", func(c *entity.ChildPart) { c.WeightKg = 0 }, false},
		{"zero value", func(c *entity.ChildPart) { c.ValueUSD = 0 }, false},
		{"negative weight", func(c *entity.ChildPart) { c.WeightKg = -1 }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := completeChild(5, 50)
			tt.mutate(&c)
			if got := ChildComplete(&c); got != tt.want {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestKgToLbs(t *testing.T) {
	if got := KgToLbs(1); math.Abs(got-2.20462) > 1e-9 {
		t.Fatalf("expected 2.20462, got %v", got)
	}
	if got := KgToLbs(0); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
}
