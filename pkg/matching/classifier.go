package matching

import (
	"fmt"
	"math"

	"github.com/Ramsey-B/clover/pkg/models"
)

// Category binds a comparator to its weight and activation threshold
type Category struct {
	Comparator FieldComparator
	Label      string
	Weight     float64
	Threshold  float64
}

// Evaluation is the classification of one (new, candidate) pair
type Evaluation struct {
	Results    []models.CategoryResult
	Confidence float64
	Reasons    []string
}

// Triggered reports whether at least one category took part in the confidence
func (e Evaluation) Triggered() bool {
	return len(e.Reasons) > 0
}

// Classifier turns category scores into a duplicate decision
type Classifier struct {
	categories         []Category
	duplicateThreshold float64
}

// NewClassifier creates a classifier evaluating Identity, Contact,
// Professional and Documents, in that order
func NewClassifier(cfg Config) *Classifier {
	return &Classifier{
		categories: []Category{
			{Comparator: IdentityComparator{}, Label: "Identity", Weight: cfg.Weights.Identity, Threshold: cfg.Thresholds.Identity},
			{Comparator: ContactComparator{}, Label: "Contact", Weight: cfg.Weights.Contact, Threshold: cfg.Thresholds.Contact},
			{Comparator: ProfessionalComparator{}, Label: "Professional", Weight: cfg.Weights.Professional, Threshold: cfg.Thresholds.Professional},
			{Comparator: DocumentsComparator{}, Label: "Documents", Weight: cfg.Weights.Documents, Threshold: cfg.Thresholds.Documents},
		},
		duplicateThreshold: cfg.DuplicateThreshold,
	}
}

// Categories returns the evaluated categories in evaluation order
func (c *Classifier) Categories() []Category {
	return c.categories
}

// Evaluate scores a new agent against one candidate. Only categories whose
// score strictly exceeds their threshold count toward the confidence.
func (c *Classifier) Evaluate(newAgent, candidate *models.Agent) Evaluation {
	eval := Evaluation{
		Results: make([]models.CategoryResult, 0, len(c.categories)),
	}

	weightedSum := 0.0
	totalWeight := 0.0
	for _, category := range c.categories {
		score := category.Comparator.Compare(newAgent, candidate)
		triggered := score > category.Threshold

		eval.Results = append(eval.Results, models.CategoryResult{
			Category:  category.Comparator.Name(),
			Score:     score,
			Triggered: triggered,
		})

		if !triggered {
			continue
		}

		weightedSum += score * category.Weight
		totalWeight += category.Weight
		eval.Reasons = append(eval.Reasons, reason(category.Label, score))
	}

	if totalWeight > 0 {
		eval.Confidence = weightedSum / totalWeight
	}

	return eval
}

// BestMatch evaluates a new agent against every candidate and keeps the one with
// the strictly highest confidence. Ties keep the earliest candidate. The outcome
// carries no matched id when no category triggered for any candidate.
func (c *Classifier) BestMatch(newAgent *models.Agent, candidates []*models.Agent) models.MatchOutcome {
	outcome := models.MatchOutcome{
		TriggeredReasons: []string{},
	}

	var best *models.Agent
	for _, candidate := range candidates {
		eval := c.Evaluate(newAgent, candidate)
		if !eval.Triggered() {
			continue
		}
		if best != nil && eval.Confidence <= outcome.Confidence {
			continue
		}

		best = candidate
		outcome.Confidence = eval.Confidence
		outcome.TriggeredReasons = eval.Reasons
	}

	if best != nil {
		id := best.ID
		outcome.MatchedRecordID = &id
		outcome.IsDuplicate = outcome.Confidence >= c.duplicateThreshold
	}

	return outcome
}

func reason(label string, score float64) string {
	return fmt.Sprintf("%s similar (%d%%)", label, int(math.Round(score*100)))
}
