package providers

import (
	"strings"

	"github.com/hollis-source/unified-intelligence-cli/entities"
)

// Criterion is a provider-selection strategy.
type Criterion string

const (
	CriterionSpeed    Criterion = "speed"
	CriterionQuality  Criterion = "quality"
	CriterionCost     Criterion = "cost"
	CriterionPrivacy  Criterion = "privacy"
	CriterionBalanced Criterion = "balanced"
)

// BalancedWeights are the default weights for the BALANCED criterion
// (speed, quality, cost, privacy), which must sum to 1.0.
type BalancedWeights struct {
	Speed   float64
	Quality float64
	Cost    float64
	Privacy float64
}

// DefaultBalancedWeights matches the spec's default 0.4/0.3/0.3/0.0 split.
var DefaultBalancedWeights = BalancedWeights{Speed: 0.4, Quality: 0.3, Cost: 0.3, Privacy: 0.0}

// criterionKeywords maps task-description keywords to the criterion
// they override the configured default with.
var criterionKeywords = map[string]Criterion{
	"offline": CriterionPrivacy, "local": CriterionPrivacy, "private": CriterionPrivacy,
	"fast": CriterionSpeed, "quick": CriterionSpeed, "urgent": CriterionSpeed,
	"accurate": CriterionQuality, "critical": CriterionQuality,
	"cheap": CriterionCost, "budget": CriterionCost,
}

// ResolveCriterion returns the criterion a task description implies,
// falling back to def when no keyword matches.
func ResolveCriterion(taskDescription string, def Criterion) Criterion {
	lower := strings.ToLower(taskDescription)
	for word, c := range criterionKeywords {
		if strings.Contains(lower, word) {
			return c
		}
	}
	return def
}

// ScoreModel scores capabilities against a single criterion, per the
// spec's formulas. BALANCED uses weights (DefaultBalancedWeights if
// the zero value is passed).
func ScoreModel(caps entities.ModelCapabilities, criterion Criterion, weights BalancedWeights) float64 {
	switch criterion {
	case CriterionSpeed:
		return scoreSpeed(caps)
	case CriterionQuality:
		return scoreQuality(caps)
	case CriterionCost:
		return scoreCost(caps)
	case CriterionPrivacy:
		return scorePrivacy(caps)
	case CriterionBalanced:
		if weights == (BalancedWeights{}) {
			weights = DefaultBalancedWeights
		}
		return weights.Speed*scoreSpeed(caps) +
			weights.Quality*scoreQuality(caps) +
			weights.Cost*scoreCost(caps) +
			weights.Privacy*scorePrivacy(caps)
	default:
		return scoreQuality(caps)
	}
}

func scoreSpeed(c entities.ModelCapabilities) float64 {
	latency := c.AvgLatencyS
	if latency < 1 {
		latency = 1
	}
	score := 1000.0 / latency
	if score > 100 {
		score = 100
	}
	return score
}

func scoreQuality(c entities.ModelCapabilities) float64 { return c.SuccessRate * 100 }

func scoreCost(c entities.ModelCapabilities) float64 {
	score := 100 - 2*c.CostPerMonthUSD
	if score < 0 {
		score = 0
	}
	return score
}

func scorePrivacy(c entities.ModelCapabilities) float64 {
	if !c.RequiresInternet {
		return 100
	}
	return 0
}
