package scoring

import (
	"math"

	"vendorflow/internal/domain"
)

// Scorer derives the 0-100 vendor quality score. It is the only writer of
// that field anywhere in the system; the rules live here so they stay
// centralized and testable.
type Scorer struct {
	// premiumCities earn a small locality bonus on the initial score.
	premiumCities map[string]bool
}

// DefaultPremiumCities is the locality whitelist for the initial score bonus.
var DefaultPremiumCities = []string{"tashkent", "samarkand", "bukhara"}

func NewScorer() *Scorer {
	cities := make(map[string]bool, len(DefaultPremiumCities))
	for _, c := range DefaultPremiumCities {
		cities[c] = true
	}
	return &Scorer{premiumCities: cities}
}

// Initial seeds the quality score at approval time from static profile
// attributes. Operational metrics take over on later recomputations.
func (s *Scorer) Initial(v domain.Vendor) int {
	score := 70
	if v.DocumentsComplete {
		score += 10
	}
	switch v.BusinessForm {
	case domain.BusinessFormJointStock:
		score += 8
	case domain.BusinessFormLLC:
		score += 5
	}
	if s.premiumCities[v.City] {
		score += 3
	}
	if v.Website != "" {
		score += 2
	}
	if len(v.SocialProfiles) > 0 {
		score += 2
	}
	return clamp(score)
}

// Recompute maps an operational metrics snapshot to a score. Weights:
// satisfaction up to 40, fulfillment up to 25, returns up to 15, response
// time up to 10, order volume up to 10.
func (s *Scorer) Recompute(m domain.PerformanceMetrics) int {
	satisfaction := m.SatisfactionRating / 5 * 40
	fulfillment := m.FulfillmentRate * 0.25
	returns := math.Max(0, 100-m.ReturnRate) * 0.15
	response := math.Max(0, 100-2*m.ResponseTimeHours) * 0.10
	volume := math.Min(10, 2*math.Log10(float64(m.TotalOrders)+1))

	total := satisfaction + fulfillment + returns + response + volume
	return clamp(int(math.Round(total)))
}

// Grade maps a score to a letter grade. Total over [0,100].
func Grade(score int) string {
	switch {
	case score >= 95:
		return "A+"
	case score >= 90:
		return "A"
	case score >= 85:
		return "B+"
	case score >= 80:
		return "B"
	case score >= 75:
		return "C+"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}

// ImprovementArea flags an operational weak spot. Advisory only; nothing in
// the workflow blocks on these.
type ImprovementArea struct {
	Area           string `json:"area"`
	Recommendation string `json:"recommendation"`
}

// ImprovementAreas analyzes a metrics snapshot for weak spots.
func ImprovementAreas(m domain.PerformanceMetrics) []ImprovementArea {
	var areas []ImprovementArea
	if m.SatisfactionRating < 4.0 {
		areas = append(areas, ImprovementArea{
			Area:           "Customer Satisfaction",
			Recommendation: "Follow up on negative reviews and resolve open complaints",
		})
	}
	if m.FulfillmentRate < 95 {
		areas = append(areas, ImprovementArea{
			Area:           "Order Fulfillment",
			Recommendation: "Keep inventory counts current to avoid canceled orders",
		})
	}
	if m.ReturnRate > 5 {
		areas = append(areas, ImprovementArea{
			Area:           "Product Quality",
			Recommendation: "Audit product descriptions and quality control before shipping",
		})
	}
	if m.ResponseTimeHours > 12 {
		areas = append(areas, ImprovementArea{
			Area:           "Response Time",
			Recommendation: "Answer customer inquiries within one business day",
		})
	}
	return areas
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
