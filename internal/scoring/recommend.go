package scoring

import (
	"fmt"
	"sort"

	"github.com/nyashahama/flareguard-backend/internal/model"
)

type recTemplate struct {
	category  model.RecommendationCategory
	text      string
	rationale string
}

// recTemplates is keyed by factor key. "trigger" and "recent_severe" use the
// factor detail as a format argument.
var recTemplates = map[string]recTemplate{
	string(condHumidityHigh): {model.RecPreventive,
		"Wear loose, breathable cotton and shower promptly after sweating.",
		"Humid air traps sweat against the skin, which irritates eczema-prone areas."},
	string(condHumidityLow): {model.RecPreventive,
		"Moisturise twice today and run a humidifier indoors.",
		"Dry air pulls water out of the skin barrier."},
	string(condHeat): {model.RecImmediate,
		"Stay in cool, shaded spaces and avoid strenuous activity at midday.",
		"Heat and sweat are common flare triggers."},
	string(condCold): {model.RecPreventive,
		"Layer soft fabrics over a thick emollient before going outside.",
		"Cold, windy air dries and cracks the skin."},
	string(condUV): {model.RecPreventive,
		"Apply a mineral sunscreen and cover exposed skin outdoors.",
		"High UV can inflame sensitised skin."},
	string(condAirQuality): {model.RecLifestyle,
		"Limit time outdoors and rinse your face and hands when you come in.",
		"Airborne pollutants deposit on the skin and increase inflammation."},
	string(condPollen): {model.RecLifestyle,
		"Keep windows closed and change clothes after time outside.",
		"Pollen contact can trigger itch in allergic skin."},
	"trigger": {model.RecImmediate,
		"Take extra care today to avoid %s.",
		"This is one of your declared triggers and it is active today."},
	"sensitive_skin": {model.RecPreventive,
		"Use only fragrance-free products today.",
		"Sensitive skin amplifies environmental stressors."},
	"recent_severe": {model.RecMedical,
		"Continue the treatment plan from your flare on %s and contact your clinician if symptoms return.",
		"Skin that flared severely recently is slower to recover."},
	"elevated_symptoms": {model.RecMedical,
		"Apply your prescribed treatment consistently and consider a check-in with your clinician.",
		"Your recent check-ins show sustained itch and redness."},
	"rising_symptoms": {model.RecMedical,
		"Your symptoms are trending up; book a review if this continues for a few more days.",
		"Recent check-ins are worse than earlier ones."},
	"medication": {model.RecMedical,
		"Discuss your medication frequency with your clinician.",
		"Needing medication most days suggests the current plan is not keeping symptoms controlled."},
}

// priorityForImpact maps a factor impact to a recommendation priority.
func priorityForImpact(impact int) model.Priority {
	switch {
	case impact >= 75:
		return model.PriorityCritical
	case impact >= 50:
		return model.PriorityHigh
	case impact >= 25:
		return model.PriorityMedium
	default:
		return model.PriorityLow
	}
}

// recommendationsFor builds one recommendation per factor, ordered by
// priority with ties kept in factor order. With no factors it returns a
// single low-priority maintenance tip.
func recommendationsFor(factors []factor) []model.Recommendation {
	if len(factors) == 0 {
		return []model.Recommendation{{
			Priority:  model.PriorityLow,
			Category:  model.RecPreventive,
			Text:      "Keep up your daily moisturising routine.",
			Rationale: "Conditions are calm; routine care keeps the skin barrier healthy.",
		}}
	}

	recs := make([]model.Recommendation, 0, len(factors))
	for _, f := range factors {
		tpl, ok := recTemplates[f.key]
		if !ok {
			continue
		}
		text := tpl.text
		if f.detail != "" && (f.key == "trigger" || f.key == "recent_severe") {
			text = fmt.Sprintf(tpl.text, f.detail)
		}
		recs = append(recs, model.Recommendation{
			Priority:  priorityForImpact(f.kf.Impact),
			Category:  tpl.category,
			Text:      text,
			Rationale: tpl.rationale,
		})
	}

	sort.SliceStable(recs, func(a, b int) bool {
		return recs[a].Priority.Rank() < recs[b].Priority.Rank()
	})
	return recs
}
