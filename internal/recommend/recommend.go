// Package recommend scores templates against a user's preference profile.
// Scoring is a pure function over six independently-capped components; the
// total is always their exact sum and never exceeds 100.
package recommend

import (
	"sort"
	"strings"
	"time"

	"github.com/faceforge/faceforge-api/internal/models"
)

// Component caps.
const (
	capExactMatch   = 25.0
	capPartialMatch = 10.0
	capPopularity   = 15.0
	capQuality      = 15.0
	capBehavioral   = 20.0
	capNovelty      = 15.0
)

// Breakdown holds the per-component contributions to a score.
type Breakdown struct {
	ExactMatch   float64 `json:"exact_match"`
	PartialMatch float64 `json:"partial_match"`
	Popularity   float64 `json:"popularity"`
	Quality      float64 `json:"quality"`
	Behavioral   float64 `json:"behavioral"`
	Novelty      float64 `json:"novelty"`
}

// Score is the result of scoring one (template, profile) pair.
type Score struct {
	Total     float64   `json:"total"`
	Breakdown Breakdown `json:"breakdown"`
}

// ScoreTemplate computes the relevance of a template for a profile at the
// given instant. A nil profile (anonymous or no-history user) scores only
// popularity and quality.
func ScoreTemplate(t *models.Template, p *models.UserProfile, now time.Time) Score {
	b := Breakdown{
		Popularity: popularityScore(t),
		Quality:    qualityScore(t),
	}
	if p != nil {
		b.ExactMatch = exactMatchScore(t, p)
		b.PartialMatch = partialMatchScore(t, p)
		b.Behavioral = behavioralScore(t, p)
		b.Novelty = noveltyScore(t, p, now)
	}

	return Score{
		Total:     b.ExactMatch + b.PartialMatch + b.Popularity + b.Quality + b.Behavioral + b.Novelty,
		Breakdown: b,
	}
}

// exactMatchScore rewards direct tag overlap between preferences and
// template metadata. The three checks are independent and additive.
func exactMatchScore(t *models.Template, p *models.UserProfile) float64 {
	var frac float64
	if anyOverlap(p.Occasions, t.Metadata.Occasions) {
		frac += 0.4
	}
	if anyOverlap(p.Moods, t.Metadata.Moods) {
		frac += 0.3
	}
	if anyOverlap(p.Styles, t.Metadata.Styles) {
		frac += 0.3
	}
	return frac * capExactMatch
}

// partialMatchScore rewards weaker affinity signals.
func partialMatchScore(t *models.Template, p *models.UserProfile) float64 {
	var frac float64
	if anyOverlap(p.BodyTypes, t.Metadata.BodyTypes) {
		frac += 0.5
	}
	// Mood/palette affinity: the two pairings are mutually exclusive.
	if contains(p.Moods, "energetic") && contains(t.Metadata.ColorPalette, "vibrant") {
		frac += 0.3
	} else if contains(p.Moods, "relaxed") && contains(t.Metadata.ColorPalette, "pastel") {
		frac += 0.3
	}
	if contains(p.Occasions, "casual") && contains(t.Metadata.Settings, "outdoor") {
		frac += 0.2
	}
	return frac * capPartialMatch
}

// popularityScore grows linearly with the usage counter, saturating at 1000.
func popularityScore(t *models.Template) float64 {
	return min(float64(t.UsageCount)/1000, 1) * capPopularity
}

// qualityScore scales the curated 0-100 quality rating; unknown ratings
// count as a neutral 50.
func qualityScore(t *models.Template) float64 {
	q := 50.0
	if t.Metadata.QualityScore != nil {
		q = float64(*t.Metadata.QualityScore)
	}
	return q / 100 * capQuality
}

// behavioralScore rewards engaged users and favourited templates. Each half
// contributes at most 50% of the cap, so the full 20 requires both.
func behavioralScore(t *models.Template, p *models.UserProfile) float64 {
	var frac float64
	if len(p.UsedTemplates) > 0 {
		frac += 0.5 * min(float64(len(p.UsedTemplates))/10, 1)
	}
	if p.IsFavorite(t.ID) {
		frac += 0.5
	}
	return frac * capBehavioral
}

// noveltyScore is full for never-used templates and recovers linearly over
// 30 days after a use.
func noveltyScore(t *models.Template, p *models.UserProfile, now time.Time) float64 {
	last := p.LastUsed(t.ID)
	if last.IsZero() {
		return capNovelty
	}
	days := now.Sub(last).Hours() / 24
	if days < 0 {
		days = 0
	}
	return min(days/30, 1) * capNovelty
}

// RankOptions filters and truncates a ranking.
type RankOptions struct {
	ActiveOnly     bool
	ExcludePremium bool
	MinScore       float64
	Limit          int // 0 = no limit
}

// Ranked pairs a template with its computed score.
type Ranked struct {
	Template *models.Template `json:"template"`
	Score    Score            `json:"score"`
}

// RankTemplates scores and sorts templates for a profile, descending by
// total score. Ties keep their input order.
func RankTemplates(templates []*models.Template, p *models.UserProfile, now time.Time, opts RankOptions) []Ranked {
	ranked := make([]Ranked, 0, len(templates))
	for _, t := range templates {
		if opts.ActiveOnly && !t.IsActive {
			continue
		}
		if opts.ExcludePremium && t.IsPremium {
			continue
		}
		s := ScoreTemplate(t, p, now)
		if s.Total < opts.MinScore {
			continue
		}
		ranked = append(ranked, Ranked{Template: t, Score: s})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score.Total > ranked[j].Score.Total
	})

	if opts.Limit > 0 && len(ranked) > opts.Limit {
		ranked = ranked[:opts.Limit]
	}
	return ranked
}

// TrendingTemplates returns active templates by usage count, descending.
// timeWindowDays is accepted for interface compatibility but not applied;
// usage counters carry no timestamps to decay against.
// TODO: apply the window once per-use timestamps are recorded on templates.
func TrendingTemplates(templates []*models.Template, timeWindowDays int, limit int) []*models.Template {
	_ = timeWindowDays

	trending := make([]*models.Template, 0, len(templates))
	for _, t := range templates {
		if t.IsActive {
			trending = append(trending, t)
		}
	}
	sort.SliceStable(trending, func(i, j int) bool {
		return trending[i].UsageCount > trending[j].UsageCount
	})

	if limit > 0 && len(trending) > limit {
		trending = trending[:limit]
	}
	return trending
}

// TemplatesByOccasion filters active templates tagged with the occasion.
func TemplatesByOccasion(templates []*models.Template, occasion string) []*models.Template {
	var out []*models.Template
	for _, t := range templates {
		if t.IsActive && contains(t.Metadata.Occasions, occasion) {
			out = append(out, t)
		}
	}
	return out
}

// SearchTemplates matches a case-insensitive substring against title,
// description and category tags.
func SearchTemplates(templates []*models.Template, query string) []*models.Template {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []*models.Template
	for _, t := range templates {
		if strings.Contains(strings.ToLower(t.Title), q) ||
			strings.Contains(strings.ToLower(t.Description), q) ||
			containsSubstring(t.Categories, q) {
			out = append(out, t)
		}
	}
	return out
}

func anyOverlap(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}

func contains(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

func containsSubstring(list []string, lowered string) bool {
	for _, s := range list {
		if strings.Contains(strings.ToLower(s), lowered) {
			return true
		}
	}
	return false
}
