package recommend

import (
	"math"
	"testing"
	"time"

	"github.com/faceforge/faceforge-api/internal/models"
)

var scoringNow = time.Date(2025, 8, 15, 12, 0, 0, 0, time.UTC)

func intPtr(v int) *int { return &v }

func fullMatchTemplate() *models.Template {
	return &models.Template{
		ID:         "tpl-1",
		Title:      "Garden Wedding",
		IsActive:   true,
		UsageCount: 1000,
		Metadata: models.TemplateMetadata{
			BodyTypes:    []string{"athletic"},
			Occasions:    []string{"wedding", "casual"},
			Moods:        []string{"energetic"},
			Styles:       []string{"elegant"},
			Settings:     []string{"outdoor"},
			ColorPalette: []string{"vibrant"},
			QualityScore: intPtr(100),
		},
	}
}

func fullMatchProfile() *models.UserProfile {
	uses := make([]models.TemplateUse, 10)
	for i := range uses {
		uses[i] = models.TemplateUse{TemplateID: "tpl-other", UsedAt: scoringNow.Add(-time.Hour)}
	}
	return &models.UserProfile{
		UserID:            "user-1",
		BodyTypes:         []string{"athletic"},
		Occasions:         []string{"wedding", "casual"},
		Moods:             []string{"energetic"},
		Styles:            []string{"elegant"},
		UsedTemplates:     uses,
		FavoriteTemplates: []string{"tpl-1"},
	}
}

func TestScoreMaximum(t *testing.T) {
	s := ScoreTemplate(fullMatchTemplate(), fullMatchProfile(), scoringNow)

	want := Breakdown{
		ExactMatch:   25,
		PartialMatch: 10,
		Popularity:   15,
		Quality:      15,
		Behavioral:   20,
		Novelty:      15,
	}
	if s.Breakdown != want {
		t.Errorf("breakdown mismatch:\ngot  %+v\nwant %+v", s.Breakdown, want)
	}
	if s.Total != 100 {
		t.Errorf("expected total 100, got %v", s.Total)
	}
}

func TestScoreAnonymous(t *testing.T) {
	tpl := fullMatchTemplate()
	s := ScoreTemplate(tpl, nil, scoringNow)

	if s.Breakdown.ExactMatch != 0 || s.Breakdown.PartialMatch != 0 ||
		s.Breakdown.Behavioral != 0 || s.Breakdown.Novelty != 0 {
		t.Errorf("anonymous scoring must only use popularity and quality: %+v", s.Breakdown)
	}
	if s.Total != s.Breakdown.Popularity+s.Breakdown.Quality {
		t.Errorf("total %v != popularity %v + quality %v",
			s.Total, s.Breakdown.Popularity, s.Breakdown.Quality)
	}
	if s.Total != 30 {
		t.Errorf("expected 30 for max popularity + max quality, got %v", s.Total)
	}
}

func TestScoreTotalEqualsBreakdownSum(t *testing.T) {
	tpl := fullMatchTemplate()
	tpl.UsageCount = 137
	p := fullMatchProfile()
	p.Styles = nil
	p.UsedTemplates = p.UsedTemplates[:3]

	s := ScoreTemplate(tpl, p, scoringNow)
	sum := s.Breakdown.ExactMatch + s.Breakdown.PartialMatch + s.Breakdown.Popularity +
		s.Breakdown.Quality + s.Breakdown.Behavioral + s.Breakdown.Novelty
	if math.Abs(s.Total-sum) > 1e-9 {
		t.Errorf("total %v != breakdown sum %v", s.Total, sum)
	}

	// Pure function: identical inputs, identical output.
	if again := ScoreTemplate(tpl, p, scoringNow); again != s {
		t.Error("scoring is not deterministic")
	}
}

func TestScoreBounds(t *testing.T) {
	profiles := []*models.UserProfile{
		nil,
		{},
		fullMatchProfile(),
		{Moods: []string{"relaxed"}, Occasions: []string{"casual"}},
	}
	templates := []*models.Template{
		{},
		fullMatchTemplate(),
		{UsageCount: 50000, Metadata: models.TemplateMetadata{QualityScore: intPtr(100)}},
		{Metadata: models.TemplateMetadata{ColorPalette: []string{"pastel"}, Settings: []string{"outdoor"}}},
	}

	caps := Breakdown{
		ExactMatch:   capExactMatch,
		PartialMatch: capPartialMatch,
		Popularity:   capPopularity,
		Quality:      capQuality,
		Behavioral:   capBehavioral,
		Novelty:      capNovelty,
	}
	for _, p := range profiles {
		for _, tpl := range templates {
			s := ScoreTemplate(tpl, p, scoringNow)
			checks := []struct {
				name string
				got  float64
				cap  float64
			}{
				{"exactMatch", s.Breakdown.ExactMatch, caps.ExactMatch},
				{"partialMatch", s.Breakdown.PartialMatch, caps.PartialMatch},
				{"popularity", s.Breakdown.Popularity, caps.Popularity},
				{"quality", s.Breakdown.Quality, caps.Quality},
				{"behavioral", s.Breakdown.Behavioral, caps.Behavioral},
				{"novelty", s.Breakdown.Novelty, caps.Novelty},
			}
			for _, c := range checks {
				if c.got < 0 || c.got > c.cap {
					t.Errorf("%s = %v outside [0, %v]", c.name, c.got, c.cap)
				}
			}
			if s.Total < 0 || s.Total > 100 {
				t.Errorf("total %v outside [0, 100]", s.Total)
			}
		}
	}
}

func TestBehavioralHalves(t *testing.T) {
	tpl := fullMatchTemplate()

	// History alone saturates at half the cap.
	p := fullMatchProfile()
	p.FavoriteTemplates = nil
	s := ScoreTemplate(tpl, p, scoringNow)
	if s.Breakdown.Behavioral != 10 {
		t.Errorf("expected 10 for saturated history without favorite, got %v", s.Breakdown.Behavioral)
	}

	// Favorite alone contributes the other half.
	p = &models.UserProfile{FavoriteTemplates: []string{"tpl-1"}}
	s = ScoreTemplate(tpl, p, scoringNow)
	if s.Breakdown.Behavioral != 10 {
		t.Errorf("expected 10 for favorite without history, got %v", s.Breakdown.Behavioral)
	}

	// Partial history scales linearly: 3 of 10 uses -> 30% of the half.
	p = &models.UserProfile{UsedTemplates: []models.TemplateUse{
		{TemplateID: "a", UsedAt: scoringNow}, {TemplateID: "b", UsedAt: scoringNow},
		{TemplateID: "c", UsedAt: scoringNow},
	}}
	s = ScoreTemplate(tpl, p, scoringNow)
	if math.Abs(s.Breakdown.Behavioral-3) > 1e-9 {
		t.Errorf("expected 3 for 3/10 history, got %v", s.Breakdown.Behavioral)
	}
}

func TestNoveltyDecay(t *testing.T) {
	tpl := fullMatchTemplate()

	cases := []struct {
		name     string
		lastUsed time.Time
		want     float64
	}{
		{"never used", time.Time{}, 15},
		{"used just now", scoringNow, 0},
		{"used 15 days ago", scoringNow.Add(-15 * 24 * time.Hour), 7.5},
		{"used 30 days ago", scoringNow.Add(-30 * 24 * time.Hour), 15},
		{"used 90 days ago", scoringNow.Add(-90 * 24 * time.Hour), 15},
	}
	for _, tc := range cases {
		p := &models.UserProfile{}
		if !tc.lastUsed.IsZero() {
			p.UsedTemplates = []models.TemplateUse{{TemplateID: tpl.ID, UsedAt: tc.lastUsed}}
		}
		s := ScoreTemplate(tpl, p, scoringNow)
		if math.Abs(s.Breakdown.Novelty-tc.want) > 1e-9 {
			t.Errorf("%s: expected novelty %v, got %v", tc.name, tc.want, s.Breakdown.Novelty)
		}
	}
}

func TestPartialMatchMutualExclusion(t *testing.T) {
	// A profile matching both mood/palette pairings must only collect the
	// bonus once.
	tpl := &models.Template{Metadata: models.TemplateMetadata{
		ColorPalette: []string{"vibrant", "pastel"},
	}}
	p := &models.UserProfile{Moods: []string{"energetic", "relaxed"}}

	s := ScoreTemplate(tpl, p, scoringNow)
	if math.Abs(s.Breakdown.PartialMatch-3) > 1e-9 {
		t.Errorf("expected 3 (single 30%% bonus), got %v", s.Breakdown.PartialMatch)
	}
}

func TestRankTemplates(t *testing.T) {
	low := &models.Template{ID: "low", IsActive: true, UsageCount: 10}
	high := &models.Template{ID: "high", IsActive: true, UsageCount: 900}
	inactive := &models.Template{ID: "inactive", IsActive: false, UsageCount: 2000}
	premium := &models.Template{ID: "premium", IsActive: true, IsPremium: true, UsageCount: 2000}

	ranked := RankTemplates([]*models.Template{low, high, inactive, premium}, nil, scoringNow,
		RankOptions{ActiveOnly: true, ExcludePremium: true})

	if len(ranked) != 2 {
		t.Fatalf("expected 2 templates after filtering, got %d", len(ranked))
	}
	if ranked[0].Template.ID != "high" || ranked[1].Template.ID != "low" {
		t.Errorf("expected [high, low], got [%s, %s]", ranked[0].Template.ID, ranked[1].Template.ID)
	}
}

func TestRankTemplatesStableTies(t *testing.T) {
	// Identical templates score identically; input order must survive.
	a := &models.Template{ID: "a", IsActive: true}
	b := &models.Template{ID: "b", IsActive: true}
	c := &models.Template{ID: "c", IsActive: true}

	ranked := RankTemplates([]*models.Template{a, b, c}, nil, scoringNow, RankOptions{})
	for i, want := range []string{"a", "b", "c"} {
		if ranked[i].Template.ID != want {
			t.Errorf("position %d: expected %s, got %s", i, want, ranked[i].Template.ID)
		}
	}
}

func TestRankTemplatesMinScoreAndLimit(t *testing.T) {
	templates := []*models.Template{
		{ID: "a", IsActive: true, UsageCount: 1000, Metadata: models.TemplateMetadata{QualityScore: intPtr(100)}},
		{ID: "b", IsActive: true, UsageCount: 500},
		{ID: "c", IsActive: true},
	}

	ranked := RankTemplates(templates, nil, scoringNow, RankOptions{MinScore: 15, Limit: 1})
	if len(ranked) != 1 {
		t.Fatalf("expected 1 template, got %d", len(ranked))
	}
	if ranked[0].Template.ID != "a" {
		t.Errorf("expected a, got %s", ranked[0].Template.ID)
	}
}

func TestTrendingTemplates(t *testing.T) {
	templates := []*models.Template{
		{ID: "a", IsActive: true, UsageCount: 5},
		{ID: "b", IsActive: true, UsageCount: 500},
		{ID: "c", IsActive: false, UsageCount: 9999},
	}

	trending := TrendingTemplates(templates, 7, 10)
	if len(trending) != 2 {
		t.Fatalf("expected 2 active templates, got %d", len(trending))
	}
	if trending[0].ID != "b" {
		t.Errorf("expected b first, got %s", trending[0].ID)
	}
}

func TestSearchTemplates(t *testing.T) {
	templates := []*models.Template{
		{ID: "a", Title: "Garden Wedding", Description: "romantic outdoor scene"},
		{ID: "b", Title: "Office Portrait", Categories: []string{"professional", "LinkedIn"}},
		{ID: "c", Title: "Beach Day"},
	}

	if got := SearchTemplates(templates, "WEDDING"); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("title match failed: %+v", got)
	}
	if got := SearchTemplates(templates, "romantic"); len(got) != 1 || got[0].ID != "a" {
		t.Errorf("description match failed: %+v", got)
	}
	if got := SearchTemplates(templates, "linkedin"); len(got) != 1 || got[0].ID != "b" {
		t.Errorf("category match failed: %+v", got)
	}
	if got := SearchTemplates(templates, "   "); got != nil {
		t.Errorf("blank query must match nothing, got %+v", got)
	}
}

func TestTemplatesByOccasion(t *testing.T) {
	templates := []*models.Template{
		{ID: "a", IsActive: true, Metadata: models.TemplateMetadata{Occasions: []string{"wedding"}}},
		{ID: "b", IsActive: true, Metadata: models.TemplateMetadata{Occasions: []string{"party"}}},
		{ID: "c", IsActive: false, Metadata: models.TemplateMetadata{Occasions: []string{"wedding"}}},
	}

	got := TemplatesByOccasion(templates, "wedding")
	if len(got) != 1 || got[0].ID != "a" {
		t.Errorf("expected only active wedding template, got %+v", got)
	}
}
