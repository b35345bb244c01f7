// Package models defines the domain models for the application.
package models

import "time"

// ========================================
// Templates
// ========================================

// SlotSubjectType identifies what kind of subject a group-swap slot holds.
type SlotSubjectType string

const (
	SlotPerson SlotSubjectType = "person"
	SlotPet    SlotSubjectType = "pet"
	SlotBaby   SlotSubjectType = "baby"
)

// GroupSlot describes one swappable subject in a multi-subject template.
type GroupSlot struct {
	Index    int             `json:"index"` // 0-based position in the template image
	Type     SlotSubjectType `json:"type"`
	Label    string          `json:"label,omitempty"`
	Position string          `json:"position,omitempty"` // e.g. "left", "center", "back-right"
}

// TemplateMetadata is the structured tag bag used by the recommendation engine.
// Empty arrays mean "no preference signal", not "matches nothing".
type TemplateMetadata struct {
	BodyTypes    []string `json:"body_types,omitempty"`
	Styles       []string `json:"styles,omitempty"`
	Moods        []string `json:"moods,omitempty"`
	Occasions    []string `json:"occasions,omitempty"`
	Settings     []string `json:"settings,omitempty"` // e.g. "outdoor", "studio"
	Lighting     string   `json:"lighting,omitempty"`
	Framing      string   `json:"framing,omitempty"`
	ColorPalette []string `json:"color_palette,omitempty"`
	QualityScore *int     `json:"quality_score,omitempty"` // 0-100, nil = unknown (scored as 50)
}

// Template is one AI-generation scenario: a target image plus the prompt and
// tags needed to swap a user's face into it.
type Template struct {
	ID          string           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description,omitempty"`
	ImageURL    string           `json:"image_url"`
	VariantURLs []string         `json:"variant_urls,omitempty"` // rotating preview images
	Prompt      string           `json:"prompt"`
	Categories  []string         `json:"categories"` // free-form, e.g. "trending", "wedding"
	Metadata    TemplateMetadata `json:"metadata"`
	IsActive    bool             `json:"is_active"`
	IsPremium   bool             `json:"is_premium"`
	UsageCount  int64            `json:"usage_count"`            // monotonic, never decremented
	BrandDomain string           `json:"brand_domain,omitempty"` // multi-tenant filter, empty = all tenants
	FaceCount   int              `json:"face_count"`
	GroupSlots  []GroupSlot      `json:"group_slots,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// ========================================
// User Profiles
// ========================================

// TemplateUse is one entry in a user's usage history.
type TemplateUse struct {
	TemplateID string    `json:"template_id"`
	UsedAt     time.Time `json:"used_at"`
}

// UserProfile aggregates screener answers and behaviour per user. Created
// lazily on first screener answer; UsedTemplates is append-only.
type UserProfile struct {
	UserID            string        `json:"user_id"`
	BodyTypes         []string      `json:"body_types,omitempty"`
	Occasions         []string      `json:"occasions,omitempty"`
	Moods             []string      `json:"moods,omitempty"`
	Styles            []string      `json:"styles,omitempty"`
	UsedTemplates     []TemplateUse `json:"used_templates,omitempty"`
	FavoriteTemplates []string      `json:"favorite_templates,omitempty"`
	AnsweredQuestions []string      `json:"answered_questions,omitempty"` // a question id appears at most once
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

// HasAnswered reports whether the profile already contains an answer for the
// given screener question.
func (p *UserProfile) HasAnswered(questionID string) bool {
	for _, id := range p.AnsweredQuestions {
		if id == questionID {
			return true
		}
	}
	return false
}

// IsFavorite reports whether a template is in the user's favorites.
func (p *UserProfile) IsFavorite(templateID string) bool {
	for _, id := range p.FavoriteTemplates {
		if id == templateID {
			return true
		}
	}
	return false
}

// LastUsed returns when the user last used a template, or the zero time if never.
func (p *UserProfile) LastUsed(templateID string) time.Time {
	var last time.Time
	for _, use := range p.UsedTemplates {
		if use.TemplateID == templateID && use.UsedAt.After(last) {
			last = use.UsedAt
		}
	}
	return last
}

// ========================================
// Screener Questions
// ========================================

// QuestionTranslation holds the user-facing strings for one language.
// Options must contain an entry for every option key on the question.
type QuestionTranslation struct {
	Label   string            `json:"label"`
	Options map[string]string `json:"options"`
}

// ScreenerQuestion is an admin-authored onboarding question whose answers
// feed the user's preference profile.
type ScreenerQuestion struct {
	ID           string                         `json:"id"`
	Order        int                            `json:"order"` // presentation sequence, supports stable re-ordering
	MultiSelect  bool                           `json:"multi_select"`
	OptionKeys   []string                       `json:"option_keys"`  // language-neutral keys
	Translations map[string]QuestionTranslation `json:"translations"` // keyed by language code
	Category     string                         `json:"category,omitempty"` // profile field the answer maps to
	IsActive     bool                           `json:"is_active"`
	TargetGender string                         `json:"target_gender,omitempty"`
	MinPriorUses int                            `json:"min_prior_uses,omitempty"`
	CreatedAt    time.Time                      `json:"created_at"`
	UpdatedAt    time.Time                      `json:"updated_at"`
}

// ========================================
// Brand Configuration
// ========================================

// BrandConfig is a multi-tenant presentation override, keyed by domain.
// Templates reference it through their BrandDomain filter.
type BrandConfig struct {
	Domain     string    `json:"domain"`
	Name       string    `json:"name"`
	LogoURL    string    `json:"logo_url,omitempty"`
	ThemeColor string    `json:"theme_color,omitempty"`
	IsActive   bool      `json:"is_active"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
