package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/repository"
)

var (
	// ErrValidation indicates a malformed entity was rejected before any write.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

// ScreenerService manages onboarding questions and answer submission.
type ScreenerService struct {
	repos  *repository.Repositories
	logger *slog.Logger
}

// NewScreenerService creates a new screener service.
func NewScreenerService(repos *repository.Repositories, logger *slog.Logger) *ScreenerService {
	return &ScreenerService{repos: repos, logger: logger}
}

// validateQuestion enforces translation completeness: every option key must
// have a label in every language the question ships.
func validateQuestion(q *models.ScreenerQuestion) error {
	if len(q.OptionKeys) == 0 {
		return fmt.Errorf("%w: at least one option key is required", ErrValidation)
	}
	if len(q.Translations) < 2 {
		return fmt.Errorf("%w: at least two language translations are required", ErrValidation)
	}
	for lang, tr := range q.Translations {
		if tr.Label == "" {
			return fmt.Errorf("%w: translation %q is missing a label", ErrValidation, lang)
		}
		for _, key := range q.OptionKeys {
			if _, ok := tr.Options[key]; !ok {
				return fmt.Errorf("%w: translation %q is missing option %q", ErrValidation, lang, key)
			}
		}
	}
	return nil
}

// CreateQuestion validates and stores a new screener question.
func (s *ScreenerService) CreateQuestion(ctx context.Context, q *models.ScreenerQuestion) error {
	if err := validateQuestion(q); err != nil {
		return err
	}
	if q.ID == "" {
		q.ID = ulid.Make().String()
	}
	now := time.Now()
	q.CreatedAt = now
	q.UpdatedAt = now
	return s.repos.Screener.Create(ctx, q)
}

// UpdateQuestion validates and persists changes to a question.
func (s *ScreenerService) UpdateQuestion(ctx context.Context, q *models.ScreenerQuestion) error {
	if err := validateQuestion(q); err != nil {
		return err
	}
	existing, err := s.repos.Screener.GetByID(ctx, q.ID)
	if err != nil {
		return err
	}
	if existing == nil {
		return ErrNotFound
	}
	q.UpdatedAt = time.Now()
	return s.repos.Screener.Update(ctx, q)
}

// DeleteQuestion removes a question.
func (s *ScreenerService) DeleteQuestion(ctx context.Context, id string) error {
	return s.repos.Screener.Delete(ctx, id)
}

// GetQuestion returns one question, nil when missing.
func (s *ScreenerService) GetQuestion(ctx context.Context, id string) (*models.ScreenerQuestion, error) {
	return s.repos.Screener.GetByID(ctx, id)
}

// ListQuestions returns questions in presentation order. When userID is
// non-empty, questions the user already answered are filtered out.
func (s *ScreenerService) ListQuestions(ctx context.Context, userID string, includeInactive bool) ([]*models.ScreenerQuestion, error) {
	questions, err := s.repos.Screener.List(ctx, !includeInactive)
	if err != nil {
		return nil, err
	}
	if userID == "" {
		return questions, nil
	}

	profile, err := s.repos.Profile.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return questions, nil
	}

	filtered := questions[:0]
	for _, q := range questions {
		if !profile.HasAnswered(q.ID) {
			filtered = append(filtered, q)
		}
	}
	return filtered, nil
}

// SubmitAnswer records a user's selected option keys for a question, mapping
// them into the profile field named by the question's category. A question is
// answered at most once; repeat submissions are no-ops.
func (s *ScreenerService) SubmitAnswer(ctx context.Context, userID, questionID string, selectedKeys []string) error {
	question, err := s.repos.Screener.GetByID(ctx, questionID)
	if err != nil {
		return err
	}
	if question == nil {
		return ErrNotFound
	}

	valid := make(map[string]bool, len(question.OptionKeys))
	for _, key := range question.OptionKeys {
		valid[key] = true
	}
	for _, key := range selectedKeys {
		if !valid[key] {
			return fmt.Errorf("%w: unknown option %q", ErrValidation, key)
		}
	}
	if !question.MultiSelect && len(selectedKeys) > 1 {
		return fmt.Errorf("%w: question accepts a single option", ErrValidation)
	}

	profile, err := s.repos.Profile.Get(ctx, userID)
	if err != nil {
		return err
	}
	now := time.Now()
	if profile == nil {
		// Profiles are created lazily on the first answer.
		profile = &models.UserProfile{UserID: userID, CreatedAt: now}
	}
	if profile.HasAnswered(questionID) {
		return nil
	}

	switch question.Category {
	case "body_type":
		profile.BodyTypes = appendUnique(profile.BodyTypes, selectedKeys)
	case "occasion":
		profile.Occasions = appendUnique(profile.Occasions, selectedKeys)
	case "mood":
		profile.Moods = appendUnique(profile.Moods, selectedKeys)
	case "style":
		profile.Styles = appendUnique(profile.Styles, selectedKeys)
	default:
		s.logger.Warn("question has no profile mapping", "question_id", questionID, "category", question.Category)
	}

	profile.AnsweredQuestions = append(profile.AnsweredQuestions, questionID)
	profile.UpdatedAt = now
	return s.repos.Profile.Upsert(ctx, profile)
}

func appendUnique(existing []string, add []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, s := range existing {
		seen[s] = true
	}
	for _, s := range add {
		if !seen[s] {
			existing = append(existing, s)
			seen[s] = true
		}
	}
	return existing
}
