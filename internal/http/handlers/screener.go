package handlers

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/faceforge/faceforge-api/internal/models"
	"github.com/faceforge/faceforge-api/internal/service"
)

// ScreenerHandler handles onboarding screener endpoints.
type ScreenerHandler struct {
	screenerSvc *service.ScreenerService
}

// NewScreenerHandler creates a new screener handler.
func NewScreenerHandler(screenerSvc *service.ScreenerService) *ScreenerHandler {
	return &ScreenerHandler{screenerSvc: screenerSvc}
}

// ListQuestionsOutput represents the screener question list.
type ListQuestionsOutput struct {
	Body struct {
		Questions []*models.ScreenerQuestion `json:"questions"`
	}
}

// ListQuestions returns active questions in presentation order. For
// authenticated callers, questions they already answered are omitted.
func (h *ScreenerHandler) ListQuestions(ctx context.Context, input *struct{}) (*ListQuestionsOutput, error) {
	questions, err := h.screenerSvc.ListQuestions(ctx, getUserID(ctx), false)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list questions")
	}

	out := &ListQuestionsOutput{}
	out.Body.Questions = questions
	return out, nil
}

// SubmitAnswerInput represents one screener answer.
type SubmitAnswerInput struct {
	ID   string `path:"id"`
	Body struct {
		SelectedKeys []string `json:"selected_keys" required:"true" minItems:"1"`
	}
}

// SubmitAnswerOutput represents the answer confirmation.
type SubmitAnswerOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// SubmitAnswer records a screener answer into the caller's profile. Repeat
// submissions for the same question are accepted but ignored.
func (h *ScreenerHandler) SubmitAnswer(ctx context.Context, input *SubmitAnswerInput) (*SubmitAnswerOutput, error) {
	userID := getUserID(ctx)
	if userID == "" {
		return nil, huma.Error401Unauthorized("unauthorized")
	}

	if err := h.screenerSvc.SubmitAnswer(ctx, userID, input.ID, input.Body.SelectedKeys); err != nil {
		return nil, mapServiceError(err)
	}

	out := &SubmitAnswerOutput{}
	out.Body.Success = true
	return out, nil
}

// ========================================
// Admin question management
// ========================================

// QuestionBody is the writable screener question payload.
type QuestionBody struct {
	Order        int                                   `json:"order"`
	MultiSelect  bool                                  `json:"multi_select,omitempty"`
	OptionKeys   []string                              `json:"option_keys" required:"true" minItems:"1"`
	Translations map[string]models.QuestionTranslation `json:"translations" required:"true"`
	Category     string                                `json:"category,omitempty" doc:"Profile field the answer maps to: body_type, occasion, mood, or style"`
	IsActive     bool                                  `json:"is_active"`
	TargetGender string                                `json:"target_gender,omitempty"`
	MinPriorUses int                                   `json:"min_prior_uses,omitempty" minimum:"0"`
}

func (b *QuestionBody) toModel(id string) *models.ScreenerQuestion {
	return &models.ScreenerQuestion{
		ID:           id,
		Order:        b.Order,
		MultiSelect:  b.MultiSelect,
		OptionKeys:   b.OptionKeys,
		Translations: b.Translations,
		Category:     b.Category,
		IsActive:     b.IsActive,
		TargetGender: b.TargetGender,
		MinPriorUses: b.MinPriorUses,
	}
}

// QuestionOutput represents one screener question.
type QuestionOutput struct {
	Body struct {
		Question *models.ScreenerQuestion `json:"question"`
	}
}

// CreateQuestionInput represents an admin question creation request.
type CreateQuestionInput struct {
	Body QuestionBody
}

// CreateQuestion adds a screener question. Translations must cover every
// option key in at least two languages.
func (h *ScreenerHandler) CreateQuestion(ctx context.Context, input *CreateQuestionInput) (*QuestionOutput, error) {
	q := input.Body.toModel("")
	if err := h.screenerSvc.CreateQuestion(ctx, q); err != nil {
		return nil, mapServiceError(err)
	}

	out := &QuestionOutput{}
	out.Body.Question = q
	return out, nil
}

// UpdateQuestionInput represents an admin question update request.
type UpdateQuestionInput struct {
	ID   string `path:"id"`
	Body QuestionBody
}

// UpdateQuestion replaces a screener question's fields.
func (h *ScreenerHandler) UpdateQuestion(ctx context.Context, input *UpdateQuestionInput) (*QuestionOutput, error) {
	q := input.Body.toModel(input.ID)
	if err := h.screenerSvc.UpdateQuestion(ctx, q); err != nil {
		return nil, mapServiceError(err)
	}

	out := &QuestionOutput{}
	out.Body.Question = q
	return out, nil
}

// DeleteQuestionInput represents an admin question removal request.
type DeleteQuestionInput struct {
	ID string `path:"id"`
}

// DeleteQuestionOutput represents the removal confirmation.
type DeleteQuestionOutput struct {
	Body struct {
		Success bool `json:"success"`
	}
}

// DeleteQuestion removes a screener question. Profiles built from its
// answers are untouched.
func (h *ScreenerHandler) DeleteQuestion(ctx context.Context, input *DeleteQuestionInput) (*DeleteQuestionOutput, error) {
	if err := h.screenerSvc.DeleteQuestion(ctx, input.ID); err != nil {
		return nil, mapServiceError(err)
	}

	out := &DeleteQuestionOutput{}
	out.Body.Success = true
	return out, nil
}

// ListAllQuestionsOutput represents the admin question list.
type ListAllQuestionsOutput struct {
	Body struct {
		Questions []*models.ScreenerQuestion `json:"questions"`
	}
}

// ListAllQuestions returns every question including inactive ones.
func (h *ScreenerHandler) ListAllQuestions(ctx context.Context, input *struct{}) (*ListAllQuestionsOutput, error) {
	questions, err := h.screenerSvc.ListQuestions(ctx, "", true)
	if err != nil {
		return nil, huma.Error500InternalServerError("failed to list questions")
	}

	out := &ListAllQuestionsOutput{}
	out.Body.Questions = questions
	return out, nil
}
