package service

import (
	"context"

	"infinity/internal/models"
	"infinity/internal/repository"

	"github.com/google/uuid"
)

// CardService implements learning card lifecycle. Counter maintenance on the
// owning topic happens inside the repository transactions, never here.
type CardService struct {
	cardRepo repository.LearningCardRepository
}

func NewCardService(cardRepo repository.LearningCardRepository) *CardService {
	return &CardService{cardRepo: cardRepo}
}

type CreateCardInput struct {
	TopicID          uuid.UUID `validate:"required"`
	Question         string    `validate:"required,max=500"`
	Answer           string    `validate:"required,max=2000"`
	Explanation      string    `validate:"max=1000"`
	Hint             string    `validate:"max=500"`
	ContentType      models.ContentType
	DifficultyLevel  models.DifficultyLevel `validate:"required"`
	Tags             string                 `validate:"max=500"`
	LLMModelUsed     string                 `validate:"max=50"`
	GenerationPrompt string
}

type UpdateCardInput struct {
	CardID          uuid.UUID
	Question        *string
	Answer          *string
	Explanation     *string
	Hint            *string
	ContentType     *models.ContentType
	DifficultyLevel *models.DifficultyLevel
	Tags            *string
}

// CreateCard validates and persists a card under an existing active topic.
// An omitted content type defaults to question/answer.
func (s *CardService) CreateCard(ctx context.Context, in CreateCardInput) (*models.LearningCard, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !in.DifficultyLevel.Valid() {
		return nil, models.NewValidationError("unknown difficulty level")
	}
	if in.ContentType != "" && !in.ContentType.Valid() {
		return nil, models.NewValidationError("unknown content type")
	}

	card := models.NewLearningCard(in.Question, in.Answer, in.TopicID, in.DifficultyLevel)
	if in.ContentType != "" {
		card.ContentType = in.ContentType
	}
	card.Explanation = in.Explanation
	card.Hint = in.Hint
	card.Tags = in.Tags
	card.LLMModelUsed = in.LLMModelUsed
	card.GenerationPrompt = in.GenerationPrompt

	if err := s.cardRepo.Create(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

func (s *CardService) UpdateCard(ctx context.Context, in UpdateCardInput) (*models.LearningCard, error) {
	card, err := s.cardRepo.GetByID(ctx, in.CardID)
	if err != nil {
		return nil, err
	}
	if !card.Active {
		return nil, models.NewNotFoundError("LearningCard", in.CardID)
	}

	if in.Question != nil {
		if *in.Question == "" {
			return nil, models.NewValidationError("question is required")
		}
		if len(*in.Question) > 500 {
			return nil, models.NewValidationError("question must not exceed 500 characters")
		}
		card.Question = *in.Question
	}
	if in.Answer != nil {
		if *in.Answer == "" {
			return nil, models.NewValidationError("answer is required")
		}
		if len(*in.Answer) > 2000 {
			return nil, models.NewValidationError("answer must not exceed 2000 characters")
		}
		card.Answer = *in.Answer
	}
	if in.Explanation != nil {
		if len(*in.Explanation) > 1000 {
			return nil, models.NewValidationError("explanation must not exceed 1000 characters")
		}
		card.Explanation = *in.Explanation
	}
	if in.Hint != nil {
		if len(*in.Hint) > 500 {
			return nil, models.NewValidationError("hint must not exceed 500 characters")
		}
		card.Hint = *in.Hint
	}
	if in.ContentType != nil {
		if !in.ContentType.Valid() {
			return nil, models.NewValidationError("unknown content type")
		}
		card.ContentType = *in.ContentType
	}
	if in.DifficultyLevel != nil {
		if !in.DifficultyLevel.Valid() {
			return nil, models.NewValidationError("unknown difficulty level")
		}
		card.DifficultyLevel = *in.DifficultyLevel
	}
	if in.Tags != nil {
		if len(*in.Tags) > 500 {
			return nil, models.NewValidationError("tags must not exceed 500 characters")
		}
		card.Tags = *in.Tags
	}

	if err := s.cardRepo.Update(ctx, card); err != nil {
		return nil, err
	}
	return card, nil
}

// DeleteCard soft-deletes the card; the owning topic's counter is decremented
// in the same transaction.
func (s *CardService) DeleteCard(ctx context.Context, id uuid.UUID) error {
	return s.cardRepo.Delete(ctx, id)
}

func (s *CardService) GetCard(ctx context.Context, id uuid.UUID) (*models.LearningCard, error) {
	return s.cardRepo.GetByID(ctx, id)
}

func (s *CardService) ListByTopic(ctx context.Context, topicID uuid.UUID, page repository.PageRequest) ([]models.LearningCard, int64, error) {
	return s.cardRepo.ListByTopic(ctx, topicID, page)
}

func (s *CardService) ListByTopicAndDifficulty(ctx context.Context, topicID uuid.UUID, level models.DifficultyLevel) ([]models.LearningCard, error) {
	if !level.Valid() {
		return nil, models.NewValidationError("unknown difficulty level")
	}
	return s.cardRepo.FindByTopicAndDifficulty(ctx, topicID, level)
}

func (s *CardService) ListByContentType(ctx context.Context, contentType models.ContentType, page repository.PageRequest) ([]models.LearningCard, int64, error) {
	if !contentType.Valid() {
		return nil, 0, models.NewValidationError("unknown content type")
	}
	return s.cardRepo.FindByContentType(ctx, contentType, page)
}

func (s *CardService) CountByTopic(ctx context.Context, topicID uuid.UUID) (int64, error) {
	return s.cardRepo.CountByTopic(ctx, topicID)
}
