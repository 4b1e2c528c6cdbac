package service

import (
	"context"
	"testing"

	"infinity/internal/models"
	"infinity/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// cardRepoStub is a stub for repository.LearningCardRepository.
type cardRepoStub struct {
	getByIDFn                  func(context.Context, uuid.UUID) (*models.LearningCard, error)
	listByTopicFn              func(context.Context, uuid.UUID, repository.PageRequest) ([]models.LearningCard, int64, error)
	findByTopicAndDifficultyFn func(context.Context, uuid.UUID, models.DifficultyLevel) ([]models.LearningCard, error)
	findByContentTypeFn        func(context.Context, models.ContentType, repository.PageRequest) ([]models.LearningCard, int64, error)
	countByTopicFn             func(context.Context, uuid.UUID) (int64, error)
	createFn                   func(context.Context, *models.LearningCard) error
	updateFn                   func(context.Context, *models.LearningCard) error
	deleteFn                   func(context.Context, uuid.UUID) error
}

func (s *cardRepoStub) GetByID(ctx context.Context, id uuid.UUID) (*models.LearningCard, error) {
	return s.getByIDFn(ctx, id)
}
func (s *cardRepoStub) ListByTopic(ctx context.Context, topicID uuid.UUID, page repository.PageRequest) ([]models.LearningCard, int64, error) {
	return s.listByTopicFn(ctx, topicID, page)
}
func (s *cardRepoStub) FindByTopicAndDifficulty(ctx context.Context, topicID uuid.UUID, level models.DifficultyLevel) ([]models.LearningCard, error) {
	return s.findByTopicAndDifficultyFn(ctx, topicID, level)
}
func (s *cardRepoStub) FindByContentType(ctx context.Context, contentType models.ContentType, page repository.PageRequest) ([]models.LearningCard, int64, error) {
	return s.findByContentTypeFn(ctx, contentType, page)
}
func (s *cardRepoStub) CountByTopic(ctx context.Context, topicID uuid.UUID) (int64, error) {
	return s.countByTopicFn(ctx, topicID)
}
func (s *cardRepoStub) Create(ctx context.Context, card *models.LearningCard) error {
	return s.createFn(ctx, card)
}
func (s *cardRepoStub) Update(ctx context.Context, card *models.LearningCard) error {
	return s.updateFn(ctx, card)
}
func (s *cardRepoStub) Delete(ctx context.Context, id uuid.UUID) error {
	return s.deleteFn(ctx, id)
}

func noopCardRepo() *cardRepoStub {
	return &cardRepoStub{
		getByIDFn: func(_ context.Context, _ uuid.UUID) (*models.LearningCard, error) {
			return &models.LearningCard{AuditBase: models.AuditBase{Active: true}}, nil
		},
		listByTopicFn: func(_ context.Context, _ uuid.UUID, _ repository.PageRequest) ([]models.LearningCard, int64, error) {
			return nil, 0, nil
		},
		findByTopicAndDifficultyFn: func(_ context.Context, _ uuid.UUID, _ models.DifficultyLevel) ([]models.LearningCard, error) {
			return nil, nil
		},
		findByContentTypeFn: func(_ context.Context, _ models.ContentType, _ repository.PageRequest) ([]models.LearningCard, int64, error) {
			return nil, 0, nil
		},
		countByTopicFn: func(_ context.Context, _ uuid.UUID) (int64, error) { return 0, nil },
		createFn:       func(_ context.Context, _ *models.LearningCard) error { return nil },
		updateFn:       func(_ context.Context, _ *models.LearningCard) error { return nil },
		deleteFn:       func(_ context.Context, _ uuid.UUID) error { return nil },
	}
}

func TestCardService_CreateCard(t *testing.T) {
	repo := noopCardRepo()
	var created *models.LearningCard
	repo.createFn = func(_ context.Context, card *models.LearningCard) error {
		created = card
		return nil
	}
	svc := NewCardService(repo)
	ctx := context.Background()

	card, err := svc.CreateCard(ctx, CreateCardInput{
		TopicID:         uuid.New(),
		Question:        "What is 2+2?",
		Answer:          "4",
		DifficultyLevel: models.DifficultyBeginner,
	})
	require.NoError(t, err)
	assert.Same(t, created, card)
	assert.Equal(t, models.ContentQuestionAnswer, card.ContentType, "omitted content type defaults to question/answer")

	card, err = svc.CreateCard(ctx, CreateCardInput{
		TopicID:         uuid.New(),
		Question:        "True or false: the sky is green",
		Answer:          "false",
		ContentType:     models.ContentTrueFalse,
		DifficultyLevel: models.DifficultyBeginner,
	})
	require.NoError(t, err)
	assert.Equal(t, models.ContentTrueFalse, card.ContentType)
}

func TestCardService_CreateCardValidation(t *testing.T) {
	svc := NewCardService(noopCardRepo())
	ctx := context.Background()

	tests := []struct {
		name  string
		input CreateCardInput
	}{
		{"missing question", CreateCardInput{
			TopicID: uuid.New(), Answer: "a", DifficultyLevel: models.DifficultyBeginner,
		}},
		{"missing answer", CreateCardInput{
			TopicID: uuid.New(), Question: "q", DifficultyLevel: models.DifficultyBeginner,
		}},
		{"missing difficulty", CreateCardInput{
			TopicID: uuid.New(), Question: "q", Answer: "a",
		}},
		{"unknown difficulty", CreateCardInput{
			TopicID: uuid.New(), Question: "q", Answer: "a", DifficultyLevel: "IMPOSSIBLE",
		}},
		{"unknown content type", CreateCardInput{
			TopicID: uuid.New(), Question: "q", Answer: "a",
			DifficultyLevel: models.DifficultyBeginner, ContentType: "ESSAY",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateCard(ctx, tt.input)
			assertCode(t, err, "VALIDATION_ERROR")
		})
	}
}

func TestCardService_UpdateCard(t *testing.T) {
	repo := noopCardRepo()
	existing := &models.LearningCard{
		AuditBase:       models.AuditBase{ID: uuid.New(), Active: true},
		Question:        "old question",
		Answer:          "old answer",
		ContentType:     models.ContentQuestionAnswer,
		DifficultyLevel: models.DifficultyBeginner,
	}
	repo.getByIDFn = func(_ context.Context, _ uuid.UUID) (*models.LearningCard, error) {
		return existing, nil
	}
	svc := NewCardService(repo)
	ctx := context.Background()

	question := "new question"
	level := models.DifficultyExpert
	card, err := svc.UpdateCard(ctx, UpdateCardInput{
		CardID:          existing.ID,
		Question:        &question,
		DifficultyLevel: &level,
	})
	require.NoError(t, err)
	assert.Equal(t, "new question", card.Question)
	assert.Equal(t, models.DifficultyExpert, card.DifficultyLevel)
	assert.Equal(t, "old answer", card.Answer)

	empty := ""
	_, err = svc.UpdateCard(ctx, UpdateCardInput{CardID: existing.ID, Answer: &empty})
	assertCode(t, err, "VALIDATION_ERROR")

	// inactive cards cannot be updated
	existing.Active = false
	_, err = svc.UpdateCard(ctx, UpdateCardInput{CardID: existing.ID, Question: &question})
	assertCode(t, err, "NOT_FOUND")
}

func TestCardService_ListByContentType(t *testing.T) {
	repo := noopCardRepo()
	var requested models.ContentType
	repo.findByContentTypeFn = func(_ context.Context, ct models.ContentType, _ repository.PageRequest) ([]models.LearningCard, int64, error) {
		requested = ct
		return []models.LearningCard{{Question: "q"}}, 1, nil
	}
	svc := NewCardService(repo)
	ctx := context.Background()

	cards, total, err := svc.ListByContentType(ctx, models.ContentDefinition, repository.PageRequest{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, cards, 1)
	assert.Equal(t, models.ContentDefinition, requested)

	_, _, err = svc.ListByContentType(ctx, "ESSAY", repository.PageRequest{})
	assertCode(t, err, "VALIDATION_ERROR")

	_, err = svc.ListByTopicAndDifficulty(ctx, uuid.New(), "IMPOSSIBLE")
	assertCode(t, err, "VALIDATION_ERROR")
}
