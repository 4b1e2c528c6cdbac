package service

import (
	"context"

	"infinity/internal/models"
	"infinity/internal/repository"

	"github.com/google/uuid"
)

// TopicService implements topic lifecycle, discovery, and aggregates.
type TopicService struct {
	topicRepo repository.TopicRepository
}

func NewTopicService(topicRepo repository.TopicRepository) *TopicService {
	return &TopicService{topicRepo: topicRepo}
}

type CreateTopicInput struct {
	Name            string `validate:"required,max=100"`
	Description     string `validate:"max=500"`
	Category        string `validate:"required,max=50"`
	DifficultyLevel models.DifficultyLevel
	Tags            string `validate:"max=500"`
	Prerequisites   string `validate:"max=500"`
}

type UpdateTopicInput struct {
	TopicID         uuid.UUID
	Name            *string
	Description     *string
	Category        *string
	DifficultyLevel *models.DifficultyLevel
	Tags            *string
	Prerequisites   *string
}

// TopicFilter narrows listings. Category and Difficulty compose; MinCards is
// a separate discovery path and ignores the pagination defaults.
type TopicFilter struct {
	Category   string
	Difficulty models.DifficultyLevel
}

// CreateTopic validates and persists a new topic. Topic names are unique
// among active topics.
func (s *TopicService) CreateTopic(ctx context.Context, in CreateTopicInput) (*models.Topic, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.DifficultyLevel != "" && !in.DifficultyLevel.Valid() {
		return nil, models.NewValidationError("unknown difficulty level")
	}

	existing, err := s.topicRepo.GetByName(ctx, in.Name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("A topic with this name already exists")
	}

	topic := models.NewTopic(in.Name, in.Category, in.DifficultyLevel)
	topic.Description = in.Description
	topic.Tags = in.Tags
	topic.Prerequisites = in.Prerequisites

	if err := s.topicRepo.Create(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

func (s *TopicService) UpdateTopic(ctx context.Context, in UpdateTopicInput) (*models.Topic, error) {
	topic, err := s.topicRepo.GetByID(ctx, in.TopicID)
	if err != nil {
		return nil, err
	}
	if !topic.Active {
		return nil, models.NewNotFoundError("Topic", in.TopicID)
	}

	if in.Name != nil && *in.Name != topic.Name {
		if *in.Name == "" {
			return nil, models.NewValidationError("name is required")
		}
		if len(*in.Name) > 100 {
			return nil, models.NewValidationError("name must not exceed 100 characters")
		}
		existing, err := s.topicRepo.GetByName(ctx, *in.Name)
		if err != nil {
			return nil, err
		}
		if existing != nil && existing.ID != topic.ID {
			return nil, models.NewConflictError("A topic with this name already exists")
		}
		topic.Name = *in.Name
	}
	if in.Description != nil {
		if len(*in.Description) > 500 {
			return nil, models.NewValidationError("description must not exceed 500 characters")
		}
		topic.Description = *in.Description
	}
	if in.Category != nil {
		if *in.Category == "" {
			return nil, models.NewValidationError("category is required")
		}
		if len(*in.Category) > 50 {
			return nil, models.NewValidationError("category must not exceed 50 characters")
		}
		topic.Category = *in.Category
	}
	if in.DifficultyLevel != nil {
		if !in.DifficultyLevel.Valid() {
			return nil, models.NewValidationError("unknown difficulty level")
		}
		topic.DifficultyLevel = *in.DifficultyLevel
	}
	if in.Tags != nil {
		if len(*in.Tags) > 500 {
			return nil, models.NewValidationError("tags must not exceed 500 characters")
		}
		topic.Tags = *in.Tags
	}
	if in.Prerequisites != nil {
		if len(*in.Prerequisites) > 500 {
			return nil, models.NewValidationError("prerequisites must not exceed 500 characters")
		}
		topic.Prerequisites = *in.Prerequisites
	}

	if err := s.topicRepo.Update(ctx, topic); err != nil {
		return nil, err
	}
	return topic, nil
}

// DeleteTopic soft-deletes the topic and its cards in one transaction.
func (s *TopicService) DeleteTopic(ctx context.Context, id uuid.UUID) error {
	return s.topicRepo.Delete(ctx, id)
}

func (s *TopicService) GetTopic(ctx context.Context, id uuid.UUID) (*models.Topic, error) {
	return s.topicRepo.GetByID(ctx, id)
}

func (s *TopicService) GetTopicWithCards(ctx context.Context, id uuid.UUID, cardLimit int) (*models.Topic, error) {
	return s.topicRepo.GetByIDWithCards(ctx, id, cardLimit)
}

// ListTopics routes the filter combination to the matching repository query.
func (s *TopicService) ListTopics(ctx context.Context, filter TopicFilter, page repository.PageRequest) ([]models.Topic, int64, error) {
	if filter.Difficulty != "" && !filter.Difficulty.Valid() {
		return nil, 0, models.NewValidationError("unknown difficulty level")
	}

	switch {
	case filter.Category != "" && filter.Difficulty != "":
		topics, err := s.topicRepo.FindByCategoryAndDifficulty(ctx, filter.Category, filter.Difficulty)
		if err != nil {
			return nil, 0, err
		}
		return topics, int64(len(topics)), nil
	case filter.Category != "":
		return s.topicRepo.ListByCategory(ctx, filter.Category, page)
	case filter.Difficulty != "":
		return s.topicRepo.ListByDifficulty(ctx, filter.Difficulty, page)
	default:
		return s.topicRepo.List(ctx, page)
	}
}

func (s *TopicService) SearchTopics(ctx context.Context, query string, page repository.PageRequest) ([]models.Topic, int64, error) {
	if query == "" {
		return s.topicRepo.List(ctx, page)
	}
	return s.topicRepo.Search(ctx, query, page)
}

func (s *TopicService) Categories(ctx context.Context) ([]string, error) {
	return s.topicRepo.Categories(ctx)
}

func (s *TopicService) CategoryStats(ctx context.Context) ([]repository.CategoryCount, error) {
	return s.topicRepo.CountByCategory(ctx)
}

// TopicsWithMinimumCards returns active topics carrying at least minCards
// cards, most populated first.
func (s *TopicService) TopicsWithMinimumCards(ctx context.Context, minCards int) ([]models.Topic, error) {
	if minCards < 0 {
		return nil, models.NewValidationError("minimum card count cannot be negative")
	}
	return s.topicRepo.FindWithMinimumCards(ctx, minCards)
}
