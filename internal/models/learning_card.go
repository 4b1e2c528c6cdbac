package models

import "github.com/google/uuid"

// LearningCard is a single study unit belonging to exactly one topic.
// Cards may be machine-generated; when they are, the model name and prompt
// used for generation are kept alongside the content.
type LearningCard struct {
	AuditBase
	Question    string `gorm:"size:500;not null" json:"question"`
	Answer      string `gorm:"size:2000;not null" json:"answer"`
	Explanation string `gorm:"size:1000" json:"explanation,omitempty"`
	Hint        string `gorm:"size:500" json:"hint,omitempty"`

	ContentType     ContentType     `gorm:"size:20;not null;default:QUESTION_ANSWER;index:idx_card_type" json:"content_type"`
	DifficultyLevel DifficultyLevel `gorm:"size:20;not null;index:idx_card_difficulty" json:"difficulty_level"`
	Tags            string          `gorm:"size:500" json:"tags,omitempty"`

	LLMModelUsed     string `gorm:"size:50" json:"llm_model_used,omitempty"`
	GenerationPrompt string `gorm:"type:text" json:"generation_prompt,omitempty"`

	TopicID uuid.UUID `gorm:"type:uuid;not null;index:idx_card_topic_id" json:"topic_id"`
	Topic   *Topic    `gorm:"foreignKey:TopicID" json:"topic,omitempty"`
}

// NewLearningCard builds a card from the required fields.
func NewLearningCard(question, answer string, topicID uuid.UUID, difficulty DifficultyLevel) *LearningCard {
	return &LearningCard{
		AuditBase:       AuditBase{Active: true},
		Question:        question,
		Answer:          answer,
		ContentType:     ContentQuestionAnswer,
		DifficultyLevel: difficulty,
		TopicID:         topicID,
	}
}
