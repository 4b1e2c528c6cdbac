package models

// Topic is a subject area grouping learning cards. TotalCardsCount mirrors
// the number of active cards referencing the topic and is maintained with
// atomic storage-side increment/decrement statements; the in-memory helpers
// below only keep an already-loaded struct coherent and are never written
// back by the counter paths.
type Topic struct {
	AuditBase
	Name            string          `gorm:"size:100;not null;index:idx_topic_name" json:"name"`
	Description     string          `gorm:"size:500" json:"description,omitempty"`
	Category        string          `gorm:"size:50;not null;index:idx_topic_category" json:"category"`
	DifficultyLevel DifficultyLevel `gorm:"size:20;not null;default:BEGINNER;index:idx_topic_difficulty" json:"difficulty_level"`
	TotalCardsCount int             `gorm:"not null;default:0" json:"total_cards_count"`
	Tags            string          `gorm:"size:500" json:"tags,omitempty"`          // comma-separated
	Prerequisites   string          `gorm:"size:500" json:"prerequisites,omitempty"` // comma-separated topic IDs

	LearningCards []LearningCard `gorm:"foreignKey:TopicID" json:"learning_cards,omitempty"`
	FavoredBy     []User         `gorm:"many2many:user_favorite_topics" json:"-"`
}

// NewTopic builds a topic from the required fields.
func NewTopic(name, category string, difficulty DifficultyLevel) *Topic {
	if difficulty == "" {
		difficulty = DifficultyBeginner
	}
	return &Topic{
		AuditBase:       AuditBase{Active: true},
		Name:            name,
		Category:        category,
		DifficultyLevel: difficulty,
	}
}

// IncrementCardsCount bumps the local counter.
func (t *Topic) IncrementCardsCount() {
	t.TotalCardsCount++
}

// DecrementCardsCount lowers the local counter, clamping at zero.
func (t *Topic) DecrementCardsCount() {
	if t.TotalCardsCount > 0 {
		t.TotalCardsCount--
	}
}
