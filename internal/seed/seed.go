package seed

import (
	"fmt"

	"infinity/internal/middleware"
	"infinity/internal/models"

	"gorm.io/gorm"
)

// Options configures the seeder.
type Options struct {
	NumUsers      int
	NumTopics     int
	CardsPerTopic int
	MaxDays       int
	SkipBcrypt    bool
	ShouldClean   bool
}

// Run populates the database with demo users, topics, and cards.
func Run(db *gorm.DB, opts Options) error {
	if opts.NumUsers <= 0 {
		opts.NumUsers = 10
	}
	if opts.NumTopics <= 0 {
		opts.NumTopics = 8
	}
	if opts.CardsPerTopic <= 0 {
		opts.CardsPerTopic = 5
	}

	if opts.ShouldClean {
		if err := clean(db); err != nil {
			return fmt.Errorf("clean before seed: %w", err)
		}
	}

	f := NewFactory(db, opts)

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return fmt.Errorf("seed user: %w", err)
		}
		users = append(users, user)
	}

	topics := make([]*models.Topic, 0, opts.NumTopics)
	for i := 0; i < opts.NumTopics; i++ {
		topic, err := f.CreateTopic()
		if err != nil {
			return fmt.Errorf("seed topic: %w", err)
		}
		topics = append(topics, topic)

		for j := 0; j < opts.CardsPerTopic; j++ {
			if _, err := f.CreateCard(topic); err != nil {
				return fmt.Errorf("seed card: %w", err)
			}
		}
	}

	// every user bookmarks a couple of topics
	for i, user := range users {
		for j := 0; j < 2 && j < len(topics); j++ {
			topic := topics[(i+j)%len(topics)]
			if err := db.Model(user).Association("FavoriteTopics").Append(topic); err != nil {
				return fmt.Errorf("seed favorite: %w", err)
			}
		}
	}

	middleware.Logger.Info("seed complete",
		"users", len(users), "topics", len(topics), "cards_per_topic", opts.CardsPerTopic)
	return nil
}

func clean(db *gorm.DB) error {
	tables := []string{"user_favorite_topics", "learning_cards", "topics", "users"}
	for _, table := range tables {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			return err
		}
	}
	return nil
}
