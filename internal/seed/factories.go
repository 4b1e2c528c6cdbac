// Package seed provides helpers to create demo data for the application
// database. These helpers are intended for development and testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"infinity/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rand *rand.Rand
}

// NewFactory creates a Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	gofakeit.Seed(time.Now().UnixNano())
	return &Factory{
		db:   db,
		opts: opts,
		rand: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

var difficulties = []models.DifficultyLevel{
	models.DifficultyBeginner,
	models.DifficultyIntermediate,
	models.DifficultyAdvanced,
	models.DifficultyExpert,
}

var contentTypes = []models.ContentType{
	models.ContentQuestionAnswer,
	models.ContentMultipleChoice,
	models.ContentTrueFalse,
	models.ContentFillInBlank,
	models.ContentDefinition,
	models.ContentExample,
}

var seedCategories = []string{
	"Mathematics", "Computer Science", "Physics", "Biology",
	"History", "Languages", "Music Theory", "Economics",
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	password := "Seed-Password-1!"
	hash := []byte("$2a$10$seedseedseedseedseedseedseedseedseedseedseedseedseedse")
	if !f.opts.SkipBcrypt {
		var err error
		hash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
	}

	user := models.NewUser(
		gofakeit.Username()+fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		gofakeit.Email(),
		string(hash),
	)
	user.FirstName = gofakeit.FirstName()
	user.LastName = gofakeit.LastName()
	user.EmailVerified = true
	user.Preferences.LearningStyle = models.StyleMixed
	user.Preferences.DifficultyPreference = difficulties[f.rand.Intn(len(difficulties))]

	for _, override := range overrides {
		override(user)
	}

	if err := f.db.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// CreateTopic constructs and persists a sample topic. The card counter starts
// at zero; CreateCard maintains it through the repository path semantics.
func (f *Factory) CreateTopic(overrides ...func(*models.Topic)) (*models.Topic, error) {
	category := seedCategories[f.rand.Intn(len(seedCategories))]
	topic := models.NewTopic(
		fmt.Sprintf("%s %s", gofakeit.HackerAdjective(), gofakeit.HackerNoun()),
		category,
		difficulties[f.rand.Intn(len(difficulties))],
	)
	topic.Description = gofakeit.Sentence(12)
	topic.Tags = fmt.Sprintf("%s,%s,%s",
		gofakeit.HackerNoun(), gofakeit.HackerNoun(), gofakeit.HackerVerb())

	// realistic created_at spread
	maxDays := f.opts.MaxDays
	if maxDays <= 0 {
		maxDays = 90
	}
	topic.CreatedAt = time.Now().Add(-time.Duration(f.rand.Intn(maxDays)) * 24 * time.Hour)

	for _, override := range overrides {
		override(topic)
	}

	if err := f.db.Create(topic).Error; err != nil {
		return nil, err
	}
	return topic, nil
}

// CreateCard constructs and persists a sample card under the given topic and
// bumps the topic's counter the same way the repository transaction does.
func (f *Factory) CreateCard(topic *models.Topic, overrides ...func(*models.LearningCard)) (*models.LearningCard, error) {
	card := models.NewLearningCard(
		gofakeit.Question(),
		gofakeit.Sentence(10),
		topic.ID,
		difficulties[f.rand.Intn(len(difficulties))],
	)
	card.ContentType = contentTypes[f.rand.Intn(len(contentTypes))]
	card.Explanation = gofakeit.Sentence(15)
	card.Hint = gofakeit.Sentence(6)
	card.Tags = topic.Tags

	for _, override := range overrides {
		override(card)
	}

	err := f.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(card).Error; err != nil {
			return err
		}
		return tx.Model(&models.Topic{}).
			Where("id = ?", topic.ID).
			UpdateColumn("total_cards_count", gorm.Expr("total_cards_count + 1")).Error
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}
