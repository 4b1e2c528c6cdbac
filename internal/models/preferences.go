package models

// Preferences is the per-user study configuration embedded into the users
// table (column prefix pref_). It has no identity of its own; every field has
// a default so a freshly created user always carries a fully populated set.
type Preferences struct {
	LearningStyle           LearningStyle   `gorm:"size:20;not null;default:MIXED" json:"learning_style"`
	DifficultyPreference    DifficultyLevel `gorm:"size:20;not null;default:INTERMEDIATE" json:"difficulty_preference"`
	DailyGoalMinutes        int             `gorm:"not null;default:15" json:"daily_goal_minutes"`
	CardsPerSession         int             `gorm:"not null;default:10" json:"cards_per_session"`
	EnableNotifications     bool            `gorm:"not null;default:true" json:"enable_notifications"`
	EnableSound             bool            `gorm:"not null;default:true" json:"enable_sound"`
	EnableHapticFeedback    bool            `gorm:"not null;default:true" json:"enable_haptic_feedback"`
	PreferredSessionTime    string          `gorm:"size:10" json:"preferred_session_time,omitempty"` // "09:00", "18:30"
	Timezone                string          `gorm:"size:50;not null;default:UTC" json:"timezone"`
	LanguageCode            string          `gorm:"size:5;not null;default:en" json:"language_code"`
	SpacedRepetitionEnabled bool            `gorm:"not null;default:true" json:"spaced_repetition_enabled"`
}

// DefaultPreferences returns the preference set assigned to new users.
func DefaultPreferences() Preferences {
	return Preferences{
		LearningStyle:           StyleMixed,
		DifficultyPreference:    DifficultyIntermediate,
		DailyGoalMinutes:        15,
		CardsPerSession:         10,
		EnableNotifications:     true,
		EnableSound:             true,
		EnableHapticFeedback:    true,
		Timezone:                "UTC",
		LanguageCode:            "en",
		SpacedRepetitionEnabled: true,
	}
}
