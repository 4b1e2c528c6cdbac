package models

// DifficultyLevel is the closed set of difficulty rankings used by topics,
// cards, and user preferences. Comparison goes through the explicit rank, not
// declaration order.
type DifficultyLevel string

const (
	DifficultyBeginner     DifficultyLevel = "BEGINNER"
	DifficultyIntermediate DifficultyLevel = "INTERMEDIATE"
	DifficultyAdvanced     DifficultyLevel = "ADVANCED"
	DifficultyExpert       DifficultyLevel = "EXPERT"
)

var difficultyRanks = map[DifficultyLevel]int{
	DifficultyBeginner:     1,
	DifficultyIntermediate: 2,
	DifficultyAdvanced:     3,
	DifficultyExpert:       4,
}

var difficultyNames = map[DifficultyLevel]string{
	DifficultyBeginner:     "Beginner",
	DifficultyIntermediate: "Intermediate",
	DifficultyAdvanced:     "Advanced",
	DifficultyExpert:       "Expert",
}

// Rank returns the numeric rank of the level (1 = beginner, 4 = expert).
// Unknown values rank as 0, below every valid level.
func (d DifficultyLevel) Rank() int {
	return difficultyRanks[d]
}

// Valid reports whether d is one of the known difficulty levels.
func (d DifficultyLevel) Valid() bool {
	_, ok := difficultyRanks[d]
	return ok
}

// DisplayName returns the human-readable name of the level.
func (d DifficultyLevel) DisplayName() string {
	return difficultyNames[d]
}

// IsHigherThan reports whether d ranks strictly above other.
func (d DifficultyLevel) IsHigherThan(other DifficultyLevel) bool {
	return d.Rank() > other.Rank()
}

// IsLowerThan reports whether d ranks strictly below other.
func (d DifficultyLevel) IsLowerThan(other DifficultyLevel) bool {
	return d.Rank() < other.Rank()
}

// ContentType describes the kind of study material a learning card holds.
type ContentType string

const (
	ContentQuestionAnswer ContentType = "QUESTION_ANSWER"
	ContentMultipleChoice ContentType = "MULTIPLE_CHOICE"
	ContentTrueFalse      ContentType = "TRUE_FALSE"
	ContentFillInBlank    ContentType = "FILL_IN_BLANK"
	ContentMatching       ContentType = "MATCHING"
	ContentExplanation    ContentType = "EXPLANATION"
	ContentExample        ContentType = "EXAMPLE"
	ContentDefinition     ContentType = "DEFINITION"
	ContentScenario       ContentType = "SCENARIO"
	ContentCalculation    ContentType = "CALCULATION"
)

var contentTypeNames = map[ContentType]string{
	ContentQuestionAnswer: "Question & Answer",
	ContentMultipleChoice: "Multiple Choice",
	ContentTrueFalse:      "True/False",
	ContentFillInBlank:    "Fill in the Blank",
	ContentMatching:       "Matching",
	ContentExplanation:    "Explanation",
	ContentExample:        "Example",
	ContentDefinition:     "Definition",
	ContentScenario:       "Scenario",
	ContentCalculation:    "Calculation",
}

// Valid reports whether c is a known content type.
func (c ContentType) Valid() bool {
	_, ok := contentTypeNames[c]
	return ok
}

// DisplayName returns the human-readable name of the content type.
func (c ContentType) DisplayName() string {
	return contentTypeNames[c]
}

// LearningStyle is a user's preferred mode of studying.
type LearningStyle string

const (
	StyleVisual         LearningStyle = "VISUAL"
	StyleAuditory       LearningStyle = "AUDITORY"
	StyleKinesthetic    LearningStyle = "KINESTHETIC"
	StyleReadingWriting LearningStyle = "READING_WRITING"
	StyleMixed          LearningStyle = "MIXED"
)

var learningStyleNames = map[LearningStyle]string{
	StyleVisual:         "Visual",
	StyleAuditory:       "Auditory",
	StyleKinesthetic:    "Kinesthetic",
	StyleReadingWriting: "Reading/Writing",
	StyleMixed:          "Mixed",
}

// Valid reports whether s is a known learning style.
func (s LearningStyle) Valid() bool {
	_, ok := learningStyleNames[s]
	return ok
}

// DisplayName returns the human-readable name of the style.
func (s LearningStyle) DisplayName() string {
	return learningStyleNames[s]
}
