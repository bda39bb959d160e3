package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	DifficultyEasy   = "EASY"
	DifficultyMedium = "MEDIUM"
	DifficultyHard   = "HARD"
)

type Quiz struct {
	ID               uuid.UUID `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	TopicID          uuid.UUID `json:"topic_id"`
	TimeLimitMinutes *int      `json:"time_limit_minutes"`
	Difficulty       string    `json:"difficulty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// Question carries its owning quiz id and, when loaded through the catalog,
// its full option list ordered by id.
type Question struct {
	ID          uuid.UUID `json:"id"`
	QuizID      uuid.UUID `json:"quiz_id"`
	Title       string    `json:"title"`
	OrderNumber int       `json:"order_number"`
	Options     []Option  `json:"options,omitempty"`
}

type Option struct {
	ID         uuid.UUID `json:"id"`
	QuestionID uuid.UUID `json:"question_id"`
	OptionText string    `json:"option_text"`
	IsCorrect  bool      `json:"is_correct"`
}

type AddQuizRequest struct {
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	TopicID          uuid.UUID `json:"topic_id"`
	TimeLimitMinutes *int      `json:"time_limit_minutes"`
	Difficulty       string    `json:"difficulty"`
}

type UpdateQuizRequest struct {
	Title            *string `json:"title"`
	Description      *string `json:"description"`
	TimeLimitMinutes *int    `json:"time_limit_minutes"`
	Difficulty       *string `json:"difficulty"`
}

type AddQuestionRequest struct {
	QuizID      uuid.UUID          `json:"quiz_id"`
	Title       string             `json:"title"`
	OrderNumber int                `json:"order_number"`
	Options     []AddOptionRequest `json:"options"`
}

type UpdateQuestionRequest struct {
	Title       string `json:"title"`
	OrderNumber int    `json:"order_number"`
}

type AddOptionRequest struct {
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct"`
}

type UpdateOptionRequest struct {
	OptionText string `json:"option_text"`
	IsCorrect  bool   `json:"is_correct"`
}
