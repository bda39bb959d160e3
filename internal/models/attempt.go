package models

import (
	"time"

	"github.com/google/uuid"
)

// Attempt is one user's run through a quiz. TotalQuestions is snapshotted
// when the attempt starts and never revised; Score and AttemptedQuestions
// are maintained incrementally on every answer submission.
type Attempt struct {
	ID                 uuid.UUID  `json:"id"`
	UserID             uuid.UUID  `json:"user_id"`
	QuizID             uuid.UUID  `json:"quiz_id"`
	Score              int        `json:"score"`
	TotalQuestions     int        `json:"total_questions"`
	AttemptedQuestions int        `json:"attempted_questions"`
	StartedAt          time.Time  `json:"started_at"`
	CompletedAt        *time.Time `json:"completed_at"`
	IsCompleted        bool       `json:"is_completed"`
	Answers            []Answer   `json:"answers,omitempty"`
}

// Answer records the user's current selection for one question within one
// attempt. IsCorrect is a snapshot taken at submission time; it is never
// recomputed from the option afterwards. At most one row exists per
// (attempt, question) pair.
type Answer struct {
	ID               uuid.UUID `json:"id"`
	AttemptID        uuid.UUID `json:"attempt_id"`
	QuestionID       uuid.UUID `json:"question_id"`
	SelectedOptionID uuid.UUID `json:"selected_option_id"`
	IsCorrect        bool      `json:"is_correct"`
	AnsweredAt       time.Time `json:"answered_at"`
}

type SubmitAnswerRequest struct {
	QuestionID       uuid.UUID `json:"question_id"`
	SelectedOptionID uuid.UUID `json:"selected_option_id"`
}

// AnswerFeedback tells the caller whether their choice was correct and what
// the correct choice was.
type AnswerFeedback struct {
	QuestionID         uuid.UUID `json:"question_id"`
	QuestionTitle      string    `json:"question_title"`
	SelectedOptionID   uuid.UUID `json:"selected_option_id"`
	SelectedOptionText string    `json:"selected_option_text"`
	IsCorrect          bool      `json:"is_correct"`
	CorrectOptionID    uuid.UUID `json:"correct_option_id"`
	CorrectOptionText  string    `json:"correct_option_text"`
}
