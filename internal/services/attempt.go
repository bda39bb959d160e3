package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"quizforge-backend/internal/models"
)

// CatalogStore is the read-only quiz content contract the attempt engine
// grades against. Questions come back with their full option list ordered
// by id; options carry their owning question id and correctness flag.
type CatalogStore interface {
	GetQuizByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	GetQuestionByID(ctx context.Context, id uuid.UUID) (*models.Question, error)
	GetOptionByID(ctx context.Context, id uuid.UUID) (*models.Option, error)
	CountQuestions(ctx context.Context, quizID uuid.UUID) (int, error)
}

// AttemptStore persists attempts and answers. The tx-scoped methods run
// inside the transaction opened by Begin so the submit path can lock the
// attempt row for its whole read-modify-write.
type AttemptStore interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Create(ctx context.Context, a *models.Attempt) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Attempt, error)
	GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*models.Attempt, error)
	HasIncomplete(ctx context.Context, userID, quizID uuid.UUID) (bool, error)
	ListByUserAndQuiz(ctx context.Context, userID, quizID uuid.UUID) ([]*models.Attempt, error)
	GetAnswer(ctx context.Context, tx pgx.Tx, attemptID, questionID uuid.UUID) (*models.Answer, error)
	SaveAnswer(ctx context.Context, tx pgx.Tx, a *models.Answer) error
	UpdateCounters(ctx context.Context, tx pgx.Tx, attemptID uuid.UUID, score, attemptedQuestions int) error
	Complete(ctx context.Context, id uuid.UUID, completedAt time.Time) (bool, error)
}

// AttemptService owns the attempt lifecycle: start, answer, re-answer,
// complete. Score and attempted-question counters are maintained
// incrementally, never recomputed from scratch.
type AttemptService struct {
	attempts AttemptStore
	catalog  CatalogStore
}

func NewAttemptService(attempts AttemptStore, catalog CatalogStore) *AttemptService {
	return &AttemptService{attempts: attempts, catalog: catalog}
}

// StartAttempt creates a new in-progress attempt, snapshotting the quiz's
// current question count. A user may hold at most one incomplete attempt per
// quiz; the partial unique index on attempts backs up the pre-check under
// concurrency.
func (s *AttemptService) StartAttempt(ctx context.Context, userID, quizID uuid.UUID) (*models.Attempt, error) {
	quiz, err := s.catalog.GetQuizByID(ctx, quizID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Quiz not found"}
		}
		return nil, err
	}

	hasIncomplete, err := s.attempts.HasIncomplete(ctx, userID, quizID)
	if err != nil {
		return nil, err
	}
	if hasIncomplete {
		return nil, &ConflictError{Message: "You have an incomplete attempt for this quiz"}
	}

	total, err := s.catalog.CountQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}

	attempt := &models.Attempt{
		UserID:             userID,
		QuizID:             quiz.ID,
		Score:              0,
		TotalQuestions:     total,
		AttemptedQuestions: 0,
		StartedAt:          time.Now(),
		IsCompleted:        false,
	}
	if err := s.attempts.Create(ctx, attempt); err != nil {
		if isUniqueViolation(err) {
			// Lost the race against a concurrent start.
			return nil, &ConflictError{Message: "You have an incomplete attempt for this quiz"}
		}
		return nil, err
	}

	log.Printf("[Start-Attempt] Created attempt %s for quiz %s by user %s", attempt.ID, quizID, userID)
	return attempt, nil
}

// ListAttempts returns the user's attempts for a quiz, completed and
// in-progress, each expanded with its answers.
func (s *AttemptService) ListAttempts(ctx context.Context, userID, quizID uuid.UUID) ([]*models.Attempt, error) {
	if _, err := s.catalog.GetQuizByID(ctx, quizID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Quiz not found"}
		}
		return nil, err
	}
	return s.attempts.ListByUserAndQuiz(ctx, userID, quizID)
}

// SubmitAnswer records or replaces the answer for one question of an
// in-progress attempt and returns grading feedback. The whole
// read-modify-write runs in one transaction with the attempt row locked, so
// concurrent submissions for the same attempt cannot double-count score.
// All preconditions are checked before any write; a failed submission leaves
// the attempt untouched.
func (s *AttemptService) SubmitAnswer(ctx context.Context, userID, attemptID, questionID, optionID uuid.UUID) (*models.AnswerFeedback, error) {
	tx, err := s.attempts.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin submit transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	attempt, err := s.attempts.GetForUpdate(ctx, tx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Attempt not found"}
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, &ForbiddenError{Message: "Attempt belongs to another user"}
	}
	if attempt.IsCompleted {
		return nil, &ConflictError{Message: "Attempt is already completed"}
	}

	question, err := s.catalog.GetQuestionByID(ctx, questionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Question not found"}
		}
		return nil, err
	}
	if question.QuizID != attempt.QuizID {
		return nil, &BadRequestError{Message: "Question does not belong to the attempt's quiz"}
	}

	option, err := s.catalog.GetOptionByID(ctx, optionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Selected option not found"}
		}
		return nil, err
	}
	if option.QuestionID != question.ID {
		return nil, &BadRequestError{Message: "Selected option does not belong to the question"}
	}

	// Resolve the canonical correct option before any write; a question
	// with no correct option is a data-integrity fault.
	correct, err := canonicalCorrectOption(question)
	if err != nil {
		return nil, err
	}

	prev, err := s.attempts.GetAnswer(ctx, tx, attemptID, questionID)
	if err != nil {
		if !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		prev = nil
	}

	scoreDelta, attemptedDelta := submissionDeltas(prev, option.IsCorrect)

	answer := &models.Answer{
		ID:               uuid.New(),
		AttemptID:        attemptID,
		QuestionID:       questionID,
		SelectedOptionID: option.ID,
		IsCorrect:        option.IsCorrect,
		AnsweredAt:       time.Now(),
	}
	if prev != nil {
		answer.ID = prev.ID
	}

	if err := s.attempts.SaveAnswer(ctx, tx, answer); err != nil {
		return nil, err
	}
	if err := s.attempts.UpdateCounters(ctx, tx, attemptID, attempt.Score+scoreDelta, attempt.AttemptedQuestions+attemptedDelta); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit submit transaction: %w", err)
	}

	log.Printf("[Submit-Answer] User %s answered question %s in attempt %s (correct=%t)", userID, questionID, attemptID, answer.IsCorrect)

	return &models.AnswerFeedback{
		QuestionID:         question.ID,
		QuestionTitle:      question.Title,
		SelectedOptionID:   option.ID,
		SelectedOptionText: option.OptionText,
		IsCorrect:          answer.IsCorrect,
		CorrectOptionID:    correct.ID,
		CorrectOptionText:  correct.OptionText,
	}, nil
}

// CompleteAttempt marks an attempt finished. Completion is an explicit
// caller operation; answering every question does not complete the attempt
// automatically.
func (s *AttemptService) CompleteAttempt(ctx context.Context, userID, attemptID uuid.UUID) (*models.Attempt, error) {
	attempt, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &NotFoundError{Message: "Attempt not found"}
		}
		return nil, err
	}
	if attempt.UserID != userID {
		return nil, &ForbiddenError{Message: "Attempt belongs to another user"}
	}
	if attempt.IsCompleted {
		return nil, &ConflictError{Message: "Attempt is already completed"}
	}

	now := time.Now()
	done, err := s.attempts.Complete(ctx, attemptID, now)
	if err != nil {
		return nil, err
	}
	if !done {
		return nil, &ConflictError{Message: "Attempt is already completed"}
	}

	attempt.IsCompleted = true
	attempt.CompletedAt = &now
	log.Printf("[Complete-Attempt] Attempt %s completed by user %s (score %d/%d)", attemptID, userID, attempt.Score, attempt.TotalQuestions)
	return attempt, nil
}

// submissionDeltas computes the score and attempted-question adjustments for
// a submission. A first answer counts the question once and scores it if
// correct; a re-answer only moves the score when correctness flips, compared
// against the previously stored snapshot.
func submissionDeltas(prev *models.Answer, optionCorrect bool) (scoreDelta, attemptedDelta int) {
	if prev == nil {
		if optionCorrect {
			return 1, 1
		}
		return 0, 1
	}
	switch {
	case prev.IsCorrect && !optionCorrect:
		return -1, 0
	case !prev.IsCorrect && optionCorrect:
		return 1, 0
	default:
		return 0, 0
	}
}

// canonicalCorrectOption picks the correct option used for feedback: the
// lowest-id option flagged correct. Options arrive id-ordered from the
// catalog, so the first hit is the canonical one.
func canonicalCorrectOption(question *models.Question) (*models.Option, error) {
	for i := range question.Options {
		if question.Options[i].IsCorrect {
			return &question.Options[i], nil
		}
	}
	return nil, &InternalError{Message: "Question has no correct option configured"}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
