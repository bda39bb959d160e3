package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"quizforge-backend/internal/models"
	"quizforge-backend/internal/repository"
)

type QuizHandler struct {
	quizRepo     *repository.QuizRepo
	topicRepo    *repository.TopicRepo
	questionRepo *repository.QuestionRepo
}

func NewQuizHandler(quizRepo *repository.QuizRepo, topicRepo *repository.TopicRepo, questionRepo *repository.QuestionRepo) *QuizHandler {
	return &QuizHandler{
		quizRepo:     quizRepo,
		topicRepo:    topicRepo,
		questionRepo: questionRepo,
	}
}

func validDifficulty(d string) bool {
	switch d {
	case models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		return true
	}
	return false
}

func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.AddQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > 150 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Quiz title must be 1-150 characters", r))
		return
	}
	if !validDifficulty(req.Difficulty) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Difficulty must be EASY, MEDIUM or HARD", r))
		return
	}
	if req.TimeLimitMinutes != nil && *req.TimeLimitMinutes <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Time limit must be positive", r))
		return
	}

	if _, err := h.topicRepo.GetByID(r.Context(), req.TopicID); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Topic not found", r))
		return
	}
	if _, err := h.quizRepo.GetByTitle(r.Context(), title); err == nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "A quiz with this title already exists", r))
		return
	}

	quiz := &models.Quiz{
		Title:            title,
		Description:      req.Description,
		TopicID:          req.TopicID,
		TimeLimitMinutes: req.TimeLimitMinutes,
		Difficulty:       req.Difficulty,
	}
	if err := h.quizRepo.Create(r.Context(), quiz); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create quiz", r))
		return
	}

	writeJSON(w, http.StatusCreated, quiz)
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.quizRepo.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch quizzes", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"quizzes": quizzes})
}

// Get returns the quiz together with its questions and options.
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	quiz, err := h.quizRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
		return
	}

	questions, err := h.questionRepo.ListByQuiz(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch questions", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quiz":      quiz,
		"questions": questions,
	})
}

func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	quiz, err := h.quizRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
		return
	}

	var req models.UpdateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" || len(title) > 150 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Quiz title must be 1-150 characters", r))
			return
		}
		if existing, err := h.quizRepo.GetByTitle(r.Context(), title); err == nil && existing.ID != id {
			writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "A quiz with this title already exists", r))
			return
		}
		quiz.Title = title
	}
	if req.Description != nil {
		quiz.Description = *req.Description
	}
	if req.TimeLimitMinutes != nil {
		if *req.TimeLimitMinutes <= 0 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Time limit must be positive", r))
			return
		}
		quiz.TimeLimitMinutes = req.TimeLimitMinutes
	}
	if req.Difficulty != nil {
		if !validDifficulty(*req.Difficulty) {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Difficulty must be EASY, MEDIUM or HARD", r))
			return
		}
		quiz.Difficulty = *req.Difficulty
	}

	if err := h.quizRepo.Update(r.Context(), quiz); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update quiz", r))
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	if _, err := h.quizRepo.GetByID(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
		return
	}

	if err := h.quizRepo.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete quiz", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Quiz deleted"})
}
