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

type QuestionHandler struct {
	questionRepo *repository.QuestionRepo
	quizRepo     *repository.QuizRepo
}

func NewQuestionHandler(questionRepo *repository.QuestionRepo, quizRepo *repository.QuizRepo) *QuestionHandler {
	return &QuestionHandler{questionRepo: questionRepo, quizRepo: quizRepo}
}

// Create adds a question with its full option set. Every question must carry
// at least two options with exactly one marked correct, so grading always has
// an unambiguous answer key.
func (h *QuestionHandler) Create(w http.ResponseWriter, r *http.Request) {
	quizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	if _, err := h.quizRepo.GetByID(r.Context(), quizID); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
		return
	}

	var req models.AddQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > 200 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Question title must be 1-200 characters", r))
		return
	}
	if msg := validateOptionSet(req.Options); msg != "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", msg, r))
		return
	}

	if _, err := h.questionRepo.GetByQuizAndTitle(r.Context(), quizID, title); err == nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "This quiz already has a question with this title", r))
		return
	}

	question := &models.Question{
		QuizID:      quizID,
		Title:       title,
		OrderNumber: req.OrderNumber,
	}
	options := make([]models.Option, len(req.Options))
	for i, o := range req.Options {
		options[i] = models.Option{
			OptionText: strings.TrimSpace(o.OptionText),
			IsCorrect:  o.IsCorrect,
		}
	}

	if err := h.questionRepo.Create(r.Context(), question, options); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create question", r))
		return
	}

	writeJSON(w, http.StatusCreated, question)
}

func (h *QuestionHandler) ListByQuiz(w http.ResponseWriter, r *http.Request) {
	quizID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid quiz ID", r))
		return
	}

	if _, err := h.quizRepo.GetByID(r.Context(), quizID); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Quiz not found", r))
		return
	}

	questions, err := h.questionRepo.ListByQuiz(r.Context(), quizID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch questions", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"questions": questions})
}

func (h *QuestionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid question ID", r))
		return
	}

	question, err := h.questionRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Question not found", r))
		return
	}

	var req models.UpdateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	title := strings.TrimSpace(req.Title)
	if title == "" || len(title) > 200 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Question title must be 1-200 characters", r))
		return
	}
	if existing, err := h.questionRepo.GetByQuizAndTitle(r.Context(), question.QuizID, title); err == nil && existing.ID != id {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "This quiz already has a question with this title", r))
		return
	}

	question.Title = title
	question.OrderNumber = req.OrderNumber

	if err := h.questionRepo.Update(r.Context(), question); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update question", r))
		return
	}

	writeJSON(w, http.StatusOK, question)
}

// Delete refuses when recorded answers reference the question; removing it
// would falsify attempt history.
func (h *QuestionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid question ID", r))
		return
	}

	if _, err := h.questionRepo.GetByID(r.Context(), id); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Question not found", r))
		return
	}

	hasAnswers, err := h.questionRepo.HasAnswers(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to check question usage", r))
		return
	}
	if hasAnswers {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Question has recorded answers and cannot be deleted", r))
		return
	}

	if err := h.questionRepo.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete question", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Question deleted"})
}

func (h *QuestionHandler) AddOption(w http.ResponseWriter, r *http.Request) {
	questionID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid question ID", r))
		return
	}

	if _, err := h.questionRepo.GetByID(r.Context(), questionID); err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Question not found", r))
		return
	}

	var req models.AddOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	text := strings.TrimSpace(req.OptionText)
	if text == "" || len(text) > 100 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Option text must be 1-100 characters", r))
		return
	}
	if _, err := h.questionRepo.GetOptionByText(r.Context(), questionID, text); err == nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "This question already has an option with this text", r))
		return
	}

	// A question carries exactly one correct option.
	if req.IsCorrect {
		correct, err := h.questionRepo.CountCorrectOptions(r.Context(), questionID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to check options", r))
			return
		}
		if correct > 0 {
			writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Question already has a correct option", r))
			return
		}
	}

	option := &models.Option{QuestionID: questionID, OptionText: text, IsCorrect: req.IsCorrect}
	if err := h.questionRepo.AddOption(r.Context(), option); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to add option", r))
		return
	}

	writeJSON(w, http.StatusCreated, option)
}

func (h *QuestionHandler) UpdateOption(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "optionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid option ID", r))
		return
	}

	option, err := h.questionRepo.GetOptionByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Option not found", r))
		return
	}

	var req models.UpdateOptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	text := strings.TrimSpace(req.OptionText)
	if text == "" || len(text) > 100 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Option text must be 1-100 characters", r))
		return
	}
	if existing, err := h.questionRepo.GetOptionByText(r.Context(), option.QuestionID, text); err == nil && existing.ID != id {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "This question already has an option with this text", r))
		return
	}

	// Demoting the only correct option would leave the question ungradable.
	// Promote the replacement instead; the old correct option is demoted here.
	if option.IsCorrect && !req.IsCorrect {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Mark another option as correct instead of unmarking this one", r))
		return
	}
	if !option.IsCorrect && req.IsCorrect {
		if err := h.demoteCurrentCorrect(r, option.QuestionID, id); err != nil {
			writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update options", r))
			return
		}
	}

	option.OptionText = text
	option.IsCorrect = req.IsCorrect
	if err := h.questionRepo.UpdateOption(r.Context(), option); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update option", r))
		return
	}

	writeJSON(w, http.StatusOK, option)
}

// demoteCurrentCorrect clears the correct flag on whichever sibling option
// currently holds it, so promoting another keeps exactly one correct.
func (h *QuestionHandler) demoteCurrentCorrect(r *http.Request, questionID, promotedID uuid.UUID) error {
	options, err := h.questionRepo.ListOptions(r.Context(), questionID)
	if err != nil {
		return err
	}
	for i := range options {
		if options[i].IsCorrect && options[i].ID != promotedID {
			options[i].IsCorrect = false
			if err := h.questionRepo.UpdateOption(r.Context(), &options[i]); err != nil {
				return err
			}
		}
	}
	return nil
}

// DeleteOption refuses when the option is referenced by answers, is the
// question's correct option, or is one of only two remaining options.
func (h *QuestionHandler) DeleteOption(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "optionID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid option ID", r))
		return
	}

	option, err := h.questionRepo.GetOptionByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Option not found", r))
		return
	}

	if option.IsCorrect {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Cannot delete the question's correct option", r))
		return
	}

	hasAnswers, err := h.questionRepo.OptionHasAnswers(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to check option usage", r))
		return
	}
	if hasAnswers {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Option has recorded answers and cannot be deleted", r))
		return
	}

	count, err := h.questionRepo.CountOptions(r.Context(), option.QuestionID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to check options", r))
		return
	}
	if count <= 2 {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "Question must keep at least two options", r))
		return
	}

	if err := h.questionRepo.DeleteOption(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete option", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Option deleted"})
}

// validateOptionSet checks a new question's options: at least two, exactly
// one correct, no duplicate texts. Returns an empty string when valid.
func validateOptionSet(options []models.AddOptionRequest) string {
	if len(options) < 2 {
		return "Question must have at least two options"
	}
	correct := 0
	seen := make(map[string]bool)
	for _, o := range options {
		text := strings.TrimSpace(o.OptionText)
		if text == "" || len(text) > 100 {
			return "Option text must be 1-100 characters"
		}
		key := strings.ToLower(text)
		if seen[key] {
			return "Options must have distinct texts"
		}
		seen[key] = true
		if o.IsCorrect {
			correct++
		}
	}
	if correct != 1 {
		return "Question must have exactly one correct option"
	}
	return ""
}
