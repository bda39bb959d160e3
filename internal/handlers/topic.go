package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"quizforge-backend/internal/models"
	"quizforge-backend/internal/repository"
)

type TopicHandler struct {
	topicRepo *repository.TopicRepo
}

func NewTopicHandler(topicRepo *repository.TopicRepo) *TopicHandler {
	return &TopicHandler{topicRepo: topicRepo}
}

func (h *TopicHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.AddTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > 100 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Topic name must be 1-100 characters", r))
		return
	}

	if _, err := h.topicRepo.GetByName(r.Context(), name); err == nil {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "A topic with this name already exists", r))
		return
	}

	topic := &models.Topic{Name: name, Description: req.Description}
	if err := h.topicRepo.Create(r.Context(), topic); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to create topic", r))
		return
	}

	writeJSON(w, http.StatusCreated, topic)
}

func (h *TopicHandler) List(w http.ResponseWriter, r *http.Request) {
	topics, err := h.topicRepo.List(r.Context())
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch topics", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"topics": topics})
}

func (h *TopicHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid topic ID", r))
		return
	}

	topic, err := h.topicRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Topic not found", r))
		return
	}

	writeJSON(w, http.StatusOK, topic)
}

func (h *TopicHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid topic ID", r))
		return
	}

	topic, err := h.topicRepo.GetByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Topic not found", r))
		return
	}

	var req models.UpdateTopicRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid request body", r))
		return
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" || len(name) > 100 {
			writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Topic name must be 1-100 characters", r))
			return
		}
		if existing, err := h.topicRepo.GetByName(r.Context(), name); err == nil && existing.ID != id {
			writeJSON(w, http.StatusConflict, errorResp("CONFLICT", "A topic with this name already exists", r))
			return
		}
		topic.Name = name
	}
	if req.Description != nil {
		topic.Description = *req.Description
	}

	if err := h.topicRepo.Update(r.Context(), topic); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to update topic", r))
		return
	}

	writeJSON(w, http.StatusOK, topic)
}

func (h *TopicHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Invalid topic ID", r))
		return
	}

	if _, err := h.topicRepo.GetByID(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Topic not found", r))
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to fetch topic", r))
		return
	}

	// Deleting a topic cascades to its quizzes, questions and attempts, so
	// require an explicit opt-in when quizzes exist.
	count, err := h.topicRepo.CountQuizzes(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to check topic usage", r))
		return
	}
	if count > 0 && r.URL.Query().Get("force") != "true" {
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT",
			fmt.Sprintf("Topic has %d quizzes; pass force=true to delete them as well", count), r))
		return
	}

	if err := h.topicRepo.Delete(r.Context(), id); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to delete topic", r))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Topic deleted"})
}
