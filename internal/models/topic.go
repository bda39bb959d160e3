package models

import "github.com/google/uuid"

type Topic struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
}

type AddTopicRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// UpdateTopicRequest fields are pointers so "not sent" and "set to empty"
// can be told apart.
type UpdateTopicRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
}
