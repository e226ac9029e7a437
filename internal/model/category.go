package model

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return errors.New("model: category id is required")
	}
	if strings.TrimSpace(c.Name) == "" {
		return errors.New("model: category name is required")
	}
	return nil
}

// NewID mints an opaque unique identifier for a task or category.
func NewID() string {
	return uuid.NewString()
}
