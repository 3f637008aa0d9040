// Package domain contains core concepts of the chat wall.
// This file defines the Message entity and the payloads built from user input.
// No runtime, network, or UI logic should be added here.
package domain

import (
	"chat-wall/errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Message is one record of the "messages" collection.
type Message struct {
	ID        string // assigned by the store, never by the client
	Text      string
	Author    string
	CreatedAt time.Time
	UpdatedAt *time.Time // set only once the message has been edited
}

// Edited reports whether the store stamped an update on the message.
func (m Message) Edited() bool {
	return m.UpdatedAt != nil
}

// Before orders messages by creation time, then by id so that two messages
// stamped at the same instant still have a stable position.
func (m Message) Before(other Message) bool {
	if !m.CreatedAt.Equal(other.CreatedAt) {
		return m.CreatedAt.Before(other.CreatedAt)
	}
	return m.ID < other.ID
}

// Draft is what the user typed before the store accepted it.
type Draft struct {
	Text   string `validate:"required"`
	Author string `validate:"required"`
}

func (d Draft) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidDraft, err)
	}
	return nil
}

// Patch holds the fields merged into an existing message on edit.
type Patch struct {
	Text string `validate:"required"`
}

func (p Patch) Validate() error {
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrInvalidDraft, err)
	}
	return nil
}

// WriteFailure describes a store mutation that was abandoned.
// It feeds the failure indicator of the widget.
type WriteFailure struct {
	Op        string
	MessageID string
	Err       error
	At        time.Time
}

func (w WriteFailure) Error() string {
	if w.MessageID == "" {
		return fmt.Sprintf("%s: %v", w.Op, w.Err)
	}
	return fmt.Sprintf("%s %s: %v", w.Op, w.MessageID, w.Err)
}
