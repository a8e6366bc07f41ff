package middleware

import (
	"errors"
	"strings"
	"unicode/utf8"
)

// ValidateTopic validates a conversation topic.
func ValidateTopic(topic string) error {
	if len(strings.TrimSpace(topic)) == 0 {
		return errors.New("topic cannot be empty")
	}
	if len(topic) > 2000 {
		return errors.New("topic exceeds maximum length")
	}
	if !utf8.ValidString(topic) {
		return errors.New("topic must be valid UTF-8")
	}
	return nil
}

// ValidateSpecificationText validates free-text team specification input.
func ValidateSpecificationText(text string) error {
	if len(strings.TrimSpace(text)) == 0 {
		return errors.New("specification text cannot be empty")
	}
	if len(text) > 10000 {
		return errors.New("specification text exceeds maximum length")
	}
	if !utf8.ValidString(text) {
		return errors.New("specification text must be valid UTF-8")
	}
	return nil
}

// ValidateAgentID validates an agent identifier.
func ValidateAgentID(id string) error {
	if len(id) == 0 {
		return errors.New("agent ID cannot be empty")
	}
	if len(id) > 64 {
		return errors.New("agent ID exceeds maximum length")
	}
	return nil
}
