package ircode

import (
	"encoding/base64"
	"fmt"
	"time"
)

// Category groups commands within a device's library. The set is closed.
// Free-form strings are rejected with ErrInvalidCategory.
type Category string

// Category constants.
const (
	CategoryPower       Category = "power"
	CategoryTemperature Category = "temperature"
	CategoryMode        Category = "mode"
	CategoryFan         Category = "fan"
	CategorySwing       Category = "swing"
	CategoryTimer       Category = "timer"
	CategoryCustom      Category = "custom"
)

// AllCategories returns every valid command category.
func AllCategories() []Category {
	return []Category{
		CategoryPower,
		CategoryTemperature,
		CategoryMode,
		CategoryFan,
		CategorySwing,
		CategoryTimer,
		CategoryCustom,
	}
}

// ParseCategory validates a category string.
// Returns ErrInvalidCategory for anything outside the closed set.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	switch c {
	case CategoryPower, CategoryTemperature, CategoryMode,
		CategoryFan, CategorySwing, CategoryTimer, CategoryCustom:
		return c, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
}

// Provenance tags where a code came from.
type Provenance string

// Provenance constants.
const (
	ProvenanceBuiltIn  Provenance = "built-in"
	ProvenanceLearned  Provenance = "learned"
	ProvenanceImported Provenance = "imported"
)

// CommandsEncoding identifies the textual encoding of code payloads in
// stored and exported form. Fixed for ecosystem compatibility.
const CommandsEncoding = "Base64"

// Code is a single infrared command. The payload is an opaque blob in
// Base64 form and is never mutated after creation; replacing a command
// stores a new Code value.
type Code struct {
	Category Category `json:"category"`
	Name     string   `json:"name"`

	// Payload is the Base64-encoded IR code as the device transmits it.
	Payload string `json:"payload"`

	// Signal metadata reported by the capture hardware, when known.
	Protocol  string `json:"protocol,omitempty"`
	Bits      int    `json:"bits,omitempty"`
	Frequency int    `json:"frequency,omitempty"`

	Provenance Provenance `json:"provenance"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Key identifies a command within a device's library.
// Names are case-sensitive and unique within a category.
type Key struct {
	Category Category
	Name     string
}

// DeepCopy returns an independent copy of the Code.
func (c *Code) DeepCopy() *Code {
	if c == nil {
		return nil
	}
	cpy := *c
	return &cpy
}

// ValidatePayload checks that a payload is non-empty and validly
// Base64-encoded.
func ValidatePayload(payload string) error {
	if payload == "" {
		return fmt.Errorf("%w: empty payload", ErrInvalidPayload)
	}
	if _, err := base64.StdEncoding.DecodeString(payload); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}
