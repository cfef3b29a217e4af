package device

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

// Validation constants.
const (
	// maxNameLength is the maximum length of a device name.
	maxNameLength = 100

	// maxTopicLength is the maximum length of a bus topic segment.
	maxTopicLength = 128
)

// slugPattern matches valid slugs: lowercase letters, digits, hyphens.
var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// GenerateID creates a new unique device identifier.
// Format: "dev-" followed by the first UUID block (e.g., "dev-a1b2c3d4").
func GenerateID() string {
	return "dev-" + uuid.NewString()[:8]
}

// GenerateSlug derives a URL-safe slug from a device name.
// "Lounge AC Blaster" becomes "lounge-ac-blaster".
func GenerateSlug(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '-'
		}
	}, slug)

	// Collapse runs of hyphens and trim the ends
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return strings.Trim(slug, "-")
}

// ValidateDevice checks a device for structural validity.
//
// Returns:
//   - error: wrapping ErrInvalidDevice (or a more specific sentinel), or nil
func ValidateDevice(d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}

	if d.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidDevice)
	}

	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}

	if !slugPattern.MatchString(d.Slug) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, d.Slug)
	}

	if err := validateTopic(d.Topic); err != nil {
		return err
	}

	return nil
}

// validateTopic checks a bus topic segment.
// Wildcards and separators would break subscription matching, so they
// are rejected outright.
func validateTopic(topic string) error {
	if topic == "" {
		return fmt.Errorf("%w: topic is required", ErrInvalidTopic)
	}
	if len(topic) > maxTopicLength {
		return fmt.Errorf("%w: topic exceeds %d characters", ErrInvalidTopic, maxTopicLength)
	}
	if strings.ContainsAny(topic, "+#/") {
		return fmt.Errorf("%w: topic must not contain '+', '#' or '/'", ErrInvalidTopic)
	}
	return nil
}
