package device

import (
	"errors"
	"strings"
	"testing"
)

func TestGenerateID(t *testing.T) {
	id := GenerateID()
	if !strings.HasPrefix(id, "dev-") {
		t.Errorf("GenerateID() = %q, want dev- prefix", id)
	}
	if len(id) != len("dev-")+8 {
		t.Errorf("GenerateID() length = %d, want %d", len(id), len("dev-")+8)
	}
	if GenerateID() == id {
		t.Error("GenerateID() returned duplicate identifiers")
	}
}

func TestGenerateSlug(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"simple", "Lounge", "lounge"},
		{"spaces", "Lounge AC Blaster", "lounge-ac-blaster"},
		{"punctuation", "Bob's  IR (v2)", "bob-s-ir-v2"},
		{"leading trailing", "  - Office -  ", "office"},
		{"digits", "Blaster 2000", "blaster-2000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateSlug(tt.in); got != tt.want {
				t.Errorf("GenerateSlug(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestValidateDevice(t *testing.T) {
	valid := func() *Device {
		return &Device{
			ID:    "dev-abc12345",
			Name:  "Lounge Blaster",
			Slug:  "lounge-blaster",
			Topic: "lounge_ir",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Device)
		wantErr error
	}{
		{"valid", func(d *Device) {}, nil},
		{"missing id", func(d *Device) { d.ID = "" }, ErrInvalidDevice},
		{"missing name", func(d *Device) { d.Name = "" }, ErrInvalidName},
		{"whitespace name", func(d *Device) { d.Name = "   " }, ErrInvalidName},
		{"name too long", func(d *Device) { d.Name = strings.Repeat("x", maxNameLength+1) }, ErrInvalidName},
		{"bad slug uppercase", func(d *Device) { d.Slug = "Lounge" }, ErrInvalidSlug},
		{"bad slug trailing hyphen", func(d *Device) { d.Slug = "lounge-" }, ErrInvalidSlug},
		{"empty slug", func(d *Device) { d.Slug = "" }, ErrInvalidSlug},
		{"missing topic", func(d *Device) { d.Topic = "" }, ErrInvalidTopic},
		{"topic too long", func(d *Device) { d.Topic = strings.Repeat("t", maxTopicLength+1) }, ErrInvalidTopic},
		{"topic plus wildcard", func(d *Device) { d.Topic = "ir+" }, ErrInvalidTopic},
		{"topic hash wildcard", func(d *Device) { d.Topic = "ir#" }, ErrInvalidTopic},
		{"topic separator", func(d *Device) { d.Topic = "a/b" }, ErrInvalidTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid()
			tt.mutate(d)
			err := ValidateDevice(d)
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("ValidateDevice() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDevice() error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	if err := ValidateDevice(nil); !errors.Is(err, ErrInvalidDevice) {
		t.Errorf("ValidateDevice(nil) error = %v, want ErrInvalidDevice", err)
	}
}

func TestDevice_DeepCopy(t *testing.T) {
	var nilDevice *Device
	if nilDevice.DeepCopy() != nil {
		t.Error("DeepCopy() on nil should return nil")
	}

	original := &Device{
		ID:              "dev-1",
		Name:            "Original",
		SupportedModels: []string{"UFO-R11"},
	}

	cpy := original.DeepCopy()
	cpy.SupportedModels[0] = "changed"
	if original.SupportedModels[0] != "UFO-R11" {
		t.Error("DeepCopy() shares the supported_models slice")
	}
}
