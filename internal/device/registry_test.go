package device

import (
	"context"
	"errors"
	"testing"
	"time"
)

// MockRepository implements Repository for testing without a database.
type MockRepository struct {
	devices map[string]*Device

	createErr error
	updateErr error
	deleteErr error
	listErr   error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{devices: make(map[string]*Device)}
}

func (m *MockRepository) GetByID(_ context.Context, id string) (*Device, error) {
	d, ok := m.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return d.DeepCopy(), nil
}

func (m *MockRepository) GetByTopic(_ context.Context, topic string) (*Device, error) {
	for _, d := range m.devices {
		if d.Topic == topic {
			return d.DeepCopy(), nil
		}
	}
	return nil, ErrDeviceNotFound
}

func (m *MockRepository) List(_ context.Context) ([]Device, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := make([]Device, 0, len(m.devices))
	for _, d := range m.devices {
		out = append(out, *d.DeepCopy())
	}
	return out, nil
}

func (m *MockRepository) Create(_ context.Context, d *Device) error {
	if m.createErr != nil {
		return m.createErr
	}
	if _, exists := m.devices[d.ID]; exists {
		return ErrDeviceExists
	}
	m.devices[d.ID] = d.DeepCopy()
	return nil
}

func (m *MockRepository) Update(_ context.Context, d *Device) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	if _, exists := m.devices[d.ID]; !exists {
		return ErrDeviceNotFound
	}
	m.devices[d.ID] = d.DeepCopy()
	return nil
}

func (m *MockRepository) Delete(_ context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, exists := m.devices[id]; !exists {
		return ErrDeviceNotFound
	}
	delete(m.devices, id)
	return nil
}

func (m *MockRepository) UpdateAvailability(_ context.Context, id string, availability Availability, lastSeen time.Time) error {
	d, ok := m.devices[id]
	if !ok {
		return ErrDeviceNotFound
	}
	d.Availability = availability
	ts := lastSeen
	d.LastSeen = &ts
	return nil
}

func newTestRegistry(t *testing.T) (*Registry, *MockRepository) {
	t.Helper()
	repo := NewMockRepository()
	reg, err := NewRegistry(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}
	return reg, repo
}

func TestRegistry_Create(t *testing.T) {
	reg, repo := newTestRegistry(t)

	created, err := reg.Create(context.Background(), &Device{
		Name:         "Lounge AC Blaster",
		Topic:        "lounge_ir",
		Manufacturer: "MOES",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if created.ID == "" {
		t.Error("Create() did not generate an ID")
	}
	if created.Slug != "lounge-ac-blaster" {
		t.Errorf("Create() slug = %q, want %q", created.Slug, "lounge-ac-blaster")
	}
	if created.Controller != DefaultController {
		t.Errorf("Create() controller = %q, want %q", created.Controller, DefaultController)
	}
	if created.Availability != AvailabilityUnknown {
		t.Errorf("Create() availability = %q, want %q", created.Availability, AvailabilityUnknown)
	}

	if _, ok := repo.devices[created.ID]; !ok {
		t.Error("Create() did not persist to the repository")
	}
}

func TestRegistry_Create_DuplicateTopic(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.Create(context.Background(), &Device{Name: "First", Topic: "ir_one"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	_, err = reg.Create(context.Background(), &Device{Name: "Second", Topic: "ir_one"})
	if !errors.Is(err, ErrTopicExists) {
		t.Errorf("Create() error = %v, want ErrTopicExists", err)
	}
}

func TestRegistry_Create_Invalid(t *testing.T) {
	reg, _ := newTestRegistry(t)

	tests := []struct {
		name    string
		device  *Device
		wantErr error
	}{
		{"nil device", nil, ErrInvalidDevice},
		{"empty name", &Device{Topic: "ir"}, ErrInvalidName},
		{"empty topic", &Device{Name: "Thing"}, ErrInvalidTopic},
		{"topic with wildcard", &Device{Name: "Thing", Topic: "ir/+"}, ErrInvalidTopic},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reg.Create(context.Background(), tt.device)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Create() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRegistry_Get(t *testing.T) {
	reg, _ := newTestRegistry(t)

	created, err := reg.Create(context.Background(), &Device{Name: "Bedroom", Topic: "bedroom_ir"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := reg.Get(created.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Name != "Bedroom" {
		t.Errorf("Get() name = %q, want %q", got.Name, "Bedroom")
	}

	// Mutating the returned copy must not affect the cache.
	got.Name = "Mutated"
	again, _ := reg.Get(created.ID)
	if again.Name != "Bedroom" {
		t.Error("Get() returned a reference into the cache, not a copy")
	}

	if _, err := reg.Get("dev-missing"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Get() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_GetByTopic(t *testing.T) {
	reg, _ := newTestRegistry(t)

	created, err := reg.Create(context.Background(), &Device{Name: "Office", Topic: "office_ir"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	got, err := reg.GetByTopic("office_ir")
	if err != nil {
		t.Fatalf("GetByTopic() error = %v", err)
	}
	if got.ID != created.ID {
		t.Errorf("GetByTopic() id = %q, want %q", got.ID, created.ID)
	}

	if _, err := reg.GetByTopic("nope"); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("GetByTopic() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_Update(t *testing.T) {
	reg, _ := newTestRegistry(t)

	created, err := reg.Create(context.Background(), &Device{Name: "Old Name", Topic: "study_ir"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	created.Name = "New Name"
	created.Topic = "study_ir_2"
	updated, err := reg.Update(context.Background(), created)
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if updated.Name != "New Name" {
		t.Errorf("Update() name = %q, want %q", updated.Name, "New Name")
	}

	// Old topic index entry must be released.
	if _, err := reg.GetByTopic("study_ir"); !errors.Is(err, ErrDeviceNotFound) {
		t.Error("Update() left stale topic index entry")
	}
	if _, err := reg.GetByTopic("study_ir_2"); err != nil {
		t.Errorf("GetByTopic() after update error = %v", err)
	}
}

func TestRegistry_Update_TopicCollision(t *testing.T) {
	reg, _ := newTestRegistry(t)

	_, err := reg.Create(context.Background(), &Device{Name: "A", Topic: "topic_a"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	b, err := reg.Create(context.Background(), &Device{Name: "B", Topic: "topic_b"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	b.Topic = "topic_a"
	if _, err := reg.Update(context.Background(), b); !errors.Is(err, ErrTopicExists) {
		t.Errorf("Update() error = %v, want ErrTopicExists", err)
	}
}

func TestRegistry_Delete(t *testing.T) {
	reg, repo := newTestRegistry(t)

	created, err := reg.Create(context.Background(), &Device{Name: "Doomed", Topic: "doomed_ir"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := reg.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := reg.Get(created.ID); !errors.Is(err, ErrDeviceNotFound) {
		t.Error("Delete() left device in cache")
	}
	if _, err := reg.GetByTopic("doomed_ir"); !errors.Is(err, ErrDeviceNotFound) {
		t.Error("Delete() left stale topic index entry")
	}
	if _, ok := repo.devices[created.ID]; ok {
		t.Error("Delete() left device in repository")
	}

	if err := reg.Delete(context.Background(), created.ID); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("Delete() twice error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_SetAvailability(t *testing.T) {
	reg, _ := newTestRegistry(t)

	created, err := reg.Create(context.Background(), &Device{Name: "Watched", Topic: "watched_ir"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if err := reg.SetAvailability(context.Background(), "watched_ir", AvailabilityOnline); err != nil {
		t.Fatalf("SetAvailability() error = %v", err)
	}

	got, _ := reg.Get(created.ID)
	if got.Availability != AvailabilityOnline {
		t.Errorf("availability = %q, want %q", got.Availability, AvailabilityOnline)
	}
	if got.LastSeen == nil {
		t.Error("SetAvailability() did not record last_seen")
	}

	if err := reg.SetAvailability(context.Background(), "unknown_topic", AvailabilityOnline); !errors.Is(err, ErrDeviceNotFound) {
		t.Errorf("SetAvailability() error = %v, want ErrDeviceNotFound", err)
	}
}

func TestRegistry_LoadsExistingDevices(t *testing.T) {
	repo := NewMockRepository()
	repo.devices["dev-existing"] = &Device{
		ID:    "dev-existing",
		Name:  "Preloaded",
		Slug:  "preloaded",
		Topic: "preloaded_ir",
	}

	reg, err := NewRegistry(context.Background(), repo, nil)
	if err != nil {
		t.Fatalf("NewRegistry() error = %v", err)
	}

	if reg.Count() != 1 {
		t.Errorf("Count() = %d, want 1", reg.Count())
	}
	if _, err := reg.GetByTopic("preloaded_ir"); err != nil {
		t.Errorf("GetByTopic() error = %v", err)
	}
}

func TestRegistry_LoadFailure(t *testing.T) {
	repo := NewMockRepository()
	repo.listErr = errors.New("db gone")

	if _, err := NewRegistry(context.Background(), repo, nil); err == nil {
		t.Error("NewRegistry() expected error when repository list fails")
	}
}
