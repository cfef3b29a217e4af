package ircode

import (
	"context"
	"errors"
	"strings"
	"testing"
)

// MockRepository implements Repository for testing without a database.
type MockRepository struct {
	codes map[string]map[Key]*Code // device ID -> library

	listErr   error
	upsertErr error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{codes: make(map[string]map[Key]*Code)}
}

func (m *MockRepository) ListByDevice(_ context.Context, deviceID string) ([]Code, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []Code
	for _, c := range m.codes[deviceID] {
		out = append(out, *c.DeepCopy())
	}
	return out, nil
}

func (m *MockRepository) Upsert(_ context.Context, deviceID string, c *Code) error {
	if m.upsertErr != nil {
		return m.upsertErr
	}
	if m.codes[deviceID] == nil {
		m.codes[deviceID] = make(map[Key]*Code)
	}
	m.codes[deviceID][Key{Category: c.Category, Name: c.Name}] = c.DeepCopy()
	return nil
}

func (m *MockRepository) DeleteAll(_ context.Context, deviceID string) (int, error) {
	n := len(m.codes[deviceID])
	delete(m.codes, deviceID)
	return n, nil
}

func newTestStore() (*Store, *MockRepository) {
	repo := NewMockRepository()
	return NewStore(repo, nil), repo
}

// validPayload is "power on" encoded; any well-formed Base64 works.
const validPayload = "cG93ZXIgb24="

func TestParseCategory(t *testing.T) {
	for _, c := range AllCategories() {
		if _, err := ParseCategory(string(c)); err != nil {
			t.Errorf("ParseCategory(%q) error = %v", c, err)
		}
	}

	for _, bad := range []string{"", "volume", "POWER", "power "} {
		if _, err := ParseCategory(bad); !errors.Is(err, ErrInvalidCategory) {
			t.Errorf("ParseCategory(%q) error = %v, want ErrInvalidCategory", bad, err)
		}
	}
}

func TestValidatePayload(t *testing.T) {
	if err := ValidatePayload(validPayload); err != nil {
		t.Errorf("ValidatePayload() error = %v", err)
	}
	if err := ValidatePayload(""); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("ValidatePayload(empty) error = %v, want ErrInvalidPayload", err)
	}
	if err := ValidatePayload("not!!valid!!base64"); !errors.Is(err, ErrInvalidPayload) {
		t.Errorf("ValidatePayload(garbage) error = %v, want ErrInvalidPayload", err)
	}
}

func TestStore_PutAndGet(t *testing.T) {
	store, repo := newTestStore()
	ctx := context.Background()

	code := &Code{
		Category:   CategoryPower,
		Name:       "on",
		Payload:    validPayload,
		Provenance: ProvenanceLearned,
	}
	if err := store.Put(ctx, "dev-1", code); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	got, err := store.Get(ctx, "dev-1", CategoryPower, "on")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Payload != validPayload {
		t.Errorf("Get() payload = %q, want %q", got.Payload, validPayload)
	}

	if _, ok := repo.codes["dev-1"][Key{CategoryPower, "on"}]; !ok {
		t.Error("Put() did not persist to the repository")
	}

	if _, err := store.Get(ctx, "dev-1", CategoryPower, "off"); !errors.Is(err, ErrCommandNotFound) {
		t.Errorf("Get() error = %v, want ErrCommandNotFound", err)
	}
}

func TestStore_Put_Overwrites(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	first := &Code{Category: CategoryPower, Name: "on", Payload: validPayload, Provenance: ProvenanceBuiltIn}
	if err := store.Put(ctx, "dev-1", first); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	replacement := &Code{Category: CategoryPower, Name: "on", Payload: "bmV3IGNvZGU=", Provenance: ProvenanceLearned}
	if err := store.Put(ctx, "dev-1", replacement); err != nil {
		t.Fatalf("Put() replace error = %v", err)
	}

	got, _ := store.Get(ctx, "dev-1", CategoryPower, "on")
	if got.Payload != "bmV3IGNvZGU=" {
		t.Errorf("Get() after replace payload = %q, want replacement", got.Payload)
	}
	if got.Provenance != ProvenanceLearned {
		t.Errorf("Get() provenance = %q, want %q", got.Provenance, ProvenanceLearned)
	}

	n, _ := store.Count(ctx, "dev-1")
	if n != 1 {
		t.Errorf("Count() = %d, want 1 after in-place replace", n)
	}
}

func TestStore_Put_Validation(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	tests := []struct {
		name    string
		code    *Code
		wantErr error
	}{
		{"invalid category", &Code{Category: "volume", Name: "up", Payload: validPayload}, ErrInvalidCategory},
		{"empty name", &Code{Category: CategoryPower, Name: "", Payload: validPayload}, ErrInvalidName},
		{"long name", &Code{Category: CategoryPower, Name: strings.Repeat("n", maxCommandNameLength+1), Payload: validPayload}, ErrInvalidName},
		{"empty payload", &Code{Category: CategoryPower, Name: "on", Payload: ""}, ErrInvalidPayload},
		{"bad base64", &Code{Category: CategoryPower, Name: "on", Payload: "???"}, ErrInvalidPayload},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := store.Put(ctx, "dev-1", tt.code); !errors.Is(err, tt.wantErr) {
				t.Errorf("Put() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestStore_DeleteAll(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	for _, name := range []string{"on", "off"} {
		code := &Code{Category: CategoryPower, Name: name, Payload: validPayload}
		if err := store.Put(ctx, "dev-1", code); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
	}

	removed, err := store.DeleteAll(ctx, "dev-1")
	if err != nil {
		t.Fatalf("DeleteAll() error = %v", err)
	}
	if removed != 2 {
		t.Errorf("DeleteAll() removed = %d, want 2", removed)
	}

	n, _ := store.Count(ctx, "dev-1")
	if n != 0 {
		t.Errorf("Count() = %d, want 0", n)
	}
}

func TestBuiltinCommands(t *testing.T) {
	codes, err := BuiltinCommands()
	if err != nil {
		t.Fatalf("BuiltinCommands() error = %v", err)
	}
	if len(codes) != 55 {
		t.Fatalf("BuiltinCommands() count = %d, want 55", len(codes))
	}

	byCategory := make(map[Category]int)
	keys := make(map[Key]bool)
	for _, c := range codes {
		byCategory[c.Category]++
		key := Key{c.Category, c.Name}
		if keys[key] {
			t.Errorf("duplicate built-in key %v", key)
		}
		keys[key] = true
		if c.Provenance != ProvenanceBuiltIn {
			t.Errorf("built-in %v provenance = %q", key, c.Provenance)
		}
	}

	want := map[Category]int{
		CategoryPower:       3,
		CategoryMode:        6,
		CategoryFan:         4,
		CategorySwing:       4,
		CategoryTemperature: 14,
		CategoryTimer:       24,
	}
	for cat, n := range want {
		if byCategory[cat] != n {
			t.Errorf("built-in %s count = %d, want %d", cat, byCategory[cat], n)
		}
	}
}

func TestStore_Seed(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	inserted, err := store.Seed(ctx, "dev-1")
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if inserted != 55 {
		t.Errorf("Seed() inserted = %d, want 55", inserted)
	}

	// Re-seeding is a no-op.
	inserted, err = store.Seed(ctx, "dev-1")
	if err != nil {
		t.Fatalf("Seed() second error = %v", err)
	}
	if inserted != 0 {
		t.Errorf("Seed() second inserted = %d, want 0", inserted)
	}
}

func TestStore_Seed_PreservesLearned(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	learned := &Code{
		Category:   CategoryPower,
		Name:       "on",
		Payload:    "bGVhcm5lZA==",
		Provenance: ProvenanceLearned,
	}
	if err := store.Put(ctx, "dev-1", learned); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	inserted, err := store.Seed(ctx, "dev-1")
	if err != nil {
		t.Fatalf("Seed() error = %v", err)
	}
	if inserted != 54 {
		t.Errorf("Seed() inserted = %d, want 54", inserted)
	}

	got, _ := store.Get(ctx, "dev-1", CategoryPower, "on")
	if got.Payload != "bGVhcm5lZA==" || got.Provenance != ProvenanceLearned {
		t.Error("Seed() overwrote a learned command")
	}
}

func TestStore_LoadFailure(t *testing.T) {
	store, repo := newTestStore()
	repo.listErr = errors.New("db gone")

	if _, err := store.Get(context.Background(), "dev-1", CategoryPower, "on"); err == nil {
		t.Error("Get() expected error when repository load fails")
	}
}
