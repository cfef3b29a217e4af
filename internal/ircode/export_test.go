package ircode

import (
	"context"
	"errors"
	"testing"
)

func TestStore_Export_EmptyLibrary(t *testing.T) {
	store, _ := newTestStore()

	_, err := store.Export(context.Background(), "dev-empty", ExportMetadata{})
	if !errors.Is(err, ErrEmptyLibrary) {
		t.Errorf("Export() error = %v, want ErrEmptyLibrary", err)
	}
}

func TestStore_Export(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	put := func(cat Category, name, payload string) {
		t.Helper()
		code := &Code{Category: cat, Name: name, Payload: payload, Provenance: ProvenanceLearned}
		if err := store.Put(ctx, "dev-1", code); err != nil {
			t.Fatalf("Put(%s/%s) error = %v", cat, name, err)
		}
	}

	put(CategoryPower, "on", "b24=")
	put(CategoryPower, "off", "b2Zm")
	put(CategoryPower, "toggle", "dG9nZ2xl")
	put(CategoryMode, "cool", "Y29vbA==")
	put(CategoryFan, "low", "bG93")
	put(CategorySwing, "vertical", "dmVydA==")
	put(CategoryTimer, "1.0h", "dGltZXI=")
	put(CategoryCustom, "mute_beep", "YmVlcA==")
	put(CategoryTemperature, "18", "dDE4")
	put(CategoryTemperature, "25", "dDI1")

	doc, err := store.Export(ctx, "dev-1", ExportMetadata{
		Manufacturer:    "MOES",
		SupportedModels: []string{"UFO-R11"},
		Controller:      "MQTT",
	})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	if doc.CommandsEncoding != CommandsEncoding {
		t.Errorf("commandsEncoding = %q, want %q", doc.CommandsEncoding, CommandsEncoding)
	}
	if doc.Manufacturer != "MOES" || doc.SupportedController != "MQTT" {
		t.Errorf("metadata = %q/%q", doc.Manufacturer, doc.SupportedController)
	}
	if doc.Operations.Power != "b24=" {
		t.Errorf("operations.power = %q, want %q", doc.Operations.Power, "b24=")
	}
	if doc.Operations.PowerOff != "b2Zm" {
		t.Errorf("operations.powerOff = %q", doc.Operations.PowerOff)
	}
	if doc.Operations.PowerToggle != "dG9nZ2xl" {
		t.Errorf("operations.powerToggle = %q", doc.Operations.PowerToggle)
	}
	if doc.Operations.Mode["cool"] != "Y29vbA==" {
		t.Errorf("operations.mode.cool = %q", doc.Operations.Mode["cool"])
	}
	if doc.Temperature["25"] != "dDI1" {
		t.Errorf("temperature.25 = %q", doc.Temperature["25"])
	}
	if doc.MinTemperature != 18 || doc.MaxTemperature != 25 {
		t.Errorf("temperature range = %d..%d, want 18..25", doc.MinTemperature, doc.MaxTemperature)
	}
	if doc.Operations.Custom["mute_beep"] != "YmVlcA==" {
		t.Errorf("operations.custom.mute_beep = %q", doc.Operations.Custom["mute_beep"])
	}
}

func TestStore_Import_Malformed(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	baseline := &Code{Category: CategoryPower, Name: "on", Payload: validPayload}
	if err := store.Put(ctx, "dev-1", baseline); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	tests := []struct {
		name string
		doc  *ExportDocument
	}{
		{"nil document", nil},
		{"missing encoding", &ExportDocument{
			Operations: Operations{Power: validPayload},
		}},
		{"wrong encoding", &ExportDocument{
			CommandsEncoding: "Raw",
			Operations:       Operations{Power: validPayload},
		}},
		{"no commands", &ExportDocument{CommandsEncoding: CommandsEncoding}},
		{"invalid temperature code", &ExportDocument{
			CommandsEncoding: CommandsEncoding,
			Temperature:      map[string]string{"20": "not!!base64"},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Import(ctx, "dev-1", tt.doc, true)
			if !errors.Is(err, ErrMalformedDocument) {
				t.Errorf("Import() error = %v, want ErrMalformedDocument", err)
			}
		})
	}

	// Library must be untouched after rejected imports.
	n, _ := store.Count(ctx, "dev-1")
	if n != 1 {
		t.Errorf("Count() = %d, want 1 (library mutated by rejected import)", n)
	}
	got, _ := store.Get(ctx, "dev-1", CategoryPower, "on")
	if got.Payload != validPayload {
		t.Error("rejected import altered an existing command")
	}
}

func TestStore_Import_Counts(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	existing := &Code{Category: CategoryPower, Name: "on", Payload: "b2xk"}
	if err := store.Put(ctx, "dev-1", existing); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	doc := &ExportDocument{
		CommandsEncoding: CommandsEncoding,
		Operations: Operations{
			Power:    "bmV3",
			PowerOff: "b2Zm",
		},
	}

	// Without overwrite: existing "on" is skipped, "off" inserted.
	result, err := store.Import(ctx, "dev-1", doc, false)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Inserted != 1 || result.Replaced != 0 || result.Skipped != 1 {
		t.Errorf("Import() result = %+v, want {1 0 1}", result)
	}

	got, _ := store.Get(ctx, "dev-1", CategoryPower, "on")
	if got.Payload != "b2xk" {
		t.Error("Import() without overwrite replaced an existing command")
	}

	// With overwrite: both replaced.
	result, err = store.Import(ctx, "dev-1", doc, true)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Inserted != 0 || result.Replaced != 2 || result.Skipped != 0 {
		t.Errorf("Import() result = %+v, want {0 2 0}", result)
	}

	got, _ = store.Get(ctx, "dev-1", CategoryPower, "on")
	if got.Payload != "bmV3" {
		t.Error("Import() with overwrite kept the old payload")
	}
	if got.Provenance != ProvenanceImported {
		t.Errorf("imported provenance = %q, want %q", got.Provenance, ProvenanceImported)
	}
}

func TestStore_ExportImport_RoundTrip(t *testing.T) {
	store, _ := newTestStore()
	ctx := context.Background()

	if _, err := store.Seed(ctx, "dev-src"); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	doc, err := store.Export(ctx, "dev-src", ExportMetadata{Manufacturer: "MOES"})
	if err != nil {
		t.Fatalf("Export() error = %v", err)
	}

	result, err := store.Import(ctx, "dev-dst", doc, true)
	if err != nil {
		t.Fatalf("Import() error = %v", err)
	}
	if result.Inserted != 55 {
		t.Errorf("Import() inserted = %d, want 55", result.Inserted)
	}

	src, _ := store.List(ctx, "dev-src")
	for _, c := range src {
		got, err := store.Get(ctx, "dev-dst", c.Category, c.Name)
		if err != nil {
			t.Errorf("round trip lost %s/%s: %v", c.Category, c.Name, err)
			continue
		}
		if got.Payload != c.Payload {
			t.Errorf("round trip changed %s/%s payload", c.Category, c.Name)
		}
	}
}
