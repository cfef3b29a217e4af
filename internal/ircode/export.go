package ircode

import (
	"context"
	"fmt"
	"sort"
	"strconv"
)

// ExportMetadata carries the device fields embedded in exported
// documents. Supplied by the caller from the device inventory.
type ExportMetadata struct {
	Manufacturer    string
	SupportedModels []string
	Controller      string
}

// Operations is the command section of the interchange schema.
// Field names are fixed for ecosystem compatibility.
type Operations struct {
	Power       string            `json:"power,omitempty"`
	PowerOff    string            `json:"powerOff,omitempty"`
	PowerToggle string            `json:"powerToggle,omitempty"`
	Mode        map[string]string `json:"mode,omitempty"`
	Fan         map[string]string `json:"fan,omitempty"`
	Swing       map[string]string `json:"swing,omitempty"`
	Timer       map[string]string `json:"timer,omitempty"`
	Custom      map[string]string `json:"custom,omitempty"`
}

// ExportDocument is the interchange schema for a command library.
// Field names are bit-exact for compatibility with the SmartIR ecosystem.
type ExportDocument struct {
	Manufacturer        string            `json:"manufacturer"`
	SupportedModels     []string          `json:"supportedModels"`
	SupportedController string            `json:"supportedController"`
	CommandsEncoding    string            `json:"commandsEncoding"`
	MinTemperature      int               `json:"minTemperature,omitempty"`
	MaxTemperature      int               `json:"maxTemperature,omitempty"`
	Temperature         map[string]string `json:"temperature,omitempty"`
	Operations          Operations        `json:"operations"`
}

// ImportResult reports what an import did with each contained command.
type ImportResult struct {
	Inserted int `json:"inserted"`
	Replaced int `json:"replaced"`
	Skipped  int `json:"skipped"`
}

// Power command names recognised by the interchange mapping. Power
// commands with other names have no slot in the schema and are omitted
// from exports.
const (
	powerNameOn     = "on"
	powerNameOff    = "off"
	powerNameToggle = "toggle"
)

// Export builds the interchange document from every command stored for
// a device. Fails with ErrEmptyLibrary if the device has no commands.
func (s *Store) Export(ctx context.Context, deviceID string, meta ExportMetadata) (*ExportDocument, error) {
	codes, err := s.List(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: device %s", ErrEmptyLibrary, deviceID)
	}

	controller := meta.Controller
	if controller == "" {
		controller = "MQTT"
	}
	models := meta.SupportedModels
	if models == nil {
		models = []string{}
	}

	doc := &ExportDocument{
		Manufacturer:        meta.Manufacturer,
		SupportedModels:     models,
		SupportedController: controller,
		CommandsEncoding:    CommandsEncoding,
	}

	for i := range codes {
		c := codes[i]
		switch c.Category {
		case CategoryPower:
			switch c.Name {
			case powerNameOn:
				doc.Operations.Power = c.Payload
			case powerNameOff:
				doc.Operations.PowerOff = c.Payload
			case powerNameToggle:
				doc.Operations.PowerToggle = c.Payload
			}
		case CategoryTemperature:
			if doc.Temperature == nil {
				doc.Temperature = make(map[string]string)
			}
			doc.Temperature[c.Name] = c.Payload
		case CategoryMode:
			if doc.Operations.Mode == nil {
				doc.Operations.Mode = make(map[string]string)
			}
			doc.Operations.Mode[c.Name] = c.Payload
		case CategoryFan:
			if doc.Operations.Fan == nil {
				doc.Operations.Fan = make(map[string]string)
			}
			doc.Operations.Fan[c.Name] = c.Payload
		case CategorySwing:
			if doc.Operations.Swing == nil {
				doc.Operations.Swing = make(map[string]string)
			}
			doc.Operations.Swing[c.Name] = c.Payload
		case CategoryTimer:
			if doc.Operations.Timer == nil {
				doc.Operations.Timer = make(map[string]string)
			}
			doc.Operations.Timer[c.Name] = c.Payload
		case CategoryCustom:
			if doc.Operations.Custom == nil {
				doc.Operations.Custom = make(map[string]string)
			}
			doc.Operations.Custom[c.Name] = c.Payload
		}
	}

	doc.MinTemperature, doc.MaxTemperature = temperatureRange(doc.Temperature)
	return doc, nil
}

// Import applies an interchange document to a device's library.
//
// Each contained command is inserted only if absent, unless overwrite is
// set, in which case existing entries are replaced. The document is fully
// validated before the first mutation so a malformed document leaves the
// library unchanged.
func (s *Store) Import(ctx context.Context, deviceID string, doc *ExportDocument, overwrite bool) (ImportResult, error) {
	var result ImportResult

	codes, err := flattenDocument(doc)
	if err != nil {
		return result, err
	}

	// Validation pass first. No partial imports.
	for i := range codes {
		if err := ValidatePayload(codes[i].Payload); err != nil {
			return result, fmt.Errorf("%w: %s/%s: %v",
				ErrMalformedDocument, codes[i].Category, codes[i].Name, err)
		}
	}

	if _, err := s.library(ctx, deviceID); err != nil {
		return result, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lib := s.libraries[deviceID]
	for i := range codes {
		c := codes[i]
		key := Key{Category: c.Category, Name: c.Name}
		_, exists := lib[key]

		if exists && !overwrite {
			result.Skipped++
			continue
		}

		cpy := c.DeepCopy()
		cpy.Provenance = ProvenanceImported
		if err := s.repo.Upsert(ctx, deviceID, cpy); err != nil {
			return result, err
		}
		lib[key] = cpy

		if exists {
			result.Replaced++
		} else {
			result.Inserted++
		}
	}

	s.logger.Info("command library imported",
		"device_id", deviceID, "inserted", result.Inserted,
		"replaced", result.Replaced, "skipped", result.Skipped)
	return result, nil
}

// flattenDocument validates the document structure and converts it back
// into command records.
func flattenDocument(doc *ExportDocument) ([]Code, error) {
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrMalformedDocument)
	}
	if doc.CommandsEncoding == "" {
		return nil, fmt.Errorf("%w: missing commandsEncoding", ErrMalformedDocument)
	}
	if doc.CommandsEncoding != CommandsEncoding {
		return nil, fmt.Errorf("%w: unsupported commandsEncoding %q",
			ErrMalformedDocument, doc.CommandsEncoding)
	}

	var codes []Code
	add := func(cat Category, name, payload string) {
		codes = append(codes, Code{Category: cat, Name: name, Payload: payload})
	}

	if doc.Operations.Power != "" {
		add(CategoryPower, powerNameOn, doc.Operations.Power)
	}
	if doc.Operations.PowerOff != "" {
		add(CategoryPower, powerNameOff, doc.Operations.PowerOff)
	}
	if doc.Operations.PowerToggle != "" {
		add(CategoryPower, powerNameToggle, doc.Operations.PowerToggle)
	}

	addMap := func(cat Category, m map[string]string) {
		// Deterministic order keeps import logs and failures stable.
		names := make([]string, 0, len(m))
		for name := range m {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			add(cat, name, m[name])
		}
	}

	addMap(CategoryTemperature, doc.Temperature)
	addMap(CategoryMode, doc.Operations.Mode)
	addMap(CategoryFan, doc.Operations.Fan)
	addMap(CategorySwing, doc.Operations.Swing)
	addMap(CategoryTimer, doc.Operations.Timer)
	addMap(CategoryCustom, doc.Operations.Custom)

	if len(codes) == 0 {
		return nil, fmt.Errorf("%w: document contains no commands", ErrMalformedDocument)
	}
	return codes, nil
}

// temperatureRange derives the min and max integer degrees present in a
// temperature map. Non-integer keys are ignored.
func temperatureRange(temps map[string]string) (int, int) {
	minDeg, maxDeg := 0, 0
	first := true
	for k := range temps {
		deg, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		if first {
			minDeg, maxDeg = deg, deg
			first = false
			continue
		}
		if deg < minDeg {
			minDeg = deg
		}
		if deg > maxDeg {
			maxDeg = deg
		}
	}
	return minDeg, maxDeg
}
