package ircode

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sync"
)

//go:embed builtin.json
var builtinJSON []byte

// builtinDataset is the on-disk shape of the embedded factory command set.
type builtinDataset struct {
	Description    string `json:"description"`
	MinTemperature int    `json:"min_temperature"`
	MaxTemperature int    `json:"max_temperature"`
	Commands       []struct {
		Category string `json:"category"`
		Name     string `json:"name"`
		Payload  string `json:"payload"`
	} `json:"commands"`
}

var (
	builtinOnce  sync.Once
	builtinCodes []Code
	builtinErr   error
)

// BuiltinCommands returns the embedded factory command set. The dataset
// is parsed once and cached; callers receive a fresh slice each time.
func BuiltinCommands() ([]Code, error) {
	builtinOnce.Do(func() {
		var ds builtinDataset
		if err := json.Unmarshal(builtinJSON, &ds); err != nil {
			builtinErr = fmt.Errorf("parsing built-in dataset: %w", err)
			return
		}

		codes := make([]Code, 0, len(ds.Commands))
		for _, c := range ds.Commands {
			cat, err := ParseCategory(c.Category)
			if err != nil {
				builtinErr = fmt.Errorf("built-in dataset entry %q: %w", c.Name, err)
				return
			}
			if err := ValidatePayload(c.Payload); err != nil {
				builtinErr = fmt.Errorf("built-in dataset entry %q: %w", c.Name, err)
				return
			}
			codes = append(codes, Code{
				Category:   cat,
				Name:       c.Name,
				Payload:    c.Payload,
				Provenance: ProvenanceBuiltIn,
			})
		}
		builtinCodes = codes
	})

	if builtinErr != nil {
		return nil, builtinErr
	}

	out := make([]Code, len(builtinCodes))
	copy(out, builtinCodes)
	return out, nil
}
