package knowledge

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// fileFormat is the on-disk TOML shape of a knowledge file:
//
//	forbidden = [["smoking", "gender"]]
//	required  = [["tar", "cancer"]]
//
//	[[tier]]
//	index = 0
//	variables = ["gender", "age"]
//	forbidden_within = true
type fileFormat struct {
	Forbidden [][]string `toml:"forbidden"`
	Required  [][]string `toml:"required"`
	Tiers     []tierSpec `toml:"tier"`
}

type tierSpec struct {
	Index           int      `toml:"index"`
	Variables       []string `toml:"variables"`
	ForbiddenWithin bool     `toml:"forbidden_within"`
}

// LoadFile reads a TOML knowledge file and returns the validated knowledge
// set. Pair entries must have exactly two elements.
func LoadFile(path string) (*Knowledge, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes TOML knowledge data and validates it.
func Parse(data []byte) (*Knowledge, error) {
	var ff fileFormat
	if err := toml.Unmarshal(data, &ff); err != nil {
		return nil, fmt.Errorf("decode knowledge: %w", err)
	}

	k := New()
	for _, p := range ff.Forbidden {
		if len(p) != 2 {
			return nil, fmt.Errorf("forbidden entry %v: want exactly two names", p)
		}
		k.SetForbidden(p[0], p[1])
	}
	for _, p := range ff.Required {
		if len(p) != 2 {
			return nil, fmt.Errorf("required entry %v: want exactly two names", p)
		}
		k.SetRequired(p[0], p[1])
	}
	for _, t := range ff.Tiers {
		for _, v := range t.Variables {
			k.AddToTier(t.Index, v)
		}
		if t.ForbiddenWithin {
			k.SetTierForbiddenWithin(t.Index, true)
		}
	}

	if err := k.Validate(); err != nil {
		return nil, err
	}
	return k, nil
}
