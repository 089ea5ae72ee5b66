package catalogs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

type blocksFile struct {
	Blocks []BlockDef `json:"blocks"`
}

// Load reads <configDir>/blocks.json, validates it against
// <schemaDir>/blocks.schema.json when the schema exists, and builds the
// catalog. The first entry must be AIR; saved worlds depend on stable ids, so
// entries are positional.
func Load(configDir, schemaDir string) (*BlockCatalog, error) {
	path := filepath.Join(configDir, "blocks.json")
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read block catalog: %w", err)
	}

	if schemaDir != "" {
		schemaPath := filepath.Join(schemaDir, "blocks.schema.json")
		if _, statErr := os.Stat(schemaPath); statErr == nil {
			schema, err := jsonschema.Compile(schemaPath)
			if err != nil {
				return nil, fmt.Errorf("compile block schema: %w", err)
			}
			var doc any
			if err := json.Unmarshal(raw, &doc); err != nil {
				return nil, fmt.Errorf("parse block catalog: %w", err)
			}
			if err := schema.Validate(doc); err != nil {
				return nil, fmt.Errorf("block catalog %s: %w", path, err)
			}
		}
	}

	var f blocksFile
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse block catalog: %w", err)
	}
	if len(f.Blocks) == 0 || len(f.Blocks) > 256 {
		return nil, fmt.Errorf("block catalog %s: %d entries (want 1..256)", path, len(f.Blocks))
	}
	if f.Blocks[0].ID != "AIR" {
		return nil, fmt.Errorf("block catalog %s: entry 0 must be AIR, got %q", path, f.Blocks[0].ID)
	}

	c := &BlockCatalog{Defs: f.Blocks}
	c.finish()
	return c, nil
}
