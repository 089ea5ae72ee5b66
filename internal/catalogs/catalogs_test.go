package catalogs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault_PaletteInvariants(t *testing.T) {
	c := Default()

	if c.Palette[Air] != "AIR" {
		t.Fatalf("entry 0 = %q", c.Palette[Air])
	}
	if c.Solid(Air) || c.Opaque(Air) {
		t.Fatal("air must be neither solid nor opaque")
	}
	// Water and leaves occupy space but do not hide faces behind them.
	for _, b := range []BlockID{Water, Leaves} {
		if !c.Solid(b) {
			t.Fatalf("%s must be solid", c.Palette[b])
		}
		if c.Opaque(b) {
			t.Fatalf("%s must not be opaque", c.Palette[b])
		}
	}
	for _, b := range []BlockID{Grass, Dirt, Stone, Sand, Snow, Log, Bedrock, Gravel, Ore} {
		if !c.Solid(b) || !c.Opaque(b) {
			t.Fatalf("%s must be solid and opaque", c.Palette[b])
		}
	}
}

func TestDefault_ByName(t *testing.T) {
	c := Default()
	id, ok := c.ByName("STONE")
	if !ok || id != Stone {
		t.Fatalf("ByName(STONE) = %d, %v", id, ok)
	}
	if _, ok := c.ByName("UNOBTAINIUM"); ok {
		t.Fatal("unknown name resolved")
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoad_RejectsMissingAir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "blocks.json"), `{"blocks":[
		{"id":"STONE","solid":true,"opaque":true,"color":[0.5,0.5,0.5]}
	]}`)
	if _, err := Load(dir, ""); err == nil {
		t.Fatal("catalog without AIR at entry 0 accepted")
	}
}

func TestLoad_Minimal(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "blocks.json"), `{"blocks":[
		{"id":"AIR","solid":false,"opaque":false,"color":[0,0,0]},
		{"id":"STONE","solid":true,"opaque":true,"color":[0.5,0.5,0.5]}
	]}`)
	c, err := Load(dir, "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(c.Palette) != 2 {
		t.Fatalf("palette size %d", len(c.Palette))
	}
	if id, ok := c.ByName("STONE"); !ok || id != 1 {
		t.Fatalf("STONE id = %d, %v", id, ok)
	}
}

func TestLoad_SchemaRejectsBadDocument(t *testing.T) {
	dir := t.TempDir()
	schemaDir := t.TempDir()
	// Color entries must be numbers per the schema; a string should fail
	// validation before the struct decode even sees it.
	writeFile(t, filepath.Join(dir, "blocks.json"), `{"blocks":[
		{"id":"AIR","solid":false,"opaque":false,"color":["r","g","b"]}
	]}`)
	writeFile(t, filepath.Join(schemaDir, "blocks.schema.json"), `{
		"$schema": "https://json-schema.org/draft/2020-12/schema",
		"type": "object",
		"required": ["blocks"],
		"properties": {
			"blocks": {
				"type": "array",
				"items": {
					"type": "object",
					"required": ["id", "solid", "opaque", "color"],
					"properties": {
						"id": {"type": "string"},
						"solid": {"type": "boolean"},
						"opaque": {"type": "boolean"},
						"color": {
							"type": "array",
							"items": {"type": "number"},
							"minItems": 3,
							"maxItems": 3
						}
					}
				}
			}
		}
	}`)
	if _, err := Load(dir, schemaDir); err == nil {
		t.Fatal("schema violation accepted")
	}
}

func TestLoad_ShippedConfig(t *testing.T) {
	// The repo's own config must always load cleanly against its schema.
	c, err := Load("../../configs", "../../schemas")
	if err != nil {
		t.Fatalf("Load shipped config: %v", err)
	}
	for _, name := range []string{"AIR", "GRASS", "DIRT", "STONE", "SAND", "WATER", "SNOW", "LOG", "LEAVES", "BEDROCK", "GRAVEL", "ORE"} {
		if _, ok := c.ByName(name); !ok {
			t.Fatalf("shipped catalog missing %s", name)
		}
	}
}
