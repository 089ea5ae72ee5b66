package catalogs

// BlockID identifies one voxel type. 0 is always air.
type BlockID uint8

// Air is the sentinel empty identifier; it is neither solid nor opaque.
const Air BlockID = 0

// Well-known identifiers of the built-in palette. Config files may extend the
// palette but must keep these stable: saved diffs store raw identifiers.
const (
	Grass BlockID = iota + 1
	Dirt
	Stone
	Sand
	Water
	Snow
	Log
	Leaves
	Bedrock
	Gravel
	Ore
)

// BlockDef describes one palette entry.
type BlockDef struct {
	ID     string     `json:"id"`
	Solid  bool       `json:"solid"`
	Opaque bool       `json:"opaque"`
	Color  [3]float32 `json:"color"`
}

// BlockCatalog is the process-wide immutable block configuration. It is
// constructed once at startup and passed by reference into every component
// that classifies or colors blocks.
type BlockCatalog struct {
	Palette []string
	Index   map[string]BlockID
	Defs    []BlockDef // indexed by BlockID

	solid  [256]bool
	opaque [256]bool
	colors [256][3]float32
}

// Solid reports whether the identifier occupies space.
func (c *BlockCatalog) Solid(b BlockID) bool { return c.solid[b] }

// Opaque reports whether the identifier blocks light and hides faces behind it.
func (c *BlockCatalog) Opaque(b BlockID) bool { return c.opaque[b] }

// Color returns the palette color used for mesh vertices.
func (c *BlockCatalog) Color(b BlockID) [3]float32 { return c.colors[b] }

// ByName resolves a palette name like "STONE" to its identifier.
func (c *BlockCatalog) ByName(name string) (BlockID, bool) {
	id, ok := c.Index[name]
	return id, ok
}

func (c *BlockCatalog) finish() {
	c.Index = make(map[string]BlockID, len(c.Defs))
	c.Palette = c.Palette[:0]
	for i, d := range c.Defs {
		c.Index[d.ID] = BlockID(i)
		c.Palette = append(c.Palette, d.ID)
		c.solid[i] = d.Solid
		c.opaque[i] = d.Opaque
		c.colors[i] = d.Color
	}
	// Air classification is fixed regardless of config.
	c.solid[Air] = false
	c.opaque[Air] = false
}

// Default returns the built-in palette, used when no blocks.json is supplied
// and by tests.
func Default() *BlockCatalog {
	c := &BlockCatalog{Defs: []BlockDef{
		{ID: "AIR", Solid: false, Opaque: false, Color: [3]float32{0, 0, 0}},
		{ID: "GRASS", Solid: true, Opaque: true, Color: [3]float32{0.33, 0.55, 0.24}},
		{ID: "DIRT", Solid: true, Opaque: true, Color: [3]float32{0.45, 0.32, 0.22}},
		{ID: "STONE", Solid: true, Opaque: true, Color: [3]float32{0.52, 0.52, 0.54}},
		{ID: "SAND", Solid: true, Opaque: true, Color: [3]float32{0.84, 0.78, 0.55}},
		{ID: "WATER", Solid: true, Opaque: false, Color: [3]float32{0.22, 0.42, 0.72}},
		{ID: "SNOW", Solid: true, Opaque: true, Color: [3]float32{0.92, 0.94, 0.96}},
		{ID: "LOG", Solid: true, Opaque: true, Color: [3]float32{0.38, 0.27, 0.16}},
		{ID: "LEAVES", Solid: true, Opaque: false, Color: [3]float32{0.24, 0.45, 0.20}},
		{ID: "BEDROCK", Solid: true, Opaque: true, Color: [3]float32{0.18, 0.18, 0.20}},
		{ID: "GRAVEL", Solid: true, Opaque: true, Color: [3]float32{0.46, 0.44, 0.42}},
		{ID: "ORE", Solid: true, Opaque: true, Color: [3]float32{0.62, 0.49, 0.36}},
	}}
	c.finish()
	return c
}
