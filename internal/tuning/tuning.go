package tuning

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning is the runtime knob set for the engine. Everything here bounds
// per-tick cost or streaming extent; world shape itself comes from the seed
// and the block catalog.
type Tuning struct {
	TickRateHz int `yaml:"tick_rate_hz"`

	ViewRadius     int    `yaml:"view_radius"`      // horizontal chunk radius of the target set
	VerticalLayers int    `yaml:"vertical_layers"`  // chunk layers stacked above layer 0
	MeshRadiusPad  int    `yaml:"mesh_radius_pad"`  // mesh radius = view radius + pad
	GenBudget      int    `yaml:"gen_budget"`       // chunk generations per tick
	MeshBudget     int    `yaml:"mesh_budget"`      // chunk remeshes per tick
	MaxLoaded      int    `yaml:"max_loaded"`       // cap on active+scheduled chunks
	EnqueueOrder   string `yaml:"enqueue_order"`    // "scan" or "spiral"
	PrewarmRings   bool   `yaml:"prewarm_rings"`    // schedule outer rings early on center change
	AutosaveTicks  int    `yaml:"autosave_ticks"`   // 0 disables autosave
	StatsEveryTick int    `yaml:"stats_every_tick"` // event-log cadence, 0 disables
}

func Defaults() Tuning {
	return Tuning{
		TickRateHz:     20,
		ViewRadius:     8,
		VerticalLayers: 1,
		MeshRadiusPad:  1,
		GenBudget:      4,
		MeshBudget:     6,
		MaxLoaded:      512,
		EnqueueOrder:   "spiral",
		PrewarmRings:   true,
		AutosaveTicks:  1200,
		StatsEveryTick: 100,
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.TickRateHz <= 0 {
		return fmt.Errorf("tick_rate_hz must be positive")
	}
	if t.ViewRadius < 1 {
		return fmt.Errorf("view_radius must be at least 1")
	}
	if t.VerticalLayers < 1 {
		return fmt.Errorf("vertical_layers must be at least 1")
	}
	if t.GenBudget < 1 || t.MeshBudget < 1 {
		return fmt.Errorf("budgets must be at least 1")
	}
	if t.MaxLoaded < 1 {
		return fmt.Errorf("max_loaded must be at least 1")
	}
	switch t.EnqueueOrder {
	case "scan", "spiral":
	default:
		return fmt.Errorf("enqueue_order must be \"scan\" or \"spiral\", got %q", t.EnqueueOrder)
	}
	return nil
}
