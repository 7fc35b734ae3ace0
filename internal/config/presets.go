package config

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/verlet/internal/dynamo"
)

func scene(name string, ticks int, spawns ...SpawnConfig) *Config {
	cfg := DefaultConfig()
	cfg.Scene = name
	cfg.Ticks = ticks
	cfg.Spawns = spawns
	return cfg
}

var h = dynamo.HalfCameraHeight

var Presets = map[string]*Config{
	"default": scene("default", 600,
		SpawnConfig{Shape: "square", At: mgl64.Vec3{0, h, 0}},
		SpawnConfig{Shape: "rope", At: mgl64.Vec3{0, h * 1.75, 0}},
	),
	"rope": scene("rope", 900,
		SpawnConfig{Shape: "rope", At: mgl64.Vec3{0.5, h * 1.5, 0}},
	),
	"cloth": scene("cloth", 900,
		SpawnConfig{Shape: "cloth", Locked: []int{0, 8, 16, 24, 32}},
	),
	"cube": scene("cube", 600,
		SpawnConfig{Shape: "cube", At: mgl64.Vec3{0, h * 1.5, 0}},
	),
	"square": scene("square", 600,
		SpawnConfig{Shape: "square", At: mgl64.Vec3{-0.4, h, 0}},
		SpawnConfig{Shape: "square", At: mgl64.Vec3{0.4, h * 1.4, 0}},
	),
	"pile": scene("pile", 1200,
		SpawnConfig{Shape: "cube", At: mgl64.Vec3{-0.3, h * 0.8, 0}},
		SpawnConfig{Shape: "cube", At: mgl64.Vec3{0.3, h * 1.2, 0}},
		SpawnConfig{Shape: "square", At: mgl64.Vec3{0, h * 1.6, 0}},
		SpawnConfig{Shape: "point", At: mgl64.Vec3{0.1, h * 1.9, 0}},
	),
}

// GetPreset returns a copy of the named scene, or nil.
func GetPreset(name string) *Config {
	cfg, ok := Presets[name]
	if !ok {
		return nil
	}
	cp := *cfg
	cp.Spawns = append([]SpawnConfig(nil), cfg.Spawns...)
	return &cp
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
