package config

import (
	"github.com/charmbracelet/log"

	"github.com/san-kum/verlet/internal/dynamo"
	"github.com/san-kum/verlet/internal/sim"
)

func (c *Config) Options(logger *log.Logger) sim.Options {
	return sim.Options{Settings: c.DynamoSettings(), Seed: c.Seed, Logger: logger}
}

// Simulator builds a simulator for c with its spawns queued for the first
// tick and its attachment offsets set.
func (c *Config) Simulator(logger *log.Logger) (*sim.Simulator, error) {
	opts := c.Options(logger)
	reqs, err := c.Requests(opts.Settings)
	if err != nil {
		return nil, err
	}
	s, err := sim.New(opts)
	if err != nil {
		return nil, err
	}
	for tag, o := range c.Offsets {
		s.Tracker().SetOffset(dynamo.HashTag(tag), o.Pose())
	}
	for _, r := range reqs {
		s.SubmitSpawn(r)
	}
	return s, nil
}
