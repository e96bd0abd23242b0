package config

import "time"

// Builder provides a fluent interface for constructing a Config, mirroring
// the constructor pattern used throughout the consensus stack this module
// was adapted from.
type Builder struct {
	cfg Config
}

// NewBuilder returns a Builder seeded with sensible defaults.
func NewBuilder() *Builder {
	return &Builder{
		cfg: Config{
			View:            0,
			PrevHash:        "genesis",
			MasterIP:        "10.0.0.1",
			RoundTimeout:    2 * time.Second,
			InPrep2Deadline: time.Second,
		},
	}
}

func (b *Builder) N(n int) *Builder {
	b.cfg.N = n
	return b
}

func (b *Builder) M(m int) *Builder {
	b.cfg.M = m
	return b
}

func (b *Builder) View(view int) *Builder {
	b.cfg.View = view
	return b
}

func (b *Builder) PrevHash(hash string) *Builder {
	b.cfg.PrevHash = hash
	return b
}

func (b *Builder) MasterIP(ip string) *Builder {
	b.cfg.MasterIP = ip
	return b
}

func (b *Builder) RoundTimeout(d time.Duration) *Builder {
	b.cfg.RoundTimeout = d
	return b
}

func (b *Builder) InPrep2Deadline(d time.Duration) *Builder {
	b.cfg.InPrep2Deadline = d
	return b
}

// Build validates and returns the constructed Config.
func (b *Builder) Build() (Config, error) {
	if err := b.cfg.Validate(); err != nil {
		return Config{}, err
	}
	return b.cfg, nil
}
