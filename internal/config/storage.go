package config

import "time"

type Storage struct {
	// URI selects the record store backend, i.e. sqlite://paranoid.sqlite or memory://
	URI   string `env:"URI,expand" envDefault:"sqlite://paranoid.sqlite"`
	Cache Cache  `envPrefix:"CACHE_"`
}

type Cache struct {
	Enabled bool          `env:"ENABLED" envDefault:"false"`
	Size    int           `env:"SIZE" envDefault:"256"`
	TTL     time.Duration `env:"TTL" envDefault:"1m"`
}
