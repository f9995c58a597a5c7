// Package config loads typed configuration structs from environment variables.
//
// Components declare their own Config struct with `env:` tags and call
// config.Load (or MustLoad at startup) to populate it:
//
//	type Config struct {
//		Addr   string        `env:"HTTP_ADDR" envDefault:":8080"`
//		Secret string        `env:"WEBHOOK_SECRET,required"`
//		TTL    time.Duration `env:"EVENT_TTL" envDefault:"72h"`
//	}
//
//	var cfg Config
//	config.MustLoad(&cfg)
//
// Values are parsed once per type and cached for the process lifetime.
package config
