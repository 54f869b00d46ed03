// Package config loads application configuration from environment variables
// into tagged structs.
//
// It wraps github.com/joho/godotenv and github.com/caarlos0/env/v11: the
// default .env file is loaded once per process (missing files are fine),
// then env.Parse populates the struct from the environment. Each
// configuration type is parsed at most once and cached, so packages can call
// Load for their own Config without coordinating.
//
// # Usage
//
//	type Config struct {
//	    StateSecret string `env:"PRESAVE_STATE_SECRET,required"`
//	    Listen      string `env:"LISTEN_ADDR" envDefault:":8080"`
//	}
//
//	cfg, err := config.Load[Config]()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// MustLoad panics instead of returning the error, for configuration the
// process cannot start without.
package config
