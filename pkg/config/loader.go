package config

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	dotenvOnce sync.Once

	mu     sync.RWMutex
	loaded = make(map[string]any)
)

// Load parses environment variables into a fresh T. The first successful
// parse of each type is cached for the process lifetime; later calls return
// a copy of the cached value.
func Load[T any]() (T, error) {
	dotenvOnce.Do(func() {
		// A missing .env file is not an error; the environment may be
		// provisioned directly.
		_ = godotenv.Load()
	})

	key := typeKey[T]()

	mu.RLock()
	cached, ok := loaded[key]
	mu.RUnlock()
	if ok {
		return cached.(T), nil
	}

	var cfg T
	if err := env.Parse(&cfg); err != nil {
		return cfg, errors.Join(ErrParsingConfig, err)
	}

	mu.Lock()
	// First writer wins so concurrent loaders observe one value.
	if cached, ok := loaded[key]; ok {
		cfg = cached.(T)
	} else {
		loaded[key] = cfg
	}
	mu.Unlock()

	return cfg, nil
}

// MustLoad is Load for configuration the process cannot start without.
func MustLoad[T any]() T {
	cfg, err := Load[T]()
	if err != nil {
		panic(fmt.Sprintf("config: %v", err))
	}
	return cfg
}

// Reset drops all cached configuration. Intended for tests that vary the
// environment between cases.
func Reset() {
	mu.Lock()
	loaded = make(map[string]any)
	mu.Unlock()
}

func typeKey[T any]() string {
	t := reflect.TypeFor[T]()
	return t.PkgPath() + "." + t.String()
}
