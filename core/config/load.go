package config

import (
	"fmt"
	"os"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	envOnce    sync.Once
	cacheMu    sync.Mutex
	cache      = make(map[reflect.Type]any)
)

// loadDotenv loads a .env file from the working directory, once per
// process. A missing file is skipped; an error reading or parsing an
// existing file is discarded, not reported.
func loadDotenv() {
	envOnce.Do(func() {
		if _, err := os.Stat(".env"); err == nil {
			_ = godotenv.Load()
		}
	})
}

// Load populates cfg from environment variables via caarlos0/env,
// caching the result by cfg's concrete type so repeated calls for the
// same type return the identical parsed value instead of re-parsing the
// environment. cfg must be a non-nil pointer to a struct.
func Load(cfg any) error {
	loadDotenv()

	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return fmt.Errorf("config: Load requires a non-nil pointer, got %T", cfg)
	}
	t := v.Elem().Type()

	cacheMu.Lock()
	if cached, ok := cache[t]; ok {
		cacheMu.Unlock()
		v.Elem().Set(reflect.ValueOf(cached).Elem())
		return nil
	}
	cacheMu.Unlock()

	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("config: parse %s: %w", t, err)
	}

	stored := reflect.New(t)
	stored.Elem().Set(v.Elem())

	cacheMu.Lock()
	cache[t] = stored.Interface()
	cacheMu.Unlock()

	return nil
}

// MustLoad calls Load and panics on error, for use during startup where a
// missing or malformed configuration should halt the program immediately.
func MustLoad(cfg any) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}
