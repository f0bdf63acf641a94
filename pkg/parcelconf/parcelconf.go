// Package parcelconf implements typed server/client configuration,
// generalizing the teacher's reflect-driven atlas.Config.UnmarshalEnv
// pattern (pkg/atlas/config.go in the original atlas repo this module is
// descended from) to parcel's flag-driven CLI (spec.md §6).
package parcelconf

import (
	"fmt"
	"os"
	"strconv"

	"github.com/hashicorp/go-envparse"
)

// Defaults from spec.md §6: "defaults are 127.0.0.1:25565 and four worker
// threads. Random seed defaults to wall-clock seconds."
const (
	DefaultAddress     = "127.0.0.1"
	DefaultPort        = 25565
	DefaultThreadCount = 4
)

// ServerConfig holds the server's CLI-configurable settings.
type ServerConfig struct {
	Port        uint16
	ThreadCount uint32
	Seed        uint32
	Dir         string // working directory db.bin and per-user stores live in
	DebugAddr   string // optional pprof/metrics listener, empty disables it
}

// ClientConfig holds the client's CLI-configurable settings.
type ClientConfig struct {
	Address string
	Port    uint16
	Seed    uint32
}

// overlayEnv applies PARCEL_* variables from an optional env file (the
// first positional CLI argument, as in cmd/atlas) over defaults already
// set on the target fields. Missing keys leave the field untouched.
func overlayEnv(envFile string, apply func(get func(key string) (string, bool))) error {
	env := map[string]string{}
	if envFile != "" {
		f, err := os.Open(envFile)
		if err != nil {
			return fmt.Errorf("parcelconf: open env file: %w", err)
		}
		defer f.Close()

		m, err := envparse.Parse(f)
		if err != nil {
			return fmt.Errorf("parcelconf: parse env file: %w", err)
		}
		env = m
	} else {
		for _, kv := range os.Environ() {
			for i := 0; i < len(kv); i++ {
				if kv[i] == '=' {
					env[kv[:i]] = kv[i+1:]
					break
				}
			}
		}
	}
	apply(func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	})
	return nil
}

// OverlayEnv applies PARCEL_PORT, PARCEL_THREAD_COUNT, PARCEL_SEED,
// PARCEL_DIR, and PARCEL_DEBUG_ADDR on top of c's current values, from
// envFile if non-empty, otherwise from the process environment.
func (c *ServerConfig) OverlayEnv(envFile string) error {
	return overlayEnv(envFile, func(get func(string) (string, bool)) {
		if v, ok := get("PARCEL_PORT"); ok {
			if n, err := strconv.ParseUint(v, 10, 16); err == nil {
				c.Port = uint16(n)
			}
		}
		if v, ok := get("PARCEL_THREAD_COUNT"); ok {
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				c.ThreadCount = uint32(n)
			}
		}
		if v, ok := get("PARCEL_SEED"); ok {
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				c.Seed = uint32(n)
			}
		}
		if v, ok := get("PARCEL_DIR"); ok {
			c.Dir = v
		}
		if v, ok := get("PARCEL_DEBUG_ADDR"); ok {
			c.DebugAddr = v
		}
	})
}

// OverlayEnv applies PARCEL_ADDR, PARCEL_PORT, and PARCEL_SEED on top of
// c's current values.
func (c *ClientConfig) OverlayEnv(envFile string) error {
	return overlayEnv(envFile, func(get func(string) (string, bool)) {
		if v, ok := get("PARCEL_ADDR"); ok {
			c.Address = v
		}
		if v, ok := get("PARCEL_PORT"); ok {
			if n, err := strconv.ParseUint(v, 10, 16); err == nil {
				c.Port = uint16(n)
			}
		}
		if v, ok := get("PARCEL_SEED"); ok {
			if n, err := strconv.ParseUint(v, 10, 32); err == nil {
				c.Seed = uint32(n)
			}
		}
	})
}
