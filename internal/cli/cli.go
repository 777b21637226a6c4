// Package cli carries the plumbing every binary repeats: tinted slog
// setup, optional .env loading, and parameter resolution from the
// scenario/override flag pair.
package cli

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/lmittmann/tint"

	"espionage-duopoly-lab/internal/domain"
)

// SetupLogger installs a tint handler on stderr at the named level
// (debug, info, warn, error).
func SetupLogger(level string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf("unknown log level %q", level)
	}

	slog.SetDefault(slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      lvl,
			TimeFormat: "15:04:05",
		}),
	))
	return nil
}

// LoadEnvFile loads environment variables from a .env file in the
// working directory, if one exists. Existing variables win.
func LoadEnvFile() {
	data, err := os.ReadFile(".env")
	if err != nil {
		return
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}

		key := strings.TrimSpace(parts[0])
		value := strings.TrimSpace(parts[1])
		if os.Getenv(key) == "" {
			os.Setenv(key, value)
		}
	}
}

// EnvOr returns the environment value for key, or fallback when unset.
func EnvOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// ParseOverrides parses a comma-separated key=value list into the
// override map accepted by Parameters.WithOverrides.
func ParseOverrides(spec string) (map[string]float64, error) {
	if strings.TrimSpace(spec) == "" {
		return nil, nil
	}

	overrides := make(map[string]float64)
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("override %q is not key=value", pair)
		}

		key := strings.TrimSpace(parts[0])
		if key == "" {
			return nil, fmt.Errorf("override %q has no key", pair)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("override %q: %w", pair, err)
		}
		overrides[key] = value
	}
	return overrides, nil
}

// ResolveParameters builds the model calibration from a scenario preset
// and an optional override list applied on top of it.
func ResolveParameters(scenario, overrideSpec string) (domain.Parameters, error) {
	if scenario == "" {
		scenario = domain.ScenarioBaseline
	}

	p, err := domain.ScenarioParams(scenario)
	if err != nil {
		return domain.Parameters{}, err
	}

	overrides, err := ParseOverrides(overrideSpec)
	if err != nil {
		return domain.Parameters{}, err
	}
	if len(overrides) == 0 {
		return p, nil
	}
	return p.WithOverrides(overrides)
}
