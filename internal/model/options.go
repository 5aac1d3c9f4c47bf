package model

import (
	"fmt"
	"sort"

	"github.com/voltlab/battsim/internal/cell"
)

// Options selects submodel implementations by physical concern. Unset keys
// fall back to the model's defaults.
type Options map[string]string

var allowedOptions = map[string][]string{
	"thermal":     {"isothermal", "lumped"},
	"particle":    {"fickian", "uniform"},
	"electrolyte": {"constant", "dilute"},
	"kinetics":    {"butler-volmer", "linear"},
	"sei":         {"none", "reaction-limited"},
}

func (o Options) validate() error {
	for key, val := range o {
		allowed, ok := allowedOptions[key]
		if !ok {
			return fmt.Errorf("%w: unknown option %q", cell.ErrOptionValue, key)
		}
		found := false
		for _, a := range allowed {
			if a == val {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s=%q (allowed: %v)", cell.ErrOptionValue, key, val, allowed)
		}
	}
	return nil
}

func (o Options) get(key, fallback string) string {
	if v, ok := o[key]; ok {
		return v
	}
	return fallback
}

// OptionKeys lists the recognized option names.
func OptionKeys() []string {
	keys := make([]string, 0, len(allowedOptions))
	for k := range allowedOptions {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// OptionValues lists the allowed values for one option key.
func OptionValues(key string) []string {
	vals := allowedOptions[key]
	out := make([]string, len(vals))
	copy(out, vals)
	return out
}

type config struct {
	options    Options
	shells     int
	deferBuild bool
}

func newConfig() *config {
	return &config{options: Options{}, shells: 20}
}

// Option configures a model constructor.
type Option func(*config)

// WithOption sets one submodel-selection option, e.g. ("thermal", "lumped").
func WithOption(key, value string) Option {
	return func(c *config) { c.options[key] = value }
}

// WithDeferredBuild returns the model unbuilt so its submodel map can be
// edited before Build is called.
func WithDeferredBuild() Option {
	return func(c *config) { c.deferBuild = true }
}

// WithParticleShells sets the radial resolution of Fickian particles.
func WithParticleShells(n int) Option {
	return func(c *config) { c.shells = n }
}
