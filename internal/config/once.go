package config

import (
	"sync"
)

// Once builds a Config lazily, exactly once, even under concurrent first
// access. A failed build is not retried: every caller sees the same error.
type Once struct {
	once  sync.Once
	build func() (*Config, error)
	cfg   *Config
	err   error
}

// NewOnce wraps build.
func NewOnce(build func() (*Config, error)) *Once {
	return &Once{build: build}
}

// Get runs build on the first call and returns its result on every call.
func (o *Once) Get() (*Config, error) {
	o.once.Do(func() {
		o.cfg, o.err = o.build()
	})
	return o.cfg, o.err
}

var (
	// globalConfig holds the process-wide configuration.
	globalConfig *Config

	// globalErr holds the error of the build run by Initialize, if any.
	globalErr error

	// configMutex protects access to globalConfig and globalErr.
	configMutex sync.RWMutex

	// initOnce ensures the process-wide configuration is built only once.
	initOnce sync.Once
)

// Initialize builds the process-wide configuration. Only the first call
// runs build; every call, including concurrent ones, returns its error.
func Initialize(build func() (*Config, error)) error {
	initOnce.Do(func() {
		cfg, err := build()

		configMutex.Lock()
		globalConfig, globalErr = cfg, err
		if err != nil {
			globalConfig = nil
		}
		configMutex.Unlock()
	})

	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalErr
}

// Get returns the process-wide configuration, or nil if Initialize has not
// succeeded.
func Get() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// MustGet is like Get but panics if there is no configuration.
func MustGet() *Config {
	cfg := Get()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}

// SetForTesting replaces the process-wide configuration and clears any
// build error.
func SetForTesting(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig, globalErr = cfg, nil
}
