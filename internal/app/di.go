// Package app provides the dependency injection container assembling the
// vault's components: configuration, logger, metrics, backend registry,
// unlocked-state holder, and audit sink. Components are created lazily on
// first access and cached with sync.Once, matching the teacher's
// init-error-map pattern so a failed initializer surfaces consistently on
// every subsequent access instead of only the first.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/nullsector/teevault/internal/config"
	"github.com/nullsector/teevault/internal/metrics"
	"github.com/nullsector/teevault/internal/vault/backend"
	"github.com/nullsector/teevault/internal/vault/domain"
	"github.com/nullsector/teevault/internal/vault/state"
)

// Container holds all application dependencies and provides methods to
// access them, following a lazy-initialization pattern.
type Container struct {
	config *config.Config

	logger          *slog.Logger
	metricsProvider *metrics.Provider
	businessMetrics metrics.BusinessMetrics
	backendRegistry backend.Registry
	state           *state.State

	loggerInit          sync.Once
	metricsProviderInit sync.Once
	businessMetricsInit sync.Once
	backendRegistryInit sync.Once
	stateInit           sync.Once

	mu         sync.Mutex
	initErrors map[string]error
}

// NewContainer creates a new dependency injection container bound to cfg.
func NewContainer(cfg *config.Config) *Container {
	return &Container{
		config:     cfg,
		initErrors: make(map[string]error),
	}
}

// Config returns the loaded configuration.
func (c *Container) Config() *config.Config {
	return c.config
}

// Logger returns the configured structured logger.
func (c *Container) Logger() *slog.Logger {
	c.loggerInit.Do(func() {
		c.logger = c.initLogger()
	})
	return c.logger
}

// MetricsProvider returns the OpenTelemetry/Prometheus metrics provider.
func (c *Container) MetricsProvider() (*metrics.Provider, error) {
	var err error
	c.metricsProviderInit.Do(func() {
		c.metricsProvider, err = c.initMetricsProvider()
		c.recordErr("metricsProvider", err)
	})
	if err != nil {
		return nil, err
	}
	return c.metricsProvider, c.errFor("metricsProvider")
}

// BusinessMetrics returns the vault operation counters/histograms.
func (c *Container) BusinessMetrics() (metrics.BusinessMetrics, error) {
	var err error
	c.businessMetricsInit.Do(func() {
		c.businessMetrics, err = c.initBusinessMetrics()
		c.recordErr("businessMetrics", err)
	})
	if err != nil {
		return nil, err
	}
	return c.businessMetrics, c.errFor("businessMetrics")
}

// BackendRegistry returns the registry of sealing backends that need no
// per-call secret: dpapi+tpm (bound to the configured KMS key URI), and the
// declared-shape dpapi/yubihsm stubs. The openssl-pbkdf2 backend is not in
// this registry because it is bound to a passphrase supplied at call time;
// use ResolveBackend for it.
func (c *Container) BackendRegistry() backend.Registry {
	c.backendRegistryInit.Do(func() {
		c.backendRegistry = c.initBackendRegistry()
	})
	return c.backendRegistry
}

// ResolveBackend returns the Backend for id. For openssl-pbkdf2, passphrase
// must be non-empty and a fresh backend bound to it is constructed on every
// call. For every other identifier, passphrase is ignored and the static
// BackendRegistry entry is returned.
func (c *Container) ResolveBackend(id domain.BackendID, passphrase []byte) (backend.Backend, error) {
	if id == domain.BackendOpenSSLPBKDF2 {
		return backend.NewPassphraseBackend(passphrase, c.config.PBKDF2Iterations), nil
	}
	return c.BackendRegistry().Resolve(id)
}

// State returns the process-local unlocked-state holder.
func (c *Container) State() *state.State {
	c.stateInit.Do(func() {
		c.state = state.New()
		c.state.SetAutoLockTimeout(c.config.AutoLockTimeout)
	})
	return c.state
}

// Shutdown releases resources held by initialized components: locks the
// unlocked state and flushes the metrics provider.
func (c *Container) Shutdown() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != nil {
		c.state.Lock()
	}

	var shutdownErrors []error
	if c.metricsProvider != nil {
		if err := c.metricsProvider.Shutdown(context.Background()); err != nil {
			shutdownErrors = append(shutdownErrors, fmt.Errorf("metrics provider shutdown: %w", err))
		}
	}
	if len(shutdownErrors) > 0 {
		return fmt.Errorf("shutdown errors: %v", shutdownErrors)
	}
	return nil
}

func (c *Container) recordErr(key string, err error) {
	if err == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initErrors[key] = err
}

func (c *Container) errFor(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.initErrors[key]
}

func (c *Container) initLogger() *slog.Logger {
	var level slog.Level
	switch c.config.LogLevel {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}

func (c *Container) initMetricsProvider() (*metrics.Provider, error) {
	if !c.config.MetricsEnabled {
		return nil, nil
	}
	provider, err := metrics.NewProvider(c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics provider: %w", err)
	}
	return provider, nil
}

func (c *Container) initBusinessMetrics() (metrics.BusinessMetrics, error) {
	if !c.config.MetricsEnabled {
		return metrics.NewNoOpBusinessMetrics(), nil
	}
	provider, err := c.MetricsProvider()
	if err != nil {
		return nil, fmt.Errorf("failed to get metrics provider for business metrics: %w", err)
	}
	bm, err := metrics.NewBusinessMetrics(provider.MeterProvider(), c.config.MetricsNamespace)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}
	return bm, nil
}

// initBackendRegistry builds the registry of sealing backends that do not
// need a passphrase: dpapi+tpm is registered when a KMS key URI is
// configured; dpapi and yubihsm are always registered as declared-shape
// stubs that report HardwareUnavailable.
func (c *Container) initBackendRegistry() backend.Registry {
	reg := backend.Registry{
		domain.BackendDPAPI:   backend.NewDPAPIBackend(),
		domain.BackendYubiHSM: backend.NewYubiHSMBackend(),
	}
	if c.config.KMSKeyURI != "" {
		reg[domain.BackendDPAPITPM] = backend.NewDPAPITPMBackend(c.config.KMSKeyURI, c.Logger())
	}
	return reg
}
