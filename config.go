package estester

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/sirupsen/logrus"
)

// DefaultHost is the conventional local Elasticsearch endpoint.
const DefaultHost = "http://localhost:9200"

// DefaultTimeout bounds each backend call when the caller's context carries
// no deadline of its own.
const DefaultTimeout = 5 * time.Second

// Config holds the per-test-class runtime configuration. It is built once
// and read-only during execution; the fixture managers never mutate it.
type Config struct {
	// Host is the backend endpoint URL. Defaults to DefaultHost.
	Host string

	// Timeout bounds each backend call. Defaults to DefaultTimeout.
	// Zero means no per-call deadline beyond the caller's context.
	Timeout time.Duration

	// ResetIndex controls whether managed indices are wiped before AND
	// after each test. Defaults to true; disable it to leave state behind
	// for inspection after a failing run.
	ResetIndex bool

	// Proxies maps URL schemes to proxy URLs and is passed through to the
	// HTTP transport unmodified. Empty means the environment's proxy
	// settings apply.
	Proxies map[string]string

	// Logger receives lifecycle step logging at debug level. Defaults to
	// a logger that discards everything.
	Logger logrus.FieldLogger
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		Host:       DefaultHost,
		Timeout:    DefaultTimeout,
		ResetIndex: true,
		Logger:     discardLogger(),
	}
}

// withDefaults fills zero-valued fields. ResetIndex is left as-is: false is
// a deliberate choice, not an absence.
func (c Config) withDefaults() Config {
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Logger == nil {
		c.Logger = discardLogger()
	}
	return c
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// NewClient builds the shared, long-lived Elasticsearch client for a test
// class. The client is reused across all tests; its lifecycle belongs to
// the host environment, not to the fixture managers.
func NewClient(cfg Config) (*elasticsearch.Client, error) {
	cfg = cfg.withDefaults()

	transport := http.DefaultTransport
	if len(cfg.Proxies) > 0 {
		proxies := make(map[string]*url.URL, len(cfg.Proxies))
		for scheme, raw := range cfg.Proxies {
			u, err := url.Parse(raw)
			if err != nil {
				return nil, fmt.Errorf("estester: invalid proxy URL for scheme %q: %w", scheme, err)
			}
			proxies[scheme] = u
		}
		transport = &http.Transport{
			Proxy: func(req *http.Request) (*url.URL, error) {
				return proxies[req.URL.Scheme], nil
			},
		}
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.Host},
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("estester: creating client: %w", err)
	}

	return client, nil
}

// opContext applies the configured per-call timeout unless the caller's
// context already carries a deadline.
func (c Config) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return ctx, func() {}
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.Timeout)
}
