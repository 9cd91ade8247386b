package tor

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Options select how downloads leave the host.
type Options struct {
	// ProxyAddress routes through an existing SOCKS5 proxy.
	ProxyAddress string

	// UseTor starts an embedded Tor daemon.
	UseTor bool

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// StartupTimeout bounds the embedded daemon bootstrap.
	StartupTimeout time.Duration

	// Logger receives transport diagnostics.
	Logger *slog.Logger
}

// Transport is an HTTP client plus whatever must be torn down after use.
type Transport struct {
	// Client performs the requests.
	Client *http.Client

	// Mode is "direct", "proxy" or "tor".
	Mode string

	embedded *EmbeddedTor
}

// Close stops the embedded daemon, if any.
func (t *Transport) Close() error {
	if t == nil || t.embedded == nil {
		return nil
	}
	return t.embedded.Stop()
}

// NewTransport builds the transport selected by opts. A proxy is probed with
// CheckConnection before use so that a dead proxy fails fast.
func NewTransport(ctx context.Context, opts Options) (*Transport, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	switch {
	case opts.UseTor:
		embedded := NewEmbeddedTor(WithStartupTimeout(opts.StartupTimeout))
		logger.Info("starting embedded Tor daemon", "timeout", opts.StartupTimeout)
		if err := embedded.Start(ctx); err != nil {
			return nil, err
		}
		client, err := embedded.NewClient(opts.Timeout)
		if err != nil {
			_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
			return nil, err
		}
		logger.Info("embedded Tor daemon ready", "socks", embedded.SocksAddr())
		return &Transport{Client: client.NewHTTPClient(), Mode: "tor", embedded: embedded}, nil

	case opts.ProxyAddress != "":
		client, err := NewClient(opts.ProxyAddress, opts.Timeout)
		if err != nil {
			return nil, err
		}
		if status := client.CheckConnection(ctx); status != ProxyStatusOK {
			return nil, fmt.Errorf("proxy %s: %w", opts.ProxyAddress, status.Error())
		}
		return &Transport{Client: client.NewHTTPClient(), Mode: "proxy"}, nil

	default:
		return &Transport{Client: NewDirectHTTPClient(opts.Timeout), Mode: "direct"}, nil
	}
}
