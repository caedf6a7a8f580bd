package probe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/bnema/goalpanel/internal/ports"
)

const defaultDialTimeout = time.Second

// Link treats the network as joined once the metrics host accepts a TCP
// connection. Begin resolves the target the way a radio would scan for its
// access point before associating.
type Link struct {
	Address     string
	DialTimeout time.Duration
	// Transport gets its idle connections dropped on Disconnect.
	Transport *http.Transport

	dialer    net.Dialer
	target    string
	connected bool
}

var _ ports.Link = (*Link)(nil)

// AddressFromURL derives host:port from an http(s) URL.
func AddressFromURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse metrics url: %w", err)
	}
	if parsed.Hostname() == "" {
		return "", fmt.Errorf("metrics url %q has no host", raw)
	}

	port := parsed.Port()
	if port == "" {
		switch parsed.Scheme {
		case "https":
			port = "443"
		default:
			port = "80"
		}
	}

	return net.JoinHostPort(parsed.Hostname(), port), nil
}

func (l *Link) Begin(ctx context.Context) error {
	l.connected = false
	l.target = ""

	if l.Address == "" {
		return errors.New("probe address is empty")
	}

	host, port, err := net.SplitHostPort(l.Address)
	if err != nil {
		return fmt.Errorf("parse probe address: %w", err)
	}

	addrs, err := net.DefaultResolver.LookupHost(ctx, host)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return fmt.Errorf("resolve %s: no addresses", host)
	}

	l.target = net.JoinHostPort(addrs[0], port)
	return nil
}

func (l *Link) Connected(ctx context.Context) bool {
	if l.connected {
		return true
	}
	if l.target == "" {
		return false
	}

	timeout := l.DialTimeout
	if timeout <= 0 {
		timeout = defaultDialTimeout
	}

	dialCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	conn, err := l.dialer.DialContext(dialCtx, "tcp", l.target)
	if err != nil {
		return false
	}
	_ = conn.Close()

	l.connected = true
	return true
}

func (l *Link) Disconnect() error {
	l.connected = false
	l.target = ""
	if l.Transport != nil {
		l.Transport.CloseIdleConnections()
	}
	return nil
}
