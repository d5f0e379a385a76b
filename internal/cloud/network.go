package cloud

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"
)

// DefaultDialTimeout bounds one reachability attempt.
const DefaultDialTimeout = 5 * time.Second

// Network checks that the management server is reachable and remembers the
// local address used to reach it.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Network struct {
	addr   string
	dialer net.Dialer

	mu    sync.Mutex
	local string
}

// NewNetwork creates a Network probing addr ("host:port").
func NewNetwork(addr string, timeout time.Duration) *Network {
	if timeout <= 0 {
		timeout = DefaultDialTimeout
	}
	return &Network{
		addr:   addr,
		dialer: net.Dialer{Timeout: timeout},
	}
}

// Connect makes one TCP connection attempt and closes it again.
//
// Returns:
//   - error: wrapping ErrUnreachable if the dial fails
func (n *Network) Connect(ctx context.Context) error {
	conn, err := n.dialer.DialContext(ctx, "tcp", n.addr)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUnreachable, n.addr, err)
	}
	defer conn.Close() //nolint:errcheck // probe connection

	local := conn.LocalAddr().String()
	if host, _, splitErr := net.SplitHostPort(local); splitErr == nil {
		local = host
	}

	n.mu.Lock()
	n.local = local
	n.mu.Unlock()
	return nil
}

// Address returns the local IP of the last successful attempt, or "".
func (n *Network) Address() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.local
}
