package addrquota

import (
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func addr(s string) net.Addr {
	return &net.TCPAddr{IP: net.ParseIP(s), Port: 1234}
}

func TestQuota_BlocksAfterBurst(t *testing.T) {
	q := NewQuota(1, 3, 10)
	for i := 0; i < 3; i++ {
		require.False(t, q.Blocked(addr("10.0.0.1")), "event %d", i)
	}
	require.True(t, q.Blocked(addr("10.0.0.1")))

	// Addresses in the same /24 block share the limiter.
	require.True(t, q.Blocked(addr("10.0.0.2")))

	// A different block has its own budget.
	require.False(t, q.Blocked(addr("10.0.1.1")))
}

func TestQuota_UnresolvableAddrNeverBlocked(t *testing.T) {
	q := NewQuota(1, 1, 10)
	a := &net.UnixAddr{Name: "not-an-ip"}
	require.False(t, q.Blocked(a))
	require.False(t, q.Blocked(a))
}
