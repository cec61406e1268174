// Package addrquota rate limits events per IP address block.
package addrquota

import (
	"net"
	"sync"

	"github.com/golang/groupcache/lru"
	"golang.org/x/time/rate"
)

// Quota is an IP-based event rate limiter. Addresses sharing all but
// the low-order byte (a /24 for IPv4) share one token bucket, so a
// flood from neighboring addresses drains a single budget. Buckets are
// held in an LRU cache capped at maxEntries.
type Quota struct {
	refill float32 // tokens per second per block
	burst  int     // bucket capacity

	mu      sync.Mutex // protects buckets
	buckets *lru.Cache // block key -> *rate.Limiter
}

// NewQuota returns a Quota allowing eventsPerSecond sustained events
// with bursts up to burst, tracking at most maxEntries address blocks.
func NewQuota(eventsPerSecond float32, burst, maxEntries int) *Quota {
	return &Quota{
		refill:  eventsPerSecond,
		burst:   burst,
		buckets: lru.New(maxEntries),
	}
}

// Blocked charges one event against addr's block and reports whether
// the budget is exhausted. Addresses that do not parse as an IP are
// never blocked.
func (q *Quota) Blocked(addr net.Addr) bool {
	key := blockKey(addr)
	if key == "" {
		return false
	}

	q.mu.Lock()
	var limiter *rate.Limiter
	if v, ok := q.buckets.Get(key); ok {
		limiter = v.(*rate.Limiter)
	} else {
		limiter = rate.NewLimiter(rate.Limit(q.refill), q.burst)
		q.buckets.Add(key, limiter)
	}
	q.mu.Unlock()

	return !limiter.Allow()
}

// blockKey maps addr to its address block by zeroing the last byte,
// or "" when addr carries no parseable IP.
func blockKey(addr net.Addr) string {
	host, _, _ := net.SplitHostPort(addr.String())
	ip := net.ParseIP(host)
	if ip == nil {
		return ""
	}
	ip[len(ip)-1] = 0
	return ip.String()
}
