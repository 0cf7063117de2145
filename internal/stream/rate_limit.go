package stream

import "sync"

const defaultMaxTotal = 1000

// denial says which cap turned a stream away; empty means admitted.
type denial string

const (
	admitted    denial = ""
	deniedIP    denial = "per_ip"
	deniedTotal denial = "total"
)

// connLimiter caps open streams per client IP and across the server.
type connLimiter struct {
	mu       sync.Mutex
	perIP    map[string]int
	open     int
	ipCap    int
	totalCap int
}

// newConnLimiter builds a limiter. A non-positive totalCap selects
// defaultMaxTotal.
func newConnLimiter(ipCap, totalCap int) *connLimiter {
	if totalCap <= 0 {
		totalCap = defaultMaxTotal
	}
	return &connLimiter{perIP: make(map[string]int), ipCap: ipCap, totalCap: totalCap}
}

// admit reserves a stream slot for ip. On success the returned release
// frees the slot; calling it more than once is harmless.
func (l *connLimiter) admit(ip string) (release func(), why denial) {
	l.mu.Lock()
	defer l.mu.Unlock()

	switch {
	case l.open >= l.totalCap:
		return nil, deniedTotal
	case l.perIP[ip] >= l.ipCap:
		return nil, deniedIP
	}
	l.perIP[ip]++
	l.open++

	var once sync.Once
	return func() { once.Do(func() { l.drop(ip) }) }, admitted
}

func (l *connLimiter) drop(ip string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.open--
	if n := l.perIP[ip] - 1; n > 0 {
		l.perIP[ip] = n
	} else {
		delete(l.perIP, ip)
	}
}

// held returns how many streams ip has open.
func (l *connLimiter) held(ip string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.perIP[ip]
}

// active returns the number of open streams across all IPs.
func (l *connLimiter) active() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.open
}
