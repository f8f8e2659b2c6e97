package rakserver

import (
	"net/netip"
	"sync"

	"github.com/scylladb/go-set/strset"
)

// blocklist holds the IP addresses whose packets the server drops.
type blocklist struct {
	addrs *strset.Set
	mu    sync.RWMutex
}

func newBlocklist(addrs []string) *blocklist {
	b := &blocklist{addrs: strset.New()}
	for _, addr := range addrs {
		if ip, err := netip.ParseAddr(addr); err == nil {
			b.addrs.Add(ip.Unmap().String())
		}
	}
	return b
}

func (b *blocklist) add(addr netip.Addr) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addrs.Add(addr.Unmap().String())
}

func (b *blocklist) remove(addr netip.Addr) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addrs.Remove(addr.Unmap().String())
}

func (b *blocklist) has(addr netip.Addr) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.addrs.Has(addr.Unmap().String())
}

func (b *blocklist) list() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.addrs.List()
}
