package events

import "github.com/atomicstack/vault-browser/internal/logging"

type CacheTracer struct{}

var Cache = CacheTracer{}

func (CacheTracer) Merge(parentID string, incoming, deduped int, appendPage bool) {
	logging.Trace("cache.merge", map[string]interface{}{
		"parent":   parentID,
		"incoming": incoming,
		"deduped":  deduped,
		"append":   appendPage,
	})
}

func (CacheTracer) Evict(parentID string, dropped int) {
	logging.Trace("cache.evict", map[string]interface{}{"parent": parentID, "dropped": dropped})
}

func (CacheTracer) Relocate(id, from, to string) {
	logging.Trace("cache.relocate", map[string]interface{}{"node": id, "from": from, "to": to})
}
