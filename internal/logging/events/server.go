package events

import "github.com/atomicstack/vault-browser/internal/logging"

type ServerTracer struct{}

var Server = ServerTracer{}

func (ServerTracer) Listen(addr, database string) {
	logging.Trace("server.listen", map[string]interface{}{"addr": addr, "database": database})
}

func (ServerTracer) Seed(nodes int) {
	logging.Trace("server.seed", map[string]interface{}{"nodes": nodes})
}

func (ServerTracer) Shutdown(err error) {
	logging.Trace("server.shutdown", map[string]interface{}{"error": errString(err)})
}
