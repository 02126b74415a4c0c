package events

import (
	"time"

	"github.com/atomicstack/vault-browser/internal/logging"
)

type APITracer struct{}

var API = APITracer{}

func (APITracer) Discover(url string, resources int) {
	logging.Trace("api.discover", map[string]interface{}{"url": url, "resources": resources})
}

func (APITracer) Request(method, url string, status int, elapsed time.Duration, err error) {
	payload := map[string]interface{}{
		"method":  method,
		"url":     url,
		"status":  status,
		"elapsed": elapsed.String(),
	}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("api.request", payload)
}
