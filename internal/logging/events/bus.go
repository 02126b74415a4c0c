package events

import "github.com/atomicstack/vault-browser/internal/logging"

type BusTracer struct{}

var Bus = BusTracer{}

func (BusTracer) Subscribe(topic string, duplicate bool) {
	logging.Trace("bus.subscribe", map[string]interface{}{"topic": topic, "duplicate": duplicate})
}

func (BusTracer) Unsubscribe(topic string, found bool) {
	logging.Trace("bus.unsubscribe", map[string]interface{}{"topic": topic, "found": found})
}

func (BusTracer) Publish(topic string, id uint64, subscribers int) {
	logging.Trace("bus.publish", map[string]interface{}{"topic": topic, "id": id, "subscribers": subscribers})
}

func (BusTracer) HandlerError(topic string, id uint64, err error) {
	if err == nil {
		return
	}
	logging.Trace("bus.handler-error", map[string]interface{}{"topic": topic, "id": id, "error": err.Error()})
}

type BridgeTracer struct{}

var Bridge = BridgeTracer{}

func (BridgeTracer) Forward(topic string, id uint64) {
	logging.Trace("bridge.forward", map[string]interface{}{"topic": topic, "id": id})
}

func (BridgeTracer) Drop(topic string, id uint64) {
	logging.Trace("bridge.drop", map[string]interface{}{"topic": topic, "id": id})
}
