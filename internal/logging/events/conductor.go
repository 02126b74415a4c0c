package events

import "github.com/atomicstack/vault-browser/internal/logging"

type ConductorTracer struct{}

var Conductor = ConductorTracer{}

func (ConductorTracer) Request(kind string, payload map[string]interface{}) {
	if payload == nil {
		payload = map[string]interface{}{}
	}
	payload["kind"] = kind
	logging.Trace("conductor.request", payload)
}

func (ConductorTracer) Rejected(kind string, err error) {
	logging.Trace("conductor.rejected", map[string]interface{}{"kind": kind, "error": errString(err)})
}

func (ConductorTracer) Completed(kind string, failures int, err error) {
	payload := map[string]interface{}{"kind": kind, "failures": failures}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("conductor.completed", payload)
}

func (ConductorTracer) Superseded(seq, latest uint64) {
	logging.Trace("conductor.superseded", map[string]interface{}{"seq": seq, "latest": latest})
}

func (ConductorTracer) HistoryPush(nodeID, path string) {
	logging.Trace("conductor.history-push", map[string]interface{}{"node": nodeID, "path": path})
}

func (ConductorTracer) Replay(nodeID, path string) {
	logging.Trace("conductor.replay", map[string]interface{}{"node": nodeID, "path": path})
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
