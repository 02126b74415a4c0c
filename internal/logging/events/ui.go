package events

import "github.com/atomicstack/vault-browser/internal/logging"

// Interaction traces. Pane names are the focus names ("navigator",
// "listing"); level ids are the ui/state level ids.

type UITracer struct{}

type FilterTracer struct{}

type ActionTracer struct{}

type CommandTracer struct{}

var (
	UI      UITracer
	Filter  FilterTracer
	Action  ActionTracer
	Command CommandTracer
)

func (UITracer) Focus(pane string) {
	logging.Trace("ui.focus", map[string]interface{}{"pane": pane})
}

func (UITracer) Cursor(pane string, row int) {
	logging.Trace("ui.cursor", map[string]interface{}{"pane": pane, "row": row})
}

// Enter records the activation of a row, with the filter that was active.
func (UITracer) Enter(pane, nodeID, name, filter string) {
	logging.Trace("ui.enter", map[string]interface{}{
		"pane":   pane,
		"node":   nodeID,
		"name":   name,
		"filter": filter,
	})
}

// Expand records a navigator toggle; fetch is set when the children had to
// be requested.
func (UITracer) Expand(nodeID string, fetch bool) {
	logging.Trace("ui.expand", map[string]interface{}{"node": nodeID, "fetch": fetch})
}

func (UITracer) Prompt(kind, subject string) {
	logging.Trace("ui.prompt", map[string]interface{}{"kind": kind, "subject": subject})
}

func (FilterTracer) Query(level, key, query string) {
	logging.Trace("filter.query", map[string]interface{}{"level": level, "key": key, "query": query})
}

func (FilterTracer) Caret(level, key string, pos int) {
	logging.Trace("filter.caret", map[string]interface{}{"level": level, "key": key, "pos": pos})
}

func (ActionTracer) Error(err error) {
	if err != nil {
		logging.Trace("action.error", map[string]interface{}{"error": err.Error()})
	}
}

func (ActionTracer) Success(info string) {
	logging.Trace("action.ok", map[string]interface{}{"info": info})
}

// Published records a request leaving the UI for the bus.
func (CommandTracer) Published(topic string, id uint64, err error) {
	payload := map[string]interface{}{"topic": topic, "id": id}
	if err != nil {
		payload["error"] = err.Error()
	}
	logging.Trace("command.publish", payload)
}

// Action records a menu action moving through stage.
func (CommandTracer) Action(stage, id, label string) {
	logging.Trace("command.action", map[string]interface{}{"stage": stage, "id": id, "label": label})
}
