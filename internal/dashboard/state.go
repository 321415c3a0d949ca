package dashboard

import "github.com/couchcryptid/gull-survey-dashboard/internal/domain"

// SelectionJSON is the wire form of domain.Selection.
type SelectionJSON struct {
	Selected bool   `json:"selected"`
	Location string `json:"location,omitempty"`
}

// State is the wire form of one session's view state.
type State struct {
	SessionID string         `json:"session_id"`
	Selection SelectionJSON  `json:"selection"`
	View      domain.MapView `json:"view"`
	Status    string         `json:"status"`
	Metric    domain.Metric  `json:"metric"`
	Version   uint64         `json:"version"`
}

func stateOf(sessionID string, v domain.ViewState) State {
	loc, ok := v.Selection.Location()
	return State{
		SessionID: sessionID,
		Selection: SelectionJSON{Selected: ok, Location: loc},
		View:      v.View,
		Status:    v.Status,
		Metric:    v.Metric,
		Version:   v.Version,
	}
}
