package event

// ServerStartedData is the data for server.started events.
type ServerStartedData struct {
	Port int    `json:"port"`
	Host string `json:"host"`
}

// SessionOpenedData is the data for session.opened events.
type SessionOpenedData struct {
	SessionID string `json:"sessionID"`
	Path      string `json:"path"`
	Token     string `json:"token"`
}

// SessionClosedData is the data for session.closed events.
type SessionClosedData struct {
	SessionID string `json:"sessionID"`
	Path      string `json:"path"`
}

// DocumentChangedData is the data for document.changed events, published when
// the on-disk file of an open session is modified outside the editor.
type DocumentChangedData struct {
	SessionID string `json:"sessionID"`
	Path      string `json:"path"`
}

// SaveCompletedData is the data for save.completed events.
type SaveCompletedData struct {
	Path  string `json:"path"`
	Bytes int64  `json:"bytes"`
}

// SaveFailedData is the data for save.failed events.
type SaveFailedData struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}
