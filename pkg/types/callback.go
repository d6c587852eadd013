// Package types contains the shared types exchanged between the bridge,
// the IDE glue, and the external document server.
package types

// Callback status codes reported by the document server. The numeric values
// are part of the document server's wire protocol and must not be renumbered.
const (
	// StatusEditing means the document is being edited; nothing to persist yet.
	StatusEditing = 1
	// StatusReadyForSave means the document was closed with changes and a
	// download URL for the new version is available.
	StatusReadyForSave = 2
	// StatusSaveError means the document server failed to save the document.
	StatusSaveError = 3
	// StatusClosedNoChanges means the document was closed without changes.
	StatusClosedNoChanges = 4
	// StatusForceSave means the document server produced a version in response
	// to a forced or periodic save while editing continues.
	StatusForceSave = 6
	// StatusForceSaveError means a forced save failed on the document server.
	StatusForceSaveError = 7
)

// CallbackPayload is the body of a POST /callback/{token} request from the
// document server.
type CallbackPayload struct {
	// Status is the document lifecycle status code.
	Status int `json:"status"`
	// URL is the download link for the new document version. Only present for
	// save-triggering statuses.
	URL string `json:"url,omitempty"`
	// Key is the document identity key the version was produced under.
	Key string `json:"key,omitempty"`
}

// SaveWarranted reports whether this payload requires the bridge to fetch and
// persist a new document version: one of the two "ready" statuses, with a
// download URL present.
func (p CallbackPayload) SaveWarranted() bool {
	return (p.Status == StatusReadyForSave || p.Status == StatusForceSave) && p.URL != ""
}

// CallbackAck is the response body for POST /callback/{token}. The document
// server only checks the error field: 0 means the callback was received.
type CallbackAck struct {
	Error int `json:"error"`
}
