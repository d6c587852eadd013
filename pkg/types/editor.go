package types

import (
	"path/filepath"
	"strings"
)

// EditorConfig is handed to the document server's client-side script API by
// the IDE glue. The bridge constructs it but does not interpret it further.
type EditorConfig struct {
	// DocumentType is the editor family: "word", "cell" or "slide".
	DocumentType string `json:"documentType"`
	// FileType is the bare file extension, e.g. "pptx".
	FileType string `json:"fileType"`
	// Key is the document identity key for this open.
	Key string `json:"key"`
	// Title is the name shown in the editor chrome.
	Title string `json:"title"`
	// URL is where the document server fetches the file from.
	URL string `json:"url"`
	// CallbackURL is where the document server posts lifecycle callbacks.
	CallbackURL string `json:"callbackUrl"`
	// EditMode is false for view-only sessions.
	EditMode bool `json:"editMode"`
	// Language is the editor UI language code.
	Language string `json:"lang,omitempty"`
}

// DocumentType maps a file path to the document server's editor family.
// Unknown extensions default to "word", which the document server treats as
// its generic editor.
func DocumentType(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pptx", ".ppt", ".odp":
		return "slide"
	case ".xlsx", ".xls", ".ods", ".csv":
		return "cell"
	default:
		return "word"
	}
}

// FileType returns the bare lowercase extension for a path, without the dot.
func FileType(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}
