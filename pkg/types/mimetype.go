package types

import "strings"

// IsTextMimeType reports whether a mimetype denotes a textual page
func IsTextMimeType(mimetype string) bool {
	mimetype = strings.ToLower(mimetype)
	return strings.HasPrefix(mimetype, "text/") || strings.Contains(mimetype, "html")
}
