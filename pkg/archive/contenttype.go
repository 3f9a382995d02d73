package archive

import (
	"path"
	"strings"
)

// contentTypes maps file extensions to MIME types. Anything else is served
// as HTML, which is what the client's extension-less routes expect.
var contentTypes = map[string]string{
	".html":  "text/html",
	".htm":   "text/html",
	".js":    "text/javascript",
	".css":   "text/css",
	".json":  "application/json",
	".map":   "application/json",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".svg":   "image/svg+xml",
	".ico":   "image/x-icon",
	".woff":  "font/woff",
	".woff2": "font/woff2",
	".ttf":   "font/ttf",
	".eot":   "application/vnd.ms-fontobject",
	".mp3":   "audio/mpeg",
	".wav":   "audio/wav",
	".txt":   "text/plain",
	".xml":   "text/xml",
}

// ContentType returns the MIME type for an archive path, defaulting to HTML
// for unknown or missing extensions.
func ContentType(archivePath string) string {
	if t, ok := contentTypes[strings.ToLower(path.Ext(archivePath))]; ok {
		return t
	}
	return "text/html"
}
