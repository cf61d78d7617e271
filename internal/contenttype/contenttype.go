// Package contenttype maps upload filenames to MIME types.
package contenttype

import (
	"mime"
	"path/filepath"
	"strings"
)

// Default is returned for unknown or missing extensions.
const Default = "application/octet-stream"

// known takes precedence over the platform MIME table, which varies between
// hosts and attaches charset parameters to text types.
var known = map[string]string{
	".txt":   "text/plain",
	".text":  "text/plain",
	".log":   "text/plain",
	".html":  "text/html",
	".htm":   "text/html",
	".css":   "text/css",
	".csv":   "text/csv",
	".md":    "text/markdown",
	".js":    "application/javascript",
	".mjs":   "application/javascript",
	".json":  "application/json",
	".xml":   "application/xml",
	".pdf":   "application/pdf",
	".zip":   "application/zip",
	".gz":    "application/gzip",
	".tar":   "application/x-tar",
	".7z":    "application/x-7z-compressed",
	".rar":   "application/vnd.rar",
	".wasm":  "application/wasm",
	".apk":   "application/vnd.android.package-archive",
	".exe":   "application/x-msdownload",
	".doc":   "application/msword",
	".docx":  "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":   "application/vnd.ms-excel",
	".xlsx":  "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".ppt":   "application/vnd.ms-powerpoint",
	".pptx":  "application/vnd.openxmlformats-officedocument.presentationml.presentation",
	".png":   "image/png",
	".jpg":   "image/jpeg",
	".jpeg":  "image/jpeg",
	".gif":   "image/gif",
	".webp":  "image/webp",
	".svg":   "image/svg+xml",
	".ico":   "image/vnd.microsoft.icon",
	".bmp":   "image/bmp",
	".tif":   "image/tiff",
	".tiff":  "image/tiff",
	".avif":  "image/avif",
	".heic":  "image/heic",
	".mp4":   "video/mp4",
	".m4v":   "video/mp4",
	".webm":  "video/webm",
	".mov":   "video/quicktime",
	".mkv":   "video/x-matroska",
	".avi":   "video/x-msvideo",
	".mp3":   "audio/mpeg",
	".wav":   "audio/wav",
	".ogg":   "audio/ogg",
	".oga":   "audio/ogg",
	".m4a":   "audio/mp4",
	".flac":  "audio/x-flac",
	".ttf":   "font/ttf",
	".otf":   "font/otf",
	".woff":  "font/woff",
	".woff2": "font/woff2",
}

// Resolve returns the MIME type for filename based on its extension.
func Resolve(filename string) string {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == "" {
		return Default
	}
	if t, ok := known[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if media, _, err := mime.ParseMediaType(t); err == nil {
			return media
		}
	}
	return Default
}
