// Package media publishes files referenced by media embeds into the
// public root and computes image display sizes.
package media

import (
	"mime"
	"path"
	"strings"

	"github.com/starford/inkwell/internal/mdast"
)

var kinds = map[string]mdast.MediaType{
	"avif": mdast.MediaImage,
	"bmp":  mdast.MediaImage,
	"gif":  mdast.MediaImage,
	"jpeg": mdast.MediaImage,
	"jpg":  mdast.MediaImage,
	"png":  mdast.MediaImage,
	"svg":  mdast.MediaImage,
	"webp": mdast.MediaImage,

	"flac": mdast.MediaAudio,
	"m4a":  mdast.MediaAudio,
	"mp3":  mdast.MediaAudio,
	"ogg":  mdast.MediaAudio,
	"wav":  mdast.MediaAudio,
	"3gp":  mdast.MediaAudio,

	"mkv":  mdast.MediaVideo,
	"mov":  mdast.MediaVideo,
	"mp4":  mdast.MediaVideo,
	"ogv":  mdast.MediaVideo,
	"webm": mdast.MediaVideo,

	"pdf": mdast.MediaPDF,
}

var videoTypes = map[string]string{
	"mkv":  "video/x-matroska",
	"mov":  "video/quicktime",
	"mp4":  "video/mp4",
	"ogv":  "video/ogg",
	"webm": "video/webm",
}

func ext(name string) string {
	return strings.ToLower(strings.TrimPrefix(path.Ext(name), "."))
}

// KindOf classifies name by its extension, ignoring case.
func KindOf(name string) (mdast.MediaType, bool) {
	k, ok := kinds[ext(name)]
	return k, ok
}

// VideoType returns the MIME type for a video file name, or "" when unknown.
func VideoType(name string) string {
	e := ext(name)
	if t, ok := videoTypes[e]; ok {
		return t
	}
	if e == "" {
		return ""
	}
	t := mime.TypeByExtension("." + e)
	if i := strings.IndexByte(t, ';'); i >= 0 {
		t = t[:i]
	}
	return t
}
