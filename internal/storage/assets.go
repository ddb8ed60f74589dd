package storage

import (
	"fmt"
	"strings"
)

// ImageKey is where a generated image is kept: one directory per task, one
// numbered file per image.
func ImageKey(taskID, mime string, index int) string {
	if index < 0 {
		index = 0
	}
	ext := ExtensionForMIME(mime)
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("generated/images/%s/image-%02d%s", taskID, index+1, ext)
}

func ExtensionForMIME(mime string) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	switch mime {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ""
	}
}
