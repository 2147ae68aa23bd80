package storage

import (
	"path"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"
)

const (
	maxOriginalNameLen = 200
	maxExtLen          = 16
	fallbackName       = "file"
	nameSeparator      = "_"
)

// CleanName reduces a client supplied file name to a single path segment that is
// safe to join onto the upload directory.
func CleanName(original string) string {
	segments := strings.Split(strings.ReplaceAll(original, "\\", "/"), "/")

	name := ""
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.TrimSpace(segments[i])
		if seg == "" || seg == "." || seg == ".." {
			continue
		}
		name = seg
		break
	}

	name = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || r == utf8.RuneError {
			return -1
		}
		return r
	}, name)

	if name == "" || name == "." || name == ".." {
		return fallbackName
	}
	return truncateName(name, maxOriginalNameLen)
}

// truncateName shortens name to at most limit bytes, keeping a short extension.
func truncateName(name string, limit int) string {
	if len(name) <= limit {
		return name
	}
	ext := path.Ext(name)
	if len(ext) > maxExtLen {
		ext = ""
	}
	base := name[:len(name)-len(ext)]
	n := limit - len(ext)
	for n > 0 && !utf8.RuneStart(base[n]) {
		n--
	}
	return base[:n] + ext
}

// StoredName prefixes a cleaned name with a random unique id.
func StoredName(id uuid.UUID, original string) string {
	return id.String() + nameSeparator + CleanName(original)
}

// OriginalName recovers the cleaned client name from a stored name.
func OriginalName(stored string) string {
	const idLen = 36
	if len(stored) <= idLen+1 || stored[idLen:idLen+1] != nameSeparator {
		return stored
	}
	if _, err := uuid.Parse(stored[:idLen]); err != nil {
		return stored
	}
	return stored[idLen+1:]
}

// validStoredName reports whether name can only refer to a file directly inside the
// upload directory and is not one of the hidden temp files.
func validStoredName(name string) bool {
	if name == "" || strings.HasPrefix(name, ".") {
		return false
	}
	return !strings.ContainsAny(name, "/\\\x00")
}
