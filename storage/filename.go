package storage

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
)

var (
	unsafeNameChars  = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRun    = regexp.MustCompile(`\s+`)
	storedNamePrefix = regexp.MustCompile(`^\d+-\d+-`)
)

// RecoverUTF8Name repairs a UTF-8 file name that was decoded as Latin-1 along the
// way (e.g. "BÃ¡o cÃ¡o.docx" becomes "Báo cáo.docx"). Names that are already
// proper UTF-8 are returned unchanged.
func RecoverUTF8Name(name string) string {
	raw, err := charmap.ISO8859_1.NewEncoder().String(name)
	if err != nil || raw == name {
		return name
	}
	if !utf8.ValidString(raw) {
		return name
	}
	return raw
}

// SanitizeName strips characters that are unsafe in file names and collapses
// whitespace runs to a single underscore. Non-ASCII letters are kept.
func SanitizeName(name string) string {
	name = unsafeNameChars.ReplaceAllString(name, "")
	name = whitespaceRun.ReplaceAllString(strings.TrimSpace(name), "_")
	if name == "" || name == "." || name == ".." {
		return "file"
	}
	return name
}

// StoredName builds the on-disk name {unixMillis}-{random}-{sanitized}.
func StoredName(now time.Time, original string) string {
	return fmt.Sprintf("%d-%d-%s", now.UnixMilli(), uuid.New().ID()%1_000_000_000, SanitizeName(original))
}

// DisplayNameFromStored drops the {unixMillis}-{random}- prefix of a stored name.
func DisplayNameFromStored(stored string) string {
	return storedNamePrefix.ReplaceAllString(stored, "")
}
