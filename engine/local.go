// ABOUTME: Local audio file addresses for the native backend
// ABOUTME: Resolves file:// and plain paths and titles them from their tags

package engine

import (
	"io"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/dhowden/tag"
)

// localPath reports whether address refers to a file on disk and returns its path
func localPath(address string) (string, bool) {
	if strings.HasPrefix(address, "file://") {
		u, err := url.Parse(address)
		if err != nil || u.Path == "" {
			return "", false
		}

		return u.Path, true
	}

	if strings.Contains(address, "://") {
		return "", false
	}

	return address, address != ""
}

// localTitle builds a display title from the file's tags, falling back to its name.
// The reader is rewound before returning.
func localTitle(r io.ReadSeeker, path string) string {
	defer func() { _, _ = r.Seek(0, io.SeekStart) }()

	fallback := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	m, err := tag.ReadFrom(r)
	if err != nil {
		return fallback
	}

	title := strings.TrimSpace(m.Title())
	artist := strings.TrimSpace(m.Artist())

	switch {
	case title != "" && artist != "":
		return artist + " - " + title
	case title != "":
		return title
	default:
		return fallback
	}
}
