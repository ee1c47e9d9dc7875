package chapters

import (
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Link is one chapter entry discovered on a catalog page. URL is already
// normalized and is the uniqueness key.
type Link struct {
	URL       string
	Title     string
	Sequence  *int
	Published *time.Time
}

type Status int

const (
	StatusFetched Status = iota + 1
	StatusFailed
	StatusSkipped
)

func (s Status) String() string {
	switch s {
	case StatusFetched:
		return "fetched"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

const (
	ReasonExtractionEmpty = "extraction-empty"
	ReasonCancelled       = "cancelled"
)

// Record is the outcome for one selected chapter. Index is its 1-based
// position in the selected order and never changes after discovery.
type Record struct {
	Index  int
	Link   Link
	Title  string
	Body   string
	Status Status
	Reason string
	Cached bool
}

func (r Record) OK() bool { return r.Status == StatusFetched }

func Fetched(index int, link Link, title, body string) Record {
	return Record{Index: index, Link: link, Title: title, Body: body, Status: StatusFetched}
}

func Failed(index int, link Link, reason string) Record {
	return Record{Index: index, Link: link, Title: link.Title, Status: StatusFailed, Reason: reason}
}

func Skipped(index int, link Link, reason string) Record {
	return Record{Index: index, Link: link, Title: link.Title, Status: StatusSkipped, Reason: reason}
}

var (
	reUnsafeName = regexp.MustCompile(`[\\/:*?"<>|]+`)
	reNameSpaces = regexp.MustCompile(`\s+`)
)

// SafeFilename turns a book title into a file name ending in ext.
func SafeFilename(name, ext string) string {
	s := reUnsafeName.ReplaceAllString(strings.TrimSpace(name), "_")
	s = strings.Trim(reNameSpaces.ReplaceAllString(s, " "), " .")
	if s == "" {
		s = "novel"
	}

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	if !strings.HasSuffix(strings.ToLower(s), strings.ToLower(ext)) {
		s += ext
	}

	return filepath.Base(s)
}
