// Package document turns a crawl result into an output file.
package document

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"github.com/brogergvhs/novelgrab/internal/chapters"
	"github.com/brogergvhs/novelgrab/internal/crawl"
	"github.com/brogergvhs/novelgrab/internal/text"
)

var ErrNoChapters = errors.New("no chapters to write")

type Cover struct {
	MediaType string
	Data      []byte
}

type Book struct {
	ID       string // uuid, without the urn prefix
	Title    string
	Author   string
	Language string
	Chapters []chapters.Record
	Cover    *Cover
}

// NewBook takes the metadata and the full record list of a crawl.
func NewBook(r *crawl.Result) Book {
	b := Book{
		ID:       r.SessionID,
		Title:    r.Title,
		Author:   r.Author,
		Language: r.Language,
		Chapters: r.Chapters,
	}
	if r.Cover != nil {
		b.Cover = &Cover{MediaType: r.Cover.MediaType, Data: r.Cover.Data}
	}
	return b
}

type Options struct {
	// IncludeFailed keeps failed and skipped chapters in place with a
	// short notice instead of their text.
	IncludeFailed bool
}

type Assembler interface {
	Assemble(w io.Writer, b Book, opts Options) error
	Extension() string
}

// Formats lists the names accepted by ForFormat.
var Formats = []string{"epub", "txt", "pdf"}

// ForFormat returns the assembler for format. fontPath is only used for
// PDF output.
func ForFormat(format, fontPath string) (Assembler, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "epub":
		return EPUB{}, nil
	case "txt", "text":
		return TXT{}, nil
	case "pdf":
		return PDF{FontPath: fontPath}, nil
	default:
		return nil, fmt.Errorf("unknown format %q (want one of %s)", format, strings.Join(Formats, ", "))
	}
}

type entry struct {
	Title string
	Body  string
}

// entries returns what goes into the document, in order.
func entries(b Book, opts Options) ([]entry, error) {
	out := make([]entry, 0, len(b.Chapters))
	for _, c := range b.Chapters {
		switch {
		case c.OK():
			out = append(out, entry{Title: c.Title, Body: c.Body})
		case opts.IncludeFailed:
			out = append(out, entry{
				Title: text.NormalizeTitle(c.Title, nil),
				Body:  fmt.Sprintf("[This chapter could not be downloaded: %s]\n%s", c.Reason, c.Link.URL),
			})
		}
	}

	if len(out) == 0 {
		return nil, ErrNoChapters
	}
	return out, nil
}

func (b Book) id() string {
	if b.ID != "" {
		return b.ID
	}
	return uuid.NewString()
}

func (b Book) language() string {
	if b.Language != "" {
		return b.Language
	}
	return "zh-Hant"
}

// paragraphs splits a chapter body into its non-empty lines.
func paragraphs(body string) []string {
	var out []string
	for line := range strings.SplitSeq(body, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
