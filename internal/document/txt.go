package document

import (
	"bufio"
	"fmt"
	"io"

	"github.com/brogergvhs/novelgrab/internal/text"
)

// TXT writes plain UTF-8 text. Ruby annotations become base(annotation).
type TXT struct{}

func (TXT) Extension() string { return ".txt" }

func (TXT) Assemble(w io.Writer, b Book, opts Options) error {
	list, err := entries(b, opts)
	if err != nil {
		return err
	}

	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n", b.Title)
	if b.Author != "" {
		fmt.Fprintf(bw, "作者：%s\n", b.Author)
	}

	for _, e := range list {
		fmt.Fprintf(bw, "\n\n%s\n\n", e.Title)
		fmt.Fprintf(bw, "%s\n", text.RenderRuby(e.Body, plainRuby))
	}

	return bw.Flush()
}

func plainRuby(base, annotation string) string {
	return base + "(" + annotation + ")"
}
