package document

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/brogergvhs/novelgrab/internal/text"
)

// EPUB writes an EPUB 3 package with both nav.xhtml and toc.ncx so older
// readers still get a table of contents.
type EPUB struct{}

func (EPUB) Extension() string { return ".epub" }

type epubChapter struct {
	ID    string
	File  string
	Title string
	Paras []string // already escaped, may contain <ruby> markup
}

type epubFile struct {
	name string
	tmpl string
	data any
}

type epubData struct {
	ID        string
	Title     string
	Author    string
	Language  string
	Modified  string
	CoverFile string
	CoverType string
	Chapters  []epubChapter
}

var epubTemplates = template.Must(template.New("epub").Funcs(template.FuncMap{
	"x":   xmlEscape,
	"inc": func(i int) int { return i + 1 },
}).Parse(`
{{define "container"}}<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>
{{end}}
{{define "opf"}}<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="bookid">urn:uuid:{{x .ID}}</dc:identifier>
    <dc:title>{{x .Title}}</dc:title>
    <dc:creator>{{x .Author}}</dc:creator>
    <dc:language>{{x .Language}}</dc:language>
    <meta property="dcterms:modified">{{.Modified}}</meta>
{{- if .CoverFile}}
    <meta name="cover" content="cover-image"/>
{{- end}}
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
{{- if .CoverFile}}
    <item id="cover-image" href="{{.CoverFile}}" media-type="{{x .CoverType}}" properties="cover-image"/>
    <item id="cover" href="cover.xhtml" media-type="application/xhtml+xml"/>
{{- end}}
{{- range .Chapters}}
    <item id="{{.ID}}" href="{{.File}}" media-type="application/xhtml+xml"/>
{{- end}}
  </manifest>
  <spine toc="ncx">
{{- if .CoverFile}}
    <itemref idref="cover"/>
{{- end}}
    <itemref idref="nav"/>
{{- range .Chapters}}
    <itemref idref="{{.ID}}"/>
{{- end}}
  </spine>
</package>
{{end}}
{{define "ncx"}}<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <head>
    <meta name="dtb:uid" content="urn:uuid:{{x .ID}}"/>
    <meta name="dtb:depth" content="1"/>
  </head>
  <docTitle><text>{{x .Title}}</text></docTitle>
  <navMap>
{{- range $i, $c := .Chapters}}
    <navPoint id="nav-{{$c.ID}}" playOrder="{{inc $i}}">
      <navLabel><text>{{x $c.Title}}</text></navLabel>
      <content src="{{$c.File}}"/>
    </navPoint>
{{- end}}
  </navMap>
</ncx>
{{end}}
{{define "nav"}}<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops" lang="{{x .Language}}">
<head><title>{{x .Title}}</title></head>
<body>
  <nav epub:type="toc" id="toc">
    <h1>{{x .Title}}</h1>
    <ol>
{{- range .Chapters}}
      <li><a href="{{.File}}">{{x .Title}}</a></li>
{{- end}}
    </ol>
  </nav>
</body>
</html>
{{end}}
{{define "cover"}}<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>{{x .Title}}</title></head>
<body><div style="text-align:center"><img src="{{.CoverFile}}" alt="{{x .Title}}" style="max-width:100%"/></div></body>
</html>
{{end}}
{{define "chapter"}}<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE html>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>{{x .Title}}</title></head>
<body>
  <h2>{{x .Title}}</h2>
{{- range .Paras}}
  <p>{{.}}</p>
{{- end}}
</body>
</html>
{{end}}
`))

func (EPUB) Assemble(w io.Writer, b Book, opts Options) error {
	list, err := entries(b, opts)
	if err != nil {
		return err
	}

	data := epubData{
		ID:       b.id(),
		Title:    b.Title,
		Author:   b.Author,
		Language: b.language(),
		Modified: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	}
	if b.Cover != nil && len(b.Cover.Data) > 0 {
		data.CoverType = b.Cover.MediaType
		data.CoverFile = "cover" + imageExt(b.Cover.MediaType)
	}
	for i, e := range list {
		data.Chapters = append(data.Chapters, epubChapter{
			ID:    fmt.Sprintf("ch%04d", i+1),
			File:  fmt.Sprintf("chapter_%04d.xhtml", i+1),
			Title: e.Title,
			Paras: xhtmlParagraphs(e.Body),
		})
	}

	z := zip.NewWriter(w)

	// mimetype must be the first entry and stored uncompressed
	mw, err := z.CreateHeader(&zip.FileHeader{Name: "mimetype", Method: zip.Store})
	if err != nil {
		return fmt.Errorf("epub: %w", err)
	}
	if _, err := io.WriteString(mw, "application/epub+zip"); err != nil {
		return fmt.Errorf("epub: %w", err)
	}

	files := []epubFile{
		{"META-INF/container.xml", "container", data},
		{"OEBPS/content.opf", "opf", data},
		{"OEBPS/toc.ncx", "ncx", data},
		{"OEBPS/nav.xhtml", "nav", data},
	}
	if data.CoverFile != "" {
		files = append(files, epubFile{"OEBPS/cover.xhtml", "cover", data})
	}
	for _, ch := range data.Chapters {
		files = append(files, epubFile{"OEBPS/" + ch.File, "chapter", ch})
	}

	for _, f := range files {
		if err := writeTemplate(z, f.name, f.tmpl, f.data); err != nil {
			return err
		}
	}

	if data.CoverFile != "" {
		cw, err := z.Create("OEBPS/" + data.CoverFile)
		if err != nil {
			return fmt.Errorf("epub: %w", err)
		}
		if _, err := cw.Write(b.Cover.Data); err != nil {
			return fmt.Errorf("epub: %w", err)
		}
	}

	if err := z.Close(); err != nil {
		return fmt.Errorf("epub: %w", err)
	}
	return nil
}

func writeTemplate(z *zip.Writer, name, tmpl string, data any) error {
	var buf bytes.Buffer
	if err := epubTemplates.ExecuteTemplate(&buf, tmpl, data); err != nil {
		return fmt.Errorf("epub %s: %w", name, err)
	}

	fw, err := z.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
	if err != nil {
		return fmt.Errorf("epub %s: %w", name, err)
	}
	_, err = fw.Write(buf.Bytes())
	return err
}

// xhtmlParagraphs escapes each paragraph and renders ruby tokens as markup.
func xhtmlParagraphs(body string) []string {
	paras := paragraphs(body)
	for i, p := range paras {
		paras[i] = text.RenderRuby(xmlEscape(p), func(base, ann string) string {
			return "<ruby>" + base + "<rt>" + ann + "</rt></ruby>"
		})
	}
	return paras
}

func xmlEscape(s string) string {
	var b strings.Builder
	_ = xml.EscapeText(&b, []byte(s))
	return b.String()
}

func imageExt(mediaType string) string {
	switch mediaType {
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".jpg"
	}
}
