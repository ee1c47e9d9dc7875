// Package text turns chapter markup into plain text and tidies titles.
package text

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const (
	rubyOpen  = "⟦RUBY:"
	rubyClose = "⟧"

	UntitledChapter = "Untitled Chapter"
)

// Transform is an optional pure text conversion (for example script
// conversion) applied to titles, bodies and the author. A nil Transform
// passes text through unchanged.
type Transform func(string) string

func (t Transform) Apply(s string) string {
	if t == nil {
		return s
	}
	return t(s)
}

var (
	reBlankRuns  = regexp.MustCompile(`\n{3,}`)
	reSpaceRuns  = regexp.MustCompile(`[ \t\x{00a0}]+`)
	reAnySpace   = regexp.MustCompile(`\s+`)
	reChapterNum = regexp.MustCompile(`第\s*\d+\s*章`)
	reRubyToken  = regexp.MustCompile(`⟦RUBY:([^|⟧]*)\|([^⟧]*)⟧`)
)

// HTMLToText parses an HTML fragment and returns its text. <br> becomes a
// newline, a closing </p> a blank line, and <ruby> a ⟦RUBY:base|annotation⟧
// token that the document writers render natively.
func HTMLToText(fragment string) string {
	ctx := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), ctx)
	if err != nil {
		return ""
	}
	return NodesToText(nodes...)
}

// NodesToText is HTMLToText for already parsed nodes, such as the Nodes of
// a goquery selection.
func NodesToText(nodes ...*html.Node) string {
	var b strings.Builder
	for _, n := range nodes {
		writeNode(&b, n)
	}

	out := reBlankRuns.ReplaceAllString(b.String(), "\n\n")
	return strings.TrimSpace(out)
}

func writeNode(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
	case html.DocumentNode:
		writeChildren(b, n)
		return
	default:
		return
	}

	switch n.DataAtom {
	case atom.Script, atom.Style, atom.Noscript, atom.Template, atom.Head:
		return
	case atom.Br:
		b.WriteByte('\n')
		return
	case atom.Ruby:
		b.WriteString(rubyToken(n))
		return
	}

	writeChildren(b, n)

	switch n.DataAtom {
	case atom.P:
		b.WriteString("\n\n")
	case atom.Div, atom.Li, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6, atom.Blockquote:
		b.WriteByte('\n')
	}
}

func writeChildren(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeNode(b, c)
	}
}

func rubyToken(n *html.Node) string {
	var base, ann strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		switch c.DataAtom {
		case atom.Rt:
			ann.WriteString(plain(c))
		case atom.Rp:
		default:
			base.WriteString(plain(c))
		}
	}

	bs := strings.TrimSpace(base.String())
	as := strings.TrimSpace(ann.String())
	if bs != "" && as != "" {
		return rubyOpen + bs + "|" + as + rubyClose
	}
	if bs != "" {
		return bs
	}
	return as
}

func plain(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(plain(c))
	}
	return b.String()
}

// RenderRuby replaces every ruby token in s with render(base, annotation).
func RenderRuby(s string, render func(base, annotation string) string) string {
	if !strings.Contains(s, rubyOpen) {
		return s
	}
	return reRubyToken.ReplaceAllStringFunc(s, func(tok string) string {
		m := reRubyToken.FindStringSubmatch(tok)
		return render(m[1], m[2])
	})
}

// CollapseWhitespace trims every line, squeezes runs of spaces inside a
// line and keeps at most one blank line between paragraphs.
func CollapseWhitespace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	blank := true // suppresses leading blank lines
	for _, line := range lines {
		line = strings.TrimSpace(reSpaceRuns.ReplaceAllString(line, " "))
		if line == "" {
			if !blank {
				out = append(out, "")
			}
			blank = true
			continue
		}
		out = append(out, line)
		blank = false
	}

	return strings.TrimSpace(strings.Join(out, "\n"))
}

// StripPatterns removes every match of each pattern from s.
func StripPatterns(s string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		s = re.ReplaceAllString(s, "")
	}
	return s
}

// NormalizeTitle cleans a chapter title: site patterns are removed, a long
// "_suffix" after a 第N章 prefix is dropped and whitespace is collapsed.
// An empty result becomes UntitledChapter.
func NormalizeTitle(raw string, patterns []*regexp.Regexp) string {
	title := StripPatterns(strings.TrimSpace(raw), patterns)

	if left, right, ok := strings.Cut(title, "_"); ok {
		if reChapterNum.MatchString(left) && len([]rune(right)) > 3 {
			title = left
		}
	}

	title = strings.Trim(reAnySpace.ReplaceAllString(title, " "), " _-")
	if title == "" {
		return UntitledChapter
	}
	return title
}
