package report

import (
	"bufio"
	"io"
	"strings"
)

// MarkdownRenderer writes the report as CommonMark.
type MarkdownRenderer struct{}

// Render implements Renderer.
func (MarkdownRenderer) Render(r *Report, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, b := range Document(r) {
		var line string
		switch b.Kind {
		case BlockTitle:
			line = "# " + b.Text + "\n"
		case BlockHeading:
			line = "\n**" + escapeMarkdown(b.Text) + "**\n"
		case BlockText:
			line = "\n" + escapeMarkdown(b.Text) + "\n"
		case BlockSection:
			line = "\n## " + b.Text + "\n"
		case BlockSubsection:
			line = "\n### " + b.Text + "\n\n"
		case BlockBullet:
			line = "- " + escapeMarkdown(b.Text) + "\n"
		}
		if _, err := bw.WriteString(line); err != nil {
			return err
		}
	}
	return bw.Flush()
}

var markdownEscaper = strings.NewReplacer("*", `\*`, "_", `\_`, "`", "\\`")

func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}

// TextRenderer writes the document lines as plain text.
type TextRenderer struct{}

// Render implements Renderer.
func (TextRenderer) Render(r *Report, w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, line := range Lines(r) {
		if _, err := bw.WriteString(line + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// Format names an output document format.
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
)

// IsValid reports whether f is a known format.
func (f Format) IsValid() bool {
	switch f {
	case FormatPDF, FormatMarkdown, FormatText:
		return true
	}
	return false
}

// Extension returns the file extension for f, without the dot.
func (f Format) Extension() string {
	return string(f)
}

// RendererFor returns the renderer for f, defaulting to PDF.
func RendererFor(f Format) Renderer {
	switch f {
	case FormatMarkdown:
		return MarkdownRenderer{}
	case FormatText:
		return TextRenderer{}
	default:
		return NewPDFRenderer()
	}
}
