// Package htmltomarkdown renders Confluence storage-format content as
// Markdown so a dry run can show what would be published.
package htmltomarkdown

import (
	"fmt"
	"html"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/confpub"
)

// Ensure Converter implements confpub.Converter at compile time.
var _ confpub.Converter = (*Converter)(nil)

// macroElement is the storage-format element wrapping every macro.
const macroElement = "ac:structured-macro"

// Converter wraps html-to-markdown to convert page content to Markdown.
// Macros have no Markdown equivalent and are shown as placeholders.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms page content into Markdown.
func (c *Converter) Convert(content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", confpub.Errorf(confpub.EINVALID, "empty HTML input")
	}

	prepared, err := replaceMacros(content)
	if err != nil {
		return "", err
	}

	return c.conv.ConvertString(prepared)
}

// replaceMacros swaps each outermost macro for an emphasized "macro: name"
// paragraph.
func replaceMacros(content string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return "", confpub.Errorf(confpub.EINVALID, "failed to parse HTML: %v", err)
	}

	macros := doc.Find("*").FilterFunction(func(_ int, sel *goquery.Selection) bool {
		return goquery.NodeName(sel) == macroElement
	})
	if macros.Length() == 0 {
		return content, nil
	}

	macros.Each(func(_ int, sel *goquery.Selection) {
		if sel.Parents().FilterFunction(func(_ int, p *goquery.Selection) bool {
			return goquery.NodeName(p) == macroElement
		}).Length() > 0 {
			return
		}
		name, _ := sel.Attr("ac:name")
		if name == "" {
			name = "unknown"
		}
		sel.ReplaceWithHtml(fmt.Sprintf("<p><em>macro: %s</em></p>", html.EscapeString(name)))
	})

	return doc.Find("body").Html()
}
