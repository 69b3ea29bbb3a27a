// Package html provides an implementation of confpub.HTMLValidator built on
// the golang.org/x/net/html tokenizer.
//
// Content is checked as a fragment in Confluence storage format, which is
// XHTML: every element except the HTML void elements must be closed
// explicitly, and namespaced elements such as <ac:structured-macro> follow
// the same rules as plain HTML ones.
package html

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/confpub"
	"golang.org/x/net/html"
)

// Ensure Validator implements confpub.HTMLValidator at compile time.
var _ confpub.HTMLValidator = (*Validator)(nil)

// voidElements never take a closing tag.
var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// Validator checks HTML fragments for structural problems.
type Validator struct{}

// NewValidator creates a new Validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns a diagnostic for every unclosed element, stray closing
// tag, repeated attribute, and duplicate id in the fragment.
func (v *Validator) Validate(fragment string) ([]confpub.Diagnostic, error) {
	diags := checkStructure(fragment)

	dups, err := checkDuplicateIDs(fragment)
	if err != nil {
		return nil, fmt.Errorf("parse fragment: %w", err)
	}

	return append(diags, dups...), nil
}

// openElement is an element whose closing tag has not been seen yet.
type openElement struct {
	name string
	at   position
}

// position tracks the 1-based line and column of the tokenizer.
type position struct {
	line, col int
}

func (p *position) advance(raw []byte) {
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		raw = raw[size:]
		if r == '\n' {
			p.line++
			p.col = 1
			continue
		}
		p.col++
	}
}

func diagnostic(at position, format string, args ...any) confpub.Diagnostic {
	return confpub.Diagnostic{
		Line:    at.line,
		Column:  at.col,
		Message: fmt.Sprintf(format, args...),
	}
}

func checkStructure(fragment string) []confpub.Diagnostic {
	z := html.NewTokenizer(strings.NewReader(fragment))
	// Code macro bodies are CDATA sections and may contain markup-like text.
	z.AllowCDATA(true)
	pos := position{line: 1, col: 1}

	var stack []openElement
	var diags []confpub.Diagnostic

	for {
		tt := z.Next()
		start := pos
		pos.advance(z.Raw())

		switch tt {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				diags = append(diags, diagnostic(start, "%v", err))
			}
			for i := len(stack) - 1; i >= 0; i-- {
				diags = append(diags, diagnostic(stack[i].at, "unclosed element <%s>", stack[i].name))
			}
			return diags

		case html.StartTagToken:
			name, hasAttr := z.TagName()
			tag := string(name)
			if hasAttr {
				diags = append(diags, checkAttributes(z, tag, start)...)
			}
			if !voidElements[tag] {
				stack = append(stack, openElement{name: tag, at: start})
			}

		case html.SelfClosingTagToken:
			name, hasAttr := z.TagName()
			if hasAttr {
				diags = append(diags, checkAttributes(z, string(name), start)...)
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if voidElements[tag] {
				continue
			}

			idx := lastOpen(stack, tag)
			if idx < 0 {
				diags = append(diags, diagnostic(start, "unexpected closing tag </%s>", tag))
				continue
			}
			for i := len(stack) - 1; i > idx; i-- {
				diags = append(diags, diagnostic(stack[i].at, "unclosed element <%s>", stack[i].name))
			}
			stack = stack[:idx]
		}
	}
}

// checkAttributes reports attributes repeated within a single tag.
// It consumes the tokenizer's attributes for the current token.
func checkAttributes(z *html.Tokenizer, tag string, at position) []confpub.Diagnostic {
	var diags []confpub.Diagnostic
	seen := make(map[string]bool)
	for {
		key, _, more := z.TagAttr()
		k := string(key)
		if seen[k] {
			diags = append(diags, diagnostic(at, "duplicate attribute %q on <%s>", k, tag))
		}
		seen[k] = true
		if !more {
			return diags
		}
	}
}

func lastOpen(stack []openElement, name string) int {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].name == name {
			return i
		}
	}
	return -1
}

// checkDuplicateIDs reports every id value used by more than one element.
func checkDuplicateIDs(fragment string) ([]confpub.Diagnostic, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	var order []string
	doc.Find("[id]").Each(func(_ int, sel *goquery.Selection) {
		id, _ := sel.Attr("id")
		if id == "" {
			return
		}
		if counts[id] == 0 {
			order = append(order, id)
		}
		counts[id]++
	})

	var diags []confpub.Diagnostic
	for _, id := range order {
		if n := counts[id]; n > 1 {
			diags = append(diags, confpub.Diagnostic{
				Message: fmt.Sprintf("duplicate id %q used by %d elements", id, n),
			})
		}
	}
	return diags, nil
}
