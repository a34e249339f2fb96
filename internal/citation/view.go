package citation

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"bibliography/internal/logging"
)

// DefaultTag wraps rendered citations.
const DefaultTag = "p"

// DefaultClass is set on the wrapping element.
const DefaultClass = "citation"

// ErrUnsupportedTag is returned for a wrapper tag that is not an HTML element.
var ErrUnsupportedTag = errors.New("unsupported citation tag")

// ViewOptions control the markup around a rendered citation.
type ViewOptions struct {
	Options
	Tag       string
	Class     string
	SiteTitle string
	SiteURL   string
}

// Citation renders items as HTML fragments ready to be written in a page.
type Citation struct {
	processor Processor
	now       func() time.Time
}

// NewCitation creates a view helper. A nil processor renders the plain label.
func NewCitation(p Processor) *Citation {
	return &Citation{processor: p, now: time.Now}
}

// Render formats item and wraps it in the configured tag.
func (c *Citation) Render(ctx context.Context, item Item, vo ViewOptions) (string, error) {
	if vo.Tag == "" {
		vo.Tag = DefaultTag
	}
	if vo.Class == "" {
		vo.Class = DefaultClass
	}
	tag := atom.Lookup([]byte(strings.ToLower(vo.Tag)))
	if tag == 0 {
		return "", fmt.Errorf("%w %q", ErrUnsupportedTag, vo.Tag)
	}

	wrapper := &html.Node{
		Type:     html.ElementNode,
		Data:     tag.String(),
		DataAtom: tag,
		Attr:     []html.Attribute{{Key: "class", Val: vo.Class}},
	}

	if c.processor != nil {
		formatted, err := c.processor.Render(ctx, item, vo.Options)
		if err != nil {
			return "", err
		}
		nodes, err := html.ParseFragment(strings.NewReader(formatted), &html.Node{
			Type: html.ElementNode, Data: "div", DataAtom: atom.Div,
		})
		if err != nil {
			return "", fmt.Errorf("failed to parse formatted citation: %w", err)
		}
		for _, n := range nodes {
			wrapper.AppendChild(n)
		}
	} else {
		logging.CitationDebug("No processor, rendering plain label for %s", item.ID)
		wrapper.AppendChild(textNode(PlainLabel(item)))
	}

	if vo.AppendSite && vo.SiteTitle != "" {
		wrapper.AppendChild(textNode(" "))
		if vo.SiteURL != "" {
			a := &html.Node{
				Type: html.ElementNode, Data: "a", DataAtom: atom.A,
				Attr: []html.Attribute{{Key: "href", Val: vo.SiteURL}},
			}
			a.AppendChild(textNode(vo.SiteTitle))
			wrapper.AppendChild(a)
			wrapper.AppendChild(textNode("."))
		} else {
			wrapper.AppendChild(textNode(vo.SiteTitle + "."))
		}
	}
	if vo.AppendAccessDate {
		wrapper.AppendChild(textNode(" Accessed " + c.now().Format("January 2, 2006") + "."))
	}

	var sb strings.Builder
	if err := html.Render(&sb, wrapper); err != nil {
		return "", fmt.Errorf("failed to render citation: %w", err)
	}
	return sb.String(), nil
}

func textNode(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// PlainLabel formats an item as "Title / Author, Author (Year)".
func PlainLabel(item Item) string {
	var sb strings.Builder
	sb.WriteString(item.Title)
	if len(item.Author) > 0 {
		names := make([]string, 0, len(item.Author))
		for _, a := range item.Author {
			if s := a.String(); s != "" {
				names = append(names, s)
			}
		}
		if len(names) > 0 {
			sb.WriteString(" / ")
			sb.WriteString(strings.Join(names, ", "))
		}
	}
	if y := item.Issued.Year(); y > 0 {
		sb.WriteString(" (")
		sb.WriteString(strconv.Itoa(y))
		sb.WriteString(")")
	}
	return strings.TrimSpace(sb.String())
}

// PlainText strips markup from a formatted citation and collapses whitespace.
func PlainText(fragment string) string {
	nodes, err := html.ParseFragment(strings.NewReader(fragment), &html.Node{
		Type: html.ElementNode, Data: "div", DataAtom: atom.Div,
	})
	if err != nil {
		return strings.TrimSpace(fragment)
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}
