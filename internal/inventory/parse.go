package inventory

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"slices"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ErrNoLevel means the page has no player card, which is what the site serves
// for unknown ids.
var ErrNoLevel = errors.New("inventory: character level not found")

var stackable = regexp.MustCompile(`\(x[0-9]+\)$`)

// Parse reads a character page. The first card holds the player info, the
// second and third list inventory and bank items one per line.
func Parse(r io.Reader) (Inventory, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return Inventory{}, fmt.Errorf("inventory: parse html: %w", err)
	}

	var info, stash strings.Builder
	walk(doc, func(n *html.Node) bool {
		if !hasClass(n, "card") {
			return true
		}
		switch childIndex(n) {
		case 1:
			writeBodies(&info, n)
		case 2, 3:
			writeBodies(&stash, n)
		}
		return true
	})

	level, ok := parseLevel(info.String())
	if !ok {
		return Inventory{}, ErrNoLevel
	}
	inv := Inventory{Level: level, Items: []string{}}
	for _, line := range strings.Split(stash.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || stackable.MatchString(line) {
			continue
		}
		inv.Items = append(inv.Items, line)
	}
	return inv, nil
}

// walk visits n and its descendants in document order while fn returns true.
func walk(n *html.Node, fn func(*html.Node) bool) {
	if !fn(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, fn)
	}
}

func hasClass(n *html.Node, class string) bool {
	if n.Type != html.ElementNode {
		return false
	}
	for _, a := range n.Attr {
		if a.Key == "class" && slices.Contains(strings.Fields(a.Val), class) {
			return true
		}
	}
	return false
}

// childIndex is the 1-based position of n among its parent's element children.
func childIndex(n *html.Node) int {
	i := 1
	for s := n.PrevSibling; s != nil; s = s.PrevSibling {
		if s.Type == html.ElementNode {
			i++
		}
	}
	return i
}

func writeBodies(b *strings.Builder, card *html.Node) {
	walk(card, func(n *html.Node) bool {
		if hasClass(n, "card-body") {
			writeText(b, n)
			b.WriteByte('\n')
			return false
		}
		return true
	})
}

// writeText appends the text content of n, breaking lines at <br> and block
// element boundaries.
func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if n.DataAtom == atom.Br {
			b.WriteByte('\n')
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if n.Type == html.ElementNode && blockElement(n.DataAtom) {
		b.WriteByte('\n')
	}
}

func blockElement(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.P, atom.Li, atom.Tr, atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6:
		return true
	}
	return false
}
