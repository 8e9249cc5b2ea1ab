package tabular

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// readHTMLTables extracts every <table> as one grid. Some toll portals
// export "Excel" files that are really HTML documents.
func readHTMLTables(data []byte) ([]Grid, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnreadableFile, err)
	}

	var grids []Grid
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "table" {
			if g := tableToGrid(n); len(g.Cells) > 0 {
				grids = append(grids, g)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(grids) == 0 {
		return nil, fmt.Errorf("%w: document contains no table", ErrUnreadableFile)
	}
	return grids, nil
}

func tableToGrid(table *html.Node) Grid {
	var g Grid
	var walkRows func(n *html.Node)
	walkRows = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "tr" {
			var row []string
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if c.Type == html.ElementNode && (c.Data == "td" || c.Data == "th") {
					row = append(row, nodeText(c))
				}
			}
			g.Cells = append(g.Cells, row)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walkRows(c)
		}
	}
	walkRows(table)
	return g
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.TrimSpace(b.String())
}
