// SPDX-License-Identifier: MPL-2.0

package dockerfile

import (
	"bufio"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/mayhemheroes/modus/pkg/logic"
	"github.com/mayhemheroes/modus/pkg/sld"
)

// Tree connectors, one per relation kind.
const (
	ConnectorImage   = "══"
	ConnectorLayer   = "──"
	ConnectorLogical = "┄┄"
)

// SharedMarker follows an image that was already drawn earlier in the tree.
const SharedMarker = "(shared)"

type (
	// TreeOption configures Tree.
	TreeOption func(*treeOptions)

	treeOptions struct {
		styles *TreeStyles
	}

	// TreeStyles colors tree labels by kind.
	TreeStyles struct {
		Image   lipgloss.Style
		Layer   lipgloss.Style
		Logical lipgloss.Style
		Shared  lipgloss.Style
	}
)

// DefaultTreeStyles returns the CLI palette.
func DefaultTreeStyles() TreeStyles {
	return TreeStyles{
		Image:   lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED")),
		Layer:   lipgloss.NewStyle().Foreground(lipgloss.Color("#3B82F6")),
		Logical: lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF")),
		Shared:  lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true),
	}
}

// WithStyles colors the output.
func WithStyles(s TreeStyles) TreeOption {
	return func(o *treeOptions) { o.styles = &s }
}

// Tree draws the proof of d depth first. Children are indented under their
// parent and prefixed with the connector of their kind. An image drawn a
// second time is printed with the logical connector and SharedMarker, without
// its children.
func Tree(w io.Writer, d *sld.Derivation, opts ...TreeOption) error {
	var o treeOptions
	for _, opt := range opts {
		opt(&o)
	}
	t := &treeWriter{w: bufio.NewWriter(w), styles: o.styles, drawn: make(map[string]bool)}
	t.line(0, "", d.Root.String(), d.Root.Kind, false)
	t.mark(d.Root)
	t.children(d.Root, 1)
	return t.w.Flush()
}

type treeWriter struct {
	w      *bufio.Writer
	styles *TreeStyles
	drawn  map[string]bool
}

func (t *treeWriter) mark(n *sld.Node) {
	if n.Kind == logic.KindImage && !n.Operator {
		t.drawn[n.Key()] = true
	}
}

func (t *treeWriter) children(n *sld.Node, depth int) {
	for _, c := range n.Children {
		if c.Kind == logic.KindImage && !c.Operator && t.drawn[c.Key()] {
			t.line(depth, ConnectorLogical, c.String(), c.Kind, true)
			continue
		}
		t.line(depth, connector(c.Kind), c.String(), c.Kind, false)
		t.mark(c)
		t.children(c, depth+1)
	}
}

func (t *treeWriter) line(depth int, conn, label string, kind logic.Kind, shared bool) {
	if depth > 0 {
		t.w.WriteString(strings.Repeat("   ", depth-1))
		t.w.WriteString(conn)
		t.w.WriteString(" ")
	}
	if shared {
		label += " " + SharedMarker
	}
	t.w.WriteString(t.style(label, kind, shared))
	t.w.WriteString("\n")
}

func (t *treeWriter) style(label string, kind logic.Kind, shared bool) string {
	if t.styles == nil {
		return label
	}
	switch {
	case shared:
		return t.styles.Shared.Render(label)
	case kind == logic.KindImage:
		return t.styles.Image.Render(label)
	case kind == logic.KindLayer:
		return t.styles.Layer.Render(label)
	}
	return t.styles.Logical.Render(label)
}

func connector(k logic.Kind) string {
	switch k {
	case logic.KindImage:
		return ConnectorImage
	case logic.KindLayer:
		return ConnectorLayer
	}
	return ConnectorLogical
}
