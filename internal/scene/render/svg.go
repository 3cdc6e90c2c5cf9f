package render

import (
	"fmt"
	"html"
	"math"
	"strconv"
	"strings"

	"room-passport/internal/scene/models"
)

// ============================================================
// Renderer
// ============================================================

const (
	defaultCanvas  = 1000.0
	defaultPadding = 20.0
)

// Renderer строит SVG-превью сцены. Оформление каждого узла берётся из каталога.
type Renderer struct {
	Padding    float64
	Background string
}

func NewRenderer() *Renderer {
	return &Renderer{Padding: defaultPadding, Background: "#FFFFFF"}
}

// Render собирает SVG из узлов сцены.
func (r *Renderer) Render(scene models.Scene) (string, error) {
	if err := scene.Validate(); err != nil {
		return "", fmt.Errorf("render scene: %w", err)
	}

	minX, minY, width, height := r.viewBox(scene.Nodes)

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s">`,
		formatFloat(width), formatFloat(height),
		formatFloat(minX), formatFloat(minY), formatFloat(width), formatFloat(height))
	b.WriteString("\n")

	if r.Background != "" {
		fmt.Fprintf(&b, `  <rect x="%s" y="%s" width="%s" height="%s" fill="%s" />`,
			formatFloat(minX), formatFloat(minY), formatFloat(width), formatFloat(height), r.Background)
		b.WriteString("\n")
	}

	for _, n := range scene.Nodes {
		b.WriteString("  ")
		b.WriteString(renderNode(n))
		b.WriteString("\n")
	}

	b.WriteString(`</svg>`)
	return b.String(), nil
}

// ============================================================
// Layout
// ============================================================

func (r *Renderer) viewBox(nodes []models.Node) (x, y, w, h float64) {
	if len(nodes) == 0 {
		return 0, 0, defaultCanvas, defaultCanvas
	}

	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	for _, n := range nodes {
		minX = math.Min(minX, n.Position.X)
		minY = math.Min(minY, n.Position.Y)
		maxX = math.Max(maxX, n.Position.X+n.Width)
		maxY = math.Max(maxY, n.Position.Y+n.Height)
	}

	pad := r.Padding
	return minX - pad, minY - pad, (maxX - minX) + 2*pad, (maxY - minY) + 2*pad
}

// renderNode рисует предмет в исходных размерах, повернутый вокруг центра габаритов.
func renderNode(n models.Node) string {
	entry := models.Lookup(n.Kind)
	c := n.Center()
	x := c.X - n.OriginalWidth/2
	y := c.Y - n.OriginalHeight/2

	var b strings.Builder
	fmt.Fprintf(&b, `<g id="%s" data-type="%s"`, html.EscapeString(n.ID), html.EscapeString(string(n.Kind)))
	if n.Rotation != 0 {
		fmt.Fprintf(&b, ` transform="rotate(%d %s %s)"`, n.Rotation, formatFloat(c.X), formatFloat(c.Y))
	}
	b.WriteString(">")

	fmt.Fprintf(&b, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s" stroke="%s" />`,
		formatFloat(x), formatFloat(y), formatFloat(n.OriginalWidth), formatFloat(n.OriginalHeight),
		entry.Fill, entry.Stroke)

	if label := n.Label; label != "" {
		size := math.Max(8, math.Min(n.OriginalWidth, n.OriginalHeight)*0.6)
		fmt.Fprintf(&b, `<text x="%s" y="%s" font-size="%s" text-anchor="middle" dominant-baseline="central">%s</text>`,
			formatFloat(c.X), formatFloat(c.Y), formatFloat(math.Round(size)), html.EscapeString(label))
	}

	b.WriteString("</g>")
	return b.String()
}

// ============================================================
// Formatting helpers
// ============================================================

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
