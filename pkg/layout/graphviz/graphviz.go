// Package graphviz provides a layout.Provider backed by Graphviz dot.
//
// The union graph is emitted as DOT, laid out once, and read back in
// Graphviz's plain text output format, which carries node positions and edge
// polylines without any drawing concerns.
package graphviz

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"

	gv "github.com/goccy/go-graphviz"

	"github.com/snarldev/snarl/pkg/layout"
	"github.com/snarldev/snarl/pkg/snapshot"
)

// pointsPerInch converts plain-format inch coordinates to layout points.
const pointsPerInch = 72.0

// formatPlain is Graphviz's position-only text output format.
const formatPlain = gv.Format("plain")

// Provider computes geometry by running the dot layout engine.
type Provider struct {
	// RankSep and NodeSep tune vertical/horizontal spacing, in inches.
	// Zero values fall back to dot's defaults.
	RankSep float64
	NodeSep float64
}

// New returns a Provider with default spacing.
func New() *Provider {
	return &Provider{RankSep: 0.5, NodeSep: 0.3}
}

// ComputeGeometry lays out the given node/edge set with dot and returns one
// position per entity id and one route per edge key.
func (p *Provider) ComputeGeometry(ctx context.Context, entities []*snapshot.Entity, edges []snapshot.Edge) (layout.Geometry, error) {
	enc := newEncoding(entities, edges)
	dot := p.toDOT(enc, entities, edges)

	g, err := gv.New(ctx)
	if err != nil {
		return layout.Geometry{}, fmt.Errorf("init graphviz: %w", err)
	}
	defer g.Close()

	parsed, err := gv.ParseBytes([]byte(dot))
	if err != nil {
		return layout.Geometry{}, fmt.Errorf("parse DOT: %w", err)
	}
	defer parsed.Close()

	var buf bytes.Buffer
	if err := g.Render(ctx, parsed, formatPlain, &buf); err != nil {
		return layout.Geometry{}, fmt.Errorf("run dot layout: %w", err)
	}

	return parsePlain(buf.String(), enc)
}

// encoding maps entity ids to DOT-safe node names and back, and assigns edge
// keys to (tail, head) pairs in emission order so plain output edges can be
// matched up again.
type encoding struct {
	names   map[snapshot.EntityID]string
	ids     map[string]snapshot.EntityID
	edgeKey map[string][]string // "tail head" -> edge keys in emission order
}

func newEncoding(entities []*snapshot.Entity, edges []snapshot.Edge) *encoding {
	enc := &encoding{
		names:   make(map[snapshot.EntityID]string, len(entities)),
		ids:     make(map[string]snapshot.EntityID, len(entities)),
		edgeKey: make(map[string][]string),
	}
	for i, e := range entities {
		name := "n" + strconv.Itoa(i)
		enc.names[e.ID] = name
		enc.ids[name] = e.ID
	}
	for _, e := range edges {
		tail, tok := enc.names[e.From]
		head, hok := enc.names[e.To]
		if !tok || !hok {
			continue
		}
		pair := tail + " " + head
		enc.edgeKey[pair] = append(enc.edgeKey[pair], e.Key())
	}
	return enc
}

func (p *Provider) toDOT(enc *encoding, entities []*snapshot.Entity, edges []snapshot.Edge) string {
	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	buf.WriteString("  rankdir=TB;\n")
	buf.WriteString("  node [shape=box];\n")
	if p.RankSep > 0 {
		fmt.Fprintf(&buf, "  ranksep=%g;\n", p.RankSep)
	}
	if p.NodeSep > 0 {
		fmt.Fprintf(&buf, "  nodesep=%g;\n", p.NodeSep)
	}
	buf.WriteString("\n")

	for _, e := range entities {
		fmt.Fprintf(&buf, "  %s [label=%q];\n", enc.names[e.ID], e.Label())
	}

	buf.WriteString("\n")
	for _, e := range edges {
		tail, tok := enc.names[e.From]
		head, hok := enc.names[e.To]
		if !tok || !hok {
			continue
		}
		fmt.Fprintf(&buf, "  %s -> %s;\n", tail, head)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// parsePlain reads Graphviz plain output:
//
//	graph scale width height
//	node name x y width height label style shape color fillcolor
//	edge tail head n x1 y1 .. xn yn [label xl yl] style color
//	stop
//
// Coordinates are in inches with the origin at the lower left; they are
// scaled to points and flipped so y grows downward.
func parsePlain(out string, enc *encoding) (layout.Geometry, error) {
	geom := layout.Geometry{
		Positions: make(map[snapshot.EntityID]layout.Position),
		Routes:    make(map[string]layout.Route),
	}
	consumed := make(map[string]int)
	var height float64

	for _, line := range strings.Split(out, "\n") {
		fields := splitPlainFields(line)
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "graph":
			if len(fields) < 4 {
				return geom, fmt.Errorf("malformed graph line: %q", line)
			}
			w, _ := strconv.ParseFloat(fields[2], 64)
			h, _ := strconv.ParseFloat(fields[3], 64)
			geom.Width = w * pointsPerInch
			geom.Height = h * pointsPerInch
			height = h

		case "node":
			if len(fields) < 6 {
				return geom, fmt.Errorf("malformed node line: %q", line)
			}
			id, ok := enc.ids[fields[1]]
			if !ok {
				continue
			}
			x, _ := strconv.ParseFloat(fields[2], 64)
			y, _ := strconv.ParseFloat(fields[3], 64)
			w, _ := strconv.ParseFloat(fields[4], 64)
			h, _ := strconv.ParseFloat(fields[5], 64)
			geom.Positions[id] = layout.Position{
				X: x * pointsPerInch,
				Y: (height - y) * pointsPerInch,
				W: w * pointsPerInch,
				H: h * pointsPerInch,
			}

		case "edge":
			if len(fields) < 4 {
				return geom, fmt.Errorf("malformed edge line: %q", line)
			}
			pair := fields[1] + " " + fields[2]
			keys := enc.edgeKey[pair]
			at := consumed[pair]
			if at >= len(keys) {
				continue
			}
			consumed[pair] = at + 1

			n, _ := strconv.Atoi(fields[3])
			if len(fields) < 4+2*n {
				return geom, fmt.Errorf("malformed edge line: %q", line)
			}
			pts := make([]layout.Point, 0, n)
			for i := range n {
				x, _ := strconv.ParseFloat(fields[4+2*i], 64)
				y, _ := strconv.ParseFloat(fields[5+2*i], 64)
				pts = append(pts, layout.Point{
					X: x * pointsPerInch,
					Y: (height - y) * pointsPerInch,
				})
			}
			geom.Routes[keys[at]] = layout.Route{Points: pts}

		case "stop":
			return geom, nil
		}
	}
	return geom, nil
}

// splitPlainFields splits a plain-format line, honoring double-quoted fields
// (labels may contain spaces).
func splitPlainFields(line string) []string {
	var fields []string
	var cur strings.Builder
	inQuote := false
	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case c == '"':
			inQuote = !inQuote
		case (c == ' ' || c == '\t') && !inQuote:
			if cur.Len() > 0 {
				fields = append(fields, cur.String())
				cur.Reset()
			}
		default:
			cur.WriteByte(c)
		}
	}
	if cur.Len() > 0 {
		fields = append(fields, cur.String())
	}
	return fields
}
