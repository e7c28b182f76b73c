package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/snarldev/snarl/pkg/diff"
	"github.com/snarldev/snarl/pkg/layout"
	"github.com/snarldev/snarl/pkg/render"
)

// Slider glyphs. One cell per processed frame.
const (
	sliderCursor = "●"
	sliderChange = "▴"
	sliderPlain  = "·"
)

// scrubModel is the bubbletea model for the interactive frame scrubber. It
// holds a finished union layout and re-renders the current frame locally on
// every cursor move; no I/O happens inside the event loop.
type scrubModel struct {
	recording string
	union     *layout.UnionLayout
	opts      render.Options
	summaries map[int]diff.Summary
	changes   []int

	// pos indexes union.ProcessedFrameIndices.
	pos   int
	frame render.Graph
	err   error
	width int
}

// newScrubModel creates a scrubber positioned on the first processed frame.
func newScrubModel(recording string, u *layout.UnionLayout, opts render.Options, summaries map[int]diff.Summary, changes []int) scrubModel {
	m := scrubModel{
		recording: recording,
		union:     u,
		opts:      opts,
		summaries: summaries,
		changes:   changes,
		width:     80,
	}
	m.renderCurrent()
	return m
}

// index returns the processed frame index under the cursor.
func (m scrubModel) index() int {
	return m.union.ProcessedFrameIndices[m.pos]
}

func (m *scrubModel) renderCurrent() {
	m.frame, m.err = render.Frame(m.index(), m.union, m.opts)
}

func (m scrubModel) Init() tea.Cmd {
	return nil
}

func (m scrubModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "left", "h":
			if m.pos > 0 {
				m.pos--
				m.renderCurrent()
			}
		case "right", "l":
			if m.pos < len(m.union.ProcessedFrameIndices)-1 {
				m.pos++
				m.renderCurrent()
			}
		case "home", "g":
			m.pos = 0
			m.renderCurrent()
		case "end", "G":
			m.pos = len(m.union.ProcessedFrameIndices) - 1
			m.renderCurrent()
		case "n":
			if p, ok := m.nextChange(); ok {
				m.pos = p
				m.renderCurrent()
			}
		case "p":
			if p, ok := m.prevChange(); ok {
				m.pos = p
				m.renderCurrent()
			}
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
	}
	return m, nil
}

// nextChange returns the cursor position of the first change frame after the
// current one.
func (m scrubModel) nextChange() (int, bool) {
	cur := m.index()
	for _, idx := range m.changes {
		if idx > cur {
			return m.posOf(idx), true
		}
	}
	return 0, false
}

// prevChange returns the cursor position of the last change frame before the
// current one.
func (m scrubModel) prevChange() (int, bool) {
	cur := m.index()
	for i := len(m.changes) - 1; i >= 0; i-- {
		if m.changes[i] < cur {
			return m.posOf(m.changes[i]), true
		}
	}
	return 0, false
}

// posOf maps a processed frame index back to its cursor position.
func (m scrubModel) posOf(index int) int {
	for i, idx := range m.union.ProcessedFrameIndices {
		if idx == index {
			return i
		}
	}
	return m.pos
}

// deadlocked reports whether any solid node of the current frame sits on a
// wait-for cycle.
func (m scrubModel) deadlocked() bool {
	for _, n := range m.frame.Nodes {
		if !n.Ghost && n.Entity.InCycle {
			return true
		}
	}
	return false
}

func (m scrubModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render(m.recording))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  frame %d (%d/%d)",
		m.index(), m.pos+1, len(m.union.ProcessedFrameIndices))))
	b.WriteString("\n\n")

	b.WriteString("  " + m.slider() + "\n\n")

	if m.err != nil {
		b.WriteString("  " + StyleDanger.Render(m.err.Error()) + "\n")
	} else {
		b.WriteString(fmt.Sprintf("  %s %s",
			StyleValue.Render(fmt.Sprintf("%d nodes", len(m.frame.Nodes))),
			StyleValue.Render(fmt.Sprintf("%d edges", len(m.frame.Edges)))))
		if m.deadlocked() {
			b.WriteString("  " + StyleDanger.Render("⚠ deadlock"))
		}
		b.WriteString("\n")

		if s, ok := m.summaries[m.index()]; ok && s.IsChange() {
			b.WriteString("  " + StyleDim.Render(fmt.Sprintf(
				"since previous: +%d/-%d entities, +%d/-%d edges",
				s.EntitiesAdded, s.EntitiesRemoved, s.EdgesAdded, s.EdgesRemoved)) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(StyleDim.Render("  ←/→ step  n/p jump change  g/G ends  q quit"))
	b.WriteString("\n")
	return b.String()
}

// slider draws one glyph per processed frame: the cursor, change frames, and
// plain frames. When the recording has more processed frames than the
// terminal is wide, a window around the cursor is shown.
func (m scrubModel) slider() string {
	changeSet := make(map[int]bool, len(m.changes))
	for _, idx := range m.changes {
		changeSet[idx] = true
	}

	indices := m.union.ProcessedFrameIndices
	start, end := 0, len(indices)
	if max := m.width - 4; max > 0 && len(indices) > max {
		start = m.pos - max/2
		if start < 0 {
			start = 0
		}
		end = start + max
		if end > len(indices) {
			end = len(indices)
			start = end - max
		}
	}

	var b strings.Builder
	for i := start; i < end; i++ {
		switch {
		case i == m.pos:
			b.WriteString(StyleHighlight.Render(sliderCursor))
		case changeSet[indices[i]]:
			b.WriteString(StyleWarning.Render(sliderChange))
		default:
			b.WriteString(StyleDim.Render(sliderPlain))
		}
	}
	return b.String()
}
