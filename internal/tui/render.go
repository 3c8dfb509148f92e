package tui

import (
	"fmt"
	"image/color"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
	"github.com/evanschultz/kanboard/internal/adapters/boarditems"
	"github.com/evanschultz/kanboard/internal/kanban"
)

// Column geometry. Each column is a rounded box with one cell of horizontal
// padding and a one-cell gap to its right neighbour.
const (
	columnOverhead = 5
	minColumnWidth = 20
	maxColumnWidth = 42
	headerRows     = 2
	footerRows     = 3
)

// cardSpan is the screen rows one card occupies, inclusive.
type cardSpan struct {
	id     kanban.ID
	top    int
	bottom int
}

// columnSpan is the screen rectangle of one column and its visible cards.
type columnSpan struct {
	id     string
	left   int
	right  int
	top    int
	bottom int
	cards  []cardSpan
}

// boardLayout is the rendered board plus the geometry used for hit testing.
type boardLayout struct {
	views   []string
	columns []columnSpan
}

// boardHit is the result of hit testing one pointer position.
type boardHit struct {
	column   int
	columnID string
	card     kanban.ID
}

// target converts a hit into the engine's drag target.
func (h boardHit) target() *kanban.Target {
	switch {
	case h.card != "":
		return kanban.CardTarget(h.card)
	case h.columnID != "":
		return kanban.ColumnTarget(h.columnID)
	default:
		return nil
	}
}

// hitTest finds the card or column body under (x, y).
func (m Model) hitTest(x, y int) boardHit {
	layout := m.layoutBoard()
	for idx, col := range layout.columns {
		if x < col.left || x > col.right || y < col.top || y > col.bottom {
			continue
		}
		hit := boardHit{column: idx, columnID: col.id}
		for _, card := range col.cards {
			if y >= card.top && y <= card.bottom {
				hit.card = card.id
				break
			}
		}
		return hit
	}
	return boardHit{column: -1}
}

// View handles view.
func (m Model) View() tea.View {
	v := tea.NewView(m.renderView())
	v.MouseMode = tea.MouseModeCellMotion
	v.AltScreen = true
	return v
}

// renderView renders the full screen for the current state.
func (m Model) renderView() string {
	if m.err != nil {
		return "error: " + m.err.Error() + "\n\npress r to retry • q quit\n"
	}
	if !m.ready {
		return "loading..."
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("252"))
	statusStyle := lipgloss.NewStyle().Foreground(dim)

	buckets := m.board.Buckets()
	header := titleStyle.Render("kanboard") + statusStyle.Render(fmt.Sprintf("  %d cards", buckets.Count()))
	if n := len(buckets.Fallback()); n > 0 {
		header += statusStyle.Render(fmt.Sprintf("  %d with unknown status", n))
	}
	if m.board.Deferred() {
		header += statusStyle.Render("  update pending")
	}

	layout := m.layoutBoard()
	body := lipgloss.JoinHorizontal(lipgloss.Top, layout.views...)
	if len(layout.views) == 0 {
		body = lipgloss.NewStyle().Foreground(muted).Render("no columns configured")
	}

	sections := []string{header, "", body}
	if line := m.dragLine(); line != "" {
		sections = append(sections, lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Render(line))
	} else if strings.TrimSpace(m.status) != "" && m.status != "ready" {
		sections = append(sections, statusStyle.Render(m.status))
	}
	content := strings.Join(sections, "\n")

	helpBubble := m.help
	helpBubble.ShowAll = false
	helpBubble.SetWidth(max(0, m.width-2))
	var helpView string
	if m.keyboard.active {
		helpView = helpBubble.View(dragKeyMap{keys: m.keys})
	} else {
		helpView = helpBubble.View(m.keys)
	}
	helpLine := lipgloss.NewStyle().
		Foreground(muted).
		BorderTop(true).
		BorderForeground(dim).
		Padding(0, 1).
		Width(max(0, m.width)).
		Render(helpView)

	if m.height > 0 {
		content = fitLines(content, max(0, m.height-lipgloss.Height(helpLine)))
	}
	fullContent := content + "\n" + helpLine

	overlay := m.renderModeOverlay(accent, muted, dim, m.width-8)
	if m.help.ShowAll {
		overlay = m.renderHelpOverlay(accent, muted, dim, m.width-8)
	}
	if overlay != "" {
		overlayHeight := lipgloss.Height(fullContent)
		if m.height > 0 {
			overlayHeight = m.height
		}
		fullContent = overlayOnContent(fullContent, overlay, max(1, m.width), max(1, overlayHeight))
	}
	return fullContent
}

// layoutBoard renders every column from the current buckets and records where
// each card landed on screen.
func (m Model) layoutBoard() boardLayout {
	buckets := m.board.Buckets()
	layout := boardLayout{
		views:   make([]string, 0, buckets.Len()),
		columns: make([]columnSpan, 0, buckets.Len()),
	}
	if buckets.Len() == 0 {
		return layout
	}

	accent := lipgloss.Color("62")
	muted := lipgloss.Color("241")
	dim := lipgloss.Color("239")
	colWidth := m.columnWidth(buckets.Len())
	innerWidth := max(1, colWidth-columnOverhead)
	innerHeight := max(1, m.columnHeight()-2)
	baseColStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1).
		MarginRight(1).
		Width(colWidth)
	focusColStyle := baseColStyle.BorderForeground(accent)
	colTitle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	focusCardStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	dragCardStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	subStyle := lipgloss.NewStyle().Foreground(muted)
	warningStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))

	var activeID kanban.ID
	if item, ok := m.board.ActiveItem(); ok {
		activeID = item.ID
	}
	focusCol := clamp(m.focusColumn, 0, buckets.Len()-1)
	top := m.boardTop()
	x := 0

	for colIdx, bucket := range buckets.All() {
		meta, _ := m.column(bucket.Column.ID)
		count := len(bucket.Items)
		colHeader := fmt.Sprintf("%s (%d)", bucket.Column.Title, count)
		if meta.WIPLimit > 0 {
			colHeader = fmt.Sprintf("%s (%d/%d)", bucket.Column.Title, count, meta.WIPLimit)
		}
		headerLines := []string{colTitle.Render(truncate(colHeader, innerWidth))}
		if m.boardCfg.ShowWIPWarnings && meta.OverLimit(count) {
			headerLines = append(headerLines, warningStyle.Render(truncate(fmt.Sprintf("WIP limit exceeded: %d/%d", count, meta.WIPLimit), innerWidth)))
		}

		type cardRows struct {
			id          kanban.ID
			first, last int
		}
		rows := make([]cardRows, 0, count)
		cardLines := make([]string, 0, max(1, count*3))
		focusStart, focusEnd := -1, -1
		if count == 0 {
			cardLines = append(cardLines, emptyStyle.Render("(empty)"))
		}
		for rowIdx, item := range bucket.Items {
			focused := colIdx == focusCol && rowIdx == m.focusRow
			dragging := item.ID == activeID
			prefix := "  "
			switch {
			case dragging:
				prefix = "» "
			case focused:
				prefix = "│ "
			}
			lines := m.renderCard(item, max(1, innerWidth-2), m.boardCfg)
			if len(lines) == 0 {
				lines = []string{string(item.ID)}
			}
			if item.Status != bucket.Column.ID {
				lines = append(lines, "status: "+item.Status)
			}
			first := len(cardLines)
			for lineIdx, line := range lines {
				line = prefix + truncate(line, max(1, innerWidth-2))
				switch {
				case dragging:
					line = dragCardStyle.Render(line)
				case focused && lineIdx == 0:
					line = focusCardStyle.Render(line)
				case lineIdx > 0:
					line = subStyle.Render(line)
				}
				cardLines = append(cardLines, line)
			}
			rows = append(rows, cardRows{id: item.ID, first: first, last: len(cardLines) - 1})
			if focused || dragging {
				focusStart, focusEnd = first, len(cardLines)-1
			}
			if rowIdx < count-1 {
				cardLines = append(cardLines, "")
			}
		}

		windowHeight := max(1, innerHeight-len(headerLines))
		scrollTop := 0
		if focusStart >= 0 {
			if focusEnd >= windowHeight {
				scrollTop = focusEnd - windowHeight + 1
			}
			if focusStart < scrollTop {
				scrollTop = focusStart
			}
		}
		scrollTop = clamp(scrollTop, 0, max(0, len(cardLines)-windowHeight))
		if len(cardLines) > windowHeight {
			cardLines = cardLines[scrollTop : scrollTop+windowHeight]
		}

		contentTop := top + 1 + len(headerLines)
		spans := make([]cardSpan, 0, len(rows))
		for _, r := range rows {
			first := r.first - scrollTop
			last := min(r.last-scrollTop, windowHeight-1)
			if last < 0 || first >= windowHeight {
				continue
			}
			spans = append(spans, cardSpan{id: r.id, top: contentTop + max(0, first), bottom: contentTop + last})
		}

		lines := append(append([]string{}, headerLines...), cardLines...)
		content := fitLines(strings.Join(lines, "\n"), innerHeight)
		style := baseColStyle
		if colIdx == focusCol {
			style = focusColStyle
		}
		view := style.Render(content)
		width := lipgloss.Width(view)
		layout.views = append(layout.views, view)
		layout.columns = append(layout.columns, columnSpan{
			id:     bucket.Column.ID,
			left:   x,
			right:  x + width - 1,
			top:    top,
			bottom: top + lipgloss.Height(view) - 1,
			cards:  spans,
		})
		x += width
	}
	return layout
}

// defaultCardRenderer draws the title, then a meta line, then optionally the
// first line of the description.
func defaultCardRenderer(item kanban.Item, width int, cfg BoardConfig) []string {
	lines := []string{truncate(cardTitle(item), width)}
	meta := make([]string, 0, 2)
	if p := item.Attr(boarditems.AttrPriority); p != "" {
		meta = append(meta, p)
	}
	if cfg.ShowLabels {
		if raw := item.Attr(boarditems.AttrLabels); raw != "" {
			meta = append(meta, summarizeLabels(strings.Split(raw, ","), 3))
		}
	}
	if len(meta) > 0 {
		lines = append(lines, truncate(strings.Join(meta, " "), width))
	}
	if cfg.ShowDescription {
		desc, _, _ := strings.Cut(strings.TrimSpace(item.Attr(boarditems.AttrDescription)), "\n")
		if desc != "" {
			lines = append(lines, truncate(desc, width))
		}
	}
	return lines
}

// dragLine describes the active drag for the status row.
func (m Model) dragLine() string {
	item, ok := m.board.ActiveItem()
	if !ok {
		return ""
	}
	col, _, found := m.board.Buckets().Locate(item.ID)
	dest := item.Status
	if found {
		dest = m.board.Buckets().At(col).Column.Title
	}
	line := fmt.Sprintf("dragging %s → %s", truncate(cardTitle(item), 40), dest)
	if m.board.Deferred() {
		line += " (board update waiting)"
	}
	return line
}

// renderModeOverlay renders output for the current model state.
func (m Model) renderModeOverlay(accent, muted, dim color.Color, maxWidth int) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(accent)
	hintStyle := lipgloss.NewStyle().Foreground(muted)
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(accent).
		Padding(0, 1)

	switch m.mode {
	case modeAddCard:
		if maxWidth > 0 {
			style = style.Width(clamp(maxWidth, 40, 72))
		}
		lines := []string{
			titleStyle.Render("New card in " + m.columnTitle(m.addColumn)),
			m.addInput.View(),
			hintStyle.Render("enter save • esc cancel"),
		}
		return style.Render(strings.Join(lines, "\n"))

	case modeCardInfo:
		width := clamp(maxWidth, 44, 96)
		if maxWidth > 0 {
			style = style.Width(width)
		}
		card := m.infoCard
		labels := "-"
		if len(card.Labels) > 0 {
			labels = strings.Join(card.Labels, ", ")
		}
		lines := []string{
			titleStyle.Render(card.Title),
			hintStyle.Render(fmt.Sprintf("id: %s  status: %s  priority: %s", card.ID, m.columnTitle(card.Status), card.Priority)),
			hintStyle.Render("labels: " + labels),
		}
		if desc := m.markdown.render(card.Description, width-4); desc != "" {
			lines = append(lines, "", desc)
		} else {
			lines = append(lines, hintStyle.Render("description: -"))
		}
		lines = append(lines, "", hintStyle.Render("y copy id • esc close"))
		return style.Render(strings.Join(lines, "\n"))
	}
	return ""
}

func (m Model) renderHelpOverlay(accent, muted, dim color.Color, maxWidth int) string {
	width := clamp(maxWidth, 56, 100)
	hb := m.help
	hb.ShowAll = true
	hb.SetWidth(width - 4)

	title := lipgloss.NewStyle().Bold(true).Foreground(accent).Render("kanboard help")
	workflow := []string{
		lipgloss.NewStyle().Bold(true).Foreground(accent).Render("Dragging"),
		"mouse: press a card, move to pick it up, release over a card or column",
		"keys: space picks up • arrows move it • space/enter drops • esc cancels",
		"a drop outside every column cancels the move",
	}
	lines := []string{
		title,
		"",
		hb.View(m.keys),
		"",
		lipgloss.NewStyle().Foreground(muted).Render(strings.Join(workflow, "\n")),
		lipgloss.NewStyle().Foreground(muted).Render("press ? or esc to close"),
	}
	style := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dim).
		Padding(0, 1)
	if maxWidth > 0 {
		style = style.Width(width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

// columnWidth returns the per-column width for n columns.
func (m Model) columnWidth(n int) int {
	if n <= 0 {
		return minColumnWidth
	}
	w := 28
	if m.width > 0 {
		if candidate := m.width/n - 3; candidate > 0 {
			w = candidate
		}
	}
	return clamp(w, minColumnWidth, maxColumnWidth)
}

// columnHeight returns column height.
func (m Model) columnHeight() int {
	h := m.height - headerRows - footerRows - 1
	if h < 8 {
		return 8
	}
	return h
}

// boardTop is the first screen row of the column boxes.
func (m Model) boardTop() int {
	return headerRows
}

// fitLines fits lines.
func fitLines(content string, maxLines int) string {
	if maxLines <= 0 {
		return ""
	}
	lines := strings.Split(content, "\n")
	switch {
	case len(lines) > maxLines:
		if maxLines == 1 {
			lines = []string{"…"}
		} else {
			lines = append(lines[:maxLines-1], "…")
		}
	case len(lines) < maxLines:
		padding := make([]string, maxLines-len(lines))
		lines = append(lines, padding...)
	}
	return strings.Join(lines, "\n")
}

// overlayOnContent overlays on content.
func overlayOnContent(base, overlay string, width, height int) string {
	if width <= 0 || height <= 0 {
		if strings.TrimSpace(overlay) == "" {
			return base
		}
		return overlay + "\n\n" + base
	}

	base = fitLines(base, height)
	canvas := lipgloss.NewCanvas(width, height)
	baseLayer := lipgloss.NewLayer(base).X(0).Y(0).Z(0)
	centeredOverlay := lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		overlay,
	)
	overlayLayer := lipgloss.NewLayer(centeredOverlay).X(0).Y(0).Z(10)

	canvas.Compose(baseLayer)
	canvas.Compose(overlayLayer)
	return canvas.Render()
}

// truncate truncates the requested operation.
func truncate(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	if limit <= 1 {
		return string(rs[:limit])
	}
	return string(rs[:limit-1]) + "…"
}

// summarizeLabels summarizes labels.
func summarizeLabels(labels []string, maxLabels int) string {
	if len(labels) == 0 {
		return ""
	}
	if maxLabels <= 0 {
		maxLabels = 1
	}
	visible := labels
	extra := 0
	if len(labels) > maxLabels {
		visible = labels[:maxLabels]
		extra = len(labels) - maxLabels
	}
	joined := "#" + strings.Join(visible, ",#")
	if extra > 0 {
		joined += fmt.Sprintf("+%d", extra)
	}
	return joined
}
