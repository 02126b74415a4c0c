package ui

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/atomicstack/vault-browser/internal/format/table"
	"github.com/atomicstack/vault-browser/internal/tree"
	uistate "github.com/atomicstack/vault-browser/internal/ui/state"
)

const (
	defaultWidth     = 100
	defaultHeight    = 30
	navigatorMinCols = 18
	detailsMinCols   = 24
	infoTTL          = 5 * time.Second
)

// View implements tea.Model.
func (m *Model) View() string {
	width, height := m.viewSize()
	sections := []string{m.renderHeader(width)}

	bodyH := m.bodyHeight()
	if modal := m.renderModal(width); modal != "" {
		sections = append(sections, lipgloss.Place(width, bodyH, lipgloss.Center, lipgloss.Center, modal))
	} else {
		sections = append(sections, m.renderPanes(width, bodyH))
	}

	sections = append(sections, fitLine(m.statusLine(), width))
	if m.filterVisible() {
		sections = append(sections, fitLine(m.filterPrompt(), width))
	}
	if m.showFooter {
		bindings := m.keys.ShortHelp()
		if m.mode == ModePicker {
			bindings = m.keys.PickerHelp()
		}
		sections = append(sections, fitLine(renderStyled(styles.Footer, helpLine(bindings)), width))
	}
	out := strings.Join(sections, "\n")
	if lines := strings.Split(out, "\n"); len(lines) > height {
		out = strings.Join(lines[:height], "\n")
	}
	return out
}

func (m *Model) viewSize() (int, int) {
	width, height := m.width, m.height
	if width <= 0 {
		width = defaultWidth
	}
	if height <= 0 {
		height = defaultHeight
	}
	return width, height
}

func (m *Model) filterVisible() bool {
	if m.mode == ModeFilter {
		return true
	}
	l := m.views.Listing.Level
	return l != nil && l.Filter != ""
}

// bodyHeight is the row count shared by the panes.
func (m *Model) bodyHeight() int {
	_, height := m.viewSize()
	used := 2 // header + status line
	if m.filterVisible() {
		used++
	}
	if m.showFooter {
		used++
	}
	h := height - used
	if h < 4 {
		h = 4
	}
	return h
}

// maxVisibleItems is the number of listing rows that fit inside a pane:
// two border rows, the pane title and the column header.
func (m *Model) maxVisibleItems() int {
	n := m.bodyHeight() - 4
	if n < 1 {
		n = 1
	}
	return n
}

func (m *Model) renderHeader(width int) string {
	crumbs := m.views.Breadcrumbs.Crumbs()
	parts := make([]string, 0, len(crumbs))
	for i, c := range crumbs {
		style := styles.Crumb
		if i == len(crumbs)-1 {
			style = styles.CrumbCurrent
		}
		parts = append(parts, renderStyled(style, c.Label))
	}
	line := strings.Join(parts, renderStyled(styles.Crumb, " / "))
	if m.loading || m.views.Listing.Loading {
		line += "  " + renderStyled(styles.Loading, "Loading...")
	}
	return fitLine(line, width)
}

func (m *Model) statusLine() string {
	switch {
	case m.errMsg != "":
		return renderStyled(styles.Error, "Error: "+m.errMsg)
	case m.views.Listing.Status != "":
		return renderStyled(styles.ItemError, m.views.Listing.Status)
	}
	if info := m.currentInfo(); info != "" {
		return renderStyled(styles.Info, info)
	}
	return ""
}

func (m *Model) paneWidths(width int) (nav, listing, details int) {
	nav = width / 4
	if nav < navigatorMinCols {
		nav = navigatorMinCols
	}
	if m.views.Details.Open {
		details = width / 4
		if details < detailsMinCols {
			details = detailsMinCols
		}
	}
	listing = width - nav - details
	if listing < 10 {
		// too narrow for the side panes
		return 0, width, 0
	}
	return nav, listing, details
}

func (m *Model) renderPanes(width, height int) string {
	navW, listW, detailW := m.paneWidths(width)
	panes := make([]string, 0, 3)
	if navW > 0 {
		panes = append(panes, m.renderPane("Tree", m.navigatorLines(navW-2, height-3), navW, height, m.focus == FocusNavigator))
	}
	panes = append(panes, m.renderPane(m.listingTitle(), m.listingLines(listW-2), listW, height, m.focus == FocusListing))
	if detailW > 0 {
		panes = append(panes, m.renderPane("Details", m.detailLines(detailW-2), detailW, height, m.focus == FocusDetails))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, panes...)
}

// renderPane draws a bordered box exactly width by height cells.
func (m *Model) renderPane(title string, lines []string, width, height int, focused bool) string {
	innerW := width - 2
	innerH := height - 2
	if innerW < 1 {
		innerW = 1
	}
	if innerH < 1 {
		innerH = 1
	}
	body := make([]string, 0, innerH)
	body = append(body, fitLine(renderStyled(styles.PaneTitle, title), innerW))
	for _, line := range lines {
		if len(body) == innerH {
			break
		}
		body = append(body, fitLine(line, innerW))
	}
	for len(body) < innerH {
		body = append(body, strings.Repeat(" ", innerW))
	}
	style := styles.Pane
	if focused {
		style = styles.FocusedPane
	}
	content := strings.Join(body, "\n")
	if style == nil {
		return content
	}
	return style.Render(content)
}

func (m *Model) listingTitle() string {
	dir := m.views.Listing.Dir
	if dir.IsZero() {
		return uistate.RootCrumbLabel
	}
	title := nodeLabel(dir)
	if l := m.views.Listing.Level; l != nil {
		if n := len(l.SelectedItems()); n > 0 {
			title += fmt.Sprintf(" (%d selected)", n)
		}
	}
	return title
}

func (m *Model) navigatorLines(width, rows int) []string {
	nav := m.views.Navigator
	all := nav.Rows()
	m.syncNavigatorViewport()
	start := m.navOffset
	if start > len(all) {
		start = len(all)
	}
	end := start + rows
	if end > len(all) {
		end = len(all)
	}
	lines := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		row := all[i]
		marker := "  "
		if row.Node.Type.HasChildren() {
			marker = "▸ "
			if row.Expanded {
				marker = "▾ "
			}
		}
		text := strings.Repeat("  ", row.Depth) + marker + row.Node.Name
		style := styles.Item
		if nn, ok := nav.Node(row.Node.ID); ok {
			switch {
			case nn.Err != nil:
				text += " !"
				style = styles.ItemError
			case nn.Pending:
				text += " …"
			case nn.Expanded && nn.Next != "":
				text += " +"
			}
		}
		if row.Selected {
			style = styles.CrumbCurrent
		}
		if i == nav.Cursor && m.focus == FocusNavigator {
			style = styles.SelectedItem
			text = padTo(text, width)
		}
		lines = append(lines, renderStyled(style, text))
	}
	if len(all) == 0 {
		lines = append(lines, renderStyled(styles.Info, "(empty)"))
	}
	return lines
}

func (m *Model) listingLines(width int) []string {
	listing := m.views.Listing
	l := listing.Level
	if l == nil {
		return nil
	}
	if len(l.Items) == 0 {
		switch {
		case listing.Loading || m.loading:
			return []string{renderStyled(styles.Loading, "Loading...")}
		case l.Filter != "":
			return []string{renderStyled(styles.Info, fmt.Sprintf("No matches for %q", l.Filter))}
		default:
			return []string{renderStyled(styles.Info, "(no entries)")}
		}
	}
	now := m.now()
	rows := make([][]string, 0, len(l.Items)+1)
	rows = append(rows, []string{"Name", "Type", "Size", "Modified"})
	for _, it := range l.Items {
		rows = append(rows, table.Row(it.Node, now))
	}
	formatted := table.Format(rows, table.RowAlignments())

	m.syncViewport(l)
	start := l.ViewportOffset
	end := start + m.maxVisibleItems()
	if end > len(l.Items) {
		end = len(l.Items)
	}
	lines := make([]string, 0, end-start+2)
	lines = append(lines, renderStyled(styles.Header, "      "+formatted[0]))
	for i := start; i < end; i++ {
		lines = append(lines, m.listingRow(l, i, formatted[i+1], width))
	}
	if listing.Next != "" && end == len(l.Items) {
		hint := "more items available"
		if listing.Loading {
			hint = "loading more..."
		}
		lines = append(lines, renderStyled(styles.Info, "  "+hint))
	}
	return lines
}

func (m *Model) listingRow(l *level, idx int, cells string, width int) string {
	item := l.Items[idx]
	mark := "[ ] "
	if l.IsSelected(item.ID) {
		mark = "[✓] "
	}
	text := " " + mark + cells
	if item.Err != nil {
		text += "  ✗ " + uistate.FailureIndicator(item.Err)
	}
	style := styles.Item
	switch {
	case item.Err != nil:
		style = styles.ItemError
	case item.Node.Type.HasChildren():
		style = styles.Container
	}
	indicator := renderStyled(styles.ItemIndicator, "▌")
	if idx == l.Cursor {
		indicator = renderStyled(styles.SelectedItemIndicator, "▌")
		style = styles.SelectedItem
		text = padTo(text, width-1)
	}
	return indicator + renderStyled(style, text)
}

func (m *Model) detailLines(width int) []string {
	d := m.views.Details
	if d.Count > 1 {
		return []string{renderStyled(styles.Info, fmt.Sprintf("%d items selected", d.Count))}
	}
	node, ok := d.Subject()
	if !ok {
		return wrapInfo(uistate.MsgDetailsPlaceholder, width)
	}
	pairs := [][2]string{
		{"Name", node.Name},
		{"Type", node.Type.Label()},
		{"Size", table.Size(node.Size)},
		{"Modified", table.Modified(node.Modified, m.now())},
		{"ID", node.ID},
	}
	if node.URL != "" {
		pairs = append(pairs, [2]string{"URL", node.URL})
	}
	lines := make([]string, 0, len(pairs))
	for _, p := range pairs {
		lines = append(lines, renderStyled(styles.DetailLabel, fmt.Sprintf("%-9s", p[0]))+renderStyled(styles.DetailValue, p[1]))
	}
	return lines
}

func wrapInfo(text string, width int) []string {
	if width <= 0 {
		return []string{renderStyled(styles.Info, text)}
	}
	wrapped := ansi.Wordwrap(text, width, "")
	out := strings.Split(wrapped, "\n")
	for i, line := range out {
		out[i] = renderStyled(styles.Info, line)
	}
	return out
}

func (m *Model) renderModal(width int) string {
	var body string
	switch m.mode {
	case ModePicker:
		body = m.pickerView()
	case ModeMenu:
		body = m.menuView()
	case ModeConfirmDelete:
		body = strings.Join([]string{
			renderStyled(styles.PaneTitle, "Delete"),
			uistate.DeleteConfirmation(len(m.confirm)),
			renderStyled(styles.Footer, "y confirm  esc cancel"),
		}, "\n")
	case ModeRenameForm, ModeCreateForm:
		if m.form != nil {
			body = m.form.View()
		}
	}
	if body == "" {
		return ""
	}
	if styles.Modal == nil {
		return body
	}
	modalW := width * 2 / 3
	if modalW < 30 {
		modalW = width - 2
	}
	return styles.Modal.Copy().Width(modalW).Render(body)
}

func (m *Model) pickerView() string {
	p := m.views.Picker
	path := make([]string, 0, len(p.Stack)+1)
	for _, n := range p.Stack {
		path = append(path, n.Name)
	}
	path = append(path, p.Dir.Name)
	lines := []string{
		renderStyled(styles.PaneTitle, fmt.Sprintf("Move %d item(s)", len(p.Sources))),
		renderStyled(styles.Crumb, strings.Join(path, " / ")),
	}
	if p.Level != nil {
		if len(p.Level.Items) == 0 {
			msg := "(no folders)"
			if p.Loading {
				msg = "Loading..."
			}
			lines = append(lines, renderStyled(styles.Info, msg))
		}
		visible := m.bodyHeight() - 8
		if visible < 1 {
			visible = 1
		}
		start := 0
		if p.Level.Cursor >= visible {
			start = p.Level.Cursor - visible + 1
		}
		for i := start; i < len(p.Level.Items) && i < start+visible; i++ {
			it := p.Level.Items[i]
			text := "  " + it.Label
			style := styles.Container
			if i == p.Level.Cursor {
				text = "› " + it.Label
				style = styles.SelectedItem
			}
			lines = append(lines, renderStyled(style, text))
		}
	}
	if p.Err != nil {
		lines = append(lines, renderStyled(styles.Error, p.Err.Error()))
	}
	button := "[ " + p.ConfirmLabel() + " ]"
	if p.ConfirmEnabled() {
		lines = append(lines, "", renderStyled(styles.SelectedItem, button))
	} else {
		lines = append(lines, "", renderStyled(styles.Disabled, button))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) menuView() string {
	l := m.menuLevel
	if l == nil {
		return ""
	}
	lines := []string{renderStyled(styles.PaneTitle, l.Title)}
	if len(l.Items) == 0 {
		lines = append(lines, renderStyled(styles.Info, "(no actions)"))
	}
	for i, it := range l.Items {
		if i == l.Cursor {
			lines = append(lines, renderStyled(styles.SelectedItem, "› "+it.Label))
			continue
		}
		lines = append(lines, renderStyled(styles.Item, "  "+it.Label))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) handleWindowSizeMsg(msg tea.Msg) tea.Cmd {
	resize, ok := msg.(tea.WindowSizeMsg)
	if !ok {
		return nil
	}
	if !m.fixedWidth {
		m.width = resize.Width
	}
	if !m.fixedHeight {
		m.height = resize.Height
	}
	m.syncViewport(m.views.Listing.Level)
	m.syncNavigatorViewport()
	return nil
}

func (m *Model) syncViewport(l *level) {
	if l == nil {
		return
	}
	l.EnsureCursorVisible(m.maxVisibleItems())
}

// syncNavigatorViewport keeps the navigator cursor inside the pane.
func (m *Model) syncNavigatorViewport() {
	rows := m.bodyHeight() - 3
	if rows < 1 {
		rows = 1
	}
	cursor := m.views.Navigator.Cursor
	if cursor < m.navOffset {
		m.navOffset = cursor
	}
	if cursor >= m.navOffset+rows {
		m.navOffset = cursor - rows + 1
	}
	if m.navOffset < 0 {
		m.navOffset = 0
	}
}

func (m *Model) setInfo(message string) {
	m.infoMsg = message
	m.infoExpire = m.now().Add(infoTTL)
}

func (m *Model) forceClearInfo() {
	m.infoMsg = ""
	m.infoExpire = time.Time{}
}

func (m *Model) currentInfo() string {
	if m.infoMsg != "" && !m.infoExpire.IsZero() && m.now().After(m.infoExpire) {
		m.forceClearInfo()
	}
	return m.infoMsg
}

func renderStyled(style *lipgloss.Style, text string) string {
	if style == nil || text == "" {
		return text
	}
	return style.Render(text)
}

// fitLine truncates or pads s to exactly width cells, keeping escape
// sequences intact.
func fitLine(s string, width int) string {
	if width <= 0 {
		return s
	}
	if w := ansi.StringWidth(s); w > width {
		return ansi.Truncate(s, width, "…")
	}
	return padTo(s, width)
}

func padTo(s string, width int) string {
	if pad := width - ansi.StringWidth(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

func nodeLabel(n tree.Node) string {
	if n.Name == "" {
		return n.ID
	}
	return n.Name
}
