package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/lotplan/internal/calendar"
	"github.com/alexanderramin/lotplan/internal/cli/formatter"
	"github.com/alexanderramin/lotplan/internal/domain"
	"github.com/alexanderramin/lotplan/internal/scheduler"
	"github.com/alexanderramin/lotplan/internal/service"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

type boardMode int

const (
	modeBrowse boardMode = iota
	modeDrag
	modeResize
	modeLink
	modeUnlink
)

type snapshotMsg struct {
	snap    *scheduler.Snapshot
	marker  scheduler.DayMarker
	warning string
	err     error
}

type committedMsg struct {
	name string
	res  *service.CascadeResult
	err  error
}

type linkedMsg struct {
	pendingID string
	res       *service.LinkResult
	err       error
}

type unlinkedMsg struct {
	link *domain.Link
	err  error
}

type visibilityMsg struct {
	err error
}

// boardModel is the interactive planning grid. A keyboard pointer stands in
// for the mouse: it grabs, drags and drops blocks, resizes their edges and
// draws links between them, all through the scheduler controllers.
type boardModel struct {
	ctx context.Context
	app *App

	snap   *scheduler.Snapshot
	links  *scheduler.LinkSet
	layout *scheduler.GridLayout
	marker scheduler.DayMarker
	rows   []scheduler.Row
	from   time.Time

	cursor formatter.GridCursor
	mode   boardMode
	drag   scheduler.DragController
	resize scheduler.ResizeController
	watch  *scheduler.ConflictWatcher

	preview    map[string]domain.Span
	linkSource *domain.Intervention
	linkType   domain.LinkType
	unlinkable []*domain.Link
	unlinkIdx  int

	status  string
	warning string
	keys    boardKeyMap
	help    help.Model
	width   int
	height  int
}

func newBoardModel(ctx context.Context, app *App, from time.Time) *boardModel {
	if from.IsZero() {
		from = app.today()
	}
	m := &boardModel{
		ctx:      ctx,
		app:      app,
		from:     from,
		links:    scheduler.NewLinkSet(nil),
		linkType: domain.FinishToStart,
		keys:     defaultBoardKeys(),
		help:     help.New(),
	}
	m.layout = app.layout(from, 0)
	m.cursor.Col = m.columnFor(from)
	return m
}

func (m *boardModel) Init() tea.Cmd {
	return m.load()
}

// load refetches everything and the special days of the current view.
func (m *boardModel) load() tea.Cmd {
	ctx, app, layout := m.ctx, m.app, m.layout
	return func() tea.Msg {
		snap, err := app.Planning.Refresh(ctx)
		if err != nil {
			return snapshotMsg{err: err}
		}
		var warn strings.Builder
		marker := app.dayMarker(ctx, layout, &warn)
		return snapshotMsg{snap: snap, marker: marker, warning: strings.TrimSpace(warn.String())}
	}
}

func (m *boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		return m, nil

	case snapshotMsg:
		if msg.err != nil {
			m.status = errorStatus(msg.err)
			return m, nil
		}
		m.marker = msg.marker
		m.warning = msg.warning
		m.setSnapshot(msg.snap)
		return m, nil

	case committedMsg:
		return m, m.handleCommitted(msg)

	case linkedMsg:
		if msg.err != nil {
			m.links.Revert(msg.pendingID)
			m.status = errorStatus(msg.err)
			return m, nil
		}
		verb := "Linked"
		if msg.res.Resolved {
			verb = "Already linked"
		}
		names := formatter.SnapshotNames(m.snap)
		m.status = fmt.Sprintf("%s %s %s %s", verb, names(msg.res.Link.SourceID), msg.res.Link.Type.Abbrev(), names(msg.res.Link.TargetID))
		return m, m.load()

	case unlinkedMsg:
		if msg.err != nil {
			m.links.Revert(msg.link.ID)
			m.status = errorStatus(msg.err)
			return m, nil
		}
		m.status = "Unlinked " + m.describeLink(msg.link)
		return m, m.load()

	case visibilityMsg:
		if msg.err != nil {
			m.status = errorStatus(msg.err)
			return m, nil
		}
		return m, m.load()

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}
	return m, nil
}

func (m *boardModel) handleCommitted(msg committedMsg) tea.Cmd {
	if msg.err != nil {
		m.status = errorStatus(msg.err)
		return m.load()
	}
	res := msg.res
	switch {
	case !res.Changed:
		m.status = "No change."
	case len(res.Failed) > 0:
		m.status = formatter.StyleRed.Render(fmt.Sprintf("%s: %d updated, %d failed", msg.name, res.Updated, len(res.Failed)))
	default:
		m.status = fmt.Sprintf("%s: %d updated", msg.name, res.Updated)
	}
	if res.Snapshot != nil {
		m.setSnapshot(res.Snapshot)
		return nil
	}
	return m.load()
}

func (m *boardModel) setSnapshot(snap *scheduler.Snapshot) {
	m.snap = snap
	m.links.Reconcile(snap.Links)
	m.rebuild()
}

func (m *boardModel) rebuild() {
	if m.snap == nil {
		return
	}
	m.rows = scheduler.BuildRows(m.snap, m.layout, m.marker, scheduler.Expansion{AllProjects: true, AllLots: true})
	if m.cursor.Row >= len(m.rows) {
		m.cursor.Row = max(len(m.rows)-1, 0)
	}
	if m.cursor.Col >= m.layout.Len() {
		m.cursor.Col = max(m.layout.Len()-1, 0)
	}
}

func (m *boardModel) handleKey(msg tea.KeyMsg) tea.Cmd {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return nil
	case key.Matches(msg, m.keys.Cancel):
		m.cancelGesture()
		m.status = "Cancelled."
		return nil
	case key.Matches(msg, m.keys.Up):
		if m.mode == modeBrowse || m.mode == modeLink {
			m.cursor.Row = max(m.cursor.Row-1, 0)
		}
		return nil
	case key.Matches(msg, m.keys.Down):
		if m.mode == modeBrowse || m.mode == modeLink {
			m.cursor.Row = min(m.cursor.Row+1, max(len(m.rows)-1, 0))
		}
		return nil
	case key.Matches(msg, m.keys.Left):
		m.moveColumn(-1)
		return nil
	case key.Matches(msg, m.keys.Right):
		m.moveColumn(1)
		return nil
	case key.Matches(msg, m.keys.PrevMonth):
		return m.shiftMonths(-1)
	case key.Matches(msg, m.keys.NextMonth):
		return m.shiftMonths(1)
	case key.Matches(msg, m.keys.Refresh):
		return m.load()
	}

	switch m.mode {
	case modeDrag:
		if key.Matches(msg, m.keys.Grab) {
			return m.drop()
		}
	case modeResize:
		if key.Matches(msg, m.keys.Grab) {
			return m.release()
		}
	case modeLink:
		switch {
		case key.Matches(msg, m.keys.LinkType):
			m.linkType = nextLinkType(m.linkType)
			m.status = m.linkPrompt()
		case key.Matches(msg, m.keys.Grab):
			return m.finishLink()
		}
	case modeUnlink:
		switch {
		case key.Matches(msg, m.keys.Unlink):
			m.unlinkIdx = (m.unlinkIdx + 1) % len(m.unlinkable)
			m.status = m.unlinkPrompt()
		case key.Matches(msg, m.keys.Grab):
			return m.finishUnlink()
		}
	default:
		switch {
		case key.Matches(msg, m.keys.Grab):
			m.beginDrag()
		case key.Matches(msg, m.keys.ResizeL):
			m.beginResize(scheduler.EdgeLeft)
		case key.Matches(msg, m.keys.ResizeR):
			m.beginResize(scheduler.EdgeRight)
		case key.Matches(msg, m.keys.Link):
			m.beginLink()
		case key.Matches(msg, m.keys.Unlink):
			m.beginUnlink()
		case key.Matches(msg, m.keys.Visible):
			return m.toggleVisible()
		}
	}
	return nil
}

// pointerX is the horizontal position of the pointer, the center of the
// column under the cursor.
func (m *boardModel) pointerX() float64 {
	cols := m.layout.Columns()
	if m.cursor.Col < 0 || m.cursor.Col >= len(cols) {
		return -1
	}
	return cols[m.cursor.Col].Center()
}

func (m *boardModel) columnFor(d time.Time) int {
	for !calendar.IsBusinessDay(d) {
		d = calendar.AddDays(d, 1)
	}
	if c, ok := m.layout.ColumnFor(d); ok {
		return c.Index
	}
	return 0
}

func (m *boardModel) current() *domain.Intervention {
	if m.cursor.Row < 0 || m.cursor.Row >= len(m.rows) {
		return nil
	}
	return m.rows[m.cursor.Row].Intervention
}

func (m *boardModel) moveColumn(delta int) {
	m.cursor.Col = min(max(m.cursor.Col+delta, 0), max(m.layout.Len()-1, 0))
	switch m.mode {
	case modeDrag:
		day, ok := m.layout.DayAt(m.pointerX())
		if !ok {
			return
		}
		span, err := m.drag.Preview(day)
		if err == nil {
			m.showPreview(span)
		}
	case modeResize:
		span, err := m.resize.HoverAt(m.pointerX(), m.layout)
		if err == nil {
			m.showPreview(span)
		}
	}
}

func (m *boardModel) shiftMonths(n int) tea.Cmd {
	if m.mode == modeDrag || m.mode == modeResize {
		return nil
	}
	m.from = calendar.Date(m.from.Year(), m.from.Month()+time.Month(n), 1)
	m.layout = m.app.layout(m.from, 0)
	m.cursor.Col = 0
	return m.load()
}

func (m *boardModel) showPreview(span domain.Span) {
	iv := m.current()
	if iv == nil {
		return
	}
	m.preview = map[string]domain.Span{iv.ID: span}
	if m.watch != nil {
		c := m.watch.Update(scheduler.Candidate{InterventionID: iv.ID, LotID: iv.LotID, Span: span, State: iv.State})
		m.warning = firstLine(c.Warning())
	}
}

func (m *boardModel) beginDrag() {
	iv := m.current()
	if iv == nil {
		return
	}
	if err := m.drag.BeginAt(iv, m.pointerX(), m.layout); err != nil {
		m.status = errorStatus(err)
		return
	}
	m.mode = modeDrag
	m.watch = scheduler.NewConflictWatcher(m.snap, candidateFor(iv))
	m.preview = map[string]domain.Span{iv.ID: iv.Span()}
	m.status = fmt.Sprintf("Dragging %s: move with ←/→, enter to drop, esc to cancel", iv.Name)
}

func (m *boardModel) beginResize(edge scheduler.Edge) {
	iv := m.current()
	if iv == nil {
		return
	}
	if err := m.resize.Begin(iv, edge); err != nil {
		m.status = errorStatus(err)
		return
	}
	m.mode = modeResize
	m.watch = scheduler.NewConflictWatcher(m.snap, candidateFor(iv))
	m.preview = map[string]domain.Span{iv.ID: iv.Span()}
	if edge == scheduler.EdgeRight {
		m.cursor.Col = m.columnFor(iv.End)
	} else {
		m.cursor.Col = m.columnFor(iv.Start)
	}
	m.status = fmt.Sprintf("Resizing the %s edge of %s: move with ←/→, enter to release", edge, iv.Name)
}

func (m *boardModel) drop() tea.Cmd {
	commit, err := m.drag.DropAt(m.pointerX(), m.layout)
	m.endGesture()
	if err != nil {
		m.status = errorStatus(err)
		return nil
	}
	return m.commit("Moved", commit)
}

func (m *boardModel) release() tea.Cmd {
	commit, err := m.resize.ReleaseAt(m.pointerX(), m.layout)
	m.endGesture()
	if err != nil {
		m.status = errorStatus(err)
		return nil
	}
	return m.commit("Resized", commit)
}

func (m *boardModel) commit(name string, c scheduler.Commit) tea.Cmd {
	if c.Abandoned || !c.Changed {
		m.status = "No change."
		return nil
	}
	ctx, planning := m.ctx, m.app.Planning
	return func() tea.Msg {
		res, err := planning.CommitSpan(ctx, c.InterventionID, c.Span)
		return committedMsg{name: name, res: res, err: err}
	}
}

func (m *boardModel) beginLink() {
	iv := m.current()
	if iv == nil {
		return
	}
	m.mode = modeLink
	m.linkSource = iv
	m.status = m.linkPrompt()
}

func (m *boardModel) linkPrompt() string {
	return fmt.Sprintf("Link from %s (%s): pick the target and press enter, t to change type", m.linkSource.Name, m.linkType.Abbrev())
}

// finishLink shows the new link at once and persists it in the background.
func (m *boardModel) finishLink() tea.Cmd {
	target := m.current()
	source, lt := m.linkSource, m.linkType
	m.endGesture()
	if target == nil {
		m.status = "Cancelled."
		return nil
	}
	if err := scheduler.ValidateLink(source.ID, target.ID, lt); err != nil {
		m.status = errorStatus(err)
		return nil
	}

	pending := &domain.Link{ID: "pending-" + uuid.NewString(), SourceID: source.ID, TargetID: target.ID, Type: lt}
	m.links.ApplyOptimistic(scheduler.LinkChange{Kind: scheduler.LinkAdded, ID: pending.ID, Link: pending})

	ctx, planning := m.ctx, m.app.Planning
	return func() tea.Msg {
		res, err := planning.LinkTasks(ctx, source.ID, target.ID, lt)
		return linkedMsg{pendingID: pending.ID, res: res, err: err}
	}
}

// beginUnlink selects the first confirmed outgoing link of the intervention
// under the cursor.
func (m *boardModel) beginUnlink() {
	iv := m.current()
	if iv == nil {
		return
	}
	var out []*domain.Link
	for _, l := range m.links.Visible() {
		if st, _ := m.links.Status(l.ID); st == scheduler.LinkConfirmed && l.SourceID == iv.ID {
			out = append(out, l)
		}
	}
	if len(out) == 0 {
		m.status = fmt.Sprintf("No links from %s.", iv.Name)
		return
	}
	m.mode = modeUnlink
	m.unlinkable, m.unlinkIdx = out, 0
	m.status = m.unlinkPrompt()
}

func (m *boardModel) unlinkPrompt() string {
	return fmt.Sprintf("Unlink %s? enter to confirm, x for the next link, esc to cancel", m.describeLink(m.unlinkable[m.unlinkIdx]))
}

func (m *boardModel) describeLink(l *domain.Link) string {
	names := formatter.SnapshotNames(m.snap)
	return fmt.Sprintf("%s %s %s", names(l.SourceID), l.Type.Abbrev(), names(l.TargetID))
}

// finishUnlink hides the link at once and deletes it in the background. The
// enter press is the confirmation, so the prompt is answered in the context.
func (m *boardModel) finishUnlink() tea.Cmd {
	l := m.unlinkable[m.unlinkIdx]
	m.endGesture()
	m.links.ApplyOptimistic(scheduler.LinkChange{Kind: scheduler.LinkDeleted, ID: l.ID})
	m.status = formatter.Dim("unlinking " + m.describeLink(l))

	ctx, planning := service.WithConfirmation(m.ctx, true), m.app.Planning
	return func() tea.Msg {
		return unlinkedMsg{link: l, err: planning.UnlinkTasks(ctx, l.ID)}
	}
}

func (m *boardModel) toggleVisible() tea.Cmd {
	iv := m.current()
	if iv == nil {
		return nil
	}
	ctx, catalog, id, visible := m.ctx, m.app.Catalog, iv.ID, !iv.Visible
	return func() tea.Msg {
		return visibilityMsg{err: catalog.SetVisible(ctx, id, visible)}
	}
}

func (m *boardModel) cancelGesture() {
	m.drag.Cancel()
	m.resize.Cancel()
	m.endGesture()
}

func (m *boardModel) endGesture() {
	m.mode = modeBrowse
	m.preview = nil
	m.watch = nil
	m.linkSource = nil
	m.unlinkable = nil
	m.warning = ""
}

func (m *boardModel) View() string {
	var b strings.Builder
	b.WriteString(formatter.StyleHeader.Render("LOTPLAN"))
	if m.layout.Len() > 0 {
		b.WriteString(formatter.Dim(fmt.Sprintf("  %s → %s", calendar.Format(m.layout.First()), calendar.Format(m.layout.Last()))))
	}
	b.WriteString("\n\n")

	if m.snap == nil {
		b.WriteString(formatter.Dim("Loading…") + "\n")
	} else {
		cursor := m.cursor
		b.WriteString(formatter.RenderGrid(m.rows, m.layout, formatter.GridOptions{
			CellWidth: m.app.cellWidth(),
			Cursor:    &cursor,
			Preview:   m.preview,
		}))
	}

	b.WriteString("\n")
	visible := m.links.Visible()
	linkLine := fmt.Sprintf("%d links", len(visible))
	if n := m.links.Pending(); n > 0 {
		linkLine += fmt.Sprintf(" (%d pending)", n)
	}
	if m.mode == modeLink {
		linkLine += "  " + formatter.StyleBlue.Render("linking "+m.linkType.Abbrev())
	}
	b.WriteString(formatter.Dim(linkLine) + "\n")
	if m.status != "" {
		b.WriteString(m.status + "\n")
	}
	if m.warning != "" {
		b.WriteString(formatter.StyleYellow.Render("⚠ "+m.warning) + "\n")
	}
	b.WriteString("\n" + m.help.View(m.keys))
	return b.String()
}

func nextLinkType(lt domain.LinkType) domain.LinkType {
	all := domain.LinkTypes()
	for i, t := range all {
		if t == lt {
			return all[(i+1)%len(all)]
		}
	}
	return all[0]
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func errorStatus(err error) string {
	switch {
	case errors.Is(err, scheduler.ErrInvalidDates):
		return formatter.StyleYellow.Render(err.Error())
	default:
		return formatter.StyleRed.Render("Error: " + err.Error())
	}
}

func newBoardCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "board",
		Short: "Open the interactive planning board",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := parseDateFlag(cmd, "from", time.Time{})
			if err != nil {
				return err
			}
			ctx := commandContext(cmd)
			p := tea.NewProgram(newBoardModel(ctx, app, from),
				tea.WithAltScreen(),
				tea.WithContext(ctx),
				tea.WithOutput(cmd.OutOrStdout()),
			)
			_, err = p.Run()
			return err
		},
	}
	cmd.Flags().String("from", "", "First month shown (YYYY-MM-DD, default: today)")
	return cmd
}
