package tui

import (
	"fmt"
	"strings"

	"culld/internal/browse"
	"culld/internal/errors"
	"culld/internal/watch"
	"culld/pkg/types"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
)

// loadedMsg carries the result of probing the current image.
type loadedMsg struct {
	view *browse.View
	err  error
}

// staleMsg reports that the folder changed on disk since the last scan.
type staleMsg watch.Notification

type Model struct {
	session *browse.Session
	staleCh <-chan watch.Notification

	keys KeyMap
	help help.Model

	width  int
	height int

	// Current image state
	view    *browse.View
	loadErr error

	// Transient status line
	statusMsg   string
	statusIsErr bool

	// Staleness from the watcher
	stale        bool
	staleChanges int

	// Pending confirmations
	confirmingDelete bool
	confirmingQuit   bool
}

// New builds the browse screen over an already-loaded session. staleCh may
// be nil when no watcher is running.
func New(session *browse.Session, staleCh <-chan watch.Notification) *Model {
	return &Model{
		session: session,
		staleCh: staleCh,
		keys:    DefaultKeyMap(),
		help:    help.New(),
	}
}

// Run drives the screen until the user quits.
func Run(session *browse.Session, staleCh <-chan watch.Notification) error {
	p := tea.NewProgram(New(session, staleCh), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// Init implements tea.Model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCurrent(), m.waitForStale())
}

// loadCurrent probes the image under the cursor off the update loop.
func (m *Model) loadCurrent() tea.Cmd {
	return func() tea.Msg {
		view, err := m.session.LoadCurrent()
		return loadedMsg{view: view, err: err}
	}
}

// waitForStale blocks on the watcher channel; it re-arms after every
// notification so staleness keeps flowing for the life of the program.
func (m *Model) waitForStale() tea.Cmd {
	if m.staleCh == nil {
		return nil
	}
	return func() tea.Msg {
		n, ok := <-m.staleCh
		if !ok {
			return nil
		}
		return staleMsg(n)
	}
}

// Update implements tea.Model
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		m.view = msg.view
		m.loadErr = msg.err
		return m, nil

	case staleMsg:
		m.stale = true
		m.staleChanges += msg.Changes
		return m, m.waitForStale()

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)
	}

	return m, nil
}

func (m *Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// ctrl+c always quits, even mid-confirmation
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if m.confirmingDelete {
		m.confirmingDelete = false
		if msg.String() == "y" || msg.String() == "Y" {
			return m.deleteCurrent()
		}
		m.setStatus("delete cancelled", false)
		return m, nil
	}

	if m.confirmingQuit {
		m.confirmingQuit = false
		if msg.String() == "y" || msg.String() == "Y" {
			return m, tea.Quit
		}
		m.setStatus("quit cancelled", false)
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if !m.session.Pending().IsIdentity() {
			m.confirmingQuit = true
			return m, nil
		}
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.Prev):
		return m.navigate(types.Backward)

	case key.Matches(msg, m.keys.Next):
		return m.navigate(types.Forward)

	case key.Matches(msg, m.keys.Skip):
		if _, err := m.session.Skip(); err != nil {
			m.setStatusErr(err)
			return m, nil
		}
		m.setStatus("skipped, edits discarded", false)
		return m, m.loadCurrent()

	case key.Matches(msg, m.keys.RotateCW):
		return m.rotate(90)

	case key.Matches(msg, m.keys.RotateCCW):
		return m.rotate(-90)

	case key.Matches(msg, m.keys.FlipH):
		pending, err := m.session.FlipHorizontal()
		if err != nil {
			m.setStatusErr(err)
			return m, nil
		}
		m.setStatus("pending: "+pending.String(), false)
		return m, nil

	case key.Matches(msg, m.keys.FlipV):
		pending, err := m.session.FlipVertical()
		if err != nil {
			m.setStatusErr(err)
			return m, nil
		}
		m.setStatus("pending: "+pending.String(), false)
		return m, nil

	case key.Matches(msg, m.keys.Rate):
		return m.rate(int(msg.String()[0] - '0'))

	case key.Matches(msg, m.keys.Commit):
		if m.session.Pending().IsIdentity() {
			m.setStatus("no edits to save", false)
			return m, nil
		}
		if err := m.session.Commit(); err != nil {
			m.setStatusErr(err)
			return m, nil
		}
		m.setStatus("saved; edits kept (u to clear)", false)
		return m, m.loadCurrent()

	case key.Matches(msg, m.keys.Discard):
		discarded := m.session.DiscardPending()
		if discarded.IsIdentity() {
			m.setStatus("no edits to discard", false)
		} else {
			m.setStatus("discarded "+discarded.String(), false)
		}
		return m, nil

	case key.Matches(msg, m.keys.Delete):
		if m.session.Len() == 0 {
			m.setStatusErr(errors.ErrEmptyCollection)
			return m, nil
		}
		m.confirmingDelete = true
		return m, nil

	case key.Matches(msg, m.keys.Rescan):
		return m.rescan()
	}

	return m, nil
}

func (m *Model) navigate(dir types.Direction) (tea.Model, tea.Cmd) {
	if _, err := m.session.Navigate(dir); err != nil {
		if errors.IsAtBoundary(err) {
			if dir == types.Forward {
				m.setStatus("already at the last image", false)
			} else {
				m.setStatus("already at the first image", false)
			}
		} else {
			m.setStatusErr(err)
		}
		return m, nil
	}
	m.statusMsg = ""
	return m, m.loadCurrent()
}

func (m *Model) rotate(delta int) (tea.Model, tea.Cmd) {
	pending, err := m.session.Rotate(delta)
	if err != nil {
		m.setStatusErr(err)
		return m, nil
	}
	m.setStatus("pending: "+pending.String(), false)
	return m, nil
}

func (m *Model) rate(stars int) (tea.Model, tea.Cmd) {
	rating, err := m.session.SetRating(stars)
	if err != nil {
		m.setStatusErr(err)
		return m, nil
	}
	m.setStatus("rated "+rating.String(), false)
	if m.view != nil {
		m.view.Rating = rating
	}
	return m, nil
}

func (m *Model) deleteCurrent() (tea.Model, tea.Cmd) {
	entry, err := m.session.Current()
	if err != nil {
		m.setStatusErr(err)
		return m, nil
	}
	if err := m.session.DeleteCurrent(); err != nil {
		m.setStatusErr(err)
		return m, nil
	}
	m.setStatus("deleted "+entry.Name, false)
	if m.session.Len() == 0 {
		m.view = nil
		m.loadErr = nil
		return m, nil
	}
	return m, m.loadCurrent()
}

func (m *Model) rescan() (tea.Model, tea.Cmd) {
	root := m.session.Root()
	if root == "" {
		m.setStatusErr(errors.ErrEmptyCollection)
		return m, nil
	}
	count, err := m.session.LoadFolder(root)
	if err != nil {
		m.setStatusErr(err)
		return m, nil
	}
	m.stale = false
	m.staleChanges = 0
	m.setStatus(fmt.Sprintf("rescanned: %d images", count), false)
	if count == 0 {
		m.view = nil
		m.loadErr = nil
		return m, nil
	}
	return m, m.loadCurrent()
}

func (m *Model) setStatus(msg string, isErr bool) {
	m.statusMsg = msg
	m.statusIsErr = isErr
}

func (m *Model) setStatusErr(err error) {
	m.setStatus(err.Error(), true)
}

// View implements tea.Model
func (m *Model) View() string {
	var b strings.Builder

	title := "culld"
	if root := m.session.Root(); root != "" {
		title += ": " + root
	}
	b.WriteString(TitleStyle.Render(title))
	if m.stale {
		b.WriteString(" ")
		b.WriteString(StaleStyle.Render(fmt.Sprintf("folder changed (%d), press g to rescan", m.staleChanges)))
	}
	b.WriteString("\n\n")

	if m.session.Len() == 0 {
		b.WriteString(StatusStyle.Render("no images in this folder"))
		b.WriteString("\n")
	} else {
		b.WriteString(m.renderStrip())
		b.WriteString("\n")
		b.WriteString(m.renderDetail())
	}

	b.WriteString("\n")
	b.WriteString(m.renderStatus())
	b.WriteString("\n\n")
	b.WriteString(m.help.View(m.keys))

	return App.Render(b.String())
}

// renderStrip shows the cursor's neighborhood of the collection.
func (m *Model) renderStrip() string {
	entries := m.session.Entries()
	cursor := m.session.Cursor()

	const radius = 2
	lo := cursor - radius
	if lo < 0 {
		lo = 0
	}
	hi := cursor + radius
	if hi > len(entries)-1 {
		hi = len(entries) - 1
	}

	var b strings.Builder
	if lo > 0 {
		b.WriteString(StatusStyle.Render("  ⋯"))
		b.WriteString("\n")
	}
	for i := lo; i <= hi; i++ {
		line := fmt.Sprintf("%4d  %s", i+1, entries[i].Name)
		if i == cursor {
			b.WriteString(SelectedStyle.Render("▶" + line))
		} else {
			b.WriteString(EntryStyle.Render(" " + line))
		}
		b.WriteString("\n")
	}
	if hi < len(entries)-1 {
		b.WriteString(StatusStyle.Render("  ⋯"))
		b.WriteString("\n")
	}
	return b.String()
}

// renderDetail shows metadata, rating and pending edits for the current image.
func (m *Model) renderDetail() string {
	var b strings.Builder

	if m.loadErr != nil {
		b.WriteString(ErrorStyle.Render("cannot read image: " + m.loadErr.Error()))
		b.WriteString("\n")
		b.WriteString(RatingStyle.Render("rating: unknown"))
		b.WriteString("\n")
		return b.String()
	}
	if m.view == nil {
		b.WriteString(StatusStyle.Render("loading…"))
		b.WriteString("\n")
		return b.String()
	}

	meta := m.view.Meta
	b.WriteString(LabelStyle.Render("image") + fmt.Sprintf("  %s (%d/%d)\n", meta.Name(), m.view.Cursor+1, m.view.Count))
	b.WriteString(LabelStyle.Render("info ") + fmt.Sprintf("  %d×%d  %s  %s\n",
		meta.Width, meta.Height, humanize.Bytes(uint64(meta.SizeBytes)), meta.Format))
	if meta.TakenAt != nil {
		b.WriteString(LabelStyle.Render("taken") + "  " + meta.TakenAt.Format("2006-01-02 15:04:05"))
		if meta.CameraModel != "" {
			b.WriteString("  " + meta.CameraModel)
		}
		b.WriteString("\n")
	}

	rating := "rating" + "  " + m.view.Rating.String()
	if !m.view.Rating.Known {
		rating += "  (unknown)"
	}
	b.WriteString(RatingStyle.Render(rating))
	b.WriteString("\n")

	if !m.view.Pending.IsIdentity() {
		b.WriteString(PendingStyle.Render("pending  " + m.view.Pending.String()))
		b.WriteString("\n")
	}
	return b.String()
}

func (m *Model) renderStatus() string {
	if m.confirmingDelete {
		return ConfirmStyle.Render("delete this image? (y/n)")
	}
	if m.confirmingQuit {
		return ConfirmStyle.Render("quit and lose unsaved edits? (y/n)")
	}
	if m.statusMsg == "" {
		return ""
	}
	if m.statusIsErr {
		return ErrorStyle.Render(m.statusMsg)
	}
	return SuccessStyle.Render(m.statusMsg)
}
