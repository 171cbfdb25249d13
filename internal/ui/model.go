package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/dpshade/pocket-compose/internal/clipboard"
	"github.com/dpshade/pocket-compose/internal/compose"
	apperrors "github.com/dpshade/pocket-compose/internal/errors"
	"github.com/dpshade/pocket-compose/internal/models"
	"github.com/dpshade/pocket-compose/internal/renderer"
	"github.com/dpshade/pocket-compose/internal/service"
)

// Commands for async operations
type loadCompleteMsg struct {
	templates []*models.Template
	err       error
}

type spaceLoadedMsg struct {
	space *compose.Space
	err   error
}

type exportDoneMsg struct {
	manifest *service.ExportManifest
	path     string
	err      error
}

func loadTemplatesCmd(svc *service.Service) tea.Cmd {
	return func() tea.Msg {
		templates, err := svc.ListTemplates()
		return loadCompleteMsg{templates: templates, err: err}
	}
}

func loadSpaceCmd(ctx context.Context, svc *service.Service, id string) tea.Cmd {
	return func() tea.Msg {
		space, err := svc.Space(ctx, id)
		return spaceLoadedMsg{space: space, err: err}
	}
}

func exportCmd(ctx context.Context, svc *service.Service, id string, sess models.Session) tea.Cmd {
	return func() tea.Msg {
		manifest, path, err := svc.ExportToFile(ctx, id, sess, "")
		return exportDoneMsg{manifest: manifest, path: path, err: err}
	}
}

// tickMsg is sent to clear the status message
type tickMsg time.Time

func clearStatusCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// ViewMode represents the current view in the TUI
type ViewMode int

const (
	ViewLibrary ViewMode = iota
	ViewComposer
)

// navMode says which id the composer is stepping
type navMode int

const (
	navComposition navMode = iota
	navBucket
)

// templateItem adapts a template to the bubbles list
type templateItem struct {
	tmpl *models.Template
}

func (i templateItem) FilterValue() string {
	return i.tmpl.ID + " " + i.tmpl.Name + " " + strings.Join(i.tmpl.Tags, " ")
}

func (i templateItem) Title() string {
	if i.tmpl.Name != "" {
		return i.tmpl.Name
	}
	return i.tmpl.ID
}

func (i templateItem) Description() string {
	desc := fmt.Sprintf("%s · %d wildcards · %d blocks", i.tmpl.ID, len(i.tmpl.Wildcards), len(i.tmpl.Blocks))
	if i.tmpl.Description != "" {
		desc += " · " + i.tmpl.Description
	}
	return desc
}

// Model represents the TUI application state
type Model struct {
	service  *service.Service
	ctx      context.Context
	viewMode ViewMode
	nav      navMode

	// UI components
	templateList list.Model
	viewport     viewport.Model
	help         help.Model
	keys         KeyMap

	loading bool

	// Composer state; sess is the only thing a resolution pass reads
	space     *compose.Space
	sess      models.Session
	slot      int64
	pass      *compose.Pass
	bucket    *service.BucketView
	samples   []int64
	sampleIdx int

	glamourRenderer *glamour.TermRenderer
	errHandler      *apperrors.TUIErrorHandler

	width  int
	height int

	statusMsg     string
	statusType    string
	statusTimeout int

	err error
}

// KeyMap defines all key bindings
type KeyMap struct {
	PrevComposition key.Binding
	NextComposition key.Binding
	PrevBucket      key.Binding
	NextBucket      key.Binding
	PrevSlot        key.Binding
	NextSlot        key.Binding
	Sample          key.Binding
	Enter           key.Binding
	Back            key.Binding
	Copy            key.Binding
	Export          key.Binding
	Help            key.Binding
	Quit            key.Binding
}

// ShortHelp returns keybindings to show in the mini help view
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PrevComposition, k.NextComposition, k.NextBucket, k.Sample, k.Help, k.Quit}
}

// FullHelp returns keybindings to show in the full help view
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.PrevComposition, k.NextComposition, k.PrevBucket, k.NextBucket},
		{k.PrevSlot, k.NextSlot, k.Sample},
		{k.Copy, k.Export, k.Back},
		{k.Help, k.Quit},
	}
}

var keys = KeyMap{
	PrevComposition: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "prev composition"),
	),
	NextComposition: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "next composition"),
	),
	PrevBucket: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "prev bucket"),
	),
	NextBucket: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "next bucket"),
	),
	PrevSlot: key.NewBinding(
		key.WithKeys("["),
		key.WithHelp("[", "prev slot"),
	),
	NextSlot: key.NewBinding(
		key.WithKeys("]"),
		key.WithHelp("]", "next slot"),
	),
	Sample: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "next sample"),
	),
	Enter: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("Enter", "open"),
	),
	Back: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("Esc", "back"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy"),
	),
	Export: key.NewBinding(
		key.WithKeys("x"),
		key.WithHelp("x", "export"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "help"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

// NewModel creates a new TUI model
func NewModel(ctx context.Context, svc *service.Service) (*Model, error) {
	style := svc.Config().RenderStyle
	initializeColors(style)

	l := list.New(nil, list.NewDefaultDelegate(), 80, 20)
	l.Title = ""
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.SetShowHelp(false)

	vp := viewport.New(80, 20)
	vp.Style = lipgloss.NewStyle()
	// arrows belong to composition navigation
	vp.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown", " ")),
		PageUp:   key.NewBinding(key.WithKeys("pgup", "b")),
	}

	glamourRenderer, err := renderer.NewTermRenderer(style, 60)
	if err != nil {
		return nil, fmt.Errorf("failed to create glamour renderer: %w", err)
	}

	return &Model{
		service:         svc,
		ctx:             ctx,
		viewMode:        ViewLibrary,
		templateList:    l,
		viewport:        vp,
		help:            help.New(),
		keys:            keys,
		loading:         true,
		glamourRenderer: glamourRenderer,
		errHandler:      &apperrors.TUIErrorHandler{},
	}, nil
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return loadTemplatesCmd(m.service)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tickMsg:
		if m.statusTimeout > 0 {
			m.statusTimeout--
			if m.statusTimeout == 0 {
				m.statusMsg = ""
			} else {
				return m, clearStatusCmd()
			}
		}
		return m, nil

	case loadCompleteMsg:
		m.loading = false
		items := make([]list.Item, len(msg.templates))
		for i, t := range msg.templates {
			items[i] = templateItem{tmpl: t}
		}
		m.templateList.SetItems(items)
		if msg.err != nil {
			return m, m.setStatus(fmt.Sprintf("Warning: %v", msg.err), "warning")
		}
		return m, nil

	case spaceLoadedMsg:
		if msg.err != nil {
			return m, m.setStatus(m.formatError(msg.err), "error")
		}
		m.openSpace(msg.space)
		return m, nil

	case exportDoneMsg:
		if msg.err != nil {
			return m, m.setStatus(m.formatError(msg.err), "error")
		}
		return m, m.setStatus(fmt.Sprintf("Exported %d of %d compositions to %s",
			msg.manifest.Count, msg.manifest.LockedTotal, msg.path), "success")

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		// title, metadata, windows, help and status
		const minReservedHeight = 8
		availableHeight := msg.Height - minReservedHeight
		if availableHeight < 5 {
			availableHeight = 5
		}
		m.templateList.SetSize(msg.Width, availableHeight)

		viewportWidth := msg.Width - 6
		if viewportWidth < 40 {
			viewportWidth = 40
		}
		m.viewport.Width = viewportWidth
		m.viewport.Height = availableHeight - m.windowLines()
		if m.viewport.Height < 3 {
			m.viewport.Height = 3
		}
		if r, err := renderer.NewTermRenderer(m.service.Config().RenderStyle, viewportWidth); err == nil {
			m.glamourRenderer = r
		}
		m.renderContent()
		return m, nil

	case tea.KeyMsg:
		if m.viewMode == ViewLibrary {
			return m.updateLibrary(msg)
		}
		return m.updateComposer(msg)
	}

	return m, nil
}

func (m Model) updateLibrary(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// while filtering every key belongs to the list
	if m.templateList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.Enter):
			if item, ok := m.templateList.SelectedItem().(templateItem); ok {
				return m, loadSpaceCmd(m.ctx, m.service, item.tmpl.ID)
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.templateList, cmd = m.templateList.Update(msg)
	return m, cmd
}

func (m Model) updateComposer(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.viewMode = ViewLibrary
		m.space = nil
		return m, nil
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil
	case key.Matches(msg, m.keys.PrevComposition):
		m.stepComposition(-1)
	case key.Matches(msg, m.keys.NextComposition):
		m.stepComposition(1)
	case key.Matches(msg, m.keys.PrevBucket):
		m.stepBucket(-1)
	case key.Matches(msg, m.keys.NextBucket):
		m.stepBucket(1)
	case key.Matches(msg, m.keys.PrevSlot):
		m.stepSlot(-1)
	case key.Matches(msg, m.keys.NextSlot):
		m.stepSlot(1)
	case key.Matches(msg, m.keys.Sample):
		m.nextSample()
	case key.Matches(msg, m.keys.Copy):
		if m.pass == nil {
			return m, nil
		}
		status, err := clipboard.CopyWithFallback(renderer.NewRenderer(m.pass).RenderText())
		if err != nil {
			return m, m.setStatus(err.Error(), "error")
		}
		return m, m.setStatus(status, "success")
	case key.Matches(msg, m.keys.Export):
		return m, exportCmd(m.ctx, m.service, m.space.Template.ID, m.sess)
	default:
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}
	return m, nil
}

// openSpace switches to the composer at composition 0
func (m *Model) openSpace(space *compose.Space) {
	m.space = space
	m.sess = models.Session{}
	m.slot = 0
	m.samples = nil
	m.sampleIdx = 0
	m.nav = navComposition
	m.viewMode = ViewComposer
	m.refresh()
}

func (m *Model) stepComposition(delta int64) {
	m.nav = navComposition
	m.sess.CompositionID = wrap(m.sess.CompositionID+delta, m.space.Total())
	m.samples = nil
	m.refresh()
}

func (m *Model) stepBucket(delta int64) {
	if m.nav == navBucket {
		m.sess.BucketID = wrap(m.sess.BucketID+delta, m.space.BucketTotal())
	}
	m.nav = navBucket
	m.slot = 0
	m.refresh()
}

func (m *Model) stepSlot(delta int64) {
	m.nav = navBucket
	m.slot += delta
	m.refresh()
}

// nextSample cycles through an evenly spread sample that starts at the
// current composition
func (m *Model) nextSample() {
	if m.samples == nil {
		m.samples = compose.SampleCompositionIDs(m.space.Total(), m.service.Config().SampleSize, m.sess.CompositionID)
		m.sampleIdx = 0
	}
	if len(m.samples) == 0 {
		return
	}
	m.sampleIdx = (m.sampleIdx + 1) % len(m.samples)
	m.nav = navComposition
	m.sess.CompositionID = m.samples[m.sampleIdx]
	m.refresh()
}

// refresh re-runs the resolution pass for the current navigation state
func (m *Model) refresh() {
	if m.space == nil {
		return
	}
	if m.nav == navBucket {
		view := service.ViewBucket(m.space, m.sess, m.slot)
		m.bucket = view
		m.slot = view.Slot
		m.pass = view.Pass
		// keep ←/→ continuing from the slot's composition
		m.sess.CompositionID = view.Pass.Session.CompositionID
	} else {
		m.bucket = nil
		m.pass = m.space.Run(m.sess)
	}
	m.renderContent()
}

func (m *Model) renderContent() {
	if m.pass == nil {
		return
	}
	md := renderer.NewRenderer(m.pass).RenderMarkdown()
	content, err := m.glamourRenderer.Render(md)
	if err != nil {
		content = md
	}
	m.viewport.SetContent(content)
	m.viewport.GotoTop()
}

func (m *Model) setStatus(text, statusType string) tea.Cmd {
	m.statusMsg = text
	m.statusType = statusType
	m.statusTimeout = 5
	return clearStatusCmd()
}

func (m Model) formatError(err error) string {
	return m.errHandler.Icon(err) + " " + m.errHandler.FormatError(err)
}

// windowLines is the height taken by the bucket window panel
func (m Model) windowLines() int {
	if m.bucket == nil || m.space == nil {
		return 0
	}
	return len(m.space.Wildcards) + 2
}

// View renders the current view
func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("\n  Error: %v\n\n  Press 'q' to quit.\n", m.err)
	}

	var mainView string
	switch m.viewMode {
	case ViewLibrary:
		mainView = m.renderLibraryView()
	case ViewComposer:
		mainView = m.renderComposerView()
	default:
		mainView = "Unknown view mode"
	}

	if m.statusMsg != "" {
		statusBar := CreateStatus(m.statusMsg, m.statusType)
		return AddMainPadding(lipgloss.JoinVertical(lipgloss.Left, mainView, statusBar))
	}
	return AddMainPadding(mainView)
}

func (m Model) renderLibraryView() string {
	elements := []string{CreateMainHeader("Pocket Compose")}
	if m.loading {
		elements = append(elements, StyleLoading.Render("⏳ Loading templates..."))
		elements = append(elements, CreateGuaranteedHelp("q quit", m.width))
	} else {
		elements = append(elements, m.templateList.View())
		elements = append(elements, CreateGuaranteedHelp("enter open • / filter • q quit", m.width))
	}
	return lipgloss.JoinVertical(lipgloss.Left, elements...)
}

func (m Model) renderComposerView() string {
	if m.space == nil || m.pass == nil {
		return "No template selected"
	}

	title := m.space.Template.Name
	if title == "" {
		title = m.space.Template.ID
	}
	elements := []string{CreateMainHeader(title), CreateMetadata(m.position())}

	if m.bucket != nil {
		elements = append(elements, m.renderWindows())
	}

	top, bottom := CreateScrollIndicators(!m.viewport.AtTop(), !m.viewport.AtBottom())
	elements = append(elements, top, m.viewport.View(), bottom, m.help.View(m.keys))
	return lipgloss.JoinVertical(lipgloss.Left, elements...)
}

// position is the one-line summary of where the composer is
func (m Model) position() string {
	parts := []string{
		fmt.Sprintf("composition %d/%d", m.sess.CompositionID, m.pass.Total),
		fmt.Sprintf("bucket %d/%d", m.sess.BucketID, m.pass.BucketTotal),
	}
	if m.bucket != nil {
		parts = append(parts, fmt.Sprintf("slot %d/%d", m.bucket.Slot, m.bucket.Bucket.SlotTotal()))
	}
	if m.samples != nil {
		parts = append(parts, fmt.Sprintf("sample %d/%d", m.sampleIdx+1, len(m.samples)))
	}
	if n := len(m.pass.Warnings); n > 0 {
		parts = append(parts, fmt.Sprintf("⚠ %d", n))
	}
	return strings.Join(parts, " · ")
}

// renderWindows shows every wildcard's bucket window with the value in use
// highlighted
func (m Model) renderWindows() string {
	b := m.bucket.Bucket
	idx := m.pass.Indices

	var rows []string
	if b.HasExt() {
		ext := b.ExtWindow()
		labels := make([]string, len(ext))
		for i, e := range ext {
			labels[i] = fmt.Sprintf("#%d", e)
		}
		rows = append(rows, CreateWindow("ext_text", labels, position(ext, idx.Ext)))
	}
	for _, name := range m.space.Wildcards.Names() {
		window := b.Window(name)
		values := make([]string, len(window))
		for i, vi := range window {
			values[i], _ = m.space.Wildcards.Value(name, vi)
		}
		rows = append(rows, CreateWindow(name, values, position(window, idx.Get(name))))
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func position(window []int, index int) int {
	for i, v := range window {
		if v == index {
			return i
		}
	}
	return -1
}

func wrap(id, total int64) int64 {
	if total <= 0 {
		return 0
	}
	id %= total
	if id < 0 {
		id += total
	}
	return id
}
