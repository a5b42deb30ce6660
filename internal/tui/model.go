package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/pfrederiksen/parkfinder/internal/nps"
	"github.com/pfrederiksen/parkfinder/internal/pipeline"
	"github.com/pfrederiksen/parkfinder/internal/view"
)

// Focus identifies which area receives key presses
type Focus int

const (
	FocusInput Focus = iota
	FocusParks
	FocusCampgrounds
)

// searchState is idle → fetching → done, re-entered on every submission
type searchState int

const (
	stateIdle searchState = iota
	stateFetching
	stateDone
)

// parksFetchedMsg carries the parks fetch half back to the event loop.
// seq identifies the submission that started the fetch.
type parksFetchedMsg struct {
	seq     int
	outcome pipeline.ParksOutcome
}

// campgroundsFetchedMsg carries the campgrounds fetch half back to the event loop
type campgroundsFetchedMsg struct {
	seq     int
	outcome pipeline.CampgroundsOutcome
}

// Model is the bubbletea model for the browse command
type Model struct {
	ctx      context.Context
	pipeline *pipeline.Pipeline
	display  *view.Display
	input    textinput.Model

	focus   Focus
	cursors map[view.Kind]int
	state   searchState
	region  string
	result  pipeline.Result
	seq     int
	width   int
}

// Ensure Model implements tea.Model.
var _ tea.Model = (*Model)(nil)

// NewModel creates a browse model. An initial state code, if given, is searched on start.
func NewModel(ctx context.Context, p *pipeline.Pipeline, initial string) *Model {
	ti := textinput.New()
	ti.Placeholder = "State code (e.g. CA)"
	ti.Width = 24
	ti.SetValue(initial)
	ti.Focus()

	return &Model{
		ctx:      ctx,
		pipeline: p,
		display:  view.NewDisplay(),
		input:    ti,
		focus:    FocusInput,
		cursors:  map[view.Kind]int{view.KindPark: 0, view.KindCampground: 0},
	}
}

// Display returns the model's display
func (m *Model) Display() *view.Display {
	return m.display
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	if strings.TrimSpace(m.input.Value()) != "" {
		return m.submit()
	}
	return textinput.Blink
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil

	case parksFetchedMsg:
		return m, m.applyParks(msg)

	case campgroundsFetchedMsg:
		// Every outcome reaches the display; only the latest submission sets status
		res := m.pipeline.ApplyCampgrounds(m.display, msg.outcome)
		if msg.seq == m.seq {
			m.result.Campgrounds = res
			m.state = stateDone
		}
		m.clampCursors()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focus == FocusInput {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "tab":
		m.setFocus((m.focus + 1) % 3)
		return m, nil
	case "shift+tab":
		m.setFocus((m.focus + 2) % 3)
		return m, nil
	}

	if m.focus == FocusInput {
		if msg.String() == "enter" {
			return m, m.submit()
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}

	kind := m.focusedKind()
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "esc", "/":
		m.setFocus(FocusInput)
	case "up", "k":
		if m.cursors[kind] > 0 {
			m.cursors[kind]--
		}
	case "down", "j":
		if m.cursors[kind] < len(m.display.Section(kind).Rows)-1 {
			m.cursors[kind]++
		}
	case "d", "x", "delete", "backspace":
		m.removeSelected(kind)
	}
	return m, nil
}

// submit normalizes the input and starts the parks stage
func (m *Model) submit() tea.Cmd {
	region := nps.NormalizeRegion(m.input.Value())
	m.input.SetValue(region)
	m.region = region
	m.state = stateFetching
	m.result = pipeline.Result{Region: region}
	m.seq++

	m.pipeline.BeginParks(m.display)
	return m.fetchParks(m.seq, region)
}

func (m *Model) fetchParks(seq int, region string) tea.Cmd {
	ctx, p := m.ctx, m.pipeline
	return func() tea.Msg {
		return parksFetchedMsg{seq: seq, outcome: p.FetchParks(ctx, region)}
	}
}

func (m *Model) fetchCampgrounds(seq int, region string) tea.Cmd {
	ctx, p := m.ctx, m.pipeline
	return func() tea.Msg {
		return campgroundsFetchedMsg{seq: seq, outcome: p.FetchCampgrounds(ctx, region)}
	}
}

// applyParks renders the parks outcome and decides whether campgrounds follow
func (m *Model) applyParks(msg parksFetchedMsg) tea.Cmd {
	current := msg.seq == m.seq
	res := m.pipeline.ApplyParks(m.display, msg.outcome)
	if current {
		m.result.Parks = res
	}
	m.clampCursors()

	if !m.pipeline.Continue(res) {
		skipped := m.pipeline.Skip(msg.outcome.Region)
		if current {
			m.result.Campgrounds = skipped
			m.state = stateDone
		}
		return nil
	}
	return m.fetchCampgrounds(msg.seq, msg.outcome.Region)
}

func (m *Model) removeSelected(kind view.Kind) {
	rows := m.display.Section(kind).Rows
	i := m.cursors[kind]
	if i < 0 || i >= len(rows) {
		return
	}
	m.display.Remove(kind, rows[i].ID)
	m.clampCursors()
}

func (m *Model) clampCursors() {
	for _, kind := range []view.Kind{view.KindPark, view.KindCampground} {
		n := len(m.display.Section(kind).Rows)
		if m.cursors[kind] >= n {
			m.cursors[kind] = n - 1
		}
		if m.cursors[kind] < 0 {
			m.cursors[kind] = 0
		}
	}
}

func (m *Model) setFocus(f Focus) {
	m.focus = f
	if f == FocusInput {
		m.input.Focus()
	} else {
		m.input.Blur()
	}
}

func (m *Model) focusedKind() view.Kind {
	if m.focus == FocusCampgrounds {
		return view.KindCampground
	}
	return view.KindPark
}

// View implements tea.Model.
func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(Styles.Title.Render("National Parks Finder") + "\n\n")
	b.WriteString(m.input.View() + "  " + m.statusLine() + "\n")

	listWidth := 0
	if m.width > 8 {
		listWidth = m.width/2 - 4
	}
	parks := m.renderSection("Parks", view.KindPark, m.focus == FocusParks, listWidth)
	campgrounds := m.renderSection("Campgrounds", view.KindCampground, m.focus == FocusCampgrounds, listWidth)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, parks, campgrounds) + "\n")

	b.WriteString(m.renderGallery() + "\n")
	b.WriteString(Styles.Hint.Render("Enter: search  Tab: switch list  ↑/↓: move  d: remove row  q: quit"))
	return b.String()
}

func (m *Model) statusLine() string {
	switch m.state {
	case stateFetching:
		return Styles.Muted.Render(fmt.Sprintf("Fetching %s...", displayRegion(m.region)))
	case stateDone:
		return Styles.Muted.Render(fmt.Sprintf("%s: %s parks, %s campgrounds",
			displayRegion(m.region), m.result.Parks.Status, m.result.Campgrounds.Status))
	}
	return ""
}

func (m *Model) renderSection(title string, kind view.Kind, focused bool, width int) string {
	s := m.display.Section(kind)

	var b strings.Builder
	b.WriteString(Styles.Section.Render(title) + "\n")

	switch s.Status {
	case view.StatusFailed:
		b.WriteString(Styles.Danger.Render(s.Message))
	case view.StatusEmpty:
		b.WriteString(Styles.Muted.Render(s.Message))
	case view.StatusIdle:
		b.WriteString(Styles.Muted.Render("Enter a state code to search."))
	default:
		if len(s.Rows) == 0 {
			b.WriteString(Styles.Muted.Render("All rows removed."))
		}
		for i, row := range s.Rows {
			if focused && i == m.cursors[kind] {
				b.WriteString(Styles.Selected.Render("> "+row.Title) + "\n")
				if row.Description != "" {
					desc := Styles.Normal
					if width > 0 {
						desc = desc.Width(width)
					}
					b.WriteString(desc.Render(row.Description) + "\n")
				}
				continue
			}
			b.WriteString(Styles.Normal.Render("  "+row.Title) + "\n")
		}
	}

	box := Styles.Box
	if focused {
		box = Styles.BoxFocus
	}
	if width > 0 {
		box = box.Width(width)
	}
	return box.Render(strings.TrimRight(b.String(), "\n"))
}

func (m *Model) renderGallery() string {
	gallery := m.display.Gallery()

	var b strings.Builder
	b.WriteString(Styles.Section.Render(fmt.Sprintf("Gallery (%d)", len(gallery))) + "\n")
	for _, img := range gallery {
		b.WriteString(Styles.Normal.Render("  "+img.AltText) + " " + Styles.Hint.Render(img.URL) + "\n")
	}
	return b.String()
}

func displayRegion(region string) string {
	if region == "" {
		return `""`
	}
	return region
}

// Run starts the browse program and blocks until it exits
func Run(ctx context.Context, p *pipeline.Pipeline, initial string) error {
	program := tea.NewProgram(NewModel(ctx, p, initial), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running browse UI: %w", err)
	}
	return nil
}
