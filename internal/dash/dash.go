// Package dash renders tracked listings in a terminal table.
package dash

import (
	"encoding/json"
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/fwagner/gtswatch/internal/listing"
	"github.com/fwagner/gtswatch/internal/track"
)

var (
	colorPrimary = lipgloss.Color("62")
	colorMuted   = lipgloss.Color("241")

	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(colorPrimary)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Padding(0, 1)
)

// StatesLoaded carries the store contents into the model.
type StatesLoaded struct {
	States []*track.State
	Err    error
}

// Model is the root Bubble Tea model. It does not hold the store; states
// arrive via messages.
type Model struct {
	loadStates func() tea.Cmd

	table  table.Model
	err    error
	ready  bool
	height int
}

func NewModel(loadStates func() tea.Cmd) Model {
	columns := []table.Column{
		{Title: "Source", Width: 12},
		{Title: "Listing", Width: 36},
		{Title: "Price", Width: 12},
		{Title: "Status", Width: 10},
		{Title: "KM", Width: 9},
		{Title: "First seen", Width: 11},
		{Title: "Last seen", Width: 11},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(colorPrimary).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("255")).
		Background(colorPrimary).
		Bold(true)
	t.SetStyles(s)

	return Model{loadStates: loadStates, table: t}
}

func (m Model) Init() tea.Cmd {
	if m.loadStates != nil {
		return m.loadStates()
	}
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			if m.loadStates != nil {
				return m, m.loadStates()
			}
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.table.SetHeight(max(msg.Height-4, 3))
		m.ready = true
		return m, nil

	case StatesLoaded:
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.err = nil
		m.table.SetRows(rowsFromStates(msg.States))
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("error: %v\n\npress q to quit", m.err)
	}
	return baseStyle.Render(m.table.View()) + "\n" +
		helpStyle.Render("r refresh · q quit")
}

func rowsFromStates(states []*track.State) []table.Row {
	rows := make([]table.Row, 0, len(states))
	for _, st := range states {
		var l listing.Listing
		title := st.Key.NativeID
		if len(st.Snapshot) > 0 {
			if err := json.Unmarshal(st.Snapshot, &l); err == nil && l.Title != "" {
				title = l.Title
			}
		}

		price := "-"
		if st.LastPrice != nil {
			price = humanize.Comma(int64(*st.LastPrice))
		}
		mileage := "-"
		if st.MileageKM != nil {
			mileage = humanize.Comma(int64(*st.MileageKM))
		}

		rows = append(rows, table.Row{
			st.Key.Source,
			title,
			price,
			string(st.LastStatus),
			mileage,
			st.FirstSeen.Format("2006-01-02"),
			st.LastSeen.Format("2006-01-02"),
		})
	}
	return rows
}

// Run starts the dashboard over the given store and blocks until quit.
func Run(store track.Store) error {
	loadStates := func() tea.Cmd {
		return func() tea.Msg {
			states, err := store.All()
			return StatesLoaded{States: states, Err: err}
		}
	}
	p := tea.NewProgram(NewModel(loadStates), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
