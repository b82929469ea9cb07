package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/equipviz/rotorline/pkg/table"
	"github.com/equipviz/rotorline/pkg/timeline"
)

var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// inspectCommand creates the inspect command: an interactive fleet browser
// over a decoded workbook table.
func (c *CLI) inspectCommand() *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "inspect [file]",
		Short: "Browse equipment records interactively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl, err := table.Load(args[0])
			if err != nil {
				return err
			}
			records, err := timeline.Project(tbl)
			if err != nil {
				return err
			}
			groups := timeline.GroupRecords(records)

			if plain {
				printFleet(groups)
				return nil
			}

			model := NewFleetModel(groups)
			_, err = tea.NewProgram(model).Run()
			return err
		},
	}

	cmd.Flags().BoolVar(&plain, "plain", false, "print the fleet without the interactive browser")
	return cmd
}

// printFleet prints one line per equipment group.
func printFleet(groups timeline.Groups) {
	for _, g := range groups {
		printKeyValue(g.ID, fleetSummary(g))
	}
}

// fleetSummary condenses a group into a single descriptive line.
func fleetSummary(g timeline.Group) string {
	parts := []string{g.Label()}
	if m := g.Metric(); m > 0 {
		parts = append(parts, fmt.Sprintf("%.0fK FFH", m/1000))
	}
	if first, ok := g.FirstOutage(); ok {
		parts = append(parts, fmt.Sprintf("first outage %s (%s)",
			first.OutageDate.Format("Jan 2006"), first.OutageKind))
	} else {
		parts = append(parts, "no dated outage")
	}
	if n := lineageCount(g); n > 0 {
		parts = append(parts, fmt.Sprintf("%d sourced", n))
	}
	return strings.Join(parts, " · ")
}

func lineageCount(g timeline.Group) int {
	n := 0
	for _, r := range g.Records {
		if r.HasLineage() {
			n++
		}
	}
	return n
}

// FleetModel is the bubbletea model for the fleet browser: a scrolling
// list of equipment groups with a detail pane for the selection.
type FleetModel struct {
	Groups timeline.Groups
	Cursor int
	Height int
	Offset int
}

// NewFleetModel creates the fleet browser model.
func NewFleetModel(groups timeline.Groups) FleetModel {
	return FleetModel{
		Groups: groups,
		Height: 15,
	}
}

func (m FleetModel) Init() tea.Cmd {
	return nil
}

func (m FleetModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Groups)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m FleetModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Fleet"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Groups) {
		end = len(m.Groups)
	}

	for i := m.Offset; i < end; i++ {
		g := m.Groups[i]
		line := fmt.Sprintf("%s  %s", g.ID, listDimStyle.Render(g.Label()))
		if i == m.Cursor {
			b.WriteString("▸ " + listSelectedStyle.Render(line))
		} else {
			b.WriteString("  " + listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if len(m.Groups) > 0 {
		b.WriteString("\n")
		b.WriteString(m.detailView(m.Groups[m.Cursor]))
	}
	return b.String()
}

// detailView renders the detail pane for one group.
func (m FleetModel) detailView(g timeline.Group) string {
	var b strings.Builder
	b.WriteString(listDimStyle.Render(fleetSummary(g)))
	b.WriteString("\n")
	for _, r := range g.Records {
		if !r.HasOutage() {
			continue
		}
		line := fmt.Sprintf("  %s %s", r.OutageDate.Format("2006-01-02"), r.OutageKind)
		if r.HasLineage() {
			line += listDimStyle.Render(" ← " + r.SourceEquipmentID)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}
