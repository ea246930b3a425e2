package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"

	"github.com/blocknetlab/shadowforge/pkg/registry"
	"github.com/blocknetlab/shadowforge/pkg/simconfig"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFAA")).
			MarginLeft(2).
			MarginTop(1)

	activeTabStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#0087AF")).
			Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#666666")).
				Padding(0, 2)

	contentStyle = lipgloss.NewStyle().
			MarginLeft(2).
			MarginTop(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

type view int

const (
	hostsView view = iota
	minersView
	timelineView
	viewCount
)

func (v view) title() string {
	switch v {
	case hostsView:
		return "Hosts"
	case minersView:
		return "Miners"
	case timelineView:
		return "Timeline"
	default:
		return "?"
	}
}

type keyMap struct {
	Tab      key.Binding
	ShiftTab key.Binding
	Quit     key.Binding
}

var keys = keyMap{
	Tab: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next view"),
	),
	ShiftTab: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "prev view"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.ShiftTab, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.Tab, k.ShiftTab, k.Quit}}
}

type model struct {
	currentView view
	hostTable   table.Model
	minerTable  table.Model
	timeTable   table.Model
	help        help.Model
	outputDir   string
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Tab):
			m.currentView = (m.currentView + 1) % viewCount
			return m, nil
		case key.Matches(msg, keys.ShiftTab):
			m.currentView = (m.currentView + viewCount - 1) % viewCount
			return m, nil
		}
	}

	var cmd tea.Cmd
	switch m.currentView {
	case hostsView:
		m.hostTable, cmd = m.hostTable.Update(msg)
	case minersView:
		m.minerTable, cmd = m.minerTable.Update(msg)
	case timelineView:
		m.timeTable, cmd = m.timeTable.Update(msg)
	}
	return m, cmd
}

func (m model) View() string {
	var tabs []string
	for v := view(0); v < viewCount; v++ {
		style := inactiveTabStyle
		if v == m.currentView {
			style = activeTabStyle
		}
		tabs = append(tabs, style.Render(v.title()))
	}

	var body string
	switch m.currentView {
	case hostsView:
		body = m.hostTable.View()
	case minersView:
		body = m.minerTable.View()
	case timelineView:
		body = m.timeTable.View()
	}

	return titleStyle.Render("shadowforge plan inspector: "+m.outputDir) + "\n" +
		contentStyle.Render(lipgloss.JoinHorizontal(lipgloss.Top, tabs...)) + "\n" +
		contentStyle.Render(body) + "\n" +
		helpStyle.Render(m.help.View(keys))
}

func newTable(cols []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(20),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.Bold(true).BorderStyle(lipgloss.NormalBorder()).BorderBottom(true)
	t.SetStyles(s)
	return t
}

func roleString(e registry.RosterEntry) string {
	var parts []string
	if e.Daemon {
		parts = append(parts, "daemon")
	}
	if e.Wallet {
		parts = append(parts, "wallet")
	}
	if e.Script {
		parts = append(parts, "script")
	}
	return strings.Join(parts, "+")
}

func main() {
	outputDir := flag.String("output", "./out", "Compiled output directory")
	flag.Parse()

	coordDir := filepath.Join(*outputDir, "shared")
	roster, err := registry.ReadRoster(coordDir)
	if err != nil {
		log.Fatalf("load roster: %v (compile a network first)", err)
	}

	hostRows := make([]table.Row, 0, len(roster))
	minerRows := make([]table.Row, 0)
	for _, e := range roster {
		hostRows = append(hostRows, table.Row{e.ID, e.IP, roleString(e), strconv.Itoa(e.P2PPort), strconv.Itoa(e.RPCPort)})
		if e.Miner {
			minerRows = append(minerRows, table.Row{e.ID, e.IP})
		}
	}

	timeRows := loadTimeline(filepath.Join(*outputDir, "shadow.yaml"))

	m := model{
		outputDir: *outputDir,
		help:      help.New(),
		hostTable: newTable([]table.Column{
			{Title: "Agent", Width: 20},
			{Title: "IP", Width: 16},
			{Title: "Roles", Width: 22},
			{Title: "P2P", Width: 6},
			{Title: "RPC", Width: 6},
		}, hostRows),
		minerTable: newTable([]table.Column{
			{Title: "Miner", Width: 20},
			{Title: "IP", Width: 16},
		}, minerRows),
		timeTable: newTable([]table.Column{
			{Title: "Start", Width: 8},
			{Title: "Host", Width: 20},
			{Title: "Process", Width: 40},
		}, timeRows),
	}

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		fmt.Fprintf(os.Stderr, "tui error: %v\n", err)
		os.Exit(1)
	}
}

// loadTimeline flattens the simulator config into start-ordered rows.
func loadTimeline(path string) []table.Row {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var cfg simconfig.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil
	}

	type entry struct {
		start int
		host  string
		proc  string
	}
	var entries []entry
	for name, h := range cfg.Hosts {
		for _, p := range h.Processes {
			secs, _ := strconv.Atoi(strings.TrimSuffix(p.StartTime, "s"))
			entries = append(entries, entry{start: secs, host: name, proc: filepath.Base(p.Path)})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].start != entries[j].start {
			return entries[i].start < entries[j].start
		}
		return entries[i].host < entries[j].host
	})

	rows := make([]table.Row, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, table.Row{strconv.Itoa(e.start) + "s", e.host, e.proc})
	}
	return rows
}
