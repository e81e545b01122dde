package cli

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alecbcs/spack-infrastructure/internal/logstore"
	"github.com/alecbcs/spack-infrastructure/internal/model"
)

type browseMode int

const (
	browseModeList browseMode = iota
	browseModeFilter
	browseModeLog
)

var (
	browseTitleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	browseMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	browseSelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("230")).Background(lipgloss.Color("62")).Bold(true)
	browseErrorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true)
)

type browseModel struct {
	rows       []model.ClassificationRow
	categories []string
	store      *logstore.Store

	filter   textinput.Model
	filtered []int
	cursor   int
	width    int
	height   int
	mode     browseMode

	logTitle  string
	logLines  []string
	logOffset int

	statusMessage string
}

func runBrowse(args []string) error {
	fs := flag.NewFlagSet("browse", flag.ContinueOnError)
	inputDir := fs.String("input-dir", "error_logs", "directory containing job logs")
	taxonomyPath := fs.String("taxonomy", "", "YAML taxonomy file (default: built-in signature table)")
	fs.SetOutput(flag.CommandLine.Output())
	if err := fs.Parse(args); err != nil {
		return err
	}
	manifestPath := strings.TrimSpace(fs.Arg(0))
	if manifestPath == "" {
		return errors.New("browse requires the manifest CSV as its terminal argument")
	}
	if !stdinIsTTY() {
		return errors.New("browse requires an interactive terminal (TTY)")
	}

	table, err := classifyManifest(manifestPath, *inputDir, *taxonomyPath, 0, false)
	if err != nil {
		return err
	}
	store, err := logstore.Open(*inputDir)
	if err != nil {
		return err
	}

	input := textinput.New()
	input.Placeholder = "filter by id, name, stage, or category"
	input.CharLimit = 120

	m := browseModel{
		rows:       table.Rows,
		categories: table.Categories,
		store:      store,
		filter:     input,
		mode:       browseModeList,
	}
	m.applyFilter()

	if _, err := tea.NewProgram(m, tea.WithAltScreen()).Run(); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "tty") {
			return errors.New("browse requires an interactive terminal (TTY)")
		}
		return err
	}
	return nil
}

func (m browseModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if size, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = size.Width
		m.height = size.Height
		return m, nil
	}
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}

	switch m.mode {
	case browseModeList:
		return m.updateList(keyMsg)
	case browseModeFilter:
		return m.updateFilter(keyMsg)
	case browseModeLog:
		return m.updateLog(keyMsg)
	default:
		return m, nil
	}
}

func (m browseModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
	case "/":
		m.mode = browseModeFilter
		m.filter.Focus()
		return m, textinput.Blink
	case "enter":
		return m.openLog()
	}
	return m, nil
}

func (m browseModel) updateFilter(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "enter":
		m.mode = browseModeList
		m.filter.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m browseModel) updateLog(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	pageSize := maxInt(m.logPageSize(), 1)
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q":
		m.mode = browseModeList
		m.logLines = nil
		m.logOffset = 0
	case "up", "k":
		m.logOffset = clampInt(m.logOffset-1, 0, m.maxLogOffset())
	case "down", "j":
		m.logOffset = clampInt(m.logOffset+1, 0, m.maxLogOffset())
	case "pgup", "b":
		m.logOffset = clampInt(m.logOffset-pageSize, 0, m.maxLogOffset())
	case "pgdown", "f", " ":
		m.logOffset = clampInt(m.logOffset+pageSize, 0, m.maxLogOffset())
	case "g":
		m.logOffset = 0
	case "G":
		m.logOffset = m.maxLogOffset()
	}
	return m, nil
}

func (m browseModel) openLog() (tea.Model, tea.Cmd) {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return m, nil
	}
	row := m.rows[m.filtered[m.cursor]]
	text, err := m.store.Read(row.Job.ID)
	if err != nil {
		m.statusMessage = browseErrorStyle.Render(err.Error())
		return m, nil
	}
	m.mode = browseModeLog
	m.logTitle = fmt.Sprintf("job %d %s", row.Job.ID, row.Job.Name)
	m.logLines = strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	m.logOffset = 0
	m.statusMessage = ""
	return m, nil
}

func (m *browseModel) applyFilter() {
	query := strings.ToLower(strings.TrimSpace(m.filter.Value()))
	m.filtered = m.filtered[:0]
	for i, row := range m.rows {
		if query == "" || rowMatchesQuery(row, query) {
			m.filtered = append(m.filtered, i)
		}
	}
	m.cursor = clampInt(m.cursor, 0, maxInt(len(m.filtered)-1, 0))
}

func rowMatchesQuery(row model.ClassificationRow, query string) bool {
	if strings.Contains(strconv.Itoa(row.Job.ID), query) {
		return true
	}
	for _, field := range []string{row.Job.Name, row.Job.Stage, row.Job.Ref, row.Kind} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	for name, matched := range row.Matches {
		if matched && strings.Contains(strings.ToLower(name), query) {
			return true
		}
	}
	return false
}

func (m browseModel) View() string {
	if m.mode == browseModeLog {
		return m.viewLog()
	}
	return m.viewList()
}

func (m browseModel) viewList() string {
	var b strings.Builder
	b.WriteString(browseTitleStyle.Render("spack-triage browse"))
	b.WriteString(browseMutedStyle.Render(fmt.Sprintf("  %d/%d jobs", len(m.filtered), len(m.rows))))
	b.WriteString("\n")

	if m.mode == browseModeFilter {
		b.WriteString(m.filter.View() + "\n")
	} else if strings.TrimSpace(m.filter.Value()) != "" {
		b.WriteString(browseMutedStyle.Render("filter: "+m.filter.Value()) + "\n")
	} else {
		b.WriteString(browseMutedStyle.Render("press / to filter, enter to open a log, q to quit") + "\n")
	}
	b.WriteString("\n")

	maxRows := maxInt(m.height-6, 5)
	start, end := listWindow(len(m.filtered), m.cursor, maxRows)
	if len(m.filtered) == 0 {
		b.WriteString(browseMutedStyle.Render("(no jobs match)") + "\n")
	}
	for i := start; i < end; i++ {
		row := m.rows[m.filtered[i]]
		line := fmt.Sprintf("%-9d %-5s %s", row.Job.ID, row.Kind, m.rowCategories(row))
		line = truncateRunes(line, maxInt(m.width-4, 20))
		if i == m.cursor {
			b.WriteString(browseSelStyle.Render("> "+line) + "\n")
		} else {
			b.WriteString("  " + line + "\n")
		}
	}

	if m.statusMessage != "" {
		b.WriteString("\n" + m.statusMessage + "\n")
	}
	return b.String()
}

func (m browseModel) viewLog() string {
	var b strings.Builder
	b.WriteString(browseTitleStyle.Render(m.logTitle))
	b.WriteString(browseMutedStyle.Render(fmt.Sprintf("  line %d/%d (esc to go back)", m.logOffset+1, len(m.logLines))))
	b.WriteString("\n\n")

	page := m.logPageSize()
	end := clampInt(m.logOffset+page, 0, len(m.logLines))
	for _, line := range m.logLines[m.logOffset:end] {
		b.WriteString(truncateRunes(line, maxInt(m.width-2, 20)) + "\n")
	}
	return b.String()
}

func (m browseModel) rowCategories(row model.ClassificationRow) string {
	matched := make([]string, 0, 4)
	for _, name := range m.categories {
		if row.Matches[name] {
			matched = append(matched, name)
		}
	}
	if len(matched) == 0 {
		return browseMutedStyle.Render("(unclassified)")
	}
	return strings.Join(matched, ", ")
}

func (m browseModel) logPageSize() int {
	return maxInt(m.height-4, 5)
}

func (m browseModel) maxLogOffset() int {
	return maxInt(len(m.logLines)-m.logPageSize(), 0)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
