package main

import (
	"fmt"
	"os"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Styling
var (
	docStyle = lipgloss.NewStyle().Margin(1, 2)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#30d158")).
			Padding(0, 1)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#ff453a")).
			Padding(0, 1)
)

// Model defines the application state
type Model struct {
	checkList   list.Model
	resultsView table.Model
	spinner     spinner.Model
	client      *ApiClient
	current     *MenuCheck
	currentView string
	status      string
	error       string
}

// checkItem represents a check in the list
type checkItem struct {
	id    uint
	title string
	desc  string
}

func (i checkItem) Title() string       { return i.title }
func (i checkItem) Description() string { return i.desc }
func (i checkItem) FilterValue() string { return i.title }

func initialModel() Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	checkList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	checkList.Title = "Menu Compliance Checks"

	columns := []table.Column{
		{Title: "Rule", Width: 44},
		{Title: "Severity", Width: 10},
		{Title: "Status", Width: 8},
	}
	resultsTable := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(14),
	)

	return Model{
		checkList:   checkList,
		resultsView: resultsTable,
		spinner:     s,
		client:      NewApiClient(),
		currentView: "checks",
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tea.EnterAltScreen, fetchChecks(m.client))
}

// Update handles UI updates
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.checkList.SetSize(msg.Width-h, msg.Height-v)
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "enter":
			if m.currentView == "checks" {
				if selected, ok := m.checkList.SelectedItem().(checkItem); ok {
					m.currentView = "results"
					return m, fetchResults(m.client, selected.id)
				}
			}
		case "r":
			if m.currentView == "results" && m.current != nil {
				m.status = "Running check..."
				return m, runCheck(m.client, m.current.ID)
			}
			if m.currentView == "checks" {
				return m, fetchChecks(m.client)
			}
		case "esc":
			if m.currentView == "results" {
				m.currentView = "checks"
				m.status = ""
				return m, fetchChecks(m.client)
			}
		}
	case checksMsg:
		m.checkList.SetItems(convertChecksToItems(msg.checks))
		return m, nil
	case resultsMsg:
		m.current = msg.check
		m.resultsView.SetRows(convertResultsToRows(msg.results))
		return m, nil
	case runDoneMsg:
		m.status = successStyle.Render(fmt.Sprintf(
			"Run complete: %d passed, %d critical, %d warnings (%s tier, %d days)",
			msg.summary.PassedRules, msg.summary.CriticalFindings,
			msg.summary.Warnings, msg.summary.ParseTier, msg.summary.DaysParsed))
		if m.current != nil {
			return m, fetchResults(m.client, m.current.ID)
		}
		return m, nil
	case errorMsg:
		m.error = msg.err
		return m, nil
	}

	var cmd tea.Cmd
	switch m.currentView {
	case "checks":
		m.checkList, cmd = m.checkList.Update(msg)
	case "results":
		m.resultsView, cmd = m.resultsView.Update(msg)
	}

	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	switch m.currentView {
	case "checks":
		help := "\nPress 'enter' for findings, 'r' to refresh, 'q' to quit\n"
		if m.error != "" {
			help += errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(m.checkList.View() + help)
	case "results":
		title := "Findings"
		if m.current != nil {
			title = fmt.Sprintf("Findings for site %d, %s", m.current.SiteID, m.current.Month)
		}
		help := "\nPress 'r' to re-run the check, 'esc' to go back\n"
		if m.status != "" {
			help += m.status + "\n"
		}
		if m.error != "" {
			help += errorStyle.Render(m.error) + "\n"
		}
		return docStyle.Render(titleStyle.Render(title) + "\n\n" + m.resultsView.View() + help)
	default:
		return "Loading..."
	}
}

// Custom message types for the tea.Model
type checksMsg struct {
	checks []MenuCheck
}

type resultsMsg struct {
	check   *MenuCheck
	results []CheckResult
}

type runDoneMsg struct {
	summary *RunSummary
}

type errorMsg struct {
	err string
}

// fetchChecks retrieves checks from the API
func fetchChecks(client *ApiClient) tea.Cmd {
	return func() tea.Msg {
		checks, err := client.GetChecks("")
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching checks: %v", err)}
		}
		return checksMsg{checks: checks}
	}
}

// fetchResults retrieves the findings for a specific check
func fetchResults(client *ApiClient, id uint) tea.Cmd {
	return func() tea.Msg {
		check, err := client.GetCheck(id)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching check: %v", err)}
		}
		results, err := client.GetResults(id, false)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error fetching results: %v", err)}
		}
		return resultsMsg{check: check, results: results}
	}
}

// runCheck triggers a compliance run
func runCheck(client *ApiClient, id uint) tea.Cmd {
	return func() tea.Msg {
		summary, err := client.RunCheck(id)
		if err != nil {
			return errorMsg{err: fmt.Sprintf("Error running check: %v", err)}
		}
		return runDoneMsg{summary: summary}
	}
}

// convertChecksToItems converts API checks to list items
func convertChecksToItems(checks []MenuCheck) []list.Item {
	items := make([]list.Item, len(checks))
	for i, check := range checks {
		desc := "not yet run"
		if !check.CheckedAt.IsZero() {
			desc = fmt.Sprintf("%d passed, %d critical, %d warnings",
				check.PassedRules, check.CriticalFindings, check.Warnings)
		}
		items[i] = checkItem{
			id:    check.ID,
			title: fmt.Sprintf("Check #%d - site %d, %s", check.ID, check.SiteID, check.Month),
			desc:  desc,
		}
	}
	return items
}

// convertResultsToRows converts findings to table rows
func convertResultsToRows(results []CheckResult) []table.Row {
	rows := make([]table.Row, len(results))
	for i, res := range results {
		status := "FAIL"
		if res.Passed {
			status = "PASS"
		}
		rows[i] = table.Row{res.RuleName, res.Severity, status}
	}
	return rows
}

func main() {
	p := tea.NewProgram(initialModel())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error running program: %v", err)
		os.Exit(1)
	}
}
