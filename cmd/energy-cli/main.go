package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"energy-server/entities"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const defaultAPIURL = "http://localhost:3536"

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("170")).
			Bold(true).
			PaddingLeft(2)

	normalStyle = lipgloss.NewStyle().
			PaddingLeft(4)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86"))

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")).
			Bold(true)
)

type step int

const (
	stepEnteringEmail step = iota
	stepEnteringPassword
	stepSigningIn
	stepDashboard
	stepEnteringUnits
)

type model struct {
	client       *apiClient
	step         step
	email        string
	user         entities.Profile
	dash         *dashboard
	cursor       int
	currentInput string
	message      string
	busy         bool
	ticking      bool
	quitting     bool
}

type signedInMsg struct{ user entities.Profile }
type dashboardMsg struct{ dash *dashboard }
type actionDoneMsg struct{ message string }
type refreshTickMsg struct{}
type errMsg struct{ err error }

func (e errMsg) Error() string { return e.err.Error() }

func initialModel(client *apiClient) model {
	return model{client: client, step: stepEnteringEmail}
}

func (m model) Init() tea.Cmd {
	return nil
}

func tickRefresh() tea.Cmd {
	return tea.Tick(30*time.Second, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}

func signIn(c *apiClient, email, password string) tea.Cmd {
	return func() tea.Msg {
		user, err := c.signIn(email, password)
		if err != nil {
			return errMsg{err}
		}
		return signedInMsg{user: user}
	}
}

func fetchDashboard(c *apiClient) tea.Cmd {
	return func() tea.Msg {
		d, err := c.dashboard()
		if err != nil {
			return errMsg{err}
		}
		return dashboardMsg{dash: d}
	}
}

func toggleDevice(c *apiClient, s entities.Selection) tea.Cmd {
	return func() tea.Msg {
		if err := c.toggle(s.ID, !s.IsActive); err != nil {
			return errMsg{err}
		}
		state := "on"
		if s.IsActive {
			state = "off"
		}
		return actionDoneMsg{message: fmt.Sprintf("Turned %s %s", state, s.Name)}
	}
}

func buyUnits(c *apiClient, amount float64) tea.Cmd {
	return func() tea.Msg {
		if err := c.buy(amount); err != nil {
			return errMsg{err}
		}
		return actionDoneMsg{message: fmt.Sprintf("Added %.2f units", amount)}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case signedInMsg:
		m.user = msg.user
		m.step = stepDashboard
		m.busy = true
		m.message = successStyle.Render("✓ Signed in as " + msg.user.Email)
		return m, fetchDashboard(m.client)

	case dashboardMsg:
		m.dash = msg.dash
		m.busy = false
		if m.cursor >= len(m.dash.Devices) {
			m.cursor = max(len(m.dash.Devices)-1, 0)
		}
		if !m.ticking {
			m.ticking = true
			return m, tickRefresh()
		}

	case actionDoneMsg:
		m.message = successStyle.Render("✓ " + msg.message)
		return m, fetchDashboard(m.client)

	case refreshTickMsg:
		if m.step == stepDashboard && !m.busy {
			return m, tea.Batch(fetchDashboard(m.client), tickRefresh())
		}
		return m, tickRefresh()

	case errMsg:
		m.busy = false
		m.message = errorStyle.Render("✗ " + msg.err.Error())
		if m.step == stepSigningIn {
			m.step = stepEnteringEmail
		}
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.step {
	case stepEnteringEmail, stepEnteringPassword, stepEnteringUnits:
		return m.handleInput(msg)
	case stepDashboard:
	default:
		return m, nil
	}

	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.dash != nil && m.cursor < len(m.dash.Devices)-1 {
			m.cursor++
		}
	case " ":
		if m.dash != nil && m.cursor < len(m.dash.Devices) {
			return m, toggleDevice(m.client, m.dash.Devices[m.cursor])
		}
	case "b":
		m.step = stepEnteringUnits
		m.currentInput = ""
	case "r":
		m.busy = true
		return m, fetchDashboard(m.client)
	}
	return m, nil
}

func (m model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		if m.step == stepEnteringUnits {
			m.step = stepDashboard
			m.currentInput = ""
		}
		return m, nil

	case tea.KeyBackspace:
		if len(m.currentInput) > 0 {
			m.currentInput = m.currentInput[:len(m.currentInput)-1]
		}
		return m, nil

	case tea.KeyEnter:
		input := strings.TrimSpace(m.currentInput)
		if input == "" {
			return m, nil
		}
		m.currentInput = ""

		switch m.step {
		case stepEnteringEmail:
			m.email = input
			m.step = stepEnteringPassword
		case stepEnteringPassword:
			m.step = stepSigningIn
			m.message = "Signing in..."
			return m, signIn(m.client, m.email, input)
		case stepEnteringUnits:
			m.step = stepDashboard
			amount, err := strconv.ParseFloat(input, 64)
			if err != nil || amount <= 0 {
				m.message = errorStyle.Render("✗ Enter a positive number of units")
				return m, nil
			}
			return m, buyUnits(m.client, amount)
		}
		return m, nil

	case tea.KeyRunes, tea.KeySpace:
		m.currentInput += msg.String()
	}
	return m, nil
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var s strings.Builder
	s.WriteString(titleStyle.Render("⚡ Household Energy Monitor") + "\n")

	switch m.step {
	case stepEnteringEmail:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		s.WriteString(promptStyle.Render("Enter your email:") + "\n")
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nPress Enter\n")

	case stepEnteringPassword:
		s.WriteString(promptStyle.Render("Enter your password:") + "\n")
		s.WriteString(inputStyle.Render("> " + strings.Repeat("•", len(m.currentInput))))
		s.WriteString("\n\nPress Enter\n")

	case stepSigningIn:
		s.WriteString(m.message + "\n")

	case stepEnteringUnits:
		s.WriteString(promptStyle.Render("Units to purchase (kWh):") + "\n")
		s.WriteString(inputStyle.Render("> " + m.currentInput))
		s.WriteString("\n\nEnter to buy, Esc to cancel\n")

	case stepDashboard:
		if m.message != "" {
			s.WriteString(m.message + "\n\n")
		}
		if m.dash == nil {
			s.WriteString("Loading dashboard...\n")
			break
		}
		s.WriteString(renderDashboard(m.dash, m.cursor))
		s.WriteString("\n↑/↓ select, space toggle, b buy units, r refresh, q quit\n")
	}

	return s.String()
}

func renderDashboard(d *dashboard, cursor int) string {
	var s strings.Builder

	p := d.Projection
	depletion := "never"
	if p.DepletionDays != nil {
		depletion = fmt.Sprintf("%.1f days", *p.DepletionDays)
	}
	s.WriteString(fmt.Sprintf("Units: %.2f remaining (%.2f bought, %.2f used)\n",
		d.Units.Remaining, d.Units.Balance, d.Units.Consumed))
	s.WriteString(fmt.Sprintf("Draw: %.3f kW [%s]   Daily: %.2f kWh   Monthly: $%.2f   Lasts: %s\n\n",
		p.CurrentDraw, p.Band, p.DailyUsage, p.ProjectedMonthlyCost, depletion))

	if len(d.Devices) == 0 {
		s.WriteString(normalStyle.Render("No devices yet. Add some from the web app.") + "\n")
	}
	for i, dev := range d.Devices {
		marker := " "
		style := normalStyle
		if i == cursor {
			marker = ">"
			style = selectedStyle
		}
		state := "off"
		if dev.IsActive {
			state = "on "
		}
		name := dev.Name
		if dev.CustomName != nil && *dev.CustomName != "" {
			name = *dev.CustomName
		}
		s.WriteString(fmt.Sprintf("%s %s\n", marker,
			style.Render(fmt.Sprintf("[%s] %s x%d (%.2f kW)", state, name, dev.Quantity, dev.Draw()))))
	}

	if len(d.Alerts) > 0 {
		s.WriteString("\n")
		for _, a := range d.Alerts {
			s.WriteString(warningStyle.Render("! "+a.Message) + "\n")
		}
	}
	return s.String()
}

func main() {
	apiURL := os.Getenv("ENERGY_API_URL")
	if apiURL == "" {
		apiURL = defaultAPIURL
	}

	p := tea.NewProgram(initialModel(newAPIClient(apiURL)))
	if _, err := p.Run(); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}
