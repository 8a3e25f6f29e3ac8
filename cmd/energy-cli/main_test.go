package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFakeAPI(t *testing.T) (*httptest.Server, *[]string) {
	t.Helper()
	var calls []string

	mux := http.NewServeMux()
	mux.HandleFunc("/api/users/signin", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["password"] != "password123" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid email or password."}`))
			return
		}
		_, _ = w.Write([]byte(`{"message":"Signed in successfully.","token":"tok","user":{"id":"u1","email":"a@b.com"}}`))
	})
	mux.HandleFunc("/api/users/dashboard", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{
			"units":{"balance":10,"consumed":2,"remaining":8},
			"projection":{"current_draw":0.3,"projected_monthly_cost":32.4,"daily_usage":7.2,"depletion_days":1.1,"band":"low","active_devices":1},
			"devices":[{"id":"d1","device_id":"fridge","quantity":2,"is_active":true,"name":"Refrigerator","power_consumption":0.15}],
			"alerts":[{"id":"a1","alert_type":"low_units","message":"Warning: Power units are low! Estimated to last only 1.1 days."}]
		}`))
	})
	mux.HandleFunc("/api/users/devices/d1/toggle", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]bool
		_ = json.NewDecoder(r.Body).Decode(&body)
		calls = append(calls, "toggle")
		assert.Equal(t, false, body["is_active"])
		_, _ = w.Write([]byte(`{"message":"Device deactivated successfully."}`))
	})
	mux.HandleFunc("/api/users/units", func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "buy")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Power units added successfully."}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestClientSignInAndDashboard(t *testing.T) {
	srv, calls := newFakeAPI(t)
	c := newAPIClient(srv.URL + "/")

	_, err := c.signIn("a@b.com", "wrong")
	assert.EqualError(t, err, "Invalid email or password.")

	user, err := c.signIn("a@b.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, "u1", user.ID)

	d, err := c.dashboard()
	require.NoError(t, err)
	assert.Equal(t, 8.0, d.Units.Remaining)
	require.Len(t, d.Devices, 1)
	assert.InDelta(t, 0.3, d.Devices[0].Draw(), 1e-9)
	require.NotNil(t, d.Projection.DepletionDays)
	assert.Equal(t, []string{"Bearer tok"}, *calls)
}

func runCmd(t *testing.T, m tea.Model, cmd tea.Cmd) tea.Model {
	t.Helper()
	require.NotNil(t, cmd)
	m, _ = m.Update(cmd())
	return m
}

func typeText(m tea.Model, text string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(text)})
	return m
}

func TestModelSignInFlow(t *testing.T) {
	srv, calls := newFakeAPI(t)
	var m tea.Model = initialModel(newAPIClient(srv.URL))

	m = typeText(m, "a@b.com")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, stepEnteringPassword, m.(model).step)

	m = typeText(m, "password123")
	assert.NotContains(t, m.View(), "password123")

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, stepSigningIn, m.(model).step)

	m, cmd = m.Update(cmd())
	m = runCmd(t, m, cmd)

	view := m.View()
	assert.Equal(t, stepDashboard, m.(model).step)
	assert.Contains(t, view, "Refrigerator")
	assert.Contains(t, view, "1.1 days")
	assert.Contains(t, view, "Power units are low")

	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}})
	msg := cmd()
	assert.IsType(t, actionDoneMsg{}, msg)
	assert.Contains(t, *calls, "toggle")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'b'}})
	assert.Equal(t, stepEnteringUnits, m.(model).step)
	m = typeText(m, "-3")
	m, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "positive number")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'b'}})
	m = typeText(m, "25")
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.IsType(t, actionDoneMsg{}, cmd())
	assert.Contains(t, *calls, "buy")
}

func TestModelSignInFailureReturnsToEmail(t *testing.T) {
	srv, _ := newFakeAPI(t)
	var m tea.Model = initialModel(newAPIClient(srv.URL))

	m = typeText(m, "a@b.com")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = typeText(m, "nope")
	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = runCmd(t, m, cmd)

	assert.Equal(t, stepEnteringEmail, m.(model).step)
	assert.Contains(t, m.View(), "Invalid email or password.")
}
