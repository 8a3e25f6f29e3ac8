package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"energy-server/entities"
)

type projection struct {
	CurrentDraw          float64  `json:"current_draw"`
	ProjectedMonthlyCost float64  `json:"projected_monthly_cost"`
	DailyUsage           float64  `json:"daily_usage"`
	DepletionDays        *float64 `json:"depletion_days"`
	Band                 string   `json:"band"`
	ActiveDevices        int      `json:"active_devices"`
}

type dashboard struct {
	Units      entities.UnitSummary `json:"units"`
	Projection projection           `json:"projection"`
	Devices    []entities.Selection `json:"devices"`
	Alerts     []entities.Alert     `json:"alerts"`
}

// apiClient talks to the energy server REST API.
type apiClient struct {
	baseURL string
	http    *http.Client
	token   string
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *apiClient) do(method, path string, body, out interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, c.baseURL+path, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("server not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr struct {
			Message string `json:"message"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Message != "" {
			return errors.New(apiErr.Message)
		}
		return fmt.Errorf("server returned %d", resp.StatusCode)
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func (c *apiClient) signIn(email, password string) (entities.Profile, error) {
	var res struct {
		Token string           `json:"token"`
		User  entities.Profile `json:"user"`
	}
	err := c.do(http.MethodPost, "/api/users/signin", map[string]string{
		"email":    email,
		"password": password,
	}, &res)
	if err != nil {
		return entities.Profile{}, err
	}
	if res.Token == "" {
		return entities.Profile{}, errors.New("server returned no token")
	}
	c.token = res.Token
	return res.User, nil
}

func (c *apiClient) dashboard() (*dashboard, error) {
	var d dashboard
	if err := c.do(http.MethodGet, "/api/users/dashboard", nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (c *apiClient) toggle(id string, active bool) error {
	return c.do(http.MethodPut, "/api/users/devices/"+id+"/toggle", map[string]bool{"is_active": active}, nil)
}

func (c *apiClient) buy(amount float64) error {
	return c.do(http.MethodPost, "/api/users/units", map[string]float64{"units_amount": amount}, nil)
}
