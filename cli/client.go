package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

// ApiClient talks to the menu compliance API.
type ApiClient struct {
	httpClient *http.Client
	BaseURL    string
}

// NewApiClient creates a new API client. The server address comes from
// MENUAUDIT_API_URL, defaulting to the local dev server.
func NewApiClient() *ApiClient {
	baseURL := os.Getenv("MENUAUDIT_API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}

	return &ApiClient{
		httpClient: &http.Client{
			Timeout: time.Second * 30,
		},
		BaseURL: baseURL,
	}
}

// CheckHealth checks if the API is up and running.
func (c *ApiClient) CheckHealth() (bool, error) {
	resp, err := c.httpClient.Get(c.BaseURL + "/health")
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("API health check failed with status code: %d", resp.StatusCode)
	}

	return true, nil
}

// MenuCheck is one compliance check as returned by the API.
type MenuCheck struct {
	ID               uint      `json:"ID"`
	SiteID           uint      `json:"SiteID"`
	Month            string    `json:"Month"`
	Year             int       `json:"Year"`
	CheckedAt        time.Time `json:"CheckedAt"`
	TotalFindings    int       `json:"TotalFindings"`
	CriticalFindings int       `json:"CriticalFindings"`
	Warnings         int       `json:"Warnings"`
	PassedRules      int       `json:"PassedRules"`
}

// CheckResult is one finding of a check run.
type CheckResult struct {
	ID           uint   `json:"ID"`
	RuleName     string `json:"RuleName"`
	RuleCategory string `json:"RuleCategory"`
	Passed       bool   `json:"Passed"`
	Severity     string `json:"Severity"`
	FindingText  string `json:"FindingText"`
}

// RunSummary is the aggregate outcome of a run.
type RunSummary struct {
	CheckID          uint   `json:"check_id"`
	TotalFindings    int    `json:"total_findings"`
	CriticalFindings int    `json:"critical_findings"`
	Warnings         int    `json:"warnings"`
	PassedRules      int    `json:"passed_rules"`
	DaysParsed       int    `json:"days_parsed"`
	RulesChecked     int    `json:"rules_checked"`
	ParseTier        string `json:"parse_tier"`
}

// GetChecks retrieves all checks, optionally filtered by month.
func (c *ApiClient) GetChecks(month string) ([]MenuCheck, error) {
	url := c.BaseURL + "/api/v1/checks"
	if month != "" {
		url += fmt.Sprintf("?month=%s", month)
	}

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to list checks with status code: %d", resp.StatusCode)
	}

	var checks []MenuCheck
	if err := json.NewDecoder(resp.Body).Decode(&checks); err != nil {
		return nil, err
	}

	return checks, nil
}

// GetCheck retrieves a specific check by ID.
func (c *ApiClient) GetCheck(id uint) (*MenuCheck, error) {
	resp, err := c.httpClient.Get(fmt.Sprintf("%s/api/v1/checks/%d", c.BaseURL, id))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get check with status code: %d", resp.StatusCode)
	}

	var check MenuCheck
	if err := json.NewDecoder(resp.Body).Decode(&check); err != nil {
		return nil, err
	}

	return &check, nil
}

// GetResults retrieves the findings of a check.
func (c *ApiClient) GetResults(checkID uint, failedOnly bool) ([]CheckResult, error) {
	url := fmt.Sprintf("%s/api/v1/checks/%d/results", c.BaseURL, checkID)
	if failedOnly {
		url += "?failed=true"
	}

	resp, err := c.httpClient.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to get results with status code: %d", resp.StatusCode)
	}

	var results []CheckResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return nil, err
	}

	return results, nil
}

// RunCheck triggers a compliance run for the check.
func (c *ApiClient) RunCheck(checkID uint) (*RunSummary, error) {
	req, err := http.NewRequest("POST", fmt.Sprintf("%s/api/v1/checks/%d/run", c.BaseURL, checkID), bytes.NewReader(nil))
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("run failed with status code: %d", resp.StatusCode)
	}

	var summary RunSummary
	if err := json.NewDecoder(resp.Body).Decode(&summary); err != nil {
		return nil, err
	}

	return &summary, nil
}
