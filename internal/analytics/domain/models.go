package domain

import "time"

// MonthlyActiveWindow is the trailing window used for monthly active installations.
const MonthlyActiveWindow = 30 * 24 * time.Hour

type CountryCount struct {
	CountryCode string `json:"countryCode"`
	Count       int64  `json:"count"`
}

type AppCount struct {
	AppName string `json:"appName"`
	Count   int64  `json:"count"`
}

type VersionCount struct {
	Version    string  `json:"version"`
	Count      int64   `json:"count"`
	Percentage float64 `json:"percentage"`
}

type UsageSummary struct {
	TotalInstallations int64          `json:"totalInstallations"`
	MonthlyActive      int64          `json:"monthlyActive"`
	Countries          []CountryCount `json:"countries"`
	Apps               []AppCount     `json:"apps"`
	GeneratedAt        time.Time      `json:"generatedAt"`
}

type VersionDistribution struct {
	AppName               string         `json:"appName,omitempty"`
	Versions              []VersionCount `json:"versions"`
	Total                 int64          `json:"total"`
	LatestVersion         string         `json:"latestVersion"`
	OutdatedInstallations int64          `json:"outdatedInstallations"`
	GeneratedAt           time.Time      `json:"generatedAt"`
}
