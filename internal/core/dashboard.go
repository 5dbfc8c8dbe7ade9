package core

import (
	"context"
	"fmt"
)

// DashboardStats holds aggregate counts from the portal database.
type DashboardStats struct {
	Companies          int `json:"companies"`
	Communities        int `json:"communities"`
	Sites              int `json:"sites"`
	Pods               int `json:"pods"`
	PodsActive         int `json:"pods_active"`
	PodsOffline        int `json:"pods_offline"`
	Cameras            int `json:"cameras"`
	AccessEntries      int `json:"access_entries"`
	AccessEntriesLive  int `json:"access_entries_live"`
	DetectionsToday    int `json:"detections_today"`
	GrantedToday       int `json:"granted_today"`
	DeniedToday        int `json:"denied_today"`
	LockdownActive     int `json:"lockdown_active"`

	DetectionsPerSite []SiteDetectionCount `json:"detections_per_site"`
	DeniesByReason    []ReasonCount        `json:"denies_by_reason"`
}

// SiteDetectionCount holds today's detection count per site.
type SiteDetectionCount struct {
	SiteID   string `json:"site_id"`
	SiteName string `json:"site_name"`
	Count    int    `json:"count"`
}

// ReasonCount holds a count grouped by denial reason.
type ReasonCount struct {
	Reason string `json:"reason"`
	Count  int    `json:"count"`
}

// DashboardService queries aggregate stats from the portal DB.
type DashboardService struct {
	db DB
}

// NewDashboardService creates a new DashboardService.
func NewDashboardService(db DB) *DashboardService {
	return &DashboardService{db: db}
}

// Stats returns aggregate counts from the portal database using a single
// query with CTEs for efficiency.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	const countsQuery = `
		WITH company_count AS (
			SELECT count(*) AS c FROM companies
		), community_count AS (
			SELECT count(*) AS c FROM communities
		), site_count AS (
			SELECT count(*) AS c FROM sites
		), pod_count AS (
			SELECT count(*) AS c FROM pods
		), pod_active AS (
			SELECT count(*) AS c FROM pods WHERE status = 'active'
		), pod_offline AS (
			SELECT count(*) AS c FROM pods WHERE status = 'offline'
		), camera_count AS (
			SELECT count(*) AS c FROM cameras
		), entry_count AS (
			SELECT count(*) AS c FROM access_entries
		), entry_live AS (
			SELECT count(*) AS c FROM access_entries
			WHERE is_active AND (expires_at IS NULL OR expires_at > now())
		), detections_today AS (
			SELECT count(*) AS c FROM access_logs WHERE created_at >= date_trunc('day', now())
		), granted_today AS (
			SELECT count(*) AS c FROM access_logs
			WHERE created_at >= date_trunc('day', now()) AND decision = 'granted'
		), denied_today AS (
			SELECT count(*) AS c FROM access_logs
			WHERE created_at >= date_trunc('day', now()) AND decision = 'denied'
		), lockdown_active AS (
			SELECT count(*) AS c FROM access_settings WHERE lockdown_mode
		)
		SELECT
			(SELECT c FROM company_count),
			(SELECT c FROM community_count),
			(SELECT c FROM site_count),
			(SELECT c FROM pod_count),
			(SELECT c FROM pod_active),
			(SELECT c FROM pod_offline),
			(SELECT c FROM camera_count),
			(SELECT c FROM entry_count),
			(SELECT c FROM entry_live),
			(SELECT c FROM detections_today),
			(SELECT c FROM granted_today),
			(SELECT c FROM denied_today),
			(SELECT c FROM lockdown_active)`

	stats := &DashboardStats{}
	err := s.db.QueryRow(ctx, countsQuery).Scan(
		&stats.Companies,
		&stats.Communities,
		&stats.Sites,
		&stats.Pods,
		&stats.PodsActive,
		&stats.PodsOffline,
		&stats.Cameras,
		&stats.AccessEntries,
		&stats.AccessEntriesLive,
		&stats.DetectionsToday,
		&stats.GrantedToday,
		&stats.DeniedToday,
		&stats.LockdownActive,
	)
	if err != nil {
		return nil, fmt.Errorf("dashboard counts: %w", err)
	}

	// Detections per site (today)
	dpsRows, err := s.db.Query(ctx,
		`SELECT s.id, s.name, count(l.id)
		 FROM sites s
		 LEFT JOIN pods p ON p.site_id = s.id
		 LEFT JOIN access_logs l ON l.pod_id = p.id AND l.created_at >= date_trunc('day', now())
		 GROUP BY s.id, s.name
		 ORDER BY count(l.id) DESC`)
	if err != nil {
		return nil, fmt.Errorf("dashboard detections per site: %w", err)
	}
	defer dpsRows.Close()

	for dpsRows.Next() {
		var sc SiteDetectionCount
		if err := dpsRows.Scan(&sc.SiteID, &sc.SiteName, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan site detection count: %w", err)
		}
		stats.DetectionsPerSite = append(stats.DetectionsPerSite, sc)
	}
	if err := dpsRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate site detection counts: %w", err)
	}

	// Denials by reason (today)
	dbrRows, err := s.db.Query(ctx,
		`SELECT reason, count(*) FROM access_logs
		 WHERE decision = 'denied' AND created_at >= date_trunc('day', now())
		 GROUP BY reason ORDER BY count(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("dashboard denies by reason: %w", err)
	}
	defer dbrRows.Close()

	for dbrRows.Next() {
		var rc ReasonCount
		if err := dbrRows.Scan(&rc.Reason, &rc.Count); err != nil {
			return nil, fmt.Errorf("scan reason count: %w", err)
		}
		stats.DeniesByReason = append(stats.DeniesByReason, rc)
	}
	if err := dbrRows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reason counts: %w", err)
	}

	return stats, nil
}
