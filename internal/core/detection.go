package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/platebridge/portal/internal/events"
	"github.com/platebridge/portal/internal/gatewise"
	"github.com/platebridge/portal/internal/metrics"
	"github.com/platebridge/portal/internal/model"
	"github.com/platebridge/portal/internal/platform"
)

// GateTrigger is the outbound relay dependency, satisfied by
// *gatewise.Client in production.
type GateTrigger interface {
	TriggerGate(ctx context.Context, cfg *model.GatewiseConfig) gatewise.Result
}

// ErrSiteOutsideKeyScope means the reported site resolves to a community
// the authenticated key is not bound to.
var ErrSiteOutsideKeyScope = errors.New("site outside key scope")

// DetectionInput is one plate read reported by an edge pod.
// KeyCommunityID is the community the authenticating API key is bound to.
type DetectionInput struct {
	SiteID         string
	Plate          string
	Camera         string
	PodID          *string
	PodName        string
	KeyCommunityID string
	Confidence     int
	SnapshotKey    *string
}

// DetectionResult is what goes back to the pod. Action is always set, even
// on errors, so edge devices never parse HTTP statuses to decide gate
// behavior.
type DetectionResult struct {
	Action     string `json:"action"`
	Reason     string `json:"reason"`
	GateOpened bool   `json:"gate_opened"`
}

const (
	ActionAllow = "allow"
	ActionDeny  = "deny"
)

// DetectionService orchestrates one detection event: resolve the site, run
// the evaluator, append the audit record, and trigger the gate when
// granted. Each event runs to completion synchronously; there is no retry
// and no persisted in-flight state.
type DetectionService struct {
	db        DB
	evaluator *Evaluator
	logs      *AccessLogService
	gate      GateTrigger
	hub       *events.Hub
	logger    zerolog.Logger
}

func NewDetectionService(db DB, evaluator *Evaluator, logs *AccessLogService, gate GateTrigger, hub *events.Hub, logger zerolog.Logger) *DetectionService {
	return &DetectionService{
		db:        db,
		evaluator: evaluator,
		logs:      logs,
		gate:      gate,
		hub:       hub,
		logger:    logger.With().Str("component", "detection").Logger(),
	}
}

// Handle processes one detection. ErrSiteNotFound means there was no
// community to evaluate against; any other error means the authorization
// path itself failed and the caller must deny.
func (s *DetectionService) Handle(ctx context.Context, in DetectionInput) (*DetectionResult, error) {
	plate := NormalizePlate(in.Plate)

	communityID, err := s.resolveCommunity(ctx, in.SiteID)
	if err != nil {
		return nil, err
	}

	// A key for community A must not write logs or open gates for sites
	// in community B.
	if in.KeyCommunityID != "" && in.KeyCommunityID != communityID {
		return nil, ErrSiteOutsideKeyScope
	}

	decision, err := s.evaluator.Evaluate(ctx, communityID, plate, in.Confidence)
	if err != nil {
		return nil, fmt.Errorf("evaluate detection: %w", err)
	}
	metrics.RecordDecision(decision.Decision, decision.Reason)

	// The audit record is written no matter what happens next. A logging
	// failure is swallowed: it never changes the returned action.
	logEntry := &model.AccessLog{
		ID:          platform.NewID(),
		CommunityID: communityID,
		PodID:       in.PodID,
		Plate:       plate,
		Decision:    decision.Decision,
		Reason:      decision.Reason,
		Confidence:  in.Confidence,
		SnapshotKey: in.SnapshotKey,
	}
	if decision.MatchedEntry != nil {
		logEntry.AccessType = decision.MatchedEntry.Type
		logEntry.VendorName = decision.MatchedEntry.VendorName
	}
	if err := s.logs.Record(ctx, logEntry); err != nil {
		s.logger.Warn().Err(err).Str("plate", plate).Msg("failed to record access log")
	}

	result := &DetectionResult{Reason: decision.Reason}
	if !decision.Granted() {
		result.Action = ActionDeny
		s.publish(communityID, in, plate, decision, false)
		return result, nil
	}
	result.Action = ActionAllow

	// Relay failures only deny the convenience of auto-opening; the plate
	// stays authorized.
	cfg, err := s.loadGatewiseConfig(ctx, communityID)
	if err != nil {
		s.logger.Warn().Err(err).Str("community_id", communityID).Msg("failed to load gatewise config")
	}
	if cfg.Configured() {
		result.GateOpened = s.triggerGate(ctx, communityID, in, plate, cfg)
	}

	s.publish(communityID, in, plate, decision, result.GateOpened)
	return result, nil
}

func (s *DetectionService) resolveCommunity(ctx context.Context, siteID string) (string, error) {
	var communityID string
	err := s.db.QueryRow(ctx, "SELECT community_id FROM sites WHERE id = $1", siteID).Scan(&communityID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrSiteNotFound
	}
	if err != nil {
		return "", fmt.Errorf("resolve site %s: %w", siteID, err)
	}
	return communityID, nil
}

func (s *DetectionService) loadGatewiseConfig(ctx context.Context, communityID string) (*model.GatewiseConfig, error) {
	var cfg model.GatewiseConfig
	err := s.db.QueryRow(ctx,
		`SELECT community_id, api_key, api_endpoint, gatewise_community_id, gatewise_access_point_id, enabled, updated_at
		 FROM gatewise_configs WHERE community_id = $1`, communityID,
	).Scan(&cfg.CommunityID, &cfg.APIKey, &cfg.APIEndpoint, &cfg.GatewiseCommunityID,
		&cfg.GatewiseAccessPointID, &cfg.Enabled, &cfg.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load gatewise config %s: %w", communityID, err)
	}
	return &cfg, nil
}

// triggerGate makes the single relay attempt and appends the relay-outcome
// audit record, independent of the decision record.
func (s *DetectionService) triggerGate(ctx context.Context, communityID string, in DetectionInput, plate string, cfg *model.GatewiseConfig) bool {
	res := s.gate.TriggerGate(ctx, cfg)

	reason := model.ReasonGateOpened
	if res.Success {
		metrics.RecordGateTrigger("opened")
	} else {
		reason = model.ReasonGateOpenFailed
		metrics.RecordGateTrigger(res.Error)
		s.logger.Warn().
			Str("community_id", communityID).
			Str("plate", plate).
			Int("status", res.StatusCode).
			Str("error", res.Error).
			Msg("gate trigger failed")
	}

	relayLog := &model.AccessLog{
		ID:            platform.NewID(),
		CommunityID:   communityID,
		PodID:         in.PodID,
		Plate:         plate,
		Decision:      model.DecisionGranted,
		Reason:        reason,
		Confidence:    in.Confidence,
		GateTriggered: res.Success,
	}
	if err := s.logs.Record(ctx, relayLog); err != nil {
		s.logger.Warn().Err(err).Str("plate", plate).Msg("failed to record relay outcome")
	}

	return res.Success
}

func (s *DetectionService) publish(communityID string, in DetectionInput, plate string, decision *Decision, gateOpened bool) {
	if s.hub == nil {
		return
	}
	s.hub.Publish(events.Event{
		Type:        events.TypeDetection,
		CommunityID: communityID,
		SiteID:      in.SiteID,
		Plate:       plate,
		Decision:    decision.Decision,
		Reason:      decision.Reason,
		GateOpened:  gateOpened,
	})
}
