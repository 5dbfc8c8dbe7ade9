package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/platebridge/portal/internal/model"
)

// Decision is the evaluator's verdict for one detection.
type Decision struct {
	Decision     string             `json:"decision"`
	Reason       string             `json:"reason"`
	MatchedEntry *model.AccessEntry `json:"matched_entry,omitempty"`
}

func (d *Decision) Granted() bool {
	return d.Decision == model.DecisionGranted
}

// Evaluator decides allow/deny for a plate within a community.
type Evaluator struct {
	entries  *AccessEntryService
	settings *AccessSettingsService
}

func NewEvaluator(entries *AccessEntryService, settings *AccessSettingsService) *Evaluator {
	return &Evaluator{entries: entries, settings: settings}
}

// NormalizePlate uppercases a plate and strips all whitespace. Idempotent.
func NormalizePlate(plate string) string {
	return strings.ToUpper(strings.Join(strings.Fields(plate), ""))
}

// Evaluate runs the decision algorithm:
//
//  1. lockdown mode denies everything
//  2. confidence below the community threshold denies without touching entries
//  3. otherwise any active, non-expired entry whose day mask and schedule
//     window cover the current community-local time grants access
//
// Entries are scanned in stable id order; no precedence between types.
func (e *Evaluator) Evaluate(ctx context.Context, communityID, plate string, confidence int) (*Decision, error) {
	return e.evaluateAt(ctx, communityID, plate, confidence, time.Now())
}

func (e *Evaluator) evaluateAt(ctx context.Context, communityID, plate string, confidence int, now time.Time) (*Decision, error) {
	plate = NormalizePlate(plate)

	settings, loc, err := e.settings.GetWithTimezone(ctx, communityID)
	if err != nil {
		return nil, err
	}

	if settings.LockdownMode {
		return &Decision{Decision: model.DecisionDenied, Reason: model.ReasonLockdownActive}, nil
	}

	// Fail closed on low-confidence reads before any entry lookup.
	if confidence < settings.RequireConfidence {
		return &Decision{Decision: model.DecisionDenied, Reason: model.ReasonConfidenceBelow}, nil
	}

	candidates, err := e.entries.ListCandidates(ctx, communityID, plate)
	if err != nil {
		return nil, err
	}

	local := now.In(loc)
	for i := range candidates {
		if entryMatchesAt(&candidates[i], local) {
			matched := candidates[i]
			return &Decision{
				Decision:     model.DecisionGranted,
				Reason:       model.ReasonAuthorized,
				MatchedEntry: &matched,
			}, nil
		}
	}

	return &Decision{Decision: model.DecisionDenied, Reason: model.ReasonPlateNotAuthorized}, nil
}

// entryMatchesAt checks the day mask and schedule window against a
// community-local timestamp. Entries missing either schedule bound are
// always-on.
func entryMatchesAt(entry *model.AccessEntry, local time.Time) bool {
	if entry.DaysActive&model.DayBit(local.Weekday()) == 0 {
		return false
	}

	if entry.ScheduleStart == nil || entry.ScheduleEnd == nil {
		return true
	}

	start, err := parseClock(*entry.ScheduleStart)
	if err != nil {
		return false
	}
	end, err := parseClock(*entry.ScheduleEnd)
	if err != nil {
		return false
	}

	minute := local.Hour()*60 + local.Minute()
	if start <= end {
		return minute >= start && minute <= end
	}
	// Overnight window, e.g. 22:00-06:00.
	return minute >= start || minute <= end
}

// parseClock converts "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("parse schedule time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}
