package core

import (
	"github.com/rs/zerolog"

	"github.com/platebridge/portal/internal/events"
)

type Services struct {
	Company           *CompanyService
	Community         *CommunityService
	Site              *SiteService
	Pod               *PodService
	Camera            *CameraService
	AccessEntry       *AccessEntryService
	AccessSettings    *AccessSettingsService
	AccessLog         *AccessLogService
	Evaluator         *Evaluator
	Detection         *DetectionService
	PodAPIKey         *PodAPIKeyService
	RegistrationToken *RegistrationTokenService
	Gatewise          *GatewiseConfigService
	User              *UserService
	Auth              *AuthService
	Search            *SearchService
	Dashboard         *DashboardService
}

func NewServices(db DB, gate GateTrigger, hub *events.Hub, sessionSecret string, logger zerolog.Logger) *Services {
	settings := NewAccessSettingsService(db)
	accessLog := NewAccessLogService(db)
	entries := NewAccessEntryService(db)
	evaluator := NewEvaluator(entries, settings)

	return &Services{
		Company:           NewCompanyService(db),
		Community:         NewCommunityService(db),
		Site:              NewSiteService(db),
		Pod:               NewPodService(db),
		Camera:            NewCameraService(db),
		AccessEntry:       entries,
		AccessSettings:    settings,
		AccessLog:         accessLog,
		Evaluator:         evaluator,
		Detection:         NewDetectionService(db, evaluator, accessLog, gate, hub, logger),
		PodAPIKey:         NewPodAPIKeyService(db),
		RegistrationToken: NewRegistrationTokenService(db),
		Gatewise:          NewGatewiseConfigService(db),
		User:              NewUserService(db),
		Auth:              NewAuthService(db, sessionSecret, "platebridge"),
		Search:            NewSearchService(db),
		Dashboard:         NewDashboardService(db),
	}
}
