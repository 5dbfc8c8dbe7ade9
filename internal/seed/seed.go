// Package seed loads a yaml fixture describing a full portal hierarchy and
// writes it through the core services. Meant for development and demo
// environments, not production provisioning.
package seed

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"github.com/platebridge/portal/internal/core"
	"github.com/platebridge/portal/internal/model"
	"github.com/platebridge/portal/internal/platform"
)

type Config struct {
	Companies []CompanyDef `yaml:"companies"`
	Users     []UserDef    `yaml:"users"`
}

type CompanyDef struct {
	Name         string         `yaml:"name"`
	ContactEmail string         `yaml:"contact_email"`
	Communities  []CommunityDef `yaml:"communities"`
}

type CommunityDef struct {
	Name     string     `yaml:"name"`
	Address  string     `yaml:"address"`
	Timezone string     `yaml:"timezone"`
	Sites    []SiteDef  `yaml:"sites"`
	Entries  []EntryDef `yaml:"access_entries"`
	Settings *struct {
		AutoGrantEnabled  *bool `yaml:"auto_grant_enabled"`
		LockdownMode      bool  `yaml:"lockdown_mode"`
		RequireConfidence *int  `yaml:"require_confidence"`
	} `yaml:"access_settings"`
	PodKeys []PodKeyDef `yaml:"pod_api_keys"`
}

type SiteDef struct {
	Name      string   `yaml:"name"`
	GateLabel string   `yaml:"gate_label"`
	Pods      []PodDef `yaml:"pods"`
}

type PodDef struct {
	Name    string      `yaml:"name"`
	Status  string      `yaml:"status"`
	Cameras []CameraDef `yaml:"cameras"`
}

type CameraDef struct {
	Name      string `yaml:"name"`
	Direction string `yaml:"direction"`
}

type EntryDef struct {
	Plate         string  `yaml:"plate"`
	Type          string  `yaml:"type"`
	VendorName    string  `yaml:"vendor_name"`
	ScheduleStart *string `yaml:"schedule_start"`
	ScheduleEnd   *string `yaml:"schedule_end"`
	DaysActive    *int    `yaml:"days_active"`
	Notes         string  `yaml:"notes"`
}

type PodKeyDef struct {
	Name string `yaml:"name"`
	// RawKey pins the key to a known value so local pods can be configured
	// ahead of seeding. Random when empty.
	RawKey string `yaml:"raw_key"`
	Site   string `yaml:"site"`
	Pod    string `yaml:"pod"`
}

type UserDef struct {
	Email       string `yaml:"email"`
	Password    string `yaml:"password"`
	DisplayName string `yaml:"display_name"`
	Role        string `yaml:"role"`
	Company     string `yaml:"company"`
}

// Run seeds the database from the yaml fixture at configPath. Existing rows
// are not checked; run against a fresh database.
func Run(ctx context.Context, pool *pgxpool.Pool, configPath string, logger zerolog.Logger) error {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}

	companies := core.NewCompanyService(pool)
	communities := core.NewCommunityService(pool)
	sites := core.NewSiteService(pool)
	pods := core.NewPodService(pool)
	cameras := core.NewCameraService(pool)
	entries := core.NewAccessEntryService(pool)
	settings := core.NewAccessSettingsService(pool)
	podKeys := core.NewPodAPIKeyService(pool)
	users := core.NewUserService(pool)

	companyIDs := map[string]string{}
	now := time.Now().UTC()

	for _, c := range cfg.Companies {
		company := &model.Company{
			ID:           platform.NewName("co_"),
			Name:         c.Name,
			ContactEmail: c.ContactEmail,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := companies.Create(ctx, company); err != nil {
			return fmt.Errorf("create company %q: %w", c.Name, err)
		}
		companyIDs[c.Name] = company.ID
		logger.Info().Str("id", company.ID).Str("name", c.Name).Msg("company created")

		for _, cm := range c.Communities {
			if err := seedCommunity(ctx, company.ID, cm, communities, sites, pods, cameras, entries, settings, podKeys, logger); err != nil {
				return err
			}
		}
	}

	for _, u := range cfg.Users {
		hash, err := core.HashArgon2(u.Password)
		if err != nil {
			return fmt.Errorf("hash password for %q: %w", u.Email, err)
		}
		user := &model.User{
			ID:           platform.NewID(),
			Email:        u.Email,
			PasswordHash: hash,
			DisplayName:  u.DisplayName,
			Role:         u.Role,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if u.Company != "" {
			id, ok := companyIDs[u.Company]
			if !ok {
				return fmt.Errorf("user %q: company %q not found in fixture", u.Email, u.Company)
			}
			user.CompanyID = &id
		}
		if err := users.Create(ctx, user); err != nil {
			return fmt.Errorf("create user %q: %w", u.Email, err)
		}
		logger.Info().Str("email", u.Email).Str("role", u.Role).Msg("user created")
	}

	return nil
}

func seedCommunity(
	ctx context.Context,
	companyID string,
	def CommunityDef,
	communities *core.CommunityService,
	sites *core.SiteService,
	pods *core.PodService,
	cameras *core.CameraService,
	entries *core.AccessEntryService,
	settings *core.AccessSettingsService,
	podKeys *core.PodAPIKeyService,
	logger zerolog.Logger,
) error {
	now := time.Now().UTC()

	tz := def.Timezone
	if tz == "" {
		tz = "UTC"
	}
	community := &model.Community{
		ID:        platform.NewName("comm_"),
		CompanyID: companyID,
		Name:      def.Name,
		Address:   def.Address,
		Timezone:  tz,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := communities.Create(ctx, community); err != nil {
		return fmt.Errorf("create community %q: %w", def.Name, err)
	}
	logger.Info().Str("id", community.ID).Str("name", def.Name).Msg("community created")

	siteIDs := map[string]string{}
	podIDs := map[string]string{}

	for _, s := range def.Sites {
		site := &model.Site{
			ID:          platform.NewName("site_"),
			CommunityID: community.ID,
			Name:        s.Name,
			GateLabel:   s.GateLabel,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := sites.Create(ctx, site); err != nil {
			return fmt.Errorf("create site %q: %w", s.Name, err)
		}
		siteIDs[s.Name] = site.ID

		for _, p := range s.Pods {
			status := p.Status
			if status == "" {
				status = model.PodStatusActive
			}
			pod := &model.Pod{
				ID:        platform.NewName("pod_"),
				SiteID:    site.ID,
				Name:      p.Name,
				Status:    status,
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := pods.Create(ctx, pod); err != nil {
				return fmt.Errorf("create pod %q: %w", p.Name, err)
			}
			podIDs[p.Name] = pod.ID

			for _, cam := range p.Cameras {
				direction := cam.Direction
				if direction == "" {
					direction = "entry"
				}
				camera := &model.Camera{
					ID:        platform.NewName("cam_"),
					PodID:     pod.ID,
					Name:      cam.Name,
					Direction: direction,
					CreatedAt: now,
					UpdatedAt: now,
				}
				if err := cameras.Create(ctx, camera); err != nil {
					return fmt.Errorf("create camera %q: %w", cam.Name, err)
				}
			}
		}
	}

	for _, e := range def.Entries {
		daysActive := model.AllDays
		if e.DaysActive != nil {
			daysActive = *e.DaysActive
		}
		entry := &model.AccessEntry{
			ID:            platform.NewName("ae_"),
			CommunityID:   community.ID,
			Plate:         core.NormalizePlate(e.Plate),
			Type:          e.Type,
			ScheduleStart: e.ScheduleStart,
			ScheduleEnd:   e.ScheduleEnd,
			DaysActive:    daysActive,
			IsActive:      true,
			Notes:         e.Notes,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if e.VendorName != "" {
			entry.VendorName = &e.VendorName
		}
		if err := entries.Create(ctx, entry); err != nil {
			return fmt.Errorf("create access entry %q: %w", e.Plate, err)
		}
	}

	if def.Settings != nil {
		s := model.DefaultAccessSettings(community.ID)
		if def.Settings.AutoGrantEnabled != nil {
			s.AutoGrantEnabled = *def.Settings.AutoGrantEnabled
		}
		s.LockdownMode = def.Settings.LockdownMode
		if def.Settings.RequireConfidence != nil {
			s.RequireConfidence = *def.Settings.RequireConfidence
		}
		if err := settings.Upsert(ctx, s); err != nil {
			return fmt.Errorf("configure access settings for %q: %w", def.Name, err)
		}
	}

	for _, k := range def.PodKeys {
		var siteID, podID *string
		if k.Site != "" {
			id, ok := siteIDs[k.Site]
			if !ok {
				return fmt.Errorf("pod key %q: site %q not found in fixture", k.Name, k.Site)
			}
			siteID = &id
		}
		if k.Pod != "" {
			id, ok := podIDs[k.Pod]
			if !ok {
				return fmt.Errorf("pod key %q: pod %q not found in fixture", k.Name, k.Pod)
			}
			podID = &id
		}

		if k.RawKey != "" {
			if _, err := podKeys.CreateWithRawKey(ctx, k.Name, k.RawKey, community.ID, siteID, podID); err != nil {
				return fmt.Errorf("create pod key %q: %w", k.Name, err)
			}
			logger.Info().Str("name", k.Name).Msg("pod key created (pinned)")
		} else {
			_, rawKey, err := podKeys.Create(ctx, k.Name, community.ID, siteID, podID)
			if err != nil {
				return fmt.Errorf("create pod key %q: %w", k.Name, err)
			}
			logger.Info().Str("name", k.Name).Str("raw_key", rawKey).Msg("pod key created")
		}
	}

	return nil
}
