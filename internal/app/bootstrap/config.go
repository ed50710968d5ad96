package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	ServiceID string

	HTTPPort int
	GRPCPort int

	DatabaseURL      string
	DatabaseMaxConns int32
	RedisURL         string

	MemberGRPCURL       string
	TeamGRPCURL         string
	ContributionGRPCURL string

	VotingPeriod        time.Duration
	ExtensionPeriod     time.Duration
	QuorumFraction      float64
	ApprovalThreshold   float64
	HybridWeightedShare float64

	IdempotencyTTL       time.Duration
	EventDedupTTL        time.Duration
	ConsumerPollInterval time.Duration
	ReportCacheTTL       time.Duration

	EnableDomainEventConsumption bool
	EnableSampleData             bool
}

type configFile struct {
	Service struct {
		ID       string `yaml:"id"`
		HTTPPort int    `yaml:"http_port"`
		GRPCPort int    `yaml:"grpc_port"`
	} `yaml:"service"`
	Dependencies struct {
		DatabaseURL         string `yaml:"database_url"`
		DatabaseMaxConns    int32  `yaml:"database_max_conns"`
		RedisURL            string `yaml:"redis_url"`
		MemberGRPCURL       string `yaml:"member_grpc_url"`
		TeamGRPCURL         string `yaml:"team_grpc_url"`
		ContributionGRPCURL string `yaml:"contribution_grpc_url"`
	} `yaml:"dependencies"`
	Governance struct {
		VotingPeriodDays    int     `yaml:"voting_period_days"`
		ExtensionPeriodDays int     `yaml:"extension_period_days"`
		QuorumFraction      float64 `yaml:"quorum_fraction"`
		ApprovalThreshold   float64 `yaml:"approval_threshold"`
		HybridWeightedShare float64 `yaml:"hybrid_weighted_share"`
	} `yaml:"governance"`
	FeatureFlags struct {
		EnableDomainEventConsumption *bool `yaml:"enable_domain_event_consumption"`
		EnableSampleData             *bool `yaml:"enable_sample_data"`
	} `yaml:"feature_flags"`
}

func LoadConfig(path string) (Config, error) {
	cfg := Config{
		ServiceID:                    "governance-service",
		HTTPPort:                     8080,
		GRPCPort:                     9090,
		DatabaseMaxConns:             10,
		VotingPeriod:                 7 * 24 * time.Hour,
		ExtensionPeriod:              3 * 24 * time.Hour,
		QuorumFraction:               0.5,
		ApprovalThreshold:            0.66,
		HybridWeightedShare:          0.7,
		IdempotencyTTL:               7 * 24 * time.Hour,
		EventDedupTTL:                7 * 24 * time.Hour,
		ConsumerPollInterval:         2 * time.Second,
		ReportCacheTTL:               10 * time.Minute,
		EnableDomainEventConsumption: true,
	}

	raw, err := os.ReadFile(path)
	if err == nil {
		var f configFile
		if unmarshalErr := yaml.Unmarshal(raw, &f); unmarshalErr != nil {
			return Config{}, fmt.Errorf("parse config file: %w", unmarshalErr)
		}
		if f.Service.ID != "" {
			cfg.ServiceID = f.Service.ID
		}
		if f.Service.HTTPPort > 0 {
			cfg.HTTPPort = f.Service.HTTPPort
		}
		if f.Service.GRPCPort > 0 {
			cfg.GRPCPort = f.Service.GRPCPort
		}
		cfg.DatabaseURL = f.Dependencies.DatabaseURL
		if f.Dependencies.DatabaseMaxConns > 0 {
			cfg.DatabaseMaxConns = f.Dependencies.DatabaseMaxConns
		}
		cfg.RedisURL = f.Dependencies.RedisURL
		cfg.MemberGRPCURL = f.Dependencies.MemberGRPCURL
		cfg.TeamGRPCURL = f.Dependencies.TeamGRPCURL
		cfg.ContributionGRPCURL = f.Dependencies.ContributionGRPCURL
		if f.Governance.VotingPeriodDays > 0 {
			cfg.VotingPeriod = time.Duration(f.Governance.VotingPeriodDays) * 24 * time.Hour
		}
		if f.Governance.ExtensionPeriodDays > 0 {
			cfg.ExtensionPeriod = time.Duration(f.Governance.ExtensionPeriodDays) * 24 * time.Hour
		}
		if f.Governance.QuorumFraction > 0 && f.Governance.QuorumFraction <= 1 {
			cfg.QuorumFraction = f.Governance.QuorumFraction
		}
		if f.Governance.ApprovalThreshold > 0 && f.Governance.ApprovalThreshold <= 1 {
			cfg.ApprovalThreshold = f.Governance.ApprovalThreshold
		}
		if f.Governance.HybridWeightedShare > 0 && f.Governance.HybridWeightedShare <= 1 {
			cfg.HybridWeightedShare = f.Governance.HybridWeightedShare
		}
		if f.FeatureFlags.EnableDomainEventConsumption != nil {
			cfg.EnableDomainEventConsumption = *f.FeatureFlags.EnableDomainEventConsumption
		}
		if f.FeatureFlags.EnableSampleData != nil {
			cfg.EnableSampleData = *f.FeatureFlags.EnableSampleData
		}
	}

	cfg.DatabaseURL = envOrDefault("DATABASE_URL", cfg.DatabaseURL)
	cfg.DatabaseMaxConns = int32(envInt("DATABASE_MAX_CONNS", int(cfg.DatabaseMaxConns)))
	cfg.RedisURL = envOrDefault("REDIS_URL", cfg.RedisURL)
	cfg.MemberGRPCURL = envOrDefault("MEMBER_GRPC_URL", cfg.MemberGRPCURL)
	cfg.TeamGRPCURL = envOrDefault("TEAM_GRPC_URL", cfg.TeamGRPCURL)
	cfg.ContributionGRPCURL = envOrDefault("CONTRIBUTION_GRPC_URL", cfg.ContributionGRPCURL)
	cfg.HTTPPort = envInt("HTTP_PORT", cfg.HTTPPort)
	cfg.GRPCPort = envInt("GRPC_PORT", cfg.GRPCPort)
	cfg.VotingPeriod = time.Duration(envInt("VOTING_PERIOD_DAYS", int(cfg.VotingPeriod/(24*time.Hour)))) * 24 * time.Hour
	cfg.ExtensionPeriod = time.Duration(envInt("EXTENSION_PERIOD_DAYS", int(cfg.ExtensionPeriod/(24*time.Hour)))) * 24 * time.Hour
	cfg.QuorumFraction = envFloat("QUORUM_FRACTION", cfg.QuorumFraction)
	cfg.ApprovalThreshold = envFloat("APPROVAL_THRESHOLD", cfg.ApprovalThreshold)
	cfg.HybridWeightedShare = envFloat("HYBRID_WEIGHTED_SHARE", cfg.HybridWeightedShare)
	cfg.IdempotencyTTL = time.Duration(envInt("IDEMPOTENCY_TTL_HOURS", int(cfg.IdempotencyTTL.Hours()))) * time.Hour
	cfg.EventDedupTTL = time.Duration(envInt("EVENT_DEDUP_TTL_HOURS", int(cfg.EventDedupTTL.Hours()))) * time.Hour
	cfg.ConsumerPollInterval = time.Duration(envInt("CONSUMER_POLL_SECONDS", int(cfg.ConsumerPollInterval.Seconds()))) * time.Second
	cfg.ReportCacheTTL = time.Duration(envInt("REPORT_CACHE_TTL_MINUTES", int(cfg.ReportCacheTTL.Minutes()))) * time.Minute
	cfg.EnableDomainEventConsumption = envBool("ENABLE_DOMAIN_EVENT_CONSUMPTION", cfg.EnableDomainEventConsumption)
	cfg.EnableSampleData = envBool("ENABLE_SAMPLE_DATA", cfg.EnableSampleData)

	return cfg, nil
}

func envOrDefault(name, fallback string) string {
	if value := os.Getenv(name); value != "" {
		return value
	}
	return fallback
}

func envInt(name string, fallback int) int {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}

func envFloat(name string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return v
}

func envBool(name string, fallback bool) bool {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return fallback
	}
	switch raw {
	case "1", "true", "t", "yes", "y", "on":
		return true
	case "0", "false", "f", "no", "n", "off":
		return false
	default:
		return fallback
	}
}
