package models

// ModerationConfig represents the moderation_config.json configuration structure.
// 所有策略常量都可以通过配置文件覆盖，缺省值见 DefaultModerationConfig()。
type ModerationConfig struct {
	AdminChannelID string           `json:"admin_channel_id" mapstructure:"admin_channel_id"`
	Reputation     ReputationPolicy `json:"reputation" mapstructure:"reputation"`
	Flood          FloodPolicy      `json:"flood" mapstructure:"flood"`
	Escalation     EscalationPolicy `json:"escalation" mapstructure:"escalation"`
	Classifier     ClassifierPolicy `json:"classifier" mapstructure:"classifier"`
}

// ReputationPolicy holds the reputation bounds and the per-event deltas.
type ReputationPolicy struct {
	Default      float64 `json:"default" mapstructure:"default"`
	Min          float64 `json:"min" mapstructure:"min"`
	Max          float64 `json:"max" mapstructure:"max"`
	Clamp        bool    `json:"clamp" mapstructure:"clamp"`
	CleanReward  float64 `json:"clean_reward" mapstructure:"clean_reward"`
	ToxicPenalty float64 `json:"toxic_penalty" mapstructure:"toxic_penalty"`
	FloodPenalty float64 `json:"flood_penalty" mapstructure:"flood_penalty"`
	WarnPenalty  float64 `json:"warn_penalty" mapstructure:"warn_penalty"`
	BanPenalty   float64 `json:"ban_penalty" mapstructure:"ban_penalty"`
	// DecayStep is how far an inactive member's reputation drifts back
	// toward Default on each weekly sweep.
	DecayStep float64 `json:"decay_step" mapstructure:"decay_step"`
}

// FloodPolicy configures the reputation-scaled rate limiter.
type FloodPolicy struct {
	BaseIntervalMs int `json:"base_interval_ms" mapstructure:"base_interval_ms"`
	SpreadMs       int `json:"spread_ms" mapstructure:"spread_ms"`
	Threshold      int `json:"threshold" mapstructure:"threshold"`
	MuteMinutes    int `json:"mute_minutes" mapstructure:"mute_minutes"`
}

// EscalationPolicy configures the warn-count tiers.
type EscalationPolicy struct {
	MuteThreshold       int     `json:"mute_threshold" mapstructure:"mute_threshold"`
	BanThreshold        int     `json:"ban_threshold" mapstructure:"ban_threshold"`
	TierMuteHours       int     `json:"tier_mute_hours" mapstructure:"tier_mute_hours"`
	LowTrustThreshold   float64 `json:"low_trust_threshold" mapstructure:"low_trust_threshold"`
	LowTrustMuteMinutes int     `json:"low_trust_mute_minutes" mapstructure:"low_trust_mute_minutes"`
}

// ClassifierPolicy configures the built-in keyword classifier and the
// timeout applied to any classifier implementation.
type ClassifierPolicy struct {
	ToxicWords   []string `json:"toxic_words" mapstructure:"toxic_words"`
	FlaggedMedia []string `json:"flagged_media" mapstructure:"flagged_media"`
	TimeoutMs    int      `json:"timeout_ms" mapstructure:"timeout_ms"`
}

// DefaultModerationConfig returns the documented policy defaults.
// 配置文件中的同名字段会覆盖这里的值。
func DefaultModerationConfig() ModerationConfig {
	return ModerationConfig{
		Reputation: ReputationPolicy{
			Default:      50.0,
			Min:          0,
			Max:          100,
			Clamp:        true,
			CleanReward:  0.1,
			ToxicPenalty: 15,
			FloodPenalty: 10,
			WarnPenalty:  5,
			BanPenalty:   25,
			DecayStep:    1,
		},
		Flood: FloodPolicy{
			BaseIntervalMs: 500,
			SpreadMs:       1500,
			Threshold:      5,
			MuteMinutes:    15,
		},
		Escalation: EscalationPolicy{
			MuteThreshold:       3,
			BanThreshold:        5,
			TierMuteHours:       24,
			LowTrustThreshold:   20,
			LowTrustMuteMinutes: 10,
		},
		Classifier: ClassifierPolicy{
			TimeoutMs: 2000,
		},
	}
}

// CommandsConfig represents the commands section of the configuration.
type CommandsConfig struct {
	Auth AuthConfig `json:"auth" mapstructure:"auth"`
}

// AuthConfig holds the role and user IDs for each permission level.
type AuthConfig struct {
	Developers  []string `json:"developers" mapstructure:"developers"`
	AdminsRoles []string `json:"admins_roles" mapstructure:"admins_roles"`
	AdminUsers  []string `json:"admin_users" mapstructure:"admin_users"`
	Guest       []string `json:"guest" mapstructure:"guest"`
}
