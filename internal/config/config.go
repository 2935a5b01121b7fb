// Package config resolves nuoactl's settings: the JSONC config file under
// $NUOA_PATH, environment templating, .env layering and defaults.
package config

// Config is the root configuration for nuoactl.
type Config struct {
	AWS       AWSConfig    `json:"aws"`
	Deploy    DeployConfig `json:"deploy"`
	Tenant    TenantConfig `json:"tenant"`
	Skills    SkillsConfig `json:"skills"`
	Workspace string       `json:"workspace"` // path to nuoa.yaml (default: ./nuoa.yaml)
}

// AWSConfig holds profile and region resolution settings.
type AWSConfig struct {
	Profile  string            `json:"profile"`            // default shared-config profile
	Region   string            `json:"region,omitempty"`   // empty = profile's default region
	Stage    string            `json:"stage"`              // default stage (beta, gamma, prod)
	Profiles map[string]string `json:"profiles,omitempty"` // stage → profile overrides
}

// DeployConfig configures the Lambda update workflow.
type DeployConfig struct {
	BucketExport string   `json:"bucket_export"` // CloudFormation export name, {stage} substituted
	KeyPrefix    string   `json:"key_prefix"`    // S3 key prefix for uploaded bundles
	Artifacts    []string `json:"artifacts"`     // default artifact globs, checked in order
}

// TenantConfig configures the tenant API auth helper.
type TenantConfig struct {
	APIBase  string `json:"api_base"`
	ClientID string `json:"client_id,omitempty"`
}

// SkillsConfig configures the skill system.
type SkillsConfig struct {
	Dirs []string `json:"dirs"` // skill directories (default: [$NUOA_PATH/skills])
}

// ProfileFor returns the AWS profile to use for a stage, falling back to the
// default profile when no stage-specific override exists.
func (c *Config) ProfileFor(stage string) string {
	if p, ok := c.AWS.Profiles[stage]; ok && p != "" {
		return p
	}
	return c.AWS.Profile
}
