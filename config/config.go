// Package config loads ward's configuration surface from TOML, the way
// cmd/geth's gethConfig loads node configuration: a struct pre-populated
// with Default() is decoded over, so any section or field absent from the
// file simply keeps its default.
package config

import (
	"fmt"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the full configuration surface, one nested struct per
// subsystem.
type Config struct {
	Ban   Ban   `toml:"ban"`
	Aging Aging `toml:"aging"`
	Token Token `toml:"token"`
	DHT   DHT   `toml:"dht"`
}

// Ban configures ban.Engine's leaky-bucket accounting and quarantine sizing.
type Ban struct {
	InitialDelaySecs int `toml:"initial_delay"`
	MaxDelaySecs     int `toml:"max_delay"`
	MaxRequests      int `toml:"max_requests"`
	PeriodSecs       int `toml:"period"`
	RemindEvery      int `toml:"remind_every"`
	MaxFdsAbs        int `toml:"max_fds_abs"`
	MaxFdsRatioPct   int `toml:"max_fds_ratio_pct"`
	GCTickMillis     int `toml:"gc_tick"`
}

func (b Ban) InitialDelay() time.Duration { return time.Duration(b.InitialDelaySecs) * time.Second }
func (b Ban) MaxDelay() time.Duration     { return time.Duration(b.MaxDelaySecs) * time.Second }
func (b Ban) Period() time.Duration       { return time.Duration(b.PeriodSecs) * time.Second }
func (b Ban) GCTick() time.Duration       { return time.Duration(b.GCTickMillis) * time.Millisecond }

// Aging configures the periodic collector shared by every aging.Table.
type Aging struct {
	GCTickMillis int `toml:"gc_tick"`
}

func (a Aging) GCTick() time.Duration { return time.Duration(a.GCTickMillis) * time.Millisecond }

// Token configures TokenMint/TokenVerify. SvnEpochUnix/GitEpochUnix
// parameterize the build-check gate spec §9 flags as deployment-chosen
// rather than a hard-coded GIT_SWITCH constant; a zero value on either
// disables the build-number check entirely (no window to be inside of).
type Token struct {
	LifeSecs       int   `toml:"life"`
	ClockSkewSecs  int   `toml:"clock_skew"`
	AncientBanSecs int   `toml:"ancient_ban"`
	SvnEpochUnix   int64 `toml:"svn_epoch"`
	GitEpochUnix   int64 `toml:"git_epoch"`
}

func (t Token) Life() time.Duration       { return time.Duration(t.LifeSecs) * time.Second }
func (t Token) ClockSkew() time.Duration  { return time.Duration(t.ClockSkewSecs) * time.Second }
func (t Token) AncientBan() time.Duration { return time.Duration(t.AncientBanSecs) * time.Second }

// BuildCheckWindow reports whether stamp falls within the [SvnEpoch,
// GitEpoch) window during which a sender is required to present a
// non-zero build number. Either bound being zero disables the check.
func (t Token) BuildCheckWindow(stamp time.Time) bool {
	if t.SvnEpochUnix == 0 || t.GitEpochUnix == 0 {
		return false
	}
	u := stamp.Unix()
	return u >= t.SvnEpochUnix && u < t.GitEpochUnix
}

// DHT configures DhtToken's rotating secret and token length.
type DHT struct {
	TokenRotationSecs int `toml:"token_rotation"`
	TokenBytes        int `toml:"token_bytes"`
}

func (d DHT) TokenRotation() time.Duration { return time.Duration(d.TokenRotationSecs) * time.Second }

// Default returns the literal defaults spec's configuration surface
// enumerates.
func Default() *Config {
	return &Config{
		Ban: Ban{
			InitialDelaySecs: 300,
			MaxDelaySecs:     10800,
			MaxRequests:      5,
			PeriodSecs:       60,
			RemindEvery:      5,
			MaxFdsAbs:        512,
			MaxFdsRatioPct:   10,
			GCTickMillis:     1000,
		},
		Aging: Aging{
			GCTickMillis: 1500,
		},
		Token: Token{
			LifeSecs:       60,
			ClockSkewSecs:  3600,
			AncientBanSecs: 86400,
		},
		DHT: DHT{
			TokenRotationSecs: 300,
			TokenBytes:        4,
		},
	}
}

// Load decodes path over a Default() config, so any field or section the
// file omits keeps its default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
