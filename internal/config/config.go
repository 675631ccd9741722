// Package config loads the simulator configuration: the workspace catalog
// (channels, users), traffic pacing, and the optional gateway and Redis
// mirror settings.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Workspace WorkspaceConfig `mapstructure:"workspace"`
	Traffic   TrafficConfig   `mapstructure:"traffic"`
	Bots      BotsConfig      `mapstructure:"bots"`
	Gateway   GatewayConfig   `mapstructure:"gateway"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Quotes    QuotesConfig    `mapstructure:"quotes"`
}

type WorkspaceConfig struct {
	Title         string          `mapstructure:"title"`
	DefaultTarget string          `mapstructure:"default_target"`
	Channels      []ChannelConfig `mapstructure:"channels"`
	Users         []UserConfig    `mapstructure:"users"`
}

type ChannelConfig struct {
	Slug  string `mapstructure:"slug"`
	Title string `mapstructure:"title"`
}

type UserConfig struct {
	Slug string `mapstructure:"slug"`
	Name string `mapstructure:"name"`
	Bot  bool   `mapstructure:"bot"`
}

type TrafficConfig struct {
	SeedMin  int           `mapstructure:"seed_min"`
	SeedMax  int           `mapstructure:"seed_max"`
	DelayMin time.Duration `mapstructure:"delay_min"`
	DelayMax time.Duration `mapstructure:"delay_max"`
}

type BotsConfig struct {
	ReplyDelayMin time.Duration `mapstructure:"reply_delay_min"`
	ReplyDelayMax time.Duration `mapstructure:"reply_delay_max"`
}

type GatewayConfig struct {
	Addr string `mapstructure:"addr"`
}

type RedisConfig struct {
	URL      string `mapstructure:"url"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Channel  string `mapstructure:"channel"`
}

type QuotesConfig struct {
	File string `mapstructure:"file"` // empty means the embedded corpus
}

// Default returns the built-in workspace: six channels, six users, the
// pacing of the original simulation.
func Default() Config {
	return Config{
		Workspace: WorkspaceConfig{
			Title:         "Hubbub",
			DefaultTarget: "#general",
			Channels: []ChannelConfig{
				{Slug: "general", Title: "General Discussion"},
				{Slug: "help", Title: "Help Topics"},
				{Slug: "technology", Title: "Technology & Gadgets"},
				{Slug: "life", Title: "Life"},
				{Slug: "philosophy", Title: "Philosophy"},
				{Slug: "computing", Title: "Computer Science"},
			},
			Users: []UserConfig{
				{Slug: "dgale005", Name: "Dave Gale"},
				{Slug: "ssamuels", Name: "Sarah Samuels"},
				{Slug: "zpitts_42", Name: "Zack Pitts"},
				{Slug: "pamgarz", Name: "Pam García"},
				{Slug: "erinho", Name: "Erin Ho"},
				{Slug: "joecampbell02", Name: "Joe Campbell"},
			},
		},
		Traffic: TrafficConfig{
			SeedMin:  2,
			SeedMax:  7,
			DelayMin: time.Second,
			DelayMax: 6 * time.Second,
		},
		Bots: BotsConfig{
			ReplyDelayMin: time.Second,
			ReplyDelayMax: 1500 * time.Millisecond,
		},
		Gateway: GatewayConfig{
			Addr: ":8377",
		},
		Redis: RedisConfig{
			Channel: "hubbub:deliveries",
		},
	}
}

// Load reads a yaml config file into the defaults. An empty path or a
// missing file yields the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks catalog sanity (non-empty catalogs, unique slugs, a
// default target that exists) and that every min/max range is ordered.
func (c Config) Validate() error {
	if len(c.Workspace.Channels) == 0 {
		return fmt.Errorf("workspace has no channels")
	}
	if len(c.Workspace.Users) == 0 {
		return fmt.Errorf("workspace has no users")
	}
	seen := make(map[string]bool)
	for _, ch := range c.Workspace.Channels {
		if ch.Slug == "" {
			return fmt.Errorf("channel with empty slug")
		}
		if seen["#"+ch.Slug] {
			return fmt.Errorf("duplicate channel slug %q", ch.Slug)
		}
		seen["#"+ch.Slug] = true
	}
	for _, u := range c.Workspace.Users {
		if u.Slug == "" {
			return fmt.Errorf("user with empty slug")
		}
		if seen["@"+u.Slug] {
			return fmt.Errorf("duplicate user slug %q", u.Slug)
		}
		seen["@"+u.Slug] = true
	}
	if !seen[c.Workspace.DefaultTarget] {
		return fmt.Errorf("default target %q not in catalog", c.Workspace.DefaultTarget)
	}
	if c.Traffic.SeedMin > c.Traffic.SeedMax {
		return fmt.Errorf("traffic: seed_min %d exceeds seed_max %d", c.Traffic.SeedMin, c.Traffic.SeedMax)
	}
	if c.Traffic.DelayMin > c.Traffic.DelayMax {
		return fmt.Errorf("traffic: delay_min %s exceeds delay_max %s", c.Traffic.DelayMin, c.Traffic.DelayMax)
	}
	if c.Bots.ReplyDelayMin > c.Bots.ReplyDelayMax {
		return fmt.Errorf("bots: reply_delay_min %s exceeds reply_delay_max %s", c.Bots.ReplyDelayMin, c.Bots.ReplyDelayMax)
	}
	return nil
}
