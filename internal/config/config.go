package config

import (
	"os"
	"sort"
	"time"

	"assessment-engine/internal/assessment"
	"assessment-engine/internal/ratelimit"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL string `yaml:"ttl"`
	} `yaml:"quiz"`
	Assessment struct {
		ItemOverlap      float64 `yaml:"item_overlap"`
		KeywordOverlap   float64 `yaml:"keyword_overlap"`
		MinKeywordLength int     `yaml:"min_keyword_length"`
	} `yaml:"assessment"`
	RateLimit struct {
		// Backend is "memory" (default) or "redis".
		Backend  string                  `yaml:"backend"`
		Policies map[string]PolicyConfig `yaml:"policies"`
	} `yaml:"ratelimit"`
	CORS struct {
		Origins []string `yaml:"origins"`
	} `yaml:"cors"`
}

type PolicyConfig struct {
	Window      string `yaml:"window"`
	MaxRequests int    `yaml:"max_requests"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// Policies overlays configured policies on the defaults. Fields left unset
// keep the default value for that policy.
func (c Config) Policies() []ratelimit.Policy {
	byName := make(map[string]ratelimit.Policy)
	for _, p := range ratelimit.DefaultPolicies() {
		byName[p.Name] = p
	}
	for name, pc := range c.RateLimit.Policies {
		p := byName[name]
		p.Name = name
		p.Window = TTLDuration(pc.Window, p.Window)
		if pc.MaxRequests > 0 {
			p.MaxRequests = pc.MaxRequests
		}
		byName[name] = p
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	out := make([]ratelimit.Policy, 0, len(names))
	for _, name := range names {
		out = append(out, byName[name])
	}
	return out
}

// EvaluatorOptions converts the assessment section into evaluator options.
func (c Config) EvaluatorOptions() []assessment.Option {
	var opts []assessment.Option
	if c.Assessment.ItemOverlap > 0 {
		opts = append(opts, assessment.WithItemOverlap(c.Assessment.ItemOverlap))
	}
	if c.Assessment.KeywordOverlap > 0 {
		opts = append(opts, assessment.WithKeywordOverlap(c.Assessment.KeywordOverlap))
	}
	if c.Assessment.MinKeywordLength > 0 {
		opts = append(opts, assessment.WithMinKeywordLength(c.Assessment.MinKeywordLength))
	}
	return opts
}
