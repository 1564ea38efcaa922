package database

import (
	"context"
	_ "embed"
	"fmt"
	"os"

	"go-campaign-dispatcher/src/domain/ratelimit"
	domainTemplate "go-campaign-dispatcher/src/domain/template"
	"go-campaign-dispatcher/src/infrastructure/repository/database/countrylimit"
	"go-campaign-dispatcher/src/infrastructure/repository/database/template"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

//go:embed seed.yaml
var defaultSeed []byte

type SeedTemplate struct {
	Name        string `yaml:"name"`
	Language    string `yaml:"language"`
	Category    string `yaml:"category"`
	Parameters  int    `yaml:"parameters"`
	PreviewText string `yaml:"previewText"`
	Status      string `yaml:"status"`
}

type SeedCountryLimit struct {
	CountryCode    string `yaml:"countryCode"`
	CountryName    string `yaml:"countryName"`
	MaxPerSecond   int    `yaml:"maxPerSecond"`
	MaxConcurrency int    `yaml:"maxConcurrency"`
	Enabled        *bool  `yaml:"enabled"`
}

type SeedData struct {
	Templates     []SeedTemplate     `yaml:"templates"`
	CountryLimits []SeedCountryLimit `yaml:"countryLimits"`
}

// LoadSeed parses the seed file at path, or the embedded defaults when path is empty.
func LoadSeed(path string) (*SeedData, error) {
	raw := defaultSeed
	if path != "" {
		var err error
		raw, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading seed file: %w", err)
		}
	}
	var data SeedData
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parsing seed file: %w", err)
	}
	for i, l := range data.CountryLimits {
		if l.CountryCode == "" || l.MaxPerSecond <= 0 || l.MaxConcurrency <= 0 {
			return nil, fmt.Errorf("seed country limit %d is incomplete", i)
		}
	}
	for i, t := range data.Templates {
		if t.Name == "" || t.Language == "" {
			return nil, fmt.Errorf("seed template %d is incomplete", i)
		}
	}
	return &data, nil
}

func (s *SeedData) policies() []ratelimit.Policy {
	out := make([]ratelimit.Policy, len(s.CountryLimits))
	for i, l := range s.CountryLimits {
		enabled := true
		if l.Enabled != nil {
			enabled = *l.Enabled
		}
		out[i] = ratelimit.Policy{
			CountryCode:    l.CountryCode,
			CountryName:    l.CountryName,
			MaxPerSecond:   l.MaxPerSecond,
			MaxConcurrency: l.MaxConcurrency,
			Enabled:        enabled,
		}
	}
	return out
}

func (s *SeedData) templates() []domainTemplate.Template {
	out := make([]domainTemplate.Template, len(s.Templates))
	for i, t := range s.Templates {
		out[i] = domainTemplate.Template{
			Name:        t.Name,
			Language:    t.Language,
			Category:    t.Category,
			Parameters:  t.Parameters,
			PreviewText: t.PreviewText,
			Status:      t.Status,
		}
	}
	return out
}

// SeedDefaults inserts missing templates and country limits; existing rows are left alone.
func (r *DatabaseRepository) SeedDefaults(ctx context.Context, seedFile string) error {
	data, err := LoadSeed(seedFile)
	if err != nil {
		return err
	}

	templates, err := template.NewTemplateRepository(r.DB, r.Logger).CreateIfMissing(ctx, data.templates())
	if err != nil {
		return err
	}
	limits, err := countrylimit.NewCountryLimitRepository(r.DB, r.Logger).CreateIfMissing(ctx, data.policies())
	if err != nil {
		return err
	}

	r.Logger.Info("Seed data applied",
		zap.Int64("templatesInserted", templates),
		zap.Int64("countryLimitsInserted", limits))
	return nil
}
