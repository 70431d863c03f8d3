// Package config loads objsql settings from an optional YAML file.
//
//	dialect: postgres
//	format: json
//	verbose: false
//	inline_constants: false
//	ddl:
//	  if_not_exists: true
//	  on_delete: cascade
//	  on_update: no_action
//	database: ./objsql.db
//
// Command-line flags override file values; see cli.RootOptions.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/objsql/internal/dialect"
	"github.com/roach88/objsql/internal/expr"
	"github.com/roach88/objsql/internal/schema"
	"github.com/roach88/objsql/internal/sqlfmt"
)

// Config holds settings shared by every command.
type Config struct {
	Dialect         string `yaml:"dialect"`
	Format          string `yaml:"format"`
	Verbose         bool   `yaml:"verbose"`
	InlineConstants bool   `yaml:"inline_constants"`
	DDL             DDL    `yaml:"ddl"`
	Database        string `yaml:"database"`
}

// DDL configures schema.BuildDDL.
type DDL struct {
	IfNotExists bool   `yaml:"if_not_exists"`
	OnDelete    string `yaml:"on_delete"`
	OnUpdate    string `yaml:"on_update"`
}

// Formats lists the accepted output formats.
var Formats = []string{"text", "json"}

var referenceActions = map[string]expr.ReferenceAction{
	"":            expr.ActionNone,
	"no_action":   expr.ActionNoAction,
	"restrict":    expr.ActionRestrict,
	"cascade":     expr.ActionCascade,
	"set_null":    expr.ActionSetNull,
	"set_default": expr.ActionSetDefault,
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Dialect: "sqlite",
		Format:  "text",
	}
}

// Load reads path over Default. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML over Default and validates the result. Empty input
// yields the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// Validate checks enumerated fields.
func (c *Config) Validate() error {
	if _, err := dialect.Lookup(c.Dialect); err != nil {
		return err
	}
	if !slices.Contains(Formats, c.Format) {
		return fmt.Errorf("invalid format %q: must be one of %v", c.Format, Formats)
	}
	if _, ok := referenceActions[c.DDL.OnDelete]; !ok {
		return fmt.Errorf("ddl.on_delete: unknown action %q", c.DDL.OnDelete)
	}
	if _, ok := referenceActions[c.DDL.OnUpdate]; !ok {
		return fmt.Errorf("ddl.on_update: unknown action %q", c.DDL.OnUpdate)
	}
	return nil
}

// TargetDialect resolves Dialect.
func (c *Config) TargetDialect() (sqlfmt.Dialect, error) {
	return dialect.Lookup(c.Dialect)
}

// FormatOptions returns the formatter options.
func (c *Config) FormatOptions() sqlfmt.Options {
	return sqlfmt.Options{InlineConstants: c.InlineConstants}
}

// DDLOptions returns the BuildDDL options. Validate must have passed.
func (c *Config) DDLOptions() []schema.DDLOption {
	var opts []schema.DDLOption
	if c.DDL.IfNotExists {
		opts = append(opts, schema.WithIfNotExists())
	}
	onDelete, onUpdate := referenceActions[c.DDL.OnDelete], referenceActions[c.DDL.OnUpdate]
	if onDelete != expr.ActionNone || onUpdate != expr.ActionNone {
		opts = append(opts, schema.WithReferenceActions(onDelete, onUpdate))
	}
	return opts
}
