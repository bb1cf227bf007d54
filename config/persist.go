package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/c360/confsync/errors"
	"github.com/c360/confsync/schema"
)

// Store reads and writes config files under a root directory. File placement
// is root/Folder/Subfolder/Path.toml.
type Store struct {
	root   string
	logger *slog.Logger
}

// NewStore creates a store rooted at dir
func NewStore(dir string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{root: dir, logger: logger.With("component", "ConfigStore")}
}

// Path returns the file path for cfg
func (s *Store) Path(cfg Config) string {
	return filepath.Join(s.dir(cfg), cfg.ID().Path+".toml")
}

func (s *Store) dir(cfg Config) string {
	return filepath.Join(s.root, cfg.Folder(), cfg.Subfolder())
}

// ReadOrCreate loads cfg's file, creating it from defaults when absent. Every
// failure mode leaves cfg usable: a missing directory or unreadable file logs
// and keeps in-memory defaults; a partially invalid file applies what it can
// with per-field corrections. Files written at an older version run the
// config's Update migration, and any corrected or migrated content is written
// back.
func (s *Store) ReadOrCreate(cfg Config) error {
	if err := os.MkdirAll(s.dir(cfg), 0o755); err != nil {
		s.logger.Error("failed creating config directory, using defaults",
			"config", cfg.ID().String(), "dir", s.dir(cfg), "error", err)
		return errors.WrapTransient(err, "ConfigStore", "ReadOrCreate", "directory create")
	}

	path := s.Path(cfg)
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Error("failed reading config file, using defaults",
				"config", cfg.ID().String(), "file", path, "error", err)
			return errors.WrapTransient(err, "ConfigStore", "ReadOrCreate", "file read")
		}
		s.logger.Info("config file not found, creating from defaults",
			"config", cfg.ID().String(), "file", path)
		return s.Save(cfg)
	}

	var errs []string
	result, fileVersion := Deserialize(cfg, string(data), &errs, schema.IgnoreNonSync)
	for _, msg := range errs {
		s.logger.Warn("config load issue", "config", cfg.ID().String(), "issue", msg)
	}

	migrated := false
	if fileVersion < cfg.Version() {
		s.logger.Info("migrating config file",
			"config", cfg.ID().String(), "from", fileVersion, "to", cfg.Version())
		cfg.Update(fileVersion)
		migrated = true
	}
	if result.IsError() || migrated {
		// write back the corrected or migrated content
		if err := s.Save(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Save writes cfg to its file synchronously, including NonSync fields
func (s *Store) Save(cfg Config) error {
	var errs []string
	text, err := Serialize(cfg, &errs, schema.IgnoreNonSync)
	for _, msg := range errs {
		s.logger.Warn("config save issue", "config", cfg.ID().String(), "issue", msg)
	}
	if err != nil {
		s.logger.Error("failed serializing config", "config", cfg.ID().String(), "error", err)
		return errors.Wrap(err, "ConfigStore", "Save", "serialize")
	}
	path := s.Path(cfg)
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		s.logger.Error("failed writing config file", "config", cfg.ID().String(), "file", path, "error", err)
		return errors.WrapTransient(
			fmt.Errorf("%w: %s", errors.ErrConfigIO, err.Error()),
			"ConfigStore", "Save", "file write")
	}
	return nil
}
