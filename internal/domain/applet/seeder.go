package applet

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pelletier/go-toml/v2"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/appletd/internal/kernel"
)

var ErrUnsupportedSeed = errors.New("applet: unsupported seed file")

// SeedFile is the on-disk list of applets to register at startup
type SeedFile struct {
	Applets []SeedEntry `toml:"applets" yaml:"applets"`
}

// SeedEntry is one applet in a seed file
type SeedEntry struct {
	ProcessID uint64 `toml:"process_id" yaml:"process_id"`
	ProgramID uint64 `toml:"program_id" yaml:"program_id"`
	Kind      string `toml:"kind" yaml:"kind"`
}

// Seeder loads applet records from a TOML or YAML file
type Seeder struct {
	registry *Registry
	path     string
	logger   *zap.Logger
}

// NewSeeder creates a seeder for the file at path
func NewSeeder(registry *Registry, path string, logger *zap.Logger) *Seeder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Seeder{
		registry: registry,
		path:     path,
		logger:   logger,
	}
}

// Seed registers every entry in the seed file. A missing file is skipped
// with a warning; a malformed file is an error. Entries that cannot be
// registered are logged and counted as failed.
func (s *Seeder) Seed() (loaded, failed int, err error) {
	if s.path == "" {
		return 0, 0, nil
	}

	s.logger.Info("Seeding applets", zap.String("path", s.path))

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		s.logger.Warn("Applet seed file not found", zap.String("path", s.path))
		return 0, 0, nil
	}
	if err != nil {
		return 0, 0, fmt.Errorf("read seed file: %w", err)
	}

	file, err := ParseSeed(filepath.Ext(s.path), data)
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", s.path, err)
	}

	for _, entry := range file.Applets {
		if err := s.load(entry); err != nil {
			s.logger.Warn("Failed to seed applet",
				zap.Uint64("process_id", entry.ProcessID),
				zap.Error(err))
			failed++
			continue
		}
		loaded++
	}

	s.logger.Info("Seeding complete", zap.Int("loaded", loaded), zap.Int("failed", failed))
	return loaded, failed, nil
}

func (s *Seeder) load(entry SeedEntry) error {
	kind, err := ParseKind(entry.Kind)
	if err != nil {
		return err
	}
	_, err = s.registry.Create(kernel.ProcessID(entry.ProcessID), Spec{
		ProgramID: entry.ProgramID,
		Kind:      kind,
	})
	return err
}

// ParseSeed decodes a seed file by extension. Unknown keys are rejected.
func ParseSeed(ext string, data []byte) (*SeedFile, error) {
	var file SeedFile

	switch strings.ToLower(ext) {
	case ".toml":
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&file); err != nil {
			return nil, fmt.Errorf("parse toml: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, &file, yaml.DisallowUnknownField()); err != nil {
			return nil, fmt.Errorf("parse yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedSeed, ext)
	}

	return &file, nil
}
