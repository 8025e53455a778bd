// config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/spf13/viper"
)

// AgeRange maps an inclusive span of age-in-days to a named bucket used
// by age-organized exports and the by_age alias tree.
type AgeRange struct {
	MinDay int    `mapstructure:"minday"`
	MaxDay int    `mapstructure:"maxday"`
	Name   string `mapstructure:"name"`
}

type Settings struct {
	Debug bool // true to enable debug output

	// Project is the ownership scope all operations act under. A series
	// may be owned by several projects; storage is shared between them.
	Project string

	Storage struct {
		Root         string // root directory of managed storage
		DatabasePath string // path to the sqlite catalogue database
	}

	Import struct {
		Patterns []string // file name suffixes treated as DICOM
	}

	// Institutions maps a canonical institution name to substrings that
	// identify it, so file trees consolidate under one directory even
	// when scanners report the name inconsistently.
	Institutions map[string][]string

	// AgeBreakdown is the ordered day-range to bucket-name table.
	AgeBreakdown []AgeRange

	Log struct {
		Enabled bool   // true to write a JSON catalogue log
		Path    string // path to log file
	}
}

// Load reads the configuration file and environment variables into a new Context.
func Load() (*Context, error) {
	var settings Settings

	if err := initViper(); err != nil {
		return nil, fmt.Errorf("error initializing viper: %w", err)
	}

	if err := viper.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("error unmarshaling config into struct: %w", err)
	}

	applyDefaults(&settings)

	if err := settings.Validate(); err != nil {
		return nil, err
	}

	return &Context{Settings: &settings}, nil
}

func initViper() error {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	configPaths, err := getDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}

	for _, path := range configPaths {
		viper.AddConfigPath(path)
	}

	err = viper.ReadInConfig()
	if err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// config file not found, create config with defaults
			return createDefaultConfig()
		}
		return fmt.Errorf("fatal error reading config file: %w", err)
	}

	return nil
}

// getDefaultConfigPaths returns a list of default config paths for the current OS
func getDefaultConfigPaths() ([]string, error) {
	var configPaths []string

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("error fetching user directory: %w", err)
	}

	switch runtime.GOOS {
	case "windows":
		configPaths = []string{
			".",
			filepath.Join(homeDir, "AppData", "Local", "dicommanager-go"),
		}
	default:
		configPaths = []string{
			filepath.Join(homeDir, ".config", "dicommanager-go"),
			"/etc/dicommanager-go",
			".",
		}
	}

	return configPaths, nil
}

// createDefaultConfig creates a default config file and writes it to the default config path
func createDefaultConfig() error {
	configPaths, err := getDefaultConfigPaths()
	if err != nil {
		return fmt.Errorf("error getting default config paths: %w", err)
	}
	configPath := filepath.Join(configPaths[0], "config.yaml")

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating directories for config file: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("error writing default config file: %w", err)
	}

	fmt.Println("Created default config file at:", configPath)
	return viper.ReadInConfig()
}

// DicomDir is the vault root where managed files are written.
func (s *Settings) DicomDir() string {
	return filepath.Join(s.Storage.Root, "dicoms")
}

// ProjectsDir holds the per-project alias trees.
func (s *Settings) ProjectsDir() string {
	return filepath.Join(s.Storage.Root, "projects")
}

// ProjectDir is the acting project's directory under ProjectsDir.
func (s *Settings) ProjectDir() string {
	return filepath.Join(s.ProjectsDir(), s.Project)
}

// ByPatientDir is the project's subject-organized alias tree.
func (s *Settings) ByPatientDir() string {
	return filepath.Join(s.ProjectDir(), "by_patient")
}

// ByAgeDir is the project's age-organized alias tree.
func (s *Settings) ByAgeDir() string {
	return filepath.Join(s.ProjectDir(), "by_age")
}

// EnsureDirs creates the managed directory layout if any part is missing.
// The storage root itself must already exist, so a mistyped root is caught
// instead of silently growing a new tree.
func (s *Settings) EnsureDirs() error {
	if _, err := os.Stat(s.Storage.Root); err != nil {
		return fmt.Errorf("storage root not found: %s", s.Storage.Root)
	}

	dirs := []string{
		s.DicomDir(),
		s.ProjectsDir(),
		s.ProjectDir(),
		s.ByPatientDir(),
		s.ByAgeDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("error creating directory %s: %w", dir, err)
		}
	}
	return nil
}

// NormalizeInstitution maps a reported institution name to its canonical
// form using the configured substring table; unmatched names pass through.
// Canonical names are tried in sorted order so a name matching needles of
// several institutions always resolves the same way; storage paths are
// derived from the result and must not vary between calls.
func (s *Settings) NormalizeInstitution(name string) string {
	canonicals := make([]string, 0, len(s.Institutions))
	for canonical := range s.Institutions {
		canonicals = append(canonicals, canonical)
	}
	sort.Strings(canonicals)

	for _, canonical := range canonicals {
		for _, needle := range s.Institutions[canonical] {
			if needle == "" {
				continue
			}
			if containsFold(name, needle) {
				return canonical
			}
		}
	}
	return name
}
