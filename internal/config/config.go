package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config represents the main configuration for tc.
type Config struct {
	BaseDir  string         `toml:"base_dir"`
	LogDir   string         `toml:"log_dir"`
	Database DatabaseConfig `toml:"database"`
	Disks    []DiskConfig   `toml:"disks"`
	Modes    ModesConfig    `toml:"modes"`
	Backup   BackupConfig   `toml:"backup"`
}

// DatabaseConfig represents configuration for the catalog database.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // only used for type=sqlite
}

// DiskConfig declares one monitored disk root. Disks are synced into
// the catalog at startup, keyed by (parent, name).
type DiskConfig struct {
	Ord      int    `toml:"ord"`
	Parent   string `toml:"parent"`
	Name     string `toml:"name"`
	Location string `toml:"location"` // "local" or "remote"
	Role     string `toml:"role"`     // "default", "backup", "uploads", "scheduled"
	Depth    int    `toml:"depth"`    // levels below the root where folders live
	Checked  bool   `toml:"checked"`
}

// ModesConfig overrides the option sets for the named scan modes.
// Option names: local_disks, remote_disks, unchecked_disks,
// folder_details. A missing mode keeps its built-in default.
type ModesConfig struct {
	Startup  []string `toml:"startup"`
	Quick    []string `toml:"quick"`
	Extended []string `toml:"extended"`
}

// BackupConfig represents configuration for catalog snapshot backups.
// This uses a tagged union pattern - the Type field determines which other fields are relevant.
type BackupConfig struct {
	Type string `toml:"type"` // "none", "filesystem", or "s3"

	// FileSystem-specific fields (only used when Type == "filesystem")
	FSBackupDir string `toml:"fs_backup_dir,omitempty"`

	// S3-specific fields (only used when Type == "s3")
	S3Bucket string `toml:"s3_bucket,omitempty"`
	S3Prefix string `toml:"s3_prefix,omitempty"`
	S3Region string `toml:"s3_region,omitempty"`

	// Encryption key pair; snapshots are encrypted when both paths
	// are set.
	RecipientPath string `toml:"recipient_path,omitempty"`
	IdentityPath  string `toml:"identity_path,omitempty"`
}

// Encrypted reports whether snapshots should be age-encrypted.
func (b BackupConfig) Encrypted() bool {
	return b.RecipientPath != "" && b.IdentityPath != ""
}

// NewConfig creates a new Config with the provided base directory and
// default paths.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "data"),
		},
		Backup: BackupConfig{
			Type:          "none",
			RecipientPath: filepath.Join(baseDir, "keys", "tc.pub"),
			IdentityPath:  filepath.Join(baseDir, "keys", "tc.key"),
		},
	}
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config from the provided reader.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	var cfg Config
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads a Config from the specified file path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return cfg, nil
}

// writeToFile writes a Config to the specified file path.
func writeToFile(path string, cfg *Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Init initializes a new config file at the specified path with the provided Config.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := writeToFile(path, cfg); err != nil {
		return fmt.Errorf("initializing config: %w", err)
	}
	return nil
}
