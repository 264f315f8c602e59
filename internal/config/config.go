// =============================================================================
// X12 Decoder - Configuration Module
// =============================================================================
//
// This module is responsible for loading and managing all configuration files.
// It handles the main application configuration, trading-partner
// configurations and YAML transaction maps.
//
// CONFIGURATION FILES:
//   1. Main Config (config.yaml): Global application settings
//   2. Partner Configs (partners/*.yaml): Per trading partner overrides
//   3. Transaction Maps (maps/*.yaml): Loop layouts of transaction sets
//
// =============================================================================

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/x12-decoder/internal/schema"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
// This is loaded from the main config.yaml file.
type MainConfig struct {
	// =========================================================================
	// DIRECTORY SETTINGS
	// =========================================================================

	// InputDir is the directory scanned for X12 files.
	// Default: "./input"
	InputDir string `yaml:"input_dir"`

	// OutputDir is the directory where generated XML files are placed.
	// Default: "./output"
	OutputDir string `yaml:"output_dir"`

	// InputArchiveDir receives input files after they decoded successfully.
	// Default: "./input_archive"
	InputArchiveDir string `yaml:"input_archive_dir"`

	// OutputArchiveDir is the long-term store for generated XML files.
	// Default: "./output_archive"
	OutputArchiveDir string `yaml:"output_archive_dir"`

	// SchemasDir holds XLSX segment-definition workbooks, one sheet per
	// version. Definitions found here override the builtin ones.
	// Default: "./schemas"
	SchemasDir string `yaml:"schemas_dir"`

	// MapsDir holds YAML transaction maps.
	// Default: "./maps"
	MapsDir string `yaml:"maps_dir"`

	// PartnersDir holds one YAML file per trading partner.
	// Default: "./partners"
	PartnersDir string `yaml:"partners_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file.
	// Default: "./logs/x12dec.log"
	LogFile string `yaml:"log_file"`

	// LogLevel controls the verbosity of logging.
	// Valid values: "debug", "info", "warn", "error"
	// Default: "info"
	LogLevel string `yaml:"log_level"`

	// =========================================================================
	// OUTPUT SETTINGS
	// =========================================================================

	// UUIDFormat defines the format for output file names.
	// Placeholders:
	//   {uuid}      - A random UUID
	//   {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
	//   {partner}   - Partner code, or "default"
	//
	// Example: "{partner}_{timestamp}_{uuid}.xml"
	// Default: "{uuid}.xml"
	UUIDFormat string `yaml:"uuid_format"`

	// MetricsFile, when set, receives a Prometheus textfile after each run.
	MetricsFile string `yaml:"metrics_file"`

	// =========================================================================
	// PROCESSING SETTINGS
	// =========================================================================

	// FilePatterns select the input files to decode.
	// Default: ["*.x12", "*.edi", "*.txt"]
	FilePatterns []string `yaml:"file_patterns"`

	// MaxConcurrency is the maximum number of files decoded concurrently.
	// Set to 1 for sequential processing.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// ContinueOnError determines whether to continue processing other files
	// if one file fails.
	ContinueOnError bool `yaml:"continue_on_error"`

	// Decoder holds the envelope engine settings.
	Decoder DecoderSettings `yaml:"decoder"`
}

// DecoderSettings controls the envelope engine. Pointer fields distinguish
// "not set" from false so partner files can override selectively.
type DecoderSettings struct {
	// FallbackVersion is tried once when a schema is missing for the
	// requested version.
	// Default: "004010"
	FallbackVersion string `yaml:"fallback_version"`

	// StrictInterchanges makes an ISA inside an open interchange fatal.
	// Default: false
	StrictInterchanges *bool `yaml:"strict_interchanges"`

	// WarnUnterminated reports envelopes left open at end of file.
	// Default: true
	WarnUnterminated *bool `yaml:"warn_unterminated"`
}

// Strict reports the effective StrictInterchanges value.
func (d DecoderSettings) Strict() bool {
	return d.StrictInterchanges != nil && *d.StrictInterchanges
}

// WarnOnUnterminated reports the effective WarnUnterminated value.
func (d DecoderSettings) WarnOnUnterminated() bool {
	return d.WarnUnterminated == nil || *d.WarnUnterminated
}

// Merge returns d with every field set in override replacing its own.
func (d DecoderSettings) Merge(override DecoderSettings) DecoderSettings {
	if override.FallbackVersion != "" {
		d.FallbackVersion = override.FallbackVersion
	}
	if override.StrictInterchanges != nil {
		d.StrictInterchanges = override.StrictInterchanges
	}
	if override.WarnUnterminated != nil {
		d.WarnUnterminated = override.WarnUnterminated
	}
	return d
}

// =============================================================================
// PARTNER CONFIGURATION STRUCTURE
// =============================================================================

// PartnerConfig holds the configuration for one trading partner.
type PartnerConfig struct {
	// PartnerName is the human-readable name used in logs.
	PartnerName string `yaml:"partner_name"`

	// PartnerCode is a short code used as map key and in output file names.
	PartnerCode string `yaml:"partner_code"`

	// FileMatchingPatterns is a list of glob patterns matched against input
	// file names. The first partner with a matching pattern is used.
	// Examples:
	//   - "acme_*.x12"
	//   - "*_837_*.edi"
	FileMatchingPatterns []string `yaml:"file_matching_patterns"`

	// Decoder overrides the main decoder settings for this partner.
	Decoder DecoderSettings `yaml:"decoder"`

	// Output controls the XML rendering.
	Output OutputSettings `yaml:"output"`
}

// OutputSettings controls XML generation for a partner.
type OutputSettings struct {
	// IncludeRaw adds the raw element text next to typed values.
	IncludeRaw bool `yaml:"include_raw"`

	// RootElement names the XML document element.
	// Default: "X12Batch"
	RootElement string `yaml:"root_element"`
}

// Matches reports whether fileName matches one of the partner's patterns.
func (p *PartnerConfig) Matches(fileName string) bool {
	base := filepath.Base(fileName)
	for _, pattern := range p.FileMatchingPatterns {
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// LoadMainConfig loads the main configuration from a YAML file.
//
// PARAMETERS:
//   - configPath: The path to the main configuration file.
//
// RETURNS:
//   - A pointer to the MainConfig struct, with defaults applied.
//   - An error if the file cannot be read or parsed, or a directory cannot
//     be created.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config MainConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// Default returns a configuration with every default applied, for running
// without a config file.
func Default() *MainConfig {
	var config MainConfig
	applyMainConfigDefaults(&config)
	return &config
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.InputDir == "" {
		config.InputDir = "./input"
	}
	if config.OutputDir == "" {
		config.OutputDir = "./output"
	}
	if config.InputArchiveDir == "" {
		config.InputArchiveDir = "./input_archive"
	}
	if config.OutputArchiveDir == "" {
		config.OutputArchiveDir = "./output_archive"
	}
	if config.SchemasDir == "" {
		config.SchemasDir = "./schemas"
	}
	if config.MapsDir == "" {
		config.MapsDir = "./maps"
	}
	if config.PartnersDir == "" {
		config.PartnersDir = "./partners"
	}
	if config.LogFile == "" {
		config.LogFile = "./logs/x12dec.log"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.UUIDFormat == "" {
		config.UUIDFormat = "{uuid}.xml"
	}
	if len(config.FilePatterns) == 0 {
		config.FilePatterns = []string{"*.x12", "*.edi", "*.txt"}
	}
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 4
	}
	if config.Decoder.FallbackVersion == "" {
		config.Decoder.FallbackVersion = schema.DefaultFallbackVersion
	}
}

// validateMainConfig checks the settings and creates missing directories.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}
	for _, p := range config.FilePatterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return fmt.Errorf("bad file pattern %q: %w", p, err)
		}
	}

	dirs := []string{
		config.InputDir,
		config.OutputDir,
		config.SchemasDir,
		config.MapsDir,
		config.PartnersDir,
	}
	for _, dir := range dirs {
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", dir, err)
			}
		}
	}

	return nil
}

// LoadPartnerConfigs loads all partner configurations from a directory.
//
// RETURNS:
//   - A map of partner configurations, keyed by partner code (or file name
//     when the code is missing).
//   - An error if the directory cannot be listed or any file cannot be parsed.
func LoadPartnerConfigs(dir string) (map[string]*PartnerConfig, error) {
	configs := make(map[string]*PartnerConfig)

	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}

	for _, file := range files {
		config, err := loadPartnerConfig(file)
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", file, err)
		}

		key := config.PartnerCode
		if key == "" {
			key = filepath.Base(file)
		}
		configs[key] = config
	}

	return configs, nil
}

func loadPartnerConfig(filePath string) (*PartnerConfig, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var config PartnerConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse file: %w", err)
	}

	if config.Output.RootElement == "" {
		config.Output.RootElement = "X12Batch"
	}
	return &config, nil
}

// MatchPartner returns the first partner, in code order, whose patterns match
// fileName.
func MatchPartner(partners map[string]*PartnerConfig, fileName string) (*PartnerConfig, bool) {
	codes := make([]string, 0, len(partners))
	for code := range partners {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	for _, code := range codes {
		if partners[code].Matches(fileName) {
			return partners[code], true
		}
	}
	return nil, false
}

// =============================================================================
// TRANSACTION MAPS
// =============================================================================

// transactionMapFile is the on-disk form. A file holds one map or a list
// under "maps".
type transactionMapFile struct {
	schema.TransactionMap `yaml:",inline"`
	Maps                  []schema.TransactionMap `yaml:"maps"`
}

// LoadTransactionMaps reads every YAML transaction map in dir and validates
// it. A missing directory yields no maps.
//
// Example file:
//
//	version: "004010"
//	code: "856"
//	name: Ship Notice/Manifest
//	loops:
//	  - {id: HL, name: Hierarchical Level, trigger: HL}
//	  - {id: N1, name: Party, trigger: N1, parent: HL}
func LoadTransactionMaps(dir string) ([]*schema.TransactionMap, error) {
	files, err := yamlFiles(dir)
	if err != nil {
		return nil, err
	}

	var maps []*schema.TransactionMap
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", file, err)
		}
		var f transactionMapFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", file, err)
		}

		found := f.Maps
		if f.Code != "" {
			found = append([]schema.TransactionMap{f.TransactionMap}, found...)
		}
		for i := range found {
			m := found[i]
			if err := m.Validate(); err != nil {
				return nil, fmt.Errorf("%s: %w", file, err)
			}
			maps = append(maps, &m)
		}
	}
	return maps, nil
}

// yamlFiles lists *.yaml and *.yml in dir, sorted.
func yamlFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	ymlFiles, err := filepath.Glob(filepath.Join(dir, "*.yml"))
	if err != nil {
		return nil, fmt.Errorf("failed to list config files: %w", err)
	}
	files = append(files, ymlFiles...)
	sort.Strings(files)
	return files, nil
}
