// Package config loads converter settings from JSON.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/lvx-convert/internal/units"
)

// Point output formats.
const (
	FormatLAS = "las"
	FormatASC = "asc"
)

// ConvertConfig represents converter settings. Every field is optional;
// the Get* methods supply defaults for fields left unset.
type ConvertConfig struct {
	// Chunking
	FramesPerChunk *uint32 `json:"frames_per_chunk,omitempty"` // 0 = one chunk per file

	// Outputs
	PointFormat *string `json:"point_format,omitempty"` // "las" or "asc"
	PointUnits  *string `json:"point_units,omitempty"`  // "m" or "mm", asc only
	WriteImuCSV *bool   `json:"write_imu_csv,omitempty"`
	OutputDir   *string `json:"output_dir,omitempty"` // "" = next to each input
	SQLitePath  *string `json:"sqlite_path,omitempty"`
	Report      *bool   `json:"report,omitempty"`

	// Decoding
	StrictDataTypes *bool `json:"strict_data_types,omitempty"`

	// Batch
	Workers *int `json:"workers,omitempty"`
}

// Helper functions to create pointers
func ptrUint32(v uint32) *uint32 { return &v }
func ptrBool(v bool) *bool       { return &v }
func ptrString(v string) *string { return &v }
func ptrInt(v int) *int          { return &v }

// EmptyConvertConfig returns a ConvertConfig with all fields set to nil.
func EmptyConvertConfig() *ConvertConfig {
	return &ConvertConfig{}
}

// DefaultConvertConfig returns a ConvertConfig with every field set to its
// default value.
func DefaultConvertConfig() *ConvertConfig {
	return &ConvertConfig{
		FramesPerChunk:  ptrUint32(0),
		PointFormat:     ptrString(FormatLAS),
		PointUnits:      ptrString(units.Meters),
		WriteImuCSV:     ptrBool(true),
		OutputDir:       ptrString(""),
		SQLitePath:      ptrString(""),
		Report:          ptrBool(false),
		StrictDataTypes: ptrBool(false),
		Workers:         ptrInt(1),
	}
}

// LoadConvertConfig loads a ConvertConfig from a JSON file.
// The file is validated to ensure it has a .json extension and is under the max file size.
// Fields omitted from the JSON file keep their defaults through the Get* methods.
func LoadConvertConfig(path string) (*ConvertConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	// Check file size for safety (max 1MB)
	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyConvertConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *ConvertConfig) Validate() error {
	if c.PointFormat != nil {
		switch *c.PointFormat {
		case FormatLAS, FormatASC:
		default:
			return fmt.Errorf("point_format must be %q or %q, got %q", FormatLAS, FormatASC, *c.PointFormat)
		}
	}

	if c.PointUnits != nil && !units.IsValid(*c.PointUnits) {
		return fmt.Errorf("point_units must be one of %s, got %q", units.GetValidUnitsString(), *c.PointUnits)
	}

	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}

	return nil
}

// Merge copies every field set in other over c.
func (c *ConvertConfig) Merge(other *ConvertConfig) {
	if other == nil {
		return
	}
	if other.FramesPerChunk != nil {
		c.FramesPerChunk = other.FramesPerChunk
	}
	if other.PointFormat != nil {
		c.PointFormat = other.PointFormat
	}
	if other.PointUnits != nil {
		c.PointUnits = other.PointUnits
	}
	if other.WriteImuCSV != nil {
		c.WriteImuCSV = other.WriteImuCSV
	}
	if other.OutputDir != nil {
		c.OutputDir = other.OutputDir
	}
	if other.SQLitePath != nil {
		c.SQLitePath = other.SQLitePath
	}
	if other.Report != nil {
		c.Report = other.Report
	}
	if other.StrictDataTypes != nil {
		c.StrictDataTypes = other.StrictDataTypes
	}
	if other.Workers != nil {
		c.Workers = other.Workers
	}
}

// GetFramesPerChunk returns the frames_per_chunk value or the default.
func (c *ConvertConfig) GetFramesPerChunk() uint32 {
	if c.FramesPerChunk == nil {
		return 0 // default: whole file
	}
	return *c.FramesPerChunk
}

// GetPointFormat returns the point_format value or the default.
func (c *ConvertConfig) GetPointFormat() string {
	if c.PointFormat == nil {
		return FormatLAS
	}
	return *c.PointFormat
}

// GetPointUnits returns the point_units value or the default.
func (c *ConvertConfig) GetPointUnits() string {
	if c.PointUnits == nil {
		return units.Meters
	}
	return *c.PointUnits
}

// GetWriteImuCSV returns the write_imu_csv value or the default.
func (c *ConvertConfig) GetWriteImuCSV() bool {
	if c.WriteImuCSV == nil {
		return true
	}
	return *c.WriteImuCSV
}

// GetOutputDir returns the output_dir value or the default.
func (c *ConvertConfig) GetOutputDir() string {
	if c.OutputDir == nil {
		return ""
	}
	return *c.OutputDir
}

// GetSQLitePath returns the sqlite_path value or the default.
func (c *ConvertConfig) GetSQLitePath() string {
	if c.SQLitePath == nil {
		return ""
	}
	return *c.SQLitePath
}

// GetReport returns the report value or the default.
func (c *ConvertConfig) GetReport() bool {
	if c.Report == nil {
		return false
	}
	return *c.Report
}

// GetStrictDataTypes returns the strict_data_types value or the default.
func (c *ConvertConfig) GetStrictDataTypes() bool {
	if c.StrictDataTypes == nil {
		return false
	}
	return *c.StrictDataTypes
}

// GetWorkers returns the workers value or the default.
func (c *ConvertConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}
