// Package config loads, validates, and supplies every tunable threshold for
// the relationship index. All numeric parameters live here; nothing else in
// the codebase carries scoring or sampling literals.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the complete elemdex index configuration.
type Config struct {
	EntropyBands      EntropyBands      `yaml:"entropy_bands" json:"entropy_bands"`
	JaccardThresholds JaccardThresholds `yaml:"jaccard_thresholds" json:"jaccard_thresholds"`
	Performance       PerformanceConfig `yaml:"performance" json:"performance"`
	Sampling          SamplingConfig    `yaml:"sampling" json:"sampling"`
	Index             IndexConfig       `yaml:"index" json:"index"`
}

// EntropyBands holds the Shannon-entropy thresholds separating low-information
// content from information-rich vocabulary. Must be strictly increasing.
type EntropyBands struct {
	Low      float64 `yaml:"low" json:"low"`
	Moderate float64 `yaml:"moderate" json:"moderate"`
	High     float64 `yaml:"high" json:"high"`
}

// JaccardThresholds holds the lexical-overlap thresholds, each in [0,1],
// strictly increasing.
type JaccardThresholds struct {
	Low      float64 `yaml:"low" json:"low"`
	Moderate float64 `yaml:"moderate" json:"moderate"`
	High     float64 `yaml:"high" json:"high"`
}

// PerformanceConfig bounds the cost of a relationship build.
type PerformanceConfig struct {
	// MaxElementsForFullMatrix is the population size at or below which the
	// builder computes the exact n(n-1)/2 pairwise matrix.
	MaxElementsForFullMatrix int `yaml:"max_elements_for_full_matrix" json:"max_elements_for_full_matrix"`

	// MaxSimilarityComparisons is the total comparison budget for a sampled build.
	MaxSimilarityComparisons int `yaml:"max_similarity_comparisons" json:"max_similarity_comparisons"`

	// SimilarityThreshold is the minimum Jaccard score for an edge to be kept.
	SimilarityThreshold float64 `yaml:"similarity_threshold" json:"similarity_threshold"`
}

// SamplingConfig tunes the two-pass sampled strategy.
type SamplingConfig struct {
	BaseSampleSize     int     `yaml:"base_sample_size" json:"base_sample_size"`
	SampleRatio        float64 `yaml:"sample_ratio" json:"sample_ratio"`
	ClusterSampleLimit int     `yaml:"cluster_sample_limit" json:"cluster_sample_limit"`
}

// IndexConfig tunes snapshot caching and cross-process locking.
type IndexConfig struct {
	// TTLMinutes is how long a built snapshot stays fresh.
	TTLMinutes int `yaml:"ttl_minutes" json:"ttl_minutes"`

	// LockTimeoutMs is the hard timeout for acquiring the snapshot lock.
	LockTimeoutMs int `yaml:"lock_timeout_ms" json:"lock_timeout_ms"`
}

// DefaultConfig returns the built-in defaults. Missing keys in a config file
// fall back to these values rather than erroring.
func DefaultConfig() *Config {
	return &Config{
		EntropyBands: EntropyBands{
			Low:      2.0,
			Moderate: 3.5,
			High:     5.5,
		},
		JaccardThresholds: JaccardThresholds{
			Low:      0.1,
			Moderate: 0.25,
			High:     0.5,
		},
		Performance: PerformanceConfig{
			MaxElementsForFullMatrix: 100,
			MaxSimilarityComparisons: 10000,
			SimilarityThreshold:      0.05,
		},
		Sampling: SamplingConfig{
			BaseSampleSize:     50,
			SampleRatio:        0.1,
			ClusterSampleLimit: 25,
		},
		Index: IndexConfig{
			TTLMinutes:    15,
			LockTimeoutMs: 5000,
		},
	}
}

// DefaultConfigPath returns the well-known config file location
// (~/.elemdex/config.yaml).
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".elemdex", "config.yaml")
	}
	return filepath.Join(home, ".elemdex", "config.yaml")
}

// DefaultStateDir returns the internal state directory where the snapshot and
// lock marker live (~/.elemdex/state).
func DefaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".elemdex", "state")
	}
	return filepath.Join(home, ".elemdex", "state")
}

// Load reads the config file at path, merges it over the built-in defaults,
// applies ELEMDEX_* environment overrides, and validates the result.
// An absent file yields all-defaults. Validation failures are fatal and carry
// the full violation list.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		// Absent file means all-defaults.
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if result := cfg.Validate(); !result.Valid() {
		return nil, fmt.Errorf("invalid config %s:\n%s", path, result)
	}

	return cfg, nil
}

// applyEnvOverrides applies ELEMDEX_* environment variable overrides.
// Env vars have the highest priority, matching the usual
// defaults < file < environment layering.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("ELEMDEX_TTL_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.TTLMinutes = n
		}
	}
	if v := os.Getenv("ELEMDEX_LOCK_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Index.LockTimeoutMs = n
		}
	}
	if v := os.Getenv("ELEMDEX_MAX_COMPARISONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Performance.MaxSimilarityComparisons = n
		}
	}
	if v := os.Getenv("ELEMDEX_SIMILARITY_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Performance.SimilarityThreshold = f
		}
	}
}

// Violation describes a single failed config invariant.
type Violation struct {
	Field  string
	Reason string
}

// ValidationResult collects every violation found in one pass so a user can
// fix all problems at once instead of replaying load-fail-fix cycles.
type ValidationResult struct {
	Violations []Violation
}

// Valid reports whether no violations were found.
func (r ValidationResult) Valid() bool {
	return len(r.Violations) == 0
}

// String renders the violations one per line as "field: reason".
func (r ValidationResult) String() string {
	var sb strings.Builder
	for i, v := range r.Violations {
		if i > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("  %s: %s", v.Field, v.Reason))
	}
	return sb.String()
}

func (r *ValidationResult) add(field, reason string) {
	r.Violations = append(r.Violations, Violation{Field: field, Reason: reason})
}

// Validate checks every range and monotonicity invariant and returns the full
// list of violations. Out-of-range values are rejected, never clamped.
func (c *Config) Validate() ValidationResult {
	var result ValidationResult

	if c.EntropyBands.Low < 0 {
		result.add("entropy_bands.low", fmt.Sprintf("must be non-negative, got %g", c.EntropyBands.Low))
	}
	if !(c.EntropyBands.Low < c.EntropyBands.Moderate) {
		result.add("entropy_bands.moderate", fmt.Sprintf("must be greater than low (%g), got %g",
			c.EntropyBands.Low, c.EntropyBands.Moderate))
	}
	if !(c.EntropyBands.Moderate < c.EntropyBands.High) {
		result.add("entropy_bands.high", fmt.Sprintf("must be greater than moderate (%g), got %g",
			c.EntropyBands.Moderate, c.EntropyBands.High))
	}

	jt := []struct {
		name  string
		value float64
	}{
		{"jaccard_thresholds.low", c.JaccardThresholds.Low},
		{"jaccard_thresholds.moderate", c.JaccardThresholds.Moderate},
		{"jaccard_thresholds.high", c.JaccardThresholds.High},
	}
	for _, t := range jt {
		if t.value < 0 || t.value > 1 {
			result.add(t.name, fmt.Sprintf("must be in [0,1], got %g", t.value))
		}
	}
	if !(c.JaccardThresholds.Low < c.JaccardThresholds.Moderate) {
		result.add("jaccard_thresholds.moderate", fmt.Sprintf("must be greater than low (%g), got %g",
			c.JaccardThresholds.Low, c.JaccardThresholds.Moderate))
	}
	if !(c.JaccardThresholds.Moderate < c.JaccardThresholds.High) {
		result.add("jaccard_thresholds.high", fmt.Sprintf("must be greater than moderate (%g), got %g",
			c.JaccardThresholds.Moderate, c.JaccardThresholds.High))
	}

	if c.Performance.MaxElementsForFullMatrix < 1 {
		result.add("performance.max_elements_for_full_matrix",
			fmt.Sprintf("must be at least 1, got %d", c.Performance.MaxElementsForFullMatrix))
	}
	if c.Performance.MaxSimilarityComparisons < 1 {
		result.add("performance.max_similarity_comparisons",
			fmt.Sprintf("must be at least 1, got %d", c.Performance.MaxSimilarityComparisons))
	}
	if c.Performance.SimilarityThreshold < 0 || c.Performance.SimilarityThreshold > 1 {
		result.add("performance.similarity_threshold",
			fmt.Sprintf("must be in [0,1], got %g", c.Performance.SimilarityThreshold))
	}

	if c.Sampling.BaseSampleSize < 1 {
		result.add("sampling.base_sample_size",
			fmt.Sprintf("must be at least 1, got %d", c.Sampling.BaseSampleSize))
	}
	if c.Sampling.SampleRatio <= 0 || c.Sampling.SampleRatio > 1 {
		result.add("sampling.sample_ratio",
			fmt.Sprintf("must be in (0,1], got %g", c.Sampling.SampleRatio))
	}
	if c.Sampling.ClusterSampleLimit < 1 {
		result.add("sampling.cluster_sample_limit",
			fmt.Sprintf("must be at least 1, got %d", c.Sampling.ClusterSampleLimit))
	}

	if c.Index.TTLMinutes < 1 {
		result.add("index.ttl_minutes", fmt.Sprintf("must be at least 1, got %d", c.Index.TTLMinutes))
	}
	if c.Index.LockTimeoutMs < 1 {
		result.add("index.lock_timeout_ms", fmt.Sprintf("must be at least 1, got %d", c.Index.LockTimeoutMs))
	}

	return result
}

// Version returns a stable hash of the configuration content. Snapshots carry
// this value; a snapshot built under a different config version is stale.
func (c *Config) Version() string {
	// Serialize field values sorted by name so the hash does not depend on
	// struct layout.
	fields := map[string]string{
		"entropy_bands.low":                      formatFloat(c.EntropyBands.Low),
		"entropy_bands.moderate":                 formatFloat(c.EntropyBands.Moderate),
		"entropy_bands.high":                     formatFloat(c.EntropyBands.High),
		"jaccard_thresholds.low":                 formatFloat(c.JaccardThresholds.Low),
		"jaccard_thresholds.moderate":            formatFloat(c.JaccardThresholds.Moderate),
		"jaccard_thresholds.high":                formatFloat(c.JaccardThresholds.High),
		"performance.max_elements_for_full_matrix": strconv.Itoa(c.Performance.MaxElementsForFullMatrix),
		"performance.max_similarity_comparisons":   strconv.Itoa(c.Performance.MaxSimilarityComparisons),
		"performance.similarity_threshold":         formatFloat(c.Performance.SimilarityThreshold),
		"sampling.base_sample_size":                strconv.Itoa(c.Sampling.BaseSampleSize),
		"sampling.sample_ratio":                    formatFloat(c.Sampling.SampleRatio),
		"sampling.cluster_sample_limit":            strconv.Itoa(c.Sampling.ClusterSampleLimit),
		"index.ttl_minutes":                        strconv.Itoa(c.Index.TTLMinutes),
		"index.lock_timeout_ms":                    strconv.Itoa(c.Index.LockTimeoutMs),
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	for _, k := range keys {
		fmt.Fprintf(h, "%s=%s\n", k, fields[k])
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// Save writes the config to path as YAML, creating parent directories.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
