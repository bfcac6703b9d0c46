package lib

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
)

/* This file implements logic for 'user controlled' configuration of the sortition library */

const (
	// FILE NAMES in the 'data directory'
	ConfigFilePath = "config.json"  // the file path for the configuration
	KeyFilePath    = "vrf_key.json" // the file path for the participant's VRF private key

	// ThresholdCorrection is the fixed integer factor applied to a stake-scaled threshold
	// before comparing it against ThresholdUpper; it gives finer-grained control over the
	// difficulty curve without needing wider integer types
	ThresholdCorrection = 10
)

// DefaultModulusHex is the protocol-wide VDF group modulus: a fixed 2048-bit composite of
// unknown factorization supplied by the deployment ceremony. It is public, not secret -
// the security assumption is only that nobody knows its factors
const DefaultModulusHex = "" +
	"f5da9d3762fe37e8a9a852af3359f909ffb3e7941015b42a8075d7fca6452ed9" +
	"143101d52be47f62b2611b2ff9728a6098711418f75fcde94136a213b0cb0c48" +
	"9b333daf1dd5e06ea1f2234d85ace2961b39c63ba2bf81cac0d548f89afaa4d4" +
	"5416f2d6aeb556a115f5c544cdedc1df3d8266d96c63acf975375b15df34cc3d" +
	"eb04a297f07ba6a2949ea568060e3533517e73faa7167e496a3b49467374486a" +
	"328f7a0d4bb06e14b674da37a82dd4625da5de01f2f33dd317123c0c353d2300" +
	"34e248b212e807605f6dcdc2636eb71bf29a9ae5a025b79b9559c37b472d0be6" +
	"226d862b866b010eec4dfabef5e47da5163706910c6b8929f4af381b77918455"

// Config is the structure of the user configuration options for a sortition participant
type Config struct {
	MainConfig    // main options spanning all modules
	MetricsConfig // telemetry options
	SortitionParams
}

// MainConfig contains the top level options
type MainConfig struct {
	LogLevel    string `json:"logLevel"`    // any level includes the levels above it: debug < info < warning < error
	DataDirPath string `json:"dataDirPath"` // the filepath where the config, key, and log files live
}

// MetricsConfig contains the prometheus telemetry options
type MetricsConfig struct {
	MetricsEnabled    bool   `json:"metricsEnabled"`    // whether the prometheus server is on
	PrometheusAddress string `json:"prometheusAddress"` // the listen address for the /metrics endpoint
}

// SortitionParams is the immutable protocol configuration shared by every participant:
// difficulty derivation parameters, the VRF threshold ceiling, and the group modulus
// The modulus is an explicit field, threaded through every call, so independent protocol
// configurations (test vs production) can coexist safely
type SortitionParams struct {
	VDF     VDFConfig `json:"vdf"`
	VRF     VRFConfig `json:"vrf"`
	Modulus HexBytes  `json:"modulus"` // N: the group modulus, a protocol-wide constant, not secret
}

// VDFConfig are the verifiable delay function parameters
type VDFConfig struct {
	LambdaBound     uint16 `json:"lambdaBound"`     // security parameter bounding the challenge derivation
	DifficultyMin   uint16 `json:"difficultyMin"`   // the easiest assignable difficulty
	DifficultyMax   uint16 `json:"difficultyMax"`   // the hardest normally assignable difficulty
	DifficultyStale uint16 `json:"difficultyStale"` // sentinel: no one is selected / maximal delay
}

// VRFConfig are the verifiable random function parameters
type VRFConfig struct {
	ThresholdUpper uint16 `json:"thresholdUpper"` // the ceiling VRF thresholds are compared against
}

// DefaultConfig() returns a Config with developer set options
func DefaultConfig() Config {
	return Config{
		MainConfig:      DefaultMainConfig(),
		MetricsConfig:   DefaultMetricsConfig(),
		SortitionParams: DefaultSortitionParams(),
	}
}

// DefaultMainConfig() sets log level to 'info'
func DefaultMainConfig() MainConfig {
	return MainConfig{
		LogLevel:    "info",
		DataDirPath: DefaultDataDirPath(),
	}
}

// DefaultMetricsConfig() turns telemetry off
func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		MetricsEnabled:    false,
		PrometheusAddress: "0.0.0.0:9090",
	}
}

// DefaultSortitionParams() returns the developer recommended protocol parameters
func DefaultSortitionParams() SortitionParams {
	modulus, err := NewHexBytesFromString(DefaultModulusHex)
	if err != nil {
		panic(err)
	}
	return SortitionParams{
		VDF: VDFConfig{
			LambdaBound:     1500,
			DifficultyMin:   16,
			DifficultyMax:   21,
			DifficultyStale: 23,
		},
		VRF: VRFConfig{
			// divisible by the six-level difficulty range so the buckets are exact
			ThresholdUpper: 1464,
		},
		Modulus: modulus,
	}
}

// GetLogLevel() parses the log level string in the config into the numeric level
func (c Config) GetLogLevel() int32 {
	switch {
	case strings.Contains(strings.ToLower(c.LogLevel), "deb"):
		return DebugLevel
	case strings.Contains(strings.ToLower(c.LogLevel), "inf"):
		return InfoLevel
	case strings.Contains(strings.ToLower(c.LogLevel), "war"):
		return WarnLevel
	case strings.Contains(strings.ToLower(c.LogLevel), "err"):
		return ErrorLevel
	default:
		return InfoLevel
	}
}

// WriteToFile() saves the Config object to a JSON file
func (c Config) WriteToFile(filePath string) error {
	// convert the config to indented 'pretty' json bytes
	jsonBytes, err := json.MarshalIndent(c, "", "  ")
	// if an error occurred during the conversion
	if err != nil {
		// exit with error
		return err
	}
	// write the config.json file to the data directory
	return os.WriteFile(filePath, jsonBytes, os.ModePerm)
}

// NewConfigFromFile() populates a Config object from a JSON file
func NewConfigFromFile(filePath string) (Config, error) {
	// read the file into bytes
	fileBytes, err := os.ReadFile(filePath)
	// if an error occurred
	if err != nil {
		// exit with error
		return Config{}, err
	}
	// define the default config to fill in any blanks in the file
	c := DefaultConfig()
	// populate the default config with the file bytes
	if err = json.Unmarshal(fileBytes, &c); err != nil {
		// exit with error
		return Config{}, err
	}
	// exit
	return c, nil
}

// DefaultDataDirPath() returns the default data directory under the user home
func DefaultDataDirPath() string {
	// get the user home
	home, err := os.UserHomeDir()
	// if unable to get the user home
	if err != nil {
		// fatal error
		panic(err)
	}
	// exit with full default data directory path
	return filepath.Join(home, ".sortition")
}
