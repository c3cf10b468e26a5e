package analysisconfig

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/peergap/pkg/config"
)

// Load reads a YAML profile and returns Config with raw bytes
// 누락된 필드는 Default() 값 유지, 알 수 없는 필드는 즉시 실패
func Load(path string) (*Config, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, data, err
	}
	return cfg, data, nil
}

// Parse decodes a YAML profile over the defaults and validates it
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true) // 오타/미사용 필드 즉시 실패
	if err := dec.Decode(cfg); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Hash generates SHA256 hash from Config (canonical JSON)
// 주의: map 대신 struct 사용으로 해시 재현성 보장
func Hash(cfg *Config) (string, error) {
	jsonBytes, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}

// ApplyRuntime overlays process-level limits from the environment
// ENV가 프로파일보다 우선 (병렬도, 타임아웃, 피어 수, 보관 기간)
func ApplyRuntime(cfg *Config, rt config.AnalysisConfig) error {
	if rt.MaxPeers > 0 {
		cfg.Discovery.MaxPeers = rt.MaxPeers
	}
	if rt.ParallelLimit > 0 {
		cfg.Collection.MaxParallel = rt.ParallelLimit
	}
	if rt.TaskTimeout > 0 {
		cfg.Collection.TaskTimeoutSeconds = int(rt.TaskTimeout.Seconds())
	}
	if rt.RetentionDays > 0 {
		cfg.Schedule.RetentionDays = rt.RetentionDays
	}
	return Validate(cfg)
}

// LoadRuntime loads the profile named by ANALYSIS_PROFILE (defaults when
// empty) and applies the environment limits
func LoadRuntime(rt config.AnalysisConfig) (*Config, error) {
	cfg := Default()
	if rt.ProfilePath != "" {
		loaded, _, err := Load(rt.ProfilePath)
		if err != nil {
			return nil, fmt.Errorf("analysis profile %s: %w", rt.ProfilePath, err)
		}
		cfg = loaded
	}
	if err := ApplyRuntime(cfg, rt); err != nil {
		return nil, err
	}
	return cfg, nil
}
