package notify

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"sweeps-casino/internal/config"
)

func ConfigFrom(cfg config.NotifyConfig) (Config, error) {
	out := Config{
		Enabled:             cfg.Enabled,
		TargetsPath:         strings.TrimSpace(cfg.TargetsPath),
		ConfigReload:        time.Second,
		Workers:             cfg.Workers,
		RetryMax:            cfg.RetryMax,
		RetryBase:           time.Duration(cfg.RetryBaseMS) * time.Millisecond,
		FailureThreshold:    3,
		CircuitOpenDuration: 30 * time.Second,
		RequestTimeout:      5 * time.Second,
		DispatchBuffer:      2048,
	}
	if !out.Enabled {
		return out, nil
	}

	if out.Workers <= 0 {
		out.Workers = 4
	}
	if out.RetryMax < 0 {
		out.RetryMax = 0
	}
	if out.RetryBase <= 0 {
		out.RetryBase = 500 * time.Millisecond
	}

	jsonRaw, err := loadTargetsJSON(cfg)
	if err != nil {
		return Config{}, err
	}
	if jsonRaw == "" {
		return out, nil
	}
	targets, err := parseTargetsJSON(jsonRaw)
	if err != nil {
		return Config{}, err
	}
	out.Targets = targets
	return out, nil
}

func loadTargetsJSON(cfg config.NotifyConfig) (string, error) {
	path := strings.TrimSpace(cfg.TargetsPath)
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read notify targets path %q: %w", path, err)
		}
		return strings.TrimSpace(string(raw)), nil
	}
	return strings.TrimSpace(cfg.TargetsJSON), nil
}

func parseTargetsJSON(jsonRaw string) ([]Target, error) {
	var targets []Target
	if err := json.Unmarshal([]byte(jsonRaw), &targets); err != nil {
		return nil, fmt.Errorf("parse notify targets: %w", err)
	}
	filtered := make([]Target, 0, len(targets))
	for _, target := range targets {
		target.Platform = strings.ToLower(strings.TrimSpace(target.Platform))
		if target.Platform == "" {
			target.Platform = "webhook"
		}
		target.ScopeType = strings.ToLower(strings.TrimSpace(target.ScopeType))
		if target.ScopeType == "" {
			target.ScopeType = "all"
		}
		if target.ScopeType != "all" && target.ScopeType != "tournament" && target.ScopeType != "game_type" {
			continue
		}
		target.Endpoint = strings.TrimSpace(target.Endpoint)
		if target.Endpoint == "" {
			continue
		}
		if !target.Enabled {
			continue
		}
		for i := range target.EventAllowlist {
			target.EventAllowlist[i] = strings.TrimSpace(strings.ToLower(target.EventAllowlist[i]))
		}
		filtered = append(filtered, target)
	}
	return filtered, nil
}
