// Package config loads the Queen's tunable hyperparameters from YAML,
// layered over the in-code defaults every sub-component already
// carries. No corpus file configures RL hyperparameters this way, but
// gopkg.in/yaml.v3 is the convention the wider example pack reaches
// for, over hand-rolling a flag-based config loader.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kaushikhazra/nexus-of-mind/queen/network"
	"github.com/kaushikhazra/nexus-of-mind/queen/orchestrator"
	qsolver "github.com/kaushikhazra/nexus-of-mind/queen/solver"
	"github.com/kaushikhazra/nexus-of-mind/queen/trainer"
)

// File is the on-disk YAML shape. Every field is optional; anything
// left zero-valued falls back to its package's own default.
type File struct {
	ExploreRate float64 `yaml:"exploreRate"`

	Network struct {
		LearningRate float64 `yaml:"learningRate"`
		Optimizer    string  `yaml:"optimizer"`
	} `yaml:"network"`

	Cost struct {
		KillRange       float64 `yaml:"killRange"`
		SafeRange       float64 `yaml:"safeRange"`
		ThreatDecay     float64 `yaml:"threatDecay"`
		FleeRange       float64 `yaml:"fleeRange"`
		IgnoreRange     float64 `yaml:"ignoreRange"`
		DisruptionDecay float64 `yaml:"disruptionDecay"`
		Threshold       float64 `yaml:"threshold"`
	} `yaml:"cost"`

	Exploration struct {
		Coefficient   float64       `yaml:"coefficient"`
		MaxTimeSeconds float64      `yaml:"maxTimeSeconds"`
	} `yaml:"exploration"`

	Buffer struct {
		Capacity        int           `yaml:"capacity"`
		LockTimeoutSecs float64       `yaml:"lockTimeoutSeconds"`
	} `yaml:"buffer"`

	Trainer struct {
		IntervalSeconds float64 `yaml:"intervalSeconds"`
		BatchSize       int     `yaml:"batchSize"`
		SaveDir         string  `yaml:"saveDir"`
		SaveEveryNRuns  int     `yaml:"saveEveryNRuns"`
	} `yaml:"trainer"`

	Metrics struct {
		WindowSize       int `yaml:"windowSize"`
		WaitStreakWarnAt int `yaml:"waitStreakWarnAt"`
	} `yaml:"metrics"`
}

// Load reads and parses a YAML config file at path.
func Load(path string) (File, error) {
	var f File
	data, err := os.ReadFile(path)
	if err != nil {
		return f, fmt.Errorf("config: load: %v", err)
	}
	if err := yaml.Unmarshal(data, &f); err != nil {
		return f, fmt.Errorf("config: parse: %v", err)
	}
	return f, nil
}

// OrchestratorConfig builds an orchestrator.Config, starting from
// every sub-component's defaults and overlaying any non-zero value
// this file specifies.
func (f File) OrchestratorConfig() orchestrator.Config {
	cfg := orchestrator.DefaultConfig()

	if f.ExploreRate > 0 {
		cfg.ExploreRate = f.ExploreRate
	}

	if f.Cost.KillRange > 0 {
		cfg.Cost.KillRange = f.Cost.KillRange
	}
	if f.Cost.SafeRange > 0 {
		cfg.Cost.SafeRange = f.Cost.SafeRange
	}
	if f.Cost.ThreatDecay > 0 {
		cfg.Cost.ThreatDecay = f.Cost.ThreatDecay
	}
	if f.Cost.FleeRange > 0 {
		cfg.Cost.FleeRange = f.Cost.FleeRange
	}
	if f.Cost.IgnoreRange > 0 {
		cfg.Cost.IgnoreRange = f.Cost.IgnoreRange
	}
	if f.Cost.DisruptionDecay > 0 {
		cfg.Cost.DisruptionDecay = f.Cost.DisruptionDecay
	}
	if f.Cost.Threshold > 0 {
		cfg.Cost.Threshold = f.Cost.Threshold
		cfg.Simulation.Threshold = f.Cost.Threshold
	}

	if f.Exploration.Coefficient > 0 {
		cfg.Exploration.Coefficient = f.Exploration.Coefficient
	}
	if f.Exploration.MaxTimeSeconds > 0 {
		cfg.Exploration.MaxTime = time.Duration(f.Exploration.MaxTimeSeconds * float64(time.Second))
	}

	if f.Buffer.Capacity > 0 {
		cfg.Buffer.Capacity = f.Buffer.Capacity
	}
	if f.Buffer.LockTimeoutSecs > 0 {
		cfg.Buffer.LockTimeout = time.Duration(f.Buffer.LockTimeoutSecs * float64(time.Second))
	}

	if f.Metrics.WindowSize > 0 {
		cfg.Metrics.WindowSize = f.Metrics.WindowSize
	}
	if f.Metrics.WaitStreakWarnAt > 0 {
		cfg.Metrics.WaitStreakWarnAt = f.Metrics.WaitStreakWarnAt
	}

	return cfg
}

// NetworkHyperParams builds network.HyperParams, overlaying any
// learning rate and optimizer overrides.
func (f File) NetworkHyperParams() network.HyperParams {
	hp := network.DefaultHyperParams()
	if f.Network.LearningRate > 0 {
		hp.LearningRate = f.Network.LearningRate
	}
	if f.Network.Optimizer != "" {
		hp.Optimizer = qsolver.Type(f.Network.Optimizer)
	}
	return hp
}

// TrainerConfig builds trainer.Config, overlaying any override.
func (f File) TrainerConfig() trainer.Config {
	cfg := trainer.DefaultConfig()
	if f.Trainer.IntervalSeconds > 0 {
		cfg.Interval = time.Duration(f.Trainer.IntervalSeconds * float64(time.Second))
	}
	if f.Trainer.BatchSize > 0 {
		cfg.BatchSize = f.Trainer.BatchSize
	}
	if f.Trainer.SaveDir != "" {
		cfg.SaveDir = f.Trainer.SaveDir
	}
	if f.Trainer.SaveEveryNRuns > 0 {
		cfg.SaveEveryNRuns = f.Trainer.SaveEveryNRuns
	}
	return cfg
}
