package main

import (
	"os"

	"gopkg.in/yaml.v3"
)

// fileConfig is the optional on-disk overlay for flags a user wants to
// keep fixed across invocations rather than retype every time.
type fileConfig struct {
	ControlROM string `yaml:"control_rom"`
	PCMROM     string `yaml:"pcm_rom"`
	AnalogMode string `yaml:"analog_mode"`
	ReverbMode string `yaml:"reverb_mode"`
	ReverbTime int     `yaml:"reverb_time"`
	ReverbLvl  int     `yaml:"reverb_level"`
	Model      string `yaml:"model"`
}

func loadFileConfig(path string) (fileConfig, error) {
	var cfg fileConfig
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
