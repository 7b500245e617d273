package config

import (
	"errors"
	"reflect"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// RunConfig is the resolved configuration for one deployment run,
// built once at startup and read-only afterwards. Macro expansion
// always works on a copy of ProgrammingScript.
type RunConfig struct {
	TmpDir            string   `mapstructure:"tmp_dir"`
	Vivado            string   `mapstructure:"vivado"`
	PCIDevice         string   `mapstructure:"pci_device"`
	ProgrammingScript []string `mapstructure:"programming_script"`

	// Resolved from the command line, not the config file.
	Bitstream string
	HotReset  bool
}

// Load decodes the already-read viper state into a RunConfig and
// validates it against what this run needs.
func Load(v *viper.Viper, bitstream string, hotReset bool) (*RunConfig, error) {
	cfg := &RunConfig{Bitstream: bitstream, HotReset: hotReset}
	if err := v.Unmarshal(cfg, viper.DecodeHook(scriptBlockHook())); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *RunConfig) validate() error {
	if c.TmpDir == "" {
		return errors.New("tmp_dir is not set")
	}
	if c.Vivado == "" {
		return errors.New("vivado is not set")
	}
	if len(c.ProgrammingScript) == 0 {
		return errors.New("programming_script is empty")
	}
	if c.HotReset && c.PCIDevice == "" {
		return errors.New("pci_device is required for a hot reset")
	}
	return nil
}

// scriptBlockHook lets programming_script be written either as a list
// or as one multi-line block. The block form is split into lines with
// trailing carriage returns stripped; blank trailing lines are kept
// out of the script.
func scriptBlockHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Kind, to reflect.Kind, data interface{}) (interface{}, error) {
		if from != reflect.String || to != reflect.Slice {
			return data, nil
		}
		block := strings.TrimRight(data.(string), "\r\n")
		if block == "" {
			return []string{}, nil
		}
		lines := strings.Split(block, "\n")
		for i, line := range lines {
			lines[i] = strings.TrimRight(line, "\r")
		}
		return lines, nil
	}
}
