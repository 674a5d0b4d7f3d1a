package cmd

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/towel808/towel"
	"github.com/towel808/towel/catalog"
	"github.com/towel808/towel/control"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Samples     string       `yaml:"samples"`     // sample directory, "" for ~/Music/Towel Tuned 808s
	RootNote    int          `yaml:"rootnote"`    // note the samples play unpitched at
	MaxDuration float64      `yaml:"maxduration"` // seconds kept from each sample, 0 for all
	SampleRate  int          `yaml:"samplerate"`
	Polyphony   int          `yaml:"polyphony"`
	MIDIInput   string       `yaml:"midiinput"` // prefix of the MIDI input device name
	Envelope    towel.Params `yaml:"envelope"`

	YmlError error `yaml:"-"`
}

//go:embed config.yml
var defaultConfigYaml []byte

func DefaultConfig() Config {
	var config Config
	if err := unmarshalStrict(defaultConfigYaml, &config); err != nil {
		panic(fmt.Errorf("failed to unmarshal config: %w", err))
	}
	return config
}

// ReadConfigFile overrides the fields of target that are present in the file
// at path.
func ReadConfigFile(path string, target *Config) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := unmarshalStrict(b, target); err != nil {
		return fmt.Errorf("%v: %w", path, err)
	}
	return nil
}

// LoadConfig returns the default config overridden by
// <UserConfigDir>/towel/config.yml if it exists. An unreadable user config is
// reported in YmlError.
func LoadConfig() Config {
	config := DefaultConfig()
	if configDir, err := os.UserConfigDir(); err == nil {
		err := ReadConfigFile(filepath.Join(configDir, "towel", "config.yml"), &config)
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			config.YmlError = err
		}
	}
	return config
}

// SampleDir returns the configured sample directory or the default one.
func (c Config) SampleDir() string {
	if c.Samples != "" {
		return c.Samples
	}
	if dir, err := catalog.DefaultPath(); err == nil {
		return dir
	}
	return catalog.DefaultFolder
}

func (c Config) Options() control.Options {
	return control.Options{RootNote: c.RootNote, MaxDuration: c.MaxDuration}
}

func unmarshalStrict(b []byte, target *Config) error {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	return dec.Decode(target)
}
