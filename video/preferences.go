package video

import (
	_ "embed"
	"fmt"
	"image/color"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

type (
	Preferences struct {
		SampleRate int
		// OscilloscopeWindow is the length of the waveform shown per
		// channel, in seconds.
		OscilloscopeWindow float64
		IconTextSpacing    int
		Watermark          string
		Theme              Theme
		Encoder            EncoderPreferences
		YmlError           error `yaml:"-"`
	}

	Theme struct {
		Background     color.NRGBA `yaml:",flow"`
		Neutral        color.NRGBA `yaml:",flow"`
		IconBackground color.NRGBA `yaml:",flow"`
		GridLine       color.NRGBA `yaml:",flow"`
		Gradient       color.NRGBA `yaml:",flow"`
		Text           color.NRGBA `yaml:",flow"`
		Watermark      color.NRGBA `yaml:",flow"`
	}

	// EncoderPreferences is the external encoder command. Each argument is a
	// text/template (with the sprig functions) executed with EncodeParams;
	// arguments that expand to an empty string are dropped.
	EncoderPreferences struct {
		Command string
		Args    []string
	}
)

//go:embed preferences.yml
var defaultPreferencesYaml []byte

func loadDefaultPreferences() Preferences {
	var preferences Preferences
	err := yaml.UnmarshalStrict(defaultPreferencesYaml, &preferences)
	if err != nil {
		panic(fmt.Errorf("failed to unmarshal preferences: %w", err))
	}
	return preferences
}

// ReadCustomConfigYml modifies the target argument, i.e. needs a pointer
func ReadCustomConfigYml(filename string, target interface{}) (exists bool, err error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return false, err
	}
	path := filepath.Join(configDir, "famiscope", filename)
	bytes, err2 := os.ReadFile(path)
	if err2 != nil {
		return false, err2
	}
	err = yaml.UnmarshalStrict(bytes, target)
	return true, err
}

// MakePreferences returns the default preferences overlaid with the user's
// preferences.yml, if there is one. A malformed user file is reported in
// YmlError.
func MakePreferences() Preferences {
	preferences := loadDefaultPreferences()
	exists, err := ReadCustomConfigYml("preferences.yml", &preferences)
	if exists {
		preferences.YmlError = err
	}
	return preferences
}

// DefaultPreferences returns the built-in preferences, ignoring the user's
// configuration directory.
func DefaultPreferences() Preferences {
	return loadDefaultPreferences()
}
