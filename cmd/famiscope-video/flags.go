package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/famiscope/famiscope"
	"github.com/famiscope/famiscope/gomidi"
	"gopkg.in/yaml.v3"
)

type projectInfo struct {
	*famiscope.Project
}

func (p projectInfo) numChannels(song int) int {
	if song < 0 || song >= len(p.Songs) {
		return 0
	}
	return len(p.Songs[song].Channels)
}

// loadProject reads a .mid file through the MIDI importer and anything else
// as a .json or .yml project.
func loadProject(filename string) (*famiscope.Project, error) {
	if ext := strings.ToLower(filepath.Ext(filename)); ext == ".mid" || ext == ".midi" {
		return gomidi.Import(filename)
	}
	inputBytes, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("could not read file %v: %w", filename, err)
	}
	var project famiscope.Project
	if errJSON := json.Unmarshal(inputBytes, &project); errJSON != nil {
		project = famiscope.Project{}
		if errYaml := yaml.Unmarshal(inputBytes, &project); errYaml != nil {
			return nil, fmt.Errorf("the project could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	if err := project.Validate(); err != nil {
		return nil, err
	}
	return &project, nil
}

func parseResolution(s string) (width, height int, err error) {
	w, h, ok := strings.Cut(strings.ToLower(s), "x")
	if ok {
		if width, err = strconv.Atoi(w); err == nil {
			height, err = strconv.Atoi(h)
		}
	}
	if !ok || err != nil || width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("invalid resolution %q, expected WIDTHxHEIGHT", s)
	}
	return width, height, nil
}

// parseMask parses a channel mask in any base strconv understands; an empty
// string selects all channels.
func parseMask(s string, numChannels int) (uint, error) {
	if s == "" {
		return 1<<uint(numChannels) - 1, nil
	}
	m, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid channel mask %q: %w", s, err)
	}
	return uint(m), nil
}

func parsePan(s string) ([]float32, error) {
	if s == "" {
		return nil, nil
	}
	var pans []float32
	for _, f := range strings.Split(s, ",") {
		p, err := strconv.ParseFloat(strings.TrimSpace(f), 32)
		if err != nil || p < 0 || p > 1 {
			return nil, fmt.Errorf("invalid pan position %q, expected a value between 0 and 1", f)
		}
		pans = append(pans, float32(p))
	}
	return pans, nil
}
