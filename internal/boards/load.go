package boards

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jonathan/jobscout/internal/schemas"
	schemafiles "github.com/jonathan/jobscout/schemas"
	"gopkg.in/yaml.v3"
)

// ProfileFile is the on-disk format for extra board profiles.
type ProfileFile struct {
	Profiles []Profile `json:"profiles"`
}

// LoadFile reads board profiles from a JSON or YAML file (chosen by
// extension), validates the document against the board profiles schema and
// builds a Board per profile. Selector and URL mistakes surface here rather
// than during a search.
func LoadFile(path string) ([]*Board, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profiles file: %w", err)
	}
	return Parse(data, filepath.Ext(path))
}

// Parse decodes and validates profile file content. ext selects the format:
// ".yaml" and ".yml" are YAML, anything else is JSON.
func Parse(data []byte, ext string) ([]*Board, error) {
	var document interface{}
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &document); err != nil {
			return nil, fmt.Errorf("failed to parse profiles YAML: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &document); err != nil {
			return nil, fmt.Errorf("failed to parse profiles JSON: %w", err)
		}
	}

	if err := schemas.ValidateDocument(schemafiles.BoardProfiles, document); err != nil {
		return nil, fmt.Errorf("profiles file does not match schema: %w", err)
	}

	// Round-trip through JSON so YAML input shares the JSON decoders
	normalized, err := json.Marshal(document)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize profiles: %w", err)
	}
	var file ProfileFile
	if err := json.Unmarshal(normalized, &file); err != nil {
		return nil, fmt.Errorf("failed to decode profiles: %w", err)
	}

	boards := make([]*Board, 0, len(file.Profiles))
	seen := make(map[string]bool, len(file.Profiles))
	for _, p := range file.Profiles {
		if seen[p.Name] {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		seen[p.Name] = true

		b, err := New(p)
		if err != nil {
			return nil, err
		}
		boards = append(boards, b)
	}
	return boards, nil
}

// Sources converts boards to the Source interface.
func Sources(boards []*Board) []Source {
	out := make([]Source, len(boards))
	for i, b := range boards {
		out[i] = b
	}
	return out
}
