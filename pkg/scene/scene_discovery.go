package scene

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Scene types
const (
	TypeBuiltin = "builtin"
	TypeModel   = "model"
)

// ErrUnknownScene is returned for scene IDs that match nothing
var ErrUnknownScene = errors.New("scene: unknown scene")

// BuiltinGroup is the group name of scenes constructed in code
const BuiltinGroup = "Built-in Scenes"

// ModelExtensions lists the recognised model file suffixes, longest first
var ModelExtensions = []string{".in.gz", ".in.zst", ".in"}

// SceneInfo represents a discovered scene with its metadata
type SceneInfo struct {
	ID          string `json:"id"`          // Unique identifier
	Name        string `json:"name"`        // Scene name
	DisplayName string `json:"displayName"` // UI display name
	Description string `json:"description"` // Optional description
	Group       string `json:"group"`       // Grouping category
	Type        string `json:"type"`        // "builtin" or "model"
	FilePath    string `json:"filePath"`    // Path to model file (model type only)
	Variant     string `json:"variant"`     // Variant name (optional)
}

// SceneGroup represents a group of related scenes
type SceneGroup struct {
	Name   string      `json:"name"`
	Scenes []SceneInfo `json:"scenes"`
}

// ScenesResponse represents the complete scene listing
type ScenesResponse struct {
	Groups []SceneGroup `json:"groups"`
}

type builtinScene struct {
	info  SceneInfo
	build func(SubdivisionConfig) (*Model, error)
}

var builtinScenes = []builtinScene{
	{
		info: SceneInfo{
			ID:          "cornell",
			Name:        "Cornell Box",
			DisplayName: "Cornell Box",
			Description: "Cornell box with a short and a tall block",
			Group:       BuiltinGroup,
			Type:        TypeBuiltin,
		},
		build: NewCornellScene,
	},
	{
		info: SceneInfo{
			ID:          "cornell-empty",
			Name:        "Cornell Box",
			DisplayName: "Cornell Box - Empty",
			Description: "Cornell box without the blocks",
			Group:       BuiltinGroup,
			Type:        TypeBuiltin,
			Variant:     "Empty",
		},
		build: NewCornellEmptyScene,
	},
}

// BuiltinScenes returns the metadata of every scene constructed in code
func BuiltinScenes() []SceneInfo {
	infos := make([]SceneInfo, len(builtinScenes))
	for i, b := range builtinScenes {
		infos[i] = b.info
	}
	return infos
}

// NewBuiltinScene builds the built-in scene with the given ID
func NewBuiltinScene(id string, config SubdivisionConfig) (*Model, error) {
	for _, b := range builtinScenes {
		if b.info.ID == id {
			return b.build(config)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownScene, id)
}

// IsModelFile reports whether path has a recognised model file suffix
func IsModelFile(path string) bool {
	return trimModelExtension(filepath.Base(path)) != filepath.Base(path)
}

func trimModelExtension(name string) string {
	for _, ext := range ModelExtensions {
		if strings.HasSuffix(name, ext) {
			return strings.TrimSuffix(name, ext)
		}
	}
	return name
}

// ListModelScenes scans dir for model files and returns their metadata.
// A missing directory yields an empty list.
func ListModelScenes(dir string) ([]SceneInfo, error) {
	if _, err := os.Stat(dir); err != nil {
		return []SceneInfo{}, nil
	}

	var files []string
	for _, ext := range ModelExtensions {
		matches, err := filepath.Glob(filepath.Join(dir, "*"+ext))
		if err != nil {
			return nil, fmt.Errorf("failed to scan scenes directory: %w", err)
		}
		files = append(files, matches...)
	}

	scenes := []SceneInfo{}
	seen := make(map[string]bool)
	for _, filePath := range files {
		if seen[filePath] {
			continue
		}
		seen[filePath] = true

		sceneInfo, err := ParseModelMetadata(filePath)
		if err != nil {
			// Metadata is optional; keep the fallback values
			continue
		}
		scenes = append(scenes, sceneInfo)
	}

	sort.Slice(scenes, func(i, j int) bool {
		return scenes[i].DisplayName < scenes[j].DisplayName
	})

	return scenes, nil
}

// ParseModelMetadata extracts metadata from the header comments of a model
// file. Compressed files are not opened and keep the fallback values taken
// from the file name.
func ParseModelMetadata(filePath string) (SceneInfo, error) {
	nameWithoutExt := trimModelExtension(filepath.Base(filePath))

	sceneInfo := SceneInfo{
		ID:          "model:" + nameWithoutExt,
		Name:        titleCase(nameWithoutExt),
		DisplayName: titleCase(nameWithoutExt),
		Group:       "Model Files",
		Type:        TypeModel,
		FilePath:    filePath,
	}

	if !strings.HasSuffix(filePath, ".in") {
		return sceneInfo, nil
	}

	file, err := os.Open(filePath)
	if err != nil {
		// If we can't read the file, return with fallback values
		return sceneInfo, nil
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Stop parsing at first non-comment line
		if !strings.HasPrefix(line, "#") {
			break
		}

		content, ok := strings.CutPrefix(line, "# ")
		if !ok {
			continue
		}
		switch {
		case strings.HasPrefix(content, "Scene:"):
			sceneInfo.Name = strings.TrimSpace(strings.TrimPrefix(content, "Scene:"))
		case strings.HasPrefix(content, "Variant:"):
			sceneInfo.Variant = strings.TrimSpace(strings.TrimPrefix(content, "Variant:"))
		case strings.HasPrefix(content, "Description:"):
			sceneInfo.Description = strings.TrimSpace(strings.TrimPrefix(content, "Description:"))
		case strings.HasPrefix(content, "Group:"):
			sceneInfo.Group = strings.TrimSpace(strings.TrimPrefix(content, "Group:"))
		}
	}

	if sceneInfo.Variant != "" {
		sceneInfo.DisplayName = fmt.Sprintf("%s - %s", sceneInfo.Name, sceneInfo.Variant)
	} else {
		sceneInfo.DisplayName = sceneInfo.Name
	}

	return sceneInfo, scanner.Err()
}

// ListAllScenes returns both built-in and model file scenes, grouped by category
func ListAllScenes(dir string) (ScenesResponse, error) {
	var response ScenesResponse

	modelScenes, err := ListModelScenes(dir)
	if err != nil {
		return response, fmt.Errorf("failed to list model scenes: %w", err)
	}

	allScenes := append(BuiltinScenes(), modelScenes...)

	groupMap := make(map[string][]SceneInfo)
	for _, scene := range allScenes {
		groupMap[scene.Group] = append(groupMap[scene.Group], scene)
	}

	// Built-in first, then alphabetical
	var groupNames []string
	for groupName := range groupMap {
		if groupName != BuiltinGroup {
			groupNames = append(groupNames, groupName)
		}
	}
	sort.Strings(groupNames)

	if builtInGroup, exists := groupMap[BuiltinGroup]; exists {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   BuiltinGroup,
			Scenes: builtInGroup,
		})
	}
	for _, groupName := range groupNames {
		response.Groups = append(response.Groups, SceneGroup{
			Name:   groupName,
			Scenes: groupMap[groupName],
		})
	}

	return response, nil
}

// titleCase converts a filename-style string to title case
// e.g., "cornell-empty" -> "Cornell Empty"
func titleCase(s string) string {
	s = strings.ReplaceAll(s, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")

	words := strings.Fields(s)
	for i, word := range words {
		if len(word) > 0 {
			words[i] = strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
		}
	}

	return strings.Join(words, " ")
}
