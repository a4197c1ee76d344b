package scene

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestTitleCase(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"cornell-empty", "Cornell Empty"},
		{"two_rooms", "Two Rooms"},
		{"simple", "Simple"},
		{"UPPER-case", "Upper Case"},
		{"mixed_Case-string", "Mixed Case String"},
		{"", ""},
	}

	for _, test := range tests {
		result := titleCase(test.input)
		if result != test.expected {
			t.Errorf("titleCase(%q) = %q, expected %q", test.input, result, test.expected)
		}
	}
}

func TestParseModelMetadata(t *testing.T) {
	tempDir := t.TempDir()

	testFile := filepath.Join(tempDir, "test-scene.in")
	content := `# Scene: Test Room
# Variant: Bright
# Description: A test scene for metadata parsing
# Group: Test Scenes

surface white 0.73 0.73 0.73 0 0 0
quad white 0 0 0  1 0 0  1 1 0  0 1 0
`
	if err := os.WriteFile(testFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	sceneInfo, err := ParseModelMetadata(testFile)
	if err != nil {
		t.Fatalf("Failed to parse metadata: %v", err)
	}

	expected := SceneInfo{
		ID:          "model:test-scene",
		Name:        "Test Room",
		DisplayName: "Test Room - Bright",
		Description: "A test scene for metadata parsing",
		Group:       "Test Scenes",
		Type:        TypeModel,
		FilePath:    testFile,
		Variant:     "Bright",
	}
	if sceneInfo != expected {
		t.Errorf("Expected %+v, got %+v", expected, sceneInfo)
	}
}

func TestParseModelMetadata_EdgeCases(t *testing.T) {
	tempDir := t.TempDir()

	tests := []struct {
		name            string
		fileName        string
		content         string
		wantName        string
		wantDisplayName string
		wantGroup       string
	}{
		{
			name:            "no metadata",
			fileName:        "plain-room.in",
			content:         "surface white 0.5 0.5 0.5 0 0 0\n",
			wantName:        "Plain Room",
			wantDisplayName: "Plain Room",
			wantGroup:       "Model Files",
		},
		{
			name:            "metadata stops at first directive",
			fileName:        "late.in",
			content:         "# Scene: Early\nsubdivide 10 5\n# Group: Ignored\n",
			wantName:        "Early",
			wantDisplayName: "Early",
			wantGroup:       "Model Files",
		},
		{
			name:            "comment without space is ignored",
			fileName:        "tight.in",
			content:         "#Scene: Tight\n# Group: Spaced\n",
			wantName:        "Tight",
			wantDisplayName: "Tight",
			wantGroup:       "Spaced",
		},
		{
			name:            "compressed file keeps fallback",
			fileName:        "big_room.in.gz",
			content:         "not really gzip",
			wantName:        "Big Room",
			wantDisplayName: "Big Room",
			wantGroup:       "Model Files",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(tempDir, tt.fileName)
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatalf("Failed to create test file: %v", err)
			}
			info, err := ParseModelMetadata(path)
			if err != nil {
				t.Fatalf("Failed to parse metadata: %v", err)
			}
			if info.Name != tt.wantName {
				t.Errorf("Name = %q, want %q", info.Name, tt.wantName)
			}
			if info.DisplayName != tt.wantDisplayName {
				t.Errorf("DisplayName = %q, want %q", info.DisplayName, tt.wantDisplayName)
			}
			if info.Group != tt.wantGroup {
				t.Errorf("Group = %q, want %q", info.Group, tt.wantGroup)
			}
		})
	}
}

func TestListModelScenes_EmptyDirectory(t *testing.T) {
	scenes, err := ListModelScenes(filepath.Join(t.TempDir(), "missing"))
	if err != nil {
		t.Fatalf("Expected no error for missing directory, got: %v", err)
	}
	if len(scenes) != 0 {
		t.Errorf("Expected 0 scenes, got %d", len(scenes))
	}
}

func TestListModelScenes(t *testing.T) {
	tempDir := t.TempDir()
	files := map[string]string{
		"b-room.in":     "# Scene: B Room\n",
		"a-room.in.zst": "",
		"notes.txt":     "# Scene: Not A Model\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(tempDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("Failed to create %s: %v", name, err)
		}
	}

	scenes, err := ListModelScenes(tempDir)
	if err != nil {
		t.Fatalf("ListModelScenes failed: %v", err)
	}
	if len(scenes) != 2 {
		t.Fatalf("Expected 2 scenes, got %d: %+v", len(scenes), scenes)
	}
	if scenes[0].DisplayName != "A Room" || scenes[1].DisplayName != "B Room" {
		t.Errorf("Scenes not sorted by display name: %q, %q", scenes[0].DisplayName, scenes[1].DisplayName)
	}
}

func TestListAllScenes(t *testing.T) {
	tempDir := t.TempDir()

	testFile := filepath.Join(tempDir, "test.in")
	content := "# Scene: Test Scene\n# Group: Test Group\n"
	if err := os.WriteFile(testFile, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	response, err := ListAllScenes(tempDir)
	if err != nil {
		t.Fatalf("Failed to list all scenes: %v", err)
	}

	if len(response.Groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(response.Groups))
	}

	// Built-in scenes come first
	if response.Groups[0].Name != BuiltinGroup {
		t.Errorf("Expected first group to be %q, got %q", BuiltinGroup, response.Groups[0].Name)
	}
	if len(response.Groups[0].Scenes) != len(BuiltinScenes()) {
		t.Errorf("Expected %d built-in scenes, got %d", len(BuiltinScenes()), len(response.Groups[0].Scenes))
	}

	testGroup := response.Groups[1]
	if testGroup.Name != "Test Group" {
		t.Errorf("Expected second group to be 'Test Group', got %q", testGroup.Name)
	}
	if len(testGroup.Scenes) != 1 || testGroup.Scenes[0].Name != "Test Scene" {
		t.Errorf("Unexpected scenes in test group: %+v", testGroup.Scenes)
	}
}

func TestIsModelFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"room.in", true},
		{"dir/room.in.gz", true},
		{"room.in.zst", true},
		{"room.out", false},
		{"room.ply", false},
		{"inroom", false},
	}
	for _, tt := range tests {
		if got := IsModelFile(tt.path); got != tt.want {
			t.Errorf("IsModelFile(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestNewBuiltinScene(t *testing.T) {
	coarse := SubdivisionConfig{ShooterSize: 300, GathererSize: 150}
	for _, info := range BuiltinScenes() {
		t.Run(info.ID, func(t *testing.T) {
			m, err := NewBuiltinScene(info.ID, coarse)
			if err != nil {
				t.Fatalf("NewBuiltinScene(%q) failed: %v", info.ID, err)
			}
			if m.Name != info.ID {
				t.Errorf("model name = %q, want %q", m.Name, info.ID)
			}
		})
	}

	if _, err := NewBuiltinScene("no-such-scene", coarse); !errors.Is(err, ErrUnknownScene) {
		t.Errorf("expected ErrUnknownScene, got %v", err)
	}
}
