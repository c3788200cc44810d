// Command validate checks the game type descriptors in the ../catalog
// directory (or the directory given as the first argument). It checks:
//   - JSON structure and required fields
//   - game_type is a lowercase slug matching the file name
//   - max_players is within the supported range
//   - No two files declare the same game type
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"github.com/wricardo/gameroom/game/catalog"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Messages contains informational lines; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File     string
	GameType string
	Valid    bool
	Messages []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Messages = append(r.Messages, fmt.Sprintf(format, args...))
}

// validateDescriptor loads and validates a single descriptor file
func validateDescriptor(filePath string) ValidationResult {
	result := ValidationResult{
		File:     filepath.Base(filePath),
		Valid:    true,
		Messages: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var d catalog.Descriptor
	if err := json.Unmarshal(data, &d); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}
	result.GameType = d.GameType

	if err := catalog.Validate(&d); err != nil {
		result.fail("%v", err)
	}

	expected := strings.TrimSuffix(result.File, filepath.Ext(result.File))
	if d.GameType != "" && d.GameType != expected {
		result.fail("game_type %q does not match file name %s", d.GameType, result.File)
	}

	if result.Valid {
		result.Messages = append(result.Messages, fmt.Sprintf("✓ Game type: %s", d.GameType))
		result.Messages = append(result.Messages, fmt.Sprintf("✓ Title: %s", d.Title))
		result.Messages = append(result.Messages, fmt.Sprintf("✓ Max players: %d", d.MaxPlayers))
		if d.Instructions == "" {
			result.Messages = append(result.Messages, "✓ Instructions: none")
		}
	}

	return result
}

// validateDir validates every *.json file in dir and flags game types
// declared by more than one file
func validateDir(dir string) ([]ValidationResult, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no descriptors found in %s", dir)
	}

	results := make([]ValidationResult, 0, len(files))
	seen := make(map[string]string)
	for _, file := range files {
		result := validateDescriptor(file)
		if result.GameType != "" {
			if first, dup := seen[result.GameType]; dup {
				result.fail("game_type %q already declared by %s", result.GameType, first)
			} else {
				seen[result.GameType] = result.File
			}
		}
		results = append(results, result)
	}
	return results, nil
}

// main validates the catalog, printing a concise report and exiting with
// non-zero status if any descriptor is invalid.
func main() {
	dir := "../catalog"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	results, err := validateDir(dir)
	if err != nil {
		fmt.Printf("Error finding descriptors: %v\n", err)
		os.Exit(1)
	}

	allValid := true
	for _, result := range results {
		fmt.Printf("\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Println("✅ VALID")
			for _, info := range result.Messages {
				fmt.Println("  " + info)
			}
		} else {
			fmt.Println("❌ INVALID")
			allValid = false
			for _, msg := range result.Messages {
				fmt.Println("  ❌ " + msg)
			}
		}
	}

	fmt.Printf("\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Printf("✅ All %d descriptors are valid!\n", len(results))
	} else {
		fmt.Println("❌ Some descriptors have errors")
		os.Exit(1)
	}
}
