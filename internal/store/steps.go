package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// StepName identifies an orchestrator stage whose output is kept on disk
// for debugging.
type StepName string

const (
	StepKeywords StepName = "keywords"
	StepSearch   StepName = "search_results"
	StepLeads    StepName = "scored_leads"
	StepReports  StepName = "reports"
	// StepRendered holds HTML renderings of reports.
	StepRendered StepName = "rendered_reports"
)

// stepDir returns the cache directory for a given step under root.
func stepDir(root string, step StepName) string {
	return filepath.Join(root, string(step))
}

// generateFilename creates a sortable timestamped filename. The random
// suffix keeps two writes in the same millisecond apart.
func generateFilename(ext string) string {
	return time.Now().Format("2006-01-02T15-04-05.000") + "-" + uuid.NewString()[:8] + ext
}

// SaveStepOutput saves JSON-serializable data to the step's cache directory.
// Returns the path to the saved file.
func SaveStepOutput[T any](root string, step StepName, data T) (string, error) {
	dir := stepDir(root, step)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create step cache dir: %w", err)
	}

	path := filepath.Join(dir, generateFilename(".json"))

	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal step output: %w", err)
	}

	if err := os.WriteFile(path, jsonData, 0644); err != nil {
		return "", fmt.Errorf("failed to write step output: %w", err)
	}

	return path, nil
}

// SaveTextOutput saves text content (e.g. a rendered report) to the step's
// cache directory. Returns the path to the saved file.
func SaveTextOutput(root string, step StepName, content string, ext string) (string, error) {
	dir := stepDir(root, step)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create step cache dir: %w", err)
	}

	path := filepath.Join(dir, generateFilename(ext))

	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write step output: %w", err)
	}

	return path, nil
}

// LoadLatestStepOutput loads the most recent output from a step's cache directory.
// Returns the data, the filepath it was loaded from, and any error.
func LoadLatestStepOutput[T any](root string, step StepName) (T, string, error) {
	var zero T

	latestPath, err := LatestStepFile(root, step)
	if err != nil {
		return zero, "", err
	}

	data, err := LoadStepOutput[T](latestPath)
	if err != nil {
		return zero, "", err
	}

	return data, latestPath, nil
}

// LoadStepOutput loads JSON data from a specific file path.
func LoadStepOutput[T any](path string) (T, error) {
	var data T

	jsonData, err := os.ReadFile(path)
	if err != nil {
		return data, fmt.Errorf("failed to read step output: %w", err)
	}

	if err := json.Unmarshal(jsonData, &data); err != nil {
		return data, fmt.Errorf("failed to unmarshal step output: %w", err)
	}

	return data, nil
}

// LatestStepFile returns the path to the most recent file in a step's cache directory.
func LatestStepFile(root string, step StepName) (string, error) {
	dir := stepDir(root, step)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("no cached output for step %s", step)
		}
		return "", err
	}

	// os.ReadDir sorts by name, which is chronological for our timestamps
	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}

	if len(files) == 0 {
		return "", fmt.Errorf("no cached output for step %s", step)
	}

	return filepath.Join(dir, files[len(files)-1]), nil
}
