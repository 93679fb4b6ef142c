package views

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	gojson "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

// Format is an export file format
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv"
)

// FormatFromPath infers the format from a file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".csv":
		return FormatCSV, nil
	}
	return "", fmt.Errorf("unsupported export format: %q", filepath.Ext(path))
}

// Export writes views to path in the given format
func Export(views []SavedView, path string, format Format) error {
	switch format {
	case FormatJSON:
		return ExportToJSON(views, path)
	case FormatYAML:
		return ExportToYAML(views, path)
	case FormatCSV:
		return ExportToCSV(views, path)
	}
	return fmt.Errorf("unsupported export format: %q", format)
}

// ExportToJSON exports views to a JSON file
func ExportToJSON(views []SavedView, path string) error {
	if views == nil {
		views = []SavedView{}
	}
	data, err := gojson.MarshalIndent(views, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal views to JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}

// ExportToYAML exports views to a YAML file
func ExportToYAML(views []SavedView, path string) error {
	if views == nil {
		views = []SavedView{}
	}
	data, err := yaml.Marshal(views)
	if err != nil {
		return fmt.Errorf("failed to marshal views to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write YAML file: %w", err)
	}
	return nil
}

// ExportToCSV exports views to a CSV file, one row per view with the rule list as JSON
func ExportToCSV(views []SavedView, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)

	header := []string{"ID", "Name", "Rule Count", "Rules", "Created", "Updated"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, v := range views {
		rules, err := encodeRules(v.Rules)
		if err != nil {
			return err
		}
		row := []string{
			v.ID,
			v.Name,
			strconv.Itoa(len(v.Rules)),
			rules,
			v.CreatedAt.Format("2006-01-02 15:04:05"),
			v.UpdatedAt.Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	return writer.Error()
}

// Import reads views previously written by ExportToJSON or ExportToYAML
func Import(path string) ([]SavedView, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}

	var views []SavedView
	switch format {
	case FormatJSON:
		err = gojson.Unmarshal(data, &views)
	case FormatYAML:
		err = yaml.Unmarshal(data, &views)
	default:
		return nil, fmt.Errorf("cannot import %s files", format)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return views, nil
}
