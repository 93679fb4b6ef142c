package cli

import (
	"fmt"
	"io"
	"os"

	gojson "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/docfilter/internal/models"
)

// readInput reads the named file, or stdin when name is "-" or missing
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", args[0], err)
	}
	return data, nil
}

func decodeRules(data []byte) ([]models.FilterRule, error) {
	var rules []models.FilterRule
	if err := gojson.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse filter rules: %w", err)
	}
	return rules, nil
}

func readRules(cmd *cobra.Command, args []string) ([]models.FilterRule, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return nil, err
	}
	return decodeRules(data)
}

func writeJSON(w io.Writer, v any) error {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
