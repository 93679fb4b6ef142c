package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/docfilter/internal/filter"
	"github.com/rebeliceyang/docfilter/internal/models"
)

// testEnv points the CLI at a config file whose view database lives in a
// temporary directory
func testEnv(t *testing.T) (dir, configPath string) {
	t.Helper()
	dir = t.TempDir()
	configPath = filepath.Join(dir, "config.yaml")
	content := "views:\n  path: " + filepath.Join(dir, "views.db") + "\nlog:\n  level: error\n"
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))
	return dir, configPath
}

func execute(t *testing.T, configPath, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(VersionInfo{Version: "1.2.3", Commit: "abc"})

	var out, errOut bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", configPath}, args...))

	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestVersionCommand(t *testing.T) {
	_, cfg := testEnv(t)

	out, err := execute(t, cfg, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "docfilter 1.2.3 (abc)\n", out)
}

func TestRootCommand_RejectsBadLogLevel(t *testing.T) {
	_, cfg := testEnv(t)

	_, err := execute(t, cfg, "", "--log-level", "loud", "version")
	assert.Error(t, err)
}

func TestRulesDecode_PrintsSnapshot(t *testing.T) {
	_, cfg := testEnv(t)

	out, err := execute(t, cfg, `[{"rule_type":6,"value":"1"},{"rule_type":0,"value":"invoice"}]`, "rules", "decode")
	require.NoError(t, err)

	assert.Contains(t, out, "text_filter: invoice")
	assert.Contains(t, out, "text_target: title")
	assert.Contains(t, out, "tags:")
	assert.Contains(t, out, "- 1")
}

func TestRulesDecodeEncode_RoundTrip(t *testing.T) {
	dir, cfg := testEnv(t)
	rules := `[
		{"rule_type":22,"value":"4"},
		{"rule_type":17,"value":"9"},
		{"rule_type":4,"value":null},
		{"rule_type":42,"value":"[\"OR\",[[3,\"gt\",10],[4,\"exists\",true]]]"},
		{"rule_type":9,"value":"2024-01-31"}
	]`

	snapshot, err := execute(t, cfg, rules, "rules", "decode")
	require.NoError(t, err)
	snapPath := writeFile(t, dir, "snap.yaml", snapshot)

	out, err := execute(t, cfg, "", "rules", "encode", snapPath)
	require.NoError(t, err)

	got, err := decodeRules([]byte(out))
	require.NoError(t, err)
	want, err := decodeRules([]byte(rules))
	require.NoError(t, err)
	assert.True(t, filter.RulesEqual(want, got), "got %v", got)
}

func TestRulesEncode_RejectsBadSnapshot(t *testing.T) {
	_, cfg := testEnv(t)

	_, err := execute(t, cfg, "query: '{\"x\":1}'\n", "rules", "encode", "-")
	assert.Error(t, err)
}

func TestRulesNormalize_OrdersAndDropsUnusableRules(t *testing.T) {
	_, cfg := testEnv(t)

	out, err := execute(t, cfg, `[{"rule_type":22,"value":"4"},{"rule_type":3,"value":"abc"},{"rule_type":0,"value":"x"}]`, "rules", "normalize")
	require.NoError(t, err)

	got, err := decodeRules([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []models.FilterRule{
		models.NewRule(models.FilterTitle, "x"),
		models.NewRule(models.FilterHasTagsAny, "4"),
	}, got)
}

func TestRulesDiff(t *testing.T) {
	dir, cfg := testEnv(t)
	saved := writeFile(t, dir, "saved.json", `[{"rule_type":0,"value":"x"},{"rule_type":22,"value":"4"}]`)
	reordered := writeFile(t, dir, "reordered.json", `[{"rule_type":22,"value":"4"},{"rule_type":0,"value":"x"}]`)
	changed := writeFile(t, dir, "changed.json", `[{"rule_type":0,"value":"y"}]`)

	out, err := execute(t, cfg, "", "rules", "diff", saved, reordered)
	require.NoError(t, err)
	assert.Equal(t, "unchanged\n", out)

	out, err = execute(t, cfg, "", "rules", "diff", saved, changed)
	require.NoError(t, err)
	assert.Equal(t, "modified\n", out)
}

func TestQueryValidate(t *testing.T) {
	dir, cfg := testEnv(t)
	fields := writeFile(t, dir, "fields.yaml", `
- id: 1
  name: Invoice number
  data_type: string
- id: 2
  name: Amount
  data_type: integer
`)

	tests := []struct {
		name    string
		query   string
		wantOut string
		wantErr bool
	}{
		{
			name:    "bare atom is wrapped",
			query:   `[2,"gt",10]`,
			wantOut: `valid: ["AND",[[2,"gt",10]]]`,
		},
		{
			name:    "operator not allowed",
			query:   `["AND",[[1,"gt",10]]]`,
			wantOut: `operator "gt" is not allowed for string field "Invoice number"`,
			wantErr: true,
		},
		{
			name:    "unknown field",
			query:   `["OR",[[7,"exists",true]]]`,
			wantOut: "unknown custom field 7",
			wantErr: true,
		},
		{
			name:    "too many atoms",
			query:   `["AND",[[2,"exists",true],[2,"gt",1],[2,"gt",2],[2,"gt",3],[2,"gt",4],[2,"gt",5]]]`,
			wantOut: "query exceeds depth 4 or 5 atoms: 1 nodes dropped",
			wantErr: true,
		},
		{
			name:    "too deep",
			query:   `["AND",[["OR",[["AND",[["OR",[["AND",[[2,"exists",true]]]]]]]]]]]`,
			wantOut: "1 nodes dropped",
			wantErr: true,
		},
		{
			name:    "incomplete atom",
			query:   `["AND",[[2,"gt",null]]]`,
			wantOut: "is incomplete",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := execute(t, cfg, "", "query", "validate", "--fields", fields, tt.query)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidQuery)
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestQueryValidate_RejectsMalformedWire(t *testing.T) {
	_, cfg := testEnv(t)

	_, err := execute(t, cfg, "", "query", "validate", `{"AND":1}`)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidQuery)
}

func TestQueryOperators(t *testing.T) {
	_, cfg := testEnv(t)

	out, err := execute(t, cfg, "", "query", "operators", "integer")
	require.NoError(t, err)
	assert.Contains(t, out, "OPERATOR")
	assert.Contains(t, out, "gte")
	assert.NotContains(t, out, "icontains")
}

func TestViewCommands(t *testing.T) {
	dir, cfg := testEnv(t)

	_, err := execute(t, cfg, `[{"rule_type":0,"value":"invoice"}]`, "view", "save", "Invoices")
	require.NoError(t, err)
	_, err = execute(t, cfg, `[{"rule_type":22,"value":"4"}]`, "view", "save", "Tagged", "-")
	require.NoError(t, err)

	out, err := execute(t, cfg, "", "view", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoices")
	assert.Contains(t, out, "Tagged")

	out, err = execute(t, cfg, "", "view", "show", "Invoices")
	require.NoError(t, err)
	got, err := decodeRules([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []models.FilterRule{models.NewRule(models.FilterTitle, "invoice")}, got)

	out, err = execute(t, cfg, "", "view", "show", "--snapshot", "Tagged")
	require.NoError(t, err)
	assert.Contains(t, out, "tags:")

	exportPath := filepath.Join(dir, "views.json")
	out, err = execute(t, cfg, "", "view", "export", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "exported 2 views")

	_, err = execute(t, cfg, "", "view", "delete", "Invoices")
	require.NoError(t, err)
	_, err = execute(t, cfg, "", "view", "show", "Invoices")
	assert.Error(t, err)

	out, err = execute(t, cfg, "", "view", "import", exportPath)
	require.NoError(t, err)
	assert.Contains(t, out, "imported 2 views")

	out, err = execute(t, cfg, "", "view", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "Invoices")
}

func TestViewSave_Normalize(t *testing.T) {
	_, cfg := testEnv(t)

	_, err := execute(t, cfg, `[{"rule_type":3,"value":"abc"},{"rule_type":0,"value":"x"}]`, "view", "save", "--normalize", "Clean")
	require.NoError(t, err)

	out, err := execute(t, cfg, "", "view", "show", "Clean")
	require.NoError(t, err)
	got, err := decodeRules([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []models.FilterRule{models.NewRule(models.FilterTitle, "x")}, got)
}

func TestItemsCommand_OrdersByDocumentCount(t *testing.T) {
	dir, cfg := testEnv(t)
	items := writeFile(t, dir, "items.yaml", `
- {id: 10, name: Other}
- {id: 1, name: Root}
- {id: 2, name: Child, parent: 1}
`)
	counts := writeFile(t, dir, "counts.yaml", `
- {id: 1, document_count: 2}
- {id: 2, document_count: 0}
- {id: 10, document_count: 0}
`)

	out, err := execute(t, cfg, "", "items", "tags", items, "--counts", counts)
	require.NoError(t, err)

	root := strings.Index(out, "Root")
	child := strings.Index(out, "  Child")
	other := strings.Index(out, "Other")
	require.True(t, root > 0 && child > 0 && other > 0, out)
	assert.Less(t, root, child)
	assert.Less(t, child, other)
}

func TestItemsCommand_SelectedBranchFirst(t *testing.T) {
	dir, cfg := testEnv(t)
	items := writeFile(t, dir, "items.json", `[{"id":1,"name":"Busy"},{"id":2,"name":"Quiet"}]`)
	counts := writeFile(t, dir, "counts.json", `[{"id":1,"document_count":40},{"id":2,"document_count":1}]`)
	rules := writeFile(t, dir, "rules.json", `[{"rule_type":22,"value":"2"}]`)

	out, err := execute(t, cfg, "", "items", "tags", items, "--counts", counts, "--rules", rules)
	require.NoError(t, err)

	assert.Less(t, strings.Index(out, "Quiet"), strings.Index(out, "Busy"))
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Quiet") {
			assert.True(t, strings.HasPrefix(line, "selected"), line)
		}
	}
}

func TestItemsCommand_UnknownDimension(t *testing.T) {
	dir, cfg := testEnv(t)
	items := writeFile(t, dir, "items.yaml", "[]")

	_, err := execute(t, cfg, "", "items", "owner", items)
	assert.Error(t, err)
}
