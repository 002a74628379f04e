package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/privacy-cli/internal/pipeline"
	"github.com/sells-group/privacy-cli/internal/record"
	"github.com/sells-group/privacy-cli/internal/table"
)

const stockTemplate = "../templates/privacy.html"

func writeRecordsFile(t *testing.T, tree any) string {
	t.Helper()
	encoded, err := record.EncodePayload(tree)
	require.NoError(t, err)
	body, err := json.Marshal(map[string]any{"data": map[string]any{"records": encoded}})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, body, 0o644))
	return path
}

func TestPromptOrderID(t *testing.T) {
	var prompt strings.Builder
	id, err := promptOrderID(strings.NewReader("  IGT1128 \n"), &prompt)
	require.NoError(t, err)
	assert.Equal(t, "IGT1128", id)
	assert.Contains(t, prompt.String(), "Order id")

	id, err = promptOrderID(strings.NewReader(""), &prompt)
	require.NoError(t, err)
	assert.Empty(t, id)
}

func TestRunCommand_NoIDExitCode(t *testing.T) {
	_, err := executeCommand(t, "\n", "run")
	require.Error(t, err)
	assert.Equal(t, pipeline.ExitNoID, pipeline.ExitCode(err))
}

func TestRunCommand_OfflineNoPublish(t *testing.T) {
	records := writeRecordsFile(t, map[string]any{
		"recA": map[string]any{
			record.DefaultFields.OrderID: map[string]any{"value": []any{map[string]any{"text": "IGT1128"}}},
			record.DefaultFields.AppName: map[string]any{"value": []any{map[string]any{"text": "Bee Keeper"}}},
		},
	})
	work := t.TempDir()

	out, err := executeCommand(t, "", "run", "IGT1128",
		"--records-file", records,
		"--template", stockTemplate,
		"--work-dir", work,
		"--no-publish",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "App:     Bee Keeper")
	assert.NotContains(t, out, "Page URL:")

	html, err := os.ReadFile(filepath.Join(work, "privacy_policy.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "Bee Keeper")
	assert.FileExists(t, filepath.Join(work, "privacy_policy.txt"))
}

func TestRunCommand_DecodeFailureExitCode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "records.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"data":{"records":"!!not base64!!"}}`), 0o644))

	_, err := executeCommand(t, "", "run", "IGT1128",
		"--records-file", path,
		"--template", stockTemplate,
		"--work-dir", t.TempDir(),
		"--no-publish",
	)
	require.Error(t, err)
	assert.Equal(t, pipeline.ExitDecode, pipeline.ExitCode(err))
}

func TestRunCommand_TemplateMissingExitCode(t *testing.T) {
	records := writeRecordsFile(t, map[string]any{})
	_, err := executeCommand(t, "", "run", "IGT1128",
		"--records-file", records,
		"--template", filepath.Join(t.TempDir(), "nope.html"),
		"--no-publish",
	)
	require.Error(t, err)
	assert.Equal(t, pipeline.ExitTemplateMissing, pipeline.ExitCode(err))
}

func TestRunCommand_NoRecordsSourceExitCode(t *testing.T) {
	_, err := executeCommand(t, "", "run", "IGT1128",
		"--template", stockTemplate,
		"--work-dir", t.TempDir(),
		"--no-publish",
	)
	require.Error(t, err)
	assert.True(t, eris.Is(err, table.ErrNoSource))
	assert.Equal(t, pipeline.ExitNoData, pipeline.ExitCode(err))
}

func TestRunCommand_EmptyTableExitCode(t *testing.T) {
	records := writeRecordsFile(t, []any{})
	_, err := executeCommand(t, "", "run", "IGT1128",
		"--records-file", records,
		"--template", stockTemplate,
		"--work-dir", t.TempDir(),
		"--no-publish",
	)
	require.Error(t, err)
	assert.Equal(t, pipeline.ExitNoData, pipeline.ExitCode(err))
}

func TestRunCommand_NoPublishSkipsPagesConfig(t *testing.T) {
	t.Setenv("PRIVACY_PAGES_PUBLISHER", "ftp")
	records := writeRecordsFile(t, map[string]any{
		"recA": map[string]any{
			record.DefaultFields.OrderID: map[string]any{"value": []any{map[string]any{"text": "IGT1128"}}},
		},
	})

	_, err := executeCommand(t, "", "run", "IGT1128",
		"--records-file", records,
		"--template", stockTemplate,
		"--work-dir", t.TempDir(),
		"--no-publish",
	)
	require.NoError(t, err)

	_, err = executeCommand(t, "", "run", "IGT1128",
		"--records-file", records,
		"--template", stockTemplate,
		"--work-dir", t.TempDir(),
	)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pages.publisher")
}

func TestRenderCommand(t *testing.T) {
	dir := t.TempDir()
	htmlOut := filepath.Join(dir, "out.html")
	textOut := filepath.Join(dir, "out.txt")

	_, err := executeCommand(t, "", "render",
		"--template", stockTemplate,
		"--app", "Bee Keeper",
		"--company", "Acme Labs",
		"--email", "jane@x.com",
		"--out", htmlOut,
		"--text", textOut,
	)
	require.NoError(t, err)

	html, err := os.ReadFile(htmlOut)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Acme Labs")
	assert.Contains(t, string(html), "jane@x.com")

	text, err := os.ReadFile(textOut)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Bee Keeper")
	assert.NotContains(t, string(text), "<")
}

func TestPublishCommand_NoPush(t *testing.T) {
	repo := t.TempDir()
	content := filepath.Join(t.TempDir(), "policy.txt")
	require.NoError(t, os.WriteFile(content, []byte("Privacy Policy\n\nWe collect nothing."), 0o644))

	out, err := executeCommand(t, "", "publish",
		"--title", "Bee Keeper",
		"--id", "IGT1128",
		"--content-file", content,
		"--repo-dir", repo,
		"--no-push",
	)
	require.NoError(t, err)
	assert.Contains(t, out, "Page URL: ")
	assert.Contains(t, out, "pages/jfdvimjrgi4a-bee-keeper/")

	page, err := os.ReadFile(filepath.Join(repo, "pages", "jfdvimjrgi4a-bee-keeper", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(page), "We collect nothing.")
}
