package tablecycle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/alecthomas/assert/v2"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "tablecycle.yaml")
	err := os.WriteFile(path, []byte(content), 0o644)
	assert.NoError(t, err)

	return path
}

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	config, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.NoError(t, err)
	assert.Equal(t, "postgres", config.Dialect)
	assert.Equal(t, 30, config.Rotation.RetentionDays)
	assert.Equal(t, "table", config.Compare.Format)
	assert.Equal(t, 500, config.Copy.BatchSize)
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `
dialect: sqlite
databases:
  development:
    connection: "sqlite://./dev.db"
    schema: main
rotation:
  date_column: created_at
  retention_days: 7
compare:
  primary_key: id
  format: json
copy:
  batch_size: 100
`)

	config, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "sqlite", config.Dialect)
	assert.Equal(t, "created_at", config.Rotation.DateColumn)
	assert.Equal(t, 7, config.Rotation.RetentionDays)
	assert.Equal(t, "id", config.Compare.PrimaryKey)
	assert.Equal(t, "json", config.Compare.Format)
	assert.Equal(t, 100, config.Copy.BatchSize)

	db, exists := config.Databases["development"]
	assert.True(t, exists)
	assert.Equal(t, "sqlite://./dev.db", db.Connection)
	assert.Equal(t, "main", db.Schema)
}

func TestLoadConfigAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
databases:
  development:
    connection: "postgres://localhost/dev"
`)

	config, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "postgres", config.Dialect)
	assert.Equal(t, "table", config.Compare.Format)
	assert.Equal(t, 500, config.Copy.BatchSize)
}

func TestLoadConfigRejectsUnknownFields(t *testing.T) {
	path := writeConfig(t, `
dialect: postgres
retention_rotation:
  days: 7
`)

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{
			name: "invalid dialect",
			content: `
dialect: oracle
`,
		},
		{
			name: "missing connection",
			content: `
databases:
  development:
    schema: public
`,
		},
		{
			name: "negative retention",
			content: `
rotation:
  retention_days: -1
`,
		},
		{
			name: "invalid compare format",
			content: `
compare:
  format: xml
`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.content))
			assert.IsError(t, err, ErrConfigValidation)
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("TC_TEST_HOST", "db.example.com")
	t.Setenv("TC_TEST_PORT", "5433")

	assert.Equal(t, "postgres://db.example.com:5433/app", ExpandEnvVars("postgres://${TC_TEST_HOST}:$TC_TEST_PORT/app"))
	assert.Equal(t, "no variables", ExpandEnvVars("no variables"))
	assert.Equal(t, "", ExpandEnvVars("${TC_TEST_UNDEFINED}"))
}

func TestLoadConfigExpandsConnectionEnvVars(t *testing.T) {
	t.Setenv("TC_TEST_DSN", "postgres://localhost:5432/expanded")

	path := writeConfig(t, `
databases:
  production:
    connection: "${TC_TEST_DSN}"
`)

	config, err := LoadConfig(path)
	assert.NoError(t, err)
	assert.Equal(t, "postgres://localhost:5432/expanded", config.Databases["production"].Connection)
}
