package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"scheduleBoard/internal/config"
	"scheduleBoard/internal/models/task"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// TestLoad_Defaults тестирует значения по умолчанию без файла
func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.GetServerAddr())
	assert.Equal(t, "inmemory", cfg.Repository.Type)
	assert.Equal(t, 30*time.Second, cfg.RPC.Timeout)
	assert.Equal(t, 720*time.Hour, cfg.Purge.Retention)
	assert.Equal(t, 100, cfg.Purge.BatchSize)
	assert.Equal(t, "masters.yml", cfg.Masters.File)
	assert.Empty(t, cfg.Roles())
}

// TestLoad_File тестирует чтение файла и переопределение окружением
func TestLoad_File(t *testing.T) {
	path := writeFile(t, "config.yml", `
server:
  port: "9090"
repository:
  type: postgres
database:
  url: postgres://localhost/schedule
purge:
  interval: 10m
users:
  - email: Boss@Example.com
    role: admin
  - email: viewer@example.com
    role: viewer
`)
	t.Setenv("SCHEDULE_SERVER_PORT", "7070")

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "7070", cfg.Server.Port)
	assert.Equal(t, "postgres", cfg.Repository.Type)
	assert.Equal(t, "postgres://localhost/schedule", cfg.Database.URL)
	assert.Equal(t, 10*time.Minute, cfg.Purge.Interval)
	assert.Equal(t, map[string]task.Role{
		"boss@example.com":   task.RoleAdmin,
		"viewer@example.com": task.RoleViewer,
	}, cfg.Roles())
}

// TestLoad_Invalid тестирует ошибки конфигурации
func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "postgres without url", content: "repository:\n  type: postgres\n"},
		{name: "unknown repository", content: "repository:\n  type: mongo\n"},
		{name: "unknown role", content: "users:\n  - email: a@example.com\n    role: owner\n"},
		{name: "user without email", content: "users:\n  - role: editor\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.Load(writeFile(t, "config.yml", tt.content))
			assert.Error(t, err)
		})
	}

	t.Run("missing explicit file", func(t *testing.T) {
		_, err := config.Load(filepath.Join(t.TempDir(), "absent.yml"))
		assert.Error(t, err)
	})
}

// TestLoadMasters тестирует справочники из YAML
func TestLoadMasters(t *testing.T) {
	path := writeFile(t, "masters.yml", `
channels:
  - channel: TV
    is_active: true
    sort_order: 2
  - channel: YouTube
    is_active: true
    sort_order: 1
  - channel: Radio
    is_active: false
    sort_order: 0
task_types:
  - task_type: Edit
    is_active: true
    sort_order: 1
statuses:
  - status: Todo
    is_active: true
    sort_order: 1
    color: "#adb5bd"
`)

	masters, err := config.LoadMasters(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"YouTube", "TV"}, masters.ActiveChannels())
	assert.Equal(t, []string{"Edit"}, masters.ActiveTaskTypes())
	assert.Equal(t, map[string]string{"Todo": "#adb5bd"}, masters.StatusColors())

	t.Run("no active channel", func(t *testing.T) {
		_, err := config.LoadMasters(writeFile(t, "m.yml", "channels:\n  - channel: Radio\n    is_active: false\n"))
		assert.Error(t, err)
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := config.LoadMasters(writeFile(t, "m.yml", "channels:\n  - channel: TV\n    is_active: true\n    colour: red\n"))
		assert.Error(t, err)
	})
}
