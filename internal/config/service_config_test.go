package config

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
)

// mockSectionConfig implements SectionConfig for testing ApplySectionConfigs
type mockSectionConfig struct {
	calls       []string
	baseDir     string
	validateErr error
}

func (m *mockSectionConfig) ApplyDefaults()     { m.calls = append(m.calls, "defaults") }
func (m *mockSectionConfig) ApplyEnvOverrides() { m.calls = append(m.calls, "env") }

func (m *mockSectionConfig) ResolvePaths(configDir string) {
	m.calls = append(m.calls, "paths")
	m.baseDir = configDir
}

func (m *mockSectionConfig) Validate() error {
	m.calls = append(m.calls, "validate")
	return m.validateErr
}

func TestApplySectionConfigs_AllMethodsCalled(t *testing.T) {
	cfg1 := &mockSectionConfig{}
	cfg2 := &mockSectionConfig{}

	err := ApplySectionConfigs("config", cfg1, cfg2)

	assert.NoError(t, err)
	for _, cfg := range []*mockSectionConfig{cfg1, cfg2} {
		assert.Equal(t, []string{"defaults", "env", "paths", "validate"}, cfg.calls)
		assert.Equal(t, "config", cfg.baseDir)
	}
}

func TestApplySectionConfigs_ValidationError(t *testing.T) {
	cfg1 := &mockSectionConfig{validateErr: assert.AnError}
	cfg2 := &mockSectionConfig{}

	err := ApplySectionConfigs("config", cfg1, cfg2)

	assert.Equal(t, assert.AnError, err)
	assert.Empty(t, cfg2.calls)
}

func TestApplySectionConfigs_EmptyList(t *testing.T) {
	assert.NoError(t, ApplySectionConfigs("config"))
}

func TestResolveDataPath(t *testing.T) {
	assert.Equal(t, "", resolveDataPath("config", ""))
	assert.Equal(t, "/abs/data", resolveDataPath("config", "/abs/data"))
	assert.Equal(t, "data", resolveDataPath("config", "data"))
	assert.Equal(t, filepath.Join("/srv", "data"), resolveDataPath("/srv/config", "data"))
	assert.Equal(t, filepath.Join("/srv", "other"), resolveDataPath("/srv/config", "../other"))
}
