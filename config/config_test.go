package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/viant/afs"
	"github.com/viant/conformance/config"
	"github.com/viant/conformance/kind"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		description string
		content     string
		expect      func(t *testing.T, cfg *config.Config)
		expectErr   bool
	}{
		{
			description: "empty uses defaults",
			content:     "{}\n",
			expect: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, config.DefaultConfig(), cfg)
			},
		},
		{
			description: "overrides and extra types",
			content: `types:
  - name: audit
    rule: compliance
    groups: [requirement]
engine:
  maxIterations: 7
  workers: 2
ingest:
  include: ["*.rst"]
  metaPrefix: "#="
`,
			expect: func(t *testing.T, cfg *config.Config) {
				assert.Equal(t, 7, cfg.Engine.MaxIterations)
				assert.Equal(t, 2, cfg.Engine.Workers)
				assert.Equal(t, []string{"*.rst"}, cfg.Ingest.Include)
				assert.Equal(t, "#=", cfg.Ingest.MetaPrefix)
				assert.Equal(t, "//#", cfg.Ingest.ContentPrefix)
				types := cfg.Registry()
				audit, ok := types.Lookup("audit")
				require.True(t, ok)
				assert.True(t, types.In(audit, kind.GroupRequirement))
				_, ok = types.Lookup(kind.Must)
				assert.True(t, ok)
			},
		},
		{
			description: "invalid yaml",
			content:     "engine: [\n",
			expectErr:   true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.description, func(t *testing.T) {
			URL := filepath.Join(t.TempDir(), "conformance.yaml")
			require.NoError(t, os.WriteFile(URL, []byte(tc.content), 0o644))
			cfg, err := config.Load(context.Background(), afs.New(), URL)
			if tc.expectErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tc.expect(t, cfg)
		})
	}

	_, err := config.Load(context.Background(), afs.New(), filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
