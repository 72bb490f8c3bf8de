package security

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		path    string
		dir     string
		wantErr bool
	}{
		{"file in dir", "/out/a.las", "/out", false},
		{"nested", "/out/sub/a.las", "/out", false},
		{"dir itself", "/out", "/out", false},
		{"dotdot escape", "/out/../etc/passwd", "/out", true},
		{"sibling", "/outside/a.las", "/out", true},
		{"relative inside", "out/a.las", "out", false},
		{"relative escape", "out/../../a.las", "out", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePathWithinDirectory(tt.path, tt.dir)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrPathTraversal)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestOutputPath(t *testing.T) {
	t.Parallel()

	p, err := OutputPath("/out", "00_scan.las")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "00_scan.las"), p)

	for _, name := range []string{"", ".", "..", "../x.las", "sub/x.las"} {
		_, err := OutputPath("/out", name)
		assert.ErrorIs(t, err, ErrPathTraversal, "name %q", name)
	}
}

func TestSanitizeFilename(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in, want string
	}{
		{"", "unknown"},
		{"scan_01.lvx", "scan_01.lvx"},
		{"my scan (1)", "my_scan_1"},
		{"../../etc", "etc"},
		{"***", "unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SanitizeFilename(tt.in), tt.in)
	}
	assert.Len(t, SanitizeFilename(strings.Repeat("a", 300)), 128)
}
