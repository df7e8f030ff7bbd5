package requestfile

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/brizzai/auto-xhr/internal/transport"
	"github.com/brizzai/auto-xhr/internal/xhr"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Setenv("SITE_TOKEN", "s3cret")
	t.Setenv("API_HOST", "api.example.com")

	req, err := Parse([]byte(`
method: post
url: https://${API_HOST}/sites
headers:
  Authorization: Bearer ${SITE_TOKEN}
query:
  zeta: 1
  alpha: two
  mid: true
data:
  name: my-site
  tags: [a, b]
timeout: 1500ms
response_type: json
log: true
`))
	require.NoError(t, err)

	assert.Equal(t, "POST", req.Method)
	assert.Equal(t, "https://api.example.com/sites", req.URL)

	want := &xhr.Options{
		Data: map[string]any{
			"name": "my-site",
			"tags": []any{"a", "b"},
		},
		Headers:      map[string]string{"Authorization": "Bearer s3cret"},
		Query:        xhr.Q("zeta", 1, "alpha", "two", "mid", true),
		Timeout:      1500 * time.Millisecond,
		ResponseType: transport.ResponseTypeJSON,
		Log:          true,
	}
	if diff := cmp.Diff(want, req.Options); diff != "" {
		t.Errorf("options mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "https://api.example.com/sites?zeta=1&alpha=two&mid=true", xhr.ResolveURL(req.URL, req.Options.Query))
}

func TestParse_RawStringBody(t *testing.T) {
	req, err := Parse([]byte(`
method: PUT
url: /raw
data: |
  plain text body
`))
	require.NoError(t, err)
	assert.Equal(t, "plain text body\n", req.Options.Data)
	assert.Nil(t, req.Options.Query)
	assert.Zero(t, req.Options.Timeout)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "invalid yaml",
			input:   "method: [",
			wantErr: "invalid request file",
		},
		{
			name:    "missing method",
			input:   "url: /",
			wantErr: `method failed on "required"`,
		},
		{
			name:    "missing url",
			input:   "method: GET",
			wantErr: `url failed on "required"`,
		},
		{
			name:    "bad response type",
			input:   "method: GET\nurl: /\nresponse_type: xml",
			wantErr: `responsetype failed on "oneof"`,
		},
		{
			name:    "bad timeout",
			input:   "method: GET\nurl: /\ntimeout: soon",
			wantErr: `invalid timeout "soon"`,
		},
		{
			name:    "query not a mapping",
			input:   "method: GET\nurl: /\nquery: [a, b]",
			wantErr: "query must be a mapping",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.input))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "request.yaml")
	require.NoError(t, os.WriteFile(path, []byte("method: GET\nurl: /health\n"), 0o600))

	req, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "GET", req.Method)
	assert.Equal(t, "/health", req.URL)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read request file")
}
