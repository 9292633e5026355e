package detector

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/webanalyzer/webanalyzer/internal/analyzer"
)

func TestShouldRender(t *testing.T) {
	t.Parallel()

	serverContent := strings.Repeat("<p>server rendered content</p>", 200)
	fullPage := "<html><body>" + serverContent + "</body></html>"

	tests := []struct {
		name  string
		probe analyzer.FetchResult
		want  bool
	}{
		{
			name:  "non-200 never renders",
			probe: analyzer.FetchResult{StatusCode: 404, Body: []byte("")},
			want:  false,
		},
		{
			name:  "empty body renders",
			probe: analyzer.FetchResult{StatusCode: 200, Body: nil},
			want:  true,
		},
		{
			name: "empty framework shell renders",
			probe: analyzer.FetchResult{
				StatusCode: 200,
				Body:       []byte(`<html><body><div id="root"></div><script src="/bundle.js"></script></body></html>`),
			},
			want: true,
		},
		{
			name: "hydrated mount point with real content skips browser",
			probe: analyzer.FetchResult{
				StatusCode: 200,
				Body:       []byte(`<html><body><div id="root">` + serverContent + `</div></body></html>`),
			},
			want: false,
		},
		{
			name: "tiny script-heavy shell renders",
			probe: analyzer.FetchResult{
				StatusCode: 200,
				Body:       []byte(`<html><head><script>` + strings.Repeat("window.__data__=1;", 20) + `</script></head><body><p>loading</p></body></html>`),
			},
			want: true,
		},
		{
			name:  "server rendered page skips browser",
			probe: analyzer.FetchResult{StatusCode: 200, Body: []byte(fullPage)},
			want:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := NewHeuristic(2048)
			require.Equal(t, tt.want, h.ShouldRender(tt.probe))
		})
	}
}
