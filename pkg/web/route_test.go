package web

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRoute(t *testing.T) {
	tests := []struct {
		path  string
		want  Route
		found bool
	}{
		{"/", Route{Kind: KindSummary}, true},
		{"", Route{Kind: KindSummary}, true},
		{"/main/", Route{EndpointSegment: "main", Kind: KindSummary}, true},
		{"/internal", Route{EndpointSegment: "internal", Kind: KindSummary}, true},
		{"/account/", Route{Kind: KindAccount}, true},
		{"/block", Route{Kind: KindBlock}, true},
		{"/main/account/", Route{EndpointSegment: "main", Kind: KindAccount}, true},
		{"/main/transaction/", Route{EndpointSegment: "main", Kind: KindTransaction}, true},
		{"/unknown-endpoint/block/", Route{EndpointSegment: "unknown-endpoint", Kind: KindBlock}, true},
		{"/live/", Route{Kind: KindSummary, Live: true}, true},
		{"/live/main/", Route{EndpointSegment: "main", Kind: KindSummary, Live: true}, true},
		{"/main/blocks/", Route{}, false},
		{"/main/account/extra/", Route{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, found := ParseRoute(tt.path)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewRequest_LiveLinksPointAtPage(t *testing.T) {
	tests := []struct {
		target string
		rawURL string
	}{
		{"/live/internal/?offset=25", "/internal/?offset=25"},
		{"/live?offset=25", "/?offset=25"},
		{"/main/account/?0xabc&tx=25", "/main/account/?0xabc&tx=25"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			u, err := url.Parse(tt.target)
			assert.NoError(t, err)
			route, ok := ParseRoute(u.Path)
			assert.True(t, ok)
			assert.Equal(t, tt.rawURL, newRequest(route, u).rawURL)
		})
	}
}
