package discovery

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const videoInstanceURL = "https://yewtu.be"

func TestVideoBackend_Search(t *testing.T) {
	backend := NewVideoBackend(videoInstanceURL, 15, 5*time.Second)
	httpmock.ActivateNonDefault(backend.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, `=~^https://yewtu\.be/api/v1/search`,
		httpmock.NewStringResponder(200, `[
			{"type": "video", "videoId": "abc123", "title": "Torn Apart Part 1", "description": "reupload"},
			{"type": "channel", "videoId": "", "title": "Some Channel"},
			{"type": "video", "videoId": "def456", "title": "Torn Apart Part 2"}
		]`))

	results, err := backend.Search(context.Background(), "Torn Apart")
	require.NoError(t, err)
	require.Len(t, results, 2, "non-video entries are skipped")

	assert.Equal(t, "abc123", results[0].Identifier)
	assert.Equal(t, "Torn Apart Part 1", results[0].Title)
	assert.Equal(t, "https://www.youtube.com/watch?v=abc123", results[0].URL)
	assert.Equal(t, "https://www.youtube.com/watch?v=def456", results[1].URL)
}

func TestVideoBackend_SearchLimitsResults(t *testing.T) {
	backend := NewVideoBackend(videoInstanceURL, 2, 5*time.Second)
	httpmock.ActivateNonDefault(backend.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, `=~^https://yewtu\.be/api/v1/search`,
		httpmock.NewStringResponder(200, `[
			{"type": "video", "videoId": "a", "title": "One"},
			{"type": "video", "videoId": "b", "title": "Two"},
			{"type": "video", "videoId": "c", "title": "Three"}
		]`))

	results, err := backend.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestVideoBackend_SearchServerError(t *testing.T) {
	backend := NewVideoBackend(videoInstanceURL, 15, 5*time.Second)
	httpmock.ActivateNonDefault(backend.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, `=~^https://yewtu\.be/api/v1/search`,
		httpmock.NewStringResponder(500, "boom"))

	_, err := backend.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestVideoBackend_TrimsTrailingSlash(t *testing.T) {
	backend := NewVideoBackend(videoInstanceURL+"/", 15, 5*time.Second)
	httpmock.ActivateNonDefault(backend.client)
	defer httpmock.DeactivateAndReset()

	httpmock.RegisterResponder(http.MethodGet, `=~^https://yewtu\.be/api/v1/search`,
		httpmock.NewStringResponder(200, `[]`))

	results, err := backend.Search(context.Background(), "anything")
	require.NoError(t, err)
	assert.Empty(t, results)
}
