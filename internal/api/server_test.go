package api

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ivlev/storyboard/internal/assets"
	"github.com/ivlev/storyboard/internal/config"
	"github.com/ivlev/storyboard/internal/engine"
	"github.com/ivlev/storyboard/internal/export"
	"github.com/ivlev/storyboard/internal/surface/raster"
	"github.com/ivlev/storyboard/internal/timeline"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSubmitter struct {
	got *export.Payload
}

func (f *fakeSubmitter) Submit(_ context.Context, p *export.Payload) (*export.Receipt, error) {
	f.got = p
	return &export.Receipt{JobID: p.JobID, StatusURL: "https://render.example/" + p.JobID}, nil
}

func newServer(t *testing.T, sub export.Submitter) *Server {
	t.Helper()
	cfg := config.Default()
	cfg.BaseSize = 90
	loader := assets.LoaderFunc(func(context.Context, string) (image.Image, error) {
		return image.NewRGBA(image.Rect(0, 0, 9, 16)), nil
	})
	s, err := engine.NewSession(context.Background(), cfg, loader, raster.Factory, nil)
	require.NoError(t, err)
	return NewServer(s, sub)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

var scenes = ContentRequest{Scenes: []timeline.Content{
	{SceneID: "a", Image: "a.png", Caption: "abcdefghijklmn"},
	{SceneID: "b", Image: "b.png", Caption: "bcdefghijklmno"},
	{SceneID: "c", Image: "c.png", Caption: "cdefghijklmnop"},
}}

func decodeStatus(t *testing.T, w *httptest.ResponseRecorder) engine.Status {
	t.Helper()
	var st engine.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
	return st
}

func TestNoTimelineYet(t *testing.T) {
	s := newServer(t, nil)
	assert.Equal(t, http.StatusPreconditionFailed, do(t, s, http.MethodGet, "/timeline", nil).Code)
	assert.Equal(t, http.StatusPreconditionFailed, do(t, s, http.MethodGet, "/export", nil).Code)
}

func TestContentAndTimeline(t *testing.T) {
	s := newServer(t, nil)
	w := do(t, s, http.MethodPut, "/content", scenes)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = do(t, s, http.MethodGet, "/timeline", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Timeline      timeline.Timeline `json:"timeline"`
		TotalDuration float64           `json:"totalDuration"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Len(t, body.Timeline.Scenes, 3)
	assert.Equal(t, 7.5, body.TotalDuration)

	dup := ContentRequest{Scenes: []timeline.Content{{SceneID: "a"}, {SceneID: "a"}}}
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/content", dup).Code)
}

func TestPlaybackRoutes(t *testing.T) {
	s := newServer(t, nil)
	do(t, s, http.MethodPut, "/content", scenes)

	st := decodeStatus(t, do(t, s, http.MethodPost, "/play", nil))
	assert.True(t, st.Playing)

	st = decodeStatus(t, do(t, s, http.MethodPost, "/seek", gin.H{"ratio": 0.5}))
	assert.False(t, st.Playing)
	assert.Equal(t, 1, st.Index)
	assert.Equal(t, 3.75, st.Elapsed)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/seek", gin.H{}).Code)

	st = decodeStatus(t, do(t, s, http.MethodPost, "/scenes/2/select", nil))
	assert.Equal(t, 2, st.Index)
	assert.Equal(t, 5.5, st.Elapsed)
	assert.Equal(t, http.StatusNotFound, do(t, s, http.MethodPost, "/scenes/9/select", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/scenes/x/select", nil).Code)

	st = decodeStatus(t, do(t, s, http.MethodPost, "/scrub", ScrubRequest{Phase: "begin", Ratio: 0}))
	assert.True(t, st.Scrubbing)
	st = decodeStatus(t, do(t, s, http.MethodPost, "/scrub", ScrubRequest{Phase: "end"}))
	assert.False(t, st.Scrubbing)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/scrub", gin.H{"phase": "wiggle"}).Code)

	w := do(t, s, http.MethodGet, "/status", nil)
	assert.Contains(t, w.Body.String(), `"label":"Scene 1 of 3"`)
}

func TestPatchScene(t *testing.T) {
	s := newServer(t, nil)
	do(t, s, http.MethodPut, "/content", scenes)

	w := do(t, s, http.MethodPatch, "/scenes/b", FieldRequest{Field: timeline.FieldDuration, Value: 50})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var scene timeline.Scene
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scene))
	assert.Equal(t, timeline.MaxDuration, scene.Duration)

	assert.Equal(t, http.StatusNotFound,
		do(t, s, http.MethodPatch, "/scenes/zzz", FieldRequest{Field: timeline.FieldDuration, Value: 1}).Code)
	assert.Equal(t, http.StatusBadRequest,
		do(t, s, http.MethodPatch, "/scenes/b", FieldRequest{Field: "sparkle", Value: 1}).Code)
}

func TestAspectAndSettings(t *testing.T) {
	s := newServer(t, nil)
	do(t, s, http.MethodPut, "/content", scenes)

	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPut, "/aspect", AspectRequest{Aspect: "wide"}).Code)
	w := do(t, s, http.MethodPut, "/aspect", AspectRequest{Aspect: "16/9"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"width":160`)

	w = do(t, s, http.MethodPut, "/settings", gin.H{"color": "#123456"})
	require.Equal(t, http.StatusOK, w.Code)
	var got config.GlobalSettings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "#123456", got.Color)
	assert.Equal(t, "Pretendard-Bold", got.FontFamily, "unspecified fields keep their value")
}

func TestExportAndSubmit(t *testing.T) {
	s := newServer(t, nil)
	do(t, s, http.MethodPut, "/content", scenes)

	w := do(t, s, http.MethodGet, "/export", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"framesPerSecond":30`)

	w = do(t, s, http.MethodGet, "/export?format=yaml", nil)
	assert.Contains(t, w.Body.String(), "frames_per_second: 30")

	assert.Equal(t, http.StatusNotImplemented, do(t, s, http.MethodPost, "/export", nil).Code)

	sub := &fakeSubmitter{}
	s = newServer(t, sub)
	do(t, s, http.MethodPut, "/content", scenes)
	w = do(t, s, http.MethodPost, "/export", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	require.NotNil(t, sub.got)
	assert.Contains(t, w.Body.String(), sub.got.JobID)
}

func TestFrame(t *testing.T) {
	s := newServer(t, nil)
	do(t, s, http.MethodPut, "/content", scenes)

	w := do(t, s, http.MethodGet, "/frame.png", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Header().Get("Content-Type"))
	img, err := png.Decode(w.Body)
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 90, 160), img.Bounds())
}

func TestFit(t *testing.T) {
	s := newServer(t, nil)
	do(t, s, http.MethodPut, "/content", scenes)

	st := decodeStatus(t, do(t, s, http.MethodPost, "/fit", FitRequest{Seconds: 10.5}))
	assert.InDelta(t, 10.5, st.Total, 1e-9)
	assert.Equal(t, http.StatusBadRequest, do(t, s, http.MethodPost, "/fit", gin.H{"seconds": -1}).Code)
}
