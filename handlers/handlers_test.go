package handlers

import (
	"context"
	"encoding/json"
	"image/color"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/camden-git/rostertagger/database"
	"github.com/camden-git/rostertagger/metrics"
	"github.com/camden-git/rostertagger/models"
	"github.com/camden-git/rostertagger/repository"
	"github.com/camden-git/rostertagger/services"
	"github.com/camden-git/rostertagger/vision"
	"github.com/camden-git/rostertagger/workers"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

type testServer struct {
	handler http.Handler
	store   *repository.Store
	root    string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "store.db"), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close(db) })

	store := repository.NewStore(db)
	m := metrics.New()
	client, err := vision.NewClient(context.Background(), vision.Config{}, vision.WithMetrics(m))
	require.NoError(t, err)
	jobs := workers.NewTagJobManager(workers.NewBatchTagger(store, client, 2, m))
	t.Cleanup(jobs.Shutdown)

	root := t.TempDir()
	rt := &Router{
		Import:         &ImportHandler{Importer: services.NewImporter(store, m), DefaultRoot: root},
		Profiles:       &ProfileHandler{Store: store},
		Tags:           &TagHandler{Editor: services.NewTagEditor(store, client, m)},
		Batches:        &BatchHandler{Jobs: jobs},
		Previews:       &ImagePreviewHandler{Images: store.Images},
		Metrics:        m.Handler(),
		AllowedOrigins: []string{"http://localhost:5173"},
	}
	return &testServer{handler: rt.Handler(), store: store, root: root}
}

func (s *testServer) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) writeFile(t *testing.T, name string) {
	t.Helper()
	path := filepath.Join(s.root, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("jpeg"), 0o644))
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestImportAndBrowse(t *testing.T) {
	s := newTestServer(t)
	s.writeFile(t, "mia_lee_1111111111.jpg")
	s.writeFile(t, "sub/amy_2.png")
	s.writeFile(t, "bad-name.jpg")

	rec := s.do(t, http.MethodPost, "/api/import", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decode[services.FolderReport](t, rec)
	assert.Equal(t, services.ImportSummary{Imported: 2, ProfilesCreated: 2}, report.Import)
	assert.Equal(t, 1, report.Scan.ParseFailures)

	rec = s.do(t, http.MethodGet, "/api/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	profiles := decode[[]repository.ProfileSummary](t, rec)
	require.Len(t, profiles, 2)
	assert.Equal(t, "amy", profiles[0].Username)

	rec = s.do(t, http.MethodGet, "/api/profiles/mia_lee/images", "")
	require.Equal(t, http.StatusOK, rec.Code)
	images := decode[[]models.Image](t, rec)
	require.Len(t, images, 1)
	assert.Equal(t, "mia_lee_1111111111.jpg", images[0].Filename)

	rec = s.do(t, http.MethodGet, "/api/profiles/mia_lee/images?sort=filename_nat", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = s.do(t, http.MethodGet, "/api/profiles/mia_lee/images?sort=sideways", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodGet, "/api/profiles/nobody/images", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	apiErr := decode[APIErrorResponse](t, rec)
	require.Len(t, apiErr.Errors, 1)
	assert.Equal(t, CodeNotFound, apiErr.Errors[0].Code)
	assert.Equal(t, "404", apiErr.Errors[0].Status)

	rec = s.do(t, http.MethodGet, "/api/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, repository.Stats{Profiles: 2, Images: 2}, decode[repository.Stats](t, rec))
}

func TestImport_InvalidRoot(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodPost, "/api/import", `{"root": "/definitely/not/here"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidRoot, decode[APIErrorResponse](t, rec).Errors[0].Code)

	rec = s.do(t, http.MethodPost, "/api/import", `{"root": 12}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTagEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.writeFile(t, "amy_1.jpg")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/import", "").Code)
	images, err := s.store.Images.ListByUsername("amy")
	require.NoError(t, err)
	require.Len(t, images, 1)
	base := "/api/images/" + jsonNumber(images[0].ID)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, base+"/tags", "").Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/images/abc/tags", "").Code)

	rec := s.do(t, http.MethodPost, base+"/autotag", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.TagSourceMock, decode[models.Tag](t, rec).Source)

	rec = s.do(t, http.MethodPut, base+"/tags", `{"hair_color":"blonde","skin_tone":"light","clothing_type":"shorts","pose_type":"standing","environment":"beach","face_visible":false}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodGet, base+"/tags", "")
	require.Equal(t, http.StatusOK, rec.Code)
	tag := decode[models.Tag](t, rec)
	assert.Equal(t, "shorts", tag.ClothingType)
	assert.Equal(t, models.TagSourceManual, tag.Source)

	rec = s.do(t, http.MethodPut, base+"/tags", `{"hair_color":"blue"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, CodeInvalidTags, decode[APIErrorResponse](t, rec).Errors[0].Code)

	rec = s.do(t, http.MethodGet, "/api/tags/vocabulary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	vocab := decode[map[string][]string](t, rec)
	assert.Contains(t, vocab["pose_type"], "mirror selfie")
}

func TestBatchEndpoints(t *testing.T) {
	s := newTestServer(t)
	s.writeFile(t, "amy_1.jpg")
	s.writeFile(t, "amy_2.jpg")
	s.writeFile(t, "amy_3.mp4")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/import", "").Code)

	rec := s.do(t, http.MethodPost, "/api/tagging/batches", "")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	id := decode[map[string]string](t, rec)["id"]
	require.NotEmpty(t, id)

	var snap workers.JobSnapshot
	require.Eventually(t, func() bool {
		rec := s.do(t, http.MethodGet, "/api/tagging/batches/"+id, "")
		if rec.Code != http.StatusOK {
			return false
		}
		snap = decode[workers.JobSnapshot](t, rec)
		return snap.State == workers.JobCompleted
	}, 5*time.Second, 20*time.Millisecond)

	assert.Equal(t, 2, snap.Report.Succeeded)
	assert.Equal(t, 1, snap.Report.Skipped)
	assert.Equal(t, 2, snap.Report.MockSourced)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/tagging/batches/nope", "").Code)

	rec = s.do(t, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `rostertagger_tagging_tags_written_total{source="mock"} 2`)
}

func TestRenameProfile(t *testing.T) {
	s := newTestServer(t)
	s.writeFile(t, "amy_1.jpg")
	s.writeFile(t, "amy_b_2.jpg")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/import", "").Code)

	rec := s.do(t, http.MethodPost, "/api/profiles/amy_b/rename", `{"username":"amy"}`)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	profiles, err := s.store.Profiles.ListWithCounts()
	require.NoError(t, err)
	require.Len(t, profiles, 1)
	assert.Equal(t, int64(2), profiles[0].ImageCount)

	_, err = s.store.Profiles.EnsureExists("lonely")
	require.NoError(t, err)
	rec = s.do(t, http.MethodGet, "/api/profiles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]repository.ProfileSummary](t, rec)
	require.Len(t, listed, 1)
	assert.Equal(t, "amy", listed[0].Username)

	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodPost, "/api/profiles/ghost/rename", `{"username":"amy"}`).Code)
	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodPost, "/api/profiles/amy/rename", `{}`).Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/profiles", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
}

func jsonNumber(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestImagePreview(t *testing.T) {
	s := newTestServer(t)
	require.NoError(t, imaging.Save(imaging.New(800, 400, color.NRGBA{G: 180, A: 255}), filepath.Join(s.root, "amy_1.jpg")))
	s.writeFile(t, "amy_2.mp4")
	require.Equal(t, http.StatusOK, s.do(t, http.MethodPost, "/api/import", "").Code)
	images, err := s.store.Images.ListByUsernameSorted("amy", database.SortFilenameAsc)
	require.NoError(t, err)
	require.Len(t, images, 2)

	rec := s.do(t, http.MethodGet, "/api/images/"+jsonNumber(images[0].ID)+"/preview?size=100", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "image/jpeg", rec.Header().Get("Content-Type"))
	preview, err := imaging.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 100, preview.Bounds().Dx())
	assert.Equal(t, 50, preview.Bounds().Dy())

	rec = s.do(t, http.MethodGet, "/api/images/"+jsonNumber(images[1].ID)+"/preview", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "jpeg", rec.Body.String())

	assert.Equal(t, http.StatusBadRequest, s.do(t, http.MethodGet, "/api/images/"+jsonNumber(images[0].ID)+"/preview?size=0", "").Code)
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/images/999/preview", "").Code)

	require.NoError(t, os.Remove(images[0].Filepath))
	assert.Equal(t, http.StatusNotFound, s.do(t, http.MethodGet, "/api/images/"+jsonNumber(images[0].ID)+"/preview", "").Code)
}
