package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tryon-studio/internal/application/services"
	"tryon-studio/internal/application/usecases"
	"tryon-studio/internal/domain/entities"
	"tryon-studio/internal/domain/valueobjects"
	"tryon-studio/internal/infrastructure/metrics"
)

type stubGenerator struct {
	mu     sync.Mutex
	gate   chan struct{}
	result []byte
	err    error
}

func (g *stubGenerator) respond(id entities.RequestID) (*entities.GenerationResult, error) {
	if g.gate != nil {
		<-g.gate
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.err != nil {
		return nil, g.err
	}
	img, err := valueobjects.NewImageData(g.result, "image/jpeg")
	if err != nil {
		return nil, err
	}
	return entities.NewGenerationResult(id, img, "done"), nil
}

func (g *stubGenerator) ComposeTryOn(ctx context.Context, request *entities.TryOnRequest) (*entities.GenerationResult, error) {
	return g.respond(request.ID())
}

func (g *stubGenerator) ApplyEdit(ctx context.Context, request *entities.EditRequest) (*entities.GenerationResult, error) {
	return g.respond(request.ID())
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 2, 2))
	img.Set(1, 1, color.White)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func testJPEG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4)), nil))
	return buf.Bytes()
}

type testServer struct {
	handler    *WorkflowHandler
	router     *mux.Router
	controller *usecases.WorkflowController
	generator  *stubGenerator
}

func newTestServer(t *testing.T, gen *stubGenerator, maxUpload int64) *testServer {
	t.Helper()
	if gen.result == nil {
		gen.result = testJPEG(t)
	}
	reg := prometheus.NewRegistry()
	controller := usecases.NewWorkflowController(gen, usecases.WithMetrics(metrics.New(reg)))
	handler := NewWorkflowHandler(controller, services.NewParameterService(maxUpload), nil)
	return &testServer{
		handler:    handler,
		router:     NewRouter(handler, reg),
		controller: controller,
		generator:  gen,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) upload(t *testing.T, slot string, data []byte, mediaType string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="image"; filename="photo"`)
	header.Set("Content-Type", mediaType)
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/uploads/"+slot, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(t, req)
}

func decodeState(t *testing.T, rec *httptest.ResponseRecorder) stateResponse {
	t.Helper()
	var state stateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &state))
	return state
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["error"]
}

func TestHandleIndexAndHealth(t *testing.T) {
	s := newTestServer(t, &stubGenerator{}, 1<<20)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "/api/ws")
	assert.Contains(t, rec.Body.String(), `accept="image/png,image/jpeg,image/webp"`)
	assert.NotContains(t, rec.Body.String(), "{{accept}}")

	rec = s.do(t, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, "ok", rec.Body.String())
}

func TestHandleState_Initial(t *testing.T) {
	s := newTestServer(t, &stubGenerator{}, 1<<20)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	state := decodeState(t, rec)
	assert.Equal(t, "idle", state.Phase)
	assert.Equal(t, "tryon", state.Mode)
	assert.False(t, state.CanGenerate)
	assert.Nil(t, state.UserPhoto)
}

func TestHandleUpload(t *testing.T) {
	s := newTestServer(t, &stubGenerator{}, 1<<20)

	rec := s.upload(t, "user", testPNG(t), "image/png")
	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeState(t, rec)
	assert.Equal(t, "awaiting_both_uploads", state.Phase)
	require.NotNil(t, state.UserPhoto)
	assert.Equal(t, "image/png", state.UserPhoto.MediaType)

	img := s.do(t, httptest.NewRequest(http.MethodGet, state.UserPhoto.URL, nil))
	assert.Equal(t, http.StatusOK, img.Code)
	assert.Equal(t, "image/png", img.Header().Get("Content-Type"))
	assert.Equal(t, testPNG(t), img.Body.Bytes())
}

func TestHandleImage_ServesDetectedContentType(t *testing.T) {
	tests := []struct {
		name        string
		data        []byte
		declared    string
		contentType string
	}{
		{"png declared as jpeg", testPNG(t), "image/jpeg", "image/png"},
		{"jpeg declared as png", testJPEG(t), "image/png", "image/jpeg"},
		{"html markup", []byte("<script>alert(document.domain)</script>"), "text/html", "application/octet-stream"},
		{"svg markup", []byte(`<svg xmlns="http://www.w3.org/2000/svg"><script>alert(1)</script></svg>`), "image/svg+xml", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, &stubGenerator{}, 1<<20)
			require.Equal(t, http.StatusOK, s.upload(t, "user", tt.data, tt.declared).Code)

			rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/images/user", nil))
			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.contentType, rec.Header().Get("Content-Type"))
			assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
			assert.Equal(t, tt.data, rec.Body.Bytes())
		})
	}
}

func TestHandleUpload_Errors(t *testing.T) {
	t.Run("unknown slot", func(t *testing.T) {
		s := newTestServer(t, &stubGenerator{}, 1<<20)
		rec := s.upload(t, "result", testPNG(t), "image/png")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("too large", func(t *testing.T) {
		s := newTestServer(t, &stubGenerator{}, 64)
		rec := s.upload(t, "user", bytes.Repeat([]byte{0xff}, 4096), "image/png")
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Equal(t, "Image exceeds the upload limit of 64 bytes.", decodeError(t, rec))
	})

	t.Run("empty file", func(t *testing.T) {
		s := newTestServer(t, &stubGenerator{}, 1<<20)
		rec := s.upload(t, "garment", nil, "image/png")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Failed to load garment image.", decodeError(t, rec))
	})
}

func TestHandleGenerate_MissingPhotos(t *testing.T) {
	s := newTestServer(t, &stubGenerator{}, 1<<20)

	rec := s.do(t, httptest.NewRequest(http.MethodPost, "/api/generate", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please upload both your photo and a garment photo.", decodeError(t, rec))
}

func TestHandleGenerate_Flow(t *testing.T) {
	gen := &stubGenerator{gate: make(chan struct{})}
	s := newTestServer(t, gen, 1<<20)
	require.Equal(t, http.StatusOK, s.upload(t, "user", testPNG(t), "image/png").Code)
	require.Equal(t, http.StatusOK, s.upload(t, "garment", testPNG(t), "image/png").Code)

	rec := s.do(t, httptest.NewRequest(http.MethodPost, "/api/generate", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	state := decodeState(t, rec)
	assert.True(t, state.Busy)
	assert.Equal(t, "generating", state.Phase)

	busy := s.do(t, httptest.NewRequest(http.MethodPost, "/api/generate", nil))
	assert.Equal(t, http.StatusConflict, busy.Code)

	busyUpload := s.upload(t, "user", testPNG(t), "image/png")
	assert.Equal(t, http.StatusConflict, busyUpload.Code)

	close(gen.gate)
	s.handler.Wait()

	state = decodeState(t, s.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil)))
	assert.Equal(t, "result_ready", state.Phase)
	assert.True(t, state.CanEdit)
	require.NotNil(t, state.Result)
	assert.Equal(t, "image/jpeg", state.Result.MediaType)
	assert.Equal(t, "done", state.ResultResponse)

	download := s.do(t, httptest.NewRequest(http.MethodGet, "/api/result/download", nil))
	require.Equal(t, http.StatusOK, download.Code)
	assert.Equal(t, "image/png", download.Header().Get("Content-Type"))
	assert.Equal(t, `attachment; filename="generated-image.png"`, download.Header().Get("Content-Disposition"))
	_, err := png.Decode(bytes.NewReader(download.Body.Bytes()))
	assert.NoError(t, err)
}

func TestHandleGenerate_FailureSurfacesMessage(t *testing.T) {
	gen := &stubGenerator{err: errors.New("backend exploded")}
	s := newTestServer(t, gen, 1<<20)
	s.upload(t, "user", testPNG(t), "image/png")
	s.upload(t, "garment", testPNG(t), "image/png")

	rec := s.do(t, httptest.NewRequest(http.MethodPost, "/api/generate", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)
	s.handler.Wait()

	state := decodeState(t, s.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil)))
	assert.Equal(t, "ready_to_generate", state.Phase)
	assert.Equal(t, "Failed to generate the try-on image. The AI model might be busy. Please try again.", state.ErrorMessage)
}

func TestHandleModeAndEdit(t *testing.T) {
	s := newTestServer(t, &stubGenerator{}, 1<<20)

	modeReq := func(mode string) *http.Request {
		return httptest.NewRequest(http.MethodPut, "/api/mode", strings.NewReader(`{"mode":"`+mode+`"}`))
	}

	rec := s.do(t, modeReq("edit"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, modeReq("sideways"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.upload(t, "user", testPNG(t), "image/png")
	s.upload(t, "garment", testPNG(t), "image/png")
	require.Equal(t, http.StatusAccepted, s.do(t, httptest.NewRequest(http.MethodPost, "/api/generate", nil)).Code)
	s.handler.Wait()

	rec = s.do(t, modeReq("edit"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "edit", decodeState(t, rec).Mode)

	rec = s.do(t, httptest.NewRequest(http.MethodPost, "/api/edit", strings.NewReader(`{"instruction":"  "}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Please enter an edit instruction.", decodeError(t, rec))

	rec = s.do(t, httptest.NewRequest(http.MethodPost, "/api/edit", strings.NewReader(`{"instruction":"add a hat"}`)))
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "editing", decodeState(t, rec).Phase)
	s.handler.Wait()

	state := decodeState(t, s.do(t, httptest.NewRequest(http.MethodGet, "/api/state", nil)))
	assert.Equal(t, "result_ready", state.Phase)
	assert.Equal(t, "add a hat", state.EditInstruction)
}

func TestHandleReset(t *testing.T) {
	s := newTestServer(t, &stubGenerator{}, 1<<20)
	s.upload(t, "user", testPNG(t), "image/png")

	rec := s.do(t, httptest.NewRequest(http.MethodPost, "/api/reset", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeState(t, rec)
	assert.Equal(t, "idle", state.Phase)
	assert.Nil(t, state.UserPhoto)

	img := s.do(t, httptest.NewRequest(http.MethodGet, "/api/images/user", nil))
	assert.Equal(t, http.StatusNotFound, img.Code)
}

func TestWorkflowHandler_Drain(t *testing.T) {
	gen := &stubGenerator{gate: make(chan struct{})}
	s := newTestServer(t, gen, 1<<20)
	s.upload(t, "user", testPNG(t), "image/png")
	s.upload(t, "garment", testPNG(t), "image/png")

	rec := s.do(t, httptest.NewRequest(http.MethodPost, "/api/generate", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.handler.Drain(ctx), context.DeadlineExceeded)

	close(gen.gate)
	require.NoError(t, s.handler.Drain(context.Background()))
	assert.Equal(t, valueobjects.PhaseResultReady, s.controller.Snapshot().Phase())
}

func TestHandleDownload_NoResult(t *testing.T) {
	s := newTestServer(t, &stubGenerator{}, 1<<20)

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/api/result/download", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, &stubGenerator{}, 1<<20)
	s.upload(t, "user", testPNG(t), "image/png")

	rec := s.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `tryon_uploads_total{slot="user",status="success"} 1`)
}
