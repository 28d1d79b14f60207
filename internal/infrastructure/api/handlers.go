package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"tryon-studio/internal/application/services"
	"tryon-studio/internal/application/usecases"
	"tryon-studio/internal/domain/errs"
	"tryon-studio/internal/domain/valueobjects"
)

// WorkflowHandler exposes one WorkflowController over HTTP.
type WorkflowHandler struct {
	controller       *usecases.WorkflowController
	parameterService *services.ParameterService
	logger           *zap.Logger
	upgrader         websocket.Upgrader

	// inflight tracks settlement goroutines of dispatched requests.
	inflight sync.WaitGroup
}

func NewWorkflowHandler(
	controller *usecases.WorkflowController,
	parameterService *services.ParameterService,
	logger *zap.Logger,
) *WorkflowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowHandler{
		controller:       controller,
		parameterService: parameterService,
		logger:           logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
	}
}

// Wait blocks until every dispatched request has settled.
func (h *WorkflowHandler) Wait() {
	h.inflight.Wait()
}

// Drain is Wait bounded by ctx. It returns ctx.Err() if requests are still
// in flight when ctx ends.
func (h *WorkflowHandler) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		h.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *WorkflowHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	h.sendState(w, http.StatusOK)
}

func (h *WorkflowHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	slot, ok := usecases.ParseSlot(mux.Vars(r)["slot"])
	if !ok || slot == usecases.SlotResult {
		h.sendError(w, "unknown upload slot", http.StatusNotFound)
		return
	}

	upload, err := h.parameterService.ParseImageUpload(w, r)
	if err != nil {
		h.sendControllerError(w, err)
		return
	}
	defer upload.Close()

	switch slot {
	case usecases.SlotUser:
		err = h.controller.UploadUserPhoto(upload, upload.MediaType)
	case usecases.SlotGarment:
		err = h.controller.UploadGarmentPhoto(upload, upload.MediaType)
	}
	if err != nil {
		h.sendControllerError(w, err)
		return
	}

	h.sendState(w, http.StatusOK)
}

func (h *WorkflowHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	slot, ok := usecases.ParseSlot(mux.Vars(r)["slot"])
	if !ok {
		h.sendError(w, "unknown image slot", http.StatusNotFound)
		return
	}

	state := h.controller.Snapshot()
	var img *valueobjects.ImageData
	switch slot {
	case usecases.SlotUser:
		img = state.UserPhoto
	case usecases.SlotGarment:
		img = state.GarmentPhoto
	case usecases.SlotResult:
		img = state.Result
	}
	if img == nil {
		h.sendError(w, "no image in slot "+string(slot), http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", img.ContentType())
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Length", strconv.Itoa(img.Size()))
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.Write(img.Data())
}

// HandleGenerate dispatches a try-on request and answers 202 with the busy
// snapshot. Progress is observed via /api/state or /api/ws.
func (h *WorkflowHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	done, err := h.controller.StartGenerate(r.Context())
	if err != nil {
		h.sendControllerError(w, err)
		return
	}
	h.track("tryon", done)
	h.sendState(w, http.StatusAccepted)
}

func (h *WorkflowHandler) HandleMode(w http.ResponseWriter, r *http.Request) {
	mode, err := h.parameterService.ParseMode(r)
	if err != nil {
		h.sendControllerError(w, err)
		return
	}
	if err := h.controller.SetMode(mode); err != nil {
		h.sendControllerError(w, err)
		return
	}
	h.sendState(w, http.StatusOK)
}

// HandleEdit stores the instruction carried by the body, if any, and
// dispatches the edit.
func (h *WorkflowHandler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	instruction, ok, err := h.parameterService.ParseInstruction(r)
	if err != nil {
		h.sendControllerError(w, err)
		return
	}
	if ok {
		h.controller.SetEditInstruction(instruction)
	}

	done, err := h.controller.StartEdit(r.Context())
	if err != nil {
		h.sendControllerError(w, err)
		return
	}
	h.track("edit", done)
	h.sendState(w, http.StatusAccepted)
}

func (h *WorkflowHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	h.controller.Reset()
	h.sendState(w, http.StatusOK)
}

func (h *WorkflowHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	filename, data, err := h.controller.ExportResult()
	if err != nil {
		h.sendControllerError(w, err)
		return
	}

	w.Header().Set("Content-Type", valueobjects.MediaTypePNG)
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.Write(data)
}

func (h *WorkflowHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

func (h *WorkflowHandler) track(operation string, done <-chan error) {
	h.inflight.Add(1)
	go func() {
		defer h.inflight.Done()
		if err := <-done; err != nil {
			h.logger.Debug("dispatched request settled with error",
				zap.String("operation", operation),
				zap.Error(err))
		}
	}()
}

func (h *WorkflowHandler) sendState(w http.ResponseWriter, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store, max-age=0")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(newStateResponse(h.controller.Snapshot())); err != nil {
		h.logger.Warn("failed to encode state response", zap.Error(err))
	}
}

// sendControllerError maps controller and parsing errors to status codes.
// Load failures report the message the session now shows.
func (h *WorkflowHandler) sendControllerError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	message := err.Error()

	var e *errs.Error
	switch {
	case errors.Is(err, services.ErrUploadTooLarge):
		message = fmt.Sprintf("Image exceeds the upload limit of %d bytes.", h.parameterService.MaxUploadBytes())
	case errs.IsKind(err, errs.KindRead):
		if msg := h.controller.Snapshot().Error; msg != "" {
			message = msg
		}
	case errors.As(err, &e):
		message = e.Message
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", zap.Error(err))
	}
	h.sendError(w, message, status)
}

func (h *WorkflowHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errs.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, services.ErrUploadTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errs.ErrNoResult):
		return http.StatusNotFound
	case errs.IsKind(err, errs.KindValidation), errs.IsKind(err, errs.KindRead):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
