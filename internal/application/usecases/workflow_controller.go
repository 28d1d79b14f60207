package usecases

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"tryon-studio/internal/domain/entities"
	"tryon-studio/internal/domain/errs"
	"tryon-studio/internal/domain/repositories"
	"tryon-studio/internal/domain/valueobjects"
	"tryon-studio/internal/infrastructure/metrics"
)

// ResultFilename is the name the exported result is offered under.
const ResultFilename = "generated-image.png"

const (
	msgUserLoadFailed     = "Failed to load user image."
	msgGarmentLoadFailed  = "Failed to load garment image."
	msgResultLoadFailed   = "Failed to load image."
	msgMissingPhotos      = "Please upload both your photo and a garment photo."
	msgMissingInstruction = "Please enter an edit instruction."
	msgEditUnavailable    = "Generate an image before editing it."
	msgGenerateFailed     = "Failed to generate the try-on image. The AI model might be busy. Please try again."
	msgEditFailed         = "Failed to apply the edit. Please try again."
)

type Slot string

const (
	SlotUser    Slot = "user"
	SlotGarment Slot = "garment"
	SlotResult  Slot = "result"
)

func ParseSlot(s string) (Slot, bool) {
	switch Slot(s) {
	case SlotUser, SlotGarment, SlotResult:
		return Slot(s), true
	default:
		return "", false
	}
}

type Option func(*WorkflowController)

func WithLogger(logger *zap.Logger) Option {
	return func(c *WorkflowController) { c.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *WorkflowController) { c.metrics = m }
}

func WithParameters(params *valueobjects.GenerationParameters) Option {
	return func(c *WorkflowController) { c.params = params }
}

// WithRequestTimeout bounds each backend call. Zero leaves the transport default.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *WorkflowController) { c.timeout = d }
}

func WithSessionID(id string) Option {
	return func(c *WorkflowController) { c.sessionID = id }
}

// WorkflowController owns one try-on session. Every mutation goes through its
// methods; readers get copies via Snapshot or Subscribe.
//
// The busy flag is the only concurrency gate: while a request is in flight,
// uploads, generate, mode switches and edits are refused with errs.ErrBusy and
// leave the state untouched. Reset is always accepted; a request that settles
// after a reset is discarded.
type WorkflowController struct {
	generator repositories.ImageGenerationService
	params    *valueobjects.GenerationParameters
	timeout   time.Duration
	logger    *zap.Logger
	metrics   *metrics.Metrics
	sessionID string

	mu    sync.Mutex
	state entities.SessionState
	epoch uint64

	// notifyMu serializes subscriber delivery. delivered is the newest
	// version handed to subscribers.
	notifyMu    sync.Mutex
	delivered   uint64
	subsMu      sync.Mutex
	subscribers map[int]func(entities.SessionState)
	nextSubID   int
}

func NewWorkflowController(generator repositories.ImageGenerationService, opts ...Option) *WorkflowController {
	c := &WorkflowController{
		generator:   generator,
		subscribers: make(map[int]func(entities.SessionState)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	if c.params == nil {
		c.params = valueobjects.DefaultGenerationParameters()
	}
	if c.sessionID == "" {
		c.sessionID = uuid.NewString()
	}
	c.logger = c.logger.With(zap.String("session", c.sessionID))
	c.state = entities.NewSessionState(c.sessionID)
	return c
}

// Snapshot returns a copy of the current session state.
func (c *WorkflowController) Snapshot() entities.SessionState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Subscribe registers fn to receive the snapshots produced by mutations and
// returns a function that removes it. fn runs synchronously after the state
// lock is released, so it may call Snapshot, but it must not call mutating
// controller methods. Versions seen by fn only increase: when mutations race,
// a snapshot older than one already delivered is skipped.
func (c *WorkflowController) Subscribe(fn func(entities.SessionState)) (unsubscribe func()) {
	c.subsMu.Lock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	c.subsMu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.subsMu.Lock()
			delete(c.subscribers, id)
			c.subsMu.Unlock()
		})
	}
}

func (c *WorkflowController) UploadUserPhoto(r io.Reader, mediaType string) error {
	return c.upload(SlotUser, r, mediaType)
}

func (c *WorkflowController) UploadGarmentPhoto(r io.Reader, mediaType string) error {
	return c.upload(SlotGarment, r, mediaType)
}

// SeedResult stores an existing image as the session result, making edit
// mode reachable without a try-on pass.
func (c *WorkflowController) SeedResult(r io.Reader, mediaType string) error {
	return c.upload(SlotResult, r, mediaType)
}

func (c *WorkflowController) upload(slot Slot, r io.Reader, mediaType string) error {
	if c.Snapshot().Busy {
		return errs.ErrBusy
	}

	img, decodeErr := valueobjects.DecodeImage(r, mediaType)

	c.mu.Lock()
	if c.state.Busy {
		c.mu.Unlock()
		return errs.ErrBusy
	}
	if decodeErr != nil {
		c.state.Error = loadFailedMessage(slot)
		c.metrics.ObserveUpload(string(slot), "error")
		c.logger.Warn("image upload failed", zap.String("slot", string(slot)), zap.Error(decodeErr))
		c.commitLocked()
		return decodeErr
	}

	c.state.Error = ""
	switch slot {
	case SlotUser:
		c.state.UserPhoto = img
	case SlotGarment:
		c.state.GarmentPhoto = img
	case SlotResult:
		c.state.Result = img
		c.state.ResultResponse = ""
	}
	c.metrics.ObserveUpload(string(slot), "success")
	c.logger.Debug("image stored",
		zap.String("slot", string(slot)),
		zap.String("mediaType", img.MediaType()),
		zap.Int("size", img.Size()))
	c.commitLocked()
	return nil
}

// Generate dispatches a try-on request with the two uploaded photos and
// blocks until it settles.
func (c *WorkflowController) Generate(ctx context.Context) error {
	done, err := c.StartGenerate(ctx)
	if err != nil {
		return err
	}
	return <-done
}

// StartGenerate performs the synchronous part of Generate and returns once
// the session is busy. The returned channel yields the settlement error. The
// call is detached from ctx cancellation: once dispatched it runs to
// completion.
func (c *WorkflowController) StartGenerate(ctx context.Context) (<-chan error, error) {
	c.mu.Lock()
	if c.state.Busy {
		c.mu.Unlock()
		return nil, errs.ErrBusy
	}
	if !c.state.HasBothPhotos() {
		c.state.Error = msgMissingPhotos
		c.commitLocked()
		return nil, errs.Validation(msgMissingPhotos)
	}

	request, err := entities.NewTryOnRequest(c.state.UserPhoto, c.state.GarmentPhoto, c.params)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.state.Error = ""
	c.state.Result = nil
	c.state.ResultResponse = ""
	c.state.Mode = valueobjects.ModeTryOn
	epoch := c.beginLocked(entities.OperationTryOn)
	c.commitLocked()

	c.logger.Info("try-on dispatched", zap.String("requestID", string(request.ID())))

	return c.dispatch(ctx, epoch, entities.OperationTryOn, func(ctx context.Context) (*entities.GenerationResult, error) {
		return c.generator.ComposeTryOn(ctx, request)
	}), nil
}

// SetMode switches between try-on and edit. Edit mode needs a result.
func (c *WorkflowController) SetMode(mode valueobjects.WorkflowMode) error {
	c.mu.Lock()
	if c.state.Busy {
		c.mu.Unlock()
		return errs.ErrBusy
	}
	if mode == valueobjects.ModeEdit && c.state.Result == nil {
		c.mu.Unlock()
		return errs.Validation(msgEditUnavailable)
	}
	if c.state.Mode == mode {
		c.mu.Unlock()
		return nil
	}
	c.state.Mode = mode
	c.commitLocked()
	return nil
}

// SetEditInstruction stores the pending free-text edit.
func (c *WorkflowController) SetEditInstruction(instruction string) {
	c.mu.Lock()
	if c.state.EditInstruction == instruction {
		c.mu.Unlock()
		return
	}
	c.state.EditInstruction = instruction
	c.commitLocked()
}

// SubmitEdit applies the pending instruction to the current result and blocks
// until the request settles. On failure the previous result is kept.
func (c *WorkflowController) SubmitEdit(ctx context.Context) error {
	done, err := c.StartEdit(ctx)
	if err != nil {
		return err
	}
	return <-done
}

// StartEdit is the non-blocking form of SubmitEdit.
func (c *WorkflowController) StartEdit(ctx context.Context) (<-chan error, error) {
	c.mu.Lock()
	if c.state.Busy {
		c.mu.Unlock()
		return nil, errs.ErrBusy
	}
	if c.state.Mode != valueobjects.ModeEdit || c.state.Result == nil {
		c.mu.Unlock()
		return nil, errs.Validation(msgEditUnavailable)
	}
	if strings.TrimSpace(c.state.EditInstruction) == "" {
		c.state.Error = msgMissingInstruction
		c.commitLocked()
		return nil, errs.Validation(msgMissingInstruction)
	}

	request, err := entities.NewEditRequest(c.state.Result, c.state.EditInstruction, c.params)
	if err != nil {
		c.mu.Unlock()
		return nil, err
	}

	c.state.Error = ""
	epoch := c.beginLocked(entities.OperationEdit)
	c.commitLocked()

	c.logger.Info("edit dispatched", zap.String("requestID", string(request.ID())))

	return c.dispatch(ctx, epoch, entities.OperationEdit, func(ctx context.Context) (*entities.GenerationResult, error) {
		return c.generator.ApplyEdit(ctx, request)
	}), nil
}

// Reset returns the session to its initial state from any phase.
func (c *WorkflowController) Reset() {
	c.mu.Lock()
	c.epoch++
	version := c.state.Version
	c.state = entities.NewSessionState(c.sessionID)
	c.state.Version = version
	c.metrics.SetBusy(false)
	c.logger.Info("session reset")
	c.commitLocked()
}

// ExportResult returns the current result as PNG bytes under the fixed
// download filename. It does not touch the session state.
func (c *WorkflowController) ExportResult() (string, []byte, error) {
	result := c.Snapshot().Result
	if result == nil {
		return "", nil, errs.ErrNoResult
	}
	png, err := result.ToPNG()
	if err != nil {
		return "", nil, err
	}
	return ResultFilename, png.Data(), nil
}

func (c *WorkflowController) beginLocked(op entities.Operation) uint64 {
	c.state.Busy = true
	c.state.Pending = op
	c.metrics.SetBusy(true)
	return c.epoch
}

// dispatch runs call in its own goroutine and settles the session with its
// outcome.
func (c *WorkflowController) dispatch(
	ctx context.Context,
	epoch uint64,
	op entities.Operation,
	call func(context.Context) (*entities.GenerationResult, error),
) <-chan error {
	done := make(chan error, 1)
	dispatchCtx, cancel := c.dispatchContext(ctx)
	go func() {
		defer cancel()
		start := time.Now()
		result, err := call(dispatchCtx)
		done <- c.settle(epoch, op, start, result, err)
	}()
	return done
}

func (c *WorkflowController) settle(
	epoch uint64,
	op entities.Operation,
	start time.Time,
	result *entities.GenerationResult,
	callErr error,
) error {
	elapsed := time.Since(start)

	c.mu.Lock()
	if c.epoch != epoch {
		c.mu.Unlock()
		c.metrics.ObserveGeneration(string(op), "discarded", elapsed)
		c.logger.Info("request settled after reset, discarding", zap.String("operation", string(op)))
		return errs.ErrDiscarded
	}

	c.state.Busy = false
	c.state.Pending = entities.OperationNone
	c.metrics.SetBusy(false)

	if callErr == nil && (result == nil || !result.HasImage()) {
		callErr = errs.Extraction("no image generated")
	}

	if callErr != nil {
		c.state.Error = failureMessage(op, callErr)
		c.metrics.ObserveGeneration(string(op), "error", elapsed)
		c.logger.Warn("request failed",
			zap.String("operation", string(op)),
			zap.Duration("elapsed", elapsed),
			zap.Error(callErr))
		c.commitLocked()
		return callErr
	}

	c.state.Result = result.Image()
	c.state.ResultResponse = result.Response()
	c.metrics.ObserveGeneration(string(op), "success", elapsed)
	c.logger.Info("request succeeded",
		zap.String("operation", string(op)),
		zap.Duration("elapsed", elapsed),
		zap.Int("size", result.Image().Size()))
	c.commitLocked()
	return nil
}

// commitLocked bumps the version, releases the state lock and notifies
// subscribers. The caller must hold c.mu. c.mu is never held while waiting
// for notifyMu.
func (c *WorkflowController) commitLocked() {
	c.state.Version++
	snapshot := c.state
	c.mu.Unlock()

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if snapshot.Version <= c.delivered {
		return
	}
	c.delivered = snapshot.Version

	c.subsMu.Lock()
	subs := make([]func(entities.SessionState), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		subs = append(subs, fn)
	}
	c.subsMu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

func (c *WorkflowController) dispatchContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	detached := context.WithoutCancel(ctx)
	if c.timeout > 0 {
		return context.WithTimeout(detached, c.timeout)
	}
	return detached, func() {}
}

func loadFailedMessage(slot Slot) string {
	switch slot {
	case SlotUser:
		return msgUserLoadFailed
	case SlotGarment:
		return msgGarmentLoadFailed
	default:
		return msgResultLoadFailed
	}
}

func failureMessage(op entities.Operation, err error) string {
	if e, ok := errs.Find(err, errs.KindConfiguration); ok {
		return e.Message
	}
	if op == entities.OperationEdit {
		return msgEditFailed
	}
	return msgGenerateFailed
}
