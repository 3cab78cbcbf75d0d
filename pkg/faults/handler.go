package faults

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/IamBlackShifu/MediTrack/pkg/notify"
	"github.com/IamBlackShifu/MediTrack/pkg/storage"
)

const (
	defaultLogKey = "meditrack.faults.log"
	defaultLogCap = 50
)

// Recovery is invoked when the user picks a modal action.
type Recovery func(ctx context.Context, f Fault) error

// Handler is the single funnel for runtime faults: it normalizes, logs,
// persists a rolling window for support exports, and tells the user.
type Handler struct {
	logger   *slog.Logger
	notifier notify.Notifier
	kv       storage.KV
	policies map[Category]Policy
	logKey   string
	logCap   int

	mu       sync.Mutex
	recovery map[notify.Action]Recovery
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHandlerLogger overrides the structured logger.
func WithHandlerLogger(logger *slog.Logger) HandlerOption {
	return func(h *Handler) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithNotifier routes user-facing messages through n.
func WithNotifier(n notify.Notifier) HandlerOption {
	return func(h *Handler) { h.notifier = n }
}

// WithFaultLog persists the rolling fault window in kv.
func WithFaultLog(kv storage.KV) HandlerOption {
	return func(h *Handler) { h.kv = kv }
}

// WithLogCap bounds the persisted window.
func WithLogCap(n int) HandlerOption {
	return func(h *Handler) {
		if n > 0 {
			h.logCap = n
		}
	}
}

// WithPolicy overrides the handling policy for one category.
func WithPolicy(category Category, policy Policy) HandlerOption {
	return func(h *Handler) { h.policies[category] = policy }
}

// WithRecovery registers the hook behind a modal action.
func WithRecovery(action notify.Action, fn Recovery) HandlerOption {
	return func(h *Handler) { h.recovery[action] = fn }
}

// NewHandler builds a Handler with the default policy table.
func NewHandler(opts ...HandlerOption) *Handler {
	h := &Handler{
		logger:   slog.Default(),
		policies: DefaultPolicies(),
		logKey:   defaultLogKey,
		logCap:   defaultLogCap,
		recovery: make(map[notify.Action]Recovery),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Policy returns the handling policy for a category.
func (h *Handler) Policy(category Category) Policy {
	if policy, ok := h.policies[category]; ok {
		return policy
	}
	return h.policies[CategoryUnknown]
}

// Retryable reports whether err's category may be retried automatically.
// It plugs straight into a retry.Policy.
func (h *Handler) Retryable(err error) bool {
	return h.Policy(Classify(err)).Retryable
}

// Handle normalizes err, records it, and surfaces it to the user according
// to the category policy. It returns the normalized fault so callers can
// attach it to their own results.
func (h *Handler) Handle(ctx context.Context, err error) Fault {
	fault := Normalize(err)
	policy := h.Policy(fault.Category)
	if fault.Severity == "" {
		fault.Severity = policy.Severity
	}

	h.log(fault)
	h.persist(ctx, fault)
	h.surface(ctx, fault, policy)
	return fault
}

func (h *Handler) log(f Fault) {
	attrs := []any{
		slog.String("fault_id", f.ID),
		slog.String("category", string(f.Category)),
		slog.String("severity", string(f.Severity)),
	}
	if f.Code != 0 {
		attrs = append(attrs, slog.Int("status", f.Code))
	}
	switch f.Severity {
	case SeverityCritical, SeverityHigh:
		h.logger.Error(f.Message, attrs...)
	case SeverityMedium:
		h.logger.Warn(f.Message, attrs...)
	default:
		h.logger.Info(f.Message, attrs...)
	}
}

func (h *Handler) persist(ctx context.Context, f Fault) {
	if h.kv == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	window, err := h.readLog(ctx)
	if err != nil {
		h.logger.Warn("fault log unreadable, starting fresh", slog.Any("error", err))
		window = nil
	}
	window = append(window, f)
	if len(window) > h.logCap {
		window = window[len(window)-h.logCap:]
	}

	data, err := json.Marshal(window)
	if err != nil {
		h.logger.Warn("fault log encode failed", slog.Any("error", err))
		return
	}
	if err := h.kv.Set(ctx, h.logKey, data); err != nil {
		h.logger.Warn("fault log write failed", slog.Any("error", err))
	}
}

func (h *Handler) readLog(ctx context.Context) ([]Fault, error) {
	data, err := h.kv.Get(ctx, h.logKey)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var window []Fault
	if err := json.Unmarshal(data, &window); err != nil {
		return nil, err
	}
	return window, nil
}

// Log returns the persisted fault window, oldest first.
func (h *Handler) Log(ctx context.Context) ([]Fault, error) {
	if h.kv == nil {
		return nil, nil
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.readLog(ctx)
}

// ExportLog serializes the fault window for a support handoff.
func (h *Handler) ExportLog(ctx context.Context) ([]byte, error) {
	window, err := h.Log(ctx)
	if err != nil {
		return nil, fmt.Errorf("faults: export log: %w", err)
	}
	return json.MarshalIndent(window, "", "  ")
}

func (h *Handler) surface(ctx context.Context, f Fault, policy Policy) {
	if h.notifier == nil {
		return
	}

	message := policy.UserMessage
	if message == "" {
		message = f.Message
	}

	if !f.Critical() {
		level := notify.LevelError
		if f.Severity == SeverityLow {
			level = notify.LevelWarning
		}
		h.notifier.Toast(notify.Notification{Level: level, Message: message})
		return
	}

	actions := make([]notify.Action, 0, len(policy.Actions))
	for _, action := range policy.Actions {
		actions = append(actions, notify.Action(action))
	}
	picked, err := h.notifier.Modal(notify.Modal{
		Title:   "Something went wrong",
		Message: message,
		Detail:  fmt.Sprintf("Reference: %s", f.ID),
		Actions: actions,
	})
	if err != nil {
		h.logger.Warn("fault modal failed", slog.Any("error", err))
		return
	}
	h.runRecovery(ctx, picked, f)
}

func (h *Handler) runRecovery(ctx context.Context, action notify.Action, f Fault) {
	h.mu.Lock()
	fn := h.recovery[action]
	h.mu.Unlock()
	if fn == nil {
		return
	}
	if err := fn(ctx, f); err != nil {
		h.logger.Error("fault recovery failed",
			slog.String("action", string(action)),
			slog.Any("error", err))
	}
}
