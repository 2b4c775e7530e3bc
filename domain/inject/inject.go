package inject

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math/rand/v2"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"time"

	"github.com/soocke/pixel-assist-go/domain/action"
	"github.com/soocke/pixel-assist-go/domain/geometry"
)

var (
	// ErrClipboardBusy is re-exported from the action layer.
	ErrClipboardBusy        = action.ErrClipboardBusy
	ErrLayoutSwitchFailed   = errors.New("inject: keyboard layout switch failed")
	ErrVerificationMismatch = errors.New("inject: pasted text does not match")
	ErrEmptyCommand         = errors.New("inject: command has no usable response")
	ErrBusy                 = errors.New("inject: another send is in flight")
)

// Command is a named set of response variants.
type Command struct {
	Name                string
	Responses           []string
	AutoSubmit          bool
	CountsTowardCounter bool
}

// Result reports the outcome of one Send.
type Result struct {
	OK       bool
	Verified bool
	Text     string
	Err      error
	Warnings []error
}

// CounterSink receives one increment per counted send.
type CounterSink interface {
	Increment(ctx context.Context, command string) error
}

// Entry is one row of send history.
type Entry struct {
	Command  string
	Text     string
	OK       bool
	Verified bool
	Error    string
	At       time.Time
	Duration time.Duration
}

// HistoryRecorder persists send history.
type HistoryRecorder interface {
	Record(ctx context.Context, e Entry) error
}

// Mapper converts the reference input-field point into screen space.
type Mapper interface {
	Normalize(p geometry.Point) image.Point
}

// Config tunes the send transaction.
type Config struct {
	InputPoint     geometry.Point
	Layout         uint16
	Settle         time.Duration
	RejectWhenBusy bool
	SkipVerify     bool
	SkipClick      bool
}

// Deps are the OS collaborators of the injector.
type Deps struct {
	Keyboard  action.Keyboard
	Pointer   action.Pointer
	Clipboard action.Clipboard
	Mapper    Mapper
	Counters  []CounterSink
	History   HistoryRecorder
}

// Injector pastes command text into the target application. Only one send is
// in flight at a time; the clipboard is restored after every send.
type Injector struct {
	deps   Deps
	cfg    atomic.Pointer[Config]
	logger *slog.Logger
	guard  chan struct{}
	pick   func(n int) int
	sleep  func(time.Duration)
}

// New constructs an injector.
func New(deps Deps, cfg Config, logger *slog.Logger) *Injector {
	if cfg.Layout == 0 {
		cfg.Layout = 0x0409
	}
	in := &Injector{
		deps:   deps,
		logger: logger,
		guard:  make(chan struct{}, 1),
		pick:   rand.IntN,
		sleep:  time.Sleep,
	}
	in.cfg.Store(&cfg)
	return in
}

// SetConfig replaces the transaction settings; a send in flight may see either.
func (in *Injector) SetConfig(cfg Config) {
	if cfg.Layout == 0 {
		cfg.Layout = 0x0409
	}
	in.cfg.Store(&cfg)
}

func (in *Injector) config() Config { return *in.cfg.Load() }

// ChooseText picks a random non-blank response. ok is false when none exists.
func ChooseText(responses []string, pick func(int) int) (string, bool) {
	usable := make([]string, 0, len(responses))
	for _, r := range responses {
		if strings.TrimSpace(r) != "" {
			usable = append(usable, r)
		}
	}
	switch len(usable) {
	case 0:
		return "", false
	case 1:
		return usable[0], true
	}
	return usable[pick(len(usable))], true
}

// Send runs the paste transaction for cmd.
func (in *Injector) Send(ctx context.Context, cmd Command) Result {
	start := time.Now()
	text, ok := ChooseText(cmd.Responses, in.pick)
	if !ok {
		return Result{Err: fmt.Errorf("%w: %q", ErrEmptyCommand, cmd.Name)}
	}

	if in.config().RejectWhenBusy {
		select {
		case in.guard <- struct{}{}:
		default:
			return Result{Text: text, Err: ErrBusy}
		}
	} else {
		select {
		case in.guard <- struct{}{}:
		case <-ctx.Done():
			return Result{Text: text, Err: ctx.Err()}
		}
	}

	res, pasted := in.exclusive(text, cmd.AutoSubmit)

	if cmd.CountsTowardCounter && pasted {
		for _, c := range in.deps.Counters {
			if err := c.Increment(ctx, cmd.Name); err != nil && in.logger != nil {
				in.logger.Warn("counter increment failed", "command", cmd.Name, "error", err)
			}
		}
	}
	in.record(ctx, cmd, res, start)
	return res
}

// exclusive runs the transaction and releases the guard taken by Send.
func (in *Injector) exclusive(text string, autoSubmit bool) (Result, bool) {
	defer func() { <-in.guard }()
	return in.transact(text, autoSubmit)
}

// transact restores the clipboard snapshot on every exit path, panics included.
func (in *Injector) transact(text string, autoSubmit bool) (res Result, pasted bool) {
	res.Text = text
	clip := in.deps.Clipboard
	var (
		saved string
		taken bool
	)
	defer func() {
		if r := recover(); r != nil {
			if in.logger != nil {
				in.logger.Error("send panic", "error", r, "stack", string(debug.Stack()))
			}
			res.OK = false
			res.Err = fmt.Errorf("inject: panic: %v", r)
		}
		if !taken {
			return
		}
		if err := clip.Set(saved); err != nil {
			in.warn("clipboard restore failed", err)
		}
	}()

	saved, err := clip.Get()
	if err != nil {
		saved = ""
		in.warn("clipboard snapshot failed", err)
	}
	taken = true

	if err := in.ensureLayout(); err != nil {
		res.Warnings = append(res.Warnings, err)
		in.warn("layout", err)
	}

	if err := clip.Set(text); err != nil {
		res.Err = fmt.Errorf("inject: write clipboard: %w", err)
		return res, false
	}

	kb, ptr, cfg := in.deps.Keyboard, in.deps.Pointer, in.config()
	if !cfg.SkipClick && ptr != nil && in.deps.Mapper != nil {
		prev, perr := ptr.Position()
		if err := ptr.Click(in.deps.Mapper.Normalize(cfg.InputPoint)); err != nil {
			res.Err = fmt.Errorf("inject: focus input: %w", err)
			return res, false
		}
		if perr == nil {
			_ = ptr.MoveTo(prev)
		}
	}
	if err := kb.Chord(action.VKControl, action.VKV); err != nil {
		res.Err = fmt.Errorf("inject: paste: %w", err)
		return res, false
	}
	pasted = true

	// Verified stays false when the read-back is skipped.
	if !cfg.SkipVerify {
		if err := in.verify(text); err != nil {
			res.Warnings = append(res.Warnings, err)
			if in.logger != nil {
				in.logger.Warn("paste verification mismatch", "error", err)
			}
		} else {
			res.Verified = true
		}
	}

	if err := kb.Tap(action.VKRight); err != nil {
		res.Err = fmt.Errorf("inject: move caret: %w", err)
		return res, pasted
	}
	if autoSubmit {
		if err := kb.Tap(action.VKReturn); err != nil {
			res.Err = fmt.Errorf("inject: submit: %w", err)
			return res, pasted
		}
	}
	res.OK = true
	return res, pasted
}

func (in *Injector) ensureLayout() error {
	kb := in.deps.Keyboard
	cfg := in.config()
	cur, err := kb.Layout()
	if err == nil && cur == cfg.Layout {
		return nil
	}
	if err := kb.SwitchLayout(cfg.Layout); err != nil {
		return fmt.Errorf("%w: %v", ErrLayoutSwitchFailed, err)
	}
	in.sleep(cfg.Settle / 2)
	if cur, err = kb.Layout(); err != nil || cur != cfg.Layout {
		return fmt.Errorf("%w: have %04x want %04x", ErrLayoutSwitchFailed, cur, cfg.Layout)
	}
	return nil
}

func (in *Injector) verify(want string) error {
	kb := in.deps.Keyboard
	if err := kb.Chord(action.VKControl, action.VKA); err != nil {
		return fmt.Errorf("%w: select: %v", ErrVerificationMismatch, err)
	}
	if err := kb.Chord(action.VKControl, action.VKC); err != nil {
		return fmt.Errorf("%w: copy: %v", ErrVerificationMismatch, err)
	}
	in.sleep(in.config().Settle)
	got, err := in.deps.Clipboard.Get()
	if err != nil {
		return fmt.Errorf("%w: read back: %v", ErrVerificationMismatch, err)
	}
	if normalize(got) != normalize(want) {
		return fmt.Errorf("%w: got %q", ErrVerificationMismatch, got)
	}
	return nil
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func (in *Injector) record(ctx context.Context, cmd Command, res Result, start time.Time) {
	if in.logger != nil {
		in.logger.Info("command sent", "command", cmd.Name, "ok", res.OK, "verified", res.Verified, "error", res.Err)
	}
	if in.deps.History == nil {
		return
	}
	e := Entry{Command: cmd.Name, Text: res.Text, OK: res.OK, Verified: res.Verified, At: start, Duration: time.Since(start)}
	if res.Err != nil {
		e.Error = res.Err.Error()
	}
	if err := in.deps.History.Record(ctx, e); err != nil {
		in.warn("history record failed", err)
	}
}

func (in *Injector) warn(msg string, err error) {
	if in.logger != nil {
		in.logger.Warn(msg, "error", err)
	}
}
