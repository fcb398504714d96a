// Package orchestrator runs the two AI request kinds against the editor
// state. Each kind carries a generation token: only the most recently issued
// invocation may write its result, older ones are reported as stale.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"memegenius/internal/domain"
	"memegenius/internal/imagesource"
	"memegenius/internal/infra"
	"memegenius/internal/state"
)

// CaptionService suggests meme captions for an image.
type CaptionService interface {
	SuggestCaptions(ctx context.Context, image domain.Payload, count int) ([]domain.CaptionSuggestion, error)
}

// ImageEditor applies a natural language instruction to an image.
type ImageEditor interface {
	EditImage(ctx context.Context, image domain.Payload, instruction string) (domain.Payload, error)
}

// SourceNormalizer turns an image reference into a payload.
type SourceNormalizer interface {
	Normalize(ctx context.Context, src imagesource.Source) (domain.Payload, error)
}

// Options tune a caption run.
type Options struct {
	// AutoApply copies the first suggestion into the bottom text.
	AutoApply bool
	// Quiet suppresses the failure notice; the error is still returned.
	Quiet bool
}

// Outcome describes how an invocation ended.
type Outcome struct {
	Kind        domain.OperationKind
	Token       uint64
	Skipped     bool
	Stale       bool
	Suggestions []domain.CaptionSuggestion
	Image       domain.Payload
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Captions     CaptionService
	Editor       ImageEditor
	Sources      SourceNormalizer
	Store        *state.Store
	CaptionCount int
	Timeout      time.Duration
	Logger       *infra.Logger
}

// Orchestrator coordinates AI requests with the state store.
type Orchestrator struct {
	captions CaptionService
	editor   ImageEditor
	sources  SourceNormalizer
	store    *state.Store
	count    int
	timeout  time.Duration
	logger   *infra.Logger

	caption *tracker
	edit    *tracker
}

// New builds an orchestrator.
func New(cfg Config) *Orchestrator {
	logger := cfg.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	count := cfg.CaptionCount
	if count <= 0 {
		count = 5
	}
	return &Orchestrator{
		captions: cfg.Captions,
		editor:   cfg.Editor,
		sources:  cfg.Sources,
		store:    cfg.Store,
		count:    count,
		timeout:  cfg.Timeout,
		logger:   logger,
		caption:  &tracker{kind: domain.OperationCaption},
		edit:     &tracker{kind: domain.OperationEdit},
	}
}

// SuggestCaptions requests suggestions for the store's current image.
func (o *Orchestrator) SuggestCaptions(ctx context.Context, opts Options) (Outcome, error) {
	return o.suggest(ctx, nil, opts)
}

// SuggestForPayload requests suggestions for an explicit image, as the
// capture flow does before the preview catches up.
func (o *Orchestrator) SuggestForPayload(ctx context.Context, image domain.Payload, opts Options) (Outcome, error) {
	if image.IsZero() {
		return Outcome{Kind: domain.OperationCaption}, fmt.Errorf("%w: no image", domain.ErrSuggestion)
	}
	return o.suggest(ctx, &image, opts)
}

func (o *Orchestrator) suggest(ctx context.Context, explicit *domain.Payload, opts Options) (Outcome, error) {
	out := Outcome{Kind: domain.OperationCaption}
	notice := domain.NoticeCaptionFailed
	if opts.Quiet {
		notice = ""
	}

	token, current, err := o.run(ctx, o.caption, notice, func(ctx context.Context) (func(), error) {
		var image domain.Payload
		if explicit != nil {
			image = *explicit
		} else {
			resolved, err := o.currentImage(ctx)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrSuggestion, err)
			}
			image = resolved
		}

		list, err := o.captions.SuggestCaptions(ctx, image, o.count)
		if err != nil {
			if !errors.Is(err, domain.ErrSuggestion) {
				err = fmt.Errorf("%w: %w", domain.ErrSuggestion, err)
			}
			return nil, err
		}
		out.Suggestions = list
		return func() { o.store.SetSuggestions(list, opts.AutoApply) }, nil
	})
	out.Token = token
	if !current {
		out.Stale = true
		return out, nil
	}
	return out, err
}

// EditImage applies instruction to the current image. A blank instruction
// is a no-op reported as skipped.
func (o *Orchestrator) EditImage(ctx context.Context, instruction string) (Outcome, error) {
	out := Outcome{Kind: domain.OperationEdit}
	instruction = strings.TrimSpace(instruction)
	if instruction == "" {
		out.Skipped = true
		return out, nil
	}

	token, current, err := o.run(ctx, o.edit, domain.NoticeEditFailed, func(ctx context.Context) (func(), error) {
		image, err := o.currentImage(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrEdit, err)
		}
		edited, err := o.editor.EditImage(ctx, image, instruction)
		if err != nil {
			if !errors.Is(err, domain.ErrEdit) {
				err = fmt.Errorf("%w: %w", domain.ErrEdit, err)
			}
			return nil, err
		}
		if edited.IsZero() {
			return nil, fmt.Errorf("%w: empty image returned", domain.ErrEdit)
		}
		out.Image = edited
		return func() { o.store.ApplyEdit(edited) }, nil
	})
	out.Token = token
	if !current {
		out.Stale = true
		return out, nil
	}
	return out, err
}

// UseCapture makes a camera still the base image and, when auto-magic is on,
// captions it with the first suggestion applied. Caption failures here are
// logged without a notice.
func (o *Orchestrator) UseCapture(ctx context.Context, image domain.Payload) (Outcome, error) {
	o.store.SetImage(state.ImageRef{Payload: image})
	if !o.store.AutoMagic() {
		return Outcome{Kind: domain.OperationCaption, Skipped: true}, nil
	}
	out, err := o.SuggestForPayload(ctx, image, Options{AutoApply: true, Quiet: true})
	if err != nil {
		o.logger.Warn().Err(err).Msg("orchestrator: auto caption of capture failed")
	}
	return out, err
}

// currentImage resolves the store's image into bytes. Remote templates are
// fetched on every call.
func (o *Orchestrator) currentImage(ctx context.Context) (domain.Payload, error) {
	ref := o.store.CurrentImage()
	if ref.IsPayload() {
		return ref.Payload, nil
	}
	if o.sources == nil {
		return domain.Payload{}, fmt.Errorf("%w: no source normalizer", domain.ErrFetch)
	}
	return o.sources.Normalize(ctx, imagesource.FromString(ref.URL))
}

// run executes call under the kind's tracker. The pending state is written
// before call and settled on every exit path, including panics.
func (o *Orchestrator) run(ctx context.Context, t *tracker, notice domain.NoticeCode, call func(context.Context) (func(), error)) (uint64, bool, error) {
	token := t.begin(o.store)
	started := time.Now()
	settled := false
	defer func() {
		if !settled {
			t.settle(o.store, token, fmt.Errorf("%s request aborted", t.kind), nil)
		}
	}()

	callCtx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}

	apply, err := call(callCtx)
	current := t.settle(o.store, token, err, apply)
	settled = true

	event := o.logger.Info()
	if err != nil {
		event = o.logger.Warn().Err(err)
	}
	event.
		Str("kind", string(t.kind)).
		Uint64("token", token).
		Bool("stale", !current).
		Dur("elapsed", time.Since(started)).
		Msg("orchestrator: request settled")

	if err != nil && current && notice != "" {
		o.store.PushNotice(notice, t.kind)
	}
	return token, current, err
}

type tracker struct {
	kind   domain.OperationKind
	mu     sync.Mutex
	latest uint64
}

func (t *tracker) begin(store *state.Store) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest++
	store.SetRequestState(domain.RequestState{Kind: t.kind, Status: domain.RequestPending, Token: t.latest})
	return t.latest
}

// settle applies the result when token is still the latest issued and
// reports whether it was.
func (t *tracker) settle(store *state.Store, token uint64, err error, apply func()) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if token != t.latest {
		return false
	}
	if err != nil {
		store.SetRequestState(domain.RequestState{Kind: t.kind, Status: domain.RequestFailed, Error: err.Error(), Token: token})
		return true
	}
	if apply != nil {
		apply()
	}
	store.SetRequestState(domain.RequestState{Kind: t.kind, Status: domain.RequestSucceeded, Token: token})
	return true
}
