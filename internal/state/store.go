// Package state holds the editor's presentation state. The Store is the only
// place the current image, texts, style, suggestions and notices change.
package state

import (
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"memegenius/internal/domain"
	"memegenius/internal/templates"
)

const (
	DefaultFontSize   = 48
	MinFontSize       = 12
	MaxFontSize       = 100
	DefaultTextColor  = "#ffffff"
	DefaultTopText    = "Me when"
	DefaultBottomText = "I find a new bug"

	maxNotices = 20
)

var hexColor = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// ImageRef is the current base image: a remote URL (template) or an encoded
// payload (upload, capture, edit result).
type ImageRef struct {
	URL        string
	TemplateID string
	LibraryKey string
	Payload    domain.Payload
}

// IsPayload reports whether the image is held as encoded bytes.
func (r ImageRef) IsPayload() bool { return !r.Payload.IsZero() }

// String renders the reference the way the preview consumes it.
func (r ImageRef) String() string {
	if r.IsPayload() {
		return r.Payload.DataURI()
	}
	return r.URL
}

// Notice is a transient, dismissible message for the user.
type Notice struct {
	ID        string               `json:"id"`
	Code      domain.NoticeCode    `json:"code"`
	Kind      domain.OperationKind `json:"kind,omitempty"`
	Message   string               `json:"message,omitempty"`
	CreatedAt time.Time            `json:"created_at"`
}

// Snapshot is a consistent copy of the store.
type Snapshot struct {
	Version     uint64                     `json:"version"`
	Image       string                     `json:"image_url"`
	ImageMIME   string                     `json:"image_mime,omitempty"`
	TemplateID  string                     `json:"template_id,omitempty"`
	LibraryKey  string                     `json:"library_key,omitempty"`
	TopText     string                     `json:"top_text"`
	BottomText  string                     `json:"bottom_text"`
	FontSize    int                        `json:"font_size"`
	TextColor   string                     `json:"text_color"`
	Suggestions []domain.CaptionSuggestion `json:"suggestions"`
	Instruction string                     `json:"instruction"`
	AutoMagic   bool                       `json:"auto_magic"`
	Caption     domain.RequestState        `json:"caption"`
	Edit        domain.RequestState        `json:"edit"`
	Notices     []Notice                   `json:"notices"`
}

// Store is safe for concurrent use.
type Store struct {
	mu          sync.RWMutex
	version     uint64
	image       ImageRef
	topText     string
	bottomText  string
	fontSize    int
	textColor   string
	suggestions []domain.CaptionSuggestion
	instruction string
	autoMagic   bool
	requests    map[domain.OperationKind]domain.RequestState
	notices     []Notice
	now         func() time.Time
}

// New returns a store initialised with the default template and texts.
func New() *Store {
	tpl := templates.Default()
	return &Store{
		image:      ImageRef{URL: tpl.URL, TemplateID: tpl.ID},
		topText:    DefaultTopText,
		bottomText: DefaultBottomText,
		fontSize:   DefaultFontSize,
		textColor:  DefaultTextColor,
		autoMagic:  true,
		requests: map[domain.OperationKind]domain.RequestState{
			domain.OperationCaption: domain.IdleState(domain.OperationCaption),
			domain.OperationEdit:    domain.IdleState(domain.OperationEdit),
		},
		now: time.Now,
	}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := Snapshot{
		Version:     s.version,
		Image:       s.image.String(),
		TemplateID:  s.image.TemplateID,
		LibraryKey:  s.image.LibraryKey,
		TopText:     s.topText,
		BottomText:  s.bottomText,
		FontSize:    s.fontSize,
		TextColor:   s.textColor,
		Suggestions: append([]domain.CaptionSuggestion{}, s.suggestions...),
		Instruction: s.instruction,
		AutoMagic:   s.autoMagic,
		Caption:     s.requests[domain.OperationCaption],
		Edit:        s.requests[domain.OperationEdit],
		Notices:     append([]Notice{}, s.notices...),
	}
	if s.image.IsPayload() {
		snap.ImageMIME = s.image.Payload.MIMEType()
	}
	return snap
}

// CurrentImage returns the current base image.
func (s *Store) CurrentImage() ImageRef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.image
}

// SetImage replaces the base image and clears suggestions that described the
// previous one.
func (s *Store) SetImage(ref ImageRef) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = ref
	s.suggestions = nil
	s.version++
}

// ApplyEdit replaces the image with an edit result and clears the instruction
// field. Suggestions are kept.
func (s *Store) ApplyEdit(p domain.Payload) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.image = ImageRef{Payload: p}
	s.instruction = ""
	s.version++
}

// SetTopText sets the upper caption.
func (s *Store) SetTopText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topText = text
	s.version++
}

// SetBottomText sets the lower caption.
func (s *Store) SetBottomText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bottomText = text
	s.version++
}

// SetFontSize clamps size into [MinFontSize, MaxFontSize] and returns the
// value stored.
func (s *Store) SetFontSize(size int) int {
	if size < MinFontSize {
		size = MinFontSize
	}
	if size > MaxFontSize {
		size = MaxFontSize
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fontSize = size
	s.version++
	return size
}

// SetTextColor accepts #rrggbb colours.
func (s *Store) SetTextColor(color string) error {
	color = strings.TrimSpace(color)
	if !hexColor.MatchString(color) {
		return fmt.Errorf("%w: colour %q is not #rrggbb", domain.ErrInvalidInput, color)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.textColor = strings.ToLower(color)
	s.version++
	return nil
}

// ResetText clears both captions and the suggestion list.
func (s *Store) ResetText() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.topText = ""
	s.bottomText = ""
	s.suggestions = nil
	s.version++
}

// SetInstruction stores the edit instruction field as typed.
func (s *Store) SetInstruction(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.instruction = text
	s.version++
}

// Instruction returns the edit instruction field.
func (s *Store) Instruction() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.instruction
}

// SetAutoMagic toggles captioning of camera captures.
func (s *Store) SetAutoMagic(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autoMagic = on
	s.version++
}

// AutoMagic reports whether captures are captioned automatically.
func (s *Store) AutoMagic() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoMagic
}

// SetSuggestions replaces the suggestion panel. With autoApply the first
// suggestion also becomes the bottom text.
func (s *Store) SetSuggestions(list []domain.CaptionSuggestion, autoApply bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suggestions = append([]domain.CaptionSuggestion{}, list...)
	if autoApply && len(list) > 0 {
		s.bottomText = list[0].Text
	}
	s.version++
}

// ApplySuggestion copies suggestion index into the bottom text.
func (s *Store) ApplySuggestion(index int) (domain.CaptionSuggestion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if index < 0 || index >= len(s.suggestions) {
		return domain.CaptionSuggestion{}, fmt.Errorf("%w: suggestion %d", domain.ErrNotFound, index)
	}
	picked := s.suggestions[index]
	s.bottomText = picked.Text
	s.version++
	return picked, nil
}

// RequestState returns the state of one operation kind.
func (s *Store) RequestState(kind domain.OperationKind) domain.RequestState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.requests[kind]
}

// SetRequestState records the lifecycle position of an operation kind.
func (s *Store) SetRequestState(st domain.RequestState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests[st.Kind] = st
	s.version++
}

// PushNotice appends a notice, dropping the oldest beyond the cap.
func (s *Store) PushNotice(code domain.NoticeCode, kind domain.OperationKind) Notice {
	n := Notice{ID: uuid.NewString(), Code: code, Kind: kind, CreatedAt: s.now().UTC()}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notices = append(s.notices, n)
	if len(s.notices) > maxNotices {
		s.notices = append([]Notice{}, s.notices[len(s.notices)-maxNotices:]...)
	}
	s.version++
	return n
}

// DismissNotice removes a notice by id.
func (s *Store) DismissNotice(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, n := range s.notices {
		if n.ID == id {
			s.notices = append(s.notices[:i:i], s.notices[i+1:]...)
			s.version++
			return nil
		}
	}
	return fmt.Errorf("%w: notice %s", domain.ErrNotFound, id)
}
