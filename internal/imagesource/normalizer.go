package imagesource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"memegenius/internal/domain"
	"memegenius/internal/infra"
)

// Kind enumerates accepted image sources.
type Kind string

const (
	KindDataURI Kind = "data_uri"
	KindURL     Kind = "url"
	KindFile    Kind = "file"
	KindReader  Kind = "reader"
)

// Source is one image source to normalize. Build it with the From*
// constructors.
type Source struct {
	Kind   Kind
	Value  string
	Name   string
	Reader io.Reader
}

// FromDataURI wraps an already encoded data URI.
func FromDataURI(s string) Source { return Source{Kind: KindDataURI, Value: s} }

// FromURL wraps a remote image URL such as a template.
func FromURL(u string) Source { return Source{Kind: KindURL, Value: u} }

// FromFile wraps a media library key.
func FromFile(key string) Source { return Source{Kind: KindFile, Value: key, Name: key} }

// FromReader wraps an uploaded file.
func FromReader(name string, r io.Reader) Source {
	return Source{Kind: KindReader, Name: name, Reader: r}
}

// FromString picks data URI or URL by inspecting s.
func FromString(s string) Source {
	if domain.IsDataURI(s) {
		return FromDataURI(s)
	}
	return FromURL(s)
}

// FileReader reads media library files.
type FileReader interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// Options configures a Normalizer.
type Options struct {
	HTTPClient *http.Client
	Files      FileReader
	MaxBytes   int64
	Timeout    time.Duration
	Logger     *infra.Logger
}

// Normalizer converts every accepted source into a domain.Payload. It keeps
// no cache: repeated calls for the same URL fetch again.
type Normalizer struct {
	client   *http.Client
	files    FileReader
	maxBytes int64
	logger   *infra.Logger
}

const defaultMaxBytes = 20 << 20

// NewNormalizer constructs a Normalizer with sane defaults.
func NewNormalizer(opts Options) *Normalizer {
	client := opts.HTTPClient
	if client == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 20 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	logger := opts.Logger
	if logger == nil {
		logger = infra.NopLogger()
	}
	return &Normalizer{client: client, files: opts.Files, maxBytes: maxBytes, logger: logger}
}

// Normalize resolves src into an image payload. Errors wrap domain.ErrRead,
// domain.ErrFetch or domain.ErrEncoding.
func (n *Normalizer) Normalize(ctx context.Context, src Source) (domain.Payload, error) {
	var (
		p   domain.Payload
		err error
	)
	switch src.Kind {
	case KindDataURI:
		p, err = domain.PayloadFromDataURI(src.Value)
	case KindURL:
		p, err = n.fetch(ctx, src.Value)
	case KindFile:
		p, err = n.readFile(ctx, src.Value)
	case KindReader:
		p, err = n.readUpload(src)
	default:
		return domain.Payload{}, fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidInput, src.Kind)
	}
	if err != nil {
		return domain.Payload{}, err
	}
	if !domain.IsImageMIME(p.MIMEType()) {
		return domain.Payload{}, fmt.Errorf("%w: %s is not an image", domain.ErrEncoding, p.MIMEType())
	}
	return p, nil
}

func (n *Normalizer) fetch(ctx context.Context, rawURL string) (domain.Payload, error) {
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return domain.Payload{}, fmt.Errorf("%w: invalid url %q", domain.ErrFetch, rawURL)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("%w: build request: %v", domain.ErrFetch, err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := n.client.Do(req)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("%w: %v", domain.ErrFetch, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return domain.Payload{}, fmt.Errorf("%w: %s returned status %d", domain.ErrFetch, parsed.Host, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, n.maxBytes+1))
	if err != nil {
		return domain.Payload{}, fmt.Errorf("%w: read body: %v", domain.ErrFetch, err)
	}
	if int64(len(data)) > n.maxBytes {
		return domain.Payload{}, fmt.Errorf("%w: image exceeds %d bytes", domain.ErrFetch, n.maxBytes)
	}
	if len(data) == 0 {
		return domain.Payload{}, fmt.Errorf("%w: empty response body", domain.ErrEncoding)
	}

	n.logger.Debug().
		Str("host", parsed.Host).
		Int("bytes", len(data)).
		Msg("imagesource: fetched remote image")

	return domain.NewPayload(contentType(resp.Header.Get("Content-Type"), data), data), nil
}

func (n *Normalizer) readFile(ctx context.Context, key string) (domain.Payload, error) {
	if n.files == nil {
		return domain.Payload{}, fmt.Errorf("%w: no media library configured", domain.ErrRead)
	}
	data, err := n.files.Read(ctx, key)
	if err != nil {
		return domain.Payload{}, fmt.Errorf("%w: %v", domain.ErrRead, err)
	}
	if len(data) == 0 {
		return domain.Payload{}, fmt.Errorf("%w: %s is empty", domain.ErrRead, key)
	}
	return domain.NewPayload("", data), nil
}

func (n *Normalizer) readUpload(src Source) (domain.Payload, error) {
	if src.Reader == nil {
		return domain.Payload{}, fmt.Errorf("%w: no file provided", domain.ErrRead)
	}
	data, err := io.ReadAll(io.LimitReader(src.Reader, n.maxBytes+1))
	if err != nil {
		return domain.Payload{}, fmt.Errorf("%w: %v", domain.ErrRead, err)
	}
	if int64(len(data)) > n.maxBytes {
		return domain.Payload{}, fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrRead, src.Name, n.maxBytes)
	}
	if len(data) == 0 {
		return domain.Payload{}, fmt.Errorf("%w: %s is empty", domain.ErrRead, src.Name)
	}
	return domain.NewPayload("", data), nil
}

func contentType(header string, data []byte) string {
	mime := strings.ToLower(strings.TrimSpace(header))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if domain.IsImageMIME(mime) {
		return mime
	}
	return domain.SniffMIME(data)
}

// IsSourceError reports whether err belongs to the normalizer taxonomy.
func IsSourceError(err error) bool {
	return errors.Is(err, domain.ErrRead) || errors.Is(err, domain.ErrFetch) || errors.Is(err, domain.ErrEncoding)
}
