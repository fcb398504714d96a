package domain

import (
	"encoding/base64"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
)

// DefaultImageMIME is assumed when neither a header nor sniffing yields an image type.
const DefaultImageMIME = "image/jpeg"

// Payload is an encoded image together with its MIME type. A Payload never
// changes after construction: the constructor copies its input and Bytes
// returns a copy, so an edit always produces a new Payload.
type Payload struct {
	mime string
	data []byte
}

// NewPayload copies data into a new Payload. An empty mime is resolved by
// sniffing the bytes.
func NewPayload(mime string, data []byte) Payload {
	buf := make([]byte, len(data))
	copy(buf, data)
	mime = strings.ToLower(strings.TrimSpace(mime))
	if mime == "" {
		mime = SniffMIME(buf)
	}
	return Payload{mime: mime, data: buf}
}

// MIMEType returns the payload content type.
func (p Payload) MIMEType() string { return p.mime }

// Len returns the number of encoded bytes.
func (p Payload) Len() int { return len(p.data) }

// IsZero reports whether the payload carries no image.
func (p Payload) IsZero() bool { return len(p.data) == 0 }

// Bytes returns a copy of the encoded image.
func (p Payload) Bytes() []byte {
	out := make([]byte, len(p.data))
	copy(out, p.data)
	return out
}

// Base64 returns the standard base64 encoding of the image bytes.
func (p Payload) Base64() string {
	return base64.StdEncoding.EncodeToString(p.data)
}

// DataURI renders the payload as data:<mime>;base64,<body>.
func (p Payload) DataURI() string {
	return DataURI{MIMEType: p.mime, Base64: true, Body: p.Base64()}.String()
}

// Extension returns a file extension (without dot) for the payload type.
func (p Payload) Extension() string {
	switch p.mime {
	case "image/png":
		return "png"
	case "image/gif":
		return "gif"
	case "image/webp":
		return "webp"
	case "image/bmp":
		return "bmp"
	default:
		return "jpg"
	}
}

// DataURI is the parsed form of an RFC 2397 data URL.
type DataURI struct {
	MIMEType string
	Params   map[string]string
	Base64   bool
	Body     string
}

// IsDataURI reports whether s looks like a data URL.
func IsDataURI(s string) bool {
	s = strings.TrimSpace(s)
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

// ParseDataURI splits the header from the body once. Body decoding happens in
// Payload.
func ParseDataURI(s string) (DataURI, error) {
	s = strings.TrimSpace(s)
	if !IsDataURI(s) {
		return DataURI{}, fmt.Errorf("%w: not a data uri", ErrEncoding)
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 {
		return DataURI{}, fmt.Errorf("%w: data uri has no body separator", ErrEncoding)
	}
	header := s[len("data:"):comma]
	out := DataURI{Body: s[comma+1:]}
	for i, field := range strings.Split(header, ";") {
		field = strings.TrimSpace(field)
		if i == 0 {
			out.MIMEType = strings.ToLower(field)
			continue
		}
		if strings.EqualFold(field, "base64") {
			out.Base64 = true
			continue
		}
		if k, v, ok := strings.Cut(field, "="); ok {
			if out.Params == nil {
				out.Params = map[string]string{}
			}
			out.Params[strings.ToLower(k)] = v
		}
	}
	return out, nil
}

// Payload decodes the body into an immutable Payload.
func (d DataURI) Payload() (Payload, error) {
	var data []byte
	if d.Base64 {
		body := strings.Map(func(r rune) rune {
			switch r {
			case ' ', '\n', '\r', '\t':
				return -1
			}
			return r
		}, d.Body)
		decoded, err := decodeBase64(body)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(d.Body)
		if err != nil {
			return Payload{}, fmt.Errorf("%w: %v", ErrEncoding, err)
		}
		data = []byte(unescaped)
	}
	if len(data) == 0 {
		return Payload{}, fmt.Errorf("%w: empty data uri body", ErrEncoding)
	}
	return Payload{mime: pickMIME(d.MIMEType, data), data: data}, nil
}

// String renders the data URI with parameters in key order.
func (d DataURI) String() string {
	var b strings.Builder
	b.WriteString("data:")
	b.WriteString(d.MIMEType)
	for _, k := range slices.Sorted(maps.Keys(d.Params)) {
		b.WriteString(";" + k + "=" + d.Params[k])
	}
	if d.Base64 {
		b.WriteString(";base64")
	}
	b.WriteByte(',')
	b.WriteString(d.Body)
	return b.String()
}

// PayloadFromDataURI parses and decodes s in one step.
func PayloadFromDataURI(s string) (Payload, error) {
	d, err := ParseDataURI(s)
	if err != nil {
		return Payload{}, err
	}
	return d.Payload()
}

// PayloadFromBase64 decodes a bare base64 body, as returned by the AI service.
func PayloadFromBase64(mime, body string) (Payload, error) {
	data, err := decodeBase64(strings.TrimSpace(body))
	if err != nil {
		return Payload{}, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	if len(data) == 0 {
		return Payload{}, fmt.Errorf("%w: empty base64 body", ErrEncoding)
	}
	return Payload{mime: pickMIME(mime, data), data: data}, nil
}

// SniffMIME detects the content type of encoded image bytes.
func SniffMIME(data []byte) string {
	if len(data) == 0 {
		return DefaultImageMIME
	}
	mime := http.DetectContentType(data)
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = mime[:i]
	}
	return strings.TrimSpace(mime)
}

// IsImageMIME reports whether mime names an image type.
func IsImageMIME(mime string) bool {
	return strings.HasPrefix(strings.ToLower(strings.TrimSpace(mime)), "image/")
}

func pickMIME(explicit string, data []byte) string {
	explicit = strings.ToLower(strings.TrimSpace(explicit))
	if i := strings.IndexByte(explicit, ';'); i >= 0 {
		explicit = strings.TrimSpace(explicit[:i])
	}
	if explicit != "" && explicit != "application/octet-stream" {
		return explicit
	}
	return SniffMIME(data)
}

// decodeBase64 accepts standard and URL-safe alphabets, padded or not.
func decodeBase64(s string) ([]byte, error) {
	if b, err := base64.StdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.RawStdEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	if b, err := base64.URLEncoding.DecodeString(s); err == nil {
		return b, nil
	}
	return base64.RawURLEncoding.DecodeString(s)
}
