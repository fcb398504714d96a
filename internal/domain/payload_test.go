package domain

import (
	"bytes"
	"encoding/base64"
	"errors"
	"testing"
)

var pngHeader = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A, 0, 0, 0, 0x0D, 'I', 'H', 'D', 'R'}

func TestParseDataURI(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantMIME string
		wantBody []byte
		wantErr  error
	}{
		{
			name:     "base64 jpeg",
			in:       "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF, 0xE0}),
			wantMIME: "image/jpeg",
			wantBody: []byte{0xFF, 0xD8, 0xFF, 0xE0},
		},
		{
			name:     "upper case scheme and params",
			in:       "DATA:image/png;name=x.png;base64," + base64.StdEncoding.EncodeToString(pngHeader),
			wantMIME: "image/png",
			wantBody: pngHeader,
		},
		{
			name:     "missing mime is sniffed",
			in:       "data:;base64," + base64.StdEncoding.EncodeToString(pngHeader),
			wantMIME: "image/png",
			wantBody: pngHeader,
		},
		{
			name:     "percent encoded body",
			in:       "data:image/svg+xml,%3Csvg%3E%3C/svg%3E",
			wantMIME: "image/svg+xml",
			wantBody: []byte("<svg></svg>"),
		},
		{
			name:    "no comma",
			in:      "data:image/png;base64",
			wantErr: ErrEncoding,
		},
		{
			name:    "not a data uri",
			in:      "https://i.imgflip.com/1ur9b0.jpg",
			wantErr: ErrEncoding,
		},
		{
			name:    "corrupt base64",
			in:      "data:image/png;base64,***",
			wantErr: ErrEncoding,
		},
		{
			name:    "empty body",
			in:      "data:image/png;base64,",
			wantErr: ErrEncoding,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := PayloadFromDataURI(tt.in)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("PayloadFromDataURI returned error: %v", err)
			}
			if p.MIMEType() != tt.wantMIME {
				t.Fatalf("MIMEType = %q, want %q", p.MIMEType(), tt.wantMIME)
			}
			if !bytes.Equal(p.Bytes(), tt.wantBody) {
				t.Fatalf("Bytes = %v, want %v", p.Bytes(), tt.wantBody)
			}
		})
	}
}

func TestPayloadDataURIRoundTrip(t *testing.T) {
	original := NewPayload("image/png", pngHeader)
	parsed, err := PayloadFromDataURI(original.DataURI())
	if err != nil {
		t.Fatalf("PayloadFromDataURI returned error: %v", err)
	}
	if !bytes.Equal(parsed.Bytes(), pngHeader) {
		t.Fatalf("round trip changed bytes: %v", parsed.Bytes())
	}
	if parsed.MIMEType() != "image/png" {
		t.Fatalf("MIMEType = %q", parsed.MIMEType())
	}
}

func TestPayloadIsImmutable(t *testing.T) {
	src := []byte{0xFF, 0xD8, 0xFF}
	p := NewPayload("image/jpeg", src)
	src[0] = 0
	if p.Bytes()[0] != 0xFF {
		t.Fatal("payload changed when the source slice was modified")
	}
	out := p.Bytes()
	out[1] = 0
	if p.Bytes()[1] != 0xD8 {
		t.Fatal("payload changed when the returned slice was modified")
	}
}

func TestPayloadFromBase64(t *testing.T) {
	body := base64.StdEncoding.EncodeToString([]byte{0xFF, 0xD8, 0xFF})
	p, err := PayloadFromBase64("image/jpeg", body)
	if err != nil {
		t.Fatalf("PayloadFromBase64 returned error: %v", err)
	}
	if got := p.DataURI(); got != "data:image/jpeg;base64,"+body {
		t.Fatalf("DataURI = %q", got)
	}
	if _, err := PayloadFromBase64("image/jpeg", "%%%"); !errors.Is(err, ErrEncoding) {
		t.Fatalf("err = %v, want ErrEncoding", err)
	}
}

func TestDataURIStringOrdersParams(t *testing.T) {
	in := "data:image/png;name=meme.png;charset=utf-8;base64,iVBORw0KGgo="
	d, err := ParseDataURI(in)
	if err != nil {
		t.Fatalf("ParseDataURI returned error: %v", err)
	}
	want := "data:image/png;charset=utf-8;name=meme.png;base64,iVBORw0KGgo="
	for i := 0; i < 20; i++ {
		if got := d.String(); got != want {
			t.Fatalf("String() = %q, want %q", got, want)
		}
	}
	again, err := ParseDataURI(d.String())
	if err != nil || again.String() != want {
		t.Fatalf("round trip = %q, %v", again.String(), err)
	}
}
