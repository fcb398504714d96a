// Package i18n resolves the request language and renders notice texts.
package i18n

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"memegenius/internal/domain"
)

// Supported lists the locales with a complete catalog, English first.
var Supported = []language.Tag{language.English, language.Indonesian}

var (
	matcher  = language.NewMatcher(Supported)
	messages = buildCatalog()
)

var notices = map[domain.NoticeCode][2]string{
	domain.NoticeCaptionFailed: {
		"Failed to generate magic captions. Please try again.",
		"Gagal membuat caption ajaib. Silakan coba lagi.",
	},
	domain.NoticeEditFailed: {
		"AI Image Edit failed. Please try a different prompt.",
		"Edit gambar AI gagal. Silakan coba perintah lain.",
	},
	domain.NoticeImageRead: {
		"Could not read that image file.",
		"Tidak dapat membaca file gambar tersebut.",
	},
	domain.NoticeImageFetch: {
		"Could not load that image.",
		"Tidak dapat memuat gambar tersebut.",
	},
	domain.NoticeImageEncoding: {
		"That image could not be processed.",
		"Gambar tersebut tidak dapat diproses.",
	},
	domain.NoticeCameraFailed: {
		"Could not access camera. Please check permissions.",
		"Tidak dapat mengakses kamera. Silakan periksa izin kamera.",
	},
	domain.NoticeCaptureInvalid: {
		"The camera is not ready yet.",
		"Kamera belum siap.",
	},
}

func buildCatalog() *catalog.Builder {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for code, texts := range notices {
		for i, tag := range Supported {
			_ = b.SetString(tag, string(code), texts[i])
		}
	}
	return b
}

// Match picks the best supported locale for the given preferences. Each
// argument may be a bare tag or an Accept-Language header value.
func Match(prefs ...string) language.Tag {
	var tags []language.Tag
	for _, pref := range prefs {
		pref = strings.TrimSpace(pref)
		if pref == "" {
			continue
		}
		parsed, _, err := language.ParseAcceptLanguage(pref)
		if err != nil {
			continue
		}
		tags = append(tags, parsed...)
	}
	if len(tags) == 0 {
		return Supported[0]
	}
	_, idx, conf := matcher.Match(tags...)
	if conf == language.No {
		return Supported[0]
	}
	return Supported[idx]
}

// Code returns the short locale code used in API responses ("en", "id").
func Code(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}

// Printer returns a message printer bound to the notice catalog.
func Printer(tag language.Tag) *message.Printer {
	return message.NewPrinter(tag, message.Catalog(messages))
}

// Notice renders the user-visible text for code in locale tag.
func Notice(tag language.Tag, code domain.NoticeCode) string {
	if _, ok := notices[code]; !ok {
		return string(code)
	}
	return Printer(tag).Sprintf(string(code))
}

// NoticeFor is Notice with a locale code such as "id".
func NoticeFor(locale string, code domain.NoticeCode) string {
	return Notice(Match(locale), code)
}
