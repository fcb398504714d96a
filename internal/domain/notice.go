package domain

// NoticeCode identifies a user-visible notice; the text is localized at the
// HTTP edge.
type NoticeCode string

const (
	NoticeCaptionFailed  NoticeCode = "caption_failed"
	NoticeEditFailed     NoticeCode = "edit_failed"
	NoticeImageRead      NoticeCode = "image_read_failed"
	NoticeImageFetch     NoticeCode = "image_fetch_failed"
	NoticeImageEncoding  NoticeCode = "image_encoding_failed"
	NoticeCameraFailed   NoticeCode = "camera_failed"
	NoticeCaptureInvalid NoticeCode = "capture_not_ready"
)
