// Package vision validates uploaded images and turns them into UI code.
package vision

import (
	"net/http"
	"strings"
)

// MaxImageSize is the largest accepted upload.
const MaxImageSize = 10 << 20

// RejectionReason is the message shown for every rejected upload.
const RejectionReason = "Please upload a valid image file (max 10MB)."

// ImageCheck is the tagged result of ValidateImage: either Valid with the
// detected MIME type, or Rejected with a reason.
type ImageCheck struct {
	Valid    bool
	MIMEType string
	Reason   string
}

// Valid returns an accepted check.
func Valid(mimeType string) ImageCheck {
	return ImageCheck{Valid: true, MIMEType: mimeType}
}

// Rejected returns a refused check.
func Rejected(reason string) ImageCheck {
	return ImageCheck{Reason: reason}
}

// ValidateImage accepts image/* uploads up to MaxImageSize. Content sniffing
// refines the declared type when it recognises the format and refuses uploads
// whose content is identified as something other than an image. Formats the
// sniffer does not know keep their declared type.
func ValidateImage(declared string, size int64, head []byte) ImageCheck {
	if size <= 0 || size > MaxImageSize {
		return Rejected(RejectionReason)
	}

	declared = strings.ToLower(strings.TrimSpace(strings.SplitN(declared, ";", 2)[0]))
	if !strings.HasPrefix(declared, "image/") {
		return Rejected(RejectionReason)
	}

	sniffed := strings.SplitN(http.DetectContentType(head), ";", 2)[0]
	switch {
	case strings.HasPrefix(sniffed, "image/"):
		return Valid(sniffed)
	case sniffed == "application/octet-stream":
		return Valid(declared)
	case declared == "image/svg+xml" && (sniffed == "text/xml" || sniffed == "text/plain"):
		return Valid(declared)
	default:
		return Rejected(RejectionReason)
	}
}
