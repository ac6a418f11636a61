package messages

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidColour is returned by ParseColour for anything that is not a hex
// code or rgb() triple. Callers show the accepted-format help on this error.
var ErrInvalidColour = errors.New("invalid colour value: provide a hex code such as #668EFF or an RGB value such as rgb(102, 142, 255)")

var (
	rgbPattern = regexp.MustCompile(`^rgb\(\s*(\d{1,3})\s*,\s*(\d{1,3})\s*,\s*(\d{1,3})\s*\)$`)
	hexPattern = regexp.MustCompile(`^#?[0-9a-f]{6}$`)

	urlPattern = regexp.MustCompile(`(?i)^https?://` +
		`(?:(?:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?\.)+[a-z]{2,6}\.?|` +
		`\d{1,3}\.\d{1,3}\.\d{1,3}\.\d{1,3})` +
		`(?::\d+)?` +
		`(?:/?|[/?]\S+)$`)
)

// ParseColour parses a user-supplied colour string into a 24-bit integer.
// Accepted forms, case-insensitive: RRGGBB, #RRGGBB, ##RRGGBB (a doubled hash
// is tolerated), and rgb(r, g, b). Every accepted form of the same colour
// normalizes to the same value.
func ParseColour(s string) (int, error) {
	in := strings.ToLower(strings.TrimSpace(s))

	if m := rgbPattern.FindStringSubmatch(in); m != nil {
		var parts [3]int
		for i, raw := range m[1:] {
			v, err := strconv.Atoi(raw)
			if err != nil || v > 255 {
				return 0, ErrInvalidColour
			}
			parts[i] = v
		}
		return parts[0]<<16 | parts[1]<<8 | parts[2], nil
	}

	if strings.HasPrefix(in, "##") {
		in = in[1:]
	}
	if !hexPattern.MatchString(in) {
		return 0, ErrInvalidColour
	}
	v, err := strconv.ParseInt(strings.TrimPrefix(in, "#"), 16, 32)
	if err != nil {
		return 0, ErrInvalidColour
	}
	return int(v), nil
}

// ValidateURL reports whether s looks like a direct http(s) URL with a real
// host, optional port, and optional path.
func ValidateURL(s string) bool {
	return urlPattern.MatchString(s)
}

// ImageValidator checks that a URL points at an actual image. The interactive
// builder and the bulk JSON path both probe through this interface so tests
// can substitute a stub.
type ImageValidator interface {
	Probe(ctx context.Context, url string) bool
}

var validImageContentTypes = map[string]struct{}{
	"image/png":  {},
	"image/jpeg": {},
	"image/jpg":  {},
	"image/gif":  {},
	"image/webp": {},
}

// HTTPImageValidator probes URLs with a HEAD request and accepts the common
// image content types.
type HTTPImageValidator struct {
	Client *http.Client
}

// NewHTTPImageValidator returns a validator with a short per-probe timeout.
func NewHTTPImageValidator() *HTTPImageValidator {
	return &HTTPImageValidator{Client: &http.Client{Timeout: 10 * time.Second}}
}

func (v *HTTPImageValidator) Probe(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}
	resp, err := v.Client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()

	contentType := resp.Header.Get("Content-Type")
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	_, ok := validImageContentTypes[strings.TrimSpace(strings.ToLower(contentType))]
	return ok
}
