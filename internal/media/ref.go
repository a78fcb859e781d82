package media

import (
	"fmt"
	"regexp"
	"strings"
)

type Kind int

const (
	KindNone Kind = iota
	KindHTTP
	KindGCS
	KindUnresolved
)

// Ref is a normalized image reference as stored on an acquisition.
type Ref struct {
	Raw    string
	URL    string
	Kind   Kind
	Bucket string
	Object string
}

var ipPrefix = regexp.MustCompile(`^\d+\.\d+\.\d+\.\d+/`)

// Resolve turns a stored reference into something fetchable. Absolute http(s)
// URLs are kept, "//host/x" gets https, "/x" is taken relative to the backend,
// gs:// points at a bucket object, and "192.168.1.90/share/x.jpg" style network
// paths (or anything dotted without spaces) get http.
func Resolve(raw, backendBase string) Ref {
	raw = strings.TrimSpace(raw)
	r := Ref{Raw: raw}

	switch {
	case raw == "":
		r.Kind = KindNone
	case strings.HasPrefix(raw, "gs://"):
		bucket, object, err := parseGSURL(raw)
		if err != nil {
			r.Kind = KindUnresolved
			return r
		}
		r.Kind, r.URL, r.Bucket, r.Object = KindGCS, raw, bucket, object
	case strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://"):
		r.Kind, r.URL = KindHTTP, raw
	case strings.HasPrefix(raw, "//"):
		r.Kind, r.URL = KindHTTP, "https:"+raw
	case strings.HasPrefix(raw, "/"):
		if backendBase == "" {
			r.Kind, r.URL = KindUnresolved, raw
			return r
		}
		r.Kind, r.URL = KindHTTP, strings.TrimRight(backendBase, "/")+raw
	case ipPrefix.MatchString(raw) || (strings.Contains(raw, ".") && !strings.Contains(raw, " ")):
		r.Kind, r.URL = KindHTTP, "http://"+raw
	default:
		r.Kind, r.URL = KindUnresolved, raw
	}
	return r
}

func parseGSURL(gsURL string) (bucket string, objectPath string, err error) {
	rest := strings.TrimPrefix(strings.TrimSpace(gsURL), "gs://")
	slash := strings.Index(rest, "/")
	if slash <= 0 || slash == len(rest)-1 {
		return "", "", fmt.Errorf("invalid gs url format: %s", gsURL)
	}
	bucket = rest[:slash]
	objectPath = rest[slash+1:]
	if strings.TrimSpace(objectPath) == "" {
		return "", "", fmt.Errorf("empty object path in gs url: %s", gsURL)
	}
	return bucket, objectPath, nil
}
