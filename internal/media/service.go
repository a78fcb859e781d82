package media

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"
	"sync"

	"smartmob-dashboard/internal/util"
)

var ErrNoImage = errors.New("immagine non disponibile")

// Service opens image references over HTTP or from Cloud Storage.
type Service struct {
	HTTP            *http.Client
	BackendBase     string
	CredentialsFile string

	mu  sync.Mutex
	gcs gcsClient
}

func NewService(httpClient *http.Client, backendBase, credentialsFile string) *Service {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Service{HTTP: httpClient, BackendBase: backendBase, CredentialsFile: credentialsFile}
}

func (s *Service) Resolve(raw string) Ref {
	return Resolve(raw, s.BackendBase)
}

// Open returns the image body and its content type. The caller closes it.
func (s *Service) Open(ctx context.Context, ref Ref) (io.ReadCloser, string, error) {
	switch ref.Kind {
	case KindNone:
		return nil, "", ErrNoImage
	case KindHTTP:
		return s.openHTTP(ctx, ref.URL)
	case KindGCS:
		client, err := s.gcsClient(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("storage client: %w", err)
		}
		rc, err := client.Bucket(ref.Bucket).Object(ref.Object).NewReader(ctx)
		if err != nil {
			return nil, "", fmt.Errorf("open %s: %w", ref.URL, err)
		}
		return rc, contentTypeFor(ref.Object), nil
	default:
		return nil, "", fmt.Errorf("riferimento immagine non risolvibile: %s", ref.Raw)
	}
}

func (s *Service) openHTTP(ctx context.Context, rawURL string) (io.ReadCloser, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	resp, err := s.HTTP.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, "", fmt.Errorf("fetch %s: HTTP error! status: %d", rawURL, resp.StatusCode)
	}
	ctype := resp.Header.Get("Content-Type")
	if ctype == "" {
		ctype = contentTypeFor(urlPath(rawURL))
	}
	return resp.Body, ctype, nil
}

func (s *Service) gcsClient(ctx context.Context) (gcsClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gcs != nil {
		return s.gcs, nil
	}
	c, err := newGCSClientHook(ctx, s.CredentialsFile)
	if err != nil {
		return nil, err
	}
	s.gcs = c
	return c, nil
}

func (s *Service) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gcs == nil {
		return nil
	}
	err := s.gcs.Close()
	s.gcs = nil
	return err
}

// Entry is one file of an image archive. Name has no extension; it is taken
// from the reference.
type Entry struct {
	Name string
	Ref  Ref
}

// WriteZip streams the fetchable entries into a zip archive on out. Entries
// without an image are skipped; it fails when nothing is left.
func (s *Service) WriteZip(ctx context.Context, out io.Writer, entries []Entry) error {
	var usable []Entry
	for _, e := range entries {
		if e.Ref.Kind == KindHTTP || e.Ref.Kind == KindGCS {
			usable = append(usable, e)
		}
	}
	if len(usable) == 0 {
		return ErrNoImage
	}

	zw := zip.NewWriter(out)
	for _, e := range usable {
		rc, _, err := s.Open(ctx, e.Ref)
		if err != nil {
			zw.Close()
			return err
		}
		w, err := zw.Create(util.SanitizeFilename(e.Name) + extFor(e.Ref))
		if err == nil {
			_, err = io.Copy(w, rc)
		}
		rc.Close()
		if err != nil {
			zw.Close()
			return err
		}
	}
	return zw.Close()
}

func extFor(ref Ref) string {
	p := ref.Object
	if ref.Kind == KindHTTP {
		p = urlPath(ref.URL)
	}
	ext := strings.ToLower(path.Ext(p))
	if ext == "" || len(ext) > 5 {
		return ".jpg"
	}
	return ext
}

func urlPath(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	return u.Path
}

func contentTypeFor(name string) string {
	if ct := mime.TypeByExtension(strings.ToLower(path.Ext(name))); ct != "" {
		return ct
	}
	return "application/octet-stream"
}
