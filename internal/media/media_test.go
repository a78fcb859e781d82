package media

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		raw      string
		wantKind Kind
		wantURL  string
	}{
		{"", KindNone, ""},
		{"https://cdn.local/a.jpg", KindHTTP, "https://cdn.local/a.jpg"},
		{"http://cdn.local/a.jpg", KindHTTP, "http://cdn.local/a.jpg"},
		{"//cdn.local/a.jpg", KindHTTP, "https://cdn.local/a.jpg"},
		{"/files/a.jpg", KindHTTP, "https://backend.local:7052/files/a.jpg"},
		{"192.168.1.90/public/Canon%20EOS%20R100/100CANON/IMG_0317.JPG", KindHTTP, "http://192.168.1.90/public/Canon%20EOS%20R100/100CANON/IMG_0317.JPG"},
		{"nas.local/img.png", KindHTTP, "http://nas.local/img.png"},
		{"gs://bucket-a/acq/1/top.jpg", KindGCS, "gs://bucket-a/acq/1/top.jpg"},
		{"gs://bucket-only", KindUnresolved, ""},
		{"C:\\foto senza punto", KindUnresolved, "C:\\foto senza punto"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got := Resolve(tt.raw, "https://backend.local:7052/")
			if got.Kind != tt.wantKind || got.URL != tt.wantURL {
				t.Fatalf("Resolve(%q) = kind %d url %q, want kind %d url %q", tt.raw, got.Kind, got.URL, tt.wantKind, tt.wantURL)
			}
		})
	}

	gs := Resolve("gs://bucket-a/acq/1/top.jpg", "")
	if gs.Bucket != "bucket-a" || gs.Object != "acq/1/top.jpg" {
		t.Fatalf("gs = %+v", gs)
	}
	if rel := Resolve("/files/a.jpg", ""); rel.Kind != KindUnresolved {
		t.Fatalf("relative without backend = %+v", rel)
	}
}

type fakeGCSClient struct {
	objects map[string]string
	closed  bool
}

func (f *fakeGCSClient) Bucket(name string) gcsBucket { return fakeGCSBucket{c: f, bucket: name} }
func (f *fakeGCSClient) Close() error               { f.closed = true; return nil }

type fakeGCSBucket struct {
	c      *fakeGCSClient
	bucket string
}

func (b fakeGCSBucket) Object(name string) gcsObject {
	return fakeGCSObject{c: b.c, key: b.bucket + "/" + name}
}

type fakeGCSObject struct {
	c   *fakeGCSClient
	key string
}

func (o fakeGCSObject) NewReader(ctx context.Context) (io.ReadCloser, error) {
	body, ok := o.c.objects[o.key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(strings.NewReader(body)), nil
}

func withFakeGCS(t *testing.T, objects map[string]string) *fakeGCSClient {
	t.Helper()
	fake := &fakeGCSClient{objects: objects}
	orig := newGCSClientHook
	newGCSClientHook = func(ctx context.Context, credentialsFile string) (gcsClient, error) { return fake, nil }
	t.Cleanup(func() { newGCSClientHook = orig })
	return fake
}

func TestService_OpenGCS(t *testing.T) {
	fake := withFakeGCS(t, map[string]string{"bucket-a/acq/1/top.png": "PNGDATA"})
	s := NewService(nil, "", "")

	rc, ctype, err := s.Open(context.Background(), Resolve("gs://bucket-a/acq/1/top.png", ""))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rc.Close()
	b, _ := io.ReadAll(rc)
	if string(b) != "PNGDATA" || ctype != "image/png" {
		t.Fatalf("body=%q ctype=%q", b, ctype)
	}

	if err := s.Close(); err != nil || !fake.closed {
		t.Fatalf("Close: %v closed=%v", err, fake.closed)
	}
}

func TestService_OpenHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing.jpg" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("JPEG"))
	}))
	defer srv.Close()

	s := NewService(srv.Client(), srv.URL, "")
	rc, ctype, err := s.Open(context.Background(), s.Resolve("/img/a.jpg"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	b, _ := io.ReadAll(rc)
	rc.Close()
	if string(b) != "JPEG" || ctype != "image/jpeg" {
		t.Fatalf("body=%q ctype=%q", b, ctype)
	}

	if _, _, err := s.Open(context.Background(), s.Resolve("/missing.jpg")); err == nil {
		t.Fatalf("expected error for 404 image")
	}
	if _, _, err := s.Open(context.Background(), s.Resolve("")); !errors.Is(err, ErrNoImage) {
		t.Fatalf("err = %v, want ErrNoImage", err)
	}
}

func TestService_WriteZip(t *testing.T) {
	withFakeGCS(t, map[string]string{
		"b/top.png": "TOP",
		"b/box":     "BOX",
	})
	s := NewService(nil, "", "")

	var buf bytes.Buffer
	err := s.WriteZip(context.Background(), &buf, []Entry{
		{Name: "acq_1_superiore", Ref: Resolve("gs://b/top.png", "")},
		{Name: "acq_1_frontale", Ref: Resolve("", "")},
		{Name: "acq_1_box", Ref: Resolve("gs://b/box", "")},
	})
	if err != nil {
		t.Fatalf("WriteZip: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("zip reader: %v", err)
	}
	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	sort.Strings(names)
	if strings.Join(names, ",") != "acq_1_box.jpg,acq_1_superiore.png" {
		t.Fatalf("names = %v", names)
	}
}

func TestService_WriteZip_NothingUsable(t *testing.T) {
	s := NewService(nil, "", "")
	err := s.WriteZip(context.Background(), io.Discard, []Entry{{Name: "x", Ref: Resolve("", "")}})
	if !errors.Is(err, ErrNoImage) {
		t.Fatalf("err = %v, want ErrNoImage", err)
	}
}
