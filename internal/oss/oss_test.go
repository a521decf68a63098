package oss

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectURL(t *testing.T) {
	tests := []struct {
		name string
		cfg  S3Config
		want string
	}{
		{"public url wins", S3Config{Endpoint: "minio:9000", PublicURL: "https://cdn.example.com/assets/"}, "https://cdn.example.com/assets/decks/a.pptx"},
		{"virtual hosted", S3Config{Endpoint: "oss-cn-beijing.aliyuncs.com"}, "https://slides.oss-cn-beijing.aliyuncs.com/decks/a.pptx"},
		{"path style", S3Config{Endpoint: "http://localhost:9000", UsePathStyle: true}, "http://localhost:9000/slides/decks/a.pptx"},
		{"aws region", S3Config{Region: "eu-west-1"}, "https://slides.s3.eu-west-1.amazonaws.com/decks/a.pptx"},
		{"default region", S3Config{}, "https://slides.s3.us-east-1.amazonaws.com/decks/a.pptx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.cfg.AccessKey, tt.cfg.SecretKey = "ak", "sk"
			c, err := NewS3Client(tt.cfg)
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.ObjectURL("slides", "decks/a.pptx"))
		})
	}
}

func TestNormalizeEndpoint(t *testing.T) {
	assert.Equal(t, "", normalizeEndpoint("  "))
	assert.Equal(t, "https://s3.amazonaws.com", normalizeEndpoint("s3.amazonaws.com/"))
	assert.Equal(t, "http://localhost:9000", normalizeEndpoint("http://localhost:9000"))
}

type recordedPut struct {
	method      string
	path        string
	contentType string
	body        []byte
}

func newFakeS3(t *testing.T, status int) (*httptest.Server, *[]recordedPut) {
	t.Helper()
	var mu sync.Mutex
	var puts []recordedPut
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		puts = append(puts, recordedPut{r.Method, r.URL.Path, r.Header.Get("Content-Type"), body})
		mu.Unlock()
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = io.WriteString(w, `<?xml version="1.0"?><Error><Code>AccessDenied</Code><Message>denied</Message></Error>`)
			return
		}
		w.Header().Set("ETag", `"abc"`)
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &puts
}

func TestS3Client_UploadFile_PathStyle(t *testing.T) {
	srv, puts := newFakeS3(t, http.StatusOK)
	c, err := NewS3Client(S3Config{Endpoint: srv.URL, AccessKey: "ak", SecretKey: "sk", UsePathStyle: true})
	require.NoError(t, err)

	got, err := c.UploadFile(context.Background(), "slides", "decks/x.pptx", strings.NewReader("pptx-bytes"), pptxContentType)
	require.NoError(t, err)
	assert.Equal(t, "slides/decks/x.pptx", got)

	require.Len(t, *puts, 1)
	put := (*puts)[0]
	assert.Equal(t, http.MethodPut, put.method)
	assert.Equal(t, "/slides/decks/x.pptx", put.path)
	assert.Equal(t, pptxContentType, put.contentType)
	assert.Equal(t, []byte("pptx-bytes"), put.body)
}

func TestS3Client_UploadFile_Error(t *testing.T) {
	srv, _ := newFakeS3(t, http.StatusForbidden)
	c, err := NewS3Client(S3Config{Endpoint: srv.URL, AccessKey: "ak", SecretKey: "sk", UsePathStyle: true})
	require.NoError(t, err)

	_, err = c.UploadFile(context.Background(), "slides", "k", strings.NewReader("x"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to upload file")
}

func TestS3Client_GetSignedURL(t *testing.T) {
	c, err := NewS3Client(S3Config{Endpoint: "http://localhost:9000", AccessKey: "ak", SecretKey: "sk", UsePathStyle: true})
	require.NoError(t, err)

	signed, err := c.GetSignedURL(context.Background(), "slides", "a.png", 300)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, "http://localhost:9000/slides/a.png?"), signed)
	assert.Contains(t, signed, "X-Amz-Signature=")
	assert.Contains(t, signed, "X-Amz-Expires=300")

	_, err = c.GetSignedURL(context.Background(), "slides", "a.png", 0)
	assert.Error(t, err)
}

type fakeOSS struct {
	bucket, key, contentType string
	body                     []byte
	uploadErr                error
	signedFor                int64
}

func (f *fakeOSS) UploadFile(ctx context.Context, bucket, key string, reader io.Reader, contentType string) (string, error) {
	if f.uploadErr != nil {
		return "", f.uploadErr
	}
	f.bucket, f.key, f.contentType = bucket, key, contentType
	f.body, _ = io.ReadAll(reader)
	return bucket + "/" + key, nil
}

func (f *fakeOSS) GetSignedURL(ctx context.Context, bucket, key string, expiresIn int64) (string, error) {
	f.signedFor = expiresIn
	return "https://signed/" + bucket + "/" + key, nil
}

func (f *fakeOSS) ObjectURL(bucket, key string) string {
	return "https://public/" + bucket + "/" + key
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func TestPublisher_Publish(t *testing.T) {
	dir := t.TempDir()
	imgPath := filepath.Join(dir, "generated")
	require.NoError(t, os.WriteFile(imgPath, pngHeader, 0644))

	fake := &fakeOSS{}
	p := NewPublisher(fake, "slides", 0)
	got, err := p.Publish(context.Background(), imgPath, "images")
	require.NoError(t, err)

	assert.Equal(t, "slides", fake.bucket)
	assert.Regexp(t, regexp.MustCompile(`^images/\d{4}-\d{2}-\d{2}/[0-9a-f-]{36}\.png$`), fake.key)
	assert.Equal(t, "image/png", fake.contentType)
	assert.Equal(t, pngHeader, fake.body)
	assert.Equal(t, "https://public/slides/"+fake.key, got)
}

func TestPublisher_PublishPPTXSigned(t *testing.T) {
	deckPath := filepath.Join(t.TempDir(), "deck.pptx")
	require.NoError(t, os.WriteFile(deckPath, []byte("PK\x03\x04not really a deck"), 0644))

	fake := &fakeOSS{}
	p := NewPublisher(fake, "slides", 600)
	got, err := p.Publish(context.Background(), deckPath, "decks")
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(fake.key, ".pptx"), fake.key)
	assert.Equal(t, pptxContentType, fake.contentType)
	assert.Equal(t, int64(600), fake.signedFor)
	assert.Equal(t, "https://signed/slides/"+fake.key, got)
}

func TestPublisher_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0644))

	_, err := NewPublisher(&fakeOSS{}, "", 0).Publish(context.Background(), path, "")
	assert.Error(t, err)

	_, err = NewPublisher(&fakeOSS{}, "b", 0).Publish(context.Background(), filepath.Join(t.TempDir(), "missing"), "")
	assert.ErrorIs(t, err, os.ErrNotExist)

	boom := errors.New("boom")
	_, err = NewPublisher(&fakeOSS{uploadErr: boom}, "b", 0).Publish(context.Background(), path, "")
	assert.ErrorIs(t, err, boom)
}

func TestPublisher_AgainstFakeS3(t *testing.T) {
	srv, puts := newFakeS3(t, http.StatusOK)
	c, err := NewS3Client(S3Config{Endpoint: srv.URL, AccessKey: "ak", SecretKey: "sk", UsePathStyle: true})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "x.png")
	require.NoError(t, os.WriteFile(path, pngHeader, 0644))

	got, err := NewPublisher(c, "slides", 0).Publish(context.Background(), path, "images")
	require.NoError(t, err)
	require.Len(t, *puts, 1)
	assert.True(t, strings.HasPrefix((*puts)[0].path, "/slides/images/"))
	assert.True(t, bytes.Equal(pngHeader, (*puts)[0].body))
	assert.Equal(t, srv.URL+(*puts)[0].path, got)
}
