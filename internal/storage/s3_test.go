package storage

import (
	"bytes"
	"context"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1F47E/go-trialreel/internal/meta"
)

// objectServer keeps PUT bodies by path, like a path-style bucket endpoint
type objectServer struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (s *objectServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPut {
		w.WriteHeader(http.StatusNotImplemented)
		return
	}
	body, err := io.ReadAll(r.Body)
	if err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	if strings.Contains(r.Header.Get("Content-Encoding"), "aws-chunked") {
		body = decodeAWSChunked(body)
	}
	s.mu.Lock()
	s.objects[r.URL.Path] = body
	s.mu.Unlock()
	w.Header().Set("ETag", `"0"`)
	w.WriteHeader(http.StatusOK)
}

// decodeAWSChunked strips chunk headers and trailers from a streamed payload
func decodeAWSChunked(body []byte) []byte {
	var out bytes.Buffer
	for {
		i := bytes.Index(body, []byte("\r\n"))
		if i < 0 {
			return out.Bytes()
		}
		head := string(body[:i])
		if j := strings.IndexByte(head, ';'); j >= 0 {
			head = head[:j]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(head), 16, 64)
		if err != nil || size == 0 {
			return out.Bytes()
		}
		body = body[i+2:]
		out.Write(body[:size])
		body = bytes.TrimPrefix(body[size:], []byte("\r\n"))
	}
}

func newTestS3Sink(t *testing.T) (*S3Sink, *objectServer) {
	t.Helper()
	// keep the host's AWS setup out of the test
	none := filepath.Join(t.TempDir(), "none")
	t.Setenv("AWS_CONFIG_FILE", none)
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", none)
	t.Setenv("AWS_PROFILE", "")

	srv := &objectServer{objects: make(map[string][]byte)}
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	p, err := ParsePattern("anim_%05d.png")
	require.NoError(t, err)
	sink, err := NewS3Sink(context.Background(), S3SinkConfig{
		Bucket:          "renders",
		Prefix:          "animation",
		EndpointURL:     ts.URL,
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
	}, p)
	require.NoError(t, err)
	return sink, srv
}

func TestS3Sink(t *testing.T) {
	sink, srv := newTestS3Sink(t)
	assert.Equal(t, "s3://renders/animation", sink.Location())

	entry, err := sink.SaveFrame(context.Background(), 0, image.NewRGBA(image.Rect(0, 0, 4, 4)))
	require.NoError(t, err)
	assert.Equal(t, "anim_00000.png", entry.Name)

	require.NoError(t, sink.PutObject(context.Background(), "manifest.yaml", strings.NewReader("frames: []\n")))

	srv.mu.Lock()
	defer srv.mu.Unlock()
	frame, ok := srv.objects["/renders/animation/anim_00000.png"]
	require.True(t, ok, "frame not uploaded, got %v", keys(srv.objects))
	assert.Equal(t, entry.Checksum, meta.Checksum(frame))

	manifest, ok := srv.objects["/renders/animation/manifest.yaml"]
	require.True(t, ok, "manifest not uploaded, got %v", keys(srv.objects))
	assert.Equal(t, "frames: []\n", string(manifest))
}

func keys(m map[string][]byte) []string {
	res := make([]string, 0, len(m))
	for k := range m {
		res = append(res, k)
	}
	return res
}
