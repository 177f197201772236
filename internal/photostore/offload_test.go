package photostore

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vbonduro/fiscobras/internal/domain"
)

type memStore struct {
	saved   map[string][]byte
	deleted []string
	saveErr error
}

func newMemStore() *memStore {
	return &memStore{saved: make(map[string][]byte)}
}

func (m *memStore) Save(_ context.Context, prefix, mimeType string, r io.Reader) (string, error) {
	if m.saveErr != nil {
		return "", m.saveErr
	}
	data, _ := io.ReadAll(r)
	key := prefix + "_1" + Ext(mimeType)
	m.saved[key] = data
	return key, nil
}

func (m *memStore) Get(_ context.Context, key string) (io.ReadCloser, string, error) {
	data, ok := m.saved[key]
	if !ok {
		return nil, "", ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), "image/png", nil
}

func (m *memStore) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	if _, ok := m.saved[key]; !ok {
		return ErrNotFound
	}
	delete(m.saved, key)
	return nil
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func dataURI(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func TestOffloadDataURI(t *testing.T) {
	store := newMemStore()
	o := NewOffloader(store, slog.Default())

	ref, err := o.Offload(context.Background(), "obra", dataURI("image/png", pngHeader))
	require.NoError(t, err)
	assert.Equal(t, URLPrefix+"obra_1.png", ref)
	assert.Equal(t, pngHeader, store.saved["obra_1.png"])

	key, ok := KeyFromRef(ref)
	require.True(t, ok)
	rc, mime, err := o.Open(context.Background(), key)
	require.NoError(t, err)
	defer rc.Close()
	assert.Equal(t, "image/png", mime)
}

func TestOffloadPassesThroughPlainReferences(t *testing.T) {
	store := newMemStore()
	o := NewOffloader(store, slog.Default())

	for _, photo := range []string{"https://cdn.example.com/a.jpg", "file:///tmp/a.jpg"} {
		ref, err := o.Offload(context.Background(), "obra", photo)
		require.NoError(t, err)
		assert.Equal(t, photo, ref)
	}
	assert.Empty(t, store.saved)
}

func TestOffloadDisabled(t *testing.T) {
	var o *Offloader
	uri := dataURI("image/png", pngHeader)

	ref, err := o.Offload(context.Background(), "obra", uri)
	require.NoError(t, err)
	assert.Equal(t, uri, ref)

	o.Release(context.Background(), URLPrefix+"x.png")

	_, _, err = o.Open(context.Background(), "x.png")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestOffloadRejectsBadImages(t *testing.T) {
	o := NewOffloader(newMemStore(), slog.Default())

	tests := map[string]string{
		"not base64":   "data:image/png;base64,@@@",
		"not an image": dataURI("image/png", []byte("hello, plain text here")),
		"no payload":   "data:image/png;base64",
		"not encoded":  "data:image/png,rawbytes",
	}
	for name, uri := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := o.Offload(context.Background(), "obra", uri)
			var verr *domain.ValidationError
			require.True(t, errors.As(err, &verr))
			assert.True(t, verr.Has("foto"))
		})
	}
}

func TestOffloadSaveFailure(t *testing.T) {
	store := newMemStore()
	store.saveErr = errors.New("disk full")
	o := NewOffloader(store, slog.Default())

	_, err := o.Offload(context.Background(), "obra", dataURI("image/png", pngHeader))
	assert.ErrorIs(t, err, store.saveErr)
}

func TestRelease(t *testing.T) {
	store := newMemStore()
	store.saved["obra_1.png"] = pngHeader
	o := NewOffloader(store, slog.Default())

	o.Release(context.Background(), "https://cdn.example.com/a.jpg")
	assert.Empty(t, store.deleted)

	o.Release(context.Background(), URLPrefix+"obra_1.png")
	assert.Equal(t, []string{"obra_1.png"}, store.deleted)
	assert.Empty(t, store.saved)

	o.Release(context.Background(), URLPrefix+"obra_1.png")
	assert.Len(t, store.deleted, 2)
}

func TestDetectImageMIME(t *testing.T) {
	mime, ok := DetectImageMIME(pngHeader)
	assert.True(t, ok)
	assert.Equal(t, "image/png", mime)

	mime, ok = DetectImageMIME([]byte("RIFF\x00\x00\x00\x00WEBPVP8 "))
	assert.True(t, ok)
	assert.Equal(t, "image/webp", mime)

	_, ok = DetectImageMIME([]byte("<html></html>"))
	assert.False(t, ok)
}
