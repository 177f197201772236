package photostore

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log/slog"
	"strings"

	"github.com/vbonduro/fiscobras/internal/domain"
)

// URLPrefix is the API path under which offloaded photos are served.
const URLPrefix = "/api/v1/photos/"

// Offloader moves base64 data-URI photos out of record bodies and into a
// PhotoStore, replacing them with a URL reference. A nil Offloader or one
// without a store leaves photos untouched.
type Offloader struct {
	store  PhotoStore
	logger *slog.Logger
}

func NewOffloader(store PhotoStore, logger *slog.Logger) *Offloader {
	return &Offloader{store: store, logger: logger}
}

func (o *Offloader) enabled() bool {
	return o != nil && o.store != nil
}

// Offload stores photo if it is a data URI and returns the reference to keep
// in the record. Any other value is returned unchanged.
func (o *Offloader) Offload(ctx context.Context, prefix, photo string) (string, error) {
	if !o.enabled() || !strings.HasPrefix(photo, "data:") {
		return photo, nil
	}

	data, err := decodeDataURI(photo)
	if err != nil {
		return "", domain.NewValidationError("foto", "Foto deve ser uma imagem válida")
	}
	mimeType, ok := DetectImageMIME(data)
	if !ok {
		return "", domain.NewValidationError("foto", "Formato de imagem não suportado")
	}

	key, err := o.store.Save(ctx, prefix, mimeType, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	o.logger.Debug("photo offloaded", "key", key, "mime_type", mimeType, "bytes", len(data))
	return URLPrefix + key, nil
}

// Release deletes the stored object behind ref, if ref points at one.
// Failures are logged and otherwise ignored.
func (o *Offloader) Release(ctx context.Context, ref string) {
	key, ok := KeyFromRef(ref)
	if !o.enabled() || !ok {
		return
	}
	if err := o.store.Delete(ctx, key); err != nil {
		o.logger.Error("failed to release photo", "key", key, "error", err)
	}
}

// Open returns the stored photo and its MIME type.
func (o *Offloader) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	if !o.enabled() {
		return nil, "", ErrNotFound
	}
	return o.store.Get(ctx, key)
}

// KeyFromRef extracts the storage key from a reference produced by Offload.
func KeyFromRef(ref string) (string, bool) {
	key, ok := strings.CutPrefix(ref, URLPrefix)
	return key, ok && key != ""
}

// decodeDataURI accepts "data:<mime>;base64,<payload>" and returns the
// decoded payload.
func decodeDataURI(uri string) ([]byte, error) {
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok || !strings.HasSuffix(header, ";base64") {
		return nil, errInvalidDataURI
	}
	payload = strings.TrimSpace(payload)
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "="))
	}
	return data, err
}

var errInvalidDataURI = errors.New("invalid data URI")
