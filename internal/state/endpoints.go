package state

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/five82/flowgate/internal/kv"
	"github.com/five82/flowgate/internal/obfuscate"
)

// ErrEmptyEndpoint is returned when asked to persist an empty endpoint.
var ErrEmptyEndpoint = eris.New("state: empty endpoint")

// Endpoints persists the resolved endpoint (obfuscated) and the path token
// extracted from it.
type Endpoints struct {
	store kv.Store
	codec *obfuscate.Codec
	log   *zap.Logger
}

// NewEndpoints wraps store. A nil codec uses obfuscate.Default and a nil
// logger discards output.
func NewEndpoints(store kv.Store, codec *obfuscate.Codec, log *zap.Logger) *Endpoints {
	if codec == nil {
		codec = obfuscate.Default
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Endpoints{store: store, codec: codec, log: log}
}

// Load returns the cached endpoint. Decode failures are logged and read as
// "nothing cached".
func (e *Endpoints) Load(ctx context.Context) (string, bool) {
	raw, ok, err := e.store.Get(ctx, KeyEndpoint)
	if err != nil {
		e.log.Warn("endpoint read failed", zap.Error(err))
		return "", false
	}
	if !ok || raw == "" {
		return "", false
	}

	restored, err := e.codec.Restore(raw)
	if err == nil {
		return restored, restored != ""
	}
	// Values written before obfuscation was introduced.
	if strings.HasPrefix(raw, "http") {
		e.log.Info("using legacy plain endpoint")
		return raw, true
	}
	e.log.Warn("endpoint restore failed", zap.Error(err))
	return "", false
}

// Save obfuscates and stores url, replacing any previous value.
func (e *Endpoints) Save(ctx context.Context, url string) error {
	if url == "" {
		return ErrEmptyEndpoint
	}
	cipher, err := e.codec.Transform(url)
	if err != nil {
		return eris.Wrap(err, "state: obfuscate endpoint")
	}
	return eris.Wrap(e.store.Set(ctx, KeyEndpoint, cipher), "state: save endpoint")
}

// Clear removes the stored endpoint.
func (e *Endpoints) Clear(ctx context.Context) error {
	return eris.Wrap(e.store.Delete(ctx, KeyEndpoint), "state: clear endpoint")
}

// PathToken returns the persisted path token, if any.
func (e *Endpoints) PathToken(ctx context.Context) (string, bool) {
	v, ok, err := e.store.Get(ctx, KeyPathToken)
	if err != nil {
		e.log.Warn("path token read failed", zap.Error(err))
		return "", false
	}
	return v, ok && v != ""
}

// SavePathToken stores token independently of the endpoint.
func (e *Endpoints) SavePathToken(ctx context.Context, token string) error {
	return eris.Wrap(e.store.Set(ctx, KeyPathToken, token), "state: save path token")
}

// ClearPathToken removes the stored token.
func (e *Endpoints) ClearPathToken(ctx context.Context) error {
	return eris.Wrap(e.store.Delete(ctx, KeyPathToken), "state: clear path token")
}
