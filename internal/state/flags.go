package state

import (
	"context"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/five82/flowgate/internal/kv"
)

// Persisted keys. The layout is private to the flow engine.
const (
	KeyFallback    = "flow.persistent_state"
	KeyEndpoint    = "flow.secured_endpoint"
	KeyPathToken   = "flow.extracted_path_id"
	KeyWebShown    = "flow.web_shown"
	KeyRatingShown = "flow.rating_shown"
)

// Flags is the durable per-install state. The zero value is the first-launch
// default.
type Flags struct {
	// Fallback pins the install to native content forever once set.
	Fallback    bool
	WebShown    bool
	RatingShown bool
}

// LoadFlags reads all flags. Missing or unparsable values read as false.
func LoadFlags(ctx context.Context, store kv.Store) (Flags, error) {
	var f Flags
	var err error
	if f.Fallback, err = loadBool(ctx, store, KeyFallback); err != nil {
		return Flags{}, err
	}
	if f.WebShown, err = loadBool(ctx, store, KeyWebShown); err != nil {
		return Flags{}, err
	}
	if f.RatingShown, err = loadBool(ctx, store, KeyRatingShown); err != nil {
		return Flags{}, err
	}
	return f, nil
}

// SaveFlags writes every flag.
func SaveFlags(ctx context.Context, store kv.Store, f Flags) error {
	for _, kvp := range []struct {
		key   string
		value bool
	}{
		{KeyFallback, f.Fallback},
		{KeyWebShown, f.WebShown},
		{KeyRatingShown, f.RatingShown},
	} {
		if err := store.Set(ctx, kvp.key, strconv.FormatBool(kvp.value)); err != nil {
			return eris.Wrapf(err, "state: save %s", kvp.key)
		}
	}
	return nil
}

func loadBool(ctx context.Context, store kv.Store, key string) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, eris.Wrapf(err, "state: load %s", key)
	}
	if !ok {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, nil
	}
	return v, nil
}
