package app

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/five82/flowgate/internal/config"
	"github.com/five82/flowgate/internal/kv"
	"github.com/five82/flowgate/internal/obfuscate"
	"github.com/five82/flowgate/internal/state"
)

// Report is the decoded persisted state of one install.
type Report struct {
	InstallID    string
	Flags        state.Flags
	Endpoint     string
	HasEndpoint  bool
	PathToken    string
	HasPathToken bool
}

// OpenConfigured loads the config at path and opens its store without
// starting the flow.
func OpenConfigured(ctx context.Context, path string) (kv.Store, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return OpenStore(ctx, cfg.Store)
}

// Inspect reads and decodes everything the flow persists.
func Inspect(ctx context.Context, store kv.Store, codec *obfuscate.Codec) (Report, error) {
	flags, err := state.LoadFlags(ctx, store)
	if err != nil {
		return Report{}, eris.Wrap(err, "inspect flags")
	}
	id, _, err := store.Get(ctx, KeyInstallID)
	if err != nil {
		return Report{}, eris.Wrap(err, "inspect install id")
	}

	endpoints := state.NewEndpoints(store, codec, zap.NewNop())
	r := Report{InstallID: id, Flags: flags}
	r.Endpoint, r.HasEndpoint = endpoints.Load(ctx)
	r.PathToken, r.HasPathToken = endpoints.PathToken(ctx)
	return r, nil
}

// Reset clears the endpoint, the path token and every flag. The install id
// survives.
func Reset(ctx context.Context, store kv.Store) error {
	for _, key := range []string{
		state.KeyEndpoint,
		state.KeyPathToken,
		state.KeyFallback,
		state.KeyWebShown,
		state.KeyRatingShown,
	} {
		if err := store.Delete(ctx, key); err != nil {
			return eris.Wrapf(err, "reset %s", key)
		}
	}
	return nil
}

// WriteReport renders r as an aligned two-column table.
func WriteReport(out io.Writer, r Report) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"install id", orNone(r.InstallID, r.InstallID != "")},
		{"fallback", fmt.Sprint(r.Flags.Fallback)},
		{"web shown", fmt.Sprint(r.Flags.WebShown)},
		{"rating shown", fmt.Sprint(r.Flags.RatingShown)},
		{"endpoint", orNone(r.Endpoint, r.HasEndpoint)},
		{"path token", orNone(r.PathToken, r.HasPathToken)},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", row[0], row[1]); err != nil {
			return err
		}
	}
	return w.Flush()
}

func orNone(value string, ok bool) string {
	if !ok {
		return "-"
	}
	return value
}
