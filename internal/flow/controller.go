package flow

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/facebookgo/clock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/five82/flowgate/internal/attribution"
	"github.com/five82/flowgate/internal/kv"
	"github.com/five82/flowgate/internal/metrics"
	"github.com/five82/flowgate/internal/obfuscate"
	"github.com/five82/flowgate/internal/resolver"
	"github.com/five82/flowgate/internal/state"
)

var (
	ErrAlreadyStarted = eris.New("flow: controller already started")
	ErrMissingDep     = eris.New("flow: missing dependency")
)

const (
	pathFirst     = "first"
	pathReacquire = "reacquire"

	eventBuffer = 64
)

// Surface is the read/report API offered to the display surface.
type Surface interface {
	CurrentEndpoint() (string, bool)
	CurrentMode() state.Mode
	IsLoading() bool
	ReportObservedURL(rawURL string)
}

var _ Surface = (*Controller)(nil)

// RatingPrompter shows the host's one-time rating prompt.
type RatingPrompter interface {
	RequestReview(ctx context.Context) error
}

// RatingPrompterFunc adapts a function to RatingPrompter.
type RatingPrompterFunc func(ctx context.Context) error

func (f RatingPrompterFunc) RequestReview(ctx context.Context) error { return f(ctx) }

// Deps are the collaborators of a Controller. Resolver and Store are
// required.
type Deps struct {
	Clock    clock.Clock
	Resolver resolver.Endpoint
	Store    kv.Store
	// SDK, when set, is queried for conversion data on Start. Hosts with a
	// push-style SDK leave it nil and call DeliverAttribution instead.
	SDK      attribution.SDK
	Device   Device
	Prompter RatingPrompter
	Codec    *obfuscate.Codec
	Logger   *zap.Logger
	Metrics  *metrics.Recorder
}

// Controller runs the startup flow. All mutable flow state is owned by a
// single sequencer goroutine; I/O runs elsewhere and posts its result back.
type Controller struct {
	settings  Settings
	clock     clock.Clock
	resolver  resolver.Endpoint
	store     kv.Store
	endpoints *state.Endpoints
	sdk       attribution.SDK
	device    Device
	prompter  RatingPrompter
	log       *zap.Logger
	metrics   *metrics.Recorder

	snap    *state.Store
	promise *attribution.Promise
	events  chan func(context.Context)
	done    chan struct{}
	started atomic.Bool

	// Sequencer-owned.
	mode            state.Mode
	flags           state.Flags
	endpoint        string
	hasEndpoint     bool
	loading         bool
	ratingRequested bool
	ratingScheduled bool
	resolving       bool
	attempt         uint64
	suppressGen     uint64
	suppressing     bool
}

// New validates deps and returns an idle Controller.
func New(deps Deps, settings Settings) (*Controller, error) {
	if deps.Resolver == nil {
		return nil, eris.Wrap(ErrMissingDep, "resolver")
	}
	if deps.Store == nil {
		return nil, eris.Wrap(ErrMissingDep, "store")
	}
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Device == nil {
		deps.Device = StaticDevice("")
	}

	log := deps.Logger.Named("flow")
	return &Controller{
		settings:  settings.withDefaults(),
		clock:     deps.Clock,
		resolver:  deps.Resolver,
		store:     deps.Store,
		endpoints: state.NewEndpoints(deps.Store, deps.Codec, log),
		sdk:       deps.SDK,
		device:    deps.Device,
		prompter:  deps.Prompter,
		log:       log,
		metrics:   deps.Metrics,
		snap:      state.NewStore(),
		promise:   attribution.NewPromise(),
		events:    make(chan func(context.Context), eventBuffer),
		done:      make(chan struct{}),
		mode:      state.ModePreparing,
		loading:   true,
	}, nil
}

// Start loads persisted state, launches the sequencer and arms the warm-up
// timer. It returns once everything is scheduled; the flow runs until ctx is
// cancelled.
func (c *Controller) Start(ctx context.Context) error {
	if !c.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}

	flags, err := state.LoadFlags(ctx, c.store)
	if err != nil {
		// The sequencer never runs; release anyone waiting on Done.
		close(c.done)
		return eris.Wrap(err, "flow: load flags")
	}
	c.flags = flags
	c.endpoint, c.hasEndpoint = c.endpoints.Load(ctx)
	c.publish()

	c.log.Info("flow starting",
		zap.Bool("fallback", flags.Fallback),
		zap.Bool("web_shown", flags.WebShown),
		zap.Bool("rating_shown", flags.RatingShown),
		zap.Bool("cached_endpoint", c.hasEndpoint),
		zap.Duration("warmup", c.settings.Warmup),
	)

	go c.run(ctx)

	if c.sdk != nil {
		go func() {
			if err := attribution.Deliver(ctx, c.sdk, c.promise); err != nil && ctx.Err() == nil {
				c.log.Warn("attribution sdk failed", zap.Error(err))
			}
		}()
	}

	c.clock.AfterFunc(c.settings.Warmup, func() { c.post(c.evaluateGate) })
	return nil
}

// Done is closed when the sequencer exits.
func (c *Controller) Done() <-chan struct{} { return c.done }

// DeliverAttribution hands conversion data to the flow. Only the first
// delivery (or the timeout, whichever comes first) counts.
func (c *Controller) DeliverAttribution(ac attribution.Context) bool {
	ac.Source = attribution.SourceSDK
	return c.promise.Resolve(ac)
}

// Snapshot returns the current published state.
func (c *Controller) Snapshot() state.Snapshot { return c.snap.Snapshot() }

// Changed returns a channel closed on the next published change.
func (c *Controller) Changed() <-chan struct{} { return c.snap.Changed() }

func (c *Controller) CurrentEndpoint() (string, bool) {
	s := c.snap.Snapshot()
	return s.Endpoint, s.HasEndpoint
}

func (c *Controller) CurrentMode() state.Mode { return c.snap.Snapshot().Mode }

func (c *Controller) IsLoading() bool { return c.snap.Snapshot().Loading }

// ReportObservedURL tells the flow which URL the surface is showing. Reports
// are evaluated on the sequencer; see observe for the acceptance rules.
func (c *Controller) ReportObservedURL(rawURL string) {
	if !c.started.Load() {
		c.log.Debug("observed url before start dropped")
		return
	}
	c.post(func(ctx context.Context) {
		decision := c.observe(ctx, rawURL)
		c.metrics.ObservedURL(decision)
		c.log.Debug("observed url", zap.String("decision", decision))
	})
}

func (c *Controller) run(ctx context.Context) {
	defer close(c.done)
	for {
		select {
		case <-ctx.Done():
			c.log.Debug("flow stopped", zap.Error(ctx.Err()))
			return
		case fn := <-c.events:
			fn(ctx)
			c.publish()
		}
	}
}

// post queues fn for the sequencer. It never blocks after the sequencer has
// exited.
func (c *Controller) post(fn func(context.Context)) {
	select {
	case c.events <- fn:
	case <-c.done:
	}
}

func (c *Controller) publish() {
	next := state.Snapshot{
		Mode:            c.mode,
		Endpoint:        c.endpoint,
		HasEndpoint:     c.hasEndpoint,
		Loading:         c.loading,
		RatingRequested: c.ratingRequested,
	}
	cur := c.snap.Snapshot()
	cur.LastUpdated = time.Time{}
	if cur == next {
		return
	}
	c.snap.Update(func(s *state.Snapshot) { *s = next })
}

// apply runs ev through the transition table and executes its intents.
func (c *Controller) apply(ctx context.Context, ev Event, reason string) {
	t := Next(c.mode, c.flags, ev)
	if t.Changed() {
		c.mode = t.To
		c.metrics.Transition(t.To.String())
		c.log.Info("mode changed",
			zap.Stringer("from", t.From),
			zap.Stringer("to", t.To),
			zap.String("reason", reason),
		)
	}
	for _, in := range t.Intents {
		c.execute(ctx, in)
	}
}

func (c *Controller) execute(ctx context.Context, in Intent) {
	switch in {
	case IntentPersistFallback:
		if !c.flags.Fallback {
			c.flags.Fallback = true
			c.saveFlags(ctx)
		}
	case IntentPersistWebShown:
		if !c.flags.WebShown {
			c.flags.WebShown = true
			c.saveFlags(ctx)
		}
	case IntentClearLoading:
		c.loading = false
	case IntentScheduleRating:
		c.scheduleRating()
	}
}

func (c *Controller) saveFlags(ctx context.Context) {
	if err := state.SaveFlags(ctx, c.store, c.flags); err != nil {
		c.log.Error("persist flags failed", zap.Error(err))
	}
}

func (c *Controller) evaluateGate(ctx context.Context) {
	dec := EvaluateGate(c.settings, c.device.Class(), c.clock.Now(), c.flags)
	c.metrics.Gate(string(dec.Reason))
	c.log.Info("gate evaluated",
		zap.String("reason", string(dec.Reason)),
		zap.Bool("proceed", dec.Proceed),
		zap.String("device", c.device.Class()),
	)
	if !dec.Proceed {
		c.apply(ctx, EventForceOriginal, "gate: "+string(dec.Reason))
		return
	}

	switch {
	case c.hasEndpoint:
		c.apply(ctx, EventEnterWeb, "cached endpoint")
		c.probe(ctx, c.endpoint)
	case c.flags.WebShown:
		c.reacquire(ctx)
	default:
		w := attribution.Waiter{
			Clock:   c.clock,
			Timeout: c.settings.AttributionTimeout,
			InstallID: func() string {
				if c.sdk == nil {
					return ""
				}
				return c.sdk.InstallID()
			},
		}
		w.Await(ctx, c.promise, func(ac attribution.Context) {
			c.post(func(ctx context.Context) { c.onAttribution(ctx, ac) })
		})
	}
}

func (c *Controller) onAttribution(ctx context.Context, ac attribution.Context) {
	c.log.Info("attribution ready",
		zap.Stringer("source", ac.Source),
		zap.Bool("install_id", ac.InstallID != ""),
		zap.Int("fields", ac.Fields.Len()),
	)
	if c.mode != state.ModePreparing || c.flags.Fallback || c.flags.WebShown || c.hasEndpoint || c.resolving {
		c.log.Debug("attribution ignored", zap.Stringer("mode", c.mode))
		return
	}

	rawURL, err := c.resolver.AttributionURL(ac)
	if err != nil {
		c.log.Warn("attribution url failed", zap.Error(err))
		c.apply(ctx, EventForceOriginal, "attribution url")
		return
	}
	c.resolving = true
	c.resolve(ctx, pathFirst, rawURL, c.onFirstResolved)
}

// resolve starts a request off the sequencer. Each call supersedes the
// previous one; done receives the epoch so stale results can be dropped.
func (c *Controller) resolve(ctx context.Context, path, rawURL string, done func(context.Context, uint64, resolver.Result)) {
	c.attempt++
	epoch := c.attempt
	c.log.Debug("resolving", zap.String("path", path), zap.Uint64("epoch", epoch))

	go func() {
		start := time.Now()
		res := c.resolver.Resolve(ctx, rawURL)
		c.metrics.Resolution(path, res.Kind.String(), time.Since(start).Seconds())
		if ctx.Err() != nil {
			return
		}
		c.post(func(ctx context.Context) { done(ctx, epoch, res) })
	}()
}

func (c *Controller) onFirstResolved(ctx context.Context, epoch uint64, res resolver.Result) {
	c.resolving = false
	if epoch != c.attempt || c.mode != state.ModePreparing || c.flags.Fallback {
		c.log.Debug("stale resolution discarded", zap.Uint64("epoch", epoch), zap.Stringer("mode", c.mode))
		return
	}
	if res.Kind != resolver.KindSuccess {
		c.log.Info("first resolution did not redirect",
			zap.Stringer("kind", res.Kind),
			zap.Int("status", res.Status),
			zap.Error(res.Err),
		)
		c.apply(ctx, EventForceOriginal, "resolution: "+res.Kind.String())
		return
	}
	c.adopt(ctx, res)
	c.apply(ctx, EventEnterWeb, "resolved")
}

func (c *Controller) onReacquired(ctx context.Context, epoch uint64, res resolver.Result) {
	if epoch != c.attempt || c.mode == state.ModeOriginal {
		c.log.Debug("stale reacquisition discarded", zap.Uint64("epoch", epoch))
		return
	}
	if res.Kind == resolver.KindSuccess {
		c.adopt(ctx, res)
	} else {
		c.log.Warn("reacquisition failed, keeping current endpoint",
			zap.Stringer("kind", res.Kind),
			zap.Error(res.Err),
		)
	}
	c.apply(ctx, EventEnterWeb, "reacquired")
}

// adopt persists a resolved endpoint and opens the suppression window.
func (c *Controller) adopt(ctx context.Context, res resolver.Result) {
	if res.PathToken != "" {
		if err := c.endpoints.SavePathToken(ctx, res.PathToken); err != nil {
			c.log.Error("persist path token failed", zap.Error(err))
		}
	}
	if err := c.endpoints.Save(ctx, res.FinalURL); err != nil {
		c.log.Error("persist endpoint failed", zap.Error(err))
	}
	c.endpoint, c.hasEndpoint = res.FinalURL, true
	c.openSuppression()
}

func (c *Controller) probe(ctx context.Context, endpoint string) {
	go func() {
		start := time.Now()
		err := c.resolver.Probe(ctx, endpoint)
		outcome := "valid"
		if err != nil {
			outcome = "invalid"
		}
		c.metrics.Probe(outcome, time.Since(start).Seconds())
		if ctx.Err() != nil {
			return
		}
		c.post(func(ctx context.Context) { c.onProbed(ctx, endpoint, err) })
	}()
}

func (c *Controller) onProbed(ctx context.Context, endpoint string, err error) {
	if err == nil {
		c.log.Debug("cached endpoint valid")
		return
	}
	if c.endpoint != endpoint {
		c.log.Debug("probe result for replaced endpoint discarded")
		return
	}
	c.log.Info("cached endpoint invalid", zap.Error(err))
	c.reacquire(ctx)
}

// reacquire resolves the stored path token. Every outcome ends in web
// content; without a token the current endpoint is dropped from memory.
func (c *Controller) reacquire(ctx context.Context) {
	token, ok := c.endpoints.PathToken(ctx)
	if !ok {
		c.log.Warn("reacquisition skipped", zap.Error(resolver.ErrNoPathToken))
		c.endpoint, c.hasEndpoint = "", false
		c.apply(ctx, EventEnterWeb, "no path token")
		return
	}
	rawURL, err := c.resolver.PathTokenURL(token)
	if err != nil {
		c.log.Warn("reacquisition url failed", zap.Error(err))
		c.apply(ctx, EventEnterWeb, "reacquire url")
		return
	}
	c.resolve(ctx, pathReacquire, rawURL, c.onReacquired)
}

func (c *Controller) openSuppression() {
	c.suppressGen++
	gen := c.suppressGen
	c.suppressing = true
	c.clock.AfterFunc(c.settings.SuppressionWindow, func() {
		c.post(func(context.Context) {
			if gen == c.suppressGen {
				c.suppressing = false
			}
		})
	})
}

// observe decides whether a surface report replaces the stored endpoint.
func (c *Controller) observe(ctx context.Context, rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	switch {
	case rawURL == "":
		return "empty"
	case c.mode != state.ModeWebContent:
		return "inactive"
	case c.suppressing:
		return "suppressed"
	case c.resolver.IsConfigHost(rawURL):
		return "config_host"
	}
	if stored, ok := c.endpoints.Load(ctx); ok && stored == rawURL {
		return "unchanged"
	}
	if err := c.endpoints.Save(ctx, rawURL); err != nil {
		c.log.Error("persist observed endpoint failed", zap.Error(err))
		return "error"
	}
	c.endpoint, c.hasEndpoint = rawURL, true
	return "accepted"
}

func (c *Controller) scheduleRating() {
	if c.ratingScheduled || c.flags.RatingShown {
		return
	}
	c.ratingScheduled = true
	c.clock.AfterFunc(c.settings.RatingDelay, func() { c.post(c.onRatingDue) })
}

func (c *Controller) onRatingDue(ctx context.Context) {
	if c.flags.RatingShown || c.prompter == nil {
		return
	}
	go func() {
		err := c.prompter.RequestReview(ctx)
		if ctx.Err() != nil {
			return
		}
		c.post(func(ctx context.Context) { c.onRatingDone(ctx, err) })
	}()
}

func (c *Controller) onRatingDone(ctx context.Context, err error) {
	if err != nil {
		c.log.Warn("rating prompt failed", zap.Error(err))
		return
	}
	c.flags.RatingShown = true
	c.ratingRequested = true
	c.saveFlags(ctx)
	c.log.Info("rating prompt shown")
}
