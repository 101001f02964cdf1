package daemon

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"wesline/internal/logging"
	"wesline/internal/services/wesapi"
)

type flakyProbe struct {
	name string
	err  error
}

func (p *flakyProbe) Name() string    { return p.name }
func (p *flakyProbe) BaseURL() string { return "http://" + p.name + ".test" }
func (p *flakyProbe) GenerateLine(context.Context, wesapi.LineRequest) (*wesapi.LineResponse, error) {
	return nil, errors.New("not used")
}
func (p *flakyProbe) ValidateCounterpoint(context.Context, wesapi.CounterpointRequest) (*wesapi.CounterpointResult, error) {
	return nil, errors.New("not used")
}
func (p *flakyProbe) Patterns(context.Context) ([]wesapi.Pattern, error) { return nil, nil }
func (p *flakyProbe) Health(context.Context) error                     { return p.err }

type recordingNotifier struct {
	events []string
}

func (r *recordingNotifier) NotifyDaemonStarted(context.Context, string, string) error { return nil }
func (r *recordingNotifier) NotifyDaemonStopped(context.Context, time.Duration) error  { return nil }
func (r *recordingNotifier) NotifyUpstreamDown(_ context.Context, upstream, url string, err error) error {
	r.events = append(r.events, "down "+upstream+" "+url+" "+err.Error())
	return nil
}
func (r *recordingNotifier) NotifyUpstreamRecovered(_ context.Context, upstream, _ string, downtime time.Duration) error {
	r.events = append(r.events, "up "+upstream+" "+downtime.String())
	return nil
}
func (r *recordingNotifier) TestNotification(context.Context) error { return nil }

func TestUpstreamWatcherReportsTransitionsOnce(t *testing.T) {
	api := &flakyProbe{name: "api"}
	worker := &flakyProbe{name: "worker"}
	notifier := &recordingNotifier{}
	w := newUpstreamWatcher([]wesapi.API{api, worker}, notifier, logging.NewNop())
	clock := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	ctx := context.Background()
	w.check(ctx)

	api.err = errors.New("connection refused")
	w.check(ctx)
	clock = clock.Add(3 * time.Minute)
	w.check(ctx)

	api.err = nil
	w.check(ctx)
	w.check(ctx)

	want := []string{
		"down api http://api.test connection refused",
		"up api 3m0s",
	}
	if diff := cmp.Diff(want, notifier.events); diff != "" {
		t.Fatalf("unexpected notifications (-want +got):\n%s", diff)
	}
}

func TestUpstreamWatcherStopsOnCancel(t *testing.T) {
	notifier := &recordingNotifier{}
	w := newUpstreamWatcher([]wesapi.API{&flakyProbe{name: "api", err: errors.New("down")}}, notifier, logging.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		w.run(ctx, time.Hour)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
	if len(notifier.events) != 0 {
		t.Fatalf("expected no notifications after cancel, got %v", notifier.events)
	}
}
