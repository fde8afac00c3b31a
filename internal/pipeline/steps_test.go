package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nao1215/imageloader/internal/document"
	"github.com/nao1215/imageloader/internal/downloader"
	"github.com/nao1215/imageloader/internal/fetcher"
	"github.com/nao1215/imageloader/internal/model"
	"github.com/nao1215/imageloader/internal/resolver"
	"github.com/nao1215/imageloader/internal/transport"
)

var manifestTime = time.Date(2024, 5, 6, 7, 8, 9, 0, time.Local)

// site is a test server whose page body and image handlers are fixed per
// test. Paths are matched on the raw request path so the "//a.png" form
// produced by the combine candidate reaches the handler unchanged.
type site struct {
	server *httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func newSite(t *testing.T, pageStatus int, page string, images map[string]func(w http.ResponseWriter, r *http.Request, hit int)) *site {
	t.Helper()

	s := &site{hits: make(map[string]int)}
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		hit := s.hits[r.URL.Path]
		s.mu.Unlock()

		if r.URL.Path == "/" {
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			w.WriteHeader(pageStatus)
			_, _ = w.Write([]byte(page))
			return
		}
		if h, ok := images[r.URL.Path]; ok {
			h(w, r, hit)
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(s.server.Close)
	return s
}

func (s *site) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func serve(body string) func(http.ResponseWriter, *http.Request, int) {
	return func(w http.ResponseWriter, _ *http.Request, _ int) {
		_, _ = w.Write([]byte(body))
	}
}

// newTestPipeline wires the real steps with a zero jitter and a fixed
// manifest clock.
func newTestPipeline(client *http.Client) *Pipeline {
	prober := resolver.NewHTTPProber(client, resolver.WithJitter(resolver.NewJitter(0, 0)))
	p := New()
	p.AddSteps(Default(
		fetcher.New(client),
		document.BackendGoquery,
		resolver.New(prober),
		downloader.New(client, downloader.WithClock(func() time.Time { return manifestTime })),
		nil,
	)...)
	return p
}

func TestScenarios(t *testing.T) {
	t.Parallel()

	t.Run("relative source is combined, saved and listed", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, http.StatusOK, `<html><body><img src="/a.png"></body></html>`,
			map[string]func(http.ResponseWriter, *http.Request, int){
				"//a.png": serve("PNGDATA"),
			})
		dir := t.TempDir()
		run := model.NewRun(s.server.URL, dir)

		if err := newTestPipeline(s.server.Client()).Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(filepath.Join(dir, "a.png"))
		if err != nil || string(data) != "PNGDATA" {
			t.Fatalf("a.png = %q, err = %v", data, err)
		}

		manifest, err := os.ReadFile(filepath.Join(dir, downloader.ManifestFileName))
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		want := "Downloaded images from " + s.server.URL + " at 2024-05-06T07:08:09\n" +
			"----------\n" +
			s.server.URL + "//a.png\n" +
			"----------\n"
		if string(manifest) != want {
			t.Errorf("manifest mismatch\n got: %q\nwant: %q", manifest, want)
		}
	})

	t.Run("image without src downloads nothing", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, http.StatusOK, `<html><body><img alt="no source"></body></html>`, nil)
		dir := t.TempDir()
		run := model.NewRun(s.server.URL, dir)

		if err := newTestPipeline(s.server.Client()).Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(run.References) != 0 {
			t.Errorf("expected no references, got %v", run.References)
		}
		if run.Summary != nil {
			t.Error("downloader must not run without resolved images")
		}
		if _, err := os.Stat(filepath.Join(dir, downloader.ManifestFileName)); !os.IsNotExist(err) {
			t.Errorf("expected no manifest, stat err = %v", err)
		}
	})

	t.Run("page status 404 is fatal before extraction", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, http.StatusNotFound, `<img src="/a.png">`,
			map[string]func(http.ResponseWriter, *http.Request, int){
				"//a.png": serve("PNGDATA"),
			})
		run := model.NewRun(s.server.URL, t.TempDir())

		err := newTestPipeline(s.server.Client()).Execute(context.Background(), run)
		if !errors.Is(err, fetcher.ErrStatus) {
			t.Fatalf("expected ErrStatus, got %v", err)
		}
		if len(run.PerformedSteps) != 1 || run.PerformedSteps[0] != "fetch" {
			t.Errorf("expected only the fetch step, got %v", run.PerformedSteps)
		}
		if len(run.References) != 0 {
			t.Error("extraction must not run")
		}
		if s.hitCount("//a.png") != 0 {
			t.Error("no image request expected")
		}
	})

	t.Run("second download timing out is not fatal", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, http.StatusOK, `<img src="/one.png"><img src="/two.png">`,
			map[string]func(http.ResponseWriter, *http.Request, int){
				"//one.png": serve("ONE"),
				"//two.png": func(w http.ResponseWriter, r *http.Request, hit int) {
					if hit == 1 {
						// The probe succeeds; the download hangs.
						_, _ = w.Write([]byte("TWO"))
						return
					}
					<-r.Context().Done()
				},
			})
		client, err := transport.New(transport.WithTimeout(300 * time.Millisecond))
		if err != nil {
			t.Fatal(err)
		}
		dir := t.TempDir()
		run := model.NewRun(s.server.URL, dir)

		if err := newTestPipeline(client).Execute(context.Background(), run); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if run.Summary == nil {
			t.Fatal("expected a download summary")
		}
		if got := run.Summary.SucceededURLs(); len(got) != 1 || got[0] != s.server.URL+"//one.png" {
			t.Errorf("expected only one.png, got %v", got)
		}
		if run.Summary.Outcomes[1].Kind != model.ErrorKindTimeout {
			t.Errorf("expected timeout, got %v", run.Summary.Outcomes[1].Kind)
		}

		manifest, err := os.ReadFile(filepath.Join(dir, downloader.ManifestFileName))
		if err != nil {
			t.Fatalf("failed to read manifest: %v", err)
		}
		want := "Downloaded images from " + s.server.URL + " at 2024-05-06T07:08:09\n" +
			"----------\n" +
			s.server.URL + "//one.png\n" +
			"----------\n"
		if string(manifest) != want {
			t.Errorf("manifest mismatch\n got: %q\nwant: %q", manifest, want)
		}

		rec := run.Record()
		if rec.Downloaded != 1 || rec.Failed != 1 || rec.Error != "" {
			t.Errorf("unexpected record counts %+v", rec)
		}
	})
}

func TestExtractStepWithoutPage(t *testing.T) {
	t.Parallel()

	err := NewExtractStep().Do(context.Background(), model.NewRun("http://x.test", t.TempDir()))
	if !errors.Is(err, ErrNoPage) {
		t.Errorf("expected ErrNoPage, got %v", err)
	}
}

func TestExtractStepBackends(t *testing.T) {
	t.Parallel()

	for _, backend := range []string{document.BackendGoquery, document.BackendHTML} {
		t.Run(backend, func(t *testing.T) {
			t.Parallel()

			run := model.NewRun("http://x.test", t.TempDir())
			run.Page = &model.Page{
				ContentType: "text/html",
				Raw:         []byte(`<img src="a.png" alt="A"><img src=""><img src="/b/c.jpg">`),
			}

			if err := NewExtractStep(WithBackend(backend)).Do(context.Background(), run); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(run.References) != 2 {
				t.Fatalf("expected 2 references, got %d", len(run.References))
			}
			if run.References[0].Alt != "A" || run.References[1].Filename != "c.jpg" {
				t.Errorf("unexpected references %+v", run.References)
			}
		})
	}

	t.Run("unknown backend is fatal", func(t *testing.T) {
		t.Parallel()

		run := model.NewRun("http://x.test", t.TempDir())
		run.Page = &model.Page{Raw: []byte(`<img src="a.png">`)}
		err := NewExtractStep(WithBackend("lxml")).Do(context.Background(), run)
		if !errors.Is(err, document.ErrUnknownBackend) {
			t.Errorf("expected ErrUnknownBackend, got %v", err)
		}
	})
}
