package ops

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/hpungsan/gallerist/internal/errors"
	"github.com/hpungsan/gallerist/internal/journal"
	"github.com/hpungsan/gallerist/internal/logging"
	"github.com/hpungsan/gallerist/internal/manifest"
	"github.com/hpungsan/gallerist/internal/projector"
	"github.com/hpungsan/gallerist/internal/publish"
	"github.com/hpungsan/gallerist/internal/store"
	"github.com/hpungsan/gallerist/internal/style"
)

// ImageProcessor normalizes uploads and rotates stored photos.
type ImageProcessor interface {
	Normalize(src []byte) ([]byte, error)
	Rotate(src []byte, degrees int) ([]byte, error)
}

// Publisher commits and pushes the gallery.
type Publisher interface {
	Publish(ctx context.Context, message string) (*publish.Result, error)
}

// Journal records finished operations.
type Journal interface {
	Record(ctx context.Context, e journal.Entry) error
	List(ctx context.Context, in journal.ListInput) ([]journal.Entry, error)
}

// Metrics observes finished operations.
type Metrics interface {
	ObserveOperation(op, status string, d time.Duration)
	IncPhoto(kind string, success bool)
}

// Options wires the Service's collaborators. Nil Publisher, Journal and
// Metrics disable those features.
type Options struct {
	Images    ImageProcessor
	Publisher Publisher
	Journal   Journal
	Metrics   Metrics

	// Fonts is the font catalog for settings. Zero value means style.DefaultCatalog().
	Fonts style.Catalog

	// Templates maps a layout to the page id whose document new pages clone.
	Templates map[manifest.Layout]string
}

// Service runs gallery operations. Operations are serialized: each one sees
// the files left by the previous one.
type Service struct {
	store *store.Store
	opts  Options
	mu    sync.Mutex
}

// New returns a Service over st.
func New(st *store.Store, opts Options) *Service {
	if opts.Fonts.Title == nil || opts.Fonts.Body == nil {
		opts.Fonts = style.DefaultCatalog()
	}
	if opts.Templates == nil {
		opts.Templates = map[manifest.Layout]string{
			manifest.LayoutMasonry: "page-1",
			manifest.LayoutSingle:  "page-2",
		}
	}
	return &Service{store: st, opts: opts}
}

// Store returns the underlying gallery store.
func (s *Service) Store() *store.Store {
	return s.store
}

// run executes a mutating operation under the service lock, then logs,
// journals and measures it. Errors leave as *errors.GalleryError.
func (s *Service) run(ctx context.Context, op, target string, fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	gErr := errors.From(fn())
	elapsed := time.Since(start)

	logger := logging.FromContext(ctx)
	entry := journal.Entry{Op: op, Target: target, Status: journal.StatusOK, DurationMS: elapsed.Milliseconds()}
	if gErr != nil {
		entry.Status = journal.StatusError
		entry.ErrorCode = string(gErr.Code)
		entry.Message = gErr.Message

		event := logger.Warn()
		if gErr.Code == errors.ErrInternal || gErr.Code == errors.ErrPublishFailure {
			event = logger.Error()
		}
		event.Str("op", op).Str("target", target).Str("code", string(gErr.Code)).
			Dur("duration", elapsed).Msg(gErr.Message)
	} else {
		logger.Info().Str("op", op).Str("target", target).Dur("duration", elapsed).Msg("operation complete")
	}

	if s.opts.Metrics != nil {
		s.opts.Metrics.ObserveOperation(op, entry.Status, elapsed)
	}
	if s.opts.Journal != nil {
		if err := s.opts.Journal.Record(context.WithoutCancel(ctx), entry); err != nil {
			logger.Warn().Err(err).Str("op", op).Msg("journal write failed")
		}
	}

	if gErr != nil {
		return gErr
	}
	return nil
}

// view executes a read-only operation under the service lock.
func (s *Service) view(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := errors.From(fn()); err != nil {
		return err
	}
	return nil
}

// loadSite reads the manifest, logging anything the decoder skipped.
func (s *Service) loadSite(ctx context.Context) (*manifest.Site, error) {
	site, diags, err := s.store.LoadSite()
	logger := logging.FromContext(ctx)
	for _, d := range diags {
		logger.Warn().Int("line", d.Line).Str("manifest", s.store.ManifestPath()).Msg(d.Message)
	}
	return site, err
}

// findPage returns the page with id, or PAGE_NOT_FOUND.
func findPage(site *manifest.Site, id string) (*manifest.Page, error) {
	p := site.Page(id)
	if p == nil {
		return nil, errors.NewPageNotFound(id)
	}
	return p, nil
}

// rewrite applies fn to the document at path and writes it back when it changed.
// A missing document is skipped. Reports whether the file was written.
func (s *Service) rewrite(ctx context.Context, path string, fn func(doc string) string) (bool, error) {
	doc, ok, err := s.store.ReadDocument(path)
	if err != nil {
		return false, err
	}
	if !ok {
		logging.FromContext(ctx).Debug().Str("path", path).Msg("document missing, skipped")
		return false, nil
	}
	out := fn(doc)
	if out == doc {
		return false, nil
	}
	if err := s.store.WriteDocument(path, out); err != nil {
		return false, err
	}
	return true, nil
}

// syncNav rewrites the navigation of the root document and of every page document.
func (s *Service) syncNav(ctx context.Context, site *manifest.Site) (int, error) {
	written := 0
	ok, err := s.rewrite(ctx, s.store.RootIndexPath(), func(doc string) string {
		return projector.ProjectRoot(doc, site)
	})
	if err != nil {
		return written, err
	}
	if ok {
		written++
	}

	for _, p := range site.Pages {
		links := projector.PageNavLinks(site, p.ID)
		ok, err := s.rewrite(ctx, s.store.PageIndexPath(p.ID), func(doc string) string {
			doc, _ = projector.SetNav(doc, links)
			return doc
		})
		if err != nil {
			return written, err
		}
		if ok {
			written++
		}
	}
	return written, nil
}

// syncAll regenerates every label artifact and projects every document.
func (s *Service) syncAll(ctx context.Context, site *manifest.Site) (labelsWritten, docsWritten int, err error) {
	for _, p := range site.Pages {
		ok, err := s.store.WriteLabels(p)
		if err != nil {
			return labelsWritten, docsWritten, err
		}
		if ok {
			labelsWritten++
		}
	}

	ok, err := s.rewrite(ctx, s.store.RootIndexPath(), func(doc string) string {
		return projector.ProjectRoot(doc, site)
	})
	if err != nil {
		return labelsWritten, docsWritten, err
	}
	if ok {
		docsWritten++
	}

	for _, p := range site.Pages {
		page := p
		ok, err := s.rewrite(ctx, s.store.PageIndexPath(page.ID), func(doc string) string {
			return projector.ProjectPage(doc, site, page)
		})
		if err != nil {
			return labelsWritten, docsWritten, err
		}
		if ok {
			docsWritten++
		}
	}
	return labelsWritten, docsWritten, nil
}

// saveAndLabel persists the manifest and regenerates the label artifact of page.
func (s *Service) saveAndLabel(site *manifest.Site, page *manifest.Page) error {
	if err := s.store.SaveSite(site); err != nil {
		return err
	}
	if _, err := s.store.WriteLabels(page); err != nil {
		return err
	}
	return nil
}

func photoTarget(pageID, filename string) string {
	return fmt.Sprintf("%s/%s", pageID, filename)
}
