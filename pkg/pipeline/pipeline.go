package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"dyfetch/pkg/config"
	"dyfetch/pkg/douyin"
	errs "dyfetch/pkg/errors"
	"dyfetch/pkg/history"
	"dyfetch/pkg/logger"
	"dyfetch/pkg/models"
	"dyfetch/pkg/retry"
	"dyfetch/pkg/storage"
	"dyfetch/pkg/ui"
)

// Session runs the fetch pipeline: for each configured link it resolves the
// creator, pages through the catalog, skips items already in the history
// ledger and streams the rest to disk. All run state lives here; there is no
// package-level mutable state.
type Session struct {
	cfg    *config.Config
	client CatalogClient
	ledger *history.Ledger
	store  *storage.Manager
	logger logger.Logger

	// retrier bounds every network call to a fixed number of immediate
	// attempts. Nothing mutates between attempts, so there is no point
	// waiting; callers rebind it to their context per call.
	retrier *retry.Retrier

	// quiet suppresses console output. Logging is unaffected.
	quiet bool

	// now stamps placeholder titles for items without one. Tests pin it.
	now func() time.Time

	// currentPartial is the in-flight download, if any. Only the
	// cancellation path reads it, via CleanupPartial.
	mu             sync.Mutex
	currentPartial string
}

// New creates a pipeline session. A nil log falls back to the global logger.
func New(cfg *config.Config, client CatalogClient, ledger *history.Ledger, store *storage.Manager, log logger.Logger) *Session {
	if log == nil {
		log = logger.GetLogger()
	}

	return &Session{
		cfg:    cfg,
		client: client,
		ledger: ledger,
		store:  store,
		logger: log,
		retrier: retry.NewRetrier(&retry.Config{
			RetryIf: retry.DefaultRetryIf,
			Logger:  log,
		}).WithMaxAttempts(cfg.Download.MaxRetries).
			WithBackoff(&retry.ConstantBackoff{}),
		now: time.Now,
	}
}

// SetQuiet turns console output off. Tests and scripted runs use this; the
// structured log still records everything.
func (s *Session) SetQuiet(quiet bool) {
	s.quiet = quiet
}

// Run processes every configured link in order. Link failures are recorded
// in the returned stats and do not stop the run; only cancellation does,
// and it is returned so the caller can exit cleanly.
func (s *Session) Run(ctx context.Context) (*models.RunStats, error) {
	stats := &models.RunStats{StartedAt: s.now()}
	links := s.cfg.LinkList()

	s.logger.InfoWithFields("Run starting", map[string]interface{}{
		"links":       len(links),
		"output_root": s.cfg.Output.Root,
		"ledger":      s.ledger.Len(),
	})

	for i, link := range links {
		if ctx.Err() != nil {
			stats.Duration = time.Since(stats.StartedAt)
			return stats, errs.New(errs.ErrorTypeCanceled, "run canceled", 0)
		}

		if !s.quiet {
			ui.PrintHighlight(fmt.Sprintf("\n[%d/%d] %s", i+1, len(links), link))
		}

		result := s.processLink(ctx, link)
		stats.Add(result)

		if isCanceled(result.Err) {
			stats.Duration = time.Since(stats.StartedAt)
			return stats, result.Err
		}

		if result.Err != nil {
			s.logger.ErrorWithFields("Link failed", map[string]interface{}{
				"link":  link,
				"error": result.Err.Error(),
			})
			if !s.quiet {
				ui.PrintError("Link failed", result.Err)
			}
			continue
		}

		s.logger.InfoWithFields("Link finished", map[string]interface{}{
			"link":       link,
			"creator":    result.Creator,
			"pages":      result.Pages,
			"downloaded": result.Downloaded,
			"skipped":    result.Skipped,
			"failed":     result.Failed,
		})
	}

	stats.Duration = time.Since(stats.StartedAt)
	return stats, nil
}

// processLink handles one shared profile link end to end. An error in the
// returned result means the link failed as a whole; the caller decides
// whether the run goes on.
func (s *Session) processLink(ctx context.Context, link string) models.LinkResult {
	result := models.LinkResult{Link: link}
	log := s.logger.WithField("link", link)

	// Resolve the share link to the creator ID. Transport hiccups retry;
	// a link that resolves to no profile fails immediately.
	var secUID string
	err := s.retrier.WithContext(ctx).Do(func() error {
		id, _, rerr := s.client.ResolveShareLink(ctx, link)
		if rerr != nil {
			return rerr
		}
		secUID = id
		return nil
	})
	if err != nil {
		result.Err = fmt.Errorf("resolving share link: %w", err)
		return result
	}
	result.CreatorID = secUID
	log = log.WithField("sec_uid", secUID)
	log.Info("Share link resolved")

	var (
		cursor     int64
		creatorDir string
		hasMore    = true
		emptyCount = 0
		pageNum    = 0
	)

	for hasMore {
		if ctx.Err() != nil {
			result.Err = errs.New(errs.ErrorTypeCanceled, "run canceled", 0)
			return result
		}

		if !s.quiet {
			attempt := emptyCount + 1
			fmt.Printf("%s\n", ui.Dim(fmt.Sprintf("  fetching page %d (attempt %d, cursor %d)", pageNum+1, attempt, cursor)))
		}

		var page *douyin.CatalogPage
		err := s.retrier.WithContext(ctx).Do(func() error {
			p, ferr := s.client.FetchCatalogPage(ctx, secUID, cursor)
			if ferr != nil {
				return ferr
			}
			page = p
			return nil
		})
		if err != nil {
			result.Err = fmt.Errorf("fetching catalog page at cursor %d: %w", cursor, err)
			return result
		}

		// An empty page does not advance the cursor: the same call repeats
		// until items arrive. The platform intermittently serves empty
		// pages mid-catalog and recovers on a refetch. By default this
		// loops forever; empty_page_limit bounds it.
		if len(page.AwemeList) == 0 {
			emptyCount++
			log.WarnWithFields("Catalog page empty, refetching with same cursor", map[string]interface{}{
				"cursor":  cursor,
				"attempt": emptyCount,
			})
			if !s.quiet {
				ui.PrintWarning(fmt.Sprintf("  page %d came back empty, refetching (attempt %d)", pageNum+1, emptyCount))
			}
			if limit := s.cfg.Download.EmptyPageLimit; limit > 0 && emptyCount >= limit {
				result.Err = errs.Newf(errs.ErrorTypeServerError, 0,
					"catalog page at cursor %d stayed empty after %d fetches", cursor, emptyCount)
				return result
			}
			continue
		}
		emptyCount = 0
		pageNum++
		result.Pages++

		// The creator's display name comes from the first page with items
		// and stays fixed, so one link writes to one directory.
		if result.Creator == "" {
			result.Creator = creatorDisplayName(page.AwemeList, secUID)
			log.InfoWithFields("Creator resolved", map[string]interface{}{
				"creator": result.Creator,
			})
			if !s.quiet {
				ui.PrintInfo("  Creator", result.Creator)
			}

			// Every item of the link lands in this directory; without it
			// none can be written, so failure here fails the link.
			creatorDir, err = s.store.CreatorDir(result.Creator)
			if err != nil {
				result.Err = fmt.Errorf("creating creator directory: %w", err)
				return result
			}
		}

		for _, item := range page.AwemeList {
			if err := s.processItem(ctx, creatorDir, result.Creator, &item, &result); err != nil {
				result.Err = err
				return result
			}
		}

		log.DebugWithFields("Catalog page processed", map[string]interface{}{
			"page":        pageNum,
			"items":       len(page.AwemeList),
			"next_cursor": page.MaxCursor,
			"has_more":    page.HasMore,
		})

		cursor = page.MaxCursor
		hasMore = page.HasMore
	}

	return result
}

// processItem downloads one catalog item unless the ledger already has it.
// A returned error fails the whole link; item-level failures only bump
// result.Failed.
func (s *Session) processItem(ctx context.Context, dir, creator string, item *douyin.Aweme, result *models.LinkResult) error {
	title := douyin.SanitizeFilename(item.Desc)
	if title == "" {
		title = douyin.FallbackTitle(s.now())
	}

	key := history.Key(creator, title)
	if s.ledger.Contains(key) {
		result.Skipped++
		s.logger.DebugWithFields("Already in history, skipping", map[string]interface{}{
			"creator": creator,
			"title":   title,
		})
		if !s.quiet {
			fmt.Printf("%s\n", ui.Dim("  skipped: "+title))
		}
		return nil
	}

	playURL := item.PlayURL()
	if playURL == "" {
		result.Failed++
		s.logger.WarnWithFields("Item has no playable address", map[string]interface{}{
			"creator":  creator,
			"title":    title,
			"aweme_id": item.AwemeID,
		})
		return nil
	}

	received, err := s.downloadItem(ctx, dir, title, playURL)
	if err != nil {
		var derr *errs.Error
		if errors.As(err, &derr) && derr.Type == errs.ErrorTypeFilesystem {
			// This item cannot be written; the rest of the link still can.
			result.Failed++
			s.logger.ErrorWithFields("Item failed, continuing with link", map[string]interface{}{
				"creator": creator,
				"title":   title,
				"error":   err.Error(),
			})
			if !s.quiet {
				ui.PrintError("  failed: "+title, err)
			}
			return nil
		}
		return fmt.Errorf("downloading %q: %w", title, err)
	}

	// The download is on disk under its final name; record it so the next
	// run skips it. If recording fails the only cost is one redundant
	// re-download, which is the side the ledger is designed to err on.
	if err := s.ledger.Append(key); err != nil {
		s.logger.WithError(err).WarnWithFields("Failed to record download in ledger", map[string]interface{}{
			"creator": creator,
			"title":   title,
		})
	}

	result.Downloaded++
	result.Bytes += received
	s.logger.InfoWithFields("Downloaded", map[string]interface{}{
		"creator": creator,
		"title":   title,
		"bytes":   received,
	})

	return nil
}

// downloadItem streams one video to disk, retrying the whole attempt on
// transient failure. It returns the bytes received.
func (s *Session) downloadItem(ctx context.Context, dir, title, playURL string) (int64, error) {
	var received int64

	err := s.retrier.WithContext(ctx).Do(func() error {
		stream, length, err := s.client.OpenVideoStream(ctx, playURL)
		if err != nil {
			return err
		}
		defer stream.Close()

		var bar *ui.ByteBar
		if !s.quiet {
			bar = ui.NewByteBar(s.cfg.Output.BarWidth)
			bar.Start(title)
		}

		s.setPartial(storage.PartialPath(dir, title))
		defer s.clearPartial()

		received = 0
		_, err = s.store.SaveStream(ctx, dir, title, stream, length, func(written, total int64) {
			received = written
			if bar != nil {
				bar.Update(written, total)
			}
		})
		if bar != nil {
			bar.Done()
		}
		return err
	})

	if err != nil {
		return 0, err
	}
	return received, nil
}

// CleanupPartial removes the in-flight partial download, if any. The
// cancellation handler calls it before the process exits, so no half
// written file survives an interrupt.
func (s *Session) CleanupPartial() {
	s.mu.Lock()
	partial := s.currentPartial
	s.currentPartial = ""
	s.mu.Unlock()

	if partial == "" {
		return
	}

	if err := os.Remove(partial); err != nil {
		if !os.IsNotExist(err) {
			s.logger.WithError(err).WarnWithFields("Failed to remove partial download", map[string]interface{}{
				"path": partial,
			})
		}
		return
	}

	s.logger.InfoWithFields("Removed partial download", map[string]interface{}{
		"path": partial,
	})
}

func (s *Session) setPartial(path string) {
	s.mu.Lock()
	s.currentPartial = path
	s.mu.Unlock()
}

func (s *Session) clearPartial() {
	s.mu.Lock()
	s.currentPartial = ""
	s.mu.Unlock()
}

// creatorDisplayName picks the directory name for a creator: the first
// author nickname on the page that survives sanitization, or the creator ID
// when every nickname sanitizes away.
func creatorDisplayName(items []douyin.Aweme, secUID string) string {
	for i := range items {
		if name := douyin.SanitizeFilename(items[i].Author.Nickname); name != "" {
			return name
		}
	}
	return secUID
}

// isCanceled reports whether err is operator cancellation, which ends the
// run instead of just the link.
func isCanceled(err error) bool {
	if err == nil {
		return false
	}
	var derr *errs.Error
	if errors.As(err, &derr) && derr.Type == errs.ErrorTypeCanceled {
		return true
	}
	return errors.Is(err, context.Canceled)
}
