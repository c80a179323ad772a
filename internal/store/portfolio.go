package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/elemdex/elemdex/internal/errors"
)

// maxConcurrentReads bounds parallel content reads during a bulk load.
const maxConcurrentReads = 8

// PortfolioStore reads elements from a portfolio directory laid out as one
// subdirectory per element type (personas/, skills/, templates/, agents/,
// memories/, ensembles/), one markdown file per element.
type PortfolioStore struct {
	root   string
	logger *slog.Logger

	mu          sync.Mutex
	subscribers []func()
}

// DefaultPortfolioDir returns ~/.elemdex/portfolio.
func DefaultPortfolioDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".elemdex", "portfolio")
	}
	return filepath.Join(home, ".elemdex", "portfolio")
}

// NewPortfolioStore creates a store rooted at dir.
func NewPortfolioStore(dir string, logger *slog.Logger) *PortfolioStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &PortfolioStore{root: dir, logger: logger}
}

// Root returns the portfolio root directory.
func (s *PortfolioStore) Root() string {
	return s.root
}

// ListElements enumerates every element file in the portfolio.
// Unknown directories and non-markdown files are ignored.
func (s *PortfolioStore) ListElements(ctx context.Context) ([]ElementRef, error) {
	var refs []ElementRef

	for _, typ := range ElementTypes {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := filepath.Join(s.root, typ.DirName())
		entries, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, errors.IOError("failed to list "+dir, err)
		}

		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			name := entry.Name()
			if !strings.HasSuffix(name, ".md") {
				continue
			}
			base := strings.TrimSuffix(name, ".md")
			refs = append(refs, ElementRef{
				ID:   MakeID(typ, base),
				Type: typ,
				Name: base,
			})
		}
	}

	sort.Slice(refs, func(i, j int) bool { return refs[i].ID < refs[j].ID })
	return refs, nil
}

// ReadContent returns the raw content of one element.
func (s *PortfolioStore) ReadContent(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	typ, name, err := ParseID(id)
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidElementID, err)
	}

	path := filepath.Join(s.root, typ.DirName(), name+".md")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.New(errors.ErrCodeElementRead, "failed to read element "+id, err).
			WithDetail("path", path)
	}
	return string(data), nil
}

// ReadContents bulk-loads content for the given refs with bounded
// concurrency. Unreadable elements are skipped and logged; a single bad
// element never fails the whole load.
func (s *PortfolioStore) ReadContents(ctx context.Context, refs []ElementRef) (map[string]string, error) {
	contents := make(map[string]string, len(refs))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)

	for _, ref := range refs {
		g.Go(func() error {
			text, err := s.ReadContent(gctx, ref.ID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				s.logger.Warn("skipping unreadable element",
					"element", ref.ID,
					"error", err)
				return nil
			}
			mu.Lock()
			contents[ref.ID] = text
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return contents, nil
}

// Subscribe registers a change-notification callback.
func (s *PortfolioStore) Subscribe(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

// NotifyChange fans a population change out to all subscribers. The watcher
// calls this after debouncing filesystem events.
func (s *PortfolioStore) NotifyChange() {
	s.mu.Lock()
	subs := make([]func(), len(s.subscribers))
	copy(subs, s.subscribers)
	s.mu.Unlock()

	for _, fn := range subs {
		fn()
	}
}
