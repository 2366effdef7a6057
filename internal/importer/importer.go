// Package importer loads markdown decks from local directories or git
// repositories into a user's flashcards.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/conorfennell/mindzap/internal/domain"
	"github.com/conorfennell/mindzap/internal/gitsource"
	"github.com/conorfennell/mindzap/internal/knol"
	"github.com/conorfennell/mindzap/internal/parser"
	"github.com/conorfennell/mindzap/internal/storage"
)

// ErrUnavailable is returned when a git source cannot be resolved or fetched.
var ErrUnavailable = errors.New("deck source unavailable")

// Store is the persistence the importer needs. *storage.DB implements it.
type Store interface {
	FindSource(ctx context.Context, userID int64, path string) (*storage.Source, error)
	InsertSource(ctx context.Context, userID int64, path, kind string) (int64, error)
	TouchSource(ctx context.Context, sourceID int64, at time.Time) error
	ListSources(ctx context.Context, userID int64) ([]storage.Source, error)
	FindFlashcardByHash(ctx context.Context, userID int64, hash string) (*domain.Flashcard, error)
	CreateFlashcard(ctx context.Context, c *domain.Flashcard) error
	ListFlashcardsBySource(ctx context.Context, sourceID int64) ([]domain.Flashcard, error)
	DeleteFlashcard(ctx context.Context, userID, id int64) error
}

// Syncer fetches a git repository into a local directory.
type Syncer interface {
	Sync(ctx context.Context, url, localPath string) error
}

// Report summarises one import.
type Report struct {
	Source  string   `json:"source"`
	Files   int      `json:"files"`
	Parsed  int      `json:"parsed"`
	Added   int      `json:"added"`
	Skipped int      `json:"skipped"` // already in the user's deck
	Invalid int      `json:"invalid"` // no answer
	Pruned  int      `json:"pruned"`
	Errors  []string `json:"errors,omitempty"`
}

// Importer reconciles deck sources with stored flashcards.
type Importer struct {
	store    Store
	git      Syncer
	reposDir string
	logger   *slog.Logger
}

// New returns an Importer that clones git sources below reposDir.
func New(store Store, git Syncer, reposDir string, logger *slog.Logger) *Importer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Importer{store: store, git: git, reposDir: reposDir, logger: logger}
}

// Run imports the deck at location, a directory or a git URL, for the user.
// The location is remembered as a source so later runs reconcile against it.
// With prune set, cards previously imported from this source whose content no
// longer appears in it are deleted.
func (im *Importer) Run(ctx context.Context, userID int64, location string, prune bool) (*Report, error) {
	kind := storage.SourceLocal
	if gitsource.IsGitURL(location) {
		kind = storage.SourceGit
	} else {
		abs, err := filepath.Abs(location)
		if err != nil {
			return nil, fmt.Errorf("resolve %s: %w", location, err)
		}
		location = abs
	}

	source, err := im.store.FindSource(ctx, userID, location)
	if errors.Is(err, storage.ErrSourceNotFound) {
		id, err := im.store.InsertSource(ctx, userID, location, kind)
		if err != nil {
			return nil, err
		}
		source = &storage.Source{ID: id, UserID: userID, Path: location, Kind: kind}
		im.logger.Info("source added", "user_id", userID, "source_id", id, "kind", kind, "path", location)
	} else if err != nil {
		return nil, err
	}

	return im.reconcile(ctx, source, prune)
}

// RunAll re-imports every source of the user.
func (im *Importer) RunAll(ctx context.Context, userID int64, prune bool) ([]*Report, error) {
	sources, err := im.store.ListSources(ctx, userID)
	if err != nil {
		return nil, err
	}
	reports := make([]*Report, 0, len(sources))
	for i := range sources {
		report, err := im.reconcile(ctx, &sources[i], prune)
		if err != nil {
			im.logger.Error("import failed", "source_id", sources[i].ID, "path", sources[i].Path, "error", err)
			report = &Report{Source: sources[i].Path, Errors: []string{err.Error()}}
		}
		reports = append(reports, report)
	}
	return reports, nil
}

func (im *Importer) reconcile(ctx context.Context, source *storage.Source, prune bool) (*Report, error) {
	dir := source.Path
	if source.Kind == storage.SourceGit {
		localPath, err := gitsource.LocalPath(im.reposDir, source.Path)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		if im.git == nil {
			return nil, fmt.Errorf("%w: %s: no git syncer configured", ErrUnavailable, source.Path)
		}
		if err := im.git.Sync(ctx, source.Path, localPath); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		dir = localPath
	}

	report := &Report{Source: source.Path}
	found := make(map[string]bool)

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		report.Files++
		cards, err := parser.ParseFile(path)
		if err != nil {
			report.Errors = append(report.Errors, fmt.Sprintf("parsing %s: %v", path, err))
			return nil
		}
		for i := range cards {
			im.importCard(ctx, source, &cards[i], found, report)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk %s: %w", dir, walkErr)
	}

	if prune {
		if err := im.prune(ctx, source, found, report); err != nil {
			return nil, err
		}
	}

	if err := im.store.TouchSource(ctx, source.ID, time.Now()); err != nil {
		im.logger.Warn("failed to update last scanned for source", "source_id", source.ID, "error", err)
	}

	im.logger.Info("import complete",
		"user_id", source.UserID,
		"path", source.Path,
		"files", report.Files,
		"parsed", report.Parsed,
		"added", report.Added,
		"skipped", report.Skipped,
		"pruned", report.Pruned,
		"errors", len(report.Errors),
	)
	return report, nil
}

func (im *Importer) importCard(ctx context.Context, source *storage.Source, card *domain.Flashcard, found map[string]bool, report *Report) {
	report.Parsed++
	if strings.TrimSpace(card.Answer) == "" {
		report.Invalid++
		return
	}

	hash := knol.Stamp(card)
	if found[hash] {
		report.Skipped++
		return
	}
	found[hash] = true

	_, err := im.store.FindFlashcardByHash(ctx, source.UserID, hash)
	switch {
	case err == nil:
		report.Skipped++
		return
	case !errors.Is(err, storage.ErrCardNotFound):
		report.Errors = append(report.Errors, fmt.Sprintf("lookup %s: %v", hash, err))
		return
	}

	sourceID := source.ID
	card.UserID = source.UserID
	card.SourceID = &sourceID
	if err := im.store.CreateFlashcard(ctx, card); err != nil {
		report.Errors = append(report.Errors, fmt.Sprintf("insert %s: %v", hash, err))
		return
	}
	report.Added++
	im.logger.Debug("flashcard imported", "card_id", card.ID, "hash", hash)
}

func (im *Importer) prune(ctx context.Context, source *storage.Source, found map[string]bool, report *Report) error {
	cards, err := im.store.ListFlashcardsBySource(ctx, source.ID)
	if err != nil {
		return err
	}
	for _, c := range cards {
		if found[c.Hash] {
			continue
		}
		if err := im.store.DeleteFlashcard(ctx, c.UserID, c.ID); err != nil && !errors.Is(err, storage.ErrCardNotFound) {
			im.logger.Warn("failed to delete orphaned card", "card_id", c.ID, "error", err)
			continue
		}
		im.logger.Info("orphaned card deleted", "card_id", c.ID, "hash", c.Hash)
		report.Pruned++
	}
	return nil
}
