// Package gitsource keeps local clones of git-hosted decks up to date.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// IsGitURL reports whether location looks like a remote repository rather than a local path.
func IsGitURL(location string) bool {
	if strings.HasPrefix(location, "git@") || strings.HasSuffix(location, ".git") {
		return true
	}
	u, err := url.Parse(location)
	return err == nil && (u.Scheme == "https" || u.Scheme == "http" || u.Scheme == "ssh" || u.Scheme == "git")
}

// LocalPath maps a repository URL to a directory under baseDir, e.g.
// https://github.com/a/b.git -> baseDir/github.com/a/b. scp-style URLs
// (git@host:a/b.git) are supported.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || parsedURL.Host == "" {
		user, rest, ok := strings.Cut(repoURL, "@")
		host, repoPath, ok2 := strings.Cut(rest, ":")
		if !ok || !ok2 || user == "" || host == "" || repoPath == "" {
			return "", fmt.Errorf("could not parse git URL: %s", repoURL)
		}
		return safeJoin(baseDir, host, strings.TrimSuffix(repoPath, ".git"))
	}
	return safeJoin(baseDir, parsedURL.Host, strings.TrimSuffix(parsedURL.Path, ".git"))
}

func safeJoin(baseDir, host, repoPath string) (string, error) {
	p := filepath.Join(baseDir, host, filepath.FromSlash(repoPath))
	rel, err := filepath.Rel(baseDir, p)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("git URL escapes repository directory: %s/%s", host, repoPath)
	}
	return p, nil
}

// Syncer clones or pulls repositories.
type Syncer struct {
	logger *slog.Logger
	// Progress receives git's progress output; nil discards it.
	Progress io.Writer
}

// NewSyncer returns a Syncer logging to logger.
func NewSyncer(logger *slog.Logger) *Syncer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Syncer{logger: logger}
}

// Sync clones the repository at url into localPath if it doesn't exist yet,
// or pulls the latest changes if it does.
func (s *Syncer) Sync(ctx context.Context, url, localPath string) error {
	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		s.logger.Info("cloning repository", "url", url, "path", localPath)
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:      url,
			Progress: s.Progress,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
		s.logger.Info("clone successful", "url", url)
	case err == nil:
		s.logger.Info("pulling repository", "path", localPath)
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}

		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}

		err = worktree.PullContext(ctx, &git.PullOptions{
			RemoteName: "origin",
			Progress:   s.Progress,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
		s.logger.Info("pull complete", "path", localPath, "up_to_date", err != nil)
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	return nil
}
