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
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Sync clones a git repository if it doesn't exist at the given path,
// or pulls the latest changes if it does. Clone and pull progress is written
// to progress; nil discards it.
func Sync(ctx context.Context, url, localPath string, progress io.Writer) error {
	if progress == nil {
		progress = io.Discard
	}

	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		slog.Info("Cloning parameter repository", "url", url, "path", localPath)
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:      url,
			Progress: progress,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
	case err == nil:
		slog.Info("Pulling parameter repository", "path", localPath)
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
			Progress:   progress,
		})
		if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}

	return nil
}

// LoadWeights reads the "weights" list from a YAML parameter file.
func LoadWeights(path string) ([]float64, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to read parameter file %s: %w", path, err)
	}
	var weights []float64
	if err := k.Unmarshal("weights", &weights); err != nil {
		return nil, fmt.Errorf("failed to decode weights in %s: %w", path, err)
	}
	if len(weights) == 0 {
		return nil, fmt.Errorf("parameter file %s has no weights", path)
	}
	return weights, nil
}

// Fetch syncs the repository into localPath and loads the parameter file
// found at relPath inside it.
func Fetch(ctx context.Context, url, localPath, relPath string, progress io.Writer) ([]float64, error) {
	if err := Sync(ctx, url, localPath, progress); err != nil {
		return nil, err
	}
	return LoadWeights(filepath.Join(localPath, relPath))
}

// LocalPath maps a repository URL to a checkout directory under baseDir.
// Both https URLs and scp-like git@host:path forms are accepted.
func LocalPath(baseDir, repoURL string) (string, error) {
	parsedURL, err := url.Parse(repoURL)
	if err != nil || (parsedURL.Scheme != "https" && parsedURL.Scheme != "http") {
		if strings.Contains(repoURL, "@") {
			parts := strings.Split(repoURL, ":")
			if len(parts) == 2 {
				hostAndUser := strings.Split(parts[0], "@")
				if len(hostAndUser) == 2 {
					host := hostAndUser[1]
					repoPath := strings.TrimSuffix(parts[1], ".git")
					return filepath.Join(baseDir, host, repoPath), nil
				}
			}
		}
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}

	sanitizedPath := strings.TrimSuffix(parsedURL.Path, ".git")
	return filepath.Join(baseDir, parsedURL.Host, sanitizedPath), nil
}
