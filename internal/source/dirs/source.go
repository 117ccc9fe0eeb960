// Package dirs harvests hash values from a known index file inside each
// subdirectory of a repository path at a fixed branch.
package dirs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/zksync-wtf/harvester/internal/extract"
	"github.com/zksync-wtf/harvester/internal/github"
	"github.com/zksync-wtf/harvester/internal/harvest"
)

// DefaultIndexFile is the file looked for inside every subdirectory.
const DefaultIndexFile = "commitments.json"

// Config selects the repository path and narrows the directory listing.
type Config struct {
	Owner     string
	Repo      string
	BasePath  string
	Branch    string
	IndexFile string
	Prefix    string
	Max       int
}

// Source implements harvest.Source over a repository directory tree.
type Source struct {
	gh     *github.Client
	cfg    Config
	logger *zap.Logger
}

// New constructs the dirs Source.
func New(gh *github.Client, cfg Config, logger *zap.Logger) *Source {
	if cfg.IndexFile == "" {
		cfg.IndexFile = DefaultIndexFile
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{gh: gh, cfg: cfg, logger: logger}
}

// Describe returns "{owner}/{repo}/{basePath}/{branch}".
func (s *Source) Describe() string {
	return fmt.Sprintf("%s/%s/%s/%s", s.cfg.Owner, s.cfg.Repo, s.cfg.BasePath, s.cfg.Branch)
}

// Enumerate lists the base path once and keeps its subdirectories, applying
// the prefix filter and maximum count.
func (s *Source) Enumerate(ctx context.Context) ([]harvest.Candidate, error) {
	items, err := s.gh.ListContents(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.BasePath, s.cfg.Branch)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", s.cfg.BasePath, err)
	}

	var out []harvest.Candidate
	seen := make(map[string]struct{})
	for _, item := range items {
		if item.Type != "dir" || !strings.HasPrefix(item.Name, s.cfg.Prefix) {
			continue
		}
		if _, dup := seen[item.Name]; dup {
			continue
		}
		seen[item.Name] = struct{}{}
		out = append(out, harvest.Candidate{
			ID:      item.Name,
			Group:   item.Name,
			Locator: s.cfg.BasePath + "/" + item.Name,
		})
		if s.cfg.Max > 0 && len(out) >= s.cfg.Max {
			break
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no subdirectories under %s/%s: %w",
			s.cfg.Repo, s.cfg.BasePath, harvest.ErrNoCandidates)
	}
	return out, nil
}

// Harvest checks the directory's listing for the index file, fetches it,
// and records every hash-shaped string leaf under its structural path
// rooted at the directory name.
func (s *Source) Harvest(ctx context.Context, c harvest.Candidate) (harvest.Entries, error) {
	items, err := s.gh.ListContents(ctx, s.cfg.Owner, s.cfg.Repo, c.Locator, s.cfg.Branch)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			return nil, harvest.ErrAbsent
		}
		return nil, &harvest.FetchError{CandidateID: c.ID, Op: "list contents", Err: err}
	}

	present := false
	for _, item := range items {
		if item.Type == "file" && item.Name == s.cfg.IndexFile {
			present = true
			break
		}
	}
	if !present {
		return nil, harvest.ErrAbsent
	}

	filePath := c.Locator + "/" + s.cfg.IndexFile
	raw, err := s.gh.RawContent(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.Branch, filePath)
	if err != nil {
		return nil, &harvest.FetchError{CandidateID: c.ID, Op: "raw fetch", Err: err}
	}

	tree, err := extract.Parse(raw)
	if err != nil {
		return nil, &harvest.ExtractError{CandidateID: c.ID, Detail: s.cfg.IndexFile, Err: err}
	}

	humanURL := s.gh.BlobURL(s.cfg.Owner, s.cfg.Repo, s.cfg.Branch, filePath)
	entries := harvest.Entries{}
	for _, m := range extract.Pattern(tree, c.Group) {
		entries[m.Path] = harvest.Entry{
			Key:         m.Path,
			Value:       m.Value,
			URL:         humanURL,
			Description: fmt.Sprintf("Boojum Hash for %s version %s in %s", m.Path, c.Group, s.cfg.Repo),
		}
	}
	return entries, nil
}
