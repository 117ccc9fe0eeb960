// Package tags harvests hash values from JSON files published under a
// configured subpath of a repository's release tags.
package tags

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

// Target keys looked up in each JSON file, and the aliases used to render
// their output keys.
var targetAliases = map[string]string{
	"bytecode_hash_hex": "bytecode",
	"params_hex":        "params",
}

// Config selects the repository and narrows the tag listing.
type Config struct {
	Owner    string
	Repo     string
	Subpath  string
	Prefix   string
	MaxTags  int
	PageSize int
}

// Source implements harvest.Source over a repository's tags.
type Source struct {
	gh     *github.Client
	cfg    Config
	logger *zap.Logger
}

// New constructs the tags Source.
func New(gh *github.Client, cfg Config, logger *zap.Logger) *Source {
	if cfg.PageSize <= 0 {
		cfg.PageSize = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{gh: gh, cfg: cfg, logger: logger}
}

// Describe returns "{owner}/{repo}/{subpath}".
func (s *Source) Describe() string {
	return fmt.Sprintf("%s/%s/%s", s.cfg.Owner, s.cfg.Repo, s.cfg.Subpath)
}

// Enumerate pages through the tag listing until an empty page, keeping tags
// that carry the configured prefix. A short page does not terminate
// pagination; only an exactly empty page does.
func (s *Source) Enumerate(ctx context.Context) ([]harvest.Candidate, error) {
	var out []harvest.Candidate
	seen := make(map[string]struct{})

	for page := 1; ; page++ {
		tags, err := s.gh.ListTags(ctx, s.cfg.Owner, s.cfg.Repo, page, s.cfg.PageSize)
		if err != nil {
			return nil, fmt.Errorf("list tags page %d: %w", page, err)
		}
		if len(tags) == 0 {
			break
		}
		for _, t := range tags {
			if !strings.HasPrefix(t.Name, s.cfg.Prefix) {
				continue
			}
			if _, dup := seen[t.Name]; dup {
				continue
			}
			seen[t.Name] = struct{}{}
			out = append(out, harvest.Candidate{
				ID:      t.Name,
				Group:   t.Name,
				Locator: s.cfg.Subpath,
			})
		}
		if s.cfg.MaxTags > 0 && len(out) >= s.cfg.MaxTags {
			out = out[:s.cfg.MaxTags]
			break
		}
	}

	if len(out) == 0 {
		return nil, fmt.Errorf("no tags with prefix %q: %w", s.cfg.Prefix, harvest.ErrNoCandidates)
	}
	return out, nil
}

// Harvest lists the tag's subpath for *.json files, fetches each one, and
// extracts the target keys. A missing subpath at the tag's revision is
// absence, not failure. Blob failures are isolated: the candidate fails
// only when every blob failed.
func (s *Source) Harvest(ctx context.Context, c harvest.Candidate) (harvest.Entries, error) {
	items, err := s.gh.ListContents(ctx, s.cfg.Owner, s.cfg.Repo, s.cfg.Subpath, c.Group)
	if err != nil {
		if errors.Is(err, github.ErrNotFound) {
			return nil, harvest.ErrAbsent
		}
		return nil, &harvest.FetchError{CandidateID: c.ID, Op: "list contents", Err: err}
	}

	var files []github.ContentItem
	for _, item := range items {
		if item.Type == "file" && strings.HasSuffix(item.Name, ".json") {
			files = append(files, item)
		}
	}
	if len(files) == 0 {
		return nil, harvest.ErrAbsent
	}

	entries := harvest.Entries{}
	var failed int
	var lastFetchErr, lastParseErr error
	for _, file := range files {
		raw, err := s.gh.RawContent(ctx, s.cfg.Owner, s.cfg.Repo, c.Group, file.Path)
		if err != nil {
			failed++
			lastFetchErr = err
			s.logger.Warn("raw fetch failed",
				zap.String("tag", c.Group),
				zap.String("file", file.Path),
				zap.Error(err),
			)
			continue
		}
		tree, err := extract.Parse(raw)
		if err != nil {
			failed++
			lastParseErr = err
			s.logger.Warn("invalid JSON",
				zap.String("tag", c.Group),
				zap.String("file", file.Path),
				zap.Error(err),
			)
			continue
		}
		s.collect(entries, c.Group, file, tree)
	}

	if failed == len(files) {
		if lastParseErr != nil {
			return nil, &harvest.ExtractError{CandidateID: c.ID, Detail: "all files invalid", Err: lastParseErr}
		}
		return nil, &harvest.FetchError{CandidateID: c.ID, Op: "raw fetch", Err: lastFetchErr}
	}
	return entries, nil
}

// collect records the first occurrence of each target key found in the file.
// Output keys carry the full file name, extension included; merge consumers
// key on these strings.
func (s *Source) collect(entries harvest.Entries, tag string, file github.ContentItem, tree any) {
	matches := extract.Keys(tree, []string{"bytecode_hash_hex", "params_hex"})
	found := make(map[string]bool, len(targetAliases))
	humanURL := s.gh.BlobURL(s.cfg.Owner, s.cfg.Repo, tag, file.Path)

	for _, m := range matches {
		if found[m.Key] {
			continue
		}
		found[m.Key] = true
		key := fmt.Sprintf("%s/%s/%s", tag, file.Name, targetAliases[m.Key])
		entries[key] = harvest.Entry{
			Key:         key,
			Value:       m.Value,
			URL:         humanURL,
			Description: s.describeMatch(m.Key, file.Name, tag),
		}
	}
}

func (s *Source) describeMatch(targetKey, fileName, tag string) string {
	switch targetKey {
	case "bytecode_hash_hex":
		return fmt.Sprintf("Bytecode hash for %s for tag %s in %s", fileName, tag, s.cfg.Repo)
	default:
		return fmt.Sprintf("Verification params hash for %s for tag %s in %s", fileName, tag, s.cfg.Repo)
	}
}
