package answer

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Entry is a cached pair of translated outputs for one component and
// query type, pinned to the repository commit it was produced from.
type Entry struct {
	Component      string    `json:"component"`
	QueryType      string    `json:"query_type"`
	BriefOutput    string    `json:"brief_output"`
	DetailedOutput string    `json:"detailed_output"`
	RawOutput      string    `json:"raw_output"`
	GitCommit      string    `json:"git_commit"`
	Timestamp      time.Time `json:"timestamp"`
}

// Cache stores translated answers on disk. Entries expire after a TTL
// and, when auto-invalidation is on, whenever the analyzed repository
// moves to a new commit.
type Cache struct {
	dir            string
	repoPath       string
	ttl            time.Duration
	autoInvalidate bool
	head           func(ctx context.Context) (string, error)
}

type CacheOption func(*Cache)

func WithTTL(ttl time.Duration) CacheOption {
	return func(c *Cache) { c.ttl = ttl }
}

func WithAutoInvalidate(on bool) CacheOption {
	return func(c *Cache) { c.autoInvalidate = on }
}

// WithHeadFunc overrides how the current repository revision is
// resolved, for repositories not tracked by git.
func WithHeadFunc(head func(ctx context.Context) (string, error)) CacheOption {
	return func(c *Cache) { c.head = head }
}

func NewCache(dir, repoPath string, opts ...CacheOption) (*Cache, error) {
	c := &Cache{
		dir:            dir,
		repoPath:       repoPath,
		ttl:            7 * 24 * time.Hour,
		autoInvalidate: true,
	}
	c.head = c.gitHead
	for _, opt := range opts {
		opt(c)
	}
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}
	return c, nil
}

// Head returns the current revision of the analyzed repository.
func (c *Cache) Head(ctx context.Context) (string, error) {
	return c.head(ctx)
}

func (c *Cache) gitHead(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = c.repoPath
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("resolve repository head: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// Get returns the cached entry for a component and query type, or nil
// when there is none. Expired, stale, and corrupted entries are removed
// and reported as misses.
func (c *Cache) Get(ctx context.Context, component, queryType string) (*Entry, error) {
	path := c.entryPath(component, queryType)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		os.Remove(path)
		return nil, nil
	}

	if time.Since(entry.Timestamp) > c.ttl {
		os.Remove(path)
		return nil, nil
	}

	if c.autoInvalidate {
		head, err := c.Head(ctx)
		if err != nil {
			return nil, err
		}
		if entry.GitCommit != head {
			os.Remove(path)
			return nil, nil
		}
	}

	return &entry, nil
}

// Set stores an entry keyed by its component and query type, pinned to
// the current repository commit. The commit and timestamp fields are
// filled in here.
func (c *Cache) Set(ctx context.Context, entry Entry) error {
	head, err := c.Head(ctx)
	if err != nil {
		return err
	}

	entry.GitCommit = head
	entry.Timestamp = time.Now().UTC()

	data, err := json.MarshalIndent(entry, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	path := c.entryPath(entry.Component, entry.QueryType)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache entry dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	return nil
}

// Clear removes cache entries. With an empty component it clears the
// whole cache, otherwise only that component's entries. Returns the
// number of entries removed.
func (c *Cache) Clear(component string) (int, error) {
	root := c.dir
	if component != "" {
		root = filepath.Join(c.dir, hashComponent(component))
	}

	count := 0
	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if os.IsNotExist(err) {
			return nil
		}
		if err != nil {
			return err
		}
		if d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		count++
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("clear cache: %w", err)
	}
	return count, nil
}

// Stats reports the number of cached entries and distinct components.
func (c *Cache) Stats() (entries, components int, err error) {
	dirs, err := os.ReadDir(c.dir)
	if err != nil {
		return 0, 0, fmt.Errorf("read cache dir: %w", err)
	}

	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		components++
		files, err := os.ReadDir(filepath.Join(c.dir, d.Name()))
		if err != nil {
			return 0, 0, fmt.Errorf("read cache dir: %w", err)
		}
		for _, f := range files {
			if filepath.Ext(f.Name()) == ".json" {
				entries++
			}
		}
	}
	return entries, components, nil
}

func (c *Cache) entryPath(component, queryType string) string {
	return filepath.Join(c.dir, hashComponent(component), queryType+".json")
}

func hashComponent(component string) string {
	sum := md5.Sum([]byte(component))
	return fmt.Sprintf("%x", sum)[:8]
}
