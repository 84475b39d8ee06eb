package scanner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"

	"github.com/ethanolivertroy/license-audit/internal/cache"
	"github.com/ethanolivertroy/license-audit/internal/models"
	"github.com/ethanolivertroy/license-audit/internal/runner"
)

var (
	// ErrInvalidProject is returned when the project path is not a directory
	ErrInvalidProject = errors.New("invalid project path")

	// ErrEnumeration is returned when the installed packages cannot be listed
	ErrEnumeration = errors.New("failed to enumerate dependencies")
)

// Scanner orchestrates the license audit: enumerate, then resolve
type Scanner struct {
	config    *models.Config
	toolchain Toolchain
	runner    runner.Runner
	cache     *cache.Cache
	logger    *log.Logger
}

// New creates a Scanner that runs pip as a subprocess
func New(config *models.Config, logger *log.Logger) (*Scanner, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	var c *cache.Cache
	if config.Cache {
		var err error
		c, err = cache.Open(config.CacheDir, config.CacheTTL)
		if err != nil {
			// Non-fatal: continue without cache
			logger.Debug("metadata cache disabled", "err", err)
			c = nil
		}
	}

	return NewWithRunner(config, runner.NewExecRunner(), c, logger), nil
}

// NewWithRunner creates a Scanner with an explicit runner and optional cache
func NewWithRunner(config *models.Config, r runner.Runner, c *cache.Cache, logger *log.Logger) *Scanner {
	if logger == nil {
		logger = log.Default()
	}
	return &Scanner{
		config:    config,
		toolchain: PipToolchain(config.PipCommand),
		runner:    r,
		cache:     c,
		logger:    logger,
	}
}

// ValidateProject checks that path exists and is a directory
func ValidateProject(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidProject, path, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrInvalidProject, path)
	}
	return nil
}

// Scan performs the full audit of the configured project
func (s *Scanner) Scan(ctx context.Context) (*models.Inventory, error) {
	// Step 1: Validate input before running anything
	if err := ValidateProject(s.config.ProjectPath); err != nil {
		return nil, err
	}

	// Step 2: List installed packages
	inv, err := s.Enumerate(ctx)
	if err != nil {
		return nil, err
	}
	s.logger.Info("found dependencies", "count", inv.Len(), "dir", s.config.ProjectPath)

	// Step 3: Resolve license metadata for each package
	if err := s.Resolve(ctx, inv); err != nil {
		return nil, err
	}
	s.logger.Debug("resolved licenses", "unknown", inv.UnknownCount(), "licenses", inv.Licenses())

	return inv, nil
}

// Enumerate runs the list command and builds the inventory. Any failure is
// fatal; no partial inventory is returned.
func (s *Scanner) Enumerate(ctx context.Context) (*models.Inventory, error) {
	out, err := s.run(ctx, s.toolchain.ListArgs)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumeration, err)
	}

	pkgs, err := s.toolchain.List.ParseList(out)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEnumeration, err)
	}

	inv := models.NewInventory()
	for _, pkg := range pkgs {
		inv.Add(pkg.Name, pkg.Version)
		s.logger.Debug("discovered package", "package", pkg.Name, "version", pkg.Version)
	}
	return inv, nil
}

// Resolve looks up license metadata for every record in inv. Lookup
// failures are per package: the record gets UNKNOWN and the loop goes on.
// Only cancellation of ctx stops resolution early.
func (s *Scanner) Resolve(ctx context.Context, inv *models.Inventory) error {
	jobs := s.config.MaxConcurrent
	if jobs < 1 {
		jobs = 1
	}

	parent := ctx
	g, ctx := errgroup.WithContext(parent)
	g.SetLimit(jobs)

	for _, dep := range inv.Dependencies() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.resolveOne(ctx, dep)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	// A lookup interrupted by cancellation is recorded as UNKNOWN and does
	// not fail its goroutine, so the run as a whole must still fail here.
	return parent.Err()
}

// resolveOne fills in license and homepage for a single record
func (s *Scanner) resolveOne(ctx context.Context, dep *models.Dependency) {
	out, err := s.showMetadata(ctx, dep)
	if err != nil {
		s.logger.Warn("failed to retrieve license information", "package", dep.Name, "err", err)
		dep.License = models.UnknownLicense
		return
	}

	md, err := s.toolchain.Metadata.ParseMetadata(out)
	if err != nil {
		s.logger.Error("unexpected error while processing package", "package", dep.Name, "err", err)
		dep.License = models.UnknownLicense
		return
	}

	dep.License = models.UnknownLicense
	if md.HasLicense {
		dep.License = md.License
	}
	if md.HasHomepage {
		dep.Homepage = md.Homepage
		dep.HasHomepage = true
	}
	s.logger.Debug("resolved license", "package", dep.Name, "license", dep.DisplayLicense())
}

// cacheKey identifies a metadata lookup by the exact command line, the
// project it ran in and the pinned package
func (s *Scanner) cacheKey(args []string, pin string) string {
	project, err := filepath.Abs(s.config.ProjectPath)
	if err != nil {
		project = s.config.ProjectPath
	}
	parts := make([]string, 0, len(s.toolchain.Command)+len(args)+2)
	parts = append(parts, project)
	parts = append(parts, s.toolchain.Command...)
	parts = append(parts, args...)
	parts = append(parts, pin)
	return cache.Key(parts...)
}

// showMetadata returns the metadata command output for dep, consulting the
// cache first when enabled. Only successful lookups are cached.
func (s *Scanner) showMetadata(ctx context.Context, dep *models.Dependency) ([]byte, error) {
	args := s.toolchain.ShowArgs(dep.Name)
	key := s.cacheKey(args, dep.String())
	if s.cache != nil {
		if data, ok := s.cache.Load(key); ok {
			s.logger.Debug("metadata cache hit", "package", dep.Name, "version", dep.Version)
			return data, nil
		}
	}

	out, err := s.run(ctx, args)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Store(key, out); err != nil {
			s.logger.Debug("failed to write metadata cache", "package", dep.Name, "err", err)
		}
	}
	return out, nil
}

// run executes one toolchain subcommand in the project directory, applying
// the per-command timeout when configured
func (s *Scanner) run(ctx context.Context, args []string) ([]byte, error) {
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	name, argv := s.toolchain.argv(args)
	s.logger.Debug("running command", "cmd", name, "args", argv, "dir", s.config.ProjectPath)
	return s.runner.Run(ctx, s.config.ProjectPath, name, argv...)
}
