package farm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/distribution/reference"
	"github.com/docker/docker/api/types"
	"github.com/docker/docker/pkg/archive"
	"github.com/docker/docker/pkg/jsonmessage"
	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/moby/term"
)

// BuildImage builds the farm image from the configured build context
// and streams progress to the manager's output.
func (m *Manager) BuildImage(ctx context.Context) error {
	if _, err := reference.ParseNormalizedNamed(m.cfg.Image); err != nil {
		return fmt.Errorf("invalid image tag %q: %w", m.cfg.Image, err)
	}
	dockerfile := filepath.Join(m.cfg.BuildContext, m.cfg.Dockerfile)
	if _, err := os.Stat(dockerfile); err != nil {
		return fmt.Errorf("dockerfile not found at %s: %w", dockerfile, err)
	}

	excludes, err := readDockerignore(m.cfg.BuildContext, m.cfg.Dockerfile)
	if err != nil {
		return err
	}

	m.log.Info("building farm image", "tag", m.cfg.Image, "context", m.cfg.BuildContext)
	buildCtx, err := archive.TarWithOptions(m.cfg.BuildContext, &archive.TarOptions{ExcludePatterns: excludes})
	if err != nil {
		return fmt.Errorf("tar build context: %w", err)
	}
	defer buildCtx.Close()

	resp, err := m.cli.ImageBuild(ctx, buildCtx, types.ImageBuildOptions{
		Tags:       []string{m.cfg.Image},
		Dockerfile: m.cfg.Dockerfile,
		Remove:     true,
	})
	if err != nil {
		return fmt.Errorf("image build: %w", err)
	}
	defer resp.Body.Close()

	fd, isTerm := term.GetFdInfo(m.out)
	if err := jsonmessage.DisplayJSONMessagesStream(resp.Body, m.out, fd, isTerm, nil); err != nil {
		return fmt.Errorf("build failed: %w", err)
	}
	m.log.Info("image built", "tag", m.cfg.Image)
	return nil
}

// readDockerignore loads exclusion patterns from the context's
// .dockerignore. The build files themselves must always reach the
// daemon, so they are re-included when a pattern would drop them.
func readDockerignore(contextDir, dockerfile string) ([]string, error) {
	f, err := os.Open(filepath.Join(contextDir, ".dockerignore"))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	excludes, err := ignorefile.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("parse .dockerignore: %w", err)
	}
	if keep, _ := patternmatcher.MatchesOrParentMatches(".dockerignore", excludes); keep {
		excludes = append(excludes, "!.dockerignore")
	}
	if keep, _ := patternmatcher.MatchesOrParentMatches(dockerfile, excludes); keep {
		excludes = append(excludes, "!"+dockerfile)
	}
	return excludes, nil
}
