// Package gitops keeps the finance workspace under version control so every
// ledger change lands as a reviewable commit.
package gitops

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// ErrNoChanges is returned by Commit when the given paths have nothing staged.
var ErrNoChanges = errors.New("nothing to commit")

// Author identifies who commits ledger changes.
type Author struct {
	Name  string
	Email string
}

func (a Author) String() string {
	return fmt.Sprintf("%s <%s>", a.Name, a.Email)
}

// Available reports whether a git binary is on PATH.
func Available() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// IsRepo reports whether dir is the root of a git repository.
func IsRepo(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil
}

// Init initializes a new git repository at dir.
func Init(ctx context.Context, dir string) error {
	if _, err := run(ctx, dir, "init", "--quiet"); err != nil {
		return err
	}
	return nil
}

// Commit stages paths (relative to dir or absolute inside it) and commits them.
// It returns the short hash of the new commit.
func Commit(ctx context.Context, dir, message string, author Author, paths ...string) (string, error) {
	args := []string{"add", "-A", "--"}
	if len(paths) == 0 {
		args = append(args, ".")
	}
	for _, p := range paths {
		if filepath.IsAbs(p) {
			rel, err := filepath.Rel(dir, p)
			if err != nil {
				return "", fmt.Errorf("resolving %s: %w", p, err)
			}
			p = rel
		}
		args = append(args, p)
	}
	if _, err := run(ctx, dir, args...); err != nil {
		return "", err
	}

	if _, err := run(ctx, dir, "diff", "--cached", "--quiet"); err == nil {
		return "", ErrNoChanges
	}

	commit := command(ctx, dir, "commit", "--quiet", "-m", message, "--author", author.String())
	commit.Env = append(os.Environ(),
		"GIT_COMMITTER_NAME="+author.Name,
		"GIT_COMMITTER_EMAIL="+author.Email,
	)
	if out, err := commit.CombinedOutput(); err != nil {
		return "", fmt.Errorf("git commit: %s: %w", strings.TrimSpace(string(out)), err)
	}

	out, err := run(ctx, dir, "rev-parse", "--short", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func command(ctx context.Context, dir string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	return cmd
}

func run(ctx context.Context, dir string, args ...string) (string, error) {
	out, err := command(ctx, dir, args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("git %s: %s: %w", args[0], strings.TrimSpace(string(out)), err)
	}
	return string(out), nil
}
