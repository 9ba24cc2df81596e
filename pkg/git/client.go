package git

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// DefaultLockName is the lock file created inside the work tree while a
// save or delete is being committed.
const DefaultLockName = ".duneblend.lock"

// lockRetry is the pause between attempts to take a held lock.
const lockRetry = 10 * time.Millisecond

// Client wraps git command execution with a file-based lock so that
// concurrent processes writing the same blends directory serialize commits.
type Client struct {
	WorkDir  string
	Logger   *slog.Logger
	lockName string
}

// Commit is a single entry of a file's history.
type Commit struct {
	Hash    string    `json:"hash"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
	Subject string    `json:"subject"`
}

// NewClient creates a new git client for the given working directory.
// An empty lockName selects DefaultLockName.
func NewClient(workDir, lockName string, logger *slog.Logger) *Client {
	if lockName == "" {
		lockName = DefaultLockName
	}
	return &Client{
		WorkDir:  workDir,
		Logger:   logger,
		lockName: lockName,
	}
}

// IsInstalled checks if git is available in the system path.
func IsInstalled() bool {
	_, err := exec.LookPath("git")
	return err == nil
}

// LockName returns the lock file name relative to WorkDir.
func (c *Client) LockName() string {
	return c.lockName
}

// Lock acquires the file-based lock, retrying until ctx is done.
func (c *Client) Lock(ctx context.Context) (func(), error) {
	fullLockPath := filepath.Join(c.WorkDir, c.lockName)

	for {
		f, err := os.OpenFile(fullLockPath, os.O_CREATE|os.O_EXCL, 0666)
		if err == nil {
			f.Close()
			return func() {
				os.Remove(fullLockPath)
			}, nil
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("failed to acquire lock: %w", ctx.Err())
		case <-time.After(lockRetry):
		}
	}
}

// Run executes a raw git command in the working directory.
// It does NOT take the lock; callers that mutate the repo must hold it.
func (c *Client) Run(ctx context.Context, args ...string) (string, error) {
	if c.Logger != nil {
		c.Logger.Debug("executing git", "args", args, "dir", c.WorkDir)
	}

	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = c.WorkDir

	out, err := cmd.CombinedOutput()
	output := string(out)
	if err != nil {
		return output, fmt.Errorf("git %s failed: %w\nOutput: %s", args[0], err, output)
	}

	return strings.TrimSpace(output), nil
}

// IsRepo reports whether WorkDir is the top of a git work tree.
func (c *Client) IsRepo() bool {
	info, err := os.Stat(filepath.Join(c.WorkDir, ".git"))
	return err == nil && info.IsDir()
}

// Init initializes a new git repository. Re-running it is harmless.
func (c *Client) Init(ctx context.Context) error {
	_, err := c.Run(ctx, "init")
	return err
}

// Add adds files to the stage.
func (c *Client) Add(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(ctx, append([]string{"add", "--"}, files...)...)
	return err
}

// Rm removes files from the working tree and from the index.
func (c *Client) Rm(ctx context.Context, files ...string) error {
	if len(files) == 0 {
		return nil
	}
	_, err := c.Run(ctx, append([]string{"rm", "-f", "--"}, files...)...)
	return err
}

// Commit records the staged changes. A commit with nothing staged is not
// an error, so saving identical content twice succeeds.
func (c *Client) Commit(ctx context.Context, msg string) error {
	status, err := c.Run(ctx, "diff", "--cached", "--name-only")
	if err != nil {
		return err
	}
	if status == "" {
		return nil
	}
	_, err = c.Run(ctx, "-c", "user.name=DuneBlend", "-c", "user.email=duneblend@localhost", "commit", "-m", msg)
	return err
}

// Status returns the porcelain status of the repo.
func (c *Client) Status(ctx context.Context) (string, error) {
	return c.Run(ctx, "status", "--porcelain")
}

// logSeparator splits the fields of a formatted log line.
const logSeparator = "\x1f"

// Log returns the commits touching file, newest first. limit <= 0 means all.
func (c *Client) Log(ctx context.Context, file string, limit int) ([]Commit, error) {
	args := []string{"log", "--format=%H" + logSeparator + "%an" + logSeparator + "%aI" + logSeparator + "%s"}
	if limit > 0 {
		args = append(args, fmt.Sprintf("-n%d", limit))
	}
	args = append(args, "--", file)

	out, err := c.Run(ctx, args...)
	if err != nil {
		// An empty repository has no HEAD yet.
		if strings.Contains(out, "does not have any commits") {
			return []Commit{}, nil
		}
		return nil, err
	}
	return parseLog(out)
}

func parseLog(out string) ([]Commit, error) {
	commits := []Commit{}
	if out == "" {
		return commits, nil
	}
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Split(line, logSeparator)
		if len(fields) != 4 {
			return nil, errors.New("unexpected git log line: " + line)
		}
		date, err := time.Parse(time.RFC3339, fields[2])
		if err != nil {
			return nil, fmt.Errorf("invalid commit date %q: %w", fields[2], err)
		}
		commits = append(commits, Commit{Hash: fields[0], Author: fields[1], Date: date, Subject: fields[3]})
	}
	return commits, nil
}
