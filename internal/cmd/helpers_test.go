package cmd

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout and stderr.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

// writeJob writes a job file for root and returns its path.
func writeJob(t *testing.T, root string, check ...string) string {
	t.Helper()
	if len(check) == 0 {
		check = []string{"true"}
	}
	quoted := make([]string, len(check))
	for i, c := range check {
		quoted[i] = fmt.Sprintf("%q", c)
	}
	job := fmt.Sprintf(`path: %q
regex: 'foo\(\)'
prompt: "Rewrite %%%%"
check: [%s]
commit: "Replace foo"
`, root, strings.Join(quoted, ", "))
	return writeFile(t, filepath.Join(t.TempDir(), "job.yaml"), job)
}

// writeSlopConfig writes a tool config pointing every path into dir.
func writeSlopConfig(t *testing.T, dir, extra string) string {
	t.Helper()
	content := fmt.Sprintf(`log_dir: %q
credential_path: %q
history:
  db_path: %q
%s`, filepath.Join(dir, "logs"), filepath.Join(dir, "key"), filepath.Join(dir, "history.db"), extra)
	return writeFile(t, filepath.Join(dir, "config.yaml"), content)
}

// initRepo creates a git repository with files committed.
func initRepo(t *testing.T, files map[string]string) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	root := t.TempDir()
	for name, content := range files {
		writeFile(t, filepath.Join(root, name), content)
	}
	git := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = root
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com")
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	git("init", "-q")
	git("config", "user.name", "test")
	git("config", "user.email", "test@example.com")
	git("config", "commit.gpgsign", "false")
	git("add", ".")
	git("commit", "-q", "-m", "initial")
	return root
}

func gitLog(t *testing.T, root string) []string {
	t.Helper()
	out, err := exec.Command("git", "-C", root, "log", "--format=%s").CombinedOutput()
	require.NoError(t, err, string(out))
	return strings.Split(strings.TrimSpace(string(out)), "\n")
}
