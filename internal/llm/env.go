package llm

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// cliTmpDir is the clean temp directory for claude CLI invocations.
// A dedicated directory avoids editor socket files in the shared TMPDIR,
// which crash the CLI when --settings is used.
var cliTmpDir = filepath.Join(os.TempDir(), "slop-claude")

// setCleanEnv configures cmd with the current environment, a clean TMPDIR
// and, when apiKey is non-empty, ANTHROPIC_API_KEY.
func setCleanEnv(cmd *exec.Cmd, apiKey string) {
	_ = os.MkdirAll(cliTmpDir, 0755)

	env := make([]string, 0, len(os.Environ())+2)
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "TMPDIR=") {
			continue
		}
		if apiKey != "" && strings.HasPrefix(kv, "ANTHROPIC_API_KEY=") {
			continue
		}
		env = append(env, kv)
	}
	env = append(env, "TMPDIR="+cliTmpDir)
	if apiKey != "" {
		env = append(env, "ANTHROPIC_API_KEY="+apiKey)
	}
	cmd.Env = env
}
