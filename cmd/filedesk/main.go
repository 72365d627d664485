package main

import (
	"context"
	"os"
	"os/signal"
	"strings"

	"filedesk-cli/internal/cli"
)

var subcommands = map[string]bool{
	"health":     true,
	"files":      true,
	"upload":     true,
	"download":   true,
	"config":     true,
	"help":       true,
	"completion": true,
}

func isLocalPath(s string) bool {
	if s == "" || subcommands[s] {
		return false
	}
	_, err := os.Stat(s)
	return err == nil
}

// rewriteDirectUploadArgs makes `filedesk <path>...` work like
// `filedesk upload <path>...`, which is what a file dropped onto the
// command line usually means.
func rewriteDirectUploadArgs(argv []string, exists func(string) bool) []string {
	if len(argv) < 2 {
		return argv
	}

	valueFlags := map[string]bool{
		"--server":       true,
		"--config":       true,
		"--format":       true,
		"--download-dir": true,
		"--debug-log":    true,
	}

	for i := 1; i < len(argv); i++ {
		a := strings.TrimSpace(argv[i])
		if a == "" {
			continue
		}
		if a == "--" {
			if i+1 < len(argv) && exists(argv[i+1]) {
				return insertAt(argv, i+1, "upload")
			}
			return argv
		}
		if strings.HasPrefix(a, "-") {
			if !strings.Contains(a, "=") && valueFlags[a] {
				i++
			}
			continue
		}
		if exists(a) {
			return insertAt(argv, i, "upload")
		}
		return argv
	}
	return argv
}

func insertAt(argv []string, i int, words ...string) []string {
	out := make([]string, 0, len(argv)+len(words))
	out = append(out, argv[:i]...)
	out = append(out, words...)
	return append(out, argv[i:]...)
}

func main() {
	os.Args = rewriteDirectUploadArgs(os.Args, isLocalPath)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	cmd := cli.NewRootCmd()
	if err := cmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
