// Package hints builds the one-line suggestions appended to CLI errors.
// Every hint renders as "\n  hint: <text>" and an empty hint renders as "".
package hints

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/alnah/go-readmeview/internal/fileutil"
)

const prefix = "\n  hint: "

// ciEnv lists variables whose presence marks a CI runner.
var ciEnv = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL"}

// IsInContainer reports whether the process runs inside a container.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

func inCI() bool {
	for _, k := range ciEnv {
		if os.Getenv(k) != "" {
			return true
		}
	}
	return false
}

// ForBrowserConnect suggests the rod environment variables that usually
// fix a browser that fails to start.
func ForBrowserConnect() string {
	var parts []string
	if os.Getenv("ROD_NO_SANDBOX") != "1" && (inCI() || IsInContainer()) {
		parts = append(parts, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}
	if os.Getenv("ROD_BROWSER_BIN") == "" {
		parts = append(parts, "set ROD_BROWSER_BIN to use custom Chrome")
	}
	return join(parts...)
}

// ForTimeout returns a hint about raising the timeout.
func ForTimeout() string {
	return join("slow sources or large documents need a longer --timeout")
}

// ForConfigNotFound suggests --config, plus the per-user config file when
// it is among the searched paths.
func ForConfigNotFound(searchedPaths []string) string {
	text := "use --config /path/to/file.yaml"
	for _, p := range searchedPaths {
		if filepath.Base(filepath.Dir(filepath.FromSlash(p))) == "readmeview" {
			text += " or create " + p
			break
		}
	}
	return join(text)
}

// ForDocumentNotFound lists what was tried when no candidate was reachable.
func ForDocumentNotFound(tried []string) string {
	if len(tried) == 0 {
		return join("pass --candidate to name the document to look for")
	}
	return join("tried "+strings.Join(tried, ", "), "pass --candidate to add locations")
}

// ForOutputDirectory points at the parent of the output path.
func ForOutputDirectory() string {
	return join("check parent directory exists and is writable")
}

// ForStyleNotFound lists the highlight styles that exist.
func ForStyleNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return join("available: " + strings.Join(available, ", "))
}

// join renders parts as a single hint separated by "; ".
func join(parts ...string) string {
	if len(parts) == 0 {
		return ""
	}
	return prefix + strings.Join(parts, "; ")
}
