// Package update checks GitHub releases and replaces the running binary.
package update

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/creativeprojects/go-selfupdate"
)

// Repository is the GitHub slug releases are published under.
const Repository = "pengelbrecht/calc"

const checkTimeout = 30 * time.Second

// InstallMethod describes how the binary was installed.
type InstallMethod int

const (
	InstallUnknown InstallMethod = iota
	InstallHomebrew
	InstallGoInstall
	InstallBinary
)

// String returns the install method name.
func (m InstallMethod) String() string {
	switch m {
	case InstallHomebrew:
		return "homebrew"
	case InstallGoInstall:
		return "go install"
	case InstallBinary:
		return "binary"
	default:
		return "unknown"
	}
}

// Release is the subset of release metadata the CLI shows.
type Release struct {
	Version string
	URL     string
}

// DetectInstallMethod inspects the executable path.
func DetectInstallMethod() InstallMethod {
	exe, err := os.Executable()
	if err != nil {
		return InstallUnknown
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return classify(exe, os.Getenv("GOPATH"))
}

func classify(exe, gopath string) InstallMethod {
	slashed := filepath.ToSlash(exe)
	switch {
	case strings.Contains(slashed, "/Cellar/") || strings.Contains(slashed, "/homebrew/") || strings.Contains(slashed, "/linuxbrew/"):
		return InstallHomebrew
	case gopath != "" && strings.HasPrefix(slashed, filepath.ToSlash(filepath.Join(gopath, "bin"))+"/"):
		return InstallGoInstall
	case strings.Contains(slashed, "/go/bin/"):
		return InstallGoInstall
	default:
		return InstallBinary
	}
}

// CheckForUpdate reports the latest release and whether it is newer than current.
// Development builds ("dev") never report an update.
func CheckForUpdate(current string) (*Release, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(Repository))
	if err != nil {
		return nil, false, fmt.Errorf("detect latest release: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	release := &Release{Version: latest.Version(), URL: latest.URL}
	if !isRelease(current) {
		return release, false, nil
	}
	return release, latest.GreaterThan(strings.TrimPrefix(current, "v")), nil
}

// Update replaces the running executable with the latest release.
func Update(current string) error {
	if !isRelease(current) {
		return fmt.Errorf("cannot update development build %q", current)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	exe, err := selfupdate.ExecutablePath()
	if err != nil {
		return fmt.Errorf("locate executable: %w", err)
	}

	latest, found, err := selfupdate.DetectLatest(ctx, selfupdate.ParseSlug(Repository))
	if err != nil {
		return fmt.Errorf("detect latest release: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found for %s", Repository)
	}
	if !latest.GreaterThan(strings.TrimPrefix(current, "v")) {
		return nil
	}

	if err := selfupdate.UpdateTo(ctx, latest.AssetURL, latest.AssetName, exe); err != nil {
		return fmt.Errorf("install %s: %w", latest.Version(), err)
	}
	return nil
}

func isRelease(version string) bool {
	v := strings.TrimPrefix(version, "v")
	return v != "" && v != "dev" && v[0] >= '0' && v[0] <= '9'
}
