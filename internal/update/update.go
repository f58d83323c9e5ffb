// Package update checks a release feed for a newer version of the server.
// It never touches the database.
package update

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"runtime"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

// DefaultURL is the latest-release endpoint of the project's repository.
const DefaultURL = "https://api.github.com/repos/Chevit/AuditMagic/releases/latest"

// Timeout bounds one check.
const Timeout = 10 * time.Second

// MaxResponseBytes caps how much of the release document is read.
const MaxResponseBytes = 512 << 10

// ErrInvalidVersion is returned by Check when the running version is not a
// semantic version, as in development builds. Nothing is fetched then.
var ErrInvalidVersion = errors.New("current version is not a semantic version")

// Release describes an available newer version.
type Release struct {
	Version     string
	DownloadURL string
	Notes       string
	PageURL     string
}

type releaseDoc struct {
	TagName string `json:"tag_name"`
	HTMLURL string `json:"html_url"`
	Body    string `json:"body"`
	Assets  []struct {
		Name               string `json:"name"`
		BrowserDownloadURL string `json:"browser_download_url"`
	} `json:"assets"`
}

// Check fetches the latest release from url and returns it if it is newer
// than current. It returns nil, nil when current is up to date.
func Check(ctx context.Context, client *http.Client, url, current string) (*Release, error) {
	cur := canonical(current)
	if cur == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidVersion, current)
	}
	if client == nil {
		client = &http.Client{Timeout: Timeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github.v3+json")
	req.Header.Set("User-Agent", "AuditMagic-UpdateChecker")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetching release: unexpected status %s", resp.Status)
	}

	var doc releaseDoc
	if err := json.NewDecoder(io.LimitReader(resp.Body, MaxResponseBytes)).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding release: %w", err)
	}

	latest := canonical(doc.TagName)
	if latest == "" {
		return nil, fmt.Errorf("release has no valid version tag: %q", doc.TagName)
	}
	if semver.Compare(latest, cur) <= 0 {
		return nil, nil
	}

	return &Release{
		Version:     strings.TrimPrefix(latest, "v"),
		DownloadURL: pickAsset(doc),
		Notes:       doc.Body,
		PageURL:     doc.HTMLURL,
	}, nil
}

// canonical returns v as a canonical semver string with a leading "v", or ""
// if it is not a valid version.
func canonical(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return ""
	}
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	return semver.Canonical(v)
}

// pickAsset returns the HTTPS download URL of the asset built for this
// platform, or "".
func pickAsset(doc releaseDoc) string {
	for _, a := range doc.Assets {
		name := strings.ToLower(a.Name)
		if strings.Contains(name, runtime.GOOS) && strings.Contains(name, runtime.GOARCH) &&
			strings.HasPrefix(a.BrowserDownloadURL, "https://") {
			return a.BrowserDownloadURL
		}
	}
	return ""
}

// CheckInBackground runs one check in a goroutine and logs the outcome.
// Failures are logged as warnings; the caller is never blocked. A current
// version that is not semver skips the check.
func CheckInBackground(ctx context.Context, url, current string) {
	if canonical(current) == "" {
		slog.Warn("skipping update check", "current", current, "error", ErrInvalidVersion)
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(ctx, Timeout)
		defer cancel()

		slog.Info("checking for updates", "current", current)
		rel, err := Check(ctx, nil, url, current)
		switch {
		case err != nil:
			slog.Warn("update check failed", "error", err)
		case rel == nil:
			slog.Info("server is up to date")
		default:
			slog.Info("update available", "version", rel.Version, "url", rel.PageURL)
		}
	}()
}
