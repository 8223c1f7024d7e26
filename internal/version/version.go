// Package version checks GitHub for a newer release. The check is
// best-effort: network or API failures are reported as errors the caller
// is expected to log and ignore.
package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var releaseURL = "https://api.github.com/repos/studiowebux/rustactions/releases/latest"

const checkTimeout = 5 * time.Second

// Release is the subset of the GitHub release payload the check needs.
type Release struct {
	Tag string `json:"tag_name"`
	URL string `json:"html_url"`
}

// CheckForUpdate fetches the latest release tag and compares it against
// currentVersion. A leading "v" on either side is ignored.
func CheckForUpdate(currentVersion string) (available bool, latest string, url string, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), checkTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, releaseURL, nil)
	if err != nil {
		return false, "", "", fmt.Errorf("build release request: %w", err)
	}
	req.Header.Set("User-Agent", "rustactions/"+currentVersion)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return false, "", "", fmt.Errorf("fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false, "", "", fmt.Errorf("release endpoint returned %d", resp.StatusCode)
	}

	var release Release
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return false, "", "", fmt.Errorf("decode release payload: %w", err)
	}

	latest = strings.TrimPrefix(release.Tag, "v")
	current := strings.TrimPrefix(currentVersion, "v")
	return latest != "" && Compare(latest, current) > 0, latest, release.URL, nil
}

// Compare orders two dotted version strings: negative when a < b, zero
// when equal, positive when a > b. Pre-release suffixes and build
// metadata (after "-" or "+") are ignored; missing components count as
// zero, so "1.2" and "1.2.0" are equal.
func Compare(a, b string) int {
	as := components(a)
	bs := components(b)
	for i := 0; i < len(as) || i < len(bs); i++ {
		var av, bv int
		if i < len(as) {
			av = as[i]
		}
		if i < len(bs) {
			bv = bs[i]
		}
		if av != bv {
			return av - bv
		}
	}
	return 0
}

func components(v string) []int {
	if idx := strings.IndexAny(v, "-+"); idx != -1 {
		v = v[:idx]
	}
	var out []int
	for _, part := range strings.Split(v, ".") {
		n, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}
