package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"nytbot/internal/config"
	"nytbot/internal/services"
	"nytbot/internal/services/nyt"
	"nytbot/internal/services/openlibrary"
)

const (
	checkTimeout = 20 * time.Second
	// sampleISBN is any ISBN; a 404 still proves the catalog answered.
	sampleISBN = "9780140328721"
)

// CheckNYT verifies the NYT key with a single lists/names.json request.
func CheckNYT(ctx context.Context, cfg *config.Config) Result {
	const name = "NYT Books API"

	if err := cfg.RequireNYT(); err != nil {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	client, err := nyt.New(cfg.NYT.APIKey, cfg.NYT.BaseURL,
		nyt.WithHTTPClient(&http.Client{Timeout: checkTimeout}),
		nyt.WithRequestInterval(0),
		nyt.WithMaxRetries(0),
	)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}
	names, err := client.Names(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("key valid (%d lists)", len(names))}
}

// CheckOpenLibrary logs in when credentials are configured and otherwise
// checks that the catalog answers reads.
func CheckOpenLibrary(ctx context.Context, cfg *config.Config) Result {
	const name = "Open Library"

	checkCtx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	client, err := openlibrary.New(cfg.OpenLibrary.BaseURL, cfg.OpenLibrary.UserAgent,
		openlibrary.WithHTTPClient(&http.Client{Timeout: checkTimeout}),
		openlibrary.WithRequestsPerSecond(0),
	)
	if err != nil {
		return Result{Name: name, Detail: err.Error()}
	}

	if cfg.HasOpenLibraryCredentials() {
		if err := client.Login(checkCtx, cfg.OpenLibrary.AccessKey, cfg.OpenLibrary.SecretKey); err != nil {
			return Result{Name: name, Detail: summarizeError(err)}
		}
		return Result{Name: name, Passed: true, Detail: "login ok"}
	}

	_, err = client.EditionByISBN(checkCtx, sampleISBN)
	if err != nil && !errors.Is(err, services.ErrNotFound) {
		return Result{Name: name, Detail: summarizeError(err)}
	}
	return Result{Name: name, Passed: true, Detail: "reachable, no credentials (dry runs only)"}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckArtifactPath verifies an artifact can be written. An existing file must
// be readable and writable; otherwise its directory must be.
func CheckArtifactPath(name, path string) Result {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	case err == nil:
		if err := unix.Access(path, unix.R_OK|unix.W_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d bytes)", path, info.Size())}
	case os.IsNotExist(err):
		dir := CheckDirectoryAccess(name, filepath.Dir(path))
		if !dir.Passed {
			return dir
		}
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (not yet written)", path)}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
}

func summarizeError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "check timed out (API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "check timed out (API unreachable)"
	}
	switch {
	case errors.Is(err, services.ErrAuthentication):
		return "authentication failed (check keys)"
	case errors.Is(err, services.ErrRateLimited):
		return "rate limited, try again later"
	}
	return err.Error()
}
