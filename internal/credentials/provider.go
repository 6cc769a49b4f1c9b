// Package credentials resolves the optional credential material a job needs:
// a cookie jar for the extractor plus proof-of-origin and visitor-session
// tokens. Resolution happens once at process start; the core treats the
// result as read-only configuration.
package credentials

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Siddh2024/yt-dlp-web/internal/download"
)

// Config points the provider at its candidate sources.
type Config struct {
	// SecretCookiePath is checked first (e.g. a mounted secret file).
	SecretCookiePath string
	// LocalCookiePath is checked second and is also where env-supplied
	// cookie content is materialized.
	LocalCookiePath string
	// CookieContentEnv names the environment variable holding raw cookie
	// content as a last resort.
	CookieContentEnv string
	// POTokenEnv and VisitorDataEnv name the token variables.
	POTokenEnv     string
	VisitorDataEnv string
}

// Defaults mirrors the deployment layout the service was built for.
func Defaults() Config {
	return Config{
		SecretCookiePath: "/etc/secrets/cookies.txt",
		LocalCookiePath:  "cookies.txt",
		CookieContentEnv: "COOKIES_CONTENT",
		POTokenEnv:       "PO_TOKEN",
		VisitorDataEnv:   "VISITOR_DATA",
	}
}

// Resolve materializes the credential bundle. Cookie resolution order: secret
// path, then local file, then environment content written to the local path.
// A missing cookie source is not an error; the bundle simply carries none.
func Resolve(cfg Config, logger *zap.Logger) (download.Credentials, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	creds := download.Credentials{
		POToken:     os.Getenv(cfg.POTokenEnv),
		VisitorData: os.Getenv(cfg.VisitorDataEnv),
	}

	switch {
	case fileExists(cfg.SecretCookiePath):
		creds.CookieFile = cfg.SecretCookiePath
	case fileExists(cfg.LocalCookiePath):
		creds.CookieFile = cfg.LocalCookiePath
	case os.Getenv(cfg.CookieContentEnv) != "":
		content := os.Getenv(cfg.CookieContentEnv)
		if err := os.WriteFile(cfg.LocalCookiePath, []byte(content), 0o600); err != nil {
			return download.Credentials{}, fmt.Errorf("materialize cookie content: %w", err)
		}
		creds.CookieFile = cfg.LocalCookiePath
	}

	logger.Info("credentials resolved",
		zap.Bool("cookies", creds.CookieFile != ""),
		zap.Bool("po_token", creds.POToken != ""),
		zap.Bool("visitor_data", creds.VisitorData != ""),
	)
	return creds, nil
}

func fileExists(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
