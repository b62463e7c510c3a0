package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/internal/navigation"
	"github.com/ingatatech/e-learning-sub003/internal/refresh"
	"github.com/ingatatech/e-learning-sub003/internal/session"
)

type probeResult struct {
	Path         string `json:"path"`
	Action       string `json:"action"`
	Target       string `json:"target,omitempty"`
	Reason       string `json:"reason,omitempty"`
	Role         string `json:"role,omitempty"`
	Refreshed    bool   `json:"refreshed,omitempty"`
	ForcedLogout bool   `json:"forcedLogout,omitempty"`
}

func newProbeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "probe <path>...",
		Short: "Log in against a running API and gate a sequence of navigations",
		Long: `Log in through the API, keep the issued token pair in a local store and
run each path through resolve, refresh and decide, refreshing over HTTP when
the access token has expired. Requires the cookie session backend.

Examples:
  echo -n "$PASSWORD" | sessionctl probe --base-url http://localhost:8080 --email ana@example.com /student /admin /login`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			baseURL, _ := cmd.Flags().GetString("base-url")
			email, _ := cmd.Flags().GetString("email")
			timeout, _ := cmd.Flags().GetDuration("timeout")
			if email == "" {
				return errors.New("--email is required")
			}
			secret, err := secretFor(cmd, auth.TokenTypeAccess)
			if err != nil {
				return err
			}
			issuer, _ := cmd.Flags().GetString("issuer")
			audience, _ := cmd.Flags().GetString("audience")
			codec, err := auth.NewCodec(secret, issuer, audience)
			if err != nil {
				return err
			}

			password, err := readPassword(cmd)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()

			hc := &http.Client{Timeout: 10 * time.Second}
			pair, err := apiLogin(ctx, hc, strings.TrimRight(baseURL, "/"), email, password)
			if err != nil {
				return err
			}

			store := session.NewSerialized(session.NewMemoryStore())
			defer store.Close()
			flow := navigation.NewFlow(session.NewResolver(codec, time.Now), refresh.NewClient(baseURL, hc))
			nav := navigation.NewNavigator(flow, store)
			if err := nav.Login(ctx, pair); err != nil {
				return err
			}

			results := make([]probeResult, 0, len(args))
			for _, p := range args {
				out, err := nav.Navigate(ctx, p)
				if err != nil {
					return fmt.Errorf("navigate %s: %w", p, err)
				}
				res := probeResult{
					Path:         p,
					Action:       string(out.Decision.Action),
					Target:       out.Decision.Target,
					Reason:       out.Decision.Reason,
					Refreshed:    out.Refreshed,
					ForcedLogout: out.ForcedLogout,
				}
				if out.Identity != nil {
					res.Role = string(out.Identity.Role)
				}
				results = append(results, res)
			}
			return writeJSON(cmd.OutOrStdout(), results)
		},
	}
	cmd.Flags().String("base-url", "http://localhost:8080", "API base URL")
	cmd.Flags().String("email", "", "account email")
	cmd.Flags().String("secret", "", "access token secret (defaults to ACCESS_TOKEN_SECRET)")
	cmd.Flags().String("issuer", os.Getenv("JWT_ISSUER"), "expected issuer")
	cmd.Flags().String("audience", os.Getenv("JWT_AUDIENCE"), "expected audience")
	cmd.Flags().Duration("timeout", 30*time.Second, "overall timeout")
	return cmd
}

func readPassword(cmd *cobra.Command) (string, error) {
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(cmd.InOrStdin()); err != nil {
		return "", err
	}
	password := strings.TrimRight(buf.String(), "\r\n")
	if password == "" {
		return "", errors.New("password must be supplied on stdin")
	}
	return password, nil
}

// apiLogin posts credentials and collects the token pair from the session cookies.
func apiLogin(ctx context.Context, hc *http.Client, baseURL, email, password string) (auth.TokenPair, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return auth.TokenPair{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/auth/login", bytes.NewReader(body))
	if err != nil {
		return auth.TokenPair{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return auth.TokenPair{}, fmt.Errorf("login request: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return auth.TokenPair{}, fmt.Errorf("login failed: status %d", resp.StatusCode)
	}

	var pair auth.TokenPair
	for _, c := range resp.Cookies() {
		switch c.Name {
		case auth.AccessCookieName:
			pair.AccessToken = c.Value
		case auth.RefreshCookieName:
			pair.RefreshToken = c.Value
		}
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		return auth.TokenPair{}, errors.New("login response carried no token cookies; is the API on the cookie session backend?")
	}
	return pair, nil
}
