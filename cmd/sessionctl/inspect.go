package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ingatatech/e-learning-sub003/internal/access"
	"github.com/ingatatech/e-learning-sub003/internal/auth"
	"github.com/ingatatech/e-learning-sub003/internal/users"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// secretFor returns the flag value, falling back to the env var the API reads.
func secretFor(cmd *cobra.Command, typ auth.TokenType) (string, error) {
	secret, _ := cmd.Flags().GetString("secret")
	if secret != "" {
		return secret, nil
	}
	env := "ACCESS_TOKEN_SECRET"
	if typ == auth.TokenTypeRefresh {
		env = "REFRESH_TOKEN_SECRET"
	}
	if secret = os.Getenv(env); secret == "" {
		return "", fmt.Errorf("--secret or %s is required", env)
	}
	return secret, nil
}

func newDecodeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decode <token>",
		Short: "Decode and verify a signed token",
		Long: `Decode a token with the signing secret for its class and print its claims.

With --verify the token type and expiry are enforced as well.

Examples:
  sessionctl decode eyJhbGciOi...
  sessionctl decode --type refresh --verify eyJhbGciOi...`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			typName, _ := cmd.Flags().GetString("type")
			typ := auth.TokenType(typName)
			if typ != auth.TokenTypeAccess && typ != auth.TokenTypeRefresh {
				return fmt.Errorf("invalid --type %q, want access or refresh", typName)
			}
			secret, err := secretFor(cmd, typ)
			if err != nil {
				return err
			}
			issuer, _ := cmd.Flags().GetString("issuer")
			audience, _ := cmd.Flags().GetString("audience")
			codec, err := auth.NewCodec(secret, issuer, audience)
			if err != nil {
				return err
			}

			var claims auth.Claims
			if verify, _ := cmd.Flags().GetBool("verify"); verify {
				claims, err = codec.Verify(args[0], typ, time.Now())
			} else {
				claims, err = codec.Decode(args[0])
			}
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), claims)
		},
	}
	cmd.Flags().String("secret", "", "signing secret (defaults to ACCESS_TOKEN_SECRET or REFRESH_TOKEN_SECRET)")
	cmd.Flags().String("type", string(auth.TokenTypeAccess), "token class: access or refresh")
	cmd.Flags().String("issuer", os.Getenv("JWT_ISSUER"), "expected issuer")
	cmd.Flags().String("audience", os.Getenv("JWT_AUDIENCE"), "expected audience")
	cmd.Flags().Bool("verify", false, "also enforce token type and expiry")
	return cmd
}

func newClassifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "classify <path>...",
		Short: "Print the route category of each path",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, p := range args {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", p, access.Classify(p))
			}
			return nil
		},
	}
}

func newDecideCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decide <path>",
		Short: "Show the gate decision for a path and role",
		Long: `Run the access-control gate for a path.

Without --role the caller is treated as unauthenticated.

Examples:
  sessionctl decide /instructor/messages --role student
  sessionctl decide /login --role instructor`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			role, _ := cmd.Flags().GetString("role")
			var id *auth.Claims
			if role != "" {
				id = &auth.Claims{UserID: "cli", Role: auth.Role(role)}
			}
			return writeJSON(cmd.OutOrStdout(), access.Decide(args[0], id))
		},
	}
	cmd.Flags().String("role", "", "role of the caller: "+strings.Join(roleNames(), ", "))
	return cmd
}

func roleNames() []string {
	out := make([]string, 0, len(auth.Roles))
	for _, r := range auth.Roles {
		out = append(out, string(r))
	}
	return out
}

func newHashPasswordCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "hash-password",
		Short: "Read a password from stdin and print its bcrypt hash",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			raw, err := io.ReadAll(io.LimitReader(cmd.InOrStdin(), 1<<10))
			if err != nil {
				return err
			}
			password := strings.TrimRight(string(raw), "\r\n")
			if password == "" {
				return errors.New("empty password on stdin")
			}
			hash, err := users.HashPassword(password)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
}
