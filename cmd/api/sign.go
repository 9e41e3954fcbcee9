package main

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"refundsafe-shopify-layer/internal/domain"
	"refundsafe-shopify-layer/internal/infrastructure/signature"

	"github.com/spf13/cobra"
)

func signCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sign",
		Short: "Produce Shopify signatures for local testing",
	}
	cmd.PersistentFlags().String("secret", os.Getenv("SHOPIFY_API_SECRET"), "shared secret (defaults to SHOPIFY_API_SECRET)")
	cmd.AddCommand(signCallbackCmd())
	cmd.AddCommand(signWebhookCmd())
	return cmd
}

func signCallbackCmd() *cobra.Command {
	var (
		shop   string
		code   string
		state  string
		params []string
	)

	cmd := &cobra.Command{
		Use:   "callback",
		Short: "Print a signed OAuth callback path",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := secretFlag(cmd)
			if err != nil {
				return err
			}

			normalized, err := domain.NormalizeShopDomain(shop)
			if err != nil {
				return err
			}

			q := url.Values{
				"shop":      {normalized},
				"code":      {code},
				"timestamp": {strconv.FormatInt(time.Now().Unix(), 10)},
			}
			if state != "" {
				q.Set("state", state)
			}
			for _, p := range params {
				k, v, ok := strings.Cut(p, "=")
				if !ok || k == "" {
					return fmt.Errorf("invalid --param %q, want key=value", p)
				}
				q.Add(k, v)
			}
			q.Set(signature.ParamHMAC, signature.SignQuery([]byte(secret), q))

			_, err = fmt.Fprintf(cmd.OutOrStdout(), "/api/auth/shopify/callback?%s\n", q.Encode())
			return err
		},
	}

	cmd.Flags().StringVar(&shop, "shop", "", "shop domain (required)")
	cmd.Flags().StringVar(&code, "code", "local-test-code", "authorization code")
	cmd.Flags().StringVar(&state, "state", "", "state value from the shopify_state cookie")
	cmd.Flags().StringArrayVar(&params, "param", nil, "extra query parameter as key=value (repeatable)")
	_ = cmd.MarkFlagRequired("shop")

	return cmd
}

func signWebhookCmd() *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "webhook",
		Short: "Print the X-Shopify-Hmac-Sha256 value for a payload",
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := secretFlag(cmd)
			if err != nil {
				return err
			}

			var body []byte
			if file == "-" {
				body, err = io.ReadAll(cmd.InOrStdin())
			} else {
				body, err = os.ReadFile(file)
			}
			if err != nil {
				return fmt.Errorf("failed to read payload: %w", err)
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), signature.SignPayload([]byte(secret), body))
			return err
		},
	}

	cmd.Flags().StringVar(&file, "file", "-", "payload file, - for stdin")

	return cmd
}

func secretFlag(cmd *cobra.Command) (string, error) {
	secret, err := cmd.Flags().GetString("secret")
	if err != nil {
		return "", err
	}
	if secret == "" {
		return "", errors.New("--secret or SHOPIFY_API_SECRET is required")
	}
	return secret, nil
}
