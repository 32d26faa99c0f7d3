// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wreport/pde-bio/internal/entrez"
	"github.com/wreport/pde-bio/internal/secrets"
	"github.com/wreport/pde-bio/pkg/types"
)

const (
	defaultTimeout   = 60 * time.Second
	defaultUserAgent = "pde-bio/1.0"
)

// registerClientFlags adds the flags shared by every subcommand that
// talks to Entrez.
func registerClientFlags(cmd *cobra.Command) {
	cmd.Flags().String("email", "", "contact email sent to NCBI (default: .secrets/entrez-email)")
	cmd.Flags().String("api-key", "", "NCBI API key, raises the rate limit to 10/s (default: .secrets/ncbi-api-key)")
	cmd.Flags().Duration("timeout", 0, "HTTP request timeout (default 60s)")
	cmd.Flags().Int("retries", 0, "retry budget per request; 0 aborts on the first failure")
}

// entrezClient builds the client from flags and loaded secrets. The
// email is mandatory: NCBI rejects anonymous E-utilities traffic.
func entrezClient(cmd *cobra.Command) (*entrez.Client, error) {
	email, _ := cmd.Flags().GetString("email")
	email = secretDefault(secrets.KeyEmail, email)
	if email == "" {
		return nil, fmt.Errorf("email is required: pass --email or create .secrets/entrez-email")
	}

	apiKey, _ := cmd.Flags().GetString("api-key")
	apiKey = secretDefault(secrets.KeyAPIKey, apiKey)

	timeout, _ := cmd.Flags().GetDuration("timeout")
	if timeout == 0 {
		timeout = defaultTimeout
	}
	retries, _ := cmd.Flags().GetInt("retries")

	return entrez.New(types.EntrezConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   timeout,
			UserAgent: defaultUserAgent,
		},
		Email:      email,
		APIKey:     apiKey,
		MaxRetries: retries,
	}), nil
}
