package main

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"aecoin-store-api/internal/billplz"

	"github.com/spf13/cobra"
)

func signCmd() *cobra.Command {
	var (
		key      string
		redirect bool
		encode   bool
	)

	cmd := &cobra.Command{
		Use:   "sign key=value...",
		Short: "Compute the X-Signature for a callback or redirect payload",
		Long: `Compute the Billplz X-Signature for a set of fields.

Examples:
  aecoinctl sign id=abc123 paid=true state=paid paid_at="2026-01-01 10:00:00 +0800"
  aecoinctl sign --redirect --encode id=abc123 paid=true`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if key == "" {
				key = os.Getenv("BILLPLZ_SIGNATURE_KEY")
			}
			if key == "" {
				return errors.New("no signature key: pass --key or set BILLPLZ_SIGNATURE_KEY")
			}

			fields, err := parseFields(args)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if !encode {
				fmt.Fprintln(out, signFields(key, fields, redirect))
				return nil
			}
			fmt.Fprintln(out, encodeFields(key, fields, redirect))
			return nil
		},
	}

	cmd.Flags().StringVarP(&key, "key", "k", "", "signature key (default $BILLPLZ_SIGNATURE_KEY)")
	cmd.Flags().BoolVar(&redirect, "redirect", false, "sign as a redirect query (billplz[...] keys)")
	cmd.Flags().BoolVar(&encode, "encode", false, "print the full form body or query string instead of the signature")

	return cmd
}

func parseFields(args []string) (map[string]string, error) {
	fields := make(map[string]string, len(args))
	for _, arg := range args {
		k, v, ok := strings.Cut(arg, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid field %q: want key=value", arg)
		}
		if k == billplz.SignatureField {
			continue
		}
		fields[k] = v
	}
	return fields, nil
}

func signFields(key string, fields map[string]string, redirect bool) string {
	prefix := ""
	if redirect {
		prefix = billplz.RedirectPrefix
	}
	return billplz.Sign(key, fields, prefix)
}

// encodeFields renders fields with their signature as a callback form body,
// or as a redirect query string when redirect is set.
func encodeFields(key string, fields map[string]string, redirect bool) string {
	values := url.Values{}
	wrap := func(k string) string { return k }
	if redirect {
		wrap = func(k string) string { return billplz.RedirectPrefix + "[" + k + "]" }
	}
	for k, v := range fields {
		values.Set(wrap(k), v)
	}
	values.Set(wrap(billplz.SignatureField), signFields(key, fields, redirect))
	return values.Encode()
}
