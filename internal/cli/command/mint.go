package command

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	goqrcode "github.com/skip2/go-qrcode"
	"github.com/urfave/cli/v2"

	"github.com/yndnr/tsqr-go/pkg/tsqr"
)

// MintCommand returns the mint command.
func MintCommand() *cli.Command {
	return &cli.Command{
		Name:  "mint",
		Usage: "Sign a payload into a TSQR1 token",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "tenant",
				Aliases:  []string{"t"},
				Usage:    "Tenant ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "secret",
				Usage:   "Tenant HMAC secret (default from config file)",
				EnvVars: []string{"TSQR_CLI_SECRET"},
			},
			&cli.StringFlag{
				Name:  "transaction-id",
				Usage: "Transaction ID (default: random)",
			},
			&cli.StringFlag{
				Name:  "nonce",
				Usage: "Nonce (default: random UUID)",
			},
			&cli.Int64Flag{
				Name:  "timestamp",
				Usage: "Issuance time in Unix seconds (default: now)",
			},
			&cli.StringSliceFlag{
				Name:    "field",
				Aliases: []string{"f"},
				Usage:   "Extra claim as KEY=VALUE; integer values are signed as numbers",
			},
			&cli.StringFlag{
				Name:  "png",
				Usage: "Also write the token as a QR code PNG to this path",
			},
			&cli.IntFlag{
				Name:  "size",
				Value: 256,
				Usage: "PNG size in pixels",
			},
		},
		Action: mintAction,
	}
}

// MintResult is the output of mint.
type MintResult struct {
	Token         string `json:"token"`
	TenantID      string `json:"tenant_id"`
	TransactionID string `json:"transaction_id"`
	Nonce         string `json:"nonce"`
	Timestamp     int64  `json:"timestamp"`
	PNG           string `json:"png,omitempty"`
}

func mintAction(c *cli.Context) error {
	tenant := strings.TrimSpace(c.String("tenant"))
	if tenant == "" {
		return cli.Exit("tenant must not be empty", 1)
	}
	secret := c.String("secret")
	if secret == "" {
		secret = GetConfig(c).Secret(tenant)
	}
	if secret == "" {
		return cli.Exit(fmt.Sprintf("no secret for tenant %q: pass --secret or set tenant_secrets in the config file", tenant), 1)
	}

	payload, err := parseFields(c.StringSlice("field"))
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}

	result := MintResult{
		TenantID:      tenant,
		TransactionID: c.String("transaction-id"),
		Nonce:         c.String("nonce"),
		Timestamp:     c.Int64("timestamp"),
	}
	if result.TransactionID == "" {
		result.TransactionID = "tx_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if result.Nonce == "" {
		result.Nonce = uuid.NewString()
	}
	if result.Timestamp == 0 {
		result.Timestamp = now().Unix()
	}

	payload[tsqr.KeyTenantID] = result.TenantID
	payload[tsqr.KeyTransactionID] = result.TransactionID
	payload[tsqr.KeyNonce] = result.Nonce
	payload[tsqr.KeyTimestamp] = result.Timestamp

	result.Token, err = tsqr.Encode(payload, secret)
	if err != nil {
		return err
	}

	if path := c.String("png"); path != "" {
		if err := goqrcode.WriteFile(result.Token, goqrcode.Medium, c.Int("size"), path); err != nil {
			return fmt.Errorf("write qr png: %w", err)
		}
		result.PNG = path
	}

	return printOutput(c, result)
}

// parseFields parses KEY=VALUE claims. Values that parse as base-10
// integers become numbers, everything else stays a string.
func parseFields(fields []string) (tsqr.Payload, error) {
	payload := make(tsqr.Payload, len(fields)+4)
	for _, kv := range fields {
		key, value, ok := strings.Cut(kv, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid field %q: want KEY=VALUE", kv)
		}
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			payload[key] = n
		} else {
			payload[key] = value
		}
	}
	return payload, nil
}
