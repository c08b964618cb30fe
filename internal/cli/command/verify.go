package command

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tsqr-go/internal/cli/output"
	"github.com/yndnr/tsqr-go/internal/core/domain"
	"github.com/yndnr/tsqr-go/internal/core/service"
	"github.com/yndnr/tsqr-go/internal/qrdecode"
	"github.com/yndnr/tsqr-go/pkg/tsqr"
)

// exitRejected is the exit status of a rejected token.
const exitRejected = 2

// VerifyCommand returns the verify command.
func VerifyCommand() *cli.Command {
	defaults := service.DefaultPolicy()
	return &cli.Command{
		Name:      "verify",
		Usage:     "Verify a token offline",
		ArgsUsage: "[TOKEN]",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:  "secret",
				Usage: "Tenant secret as TENANT=SECRET, merged over the config file",
			},
			&cli.StringFlag{
				Name:    "image",
				Aliases: []string{"i"},
				Usage:   "Decode the token from a receipt image instead of TOKEN",
			},
			&cli.DurationFlag{
				Name:  "max-age",
				Value: defaults.MaxAge,
				Usage: "Maximum token age",
			},
			&cli.DurationFlag{
				Name:  "max-future-skew",
				Value: defaults.MaxFutureSkew,
				Usage: "Maximum clock skew into the future",
			},
		},
		Action: verifyAction,
	}
}

// VerifyResult is the output of verify.
type VerifyResult struct {
	Valid       bool           `json:"valid"`
	Reason      domain.Reason  `json:"reason"`
	Payload     tsqr.Payload   `json:"payload,omitempty"`
	DecodedText string         `json:"decoded_text,omitempty"`
	Trust       *service.Trust `json:"trust,omitempty"`
}

// Table renders the verdict followed by one row per payload claim.
func (r VerifyResult) Table(wide bool) *output.Table {
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("valid", strconv.FormatBool(r.Valid))
	t.AddRow("reason", r.Reason.String())
	addPayloadRows(t, r.Payload)
	addTrustRows(t, r.Trust)
	if wide && r.DecodedText != "" {
		t.AddRow("decoded_text", r.DecodedText)
	}
	return t
}

func verifyAction(c *cli.Context) error {
	secrets, err := tenantSecrets(c)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if len(secrets) == 0 {
		return cli.Exit("no tenant secrets: pass --secret TENANT=SECRET or set tenant_secrets in the config file", 1)
	}

	policy := service.Policy{
		MaxAge:        c.Duration("max-age"),
		MaxFutureSkew: c.Duration("max-future-skew"),
	}
	store := service.NewNonceStore(policy.MaxAge + policy.MaxFutureSkew + time.Second)
	verifier := service.NewVerifier(service.WithClock(now))
	trust := service.ProfileTrustPolicy(service.DefaultProfiles)

	var result VerifyResult
	if path := c.String("image"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cli.Exit(fmt.Sprintf("read image: %v", err), 1)
		}
		pipeline, err := qrdecode.New()
		if err != nil {
			return err
		}
		gate := service.NewGate(service.GateConfig{
			Source:   pipeline,
			Verifier: verifier,
			Secrets:  secrets,
			Store:    store,
			Policy:   policy,
			Trust:    trust,
		})
		res, err := gate.VerifyImage(c.Context, data)
		if err != nil {
			return cli.Exit(err.Error(), 1)
		}
		result = VerifyResult{
			Valid:       res.Verdict.Valid,
			Reason:      res.Verdict.Reason,
			Payload:     res.Verdict.Payload,
			DecodedText: res.DecodedText,
			Trust:       res.Trust,
		}
	} else {
		token, err := requireArg(c, "a TOKEN")
		if err != nil {
			return err
		}
		verdict := verifier.Verify(c.Context, strings.TrimSpace(token), secrets, store, policy)
		result = VerifyResult{Valid: verdict.Valid, Reason: verdict.Reason, Payload: verdict.Payload}
		if verdict.Valid {
			if t, ok := trust(verdict.Payload.Claims()); ok {
				result.Trust = &t
			}
		}
	}

	if err := printOutput(c, result); err != nil {
		return err
	}
	if !result.Valid {
		return cli.Exit("", exitRejected)
	}
	return nil
}

// tenantSecrets merges --secret TENANT=SECRET flags over the config file.
func tenantSecrets(c *cli.Context) (map[string]string, error) {
	secrets := make(map[string]string)
	for tenant, secret := range GetConfig(c).TenantSecrets {
		secrets[tenant] = secret
	}
	for _, kv := range c.StringSlice("secret") {
		tenant, secret, ok := strings.Cut(kv, "=")
		tenant = strings.TrimSpace(tenant)
		if !ok || tenant == "" || secret == "" {
			return nil, fmt.Errorf("invalid --secret %q: want TENANT=SECRET", kv)
		}
		secrets[tenant] = secret
	}
	return secrets, nil
}

func addPayloadRows(t *output.Table, p tsqr.Payload) {
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.AddRow("payload."+k, claimString(p[k]))
	}
}

func addTrustRows(t *output.Table, trust *service.Trust) {
	if trust == nil {
		return
	}
	t.AddRow("trust.role", trust.Role)
	t.AddRow("trust.rating", strconv.Itoa(trust.Rating))
	t.AddRow("trust.confidence", strconv.FormatFloat(trust.Confidence, 'f', 2, 64))
}

// claimString renders a claim value; integral floats decoded from JSON
// print without an exponent.
func claimString(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
