package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tsqr-go/internal/cli/connection"
	"github.com/yndnr/tsqr-go/internal/cli/output"
	"github.com/yndnr/tsqr-go/internal/core/domain"
	"github.com/yndnr/tsqr-go/internal/core/service"
	"github.com/yndnr/tsqr-go/pkg/tsqr"
)

// Server endpoints used by submit.
const (
	verifyPath      = "/api/pos/qr/verify"
	gatePath        = "/api/pos/qr/gate"
	receiptField    = "receipt"
	requireQRHeader = "X-POS-Require-QR"
)

// SubmitCommand returns the submit command.
func SubmitCommand() *cli.Command {
	return &cli.Command{
		Name:      "submit",
		Usage:     "Upload a receipt image to tsqr-server for verification",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "gate",
				Usage: "Use the gate endpoint instead of verify",
			},
			&cli.BoolFlag{
				Name:  "require-qr",
				Usage: "Ask the gate to require a QR code regardless of enforcement",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Value: 30 * time.Second,
				Usage: "Request timeout",
			},
		},
		Action: submitAction,
	}
}

// SubmitResult holds the verify or gate response of the server. Fields the
// endpoint does not return are left nil.
type SubmitResult struct {
	Status      int            `json:"status"`
	Required    *bool          `json:"required,omitempty"`
	Verified    *bool          `json:"verified,omitempty"`
	Valid       *bool          `json:"valid,omitempty"`
	Reason      domain.Reason  `json:"reason,omitempty"`
	Payload     tsqr.Payload   `json:"payload,omitempty"`
	DecodedText string         `json:"decoded_text,omitempty"`
	Trust       *service.Trust `json:"trust,omitempty"`
}

// accepted reports whether the server accepted the receipt.
func (r SubmitResult) accepted() bool {
	if r.Status >= http.StatusBadRequest {
		return false
	}
	if r.Valid != nil {
		return *r.Valid
	}
	if r.Verified != nil && r.Required != nil {
		return *r.Verified || !*r.Required
	}
	return true
}

// Table renders the response fields followed by the payload claims.
func (r SubmitResult) Table(wide bool) *output.Table {
	t := &output.Table{Headers: []string{"FIELD", "VALUE"}}
	t.AddRow("status", strconv.Itoa(r.Status))
	for _, f := range []struct {
		name string
		v    *bool
	}{{"required", r.Required}, {"verified", r.Verified}, {"valid", r.Valid}} {
		if f.v != nil {
			t.AddRow(f.name, strconv.FormatBool(*f.v))
		}
	}
	if r.Reason != "" {
		t.AddRow("reason", r.Reason.String())
	}
	addPayloadRows(t, r.Payload)
	addTrustRows(t, r.Trust)
	if wide && r.DecodedText != "" {
		t.AddRow("decoded_text", r.DecodedText)
	}
	return t
}

func submitAction(c *cli.Context) error {
	path, err := requireArg(c, "a FILE")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("read image: %v", err), 1)
	}

	route := verifyPath
	if c.Bool("gate") {
		route = gatePath
	}
	header := http.Header{}
	if c.Bool("require-qr") {
		header.Set(requireQRHeader, "1")
	}

	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	client := connection.NewHTTPClient(ParseGlobalFlags(c).Server)
	resp, err := client.Upload(ctx, route, receiptField, filepath.Base(path), data, header)
	if err != nil {
		return cli.Exit(fmt.Sprintf("submit: %v", err), 1)
	}

	result := SubmitResult{Status: resp.StatusCode}
	err = connection.ParseResponse(resp, &result)

	var apiErr *connection.APIError
	if errors.As(err, &apiErr) {
		// Rejections such as replay carry the verdict in details.
		if len(apiErr.Details) > 0 && json.Unmarshal(apiErr.Details, &result) == nil {
			result.Status = apiErr.Status
			if perr := printOutput(c, result); perr != nil {
				return perr
			}
		}
		return cli.Exit(apiErr.Error(), exitRejected)
	}
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	result.Status = resp.StatusCode

	if err := printOutput(c, result); err != nil {
		return err
	}
	if !result.accepted() {
		return cli.Exit("", exitRejected)
	}
	return nil
}
