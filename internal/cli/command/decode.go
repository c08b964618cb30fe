package command

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/tsqr-go/internal/core/domain"
	"github.com/yndnr/tsqr-go/internal/qrdecode"
)

// DecodeCommand returns the decode command.
func DecodeCommand() *cli.Command {
	return &cli.Command{
		Name:      "decode",
		Usage:     "Decode the QR codes in a receipt image",
		ArgsUsage: "FILE",
		Flags: []cli.Flag{
			&cli.Float64SliceFlag{
				Name:  "scale",
				Usage: "Upscale factor tried when the original image has no readable code (repeatable)",
			},
		},
		Action: decodeAction,
	}
}

// Candidate is one decoded QR text, in pipeline order.
type Candidate struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}

func decodeAction(c *cli.Context) error {
	path, err := requireArg(c, "a FILE")
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cli.Exit(fmt.Sprintf("read image: %v", err), 1)
	}

	opts := qrdecode.DefaultOptions()
	if scales := c.Float64Slice("scale"); len(scales) > 0 {
		for _, s := range scales {
			if s <= 1 {
				return cli.Exit(fmt.Sprintf("invalid --scale %v: must be greater than 1", s), 1)
			}
		}
		opts.Scales = scales
	}
	pipelineOpts := []qrdecode.Option{qrdecode.WithOptions(opts)}
	if ParseGlobalFlags(c).Verbose {
		errw := c.App.ErrWriter
		pipelineOpts = append(pipelineOpts, qrdecode.WithObserver(func(stage qrdecode.Stage, variant string, found int) {
			fmt.Fprintf(errw, "stage=%s variant=%s found=%d\n", stage, variant, found)
		}))
	}

	pipeline, err := qrdecode.New(pipelineOpts...)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	texts, err := pipeline.DecodeCandidates(data)
	if err != nil {
		return cli.Exit(err.Error(), 1)
	}
	if len(texts) == 0 {
		return cli.Exit(domain.ErrNoCode.Error(), 1)
	}

	candidates := make([]Candidate, len(texts))
	for i, text := range texts {
		candidates[i] = Candidate{Index: i + 1, Text: text}
	}
	return printOutput(c, candidates)
}
