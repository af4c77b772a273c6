package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/bnema/tonebridge/internal/adapters/ws"
	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/protocol"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

var errNoInstances = errors.New("no plugin instances reported by the bridge")

type sendOptions struct {
	params  []string
	mode    string
	target  string
	url     string
	timeout time.Duration
	asJSON  bool
}

func newSendCmd(app *app) *cobra.Command {
	var opts sendOptions

	cmd := &cobra.Command{
		Use:   "send --param <index>=<value> [--param ...]",
		Short: "Send one set_tone batch to a running bridge and print the ack",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSend(cmd, app, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringArrayVar(&opts.params, "param", nil, "Parameter write as index=value, value in [0,1] (repeatable)")
	flags.StringVar(&opts.mode, "mode", string(domain.MergeModeMerge), "Merge mode: merge or replace_active")
	flags.StringVar(&opts.target, "target", "", "Target fx guid (default: first high confidence instance)")
	flags.StringVar(&opts.url, "url", "", "Bridge URL (default ws://<listen>/)")
	flags.DurationVar(&opts.timeout, "timeout", 10*time.Second, "Give up after this long")
	flags.BoolVar(&opts.asJSON, "json", false, "Print the ack as JSON")
	_ = cmd.MarkFlagRequired("param")

	return cmd
}

func runSend(cmd *cobra.Command, app *app, opts sendOptions) error {
	params, err := parseParams(opts.params)
	if err != nil {
		return err
	}
	mode := domain.MergeMode(opts.mode)
	if !mode.Valid() {
		return fmt.Errorf("unknown mode %q (want merge or replace_active)", opts.mode)
	}

	url := opts.url
	if url == "" {
		url = "ws://" + app.config.GetString("listen") + "/"
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), opts.timeout)
	defer cancel()

	var (
		target string
		ack    protocol.Ack
	)
	commandID := "cli-" + uuid.NewString()
	send := func(ctx context.Context, report func(sendStage, string)) error {
		client, err := ws.Dial(ctx, url)
		if err != nil {
			return err
		}
		defer func() { _ = client.Close() }()

		report(stageHandshake, "")
		hs, err := client.Handshake(ctx)
		if err != nil {
			return fmt.Errorf("wait for handshake: %w", err)
		}
		target, err = pickTarget(hs, opts.target)
		if err != nil {
			return err
		}

		report(stageApplying, target)
		ack, err = client.SetTone(ctx, protocol.SetTone{
			CommandID:    commandID,
			TargetFXGUID: target,
			Mode:         mode,
			Params:       params,
		})
		if err != nil {
			return fmt.Errorf("set_tone: %w", err)
		}

		return nil
	}

	if opts.asJSON {
		if err := send(ctx, func(sendStage, string) {}); err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(ack)
	}

	if err := runSendSpinner(ctx, cmd.ErrOrStderr(), commandID, send); err != nil {
		return err
	}

	return writeAck(cmd.OutOrStdout(), target, ack)
}

// parseParams turns index=value pairs into wire params. Range checks are
// left to the bridge, which rejects out-of-range entries itself.
func parseParams(raw []string) ([]protocol.Param, error) {
	params := make([]protocol.Param, 0, len(raw))
	for _, entry := range raw {
		idxText, valueText, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("param %q: want index=value", entry)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(idxText))
		if err != nil {
			return nil, fmt.Errorf("param %q: index: %w", entry, err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(valueText), 64)
		if err != nil {
			return nil, fmt.Errorf("param %q: value: %w", entry, err)
		}
		params = append(params, protocol.Param{Index: idx, Value: value})
	}

	return params, nil
}

func pickTarget(hs protocol.Handshake, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	instances := make([]domain.Instance, 0, len(hs.Instances))
	for _, inst := range hs.Instances {
		instances = append(instances, domain.Instance{ID: domain.InstanceID(inst.FXGUID), Confidence: inst.Confidence})
	}
	primary, ok := domain.Primary(instances)
	if !ok {
		return "", errNoInstances
	}

	return string(primary.ID), nil
}

func writeAck(out io.Writer, target string, ack protocol.Ack) error {
	if _, err := fmt.Fprintf(out, "ack %s on %s\n", ack.CommandID, target); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "INDEX\tREQUESTED\tAPPLIED\tDISPLAY")
	for _, p := range ack.AppliedParams {
		index := strconv.Itoa(p.Index)
		if p.HostIndex != nil {
			index += "->" + strconv.Itoa(*p.HostIndex)
		}
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%s\n", index, p.Requested, p.Applied, p.Formatted)
	}

	return tw.Flush()
}
