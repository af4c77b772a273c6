package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/bnema/tonebridge/internal/adapters/host/sim"
	statusadapter "github.com/bnema/tonebridge/internal/adapters/render/status"
	"github.com/bnema/tonebridge/internal/application"
	"github.com/bnema/tonebridge/internal/domain"
	"github.com/bnema/tonebridge/internal/protocol"
	"github.com/spf13/cobra"
)

func newScanCmd(app *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan the simulated session and show the handshake the bridge would send",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScan(cmd, app, asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Render the handshake as JSON")

	return cmd
}

func runScan(cmd *cobra.Command, app *app, asJSON bool) error {
	session, err := app.loadSession()
	if err != nil {
		return err
	}

	result := application.ScanSession(session, app.profiles.Profile(), app.logger.Named("scan"))

	if asJSON {
		handshake := protocol.NewHandshake("", result)
		data, err := protocol.EncodeMessage(handshake)
		if err != nil {
			return fmt.Errorf("encode handshake: %w", err)
		}
		var pretty any
		if err := json.Unmarshal(data, &pretty); err != nil {
			return fmt.Errorf("encode handshake: %w", err)
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(pretty)
	}

	opts := statusadapter.RenderOptions{}
	if primary, ok := domain.Primary(result.Instances); ok {
		opts.Values = currentValues(session, primary.ID, result.Formats)
	}

	rendered, err := app.renderScan(result, opts)
	if err != nil {
		return fmt.Errorf("render scan: %w", err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
	return err
}

// currentValues reads the probed parameters of the validated instance so
// the renderer can show where each knob sits.
func currentValues(session *sim.Session, id domain.InstanceID, formats map[int]domain.ParamFormat) map[int]float64 {
	values := make(map[int]float64, len(formats))
	for idx := range formats {
		if v, ok := session.Value(string(id), idx); ok {
			values[idx] = v
		}
	}

	return values
}
