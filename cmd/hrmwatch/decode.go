package main

import (
	"encoding/hex"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/srg/hrmwatch/internal/heartrate"
)

func newDecodeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "decode <hex>...",
		Short: "Decode Heart Rate Measurement payloads",
		Long: `Decode raw Heart Rate Measurement (0x2A37) notification payloads given as hex.
Bytes may be separated by spaces, colons or dashes.`,
		Example: `  hrmwatch decode 0048 014600
  hrmwatch decode "01 2c 01"`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDecode,
	}
}

func parsePayload(arg string) ([]byte, error) {
	clean := strings.NewReplacer(" ", "", ":", "", "-", "", "0x", "", "0X", "").Replace(arg)
	data, err := hex.DecodeString(clean)
	if err != nil {
		return nil, fmt.Errorf("invalid payload %q: %w", arg, err)
	}
	return data, nil
}

func payloadFormat(data []byte) string {
	switch {
	case len(data) == 0:
		return "empty"
	case data[0]&0x01 != 0 && len(data) >= 3:
		return "uint16"
	case data[0]&0x01 == 0 && len(data) >= 2:
		return "uint8"
	default:
		return "truncated"
	}
}

func runDecode(cmd *cobra.Command, args []string) error {
	payloads := make([][]byte, 0, len(args))
	for _, arg := range args {
		data, err := parsePayload(arg)
		if err != nil {
			return err
		}
		payloads = append(payloads, data)
	}
	cmd.SilenceUsage = true

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAYLOAD\tFORMAT\tRATE")
	for _, data := range payloads {
		fmt.Fprintf(w, "%x\t%s\t%d bpm\n", data, payloadFormat(data), heartrate.ParseRate(data))
	}
	return w.Flush()
}
