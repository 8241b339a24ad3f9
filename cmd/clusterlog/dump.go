package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"

	"clusterlog-go/internal/output"
	"clusterlog-go/internal/types"
)

var (
	dumpLimit int
	dumpText  bool
)

var dumpCmd = &cobra.Command{
	Use:   "dump <frame-log.bin>",
	Short: "Print the records of a binary frame log",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDump(args[0], cmd.OutOrStdout())
	},
}

func init() {
	dumpCmd.Flags().IntVar(&dumpLimit, "limit", 1, "Number of records to dump (0 for all)")
	dumpCmd.Flags().BoolVar(&dumpText, "text", false, "Print frames in the log file text form instead of JSON")
	rootCmd.AddCommand(dumpCmd)
}

func runDump(path string, stdout io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open frame log: %w", err)
	}
	defer f.Close()

	r, err := output.NewFrameLogReader(f)
	if err != nil {
		return err
	}

	for count := 0; dumpLimit <= 0 || count < dumpLimit; count++ {
		entry, err := r.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if len(entry.Payload) == 0 {
			log.Printf("record %d: empty payload", count)
			continue
		}
		log.Printf("record %d timestamp=%s size=%d", count, entry.Timestamp.Format(time.RFC3339Nano), len(entry.Payload))

		if dumpText {
			rec, err := entry.Decode()
			if err != nil {
				log.Printf("record %d: CBOR decode error: %v", count, err)
				continue
			}
			frame := types.ToFrame[int32](rec)
			fmt.Fprintf(stdout, "Frame no: %d\n%s\n", rec.Index, frame.String())
			continue
		}

		var decoded any
		if err := cbor.Unmarshal(entry.Payload, &decoded); err != nil {
			log.Printf("record %d: CBOR decode error: %v", count, err)
			continue
		}
		pretty, err := json.MarshalIndent(output.NormalizeJSONValue(decoded), "", "  ")
		if err != nil {
			log.Printf("record %d: JSON encode error: %v", count, err)
			continue
		}
		fmt.Fprintln(stdout, string(pretty))
	}
	return nil
}
