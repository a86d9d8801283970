package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/jjfalling/indicator-checker/pkg/indicatorclient"
)

// CreateSendCmd creates the send command: a one-shot client that issues a
// single protocol command over the serial link and prints the response.
func CreateSendCmd() *cobra.Command {
	var (
		device      string
		baud        int
		settleDelay time.Duration
		readTimeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send <command>...",
		Short: "Send one protocol command and print the response",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(c *cobra.Command, args []string) error {
			client, err := indicatorclient.Dial(device,
				indicatorclient.WithBaud(baud),
				indicatorclient.WithSettleDelay(settleDelay),
				indicatorclient.WithReadTimeout(readTimeout),
			)
			if err != nil {
				return err
			}
			defer client.Close()

			response, err := client.Send(strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.OutOrStdout(), response)
			return nil
		},
	}

	cmd.Flags().StringVar(&device, "device", "/dev/ttyUSB0", "Serial device of the indicator checker")
	cmd.Flags().IntVar(&baud, "baud", 9600, "Serial baud rate")
	cmd.Flags().DurationVar(&settleDelay, "settle-delay", 2*time.Second, "Wait after opening the port before talking")
	cmd.Flags().DurationVar(&readTimeout, "read-timeout", 30*time.Second, "Per-response read timeout")

	return cmd
}
