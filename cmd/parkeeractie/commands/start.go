package commands

import (
	"fmt"
	"log/slog"
	"os"
	"parkeeractie/internal/coordinator"
	"parkeeractie/lib/serviceutil"

	"github.com/spf13/cobra"
)

var (
	startPlate string
	startEnd   string
)

func init() {
	startCmd.Flags().StringVar(&startPlate, "plate", "", "The license plate to park, dashes are allowed.")
	startCmd.Flags().StringVar(&startEnd, "end", "", "When the session should end (ISO-8601, eg. 2025-10-06T23:00).")
	startCmd.MarkFlagRequired("plate")
	startCmd.MarkFlagRequired("end")
	rootCmd.AddCommand(startCmd)
}

var startCmd = &cobra.Command{
	Use:   "start --plate <license plate> --end <end time>",
	Short: "Starts a parking session on the first active permit and prints the updated account.",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := setup(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to setup", err)
		}
		defer env.shutdown()

		coord, err := coordinator.New(env.client, env.tel, env.clock)
		if err != nil {
			serviceutil.Fatal("failed to create coordinator", err)
		}

		outcome, err := coord.StartSession(cmd.Context(), startPlate, startEnd)
		if err != nil {
			env.shutdown()
			serviceutil.Fatal("failed to start parking session", err)
		}

		if data, ok := coord.Data(); ok {
			renderData(data)
		}

		if !outcome.Success {
			for _, message := range outcome.Messages {
				fmt.Fprintln(os.Stderr, message)
			}
			env.shutdown()
			os.Exit(1)
		}
		slog.Info("parking session started", "plate", startPlate, "end", startEnd)
	},
}
