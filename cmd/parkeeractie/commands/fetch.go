package commands

import (
	"errors"
	"fmt"
	"parkeeractie/internal/coordinator"
	"parkeeractie/internal/scrapers/parkeeractie"
	"parkeeractie/lib/serviceutil"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(fetchCmd)
}

// loginFailureKind classifies a failed login the way the setup flow reports
// it to the user.
func loginFailureKind(err error) string {
	if parkeeractie.IsCaptchaRequired(err) {
		return "captcha_required"
	}
	var authErr *parkeeractie.AuthError
	if errors.As(err, &authErr) {
		return "auth"
	}
	return "cannot_connect"
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [--config <path/to/config.json5>]",
	Short: "Logs in and prints the saldo and remaining parking time.",
	Run: func(cmd *cobra.Command, args []string) {
		env, err := setup(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to setup", err)
		}
		defer env.shutdown()

		snapshot, err := env.client.LoginAndFetch(cmd.Context())
		if err != nil {
			env.shutdown()
			serviceutil.Fatal(fmt.Sprintf("failed to login: %s", loginFailureKind(err)), err)
		}

		renderData(coordinator.Data{
			Saldo:       snapshot.Saldo,
			CurrentTime: snapshot.CurrentTime,
			UpdatedAt:   env.clock.Now(),
		})
	},
}
