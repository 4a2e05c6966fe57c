package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/hugeolab/hubsync/internal/auth"
	"github.com/hugeolab/hubsync/internal/utils"
)

var authCmd = &cobra.Command{
	Use:   "auth",
	Short: "Authentication commands",
	Long:  "Manage the hub access token used for uploads",
}

var authLoginCmd = &cobra.Command{
	Use:   "login",
	Short: "Store a hub access token",
	Long:  "Store the hub access token in the OS keyring",
	RunE:  runAuthLogin,
}

var authLogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Remove the stored token",
	RunE:  runAuthLogout,
}

var authStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show authentication status",
	RunE:  runAuthStatus,
}

var authToken string

func init() {
	authLoginCmd.Flags().StringVar(&authToken, "token", "", "Hub access token (required)")
	_ = authLoginCmd.MarkFlagRequired("token")

	authCmd.AddCommand(authLoginCmd)
	authCmd.AddCommand(authLogoutCmd)
	authCmd.AddCommand(authStatusCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthLogin(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	if err := auth.SaveToken(authToken); err != nil {
		return fail(out, "auth.login", utils.NewCLIError(utils.ErrCodeAuthRequired, err.Error()).Build())
	}

	out.Log("Token stored")
	return out.WriteSuccess("auth.login", map[string]interface{}{
		"status": "stored",
	})
}

func runAuthLogout(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	if err := auth.DeleteToken(); err != nil {
		return fail(out, "auth.logout", utils.NewCLIError(utils.ErrCodeAuthRequired,
			"no stored token found").Build())
	}

	out.Log("Token removed")
	return out.WriteSuccess("auth.logout", map[string]interface{}{
		"status": "logged_out",
	})
}

func runAuthStatus(cmd *cobra.Command, args []string) error {
	flags := GetGlobalFlags()
	out := NewOutputWriter(flags.OutputFormat, flags.Quiet, flags.Verbose)

	source := ""
	for _, env := range utils.TokenEnvVars {
		if os.Getenv(env) != "" {
			source = "env:" + env
			break
		}
	}
	if source == "" && auth.Token() != "" {
		source = "keyring"
	}

	return out.WriteSuccess("auth.status", map[string]interface{}{
		"authenticated": source != "",
		"source":        source,
	})
}
