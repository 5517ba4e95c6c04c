package commands

import (
	"fmt"
	"log/slog"

	"github.com/jj-development3dx/hz-publisher/lib/configutil"
	"github.com/jj-development3dx/hz-publisher/lib/scrapers/f95zone"
	"github.com/jj-development3dx/hz-publisher/lib/serviceutil"

	"github.com/spf13/cobra"
)

type Config struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

var (
	loginProvider *string
	loginTrust    *bool
	loginCaptcha  *string
)

func init() {
	loginProvider = loginCmd.Flags().String("provider", "auto", "The two-factor provider to use (auto, totp, email).")
	loginTrust = loginCmd.Flags().Bool("trust", false, "Mark this device as trusted after two-factor verification.")
	loginCaptcha = loginCmd.Flags().String("captcha", "", "A solved captcha token, if the platform demands one.")
	rootCmd.AddCommand(loginCmd)
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Logs in according to a config and persists the session.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		cfg, err := configutil.ReadConfig[Config]("config.json5")
		if err != nil {
			serviceutil.Fatal("failed to read config", err)
		}

		session, err := f95zone.NewSession(*sessionFile)
		if err != nil {
			serviceutil.Fatal("failed to open session", err)
		}

		if session.Load() == nil && session.IsValid(cfg.Username, cfg.Password) {
			client, err := f95zone.NewClient(ctx, f95zone.ClientOptions{Session: session})
			if err != nil {
				serviceutil.Fatal("failed to initialize client", err)
			}
			err = client.UpdateSession(ctx)
			if err == nil {
				if err := session.Save(); err != nil {
					serviceutil.Fatal("failed to save session", err)
				}
				slog.Info("restored previous session", "created", session.Created())
				return
			}
			slog.Warn("previous session could not be refreshed, logging in again", "err", err)
		}

		session.Create(cfg.Username, cfg.Password, "")
		client, err := f95zone.NewClient(ctx, f95zone.ClientOptions{Session: session})
		if err != nil {
			serviceutil.Fatal("failed to initialize client", err)
		}

		credentials := f95zone.NewCredentials(cfg.Username, cfg.Password)
		err = credentials.FetchToken(ctx, client)
		if err != nil {
			serviceutil.Fatal("failed to fetch anti-forgery token", err)
		}
		session.UpdateToken(credentials.Token())

		slog.Info("authenticating", "username", cfg.Username)
		res, err := client.Authenticate(ctx, credentials, *loginCaptcha)
		if err != nil {
			serviceutil.Fatal("failed to authenticate", err)
		}

		if res.Code == f95zone.LoginRequire2fa {
			res = send2faCode(cmd, client, credentials.Token())
		}
		if !res.Success {
			serviceutil.Fatal("login rejected", fmt.Errorf("%s (code %d)", res.Message, res.Code))
		}

		if err := session.Save(); err != nil {
			serviceutil.Fatal("failed to save session", err)
		}
		slog.Info("logged in", "session", session.Path())
	},
}

func send2faCode(cmd *cobra.Command, client *f95zone.Client, token string) f95zone.LoginResult {
	fmt.Print("two-factor code: ")
	var code int
	if _, err := fmt.Scan(&code); err != nil {
		serviceutil.Fatal("failed to read two-factor code", err)
	}

	res := client.Send2faCode(
		cmd.Context(),
		code,
		token,
		f95zone.TwoFactorProvider(*loginProvider),
		*loginTrust,
	)
	if res.IsFailure() {
		serviceutil.Fatal("failed to submit two-factor code", res.Error())
	}
	return res.Value()
}
