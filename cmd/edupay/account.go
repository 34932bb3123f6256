package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Veraticus/edupay/internal/cli"
	"github.com/Veraticus/edupay/internal/common"
	"github.com/Veraticus/edupay/internal/gateway"
	"github.com/Veraticus/edupay/internal/model"
	"github.com/Veraticus/edupay/internal/validate"
)

func loginCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to the payment backend",
		Long: `Sign in with your email and password. The access token is stored in
the local database and sent with every later request.`,
		RunE: runLogin,
	}
	cmd.Flags().String("email", "", "account email (prompted when empty)")
	return cmd
}

func runLogin(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	prompter := cli.NewPrompter(cmd.ErrOrStderr())
	email, _ := cmd.Flags().GetString("email")
	if email == "" {
		if email, err = prompter.Ask(ctx, "Email", ""); err != nil {
			return err
		}
	}
	password, err := prompter.Password(ctx, "Password")
	if err != nil {
		return err
	}

	creds := gateway.Credentials{Email: strings.TrimSpace(email), Password: password}
	if err := validate.Struct(creds); err != nil {
		return common.NewUserError(err.Error(), err)
	}

	resp, err := a.client.Login(ctx, creds)
	if err != nil {
		return common.NewUserError("Login failed. Check your email and password.", err)
	}
	if err := a.sessions.SignIn(ctx, resp.AccessToken, resp.User); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}

	name := resp.User.Username
	if name == "" {
		name = creds.Email
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed in as "+name))
	return nil
}

func registerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a backend account",
		RunE:  runRegister,
	}
	cmd.Flags().String("username", "", "username (prompted when empty)")
	cmd.Flags().String("email", "", "email (prompted when empty)")
	cmd.Flags().String("role", "", "role (admin, trustee, user)")
	return cmd
}

func runRegister(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	prompter := cli.NewPrompter(cmd.ErrOrStderr())
	username, _ := cmd.Flags().GetString("username")
	email, _ := cmd.Flags().GetString("email")
	role, _ := cmd.Flags().GetString("role")

	if username == "" {
		if username, err = prompter.Ask(ctx, "Username", ""); err != nil {
			return err
		}
	}
	if email == "" {
		if email, err = prompter.Ask(ctx, "Email", ""); err != nil {
			return err
		}
	}
	password, err := prompter.Password(ctx, "Password")
	if err != nil {
		return err
	}

	reg := gateway.Registration{
		Username: strings.TrimSpace(username),
		Email:    strings.TrimSpace(email),
		Password: password,
		Role:     role,
	}
	if err := validate.Struct(reg); err != nil {
		return common.NewUserError(err.Error(), err)
	}

	resp, err := a.client.Register(ctx, reg)
	if err != nil {
		return common.NewUserError("Registration failed", err)
	}

	msg := resp.Message
	if msg == "" {
		msg = "Account created for " + reg.Email
	}
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(msg))
	fmt.Fprintln(cmd.OutOrStdout(), cli.FormatInfo("Run 'edupay login' to sign in."))
	return nil
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored access token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.sessions.SignOut(ctx); err != nil {
				return fmt.Errorf("failed to sign out: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Signed out"))
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE:  runWhoami,
	}
	cmd.Flags().Bool("remote", false, "fetch the profile from the backend")
	return cmd
}

func runWhoami(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	sess, err := a.sessions.Load(ctx)
	if err != nil {
		return err
	}
	if !sess.Authenticated() {
		fmt.Fprintln(out, cli.FormatWarning("Not signed in"))
		return nil
	}

	user := sess.User
	if remote, _ := cmd.Flags().GetBool("remote"); remote {
		if user, err = a.client.Profile(ctx); err != nil {
			return common.NewUserError("Failed to fetch profile", err)
		}
	}

	var b strings.Builder
	if user != nil {
		fmt.Fprintf(&b, "Username: %s\n", orNA(user.Username))
		fmt.Fprintf(&b, "Email:    %s\n", orNA(user.Email))
		fmt.Fprintf(&b, "Role:     %s\n", orNA(user.Role))
	}
	if expiry, ok := sess.TokenExpiry(); ok {
		state := "valid"
		if sess.Expired(time.Now()) {
			state = "expired"
		}
		fmt.Fprintf(&b, "Token:    %s until %s", state, expiry.Local().Format(cli.TimeLayout))
	} else {
		b.WriteString("Token:    no expiry")
	}

	fmt.Fprintln(out, cli.RenderBox("Signed in", b.String()))
	return nil
}

func signCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sign <school-id> <collect-request-id>",
		Short: "Ask the backend to sign a collect request",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireAuth(); err != nil {
				return err
			}

			sig, err := a.client.GenerateSign(ctx, args[0], args[1])
			if err != nil {
				return common.NewUserError("Failed to generate signature", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), sig.Sign)
			return nil
		},
	}
}

func orNA(s string) string {
	if s == "" {
		return model.NotAvailable
	}
	return s
}
