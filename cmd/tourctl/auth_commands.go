package main

import (
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/tourmaster/tourctl/internal/api"
)

func newLoginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Authenticate and store session credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}

			if password == "" {
				fmt.Fprint(os.Stderr, "Password: ")
				raw, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = string(raw)
			}

			resp, err := a.client.Login(cmd.Context(), api.LoginRequest{
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}

			role := resp.UserRole
			if role == "" {
				role = resp.AdminRole
			}
			fmt.Printf("Logged in as %s (%s)\n", email, role)
			if resp.Message != "" {
				fmt.Println(resp.Message)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted if omitted)")
	cmd.MarkFlagRequired("email")

	return cmd
}

func newRegisterCmd() *cobra.Command {
	var username, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a customer account",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}

			if password == "" {
				fmt.Fprint(os.Stderr, "Password: ")
				raw, err := term.ReadPassword(int(syscall.Stdin))
				fmt.Fprintln(os.Stderr)
				if err != nil {
					return fmt.Errorf("failed to read password: %w", err)
				}
				password = string(raw)
			}

			msg, err := a.client.Register(cmd.Context(), api.RegisterRequest{
				Username: username,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return err
			}

			if msg != "" {
				fmt.Println(msg)
			}
			fmt.Printf("Check %s for the verification code, then run `tourctl register verify`.\n", email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&username, "username", "u", "", "Account username")
	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password (prompted if omitted)")
	cmd.MarkFlagRequired("username")
	cmd.MarkFlagRequired("email")

	cmd.AddCommand(newRegisterVerifyCmd(), newRegisterResendCmd(), newVerifyEmailCmd())
	return cmd
}

func newVerifyEmailCmd() *cobra.Command {
	var token string

	cmd := &cobra.Command{
		Use:   "verify-email",
		Short: "Confirm an email verification link token",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}

			msg, err := a.client.VerifyEmail(cmd.Context(), token)
			if err != nil {
				return err
			}
			if msg != "" {
				fmt.Println(msg)
			} else {
				fmt.Println("Email verified.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&token, "token", "", "Token from the verification link")
	cmd.MarkFlagRequired("token")

	return cmd
}

func newRegisterVerifyCmd() *cobra.Command {
	var email, otp string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Confirm the one-time code sent by email",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}

			msg, err := a.client.VerifyOTP(cmd.Context(), email, otp)
			if err != nil {
				return err
			}
			if msg != "" {
				fmt.Println(msg)
			} else {
				fmt.Println("Account verified.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.Flags().StringVar(&otp, "otp", "", "One-time code from the verification email")
	cmd.MarkFlagRequired("email")
	cmd.MarkFlagRequired("otp")

	return cmd
}

func newRegisterResendCmd() *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "resend",
		Short: "Request a fresh one-time code",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}

			msg, err := a.client.ResendOTP(cmd.Context(), email)
			if err != nil {
				return err
			}
			if msg != "" {
				fmt.Println(msg)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "Account email")
	cmd.MarkFlagRequired("email")

	return cmd
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Revoke the active session and forget stored credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}

			role, ok := a.store.ActiveRole()
			if !ok {
				fmt.Println("No active session.")
				return nil
			}

			msg, err := a.client.Logout(cmd.Context(), role)
			if err != nil {
				// Credentials are cleared locally regardless.
				fmt.Fprintf(os.Stderr, "Server-side logout failed: %v\n", err)
				fmt.Println("Local credentials cleared.")
				return nil
			}

			if msg != "" {
				fmt.Println(msg)
			} else {
				fmt.Println("Logged out.")
			}
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the active session",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}

			role, ok := a.store.ActiveRole()
			if !ok {
				fmt.Println("Not logged in.")
				return nil
			}

			fmt.Printf("Active role: %s\n", role)
			if _, hasRefresh := a.store.RefreshToken(role); hasRefresh {
				fmt.Println("Refresh token: present")
			} else {
				fmt.Println("Refresh token: absent (session will not survive token expiry)")
			}
			return nil
		},
	}
}
