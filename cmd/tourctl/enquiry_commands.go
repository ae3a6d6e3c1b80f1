package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tourmaster/tourctl/internal/api"
)

func newEnquiriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "enquiries",
		Short: "Submit and review booking enquiries",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List customer enquiries (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			enquiries, err := a.client.ListEnquiries(cmd.Context())
			if err != nil {
				return err
			}
			for _, e := range enquiries {
				fmt.Printf("%4d  pkg=%-4d  %-25s  %-30s  %s\n",
					e.ID, e.PackageID, e.Name, e.Email, e.Status)
			}
			return nil
		},
	})

	var (
		packageID int
		name      string
		email     string
		phone     string
		message   string
	)
	submitCmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit a booking enquiry for a package",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.SubmitEnquiry(cmd.Context(), api.Enquiry{
				PackageID: packageID,
				Name:      name,
				Email:     email,
				Phone:     phone,
				Message:   message,
			})
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
	submitCmd.Flags().IntVar(&packageID, "package", 0, "Package id")
	submitCmd.Flags().StringVar(&name, "name", "", "Contact name")
	submitCmd.Flags().StringVar(&email, "email", "", "Contact email")
	submitCmd.Flags().StringVar(&phone, "phone", "", "Contact phone")
	submitCmd.Flags().StringVar(&message, "message", "", "Enquiry message")
	submitCmd.MarkFlagRequired("package")
	submitCmd.MarkFlagRequired("name")
	submitCmd.MarkFlagRequired("email")
	cmd.AddCommand(submitCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "resolve <id>",
		Short: "Mark an enquiry as handled (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid enquiry id %q", args[0])
			}
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.UpdateEnquiryStatus(cmd.Context(), id, "resolved")
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	})

	return cmd
}

func newUsersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage customer accounts (admin)",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List customer accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			users, err := a.client.ListUsers(cmd.Context())
			if err != nil {
				return err
			}
			for _, u := range users {
				status := "active"
				if !u.IsActive {
					status = "disabled"
				}
				fmt.Printf("%4d  %-20s  %-30s  [%s]\n", u.ID, u.Username, u.Email, status)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "deactivate <id>",
		Short: "Disable a customer account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.DeactivateUser(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	})

	return cmd
}
