package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/tourmaster/tourctl/internal/api"
)

// readPackageFile loads a package definition from a JSON file.
func readPackageFile(path string) (api.TourPackage, error) {
	var pkg api.TourPackage
	data, err := os.ReadFile(path)
	if err != nil {
		return pkg, fmt.Errorf("failed to read package file: %w", err)
	}
	if err := json.Unmarshal(data, &pkg); err != nil {
		return pkg, fmt.Errorf("failed to parse package file: %w", err)
	}
	return pkg, nil
}

func newPackagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "packages",
		Short: "Browse and manage tour packages",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List all tour packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			packages, err := a.client.ListPackages(cmd.Context())
			if err != nil {
				return err
			}
			for _, p := range packages {
				status := "active"
				if !p.IsActive {
					status = "inactive"
				}
				fmt.Printf("%4d  %-30s  %s, %s  %dD/%dN  %.2f  [%s]\n",
					p.ID, p.Name, p.City, p.Country, p.Days, p.Nights, p.Price, status)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "show <id>",
		Short: "Show full details for one package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid package id %q", args[0])
			}
			a, err := setup()
			if err != nil {
				return err
			}
			pkg, err := a.client.GetPackage(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Printf("%s (#%d)\n", pkg.Name, pkg.ID)
			fmt.Printf("  Destination: %s, %s\n", pkg.City, pkg.Country)
			fmt.Printf("  Duration:    %d days / %d nights\n", pkg.Days, pkg.Nights)
			fmt.Printf("  Price:       %.2f\n", pkg.Price)
			if pkg.Description != "" {
				fmt.Printf("  %s\n", pkg.Description)
			}
			for _, inc := range pkg.Inclusions {
				fmt.Printf("  - %s\n", inc)
			}
			return nil
		},
	})

	var addFile string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a package from a JSON file (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			pkg, err := readPackageFile(addFile)
			if err != nil {
				return err
			}
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.AddPackage(cmd.Context(), pkg)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&addFile, "file", "f", "", "Package definition JSON file")
	addCmd.MarkFlagRequired("file")
	cmd.AddCommand(addCmd)

	var updateFile string
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Overwrite a package from a JSON file (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid package id %q", args[0])
			}
			pkg, err := readPackageFile(updateFile)
			if err != nil {
				return err
			}
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.UpdatePackage(cmd.Context(), id, pkg)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
	updateCmd.Flags().StringVarP(&updateFile, "file", "f", "", "Package definition JSON file")
	updateCmd.MarkFlagRequired("file")
	cmd.AddCommand(updateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a package (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid package id %q", args[0])
			}
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.DeletePackage(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	})

	return cmd
}

func newBannersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "banners",
		Short: "Manage landing page banners",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List banners",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			banners, err := a.client.ListBanners(cmd.Context())
			if err != nil {
				return err
			}
			for _, b := range banners {
				fmt.Printf("%4d  %-30s  %s\n", b.ID, b.Title, b.ImageURL)
			}
			return nil
		},
	})

	var title, imageURL string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a banner (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.AddBanner(cmd.Context(), api.Banner{
				Title:    title,
				ImageURL: imageURL,
				IsActive: true,
			})
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&title, "title", "t", "", "Banner title")
	addCmd.Flags().StringVar(&imageURL, "image-url", "", "Banner image URL")
	addCmd.MarkFlagRequired("title")
	addCmd.MarkFlagRequired("image-url")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a banner (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid banner id %q", args[0])
			}
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.DeleteBanner(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	})

	return cmd
}

func newCountriesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "countries",
		Short: "Manage destination countries and cities",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List countries and their cities",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			countries, err := a.client.ListCountries(cmd.Context())
			if err != nil {
				return err
			}
			for _, c := range countries {
				fmt.Printf("%4d  %s\n", c.ID, c.Name)
				for _, city := range c.Cities {
					fmt.Printf("        - %s\n", city.Name)
				}
			}
			return nil
		},
	})

	var countryName string
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Add a destination country (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.AddCountry(cmd.Context(), api.Country{Name: countryName})
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
	addCmd.Flags().StringVarP(&countryName, "name", "n", "", "Country name")
	addCmd.MarkFlagRequired("name")
	cmd.AddCommand(addCmd)

	var newName string
	updateCmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Rename a destination country (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid country id %q", args[0])
			}
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.UpdateCountry(cmd.Context(), id, api.Country{Name: newName})
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
	updateCmd.Flags().StringVarP(&newName, "name", "n", "", "New country name")
	updateCmd.MarkFlagRequired("name")
	cmd.AddCommand(updateCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a country and its cities (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid country id %q", args[0])
			}
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.DeleteCountry(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	})

	return cmd
}

func newSchedulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedules",
		Short: "Manage package departure schedules",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list <package-id>",
		Short: "List departure slots for a package",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			packageID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid package id %q", args[0])
			}
			a, err := setup()
			if err != nil {
				return err
			}
			schedules, err := a.client.ListSchedules(cmd.Context(), packageID)
			if err != nil {
				return err
			}
			for _, s := range schedules {
				fmt.Printf("%4d  %s -> %s  seats %d/%d\n",
					s.ID, s.StartDate, s.EndDate, s.SeatsLeft, s.SeatsTotal)
			}
			return nil
		},
	})

	var (
		packageID  int
		startDate  string
		endDate    string
		seatsTotal int
	)
	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Create a departure slot (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.AddSchedule(cmd.Context(), api.Schedule{
				PackageID:  packageID,
				StartDate:  startDate,
				EndDate:    endDate,
				SeatsTotal: seatsTotal,
				SeatsLeft:  seatsTotal,
			})
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	}
	addCmd.Flags().IntVar(&packageID, "package", 0, "Package id")
	addCmd.Flags().StringVar(&startDate, "start", "", "Departure date (YYYY-MM-DD)")
	addCmd.Flags().StringVar(&endDate, "end", "", "Return date (YYYY-MM-DD)")
	addCmd.Flags().IntVar(&seatsTotal, "seats", 0, "Total seats")
	addCmd.MarkFlagRequired("package")
	addCmd.MarkFlagRequired("start")
	addCmd.MarkFlagRequired("end")
	addCmd.MarkFlagRequired("seats")
	cmd.AddCommand(addCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a departure slot (admin)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid schedule id %q", args[0])
			}
			a, err := setup()
			if err != nil {
				return err
			}
			msg, err := a.client.DeleteSchedule(cmd.Context(), id)
			if err != nil {
				return err
			}
			fmt.Println(msg)
			return nil
		},
	})

	return cmd
}
