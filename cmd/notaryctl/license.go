package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"
	applicensing "github.com/notaris/backend/internal/application/licensing"
	"github.com/notaris/backend/internal/domain/identity"
	"github.com/notaris/backend/internal/infrastructure/cache"
	"github.com/notaris/backend/internal/infrastructure/license"
	"github.com/notaris/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
)

var licenseOffice string

var licenseCmd = &cobra.Command{
	Use:   "license",
	Short: "Inspect office licenses",
}

var licenseStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Print the stored license state of an office",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runLicense(func(ctx context.Context, svc *applicensing.Service, id uuid.UUID) (*applicensing.StatusResponse, error) {
			return svc.Status(ctx, id)
		})
	},
}

var licenseVerifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Check the office license with the license server",
	Long: `Verify contacts the license server, stores the result and prints the
resulting state. An office whose server is unreachable stays licensed
during the grace period.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		runLicense(func(ctx context.Context, svc *applicensing.Service, id uuid.UUID) (*applicensing.StatusResponse, error) {
			return svc.Verify(ctx, id)
		})
	},
}

var licenseVerifyAllCmd = &cobra.Command{
	Use:   "verify-all",
	Short: "Re-verify every stored license",
	Long: `Verify-all runs the verification of every office that holds a license.
It is meant for cron when the server runs without license.verify_interval.
The exit code is non-zero when any office failed.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		withLicenseService(10*time.Minute, func(ctx context.Context, svc *applicensing.Service, _ identity.TenantRepository) {
			res, err := svc.VerifyAll(ctx)
			if err != nil {
				fail("License verification failed: %s", err)
			}
			fmt.Printf("Checked %d, verified %d, in grace %d, failed %d\n", res.Total, res.Verified, res.InGrace, res.Failed)
			if res.Failed > 0 {
				os.Exit(1)
			}
		})
	},
}

func init() {
	for _, c := range []*cobra.Command{licenseStatusCmd, licenseVerifyCmd} {
		c.Flags().StringVar(&licenseOffice, "office", "", "office code")
		_ = c.MarkFlagRequired("office")
	}
	licenseCmd.AddCommand(licenseStatusCmd, licenseVerifyCmd, licenseVerifyAllCmd)
	rootCmd.AddCommand(licenseCmd)
}

func runLicense(fn func(ctx context.Context, svc *applicensing.Service, id uuid.UUID) (*applicensing.StatusResponse, error)) {
	withLicenseService(time.Minute, func(ctx context.Context, svc *applicensing.Service, tenants identity.TenantRepository) {
		office, err := tenants.FindByCode(ctx, licenseOffice)
		if err != nil {
			fail("Unknown office %q: %s", licenseOffice, err)
		}
		status, err := fn(ctx, svc, office.ID)
		if err != nil {
			fail("License check failed: %s", err)
		}
		printStatus(status)
	})
}

func withLicenseService(timeout time.Duration, fn func(ctx context.Context, svc *applicensing.Service, tenants identity.TenantRepository)) {
	cfg, log := loadEnv()
	defer func() { _ = log.Sync() }()

	db, err := persistence.NewDatabase(&cfg.Database, log)
	if err != nil {
		fail("Failed to connect to database: %s", err)
	}
	defer func() { _ = db.Close() }()

	client, err := license.NewClient(cfg.License, log)
	if err != nil {
		fail("Failed to initialize license client: %s", err)
	}
	features := cache.NewInMemoryLicenseCache(cfg.License.CacheTTL, log)
	defer func() { _ = features.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	tenants := persistence.NewGormTenantRepository(db.DB)
	svc := applicensing.NewService(persistence.NewGormLicenseRepository(db.DB), tenants, client, features,
		applicensing.Options{CacheTTL: cfg.License.CacheTTL, GracePeriod: cfg.License.GracePeriod}, log)
	fn(ctx, svc, tenants)
}

func printStatus(s *applicensing.StatusResponse) {
	fmt.Printf("Status:     %s\n", s.Status)
	fmt.Printf("Licensed:   %t\n", s.Licensed)
	if s.Edition != "" {
		fmt.Printf("Edition:    %s\n", s.Edition)
	}
	if s.Domain != "" {
		fmt.Printf("Domain:     %s\n", s.Domain)
	}
	if s.MaskedKey != "" {
		fmt.Printf("Key:        %s\n", s.MaskedKey)
	}
	if s.ValidUntil != nil {
		fmt.Printf("Valid until %s\n", s.ValidUntil.Format(time.DateOnly))
	}
	if s.LastVerifiedAt != nil {
		fmt.Printf("Verified:   %s\n", s.LastVerifiedAt.Format(time.RFC3339))
	}
	if s.InGrace {
		fmt.Println("Running on the grace period")
	}

	roles := make([]string, 0, len(s.Features))
	for role := range s.Features {
		roles = append(roles, string(role))
	}
	sort.Strings(roles)
	for _, role := range roles {
		fmt.Printf("  %-10s", role)
		for _, f := range s.Features[identity.Role(role)] {
			fmt.Printf(" %s", f)
		}
		fmt.Println()
	}
}
