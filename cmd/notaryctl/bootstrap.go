package main

import (
	"context"
	"fmt"
	"time"

	appidentity "github.com/notaris/backend/internal/application/identity"
	"github.com/notaris/backend/internal/infrastructure/persistence"
	"github.com/spf13/cobra"
)

var bootstrap appidentity.BootstrapInput

var bootstrapCmd = &cobra.Command{
	Use:   "bootstrap",
	Short: "Create an office together with its first administrator",
	Long: `Bootstrap registers a new office and an administrator account for it.
The administrator can log in immediately and invite the rest of the staff.

Example:

  notaryctl bootstrap --code peeters --name "Notariskantoor Peeters" \
    --domain notaris-peeters.be --admin-username admin \
    --admin-email admin@notaris-peeters.be --admin-password '...'`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, log := loadEnv()
		defer func() { _ = log.Sync() }()

		db, err := persistence.NewDatabase(&cfg.Database, log)
		if err != nil {
			fail("Failed to connect to database: %s", err)
		}
		defer func() { _ = db.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		svc := appidentity.NewOfficeService(persistence.NewGormTenantRepository(db.DB), persistence.NewGormUserRepository(db.DB), log)
		office, admin, err := svc.Bootstrap(ctx, bootstrap)
		if err != nil {
			fail("Bootstrap failed: %s", err)
		}
		fmt.Printf("Created office %s (%s)\n", office.Code, office.ID)
		fmt.Printf("Created administrator %s (%s)\n", admin.Username, admin.ID)
	},
}

func init() {
	f := bootstrapCmd.Flags()
	f.StringVar(&bootstrap.Code, "code", "", "office code used at login")
	f.StringVar(&bootstrap.Name, "name", "", "office name")
	f.StringVar(&bootstrap.Domain, "domain", "", "domain the office is served on")
	f.StringVar(&bootstrap.AdminUsername, "admin-username", "admin", "administrator username")
	f.StringVar(&bootstrap.AdminPassword, "admin-password", "", "administrator password")
	f.StringVar(&bootstrap.AdminEmail, "admin-email", "", "administrator e-mail address")
	_ = bootstrapCmd.MarkFlagRequired("code")
	_ = bootstrapCmd.MarkFlagRequired("name")
	_ = bootstrapCmd.MarkFlagRequired("admin-password")

	rootCmd.AddCommand(bootstrapCmd)
}
