// Command portalctl runs one-off maintenance against the portal database.
package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/cppla/docportal/config"
	"github.com/cppla/docportal/models"
	"github.com/cppla/docportal/rates"
	"github.com/cppla/docportal/seed"
	"github.com/cppla/docportal/utils"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	configPath string
	cfg        *config.AppConfig
	db         *gorm.DB
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "portalctl",
		Short:         "Maintenance commands for the document portal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open()
		},
	}
	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", config.DefaultPath, "path to the config file")
	root.AddCommand(a.seedCmd(), a.userAddCmd(), a.importRatesCmd())
	return root
}

func (a *app) open() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	cfg.Log.Path = ""
	if err := utils.InitLogger(cfg.Log); err != nil {
		return err
	}
	db, err := config.InitDatabase(cfg, models.All()...)
	if err != nil {
		return err
	}
	a.cfg, a.db = cfg, db
	return nil
}

func (a *app) seedCmd() *cobra.Command {
	var demo int
	var demoSeed int64
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account, settings and default categories",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := seed.Bootstrap(a.db, a.cfg.Admin); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "bootstrap data ensured")
			if demo <= 0 {
				return nil
			}
			var admin models.User
			if err := a.db.Where("username = ?", a.cfg.Admin.Username).First(&admin).Error; err != nil {
				return errors.Wrap(err, "load admin user")
			}
			n, err := seed.Demo(a.db, admin.ID, demo, demoSeed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "inserted %d demo posts\n", n)
			return nil
		},
	}
	cmd.Flags().IntVar(&demo, "demo", 0, "also insert N generated demo posts")
	cmd.Flags().Int64Var(&demoSeed, "demo-seed", time.Now().UnixNano(), "random seed for demo content")
	return cmd
}

func (a *app) userAddCmd() *cobra.Command {
	var fullName, role, password string
	var canPost bool
	cmd := &cobra.Command{
		Use:   "useradd <username>",
		Short: "Create a portal account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			username := strings.TrimSpace(args[0])
			if username == "" || password == "" || strings.TrimSpace(fullName) == "" {
				return errors.New("username, --password and --full-name are required")
			}
			if role != models.RoleUser && role != models.RoleAdmin {
				return errors.Errorf("unknown role %q", role)
			}
			hash, err := utils.HashPassword(password)
			if err != nil {
				return err
			}
			user := models.User{
				Username:     username,
				PasswordHash: hash,
				FullName:     strings.TrimSpace(fullName),
				Role:         role,
				Status:       models.StatusActive,
				CanPost:      canPost,
			}
			if err := a.db.Create(&user).Error; err != nil {
				return errors.Wrapf(err, "create user %s", username)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created user %s (id %d)\n", user.Username, user.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&password, "password", "", "initial password")
	cmd.Flags().StringVar(&fullName, "full-name", "", "display name")
	cmd.Flags().StringVar(&role, "role", models.RoleUser, "user or admin")
	cmd.Flags().BoolVar(&canPost, "can-post", true, "allow uploading documents")
	return cmd
}

func (a *app) importRatesCmd() *cobra.Command {
	var notice rates.Notice
	cmd := &cobra.Command{
		Use:   "import-rates <file.xlsx>",
		Short: "Replace the exchange-rate table from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rows, err := rates.ParseFile(args[0])
			if err != nil {
				return err
			}
			n, err := rates.Replace(a.db, rows, notice)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d exchange rates\n", n)
			return nil
		},
	}
	cmd.Flags().StringVar(&notice.Date, "date", time.Now().Format("02/01/2006"), "notification date")
	cmd.Flags().IntVar(&notice.Number, "number", 1, "notification number")
	return cmd
}
