package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fieldline/workdesk/internal/auth"
	"github.com/fieldline/workdesk/internal/config"
	"github.com/fieldline/workdesk/internal/email"
	"github.com/fieldline/workdesk/internal/models"
	"github.com/fieldline/workdesk/internal/report"
	"github.com/fieldline/workdesk/internal/repository"
	"github.com/fieldline/workdesk/migrations"
	"github.com/fieldline/workdesk/pkg/database"
	"github.com/fieldline/workdesk/pkg/utils"
	"github.com/spf13/cobra"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "workdeskctl",
		Short:         "Operator tooling for the Workdesk dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "configs/config.yaml", "path to the config file")

	root.AddCommand(
		newUsersCmd(&configPath),
		newReportCmd(&configPath),
		newEmailCmd(&configPath),
	)
	return root
}

// appEnv bundles the dependencies the subcommands share.
type appEnv struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
}

func openEnv(configPath string) (*appEnv, error) {
	gotenv.Load()

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := utils.NewLogger(utils.LoggerConfig{
		Level:      cfg.Logger.Level,
		OutputPath: "stderr",
		Format:     "console",
	})
	if err != nil {
		return nil, err
	}

	db, err := database.New(database.Config{
		Path:            cfg.Database.Path,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}, logger)
	if err != nil {
		return nil, err
	}

	if err := database.NewMigrator(db, logger).RunMigrations(migrations.Files); err != nil {
		db.Close()
		return nil, err
	}

	return &appEnv{cfg: cfg, logger: logger, db: db}, nil
}

func (e *appEnv) Close() {
	e.db.Close()
	e.logger.Sync()
}

func (e *appEnv) authService() *auth.Service {
	users := repository.NewUserRepository(e.db.DB, e.logger)
	sessions := repository.NewSessionRepository(e.db.DB, e.logger)
	return auth.NewService(users, sessions, e.cfg.Auth.SessionTTL, e.logger)
}

func (e *appEnv) mailer() (report.Mailer, error) {
	if e.cfg.Email.Host == "" {
		return nil, fmt.Errorf("email is not configured, set email.host")
	}
	sender, err := email.NewSender(email.Config{
		Host:     e.cfg.Email.Host,
		Port:     e.cfg.Email.Port,
		Username: e.cfg.Email.Username,
		Password: e.cfg.Email.Password,
		From:     e.cfg.Email.From,
	}, e.logger)
	if err != nil {
		return nil, err
	}
	return sender, nil
}

func newUsersCmd(configPath *string) *cobra.Command {
	users := &cobra.Command{
		Use:   "users",
		Short: "Manage dashboard accounts",
	}

	var address, name, password, role string
	add := &cobra.Command{
		Use:   "add",
		Short: "Create a dashboard account",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer env.Close()

			user, err := env.authService().CreateUser(address, name, password, models.Role(role))
			if err != nil {
				return err
			}
			fmt.Printf("Created %s account %s (%s)\n", user.Role, user.Email, user.UID)
			return nil
		},
	}
	add.Flags().StringVar(&address, "email", "", "account email (required)")
	add.Flags().StringVar(&name, "name", "", "display name")
	add.Flags().StringVar(&password, "password", "", "password, at least 8 characters (required)")
	add.Flags().StringVar(&role, "role", "staff", "account role: admin or staff")
	add.MarkFlagRequired("email")
	add.MarkFlagRequired("password")

	list := &cobra.Command{
		Use:   "list",
		Short: "List dashboard accounts",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer env.Close()

			accounts, err := repository.NewUserRepository(env.db.DB, env.logger).List()
			if err != nil {
				return err
			}
			if len(accounts) == 0 {
				fmt.Println("No accounts yet")
				return nil
			}
			for _, u := range accounts {
				fmt.Printf("%-36s  %-5s  %-30s  %s\n", u.UID, u.Role, u.Email, u.Name)
			}
			return nil
		},
	}

	users.AddCommand(add, list)
	return users
}

func newReportCmd(configPath *string) *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Generate and deliver work item reports",
	}

	buildOptions := func(period string, previous, includePrices bool, formats []report.Format, now time.Time) (report.Options, error) {
		opts := report.Options{IncludePrices: includePrices, Formats: formats}
		if period == "" {
			return opts, nil
		}
		p, err := report.ParsePeriod(period)
		if err != nil {
			return opts, err
		}
		opts.Period = p
		if previous {
			rng, err := report.PreviousPeriod(p, now)
			if err != nil {
				return opts, err
			}
			opts.Anchor = rng.Start
		}
		return opts, nil
	}

	var genPeriod, genFormat, genOut string
	var genPrevious, genPrices bool
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Render a report to a local file",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer env.Close()

			format, err := report.ParseFormat(genFormat)
			if err != nil {
				return err
			}
			now := time.Now().UTC()
			opts, err := buildOptions(genPeriod, genPrevious, genPrices, []report.Format{format}, now)
			if err != nil {
				return err
			}

			items, err := repository.NewWorkItemRepository(env.db.DB, env.logger).ListAll()
			if err != nil {
				return err
			}
			data, artifacts, err := report.NewGenerator(env.logger).Generate(items, opts, now)
			if err != nil {
				return err
			}

			out := genOut
			if out == "" {
				out = artifacts[0].Filename
			}
			if err := os.WriteFile(out, artifacts[0].Content, 0644); err != nil {
				return fmt.Errorf("write %s: %w", out, err)
			}
			fmt.Printf("Wrote %s (%d items, %d bytes)\n", out, len(data.Items), len(artifacts[0].Content))
			return nil
		},
	}
	generate.Flags().StringVar(&genPeriod, "period", "", "daily, weekly, monthly, quarterly or yearly; empty covers everything")
	generate.Flags().BoolVar(&genPrevious, "previous", false, "frame the previous full period instead of the current one")
	generate.Flags().StringVar(&genFormat, "format", "pdf", "pdf or xlsx")
	generate.Flags().StringVar(&genOut, "out", "", "output path, defaults to the artifact name")
	generate.Flags().BoolVar(&genPrices, "include-prices", false, "include price columns and totals")

	var sendPeriod, sendTo string
	var sendPrevious, sendPrices bool
	var sendFormats []string
	send := &cobra.Command{
		Use:   "send",
		Short: "Generate a report and email it",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer env.Close()

			mailer, err := env.mailer()
			if err != nil {
				return err
			}

			formats := make([]report.Format, 0, len(sendFormats))
			for _, raw := range sendFormats {
				format, err := report.ParseFormat(raw)
				if err != nil {
					return err
				}
				formats = append(formats, format)
			}
			now := time.Now().UTC()
			opts, err := buildOptions(sendPeriod, sendPrevious, sendPrices, formats, now)
			if err != nil {
				return err
			}

			items, err := repository.NewWorkItemRepository(env.db.DB, env.logger).ListAll()
			if err != nil {
				return err
			}
			data, artifacts, err := report.NewGenerator(env.logger).Generate(items, opts, now)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := report.NewDispatcher(mailer, env.logger).Email(ctx, sendTo, data, artifacts); err != nil {
				return err
			}
			fmt.Printf("Sent %q to %s (%d attachments)\n", data.Title, sendTo, len(artifacts))
			return nil
		},
	}
	send.Flags().StringVar(&sendPeriod, "period", "weekly", "daily, weekly, monthly, quarterly or yearly")
	send.Flags().BoolVar(&sendPrevious, "previous", true, "frame the previous full period instead of the current one")
	send.Flags().StringVar(&sendTo, "to", "", "recipient email (required)")
	send.Flags().StringSliceVar(&sendFormats, "formats", []string{"pdf", "xlsx"}, "report formats to attach")
	send.Flags().BoolVar(&sendPrices, "include-prices", false, "include price columns and totals")
	send.MarkFlagRequired("to")

	reportCmd.AddCommand(generate, send)
	return reportCmd
}

func newEmailCmd(configPath *string) *cobra.Command {
	emailCmd := &cobra.Command{
		Use:   "email",
		Short: "Email diagnostics",
	}

	var to string
	test := &cobra.Command{
		Use:   "test",
		Short: "Send a plain test message through the configured SMTP relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := openEnv(*configPath)
			if err != nil {
				return err
			}
			defer env.Close()

			mailer, err := env.mailer()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			body := fmt.Sprintf("Workdesk email test sent %s.\nIf you are reading this, SMTP delivery works.\n",
				time.Now().UTC().Format(time.RFC1123))
			if err := mailer.SendReport(ctx, to, "Workdesk email test", body, nil); err != nil {
				return err
			}
			fmt.Printf("Test message sent to %s\n", to)
			return nil
		},
	}
	test.Flags().StringVar(&to, "to", "", "recipient email (required)")
	test.MarkFlagRequired("to")

	emailCmd.AddCommand(test)
	return emailCmd
}
