// Command snapctl administers plans and users of a snap-tiers database.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/krishkalaria12/snap-tiers/auth"
	"github.com/krishkalaria12/snap-tiers/catalog"
	"github.com/krishkalaria12/snap-tiers/config"
	"github.com/krishkalaria12/snap-tiers/database"
	"github.com/krishkalaria12/snap-tiers/images"
	"github.com/krishkalaria12/snap-tiers/logger"
	"github.com/krishkalaria12/snap-tiers/models"
	"github.com/krishkalaria12/snap-tiers/storage"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const usage = `usage: snapctl <command> [flags]

commands:
  seed-plans                                   create the default plans
  create-user -username U -password P [-plan NAME] [-staff] [-superuser]
  set-plan    -username U -plan NAME           an empty -plan removes the plan
  delete-user -username U                      also removes the user's images
`

type app struct {
	auth    *auth.Service
	catalog *catalog.Catalog
	out     io.Writer
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		exitWithError(err)
	}
	log := logger.New(cfg.AppEnv, cfg.LogLevel).With().Str("cmd", "snapctl").Logger()

	db, err := database.Connect(cfg.DB, log)
	if err != nil {
		exitWithError(fmt.Errorf("failed to connect database: %w", err))
	}
	defer database.Close(db)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	backend, err := storage.New(ctx, cfg.Storage, log)
	if err != nil {
		exitWithError(fmt.Errorf("failed to open storage: %w", err))
	}

	a := newApp(db, backend, cfg.Storage.Timeout, log, os.Stdout)
	if err := a.run(ctx, os.Args[1], os.Args[2:]); err != nil {
		exitWithError(err)
	}
}

func newApp(db *gorm.DB, backend storage.Backend, timeout time.Duration, log zerolog.Logger, out io.Writer) *app {
	store := images.NewStore(db, backend, timeout, log)
	return &app{
		auth:    auth.NewService(db, store, log),
		catalog: catalog.New(db, log),
		out:     out,
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "seed-plans":
		return a.seedPlans(ctx)
	case "create-user":
		return a.createUser(ctx, args)
	case "set-plan":
		return a.setPlan(ctx, args)
	case "delete-user":
		return a.deleteUser(ctx, args)
	default:
		return fmt.Errorf("unknown command %q\n%s", cmd, usage)
	}
}

func (a *app) seedPlans(ctx context.Context) error {
	results, err := a.catalog.SeedDefaultPlans(ctx)
	if err != nil {
		return err
	}
	for _, r := range results {
		state := "already exists"
		if r.Created {
			state = "created"
		}
		fmt.Fprintf(a.out, "plan %s: %s\n", r.Plan, state)
	}
	return nil
}

func (a *app) createUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("create-user", flag.ContinueOnError)
	username := fs.String("username", "", "username of the new user")
	password := fs.String("password", "", "password of the new user")
	plan := fs.String("plan", "", "plan to assign")
	staff := fs.Bool("staff", false, "grant access to the admin API")
	superuser := fs.Bool("superuser", false, "create a superuser (implies -staff)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	in := auth.NewUser{
		Username:    *username,
		Password:    *password,
		IsStaff:     *staff,
		IsSuperuser: *superuser,
	}
	if name := strings.TrimSpace(*plan); name != "" {
		p, err := a.catalog.ResolvePlan(ctx, name)
		if err != nil {
			return fmt.Errorf("plan %q: %w", name, err)
		}
		in.PlanID = &p.ID
	}

	user, err := a.auth.CreateUser(ctx, in)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %s created with id %d\n", user.Username, user.ID)
	return nil
}

func (a *app) setPlan(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("set-plan", flag.ContinueOnError)
	username := fs.String("username", "", "user to update")
	plan := fs.String("plan", "", "plan to assign")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.lookup(ctx, *username)
	if err != nil {
		return err
	}
	updated, err := a.catalog.AssignPlan(ctx, user.ID, *plan)
	if err != nil {
		return err
	}

	name := "none"
	if updated.Plan != nil {
		name = updated.Plan.Name
	}
	fmt.Fprintf(a.out, "user %s now on plan %s\n", updated.Username, name)
	return nil
}

func (a *app) deleteUser(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("delete-user", flag.ContinueOnError)
	username := fs.String("username", "", "user to delete")
	if err := fs.Parse(args); err != nil {
		return err
	}

	user, err := a.lookup(ctx, *username)
	if err != nil {
		return err
	}
	if err := a.auth.DeleteUser(ctx, user.ID); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "user %s deleted\n", user.Username)
	return nil
}

func (a *app) lookup(ctx context.Context, username string) (*models.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, errors.New("-username is required")
	}
	return a.auth.UserByUsername(ctx, username)
}

func exitWithError(err error) {
	fmt.Fprintf(os.Stderr, "snapctl: %v\n", err)
	os.Exit(1)
}
