package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"go.uber.org/zap"

	"github.com/octabyte/pharmacy-session/catalog"
	"github.com/octabyte/pharmacy-session/config"
	"github.com/octabyte/pharmacy-session/interfaces/http/client"
	"github.com/octabyte/pharmacy-session/login"
	"github.com/octabyte/pharmacy-session/navigation"
	"github.com/octabyte/pharmacy-session/otel"
	"github.com/octabyte/pharmacy-session/otel/metrics"
	"github.com/octabyte/pharmacy-session/session"
	"github.com/octabyte/pharmacy-session/storage"
	"github.com/octabyte/pharmacy-session/utils/logger"
)

type command string

const (
	commandLogin    command = "login"
	commandLogout   command = "logout"
	commandStatus   command = "status"
	commandWhoami   command = "whoami"
	commandProducts command = "products"
)

const shutdownTimeout = 2 * time.Second

var errUsage = errors.New("usage: pharmacy-session <login|logout|status|whoami|products> [flags]")

func parseCommand(args []string) (command, []string, error) {
	if len(args) == 0 {
		return "", nil, errUsage
	}
	switch c := command(args[0]); c {
	case commandLogin, commandLogout, commandStatus, commandWhoami, commandProducts:
		return c, args[1:], nil
	default:
		return "", nil, fmt.Errorf("unknown command %q: %w", args[0], errUsage)
	}
}

type app struct {
	out        io.Writer
	store      *session.Store
	controller *login.Controller
	products   *catalog.Products
	close      func() error
}

func newApp(ctx context.Context, cfg *config.Config, out io.Writer) (*app, error) {
	st, closeStorage, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("open session storage: %w", err)
	}

	navigator := navigation.Chain(
		navigation.LogNavigator{},
		navigation.NavigatorFunc(func(_ context.Context, route string) {
			fmt.Fprintf(out, "-> %s\n", route)
		}),
	)

	backend := session.NewBackendAuthenticator(client.New(cfg.API, nil))
	store := session.NewStore(ctx, st, backend, navigator, cfg.SessionOptions()...)
	authorized := client.NewAuthorized(cfg.API, store, navigator, nil)

	return &app{
		out:        out,
		store:      store,
		controller: login.NewController(store, navigator),
		products:   catalog.NewProducts(authorized),
		close:      closeStorage,
	}, nil
}

func run(ctx context.Context, args []string, out io.Writer) error {
	cmd, rest, err := parseCommand(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Logger()); err != nil {
		return err
	}
	defer logger.Sync()

	shutdownTelemetry, err := otel.Init(ctx, cfg.Telemetry)
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := shutdownTelemetry(ctx); err != nil {
			logger.LogWarn("telemetry shutdown failed", zap.Error(err))
		}
	}()

	if err := metrics.Init(cfg.AppName); err != nil {
		logger.LogWarnf("metrics disabled: %v", err)
	}

	a, err := newApp(ctx, cfg, out)
	if err != nil {
		return err
	}
	defer func() { _ = a.close() }()

	switch cmd {
	case commandLogin:
		return a.login(ctx, rest)
	case commandLogout:
		a.store.Logout(ctx)
		fmt.Fprintln(out, "signed out")
		return nil
	case commandStatus:
		return a.status()
	case commandWhoami:
		return a.whoami()
	case commandProducts:
		return a.listProducts(ctx)
	}
	return errUsage
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet(string(commandLogin), flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	returnURL := fs.String("return", "", "route to continue at after signing in")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if a.controller.Open(ctx, *returnURL) {
		fmt.Fprintln(a.out, "already signed in")
		return nil
	}

	res := a.controller.Submit(ctx, login.Form{Email: *email, Password: *password}, *returnURL)
	if !res.OK {
		for _, fe := range res.FieldErrors {
			fmt.Fprintf(a.out, "%s: failed %s\n", fe.Field, fe.Rule)
		}
		if res.Message != "" {
			return errors.New(res.Message)
		}
		return res.Err
	}

	if u := a.store.CurrentUser(); u != nil {
		fmt.Fprintf(a.out, "signed in as %s (role %d)\n", u.FullName(), u.RoleID)
	} else {
		fmt.Fprintln(a.out, "signed in")
	}
	return nil
}

func (a *app) status() error {
	if !a.store.IsAuthenticated() {
		if a.store.Token() != "" {
			fmt.Fprintln(a.out, "session expired")
		} else {
			fmt.Fprintln(a.out, "signed out")
		}
		return nil
	}

	fmt.Fprintln(a.out, "signed in")
	if payload := a.store.TokenPayload(); payload != nil {
		if exp, ok := payload.ExpiresAt(); ok {
			fmt.Fprintf(a.out, "expires %s\n", exp.UTC().Format(time.RFC3339))
		}
	} else {
		fmt.Fprintln(a.out, "demo session, no expiry")
	}
	return nil
}

func (a *app) whoami() error {
	u := a.store.CurrentUser()
	if u == nil {
		fmt.Fprintln(a.out, "no cached user")
		return nil
	}
	fmt.Fprintf(a.out, "%s <%s> role %d\n", u.FullName(), u.Email, u.RoleID)
	return nil
}

func (a *app) listProducts(ctx context.Context) error {
	products, err := a.products.All(ctx)
	if err != nil {
		var apiErr *catalog.APIError
		if errors.As(err, &apiErr) && apiErr.Unauthorized() {
			return errors.New("session ended by the backend, sign in again")
		}
		return err
	}

	w := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSTOCK")
	for _, p := range products {
		fmt.Fprintf(w, "%d\t%s\t%d\n", p.ID, p.Name, p.Stock())
	}
	return w.Flush()
}
