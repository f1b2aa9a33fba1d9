package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/client"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/favorites"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/logging"
	"github.com/ahmetcoskunkizilkaya/estate-backend/internal/session"
)

const usage = `usage: estatectl [-config path] [-v] <command> [args]

commands:
  signup -email E -password P [-name N]
  login -email E -password P
  logout
  whoami
  confirm <landing-url>
  resend -email E
  recover -email E
  reset -token T -password P
  passwd -password P
  properties [-city C] [-operation sale|rent] [-kind K] [-limit N]
  favorites [list | toggle <id> | clear]
  settings
`

// app wires one invocation of the CLI.
type app struct {
	cfg       cliConfig
	log       *slog.Logger
	api       *client.Client
	auth      *session.Store
	favorites *favorites.Store
	local     *session.FileStorage
}

func main() {
	_ = godotenv.Load()

	configPath := flag.String("config", "", "path to estatectl.toml (default: <state dir>/estatectl.toml)")
	verbose := flag.Bool("v", false, "debug logging")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logging.New(os.Stderr, level)

	path := *configPath
	if path == "" {
		path = filepath.Join(defaultConfig().StateDir, "estatectl.toml")
	}
	cfg, err := loadConfig(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "estatectl: %v\n", err)
		os.Exit(1)
	}

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "estatectl: %v\n", err)
		os.Exit(1)
	}
	err = a.run(ctx, flag.Arg(0), flag.Args()[1:])
	a.saveCookies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "estatectl: %v\n", err)
		os.Exit(1)
	}
}

func newApp(cfg cliConfig, log *slog.Logger) (*app, error) {
	auth := session.NewStore(session.NewFilePersister(cfg.authFile()), log)
	if err := auth.Rehydrate(); err != nil {
		log.Warn("could not restore saved session", "error", err)
	}

	api, err := client.New(cfg.APIURL,
		client.WithTokenSource(auth),
		client.WithLocale(cfg.Locale),
		client.WithLogger(log),
	)
	if err != nil {
		return nil, err
	}
	if err := session.LoadCookies(api.Jar(), api.BaseURL(), cfg.cookieFile()); err != nil {
		log.Warn("could not restore cookies", "error", err)
	}

	return &app{
		cfg:       cfg,
		log:       log,
		api:       api,
		auth:      auth,
		favorites: favorites.New(api, log),
		local:     session.NewFileStorage(cfg.localDir()),
	}, nil
}

// saveCookies keeps the jar between invocations so logout can expire what
// earlier commands received.
func (a *app) saveCookies() {
	if err := session.SaveCookies(a.api.Jar(), a.api.BaseURL(), a.cfg.cookieFile()); err != nil {
		a.log.Warn("could not save cookies", "error", err)
	}
}

func (a *app) run(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "signup":
		return a.signUp(ctx, args)
	case "login":
		return a.login(ctx, args)
	case "logout":
		return a.logout(ctx)
	case "whoami":
		return a.whoami(ctx)
	case "confirm":
		return a.confirm(ctx, args)
	case "resend", "recover":
		return a.emailLink(ctx, cmd, args)
	case "reset":
		return a.reset(ctx, args)
	case "passwd":
		return a.passwd(ctx, args)
	case "properties":
		return a.properties(ctx, args)
	case "favorites":
		return a.favoritesCmd(ctx, args)
	case "settings":
		settings, err := a.api.Settings(ctx)
		if err != nil {
			return err
		}
		return printJSON(settings)
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func (a *app) signUp(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	name := fs.String("name", "", "display name")
	redirect := fs.String("redirect", "", "where the confirmation link lands")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := a.api.SignUp(ctx, dto.SignUpRequest{Email: *email, Password: *password, DisplayName: *name, RedirectTo: *redirect})
	if err != nil {
		return err
	}
	fmt.Println(resp.Message)
	return nil
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a.auth.SetLoading(true)
	resp, err := a.api.Login(ctx, *email, *password)
	if err != nil {
		a.auth.SetLoading(false)
		return err
	}

	redirect := session.HomePath
	if resp.User.IsAdmin {
		redirect = session.AdminDashboardPath
	}
	a.auth.Login(resp.User, session.Tokens{
		AccessToken:  resp.AccessToken,
		RefreshToken: resp.RefreshToken,
		ExpiresAt:    resp.ExpiresAt,
	}, redirect)
	if a.cfg.Locale != "" {
		if err := a.local.Set("locale", a.cfg.Locale); err != nil {
			a.log.Warn("could not save locale", "error", err)
		}
	}

	next, _ := a.auth.ConsumeLoginSuccess()
	fmt.Printf("signed in as %s (next: %s)\n", resp.User.Email, next)
	return nil
}

func (a *app) logout(ctx context.Context) error {
	cleaner := session.NewCleaner(session.CleanerConfig{
		Backend:     a.api,
		Store:       a.auth,
		Local:       a.local,
		Session:     session.NewMemoryStorage(),
		Cookies:     session.NewCookieStore(a.api.Jar(), a.api.BaseURL()),
		Caches:      []session.NamedStore{session.NewDirStore(a.cfg.cacheDir())},
		AuthMarkers: a.cfg.AuthMarkers,
		NameMarkers: a.cfg.NameMarkers,
		ReloadDelay: a.cfg.ReloadDelay,
		Reload: func() {
			if err := a.auth.Rehydrate(); err != nil {
				a.log.Warn("reload failed", "error", err)
			}
		},
		Logger: a.log,
	})

	report := cleaner.Logout(ctx)
	for _, e := range report.Errors {
		fmt.Fprintf(os.Stderr, "warning: %v\n", e)
	}
	fmt.Println("signed out")
	return nil
}

func (a *app) whoami(ctx context.Context) error {
	if !a.auth.Snapshot().IsAuthenticated {
		return errors.New("not signed in")
	}
	profile, err := a.api.Session(ctx)
	if err != nil {
		return err
	}
	a.auth.UpdateProfile(*profile)
	return printJSON(profile)
}

func (a *app) confirm(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("confirm needs the landing url")
	}
	confirmer := session.NewConfirmer(a.api, a.auth, a.log,
		session.WithSuccessDelay(a.cfg.ConfirmDelay),
		session.WithStateObserver(func(s session.ConfirmState) {
			a.log.Debug("confirmation state", "state", string(s))
		}),
	)

	res := confirmer.Confirm(ctx, args[0])
	if res.State == session.StateError {
		return res.Err
	}
	fmt.Printf("%s -> %s\n", res.State, res.Redirect)
	return nil
}

func (a *app) emailLink(ctx context.Context, cmd string, args []string) error {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	email := fs.String("email", "", "email address")
	redirect := fs.String("redirect", "", "where the link lands")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var err error
	if cmd == "resend" {
		err = a.api.ResendConfirmation(ctx, *email, *redirect)
	} else {
		err = a.api.RequestPasswordReset(ctx, *email, *redirect)
	}
	if err != nil {
		return err
	}
	fmt.Println("if the account exists, an email is on its way")
	return nil
}

func (a *app) reset(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reset", flag.ContinueOnError)
	token := fs.String("token", "", "token from the reset link")
	password := fs.String("password", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.api.ResetPassword(ctx, *token, *password); err != nil {
		return err
	}
	fmt.Println("password updated, sign in again")
	return nil
}

func (a *app) passwd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("passwd", flag.ContinueOnError)
	password := fs.String("password", "", "new password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := a.api.UpdatePassword(ctx, *password); err != nil {
		return err
	}
	fmt.Println("password updated")
	return nil
}

func (a *app) properties(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("properties", flag.ContinueOnError)
	var f dto.PropertyFilter
	fs.StringVar(&f.City, "city", "", "city")
	fs.StringVar(&f.Operation, "operation", "", "sale or rent")
	fs.StringVar(&f.Kind, "kind", "", "house, apartment, land or commercial")
	fs.StringVar(&f.Query, "q", "", "free text")
	fs.IntVar(&f.Limit, "limit", 20, "page size")
	fs.IntVar(&f.Offset, "offset", 0, "page offset")
	if err := fs.Parse(args); err != nil {
		return err
	}

	resp, err := a.api.ListProperties(ctx, f)
	if err != nil {
		return err
	}
	return printJSON(resp)
}

func (a *app) favoritesCmd(ctx context.Context, args []string) error {
	unbind := a.favorites.Bind(ctx, a.auth)
	defer unbind()

	if !a.auth.Snapshot().IsAuthenticated {
		return favorites.ErrNotAuthenticated
	}

	sub := "list"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "list":
		if err := a.favorites.Load(ctx); err != nil {
			return err
		}
		return printJSON(a.favorites.IDs())
	case "toggle":
		if len(args) != 2 {
			return errors.New("favorites toggle needs a property id")
		}
		on, err := a.favorites.Toggle(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s favorite: %t\n", args[1], on)
		return nil
	case "clear":
		if err := a.favorites.Clear(ctx); err != nil {
			return err
		}
		fmt.Println("favorites cleared")
		return nil
	default:
		return fmt.Errorf("unknown favorites command %q", sub)
	}
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
