package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	ntf "github.com/go-pkgz/notify"
	"github.com/robfig/cron/v3"
	"github.com/umputun/go-flags"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/feligres/feligres/app/health"
	"github.com/feligres/feligres/app/jobs"
	"github.com/feligres/feligres/app/notify"
	"github.com/feligres/feligres/app/seed"
	"github.com/feligres/feligres/app/store"
	"github.com/feligres/feligres/app/store/enums"
	"github.com/feligres/feligres/app/uploads"
	"github.com/feligres/feligres/app/web"
)

var opts struct {
	Listen  string `short:"l" long:"listen" env:"FELIGRES_LISTEN" default:"127.0.0.1:8080" description:"web server listen address"`
	BaseURL string `long:"base-url" env:"FELIGRES_BASE_URL" default:"http://localhost:8080" description:"public url, used in notification links"`
	Dbg     bool   `long:"dbg" env:"FELIGRES_DEBUG" description:"debug mode"`

	DB struct {
		DSN string `long:"dsn" env:"DSN" default:"feligres.db" description:"sqlite file or postgres:// url"`
	} `group:"db" namespace:"db" env-namespace:"FELIGRES_DB"`

	Web struct {
		Secret        string        `long:"secret" env:"SECRET" description:"session signing key, at least 16 characters"`
		LoginTTL      time.Duration `long:"login-ttl" env:"LOGIN_TTL" default:"24h" description:"session lifetime"`
		LoginRate     float64       `long:"login-rate" env:"LOGIN_RATE" default:"1" description:"login attempts per second per client"`
		SecureCookies bool          `long:"secure-cookies" env:"SECURE_COOKIES" description:"always mark session cookie secure"`
	} `group:"web" namespace:"web" env-namespace:"FELIGRES_WEB"`

	Uploads struct {
		Dir     string `long:"dir" env:"DIR" default:"uploads" description:"directory for photos and evidencias"`
		MaxSize int64  `long:"max-size" env:"MAX_SIZE" default:"5242880" description:"max upload size in bytes"`
	} `group:"uploads" namespace:"uploads" env-namespace:"FELIGRES_UPLOADS"`

	Admin struct {
		Email    string `long:"email" env:"EMAIL" description:"admin created on first start, when no users exist"`
		Password string `long:"password" env:"PASSWORD" description:"password of the first admin"`
		FullName string `long:"name" env:"NAME" default:"Administrador" description:"name of the first admin"`
	} `group:"admin" namespace:"admin" env-namespace:"FELIGRES_ADMIN"`

	Seed struct {
		File string `long:"file" env:"FILE" description:"catalog yaml with sedes, escalas, ministerios and categorias"`
	} `group:"seed" namespace:"seed" env-namespace:"FELIGRES_SEED"`

	Jobs struct {
		Spec     string `long:"spec" env:"SPEC" default:"@hourly" description:"schedule of actividad estado refresh"`
		TimeZone string `long:"tz" env:"TZ" default:"America/Bogota" description:"time zone for actividad dates"`
	} `group:"jobs" namespace:"jobs" env-namespace:"FELIGRES_JOBS"`

	Health struct {
		CPU      int     `long:"cpu" env:"CPU" default:"90" description:"cpu percent reported as degraded"`
		Memory   int     `long:"memory" env:"MEMORY" default:"90" description:"memory percent reported as degraded"`
		LoadAvg  float64 `long:"load-avg" env:"LOAD_AVG" description:"1 minute load reported as degraded, 0 to skip"`
		DiskFree int     `long:"disk-free" env:"DISK_FREE" default:"10" description:"disk free percent reported as degraded"`
		DiskPath string  `long:"disk-path" env:"DISK_PATH" default:"/" description:"path checked for disk free"`
	} `group:"health" namespace:"health" env-namespace:"FELIGRES_HEALTH"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"write logs to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"logs/feligres.log" description:"log file"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"100" description:"max log file size in megabytes"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"7" description:"max number of rotated files"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"max days to keep rotated files, 0 keeps all"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"gzip rotated files"`
	} `group:"log" namespace:"log" env-namespace:"FELIGRES_LOG"`

	Notify struct {
		EnabledCreated  bool          `long:"enabled-created" env:"ENABLED_CREATED" description:"notify new transacciones"`
		EnabledAnulada  bool          `long:"enabled-anulada" env:"ENABLED_ANULADA" description:"notify annulled transacciones"`
		SMTPHost        string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort        int           `long:"smtp-port" env:"SMTP_PORT" default:"25" description:"SMTP port"`
		SMTPUsername    string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword    string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS         bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPStartTLS    bool          `long:"smtp-starttls" env:"SMTP_STARTTLS" description:"enable SMTP StartTLS"`
		SMTPTimeOut     time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		FromEmail       string        `long:"from" env:"FROM" description:"SMTP from email"`
		ToEmails        []string      `long:"to" env:"TO" description:"SMTP to email(s)" env-delim:","`
		CreatedTemplate string        `long:"created-template" env:"CREATED_TEMPLATE" description:"html template of created notice"`
		AnuladaTemplate string        `long:"anulada-template" env:"ANULADA_TEMPLATE" description:"html template of anulada notice"`
		HostName        string        `long:"host" env:"HOSTNAME" description:"host name running feligres"`
	} `group:"notify" namespace:"notify" env-namespace:"FELIGRES_NOTIFY"`
}

var revision = "unknown"

func main() {
	fmt.Printf("feligres %s\n", revision)

	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(2)
	}
	logOut := setupLogs()
	if closer, ok := logOut.(io.Closer); ok {
		defer closer.Close() //nolint:errcheck // flushed on exit
	}

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel) // handle SIGQUIT and SIGTERM

	if err := run(ctx); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

// run opens the store, applies the catalog, starts jobs and blocks on the web server until ctx canceled
func run(ctx context.Context) error {
	st, err := store.Open(ctx, opts.DB.DSN)
	if err != nil {
		return fmt.Errorf("can't open store: %w", err)
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Printf("[WARN] failed to close store: %v", err)
		}
	}()

	if opts.Seed.File != "" {
		catalog, err := seed.Load(opts.Seed.File)
		if err != nil {
			return fmt.Errorf("can't load catalog: %w", err)
		}
		res, err := seed.Apply(ctx, st, catalog)
		if err != nil {
			return fmt.Errorf("can't apply catalog: %w", err)
		}
		log.Printf("[INFO] catalog applied, %+v", res)
	}

	if err := bootstrapAdmin(ctx, st); err != nil {
		return err
	}

	up, err := uploads.New(opts.Uploads.Dir, opts.Uploads.MaxSize)
	if err != nil {
		return fmt.Errorf("can't prepare uploads: %w", err)
	}

	loc, err := time.LoadLocation(opts.Jobs.TimeZone)
	if err != nil {
		log.Printf("[WARN] unknown time zone %q, using local: %v", opts.Jobs.TimeZone, err)
		loc = time.Local
	}
	sched := jobs.Scheduler{Cron: cron.New(cron.WithLocation(loc)), Refresher: st, Spec: opts.Jobs.Spec, Location: loc}
	ctx, cancel := context.WithCancel(ctx)
	jobsDone := make(chan struct{})
	go func() {
		defer close(jobsDone)
		if err := sched.Do(ctx); err != nil {
			log.Printf("[WARN] jobs scheduler stopped: %v", err)
		}
	}()
	defer func() { // store is closed after jobs are done
		cancel()
		<-jobsDone
	}()

	cfg := web.Config{
		Store:          st,
		Uploads:        up,
		Secret:         opts.Web.Secret,
		LoginTTL:       opts.Web.LoginTTL,
		LoginRateLimit: opts.Web.LoginRate,
		SecureCookies:  opts.Web.SecureCookies,
		Version:        revision,
		Hostname:       makeHostName(),
		MaxUploadSize:  opts.Uploads.MaxSize,
		Location:       loc,
		Thresholds: health.Thresholds{CPUBelow: opts.Health.CPU, MemoryBelow: opts.Health.Memory,
			LoadAvgBelow: opts.Health.LoadAvg, DiskFreeAbove: opts.Health.DiskFree, DiskPath: opts.Health.DiskPath},
	}
	if n := makeNotifier(); n != nil {
		cfg.Notifier = n
	}

	srv, err := web.New(cfg)
	if err != nil {
		return err
	}
	return srv.Run(ctx, opts.Listen)
}

// bootstrapAdmin creates the configured admin when the users table is empty
func bootstrapAdmin(ctx context.Context, st *store.Store) error {
	count, err := st.CountUsers(ctx)
	if err != nil {
		return fmt.Errorf("can't count users: %w", err)
	}
	if count > 0 {
		return nil
	}
	if opts.Admin.Email == "" || opts.Admin.Password == "" {
		log.Printf("[WARN] no users defined, set --admin.email and --admin.password to create the first admin")
		return nil
	}
	if len(opts.Admin.Password) < 8 {
		return errors.New("admin password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(opts.Admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("can't hash admin password: %w", err)
	}
	u := store.User{Email: opts.Admin.Email, PasswordHash: string(hash), FullName: opts.Admin.FullName, Role: enums.RoleAdmin}
	if err := st.CreateUser(ctx, &u); err != nil {
		return fmt.Errorf("can't create admin: %w", err)
	}
	log.Printf("[INFO] admin %s created", u.Email)
	return nil
}

func makeNotifier() *notify.Service {
	if !opts.Notify.EnabledCreated && !opts.Notify.EnabledAnulada {
		return nil
	}
	if opts.Notify.FromEmail == "" {
		opts.Notify.FromEmail = "feligres@" + makeHostName()
	}

	return notify.NewService(notify.Params{
		EnabledCreated:  opts.Notify.EnabledCreated,
		EnabledAnulada:  opts.Notify.EnabledAnulada,
		CreatedTemplate: opts.Notify.CreatedTemplate,
		AnuladaTemplate: opts.Notify.AnuladaTemplate,
		BaseURL:         validateBaseURL(opts.BaseURL),
		TimeOut:         opts.Notify.SMTPTimeOut,
	}, notify.SendersParams{
		SMTPParams: ntf.SMTPParams{
			Host:        opts.Notify.SMTPHost,
			Port:        opts.Notify.SMTPPort,
			TLS:         opts.Notify.SMTPTLS,
			StartTLS:    opts.Notify.SMTPStartTLS,
			Username:    opts.Notify.SMTPUsername,
			Password:    opts.Notify.SMTPPassword,
			TimeOut:     opts.Notify.SMTPTimeOut,
			ContentType: "text/html",
			Charset:     "UTF-8",
		},
		FromEmail: opts.Notify.FromEmail,
		ToEmails:  opts.Notify.ToEmails,
	})
}

func makeHostName() string {
	if opts.Notify.HostName != "" {
		return opts.Notify.HostName
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// validateBaseURL drops the trailing slash, "/" becomes empty
func validateBaseURL(u string) string {
	return strings.TrimSuffix(strings.TrimSpace(u), "/")
}

// setupLogs configures lgr and returns the writer used, a rotating file when enabled
func setupLogs() io.Writer {
	var out io.Writer = os.Stdout
	if opts.Log.Enabled {
		out = &lumberjack.Logger{
			Filename:   opts.Log.Filename,
			MaxSize:    opts.Log.MaxSize,
			MaxBackups: opts.Log.MaxBackups,
			MaxAge:     opts.Log.MaxAge,
			Compress:   opts.Log.EnabledCompress,
		}
	}

	secrets := []string{}
	for _, v := range []string{opts.Web.Secret, opts.Admin.Password, opts.Notify.SMTPPassword} {
		if v != "" {
			secrets = append(secrets, v)
		}
	}
	logOpts := []log.Option{log.Msec, log.Out(out), log.Err(out), log.Secret(secrets...)}
	if opts.Dbg {
		logOpts = append(logOpts, log.Debug, log.CallerFile, log.CallerFunc)
	}
	log.Setup(logOpts...)
	return out
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			log.Printf("[INFO] got %s, shutting down", sig)
			cancel()
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
