package cli

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/hearthapi/hearth/internal/auth"
	"github.com/hearthapi/hearth/internal/limiter"
	"github.com/hearthapi/hearth/internal/scheduler"
	"github.com/hearthapi/hearth/internal/server"
	"github.com/hearthapi/hearth/internal/token"
)

const banner = `
 _  _ ___   _   ___ _____ _  _
| || | __| /_\ | _ \_   _| || |
| __ | _| / _ \|   / | | | __ |
|_||_|___/_/ \_\_|_\ |_| |_||_|
`

func newServeCmd() *cobra.Command {
	var (
		port int
		host string
		dev  bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the hearth API server",
		Long:  "Start the HTTP server exposing the login and posts endpoints, with the recurring token expiry sweep running alongside.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	cfg := loadConfig()
	if dev {
		cfg.Logging.Level = "debug"
	}
	logger := newLogger(cfg.Logging)

	// 1. Open the store and run migrations
	st, err := openStore(cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	logger.Info("store opened", "driver", cfg.Database.Driver)

	// 2. Credential resolution and token issuance
	resolver := auth.NewResolver(st)
	issuer := token.NewIssuer(st, cfg.Auth.TokenTTL)

	// 3. Rate-limit ledger
	limitCfg := limiter.Config{Limit: cfg.RateLimit.Limit, Window: cfg.RateLimit.Window}
	var ledger limiter.Ledger
	switch cfg.RateLimit.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RateLimit.RedisAddr})
		defer client.Close()
		ledger = limiter.NewRedisLedger(client, limitCfg)
		logger.Info("rate limiter initialized", "backend", "redis", "addr", cfg.RateLimit.RedisAddr)
	case "memory", "":
		ledger = limiter.NewMemoryLedger(limitCfg)
		logger.Info("rate limiter initialized", "backend", "memory")
	default:
		return fmt.Errorf("unknown rate limit backend %q", cfg.RateLimit.Backend)
	}

	// 4. Recurring token expiry sweep
	sweeper := token.NewSweeper(st, logger)
	sched, err := scheduler.New(sweeper, cfg.Sweep.Interval, logger)
	if err != nil {
		return fmt.Errorf("init scheduler: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// 5. Build and start HTTP server
	srvCfg := server.Config{
		Host:            cfg.Server.Host,
		Port:            cfg.Server.Port,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
		CORSOrigins:     cfg.Server.CORSOrigins,
		Version:         versionString(),
	}

	srv := server.New(srvCfg, st, resolver, issuer, ledger, logger)

	fmt.Printf("→ Hearth %s\n", versionString())
	fmt.Printf("→ Listening on http://%s:%d\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Login:   POST http://%s:%d/api/login\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Posts:   http://%s:%d/api/v1/posts\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Printf("→ Health:  http://%s:%d/health\n", cfg.Server.Host, cfg.Server.Port)
	fmt.Println()

	return srv.ListenAndServe()
}
