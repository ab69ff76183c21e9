package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	libOTP "github.com/pquerna/otp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/otpgate/internal/pkg/clock"
	"github.com/shandysiswandi/otpgate/internal/pkg/config"
	"github.com/shandysiswandi/otpgate/internal/pkg/goroutine"
	"github.com/shandysiswandi/otpgate/internal/pkg/hash"
	"github.com/shandysiswandi/otpgate/internal/pkg/instrument"
	"github.com/shandysiswandi/otpgate/internal/pkg/jwt"
	"github.com/shandysiswandi/otpgate/internal/pkg/lock"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/migrate"
	"github.com/shandysiswandi/otpgate/internal/pkg/otp"
	"github.com/shandysiswandi/otpgate/internal/pkg/router"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
	"github.com/shandysiswandi/otpgate/internal/pkg/uid"
	"github.com/shandysiswandi/otpgate/internal/pkg/validator"
	"github.com/shandysiswandi/otpgate/migrations"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const scopePubSub = "https://www.googleapis.com/auth/pubsub"

func (a *App) initConfig() {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = "/config/config.yaml"
		if os.Getenv("LOCAL") == "true" {
			path = "./config/config.yaml"
		}
	}

	cfg, err := config.NewViper(path)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("app.tz"))

	a.config = cfg
}

func (a *App) initInstrument() {
	ins, err := instrument.New(context.Background(), instrument.Config{
		Enabled:          a.config.GetBool("instrument.enabled"),
		ServiceName:      a.config.GetString("instrument.service_name"),
		ServiceVersion:   a.config.GetString("instrument.service_version"),
		Environment:      a.config.GetString("instrument.env"),
		OTLPEndpoint:     a.config.GetString("instrument.otlp_endpoint"),
		OTLPSecure:       a.config.GetBool("instrument.otlp_secure"),
		TraceSampleRatio: a.config.GetFloat64("instrument.trace_sample_ratio"),
		MetricsInterval:  a.config.GetSecond("instrument.metric_interval_seconds"),
		LogLevel:         a.config.GetString("instrument.log_level"),
		MaskFields:       a.config.GetArray("instrument.log_mask_fields"),
	})
	if err != nil {
		slog.Error("failed to init instrumentation", "error", err)
		os.Exit(1)
	}
	a.ins = ins
}

func (a *App) initLibraries() {
	a.clock = clock.New()
	a.uuid = uid.NewUUID()
	a.opaque = uid.NewOpaque()
	a.goroutine = goroutine.NewManager(a.config.GetInt("app.server.max_goroutine"))
	a.hmac = hash.NewHMACSHA256(a.config.GetString("hash.hmac.secret"))
	a.password = hash.NewPassword(
		hash.NewBcrypt(a.config.GetInt("hash.bcrypt.cost"), a.config.GetString("hash.bcrypt.pepper")),
		hash.NewArgon2id(a.config.GetString("hash.argon2id.pepper")),
	)
	a.otp = otp.NewNumeric(libOTP.DigitsSix)

	validator, err := validator.NewV10Validator()
	if err != nil {
		slog.Error("failed to init validation v10 validator", "error", err)
		os.Exit(1)
	}
	a.validator = validator

	snow, err := uid.NewSnowflake(a.config.GetInt64("app.node_id"))
	if err != nil {
		slog.Error("failed to init uid number snowflake", "error", err)
		os.Exit(1)
	}
	a.uid = snow
}

func (a *App) initJWT() {
	defaultJWT, err := jwt.NewHS512(jwt.Config{
		Secret:    []byte(a.config.GetString("jwt.secret")),
		Issuer:    a.config.GetString("jwt.issuer"),
		Audiences: a.config.GetArray("jwt.audiences"),
		TTL:       a.config.GetMinute("jwt.ttl_minutes"),
		Clock:     a.clock,
		ID:        a.uuid,
	})
	if err != nil {
		slog.Error("failed to init jwt token", "error", err)
		os.Exit(1)
	}
	a.jwt = defaultJWT
}

func (a *App) initDatabase() {
	config, err := pgxpool.ParseConfig(a.config.GetString("database.url"))
	if err != nil {
		slog.Error("failed to parse DB connection string.", "error", err)
		os.Exit(1)
	}

	config.MaxConns = a.config.GetInt32("database.pool.max_conns")
	config.MinConns = a.config.GetInt32("database.pool.min_conns")
	config.MaxConnLifetime = a.config.GetSecond("database.pool.max_conn_lifetime_seconds")
	config.MaxConnIdleTime = a.config.GetSecond("database.pool.max_conn_idle_seconds")
	config.HealthCheckPeriod = a.config.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, config)
	if err != nil {
		slog.Error("failed to create DB connection pool", "error", err)
		os.Exit(1)
	}

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		slog.Error("failed to ping DB", "error", err)
		os.Exit(1)
	}

	if a.config.GetBool("database.migrate") {
		if err := migrate.Up(a.ctx, pool, migrations.FS); err != nil {
			slog.Error("failed to run DB migrations", "error", err)
			os.Exit(1)
		}
	}

	a.dbConn = pool
}

func (a *App) initCache() {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		slog.Error("failed to parse redis url", "error", err)
		os.Exit(1)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(a.ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		slog.Error("failed to init redis", "error", err)
		os.Exit(1)
	}

	a.cacheConn = rdb
	a.locker = lock.NewRedis(rdb, lock.Config{
		Prefix:        a.config.GetString("modules.identity.lock.prefix"),
		TTL:           a.config.GetSecond("modules.identity.lock.ttl_seconds"),
		RetryInterval: time.Duration(a.config.GetInt("modules.identity.lock.retry_interval_ms")) * time.Millisecond,
		MaxRetries:    uint64(max(a.config.GetInt("modules.identity.lock.max_retries"), 0)),
	})
}

func (a *App) initMail() {
	mail, err := mail.NewSMTP(mail.SMTPConfig{
		Host:     a.config.GetString("mail.host"),
		Port:     a.config.GetInt("mail.port"),
		Username: a.config.GetString("mail.username"),
		Password: a.config.GetString("mail.password"),
		From:     a.config.GetString("mail.from"),
	})
	if err != nil {
		slog.Error("failed to init mail", "error", err)
		os.Exit(1)
	}

	a.mail = mail
}

// googleOptions builds client options from the credentials and endpoint keys
// under prefix.
func (a *App) googleOptions(prefix, scope string) []option.ClientOption {
	opts := []option.ClientOption{}
	if a.config.GetBool(prefix + ".without_auth") {
		opts = append(opts, option.WithoutAuthentication())
	}

	credsJSON := a.config.GetBinary(prefix + ".credentials_json")
	if v := strings.TrimSpace(a.config.GetString(prefix + ".credentials_file")); v != "" {
		// #nosec G304 -- path is from trusted config file.
		b, err := os.ReadFile(v)
		if err != nil {
			slog.Error("failed to read google credentials file", "prefix", prefix, "error", err)
			os.Exit(1)
		}
		credsJSON = b
	}
	if len(credsJSON) > 0 {
		creds, err := google.CredentialsFromJSON(a.ctx, credsJSON, scope)
		if err != nil {
			slog.Error("failed to parse google credentials", "prefix", prefix, "error", err)
			os.Exit(1)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	if v := strings.TrimSpace(a.config.GetString(prefix + ".endpoint")); v != "" {
		opts = append(opts, option.WithEndpoint(v))
	}

	return opts
}

// initStorage is optional. Without a driver the notification module only uses
// its built-in templates.
func (a *App) initStorage() {
	driver := strings.TrimSpace(a.config.GetString("storage.driver"))
	if driver == "" {
		return
	}

	var gcsOptions []option.ClientOption
	if driver == storage.DriverGCS {
		gcsOptions = a.googleOptions("storage.gcs", gcs.ScopeReadOnly)
	}

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       strings.TrimSpace(a.config.GetString("storage.s3.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.s3.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.s3.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.s3.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.s3.session_token")),
			UsePathStyle: a.config.GetBool("storage.s3.use_path_style"),
		},
		GCS: storage.GCSOptions{
			ClientOptions: gcsOptions,
		},
		MinIO: storage.MinIOOptions{
			Region:       strings.TrimSpace(a.config.GetString("storage.minio.region")),
			Endpoint:     strings.TrimSpace(a.config.GetString("storage.minio.endpoint")),
			AccessKey:    strings.TrimSpace(a.config.GetString("storage.minio.access_key")),
			SecretKey:    strings.TrimSpace(a.config.GetString("storage.minio.secret_key")),
			SessionToken: strings.TrimSpace(a.config.GetString("storage.minio.session_token")),
			UseSSL:       a.config.GetBool("storage.minio.use_ssl"),
		},
	})
	if err != nil {
		slog.Error("failed to init storage", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.storage = stg
}

func (a *App) initMessaging() {
	driver := a.config.GetString("messaging.driver")

	var pubsubOptions []option.ClientOption
	if driver == messaging.DriverGooglePubSub {
		pubsubOptions = a.googleOptions("messaging.pubsub", scopePubSub)
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr: a.config.GetString("messaging.nsq.producer_addr"),
			LookupdAddrs: a.config.GetArray("messaging.nsq.consumer_lookupd_addrs"),
			NSQDAddrs:    a.config.GetArray("messaging.nsq.consumer_nsqd_addrs"),
		},
		NATS: messaging.NATSConfig{
			URL:  a.config.GetString("messaging.nats.url"),
			Name: a.config.GetString("messaging.nats.name"),
			Options: []nats.Option{
				nats.MaxReconnects(a.config.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(a.config.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(a.config.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.PingInterval(a.config.GetSecond("messaging.nats.ping_interval_seconds")),
				nats.MaxPingsOutstanding(a.config.GetInt("messaging.nats.max_pings_outstanding")),
				nats.RetryOnFailedConnect(a.config.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: a.config.GetArray("messaging.kafka.brokers"),
			Dialer: &kafka.Dialer{
				ClientID:  a.config.GetString("messaging.kafka.client_id"),
				Timeout:   a.config.GetSecond("messaging.kafka.dial_timeout_seconds"),
				DualStack: true,
			},
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     a.config.GetString("messaging.pubsub.project_id"),
			ClientOptions: pubsubOptions,
		},
	})
	if err != nil {
		slog.Error("failed to init messaging", "error", err, "driver", driver)
		os.Exit(1)
	}

	a.messaging = client
}

func (a *App) initHTTPServer() {
	a.router = router.NewRouter(router.Config{
		Config:     a.config,
		UUID:       a.uuid,
		JWT:        a.jwt,
		Instrument: a.ins,
	})

	routerWithCORS := cors.New(cors.Options{
		AllowedOrigins: a.config.GetArray("app.server.cors"),
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}).Handler(a.router)

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("app.server.http.address"),
		Handler:           routerWithCORS,
		ReadTimeout:       a.config.GetSecond("app.server.http.read_timeout_seconds"),
		ReadHeaderTimeout: a.config.GetSecond("app.server.http.read_header_timeout_seconds"),
		WriteTimeout:      a.config.GetSecond("app.server.http.write_timeout_seconds"),
		IdleTimeout:       a.config.GetSecond("app.server.http.idle_timeout_seconds"),
	}
}

func (a *App) initClosers() {
	a.closers = []struct {
		name string
		fn   func(context.Context) error
	}{
		{
			name: "Instrument",
			fn: func(ctx context.Context) error {
				return a.ins.Shutdown(ctx)
			},
		},
		{
			name: "Messaging",
			fn: func(context.Context) error {
				return a.messaging.Close()
			},
		},
		{
			name: "Template",
			fn: func(context.Context) error {
				if a.template == nil {
					return nil
				}

				return a.template.Close()
			},
		},
		{
			name: "Mail",
			fn: func(context.Context) error {
				return a.mail.Close()
			},
		},
		{
			name: "Redis",
			fn: func(context.Context) error {
				return a.cacheConn.Close()
			},
		},
		{
			name: "Database",
			fn: func(context.Context) error {
				a.dbConn.Close()

				return nil
			},
		},
		{
			name: "Storage",
			fn: func(context.Context) error {
				if a.storage == nil {
					return nil
				}

				return a.storage.Close()
			},
		},
		{
			name: "Config",
			fn: func(context.Context) error {
				return a.config.Close()
			},
		},
	}
}
