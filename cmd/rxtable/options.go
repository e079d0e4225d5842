package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/thywilljoshua/rxtable/internal/ai"
	"github.com/thywilljoshua/rxtable/internal/config"
	"github.com/thywilljoshua/rxtable/internal/convert"
	"github.com/thywilljoshua/rxtable/internal/logging"
	"github.com/thywilljoshua/rxtable/internal/publish"
)

type options struct {
	configPath  string
	extractor   string
	font        string
	blobStore   string
	userStore   string
	bucket      string
	credentials string
	localDir    string
	postgresDSN string
	redisAddr   string
	aiProvider  string
	aiModel     string
	logLevel    string
	logFormat   string
}

func (o *options) bindPersistent(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringVar(&o.configPath, "config", "", "YAML config file")
	f.StringVar(&o.extractor, "extractor", "fitz", "PDF text extractor: fitz|pure")
	f.StringVar(&o.font, "font", "", "TrueType/OpenType font file (default: embedded Go Regular)")
	f.StringVar(&o.blobStore, "blob-store", "firebase", "where images go: firebase|local")
	f.StringVar(&o.userStore, "user-store", "firestore", "where user records go: firestore|postgres|redis|none")
	f.StringVar(&o.bucket, "bucket", "", "Firebase storage bucket")
	f.StringVar(&o.credentials, "credentials", "app.json", "Firebase service account file")
	f.StringVar(&o.localDir, "local-dir", "out", "root directory for --blob-store local")
	f.StringVar(&o.postgresDSN, "postgres-dsn", "", "Postgres DSN for --user-store postgres")
	f.StringVar(&o.redisAddr, "redis-addr", "", "Redis address for --user-store redis")
	f.StringVar(&o.aiProvider, "ai", "off", "AI fallback when no medication block parses: off|gemini")
	f.StringVar(&o.aiModel, "ai-model", "", "Gemini model (default "+ai.DefaultModel+")")
	f.StringVar(&o.logLevel, "log-level", "info", "debug|info|warn|error")
	f.StringVar(&o.logFormat, "log-format", "console", "console|json")
}

// load layers explicitly set flags over the config file and environment.
func (o *options) load(cmd *cobra.Command, publishing bool) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	set := func(name string, dst *string, v string) {
		if flags.Changed(name) {
			*dst = v
		}
	}
	set("extractor", &cfg.Extractor, o.extractor)
	set("font", &cfg.FontPath, o.font)
	set("blob-store", &cfg.Publish.BlobStore, o.blobStore)
	set("user-store", &cfg.Publish.UserStore, o.userStore)
	set("bucket", &cfg.Publish.Firebase.Bucket, o.bucket)
	set("credentials", &cfg.Publish.Firebase.CredentialsFile, o.credentials)
	set("local-dir", &cfg.Publish.LocalDir, o.localDir)
	set("postgres-dsn", &cfg.Publish.PostgresDSN, o.postgresDSN)
	set("redis-addr", &cfg.Publish.Redis.Addr, o.redisAddr)
	set("ai", &cfg.AI.Provider, strings.ToLower(o.aiProvider))
	set("ai-model", &cfg.AI.Model, o.aiModel)
	set("log-level", &cfg.Log.Level, o.logLevel)
	set("log-format", &cfg.Log.Format, o.logFormat)

	if err := cfg.Validate(publishing); err != nil {
		return nil, err
	}
	return cfg, nil
}

type app struct {
	cfg     *config.Config
	log     zerolog.Logger
	conv    convert.Config
	closers []func() error
}

func (o *options) setup(cmd *cobra.Command, publishing bool) (*app, error) {
	cfg, err := o.load(cmd, publishing)
	if err != nil {
		return nil, err
	}
	logCfg := cfg.Log
	logCfg.Output = cmd.ErrOrStderr()
	log := logging.New(logCfg)

	ext, err := convert.NewExtractor(cfg.Extractor)
	if err != nil {
		return nil, err
	}
	var enhancer ai.Enhancer = ai.Noop{}
	if cfg.AI.Provider == "gemini" {
		g, err := ai.NewGemini(cmd.Context(), cfg.AI.APIKey, cfg.AI.Model)
		if err != nil {
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		enhancer = g
	}
	return &app{
		cfg: cfg,
		log: log,
		conv: convert.Config{
			Extractor: ext,
			Face:      convert.LoadFace(cfg.FontPath, cfg.FontSize, log),
			Enhancer:  enhancer,
			Logger:    log,
		},
	}, nil
}

// publisher wires the configured blob and user stores.
func (a *app) publisher(ctx context.Context) (publish.Publisher, error) {
	pc := a.cfg.Publish
	var fb *publish.Firebase
	firebaseApp := func() (*publish.Firebase, error) {
		if fb != nil {
			return fb, nil
		}
		f, err := publish.NewFirebase(ctx, pc.Firebase)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f.Close)
		fb = f
		return f, nil
	}

	comp := &publish.Composite{Logger: a.log}
	switch pc.BlobStore {
	case "firebase":
		f, err := firebaseApp()
		if err != nil {
			return nil, err
		}
		if comp.Blobs, err = f.BlobStore(ctx); err != nil {
			return nil, err
		}
	case "local":
		s, err := publish.NewLocalBlobStore(pc.LocalDir)
		if err != nil {
			return nil, err
		}
		comp.Blobs = s
	}

	switch pc.UserStore {
	case "firestore":
		f, err := firebaseApp()
		if err != nil {
			return nil, err
		}
		if comp.Users, err = f.UserStore(ctx, pc.Firebase.UsersCollection); err != nil {
			return nil, err
		}
	case "postgres":
		db, err := publish.OpenPostgres(ctx, pc.PostgresDSN)
		if err != nil {
			return nil, err
		}
		s := publish.NewPostgresUserStore(db)
		a.closers = append(a.closers, s.Close)
		if err := s.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		comp.Users = s
	case "redis":
		s, err := publish.NewRedisUserStore(ctx, pc.Redis)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, s.Close)
		comp.Users = s
	case "none":
		comp.Users = publish.NoopUserStore{}
	}
	return comp, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warn().Err(err).Msg("close failed")
		}
	}
}
