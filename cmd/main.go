package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/robinhoalvessb-ui/performance-gest-o/internal/adapters/mailer"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/adapters/opener"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/adapters/storage"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/config"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/handlers"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/ports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/backups"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/database"
	importitems "github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/imports"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/repository/snapshot"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/server"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/account"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/backup"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/export"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/importer"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/importer/processors"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/reminder"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/services/school"
	"github.com/robinhoalvessb-ui/performance-gest-o/internal/transport/auth"
)

func main() {
	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()
	log := config.NewLogger(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		log.WithError(err).Fatal("❌ invalid config")
	}

	setupCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := cfg.Connect(setupCtx, log); err != nil {
		log.WithError(err).Fatal("❌ connect failed")
	}
	defer cfg.Close(context.Background())

	if err := cfg.CheckConnections(setupCtx); err != nil {
		log.WithError(err).Fatal("❌ connection check failed")
	}
	log.Info("🟢 all connections OK")

	store, err := openStore(setupCtx, cfg)
	if err != nil {
		log.WithError(err).Fatal("❌ store init failed")
	}
	log.WithField("driver", cfg.StoreDriver).Info("[CFG] store ready")

	schools := school.NewService(store, log, cfg.Defaults)

	bucket := storage.NewBucket(cfg.S3.Client, cfg.S3.Bucket)
	backupSvc := backup.NewService(schools, bucket, backups.NewMongoLog(cfg.Mongo.Database), log)

	records := importitems.NewRecords(cfg.Mongo)
	base := processors.NewBaseProcessor(schools, importitems.NewItemLogger(cfg.Mongo, log), log)
	files := opener.NewCompoundOpener(
		opener.NewHTTPOpener(&http.Client{Timeout: 2 * time.Minute}, log),
		opener.NewS3Opener(cfg.S3.Client, log),
		cfg.S3.Bucket,
	)
	importSvc := importer.NewService(files, processors.DefaultRegistry(base), records, 1000, log)

	issuer := auth.NewIssuer(cfg.JWT.Secret, cfg.JWT.TTL)
	accounts := account.NewService(schools, issuer, cfg.Master, log)

	h := handlers.New(handlers.Deps{
		Schools:       schools,
		Accounts:      accounts,
		Backups:       backupSvc,
		Exports:       export.NewService(schools),
		Importer:      importSvc,
		Records:       records,
		Files:         bucket,
		Check:         cfg.CheckConnections,
		ImportTimeout: 30 * time.Minute,
		Logger:        log,
	})

	jobs := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger)))
	if cfg.Backup.Auto {
		schedule(jobs, log, "backup", cfg.Backup.CheckSpec, backupSvc.RunAuto)
	}
	if cfg.Reminder.Enabled {
		reminders := reminder.NewService(schools, mailer.NewSMTPMailer(cfg.SMTP, log), log)
		schedule(jobs, log, "reminder", cfg.Reminder.Spec, reminders.Run)
	}
	jobs.Start()
	defer jobs.Stop()

	srv := server.NewServer(cfg.Port, h, issuer, log)
	if err := srv.Run(runCtx); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}

func openStore(ctx context.Context, cfg *config.Config) (ports.SchoolStore, error) {
	switch cfg.StoreDriver {
	case config.StorePostgres:
		repo := database.NewSchoolRepo(cfg.Postgres)
		if err := repo.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		return repo, nil
	case config.StoreMemory:
		return snapshot.NewMemoryStore(), nil
	default:
		return snapshot.NewMongoStore(cfg.Mongo.Database), nil
	}
}

func schedule(c *cron.Cron, log logrus.FieldLogger, name, spec string, run func(context.Context) (int, error)) {
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		n, err := run(ctx)
		entry := log.WithFields(logrus.Fields{"job": name, "count": n})
		if err != nil {
			entry.WithError(err).Error("[CRON][ERR]")
			return
		}
		if n > 0 {
			entry.Info("[CRON][DONE]")
		}
	})
	if err != nil {
		log.WithError(err).WithField("job", name).Fatal("[CRON] bad schedule")
	}
	log.WithFields(logrus.Fields{"job": name, "spec": spec}).Info("[CRON] scheduled")
}
