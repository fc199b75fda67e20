// Package main seeds the database with a small fixed set of organisations and
// identities for local development. Organisations are only ever created here;
// the API has no tenant-management surface.
package main

import (
	"context"
	"errors"
	"flag"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/fieldserve/backend/config"
	"github.com/fieldserve/backend/internal/apperr"
	"github.com/fieldserve/backend/internal/clients"
	"github.com/fieldserve/backend/internal/models"
	"github.com/fieldserve/backend/internal/organisations"
	"github.com/fieldserve/backend/internal/technicians"
	"github.com/fieldserve/backend/pkg/database"
)

type seedOrg struct {
	org        models.Organisation
	client     clients.CreateParams
	technician technicians.CreateParams
}

var seeds = []seedOrg{
	{
		org: models.Organisation{Name: "Organisation 1", Street: "1 Main Street", PostalCode: "75001"},
		client: clients.CreateParams{
			FirstName: "Cat", LastName: "Stevens", Username: "cat",
			Password: "changeme1", Email: "cat@example.com", Phone: "+33100000001",
		},
		technician: technicians.CreateParams{
			FirstName: "Tech", LastName: "One", Username: "tech1",
			Password: "changeme1", Email: "tech1@example.com", Phone: "+33100000002",
		},
	},
	{
		org: models.Organisation{Name: "Organisation 2", Street: "2 Side Street", PostalCode: "69001"},
		client: clients.CreateParams{
			FirstName: "Alex", LastName: "Morgan", Username: "alex",
			Password: "changeme2", Email: "alex@example.com", Phone: "+33200000001",
		},
		technician: technicians.CreateParams{
			FirstName: "Tech", LastName: "Two", Username: "tech2",
			Password: "changeme2", Email: "tech2@example.com", Phone: "+33200000002",
		},
	},
}

func main() {
	reset := flag.Bool("reset", false, "delete the seeded organisations (cascades to all their data) before seeding")
	flag.Parse()

	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	ctx := context.Background()
	pool, err := database.NewPostgresPool(ctx, cfg.Database.DSN(), logger)
	if err != nil {
		logger.Fatal("database", zap.Error(err))
	}
	defer pool.Close()

	if err := database.Migrate(ctx, pool); err != nil {
		logger.Fatal("migrate", zap.Error(err))
	}

	orgRepo := organisations.NewRepository(pool)
	clientSvc := clients.NewService(clients.NewRepository(pool), logger)
	technicianSvc := technicians.NewService(technicians.NewRepository(pool), logger)

	for _, s := range seeds {
		if *reset {
			if existing, err := orgRepo.GetByName(ctx, s.org.Name); err == nil {
				if err := orgRepo.Delete(ctx, existing.ID); err != nil {
					logger.Fatal("reset organisation", zap.String("name", s.org.Name), zap.Error(err))
				}
				logger.Info("organisation removed", zap.String("name", s.org.Name))
			}
		}

		org := s.org
		if err := orgRepo.Create(ctx, &org); err != nil {
			if errors.Is(err, apperr.ErrConflict) {
				logger.Info("organisation already seeded", zap.String("name", org.Name))
				continue
			}
			logger.Fatal("create organisation", zap.String("name", org.Name), zap.Error(err))
		}
		logger.Info("organisation created", zap.String("name", org.Name), zap.String("id", org.ID.String()))

		if _, err := clientSvc.Create(ctx, org.ID, s.client); err != nil {
			logger.Fatal("create client", zap.String("username", s.client.Username), zap.Error(err))
		}
		if _, err := technicianSvc.Create(ctx, org.ID, s.technician); err != nil {
			logger.Fatal("create technician", zap.String("username", s.technician.Username), zap.Error(err))
		}
		logger.Info("identities created",
			zap.String("org", org.Name),
			zap.String("client", s.client.Username),
			zap.String("technician", s.technician.Username))
	}
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
