package bootstrap

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"

	app "github.com/fieldops/importer/internal/application/importing"
	"github.com/fieldops/importer/internal/infrastructure/file"
	"github.com/fieldops/importer/internal/infrastructure/repository"
	httpecho "github.com/fieldops/importer/internal/interfaces/http/echo"
)

func NewHTTPServer(db *gorm.DB, pool *pgxpool.Pool, cfg app.Config, importBaseDir string) *echo.Echo {
	server := echo.New()
	server.HideBanner = true

	server.Use(middleware.Recover())
	server.Use(middleware.RequestID())
	server.Use(middleware.BodyLimit("25M"))

	jobRepo := repository.NewImportJobRepository(db)
	batchRepo := repository.NewRecordBatchRepository(pool)
	stagedRepo := repository.NewStagedRowRepository(pool)
	existingRepo := repository.NewExistingRecordRepository(db)
	csvSource := file.NewCSVSource(importBaseDir)

	runImport := app.NewRunImport(jobRepo, batchRepo, stagedRepo, existingRepo, csvSource, cfg)
	approveImport := app.NewApproveImport(jobRepo, stagedRepo, batchRepo, cfg)
	getJob := app.NewGetImportJob(jobRepo)

	importHandler := httpecho.NewImportHandler(runImport, approveImport)
	jobHandler := httpecho.NewJobHandler(getJob)

	httpecho.RegisterRoutes(server, importHandler, jobHandler)

	server.GET("/healthz", func(c echo.Context) error {
		return c.JSON(200, map[string]string{"status": "ok"})
	})

	return server
}
