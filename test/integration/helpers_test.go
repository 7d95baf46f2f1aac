package integration

import (
	"os"
	"testing"

	"github.com/Gobusters/ectologger"
	"github.com/Gobusters/ectologger/zapadapter"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	adrepo "github.com/Ramsey-B/clover/internal/repositories/ad"
	"github.com/Ramsey-B/clover/internal/repositories/adcreative"
	"github.com/Ramsey-B/clover/internal/repositories/adfacts"
	"github.com/Ramsey-B/clover/internal/repositories/adscore"
	"github.com/Ramsey-B/clover/internal/repositories/brand"
	"github.com/Ramsey-B/clover/internal/repositories/channelidentity"
	"github.com/Ramsey-B/clover/internal/repositories/ingestrun"
	"github.com/Ramsey-B/clover/internal/repositories/mediaasset"
	"github.com/Ramsey-B/clover/internal/repositories/pagetotal"
	"github.com/Ramsey-B/clover/internal/repositories/productbrand"
	"github.com/Ramsey-B/clover/internal/repositories/researchrun"
	"github.com/Ramsey-B/clover/pkg/backfill"
	"github.com/Ramsey-B/clover/pkg/creative"
	"github.com/Ramsey-B/clover/pkg/database"
	"github.com/Ramsey-B/clover/pkg/facts"
	"github.com/Ramsey-B/clover/pkg/identity"
	"github.com/Ramsey-B/clover/pkg/ingest"
	"github.com/Ramsey-B/clover/pkg/media"
)

func getTestLogger() ectologger.Logger {
	zapLogger, _ := zap.NewDevelopment()
	return zapadapter.NewZapEctoLogger(zapLogger, nil)
}

func getTestDB(t *testing.T) database.DB {
	t.Helper()

	dbHost := os.Getenv("DB_HOST")
	if dbHost == "" {
		dbHost = "localhost"
	}
	dbUser := os.Getenv("DB_USER_NAME")
	if dbUser == "" {
		dbUser = "user"
	}
	dbPass := os.Getenv("DB_PASSWORD")
	if dbPass == "" {
		dbPass = "password"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "clover"
	}

	dsn := "host=" + dbHost + " user=" + dbUser + " password=" + dbPass + " dbname=" + dbName + " sslmode=disable"
	db, err := sqlx.Connect("postgres", dsn)
	require.NoError(t, err, "Failed to connect to test database")

	return database.NewDatabaseInstance(db, getTestLogger())
}

// pipeline bundles every repository and service a test needs against one
// database handle.
type pipeline struct {
	db database.DB

	brandRepo     *brand.Repository
	identityRepo  *channelidentity.Repository
	productRepo   *productbrand.Repository
	adRepo        *adrepo.Repository
	assetRepo     *mediaasset.Repository
	creativeRepo  *adcreative.Repository
	factsRepo     *adfacts.Repository
	scoreRepo     *adscore.Repository
	runRepo       *researchrun.Repository
	ingestRepo    *ingestrun.Repository
	pageTotalRepo *pagetotal.Repository

	resolver       *identity.Resolver
	deduplicator   *media.Deduplicator
	creativeEngine *creative.Engine
	factsMaint     *facts.Maintainer
	engine         *ingest.Engine
	processor      *ingest.Processor
	backfillRunner *backfill.Runner
}

func newPipeline(t *testing.T) *pipeline {
	t.Helper()

	logger := getTestLogger()
	db := getTestDB(t)

	p := &pipeline{db: db}
	p.brandRepo = brand.NewRepository(db, logger)
	p.identityRepo = channelidentity.NewRepository(db, logger)
	p.productRepo = productbrand.NewRepository(db, logger)
	p.adRepo = adrepo.NewRepository(db, logger)
	p.assetRepo = mediaasset.NewRepository(db, logger)
	p.creativeRepo = adcreative.NewRepository(db, logger)
	p.factsRepo = adfacts.NewRepository(db, logger)
	p.scoreRepo = adscore.NewRepository(db, logger)
	p.runRepo = researchrun.NewRepository(db, logger)
	p.ingestRepo = ingestrun.NewRepository(db, logger)
	p.pageTotalRepo = pagetotal.NewRepository(db, logger)

	p.resolver = identity.NewResolver(logger, p.brandRepo, p.identityRepo, p.productRepo)
	p.deduplicator = media.NewDeduplicator(logger, p.assetRepo)
	p.creativeEngine = creative.NewEngine(logger, p.adRepo, p.creativeRepo)
	p.factsMaint = facts.NewMaintainer(logger, p.adRepo, p.factsRepo, p.scoreRepo)
	p.engine = ingest.NewEngine(logger, db, p.adRepo, p.deduplicator, p.creativeEngine, p.factsMaint)
	p.processor = ingest.NewProcessor(logger, p.resolver, p.engine, p.ingestRepo, p.pageTotalRepo, nil, 5000)
	p.backfillRunner = backfill.NewRunner(logger, p.adRepo, p.creativeEngine, p.factsMaint, 100)

	return p
}

func strPtr(s string) *string {
	return &s
}
