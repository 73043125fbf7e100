package app

import (
	"database/sql"
	"fmt"

	habitsDomain "github.com/felixgeelhaar/cadence/internal/habits/domain"
	habitsPersistence "github.com/felixgeelhaar/cadence/internal/habits/infrastructure/persistence"
	sharedApplication "github.com/felixgeelhaar/cadence/internal/shared/application"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/cadence/internal/shared/infrastructure/outbox"
	sharedPersistence "github.com/felixgeelhaar/cadence/internal/shared/infrastructure/persistence"
	"github.com/jackc/pgx/v5/pgxpool"
)

// stores is the persistence set one database connection provides.
// All three share the connection, so the unit of work spans habit and
// outbox writes.
type stores struct {
	habits habitsDomain.Repository
	outbox outbox.Repository
	uow    sharedApplication.UnitOfWork
}

// openStores builds the stores for conn's driver from its native handle.
func openStores(conn database.Connection) (stores, error) {
	switch driver := conn.Driver(); driver {
	case database.DriverPostgres:
		h, ok := conn.(interface{ Pool() *pgxpool.Pool })
		if !ok {
			return stores{}, fmt.Errorf("%s connection does not expose Pool()", driver)
		}
		pool := h.Pool()
		return stores{
			habits: habitsPersistence.NewPostgresHabitRepository(pool),
			outbox: outbox.NewPostgresRepository(pool),
			uow:    sharedPersistence.NewPostgresUnitOfWork(pool),
		}, nil

	case database.DriverSQLite:
		h, ok := conn.(interface{ DB() *sql.DB })
		if !ok {
			return stores{}, fmt.Errorf("%s connection does not expose DB()", driver)
		}
		db := h.DB()
		return stores{
			habits: habitsPersistence.NewSQLiteHabitRepository(db),
			outbox: outbox.NewSQLiteRepository(db),
			uow:    sharedPersistence.NewSQLiteUnitOfWork(db),
		}, nil

	default:
		return stores{}, fmt.Errorf("unsupported driver: %s", driver)
	}
}
