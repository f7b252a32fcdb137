package storage

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ferreirogomes/promissory/models"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

func init() {
	// modernc registra o driver como "sqlite"; o sqlx só conhece "sqlite3".
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB representa a conexão com o banco SQL (PostgreSQL ou SQLite).
type DB struct {
	*sqlx.DB
	driver string
	log    *zap.Logger
}

// NewDB conecta-se ao banco e executa as migrações.
func NewDB(driver, dataSourceName string, log *zap.Logger) (*DB, error) {
	dialect, err := migrationDialect(driver)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	db, err := sqlx.Connect(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("falha ao conectar ao banco de dados: %w", err)
	}
	if driver == "sqlite" {
		// ":memory:" é por conexão; uma conexão só mantém o banco vivo.
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao pingar o banco de dados: %w", err)
	}
	log.Info("conexão com o banco de dados estabelecida", zap.String("driver", driver))

	d := &DB{DB: db, driver: driver, log: log}
	if err := d.runMigrations(dialect); err != nil {
		db.Close()
		return nil, fmt.Errorf("falha ao executar migrações: %w", err)
	}
	return d, nil
}

func migrationDialect(driver string) (string, error) {
	switch driver {
	case "postgres":
		return "postgres", nil
	case "sqlite":
		return "sqlite3", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}

// runMigrations executa as migrações embutidas usando sql-migrate.
func (d *DB) runMigrations(dialect string) error {
	migrations := &migrate.EmbedFileSystemMigrationSource{
		FileSystem: migrationFiles,
		Root:       "migrations",
	}

	n, err := migrate.Exec(d.DB.DB, dialect, migrations, migrate.Up)
	if err != nil {
		return fmt.Errorf("erro ao aplicar migrações: %w", err)
	}
	if n > 0 {
		d.log.Info("migrações aplicadas", zap.Int("count", n))
	} else {
		d.log.Debug("nenhuma migração nova para aplicar")
	}
	return nil
}

func (d *DB) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	tx, err := d.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("falha ao iniciar transação: %w", err)
	}
	if err := fn(&dbTx{tx: tx}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			d.log.Error("falha ao desfazer transação", zap.Error(rbErr))
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("falha ao confirmar transação: %w", err)
	}
	return nil
}

type dbTx struct {
	tx *sqlx.Tx
}

const propertyColumns = `id, owner_address, token_name, token_symbol, token_supply, interest_rate_bps,
	locking_period_seconds, status, allotment_token_address, approval_timestamp, locked_tokens,
	total_invested_amount, claimed_investment_amount`

func (t *dbTx) NextPropertyID() (uint64, error) {
	var next uint64
	if err := t.tx.Get(&next, `SELECT COALESCE(MAX(id) + 1, 0) FROM properties`); err != nil {
		return 0, fmt.Errorf("falha ao obter próximo id de propriedade: %w", err)
	}
	return next, nil
}

func (t *dbTx) GetProperty(id uint64) (models.Property, bool, error) {
	var p models.Property
	query := t.tx.Rebind(`SELECT ` + propertyColumns + ` FROM properties WHERE id = ?`)
	if err := t.tx.Get(&p, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Property{}, false, nil
		}
		return models.Property{}, false, fmt.Errorf("falha ao buscar propriedade %d: %w", id, err)
	}
	return p, true, nil
}

func (t *dbTx) ListProperties() ([]models.Property, error) {
	var out []models.Property
	if err := t.tx.Select(&out, `SELECT `+propertyColumns+` FROM properties ORDER BY id`); err != nil {
		return nil, fmt.Errorf("falha ao listar propriedades: %w", err)
	}
	return out, nil
}

func (t *dbTx) SaveProperty(p models.Property) error {
	query := `INSERT INTO properties (` + propertyColumns + `)
		VALUES (:id, :owner_address, :token_name, :token_symbol, :token_supply, :interest_rate_bps,
			:locking_period_seconds, :status, :allotment_token_address, :approval_timestamp, :locked_tokens,
			:total_invested_amount, :claimed_investment_amount)
		ON CONFLICT (id) DO UPDATE SET
			token_supply = excluded.token_supply,
			interest_rate_bps = excluded.interest_rate_bps,
			locking_period_seconds = excluded.locking_period_seconds,
			status = excluded.status,
			allotment_token_address = excluded.allotment_token_address,
			approval_timestamp = excluded.approval_timestamp,
			locked_tokens = excluded.locked_tokens,
			total_invested_amount = excluded.total_invested_amount,
			claimed_investment_amount = excluded.claimed_investment_amount`
	if _, err := t.tx.NamedExec(query, p); err != nil {
		return fmt.Errorf("falha ao salvar propriedade %d: %w", p.ID, err)
	}
	return nil
}

func (t *dbTx) GetInvestment(propertyID uint64, investor string) (models.Investment, bool, error) {
	var inv models.Investment
	query := t.tx.Rebind(`SELECT property_id, investor_address, invested_amount, claimed_return_amount
		FROM investments WHERE property_id = ? AND investor_address = ?`)
	if err := t.tx.Get(&inv, query, propertyID, investor); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Investment{}, false, nil
		}
		return models.Investment{}, false, fmt.Errorf("falha ao buscar investimento: %w", err)
	}
	return inv, true, nil
}

func (t *dbTx) ListInvestments(propertyID uint64) ([]models.Investment, error) {
	var out []models.Investment
	query := t.tx.Rebind(`SELECT property_id, investor_address, invested_amount, claimed_return_amount
		FROM investments WHERE property_id = ? ORDER BY investor_address`)
	if err := t.tx.Select(&out, query, propertyID); err != nil {
		return nil, fmt.Errorf("falha ao listar investimentos: %w", err)
	}
	return out, nil
}

func (t *dbTx) SaveInvestment(inv models.Investment) error {
	query := `INSERT INTO investments (property_id, investor_address, invested_amount, claimed_return_amount)
		VALUES (:property_id, :investor_address, :invested_amount, :claimed_return_amount)
		ON CONFLICT (property_id, investor_address) DO UPDATE SET
			invested_amount = excluded.invested_amount,
			claimed_return_amount = excluded.claimed_return_amount`
	if _, err := t.tx.NamedExec(query, inv); err != nil {
		return fmt.Errorf("falha ao salvar investimento: %w", err)
	}
	return nil
}

type eventRow struct {
	Seq        uint64 `db:"seq"`
	ID         string `db:"id"`
	PropertyID uint64 `db:"property_id"`
	Name       string `db:"name"`
	Fields     string `db:"fields"`
	CreatedAt  int64  `db:"created_at"`
}

func (t *dbTx) SaveEvent(e *models.Event) error {
	var seq uint64
	if err := t.tx.Get(&seq, `SELECT COALESCE(MAX(seq), 0) + 1 FROM ledger_events`); err != nil {
		return fmt.Errorf("falha ao obter sequência de eventos: %w", err)
	}
	fields, err := json.Marshal(e.Fields)
	if err != nil {
		return fmt.Errorf("falha ao serializar campos do evento: %w", err)
	}
	row := eventRow{
		Seq:        seq,
		ID:         e.ID,
		PropertyID: e.PropertyID,
		Name:       e.Name,
		Fields:     string(fields),
		CreatedAt:  e.CreatedAt.UnixNano(),
	}
	query := `INSERT INTO ledger_events (seq, id, property_id, name, fields, created_at)
		VALUES (:seq, :id, :property_id, :name, :fields, :created_at)`
	if _, err := t.tx.NamedExec(query, row); err != nil {
		return fmt.Errorf("falha ao salvar evento %s: %w", e.Name, err)
	}
	e.Seq = seq
	return nil
}

func (t *dbTx) ListEvents(propertyID uint64) ([]models.Event, error) {
	var rows []eventRow
	query := t.tx.Rebind(`SELECT seq, id, property_id, name, fields, created_at
		FROM ledger_events WHERE property_id = ? ORDER BY seq`)
	if err := t.tx.Select(&rows, query, propertyID); err != nil {
		return nil, fmt.Errorf("falha ao listar eventos: %w", err)
	}
	out := make([]models.Event, 0, len(rows))
	for _, r := range rows {
		e := models.Event{
			ID:         r.ID,
			Seq:        r.Seq,
			PropertyID: r.PropertyID,
			Name:       r.Name,
			CreatedAt:  time.Unix(0, r.CreatedAt).UTC(),
		}
		if err := json.Unmarshal([]byte(r.Fields), &e.Fields); err != nil {
			return nil, fmt.Errorf("falha ao decodificar campos do evento %s: %w", r.ID, err)
		}
		out = append(out, e)
	}
	return out, nil
}
