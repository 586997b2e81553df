package models

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	go_sqlite "github.com/glebarez/go-sqlite"
	"github.com/glebarez/sqlite"
	"github.com/rs/zerolog/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// Supported database drivers
const (
	DriverSQLite = "sqlite"
	DriverMySQL  = "mysql"
)

type ETContext string

const (
	DBContextURL ETContext = "et-backend-url"
)

// Connect opens the database, migrates the schema and registers the
// error translating callbacks.
func Connect(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite, "":
		// Protected deletes rely on foreign key enforcement
		if !strings.Contains(dsn, "foreign_keys") {
			sep := "?"
			if strings.Contains(dsn, "?") {
				sep = "&"
			}
			dsn = fmt.Sprintf("%s%s_pragma=foreign_keys(1)", dsn, sep)
		}
		dialector = sqlite.Open(dsn)
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	config := &gorm.Config{
		// Set generated timestamps in UTC
		NowFunc: func() time.Time {
			return time.Now().In(time.UTC)
		},
		Logger: newLogger(log.Logger),
	}

	db, err := gorm.Open(dialector, config)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database object: %w", err)
	}

	// Get new connections after one hour
	sqlDB.SetConnMaxLifetime(time.Hour)

	if driver != DriverMySQL {
		// This is done to prevent SQLITE_BUSY errors and keeps
		// in-memory databases on a single connection.
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetMaxOpenConns(1)
	}

	err = Migrate(db)
	if err != nil {
		return nil, err
	}

	err = registerCallbacks(db)
	if err != nil {
		return nil, err
	}

	return db, nil
}

func registerCallbacks(db *gorm.DB) error {
	err := db.Callback().Query().After("*").Register("et:after_query", queryCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Query().After("*").Register("et:after_query_general", generalCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Create().After("*").Register("et:after_create", constraintCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Create().After("*").Register("et:after_create_general", generalCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Update().After("*").Register("et:after_update", constraintCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Update().After("*").Register("et:after_update_general", generalCallback)
	if err != nil {
		return err
	}

	err = db.Callback().Delete().After("*").Register("et:after_delete", deleteCallback)
	if err != nil {
		return err
	}

	return db.Callback().Delete().After("*").Register("et:after_delete_general", generalCallback)
}

var plural = regexp.MustCompile("ies$")

// queryCallback replaces the generic "no record" error with a more user
// friendly one. The gorm error stays in the chain.
func queryCallback(db *gorm.DB) {
	if errors.Is(db.Error, gorm.ErrRecordNotFound) && !errors.Is(db.Error, ErrResourceNotFound) {
		// Use the table name as information about the type of resource
		name := strings.ReplaceAll(db.Statement.Table, "_", " ")
		name = plural.ReplaceAllString(name, "y")
		name = strings.TrimRight(name, "s")

		db.Error = fmt.Errorf("%w %s matching your query (%w)", ErrResourceNotFound, name, db.Error)
	}
}

// constraintRule maps database constraint failures to model errors.
// Each rule lists the SQLite message fragment and the MySQL index name.
type constraintRule struct {
	fragments []string
	err       error
}

var constraintRules = []constraintRule{
	{[]string{"resolutions.document_number, resolutions.document_year", "resolution_number_year"}, ErrResolutionNotUnique},
	{[]string{"providers.ruc", "idx_providers_ruc"}, ErrProviderRUCNotUnique},
	{[]string{"account_objects.key", "idx_account_objects_key"}, ErrAccountObjectKeyInUse},
	{[]string{"disbursements.resolution_id, disbursements.institution_id, disbursements.disbursement_date", "disbursement_natural_key"}, ErrDisbursementNotUnique},
	{[]string{"reports.disbursement_id", "idx_reports_disbursement_id"}, ErrReportNotUnique},
	{[]string{"institutions.establishment_id, institutions.code, institutions.name", "institution_natural_key"}, ErrInstitutionNotUnique},
}

// constraintCallback inspects errors returned by the database for create
// and update calls and replaces them with model errors.
func constraintCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	msg := db.Error.Error()
	for _, rule := range constraintRules {
		for _, fragment := range rule.fragments {
			if strings.Contains(msg, fragment) && (strings.Contains(msg, "UNIQUE") || strings.Contains(msg, "Duplicate")) {
				db.Error = fmt.Errorf("%w: %s", rule.err, msg)
				return
			}
		}
	}

	if isForeignKeyError(msg) {
		db.Error = fmt.Errorf("%w: %s", ErrReferenceDoesNotExist, msg)
	}
}

// deleteCallback translates foreign key failures on delete. These happen
// when a RESTRICT reference still points to the deleted row.
func deleteCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	if isForeignKeyError(db.Error.Error()) {
		db.Error = fmt.Errorf("%w: %s", ErrReferencedResourceUsed, db.Error.Error())
	}
}

// isForeignKeyError matches SQLite's "FOREIGN KEY constraint failed" and
// MySQL's errors 1451 and 1452.
func isForeignKeyError(msg string) bool {
	return strings.Contains(msg, "FOREIGN KEY constraint failed") || strings.Contains(msg, "foreign key constraint fails")
}

// generalCallback handles unspecified errors.
//
// For these errors, we cannot provide the user with a helpful message.
// Instead, the error is logged and a general error is returned.
func generalCallback(db *gorm.DB) {
	if db.Error == nil {
		return
	}

	// "sql: database is closed" is hard-coded in the sql module, see
	// https://cs.opensource.google/go/go/+/master:src/database/sql/sql.go;l=1298;drc=0d018b49e33b1383dc0ae5cc968e800dffeeaf7d
	if db.Error.Error() == "sql: database is closed" || reflect.TypeOf(db.Error) == reflect.TypeOf(&go_sqlite.Error{}) {
		log.Error().Msgf("%T: %v", db.Error, db.Error.Error())
		db.Error = fmt.Errorf("%w: %s", ErrGeneral, db.Error.Error())
	}
}

// Migrate migrates all models to the schema defined in the code.
func Migrate(db *gorm.DB) error {
	err := db.AutoMigrate(
		Department{},
		District{},
		Locality{},
		Establishment{},
		Institution{},
		Resolution{},
		FundsOrigin{},
		OriginDetail{},
		PaymentType{},
		Disbursement{},
		Report{},
		ReceiptType{},
		Provider{},
		Receipt{},
		AccountObject{},
		ReceiptItem{},
	)
	if err != nil {
		return fmt.Errorf("error during DB migration: %w", err)
	}

	return nil
}
