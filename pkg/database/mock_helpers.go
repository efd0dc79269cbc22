package database

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// MockDB wraps sqlmock behind a postgres gorm connection for tests
type MockDB struct {
	DB     *sql.DB
	Mock   sqlmock.Sqlmock
	GormDB *gorm.DB
}

// NewMockDB creates a new mock database connection
func NewMockDB() (*MockDB, error) {
	db, mock, err := sqlmock.New()
	if err != nil {
		return nil, err
	}

	gormDB, err := gorm.Open(
		postgres.New(postgres.Config{
			Conn:                 db,
			PreferSimpleProtocol: true,
		}),
		&gorm.Config{
			Logger:                 logger.Default.LogMode(logger.Silent),
			SkipDefaultTransaction: true,
		},
	)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &MockDB{
		DB:     db,
		Mock:   mock,
		GormDB: gormDB,
	}, nil
}

// Close closes the mock database
func (m *MockDB) Close() error {
	return m.DB.Close()
}

// ExpectationsWereMet reports unfulfilled expectations
func (m *MockDB) ExpectationsWereMet() error {
	return m.Mock.ExpectationsWereMet()
}

// Rows builds a result set of columns from rows of values
func Rows(columns []string, rows ...[]driver.Value) *sqlmock.Rows {
	r := sqlmock.NewRows(columns)
	for _, row := range rows {
		r.AddRow(row...)
	}
	return r
}

// ExpectAll sets up expectation for listing a table
func (m *MockDB) ExpectAll(table string, rows *sqlmock.Rows) {
	m.Mock.ExpectQuery(regexp.QuoteMeta(fmt.Sprintf(`SELECT * FROM "%s"`, table))).
		WillReturnRows(rows)
}

// ExpectFind sets up expectation for a lookup by primary key
func (m *MockDB) ExpectFind(table, pk string, id interface{}, rows *sqlmock.Rows) {
	m.Mock.ExpectQuery(regexp.QuoteMeta(fmt.Sprintf(`SELECT * FROM "%s" WHERE "%s" = $1`, table, pk))).
		WithArgs(id).
		WillReturnRows(rows)
}

// ExpectNotFound sets up expectation for a lookup by primary key matching nothing
func (m *MockDB) ExpectNotFound(table, pk string, id interface{}) {
	m.ExpectFind(table, pk, id, sqlmock.NewRows([]string{pk}))
}

// ExpectInsert sets up expectation for an insert returning id. args are
// in column name order.
func (m *MockDB) ExpectInsert(table string, id interface{}, args ...driver.Value) {
	m.Mock.ExpectQuery(regexp.QuoteMeta(fmt.Sprintf(`INSERT INTO "%s"`, table))).
		WithArgs(args...).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(id))
}

// ExpectUpdate sets up expectation for an update. args are the changed
// values in column name order followed by the key.
func (m *MockDB) ExpectUpdate(table string, args ...driver.Value) {
	m.Mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf(`UPDATE "%s" SET`, table))).
		WithArgs(args...).
		WillReturnResult(sqlmock.NewResult(0, 1))
}

// ExpectDelete sets up expectation for deleting the row with key id
func (m *MockDB) ExpectDelete(table, pk string, id interface{}) {
	m.Mock.ExpectExec(regexp.QuoteMeta(fmt.Sprintf(`DELETE FROM "%s" WHERE "%s" = $1`, table, pk))).
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 1))
}
