// Package database provides the connection and the attribute based Model
// used by the application.
//
// # Connection
//
//	db, err := database.Connect(ctx, database.Config{
//	    Connection: "pgsql",
//	    Host:       "localhost",
//	    Database:   "mediamind",
//	    Username:   "app",
//	})
//	database.SetConnection(db)
//
// Supported drivers are mysql, pgsql (or postgres) and sqlite. Set Debug
// for SQL query logging.
//
// # Models
//
// A Schema names a table and the rules applied to its rows:
//
//	var Tests = database.NewSchema("Test") // table "tests"
//
//	t, err := Tests.Create(ctx, map[string]interface{}{"name": "first"})
//	t, err = Tests.Find(ctx, 1)
//	ok, err := t.Update(ctx, map[string]interface{}{"name": "renamed"})
//
// Schemas without a DB use the connection set with SetConnection.
package database
