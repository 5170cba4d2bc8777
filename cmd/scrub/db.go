package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	slogGorm "github.com/orandin/slog-gorm"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupDatabase opens a gorm handle from a URL-shaped connection string,
// supporting sqlite:// for local runs and postgres:// for deployments.
func setupDatabase(dburl string, maxConnections int) (*gorm.DB, error) {
	var dial gorm.Dialector
	openConns := maxConnections

	switch {
	case strings.HasPrefix(dburl, "sqlite://"):
		sqliteSuffix := dburl[len("sqlite://"):]
		// ensure the directory exists when the db file is being initialized
		if !strings.Contains(sqliteSuffix, ":?") {
			os.MkdirAll(filepath.Dir(sqliteSuffix), os.ModePerm)
		}
		dial = sqlite.Open(sqliteSuffix)
		openConns = 1
	case strings.HasPrefix(dburl, "postgresql://") || strings.HasPrefix(dburl, "postgres://"):
		dial = postgres.Open(dburl)
	default:
		return nil, fmt.Errorf("unsupported or unrecognized DATABASE_URL value")
	}

	db, err := gorm.Open(dial, &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
		Logger:                 slogGorm.New(),
	})
	if err != nil {
		return nil, err
	}

	sqldb, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqldb.SetMaxOpenConns(openConns)
	sqldb.SetMaxIdleConns(openConns / 4)

	return db, nil
}

func splitHosts(hosts string) []string {
	if hosts == "" {
		return nil
	}
	return strings.Split(hosts, ",")
}
