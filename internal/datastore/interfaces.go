package datastore

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/holterscan/holterscan/internal/conf"
	"github.com/holterscan/holterscan/internal/errors"
)

// Interface abstracts run persistence.
type Interface interface {
	Open() error
	Close() error
	SaveRun(run *Run, beats []Beat) error
	GetRun(id string) (*Run, error)
	LatestRun(recordID string) (*Run, error)
	RunsForRecord(recordID string) ([]Run, error)
}

// DataStore implements the shared gorm-backed operations; concrete
// stores embed it and provide Open/Close.
type DataStore struct {
	DB *gorm.DB
}

// New returns the configured store, or nil when persistence is
// disabled.
func New(settings *conf.Settings) Interface {
	if !settings.Output.SQLite.Enabled {
		return nil
	}
	return &SQLiteStore{Settings: settings}
}

// SaveRun stores a run and its beats in one transaction. A missing run
// ID is assigned; beat rows inherit the run ID.
func (ds *DataStore) SaveRun(run *Run, beats []Beat) error {
	if ds.DB == nil {
		return dbErrf("database connection is not initialized")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	run.BeatCount = len(beats)

	start := time.Now()
	err := ds.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(run).Error; err != nil {
			return err
		}
		if len(beats) == 0 {
			return nil
		}
		for i := range beats {
			beats[i].RunID = run.ID
		}
		return tx.CreateInBatches(beats, 500).Error
	})
	m := getMetrics()
	if err != nil {
		m.RecordRunSaved("error")
		return errors.New(fmt.Errorf("saving run for record %s: %w", run.RecordID, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("record", run.RecordID).
			Build()
	}
	m.RecordRunSaved("success")
	m.RecordSaveDuration(time.Since(start).Seconds())

	getLogger().Info("run saved",
		"run_id", run.ID,
		"record", run.RecordID,
		"beats", run.BeatCount)
	return nil
}

// GetRun loads a run with its beats.
func (ds *DataStore) GetRun(id string) (*Run, error) {
	if ds.DB == nil {
		return nil, dbErrf("database connection is not initialized")
	}
	var run Run
	if err := ds.DB.Preload("Beats").First(&run, "id = ?", id).Error; err != nil {
		return nil, errors.New(fmt.Errorf("loading run %s: %w", id, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("run_id", id).
			Build()
	}
	return &run, nil
}

// LatestRun returns the most recent run of a record, beats included.
func (ds *DataStore) LatestRun(recordID string) (*Run, error) {
	if ds.DB == nil {
		return nil, dbErrf("database connection is not initialized")
	}
	var run Run
	err := ds.DB.Preload("Beats").
		Where("record_id = ?", recordID).
		Order("created_at DESC").
		First(&run).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("loading latest run for record %s: %w", recordID, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("record", recordID).
			Build()
	}
	return &run, nil
}

// RunsForRecord lists runs of a record, newest first, without beats.
func (ds *DataStore) RunsForRecord(recordID string) ([]Run, error) {
	if ds.DB == nil {
		return nil, dbErrf("database connection is not initialized")
	}
	var runs []Run
	err := ds.DB.Where("record_id = ?", recordID).
		Order("created_at DESC").
		Find(&runs).Error
	if err != nil {
		return nil, errors.New(fmt.Errorf("listing runs for record %s: %w", recordID, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("record", recordID).
			Build()
	}
	return runs, nil
}

// performAutoMigration brings the schema up to date.
func performAutoMigration(db *gorm.DB, debug bool, dbType, connectionInfo string) error {
	if err := db.AutoMigrate(&Run{}, &Beat{}); err != nil {
		return errors.New(fmt.Errorf("migrating %s database: %w", dbType, err)).
			Component("datastore").
			Category(errors.CategoryDatabase).
			Context("database", connectionInfo).
			Build()
	}
	if debug {
		getLogger().Debug("schema migration complete", "type", dbType, "database", connectionInfo)
	}
	return nil
}

func dbErrf(format string, args ...any) error {
	return errors.Newf(format, args...).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Build()
}
