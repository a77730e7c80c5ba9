// Package store persists observatory settings and the exposure journal in bbolt.
package store

import (
	"encoding/json"
	"fmt"
	"time"

	"dk154mock/pkg/hardware"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

const (
	settingsBucket  = "settings"
	exposuresBucket = "exposures"

	parkKey = "park"
)

// Exposure is one journal entry written for every CCD3 exposure.
type Exposure struct {
	ID        string    `json:"id"`
	Start     time.Time `json:"start"`
	File      string    `json:"file,omitempty"`
	Object    string    `json:"object,omitempty"`
	ImageType string    `json:"image_type,omitempty"`
	ExpTime   float64   `json:"exptime"`
	Shutter   string    `json:"shutter"`
	Binning   string    `json:"binning"`
	RA        float64   `json:"ra"`
	Dec       float64   `json:"dec"`
}

type Store struct {
	db     *bolt.DB
	logger log.FieldLogger
}

// NewStore wraps db and writes defaults for settings that are not set yet.
func NewStore(db *bolt.DB, defaults hardware.Park, logger log.FieldLogger) (*Store, error) {
	st := Store{db: db, logger: logger}

	if err := st.setDefaults(defaults); err != nil {
		return nil, err
	}
	return &st, nil
}

// Open opens the bbolt file at path and returns a store on top of it.
func Open(path string, defaults hardware.Park, logger log.FieldLogger) (*Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}
	st, err := NewStore(db, defaults, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return st, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) setDefaults(park hardware.Park) error {
	if _, err := s.GetPark(); err != nil {
		s.logger.Infof("Setting default park position")
		return s.SetPark(park)
	}
	return nil
}

// SetPark saves the park position as a json string in the database.
func (s *Store) SetPark(park hardware.Park) error {
	if err := park.Validate(); err != nil {
		return err
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(settingsBucket))
		if err != nil {
			return err
		}

		value, _ := json.Marshal(park)
		return b.Put([]byte(parkKey), value)
	})
}

// GetPark retrieves the park position from the database.
func (s *Store) GetPark() (hardware.Park, error) {
	var park hardware.Park

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(settingsBucket))
		if b == nil {
			return fmt.Errorf("bucket %s not found", settingsBucket)
		}

		value := b.Get([]byte(parkKey))
		if value == nil {
			return fmt.Errorf("key %s not found", parkKey)
		}

		return json.Unmarshal(value, &park)
	})

	return park, err
}

// RecordExposure appends e to the journal. Keys are ordered by start time.
func (s *Store) RecordExposure(e Exposure) error {
	if e.ID == "" {
		return fmt.Errorf("exposure without id")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte(exposuresBucket))
		if err != nil {
			return err
		}

		value, err := json.Marshal(e)
		if err != nil {
			return err
		}
		return b.Put(exposureKey(e), value)
	})
}

// Exposures returns up to limit journal entries, newest first. A limit of
// zero or less returns everything.
func (s *Store) Exposures(limit int) ([]Exposure, error) {
	var out []Exposure

	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(exposuresBucket))
		if b == nil {
			return nil
		}

		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var e Exposure
			if err := json.Unmarshal(v, &e); err != nil {
				return fmt.Errorf("exposure %s: %v", k, err)
			}
			out = append(out, e)
		}
		return nil
	})

	return out, err
}

func exposureKey(e Exposure) []byte {
	return []byte(e.Start.UTC().Format("20060102T150405.000000000") + "/" + e.ID)
}
