package audit

import (
	"encoding/binary"
	"encoding/json"
	"os"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	bolt "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// FileName is the journal database name inside the storage root
const FileName = "audit.db"

// Bucket names
var (
	ConfigBucket = []byte("config") // schema version, creation time
	EventsBucket = []byte("events") // sequence -> JSON event
)

// Config keys
var (
	ConfigVersion = []byte("version")
	ConfigCreated = []byte("created")
)

const schemaVersion = "1"

// Event kinds
const (
	KindVaultCreated = "vault.created"
	KindVaultDeleted = "vault.deleted"
	KindAuthSuccess  = "auth.succeeded"
	KindAuthFailure  = "auth.failed"
	KindEntryAdded   = "entry.added"
	KindEntryEdited  = "entry.edited"
	KindEntryDeleted = "entry.deleted"
)

var ErrClosed = errors.New("journal is closed")

// Event is a single journal record
type Event struct {
	ID      string    `json:"id"`
	Time    time.Time `json:"time"`
	Kind    string    `json:"kind"`
	Vault   string    `json:"vault"`
	Subject string    `json:"subject,omitempty"` // entry username, when relevant
}

// Recorder receives operation notifications from the vault layer
type Recorder interface {
	Record(kind, vault, subject string)
}

// Nop is a Recorder that drops everything
type Nop struct{}

func (Nop) Record(kind, vault, subject string) {}

// Journal is a bbolt-backed event log
type Journal struct {
	db  *bolt.DB
	log *zap.Logger
	now func() time.Time
}

// Open opens or creates the journal database at path
func Open(path string, log *zap.Logger) (*Journal, error) {
	if log == nil {
		log = zap.NewNop()
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open audit journal %s", path)
	}

	j := &Journal{db: db, log: log.Named("audit"), now: time.Now}
	if err := j.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

// initialize creates the bucket structure on first open
func (j *Journal) initialize() error {
	return j.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, EventsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return errors.Wrapf(err, "failed to create bucket %s", bucket)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if config.Get(ConfigVersion) != nil {
			return nil
		}
		if err := config.Put(ConfigVersion, []byte(schemaVersion)); err != nil {
			return err
		}
		created, _ := j.now().MarshalBinary()
		return config.Put(ConfigCreated, created)
	})
}

// Close closes the database
func (j *Journal) Close() error {
	if j.db == nil {
		return nil
	}
	err := j.db.Close()
	j.db = nil
	return err
}

// Path returns the database file path
func (j *Journal) Path() string {
	if j.db == nil {
		return ""
	}
	return j.db.Path()
}

// Created returns when the journal was first initialized
func (j *Journal) Created() (time.Time, error) {
	var created time.Time
	if j.db == nil {
		return created, ErrClosed
	}
	err := j.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(ConfigBucket).Get(ConfigCreated)
		if data == nil {
			return errors.New("creation time not found")
		}
		return created.UnmarshalBinary(data)
	})
	return created, err
}

// Append stores an event, filling in ID and Time when unset. Events are
// kept in insertion order.
func (j *Journal) Append(ev Event) (Event, error) {
	if j.db == nil {
		return ev, ErrClosed
	}
	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	if ev.Time.IsZero() {
		ev.Time = j.now()
	}

	data, err := json.Marshal(ev)
	if err != nil {
		return ev, errors.Wrap(err, "failed to encode event")
	}

	err = j.db.Update(func(tx *bolt.Tx) error {
		events := tx.Bucket(EventsBucket)
		seq, err := events.NextSequence()
		if err != nil {
			return err
		}
		return events.Put(sequenceKey(seq), data)
	})
	if err != nil {
		return ev, errors.Wrap(err, "failed to append event")
	}
	return ev, nil
}

// Record implements Recorder. Failures are logged and otherwise ignored.
func (j *Journal) Record(kind, vault, subject string) {
	if _, err := j.Append(Event{Kind: kind, Vault: vault, Subject: subject}); err != nil {
		j.log.Warn("failed to record audit event",
			zap.String("kind", kind),
			zap.String("vault", vault),
			zap.Error(err),
		)
	}
}

// Events returns recorded events in insertion order. An empty vault name
// returns events for every vault; otherwise names match exactly.
func (j *Journal) Events(vault string) ([]Event, error) {
	if j.db == nil {
		return nil, ErrClosed
	}

	var events []Event
	err := j.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(EventsBucket).ForEach(func(k, v []byte) error {
			var ev Event
			if err := json.Unmarshal(v, &ev); err != nil {
				return errors.Wrapf(err, "corrupt event at sequence %d", binary.BigEndian.Uint64(k))
			}
			if vault == "" || ev.Vault == vault {
				events = append(events, ev)
			}
			return nil
		})
	})
	return events, err
}

// Compact creates a compacted copy of the database, reclaiming space left
// by deleted pages, and swaps it in place of the original.
func (j *Journal) Compact() error {
	if j.db == nil {
		return ErrClosed
	}

	srcPath := j.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return errors.Wrap(err, "failed to create compact database")
	}

	err = j.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				if err := dstBucket.SetSequence(srcBucket.Sequence()); err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})
	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to copy journal")
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to close compact database")
	}

	if err := j.db.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to close journal")
	}
	j.db = nil

	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		os.Remove(tmpPath)
		return j.reopen(srcPath, errors.Wrap(err, "failed to back up journal"))
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath)
		return j.reopen(srcPath, errors.Wrap(err, "failed to replace journal"))
	}
	os.Remove(backupPath)

	return j.reopen(srcPath, nil)
}

// reopen reopens the database after compaction, combining any failure with
// cause
func (j *Journal) reopen(path string, cause error) error {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		err = errors.Wrap(err, "failed to reopen journal")
		if cause != nil {
			return errors.CombineErrors(cause, err)
		}
		return err
	}
	j.db = db
	return cause
}

func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
