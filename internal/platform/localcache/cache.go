// Package localcache is the on-device store for records captured offline.
// Entries stay pending until a sync push accepts them.
package localcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/swarnabindu/prashan/internal/domain/registration"
)

const (
	KindRegistration = "registration"
	KindScreening    = "screening"
	KindDoseLog      = "dose_log"
)

var validKinds = map[string]bool{KindRegistration: true, KindScreening: true, KindDoseLog: true}

// Entry is one cached record. Payload is the JSON sent to the server.
type Entry struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time

	LocalID   string `gorm:"uniqueIndex;not null"`
	Kind      string `gorm:"index;not null"`
	SerialNo  string `gorm:"index"`
	Payload   string `gorm:"type:text;not null"`
	Synced    bool   `gorm:"index"`
	SyncedAt  *time.Time
	LastError string
}

type Cache struct {
	db  *gorm.DB
	now func() time.Time
}

// Open creates or opens the cache database at path.
func Open(path string) (*Cache, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	// One writer at a time.
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	if err := gdb.AutoMigrate(&Entry{}); err != nil {
		return nil, fmt.Errorf("migrate cache: %w", err)
	}
	if err := gdb.Exec("CREATE INDEX IF NOT EXISTS idx_entries_pending ON entries(synced, kind)").Error; err != nil {
		return nil, fmt.Errorf("index cache: %w", err)
	}
	return &Cache{db: gdb, now: time.Now}, nil
}

func (c *Cache) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// AddRegistration stores r as pending, giving it a local id and serial
// number when it has none.
func (c *Cache) AddRegistration(ctx context.Context, r *registration.Registration) (*Entry, error) {
	if r.LocalID == "" {
		r.LocalID = uuid.NewString()
	}
	if r.SerialNo == "" {
		r.SerialNo = registration.NewSerial(c.now())
	}
	if r.RegistrationDate == "" {
		r.RegistrationDate = c.now().Format("2006-01-02")
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	e := &Entry{LocalID: r.LocalID, Kind: KindRegistration, SerialNo: r.SerialNo, Payload: string(b)}
	if err := c.db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, fmt.Errorf("cache registration: %w", err)
	}
	return e, nil
}

// Add stores a screening or dose log payload. A local_id is added when
// missing so the server can report errors against it.
func (c *Cache) Add(ctx context.Context, kind string, payload map[string]interface{}) (*Entry, error) {
	if !validKinds[kind] {
		return nil, fmt.Errorf("unknown cache kind %q", kind)
	}
	localID, _ := payload["local_id"].(string)
	if localID == "" {
		localID = uuid.NewString()
		payload["local_id"] = localID
	}
	serial, _ := payload["serial_no"].(string)
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	e := &Entry{LocalID: localID, Kind: kind, SerialNo: serial, Payload: string(b)}
	if err := c.db.WithContext(ctx).Create(e).Error; err != nil {
		return nil, fmt.Errorf("cache %s: %w", kind, err)
	}
	return e, nil
}

// Registrations decodes every cached registration, oldest first. Synced
// reflects whether the entry has been pushed.
func (c *Cache) Registrations(ctx context.Context) ([]*registration.Registration, error) {
	var entries []Entry
	err := c.db.WithContext(ctx).Where("kind = ?", KindRegistration).Order("id").Find(&entries).Error
	if err != nil {
		return nil, err
	}
	out := make([]*registration.Registration, 0, len(entries))
	for _, e := range entries {
		var r registration.Registration
		if err := json.Unmarshal([]byte(e.Payload), &r); err != nil {
			return nil, fmt.Errorf("decode cached %s: %w", e.LocalID, err)
		}
		r.Synced = e.Synced
		out = append(out, &r)
	}
	return out, nil
}

// Pending returns the unsynced entries, oldest first.
func (c *Cache) Pending(ctx context.Context) ([]Entry, error) {
	var entries []Entry
	err := c.db.WithContext(ctx).Where("synced = ?", false).Order("id").Find(&entries).Error
	return entries, err
}

func (c *Cache) CountPending(ctx context.Context) (int64, error) {
	var n int64
	err := c.db.WithContext(ctx).Model(&Entry{}).Where("synced = ?", false).Count(&n).Error
	return n, err
}

// MarkSynced flags the given entries as accepted by the server.
func (c *Cache) MarkSynced(ctx context.Context, localIDs []string) error {
	if len(localIDs) == 0 {
		return nil
	}
	now := c.now()
	return c.db.WithContext(ctx).Model(&Entry{}).
		Where("local_id IN ?", localIDs).
		Updates(map[string]interface{}{"synced": true, "synced_at": now, "last_error": ""}).Error
}

// RecordError keeps the server's rejection message on a pending entry.
func (c *Cache) RecordError(ctx context.Context, localID, msg string) error {
	res := c.db.WithContext(ctx).Model(&Entry{}).Where("local_id = ?", localID).Update("last_error", msg)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUnknownEntry
	}
	return nil
}

var ErrUnknownEntry = errors.New("localcache: no such entry")
