package retained

import (
	"fmt"

	"github.com/bnema/goalpanel/internal/domain"
	"github.com/bnema/goalpanel/internal/ports"
	"github.com/sirupsen/logrus"
)

// Cache stores one snapshot in a retained region. It has a single writer and
// takes no locks.
type Cache struct {
	region Region
	log    logrus.FieldLogger
}

var _ ports.SnapshotCache = (*Cache)(nil)

func NewCache(region Region, log logrus.FieldLogger) (*Cache, error) {
	if region == nil {
		return nil, fmt.Errorf("retained cache: region is nil")
	}
	if len(region.Bytes()) < RecordSize {
		return nil, fmt.Errorf("retained cache: %w (%d < %d)", ErrRegionSize, len(region.Bytes()), RecordSize)
	}
	if log == nil {
		log = logrus.StandardLogger()
	}

	return &Cache{region: region, log: log}, nil
}

// Save replaces the whole record. Strings longer than their buffers are truncated.
func (c *Cache) Save(snapshot domain.Snapshot) error {
	encoded := recordFromSnapshot(snapshot).encode()
	copy(c.region.Bytes()[:RecordSize], encoded[:])

	if err := c.region.Flush(); err != nil {
		return err
	}

	c.log.Debug("snapshot saved to retained memory")
	return nil
}

func (c *Cache) Load() (domain.Snapshot, bool) {
	rec, ok := c.current()
	if !ok || !rec.hasData {
		c.log.Debug("no cached snapshot in retained memory")
		return domain.Snapshot{}, false
	}

	return rec.snapshot(), true
}

func (c *Cache) HasData() bool {
	rec, ok := c.current()
	return ok && rec.hasData
}

// Clear forgets the cached snapshot.
func (c *Cache) Clear() error {
	clear(c.region.Bytes()[:RecordSize])
	return c.region.Flush()
}

func (c *Cache) current() (record, bool) {
	buf := c.region.Bytes()
	rec, ok := decodeRecord(buf)
	if !ok && !allZero(buf[:RecordSize]) {
		c.log.Warn("retained memory holds an invalid record, ignoring it")
	}
	return rec, ok
}

func allZero(buf []byte) bool {
	for _, b := range buf {
		if b != 0 {
			return false
		}
	}
	return true
}
