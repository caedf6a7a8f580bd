package retained

import (
	"encoding/binary"
	"math"
	"unicode/utf8"

	"github.com/bnema/goalpanel/internal/domain"
	"github.com/zeebo/xxh3"
)

const (
	recordMagic   = "GPRT"
	recordVersion = 2

	updateTimeSize = 20
	targetDateSize = 30

	offMagic      = 0
	offVersion    = 4
	// Days fills 8 bytes so any int round-trips.
	offDays       = 8
	offProgress   = 16
	offUpdateTime = 24
	offTargetDate = offUpdateTime + updateTimeSize
	offSuccess    = offTargetDate + targetDateSize
	offHasData    = offSuccess + 1
	offChecksum   = 80

	// RecordSize is the number of bytes a Region must provide.
	RecordSize = offChecksum + 8
)

// MaxUpdateTimeLen and MaxTargetDateLen are the usable bytes of the two
// NUL-terminated string buffers.
const (
	MaxUpdateTimeLen = updateTimeSize - 1
	MaxTargetDateLen = targetDateSize - 1
)

type record struct {
	days       int64
	progress   float64
	updateTime string
	targetDate string
	success    bool
	hasData    bool
}

func recordFromSnapshot(s domain.Snapshot) record {
	return record{
		days:       int64(s.DaysRemaining),
		progress:   s.ProgressPercent,
		updateTime: truncate(s.LastUpdateTime, MaxUpdateTimeLen),
		targetDate: truncate(s.TargetDateLabel, MaxTargetDateLen),
		success:    s.LastUpdateSuccess,
		hasData:    true,
	}
}

func (r record) snapshot() domain.Snapshot {
	return domain.Snapshot{
		DaysRemaining:     int(r.days),
		ProgressPercent:   r.progress,
		LastUpdateTime:    r.updateTime,
		TargetDateLabel:   r.targetDate,
		LastUpdateSuccess: r.success,
		Presentable:       true,
	}
}

func (r record) encode() [RecordSize]byte {
	var buf [RecordSize]byte

	copy(buf[offMagic:], recordMagic)
	buf[offVersion] = recordVersion
	binary.LittleEndian.PutUint64(buf[offDays:], uint64(r.days))
	binary.LittleEndian.PutUint64(buf[offProgress:], math.Float64bits(r.progress))
	copy(buf[offUpdateTime:offUpdateTime+MaxUpdateTimeLen], r.updateTime)
	copy(buf[offTargetDate:offTargetDate+MaxTargetDateLen], r.targetDate)
	buf[offSuccess] = boolByte(r.success)
	buf[offHasData] = boolByte(r.hasData)
	binary.LittleEndian.PutUint64(buf[offChecksum:], xxh3.Hash(buf[:offChecksum]))

	return buf
}

// decodeRecord reports false for a region that does not hold a valid record,
// which is what retained memory looks like after a power loss.
func decodeRecord(buf []byte) (record, bool) {
	if len(buf) < RecordSize {
		return record{}, false
	}
	if string(buf[offMagic:offMagic+len(recordMagic)]) != recordMagic || buf[offVersion] != recordVersion {
		return record{}, false
	}
	if binary.LittleEndian.Uint64(buf[offChecksum:]) != xxh3.Hash(buf[:offChecksum]) {
		return record{}, false
	}

	return record{
		days:       int64(binary.LittleEndian.Uint64(buf[offDays:])),
		progress:   math.Float64frombits(binary.LittleEndian.Uint64(buf[offProgress:])),
		updateTime: cString(buf[offUpdateTime : offUpdateTime+updateTimeSize]),
		targetDate: cString(buf[offTargetDate : offTargetDate+targetDateSize]),
		success:    buf[offSuccess] == 1,
		hasData:    buf[offHasData] == 1,
	}, true
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}

	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}

func cString(buf []byte) string {
	for i, b := range buf {
		if b == 0 {
			return string(buf[:i])
		}
	}
	return string(buf)
}

func boolByte(v bool) byte {
	if v {
		return 1
	}
	return 0
}
