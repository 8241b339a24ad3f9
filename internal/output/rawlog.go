package output

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"clusterlog-go/internal/types"
)

const (
	frameLogMagic   = "CLOGRAW1"
	recordHeaderLen = 12
	maxRecordSize   = 64 << 20
)

var ErrBadMagic = errors.New("not a frame log")

// FrameLogWriter appends CBOR-encoded frame records to a binary log:
// the magic, then per record [unix nanos u64 LE][length u32 LE][payload].
type FrameLogWriter struct {
	mu   sync.Mutex
	path string
	f    *os.File
	w    *bufio.Writer
}

func NewFrameLogWriter(outputDir string, prefix string) (*FrameLogWriter, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, err
	}
	timestamp := time.Now().Format("20060102_150405")
	id := uuid.NewString()[:8]
	filename := filepath.Join(outputDir, fmt.Sprintf("%s_%s_%s.bin", timestamp, prefix, id))
	f, err := os.Create(filename)
	if err != nil {
		return nil, err
	}
	w := bufio.NewWriterSize(f, 1024*1024)
	if _, err := w.WriteString(frameLogMagic); err != nil {
		_ = f.Close()
		return nil, err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &FrameLogWriter{
		path: filename,
		f:    f,
		w:    w,
	}, nil
}

func (r *FrameLogWriter) Path() string { return r.path }

// Record encodes rec and appends it with the current time.
func (r *FrameLogWriter) Record(rec types.FrameRecord) error {
	payload, err := cbor.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode frame %d: %w", rec.Index, err)
	}
	return r.RecordPayload(time.Now(), payload)
}

func (r *FrameLogWriter) RecordPayload(ts time.Time, payload []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return fmt.Errorf("frame log writer is closed")
	}
	var header [recordHeaderLen]byte
	binary.LittleEndian.PutUint64(header[:8], uint64(ts.UnixNano()))
	binary.LittleEndian.PutUint32(header[8:12], uint32(len(payload)))
	if _, err := r.w.Write(header[:]); err != nil {
		return err
	}
	if _, err := r.w.Write(payload); err != nil {
		return err
	}
	return r.w.Flush()
}

func (r *FrameLogWriter) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.w == nil {
		return nil
	}
	if err := r.w.Flush(); err != nil {
		_ = r.f.Close()
		r.w = nil
		return err
	}
	err := r.f.Close()
	r.w = nil
	return err
}

// LogRecord is one entry read back from a frame log.
type LogRecord struct {
	Timestamp time.Time
	Payload   []byte
}

// Decode unmarshals the payload as a frame record.
func (l LogRecord) Decode() (types.FrameRecord, error) {
	var rec types.FrameRecord
	if err := cbor.Unmarshal(l.Payload, &rec); err != nil {
		return types.FrameRecord{}, err
	}
	return rec, nil
}

type FrameLogReader struct {
	r io.Reader
}

// NewFrameLogReader checks the magic and returns a reader positioned at the
// first record.
func NewFrameLogReader(r io.Reader) (*FrameLogReader, error) {
	header := make([]byte, len(frameLogMagic))
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("read magic: %w", err)
	}
	if string(header) != frameLogMagic {
		return nil, fmt.Errorf("%w: unexpected magic %q", ErrBadMagic, string(header))
	}
	return &FrameLogReader{r: bufio.NewReader(r)}, nil
}

// Next returns the next record, or io.EOF after the last one. A truncated
// trailing record is treated as the end of the log.
func (l *FrameLogReader) Next() (LogRecord, error) {
	var meta [recordHeaderLen]byte
	if _, err := io.ReadFull(l.r, meta[:]); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return LogRecord{}, io.EOF
		}
		return LogRecord{}, fmt.Errorf("read record header: %w", err)
	}
	ts := int64(binary.LittleEndian.Uint64(meta[:8]))
	size := binary.LittleEndian.Uint32(meta[8:12])
	if size > maxRecordSize {
		return LogRecord{}, fmt.Errorf("record size %d exceeds limit", size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(l.r, payload); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
			return LogRecord{}, io.EOF
		}
		return LogRecord{}, fmt.Errorf("read payload: %w", err)
	}
	return LogRecord{Timestamp: time.Unix(0, ts), Payload: payload}, nil
}
