// Package wal implements the collection-level write-ahead log: a
// length-prefixed, CRC-32C checksummed record stream that is replayed
// on open to reconstruct a collection's metadata store and HNSW graph.
//
// Record framing (little-endian):
//
//	length   uint32  // bytes in the payload that follows
//	type     uint8   // RecordType
//	seq      uint64  // monotonically increasing sequence number
//	payload  []byte  // length bytes, opaque to this package
//	crc32    uint32  // CRC-32C (Castagnoli) over type+seq+payload
//
// The length field is not covered by the checksum so a torn write that
// only got as far as the length prefix is detected by a short read,
// not a checksum mismatch.
package wal

import (
	"bufio"
	"encoding/binary"
	"hash"
	"hash/crc32"
	"io"
	"os"

	vecerr "github.com/rdmurugan/d-vecDB/pkg/errors"
)

// RecordType identifies the kind of operation a WAL record carries.
type RecordType uint8

const (
	RecordInsert RecordType = iota + 1
	RecordUpdate
	RecordDelete
	RecordCheckpoint
)

var crc32cTable = crc32.MakeTable(crc32.Castagnoli)

func newCRC32C() hash.Hash32 { return crc32.New(crc32cTable) }

// Record is one framed entry in the log.
type Record struct {
	Seq     uint64
	Type    RecordType
	Payload []byte
}

const headerSize = 4 + 1 + 8 // length + type + seq
const crcSize = 4

// Writer appends records to a single WAL file, fsyncing per the
// configured durability mode.
type Writer struct {
	f    *os.File
	w    *bufio.Writer
	seq  uint64
	size int64
}

// OpenWriter opens (creating if necessary) a WAL file for appending,
// seeking to the end so a reopened log continues its sequence.
func OpenWriter(path string, startSeq uint64) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return nil, vecerr.Wrap(vecerr.KindWalIoError, "wal.OpenWriter", "failed to open WAL file", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, vecerr.Wrap(vecerr.KindWalIoError, "wal.OpenWriter", "failed to stat WAL file", err)
	}
	return &Writer{f: f, w: bufio.NewWriter(f), seq: startSeq, size: info.Size()}, nil
}

// Append writes one record and returns the sequence number assigned
// to it. It does not fsync; call Sync explicitly or rely on the
// collection's interval-based flush policy.
func (w *Writer) Append(typ RecordType, payload []byte) (uint64, error) {
	w.seq++
	seq := w.seq

	var header [headerSize]byte
	binary.LittleEndian.PutUint32(header[0:4], uint32(len(payload)))
	header[4] = byte(typ)
	binary.LittleEndian.PutUint64(header[5:13], seq)

	crc := newCRC32C()
	crc.Write(header[4:]) // type + seq, excluding length
	crc.Write(payload)

	if _, err := w.w.Write(header[:]); err != nil {
		return 0, vecerr.Wrap(vecerr.KindWalIoError, "wal.Append", "failed to write record header", err)
	}
	if _, err := w.w.Write(payload); err != nil {
		return 0, vecerr.Wrap(vecerr.KindWalIoError, "wal.Append", "failed to write record payload", err)
	}
	var crcBuf [crcSize]byte
	binary.LittleEndian.PutUint32(crcBuf[:], crc.Sum32())
	if _, err := w.w.Write(crcBuf[:]); err != nil {
		return 0, vecerr.Wrap(vecerr.KindWalIoError, "wal.Append", "failed to write record checksum", err)
	}

	w.size += int64(headerSize) + int64(len(payload)) + int64(crcSize)
	return seq, nil
}

// Sync flushes buffered writes and fsyncs the underlying file.
func (w *Writer) Sync() error {
	if err := w.w.Flush(); err != nil {
		return vecerr.Wrap(vecerr.KindWalIoError, "wal.Sync", "failed to flush WAL buffer", err)
	}
	if err := w.f.Sync(); err != nil {
		return vecerr.Wrap(vecerr.KindWalIoError, "wal.Sync", "failed to fsync WAL file", err)
	}
	return nil
}

// LastSeq returns the sequence number of the most recently appended record.
func (w *Writer) LastSeq() uint64 { return w.seq }

// Size returns the writer's logical view of the file size, including
// buffered-but-unflushed bytes.
func (w *Writer) Size() int64 { return w.size }

func (w *Writer) Close() error {
	if err := w.Sync(); err != nil {
		w.f.Close()
		return err
	}
	return w.f.Close()
}

// Replay reads every well-formed record from path in order, invoking
// fn for each. The first record that is short (a torn write from a
// crash mid-append) or fails its checksum ends the replay: Replay
// truncates the file to the last good record boundary, discarding that
// record and every record after it, and returns truncated=true instead
// of an error. This holds wherever the bad record sits, not only at
// the tail.
func Replay(path string, fn func(Record) error) (lastSeq uint64, truncated bool, err error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0644)
	if os.IsNotExist(err) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, vecerr.Wrap(vecerr.KindWalIoError, "wal.Replay", "failed to open WAL file", err)
	}
	defer f.Close()

	r := bufio.NewReader(f)
	var offset int64

	for {
		rec, n, rerr := readRecord(r)
		if rerr == io.EOF {
			break
		}
		if rerr == errShortOrCorrupt {
			if terr := f.Truncate(offset); terr != nil {
				return lastSeq, false, vecerr.Wrap(vecerr.KindWalIoError, "wal.Replay", "failed to truncate torn WAL tail", terr)
			}
			return lastSeq, true, nil
		}
		if rerr != nil {
			return lastSeq, false, vecerr.Wrap(vecerr.KindCorruptionFatal, "wal.Replay", "failed to read WAL record", rerr)
		}
		if err := fn(*rec); err != nil {
			return lastSeq, false, err
		}
		lastSeq = rec.Seq
		offset += n
	}
	return lastSeq, false, nil
}

var errShortOrCorrupt = io.ErrUnexpectedEOF

func readRecord(r *bufio.Reader) (*Record, int64, error) {
	var header [headerSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return nil, 0, io.EOF
		}
		return nil, 0, errShortOrCorrupt
	}
	length := binary.LittleEndian.Uint32(header[0:4])
	typ := RecordType(header[4])
	seq := binary.LittleEndian.Uint64(header[5:13])

	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return nil, 0, errShortOrCorrupt
	}

	var crcBuf [crcSize]byte
	if _, err := io.ReadFull(r, crcBuf[:]); err != nil {
		return nil, 0, errShortOrCorrupt
	}
	wantCRC := binary.LittleEndian.Uint32(crcBuf[:])

	crc := newCRC32C()
	crc.Write(header[4:])
	crc.Write(payload)
	if crc.Sum32() != wantCRC {
		return nil, 0, errShortOrCorrupt
	}

	total := int64(headerSize) + int64(length) + int64(crcSize)
	return &Record{Seq: seq, Type: typ, Payload: payload}, total, nil
}
