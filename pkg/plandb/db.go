// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Mark Feghali

package plandb

import (
	"fmt"
	"sync"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/iterator"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/wingedpig/cidrplan/pkg/cidr"
	"github.com/wingedpig/cidrplan/pkg/model"
)

// DB wraps a LevelDB instance holding one generated subnet plan, keyed by
// subnet start address so containment lookups can seek.
type DB struct {
	db     *leveldb.DB
	mu     sync.RWMutex
	path   string
	closed bool
}

// Open opens or creates a plan database at the specified path.
func Open(path string) (*DB, error) {
	opts := &opt.Options{
		Compression: opt.SnappyCompression,
	}

	db, err := leveldb.OpenFile(path, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	return &DB{
		db:   db,
		path: path,
	}, nil
}

// Close closes the database.
func (d *DB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return model.ErrDatabaseClosed
	}

	d.closed = true
	return d.db.Close()
}

// IsClosed returns true if the database is closed.
func (d *DB) IsClosed() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.closed
}

// Path returns the database path.
func (d *DB) Path() string {
	return d.path
}

// Get retrieves a value by key. A missing key returns nil, nil.
func (d *DB) Get(key []byte) ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return nil, model.ErrDatabaseClosed
	}

	value, err := d.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}
	return value, nil
}

// Put stores a key-value pair.
func (d *DB) Put(key, value []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return model.ErrDatabaseClosed
	}

	return d.db.Put(key, value, nil)
}

// Delete removes a key-value pair.
func (d *DB) Delete(key []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return model.ErrDatabaseClosed
	}

	return d.db.Delete(key, nil)
}

// NewIterator creates an iterator over a key range.
func (d *DB) NewIterator(slice *util.Range) iterator.Iterator {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return d.db.NewIterator(slice, nil)
}

// BatchOp is one operation of a WriteBatch.
type BatchOp struct {
	Key    []byte
	Value  []byte
	Delete bool
}

// WriteBatch applies multiple operations atomically.
func (d *DB) WriteBatch(ops []BatchOp) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		return model.ErrDatabaseClosed
	}

	batch := new(leveldb.Batch)
	for _, op := range ops {
		if op.Delete {
			batch.Delete(op.Key)
		} else {
			batch.Put(op.Key, op.Value)
		}
	}

	return d.db.Write(batch, nil)
}

// storedAllocation is the msgpack wire form of a subnet record. The start
// address lives in the key; everything else is in the value.
type storedAllocation struct {
	End              uint32
	Prefix           int
	AccountName      string
	VpcName          string
	CloudProvider    string
	RegionName       string
	AvailabilityZone string
	RegionCidr       string
	VpcCidr          string
	AzCidr           string
	SubnetRole       string
	UsableIPs        uint64
	Schema           int
}

// encodeAllocation serializes a subnet record to msgpack.
func encodeAllocation(alloc *model.Allocation) ([]byte, error) {
	r := alloc.SubnetCidr.Range()
	data := storedAllocation{
		End:              r.End,
		Prefix:           alloc.SubnetCidr.Prefix(),
		AccountName:      alloc.AccountName,
		VpcName:          alloc.VpcName,
		CloudProvider:    alloc.CloudProvider,
		RegionName:       alloc.RegionName,
		AvailabilityZone: alloc.AvailabilityZone,
		RegionCidr:       alloc.RegionCidr.String(),
		VpcCidr:          alloc.VpcCidr.String(),
		AzCidr:           alloc.AzCidr.String(),
		SubnetRole:       alloc.SubnetRole,
		UsableIPs:        alloc.UsableIPs,
		Schema:           schemaVersion,
	}
	return msgpack.Marshal(data)
}

// decodeAllocation deserializes a subnet record from msgpack.
func decodeAllocation(start uint32, data []byte) (*model.Allocation, error) {
	var stored storedAllocation
	if err := msgpack.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}

	alloc := &model.Allocation{
		AccountName:      stored.AccountName,
		VpcName:          stored.VpcName,
		CloudProvider:    stored.CloudProvider,
		RegionName:       stored.RegionName,
		AvailabilityZone: stored.AvailabilityZone,
		SubnetRole:       stored.SubnetRole,
		UsableIPs:        stored.UsableIPs,
		SubnetCidr:       cidr.New(start, stored.Prefix),
	}

	for _, field := range []struct {
		dst *cidr.Block
		src string
	}{
		{&alloc.RegionCidr, stored.RegionCidr},
		{&alloc.VpcCidr, stored.VpcCidr},
		{&alloc.AzCidr, stored.AzCidr},
	} {
		block, err := cidr.Parse(field.src)
		if err != nil {
			return nil, fmt.Errorf("corrupt record for %s: %w", alloc.SubnetCidr, err)
		}
		*field.dst = block
	}

	return alloc, nil
}
