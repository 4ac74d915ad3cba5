package plandb

import (
	"fmt"
	"log"
	"net/netip"

	"github.com/syndtr/goleveldb/leveldb/util"

	"github.com/wingedpig/cidrplan/pkg/cidr"
	"github.com/wingedpig/cidrplan/pkg/model"
	"github.com/wingedpig/cidrplan/pkg/util/ipcodec"
)

// PutAllocation stores one subnet record, rejecting any overlap with a
// previously stored subnet. Records are keyed by subnet start address.
func (d *DB) PutAllocation(alloc *model.Allocation) error {
	if err := d.checkOverlap(alloc); err != nil {
		return err
	}

	value, err := encodeAllocation(alloc)
	if err != nil {
		return fmt.Errorf("failed to encode record: %w", err)
	}

	key := ipcodec.EncodeSubnetKey(alloc.SubnetCidr.Range().Start)
	if err := d.Put(key, value); err != nil {
		return fmt.Errorf("failed to store record: %w", err)
	}
	return nil
}

// StorePlan writes a full plan record by record and then stamps the
// metadata. The writes are not atomic: records stored before a failing
// record stay in the database. Overlap checking is per-record against the
// records already written, so storing into a fresh database mirrors the
// planner's own guarantees.
func (d *DB) StorePlan(allocations []model.Allocation, generatorVersion string) error {
	for i := range allocations {
		if err := d.PutAllocation(&allocations[i]); err != nil {
			return fmt.Errorf("record %d (%s): %w", i, allocations[i].SubnetCidr, err)
		}
	}
	if err := d.InitializeMetadata(generatorVersion); err != nil {
		return fmt.Errorf("failed to stamp metadata: %w", err)
	}
	return nil
}

// checkOverlap scans the stored neighbors of the new record for range
// intersection. Because keys are ordered by start address, only the record
// at/after the start and the one before it can overlap.
func (d *DB) checkOverlap(alloc *model.Allocation) error {
	newRange := alloc.SubnetCidr.Range()

	slice := &util.Range{
		Start: []byte(ipcodec.PrefixSubnet),
		Limit: []byte(ipcodec.PrefixSubnet + "\xFF"),
	}
	iter := d.NewIterator(slice)
	defer iter.Release()

	// Examine the neighbor before the start position and the one at/after
	// it; no other stored record can intersect.
	if iter.Seek(ipcodec.EncodeSubnetKey(newRange.Start)) {
		if !iter.Prev() {
			iter.First()
		}
	} else {
		iter.Last()
	}

	for checked := 0; checked < 2 && iter.Valid(); checked++ {
		start, err := ipcodec.DecodeSubnetKey(iter.Key())
		if err != nil {
			iter.Next()
			continue
		}
		existing, err := decodeAllocation(start, iter.Value())
		if err != nil {
			iter.Next()
			continue
		}

		existingRange := existing.SubnetCidr.Range()
		if newRange.Start <= existingRange.End && existingRange.Start <= newRange.End {
			if existing.SubnetCidr == alloc.SubnetCidr {
				// Same block: treat as an update of the record.
				log.Printf("INFO: Updating existing record for %s", alloc.SubnetCidr)
				return nil
			}
			return cidr.NewError(cidr.KindCidrOverlap, "stored plan already covers this space").
				With("cidr1", alloc.SubnetCidr.String()).
				With("cidr2", existing.SubnetCidr.String()).
				With("subnet2", existing.AccountName+"/"+existing.CloudProvider+"/"+existing.AvailabilityZone+"/"+existing.SubnetRole)
		}

		iter.Next()
	}

	return nil
}

// GetByIP returns the subnet record containing the IP using a seek/prev
// walk over the ordered keys, or model.ErrNotFound.
func (d *DB) GetByIP(ip netip.Addr) (*model.Allocation, error) {
	if d.IsClosed() {
		return nil, model.ErrDatabaseClosed
	}

	n, ok := ipcodec.AddrToUint32(ip)
	if !ok {
		return nil, model.ErrInvalidIP
	}

	slice := &util.Range{
		Start: []byte(ipcodec.PrefixSubnet),
		Limit: []byte(ipcodec.PrefixSubnet + "\xFF"),
	}
	iter := d.NewIterator(slice)
	defer iter.Release()

	// Position on the last record whose start is <= ip.
	if iter.Seek(ipcodec.EncodeSubnetKey(n)) {
		start, err := ipcodec.DecodeSubnetKey(iter.Key())
		if err != nil {
			return nil, fmt.Errorf("invalid key: %w", err)
		}
		if start > n {
			if !iter.Prev() {
				return nil, model.ErrNotFound
			}
		}
	} else {
		if !iter.Last() {
			return nil, model.ErrNotFound
		}
	}

	start, err := ipcodec.DecodeSubnetKey(iter.Key())
	if err != nil {
		return nil, fmt.Errorf("invalid key: %w", err)
	}
	rec, err := decodeAllocation(start, iter.Value())
	if err != nil {
		return nil, fmt.Errorf("failed to decode record: %w", err)
	}

	r := rec.SubnetCidr.Range()
	if ipcodec.IsInRange(n, r.Start, r.End) {
		return rec, nil
	}
	return nil, model.ErrNotFound
}

// LookupString parses an IP string and performs the containment lookup.
func (d *DB) LookupString(ipStr string) (*model.Allocation, error) {
	ip, err := ipcodec.ParseIP(ipStr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrInvalidIP, err)
	}
	return d.GetByIP(ip)
}

// IterateAllocations walks all stored subnet records in address order.
func (d *DB) IterateAllocations(fn func(*model.Allocation) error) error {
	slice := &util.Range{
		Start: []byte(ipcodec.PrefixSubnet),
		Limit: []byte(ipcodec.PrefixSubnet + "\xFF"),
	}
	iter := d.NewIterator(slice)
	defer iter.Release()

	for iter.Next() {
		start, err := ipcodec.DecodeSubnetKey(iter.Key())
		if err != nil {
			log.Printf("WARN: Failed to decode key: %v", err)
			continue
		}
		rec, err := decodeAllocation(start, iter.Value())
		if err != nil {
			log.Printf("WARN: Failed to decode record at %s: %v", ipcodec.Uint32ToAddr(start), err)
			continue
		}
		if err := fn(rec); err != nil {
			return err
		}
	}

	return iter.Error()
}

// CountAllocations counts the stored subnet records.
func (d *DB) CountAllocations() (int64, error) {
	var count int64
	slice := &util.Range{
		Start: []byte(ipcodec.PrefixSubnet),
		Limit: []byte(ipcodec.PrefixSubnet + "\xFF"),
	}
	iter := d.NewIterator(slice)
	defer iter.Release()
	for iter.Next() {
		count++
	}
	if err := iter.Error(); err != nil {
		return 0, err
	}
	return count, nil
}
