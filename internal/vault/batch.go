package vault

import "time"

// BatchItem is one fully in-memory item queued for StoreBatch. Unlike
// the streaming store operations, every item's final size is already
// known, so a whole batch can be assembled into one contiguous buffer
// and committed with a single Write and a single Sync — adapted from
// the teacher's Batch type (internal/database/batch.go in the
// reference repo), which batches key-value writes the same way.
type BatchItem struct {
	Name string
	Data []byte
}

// StoreBatch writes every item in items as its own back-patched
// record, but issues one Write and one fsync for the whole batch
// instead of one pair per item. bufferEnd bookkeeping and orphan-
// payload self-healing behave exactly as with individual StoreItem
// calls: a batch that fails partway through never advances bufferEnd.
func (v *Vault) StoreBatch(items []BatchItem) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrClosed
	}
	for _, it := range items {
		if len([]byte(it.Name)) > nameSize {
			return ErrNameTooLong
		}
	}
	if len(items) == 0 {
		return nil
	}

	now := time.Now().Unix()
	recordStart := v.bufferEnd
	offset := recordStart

	var buf []byte
	newRecords := make([]*Record, 0, len(items))

	for _, it := range items {
		payloadNonce, err := GenerateNonce()
		if err != nil {
			return err
		}
		cipher, err := v.factory.Renew(payloadNonce)
		if err != nil {
			return err
		}
		ct := cipher.Encrypt(it.Data)

		recNonce, err := GenerateNonce()
		if err != nil {
			return err
		}
		rec := &Record{
			RecNonce:  recNonce,
			Nonce:     payloadNonce,
			Name:      it.Name,
			DataSize:  uint64(len(ct)),
			Timestamp: now,
		}

		encoded, err := rec.Encode(v.factory)
		if err != nil {
			return err
		}

		buf = append(buf, encoded...)
		buf = append(buf, ct...)

		rec.DataPtr = offset + int64(RecordHeaderSize)
		offset += int64(len(encoded)) + int64(len(ct))
		newRecords = append(newRecords, rec)
	}

	if _, err := v.file.WriteAt(buf, recordStart); err != nil {
		return err
	}
	if err := v.file.Sync(); err != nil {
		return err
	}

	for _, rec := range newRecords {
		idx := len(v.records)
		v.records = append(v.records, rec)
		v.index.observe(rec, idx)
	}
	v.bufferEnd = offset
	return nil
}
