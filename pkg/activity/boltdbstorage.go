package activity

import (
	bolt "go.etcd.io/bbolt"
)

type BoltDBEventStorage struct {
	bucket []byte
	db     *bolt.DB
}

// OpenBoltDBEventStorage opens (or creates) the BoltDB file at path.
func OpenBoltDBEventStorage(path, bucket string) (EventStorage, error) {
	db, err := bolt.Open(path, 0600, nil)
	if err != nil {
		return nil, err
	}

	store, err := NewBoltDBEventStorage(bucket, db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

func NewBoltDBEventStorage(bucket string, db *bolt.DB) (EventStorage, error) {
	bucketKey := []byte(bucket)

	err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketKey)
		return err
	})
	if err != nil {
		return nil, err
	}

	return &BoltDBEventStorage{
		bucket: bucketKey,
		db:     db,
	}, nil
}

func (es *BoltDBEventStorage) Add(key string, event []byte) error {
	return es.db.Update(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(es.bucket)

		return bucket.Put([]byte(key), event)
	})
}

// Each walks the bucket in byte order, which is key order for our fixed-width keys.
func (es *BoltDBEventStorage) Each(handler func(string, []byte) error) error {
	return es.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket(es.bucket)

		return bucket.ForEach(func(k, v []byte) error {
			// Allow the bytes to live outside transaction by copy
			key := make([]byte, len(k))
			value := make([]byte, len(v))

			copy(key, k)
			copy(value, v)

			return handler(string(key), value)
		})
	})
}

func (es *BoltDBEventStorage) Close() error {
	return es.db.Close()
}
