package prismabot

import (
	"bytes"
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const archiveBucket = "sessions"

// ErrArchiveNotFound is returned by LoadArchive if nothing was stored under the name
var ErrArchiveNotFound = errors.New("archive not found")

// Archives are whole files kept in GridFS, one live revision per name.
// Both helpers are meant to be called inside a DatabaseRequest Action.

func archiveBucketFor(ctx context.Context, db *mongo.Database) (*gridfs.Bucket, error) {
	bucket, err := gridfs.NewBucket(db, options.GridFSBucket().SetName(archiveBucket))
	if err != nil {
		return nil, err
	}
	if deadline, ok := ctx.Deadline(); ok {
		bucket.SetReadDeadline(deadline)
		bucket.SetWriteDeadline(deadline)
	}
	return bucket, nil
}

// SaveArchive stores data as the newest revision of name and removes the older ones
func SaveArchive(ctx context.Context, db *mongo.Database, name string, data []byte) error {
	bucket, err := archiveBucketFor(ctx, db)
	if err != nil {
		return err
	}

	id, err := bucket.UploadFromStream(name, bytes.NewReader(data))
	if err != nil {
		return err
	}

	cursor, err := bucket.FindContext(ctx, bson.M{"filename": name, "_id": bson.M{"$ne": id}})
	if err != nil {
		return err
	}
	var stale []gridfs.File
	if err = cursor.All(ctx, &stale); err != nil {
		return err
	}
	for _, file := range stale {
		if err = bucket.DeleteContext(ctx, file.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return err
		}
	}
	return nil
}

// LoadArchive returns the newest revision stored under name
func LoadArchive(ctx context.Context, db *mongo.Database, name string) ([]byte, error) {
	bucket, err := archiveBucketFor(ctx, db)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	_, err = bucket.DownloadToStreamByName(name, &buf)
	if errors.Is(err, gridfs.ErrFileNotFound) {
		return nil, ErrArchiveNotFound
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
