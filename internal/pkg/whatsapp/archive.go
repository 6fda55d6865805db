package whatsapp

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/ioutil"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3" // sqlite3 driver for the session store
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"

	"gitlab.com/kavenc/prismabot/internal/pkg/prismabot"
)

// sessionArchive keeps the sqlite session store in MongoDB so a new host
// can resume the pairing without scanning a QR code again
type sessionArchive struct {
	name      string
	storePath string
	requests  chan<- prismabot.DatabaseRequest
	logger    *logrus.Entry
}

type loadResult struct {
	data []byte
	err  error
}

func storeDSN(path string) string {
	return "file:" + path + "?_foreign_keys=on"
}

// request pushes action to the database handler and waits for its result
func (a *sessionArchive) request(ctx context.Context, action func(context.Context, *mongo.Database) interface{}) (interface{}, error) {
	ret := make(chan interface{}, 1)
	select {
	case a.requests <- prismabot.DatabaseRequest{Action: action, Return: ret}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case result := <-ret:
		return result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// restore writes the archived store to disk unless a local store exists
func (a *sessionArchive) restore(ctx context.Context) error {
	if _, err := os.Stat(a.storePath); err == nil {
		a.logger.Info("local session store found, archive not restored")
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}

	result, err := a.request(ctx, func(ctx context.Context, db *mongo.Database) interface{} {
		data, err := prismabot.LoadArchive(ctx, db, a.name)
		return loadResult{data: data, err: err}
	})
	if err != nil {
		return err
	}
	var loaded loadResult
	switch r := result.(type) {
	case loadResult:
		loaded = r
	case error:
		return r
	default:
		return fmt.Errorf("unexpected archive result: %v", result)
	}

	if errors.Is(loaded.err, prismabot.ErrArchiveNotFound) {
		a.logger.Info("no archived session, a new pairing is needed")
		return nil
	}
	if loaded.err != nil {
		return loaded.err
	}
	if err = os.MkdirAll(filepath.Dir(a.storePath), 0700); err != nil {
		return err
	}
	if err = ioutil.WriteFile(a.storePath, loaded.data, 0600); err != nil {
		return err
	}
	a.logger.Infof("session restored from archive: %d bytes", len(loaded.data))
	return nil
}

// snapshot stores a consistent copy of the session store
func (a *sessionArchive) snapshot(ctx context.Context) error {
	data, err := vacuumCopy(ctx, a.storePath)
	if err != nil {
		return err
	}
	result, err := a.request(ctx, func(ctx context.Context, db *mongo.Database) interface{} {
		return prismabot.SaveArchive(ctx, db, a.name, data)
	})
	if err != nil {
		return err
	}
	if err, ok := result.(error); ok {
		return err
	}
	a.logger.Debugf("session archived: %d bytes", len(data))
	return nil
}

// vacuumCopy returns a compacted copy of the sqlite database at path
// The copy is consistent even while the store is written by the client
func vacuumCopy(ctx context.Context, path string) ([]byte, error) {
	db, err := sql.Open("sqlite3", storeDSN(path))
	if err != nil {
		return nil, err
	}
	defer db.Close()

	tmp, err := ioutil.TempFile(filepath.Dir(path), ".snapshot-*.db")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	// VACUUM INTO refuses to overwrite
	os.Remove(tmpPath)
	defer os.Remove(tmpPath)

	if _, err = db.ExecContext(ctx, "VACUUM INTO ?", tmpPath); err != nil {
		return nil, fmt.Errorf("vacuum session store: %w", err)
	}
	return ioutil.ReadFile(tmpPath)
}
