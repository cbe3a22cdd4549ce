package vaccount

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"net/url"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var errScriptNotCached = badger.ErrKeyNotFound

type cachedScript struct {
	Contents  []byte
	ExpiresAt int64
}

// scriptCache keeps fetched scripts between resolutions, the site's
// scripts change far less often than accounts are requested.
type scriptCache struct {
	db  *badger.DB
	ttl time.Duration
	now func() time.Time
}

// normalizeURL works on a copy, purell rewrites the url it is given.
// trailing slashes are left alone since "/x.js/" is a different resource.
func normalizeURL(u *url.URL) string {
	clone := *u
	return purell.NormalizeURL(
		&clone,
		purell.FlagsSafe|
			purell.FlagRemoveDotSegments|
			purell.FlagRemoveDuplicateSlashes|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
}

func (c *scriptCache) key(u *url.URL) []byte {
	return []byte("script:" + normalizeURL(u))
}

func (c *scriptCache) get(ctx context.Context, u *url.URL) ([]byte, error) {
	_, span := tracer.Start(ctx, "scriptCache:get")
	defer span.End()
	key := c.key(u)
	span.SetAttributes(attribute.String("cache_key", string(key)))

	tx := c.db.NewTransaction(false)
	defer tx.Discard()
	item, err := tx.Get(key)
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, errScriptNotCached
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to read item from badger")
		return nil, err
	}
	serialized, err := item.ValueCopy(nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to copy cached item")
		return nil, err
	}

	var cached cachedScript
	err = gob.NewDecoder(bytes.NewReader(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return nil, err
	}
	if c.now().Unix() >= cached.ExpiresAt {
		err = c.db.Update(func(txn *badger.Txn) error {
			return txn.Delete(key)
		})
		if err != nil {
			span.RecordError(err)
		}
		span.SetStatus(codes.Ok, "CACHE EXPIRED")
		return nil, errScriptNotCached
	}
	return cached.Contents, nil
}

func (c *scriptCache) set(ctx context.Context, u *url.URL, contents []byte) error {
	_, span := tracer.Start(ctx, "scriptCache:set")
	defer span.End()

	serialized := bytes.NewBuffer(nil)
	err := gob.NewEncoder(serialized).Encode(cachedScript{
		Contents:  contents,
		ExpiresAt: c.now().Add(c.ttl).Unix(),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize script")
		return err
	}
	err = c.db.Update(func(txn *badger.Txn) error {
		return txn.Set(c.key(u), serialized.Bytes())
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}
	return nil
}
