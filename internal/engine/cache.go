package engine

import (
	"bytes"
	"context"
	"encoding/gob"
	"net/url"
	"time"

	"github.com/PuerkitoBio/purell"
	"github.com/dgraph-io/badger/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var errPageNotFound = badger.ErrKeyNotFound

type cachedPage struct {
	Contents  []byte
	FetchedAt int64
	ExpiresAt int64
}

// pageCache keeps fetched pages in badger keyed by normalized url, so
// repeated cycles against a slow-moving site skip the network
// entirely until the entry expires.
type pageCache struct {
	db  *badger.DB
	ttl time.Duration
}

func (c pageCache) key(pageUrl string) (string, error) {
	parsed, err := url.Parse(pageUrl)
	if err != nil {
		return "", err
	}
	normalized := purell.NormalizeURL(
		parsed,
		purell.FlagsSafe|
			purell.FlagsUsuallySafeNonGreedy|
			purell.FlagRemoveDirectoryIndex|
			purell.FlagRemoveFragment|
			purell.FlagSortQuery,
	)
	return normalized, nil
}

func (c pageCache) get(ctx context.Context, pageUrl string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "cache:get")
	defer span.End()

	key, err := c.key(pageUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return nil, err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	tx := c.db.NewTransaction(false)
	defer tx.Discard()

	item, err := tx.Get([]byte(key))
	if err == badger.ErrKeyNotFound {
		return nil, errPageNotFound
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

	var cached cachedPage
	err = gob.NewDecoder(bytes.NewBuffer(serialized)).Decode(&cached)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to deserialize cached item")
		return nil, err
	}

	if time.Now().Unix() >= cached.ExpiresAt {
		span.AddEvent("delete expired cache key", trace.WithAttributes(
			attribute.String("key", key),
		))

		wtx := c.db.NewTransaction(true)
		defer wtx.Commit()
		err = wtx.Delete([]byte(key))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to delete expired key")
		}
		return nil, errPageNotFound
	}

	span.SetStatus(codes.Ok, "CACHE HIT")
	return cached.Contents, nil
}

func (c pageCache) set(ctx context.Context, pageUrl string, contents []byte) error {
	ctx, span := tracer.Start(ctx, "cache:set")
	defer span.End()

	key, err := c.key(pageUrl)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to create cache key")
		return err
	}
	span.SetAttributes(attribute.String("cache_key", key))

	now := time.Now().Unix()
	serialized := bytes.NewBuffer(nil)
	err = gob.NewEncoder(serialized).Encode(cachedPage{
		Contents:  contents,
		FetchedAt: now,
		ExpiresAt: now + int64(c.ttl/time.Second),
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to serialize page")
		return err
	}

	tx := c.db.NewTransaction(true)
	defer tx.Commit()

	err = tx.Set([]byte(key), serialized.Bytes())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to set badger item")
		return err
	}
	return nil
}
