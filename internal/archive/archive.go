// Package archive writes finished tournament results to S3 compatible
// object storage as immutable JSON documents.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"
	"time"

	"sweeps-casino/internal/events"
	"sweeps-casino/internal/tournament"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/jpillora/backoff"
	"github.com/rs/zerolog/log"
)

var (
	ErrNoBucket  = errors.New("archive_bucket_required")
	ErrQueueFull = errors.New("archive_queue_full")
)

const (
	defaultQueue    = 256
	defaultAttempts = 4
)

// Uploader is the slice of the S3 client the archiver needs.
type Uploader interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Registrar is satisfied by events.Bus.
type Registrar interface {
	On(name string, fn events.Handler)
}

type Archiver struct {
	client   Uploader
	bucket   string
	prefix   string
	attempts int
	minWait  time.Duration

	queue chan tournament.TournamentResult
	wg    sync.WaitGroup
	once  sync.Once
}

func New(client Uploader, bucket, prefix string) (*Archiver, error) {
	if strings.TrimSpace(bucket) == "" {
		return nil, ErrNoBucket
	}
	return &Archiver{
		client:   client,
		bucket:   bucket,
		prefix:   strings.Trim(prefix, "/"),
		attempts: defaultAttempts,
		minWait:  200 * time.Millisecond,
		queue:    make(chan tournament.TournamentResult, defaultQueue),
	}, nil
}

// Key is the object key for a result: prefix/YYYY/MM/DD/<tournament id>.json.
func (a *Archiver) Key(res tournament.TournamentResult) string {
	day := res.FinishedAt.UTC().Format("2006/01/02")
	return path.Join(a.prefix, day, res.TournamentID+".json")
}

// Store uploads one result, retrying transient failures with backoff.
func (a *Archiver) Store(ctx context.Context, res tournament.TournamentResult) (string, error) {
	body, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return "", err
	}
	key := a.Key(res)
	b := &backoff.Backoff{Min: a.minWait, Max: 10 * time.Second, Factor: 2, Jitter: true}
	for attempt := 1; ; attempt++ {
		_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(a.bucket),
			Key:         aws.String(key),
			Body:        bytes.NewReader(body),
			ContentType: aws.String("application/json"),
			Metadata: map[string]string{
				"tournament-id": res.TournamentID,
				"game-type":     string(res.GameType),
			},
		})
		if err == nil {
			return key, nil
		}
		if attempt >= a.attempts || ctx.Err() != nil {
			return "", fmt.Errorf("archive %s: %w", key, err)
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(b.Duration()):
		}
	}
}

// Enqueue hands a result to the background worker without blocking.
func (a *Archiver) Enqueue(res tournament.TournamentResult) error {
	select {
	case a.queue <- res:
		return nil
	default:
		return ErrQueueFull
	}
}

// Attach archives every tournament_finished event published on r.
func (a *Archiver) Attach(r Registrar) {
	r.On(tournament.EventFinished, func(ev events.Event) {
		fin, ok := ev.Data.(tournament.FinishedEvent)
		if !ok {
			return
		}
		if err := a.Enqueue(fin.Result); err != nil {
			log.Warn().Err(err).Str("tournament_id", fin.TournamentID).Msg("result archive dropped")
		}
	})
}

// Start runs the upload worker until ctx is done, then drains the queue.
func (a *Archiver) Start(ctx context.Context) {
	a.once.Do(func() {
		a.wg.Add(1)
		go a.run(ctx)
	})
}

func (a *Archiver) run(ctx context.Context) {
	defer a.wg.Done()
	for {
		select {
		case <-ctx.Done():
			a.drain()
			return
		case res := <-a.queue:
			a.upload(ctx, res)
		}
	}
}

func (a *Archiver) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for {
		select {
		case res := <-a.queue:
			a.upload(ctx, res)
		default:
			return
		}
	}
}

func (a *Archiver) upload(ctx context.Context, res tournament.TournamentResult) {
	key, err := a.Store(ctx, res)
	if err != nil {
		log.Error().Err(err).Str("tournament_id", res.TournamentID).Msg("result archive failed")
		return
	}
	log.Info().Str("tournament_id", res.TournamentID).Str("key", key).Msg("result archived")
}

// Wait blocks until the worker has exited.
func (a *Archiver) Wait() {
	a.wg.Wait()
}
