// Package mongodb stores accounts, user state and task buckets as documents in
// a MongoDB database.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/pdxmph/scheduler-tui/internal/logger"
	"github.com/pdxmph/scheduler-tui/internal/schedule"
	"github.com/pdxmph/scheduler-tui/internal/storage"
)

func init() {
	storage.Register("mongo", func(opts storage.Options) (storage.Backend, error) {
		return Connect(context.Background(), opts.URI, opts.Database)
	})
}

// DefaultDatabase is used when no database name is configured.
const DefaultDatabase = "scheduler"

const connectTimeout = 10 * time.Second

type accountDoc struct {
	ID           string    `bson:"_id"`
	Email        string    `bson:"email"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

type stateDoc struct {
	UserID string `bson:"_id"`
	XP     int    `bson:"xp"`
	Level  int    `bson:"level"`
	Theme  string `bson:"theme,omitempty"`
}

type bucketDoc struct {
	UserID string        `bson:"user_id"`
	Date   string        `bson:"date"`
	Tasks  bson.RawValue `bson:"tasks"`
}

// Store is a MongoDB storage.Backend.
type Store struct {
	client   *mongo.Client
	accounts *mongo.Collection
	states   *mongo.Collection
	buckets  *mongo.Collection
	log      *logrus.Entry
}

// Connect dials uri, checks the deployment answers and ensures indexes.
func Connect(ctx context.Context, uri, database string) (*Store, error) {
	if uri == "" {
		return nil, fmt.Errorf("%w: mongo uri is not configured", storage.ErrUnavailable)
	}
	if database == "" {
		database = DefaultDatabase
	}

	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to mongo: %v", storage.ErrUnavailable, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: pinging mongo: %v", storage.ErrUnavailable, err)
	}

	db := client.Database(database)
	s := &Store{
		client:   client,
		accounts: db.Collection("accounts"),
		states:   db.Collection("user_state"),
		buckets:  db.Collection("task_buckets"),
		log:      logger.For("mongo"),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		client.Disconnect(context.Background())
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.accounts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating account index: %w", err)
	}
	_, err = s.buckets.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("creating bucket index: %w", err)
	}
	return nil
}

func (s *Store) Name() string { return "mongo" }

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) CreateAccount(ctx context.Context, a storage.Account) error {
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now()
	}
	_, err := s.accounts.InsertOne(ctx, accountDoc{
		ID:           a.ID,
		Email:        storage.NormalizeEmail(a.Email),
		PasswordHash: a.PasswordHash,
		CreatedAt:    a.CreatedAt.UTC(),
	})
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting account: %w", err)
	}
	return nil
}

func (s *Store) FindAccount(ctx context.Context, email string) (storage.Account, error) {
	var doc accountDoc
	err := s.accounts.FindOne(ctx, bson.M{"email": storage.NormalizeEmail(email)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.Account{}, storage.ErrNotFound
	}
	if err != nil {
		return storage.Account{}, fmt.Errorf("finding account: %w", err)
	}
	return storage.Account{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (s *Store) LoadUserState(ctx context.Context, userID string) (storage.UserState, error) {
	var doc stateDoc
	err := s.states.FindOne(ctx, bson.M{"_id": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.DefaultUserState(), nil
	}
	if err != nil {
		return storage.UserState{}, fmt.Errorf("finding user state: %w", err)
	}
	return storage.UserState{XP: doc.XP, Level: doc.Level, Theme: doc.Theme}, nil
}

// SaveUserState upserts; fields absent from patch get their defaults only
// when the document is created.
func (s *Store) SaveUserState(ctx context.Context, userID string, patch storage.UserStatePatch) error {
	def := storage.DefaultUserState()
	set := bson.M{"updated_at": time.Now().UTC()}
	onInsert := bson.M{}

	if patch.XP != nil {
		set["xp"] = *patch.XP
	} else {
		onInsert["xp"] = def.XP
	}
	if patch.Level != nil {
		set["level"] = *patch.Level
	} else {
		onInsert["level"] = def.Level
	}
	if patch.Theme != nil {
		set["theme"] = *patch.Theme
	}

	update := bson.M{"$set": set}
	if len(onInsert) > 0 {
		update["$setOnInsert"] = onInsert
	}

	_, err := s.states.UpdateOne(ctx, bson.M{"_id": userID}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upserting user state: %w", err)
	}
	return nil
}

func (s *Store) LoadTasks(ctx context.Context, userID string) (map[string][]schedule.Task, error) {
	cur, err := s.buckets.Find(ctx, bson.M{"user_id": userID}, options.Find().SetSort(bson.D{{Key: "date", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("finding task buckets: %w", err)
	}
	defer cur.Close(ctx)

	buckets := make(map[string][]schedule.Task)
	var corrupt []string
	for cur.Next(ctx) {
		var doc bucketDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decoding task bucket: %w", err)
		}

		tasks, err := decodeTasks(doc)
		if err != nil {
			s.log.WithError(err).WithField("date", doc.Date).Warn("skipping corrupt bucket")
			corrupt = append(corrupt, doc.Date)
			continue
		}
		buckets[doc.Date] = tasks
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("reading task buckets: %w", err)
	}

	if len(corrupt) > 0 {
		sort.Strings(corrupt)
		return buckets, &storage.CorruptDataError{Dates: corrupt}
	}
	return buckets, nil
}

func decodeTasks(doc bucketDoc) ([]schedule.Task, error) {
	var tasks []schedule.Task
	if err := doc.Tasks.Unmarshal(&tasks); err != nil {
		return nil, fmt.Errorf("decoding tasks for %s: %w", doc.Date, err)
	}
	for i, t := range tasks {
		if err := storage.CheckTask(t); err != nil {
			return nil, fmt.Errorf("task %d on %s: %w", i, doc.Date, err)
		}
	}
	return tasks, nil
}

func (s *Store) SaveTasksForDate(ctx context.Context, userID, date string, tasks []schedule.Task) error {
	filter := bson.M{"user_id": userID, "date": date}
	if len(tasks) == 0 {
		if _, err := s.buckets.DeleteOne(ctx, filter); err != nil {
			return fmt.Errorf("deleting task bucket: %w", err)
		}
		return nil
	}

	update := bson.M{"$set": bson.M{"tasks": tasks, "updated_at": time.Now().UTC()}}
	if _, err := s.buckets.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upserting task bucket: %w", err)
	}
	return nil
}
