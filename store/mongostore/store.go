// Package mongostore persists accounts in MongoDB. Documents keep the field
// names of the original user collection (password, otp, otpExpires,
// resetPasswordToken, resetPasswordExpires) so existing data can be served.
//
// Writes use optimistic concurrency: every update filters on the version it
// read and retries when another writer got there first.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goAccount/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// DefaultCollection is used when New is given an empty collection name.
	DefaultCollection = "users"
	maxRetries        = 8
)

type accountDoc struct {
	ID           string     `bson:"_id"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"password,omitempty"`
	Name         string     `bson:"name,omitempty"`
	Phone        string     `bson:"phone,omitempty"`
	Role         string     `bson:"role"`
	IsVerified   bool       `bson:"isVerified"`
	OTP          *string    `bson:"otp,omitempty"`
	OTPExpires   *time.Time `bson:"otpExpires,omitempty"`
	ResetToken   *string    `bson:"resetPasswordToken,omitempty"`
	ResetExpires *time.Time `bson:"resetPasswordExpires,omitempty"`
	CreatedAt    time.Time  `bson:"createdAt"`
	UpdatedAt    time.Time  `bson:"updatedAt"`
	Version      int64      `bson:"version"`
}

var secretFields = bson.M{
	"password":             0,
	"otp":                  0,
	"otpExpires":           0,
	"resetPasswordToken":   0,
	"resetPasswordExpires": 0,
}

// Store is a MongoDB backed [store.Store].
type Store struct {
	client *mongo.Client
	coll   *mongo.Collection
	now    func() time.Time
}

// Connect dials uri and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return client, nil
}

// New binds the store to database/collection. Close disconnects client.
func New(client *mongo.Client, database, collection string, now func() time.Time) *Store {
	if collection == "" {
		collection = DefaultCollection
	}
	if now == nil {
		now = time.Now
	}
	return &Store{
		client: client,
		coll:   client.Database(database).Collection(collection),
		now:    now,
	}
}

// EnsureIndexes creates the unique email index and lookup indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "resetPasswordToken", Value: 1}},
			Options: options.Index().SetSparse(true).SetName("reset_token"),
		},
		{
			Keys:    bson.D{{Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("created_at"),
		},
	})
	if err != nil {
		return fmt.Errorf("%w: create indexes: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, account *store.Account) error {
	if err := store.ValidateChallenges(account); err != nil {
		return err
	}
	candidate := account.Clone()
	candidate.Email = store.NormalizeEmail(candidate.Email)
	candidate.Version = 0
	candidate.CreatedAt = time.Time{}
	store.Touch(&candidate, s.now().UTC().Truncate(time.Millisecond))

	if _, err := s.coll.InsertOne(ctx, toDoc(candidate)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateEmail
		}
		return mapError(err)
	}

	*account = candidate
	return nil
}

func (s *Store) Get(ctx context.Context, id string, opts ...store.ReadOption) (store.Account, error) {
	return s.findOne(ctx, bson.M{"_id": id}, store.IncludeSecrets(opts))
}

func (s *Store) GetByEmail(ctx context.Context, email string, opts ...store.ReadOption) (store.Account, error) {
	return s.findOne(ctx, bson.M{"email": store.NormalizeEmail(email)}, store.IncludeSecrets(opts))
}

func (s *Store) GetByResetToken(ctx context.Context, token string, now time.Time) (store.Account, error) {
	if token == "" {
		return store.Account{}, store.ErrNotFound
	}
	return s.findOne(ctx, bson.M{
		"resetPasswordToken":   token,
		"resetPasswordExpires": bson.M{"$gte": now.UTC()},
	}, true)
}

func (s *Store) Update(ctx context.Context, id string, fn store.Mutator) (store.Account, error) {
	for i := 0; i < maxRetries; i++ {
		current, err := s.findOne(ctx, bson.M{"_id": id}, true)
		if err != nil {
			return store.Account{}, err
		}

		next := current.Clone()
		if err := fn(&next); err != nil {
			return store.Account{}, err
		}
		if err := store.ValidateChallenges(&next); err != nil {
			return store.Account{}, err
		}
		next.ID = current.ID
		next.Email = current.Email
		next.CreatedAt = current.CreatedAt
		next.Version = current.Version
		store.Touch(&next, s.now().UTC().Truncate(time.Millisecond))

		res, err := s.coll.UpdateOne(ctx,
			bson.M{"_id": id, "version": current.Version},
			updateDoc(next),
		)
		if err != nil {
			return store.Account{}, mapError(err)
		}
		if res.MatchedCount == 0 {
			continue
		}
		return store.Project(next, nil), nil
	}
	return store.Account{}, store.ErrConflict
}

func (s *Store) List(ctx context.Context, opts store.ListOptions) ([]store.Account, error) {
	opts = opts.Normalize()
	findOpts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(opts.Offset)).
		SetLimit(int64(opts.Limit)).
		SetProjection(secretFields)

	cur, err := s.coll.Find(ctx, bson.M{}, findOpts)
	if err != nil {
		return nil, mapError(err)
	}
	defer cur.Close(ctx)

	out := make([]store.Account, 0, opts.Limit)
	for cur.Next(ctx) {
		var doc accountDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode account: %w", err)
		}
		out = append(out, fromDoc(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, mapError(err)
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

func (s *Store) findOne(ctx context.Context, filter bson.M, secrets bool) (store.Account, error) {
	findOpts := options.FindOne()
	if !secrets {
		findOpts.SetProjection(secretFields)
	}

	var doc accountDoc
	if err := s.coll.FindOne(ctx, filter, findOpts).Decode(&doc); err != nil {
		return store.Account{}, mapError(err)
	}
	return fromDoc(doc), nil
}

// updateDoc writes the mutable fields with $set and drops closed challenges
// with $unset so both halves of a challenge always leave together.
func updateDoc(a store.Account) bson.M {
	set := bson.M{
		"password":   a.PasswordHash,
		"name":       a.Name,
		"phone":      a.Phone,
		"role":       string(a.Role),
		"isVerified": a.IsVerified,
		"updatedAt":  a.UpdatedAt,
		"version":    a.Version,
	}
	unset := bson.M{}

	if a.OTP != nil {
		set["otp"] = a.OTP.Secret
		set["otpExpires"] = a.OTP.ExpiresAt.UTC()
	} else {
		unset["otp"] = ""
		unset["otpExpires"] = ""
	}
	if a.Reset != nil {
		set["resetPasswordToken"] = a.Reset.Secret
		set["resetPasswordExpires"] = a.Reset.ExpiresAt.UTC()
	} else {
		unset["resetPasswordToken"] = ""
		unset["resetPasswordExpires"] = ""
	}

	update := bson.M{"$set": set}
	// The server rejects an empty $unset.
	if len(unset) > 0 {
		update["$unset"] = unset
	}
	return update
}

func toDoc(a store.Account) accountDoc {
	doc := accountDoc{
		ID:           a.ID,
		Email:        a.Email,
		PasswordHash: a.PasswordHash,
		Name:         a.Name,
		Phone:        a.Phone,
		Role:         string(a.Role),
		IsVerified:   a.IsVerified,
		CreatedAt:    a.CreatedAt,
		UpdatedAt:    a.UpdatedAt,
		Version:      a.Version,
	}
	if a.OTP != nil {
		code, expires := a.OTP.Secret, a.OTP.ExpiresAt.UTC()
		doc.OTP, doc.OTPExpires = &code, &expires
	}
	if a.Reset != nil {
		token, expires := a.Reset.Secret, a.Reset.ExpiresAt.UTC()
		doc.ResetToken, doc.ResetExpires = &token, &expires
	}
	return doc
}

func fromDoc(doc accountDoc) store.Account {
	acc := store.Account{
		ID:           doc.ID,
		Email:        doc.Email,
		PasswordHash: doc.PasswordHash,
		Name:         doc.Name,
		Phone:        doc.Phone,
		Role:         store.Role(doc.Role),
		IsVerified:   doc.IsVerified,
		CreatedAt:    doc.CreatedAt.UTC(),
		UpdatedAt:    doc.UpdatedAt.UTC(),
		Version:      doc.Version,
	}
	if doc.OTP != nil && doc.OTPExpires != nil {
		acc.OTP = &store.Challenge{Secret: *doc.OTP, ExpiresAt: doc.OTPExpires.UTC()}
	}
	if doc.ResetToken != nil && doc.ResetExpires != nil {
		acc.Reset = &store.Challenge{Secret: *doc.ResetToken, ExpiresAt: doc.ResetExpires.UTC()}
	}
	if acc.Role == "" {
		acc.Role = store.RoleUser
	}
	return acc
}

func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return store.ErrNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return fmt.Errorf("%w: %v", store.ErrUnavailable, err)
}

var _ store.Store = (*Store)(nil)
