package services

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"stockwatch-backend/models"
)

var (
	// ErrUserExists is returned when registering an email that is already taken
	ErrUserExists = errors.New("user already exists")
	// ErrUserNotFound is returned when a user lookup has no match
	ErrUserNotFound = errors.New("user not found")
)

// UserStore persists users and watchlists in MongoDB
type UserStore struct {
	users      *mongo.Collection
	watchlists *mongo.Collection
}

// NewUserStore creates a user store on the given database
func NewUserStore(db *mongo.Database) *UserStore {
	return &UserStore{
		users:      db.Collection(MongoUsersCollection),
		watchlists: db.Collection(MongoWatchlistsCollection),
	}
}

// CreateUser inserts a new user, failing if the email is taken
func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	count, err := s.users.CountDocuments(ctx, bson.M{"email": user.Email})
	if err != nil {
		return fmt.Errorf("failed to check existing user: %w", err)
	}
	if count > 0 {
		return ErrUserExists
	}

	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrUserExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// FindUserByEmail returns the user with the given email
func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.users.FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return &user, nil
}

// UpdateProfile updates the mutable profile fields of a user
func (s *UserStore) UpdateProfile(ctx context.Context, email, username, phone string) error {
	_, err := s.users.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"username": username, "phone": phone}},
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	return nil
}

// GetWatchlist returns the user's watched symbols. Missing document means
// an empty watchlist, not an error.
func (s *UserStore) GetWatchlist(ctx context.Context, email string) ([]string, error) {
	var watchlist models.Watchlist
	err := s.watchlists.FindOne(ctx, bson.M{"email": email}).Decode(&watchlist)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to load watchlist: %w", err)
	}
	if watchlist.Stocks == nil {
		return []string{}, nil
	}
	return watchlist.Stocks, nil
}

// AddToWatchlist adds a symbol to the user's watchlist, creating the
// document on first use
func (s *UserStore) AddToWatchlist(ctx context.Context, email, symbol string) error {
	opts := options.Update().SetUpsert(true)
	_, err := s.watchlists.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$addToSet": bson.M{"stocks": symbol}},
		opts,
	)
	if err != nil {
		return fmt.Errorf("failed to add %s to watchlist: %w", symbol, err)
	}
	return nil
}

// RemoveFromWatchlist removes a symbol from the user's watchlist
func (s *UserStore) RemoveFromWatchlist(ctx context.Context, email, symbol string) error {
	_, err := s.watchlists.UpdateOne(ctx,
		bson.M{"email": email},
		bson.M{"$pull": bson.M{"stocks": symbol}},
	)
	if err != nil {
		return fmt.Errorf("failed to remove %s from watchlist: %w", symbol, err)
	}
	return nil
}
