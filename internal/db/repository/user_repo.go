package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/synapaxon/question-bank/internal/db"
)

// ErrNotFound is returned when a lookup matches no document.
var ErrNotFound = errors.New("not found")

// User is the stored account document.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name         string             `bson:"name" json:"name"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash string             `bson:"password,omitempty" json:"-"`
	GoogleID     string             `bson:"googleId,omitempty" json:"-"`
	Role         string             `bson:"role" json:"role"`
	Plan         string             `bson:"plan" json:"plan"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
}

// UserRepository exposes typed collection operations required by auth flows.
type UserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository wraps the users collection.
func NewUserRepository(database *mongo.Database) *UserRepository {
	return &UserRepository{coll: database.Collection(db.UsersCollection)}
}

// Create inserts a new account and returns it with its assigned id.
func (r *UserRepository) Create(ctx context.Context, user User) (User, error) {
	user.CreatedAt = time.Now().UTC()
	res, err := r.coll.InsertOne(ctx, user)
	if err != nil {
		return User{}, err
	}
	user.ID = res.InsertedID.(primitive.ObjectID)
	return user, nil
}

// GetByEmail fetches an account by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

// GetByID fetches an account by id.
func (r *UserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

// GetByGoogleID fetches an account linked to a Google subject id.
func (r *UserRepository) GetByGoogleID(ctx context.Context, googleID string) (User, error) {
	return r.findOne(ctx, bson.M{"googleId": googleID})
}

// LinkGoogleID attaches a Google subject id to an existing account.
func (r *UserRepository) LinkGoogleID(ctx context.Context, id primitive.ObjectID, googleID string) error {
	res, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": bson.M{"googleId": googleID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns every account, newest first.
func (r *UserRepository) List(ctx context.Context) ([]User, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	users := []User{}
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Update applies the given field set to an account.
func (r *UserRepository) Update(ctx context.Context, id primitive.ObjectID, fields bson.M) (User, error) {
	after := options.After
	opts := &options.FindOneAndUpdateOptions{ReturnDocument: &after}
	var user User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": fields}, opts).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// Delete removes an account.
func (r *UserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the total number of accounts.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

// CountByPlan groups accounts by subscription plan.
func (r *UserRepository) CountByPlan(ctx context.Context) (map[string]int64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$plan", "count": bson.M{"$sum": 1}}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	counts := map[string]int64{}
	for cur.Next(ctx) {
		var row struct {
			Plan  string `bson:"_id"`
			Count int64  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		counts[row.Plan] = row.Count
	}
	return counts, cur.Err()
}

// NamesByIDs resolves display names for a set of account ids.
func (r *UserRepository) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	if len(ids) == 0 {
		return map[primitive.ObjectID]string{}, nil
	}
	opts := options.Find().SetProjection(bson.M{"name": 1})
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	names := map[primitive.ObjectID]string{}
	for cur.Next(ctx) {
		var row struct {
			ID   primitive.ObjectID `bson:"_id"`
			Name string             `bson:"name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		names[row.ID] = row.Name
	}
	return names, cur.Err()
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (User, error) {
	var user User
	err := r.coll.FindOne(ctx, filter).Decode(&user)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}
