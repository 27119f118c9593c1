package database

import (
	"context"
	"os"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var Client *mongo.Client
var Users *mongo.Collection
var Posts *mongo.Collection
var Comments *mongo.Collection
var Likes *mongo.Collection
var Reposts *mongo.Collection
var Follows *mongo.Collection
var Messages *mongo.Collection
var Notifications *mongo.Collection
var PushSubs *mongo.Collection

func ConnectDB() error {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		log.Println("MONGODB_URI not set, using default localhost")
		uri = "mongodb://127.0.0.1:27017"
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	var err error
	Client, err = mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return err
	}

	if err := Client.Ping(ctx, nil); err != nil {
		return err
	}

	db := Client.Database("loom")
	Users = db.Collection("users")
	Posts = db.Collection("posts")
	Comments = db.Collection("comments")
	Likes = db.Collection("likes")
	Reposts = db.Collection("reposts")
	Follows = db.Collection("follows")
	Messages = db.Collection("messages")
	Notifications = db.Collection("notifications")
	PushSubs = db.Collection("push_subscriptions")

	if err := ensureIndexes(ctx); err != nil {
		return err
	}

	log.Println("Connected to MongoDB successfully")
	return nil
}

// ensureIndexes creates the unique indexes that make like/repost/follow
// toggles a single atomic write instead of a check-then-insert round trip.
// A concurrent duplicate insert fails with a duplicate key error, which the
// toggle handlers treat as "already present".
func ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)

	_, err := Likes.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "postId", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"postId": bson.M{"$exists": true}}),
		},
		{
			Keys: bson.D{{Key: "userId", Value: 1}, {Key: "commentId", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(
				bson.M{"commentId": bson.M{"$exists": true}}),
		},
	})
	if err != nil {
		return err
	}

	_, err = Reposts.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "postId", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = Follows.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "followerId", Value: 1}, {Key: "followingId", Value: 1}},
		Options: unique,
	})
	if err != nil {
		return err
	}

	_, err = Users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
	})
	if err != nil {
		return err
	}

	_, err = Comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	return err
}

func DisconnectDB() error {
	if Client == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := Client.Disconnect(ctx); err != nil {
		return err
	}

	log.Println("Disconnected from MongoDB")
	return nil
}
