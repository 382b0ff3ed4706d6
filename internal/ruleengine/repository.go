package ruleengine

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/freshdesk/jaya-lib/internal/constants"
)

// Repository loads the automation rules configured for an app. Rule order
// matters: rules are evaluated in the returned order and legacy job
// identities embed the list position.
type Repository interface {
	GetRulesByApp(ctx context.Context, appID string) ([]Rule, error)
	CreateRule(ctx context.Context, rule *Rule) error
}

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{
		collection: db.Collection(constants.RulesCollection),
	}
}

func (r *mongoRepository) GetRulesByApp(ctx context.Context, appID string) ([]Rule, error) {
	filter := bson.M{"app_id": appID}
	// Sort on _id as well so rules sharing a position come back in a
	// stable order across loads.
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}
	defer cursor.Close(ctx)

	var rules []Rule
	if err := cursor.All(ctx, &rules); err != nil {
		return nil, fmt.Errorf("failed to decode rules: %w", err)
	}

	return rules, nil
}

func (r *mongoRepository) CreateRule(ctx context.Context, rule *Rule) error {
	if rule.ID == "" {
		rule.ID = uuid.New().String()
	}

	if _, err := r.collection.InsertOne(ctx, rule); err != nil {
		return fmt.Errorf("failed to create rule: %w", err)
	}
	return nil
}
