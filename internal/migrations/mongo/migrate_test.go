package mongo

import (
	"context"
	"testing"

	"tablebook/internal/migrations/mongo/validators"
	"tablebook/pkg/logger"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestRunMigration(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates missing collection", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "restaurant.$cmd.listCollections", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		if err := RunMigration(context.Background(), mt.DB, logger.Discard()); err != nil {
			t.Fatalf("RunMigration() error = %v", err)
		}
	})

	mt.Run("updates existing collection", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "restaurant.$cmd.listCollections", mtest.FirstBatch,
				bson.D{{Key: "name", Value: "bookings"}, {Key: "type", Value: "collection"}}),
			mtest.CreateSuccessResponse(),
			mtest.CreateSuccessResponse(),
		)

		if err := RunMigration(context.Background(), mt.DB, logger.Discard()); err != nil {
			t.Fatalf("RunMigration() error = %v", err)
		}
	})

	mt.Run("index failure is returned", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateCursorResponse(0, "restaurant.$cmd.listCollections", mtest.FirstBatch),
			mtest.CreateSuccessResponse(),
			mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad index", Name: "BadValue"}),
		)

		if err := RunMigration(context.Background(), mt.DB, logger.Discard()); err == nil {
			t.Fatal("expected error from index creation")
		}
	})
}

func TestBookingValidatorRequiresAllFields(t *testing.T) {
	schema := validators.BookingValidator["$jsonSchema"].(bson.M)
	required := schema["required"].([]string)

	want := map[string]bool{
		"firstName": true, "lastName": true, "phone": true, "email": true,
		"date": true, "time": true, "table": true,
	}
	if len(required) != len(want) {
		t.Fatalf("expected %d required fields, got %v", len(want), required)
	}
	for _, f := range required {
		if !want[f] {
			t.Errorf("unexpected required field %q", f)
		}
	}
}

func TestBookingValidatorTableMatchesServiceRules(t *testing.T) {
	schema := validators.BookingValidator["$jsonSchema"].(bson.M)
	table := schema["properties"].(bson.M)["table"].(bson.M)

	if _, ok := table["minimum"]; ok {
		t.Error("table must not carry a range the service does not enforce")
	}
	if got := table["bsonType"].([]string); len(got) != 2 || got[0] != "int" || got[1] != "long" {
		t.Errorf("unexpected table bsonType %v", got)
	}
}
