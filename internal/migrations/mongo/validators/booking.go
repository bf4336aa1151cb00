package validators

import "go.mongodb.org/mongo-driver/bson"

func requiredString() bson.M {
	return bson.M{
		"bsonType":  "string",
		"minLength": 1,
	}
}

var BookingValidator = bson.M{
	"$jsonSchema": bson.M{
		"bsonType": "object",
		"required": []string{
			"firstName",
			"lastName",
			"phone",
			"email",
			"date",
			"time",
			"table",
		},
		"additionalProperties": true,

		"properties": bson.M{
			"_id": bson.M{
				"bsonType": "objectId",
			},

			"firstName": requiredString(),
			"lastName":  requiredString(),
			"phone":     requiredString(),
			"email":     requiredString(),
			"date":      requiredString(),
			"time":      requiredString(),

			"table": bson.M{
				"bsonType": []string{"int", "long"},
			},

			"createdAt": bson.M{
				"bsonType": "date",
			},

			"updatedAt": bson.M{
				"bsonType": "date",
			},
		},
	},
}
