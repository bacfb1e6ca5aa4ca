// internal/app/system/validators/validators.go
package validators

import (
	"context"
	"errors"
	"strings"

	"github.com/dalemusser/academyhub/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Collections lists every collection the academy writes, in the order
// EnsureAll visits them.
var Collections = []string{
	"users",
	"cohorts",
	"academic_weeks",
	"task_types",
	"daily_tasks",
	"attendances",
	"task_submissions",
}

// EnsureAll creates the academy collections (if missing) and attaches a
// JSON-Schema validator to each. Servers without collMod support are
// logged and skipped.
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	schemas := map[string]bson.M{
		"users":            usersSchema(),
		"cohorts":          cohortsSchema(),
		"academic_weeks":   weeksSchema(),
		"task_types":       taskTypesSchema(),
		"daily_tasks":      dailyTasksSchema(),
		"attendances":      attendancesSchema(),
		"task_submissions": submissionsSchema(),
	}

	existing, err := db.ListCollectionNames(ctx, bson.M{})
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, n := range existing {
		have[n] = true
	}

	var problems []string
	for _, coll := range Collections {
		if !have[coll] {
			if err := db.CreateCollection(ctx, coll); err != nil && !isNamespaceExistsErr(err) {
				problems = append(problems, coll+": "+err.Error())
				continue
			}
			zap.L().Info("created collection", zap.String("collection", coll))
		}
		if err := setValidator(ctx, db, coll, schemas[coll]); err != nil {
			if isUnsupported(err) {
				zap.L().Info("validator skipped (unsupported)", zap.String("collection", coll))
				continue
			}
			problems = append(problems, coll+": "+err.Error())
		}
	}

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

func setValidator(ctx context.Context, db *mongo.Database, name string, schema bson.M) error {
	cmd := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: schema},
		{Key: "validationLevel", Value: "moderate"},
		{Key: "validationAction", Value: "error"},
	}
	if err := db.RunCommand(ctx, cmd).Err(); err != nil {
		return err
	}
	zap.L().Info("validator ensured", zap.String("collection", name))
	return nil
}

func isNamespaceExistsErr(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && ce.Code == 48 {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "already exists") || strings.Contains(s, "namespace exists")
}

// isUnsupported matches "no such command" (59) and "not implemented" (115),
// which DocumentDB and some hosted tiers return for collMod validators.
func isUnsupported(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) && (ce.Code == 59 || ce.Code == 115) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "no such command") ||
		strings.Contains(s, "not implemented") ||
		strings.Contains(s, "not supported")
}

/* ------------------------- JSON-Schema docs ---------------------- */

var (
	nonBlank = bson.M{"bsonType": "string", "minLength": 1, "pattern": ".*\\S.*"}
	oid      = bson.M{"bsonType": "objectId"}
	date     = bson.M{"bsonType": "date"}
	boolean  = bson.M{"bsonType": "bool"}
)

func object(required bson.A, props bson.M) bson.M {
	return bson.M{
		"$jsonSchema": bson.M{
			"bsonType":   "object",
			"required":   required,
			"properties": props,
		},
	}
}

func usersSchema() bson.M {
	return object(bson.A{"full_name", "email", "role", "status"}, bson.M{
		"full_name":     nonBlank,
		"full_name_ci":  bson.M{"bsonType": "string"},
		"email":         nonBlank,
		"matric_number": bson.M{"bsonType": "string"},
		"role":          bson.M{"enum": bson.A{models.RoleSuperAdmin, models.RoleStudent}},
		"status":        bson.M{"enum": bson.A{models.StatusActive, models.StatusDisabled}},
		"cohort_id":     oid,
	})
}

func cohortsSchema() bson.M {
	return object(bson.A{"name", "slug", "start_date", "end_date"}, bson.M{
		"name":       nonBlank,
		"batch":      bson.M{"bsonType": "string"},
		"slug":       nonBlank,
		"start_date": date,
		"end_date":   date,
	})
}

func weeksSchema() bson.M {
	return object(bson.A{"cohort_id", "week_number", "start_date", "end_date"}, bson.M{
		"cohort_id":   oid,
		"week_number": bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1},
		"start_date":  date,
		"end_date":    date,
	})
}

func taskTypesSchema() bson.M {
	return object(bson.A{"cohort_id", "name", "slug", "requires_attendance", "requires_submissions"}, bson.M{
		"cohort_id":            oid,
		"name":                 nonBlank,
		"slug":                 nonBlank,
		"requires_attendance":  boolean,
		"requires_submissions": boolean,
	})
}

func dailyTasksSchema() bson.M {
	return object(bson.A{"week_id", "task_type_id", "title", "day_of_week", "start_time", "end_time", "activated"}, bson.M{
		"cohort_id":    oid,
		"week_id":      oid,
		"task_type_id": oid,
		"title":        nonBlank,
		"description":  bson.M{"bsonType": "string"},
		"day_of_week":  bson.M{"bsonType": bson.A{"int", "long"}, "minimum": 1, "maximum": 7},
		"start_time":   date,
		"end_time":     date,
		"activated":    boolean,
	})
}

func attendancesSchema() bson.M {
	return object(bson.A{"user_id", "task_id", "date", "marked", "is_late", "score"}, bson.M{
		"user_id": oid,
		"task_id": oid,
		"week_id": oid,
		"date":    date,
		"marked":  boolean,
		"is_late": boolean,
		"score":   bson.M{"bsonType": "number"},
	})
}

func submissionsSchema() bson.M {
	return object(bson.A{"user_id", "task_id", "submitted_at", "is_approved", "score"}, bson.M{
		"user_id":      oid,
		"task_id":      oid,
		"week_id":      oid,
		"submission":   bson.M{"bsonType": "string"},
		"screenshots":  bson.M{"bsonType": "array", "items": bson.M{"bsonType": "string"}},
		"submitted_at": date,
		"is_submitted": boolean,
		"is_late":      boolean,
		"is_approved":  boolean,
		"approved_at":  date,
		"score":        bson.M{"bsonType": "number", "minimum": 0},
	})
}
