package txn_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/academyhub/internal/app/system/txn"
	"github.com/dalemusser/academyhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("attendance write failed"), false},
		{"code 20", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}, true},
		{"code 51", mongo.CommandError{Code: 51}, true},
		{"code 263", mongo.CommandError{Code: 263}, true},
		{"duplicate key", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		{"replica set text", errors.New("Transaction requires a Replica Set"), true},
		{"session text", errors.New("sessions are NOT SUPPORTED here"), true},
		{"session state", errors.New("cannot start transaction in current session state"), true},
		{"transaction only", errors.New("transaction aborted"), false},
		{"wrapped code", errWrap{mongo.CommandError{Code: 20}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := txn.IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type errWrap struct{ err error }

func (e errWrap) Error() string { return "submit: " + e.err.Error() }
func (e errWrap) Unwrap() error { return e.err }

func TestRun_NilClient(t *testing.T) {
	want := errors.New("week closed")
	calls := 0
	err := txn.Run(context.Background(), nil, func(ctx context.Context) error {
		calls++
		return want
	})
	if !errors.Is(err, want) || calls != 1 {
		t.Errorf("err = %v, calls = %d", err, calls)
	}
}

// Against a standalone server Run falls back to a plain call; against a
// replica set both writes commit together. Either way they land.
func TestRun_CommitsWrites(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	coll := db.Collection("txn_writes")
	err := txn.Run(ctx, db.Client(), func(ctx context.Context) error {
		if _, err := coll.InsertOne(ctx, bson.M{"step": 1}); err != nil {
			return err
		}
		_, err := coll.InsertOne(ctx, bson.M{"step": 2})
		return err
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	n, err := coll.CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n < 2 {
		t.Errorf("documents = %d, want at least 2", n)
	}
}
