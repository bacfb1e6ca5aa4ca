// Package respond holds the JSON plumbing shared by the feature handlers:
// decoding and validating bodies, reading path ids, and writing success and
// error envelopes.
//
// Success: {"status":"success","data":...}
// Failure: {"status":"error","kind":"conflict","message":"..."}
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dalemusser/academyhub/internal/app/system/auth"
	"github.com/dalemusser/academyhub/internal/app/system/inputval"
	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

type envelope struct {
	Status  string `json:"status"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// JSON writes v with the given status code.
func JSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// OK writes data in a success envelope with 200.
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, envelope{Status: "success", Data: data})
}

// Created writes data in a success envelope with 201.
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, envelope{Status: "success", Data: data})
}

// Error maps err to its status code and writes the error envelope.
// Unclassified errors are logged here, once, with the given fields; their
// details never reach the client.
func Error(w http.ResponseWriter, log *zap.Logger, err error, fields ...zap.Field) {
	kind := outcome.KindOf(err)
	if kind == outcome.KindError && log != nil {
		log.Error("request failed", append(fields, zap.Error(err))...)
	}
	JSON(w, outcome.HTTPStatus(kind), envelope{
		Status:  "error",
		Kind:    string(kind),
		Message: outcome.Message(err),
	})
}

// Decode reads a JSON body into dst and runs its validate tags. Malformed
// bodies and failed rules are validation errors.
func Decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return outcome.Invalidf("request body is empty")
		}
		return outcome.Invalidf("malformed JSON body: %v", err)
	}
	return inputval.Validate(dst).Err()
}

// PathID parses the chi URL parameter key as an ObjectID.
func PathID(r *http.Request, key string) (primitive.ObjectID, error) {
	return ParseID(chi.URLParam(r, key), key)
}

// CurrentUserID returns the signed-in user's id. Routes using it sit
// behind auth.RequireSignedIn or auth.RequireRole.
func CurrentUserID(r *http.Request) (primitive.ObjectID, error) {
	u, ok := auth.CurrentUser(r)
	if !ok {
		return primitive.NilObjectID, outcome.BadRequestf("no signed-in user")
	}
	return ParseID(u.ID, "user id")
}

// ParseID parses s as an ObjectID; label names the field in the error.
func ParseID(s, label string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, outcome.Invalidf("%s is not a valid id", label)
	}
	return id, nil
}

// ParseTime accepts an RFC 3339 timestamp or a YYYY-MM-DD date, taken at
// midnight in loc. Empty input is the zero time.
func ParseTime(s string, loc *time.Location, label string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, outcome.Invalidf("%s must be an RFC 3339 time or YYYY-MM-DD date", label)
}
