// internal/app/features/students/handler.go
package students

import (
	"context"
	"errors"
	"net/http"

	"github.com/dalemusser/academyhub/internal/app/features/shared/respond"
	"github.com/dalemusser/academyhub/internal/app/store/audit"
	cohortstore "github.com/dalemusser/academyhub/internal/app/store/cohorts"
	userstore "github.com/dalemusser/academyhub/internal/app/store/users"
	"github.com/dalemusser/academyhub/internal/app/system/auditlog"
	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/dalemusser/academyhub/internal/app/system/paging"
	"github.com/dalemusser/academyhub/internal/app/system/timeouts"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Handler manages the student directory the report reads from.
type Handler struct {
	Users   *userstore.Store
	Cohorts *cohortstore.Store
	Log     *zap.Logger
	Audit   *auditlog.Logger
}

func NewHandler(db *mongo.Database, logger *zap.Logger) *Handler {
	return &Handler{
		Users:   userstore.New(db),
		Cohorts: cohortstore.New(db),
		Log:     logger,
	}
}

type createStudentRequest struct {
	FullName     string `json:"full_name" validate:"required,max=200" label:"Full name"`
	Email        string `json:"email" validate:"required,email" label:"Email"`
	MatricNumber string `json:"matric_number" validate:"max=50" label:"Matric number"`
	CohortID     string `json:"cohort_id" validate:"omitempty,objectid" label:"Cohort"`
	Password     string `json:"password" validate:"omitempty,min=8,max=72" label:"Password"`
}

// HandleCreate handles POST /students.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createStudentRequest
	if err := respond.Decode(w, r, &req); err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	cohortID, err := h.cohortRef(ctx, req.CohortID)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}

	u := models.User{
		FullName:     req.FullName,
		Email:        req.Email,
		MatricNumber: req.MatricNumber,
		Role:         models.RoleStudent,
		CohortID:     cohortID,
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			respond.Error(w, h.Log, err)
			return
		}
		u.PasswordHash = string(hash)
	}

	created, err := h.Users.Create(ctx, u)
	if err != nil {
		if errors.Is(err, userstore.ErrDuplicateEmail) {
			err = outcome.Conflictf("a user with this email already exists")
		}
		respond.Error(w, h.Log, err, zap.String("email", req.Email))
		return
	}
	h.Audit.Admin(ctx, r, audit.EventStudentCreated, cohortID, &created.ID, nil)
	respond.Created(w, created)
}

// ServeList handles GET /students?cohort_id=&page=&page_size=.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	p := paging.ParsePage(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	cohortID, err := h.cohortRef(ctx, query.Get(r, "cohort_id"))
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	items, total, err := h.Users.PageStudents(ctx, cohortID, p)
	if err != nil {
		respond.Error(w, h.Log, err)
		return
	}
	respond.OK(w, paging.Page[models.User]{Items: items, Meta: paging.NewMeta(total, p)})
}

// cohortRef resolves an optional cohort id. Empty means none; an unknown
// cohort is notFound.
func (h *Handler) cohortRef(ctx context.Context, hex string) (*primitive.ObjectID, error) {
	if hex == "" {
		return nil, nil
	}
	id, err := respond.ParseID(hex, "cohort_id")
	if err != nil {
		return nil, err
	}
	if _, err := h.Cohorts.GetByID(ctx, id); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, outcome.NotFoundf("cohort not found")
		}
		return nil, outcome.Wrap(err, "load cohort")
	}
	return &id, nil
}
