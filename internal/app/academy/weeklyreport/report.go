// Package weeklyreport builds the per-week score matrix: one row per
// student, one column per task type, plus a Total column.
//
// The report only reads. A week's scores come from approved submissions
// and from attendance records whose task belongs to the week.
package weeklyreport

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/dalemusser/academyhub/internal/app/academy"
	attendancestore "github.com/dalemusser/academyhub/internal/app/store/attendance"
	taskstore "github.com/dalemusser/academyhub/internal/app/store/dailytasks"
	submissionstore "github.com/dalemusser/academyhub/internal/app/store/submissions"
	tasktypestore "github.com/dalemusser/academyhub/internal/app/store/tasktypes"
	userstore "github.com/dalemusser/academyhub/internal/app/store/users"
	weekstore "github.com/dalemusser/academyhub/internal/app/store/weeks"
	"github.com/dalemusser/academyhub/internal/app/system/outcome"
	"github.com/dalemusser/academyhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/sync/errgroup"
)

// TotalColumn is the name of the per-row sum column.
const TotalColumn = "Total"

// Row is one student's line. Scores is keyed by task type name and holds
// an entry for every column of the report.
type Row struct {
	UserID       primitive.ObjectID
	Name         string
	MatricNumber string
	Scores       map[string]float64
	Total        float64

	columns []string
}

// MarshalJSON writes the row as a flat object:
// {"user_id", "name", "matric_number", <type name>..., "Total"}.
// Type columns keep the report's column order.
func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	write := func(key string, v any) error {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return err
		}
		val, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(val)
		return nil
	}

	if err := write("user_id", r.UserID.Hex()); err != nil {
		return nil, err
	}
	if err := write("name", r.Name); err != nil {
		return nil, err
	}
	if err := write("matric_number", r.MatricNumber); err != nil {
		return nil, err
	}
	for _, col := range r.columnOrder() {
		if err := write(col, r.Scores[col]); err != nil {
			return nil, err
		}
	}
	if err := write(TotalColumn, r.Total); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// columnOrder falls back to sorted score names for rows built by hand.
func (r Row) columnOrder() []string {
	if r.columns != nil {
		return r.columns
	}
	cols := make([]string, 0, len(r.Scores))
	for k := range r.Scores {
		cols = append(cols, k)
	}
	sort.Strings(cols)
	return cols
}

// Report is the result of GenerateWeeklyReport.
type Report struct {
	WeekID    primitive.ObjectID `json:"week_id"`
	Rows      []Row              `json:"report"`
	TaskTypes []string           `json:"taskTypes"`
}

// Inputs is everything Aggregate needs. Tasks must cover every task
// referenced by Submissions and Attendances; records for other tasks are
// ignored.
type Inputs struct {
	Students    []models.User
	TaskTypes   []models.TaskType
	Tasks       []models.DailyTask
	Submissions []models.TaskSubmission
	Attendances []models.Attendance
}

// Aggregate sums submission and attendance scores per student and task
// type. Only approved submissions count. Cells without activity are 0.
func Aggregate(in Inputs) Report {
	taskType := make(map[primitive.ObjectID]primitive.ObjectID, len(in.Tasks))
	for _, t := range in.Tasks {
		taskType[t.ID] = t.TaskTypeID
	}

	cells := make(map[primitive.ObjectID]map[primitive.ObjectID]float64)
	add := func(userID, taskID primitive.ObjectID, score float64) {
		typeID, ok := taskType[taskID]
		if !ok {
			return
		}
		m := cells[userID]
		if m == nil {
			m = make(map[primitive.ObjectID]float64)
			cells[userID] = m
		}
		m[typeID] += score
	}
	for _, s := range in.Submissions {
		if s.IsApproved {
			add(s.UserID, s.TaskID, s.Score)
		}
	}
	for _, a := range in.Attendances {
		add(a.UserID, a.TaskID, a.Score)
	}

	columns := make([]string, 0, len(in.TaskTypes))
	for _, tt := range in.TaskTypes {
		columns = append(columns, tt.Name)
	}

	rows := make([]Row, 0, len(in.Students))
	for _, u := range in.Students {
		row := Row{
			UserID:       u.ID,
			Name:         u.FullName,
			MatricNumber: u.MatricNumber,
			Scores:       make(map[string]float64, len(in.TaskTypes)),
			columns:      columns,
		}
		for _, tt := range in.TaskTypes {
			v := cells[u.ID][tt.ID]
			row.Scores[tt.Name] += v
			row.Total += v
		}
		rows = append(rows, row)
	}

	return Report{Rows: rows, TaskTypes: columns}
}

// WriteCSV writes the report with a header row. Columns match the JSON
// form: user id, name, matric number, one per task type, Total.
func WriteCSV(w io.Writer, rep Report) error {
	cw := csv.NewWriter(w)
	header := append([]string{"user_id", "name", "matric_number"}, rep.TaskTypes...)
	header = append(header, TotalColumn)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range rep.Rows {
		rec := make([]string, 0, len(header))
		rec = append(rec, r.UserID.Hex(), r.Name, r.MatricNumber)
		for _, col := range rep.TaskTypes {
			rec = append(rec, formatScore(r.Scores[col]))
		}
		rec = append(rec, formatScore(r.Total))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

type Service struct {
	weeks       *weekstore.Store
	users       *userstore.Store
	types       *tasktypestore.Store
	tasks       *taskstore.Store
	attendances *attendancestore.Store
	submissions *submissionstore.Store
	set         academy.Settings
}

func New(db *mongo.Database, set academy.Settings) *Service {
	return &Service{
		weeks:       weekstore.New(db),
		users:       userstore.New(db),
		types:       tasktypestore.New(db),
		tasks:       taskstore.New(db),
		attendances: attendancestore.New(db),
		submissions: submissionstore.New(db),
		set:         set.WithDefaults(),
	}
}

// GenerateWeeklyReport builds the report for weekID. Either the whole
// report is returned or an error; never a partial one.
func (s *Service) GenerateWeeklyReport(ctx context.Context, weekID primitive.ObjectID) (Report, error) {
	start := time.Now()
	rep, err := s.generate(ctx, weekID)
	s.set.Metrics.Report(time.Since(start), err)
	return rep, err
}

func (s *Service) generate(ctx context.Context, weekID primitive.ObjectID) (Report, error) {
	week, err := s.weeks.GetByID(ctx, weekID)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Report{}, outcome.NotFoundf("week not found")
	}
	if err != nil {
		return Report{}, outcome.Wrap(err, "load week")
	}

	var in Inputs
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		in.Students, err = s.users.ListStudents(gctx)
		return outcome.Wrap(err, "list students")
	})
	g.Go(func() error {
		var err error
		in.TaskTypes, err = s.types.ListAll(gctx)
		return outcome.Wrap(err, "list task types")
	})
	g.Go(func() error {
		var err error
		in.Tasks, err = s.tasks.ListByWeek(gctx, week.ID, false)
		return outcome.Wrap(err, "list week tasks")
	})
	if err := g.Wait(); err != nil {
		return Report{}, err
	}

	if len(in.Tasks) > 0 {
		ids := make([]primitive.ObjectID, 0, len(in.Tasks))
		for _, t := range in.Tasks {
			ids = append(ids, t.ID)
		}
		g, gctx = errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			in.Submissions, err = s.submissions.ListApprovedByTasks(gctx, ids)
			return outcome.Wrap(err, "list approved submissions")
		})
		g.Go(func() error {
			var err error
			in.Attendances, err = s.attendances.ListByTasks(gctx, ids)
			return outcome.Wrap(err, "list attendances")
		})
		if err := g.Wait(); err != nil {
			return Report{}, err
		}
	}

	rep := Aggregate(in)
	rep.WeekID = week.ID
	return rep, nil
}
