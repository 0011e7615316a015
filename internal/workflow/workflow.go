// Package workflow tracks the fixed sequence of project stages and triggers
// their backend actions.
//
// Stage status always comes from the server. Triggering a stage never marks
// it complete locally; completion is discovered by re-fetching.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/raphaelgruber/visadesk/internal/models"
)

// ErrUnknownStage is returned for a stage key outside the fixed sequence.
var ErrUnknownStage = errors.New("unknown stage")

// Navigation targets for stages that are handled on another screen.
const (
	NavMaterials = "materials"
	NavFramework = "framework"
)

// Stage describes one step of the workflow. Exactly one of Action and
// Navigate is set.
type Stage struct {
	Key      string
	Name     string
	Action   string // backend action posted to /workflow/{action}
	Navigate string // screen that handles the stage instead of an API call
}

// Stages is the fixed, ordered workflow.
var Stages = []Stage{
	{Key: "collect", Name: "Collect materials", Navigate: NavMaterials},
	{Key: "analyze", Name: "Analyze materials", Action: "analyze"},
	{Key: "framework", Name: "Build framework", Navigate: NavFramework},
	{Key: "generate", Name: "Generate documents", Action: "generate"},
	{Key: "optimize", Name: "Optimize documents", Action: "optimize"},
	{Key: "review", Name: "Review", Action: "review"},
}

// Lookup returns the stage with the given key.
func Lookup(key string) (Stage, bool) {
	idx := slices.IndexFunc(Stages, func(s Stage) bool { return s.Key == key })
	if idx < 0 {
		return Stage{}, false
	}
	return Stages[idx], true
}

// StageView is a stage with its server-reported state.
type StageView struct {
	Stage
	Status  models.StageStatus
	Message string
}

// Outcome is the result of triggering a stage.
type Outcome struct {
	Stage    Stage
	Navigate string // set when the stage is handled elsewhere; no request was made
}

// Backend is the subset of the API client the tracker needs.
type Backend interface {
	WorkflowStatus(ctx context.Context, projectID string) (*models.WorkflowStatus, error)
	TriggerStage(ctx context.Context, projectID, action string) error
	ListDocuments(ctx context.Context, projectID string) ([]models.Document, error)
	ListRawMaterials(ctx context.Context, projectID string) ([]models.RawMaterial, error)
	GetProject(ctx context.Context, id string) (*models.Project, error)
}

// Tracker holds the workflow state of one project.
type Tracker struct {
	backend   Backend
	projectID string
	logger    *slog.Logger

	mu        sync.Mutex
	status    map[string]models.StageState
	project   *models.Project
	documents []models.Document
	raws      []models.RawMaterial
}

// NewTracker creates a tracker for projectID. Call Refresh to load state.
func NewTracker(backend Backend, projectID string, logger *slog.Logger) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Tracker{
		backend:   backend,
		projectID: projectID,
		logger:    logger.With("project_id", projectID),
		status:    make(map[string]models.StageState),
	}
}

// Refresh re-synchronizes workflow status, documents, raw materials and the
// project itself. The first failure is returned; later fetches still run.
func (t *Tracker) Refresh(ctx context.Context) error {
	var errs []error

	status, err := t.backend.WorkflowStatus(ctx, t.projectID)
	if err != nil {
		errs = append(errs, fmt.Errorf("load workflow status: %w", err))
	}
	docs, err := t.backend.ListDocuments(ctx, t.projectID)
	if err != nil {
		errs = append(errs, fmt.Errorf("load documents: %w", err))
	}
	raws, err := t.backend.ListRawMaterials(ctx, t.projectID)
	if err != nil {
		errs = append(errs, fmt.Errorf("load raw materials: %w", err))
	}
	project, err := t.backend.GetProject(ctx, t.projectID)
	if err != nil {
		errs = append(errs, fmt.Errorf("load project: %w", err))
	}

	t.mu.Lock()
	if status != nil {
		t.status = make(map[string]models.StageState, len(status.Stages))
		for k, v := range status.Stages {
			t.status[k] = v
		}
	}
	if docs != nil {
		t.documents = docs
	}
	if raws != nil {
		t.raws = raws
	}
	if project != nil {
		t.project = project
	}
	t.mu.Unlock()

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

// Stages returns every stage in order with its server-reported status. A
// stage the server did not report is pending.
func (t *Tracker) Stages() []StageView {
	t.mu.Lock()
	defer t.mu.Unlock()

	views := make([]StageView, 0, len(Stages))
	for _, s := range Stages {
		v := StageView{Stage: s, Status: models.StagePending}
		if st, ok := t.status[s.Key]; ok {
			if st.Status != "" {
				v.Status = st.Status
			}
			v.Message = st.Message
		}
		views = append(views, v)
	}
	return views
}

// Percent is completed stages over total stages, for display only.
func (t *Tracker) Percent() float64 {
	completed := 0
	for _, v := range t.Stages() {
		if v.Status == models.StageCompleted {
			completed++
		}
	}
	return float64(completed) / float64(len(Stages))
}

// Project returns the project as of the last refresh.
func (t *Tracker) Project() *models.Project {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.project
}

// Documents returns the generated documents as of the last refresh.
func (t *Tracker) Documents() []models.Document {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.documents)
}

// RawMaterials returns the free-text materials as of the last refresh.
func (t *Tracker) RawMaterials() []models.RawMaterial {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.raws)
}

// Trigger runs a stage. Navigation stages return their target without a
// request. Action stages post to the backend and, on success, refresh.
func (t *Tracker) Trigger(ctx context.Context, key string) (Outcome, error) {
	stage, ok := Lookup(key)
	if !ok {
		return Outcome{}, fmt.Errorf("%w: %s", ErrUnknownStage, key)
	}
	if stage.Navigate != "" {
		return Outcome{Stage: stage, Navigate: stage.Navigate}, nil
	}

	t.logger.Info("triggering stage", "stage", stage.Key)
	if err := t.backend.TriggerStage(ctx, t.projectID, stage.Action); err != nil {
		return Outcome{Stage: stage}, fmt.Errorf("run stage %s: %w", stage.Key, err)
	}
	if err := t.Refresh(ctx); err != nil {
		t.logger.Warn("refresh after stage failed", "stage", stage.Key, "error", err)
	}
	return Outcome{Stage: stage}, nil
}
