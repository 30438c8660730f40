package services

import (
	"context"
	"sync"
	"time"

	"chainkpi/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes. WithTransaction just runs the callback:
// the tests exercise the services' ordering and invariants, not Mongo's
// transaction machinery.

type fakeKPIRepo struct {
	mu   sync.Mutex
	kpis map[primitive.ObjectID]*models.ChainKpi
}

func newFakeKPIRepo() *fakeKPIRepo {
	return &fakeKPIRepo{kpis: make(map[primitive.ObjectID]*models.ChainKpi)}
}

func (r *fakeKPIRepo) Create(ctx context.Context, kpi *models.ChainKpi) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	kpi.ID = primitive.NewObjectID()
	stored := *kpi
	r.kpis[kpi.ID] = &stored
	return nil
}

func (r *fakeKPIRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ChainKpi, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kpi, ok := r.kpis[id]
	if !ok {
		return nil, models.NewDomainError(models.ErrNotFound, "chain KPI %s not found", id.Hex())
	}
	copied := *kpi
	return &copied, nil
}

func (r *fakeKPIRepo) ListByChain(ctx context.Context, chainID primitive.ObjectID) ([]models.ChainKpi, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChainKpi
	for _, kpi := range r.kpis {
		if kpi.ChainID == chainID {
			out = append(out, *kpi)
		}
	}
	return out, nil
}

func (r *fakeKPIRepo) Update(ctx context.Context, id primitive.ObjectID, kpi *models.ChainKpi) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.kpis[id]; !ok {
		return models.NewDomainError(models.ErrNotFound, "chain KPI %s not found", id.Hex())
	}
	stored := *kpi
	r.kpis[id] = &stored
	return nil
}

func (r *fakeKPIRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.kpis[id]; !ok {
		return models.NewDomainError(models.ErrNotFound, "chain KPI %s not found", id.Hex())
	}
	delete(r.kpis, id)
	return nil
}

func (r *fakeKPIRepo) GetChainKpiStats(ctx context.Context, chainID primitive.ObjectID) ([]bson.M, error) {
	return nil, nil
}

func (r *fakeKPIRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[primitive.ObjectID]*models.ChainKpiAssignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: make(map[primitive.ObjectID]*models.ChainKpiAssignment)}
}

func copyAssignment(a *models.ChainKpiAssignment) *models.ChainKpiAssignment {
	copied := *a
	copied.DayAssignments = make(map[string]int, len(a.DayAssignments))
	for k, v := range a.DayAssignments {
		copied.DayAssignments[k] = v
	}
	copied.DayTitles = make(map[string][]string, len(a.DayTitles))
	for k, v := range a.DayTitles {
		copied.DayTitles[k] = append([]string(nil), v...)
	}
	copied.DayResults = make(map[string][]*models.DayResultEntry, len(a.DayResults))
	for k, v := range a.DayResults {
		copied.DayResults[k] = append([]*models.DayResultEntry(nil), v...)
	}
	return &copied
}

func (r *fakeAssignmentRepo) Insert(ctx context.Context, assignment *models.ChainKpiAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment.ID = primitive.NewObjectID()
	r.assignments[assignment.ID] = copyAssignment(assignment)
	return nil
}

func (r *fakeAssignmentRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ChainKpiAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[id]
	if !ok {
		return nil, models.NewDomainError(models.ErrNotFound, "assignment %s not found", id.Hex())
	}
	return copyAssignment(assignment), nil
}

func (r *fakeAssignmentRepo) GetByKey(ctx context.Context, chainKpiID primitive.ObjectID, weekIndex int, stepID string) (*models.ChainKpiAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, assignment := range r.assignments {
		if assignment.ChainKpiID == chainKpiID && assignment.WeekIndex == weekIndex && assignment.StepID == stepID {
			return copyAssignment(assignment), nil
		}
	}
	return nil, models.NewDomainError(models.ErrNotFound, "no assignment for key")
}

func (r *fakeAssignmentRepo) ListByKPI(ctx context.Context, chainKpiID primitive.ObjectID) ([]models.ChainKpiAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.ChainKpiAssignment
	for _, assignment := range r.assignments {
		if assignment.ChainKpiID == chainKpiID {
			out = append(out, *copyAssignment(assignment))
		}
	}
	return out, nil
}

func (r *fakeAssignmentRepo) Replace(ctx context.Context, id primitive.ObjectID, assignment *models.ChainKpiAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.assignments[id]; !ok {
		return models.NewDomainError(models.ErrNotFound, "assignment %s not found", id.Hex())
	}
	r.assignments[id] = copyAssignment(assignment)
	return nil
}

func (r *fakeAssignmentRepo) MarkAccepted(ctx context.Context, id primitive.ObjectID, actor string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[id]
	if !ok || assignment.Accepted {
		return false, nil
	}
	assignment.Accepted = true
	assignment.AcceptedBy = actor
	assignment.AcceptedAt = &at
	return true, nil
}

func (r *fakeAssignmentRepo) MarkHandedOver(ctx context.Context, id primitive.ObjectID, actor string, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[id]
	if !ok || assignment.HandedOver {
		return false, nil
	}
	assignment.HandedOver = true
	assignment.HandedOverBy = actor
	assignment.HandedOverAt = &at
	return true, nil
}

func (r *fakeAssignmentRepo) SetDayResults(ctx context.Context, id primitive.ObjectID, date string, results []*models.DayResultEntry, updatedBy string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	assignment, ok := r.assignments[id]
	if !ok {
		return models.NewDomainError(models.ErrNotFound, "assignment %s not found", id.Hex())
	}
	if assignment.DayResults == nil {
		assignment.DayResults = make(map[string][]*models.DayResultEntry)
	}
	assignment.DayResults[date] = append([]*models.DayResultEntry(nil), results...)
	assignment.Metadata.UpdatedBy = updatedBy
	return nil
}

func (r *fakeAssignmentRepo) DeleteByKPI(ctx context.Context, chainKpiID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, assignment := range r.assignments {
		if assignment.ChainKpiID == chainKpiID {
			delete(r.assignments, id)
		}
	}
	return nil
}

func (r *fakeAssignmentRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type completionKey struct {
	kpiID          primitive.ObjectID
	completionType models.CompletionType
	weekIndex      int
	dateISO        string
}

type fakeCompletionRepo struct {
	mu          sync.Mutex
	completions map[completionKey]*models.KpiCompletion
}

func newFakeCompletionRepo() *fakeCompletionRepo {
	return &fakeCompletionRepo{completions: make(map[completionKey]*models.KpiCompletion)}
}

func (r *fakeCompletionRepo) key(c *models.KpiCompletion) completionKey {
	return completionKey{c.ChainKpiID, c.CompletionType, c.WeekIndex, c.DateISO}
}

func (r *fakeCompletionRepo) DeleteByKey(ctx context.Context, chainKpiID primitive.ObjectID, completionType models.CompletionType, weekIndex int, dateISO string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := completionKey{chainKpiID, completionType, weekIndex, dateISO}
	if _, ok := r.completions[key]; !ok {
		return false, nil
	}
	delete(r.completions, key)
	return true, nil
}

func (r *fakeCompletionRepo) Insert(ctx context.Context, completion *models.KpiCompletion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := r.key(completion)
	if _, ok := r.completions[key]; ok {
		return models.NewDomainError(models.ErrConcurrentModification, "completion toggled concurrently")
	}
	completion.ID = primitive.NewObjectID()
	stored := *completion
	r.completions[key] = &stored
	return nil
}

func (r *fakeCompletionRepo) ListByKPI(ctx context.Context, chainKpiID primitive.ObjectID) ([]models.KpiCompletion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.KpiCompletion
	for _, completion := range r.completions {
		if completion.ChainKpiID == chainKpiID {
			out = append(out, *completion)
		}
	}
	return out, nil
}

func (r *fakeCompletionRepo) DeleteByKPI(ctx context.Context, chainKpiID primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, completion := range r.completions {
		if completion.ChainKpiID == chainKpiID {
			delete(r.completions, key)
		}
	}
	return nil
}

func (r *fakeCompletionRepo) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type sentNotification struct {
	Audience string
	Type     models.NotificationType
	Title    string
}

// fakeNotifier records Notify calls synchronously so tests can assert
// on the side channel without sleeping.
type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *fakeNotifier) Notify(audience string, notificationType models.NotificationType, title, message string, metadata map[string]interface{}, entityID primitive.ObjectID, entityKind string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, sentNotification{Audience: audience, Type: notificationType, Title: title})
}

func (n *fakeNotifier) NotifyAdmins(notificationType models.NotificationType, title, message string, metadata map[string]interface{}, entityID primitive.ObjectID, entityKind string) {
	n.Notify(models.RoleAudience(AdminRole), notificationType, title, message, metadata, entityID, entityKind)
}

func (n *fakeNotifier) ListForActor(ctx context.Context, userID, role string) ([]models.Notification, error) {
	return nil, nil
}

func (n *fakeNotifier) MarkRead(ctx context.Context, id primitive.ObjectID, userID, role string) error {
	return nil
}

func (n *fakeNotifier) sentTypes() []models.NotificationType {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]models.NotificationType, 0, len(n.sent))
	for _, s := range n.sent {
		types = append(types, s.Type)
	}
	return types
}
