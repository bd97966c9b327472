package productivity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"workpulse/pkg/constants"
	"workpulse/pkg/store/rdb"
	"workpulse/pkg/store/rdb/model"
)

type metricKey struct {
	userID, projectID, date string
}

type projectDateKey struct {
	projectID, date string
}

type userProjectKey struct {
	userID, projectID string
}

// memStore is an in-memory implementation of every repository the engine uses.
// ExecTx snapshots state and restores it when fn fails.
type memStore struct {
	mu sync.Mutex

	users    map[string]*model.User
	projects map[string]*model.Project
	members  []*model.ProjectMember
	logs     []*model.WorkLogEntry

	userMetrics    map[metricKey]*model.UserDailyMetric
	projectMetrics map[projectDateKey]*model.ProjectDailyMetric
	quality        []*model.UserQuality
	qualityDaily   map[metricKey]*model.UserQualityDaily
	summaries      map[userProjectKey]*model.UserProjectHistory
	runs           []*model.ScanRun

	seq    int
	writes int

	lockCalls    int
	openTx       int
	maxOpenTx    int
	onGetCurrent func()

	// failure injection
	failUpsertProject error
	failListProjects  error
	failCountProject  map[string]error
}

func newMemStore() *memStore {
	return &memStore{
		users:            map[string]*model.User{},
		projects:         map[string]*model.Project{},
		userMetrics:      map[metricKey]*model.UserDailyMetric{},
		projectMetrics:   map[projectDateKey]*model.ProjectDailyMetric{},
		qualityDaily:     map[metricKey]*model.UserQualityDaily{},
		summaries:        map[userProjectKey]*model.UserProjectHistory{},
		failCountProject: map[string]error{},
	}
}

func (s *memStore) repos() Repositories {
	return Repositories{
		Tx:       s,
		Projects: s,
		WorkLogs: s,
		Members:  s,
		Metrics:  s,
		Quality:  s,
		History:  s,
		ScanRuns: s,
	}
}

func (s *memStore) nextID(prefix string) string {
	s.seq++
	return fmt.Sprintf("%s-%d", prefix, s.seq)
}

// seeding helpers

func (s *memStore) addUser(id, name string) {
	s.users[id] = &model.User{ID: id, Name: name, IsActive: true}
}

func (s *memStore) addProject(id, name string, active bool) {
	s.projects[id] = &model.Project{ID: id, Code: id, Name: name, IsActive: active}
}

func (s *memStore) addMember(projectID, userID, role string, active bool, from time.Time) {
	s.members = append(s.members, &model.ProjectMember{
		ID: s.nextID("pm"), ProjectID: projectID, UserID: userID, WorkRole: role, IsActive: active, AssignedFrom: from,
	})
}

func (s *memStore) addLog(projectID, userID string, date time.Time, status constants.WorkLogStatus, minutes float64, tasks int, clockedOut bool) {
	entry := &model.WorkLogEntry{
		ID: s.nextID("log"), ProjectID: projectID, UserID: userID, SheetDate: DateOf(date),
		Status: status.String(), TasksCompleted: tasks, MinutesWorked: &minutes,
		ClockInAt: date,
	}
	if clockedOut {
		out := date.Add(time.Duration(minutes) * time.Minute)
		entry.ClockOutAt = &out
	}
	s.logs = append(s.logs, entry)
}

// snapshot support

type memSnapshot struct {
	userMetrics    map[metricKey]model.UserDailyMetric
	projectMetrics map[projectDateKey]model.ProjectDailyMetric
	quality        []model.UserQuality
	qualityDaily   map[metricKey]model.UserQualityDaily
	summaries      map[userProjectKey]model.UserProjectHistory
}

func (s *memStore) snapshot() memSnapshot {
	snap := memSnapshot{
		userMetrics:    map[metricKey]model.UserDailyMetric{},
		projectMetrics: map[projectDateKey]model.ProjectDailyMetric{},
		qualityDaily:   map[metricKey]model.UserQualityDaily{},
		summaries:      map[userProjectKey]model.UserProjectHistory{},
	}
	for k, v := range s.userMetrics {
		snap.userMetrics[k] = *v
	}
	for k, v := range s.projectMetrics {
		snap.projectMetrics[k] = *v
	}
	for _, q := range s.quality {
		snap.quality = append(snap.quality, *q)
	}
	for k, v := range s.qualityDaily {
		snap.qualityDaily[k] = *v
	}
	for k, v := range s.summaries {
		snap.summaries[k] = *v
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.userMetrics = map[metricKey]*model.UserDailyMetric{}
	for k, v := range snap.userMetrics {
		v := v
		s.userMetrics[k] = &v
	}
	s.projectMetrics = map[projectDateKey]*model.ProjectDailyMetric{}
	for k, v := range snap.projectMetrics {
		v := v
		s.projectMetrics[k] = &v
	}
	s.quality = nil
	for _, q := range snap.quality {
		q := q
		s.quality = append(s.quality, &q)
	}
	s.qualityDaily = map[metricKey]*model.UserQualityDaily{}
	for k, v := range snap.qualityDaily {
		v := v
		s.qualityDaily[k] = &v
	}
	s.summaries = map[userProjectKey]*model.UserProjectHistory{}
	for k, v := range snap.summaries {
		v := v
		s.summaries[k] = &v
	}
}

// txRunner

func (s *memStore) ExecTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	snap := s.snapshot()
	s.openTx++
	if s.openTx > s.maxOpenTx {
		s.maxOpenTx = s.openTx
	}
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.openTx--
		s.mu.Unlock()
	}()

	if err := fn(ctx); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

// projectRepository

func (s *memStore) Get(_ context.Context, projectID string) (*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[projectID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (s *memStore) ListActive(_ context.Context) ([]*model.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failListProjects != nil {
		return nil, s.failListProjects
	}
	var out []*model.Project
	for _, p := range s.projects {
		if p.IsActive {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *memStore) LockForUpdate(_ context.Context, projectID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lockCalls++
	if _, ok := s.projects[projectID]; !ok {
		return fmt.Errorf("project %s not found", projectID)
	}
	return nil
}

// workLogRepository

func (s *memStore) SumApprovedByUser(_ context.Context, projectID string, date time.Time) ([]*rdb.UserDayTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byUser := map[string]*rdb.UserDayTotal{}
	for _, l := range s.logs {
		if l.ProjectID != projectID || !l.SheetDate.Equal(DateOf(date)) || l.Status != constants.WorkLogStatusApproved.String() {
			continue
		}
		row, ok := byUser[l.UserID]
		if !ok {
			row = &rdb.UserDayTotal{UserID: l.UserID, UserName: s.users[l.UserID].Name}
			byUser[l.UserID] = row
		}
		if l.MinutesWorked != nil {
			row.Minutes += *l.MinutesWorked
		}
		row.Tasks += l.TasksCompleted
	}
	out := make([]*rdb.UserDayTotal, 0, len(byUser))
	for _, r := range byUser {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserName < out[j].UserName })
	return out, nil
}

func (s *memStore) CountInRange(_ context.Context, projectID string, from, to time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failCountProject[projectID]; err != nil {
		return 0, err
	}
	var n int64
	for _, l := range s.logs {
		if l.ProjectID == projectID && !l.SheetDate.Before(DateOf(from)) && !l.SheetDate.After(DateOf(to)) {
			n++
		}
	}
	return n, nil
}

func (s *memStore) HasApprovedClockedOut(_ context.Context, projectID string, date time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.logs {
		if l.ProjectID == projectID && l.SheetDate.Equal(DateOf(date)) &&
			l.Status == constants.WorkLogStatusApproved.String() && l.ClockOutAt != nil {
			return true, nil
		}
	}
	return false, nil
}

// memberRepository

func (s *memStore) ResolveWorkRole(_ context.Context, projectID, userID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var best *model.ProjectMember
	for _, m := range s.members {
		if m.ProjectID != projectID || m.UserID != userID {
			continue
		}
		if best == nil ||
			(m.IsActive && !best.IsActive) ||
			(m.IsActive == best.IsActive && m.AssignedFrom.After(best.AssignedFrom)) {
			best = m
		}
	}
	if best == nil {
		return "", nil
	}
	return best.WorkRole, nil
}

// metricRepository

func (s *memStore) UpsertUserDaily(_ context.Context, m *model.UserDailyMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	cp := *m
	s.userMetrics[metricKey{m.UserID, m.ProjectID, day(m.MetricDate)}] = &cp
	return nil
}

func (s *memStore) UpsertProjectDaily(_ context.Context, m *model.ProjectDailyMetric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpsertProject != nil {
		return s.failUpsertProject
	}
	s.writes++
	cp := *m
	s.projectMetrics[projectDateKey{m.ProjectID, day(m.MetricDate)}] = &cp
	return nil
}

func (s *memStore) HasFreshUserMetrics(_ context.Context, projectID string, date, today time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, m := range s.userMetrics {
		if k.projectID == projectID && k.date == day(date) && m.ComputedOn.Equal(DateOf(today)) {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) SumUserTotals(_ context.Context, userID, projectID string) (float64, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	hours, tasks := 0.0, 0
	for k, m := range s.userMetrics {
		if k.userID == userID && k.projectID == projectID {
			hours += m.HoursWorked
			tasks += m.TasksCompleted
		}
	}
	return hours, tasks, nil
}

func (s *memStore) ListProjectDaily(_ context.Context, projectID string, from, to time.Time) ([]*model.ProjectDailyMetric, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.ProjectDailyMetric
	for k, m := range s.projectMetrics {
		if k.projectID == projectID && !m.MetricDate.Before(DateOf(from)) && !m.MetricDate.After(DateOf(to)) {
			cp := *m
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MetricDate.Before(out[j].MetricDate) })
	return out, nil
}

// qualityRepository

func (s *memStore) GetCurrent(_ context.Context, userID, projectID string) (*model.UserQuality, error) {
	if s.onGetCurrent != nil {
		defer s.onGetCurrent()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quality {
		if q.UserID == userID && q.ProjectID == projectID && q.IsCurrent {
			cp := *q
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *memStore) CreateVersion(_ context.Context, q *model.UserQuality) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	cp := *q
	cp.ID = s.nextID("q")
	s.quality = append(s.quality, &cp)
	return nil
}

func (s *memStore) CloseVersion(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quality {
		if q.ID == id {
			s.writes++
			q.IsCurrent = false
			t := at
			q.ValidTo = &t
			return nil
		}
	}
	return errors.New("quality version not found")
}

func (s *memStore) OverwriteCurrent(_ context.Context, in *model.UserQuality) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quality {
		if q.ID == in.ID {
			s.writes++
			q.Rating = in.Rating
			q.QualityScore = in.QualityScore
			q.WorkRole = in.WorkRole
			q.AssessedAt = in.AssessedAt
			return nil
		}
	}
	return errors.New("quality version not found")
}

func (s *memStore) UpsertDaily(_ context.Context, d *model.UserQualityDaily) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	cp := *d
	s.qualityDaily[metricKey{d.UserID, d.ProjectID, day(d.RatingDate)}] = &cp
	return nil
}

func (s *memStore) ListHistory(_ context.Context, userID, projectID string) ([]*model.UserQuality, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*model.UserQuality
	for i := len(s.quality) - 1; i >= 0; i-- {
		q := s.quality[i]
		if q.UserID == userID && q.ProjectID == projectID {
			cp := *q
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *memStore) versions(userID, projectID string) []*model.UserQuality {
	out, _ := s.ListHistory(context.Background(), userID, projectID)
	return out
}

// historyRepository

func (s *memStore) GetSummary(_ context.Context, userID, projectID string) (*model.UserProjectHistory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.summaries[userProjectKey{userID, projectID}]
	if !ok {
		return nil, nil
	}
	cp := *h
	return &cp, nil
}

func (s *memStore) SaveSummary(_ context.Context, h *model.UserProjectHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writes++
	cp := *h
	s.summaries[userProjectKey{h.UserID, h.ProjectID}] = &cp
	return nil
}

// scanRunRepository

func (s *memStore) CreateRun(_ context.Context, run *model.ScanRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	run.ID = s.nextID("run")
	cp := *run
	s.runs = append(s.runs, &cp)
	return nil
}

func (s *memStore) UpdateRun(_ context.Context, run *model.ScanRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, r := range s.runs {
		if r.ID == run.ID {
			cp := *run
			s.runs[i] = &cp
			return nil
		}
	}
	return errors.New("scan run not found")
}

func (s *memStore) LatestRun(_ context.Context) (*model.ScanRun, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.runs) == 0 {
		return nil, nil
	}
	cp := *s.runs[len(s.runs)-1]
	return &cp, nil
}

func day(t time.Time) string {
	return t.Format(time.DateOnly)
}

// fixedClock returns a controllable Now func
type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
