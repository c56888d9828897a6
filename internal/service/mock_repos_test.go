package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"timeclock/internal/model"
	"timeclock/internal/repository"
	pkgerrors "timeclock/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.ID == "" {
		user.ID = "user-" + user.Code
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) find(match func(u *model.User) bool) (*model.User, error) {
	for _, u := range m.users {
		if match(u) {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByCode(_ context.Context, code string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Code == code })
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.Email == email })
}

func (m *mockUserRepo) GetByAccessTokenHash(_ context.Context, hash string) (*model.User, error) {
	return m.find(func(u *model.User) bool { return u.AccessTokenHash == hash })
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) sorted() []model.User {
	all := make([]model.User, 0, len(m.users))
	for _, u := range m.users {
		all = append(all, *u)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Code < all[j].Code })
	return all
}

func (m *mockUserRepo) List(_ context.Context, filter repository.UserFilter, offset, limit int) ([]model.User, int64, error) {
	var all []model.User
	for _, u := range m.sorted() {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		if filter.Keyword != "" && !strings.Contains(u.Name, filter.Keyword) && !strings.Contains(u.Code, filter.Keyword) {
			continue
		}
		all = append(all, u)
	}
	total := int64(len(all))
	if offset < 0 || limit < 0 {
		return all, total, nil
	}
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockUserRepo) ListActiveInterns(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.sorted() {
		if u.Role == model.RoleIntern && u.IsActive {
			result = append(result, u)
		}
	}
	return result, nil
}

// ── Mock TermRepository ──

type mockTermRepo struct {
	terms map[string]*model.InternshipTerm
	seq   int
}

func newMockTermRepo() *mockTermRepo {
	return &mockTermRepo{terms: make(map[string]*model.InternshipTerm)}
}

func (m *mockTermRepo) Create(_ context.Context, term *model.InternshipTerm) error {
	m.seq++
	if term.ID == "" {
		term.ID = fmt.Sprintf("term-%d", m.seq)
	}
	if term.Version == 0 {
		term.Version = 1
	}
	term.CreatedAt = time.Now().Add(time.Duration(m.seq) * time.Millisecond)
	m.terms[term.ID] = term
	return nil
}

func (m *mockTermRepo) GetByID(_ context.Context, id string) (*model.InternshipTerm, error) {
	if t, ok := m.terms[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockTermRepo) Update(_ context.Context, term *model.InternshipTerm) error {
	stored, ok := m.terms[term.ID]
	if !ok || stored.Version != term.Version {
		return pkgerrors.ErrOptimisticLock
	}
	term.Version++
	cp := *term
	m.terms[term.ID] = &cp
	return nil
}

func (m *mockTermRepo) ListByUser(_ context.Context, userID string) ([]model.InternshipTerm, error) {
	var result []model.InternshipTerm
	for _, t := range m.terms {
		if t.UserID == userID {
			result = append(result, *t)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDate.After(result[j].StartDate) })
	return result, nil
}

func (m *mockTermRepo) ListConfirmedCovering(_ context.Context, userID string, date time.Time) ([]model.InternshipTerm, error) {
	var result []model.InternshipTerm
	for _, t := range m.terms {
		if t.UserID != userID || t.Status != model.TermStatusConfirmed {
			continue
		}
		if date.Before(t.StartDate) || date.After(t.EndDate) {
			continue
		}
		result = append(result, *t)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].StartDate.Equal(result[j].StartDate) {
			return result[i].StartDate.After(result[j].StartDate)
		}
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

// ── Mock AttendanceEventRepository ──

type mockEventRepo struct {
	mu     sync.Mutex
	events []model.AttendanceEvent
}

func newMockEventRepo() *mockEventRepo {
	return &mockEventRepo{}
}

func (m *mockEventRepo) Create(_ context.Context, event *model.AttendanceEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = event.BeforeCreate(nil)
	m.events = append(m.events, *event)
	return nil
}

func (m *mockEventRepo) ListByUserBetween(_ context.Context, userID string, from, to time.Time) ([]model.AttendanceEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.AttendanceEvent
	for _, e := range m.events {
		if e.UserID != userID || e.Timestamp.Before(from) || e.Timestamp.After(to) {
			continue
		}
		result = append(result, e)
	}
	sort.SliceStable(result, func(i, j int) bool {
		if !result[i].Timestamp.Equal(result[j].Timestamp) {
			return result[i].Timestamp.Before(result[j].Timestamp)
		}
		return result[i].Seq < result[j].Seq
	})
	return result, nil
}

// ── Mock DaySummaryRepository ──

type mockDaySummaryRepo struct {
	mu        sync.Mutex
	summaries map[string]*model.DaySummary // key: user|date
	upserts   int
}

func newMockDaySummaryRepo() *mockDaySummaryRepo {
	return &mockDaySummaryRepo{summaries: make(map[string]*model.DaySummary)}
}

func summaryKey(userID string, date time.Time) string {
	return userID + "|" + date.Format("2006-01-02")
}

func (m *mockDaySummaryRepo) Upsert(_ context.Context, summary *model.DaySummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upserts++
	key := summaryKey(summary.UserID, summary.Date)
	if prev, ok := m.summaries[key]; ok {
		summary.ID = prev.ID
	} else if summary.ID == "" {
		summary.ID = "sum-" + key
	}
	cp := *summary
	m.summaries[key] = &cp
	return nil
}

func (m *mockDaySummaryRepo) GetByUserDate(_ context.Context, userID string, date time.Time) (*model.DaySummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.summaries[summaryKey(userID, date)]; ok {
		cp := *s
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockDaySummaryRepo) between(userID string, from, to time.Time) []model.DaySummary {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.DaySummary
	for _, s := range m.summaries {
		if userID != "" && s.UserID != userID {
			continue
		}
		if s.Date.Before(from) || s.Date.After(to) {
			continue
		}
		result = append(result, *s)
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].Date.Equal(result[j].Date) {
			return result[i].Date.Before(result[j].Date)
		}
		return result[i].UserID < result[j].UserID
	})
	return result
}

func (m *mockDaySummaryRepo) ListByUserBetween(_ context.Context, userID string, from, to time.Time) ([]model.DaySummary, error) {
	return m.between(userID, from, to), nil
}

func (m *mockDaySummaryRepo) ListBetween(_ context.Context, from, to time.Time) ([]model.DaySummary, error) {
	return m.between("", from, to), nil
}

// ── Mock AdvanceNoticeRepository ──

type mockNoticeRepo struct {
	notices []*model.AdvanceNotice // 按创建顺序
}

func newMockNoticeRepo() *mockNoticeRepo {
	return &mockNoticeRepo{}
}

func (m *mockNoticeRepo) Create(_ context.Context, notice *model.AdvanceNotice) error {
	if notice.ID == "" {
		notice.ID = fmt.Sprintf("notice-%d", len(m.notices)+1)
	}
	notice.CreatedAt = time.Now()
	m.notices = append(m.notices, notice)
	return nil
}

func (m *mockNoticeRepo) FirstUnused(_ context.Context, userID string, date time.Time) (*model.AdvanceNotice, error) {
	for _, n := range m.notices {
		if n.UserID == userID && !n.IsUsed && n.ExpectedDate.Equal(date) {
			cp := *n
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNoticeRepo) FirstUnusedOfTypeBetween(_ context.Context, userID, noticeType string, from, to time.Time) (*model.AdvanceNotice, error) {
	for _, n := range m.notices {
		if n.UserID == userID && !n.IsUsed && n.NoticeType == noticeType &&
			!n.ExpectedDate.Before(from) && !n.ExpectedDate.After(to) {
			cp := *n
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockNoticeRepo) MarkUsed(_ context.Context, id string) (bool, error) {
	for _, n := range m.notices {
		if n.ID == id && !n.IsUsed {
			n.IsUsed = true
			return true, nil
		}
	}
	return false, nil
}

func (m *mockNoticeRepo) MarkTypeUsedBetween(_ context.Context, userID, noticeType string, from, to time.Time) (int64, error) {
	var n int64
	for _, notice := range m.notices {
		if notice.UserID == userID && !notice.IsUsed && notice.NoticeType == noticeType &&
			!notice.ExpectedDate.Before(from) && !notice.ExpectedDate.After(to) {
			notice.IsUsed = true
			n++
		}
	}
	return n, nil
}

func (m *mockNoticeRepo) ListByUser(_ context.Context, userID string, isUsed *bool) ([]model.AdvanceNotice, error) {
	var result []model.AdvanceNotice
	for _, n := range m.notices {
		if n.UserID != userID || (isUsed != nil && n.IsUsed != *isUsed) {
			continue
		}
		result = append(result, *n)
	}
	return result, nil
}

func (m *mockNoticeRepo) ListByUserBetween(_ context.Context, userID string, from, to time.Time) ([]model.AdvanceNotice, error) {
	var result []model.AdvanceNotice
	for _, n := range m.notices {
		if n.UserID == userID && !n.ExpectedDate.Before(from) && !n.ExpectedDate.After(to) {
			result = append(result, *n)
		}
	}
	return result, nil
}

// ── Mock LeaveRequestRepository ──

type mockLeaveRepo struct {
	leaves map[string]*model.LeaveRequest
	users  *mockUserRepo
}

func newMockLeaveRepo(users *mockUserRepo) *mockLeaveRepo {
	return &mockLeaveRepo{leaves: make(map[string]*model.LeaveRequest), users: users}
}

func (m *mockLeaveRepo) Create(_ context.Context, req *model.LeaveRequest) error {
	if req.ID == "" {
		req.ID = fmt.Sprintf("leave-%d", len(m.leaves)+1)
	}
	if req.Status == "" {
		req.Status = model.RequestStatusPending
	}
	if req.Version == 0 {
		req.Version = 1
	}
	req.CreatedAt = time.Now()
	cp := *req
	m.leaves[req.ID] = &cp
	return nil
}

func (m *mockLeaveRepo) GetByID(_ context.Context, id string) (*model.LeaveRequest, error) {
	if l, ok := m.leaves[id]; ok {
		cp := *l
		cp.User = m.users.users[l.UserID]
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLeaveRepo) List(_ context.Context, filter repository.RequestFilter) ([]model.LeaveRequest, error) {
	var result []model.LeaveRequest
	for _, l := range m.leaves {
		if filter.UserID != "" && l.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && l.Status != filter.Status {
			continue
		}
		result = append(result, *l)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockLeaveRepo) UpdateReview(_ context.Context, req *model.LeaveRequest) error {
	stored, ok := m.leaves[req.ID]
	if !ok || stored.Version != req.Version || stored.Status != model.RequestStatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	cp := *req
	m.leaves[req.ID] = &cp
	return nil
}

func (m *mockLeaveRepo) SetCalendarEventUID(_ context.Context, id, uid string) error {
	if l, ok := m.leaves[id]; ok {
		l.CalendarEventUID = uid
	}
	return nil
}

func (m *mockLeaveRepo) ListApprovedOverlapping(_ context.Context, from, to time.Time) ([]model.LeaveRequest, error) {
	var result []model.LeaveRequest
	for _, l := range m.leaves {
		if l.Status == model.RequestStatusApproved && !l.StartDatetime.After(to) && !l.EndDatetime.Before(from) {
			result = append(result, *l)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].StartDatetime.Before(result[j].StartDatetime) })
	return result, nil
}

// ── Mock RetroClockRequestRepository ──

type mockRetroRepo struct {
	requests map[string]*model.RetroClockRequest
	users    *mockUserRepo
}

func newMockRetroRepo(users *mockUserRepo) *mockRetroRepo {
	return &mockRetroRepo{requests: make(map[string]*model.RetroClockRequest), users: users}
}

func (m *mockRetroRepo) Create(_ context.Context, req *model.RetroClockRequest) error {
	if req.ID == "" {
		req.ID = fmt.Sprintf("retro-%d", len(m.requests)+1)
	}
	if req.Status == "" {
		req.Status = model.RequestStatusPending
	}
	if req.Version == 0 {
		req.Version = 1
	}
	req.CreatedAt = time.Now()
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *mockRetroRepo) GetByID(_ context.Context, id string) (*model.RetroClockRequest, error) {
	if r, ok := m.requests[id]; ok {
		cp := *r
		cp.User = m.users.users[r.UserID]
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockRetroRepo) List(_ context.Context, filter repository.RequestFilter) ([]model.RetroClockRequest, error) {
	var result []model.RetroClockRequest
	for _, r := range m.requests {
		if filter.UserID != "" && r.UserID != filter.UserID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		result = append(result, *r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *mockRetroRepo) UpdateReview(_ context.Context, req *model.RetroClockRequest) error {
	stored, ok := m.requests[req.ID]
	if !ok || stored.Version != req.Version || stored.Status != model.RequestStatusPending {
		return pkgerrors.ErrOptimisticLock
	}
	req.Version++
	cp := *req
	m.requests[req.ID] = &cp
	return nil
}

func (m *mockRetroRepo) ListByUserBetween(_ context.Context, userID, status string, from, to time.Time) ([]model.RetroClockRequest, error) {
	var result []model.RetroClockRequest
	for _, r := range m.requests {
		if r.UserID != userID || (status != "" && r.Status != status) {
			continue
		}
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		result = append(result, *r)
	}
	return result, nil
}

// ── Mock ScoreRepository ──

type mockScoreRepo struct {
	mu      sync.Mutex
	records map[string]*model.ScoreRecord // key: user|month
	details map[string][]model.ScoreDetail
	users   *mockUserRepo
}

func newMockScoreRepo(users *mockUserRepo) *mockScoreRepo {
	return &mockScoreRepo{
		records: make(map[string]*model.ScoreRecord),
		details: make(map[string][]model.ScoreDetail),
		users:   users,
	}
}

func (m *mockScoreRepo) GetOrCreate(_ context.Context, userID, yearMonth string) (*model.ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + "|" + yearMonth
	if r, ok := m.records[key]; ok {
		cp := *r
		return &cp, nil
	}
	r := &model.ScoreRecord{
		ID:         "score-" + key,
		UserID:     userID,
		YearMonth:  yearMonth,
		BaseScore:  model.BaseScore,
		FinalScore: model.BaseScore,
		Status:     model.ScoreStatusCalculating,
	}
	m.records[key] = r
	cp := *r
	return &cp, nil
}

func (m *mockScoreRepo) GetByUserMonth(_ context.Context, userID, yearMonth string) (*model.ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r, ok := m.records[userID+"|"+yearMonth]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockScoreRepo) UpdateTotals(_ context.Context, record *model.ScoreRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *record
	cp.Details = nil
	m.records[record.UserID+"|"+record.YearMonth] = &cp
	return nil
}

func (m *mockScoreRepo) DeleteDetails(_ context.Context, recordID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.details, recordID)
	return nil
}

func (m *mockScoreRepo) CreateDetails(_ context.Context, details []model.ScoreDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range details {
		m.details[d.ScoreRecordID] = append(m.details[d.ScoreRecordID], d)
	}
	return nil
}

func (m *mockScoreRepo) ListDetails(_ context.Context, recordID string) ([]model.ScoreDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := append([]model.ScoreDetail(nil), m.details[recordID]...)
	sort.SliceStable(result, func(i, j int) bool { return result[i].Seq < result[j].Seq })
	return result, nil
}

func (m *mockScoreRepo) ListByMonth(_ context.Context, yearMonth string) ([]model.ScoreRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []model.ScoreRecord
	for _, r := range m.records {
		if r.YearMonth != yearMonth {
			continue
		}
		cp := *r
		if m.users != nil {
			if u, ok := m.users.users[r.UserID]; ok {
				cp.User = u
			}
		}
		result = append(result, cp)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FinalScore.GreaterThan(result[j].FinalScore) })
	return result, nil
}

// ── Mock SystemConfigRepository ──

type mockSystemConfigRepo struct {
	mu      sync.Mutex
	entries map[string]*model.SystemConfigEntry
	gets    int
}

func newMockSystemConfigRepo() *mockSystemConfigRepo {
	return &mockSystemConfigRepo{entries: make(map[string]*model.SystemConfigEntry)}
}

func (m *mockSystemConfigRepo) Get(_ context.Context, key string) (*model.SystemConfigEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gets++
	if e, ok := m.entries[key]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockSystemConfigRepo) List(_ context.Context) ([]model.SystemConfigEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]model.SystemConfigEntry, 0, len(m.entries))
	for _, e := range m.entries {
		result = append(result, *e)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Key < result[j].Key })
	return result, nil
}

func (m *mockSystemConfigRepo) ListByCategory(ctx context.Context, category string) ([]model.SystemConfigEntry, error) {
	all, _ := m.List(ctx)
	var result []model.SystemConfigEntry
	for _, e := range all {
		if e.Category == category {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *mockSystemConfigRepo) CreateIfMissing(_ context.Context, entry *model.SystemConfigEntry) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.Key]; ok {
		return false, nil
	}
	cp := *entry
	m.entries[entry.Key] = &cp
	return true, nil
}

func (m *mockSystemConfigRepo) UpdateValue(_ context.Context, key, value string, updatedBy *string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.Value = value
	e.UpdatedBy = updatedBy
	return nil
}

// ── Mock AuditLogRepository ──

type mockAuditLogRepo struct {
	logs []model.AuditLog
}

func newMockAuditLogRepo() *mockAuditLogRepo {
	return &mockAuditLogRepo{}
}

func (m *mockAuditLogRepo) Create(_ context.Context, log *model.AuditLog) error {
	if log.ID == "" {
		log.ID = fmt.Sprintf("audit-%d", len(m.logs)+1)
	}
	log.CreatedAt = time.Now()
	m.logs = append(m.logs, *log)
	return nil
}

func (m *mockAuditLogRepo) List(_ context.Context, filter repository.AuditLogFilter, offset, limit int) ([]model.AuditLog, int64, error) {
	var all []model.AuditLog
	for _, l := range m.logs {
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.ActorID != "" && l.ActorID != filter.ActorID {
			continue
		}
		all = append(all, l)
	}
	total := int64(len(all))
	if offset > len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockAuditLogRepo) actions() []string {
	out := make([]string, 0, len(m.logs))
	for _, l := range m.logs {
		out = append(out, l.Action)
	}
	return out
}

// ── Mock Notifier ──

type mockNotifier struct {
	mu         sync.Mutex
	direct     map[string][]string // slack user id → messages
	broadcasts []string
	err        error
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{direct: make(map[string][]string)}
}

func (n *mockNotifier) NotifyUser(_ context.Context, slackUserID, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.direct[slackUserID] = append(n.direct[slackUserID], message)
	return nil
}

func (n *mockNotifier) Broadcast(_ context.Context, message string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.broadcasts = append(n.broadcasts, message)
	return nil
}

// ── 测试装配 ──

// mockRepos 持有全部内存仓储，便于测试直接断言内部状态
type mockRepos struct {
	User          *mockUserRepo
	Term          *mockTermRepo
	Event         *mockEventRepo
	DaySummary    *mockDaySummaryRepo
	AdvanceNotice *mockNoticeRepo
	Leave         *mockLeaveRepo
	RetroClock    *mockRetroRepo
	Score         *mockScoreRepo
	SystemConfig  *mockSystemConfigRepo
	AuditLog      *mockAuditLogRepo
}

func newMockRepos() (*repository.Repository, *mockRepos) {
	users := newMockUserRepo()
	m := &mockRepos{
		User:          users,
		Term:          newMockTermRepo(),
		Event:         newMockEventRepo(),
		DaySummary:    newMockDaySummaryRepo(),
		AdvanceNotice: newMockNoticeRepo(),
		Leave:         newMockLeaveRepo(users),
		RetroClock:    newMockRetroRepo(users),
		Score:         newMockScoreRepo(users),
		SystemConfig:  newMockSystemConfigRepo(),
		AuditLog:      newMockAuditLogRepo(),
	}
	repo := &repository.Repository{
		User:          m.User,
		Term:          m.Term,
		Event:         m.Event,
		DaySummary:    m.DaySummary,
		AdvanceNotice: m.AdvanceNotice,
		Leave:         m.Leave,
		RetroClock:    m.RetroClock,
		Score:         m.Score,
		SystemConfig:  m.SystemConfig,
		AuditLog:      m.AuditLog,
	}
	return repo, m
}

// ── 测试环境 ──

// testEnv 基于内存仓储装配全部 Service，并预置默认配置、一名实习生及其已确认实习期
type testEnv struct {
	repo     *repository.Repository
	mocks    *mockRepos
	notifier *mockNotifier
	svc      *Service
	intern   *model.User
	admin    *model.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repo, mocks := newMockRepos()
	notifier := newMockNotifier()
	svc := NewService(Deps{
		Repo:     repo,
		Notifier: notifier,
		Location: testLoc,
		Logger:   zap.NewNop(),
	})
	ctx := context.Background()
	if err := svc.Config.SeedDefaults(ctx); err != nil {
		t.Fatalf("SeedDefaults 应成功: %v", err)
	}

	intern := &model.User{
		ID: "u1", Code: "S001", Name: "张三", Email: "s001@example.com",
		Role: model.RoleIntern, SlackUserID: "UZHANG", IsActive: true,
	}
	admin := &model.User{
		ID: "a1", Code: "A001", Name: "管理员", Email: "admin@example.com",
		Role: model.RoleAdmin, IsActive: true,
	}
	_ = mocks.User.Create(ctx, intern)
	_ = mocks.User.Create(ctx, admin)

	_ = mocks.Term.Create(ctx, &model.InternshipTerm{
		UserID:       intern.ID,
		StartDate:    time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC),
		Status:       model.TermStatusConfirmed,
		BaseSchedule: weekdaySchedule(),
	})

	return &testEnv{repo: repo, mocks: mocks, notifier: notifier, svc: svc, intern: intern, admin: admin}
}

// localTime 组织时区下 date 当天的 hh:mm
func localTime(date time.Time, hour, minute int) time.Time {
	return time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, testLoc)
}

// addEvent 直接写入一条历史打卡事件
func (e *testEnv) addEvent(userID string, typ model.EventType, ts time.Time) {
	_ = e.mocks.Event.Create(context.Background(), &model.AttendanceEvent{
		UserID: userID, Type: typ, Timestamp: ts, Source: model.SourceWeb,
	})
}
