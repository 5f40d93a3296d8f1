package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"sort"
	"time"

	"github.com/noah-isme/appeal-desk-api/internal/models"
	"github.com/noah-isme/appeal-desk-api/internal/repository"
	"github.com/noah-isme/appeal-desk-api/pkg/clock"
)

// Civil "now" for service tests: 2025-03-10 10:00 at UTC+5.
var (
	testZone = time.FixedZone("UTC+5", 5*60*60)
	testNow  = time.Date(2025, 3, 10, 10, 0, 0, 0, testZone)
)

func testCalendar() *clock.Calendar {
	return clock.NewCalendarIn(clock.Fixed(testNow), testZone)
}

func civil(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func int64Ptr(v int64) *int64 { return &v }

func strPtr(v string) *string { return &v }

// memAppealRepo is an in-memory AppealStore. InTx restores the previous state when fn fails.
type memAppealRepo struct {
	appeals  map[string]models.Appeal
	answers  map[string]models.AppealAnswer
	requests map[string]models.ApprovalRequest
	logs     []models.AppealLog

	submitterDistricts map[string]int64
	lockedSubmitters   []string
	lockedYears        []int
	failOn             string
	failWith           error
	seq                int
}

func newMemAppealRepo() *memAppealRepo {
	return &memAppealRepo{
		appeals:            make(map[string]models.Appeal),
		answers:            make(map[string]models.AppealAnswer),
		requests:           make(map[string]models.ApprovalRequest),
		submitterDistricts: make(map[string]int64),
	}
}

type memSnapshot struct {
	appeals  map[string]models.Appeal
	answers  map[string]models.AppealAnswer
	requests map[string]models.ApprovalRequest
	logs     []models.AppealLog
}

func (r *memAppealRepo) snapshot() memSnapshot {
	snap := memSnapshot{
		appeals:  make(map[string]models.Appeal, len(r.appeals)),
		answers:  make(map[string]models.AppealAnswer, len(r.answers)),
		requests: make(map[string]models.ApprovalRequest, len(r.requests)),
		logs:     append([]models.AppealLog(nil), r.logs...),
	}
	for k, v := range r.appeals {
		snap.appeals[k] = v
	}
	for k, v := range r.answers {
		snap.answers[k] = v
	}
	for k, v := range r.requests {
		snap.requests[k] = v
	}
	return snap
}

func (r *memAppealRepo) restore(snap memSnapshot) {
	r.appeals = snap.appeals
	r.answers = snap.answers
	r.requests = snap.requests
	r.logs = snap.logs
}

func (r *memAppealRepo) nextID(prefix string) string {
	r.seq++
	return fmt.Sprintf("%s-%d", prefix, r.seq)
}

func (r *memAppealRepo) fail(method string) error {
	if r.failOn != method {
		return nil
	}
	if r.failWith != nil {
		return r.failWith
	}
	return errors.New("connection reset by peer")
}

func (r *memAppealRepo) logsFor(appealID string) []models.AppealLog {
	var out []models.AppealLog
	for _, log := range r.logs {
		if log.AppealID == appealID {
			out = append(out, log)
		}
	}
	return out
}

func (r *memAppealRepo) InTx(ctx context.Context, fn func(store repository.AppealStore) error) error {
	snap := r.snapshot()
	if err := fn(r); err != nil {
		r.restore(snap)
		return err
	}
	return nil
}

func (r *memAppealRepo) LockSubmitter(ctx context.Context, submitterID string) error {
	r.lockedSubmitters = append(r.lockedSubmitters, submitterID)
	return r.fail("LockSubmitter")
}

func (r *memAppealRepo) LockNumberingYear(ctx context.Context, year int) error {
	r.lockedYears = append(r.lockedYears, year)
	return r.fail("LockNumberingYear")
}

func (r *memAppealRepo) CountActiveBySubmitter(ctx context.Context, submitterID string) (int, error) {
	count := 0
	for _, appeal := range r.appeals {
		if appeal.SubmitterID == submitterID && appeal.Status.IsActive() {
			count++
		}
	}
	return count, r.fail("CountActiveBySubmitter")
}

func (r *memAppealRepo) LatestNumberForYear(ctx context.Context, year int) (string, error) {
	pattern := regexp.MustCompile(fmt.Sprintf(`^%d-[0-9]{6}$`, year))
	latest := ""
	for _, appeal := range r.appeals {
		if pattern.MatchString(appeal.AppealNumber) && appeal.AppealNumber > latest {
			latest = appeal.AppealNumber
		}
	}
	return latest, r.fail("LatestNumberForYear")
}

func (r *memAppealRepo) InsertAppeal(ctx context.Context, appeal *models.Appeal) error {
	if err := r.fail("InsertAppeal"); err != nil {
		return err
	}
	for _, existing := range r.appeals {
		if existing.AppealNumber == appeal.AppealNumber {
			return repository.ErrAppealNumberTaken
		}
	}
	if appeal.ID == "" {
		appeal.ID = r.nextID("ap")
	}
	r.appeals[appeal.ID] = *appeal
	return nil
}

func (r *memAppealRepo) GetAppealForUpdate(ctx context.Context, id string) (*models.Appeal, error) {
	appeal, ok := r.appeals[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &appeal, nil
}

func (r *memAppealRepo) UpdateAppeal(ctx context.Context, appeal *models.Appeal) error {
	if err := r.fail("UpdateAppeal"); err != nil {
		return err
	}
	if _, ok := r.appeals[appeal.ID]; !ok {
		return sql.ErrNoRows
	}
	r.appeals[appeal.ID] = *appeal
	return nil
}

func (r *memAppealRepo) MarkOverdue(ctx context.Context, today time.Time, now time.Time) ([]models.Appeal, error) {
	var flipped []models.Appeal
	for id, appeal := range r.appeals {
		if appeal.Status.IsActive() && appeal.DueDate.Before(today) {
			appeal.Status = models.AppealStatusOverdue
			appeal.UpdatedAt = now
			r.appeals[id] = appeal
			flipped = append(flipped, appeal)
		}
	}
	sort.Slice(flipped, func(i, j int) bool { return flipped[i].ID < flipped[j].ID })
	return flipped, r.fail("MarkOverdue")
}

func (r *memAppealRepo) InsertAnswer(ctx context.Context, answer *models.AppealAnswer) error {
	if err := r.fail("InsertAnswer"); err != nil {
		return err
	}
	if answer.ID == "" {
		answer.ID = r.nextID("ans")
	}
	r.answers[answer.ID] = *answer
	return nil
}

func (r *memAppealRepo) GetAnswerForUpdate(ctx context.Context, id string) (*models.AppealAnswer, error) {
	answer, ok := r.answers[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &answer, nil
}

func (r *memAppealRepo) UpdateAnswer(ctx context.Context, answer *models.AppealAnswer) error {
	if _, ok := r.answers[answer.ID]; !ok {
		return sql.ErrNoRows
	}
	r.answers[answer.ID] = *answer
	return nil
}

func (r *memAppealRepo) InsertLog(ctx context.Context, log *models.AppealLog) error {
	if err := r.fail("InsertLog"); err != nil {
		return err
	}
	if log.ID == "" {
		log.ID = r.nextID("log")
	}
	r.logs = append(r.logs, *log)
	return nil
}

func (r *memAppealRepo) FindRequestByStatus(ctx context.Context, submitterID string, status models.ApprovalRequestStatus) (*models.ApprovalRequest, error) {
	for _, req := range r.requests {
		if req.SubmitterID == submitterID && req.Status == status {
			found := req
			return &found, nil
		}
	}
	return nil, nil
}

func (r *memAppealRepo) InsertApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error {
	for _, existing := range r.requests {
		if existing.SubmitterID == req.SubmitterID && existing.Status == models.ApprovalRequestPending && req.Status == models.ApprovalRequestPending {
			return repository.ErrPendingRequestExists
		}
	}
	if req.ID == "" {
		req.ID = r.nextID("req")
	}
	r.requests[req.ID] = *req
	return nil
}

func (r *memAppealRepo) GetApprovalRequestForUpdate(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &req, nil
}

func (r *memAppealRepo) ResolveApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error {
	stored, ok := r.requests[req.ID]
	if !ok || stored.Status != models.ApprovalRequestPending {
		return sql.ErrNoRows
	}
	r.requests[req.ID] = *req
	return nil
}

func (r *memAppealRepo) DeleteApprovalRequest(ctx context.Context, id string) error {
	delete(r.requests, id)
	return r.fail("DeleteApprovalRequest")
}

func (r *memAppealRepo) GetAppeal(ctx context.Context, id string) (*models.Appeal, error) {
	return r.GetAppealForUpdate(ctx, id)
}

func (r *memAppealRepo) ListAppeals(ctx context.Context, filter models.AppealFilter) ([]models.Appeal, error) {
	var out []models.Appeal
	for _, appeal := range r.appeals {
		if filter.DistrictID > 0 && appeal.DistrictID != filter.DistrictID {
			continue
		}
		if filter.SubmitterID != "" && appeal.SubmitterID != filter.SubmitterID {
			continue
		}
		out = append(out, appeal)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

func (r *memAppealRepo) ListLogs(ctx context.Context, appealID string) ([]models.AppealLog, error) {
	return r.logsFor(appealID), nil
}

func (r *memAppealRepo) LatestAnswer(ctx context.Context, appealID string) (*models.AppealAnswer, error) {
	var latest *models.AppealAnswer
	for _, answer := range r.answers {
		if answer.AppealID != appealID {
			continue
		}
		if latest == nil || answer.CreatedAt.After(latest.CreatedAt) {
			found := answer
			latest = &found
		}
	}
	return latest, nil
}

func (r *memAppealRepo) ListDueForReminder(ctx context.Context, dueOnOrBefore time.Time) ([]models.Appeal, error) {
	var out []models.Appeal
	for _, appeal := range r.appeals {
		if (appeal.Status.IsActive() || appeal.Status == models.AppealStatusOverdue) && !appeal.DueDate.After(dueOnOrBefore) {
			out = append(out, appeal)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, r.fail("ListDueForReminder")
}

func (r *memAppealRepo) ListPendingRequests(ctx context.Context, districtID int64) ([]models.ApprovalRequest, error) {
	var out []models.ApprovalRequest
	for _, req := range r.requests {
		if req.Status == models.ApprovalRequestPending && r.submitterDistricts[req.SubmitterID] == districtID {
			out = append(out, req)
		}
	}
	return out, nil
}

// directoryStub serves submitters, reviewer rosters and districts.
type directoryStub struct {
	submitters map[string]models.Submitter
	districts  map[int64]models.District
	failRoster bool
}

func newDirectoryStub(submitters ...models.Submitter) *directoryStub {
	d := &directoryStub{
		submitters: make(map[string]models.Submitter),
		districts: map[int64]models.District{
			7: {ID: 7, NameUz: "Yunusobod", NameRu: "Юнусабад"},
			9: {ID: 9, NameUz: "Chilonzor", NameRu: "Чиланзар"},
		},
	}
	for _, s := range submitters {
		d.submitters[s.ID] = s
	}
	return d
}

func (d *directoryStub) FindSubmitterByID(ctx context.Context, id string) (*models.Submitter, error) {
	s, ok := d.submitters[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (d *directoryStub) FindSubmitterByChannelID(ctx context.Context, channelID int64) (*models.Submitter, error) {
	for _, s := range d.submitters {
		if s.ChannelID == channelID {
			found := s
			return &found, nil
		}
	}
	return nil, nil
}

func (d *directoryStub) ListReviewersByDistrict(ctx context.Context, districtID int64) ([]models.Submitter, error) {
	if d.failRoster {
		return nil, errors.New("directory unavailable")
	}
	var out []models.Submitter
	for _, s := range d.submitters {
		if s.Type.IsReviewer() && s.DistrictID != nil && *s.DistrictID == districtID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (d *directoryStub) FindDistrictByID(ctx context.Context, id int64) (*models.District, error) {
	district, ok := d.districts[id]
	if !ok {
		return nil, nil
	}
	return &district, nil
}
