package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/appeal-desk-api/internal/models"
)

const (
	uniqueViolation           = "23505"
	foreignKeyViolation       = "23503"
	invalidTextRepresentation = "22P02"
)

const (
	appealNumberConstraint   = "appeals_appeal_number_key"
	pendingRequestConstraint = "appeal_approval_requests_one_pending"
)

var (
	// ErrAppealNumberTaken reports a collision on the appeal_number unique constraint.
	ErrAppealNumberTaken = errors.New("appeal number already exists")
	// ErrPendingRequestExists reports a second pending approval request for one submitter.
	ErrPendingRequestExists = errors.New("pending approval request already exists")
	// ErrUnknownReference reports a write naming a user, district or appeal that does not exist.
	ErrUnknownReference = errors.New("referenced record does not exist")
)

// MaxListLimit caps the page size of appeal listings.
const MaxListLimit = 200

// DefaultListLimit applies when a listing asks for no explicit page size.
const DefaultListLimit = 50

const appealColumns = `id, appeal_number, submitter_id, district_id, text, files, status, due_date,
       closed_by_moderator_id, closed_at, rejection_count, created_at, updated_at`

const answerColumns = `id, appeal_id, moderator_id, text, files, approval_status, rejection_reason,
       approved_at, rejected_at, created_at`

const logColumns = `id, appeal_id, action, from_district_id, to_district_id, old_due_date, new_due_date,
       moderator_id, comment, created_at`

const approvalColumns = `id, submitter_id, status, moderator_id, reason, created_at, resolved_at`

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// AppealStore is the set of statements a lifecycle operation runs inside one transaction.
type AppealStore interface {
	LockSubmitter(ctx context.Context, submitterID string) error
	LockNumberingYear(ctx context.Context, year int) error
	CountActiveBySubmitter(ctx context.Context, submitterID string) (int, error)
	LatestNumberForYear(ctx context.Context, year int) (string, error)

	InsertAppeal(ctx context.Context, appeal *models.Appeal) error
	GetAppealForUpdate(ctx context.Context, id string) (*models.Appeal, error)
	UpdateAppeal(ctx context.Context, appeal *models.Appeal) error
	MarkOverdue(ctx context.Context, today time.Time, now time.Time) ([]models.Appeal, error)

	InsertAnswer(ctx context.Context, answer *models.AppealAnswer) error
	GetAnswerForUpdate(ctx context.Context, id string) (*models.AppealAnswer, error)
	UpdateAnswer(ctx context.Context, answer *models.AppealAnswer) error

	InsertLog(ctx context.Context, log *models.AppealLog) error

	FindRequestByStatus(ctx context.Context, submitterID string, status models.ApprovalRequestStatus) (*models.ApprovalRequest, error)
	InsertApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error
	GetApprovalRequestForUpdate(ctx context.Context, id string) (*models.ApprovalRequest, error)
	ResolveApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error
	DeleteApprovalRequest(ctx context.Context, id string) error
}

// AppealRepository persists appeals, answers, logs and approval requests.
type AppealRepository struct {
	db *sqlx.DB
}

// NewAppealRepository constructs the repository.
func NewAppealRepository(db *sqlx.DB) *AppealRepository {
	return &AppealRepository{db: db}
}

// InTx runs fn inside a single transaction. Any error from fn rolls back every statement.
func (r *AppealRepository) InTx(ctx context.Context, fn func(store AppealStore) error) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin appeal transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&appealQueries{q: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit appeal transaction: %w", err)
	}
	return nil
}

// GetAppeal fetches an appeal by identifier.
func (r *AppealRepository) GetAppeal(ctx context.Context, id string) (*models.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals WHERE id = $1`
	var appeal models.Appeal
	if err := r.db.GetContext(ctx, &appeal, query, id); err != nil {
		return nil, lookupError(err)
	}
	return &appeal, nil
}

// ListAppeals returns appeals matching the filter. District queues are ordered by
// nearest due date, submitter histories by newest first.
func (r *AppealRepository) ListAppeals(ctx context.Context, filter models.AppealFilter) ([]models.Appeal, error) {
	builder := psql.Select(appealColumns).From("appeals")
	if filter.DistrictID > 0 {
		builder = builder.Where(sq.Eq{"district_id": filter.DistrictID})
	}
	if filter.SubmitterID != "" {
		builder = builder.Where(sq.Eq{"submitter_id": filter.SubmitterID})
	}
	if len(filter.Statuses) > 0 {
		builder = builder.Where(sq.Eq{"status": statusStrings(filter.Statuses)})
	}
	if filter.SubmitterID != "" && filter.DistrictID == 0 {
		builder = builder.OrderBy("created_at DESC")
	} else {
		builder = builder.OrderBy("due_date ASC", "appeal_number ASC")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	builder = builder.Limit(uint64(limit)).Offset(uint64(offset))

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build appeal list query: %w", err)
	}
	var appeals []models.Appeal
	if err := r.db.SelectContext(ctx, &appeals, query, args...); err != nil {
		if hasCode(err, invalidTextRepresentation) {
			return nil, nil
		}
		return nil, fmt.Errorf("list appeals: %w", err)
	}
	return appeals, nil
}

// ListDueForReminder returns active or overdue appeals due on or before the given date.
func (r *AppealRepository) ListDueForReminder(ctx context.Context, dueOnOrBefore time.Time) ([]models.Appeal, error) {
	statuses := append(statusStrings(models.ActiveAppealStatuses), string(models.AppealStatusOverdue))
	query, args, err := psql.Select(appealColumns).
		From("appeals").
		Where(sq.Eq{"status": statuses}).
		Where(sq.LtOrEq{"due_date": dueOnOrBefore}).
		OrderBy("due_date ASC", "appeal_number ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build reminder query: %w", err)
	}
	var appeals []models.Appeal
	if err := r.db.SelectContext(ctx, &appeals, query, args...); err != nil {
		return nil, fmt.Errorf("list appeals due for reminder: %w", err)
	}
	return appeals, nil
}

// ListLogs returns the audit trail of an appeal in creation order.
func (r *AppealRepository) ListLogs(ctx context.Context, appealID string) ([]models.AppealLog, error) {
	query := `SELECT ` + logColumns + ` FROM appeal_logs WHERE appeal_id = $1 ORDER BY created_at ASC, id ASC`
	var logs []models.AppealLog
	if err := r.db.SelectContext(ctx, &logs, query, appealID); err != nil {
		if hasCode(err, invalidTextRepresentation) {
			return nil, nil
		}
		return nil, fmt.Errorf("list appeal logs: %w", err)
	}
	return logs, nil
}

// LatestAnswer returns the most recent answer for an appeal or nil when there is none.
func (r *AppealRepository) LatestAnswer(ctx context.Context, appealID string) (*models.AppealAnswer, error) {
	query := `SELECT ` + answerColumns + ` FROM appeal_answers WHERE appeal_id = $1 ORDER BY created_at DESC LIMIT 1`
	var answer models.AppealAnswer
	if err := r.db.GetContext(ctx, &answer, query, appealID); err != nil {
		if errors.Is(lookupError(err), sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get latest answer: %w", err)
	}
	return &answer, nil
}

// ListPendingRequests returns pending approval requests whose submitter routes to the district.
func (r *AppealRepository) ListPendingRequests(ctx context.Context, districtID int64) ([]models.ApprovalRequest, error) {
	const query = `SELECT ar.id, ar.submitter_id, ar.status, ar.moderator_id, ar.reason, ar.created_at, ar.resolved_at
	FROM appeal_approval_requests ar
	JOIN users u ON u.id = ar.submitter_id
	LEFT JOIN user_business_info b ON b.user_id = u.id
	WHERE ar.status = 'pending'
	  AND CASE WHEN u.type = 'business' THEN b.bank_account_district_id ELSE u.district_id END = $1
	ORDER BY ar.created_at ASC`
	var requests []models.ApprovalRequest
	if err := r.db.SelectContext(ctx, &requests, query, districtID); err != nil {
		return nil, fmt.Errorf("list pending approval requests: %w", err)
	}
	return requests, nil
}

// appealQueries implements AppealStore on either a transaction or the pool.
type appealQueries struct {
	q sqlx.ExtContext
}

func (s *appealQueries) LockSubmitter(ctx context.Context, submitterID string) error {
	if _, err := s.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, "appeal-submitter:"+submitterID); err != nil {
		return fmt.Errorf("lock submitter: %w", err)
	}
	return nil
}

func (s *appealQueries) LockNumberingYear(ctx context.Context, year int) error {
	if _, err := s.q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, fmt.Sprintf("appeal-number:%d", year)); err != nil {
		return fmt.Errorf("lock numbering year: %w", err)
	}
	return nil
}

func (s *appealQueries) CountActiveBySubmitter(ctx context.Context, submitterID string) (int, error) {
	query, args, err := psql.Select("COUNT(*)").
		From("appeals").
		Where(sq.Eq{"submitter_id": submitterID}).
		Where(sq.Eq{"status": statusStrings(models.ActiveAppealStatuses)}).
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("build active appeal count: %w", err)
	}
	var count int
	if err := sqlx.GetContext(ctx, s.q, &count, query, args...); err != nil {
		return 0, fmt.Errorf("count active appeals: %w", err)
	}
	return count, nil
}

// LatestNumberForYear returns the greatest generated number of the year, or "" when none exists.
// Caller-supplied numbers that do not follow the generated pattern are ignored.
func (s *appealQueries) LatestNumberForYear(ctx context.Context, year int) (string, error) {
	const query = `SELECT appeal_number FROM appeals WHERE appeal_number ~ $1 ORDER BY appeal_number DESC LIMIT 1`
	var number string
	if err := sqlx.GetContext(ctx, s.q, &number, query, fmt.Sprintf("^%d-[0-9]{6}$", year)); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("find latest appeal number: %w", err)
	}
	return number, nil
}

func (s *appealQueries) InsertAppeal(ctx context.Context, appeal *models.Appeal) error {
	if appeal.ID == "" {
		appeal.ID = uuid.NewString()
	}
	if appeal.Status == "" {
		appeal.Status = models.AppealStatusNew
	}
	now := time.Now().UTC()
	if appeal.CreatedAt.IsZero() {
		appeal.CreatedAt = now
	}
	if appeal.UpdatedAt.IsZero() {
		appeal.UpdatedAt = appeal.CreatedAt
	}
	const query = `INSERT INTO appeals
	(id, appeal_number, submitter_id, district_id, text, files, status, due_date, closed_by_moderator_id, closed_at, rejection_count, created_at, updated_at)
	VALUES (:id, :appeal_number, :submitter_id, :district_id, :text, :files, :status, :due_date, :closed_by_moderator_id, :closed_at, :rejection_count, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, s.q, query, appeal); err != nil {
		if isUniqueViolation(err, appealNumberConstraint) {
			return ErrAppealNumberTaken
		}
		return writeError("insert appeal", err)
	}
	return nil
}

func (s *appealQueries) GetAppealForUpdate(ctx context.Context, id string) (*models.Appeal, error) {
	query := `SELECT ` + appealColumns + ` FROM appeals WHERE id = $1 FOR UPDATE`
	var appeal models.Appeal
	if err := sqlx.GetContext(ctx, s.q, &appeal, query, id); err != nil {
		return nil, lookupError(err)
	}
	return &appeal, nil
}

func (s *appealQueries) UpdateAppeal(ctx context.Context, appeal *models.Appeal) error {
	const query = `UPDATE appeals SET district_id = :district_id, status = :status, due_date = :due_date,
	closed_by_moderator_id = :closed_by_moderator_id, closed_at = :closed_at, rejection_count = :rejection_count,
	updated_at = :updated_at WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, s.q, query, appeal)
	if err != nil {
		return writeError("update appeal", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check appeal update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkOverdue flips every active appeal due before today and returns the flipped rows.
func (s *appealQueries) MarkOverdue(ctx context.Context, today time.Time, now time.Time) ([]models.Appeal, error) {
	query, args, err := psql.Update("appeals").
		Set("status", string(models.AppealStatusOverdue)).
		Set("updated_at", now).
		Where(sq.Eq{"status": statusStrings(models.ActiveAppealStatuses)}).
		Where(sq.Lt{"due_date": today}).
		Suffix("RETURNING " + appealColumns).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build overdue sweep: %w", err)
	}
	var appeals []models.Appeal
	if err := sqlx.SelectContext(ctx, s.q, &appeals, query, args...); err != nil {
		return nil, fmt.Errorf("mark overdue appeals: %w", err)
	}
	return appeals, nil
}

func (s *appealQueries) InsertAnswer(ctx context.Context, answer *models.AppealAnswer) error {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	if answer.ApprovalStatus == "" {
		answer.ApprovalStatus = models.AnswerPending
	}
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO appeal_answers
	(id, appeal_id, moderator_id, text, files, approval_status, rejection_reason, approved_at, rejected_at, created_at)
	VALUES (:id, :appeal_id, :moderator_id, :text, :files, :approval_status, :rejection_reason, :approved_at, :rejected_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, s.q, query, answer); err != nil {
		return writeError("insert appeal answer", err)
	}
	return nil
}

func (s *appealQueries) GetAnswerForUpdate(ctx context.Context, id string) (*models.AppealAnswer, error) {
	query := `SELECT ` + answerColumns + ` FROM appeal_answers WHERE id = $1 FOR UPDATE`
	var answer models.AppealAnswer
	if err := sqlx.GetContext(ctx, s.q, &answer, query, id); err != nil {
		return nil, lookupError(err)
	}
	return &answer, nil
}

func (s *appealQueries) UpdateAnswer(ctx context.Context, answer *models.AppealAnswer) error {
	const query = `UPDATE appeal_answers SET approval_status = :approval_status, rejection_reason = :rejection_reason,
	approved_at = :approved_at, rejected_at = :rejected_at WHERE id = :id`
	result, err := sqlx.NamedExecContext(ctx, s.q, query, answer)
	if err != nil {
		return writeError("update appeal answer", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check answer update rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *appealQueries) InsertLog(ctx context.Context, log *models.AppealLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO appeal_logs
	(id, appeal_id, action, from_district_id, to_district_id, old_due_date, new_due_date, moderator_id, comment, created_at)
	VALUES (:id, :appeal_id, :action, :from_district_id, :to_district_id, :old_due_date, :new_due_date, :moderator_id, :comment, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, s.q, query, log); err != nil {
		return writeError("insert appeal log", err)
	}
	return nil
}

// FindRequestByStatus returns the oldest request of the submitter in the given status, or nil.
func (s *appealQueries) FindRequestByStatus(ctx context.Context, submitterID string, status models.ApprovalRequestStatus) (*models.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM appeal_approval_requests
	WHERE submitter_id = $1 AND status = $2 ORDER BY created_at ASC LIMIT 1`
	var req models.ApprovalRequest
	if err := sqlx.GetContext(ctx, s.q, &req, query, submitterID, status); err != nil {
		if errors.Is(lookupError(err), sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find approval request: %w", err)
	}
	return &req, nil
}

func (s *appealQueries) InsertApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.Status == "" {
		req.Status = models.ApprovalRequestPending
	}
	if req.CreatedAt.IsZero() {
		req.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO appeal_approval_requests
	(id, submitter_id, status, moderator_id, reason, created_at, resolved_at)
	VALUES (:id, :submitter_id, :status, :moderator_id, :reason, :created_at, :resolved_at)`
	if _, err := sqlx.NamedExecContext(ctx, s.q, query, req); err != nil {
		if isUniqueViolation(err, pendingRequestConstraint) {
			return ErrPendingRequestExists
		}
		return writeError("insert approval request", err)
	}
	return nil
}

func (s *appealQueries) GetApprovalRequestForUpdate(ctx context.Context, id string) (*models.ApprovalRequest, error) {
	query := `SELECT ` + approvalColumns + ` FROM appeal_approval_requests WHERE id = $1 FOR UPDATE`
	var req models.ApprovalRequest
	if err := sqlx.GetContext(ctx, s.q, &req, query, id); err != nil {
		return nil, lookupError(err)
	}
	return &req, nil
}

// ResolveApprovalRequest records a decision. It only touches pending rows and
// returns sql.ErrNoRows when the request was already resolved.
func (s *appealQueries) ResolveApprovalRequest(ctx context.Context, req *models.ApprovalRequest) error {
	query := fmt.Sprintf(`UPDATE appeal_approval_requests SET status = :status, moderator_id = :moderator_id,
	reason = :reason, resolved_at = :resolved_at WHERE id = :id AND status = '%s'`, models.ApprovalRequestPending)
	result, err := sqlx.NamedExecContext(ctx, s.q, query, req)
	if err != nil {
		return writeError("resolve approval request", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check approval request rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *appealQueries) DeleteApprovalRequest(ctx context.Context, id string) error {
	if _, err := s.q.ExecContext(ctx, `DELETE FROM appeal_approval_requests WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete approval request: %w", err)
	}
	return nil
}

func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return string(pqErr.Code) == uniqueViolation && (constraint == "" || pqErr.Constraint == constraint)
}

func hasCode(err error, code string) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == code
}

// lookupError treats an identifier Postgres cannot parse as a missing row.
func lookupError(err error) error {
	if hasCode(err, invalidTextRepresentation) {
		return sql.ErrNoRows
	}
	return err
}

func writeError(op string, err error) error {
	if hasCode(err, foreignKeyViolation) || hasCode(err, invalidTextRepresentation) {
		return fmt.Errorf("%s: %w", op, ErrUnknownReference)
	}
	return fmt.Errorf("%s: %w", op, err)
}

func statusStrings(statuses []models.AppealStatus) []string {
	out := make([]string, len(statuses))
	for i, status := range statuses {
		out[i] = string(status)
	}
	return out
}
