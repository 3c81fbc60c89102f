package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kendall-kelly/makanika-api/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// JobInput is the body for creating a job
type JobInput struct {
	CustomerName          string  `json:"customer_name" binding:"required,max=255"`
	CustomerPhone         string  `json:"customer_phone" binding:"required,max=20"`
	CustomerEmail         *string `json:"customer_email" binding:"omitnil,email"`
	VehicleName           string  `json:"vehicle_name" binding:"required,max=255"`
	MotorcycleNumberplate string  `json:"motorcycle_numberplate" binding:"required,max=50"`
	ProblemDescription    string  `json:"problem_description" binding:"required"`
	EstimatedCost         float64 `json:"estimated_cost" binding:"gte=0"`
	EstimatedCompletion   *string `json:"estimated_completion" binding:"omitnil,max=100"`
	Priority              int     `json:"priority" binding:"omitempty,min=1,max=4"`
	// CreateCustomerAccount defaults to true when omitted
	CreateCustomerAccount *bool `json:"create_customer_account"`
}

// JobUpdate carries the job fields an admin may change
type JobUpdate struct {
	CustomerName          *string           `json:"customer_name" binding:"omitnil,min=1,max=255"`
	CustomerPhone         *string           `json:"customer_phone" binding:"omitnil,min=1,max=20"`
	CustomerEmail         *string           `json:"customer_email" binding:"omitnil,email"`
	VehicleName           *string           `json:"vehicle_name" binding:"omitnil,min=1,max=255"`
	MotorcycleNumberplate *string           `json:"motorcycle_numberplate" binding:"omitnil,min=1,max=50"`
	ProblemDescription    *string           `json:"problem_description" binding:"omitnil,min=1"`
	DiagnosisNotes        *string           `json:"diagnosis_notes"`
	RepairNotes           *string           `json:"repair_notes"`
	EstimatedCost         *float64          `json:"estimated_cost" binding:"omitnil,gte=0"`
	ActualCost            *float64          `json:"actual_cost" binding:"omitnil,gte=0"`
	EstimatedCompletion   *string           `json:"estimated_completion" binding:"omitnil,max=100"`
	Status                *models.JobStatus `json:"status"`
	Priority              *int              `json:"priority" binding:"omitnil,min=1,max=4"`
	AssignedMechanicID    *uint             `json:"assigned_mechanic_id"`
}

// JobStatusUpdate is the body for a status change
type JobStatusUpdate struct {
	Status models.JobStatus `json:"status" binding:"required"`
	Notes  *string          `json:"notes"`
}

// JobCostUpdate is the body for recording the actual cost
type JobCostUpdate struct {
	ActualCost  *float64 `json:"actual_cost" binding:"required,gte=0"`
	RepairNotes *string  `json:"repair_notes"`
}

// JobFilters narrows a job listing. All filters combine with AND.
type JobFilters struct {
	Status        models.JobStatus `form:"status"`
	Search        string           `form:"search"`
	CustomerPhone string           `form:"customer_phone"`
	Numberplate   string           `form:"numberplate"`
}

// JobService runs the job lifecycle: creation, status changes, assignment and role-scoped reads
type JobService struct {
	db          *gorm.DB
	hasher      PasswordHasher
	log         *zap.Logger
	countryCode string
	jobNumbers  func() (string, error)
	now         func() time.Time
}

// NewJobService creates a job service over db.
// countryCode is the national calling code used when matching phone numbers.
func NewJobService(db *gorm.DB, hasher PasswordHasher, log *zap.Logger, countryCode string) *JobService {
	return &JobService{
		db:          db,
		hasher:      hasher,
		log:         log,
		countryCode: countryCode,
		jobNumbers:  newJobNumber,
		now:         time.Now,
	}
}

func jobsWithPeople(db *gorm.DB) *gorm.DB {
	return db.Preload("AssignedMechanic").Preload("CreatedBy")
}

func newestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("jobs.created_at DESC").Order("jobs.id DESC")
}

// visibleTo restricts a job query to what the requester may see:
// admins see everything, mechanics see unassigned jobs and their own,
// customers see the jobs linked to their account.
func visibleTo(requester models.Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		switch requester.Role {
		case models.RoleAdmin:
			return db
		case models.RoleMechanic:
			return db.Where("(jobs.assigned_mechanic_id = ? OR jobs.assigned_mechanic_id IS NULL)", requester.UserID)
		case models.RoleCustomer:
			return db.Where("jobs.customer_user_id = ?", requester.UserID)
		default:
			return db.Where("1 = 0")
		}
	}
}

// countedBy restricts statistics: mechanics count only jobs assigned to them
func countedBy(requester models.Identity) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if requester.Role == models.RoleMechanic {
			return db.Where("jobs.assigned_mechanic_id = ?", requester.UserID)
		}
		return visibleTo(requester)(db)
	}
}

func (f JobFilters) apply(db *gorm.DB) *gorm.DB {
	if f.Status != "" {
		db = db.Where("jobs.status = ?", f.Status)
	}
	if search := strings.TrimSpace(f.Search); search != "" {
		db = anyContains(db, search,
			"jobs.customer_name", "jobs.job_number", "jobs.vehicle_name", "jobs.problem_description")
	}
	if phone := strings.TrimSpace(f.CustomerPhone); phone != "" {
		db = db.Where(ilike("jobs.customer_phone"), containsPattern(phone))
	}
	if plate := strings.TrimSpace(f.Numberplate); plate != "" {
		db = db.Where(ilike("jobs.motorcycle_numberplate"), containsPattern(plate))
	}
	return db
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

// CreateJob opens a new job and, when asked and an email is given, links or mints
// a customer portal account. A missing customer role aborts the whole creation;
// any other account failure leaves the job created without a linked account.
func (s *JobService) CreateJob(ctx context.Context, in JobInput, creator models.Identity) (*models.JobCreateResult, error) {
	if !creator.Can(models.PermCreateJob) {
		return nil, forbidden("Only admin and mechanics can create jobs")
	}

	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.VehicleName = strings.TrimSpace(in.VehicleName)
	in.MotorcycleNumberplate = strings.TrimSpace(in.MotorcycleNumberplate)
	in.ProblemDescription = strings.TrimSpace(in.ProblemDescription)
	in.CustomerEmail = trimmedOrNil(in.CustomerEmail)
	if in.Priority == 0 {
		in.Priority = models.PriorityLow
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.CustomerEmail != nil {
		email := normalizeEmail(*in.CustomerEmail)
		in.CustomerEmail = &email
	}
	wantsAccount := in.CreateCustomerAccount == nil || *in.CreateCustomerAccount

	var (
		job         models.Job
		credentials *models.CustomerCredentials
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var (
			customer *models.User
			password string
		)
		if wantsAccount && in.CustomerEmail != nil {
			var err error
			customer, password, err = s.linkCustomerAccount(tx, in)
			if err != nil {
				return err
			}
		}

		job = models.Job{
			CustomerName:          in.CustomerName,
			CustomerPhone:         in.CustomerPhone,
			CustomerEmail:         in.CustomerEmail,
			VehicleName:           in.VehicleName,
			MotorcycleNumberplate: in.MotorcycleNumberplate,
			ProblemDescription:    in.ProblemDescription,
			EstimatedCost:         in.EstimatedCost,
			EstimatedCompletion:   in.EstimatedCompletion,
			Status:                models.StatusCheckedIn,
			Priority:              in.Priority,
			CreatedByID:           creator.UserID,
		}
		if customer != nil {
			job.CustomerUserID = &customer.ID
		}

		if err := s.insertWithJobNumber(ctx, tx, &job); err != nil {
			return err
		}

		if customer != nil && password != "" {
			credentials = &models.CustomerCredentials{
				Email:     customer.Email,
				Password:  password,
				JobNumber: job.JobNumber,
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("job created",
		zap.String("job_number", job.JobNumber),
		zap.String("customer", job.CustomerName),
		zap.Uint("created_by", creator.UserID),
		zap.Bool("portal_account_created", credentials != nil),
	)

	resp, err := s.loadJob(s.db.WithContext(ctx), job.ID)
	if err != nil {
		return nil, err
	}

	message := "Job created successfully"
	if credentials != nil {
		message += " with customer portal access"
	}
	return &models.JobCreateResult{
		Job:                 resp.ToResponse(),
		CustomerCredentials: credentials,
		Message:             message,
	}, nil
}

// linkCustomerAccount runs provisioning under a savepoint so a failure other than
// a missing customer role can be rolled back without losing the job.
func (s *JobService) linkCustomerAccount(tx *gorm.DB, in JobInput) (*models.User, string, error) {
	const savepoint = "customer_account"
	if err := tx.SavePoint(savepoint).Error; err != nil {
		return nil, "", fmt.Errorf("savepoint: %w", err)
	}

	customer, password, err := s.provisionCustomer(tx, in)
	if err == nil {
		return customer, password, nil
	}
	if errors.Is(err, ErrConfiguration) {
		return nil, "", err
	}

	s.log.Warn("customer account provisioning failed, creating job without portal access",
		zap.String("email", *in.CustomerEmail),
		zap.Error(err),
	)
	if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
		return nil, "", fmt.Errorf("rollback savepoint: %w", rbErr)
	}
	return nil, "", nil
}

// provisionCustomer reuses the customer account registered under the job's email
// or creates one with a random password, returned in plaintext only here.
func (s *JobService) provisionCustomer(tx *gorm.DB, in JobInput) (*models.User, string, error) {
	email := *in.CustomerEmail

	var existing models.User
	err := tx.Preload("Role").Where("email = ?", email).First(&existing).Error
	switch {
	case err == nil:
		if existing.RoleName() != models.RoleCustomer {
			return nil, "", conflict("EMAIL_EXISTS", "Email %s belongs to a %s account", email, existing.Role.Name)
		}
		return &existing, "", nil
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return nil, "", fmt.Errorf("find customer: %w", err)
	}

	role, err := findRoleByName(tx, string(models.RoleCustomer))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", missingCustomerRole()
		}
		return nil, "", fmt.Errorf("find customer role: %w", err)
	}

	password, err := newCustomerPassword()
	if err != nil {
		return nil, "", fmt.Errorf("generate password: %w", err)
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	customer := models.User{
		Name:           in.CustomerName,
		Email:          email,
		HashedPassword: hash,
		RoleID:         role.ID,
	}
	if err := tx.Omit("Role").Create(&customer).Error; err != nil {
		return nil, "", fmt.Errorf("create customer: %w", err)
	}
	customer.Role = *role
	return &customer, password, nil
}

// insertWithJobNumber draws job numbers until one is free in the store and the insert
// succeeds. A concurrent creator taking the same number surfaces as a unique violation,
// which is rolled back to a savepoint and retried with a fresh number.
func (s *JobService) insertWithJobNumber(ctx context.Context, tx *gorm.DB, job *models.Job) error {
	const savepoint = "job_number"
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		number, err := s.jobNumbers()
		if err != nil {
			return fmt.Errorf("generate job number: %w", err)
		}

		var taken int64
		if err := tx.Model(&models.Job{}).Where("job_number = ?", number).Count(&taken).Error; err != nil {
			return fmt.Errorf("check job number: %w", err)
		}
		if taken > 0 {
			continue
		}

		if err := tx.SavePoint(savepoint).Error; err != nil {
			return fmt.Errorf("savepoint: %w", err)
		}
		job.JobNumber = number
		err = tx.Omit(clause.Associations).Create(job).Error
		if err == nil {
			return nil
		}
		if !isUniqueViolation(err) {
			return fmt.Errorf("create job: %w", err)
		}
		if rbErr := tx.RollbackTo(savepoint).Error; rbErr != nil {
			return fmt.Errorf("rollback savepoint: %w", rbErr)
		}
		job.ID = 0
		s.log.Debug("job number collision, retrying", zap.String("job_number", number))
	}
}

func (s *JobService) loadJob(db *gorm.DB, id uint) (*models.Job, error) {
	var job models.Job
	if err := jobsWithPeople(db).First(&job, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jobNotFound()
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

// findVisibleJob loads a job the requester may see. Jobs outside their scope are reported
// as not found so their existence is not disclosed.
func (s *JobService) findVisibleJob(db *gorm.DB, requester models.Identity, where string, arg interface{}) (*models.Job, error) {
	var job models.Job
	err := jobsWithPeople(db).Scopes(visibleTo(requester)).Where(where, arg).First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, jobNotFound()
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return &job, nil
}

func jobNotFound() *Error {
	return notFound("JOB_NOT_FOUND", "Job not found")
}

// ListJobs returns the requester's visible jobs matching filters, newest first.
// Total counts the filtered set before pagination.
func (s *JobService) ListJobs(ctx context.Context, filters JobFilters, page Page, requester models.Identity) (PagedResult[models.JobResponse], error) {
	if !requester.Can(models.PermReadJobs) {
		return PagedResult[models.JobResponse]{}, forbidden("Not allowed to list jobs")
	}
	if filters.Status != "" && !filters.Status.Valid() {
		return PagedResult[models.JobResponse]{}, invalid("INVALID_STATUS", "Unknown job status %q", filters.Status)
	}

	base := func() *gorm.DB {
		return s.db.WithContext(ctx).Model(&models.Job{}).Scopes(visibleTo(requester), filters.apply)
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return PagedResult[models.JobResponse]{}, fmt.Errorf("count jobs: %w", err)
	}

	var jobs []models.Job
	if err := page.apply(base().Scopes(jobsWithPeople, newestFirst)).Find(&jobs).Error; err != nil {
		return PagedResult[models.JobResponse]{}, fmt.Errorf("list jobs: %w", err)
	}
	return newPagedResult(toJobResponses(jobs), total, page), nil
}

func toJobResponses(jobs []models.Job) []models.JobResponse {
	out := make([]models.JobResponse, len(jobs))
	for i, j := range jobs {
		out[i] = j.ToResponse()
	}
	return out
}

// GetJob returns a job by id if the requester may see it
func (s *JobService) GetJob(ctx context.Context, id uint, requester models.Identity) (*models.JobResponse, error) {
	if !requester.Can(models.PermReadJobs) {
		return nil, forbidden("Not allowed to read jobs")
	}
	job, err := s.findVisibleJob(s.db.WithContext(ctx), requester, "jobs.id = ?", id)
	if err != nil {
		return nil, err
	}
	resp := job.ToResponse()
	return &resp, nil
}

// GetJobByNumber returns a job by its job number if the requester may see it
func (s *JobService) GetJobByNumber(ctx context.Context, number string, requester models.Identity) (*models.JobResponse, error) {
	if !requester.Can(models.PermReadJobs) {
		return nil, forbidden("Not allowed to read jobs")
	}
	number = strings.ToUpper(strings.TrimSpace(number))
	job, err := s.findVisibleJob(s.db.WithContext(ctx), requester, "jobs.job_number = ?", number)
	if err != nil {
		return nil, err
	}
	resp := job.ToResponse()
	return &resp, nil
}

// statusEffects adds the column changes implied by moving job to status.
// Notes land in diagnosis_notes or repair_notes depending on the target status;
// completed_at is stamped the first time a job completes and kept afterwards.
func (s *JobService) statusEffects(job *models.Job, status models.JobStatus, notes *string, updates map[string]interface{}) {
	updates["status"] = status
	if notes != nil && strings.TrimSpace(*notes) != "" {
		switch status {
		case models.StatusDiagnosing:
			updates["diagnosis_notes"] = *notes
		case models.StatusRepairing:
			updates["repair_notes"] = *notes
		}
	}
	if status == models.StatusCompleted && job.CompletedAt == nil {
		updates["completed_at"] = s.now()
	}
}

func recordStatusChange(tx *gorm.DB, job *models.Job, to models.JobStatus, notes *string, actor models.Identity) error {
	change := models.JobStatusChange{
		JobID:       job.ID,
		ChangedByID: actor.UserID,
		FromStatus:  job.Status,
		ToStatus:    to,
		Notes:       trimmedOrNil(notes),
	}
	if err := tx.Omit(clause.Associations).Create(&change).Error; err != nil {
		return fmt.Errorf("record status change: %w", err)
	}
	return nil
}

// ensureMechanic fails with a validation error unless userID is an existing mechanic
func ensureMechanic(tx *gorm.DB, userID uint) error {
	var count int64
	err := tx.Model(&models.User{}).
		Joins("JOIN roles ON roles.id = users.role_id").
		Where("users.id = ? AND roles.name = ?", userID, string(models.RoleMechanic)).
		Count(&count).Error
	if err != nil {
		return fmt.Errorf("check mechanic: %w", err)
	}
	if count == 0 {
		return invalid("NOT_A_MECHANIC", "Assigned user is not a mechanic")
	}
	return nil
}

// mutateJob loads a visible job inside a transaction, lets change fill the column
// updates and returns the reloaded job.
func (s *JobService) mutateJob(ctx context.Context, id uint, actor models.Identity,
	change func(tx *gorm.DB, job *models.Job, updates map[string]interface{}) error,
) (*models.JobResponse, error) {
	var job *models.Job
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		job, err = s.findVisibleJob(tx, actor, "jobs.id = ?", id)
		if err != nil {
			return err
		}

		updates := map[string]interface{}{}
		if err := change(tx, job, updates); err != nil {
			return err
		}
		if len(updates) > 0 {
			if err := tx.Model(&models.Job{ID: id}).Updates(updates).Error; err != nil {
				return fmt.Errorf("update job: %w", err)
			}
		}

		job, err = s.loadJob(tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	resp := job.ToResponse()
	return &resp, nil
}

// UpdateJob changes any subset of job fields. Admin only.
func (s *JobService) UpdateJob(ctx context.Context, id uint, in JobUpdate, actor models.Identity) (*models.JobResponse, error) {
	if !actor.Can(models.PermUpdateJob) {
		return nil, forbidden("Only admin can update job details")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Status != nil && !in.Status.Valid() {
		return nil, invalid("INVALID_STATUS", "Unknown job status %q", *in.Status)
	}

	resp, err := s.mutateJob(ctx, id, actor, func(tx *gorm.DB, job *models.Job, updates map[string]interface{}) error {
		setIf := func(column string, v interface{}, ok bool) {
			if ok {
				updates[column] = v
			}
		}
		setIf("customer_name", deref(in.CustomerName), in.CustomerName != nil)
		setIf("customer_phone", deref(in.CustomerPhone), in.CustomerPhone != nil)
		setIf("vehicle_name", deref(in.VehicleName), in.VehicleName != nil)
		setIf("motorcycle_numberplate", deref(in.MotorcycleNumberplate), in.MotorcycleNumberplate != nil)
		setIf("problem_description", deref(in.ProblemDescription), in.ProblemDescription != nil)
		setIf("diagnosis_notes", in.DiagnosisNotes, in.DiagnosisNotes != nil)
		setIf("repair_notes", in.RepairNotes, in.RepairNotes != nil)
		setIf("estimated_completion", in.EstimatedCompletion, in.EstimatedCompletion != nil)
		if in.CustomerEmail != nil {
			email := normalizeEmail(*in.CustomerEmail)
			updates["customer_email"] = &email
		}
		if in.EstimatedCost != nil {
			updates["estimated_cost"] = *in.EstimatedCost
		}
		if in.ActualCost != nil {
			updates["actual_cost"] = *in.ActualCost
		}
		if in.Priority != nil {
			updates["priority"] = *in.Priority
		}
		if in.AssignedMechanicID != nil {
			if err := ensureMechanic(tx, *in.AssignedMechanicID); err != nil {
				return err
			}
			updates["assigned_mechanic_id"] = *in.AssignedMechanicID
		}
		if in.Status != nil {
			s.statusEffects(job, *in.Status, nil, updates)
			if err := recordStatusChange(tx, job, *in.Status, nil, actor); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("job updated", zap.String("job_number", resp.JobNumber), zap.Uint("by", actor.UserID))
	return resp, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// UpdateJobStatus moves a job to any status and applies that status's side effects
func (s *JobService) UpdateJobStatus(ctx context.Context, id uint, in JobStatusUpdate, actor models.Identity) (*models.JobResponse, error) {
	if !actor.Can(models.PermUpdateJobStatus) {
		return nil, forbidden("Only admin and mechanics can update job status")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, invalid("INVALID_STATUS", "Unknown job status %q", in.Status)
	}

	var from models.JobStatus
	resp, err := s.mutateJob(ctx, id, actor, func(tx *gorm.DB, job *models.Job, updates map[string]interface{}) error {
		from = job.Status
		s.statusEffects(job, in.Status, in.Notes, updates)
		return recordStatusChange(tx, job, in.Status, in.Notes, actor)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("job status changed",
		zap.String("job_number", resp.JobNumber),
		zap.String("from", string(from)),
		zap.String("to", string(in.Status)),
		zap.Uint("by", actor.UserID),
	)
	return resp, nil
}

// UpdateJobCost records the actual cost; notes, when given, replace repair_notes
func (s *JobService) UpdateJobCost(ctx context.Context, id uint, in JobCostUpdate, actor models.Identity) (*models.JobResponse, error) {
	if !actor.Can(models.PermUpdateJobCost) {
		return nil, forbidden("Only admin and mechanics can update job cost")
	}
	if err := validateInput(in); err != nil {
		return nil, err
	}

	resp, err := s.mutateJob(ctx, id, actor, func(tx *gorm.DB, job *models.Job, updates map[string]interface{}) error {
		updates["actual_cost"] = *in.ActualCost
		if notes := trimmedOrNil(in.RepairNotes); notes != nil {
			updates["repair_notes"] = *notes
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("job cost updated", zap.String("job_number", resp.JobNumber), zap.Float64("actual_cost", *in.ActualCost))
	return resp, nil
}

// AssignMechanic assigns a job to a user holding the mechanic role. Admin only.
func (s *JobService) AssignMechanic(ctx context.Context, id, mechanicID uint, actor models.Identity) (*models.JobResponse, error) {
	if !actor.Can(models.PermAssignMechanic) {
		return nil, forbidden("Only admin can assign mechanics")
	}

	resp, err := s.mutateJob(ctx, id, actor, func(tx *gorm.DB, job *models.Job, updates map[string]interface{}) error {
		if err := ensureMechanic(tx, mechanicID); err != nil {
			return err
		}
		updates["assigned_mechanic_id"] = mechanicID
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("mechanic assigned", zap.String("job_number", resp.JobNumber), zap.Uint("mechanic_id", mechanicID))
	return resp, nil
}

// GetJobStats counts the requester's jobs per status, zero-filling missing statuses.
// Mechanics count only the jobs assigned to them.
func (s *JobService) GetJobStats(ctx context.Context, requester models.Identity) (models.JobStats, error) {
	var stats models.JobStats
	if !requester.Can(models.PermReadJobs) {
		return stats, forbidden("Not allowed to read job statistics")
	}

	var rows []struct {
		Status models.JobStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Job{}).
		Scopes(countedBy(requester)).
		Select("jobs.status AS status, COUNT(*) AS count").
		Group("jobs.status").
		Scan(&rows).Error
	if err != nil {
		return stats, fmt.Errorf("job stats: %w", err)
	}

	for _, r := range rows {
		stats.Add(r.Status, r.Count)
	}
	return stats, nil
}

// SearchJobsByPhone finds jobs whose phone matches any spelling of phone.
// It is the public tracking lookup and applies no role scope.
func (s *JobService) SearchJobsByPhone(ctx context.Context, phone string) ([]models.JobResponse, error) {
	variants := PhoneVariants(phone, s.countryCode)
	if len(variants) == 0 {
		return nil, invalid("VALIDATION_ERROR", "Phone number is required")
	}

	cond := s.db.Session(&gorm.Session{NewDB: true})
	for i, v := range variants {
		if i == 0 {
			cond = cond.Where("jobs.customer_phone LIKE ? ESCAPE '\\'", containsPattern(v))
		} else {
			cond = cond.Or("jobs.customer_phone LIKE ? ESCAPE '\\'", containsPattern(v))
		}
	}

	var jobs []models.Job
	err := s.db.WithContext(ctx).
		Scopes(jobsWithPeople, newestFirst).
		Where(cond).
		Limit(DefaultLimit).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("search jobs by phone: %w", err)
	}
	return toJobResponses(jobs), nil
}

// ListStatusHistory returns a visible job's status changes, oldest first
func (s *JobService) ListStatusHistory(ctx context.Context, jobID uint, requester models.Identity) ([]models.JobStatusChange, error) {
	if !requester.Can(models.PermReadJobs) {
		return nil, forbidden("Not allowed to read jobs")
	}
	db := s.db.WithContext(ctx)
	if _, err := s.findVisibleJob(db, requester, "jobs.id = ?", jobID); err != nil {
		return nil, err
	}

	history := []models.JobStatusChange{}
	err := db.Where("job_id = ?", jobID).Order("created_at").Order("id").Find(&history).Error
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	return history, nil
}

// ListCustomerJobs returns every job linked to the calling customer, newest first
func (s *JobService) ListCustomerJobs(ctx context.Context, requester models.Identity) ([]models.JobResponse, error) {
	if requester.Role != models.RoleCustomer {
		return nil, forbidden("This endpoint is for customers only")
	}

	var jobs []models.Job
	err := s.db.WithContext(ctx).
		Scopes(visibleTo(requester), jobsWithPeople, newestFirst).
		Find(&jobs).Error
	if err != nil {
		return nil, fmt.Errorf("list customer jobs: %w", err)
	}
	return toJobResponses(jobs), nil
}
