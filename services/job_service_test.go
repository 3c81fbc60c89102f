package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/kendall-kelly/makanika-api/models"
	"github.com/kendall-kelly/makanika-api/tests/testutil"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap/zaptest/observer"
)

type JobServiceTestSuite struct {
	suite.Suite
	fx   fixture
	svc  *JobService
	logs *observer.ObservedLogs
	ctx  context.Context
}

func TestJobServiceSuite(t *testing.T) {
	suite.Run(t, new(JobServiceTestSuite))
}

func (s *JobServiceTestSuite) SetupTest() {
	s.fx = newFixture(s.T())
	log, logs := observedLogger()
	s.logs = logs
	s.svc = NewJobService(s.fx.db, testHasher, log, "256")
	s.ctx = context.Background()
}

func (s *JobServiceTestSuite) validInput() JobInput {
	return JobInput{
		CustomerName:          "Peter Rider",
		CustomerPhone:         "0772123456",
		VehicleName:           "Honda CG125",
		MotorcycleNumberplate: "UBA 123X",
		ProblemDescription:    "Engine misfires when cold",
		EstimatedCost:         50000,
	}
}

func (s *JobServiceTestSuite) seedJob(number string, mutate func(*models.Job)) models.Job {
	job := models.Job{
		JobNumber:             number,
		CustomerName:          "Peter Rider",
		CustomerPhone:         "0772123456",
		VehicleName:           "Honda CG125",
		MotorcycleNumberplate: "UBA 123X",
		ProblemDescription:    "Engine misfires",
		CreatedByID:           s.fx.admin.ID,
	}
	if mutate != nil {
		mutate(&job)
	}
	return testutil.CreateJob(s.T(), s.fx.db, job)
}

func (s *JobServiceTestSuite) countUsers(email string) int64 {
	var count int64
	s.Require().NoError(s.fx.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error)
	return count
}

func (s *JobServiceTestSuite) countJobs() int64 {
	var count int64
	s.Require().NoError(s.fx.db.Model(&models.Job{}).Count(&count).Error)
	return count
}

// ---- creation ----

func (s *JobServiceTestSuite) TestCreateJobDefaults() {
	res, err := s.svc.CreateJob(s.ctx, s.validInput(), s.fx.admin.Identity())
	s.Require().NoError(err)

	s.Regexp(`^JOB-\d{6}$`, res.Job.JobNumber)
	s.Equal(models.StatusCheckedIn, res.Job.Status)
	s.Equal(models.PriorityLow, res.Job.Priority)
	s.Equal(s.fx.admin.ID, res.Job.CreatedByID)
	s.Equal("Admin", res.Job.CreatedByName)
	s.Nil(res.Job.CompletedAt)
	s.Nil(res.CustomerCredentials)
	s.Equal("Job created successfully", res.Message)
}

func (s *JobServiceTestSuite) TestCreateJobWithoutEmailCreatesNoAccount() {
	var before int64
	s.fx.db.Model(&models.User{}).Count(&before)

	in := s.validInput()
	in.CreateCustomerAccount = testutil.Ptr(true)
	res, err := s.svc.CreateJob(s.ctx, in, s.fx.mechanic.Identity())
	s.Require().NoError(err)

	var after int64
	s.fx.db.Model(&models.User{}).Count(&after)
	s.Equal(before, after)
	s.Nil(res.CustomerCredentials)
	s.Nil(res.Job.CustomerUserID)
	s.Equal(int64(1), s.countJobs())
}

func (s *JobServiceTestSuite) TestCreateJobProvisionsCustomerAccount() {
	in := s.validInput()
	in.CustomerEmail = testutil.Ptr(" Peter@Example.com ")

	res, err := s.svc.CreateJob(s.ctx, in, s.fx.mechanic.Identity())
	s.Require().NoError(err)
	s.Require().NotNil(res.CustomerCredentials)

	creds := res.CustomerCredentials
	s.Equal("peter@example.com", creds.Email)
	s.Regexp(`^[A-Za-z0-9]{8}$`, creds.Password)
	s.Equal(res.Job.JobNumber, creds.JobNumber)
	s.Contains(res.Message, "with customer portal access")

	var user models.User
	s.Require().NoError(s.fx.db.Preload("Role").Where("email = ?", "peter@example.com").First(&user).Error)
	s.Equal(models.RoleCustomer, user.RoleName())
	s.Equal("Peter Rider", user.Name)
	s.NotEqual(creds.Password, user.HashedPassword)
	s.True(testHasher.Verify(creds.Password, user.HashedPassword))

	s.Require().NotNil(res.Job.CustomerUserID)
	s.Equal(user.ID, *res.Job.CustomerUserID)
}

func (s *JobServiceTestSuite) TestCreateJobLinksExistingCustomer() {
	in := s.validInput()
	in.CustomerEmail = testutil.Ptr(s.fx.customer.Email)

	res, err := s.svc.CreateJob(s.ctx, in, s.fx.admin.Identity())
	s.Require().NoError(err)

	s.Nil(res.CustomerCredentials)
	s.Require().NotNil(res.Job.CustomerUserID)
	s.Equal(s.fx.customer.ID, *res.Job.CustomerUserID)
	s.Equal(int64(1), s.countUsers(s.fx.customer.Email))
}

func (s *JobServiceTestSuite) TestCreateJobFallsBackWhenEmailBelongsToStaff() {
	in := s.validInput()
	in.CustomerEmail = testutil.Ptr(s.fx.other.Email)

	res, err := s.svc.CreateJob(s.ctx, in, s.fx.admin.Identity())
	s.Require().NoError(err)

	s.Nil(res.CustomerCredentials)
	s.Nil(res.Job.CustomerUserID)
	s.Equal(int64(1), s.countJobs())
	s.Equal(1, s.logs.FilterMessage("customer account provisioning failed, creating job without portal access").Len())
}

func (s *JobServiceTestSuite) TestCreateJobSkipsAccountWhenNotRequested() {
	in := s.validInput()
	in.CustomerEmail = testutil.Ptr("walkin@example.com")
	in.CreateCustomerAccount = testutil.Ptr(false)

	res, err := s.svc.CreateJob(s.ctx, in, s.fx.admin.Identity())
	s.Require().NoError(err)

	s.Nil(res.CustomerCredentials)
	s.Nil(res.Job.CustomerUserID)
	s.Require().NotNil(res.Job.CustomerEmail)
	s.Equal("walkin@example.com", *res.Job.CustomerEmail)
	s.Equal(int64(0), s.countUsers("walkin@example.com"))
}

func (s *JobServiceTestSuite) TestCreateJobMissingCustomerRoleAbortsEverything() {
	s.Require().NoError(s.fx.db.Delete(&models.User{}, s.fx.customer.ID).Error)
	s.Require().NoError(s.fx.db.Where("name = ?", "customer").Delete(&models.Role{}).Error)

	in := s.validInput()
	in.CustomerEmail = testutil.Ptr("new.customer@example.com")

	_, err := s.svc.CreateJob(s.ctx, in, s.fx.admin.Identity())
	s.Require().ErrorIs(err, ErrConfiguration)

	s.Equal(int64(0), s.countJobs())
	s.Equal(int64(0), s.countUsers("new.customer@example.com"))
}

func (s *JobServiceTestSuite) TestCreateJobRejections() {
	_, err := s.svc.CreateJob(s.ctx, s.validInput(), s.fx.customer.Identity())
	s.ErrorIs(err, ErrForbidden)

	_, err = s.svc.CreateJob(s.ctx, JobInput{CustomerName: "Only a name"}, s.fx.admin.Identity())
	s.ErrorIs(err, ErrValidation)

	in := s.validInput()
	in.Priority = 7
	_, err = s.svc.CreateJob(s.ctx, in, s.fx.admin.Identity())
	s.ErrorIs(err, ErrValidation)

	in = s.validInput()
	in.EstimatedCost = -1
	_, err = s.svc.CreateJob(s.ctx, in, s.fx.admin.Identity())
	s.ErrorIs(err, ErrValidation)

	in = s.validInput()
	in.CustomerEmail = testutil.Ptr("not-an-email")
	_, err = s.svc.CreateJob(s.ctx, in, s.fx.admin.Identity())
	s.ErrorIs(err, ErrValidation)

	s.Equal(int64(0), s.countJobs())
}

func (s *JobServiceTestSuite) TestCreateJobRetriesTakenNumbers() {
	s.seedJob("JOB-111111", nil)

	numbers := []string{"JOB-111111", "JOB-111111", "JOB-222222"}
	drawn := 0
	s.svc.jobNumbers = func() (string, error) {
		n := numbers[drawn]
		drawn++
		return n, nil
	}

	res, err := s.svc.CreateJob(s.ctx, s.validInput(), s.fx.admin.Identity())
	s.Require().NoError(err)
	s.Equal("JOB-222222", res.Job.JobNumber)
	s.Equal(3, drawn)
}

func (s *JobServiceTestSuite) TestCreateJobStopsWhenContextCancelled() {
	s.seedJob("JOB-111111", nil)
	s.svc.jobNumbers = func() (string, error) { return "JOB-111111", nil }

	ctx, cancel := context.WithTimeout(s.ctx, 50*time.Millisecond)
	defer cancel()

	_, err := s.svc.CreateJob(ctx, s.validInput(), s.fx.admin.Identity())
	s.Error(err)
	s.Equal(int64(1), s.countJobs())
}

func (s *JobServiceTestSuite) TestConcurrentCreationYieldsUniqueNumbers() {
	const creators = 20

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		numbers = map[string]bool{}
		errs    []error
	)
	for i := 0; i < creators; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.svc.CreateJob(s.ctx, s.validInput(), s.fx.admin.Identity())
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			numbers[res.Job.JobNumber] = true
		}()
	}
	wg.Wait()

	s.Empty(errs)
	s.Len(numbers, creators)
	s.Equal(int64(creators), s.countJobs())
}

// ---- role-scoped reads ----

func (s *JobServiceTestSuite) seedVisibilityJobs() (otherCustomer models.User) {
	otherCustomer = testutil.CreateUser(s.T(), s.fx.db, "Other Customer", "other.customer@example.com", models.RoleCustomer)
	base := time.Now().Add(-time.Hour)

	s.seedJob("JOB-000001", func(j *models.Job) {
		j.CustomerUserID = &s.fx.customer.ID
		j.CreatedAt = base.Add(1 * time.Minute)
	})
	s.seedJob("JOB-000002", func(j *models.Job) {
		j.AssignedMechanicID = &s.fx.mechanic.ID
		j.VehicleName = "Yamaha YBR"
		j.Status = models.StatusRepairing
		j.CreatedAt = base.Add(2 * time.Minute)
	})
	s.seedJob("JOB-000003", func(j *models.Job) {
		j.AssignedMechanicID = &s.fx.other.ID
		j.CustomerUserID = &s.fx.customer.ID
		j.CustomerPhone = "0700999888"
		j.Status = models.StatusReady
		j.CreatedAt = base.Add(3 * time.Minute)
	})
	s.seedJob("JOB-000004", func(j *models.Job) {
		j.MotorcycleNumberplate = "UEK 777Q"
		j.ProblemDescription = "Brake pads worn"
		j.CreatedAt = base.Add(4 * time.Minute)
	})
	s.seedJob("JOB-000005", func(j *models.Job) {
		j.AssignedMechanicID = &s.fx.other.ID
		j.CustomerUserID = &otherCustomer.ID
		j.Status = models.StatusCompleted
		j.CreatedAt = base.Add(5 * time.Minute)
	})
	return otherCustomer
}

func (s *JobServiceTestSuite) TestVisibilityHoldsForEveryFilter() {
	s.seedVisibilityJobs()

	filters := []JobFilters{
		{},
		{Status: models.StatusCheckedIn},
		{Status: models.StatusReady},
		{Search: "honda"},
		{Search: "job-00"},
		{CustomerPhone: "0772"},
		{Numberplate: "uba"},
		{Search: "brake", Numberplate: "uek"},
	}

	for _, f := range filters {
		customerJobs, err := s.svc.ListJobs(s.ctx, f, NewPage(0, 100), s.fx.customer.Identity())
		s.Require().NoError(err)
		for _, j := range customerJobs.Items {
			s.Require().NotNil(j.CustomerUserID, "filter %+v", f)
			s.Equal(s.fx.customer.ID, *j.CustomerUserID, "filter %+v", f)
		}

		mechanicJobs, err := s.svc.ListJobs(s.ctx, f, NewPage(0, 100), s.fx.mechanic.Identity())
		s.Require().NoError(err)
		for _, j := range mechanicJobs.Items {
			if j.AssignedMechanicID != nil {
				s.Equal(s.fx.mechanic.ID, *j.AssignedMechanicID, "filter %+v", f)
			}
		}
	}

	all, err := s.svc.ListJobs(s.ctx, JobFilters{}, NewPage(0, 100), s.fx.admin.Identity())
	s.Require().NoError(err)
	s.Equal(int64(5), all.Total)

	mine, err := s.svc.ListJobs(s.ctx, JobFilters{}, NewPage(0, 100), s.fx.mechanic.Identity())
	s.Require().NoError(err)
	s.Equal(int64(3), mine.Total)

	customers, err := s.svc.ListJobs(s.ctx, JobFilters{}, NewPage(0, 100), s.fx.customer.Identity())
	s.Require().NoError(err)
	s.Equal(int64(2), customers.Total)
}

func (s *JobServiceTestSuite) TestListJobsFiltersOrderingAndPaging() {
	s.seedVisibilityJobs()
	admin := s.fx.admin.Identity()

	page, err := s.svc.ListJobs(s.ctx, JobFilters{}, NewPage(0, 2), admin)
	s.Require().NoError(err)
	s.Equal(int64(5), page.Total)
	s.Equal(3, page.TotalPages)
	s.Equal(1, page.Page)
	s.Equal(2, page.Size)
	s.Require().Len(page.Items, 2)
	s.Equal("JOB-000005", page.Items[0].JobNumber)
	s.Equal("JOB-000004", page.Items[1].JobNumber)

	last, err := s.svc.ListJobs(s.ctx, JobFilters{}, NewPage(4, 2), admin)
	s.Require().NoError(err)
	s.Equal(3, last.Page)
	s.Require().Len(last.Items, 1)
	s.Equal("JOB-000001", last.Items[0].JobNumber)

	yamaha, err := s.svc.ListJobs(s.ctx, JobFilters{Search: "YAMAHA"}, NewPage(0, 10), admin)
	s.Require().NoError(err)
	s.Require().Len(yamaha.Items, 1)
	s.Equal("JOB-000002", yamaha.Items[0].JobNumber)
	s.Require().NotNil(yamaha.Items[0].AssignedMechanicName)
	s.Equal("Mike Mechanic", *yamaha.Items[0].AssignedMechanicName)

	ready, err := s.svc.ListJobs(s.ctx, JobFilters{Status: models.StatusReady}, NewPage(0, 10), admin)
	s.Require().NoError(err)
	s.Equal(int64(1), ready.Total)

	phone, err := s.svc.ListJobs(s.ctx, JobFilters{CustomerPhone: "999"}, NewPage(0, 10), admin)
	s.Require().NoError(err)
	s.Equal(int64(1), phone.Total)

	plate, err := s.svc.ListJobs(s.ctx, JobFilters{Numberplate: "uek"}, NewPage(0, 10), admin)
	s.Require().NoError(err)
	s.Equal(int64(1), plate.Total)

	literal, err := s.svc.ListJobs(s.ctx, JobFilters{Search: "100%"}, NewPage(0, 10), admin)
	s.Require().NoError(err)
	s.Equal(int64(0), literal.Total)

	_, err = s.svc.ListJobs(s.ctx, JobFilters{Status: "FLYING"}, NewPage(0, 10), admin)
	s.ErrorIs(err, ErrValidation)
}

func (s *JobServiceTestSuite) TestGetJobHidesInvisibleJobs() {
	s.seedVisibilityJobs()

	var assignedToOther models.Job
	s.Require().NoError(s.fx.db.Where("job_number = ?", "JOB-000003").First(&assignedToOther).Error)
	var unlinked models.Job
	s.Require().NoError(s.fx.db.Where("job_number = ?", "JOB-000002").First(&unlinked).Error)

	_, err := s.svc.GetJob(s.ctx, assignedToOther.ID, s.fx.mechanic.Identity())
	s.ErrorIs(err, ErrNotFound)

	_, err = s.svc.GetJob(s.ctx, unlinked.ID, s.fx.customer.Identity())
	s.ErrorIs(err, ErrNotFound)

	job, err := s.svc.GetJob(s.ctx, assignedToOther.ID, s.fx.customer.Identity())
	s.Require().NoError(err)
	s.Equal("JOB-000003", job.JobNumber)

	byNumber, err := s.svc.GetJobByNumber(s.ctx, "job-000002", s.fx.mechanic.Identity())
	s.Require().NoError(err)
	s.Equal(unlinked.ID, byNumber.ID)

	_, err = s.svc.GetJobByNumber(s.ctx, "JOB-000003", s.fx.mechanic.Identity())
	s.ErrorIs(err, ErrNotFound)

	_, err = s.svc.GetJob(s.ctx, 9999, s.fx.admin.Identity())
	s.ErrorIs(err, ErrNotFound)
}

// ---- mutations ----

func (s *JobServiceTestSuite) TestAssignMechanic() {
	job := s.seedJob("JOB-300001", nil)
	admin := s.fx.admin.Identity()

	for _, target := range []uint{s.fx.customer.ID, s.fx.admin.ID, 9999} {
		_, err := s.svc.AssignMechanic(s.ctx, job.ID, target, admin)
		s.ErrorIs(err, ErrValidation, "target %d", target)
	}

	_, err := s.svc.AssignMechanic(s.ctx, job.ID, s.fx.mechanic.ID, s.fx.mechanic.Identity())
	s.ErrorIs(err, ErrForbidden)

	_, err = s.svc.AssignMechanic(s.ctx, 9999, s.fx.mechanic.ID, admin)
	s.ErrorIs(err, ErrNotFound)

	updated, err := s.svc.AssignMechanic(s.ctx, job.ID, s.fx.mechanic.ID, admin)
	s.Require().NoError(err)
	s.Require().NotNil(updated.AssignedMechanicID)
	s.Equal(s.fx.mechanic.ID, *updated.AssignedMechanicID)
	s.Require().NotNil(updated.AssignedMechanicName)
	s.Equal("Mike Mechanic", *updated.AssignedMechanicName)
}

func (s *JobServiceTestSuite) TestUpdateJobStatusSideEffects() {
	job := s.seedJob("JOB-400001", nil)
	mechanic := s.fx.mechanic.Identity()

	diagnosing, err := s.svc.UpdateJobStatus(s.ctx, job.ID, JobStatusUpdate{
		Status: models.StatusDiagnosing, Notes: testutil.Ptr("Spark plug fouled"),
	}, mechanic)
	s.Require().NoError(err)
	s.Equal(models.StatusDiagnosing, diagnosing.Status)
	s.Require().NotNil(diagnosing.DiagnosisNotes)
	s.Equal("Spark plug fouled", *diagnosing.DiagnosisNotes)
	s.Nil(diagnosing.RepairNotes)

	repairing, err := s.svc.UpdateJobStatus(s.ctx, job.ID, JobStatusUpdate{
		Status: models.StatusRepairing, Notes: testutil.Ptr("Replacing plug"),
	}, mechanic)
	s.Require().NoError(err)
	s.Equal("Spark plug fouled", *repairing.DiagnosisNotes)
	s.Require().NotNil(repairing.RepairNotes)
	s.Equal("Replacing plug", *repairing.RepairNotes)

	ready, err := s.svc.UpdateJobStatus(s.ctx, job.ID, JobStatusUpdate{
		Status: models.StatusReady, Notes: testutil.Ptr("Call the owner"),
	}, mechanic)
	s.Require().NoError(err)
	s.Equal("Spark plug fouled", *ready.DiagnosisNotes)
	s.Equal("Replacing plug", *ready.RepairNotes)
	s.Nil(ready.CompletedAt)

	firstCompletion := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	s.svc.now = func() time.Time { return firstCompletion }
	completed, err := s.svc.UpdateJobStatus(s.ctx, job.ID, JobStatusUpdate{Status: models.StatusCompleted}, mechanic)
	s.Require().NoError(err)
	s.Require().NotNil(completed.CompletedAt)
	s.WithinDuration(firstCompletion, *completed.CompletedAt, time.Second)

	s.svc.now = func() time.Time { return firstCompletion.Add(48 * time.Hour) }
	again, err := s.svc.UpdateJobStatus(s.ctx, job.ID, JobStatusUpdate{Status: models.StatusCompleted}, mechanic)
	s.Require().NoError(err)
	s.WithinDuration(firstCompletion, *again.CompletedAt, time.Second)

	// no terminal lock
	reopened, err := s.svc.UpdateJobStatus(s.ctx, job.ID, JobStatusUpdate{Status: models.StatusDiagnosing}, mechanic)
	s.Require().NoError(err)
	s.Equal(models.StatusDiagnosing, reopened.Status)
	s.NotNil(reopened.CompletedAt)
	s.Equal("Spark plug fouled", *reopened.DiagnosisNotes)

	history, err := s.svc.ListStatusHistory(s.ctx, job.ID, s.fx.admin.Identity())
	s.Require().NoError(err)
	s.Require().Len(history, 6)
	s.Equal(models.StatusCheckedIn, history[0].FromStatus)
	s.Equal(models.StatusDiagnosing, history[0].ToStatus)
	s.Equal(s.fx.mechanic.ID, history[0].ChangedByID)
	s.Equal(models.StatusCompleted, history[5].FromStatus)
}

func (s *JobServiceTestSuite) TestUpdateJobStatusRejections() {
	job := s.seedJob("JOB-400002", func(j *models.Job) { j.AssignedMechanicID = &s.fx.other.ID })

	_, err := s.svc.UpdateJobStatus(s.ctx, job.ID, JobStatusUpdate{Status: "FLYING"}, s.fx.admin.Identity())
	s.ErrorIs(err, ErrValidation)

	_, err = s.svc.UpdateJobStatus(s.ctx, job.ID, JobStatusUpdate{Status: models.StatusReady}, s.fx.customer.Identity())
	s.ErrorIs(err, ErrForbidden)

	_, err = s.svc.UpdateJobStatus(s.ctx, job.ID, JobStatusUpdate{Status: models.StatusReady}, s.fx.mechanic.Identity())
	s.ErrorIs(err, ErrNotFound)

	_, err = s.svc.UpdateJobStatus(s.ctx, 9999, JobStatusUpdate{Status: models.StatusReady}, s.fx.admin.Identity())
	s.ErrorIs(err, ErrNotFound)
}

func (s *JobServiceTestSuite) TestUpdateJobCost() {
	job := s.seedJob("JOB-500001", func(j *models.Job) { j.RepairNotes = testutil.Ptr("old notes") })
	mechanic := s.fx.mechanic.Identity()

	_, err := s.svc.UpdateJobCost(s.ctx, job.ID, JobCostUpdate{ActualCost: testutil.Ptr(-5.0)}, mechanic)
	s.ErrorIs(err, ErrValidation)

	_, err = s.svc.UpdateJobCost(s.ctx, job.ID, JobCostUpdate{}, mechanic)
	s.ErrorIs(err, ErrValidation)

	_, err = s.svc.UpdateJobCost(s.ctx, job.ID, JobCostUpdate{ActualCost: testutil.Ptr(10.0)}, s.fx.customer.Identity())
	s.ErrorIs(err, ErrForbidden)

	updated, err := s.svc.UpdateJobCost(s.ctx, job.ID, JobCostUpdate{ActualCost: testutil.Ptr(0.0)}, mechanic)
	s.Require().NoError(err)
	s.Equal(0.0, updated.ActualCost)
	s.Equal("old notes", *updated.RepairNotes)

	updated, err = s.svc.UpdateJobCost(s.ctx, job.ID, JobCostUpdate{
		ActualCost: testutil.Ptr(150000.0), RepairNotes: testutil.Ptr("Replaced chain and sprocket"),
	}, mechanic)
	s.Require().NoError(err)
	s.Equal(150000.0, updated.ActualCost)
	s.Equal("Replaced chain and sprocket", *updated.RepairNotes)
}

func (s *JobServiceTestSuite) TestUpdateJob() {
	job := s.seedJob("JOB-600001", nil)
	admin := s.fx.admin.Identity()

	_, err := s.svc.UpdateJob(s.ctx, job.ID, JobUpdate{CustomerName: testutil.Ptr("X")}, s.fx.mechanic.Identity())
	s.ErrorIs(err, ErrForbidden)

	_, err = s.svc.UpdateJob(s.ctx, job.ID, JobUpdate{Priority: testutil.Ptr(9)}, admin)
	s.ErrorIs(err, ErrValidation)

	_, err = s.svc.UpdateJob(s.ctx, job.ID, JobUpdate{AssignedMechanicID: &s.fx.customer.ID}, admin)
	s.ErrorIs(err, ErrValidation)

	completed := models.StatusCompleted
	updated, err := s.svc.UpdateJob(s.ctx, job.ID, JobUpdate{
		CustomerName:       testutil.Ptr("Peter R."),
		Priority:           testutil.Ptr(models.PriorityUrgent),
		AssignedMechanicID: &s.fx.mechanic.ID,
		Status:             &completed,
	}, admin)
	s.Require().NoError(err)
	s.Equal("Peter R.", updated.CustomerName)
	s.Equal(models.PriorityUrgent, updated.Priority)
	s.Equal(models.StatusCompleted, updated.Status)
	s.NotNil(updated.CompletedAt)
	s.Equal(s.fx.mechanic.ID, *updated.AssignedMechanicID)
	s.Equal("Honda CG125", updated.VehicleName)
	s.Equal(job.JobNumber, updated.JobNumber)
}

// ---- stats, search, customer views ----

func (s *JobServiceTestSuite) TestGetJobStats() {
	s.seedVisibilityJobs()

	adminStats, err := s.svc.GetJobStats(s.ctx, s.fx.admin.Identity())
	s.Require().NoError(err)
	s.Equal(models.JobStats{
		TotalJobs: 5, CheckedIn: 2, Repairing: 1, Ready: 1, Completed: 1,
	}, adminStats)

	// unassigned jobs are visible to mechanics but not counted for them
	mechanicStats, err := s.svc.GetJobStats(s.ctx, s.fx.mechanic.Identity())
	s.Require().NoError(err)
	s.Equal(models.JobStats{TotalJobs: 1, Repairing: 1}, mechanicStats)

	customerStats, err := s.svc.GetJobStats(s.ctx, s.fx.customer.Identity())
	s.Require().NoError(err)
	s.Equal(models.JobStats{TotalJobs: 2, CheckedIn: 1, Ready: 1}, customerStats)

	empty, err := s.svc.GetJobStats(s.ctx, models.Identity{UserID: 9999, Role: models.RoleCustomer})
	s.Require().NoError(err)
	s.Equal(models.JobStats{}, empty)
}

func (s *JobServiceTestSuite) TestSearchJobsByPhone() {
	base := time.Now().Add(-time.Hour)
	local := s.seedJob("JOB-700001", func(j *models.Job) {
		j.CustomerPhone = "0772123456"
		j.CreatedAt = base
	})
	national := s.seedJob("JOB-700002", func(j *models.Job) {
		j.CustomerPhone = "256772123456"
		j.CreatedAt = base.Add(time.Minute)
	})
	s.seedJob("JOB-700003", func(j *models.Job) { j.CustomerPhone = "0700000000" })

	for _, query := range []string{"0772 123-456", "+256772123456", "256 772 123 456", "772123456"} {
		jobs, err := s.svc.SearchJobsByPhone(s.ctx, query)
		s.Require().NoError(err, query)
		s.Require().Len(jobs, 2, query)
		s.Equal(national.ID, jobs[0].ID, query)
		s.Equal(local.ID, jobs[1].ID, query)
	}

	none, err := s.svc.SearchJobsByPhone(s.ctx, "0799999999")
	s.Require().NoError(err)
	s.Empty(none)

	_, err = s.svc.SearchJobsByPhone(s.ctx, "   ")
	s.ErrorIs(err, ErrValidation)
}

func (s *JobServiceTestSuite) TestListCustomerJobs() {
	s.seedVisibilityJobs()

	_, err := s.svc.ListCustomerJobs(s.ctx, s.fx.mechanic.Identity())
	s.ErrorIs(err, ErrForbidden)

	jobs, err := s.svc.ListCustomerJobs(s.ctx, s.fx.customer.Identity())
	s.Require().NoError(err)
	s.Require().Len(jobs, 2)
	s.Equal("JOB-000003", jobs[0].JobNumber)
	s.Equal("JOB-000001", jobs[1].JobNumber)
}

func (s *JobServiceTestSuite) TestListStatusHistoryRespectsVisibility() {
	job := s.seedJob("JOB-800001", func(j *models.Job) { j.AssignedMechanicID = &s.fx.other.ID })

	_, err := s.svc.ListStatusHistory(s.ctx, job.ID, s.fx.mechanic.Identity())
	s.ErrorIs(err, ErrNotFound)

	history, err := s.svc.ListStatusHistory(s.ctx, job.ID, s.fx.admin.Identity())
	s.Require().NoError(err)
	s.Empty(history)
}
