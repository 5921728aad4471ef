package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campuscore/uni-admin-api/internal/models"
	appErrors "github.com/campuscore/uni-admin-api/pkg/errors"
	"github.com/campuscore/uni-admin-api/pkg/export"
	"github.com/campuscore/uni-admin-api/pkg/jobs"
	"github.com/campuscore/uni-admin-api/pkg/storage"
)

type transcriptRepo interface {
	CreateJob(ctx context.Context, job *models.TranscriptJob) error
	FindJob(ctx context.Context, id string) (*models.TranscriptJob, error)
	MarkReady(ctx context.Context, id, filePath string) error
	MarkFailed(ctx context.Context, id, reason string) error
	ListJobsByStudent(ctx context.Context, studentID string, limit int) ([]models.TranscriptJob, error)
}

type transcriptGradeReader interface {
	TranscriptRows(ctx context.Context, studentID string) ([]models.TranscriptRow, error)
}

type transcriptStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
}

type transcriptEnqueuer interface {
	Enqueue(job jobs.Job) error
}

// SignedDownload is the output of a granted transcript download.
type SignedDownload struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TranscriptService assembles student transcripts and renders them to
// PDF asynchronously through the background queue.
type TranscriptService struct {
	transcripts transcriptRepo
	grades      transcriptGradeReader
	students    transcriptStudentReader
	queue       transcriptEnqueuer
	pdf         *export.PDFExporter
	files       *storage.LocalStorage
	signer      *storage.SignedURLSigner
	logger      *zap.Logger
}

// NewTranscriptService constructs TranscriptService.
func NewTranscriptService(transcripts transcriptRepo, grades transcriptGradeReader, students transcriptStudentReader, files *storage.LocalStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *TranscriptService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranscriptService{
		transcripts: transcripts,
		grades:      grades,
		students:    students,
		pdf:         export.NewPDFExporter(),
		files:       files,
		signer:      signer,
		logger:      logger,
	}
}

// SetQueue wires the render queue. main constructs the queue with
// HandleRenderJob, which needs the service, so the wiring happens in
// two steps.
func (s *TranscriptService) SetQueue(queue transcriptEnqueuer) {
	s.queue = queue
}

// Assemble builds the in-memory transcript for a student: all graded
// courses plus the credit-weighted GPA.
func (s *TranscriptService) Assemble(ctx context.Context, studentID string) (*models.Transcript, error) {
	student, err := s.students.FindByID(ctx, studentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	rows, err := s.grades.TranscriptRows(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript rows")
	}

	transcript := &models.Transcript{
		StudentID:   student.ID,
		StudentName: student.FullName,
		RegNumber:   student.RegNumber,
		ProgramName: student.ProgramName,
		Rows:        rows,
		GPA:         weightedGPA(rows),
		GeneratedAt: time.Now().UTC(),
	}
	return transcript, nil
}

// RequestRender queues a PDF render of the student's transcript and
// returns the pending job immediately.
func (s *TranscriptService) RequestRender(ctx context.Context, actorID, studentID string) (*models.TranscriptJob, error) {
	if _, err := s.students.FindByID(ctx, studentID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	job := &models.TranscriptJob{
		StudentID:   studentID,
		RequestedBy: actorID,
	}
	if err := s.transcripts.CreateJob(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create transcript job")
	}

	if s.queue == nil {
		// No workers: render inline so the job still completes.
		s.render(ctx, job.ID, studentID)
		return s.transcripts.FindJob(ctx, job.ID)
	}

	if err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "transcript.render",
		Payload: map[string]string{"job_id": job.ID, "student_id": studentID},
	}); err != nil {
		reason := "render queue unavailable"
		if markErr := s.transcripts.MarkFailed(ctx, job.ID, reason); markErr != nil {
			s.logger.Error("failed to mark transcript job failed", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue transcript render")
	}
	return job, nil
}

// HandleRenderJob is the queue handler for transcript renders.
func (s *TranscriptService) HandleRenderJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(map[string]string)
	if !ok {
		return fmt.Errorf("transcript render: unexpected payload %T", job.Payload)
	}
	s.render(ctx, payload["job_id"], payload["student_id"])
	return nil
}

func (s *TranscriptService) render(ctx context.Context, jobID, studentID string) {
	transcript, err := s.Assemble(ctx, studentID)
	if err != nil {
		s.fail(ctx, jobID, err)
		return
	}

	dataset := export.Dataset{
		Headers: []string{"Course", "Title", "Semester", "Credits", "Score", "Grade"},
	}
	for _, row := range transcript.Rows {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Course":   row.CourseCode,
			"Title":    row.CourseTitle,
			"Semester": row.SemesterName,
			"Credits":  fmt.Sprintf("%d", row.Credits),
			"Score":    row.TotalScore,
			"Grade":    row.LetterGrade,
		})
	}

	title := fmt.Sprintf("Academic Transcript - %s (%s)", transcript.StudentName, transcript.RegNumber)
	footer := []string{
		fmt.Sprintf("Program: %s", transcript.ProgramName),
		fmt.Sprintf("Cumulative GPA: %s", transcript.GPA),
		fmt.Sprintf("Generated: %s", transcript.GeneratedAt.Format(time.RFC1123)),
	}
	payload, err := s.pdf.RenderWithFooter(dataset, title, footer)
	if err != nil {
		s.fail(ctx, jobID, err)
		return
	}

	relPath := fmt.Sprintf("%s/%s.pdf", studentID, jobID)
	if _, err := s.files.Save(relPath, payload); err != nil {
		s.fail(ctx, jobID, err)
		return
	}

	if err := s.transcripts.MarkReady(ctx, jobID, relPath); err != nil {
		s.logger.Error("failed to mark transcript ready", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	s.logger.Info("transcript rendered", zap.String("job_id", jobID), zap.String("student_id", studentID))
}

func (s *TranscriptService) fail(ctx context.Context, jobID string, cause error) {
	s.logger.Error("transcript render failed", zap.String("job_id", jobID), zap.Error(cause))
	if err := s.transcripts.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		s.logger.Error("failed to mark transcript job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

// GetJob returns one render job.
func (s *TranscriptService) GetJob(ctx context.Context, id string) (*models.TranscriptJob, error) {
	job, err := s.transcripts.FindJob(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "transcript job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load transcript job")
	}
	return job, nil
}

// ListJobs returns recent render jobs for one student.
func (s *TranscriptService) ListJobs(ctx context.Context, studentID string, limit int) ([]models.TranscriptJob, error) {
	jobsList, err := s.transcripts.ListJobsByStudent(ctx, studentID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list transcript jobs")
	}
	return jobsList, nil
}

// GrantDownload issues a signed token for a READY transcript file.
func (s *TranscriptService) GrantDownload(ctx context.Context, jobID string) (*SignedDownload, error) {
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != models.TranscriptReady || job.FilePath == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "transcript is not ready for download")
	}
	token, expiresAt, err := s.signer.Generate(job.ID, *job.FilePath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}
	return &SignedDownload{Token: token, ExpiresAt: expiresAt}, nil
}

// OpenDownload validates a signed token and opens the rendered file.
func (s *TranscriptService) OpenDownload(ctx context.Context, token string) (*os.File, error) {
	jobID, relPath, _, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	job, err := s.GetJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.FilePath == nil || *job.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "download token does not match transcript")
	}
	file, err := s.files.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open transcript file")
	}
	return file, nil
}

// weightedGPA computes the credit-weighted grade point average and
// formats it to two decimals. Zero graded credits yields "0.00".
func weightedGPA(rows []models.TranscriptRow) string {
	var points float64
	var credits int
	for _, row := range rows {
		points += row.GradePoint * float64(row.Credits)
		credits += row.Credits
	}
	if credits == 0 {
		return "0.00"
	}
	return fmt.Sprintf("%.2f", points/float64(credits))
}
