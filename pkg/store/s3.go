package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/prodsched/prodsched/pkg/apperr"
	"github.com/prodsched/prodsched/pkg/domain"
)

// S3Config configures S3Store's bucket layout and client behavior: the
// same key-prefix, retry-attempt and storage-class knobs as other S3
// result stores, retargeted at a weekly programación's object layout.
type S3Config struct {
	BucketName    string
	KeyPrefix     string // e.g. "prodsched/"
	RetryAttempts int
	StorageClass  string
}

// S3Store persists programaciones, planned tasks, executions and metrics
// as JSON objects in S3, one object per entity, under a structured key
// layout nested under each programacion id. It is the durable,
// multi-node counterpart to MemoryStore.
type S3Store struct {
	client *s3.Client
	config S3Config
}

// NewS3Store loads AWS configuration and validates bucket access.
func NewS3Store(ctx context.Context, cfg S3Config, region string) (*S3Store, error) {
	if cfg.RetryAttempts == 0 {
		cfg.RetryAttempts = 3
	}
	if cfg.StorageClass == "" {
		cfg.StorageClass = "STANDARD"
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithRetryMaxAttempts(cfg.RetryAttempts),
	)
	if err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, err, "failed to load AWS configuration")
	}
	client := s3.NewFromConfig(awsCfg)
	if _, err := client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.BucketName)}); err != nil {
		return nil, apperr.Wrap(apperr.IntegrityError, err, "bucket %q is not accessible", cfg.BucketName)
	}
	return &S3Store{client: client, config: cfg}, nil
}

func (s *S3Store) progKey(id string) string {
	return fmt.Sprintf("%sprogramaciones/%s/programacion.json", s.config.KeyPrefix, id)
}

func (s *S3Store) progPrefix(id string) string {
	return fmt.Sprintf("%sprogramaciones/%s/", s.config.KeyPrefix, id)
}

func (s *S3Store) plannedTaskKey(progID, taskID string) string {
	return fmt.Sprintf("%splanned-tasks/%s.json", s.progPrefix(progID), taskID)
}

func (s *S3Store) executionKey(progID, execID string) string {
	return fmt.Sprintf("%sexecutions/%s.json", s.progPrefix(progID), execID)
}

func (s *S3Store) metricKey(progID string) string {
	return fmt.Sprintf("%smetric.json", s.progPrefix(progID))
}

func (s *S3Store) putJSON(ctx context.Context, key string, v interface{}) error {
	body, err := json.Marshal(v)
	if err != nil {
		return apperr.Wrap(apperr.IntegrityError, err, "failed to serialize %s", key)
	}
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.config.BucketName),
		Key:          aws.String(key),
		Body:         strings.NewReader(string(body)),
		ContentType:  aws.String("application/json"),
		StorageClass: types.StorageClass(s.config.StorageClass),
	})
	if err != nil {
		return apperr.Wrap(apperr.IntegrityError, err, "failed to upload %s", key)
	}
	return nil
}

func (s *S3Store) getJSON(ctx context.Context, key string, notFoundMsg string, v interface{}) error {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(key),
	})
	if err != nil {
		return apperr.Wrap(apperr.NotFound, err, "%s", notFoundMsg)
	}
	defer out.Body.Close()
	return json.NewDecoder(out.Body).Decode(v)
}

func (s *S3Store) CreateProgramacion(ctx context.Context, p *domain.Programacion) error {
	key := s.progKey(p.ID)
	if _, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{Bucket: aws.String(s.config.BucketName), Key: aws.String(key)}); err == nil {
		return apperr.New(apperr.Conflict, "programacion %q already exists", p.ID)
	}
	return s.putJSON(ctx, key, p)
}

func (s *S3Store) GetProgramacion(ctx context.Context, id string) (*domain.Programacion, error) {
	var p domain.Programacion
	if err := s.getJSON(ctx, s.progKey(id), fmt.Sprintf("programacion %q not found", id), &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *S3Store) UpdateProgramacion(ctx context.Context, p *domain.Programacion) error {
	if _, err := s.GetProgramacion(ctx, p.ID); err != nil {
		return err
	}
	return s.putJSON(ctx, s.progKey(p.ID), p)
}

func (s *S3Store) ListProgramaciones(ctx context.Context, filter ProgramacionFilter) ([]*domain.Programacion, error) {
	prefix := fmt.Sprintf("%sprogramaciones/", s.config.KeyPrefix)
	var out []*domain.Programacion
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.BucketName),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, err, "failed to list programaciones")
		}
		for _, obj := range page.Contents {
			if !strings.HasSuffix(*obj.Key, "/programacion.json") {
				continue
			}
			var p domain.Programacion
			if err := s.getJSON(ctx, *obj.Key, "programacion", &p); err != nil {
				return nil, err
			}
			if filter.Anio != nil && p.Anio != *filter.Anio {
				continue
			}
			if filter.Semana != nil && p.Semana != *filter.Semana {
				continue
			}
			if filter.Estado != nil && p.Estado != *filter.Estado {
				continue
			}
			cp := p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *S3Store) DeleteProgramacion(ctx context.Context, id string) error {
	if _, err := s.GetProgramacion(ctx, id); err != nil {
		return err
	}
	prefix := s.progPrefix(id)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.BucketName),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return apperr.Wrap(apperr.IntegrityError, err, "failed to list objects for cascade delete of %q", id)
		}
		for _, obj := range page.Contents {
			if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
				Bucket: aws.String(s.config.BucketName),
				Key:    obj.Key,
			}); err != nil {
				return apperr.Wrap(apperr.IntegrityError, err, "failed to delete %s during cascade", *obj.Key)
			}
		}
	}
	return nil
}

func (s *S3Store) NextSequence(ctx context.Context, anio, semana int) (int, error) {
	key := fmt.Sprintf("%ssequences/%s.json", s.config.KeyPrefix, sequenceKey(anio, semana))
	var state struct{ Last int }
	if err := s.getJSON(ctx, key, "sequence", &state); err != nil && !apperr.Is(err, apperr.NotFound) {
		return 0, err
	}
	state.Last++
	if err := s.putJSON(ctx, key, state); err != nil {
		return 0, err
	}
	return state.Last, nil
}

func (s *S3Store) SavePlannedTasks(ctx context.Context, progID string, tasks []*domain.PlannedTask) error {
	if _, err := s.GetProgramacion(ctx, progID); err != nil {
		return err
	}
	for _, t := range tasks {
		if err := s.putJSON(ctx, s.plannedTaskKey(progID, t.ID), t); err != nil {
			return err
		}
	}
	return nil
}

func (s *S3Store) ListPlannedTasks(ctx context.Context, progID string) ([]*domain.PlannedTask, error) {
	prefix := fmt.Sprintf("%splanned-tasks/", s.progPrefix(progID))
	var out []*domain.PlannedTask
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.BucketName),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, err, "failed to list planned tasks for %q", progID)
		}
		for _, obj := range page.Contents {
			var t domain.PlannedTask
			if err := s.getJSON(ctx, *obj.Key, "planned task", &t); err != nil {
				return nil, err
			}
			cp := t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *S3Store) GetPlannedTask(ctx context.Context, id string) (*domain.PlannedTask, error) {
	// Planned task ids are globally unique; fall back to a bucket-wide scan
	// keyed on the filename, since the S3 layout nests by programación.
	prefix := fmt.Sprintf("%sprogramaciones/", s.config.KeyPrefix)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.BucketName),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, err, "failed to locate planned task %q", id)
		}
		for _, obj := range page.Contents {
			if !strings.HasSuffix(*obj.Key, "/planned-tasks/"+id+".json") {
				continue
			}
			var t domain.PlannedTask
			if err := s.getJSON(ctx, *obj.Key, "planned task", &t); err != nil {
				return nil, err
			}
			return &t, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "planned task %q not found", id)
}

func (s *S3Store) SaveExecution(ctx context.Context, e *domain.RealExecution) error {
	t, err := s.GetPlannedTask(ctx, e.PlannedTaskID)
	if err != nil {
		return err
	}
	if e.ID == "" {
		e.ID = fmt.Sprintf("EXEC-%s", e.PlannedTaskID)
	}
	return s.putJSON(ctx, s.executionKey(t.ProgramacionID, e.ID), e)
}

func (s *S3Store) GetExecution(ctx context.Context, id string) (*domain.RealExecution, error) {
	prefix := fmt.Sprintf("%sprogramaciones/", s.config.KeyPrefix)
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.BucketName),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, err, "failed to locate execution %q", id)
		}
		for _, obj := range page.Contents {
			if !strings.HasSuffix(*obj.Key, "/executions/"+id+".json") {
				continue
			}
			var e domain.RealExecution
			if err := s.getJSON(ctx, *obj.Key, "execution", &e); err != nil {
				return nil, err
			}
			return &e, nil
		}
	}
	return nil, apperr.New(apperr.NotFound, "execution %q not found", id)
}

func (s *S3Store) GetExecutionByPlannedTask(ctx context.Context, plannedTaskID string) (*domain.RealExecution, error) {
	return s.GetExecution(ctx, fmt.Sprintf("EXEC-%s", plannedTaskID))
}

func (s *S3Store) ListExecutions(ctx context.Context, progID string) ([]*domain.RealExecution, error) {
	prefix := fmt.Sprintf("%sexecutions/", s.progPrefix(progID))
	var out []*domain.RealExecution
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.BucketName),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, apperr.Wrap(apperr.IntegrityError, err, "failed to list executions for %q", progID)
		}
		for _, obj := range page.Contents {
			var e domain.RealExecution
			if err := s.getJSON(ctx, *obj.Key, "execution", &e); err != nil {
				return nil, err
			}
			cp := e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *S3Store) DeleteExecution(ctx context.Context, id string) error {
	e, err := s.GetExecution(ctx, id)
	if err != nil {
		return err
	}
	t, err := s.GetPlannedTask(ctx, e.PlannedTaskID)
	if err != nil {
		return err
	}
	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.config.BucketName),
		Key:    aws.String(s.executionKey(t.ProgramacionID, id)),
	})
	if err != nil {
		return apperr.Wrap(apperr.IntegrityError, err, "failed to delete execution %q", id)
	}
	return nil
}

func (s *S3Store) SaveMetric(ctx context.Context, m *domain.Metric) error {
	if _, err := s.GetProgramacion(ctx, m.ProgramacionID); err != nil {
		return err
	}
	return s.putJSON(ctx, s.metricKey(m.ProgramacionID), m)
}

func (s *S3Store) GetMetric(ctx context.Context, progID string) (*domain.Metric, error) {
	var m domain.Metric
	if err := s.getJSON(ctx, s.metricKey(progID), fmt.Sprintf("no metric computed for programacion %q", progID), &m); err != nil {
		return nil, err
	}
	return &m, nil
}
