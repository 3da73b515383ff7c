package service

import (
	"context"
	"errors"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/mlevchenko/studyhub/internal/logging"
	"github.com/mlevchenko/studyhub/internal/models"
	"github.com/mlevchenko/studyhub/internal/repo"
	"github.com/mlevchenko/studyhub/internal/search"
)

type SubjectService struct {
	Repo *repo.GormRepo
	// ES is optional; when nil, search reports unavailable and indexing
	// is skipped.
	ES    *elasticsearch.Client
	Index string
}

func (s *SubjectService) GetSubject(ctx context.Context, id uint) (*models.Subject, error) {
	subject, err := s.Repo.GetSubject(ctx, id)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return subject, nil
}

func (s *SubjectService) GetSubjects(ctx context.Context, offset, limit int) (int64, []models.Subject, error) {
	return s.Repo.GetSubjects(ctx, offset, limit)
}

func (s *SubjectService) CreateSubject(ctx context.Context, name string, description *string) (*models.Subject, error) {
	if name == "" || len(name) > 100 {
		return nil, ErrValidation
	}

	subject := models.Subject{Name: name, Description: description}
	if err := s.Repo.CreateSubject(ctx, &subject); err != nil {
		if errors.Is(err, repo.ErrDuplicateName) {
			return nil, ErrNameTaken
		}
		return nil, err
	}

	s.indexSubject(ctx, &subject)
	return &subject, nil
}

func (s *SubjectService) PatchSubject(ctx context.Context, id uint, name, description *string) (*models.Subject, error) {
	if name != nil && (*name == "" || len(*name) > 100) {
		return nil, ErrValidation
	}

	subject, err := s.Repo.PatchSubject(ctx, id, name, description)
	if err != nil {
		switch {
		case errors.Is(err, repo.ErrNotFound):
			return nil, ErrNotFound
		case errors.Is(err, repo.ErrDuplicateName):
			return nil, ErrNameTaken
		}
		return nil, err
	}

	s.indexSubject(ctx, subject)
	return subject, nil
}

func (s *SubjectService) DeleteSubject(ctx context.Context, id uint) error {
	if err := s.Repo.DeleteSubject(ctx, id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if s.ES != nil {
		if err := search.DeleteSubject(ctx, s.ES, s.Index, id); err != nil {
			logging.FromContext(ctx).Error("subject_deindex_failed", "subject_id", id, "error", err)
		}
	}
	return nil
}

func (s *SubjectService) SearchSubjects(ctx context.Context, query string, from, size int) (int64, []models.Subject, error) {
	if s.ES == nil {
		return 0, nil, ErrSearchUnavailable
	}
	if query == "" {
		return 0, nil, ErrValidation
	}
	return search.Subjects(ctx, s.ES, s.Index, query, from, size)
}

// indexSubject is best-effort: a subject that fails to index is visible in
// the DB but not in search until re-indexed.
func (s *SubjectService) indexSubject(ctx context.Context, subject *models.Subject) {
	if s.ES == nil {
		return
	}
	if err := search.IndexSubject(ctx, s.ES, s.Index, subject); err != nil {
		logging.FromContext(ctx).Error("subject_index_failed", "subject_id", subject.ID, "error", err)
	}
}
