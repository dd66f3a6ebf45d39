package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/iliyamo/lms-backend/internal/apperr"
	"github.com/iliyamo/lms-backend/internal/logging"
	"github.com/iliyamo/lms-backend/internal/model"
)

// LayoutService manages the CMS blocks of the landing page: one Banner,
// one FAQ and one Categories layout.
type LayoutService struct {
	Layouts   LayoutStore
	Responses Purger // optional
}

// Create stores the first layout of its type.
func (s *LayoutService) Create(ctx context.Context, in model.Layout) (model.Layout, error) {
	l, err := normalizeLayout(in)
	if err != nil {
		return model.Layout{}, err
	}
	_, err = s.Layouts.GetByType(ctx, l.Type)
	switch {
	case err == nil:
		return model.Layout{}, fmt.Errorf("layout %s: %w", l.Type, apperr.ErrAlreadyExists)
	case !errors.Is(err, apperr.ErrNotFound):
		return model.Layout{}, err
	}
	l.ID = uuid.NewString()
	if err := s.Layouts.Create(ctx, &l); err != nil {
		return model.Layout{}, err
	}
	s.purge(ctx)
	return l, nil
}

// Edit replaces the content of an existing layout.
func (s *LayoutService) Edit(ctx context.Context, in model.Layout) (model.Layout, error) {
	l, err := normalizeLayout(in)
	if err != nil {
		return model.Layout{}, err
	}
	current, err := s.Layouts.GetByType(ctx, l.Type)
	if err != nil {
		return model.Layout{}, err
	}
	l.ID = current.ID
	if err := s.Layouts.Update(ctx, &l); err != nil {
		return model.Layout{}, err
	}
	s.purge(ctx)
	return l, nil
}

// Get returns the layout of the given type.
func (s *LayoutService) Get(ctx context.Context, typ string) (model.Layout, error) {
	if !model.ValidLayoutType(typ) {
		return model.Layout{}, fmt.Errorf("layout %q: %w", typ, apperr.ErrNotFound)
	}
	return s.Layouts.GetByType(ctx, typ)
}

// normalizeLayout keeps only the content belonging to the layout's type.
func normalizeLayout(in model.Layout) (model.Layout, error) {
	out := model.Layout{Type: in.Type}
	switch in.Type {
	case model.LayoutBanner:
		if in.Banner == nil {
			return model.Layout{}, fmt.Errorf("%w: banner is required", apperr.ErrValidation)
		}
		b := *in.Banner
		out.Banner = &b
	case model.LayoutFAQ:
		out.FAQ = append([]model.FAQItem{}, in.FAQ...)
	case model.LayoutCategories:
		out.Categories = append([]model.Titled{}, in.Categories...)
	default:
		return model.Layout{}, fmt.Errorf("%w: unknown layout type %q", apperr.ErrValidation, in.Type)
	}
	return out, nil
}

func (s *LayoutService) purge(ctx context.Context) {
	if s.Responses == nil {
		return
	}
	if err := s.Responses.Purge(ctx); err != nil {
		logging.FromContext(ctx).Warn("response cache purge failed", "error", err)
	}
}
