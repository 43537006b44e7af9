package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"gitlab.com/lfmsh/bank/internal/repositories"
	"gitlab.com/lfmsh/bank/models"
	"gitlab.com/lfmsh/bank/storage"
)

// Badges lists active badges. With all set a superuser also sees the inactive ones.
func (s *Service) Badges(ctx context.Context, viewer models.User, all bool) ([]models.BadgeData, error) {
	if all && !viewer.Superuser {
		return nil, ErrForbidden
	}
	query := s.store.Badges().GetQuery()
	query.SortBy = "name"
	if !all {
		query.Conditions = append(query.Conditions, repositories.EQ("IsActive", true))
	}
	badges, err := s.store.Badges().FindAll(ctx, query)
	if err != nil {
		return nil, err
	}
	out := make([]models.BadgeData, 0, len(badges))
	for _, b := range badges {
		out = append(out, b.Data())
	}
	return out, nil
}

// Badge returns an active badge.
func (s *Service) Badge(ctx context.Context, id uint) (models.BadgeData, error) {
	b, err := s.activeBadge(ctx, id)
	if err != nil {
		return models.BadgeData{}, err
	}
	return b.Data(), nil
}

func (s *Service) activeBadge(ctx context.Context, id uint) (models.Badge, error) {
	b, err := s.store.Badges().Get(ctx, id)
	if err != nil {
		return models.Badge{}, notFound(err, "badge", id)
	}
	if !b.IsActive {
		return models.Badge{}, fmt.Errorf("%w: badge %d is inactive", ErrNotFound, id)
	}
	return b, nil
}

func (s *Service) badge(ctx context.Context, actor models.User, id uint) (models.Badge, error) {
	if !actor.Superuser {
		return models.Badge{}, ErrForbidden
	}
	b, err := s.store.Badges().Get(ctx, id)
	if err != nil {
		return models.Badge{}, notFound(err, "badge", id)
	}
	return b, nil
}

// CreateBadge adds an active badge. Superusers only.
func (s *Service) CreateBadge(ctx context.Context, actor models.User, in models.BadgeCreate) (models.BadgeData, error) {
	if !actor.Superuser {
		return models.BadgeData{}, ErrForbidden
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.BadgeData{}, invalid("badge name is required")
	}
	if err := s.checkBadgeName(ctx, name); err != nil {
		return models.BadgeData{}, err
	}

	b, err := s.store.Badges().Create(ctx, models.Badge{
		Name:          name,
		Description:   in.Description,
		ImageFilename: in.ImageFilename,
		IsActive:      true,
	})
	if errors.Is(err, repositories.ConflictError) {
		return models.BadgeData{}, invalid("a badge named %q already exists", name)
	}
	if err != nil {
		return models.BadgeData{}, err
	}
	zlog.Info("badge created", zap.Uint("id", b.ID), zap.String("name", b.Name), zap.String("by", actor.Username))
	return b.Data(), nil
}

func (s *Service) checkBadgeName(ctx context.Context, name string) error {
	_, err := s.store.Badges().FindByName(ctx, name)
	if err == nil {
		return invalid("a badge named %q already exists", name)
	}
	if !errors.Is(err, repositories.NotFoundError) {
		return err
	}
	return nil
}

// UpdateBadge changes the given fields of a badge. Superusers only.
func (s *Service) UpdateBadge(ctx context.Context, actor models.User, id uint, in models.BadgeUpdate) (models.BadgeData, error) {
	b, err := s.badge(ctx, actor, id)
	if err != nil {
		return models.BadgeData{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return models.BadgeData{}, invalid("badge name cannot be empty")
		}
		if name != b.Name {
			if err := s.checkBadgeName(ctx, name); err != nil {
				return models.BadgeData{}, err
			}
			b.Name = name
		}
	}
	if in.Description != nil {
		b.Description = *in.Description
	}
	if in.ImageFilename != nil {
		b.ImageFilename = *in.ImageFilename
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}

	b, err = s.store.Badges().Save(ctx, b)
	if errors.Is(err, repositories.ConflictError) {
		return models.BadgeData{}, invalid("a badge named %q already exists", b.Name)
	}
	if err != nil {
		return models.BadgeData{}, err
	}
	return b.Data(), nil
}

// DeleteBadge takes the badge off every user and removes it with its images.
func (s *Service) DeleteBadge(ctx context.Context, actor models.User, id uint) error {
	b, err := s.badge(ctx, actor, id)
	if err != nil {
		return err
	}
	err = s.store.Atomic(ctx, func(store repositories.Store) error {
		if err := store.Badges().Unassign(ctx, b.ID); err != nil {
			return err
		}
		return store.Badges().Delete(ctx, b.ID)
	})
	if err != nil {
		return err
	}
	if b.ImageFilename != "" {
		if err := s.badgeImages.Delete(badgeKey(b.ID)); err != nil {
			zlog.Warn("unable to remove badge images", zap.Uint("id", b.ID), zap.Error(err))
		}
	}
	zlog.Info("badge deleted", zap.Uint("id", b.ID), zap.String("by", actor.Username))
	return nil
}

// AssignBadge hangs an active badge on a user, replacing the one they wore.
func (s *Service) AssignBadge(ctx context.Context, actor models.User, badgeID, userID uint) (models.BadgeResult, error) {
	if !actor.Superuser {
		return models.BadgeResult{}, ErrForbidden
	}
	b, err := s.activeBadge(ctx, badgeID)
	if err != nil {
		return models.BadgeResult{}, err
	}
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return models.BadgeResult{}, notFound(err, "user", userID)
	}
	user.BadgeID = &b.ID
	if _, err := s.store.Users().Save(ctx, user); err != nil {
		return models.BadgeResult{}, err
	}
	return models.BadgeResult{
		Message: fmt.Sprintf("Badge '%s' assigned to %s", b.Name, user.Username),
		BadgeID: b.ID,
		UserID:  user.ID,
	}, nil
}

// UnassignBadge takes the badge off a user.
func (s *Service) UnassignBadge(ctx context.Context, actor models.User, userID uint) (models.BadgeResult, error) {
	if !actor.Superuser {
		return models.BadgeResult{}, ErrForbidden
	}
	user, err := s.store.Users().Get(ctx, userID)
	if err != nil {
		return models.BadgeResult{}, notFound(err, "user", userID)
	}
	if user.BadgeID == nil {
		return models.BadgeResult{}, invalid("user %s has no badge", user.Username)
	}
	user.BadgeID = nil
	if _, err := s.store.Users().Save(ctx, user); err != nil {
		return models.BadgeResult{}, err
	}
	return models.BadgeResult{
		Message: fmt.Sprintf("Badge removed from %s", user.Username),
		UserID:  user.ID,
	}, nil
}

// SetBadgeImage stores a new image for a badge in every size.
func (s *Service) SetBadgeImage(ctx context.Context, actor models.User, id uint, image []byte) (models.BadgeResult, error) {
	b, err := s.badge(ctx, actor, id)
	if err != nil {
		return models.BadgeResult{}, err
	}
	url, err := s.badgeImages.Save(badgeKey(b.ID), bytes.NewReader(image))
	if err != nil {
		if errors.Is(err, storage.ErrUnsupportedImage) || errors.Is(err, storage.ErrImageTooLarge) {
			return models.BadgeResult{}, invalid("%v", err)
		}
		return models.BadgeResult{}, err
	}
	b.ImageFilename = path.Base(url)
	if _, err := s.store.Badges().Save(ctx, b); err != nil {
		return models.BadgeResult{}, err
	}
	return models.BadgeResult{Message: "Badge image uploaded", BadgeID: b.ID, Filename: b.ImageFilename}, nil
}

// DeleteBadgeImage removes the image of a badge.
func (s *Service) DeleteBadgeImage(ctx context.Context, actor models.User, id uint) (models.BadgeResult, error) {
	b, err := s.badge(ctx, actor, id)
	if err != nil {
		return models.BadgeResult{}, err
	}
	if b.ImageFilename == "" {
		return models.BadgeResult{}, invalid("badge %d has no image", b.ID)
	}
	if err := s.badgeImages.Delete(badgeKey(b.ID)); err != nil {
		return models.BadgeResult{}, err
	}
	b.ImageFilename = ""
	if _, err := s.store.Badges().Save(ctx, b); err != nil {
		return models.BadgeResult{}, err
	}
	return models.BadgeResult{Message: "Badge image deleted", BadgeID: b.ID}, nil
}

// userBadge loads the active badge worn by u, if any.
func (s *Service) userBadge(ctx context.Context, u models.User) *models.BadgeData {
	if u.BadgeID == nil {
		return nil
	}
	b, err := s.store.Badges().Get(ctx, *u.BadgeID)
	if err != nil {
		if !errors.Is(err, repositories.NotFoundError) {
			zlog.Warn("unable to load badge", zap.Uint("user", u.ID), zap.Error(err))
		}
		return nil
	}
	if !b.IsActive {
		return nil
	}
	data := b.Data()
	return &data
}

func badgeKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
