package ledger

import (
	"github.com/spf13/afero"

	"gitlab.com/lfmsh/bank/models"
)

func (s *LedgerTestSuite) TestBadgeLifecycle() {
	_, err := s.service.CreateBadge(s.ctx, s.staff, models.BadgeCreate{Name: "Знаток"})
	s.ErrorIs(err, ErrForbidden)

	badge, err := s.service.CreateBadge(s.ctx, s.admin, models.BadgeCreate{Name: " Знаток ", Description: "за эрудицию"})
	s.Require().NoError(err)
	s.Equal("Знаток", badge.Name)
	s.True(badge.IsActive)

	_, err = s.service.CreateBadge(s.ctx, s.admin, models.BadgeCreate{Name: "Знаток"})
	s.True(IsValidation(err))

	result, err := s.service.AssignBadge(s.ctx, s.admin, badge.ID, s.pioneer.ID)
	s.Require().NoError(err)
	s.Equal(s.pioneer.ID, result.UserID)
	s.Contains(result.Message, "girik")

	profile, err := s.service.Profile(s.ctx, s.other, "girik")
	s.Require().NoError(err)
	s.Require().NotNil(profile.Badge)
	s.Equal("Знаток", profile.Badge.Name)

	inactive := false
	_, err = s.service.UpdateBadge(s.ctx, s.admin, badge.ID, models.BadgeUpdate{IsActive: &inactive})
	s.Require().NoError(err)

	profile, err = s.service.Profile(s.ctx, s.other, "girik")
	s.Require().NoError(err)
	s.Nil(profile.Badge, "an inactive badge is not shown")

	listed, err := s.service.Badges(s.ctx, s.pioneer, false)
	s.Require().NoError(err)
	s.Empty(listed)
	_, err = s.service.Badges(s.ctx, s.pioneer, true)
	s.ErrorIs(err, ErrForbidden)
	listed, err = s.service.Badges(s.ctx, s.admin, true)
	s.Require().NoError(err)
	s.Len(listed, 1)

	_, err = s.service.Badge(s.ctx, badge.ID)
	s.ErrorIs(err, ErrNotFound)
	_, err = s.service.AssignBadge(s.ctx, s.admin, badge.ID, s.other.ID)
	s.ErrorIs(err, ErrNotFound)
}

func (s *LedgerTestSuite) TestUpdateBadgeKeepsNamesUnique() {
	first, err := s.service.CreateBadge(s.ctx, s.admin, models.BadgeCreate{Name: "Первый"})
	s.Require().NoError(err)
	second, err := s.service.CreateBadge(s.ctx, s.admin, models.BadgeCreate{Name: "Второй"})
	s.Require().NoError(err)

	name := "Первый"
	_, err = s.service.UpdateBadge(s.ctx, s.admin, second.ID, models.BadgeUpdate{Name: &name})
	s.True(IsValidation(err))

	description := "новое описание"
	updated, err := s.service.UpdateBadge(s.ctx, s.admin, first.ID, models.BadgeUpdate{Name: &name, Description: &description})
	s.Require().NoError(err)
	s.Equal("Первый", updated.Name)
	s.Equal("новое описание", updated.Description)
}

func (s *LedgerTestSuite) TestDeleteBadgeUnassignsUsers() {
	badge, err := s.service.CreateBadge(s.ctx, s.admin, models.BadgeCreate{Name: "Дежурный"})
	s.Require().NoError(err)
	_, err = s.service.AssignBadge(s.ctx, s.admin, badge.ID, s.pioneer.ID)
	s.Require().NoError(err)
	_, err = s.service.SetBadgeImage(s.ctx, s.admin, badge.ID, pngBytes())
	s.Require().NoError(err)

	s.Require().NoError(s.service.DeleteBadge(s.ctx, s.admin, badge.ID))
	s.Nil(s.reload(s.pioneer).BadgeID)
	exists, _ := afero.Exists(s.fs, "/media/badges/"+badgeKey(badge.ID)+".png")
	s.False(exists)

	s.ErrorIs(s.service.DeleteBadge(s.ctx, s.admin, badge.ID), ErrNotFound)
	_, err = s.service.CreateBadge(s.ctx, s.admin, models.BadgeCreate{Name: "Дежурный"})
	s.NoError(err)
}

func (s *LedgerTestSuite) TestUnassignBadge() {
	_, err := s.service.UnassignBadge(s.ctx, s.admin, s.pioneer.ID)
	s.True(IsValidation(err), "nothing to take off")

	badge, err := s.service.CreateBadge(s.ctx, s.admin, models.BadgeCreate{Name: "Спортсмен"})
	s.Require().NoError(err)
	_, err = s.service.AssignBadge(s.ctx, s.admin, badge.ID, s.pioneer.ID)
	s.Require().NoError(err)

	_, err = s.service.UnassignBadge(s.ctx, s.staff, s.pioneer.ID)
	s.ErrorIs(err, ErrForbidden)
	result, err := s.service.UnassignBadge(s.ctx, s.admin, s.pioneer.ID)
	s.Require().NoError(err)
	s.Equal(s.pioneer.ID, result.UserID)
	s.Nil(s.reload(s.pioneer).BadgeID)
}

func (s *LedgerTestSuite) TestBadgeImage() {
	badge, err := s.service.CreateBadge(s.ctx, s.admin, models.BadgeCreate{Name: "Художник"})
	s.Require().NoError(err)

	_, err = s.service.DeleteBadgeImage(s.ctx, s.admin, badge.ID)
	s.True(IsValidation(err))
	_, err = s.service.SetBadgeImage(s.ctx, s.admin, badge.ID, []byte("not an image"))
	s.True(IsValidation(err))

	result, err := s.service.SetBadgeImage(s.ctx, s.admin, badge.ID, pngBytes())
	s.Require().NoError(err)
	s.NotEmpty(result.Filename)
	got, err := s.service.Badge(s.ctx, badge.ID)
	s.Require().NoError(err)
	s.Equal(result.Filename, got.ImageFilename)

	_, err = s.service.DeleteBadgeImage(s.ctx, s.admin, badge.ID)
	s.Require().NoError(err)
	got, err = s.service.Badge(s.ctx, badge.ID)
	s.Require().NoError(err)
	s.Empty(got.ImageFilename)
}
