package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/solea-tours/experience-api/internal/models"
	appErrors "github.com/solea-tours/experience-api/pkg/errors"
)

type overrideRepoStub struct {
	saved   []*models.DateOverride
	deleted []string
}

func (s *overrideRepoStub) Find(context.Context, int64, time.Time) (*models.DateOverride, error) {
	return nil, nil
}

func (s *overrideRepoStub) ListByProduct(context.Context, int64) ([]models.DateOverride, error) {
	return nil, nil
}

func (s *overrideRepoStub) Upsert(_ context.Context, override *models.DateOverride) error {
	override.ID = "o1"
	s.saved = append(s.saved, override)
	return nil
}

func (s *overrideRepoStub) Delete(_ context.Context, productID int64, date time.Time) error {
	s.deleted = append(s.deleted, overrideKey(productID, date))
	return nil
}

func (s *overrideRepoStub) DeleteByProduct(context.Context, int64) error {
	return nil
}

type settingsRepoStub struct {
	settings map[int64]*models.ExperienceSettings
}

func (s *settingsRepoStub) FindSettings(_ context.Context, productID int64) (*models.ExperienceSettings, error) {
	return s.settings[productID], nil
}

func (s *settingsRepoStub) UpsertSettings(_ context.Context, settings *models.ExperienceSettings) error {
	s.settings[settings.ProductID] = settings
	return nil
}

func (s *settingsRepoStub) DeleteSettings(_ context.Context, productID int64) error {
	delete(s.settings, productID)
	return nil
}

func newOverrideServiceFixture(t *testing.T) (*OverrideService, *overrideRepoStub, *settingsRepoStub, *cacheRepoStub) {
	t.Helper()
	overrides := &overrideRepoStub{}
	settings := &settingsRepoStub{settings: make(map[int64]*models.ExperienceSettings)}
	cache := newCacheRepoStub()
	cacheSvc := NewCacheService(cache, nil, time.Minute, zap.NewNop(), true)
	svc := NewOverrideService(overrides, settings, cacheSvc, time.UTC, nil, zap.NewNop())
	return svc, overrides, settings, cache
}

func TestOverrideUpsertProductScopeInvalidatesOneEntry(t *testing.T) {
	svc, overrides, _, cache := newOverrideServiceFixture(t)

	saved, err := svc.Upsert(context.Background(), OverrideRequest{ProductID: 42, Date: saturday, IsClosed: true})
	require.NoError(t, err)
	assert.Equal(t, "o1", saved.ID)
	require.Len(t, overrides.saved, 1)
	assert.Equal(t, []string{"availability:42:2026-09-12"}, cache.deletedKeys)
	assert.Empty(t, cache.deletedPatterns)
}

func TestOverrideUpsertGlobalScopeInvalidatesDateAcrossProducts(t *testing.T) {
	svc, _, _, cache := newOverrideServiceFixture(t)

	_, err := svc.Upsert(context.Background(), OverrideRequest{ProductID: models.GlobalScopeProductID, Date: saturday, IsClosed: true})
	require.NoError(t, err)
	assert.Empty(t, cache.deletedKeys)
	assert.Equal(t, []string{"availability:*:2026-09-12"}, cache.deletedPatterns)
}

func TestOverrideUpsertRejectsBadDate(t *testing.T) {
	svc, overrides, _, _ := newOverrideServiceFixture(t)

	_, err := svc.Upsert(context.Background(), OverrideRequest{ProductID: 42, Date: "12/09/2026"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, overrides.saved)
}

func TestOverrideDeleteInvalidates(t *testing.T) {
	svc, overrides, _, cache := newOverrideServiceFixture(t)
	date, err := time.Parse(models.DateFormat, saturday)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 42, date))
	assert.Len(t, overrides.deleted, 1)
	assert.Equal(t, []string{"availability:42:2026-09-12"}, cache.deletedKeys)
}

func TestSettingsDeleteRestoresDefaultAndInvalidates(t *testing.T) {
	svc, _, settings, cache := newOverrideServiceFixture(t)
	settings.settings[42] = &models.ExperienceSettings{ProductID: 42, CutoffMinutes: 30}

	require.NoError(t, svc.DeleteSettings(context.Background(), 42))
	assert.Nil(t, settings.settings[42])
	assert.Equal(t, []string{"availability:42:*"}, cache.deletedPatterns)

	effective, err := svc.GetSettings(context.Background(), 42, 120)
	require.NoError(t, err)
	assert.Equal(t, 120, effective.CutoffMinutes)
}

func TestSettingsFallBackToDefault(t *testing.T) {
	svc, _, _, _ := newOverrideServiceFixture(t)

	settings, err := svc.GetSettings(context.Background(), 42, 120)
	require.NoError(t, err)
	assert.Equal(t, 120, settings.CutoffMinutes)
}

func TestSettingsUpsertInvalidatesProduct(t *testing.T) {
	svc, _, settings, cache := newOverrideServiceFixture(t)

	saved, err := svc.UpsertSettings(context.Background(), 42, SettingsRequest{CutoffMinutes: 45})
	require.NoError(t, err)
	assert.Equal(t, 45, saved.CutoffMinutes)
	assert.NotNil(t, settings.settings[42])
	assert.Equal(t, []string{"availability:42:*"}, cache.deletedPatterns)

	effective, err := svc.GetSettings(context.Background(), 42, 120)
	require.NoError(t, err)
	assert.Equal(t, 45, effective.CutoffMinutes)
}
