package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/sekolah-ops-api/internal/dto"
	"github.com/noah-isme/sekolah-ops-api/internal/models"
)

type occurrenceAggregator interface {
	ResolveDate(ctx context.Context, date time.Time) ([]models.ResolvedOccurrence, error)
	EnrichOccurrences(ctx context.Context, occurrences []models.ResolvedOccurrence) []dto.OccurrenceView
	WeeklyTotals(ctx context.Context, weekStart time.Time) (dto.WeeklyTotals, error)
	SubstitutionList(ctx context.Context, from, to time.Time) ([]dto.SubstitutionEntry, error)
}

// DashboardServiceConfig tunes dashboard behaviour.
type DashboardServiceConfig struct {
	// CacheTTL should stay in the seconds range: effective statuses move
	// with the wall clock, so stale payloads must age out quickly.
	CacheTTL time.Duration
}

// DashboardService composes the curriculum and principal dashboard
// payloads from the aggregator, with a short-lived cache in front.
type DashboardService struct {
	aggregator occurrenceAggregator
	cache      *CacheService
	metrics    *MetricsService
	logger     *zap.Logger
	now        func() time.Time
	cfg        DashboardServiceConfig
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Aggregator occurrenceAggregator
	Cache      *CacheService
	Metrics    *MetricsService
	Logger     *zap.Logger
	Config     DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 10 * time.Second
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		aggregator: params.Aggregator,
		cache:      params.Cache,
		metrics:    params.Metrics,
		logger:     logger,
		now:        time.Now,
		cfg:        cfg,
	}
}

// Curriculum returns the curriculum "today" view for the date and
// indicates cache utilisation.
func (s *DashboardService) Curriculum(ctx context.Context, date time.Time) (*dto.CurriculumDashboardResponse, bool, error) {
	date = models.DateOnly(date)
	cacheKey := fmt.Sprintf("dash:curriculum:%s", date.Format(dateLayout))
	if cached, hit, err := s.tryCurriculumCache(ctx, cacheKey); err != nil {
		return nil, false, err
	} else if hit {
		return cached, true, nil
	}

	payload, err := s.composeCurriculum(ctx, date)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, cacheKey, payload)
	return payload, false, nil
}

// Principal returns the principal weekly view for the week containing
// weekStart and indicates cache utilisation.
func (s *DashboardService) Principal(ctx context.Context, weekStart time.Time) (*dto.PrincipalDashboardResponse, bool, error) {
	start := models.WeekStart(weekStart)
	cacheKey := fmt.Sprintf("dash:principal:%s", start.Format(dateLayout))
	if cached, hit, err := s.tryPrincipalCache(ctx, cacheKey); err != nil {
		return nil, false, err
	} else if hit {
		return cached, true, nil
	}

	payload, err := s.composePrincipal(ctx, start)
	if err != nil {
		return nil, false, err
	}
	s.persistCache(ctx, cacheKey, payload)
	return payload, false, nil
}

func (s *DashboardService) composeCurriculum(ctx context.Context, date time.Time) (*dto.CurriculumDashboardResponse, error) {
	occurrences, err := s.aggregator.ResolveDate(ctx, date)
	if err != nil {
		return nil, err
	}
	views := s.aggregator.EnrichOccurrences(ctx, occurrences)
	s.recordResolutions(occurrences)

	payload := &dto.CurriculumDashboardResponse{
		Date:    date.Format(dateLayout),
		Summary: SummarizeOccurrences(date, occurrences),
		Pending: BuildPendingQueue(date, views),
		Classes: groupByClass(views),
	}
	if day, ok := models.WeekdayOf(date); ok {
		payload.Day = string(day)
	}
	return payload, nil
}

func (s *DashboardService) composePrincipal(ctx context.Context, weekStart time.Time) (*dto.PrincipalDashboardResponse, error) {
	thisWeek, err := s.aggregator.WeeklyTotals(ctx, weekStart)
	if err != nil {
		return nil, err
	}
	previousWeek, err := s.aggregator.WeeklyTotals(ctx, weekStart.AddDate(0, 0, -7))
	if err != nil {
		return nil, err
	}
	substitutions, err := s.aggregator.SubstitutionList(ctx, weekStart, weekStart.AddDate(0, 0, 5))
	if err != nil {
		return nil, err
	}
	return &dto.PrincipalDashboardResponse{
		ThisWeek:      thisWeek,
		PreviousWeek:  previousWeek,
		Trends:        ComputeTrendDelta(thisWeek, previousWeek),
		Substitutions: substitutions,
	}, nil
}

func (s *DashboardService) tryCurriculumCache(ctx context.Context, key string) (*dto.CurriculumDashboardResponse, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}
	var cached dto.CurriculumDashboardResponse
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		return nil, false, err
	}
	if hit {
		return &cached, true, nil
	}
	return nil, false, nil
}

func (s *DashboardService) tryPrincipalCache(ctx context.Context, key string) (*dto.PrincipalDashboardResponse, bool, error) {
	if s.cache == nil {
		return nil, false, nil
	}
	var cached dto.PrincipalDashboardResponse
	hit, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		return nil, false, err
	}
	if hit {
		return &cached, true, nil
	}
	return nil, false, nil
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil && s.logger != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *DashboardService) recordResolutions(occurrences []models.ResolvedOccurrence) {
	if s.metrics == nil {
		return
	}
	for _, occ := range occurrences {
		s.metrics.RecordResolution(occ.EffectiveStatus)
	}
}

func groupByClass(views []dto.OccurrenceView) []dto.ClassScheduleGroup {
	groups := make(map[string]*dto.ClassScheduleGroup)
	for _, view := range views {
		group, ok := groups[view.ClassID]
		if !ok {
			group = &dto.ClassScheduleGroup{ClassID: view.ClassID, ClassName: view.ClassName}
			groups[view.ClassID] = group
		}
		group.Occurrences = append(group.Occurrences, view)
	}
	result := make([]dto.ClassScheduleGroup, 0, len(groups))
	for _, group := range groups {
		sort.SliceStable(group.Occurrences, func(i, j int) bool {
			if group.Occurrences[i].Period != group.Occurrences[j].Period {
				return group.Occurrences[i].Period < group.Occurrences[j].Period
			}
			return group.Occurrences[i].ScheduleSlotID < group.Occurrences[j].ScheduleSlotID
		})
		result = append(result, *group)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].ClassName != result[j].ClassName {
			return result[i].ClassName < result[j].ClassName
		}
		return result[i].ClassID < result[j].ClassID
	})
	return result
}
