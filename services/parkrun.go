package services

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"math"
	"slices"
	"strconv"
	"strings"
	"time"

	appcontext "github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/model"
	"github.com/wheelchair-racer/wr_api/shared"
)

const (
	PARKRUN_SVC = "parkrun_svc"

	parkrunCachePrefix = "parkrun:"
	parkrunCacheTTL    = 10 * time.Minute

	defaultNearbyLimit = 10
	maxNearbyLimit     = 50
	earthRadiusKm      = 6371.0
)

type ParkrunService struct {
	appcontext.DefaultService

	store ParkrunStore
	cache Cache
	geo   Locator
}

// NewParkrunService builds the service without the container, for imports.
func NewParkrunService(store ParkrunStore, cache Cache) *ParkrunService {
	return &ParkrunService{store: store, cache: cache}
}

func (svc ParkrunService) Id() string {
	return PARKRUN_SVC
}

func (svc *ParkrunService) Configure(ctx *appcontext.Context) error {
	return svc.DefaultService.Configure(ctx)
}

func (svc *ParkrunService) Start() error {
	svc.store = svc.Service(POSTGRES_SVC).(*PostgresService).Parkruns()
	svc.cache = svc.Service(REDIS_SVC).(*RedisService)
	svc.geo = svc.Service(GEOLOCATION_SVC).(*GeolocationService)
	return nil
}

// List filters events by country and a case-insensitive search over name and
// location. Results are cached per query.
func (svc *ParkrunService) List(ctx context.Context, query dto.ParkrunQuery) (*dto.ParkrunListResponse, error) {
	country := strings.TrimSpace(query.Country)
	search := strings.ToLower(strings.TrimSpace(query.Search))

	junior := ""
	if query.Junior != nil {
		junior = strconv.FormatBool(*query.Junior)
	}
	key := fmt.Sprintf("%slist:%s|%s|%s", parkrunCachePrefix, country, search, junior)

	var cached dto.ParkrunListResponse
	if svc.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	events, err := svc.store.ListParkruns(country, search, query.Junior)
	if err != nil {
		return nil, err
	}

	resp := &dto.ParkrunListResponse{
		Events: make([]dto.ParkrunSummary, 0, len(events)),
		Total:  len(events),
	}
	for _, event := range events {
		resp.Events = append(resp.Events, toParkrunSummary(event))
	}

	svc.writeCache(ctx, key, resp)
	return resp, nil
}

// Get returns one event with its accessibility scores.
func (svc *ParkrunService) Get(ctx context.Context, slug string) (*model.Parkrun, error) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	if slug == "" {
		return nil, shared.NewBadRequestError(nil, "Missing parkrun slug")
	}
	key := parkrunCachePrefix + "event:" + slug

	var cached model.Parkrun
	if svc.readCache(ctx, key, &cached) {
		return &cached, nil
	}

	event, err := svc.store.GetParkrunBySlug(slug)
	if err != nil {
		return nil, err
	}

	svc.writeCache(ctx, key, event)
	return event, nil
}

func (svc *ParkrunService) Countries(ctx context.Context) ([]string, error) {
	key := parkrunCachePrefix + "countries"

	var cached []string
	if svc.readCache(ctx, key, &cached) {
		return cached, nil
	}

	countries, err := svc.store.ListCountries()
	if err != nil {
		return nil, err
	}

	svc.writeCache(ctx, key, countries)
	return countries, nil
}

// Nearby orders events by great-circle distance from the given coordinates,
// or from the client's geolocated address when none are given.
func (svc *ParkrunService) Nearby(ctx context.Context, query dto.NearbyQuery, clientIP string) (*dto.NearbyResponse, error) {
	origin, err := svc.nearbyOrigin(ctx, query, clientIP)
	if err != nil {
		return nil, err
	}

	limit := query.Limit
	if limit <= 0 {
		limit = defaultNearbyLimit
	}
	limit = min(limit, maxNearbyLimit)

	all, err := svc.List(ctx, dto.ParkrunQuery{Junior: query.Junior})
	if err != nil {
		return nil, err
	}

	events := make([]dto.NearbyParkrun, 0, len(all.Events))
	for _, event := range all.Events {
		distance := haversineKm(origin.Latitude, origin.Longitude, event.Latitude, event.Longitude)
		events = append(events, dto.NearbyParkrun{
			ParkrunSummary: event,
			DistanceKm:     math.Round(distance*10) / 10,
		})
	}
	slices.SortStableFunc(events, func(a, b dto.NearbyParkrun) int {
		return cmp.Compare(a.DistanceKm, b.DistanceKm)
	})
	if len(events) > limit {
		events = events[:limit]
	}

	return &dto.NearbyResponse{Origin: *origin, Events: events}, nil
}

func (svc *ParkrunService) nearbyOrigin(ctx context.Context, query dto.NearbyQuery, clientIP string) (*dto.Location, error) {
	if query.Lat != nil || query.Lon != nil {
		if query.Lat == nil || query.Lon == nil {
			return nil, shared.NewBadRequestError(nil, "lat and lon must be given together")
		}
		if *query.Lat < -90 || *query.Lat > 90 || *query.Lon < -180 || *query.Lon > 180 {
			return nil, shared.NewBadRequestError(nil, "Coordinates out of range")
		}
		return &dto.Location{Latitude: *query.Lat, Longitude: *query.Lon}, nil
	}

	if svc.geo == nil {
		return nil, shared.NewBadRequestError(nil, "Location unavailable, pass lat and lon instead")
	}
	return svc.geo.Locate(ctx, clientIP)
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}

// Import upserts events by uid and drops every cached parkrun query.
func (svc *ParkrunService) Import(ctx context.Context, events []model.Parkrun) error {
	if err := svc.store.UpsertParkruns(events); err != nil {
		return err
	}

	if svc.cache != nil {
		removed, err := svc.cache.DeleteByPrefix(ctx, parkrunCachePrefix)
		if err != nil {
			log.WithError(err).Warn("Failed to invalidate parkrun cache")
		} else {
			log.WithField("keys", removed).Debug("Parkrun cache invalidated")
		}
	}

	log.WithField("events", len(events)).Info("Parkrun events imported")
	return nil
}

func (svc *ParkrunService) readCache(ctx context.Context, key string, dest interface{}) bool {
	if svc.cache == nil {
		return false
	}
	found, err := svc.cache.GetJSON(ctx, key, dest)
	if err != nil {
		log.WithError(err).WithField("key", key).Warn("Parkrun cache read failed")
		return false
	}
	return found
}

func (svc *ParkrunService) writeCache(ctx context.Context, key string, value interface{}) {
	if svc.cache == nil {
		return
	}
	if err := svc.cache.SetJSON(ctx, key, value, parkrunCacheTTL); err != nil {
		log.WithError(err).WithField("key", key).Warn("Parkrun cache write failed")
	}
}

func toParkrunSummary(event model.Parkrun) dto.ParkrunSummary {
	return dto.ParkrunSummary{
		UID:       event.UID,
		Name:      event.LongName,
		ShortName: event.ShortName,
		Slug:      event.Slug,
		Location:  event.Location,
		Country:   event.Country,
		Junior:    event.IsJunior,
		Latitude:  event.Latitude,
		Longitude: event.Longitude,
	}
}

// ==================== EVENT FILE ====================

type parkrunScore struct {
	FinalScore float64 `json:"final_score"`
}

type parkrunRecord struct {
	UID           int64     `json:"uid"`
	ShortName     string    `json:"short_name"`
	LongName      string    `json:"long_name"`
	Slug          string    `json:"slug"`
	Location      string    `json:"location"`
	Coordinates   []float64 `json:"coordinates"`
	Country       string    `json:"country"`
	IsJunior      bool      `json:"is_junior"`
	CoursePageURL string    `json:"course_page_url"`
	GoogleMapsURL string    `json:"google_maps_url"`
	Postcode      string    `json:"postcode"`
	Language      string    `json:"language"`
	Descriptions  struct {
		Full       string `json:"full"`
		Cleaned    string `json:"cleaned"`
		Summary    string `json:"summary"`
		Translated string `json:"translated"`
	} `json:"descriptions"`
	Accessibility map[string]parkrunScore `json:"accessibility"`
}

// ParseEventsFile reads a JSON array of enriched parkrun events. Records
// without a uid or slug are skipped.
func ParseEventsFile(r io.Reader) ([]model.Parkrun, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}

	var records []parkrunRecord
	if err := sonic.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode events: %w", err)
	}

	events := make([]model.Parkrun, 0, len(records))
	for _, rec := range records {
		if rec.UID == 0 || rec.Slug == "" {
			continue
		}

		event := model.Parkrun{
			UID:           rec.UID,
			ShortName:     rec.ShortName,
			LongName:      rec.LongName,
			Slug:          strings.ToLower(rec.Slug),
			Location:      rec.Location,
			Country:       rec.Country,
			IsJunior:      rec.IsJunior,
			CoursePageURL: rec.CoursePageURL,
			GoogleMapsURL: rec.GoogleMapsURL,
			Postcode:      rec.Postcode,
			Language:      rec.Language,
			Description:   firstNonEmpty(rec.Descriptions.Summary, rec.Descriptions.Translated, rec.Descriptions.Cleaned, rec.Descriptions.Full),
			Scores: model.AccessibilityScores{
				RacingChair:  score(rec.Accessibility, "racing_chair"),
				DayChair:     score(rec.Accessibility, "day_chair"),
				OffRoadChair: score(rec.Accessibility, "off_road_chair"),
				Handbike:     score(rec.Accessibility, "handbike"),
				FrameRunner:  score(rec.Accessibility, "frame_runner"),
				WalkingFrame: score(rec.Accessibility, "walking_frame"),
				Crutches:     score(rec.Accessibility, "crutches"),
				WalkingStick: score(rec.Accessibility, "walking_stick"),
			},
		}
		// GeoJSON order: [longitude, latitude]
		if len(rec.Coordinates) == 2 {
			event.Longitude = rec.Coordinates[0]
			event.Latitude = rec.Coordinates[1]
		}
		events = append(events, event)
	}
	return events, nil
}

func score(scores map[string]parkrunScore, mobility string) int {
	value := int(scores[mobility].FinalScore + 0.5)
	return max(0, min(100, value))
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
