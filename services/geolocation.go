package services

import (
	"context"
	"fmt"
	"net/http"
	"net/netip"
	"os"
	"strings"
	"time"

	appcontext "github.com/alphabatem/common/context"
	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"

	"github.com/wheelchair-racer/wr_api/dto"
	"github.com/wheelchair-racer/wr_api/shared"
)

const (
	GEOLOCATION_SVC = "geolocation_svc"

	geolocationCachePrefix = "geolocation:"
)

// GeolocationService resolves client addresses to coordinates through the
// ip-api.com JSON endpoint. Lookups are cached in Redis.
type GeolocationService struct {
	appcontext.DefaultService

	httpClient  *http.Client
	apiURL      string
	cache       Cache
	cacheExpiry time.Duration
}

func (svc GeolocationService) Id() string {
	return GEOLOCATION_SVC
}

func (svc *GeolocationService) Configure(ctx *appcontext.Context) error {
	svc.httpClient = &http.Client{
		Timeout: 5 * time.Second,
	}
	svc.apiURL = getEnv("GEOLOCATION_API_URL", "http://ip-api.com/json")
	svc.cacheExpiry = 24 * time.Hour
	if os.Getenv("GEOLOCATION_DISABLED") == "true" {
		svc.apiURL = ""
	}
	return svc.DefaultService.Configure(ctx)
}

func (svc *GeolocationService) Start() error {
	svc.cache = svc.Service(REDIS_SVC).(*RedisService)
	return nil
}

type ipAPIResponse struct {
	Status      string  `json:"status"`
	Message     string  `json:"message"`
	Country     string  `json:"country"`
	CountryCode string  `json:"countryCode"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
	Query       string  `json:"query"`
}

func locationUnavailable() error {
	return shared.NewBadRequestError(nil, "Location unavailable, pass lat and lon instead")
}

// Locate returns the approximate position of a public IP address. Private,
// loopback and unparseable addresses are rejected without a lookup. IPv6
// clients arrive as their /64 block and are looked up by its base address.
func (svc *GeolocationService) Locate(ctx context.Context, ip string) (*dto.Location, error) {
	ip, _, _ = strings.Cut(ip, "/")
	addr, err := netip.ParseAddr(ip)
	if err != nil || !addr.IsGlobalUnicast() || addr.IsPrivate() {
		return nil, locationUnavailable()
	}
	if svc.apiURL == "" {
		return nil, locationUnavailable()
	}

	key := geolocationCachePrefix + addr.String()
	if svc.cache != nil {
		var cached dto.Location
		found, err := svc.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			log.WithError(err).WithField("ip", ip).Warn("Geolocation cache read failed")
		} else if found {
			return &cached, nil
		}
	}

	url := fmt.Sprintf("%s/%s?fields=status,message,country,countryCode,lat,lon,query", svc.apiURL, addr.String())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, shared.NewInternalError(err, "Location lookup failed")
	}

	resp, err := svc.httpClient.Do(req)
	if err != nil {
		log.WithError(err).WithField("ip", ip).Error("Failed to get geolocation")
		return nil, shared.NewInternalError(err, "Location lookup failed")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.WithField("status", resp.StatusCode).WithField("ip", ip).Error("Geolocation API returned non-200 status")
		return nil, shared.NewInternalError(fmt.Errorf("geolocation API returned status %d", resp.StatusCode), "Location lookup failed")
	}

	var result ipAPIResponse
	if err := sonic.ConfigDefault.NewDecoder(resp.Body).Decode(&result); err != nil {
		log.WithError(err).WithField("ip", ip).Error("Failed to decode geolocation response")
		return nil, shared.NewInternalError(err, "Location lookup failed")
	}

	if result.Status != "success" {
		log.WithField("message", result.Message).WithField("ip", ip).Warn("Geolocation lookup failed")
		return nil, locationUnavailable()
	}

	location := &dto.Location{
		IP:          addr.String(),
		Country:     result.Country,
		CountryCode: result.CountryCode,
		Latitude:    result.Lat,
		Longitude:   result.Lon,
	}

	if svc.cache != nil {
		if err := svc.cache.SetJSON(ctx, key, location, svc.cacheExpiry); err != nil {
			log.WithError(err).WithField("ip", ip).Warn("Failed to cache geolocation result")
		}
	}

	return location, nil
}
