package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker"

	"github.com/i474232898/weather-core/internal/device"
	"github.com/i474232898/weather-core/internal/weather"
)

// DefaultOpenWeatherURL is the OpenWeatherMap 2.5 API root.
const DefaultOpenWeatherURL = "https://api.openweathermap.org/data/2.5"

// OpenWeatherClient implements weather.Fetcher for OpenWeatherMap.
type OpenWeatherClient struct {
	client   *http.Client
	baseURL  string
	circuit  *gobreaker.CircuitBreaker
	validate *validator.Validate
}

// NewOpenWeatherClient builds a client. An empty baseURL means DefaultOpenWeatherURL.
func NewOpenWeatherClient(client *http.Client, baseURL string) *OpenWeatherClient {
	if baseURL == "" {
		baseURL = DefaultOpenWeatherURL
	}
	return &OpenWeatherClient{
		client:   client,
		baseURL:  strings.TrimRight(baseURL, "/"),
		circuit:  newBreaker("openweather"),
		validate: validator.New(),
	}
}

var _ weather.Fetcher = (*OpenWeatherClient)(nil)

// FetchSingle queries current weather for one location id.
func (c *OpenWeatherClient) FetchSingle(ctx context.Context, locationID int, apiKey string) weather.QueryResult[weather.WeatherRecord] {
	if locationID <= 0 {
		return weather.Failure[weather.WeatherRecord](weather.MalformedRequest(fmt.Sprintf("invalid location id %d", locationID)))
	}
	values := url.Values{}
	values.Set("id", strconv.Itoa(locationID))

	raw, ferr := c.get(ctx, "weather", values, apiKey)
	if ferr != nil {
		return weather.Failure[weather.WeatherRecord](ferr)
	}

	var payload observation
	if err := json.Unmarshal(raw.body, &payload); err != nil {
		return weather.Failure[weather.WeatherRecord](weather.UnparsableResponse(err.Error()))
	}
	if err := c.validate.Struct(payload); err != nil {
		return weather.Failure[weather.WeatherRecord](weather.UnparsableResponse(err.Error()))
	}
	return weather.Success(payload.record())
}

// FetchMultiple queries up to count locations around pos.
func (c *OpenWeatherClient) FetchMultiple(ctx context.Context, pos *device.Coordinate, count int, apiKey string) weather.QueryResult[[]weather.WeatherRecord] {
	if pos == nil {
		return weather.Failure[[]weather.WeatherRecord](weather.LocationUnavailable())
	}
	if count <= 0 {
		return weather.Failure[[]weather.WeatherRecord](weather.MalformedRequest(fmt.Sprintf("invalid result count %d", count)))
	}
	values := url.Values{}
	values.Set("lat", strconv.FormatFloat(pos.Lat, 'f', -1, 64))
	values.Set("lon", strconv.FormatFloat(pos.Lon, 'f', -1, 64))
	values.Set("cnt", strconv.Itoa(count))

	raw, ferr := c.get(ctx, "find", values, apiKey)
	if ferr != nil {
		return weather.Failure[[]weather.WeatherRecord](ferr)
	}

	var payload struct {
		List []observation `json:"list" validate:"required,dive"`
	}
	if err := json.Unmarshal(raw.body, &payload); err != nil {
		return weather.Failure[[]weather.WeatherRecord](weather.UnparsableResponse(err.Error()))
	}
	if err := c.validate.Struct(payload); err != nil {
		return weather.Failure[[]weather.WeatherRecord](weather.UnparsableResponse(err.Error()))
	}

	records := make([]weather.WeatherRecord, 0, len(payload.List))
	for _, item := range payload.List {
		records = append(records, item.record())
	}
	return weather.Success(records)
}

// get performs the request and classifies everything up to the body's status field. A nil
// error means the body reported status 200 and is ready for a full decode.
func (c *OpenWeatherClient) get(ctx context.Context, endpoint string, values url.Values, apiKey string) (rawResponse, *weather.FetchError) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return rawResponse{}, weather.MalformedRequest("api key is blank")
	}
	values.Set("appid", apiKey)

	u := fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, values.Encode())
	req, err := http.NewRequest(http.MethodGet, u, nil)
	if err != nil {
		return rawResponse{}, weather.MalformedRequest(err.Error())
	}

	raw, err := doRequest(ctx, c.client, c.circuit, req)
	if err != nil {
		return rawResponse{}, weather.TransportError(nil, err.Error())
	}

	var env struct {
		Cod     *statusCode `json:"cod"`
		Message string      `json:"message"`
	}
	if err := json.Unmarshal(raw.body, &env); err != nil || env.Cod == nil {
		if raw.status < 200 || raw.status > 299 {
			return rawResponse{}, weather.TransportStatus(raw.status, http.StatusText(raw.status))
		}
		return rawResponse{}, weather.UnparsableResponse("response has no usable status field")
	}

	switch code := int(*env.Cod); {
	case code == http.StatusOK:
		return raw, nil
	case code == http.StatusUnauthorized || raw.status == http.StatusUnauthorized:
		return rawResponse{}, weather.UnauthorizedCredential(http.StatusUnauthorized)
	default:
		return rawResponse{}, weather.TransportStatus(code, env.Message)
	}
}

// statusCode accepts the provider's status as a number or as a numeric string; the find
// endpoint sends "200" where weather sends 200.
type statusCode int

func (s *statusCode) UnmarshalJSON(b []byte) error {
	text := string(b)
	if unquoted, err := strconv.Unquote(text); err == nil {
		text = unquoted
	}
	n, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return fmt.Errorf("status field %s is not numeric", b)
	}
	*s = statusCode(n)
	return nil
}

// observation is one location's current conditions, shared by both endpoints.
type observation struct {
	ID      *int         `json:"id" validate:"required"`
	Name    *string      `json:"name" validate:"required"`
	Coord   *coordinates `json:"coord" validate:"required"`
	Weather []condition  `json:"weather" validate:"required,min=1,dive"`
	Main    *readings    `json:"main" validate:"required"`
	Wind    *wind        `json:"wind" validate:"required"`
	Clouds  *clouds      `json:"clouds" validate:"required"`
	Dt      *int64       `json:"dt" validate:"required"`
	Sys     *sys         `json:"sys"`
}

type coordinates struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lon *float64 `json:"lon" validate:"required"`
}

type condition struct {
	ID          *int    `json:"id" validate:"required"`
	Main        *string `json:"main" validate:"required"`
	Description string  `json:"description"`
}

type readings struct {
	Temp     *float64 `json:"temp" validate:"required"`
	Pressure *float64 `json:"pressure" validate:"required"`
	Humidity *float64 `json:"humidity" validate:"required"`
}

type wind struct {
	Speed *float64 `json:"speed" validate:"required"`
	Deg   *float64 `json:"deg"`
}

type clouds struct {
	All *float64 `json:"all" validate:"required"`
}

type sys struct {
	Country string `json:"country"`
	Sunrise *int64 `json:"sunrise"`
	Sunset  *int64 `json:"sunset"`
}

func unixUTC(sec *int64) *time.Time {
	if sec == nil || *sec == 0 {
		return nil
	}
	t := time.Unix(*sec, 0).UTC()
	return &t
}

// record converts a validated observation. Wind arrives in m/s.
func (o observation) record() weather.WeatherRecord {
	r := weather.WeatherRecord{
		Location: weather.LocationRef{
			ID:   *o.ID,
			Name: *o.Name,
			Lat:  *o.Coord.Lat,
			Lon:  *o.Coord.Lon,
		},
		Condition:     *o.Weather[0].Main,
		Description:   o.Weather[0].Description,
		ConditionCode: *o.Weather[0].ID,
		Temperature:   *o.Main.Temp,
		Clouds:        int(math.Round(*o.Clouds.All)),
		Humidity:      int(math.Round(*o.Main.Humidity)),
		WindSpeed:     *o.Wind.Speed * 3.6,
		Pressure:      *o.Main.Pressure,
		ObservedAt:    time.Unix(*o.Dt, 0).UTC(),
	}
	if o.Wind.Deg != nil {
		deg := *o.Wind.Deg
		r.WindDirection = &deg
	}
	if o.Sys != nil {
		r.Location.Country = o.Sys.Country
		r.Sunrise = unixUTC(o.Sys.Sunrise)
		r.Sunset = unixUTC(o.Sys.Sunset)
	}
	return r
}
