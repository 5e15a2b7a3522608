package satellites

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
	"github.com/caelexhq/caelex-backend/internal/pkg/httpx"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

// Satellite is a normalized public-catalog record for a tracked object.
type Satellite struct {
	NoradCatID     int64      `json:"norad_cat_id"`
	Name           string     `json:"name"`
	IntlDesignator string     `json:"intl_designator"`
	ObjectType     string     `json:"object_type"`
	Owner          string     `json:"owner"`
	LaunchDate     *time.Time `json:"launch_date,omitempty"`
	DecayDate      *time.Time `json:"decay_date,omitempty"`
	PeriodMinutes  *float64   `json:"period_minutes,omitempty"`
	InclinationDeg *float64   `json:"inclination_deg,omitempty"`
	ApogeeKm       *float64   `json:"apogee_km,omitempty"`
	PerigeeKm      *float64   `json:"perigee_km,omitempty"`
	OrbitClass     string     `json:"orbit_class"`
}

// Client fetches satellite records from a public SATCAT endpoint.
type Client interface {
	Lookup(ctx context.Context, noradID int64) (*Satellite, error)
}

type client struct {
	log        *logger.Logger
	baseURL    string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	baseURL := strings.TrimSpace(os.Getenv("SATCAT_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://celestrak.org"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	timeoutSec := 20
	if v := os.Getenv("SATCAT_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 3
	if v := os.Getenv("SATCAT_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "SatcatClient"),
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

type satcatHTTPError struct {
	StatusCode int
	Body       string
}

func (e *satcatHTTPError) Error() string {
	return fmt.Sprintf("satcat http %d: %s", e.StatusCode, e.Body)
}

func (e *satcatHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

// satcatRecord is the upstream SATCAT wire format. Numeric fields are
// pointers because the feed emits null for unknown orbital elements.
type satcatRecord struct {
	ObjectName  string   `json:"OBJECT_NAME"`
	ObjectID    string   `json:"OBJECT_ID"`
	NoradCatID  int64    `json:"NORAD_CAT_ID"`
	ObjectType  string   `json:"OBJECT_TYPE"`
	Owner       string   `json:"OWNER"`
	LaunchDate  string   `json:"LAUNCH_DATE"`
	DecayDate   string   `json:"DECAY_DATE"`
	Period      *float64 `json:"PERIOD"`
	Inclination *float64 `json:"INCLINATION"`
	Apogee      *float64 `json:"APOGEE"`
	Perigee     *float64 `json:"PERIGEE"`
}

func (c *client) Lookup(ctx context.Context, noradID int64) (*Satellite, error) {
	if noradID <= 0 {
		return nil, fmt.Errorf("norad id %d: %w", noradID, pkgerrors.ErrInvalidArgument)
	}

	path := fmt.Sprintf("/satcat/records.php?CATNR=%d&FORMAT=JSON", noradID)
	var records []satcatRecord
	if err := c.do(ctx, path, &records); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("satellite %d: %w", noradID, pkgerrors.ErrNotFound)
	}
	return mapSatcatRecord(records[0]), nil
}

func (c *client) doOnce(ctx context.Context, path string) (*http.Response, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &satcatHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, path string, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, path)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("satcat decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !httpx.IsRetryableError(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("SATCAT request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

func mapSatcatRecord(rec satcatRecord) *Satellite {
	sat := &Satellite{
		NoradCatID:     rec.NoradCatID,
		Name:           strings.TrimSpace(rec.ObjectName),
		IntlDesignator: strings.TrimSpace(rec.ObjectID),
		ObjectType:     strings.TrimSpace(rec.ObjectType),
		Owner:          strings.TrimSpace(rec.Owner),
		LaunchDate:     parseSatcatDate(rec.LaunchDate),
		DecayDate:      parseSatcatDate(rec.DecayDate),
		PeriodMinutes:  rec.Period,
		InclinationDeg: rec.Inclination,
		ApogeeKm:       rec.Apogee,
		PerigeeKm:      rec.Perigee,
	}
	sat.OrbitClass = classifyOrbit(rec.Apogee, rec.Perigee)
	return sat
}

func parseSatcatDate(raw string) *time.Time {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return &t
}

// classifyOrbit buckets a record by apogee/perigee. The thresholds match the
// conventional LEO/MEO/GEO cutoffs (2,000 km and the geostationary altitude
// band around 35,786 km); heavily eccentric records are classed HEO.
func classifyOrbit(apogee, perigee *float64) string {
	if apogee == nil || perigee == nil {
		return ""
	}
	ap, pe := *apogee, *perigee
	if ap <= 2000 {
		return "LEO"
	}
	if ap >= 35286 && ap <= 36286 && pe >= 35286 {
		return "GEO"
	}
	if ap > 36286 && pe < 2000 {
		return "HEO"
	}
	return "MEO"
}
