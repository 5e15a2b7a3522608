package satellites

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	pkgerrors "github.com/caelexhq/caelex-backend/internal/pkg/errors"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("test")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

func TestClassifyOrbit(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	cases := []struct {
		name    string
		apogee  *float64
		perigee *float64
		want    string
	}{
		{"starlink shell", f(550), f(540), "LEO"},
		{"iss", f(420), f(410), "LEO"},
		{"leo boundary", f(2000), f(500), "LEO"},
		{"gps", f(20200), f(20180), "MEO"},
		{"geostationary", f(35793), f(35779), "GEO"},
		{"molniya", f(39300), f(600), "HEO"},
		{"gto parking", f(35700), f(250), "MEO"},
		{"unknown elements", nil, f(500), ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyOrbit(tc.apogee, tc.perigee)
			if got != tc.want {
				t.Fatalf("classifyOrbit = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestClientLookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/satcat/records.php" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("FORMAT"); got != "JSON" {
			t.Errorf("FORMAT = %q, want JSON", got)
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Query().Get("CATNR") {
		case "44243":
			fmt.Fprint(w, `[{"OBJECT_NAME":"STARLINK-24","OBJECT_ID":"2019-029K","NORAD_CAT_ID":44243,"OBJECT_TYPE":"PAY","OWNER":"US","LAUNCH_DATE":"2019-05-24","DECAY_DATE":"2020-09-28","PERIOD":88.5,"INCLINATION":52.99,"APOGEE":189,"PERIGEE":179}]`)
		default:
			fmt.Fprint(w, `[]`)
		}
	}))
	defer srv.Close()

	t.Setenv("SATCAT_BASE_URL", srv.URL)
	c, err := NewClient(testLogger(t))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	ctx := context.Background()

	t.Run("maps record", func(t *testing.T) {
		sat, err := c.Lookup(ctx, 44243)
		if err != nil {
			t.Fatalf("Lookup: %v", err)
		}
		if sat.Name != "STARLINK-24" {
			t.Fatalf("Name = %q", sat.Name)
		}
		if sat.NoradCatID != 44243 {
			t.Fatalf("NoradCatID = %d", sat.NoradCatID)
		}
		if sat.IntlDesignator != "2019-029K" {
			t.Fatalf("IntlDesignator = %q", sat.IntlDesignator)
		}
		if sat.ObjectType != "PAY" || sat.Owner != "US" {
			t.Fatalf("ObjectType/Owner = %q/%q", sat.ObjectType, sat.Owner)
		}
		if sat.LaunchDate == nil || sat.LaunchDate.Format("2006-01-02") != "2019-05-24" {
			t.Fatalf("LaunchDate = %v", sat.LaunchDate)
		}
		if sat.DecayDate == nil || sat.DecayDate.Format("2006-01-02") != "2020-09-28" {
			t.Fatalf("DecayDate = %v", sat.DecayDate)
		}
		if sat.ApogeeKm == nil || *sat.ApogeeKm != 189 {
			t.Fatalf("ApogeeKm = %v", sat.ApogeeKm)
		}
		if sat.InclinationDeg == nil || *sat.InclinationDeg != 52.99 {
			t.Fatalf("InclinationDeg = %v", sat.InclinationDeg)
		}
		if sat.OrbitClass != "LEO" {
			t.Fatalf("OrbitClass = %q", sat.OrbitClass)
		}
	})

	t.Run("unknown id is not found", func(t *testing.T) {
		_, err := c.Lookup(ctx, 99999)
		if !errors.Is(err, pkgerrors.ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("rejects non-positive id", func(t *testing.T) {
		_, err := c.Lookup(ctx, 0)
		if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
			t.Fatalf("err = %v, want ErrInvalidArgument", err)
		}
	})
}

type fakeClient struct {
	mu          sync.Mutex
	calls       int
	failBefore  int
	lastNoradID int64
}

func (f *fakeClient) Lookup(_ context.Context, noradID int64) (*Satellite, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastNoradID = noradID
	if f.calls <= f.failBefore {
		return nil, fmt.Errorf("upstream unavailable")
	}
	return &Satellite{NoradCatID: noradID, Name: fmt.Sprintf("SAT-%d", noradID)}, nil
}

func (f *fakeClient) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func TestServiceCaching(t *testing.T) {
	ctx := context.Background()
	now := time.Unix(1_700_000_000, 0).UTC()
	clock := func() time.Time { return now }

	fake := &fakeClient{}
	svc, err := newService(fake, testLogger(t), time.Hour, clock)
	if err != nil {
		t.Fatalf("newService: %v", err)
	}

	if _, err := svc.Get(ctx, 25544); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if _, err := svc.Get(ctx, 25544); err != nil {
		t.Fatalf("Get (cached): %v", err)
	}
	if got := fake.callCount(); got != 1 {
		t.Fatalf("upstream calls = %d, want 1 (second hit should be cached)", got)
	}

	now = now.Add(2 * time.Hour)
	if _, err := svc.Get(ctx, 25544); err != nil {
		t.Fatalf("Get (expired): %v", err)
	}
	if got := fake.callCount(); got != 2 {
		t.Fatalf("upstream calls = %d, want 2 after TTL expiry", got)
	}

	svc.Invalidate(25544)
	if _, err := svc.Get(ctx, 25544); err != nil {
		t.Fatalf("Get (invalidated): %v", err)
	}
	if got := fake.callCount(); got != 3 {
		t.Fatalf("upstream calls = %d, want 3 after Invalidate", got)
	}
}

func TestServiceCoalescesConcurrentLookups(t *testing.T) {
	ctx := context.Background()
	fake := &fakeClient{}
	svc, err := newService(fake, testLogger(t), time.Hour, time.Now)
	if err != nil {
		t.Fatalf("newService: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sat, err := svc.Get(ctx, 48274)
			if err != nil {
				t.Errorf("Get: %v", err)
				return
			}
			if sat.NoradCatID != 48274 {
				t.Errorf("NoradCatID = %d", sat.NoradCatID)
			}
		}()
	}
	wg.Wait()

	if got := fake.callCount(); got != 1 {
		t.Fatalf("upstream calls = %d, want 1 (coalesced)", got)
	}
}

func TestServiceDoesNotCacheErrors(t *testing.T) {
	ctx := context.Background()
	fake := &fakeClient{failBefore: 1}
	svc, err := newService(fake, testLogger(t), time.Hour, time.Now)
	if err != nil {
		t.Fatalf("newService: %v", err)
	}

	if _, err := svc.Get(ctx, 43013); err == nil {
		t.Fatalf("expected first lookup to fail")
	}
	sat, err := svc.Get(ctx, 43013)
	if err != nil {
		t.Fatalf("Get (retry): %v", err)
	}
	if sat == nil || sat.NoradCatID != 43013 {
		t.Fatalf("sat = %+v", sat)
	}
	if got := fake.callCount(); got != 2 {
		t.Fatalf("upstream calls = %d, want 2 (errors must not be cached)", got)
	}
}
